package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pkt.systems/pslog"

	"pkt.systems/tabshell/core"
	"pkt.systems/tabshell/internal/format"
	"pkt.systems/tabshell/internal/logx"
	"pkt.systems/tabshell/internal/navigate"
	"pkt.systems/tabshell/internal/version"
	"pkt.systems/tabshell/schema"
)

// Executor runs fn on the goroutine that owns the tab group.
type Executor interface {
	Do(ctx context.Context, fn func()) error
}

// HandlerConfig configures slash command behavior.
type HandlerConfig struct {
	DisableAuditLogging bool
}

// Result is what a handled line produced.
type Result struct {
	Lines []string
	Quit  bool
}

// Handler routes slash commands and address bar input to a tab group.
type Handler struct {
	exec     Executor
	group    *core.TabGroup
	nav      *navigate.Navigator
	renderer *format.PlainRenderer
	cfg      HandlerConfig
}

// NewHandler constructs a command handler.
func NewHandler(exec Executor, group *core.TabGroup, nav *navigate.Navigator, cfg HandlerConfig) *Handler {
	return &Handler{
		exec:     exec,
		group:    group,
		nav:      nav,
		renderer: format.NewPlainRenderer(),
		cfg:      cfg,
	}
}

var helpLines = []string{
	"/new [input]      open a tab, optionally loading input",
	"/go <input>       load input in the active tab",
	"/close [id]       close a tab (default: active)",
	"/force [id]       close a tab even when it is not closable",
	"/tab <pos>        activate the tab at a position (negative counts from the right)",
	"/next, /prev      activate the neighbouring tab",
	"/move <pos>       move the active tab",
	"/reload           reload the active tab",
	"/list             list tabs",
	"/engine [name]    show or set the search engine",
	"/settings         open settings",
	"/downloads        open downloads",
	"/version          show version",
	"/quit             exit",
	"anything else is loaded in the active tab",
}

// Handle executes one line of input. Lines without a leading slash are
// submitted to the active tab.
func (h *Handler) Handle(ctx context.Context, input string) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("missing context")
	}
	log := logx.FromContext(ctx, h.group.ID()).With("input_len", len(input))
	cmd, ok := Parse(input)
	if !ok {
		if strings.TrimSpace(input) == "" {
			return Result{}, nil
		}
		if !h.cfg.DisableAuditLogging {
			log.Debug("audit command", "command_type", "input", "command", strings.TrimSpace(input))
		}
		return h.submit(ctx, log, input)
	}
	if !h.cfg.DisableAuditLogging {
		log.Debug("audit command", "command_type", "slash", "command", strings.TrimSpace(input))
	}
	log = log.With("command", cmd.Name, "args", len(cmd.Args))
	log.Info("command slash request")
	switch cmd.Name {
	case "":
		log.Warn("command slash rejected", "reason", "empty")
		return Result{}, fmt.Errorf("invalid command")
	case "new":
		return h.handleNew(ctx, log, cmd)
	case "go":
		if cmd.Remainder == "" {
			return Result{}, fmt.Errorf("usage: /go <url|search>")
		}
		return h.submit(ctx, log, cmd.Remainder)
	case "close":
		return h.handleClose(ctx, log, cmd, false)
	case "force":
		return h.handleClose(ctx, log, cmd, true)
	case "tab":
		return h.handleTab(ctx, log, cmd)
	case "next":
		return h.activateRelative(ctx, 1)
	case "prev":
		return h.activateRelative(ctx, -1)
	case "move":
		return h.handleMove(ctx, cmd)
	case "reload":
		return h.handleReload(ctx, log)
	case "list", "ls":
		return h.handleList(ctx)
	case "engine":
		return h.handleEngine(ctx, cmd)
	case "settings":
		return h.openNative(ctx, navigate.SettingsPage, navigate.CalledByMenu)
	case "downloads":
		return h.openNative(ctx, navigate.DownloadsPage, navigate.CalledByDownloads)
	case "help":
		return Result{Lines: append([]string{}, helpLines...)}, nil
	case "version":
		return Result{Lines: []string{version.Read().String()}}, nil
	case "quit", "exit", "q":
		return Result{Quit: true}, nil
	default:
		log.Warn("command slash rejected", "reason", "unknown")
		return Result{}, fmt.Errorf("unknown command: /%s", cmd.Name)
	}
}

// do runs fn on the group executor and returns its result.
func (h *Handler) do(ctx context.Context, fn func() (Result, error)) (Result, error) {
	type outcome struct {
		res Result
		err error
	}
	result := make(chan outcome, 1)
	if err := h.exec.Do(ctx, func() {
		res, err := fn()
		result <- outcome{res: res, err: err}
	}); err != nil {
		return Result{}, err
	}
	out := <-result
	return out.res, out.err
}

func (h *Handler) submit(ctx context.Context, log pslog.Logger, input string) (Result, error) {
	return h.do(ctx, func() (Result, error) {
		tab, err := h.nav.Submit(h.group.ActiveTab(), input)
		if err != nil {
			log.Warn("command submit failed", "err", err)
			return Result{}, err
		}
		return Result{Lines: []string{fmt.Sprintf("loading %s in tab %d", tab.Src(), tab.ID())}}, nil
	})
}

func (h *Handler) handleNew(ctx context.Context, log pslog.Logger, cmd Command) (Result, error) {
	return h.do(ctx, func() (Result, error) {
		tab := h.nav.NewTab()
		if tab == nil {
			return Result{}, schema.ErrTabClosed
		}
		if cmd.Remainder == "" {
			log.Info("command new completed", "tab", tab.ID())
			return Result{Lines: []string{fmt.Sprintf("tab opened: %d", tab.ID())}}, nil
		}
		next, err := h.nav.Submit(tab, cmd.Remainder)
		if err != nil {
			log.Warn("command new failed", "tab", tab.ID(), "err", err)
			return Result{}, err
		}
		log.Info("command new completed", "tab", next.ID())
		return Result{Lines: []string{fmt.Sprintf("tab opened: %d %s", next.ID(), next.Src())}}, nil
	})
}

// resolveTab returns the tab named by the first argument, or the active tab.
func (h *Handler) resolveTab(cmd Command) (*core.Tab, error) {
	id, ok, err := cmd.IntArg(0)
	if err != nil {
		return nil, err
	}
	if !ok {
		if tab := h.group.ActiveTab(); tab != nil {
			return tab, nil
		}
		return nil, schema.ErrNoActiveTab
	}
	tab := h.group.Tab(schema.TabID(id))
	if tab == nil {
		return nil, fmt.Errorf("%w: %d", schema.ErrTabNotFound, id)
	}
	return tab, nil
}

func (h *Handler) handleClose(ctx context.Context, log pslog.Logger, cmd Command, force bool) (Result, error) {
	return h.do(ctx, func() (Result, error) {
		tab, err := h.resolveTab(cmd)
		if err != nil {
			return Result{}, err
		}
		if !tab.Close(force) {
			log.Info("command close refused", "tab", tab.ID())
			return Result{Lines: []string{fmt.Sprintf("tab %d was not closed", tab.ID())}}, nil
		}
		return Result{Lines: []string{fmt.Sprintf("tab closed: %d", tab.ID())}}, nil
	})
}

func (h *Handler) handleTab(ctx context.Context, log pslog.Logger, cmd Command) (Result, error) {
	position, ok, err := cmd.IntArg(0)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, fmt.Errorf("usage: /tab <position>")
	}
	return h.do(ctx, func() (Result, error) {
		tab := h.group.TabByPosition(position)
		if tab == nil {
			log.Warn("command tab rejected", "position", position)
			return Result{}, fmt.Errorf("%w: position %d", schema.ErrTabNotFound, position)
		}
		tab.Activate()
		return Result{Lines: []string{fmt.Sprintf("tab active: %d", tab.ID())}}, nil
	})
}

func (h *Handler) activateRelative(ctx context.Context, delta int) (Result, error) {
	return h.do(ctx, func() (Result, error) {
		tab := h.group.TabByRelPosition(delta)
		if tab == nil {
			return Result{}, schema.ErrTabNotFound
		}
		tab.Activate()
		return Result{Lines: []string{fmt.Sprintf("tab active: %d", tab.ID())}}, nil
	})
}

func (h *Handler) handleMove(ctx context.Context, cmd Command) (Result, error) {
	position, ok, err := cmd.IntArg(0)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, fmt.Errorf("usage: /move <position>")
	}
	return h.do(ctx, func() (Result, error) {
		tab := h.group.ActiveTab()
		if tab == nil {
			return Result{}, schema.ErrNoActiveTab
		}
		tab.SetPosition(position)
		return Result{Lines: []string{fmt.Sprintf("tab %d moved to position %d", tab.ID(), tab.Position(false))}}, nil
	})
}

func (h *Handler) handleReload(ctx context.Context, log pslog.Logger) (Result, error) {
	return h.do(ctx, func() (Result, error) {
		tab := h.group.ActiveTab()
		if tab == nil {
			return Result{}, schema.ErrNoActiveTab
		}
		if err := tab.Reload(); err != nil {
			log.Warn("command reload failed", "tab", tab.ID(), "err", err)
			return Result{}, err
		}
		return Result{Lines: []string{fmt.Sprintf("reloading tab %d", tab.ID())}}, nil
	})
}

func (h *Handler) handleList(ctx context.Context) (Result, error) {
	return h.do(ctx, func() (Result, error) {
		return Result{Lines: h.renderer.FormatTabs(h.group.Snapshot())}, nil
	})
}

func (h *Handler) handleEngine(ctx context.Context, cmd Command) (Result, error) {
	return h.do(ctx, func() (Result, error) {
		if len(cmd.Args) == 0 {
			return Result{Lines: []string{fmt.Sprintf("search engine: %s", h.nav.Engine().Name)}}, nil
		}
		if err := h.nav.SetEngine(cmd.Args[0]); err != nil {
			return Result{}, err
		}
		return Result{Lines: []string{fmt.Sprintf("search engine: %s", h.nav.Engine().Name)}}, nil
	})
}

func (h *Handler) openNative(ctx context.Context, page navigate.NativePage, calledBy string) (Result, error) {
	return h.do(ctx, func() (Result, error) {
		tab := h.nav.OpenNative(page, calledBy)
		if tab == nil {
			return Result{}, schema.ErrTabClosed
		}
		return Result{Lines: []string{fmt.Sprintf("tab opened: %d %s", tab.ID(), page.Title)}}, nil
	})
}
