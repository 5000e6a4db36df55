// Package tabshell composes a tab group with its dispatcher loop, a view
// host, the address bar navigator and a line-oriented command shell.
package tabshell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"pkt.systems/pslog"

	"pkt.systems/tabshell/core"
	"pkt.systems/tabshell/internal/appconfig"
	"pkt.systems/tabshell/internal/command"
	"pkt.systems/tabshell/internal/eventbus"
	"pkt.systems/tabshell/internal/format"
	"pkt.systems/tabshell/internal/logx"
	"pkt.systems/tabshell/internal/navigate"
	"pkt.systems/tabshell/internal/strip"
	"pkt.systems/tabshell/schema"
	"pkt.systems/tabshell/view"
)

// Shell runs one tab group.
type Shell interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(ctx context.Context) error
	// Exec runs one line of shell input.
	Exec(ctx context.Context, line string) (command.Result, error)
	// Do runs fn on the group's dispatcher.
	Do(ctx context.Context, fn func(*core.TabGroup, *navigate.Navigator)) error
	Snapshot(ctx context.Context) (schema.GroupSnapshot, error)
	UpdatePolicy(ctx context.Context, policy schema.PolicyConfig) error
	Subscribe() (<-chan schema.Event, func())
}

// ShellConfig configures the compositor.
type ShellConfig struct {
	Group               core.GroupOptions
	Policy              schema.PolicyConfig
	Recovery            schema.RecoveryConfig
	SearchEngine        string
	InitialURLs         []string
	DisableAuditLogging bool
	// ConfigPath is watched for policy and search engine changes when
	// WatchConfig is set.
	ConfigPath  string
	WatchConfig bool
	// Input is read line by line as shell commands. EOF stops the shell.
	Input io.Reader
	// Output receives command results and event lines.
	Output io.Writer
}

// ShellDeps captures dependencies required to build the shell.
type ShellDeps struct {
	Host view.Host
	// Strip defaults to an in-memory strip.
	Strip  core.Strip
	Sink   core.EventSink
	Logger pslog.Logger
}

// New constructs a shell. Nothing runs until Start.
func New(cfg ShellConfig, deps ShellDeps) (Shell, error) {
	if deps.Host == nil {
		return nil, schema.ErrMissingHost
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	tabStrip := deps.Strip
	if tabStrip == nil {
		tabStrip = strip.NewMemory()
	}
	loop := core.NewLoop(logger)
	bus := eventbus.New(logger)
	var sink core.EventSink = bus
	if deps.Sink != nil {
		sink = eventFanout{sinks: []core.EventSink{deps.Sink, bus}}
	}
	group, err := core.NewTabGroup(cfg.Group, core.GroupDeps{
		Host:       deps.Host,
		Strip:      tabStrip,
		Dispatcher: loop,
		Sink:       sink,
		Policy:     cfg.Policy,
		Recovery:   cfg.Recovery,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	nav, err := navigate.New(group, cfg.SearchEngine, logger)
	if err != nil {
		return nil, err
	}
	return &shell{
		cfg:     cfg,
		host:    deps.Host,
		loop:    loop,
		bus:     bus,
		group:   group,
		nav:     nav,
		handler: command.NewHandler(loop, group, nav, command.HandlerConfig{DisableAuditLogging: cfg.DisableAuditLogging}),
		logger:  logx.WithGroup(logger, group.ID()),
	}, nil
}

type shell struct {
	cfg     ShellConfig
	host    view.Host
	loop    *core.Loop
	bus     *eventbus.Bus
	group   *core.TabGroup
	nav     *navigate.Navigator
	handler *command.Handler
	logger  pslog.Logger

	outMu sync.Mutex

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
	started bool
}

func (s *shell) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		s.logger.Warn("shell start rejected", "reason", "already started")
		return errors.New("shell already started")
	}
	s.ctx, s.cancel = context.WithCancel(logx.ContextWithGroupLogger(ctx, s.logger, s.group.ID()))
	s.done = make(chan struct{})
	s.started = true
	runCtx := s.ctx
	s.mu.Unlock()

	log := s.logger
	log.Info("shell start",
		"initial_urls", len(s.cfg.InitialURLs),
		"engine", s.nav.Engine().Name,
		"watch_config", s.cfg.WatchConfig,
	)

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		err := s.loop.Run(gctx)
		// The loop is closed; this goroutine is the group's only user now.
		s.group.Shutdown()
		if closer, ok := s.host.(interface{ Close() }); ok {
			closer.Close()
		}
		log.Info("shell loop stopped")
		return err
	})
	if s.cfg.Output != nil {
		events, cancel := s.bus.Subscribe(s.group.ID())
		g.Go(func() error {
			defer cancel()
			return s.printEvents(gctx, events)
		})
	}
	if err := s.loop.Do(gctx, s.openInitialTabs); err != nil {
		s.cancel()
		<-s.wait(g)
		return fmt.Errorf("open initial tabs: %w", err)
	}
	if s.cfg.Input != nil {
		g.Go(func() error { return s.readCommands(gctx) })
	}
	if s.cfg.WatchConfig {
		g.Go(func() error {
			return appconfig.Watch(gctx, s.cfg.ConfigPath, s.applyConfig)
		})
	}
	s.wait(g)
	return nil
}

func (s *shell) wait(g *errgroup.Group) <-chan struct{} {
	go func() {
		err := g.Wait()
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.done)
	}()
	return s.done
}

func (s *shell) openInitialTabs() {
	if len(s.cfg.InitialURLs) == 0 {
		s.nav.NewTab()
		return
	}
	for _, url := range s.cfg.InitialURLs {
		tab := s.nav.NewTab()
		if _, err := s.nav.Submit(tab, url); err != nil {
			s.logger.Warn("shell initial tab failed", "url", url, "err", err)
		}
	}
	if first := s.group.TabByPosition(1); first != nil {
		first.Activate()
	}
}

// readCommands feeds input lines to the command handler. The scanner runs on
// its own goroutine since a blocked read cannot observe ctx.
func (s *shell) readCommands(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(s.cfg.Input)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			s.logger.Info("shell input closed")
			s.cancel()
			return err
		case line := <-lines:
			res, err := s.handler.Handle(ctx, line)
			if err != nil {
				if errors.Is(err, schema.ErrLoopClosed) || errors.Is(err, context.Canceled) {
					return nil
				}
				s.writeLines("error: " + err.Error())
				continue
			}
			s.writeLines(res.Lines...)
			if res.Quit {
				s.logger.Info("shell quit requested")
				s.cancel()
				return nil
			}
		}
	}
}

func (s *shell) printEvents(ctx context.Context, events <-chan schema.Event) error {
	renderer := format.NewPlainRenderer()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			lines, err := renderer.FormatEvent(event)
			if err != nil {
				s.logger.Debug("shell event format failed", "event", string(event.Name), "err", err)
				continue
			}
			s.writeLines(lines...)
		}
	}
}

func (s *shell) writeLines(lines ...string) {
	if s.cfg.Output == nil || len(lines) == 0 {
		return
	}
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if _, err := io.WriteString(s.cfg.Output, strings.Join(lines, "\n")+"\n"); err != nil {
		s.logger.Debug("shell output failed", "err", err)
	}
}

func (s *shell) applyConfig(cfg appconfig.Config) {
	policy, err := cfg.SchemaPolicy()
	if err != nil {
		s.logger.Warn("shell policy rejected", "err", err)
		return
	}
	ctx := s.runContext()
	if err := s.UpdatePolicy(ctx, policy); err != nil {
		s.logger.Warn("shell policy update failed", "err", err)
	}
	if err := s.loop.Do(ctx, func() {
		if err := s.nav.SetEngine(cfg.Search.Engine); err != nil {
			s.logger.Warn("shell search engine rejected", "engine", cfg.Search.Engine, "err", err)
		}
	}); err != nil {
		s.logger.Debug("shell search engine update skipped", "err", err)
	}
}

func (s *shell) runContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

func (s *shell) Exec(ctx context.Context, line string) (command.Result, error) {
	return s.handler.Handle(ctx, line)
}

func (s *shell) Do(ctx context.Context, fn func(*core.TabGroup, *navigate.Navigator)) error {
	return s.loop.Do(ctx, func() { fn(s.group, s.nav) })
}

func (s *shell) Snapshot(ctx context.Context) (schema.GroupSnapshot, error) {
	result := make(chan schema.GroupSnapshot, 1)
	if err := s.loop.Do(ctx, func() { result <- s.group.Snapshot() }); err != nil {
		return schema.GroupSnapshot{}, err
	}
	return <-result, nil
}

func (s *shell) UpdatePolicy(ctx context.Context, policy schema.PolicyConfig) error {
	result := make(chan error, 1)
	if err := s.loop.Do(ctx, func() { result <- s.group.SetPolicy(policy) }); err != nil {
		return err
	}
	return <-result
}

func (s *shell) Subscribe() (<-chan schema.Event, func()) {
	return s.bus.Subscribe(s.group.ID())
}

func (s *shell) Wait() error {
	s.mu.Lock()
	done := s.done
	started := s.started
	s.mu.Unlock()
	if !started {
		return errors.New("shell not started")
	}
	<-done
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		s.logger.Error("shell stopped", "err", s.err)
	}
	return s.err
}

func (s *shell) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	started := s.started
	s.mu.Unlock()
	if !started {
		return nil
	}
	s.logger.Info("shell stop requested")
	cancel()
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		s.logger.Warn("shell stop timed out", "err", ctx.Err())
		return ctx.Err()
	case <-done:
		s.logger.Info("shell stopped")
		return nil
	}
}
