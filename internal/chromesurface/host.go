// Package chromesurface renders view surfaces as headless Chromium targets
// driven over the DevTools protocol.
package chromesurface

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/cdproto/inspector"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"pkt.systems/pslog"

	"pkt.systems/tabshell/view"
)

// Config controls the browser process and surface timeouts.
type Config struct {
	ExecPath       string
	Headless       bool
	NoSandbox      bool
	UserDataDir    string
	Flags          map[string]string
	CommandTimeout time.Duration
	// ReloadTimeout bounds a blocking reload of a browsing surface. The
	// reload runs on the tab dispatcher, usually right after a crash.
	ReloadTimeout time.Duration
	HangTimeout   time.Duration
	HangInterval  time.Duration
}

const (
	// DefaultCommandTimeout bounds a single DevTools round trip.
	DefaultCommandTimeout = 30 * time.Second
	// DefaultReloadTimeout bounds a browsing surface reload.
	DefaultReloadTimeout = 3 * time.Second
)

func (c Config) reloadTimeout() time.Duration {
	timeout := c.ReloadTimeout
	if timeout <= 0 {
		timeout = DefaultReloadTimeout
	}
	if c.CommandTimeout > 0 && c.CommandTimeout < timeout {
		timeout = c.CommandTimeout
	}
	return timeout
}

// Host owns one browser process and builds surfaces as targets in it.
type Host struct {
	cfg           Config
	logger        pslog.Logger
	browserCtx    context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
}

// New launches the browser. The browser lives until Close or until ctx is
// done.
func New(ctx context.Context, cfg Config, logger pslog.Logger) (*Host, error) {
	if logger == nil {
		logger = pslog.Ctx(ctx)
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = DefaultCommandTimeout
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOptions(cfg)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			logger.Debug("chrome protocol error", "detail", fmt.Sprintf(format, args...))
		}),
	)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	logger.Info("chrome started", "headless", cfg.Headless, "exec_path", cfg.ExecPath)
	return &Host{
		cfg:           cfg,
		logger:        logger,
		browserCtx:    browserCtx,
		allocCancel:   allocCancel,
		browserCancel: browserCancel,
	}, nil
}

func allocatorOptions(cfg Config) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", cfg.Headless),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
	}
	for _, name := range slices.Sorted(maps.Keys(cfg.Flags)) {
		opts = append(opts, chromedp.Flag(name, flagValue(cfg.Flags[name])))
	}
	return opts
}

// flagValue turns "true"/"false" into booleans so chromedp renders them as
// bare switches.
func flagValue(raw string) any {
	if v, err := strconv.ParseBool(strings.TrimSpace(raw)); err == nil {
		return v
	}
	return raw
}

// NewSurface implements view.Host. Browsing surfaces with an in-memory
// partition get their own browser context.
func (h *Host) NewSurface(kind view.SurfaceKind, attrs view.Attributes) (view.Surface, error) {
	if err := h.browserCtx.Err(); err != nil {
		return nil, fmt.Errorf("browser closed: %w", err)
	}
	var opts []chromedp.ContextOption
	if kind == view.SurfaceBrowsing && strings.HasPrefix(attrs["partition"], "temp") {
		opts = append(opts, chromedp.WithNewBrowserContext())
	}
	ctx, cancel := chromedp.NewContext(h.browserCtx, opts...)
	s := newSurface(ctx, cancel, kind, attrs, h.cfg, h.logger.With("surface", string(kind)))
	chromedp.ListenTarget(ctx, s.listen)
	if err := chromedp.Run(ctx, network.Enable(), inspector.Enable(), page.Enable()); err != nil {
		cancel()
		return nil, fmt.Errorf("open target: %w", err)
	}
	if kind == view.SurfaceBrowsing && h.cfg.HangInterval > 0 {
		go s.watchdog()
	}
	return s, nil
}

// Close shuts the browser down.
func (h *Host) Close() {
	h.browserCancel()
	h.allocCancel()
	h.logger.Debug("chrome stopped")
}
