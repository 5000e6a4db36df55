package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/tabshell"
	"pkt.systems/tabshell/core"
	"pkt.systems/tabshell/internal/appconfig"
	"pkt.systems/tabshell/internal/chromesurface"
)

type runOptions struct {
	cfgPath            string
	watch              bool
	headless           bool
	headful            bool
	execPath           string
	engine             string
	disableAuditTrails bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run [url...]",
		Short: "Start a tab group and read commands from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(opts.cfgPath)
			if err != nil {
				return err
			}
			applyRunFlags(&cfg, opts)
			if opts.watch && opts.cfgPath == "" {
				if opts.cfgPath, err = appconfig.DefaultConfigPath(); err != nil {
					return err
				}
			}

			logger := pslog.Ctx(cmd.Context())
			flog, closer, err := fileLogger(cfg.Logging)
			if err != nil {
				return err
			}
			if flog != nil {
				defer func() { _ = closer.Close() }()
				logger = flog
			}
			ctx := pslog.ContextWithLogger(cmd.Context(), logger)

			policy, err := cfg.SchemaPolicy()
			if err != nil {
				return err
			}
			recovery := cfg.SchemaRecovery()

			host, err := chromesurface.New(ctx, chromeConfig(cfg), logger)
			if err != nil {
				return err
			}

			shell, err := tabshell.New(tabshell.ShellConfig{
				Group:               groupOptions(cfg),
				Policy:              policy,
				Recovery:            recovery,
				SearchEngine:        cfg.Search.Engine,
				InitialURLs:         args,
				DisableAuditLogging: cfg.Logging.DisableAuditTrails,
				ConfigPath:          opts.cfgPath,
				WatchConfig:         opts.watch,
				Input:               cmd.InOrStdin(),
				Output:              cmd.OutOrStdout(),
			}, tabshell.ShellDeps{
				Host:   host,
				Logger: logger,
			})
			if err != nil {
				host.Close()
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := shell.Stop(stopCtx); err != nil {
					logger.Warn("shell stop failed", "err", err)
				}
			}()
			logger.Info("tab group starting", "headless", cfg.Chrome.Headless, "engine", cfg.Search.Engine, "urls", len(args))
			if err := shell.Start(ctx); err != nil {
				return err
			}
			return shell.Wait()
		},
	}
	cmd.Flags().StringVarP(&opts.cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "reload policy and search engine when the config file changes")
	cmd.Flags().BoolVar(&opts.headless, "headless", false, "force a headless browser")
	cmd.Flags().BoolVar(&opts.headful, "headful", false, "force a visible browser window")
	cmd.Flags().StringVar(&opts.execPath, "chrome", "", "path to the browser executable")
	cmd.Flags().StringVar(&opts.engine, "engine", "", "search engine for address bar input")
	cmd.Flags().BoolVar(&opts.disableAuditTrails, "disable-audit-trails", false, "disable audit trail logging for commands")
	cmd.MarkFlagsMutuallyExclusive("headless", "headful")
	return cmd
}

func applyRunFlags(cfg *appconfig.Config, opts runOptions) {
	if opts.headless {
		cfg.Chrome.Headless = true
	}
	if opts.headful {
		cfg.Chrome.Headless = false
	}
	if opts.execPath != "" {
		cfg.Chrome.ExecPath = opts.execPath
	}
	if opts.engine != "" {
		cfg.Search.Engine = opts.engine
	}
	if opts.disableAuditTrails {
		cfg.Logging.DisableAuditTrails = true
	}
}

func chromeConfig(cfg appconfig.Config) chromesurface.Config {
	recovery := cfg.SchemaRecovery()
	return chromesurface.Config{
		ExecPath:       cfg.Chrome.ExecPath,
		Headless:       cfg.Chrome.Headless,
		NoSandbox:      cfg.Chrome.NoSandbox,
		UserDataDir:    cfg.Chrome.UserDataDir,
		Flags:          cfg.Chrome.Flags,
		CommandTimeout: time.Duration(cfg.Chrome.CommandTimeoutMS) * time.Millisecond,
		HangTimeout:    recovery.HangTimeout,
		HangInterval:   recovery.HangInterval,
	}
}

func groupOptions(cfg appconfig.Config) core.GroupOptions {
	newTab := cfg.NewTab
	return core.GroupOptions{
		TabClass:            cfg.Group.TabClass,
		ViewClass:           cfg.Group.ViewClass,
		CloseButtonText:     cfg.Group.CloseButtonText,
		NewTabButtonText:    cfg.Group.NewTabButtonText,
		VisibilityThreshold: cfg.Group.VisibilityThreshold,
		NewTab: func(*core.TabGroup) core.TabSpec {
			return newTabSpec(newTab)
		},
	}
}

func newTabSpec(cfg appconfig.NewTabConfig) core.TabSpec {
	spec := core.TabSpec{
		Title:   cfg.Title,
		Icon:    cfg.Icon,
		IconURL: cfg.IconURL,
		Active:  true,
	}
	if cfg.URL != "" {
		spec.Src = cfg.URL
		return spec
	}
	spec.IsNative = true
	spec.Component = cfg.Component
	return spec
}
