package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"marketwatch"
)

// createWatchCommand creates the watch (daemon) subcommand
func createWatchCommand(globalFlags *GlobalFlags, flags *WatchFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [config.toml]",
		Short: "Start the marketwatch daemon",
		Long: `Start the marketwatch daemon: polls the marketplace search on the
configured cron schedule and notifies Telegram about unseen listings.

Examples:
  marketwatch watch                     # Start daemon (uses --config)
  marketwatch watch config.toml         # Start with specific config file
  marketwatch watch --daemonize         # Run as daemon in background`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.ConfigPath = globalFlags.ConfigPath
			return runWatchCommand(flags, args)
		},
	}

	cmd.Flags().BoolVar(&flags.Daemonize, "daemonize", false, "run as daemon in background")
	cmd.Flags().StringVar(&flags.PidFile, "pidfile", "", "write daemon PID to file")
	cmd.Flags().StringVar(&flags.LogFile, "logfile", "", "redirect daemon logs to file")

	return cmd
}

func runWatchCommand(flags *WatchFlags, args []string) error {
	configPath := flags.ConfigPath
	if len(args) > 0 {
		configPath = args[0]
	}

	cfg, err := marketwatch.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if flags.Daemonize {
		return daemonize(flags.PidFile, flags.LogFile)
	}

	log, err := marketwatch.SetupLogging(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	if err := marketwatch.RegisterMetricsDefault(); err != nil {
		fmt.Printf("Warning: failed to register metrics: %v\n", err)
	}

	app, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	scheduler, err := marketwatch.NewScheduler(app.watcher, cfg.Watch.Schedule)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.Watch.Schedule, err)
	}
	scheduler.Start()
	log.Info("started watch scheduler", "schedule", cfg.Watch.Schedule)

	var server *http.Server
	if cfg.Server.Listen != "" {
		server, err = marketwatch.NewHTTPServer(cfg.Server.Listen, cfg.Server.BasePath, app.watcher)
		if err != nil {
			return fmt.Errorf("failed to create HTTP server: %w", err)
		}
		fmt.Printf("Starting marketwatch server on %s%s\n", cfg.Server.Listen, cfg.Server.BasePath)
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("Shutting down...")
	<-scheduler.Stop().Done()
	if server != nil {
		_ = server.Close()
	}
	_ = removePidFile(flags.PidFile)
	return nil
}

// createOnceCommand creates the once subcommand
func createOnceCommand(globalFlags *GlobalFlags, flags *OnceFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "once [config.toml]",
		Short: "Run a single polling cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.ConfigPath = globalFlags.ConfigPath
			return runOnceCommand(flags, args)
		},
	}

	cmd.Flags().StringVar(&flags.Timeout, "timeout", "10m", "cycle deadline")

	return cmd
}

func runOnceCommand(flags *OnceFlags, args []string) error {
	configPath := flags.ConfigPath
	if len(args) > 0 {
		configPath = args[0]
	}

	cfg, err := marketwatch.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if _, err := marketwatch.SetupLogging(cfg.Log); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	timeout, err := time.ParseDuration(flags.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout %q: %w", flags.Timeout, err)
	}

	app, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.watcher.Run(ctx); err != nil {
		return fmt.Errorf("cycle failed: %w", err)
	}

	st := app.watcher.Status()
	fmt.Printf("Cycle finished: discovered=%d notified=%d ledger=%d\n",
		st.Discovered, st.Notified, st.LedgerSize)
	return nil
}

// app bundles the watcher with the resources it owns.
type app struct {
	watcher  *marketwatch.Watcher
	sessions *marketwatch.SessionManager
	ledger   marketwatch.LedgerStore
	history  marketwatch.HistorySink
}

func (a *app) Close() {
	if a.sessions != nil {
		_ = a.sessions.Close()
	}
	if a.ledger != nil {
		_ = a.ledger.Close()
	}
	if a.history != nil {
		_ = a.history.Close()
	}
}

// buildApp assembles the watcher and its collaborators from config.
func buildApp(cfg *marketwatch.Config) (*app, error) {
	store, err := marketwatch.NewLedger(cfg.Ledger)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	var sink marketwatch.HistorySink
	if cfg.History.DSN != "" {
		sink, err = marketwatch.NewHistorySink(cfg.History.DSN)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to open history sink: %w", err)
		}
	}

	sessions := marketwatch.NewSessionManager(cfg.BrowserConfig())
	notifier := marketwatch.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatIDs)

	w := marketwatch.NewWatcher(marketwatch.Options{
		TargetURL: cfg.SearchSpec().URL(),
		UserAgent: cfg.Watch.UserAgent,
		Credentials: marketwatch.Credentials{
			Email:    cfg.Marketplace.Email,
			Password: cfg.Marketplace.Password,
		},
		Discoverer: marketwatch.Discoverer{
			Selector:    cfg.Watch.AnchorSelector,
			SettleDelay: cfg.Watch.SettleDelay,
			StableReads: cfg.Watch.StableReads,
			MaxIters:    cfg.Watch.MaxScrollIters,
		},
		Sessions: sessions,
		Ledger:   store,
		Notifier: notifier,
		History:  sink,
	})

	return &app{watcher: w, sessions: sessions, ledger: store, history: sink}, nil
}
