package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chosenoffset/avouch/pkg/avouch"
	"github.com/chosenoffset/avouch/pkg/avouch/actions"
	"github.com/chosenoffset/avouch/pkg/avouch/config"
	"github.com/chosenoffset/avouch/pkg/avouch/dashboard"
	"github.com/chosenoffset/avouch/pkg/avouch/metrics"
	"github.com/chosenoffset/avouch/pkg/avouch/store"
)

var serveFlags struct {
	address string
	noWatch bool
	console bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the assessment dashboard",
	Long: `Run the dashboard server: an HTTP API for assessing statements, a
websocket feed of live results, badge redirects and a Prometheus
metrics endpoint.

When storage is enabled in the configuration, assessments are
persisted to SQLite and pruned on the retention schedule. The
configuration file is watched for changes and the rule set is swapped
in place without dropping connections.

Examples:
  # Start with the default configuration file
  avouch serve

  # Start with a custom configuration
  avouch serve --config /etc/avouch/avouch.yaml

  # Override the listen address
  avouch serve --address 0.0.0.0:8931`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.address, "address", "a", "", "override listen address")
	serveCmd.Flags().BoolVar(&serveFlags.noWatch, "no-watch", false, "disable configuration hot reload")
	serveCmd.Flags().BoolVar(&serveFlags.console, "console", false, "print each assessment to stdout")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Apply flag overrides
	if serveFlags.address != "" {
		cfg.Server.Address = serveFlags.address
	}

	logger, err := cfg.Logging.NewLogger(os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	engine, err := avouch.NewEngine(cfg.Engine())
	if err != nil {
		return err
	}

	fmt.Printf("avouch %s\n", Version)
	fmt.Printf("✓ Configuration loaded from %s\n", cfgFile)
	fmt.Printf("✓ Engine compiled (%d levels, %d scoring rules)\n", len(engine.Rules()), len(cfg.Scoring))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m := metrics.New()

	registry := actions.NewRegistry(logger)
	registry.Register("", actions.NewSlogHandler(logger))
	if serveFlags.console {
		registry.Register("", actions.NewConsoleHandler(os.Stdout))
	}

	opts := dashboard.Options{
		Address:         cfg.Server.Address,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		History:         cfg.Server.History,
		BadgeLabel:      cfg.Badge.Label,
		BadgeTemplate:   cfg.Badge.Template,
		LinkBase:        cfg.Badge.LinkBase,
		Logger:          logger,
		Metrics:         m,
		Actions:         registry,
	}

	// History store and retention pruning
	if cfg.Storage.Enabled {
		st, err := store.NewSQLiteStoreWithConfig(store.Config{
			Path:        cfg.Storage.Path,
			BusyTimeout: cfg.Storage.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		defer st.Close()
		opts.Store = st

		retention, err := store.NewRetentionScheduler(st, cfg.Storage.Retention.MaxAge, cfg.Storage.Retention.Schedule, logger)
		if err != nil {
			return fmt.Errorf("failed to create retention scheduler: %w", err)
		}
		if err := retention.Start(ctx); err != nil {
			logger.Warn("failed to start retention scheduler", "error", err)
		} else {
			defer retention.Stop()
		}

		fmt.Printf("✓ History store at %s\n", cfg.Storage.Path)
	}

	srv, err := dashboard.NewServer(engine, opts)
	if err != nil {
		return err
	}

	// Configuration hot reload
	if !serveFlags.noWatch {
		watcher, err := config.NewWatcher(cfgFile, 0, logger)
		if err != nil {
			logger.Warn("configuration watcher unavailable", "error", err)
		} else {
			go func() {
				err := watcher.Watch(ctx, func(next *config.Config) {
					engine, err := avouch.NewEngine(next.Engine())
					if err != nil {
						logger.Error("reloaded configuration rejected", "error", err)
						return
					}
					srv.SetEngine(engine)
				})
				if err != nil {
					logger.Error("configuration watcher failed", "error", err)
				}
			}()
			defer watcher.Stop()
			fmt.Printf("✓ Watching %s for changes\n", cfgFile)
		}
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	fmt.Println()
	fmt.Printf("✓ Dashboard listening on http://%s\n", cfg.Server.Address)
	fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", cfg.Server.Address)
	fmt.Println("\nPress Ctrl+C to stop")

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		fmt.Println("\nShutting down gracefully...")
		if err := srv.Stop(); err != nil {
			logger.Error("shutdown failed", "error", err)
			return err
		}
		fmt.Println("✓ Server stopped")
		return nil
	}
}
