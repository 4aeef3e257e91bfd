// Package main runs the avouch example application: a small CI pipeline
// service that records builds together with their AI-involvement
// disclosure statements.
//
// Every recorded build is assessed on the spot and streamed to the
// embedded dashboard, so the example doubles as a live demo of the
// scoring and classification rules in avouch-example/avouch.yaml.
//
// The pipeline API listens on :8080:
//   - POST /build: record a build with its disclosure statement
//   - GET /build?id=<build_id>: look up a recorded build
//   - GET /builds: list recent builds, newest first
//
// The dashboard is available at http://localhost:9090 with the usual
// endpoints (/api/assess, /ws, /badge/, /metrics).
//
// Usage:
//
//	go run ./avouch-example/cmd/server
//
// Generate traffic with:
//
//	go run ./avouch-example/cmd/loadgen
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chosenoffset/avouch/pkg/avouch"
	"github.com/chosenoffset/avouch/pkg/avouch/actions"
	"github.com/chosenoffset/avouch/pkg/avouch/config"
	"github.com/chosenoffset/avouch/pkg/avouch/dashboard"
	"github.com/chosenoffset/avouch/pkg/avouch/metrics"

	"github.com/chosenoffset/avouch/avouch-example/internal/pipeline"
)

func main() {
	cfgPath := flag.String("config", "avouch-example/avouch.yaml", "configuration file")
	apiAddr := flag.String("api", ":8080", "pipeline API listen address")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := cfg.Logging.NewLogger(os.Stderr)
	if err != nil {
		slog.Error("failed to build logger", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	engine, err := avouch.NewEngine(cfg.Engine())
	if err != nil {
		logger.Error("failed to compile rules", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m := metrics.New()

	registry := actions.NewRegistry(logger)
	registry.Register("red", actions.NewSlogHandler(logger))

	dash, err := dashboard.NewServer(engine, dashboard.Options{
		Address:       cfg.Server.Address,
		History:       cfg.Server.History,
		BadgeLabel:    cfg.Badge.Label,
		BadgeTemplate: cfg.Badge.Template,
		LinkBase:      cfg.Badge.LinkBase,
		Logger:        logger,
		Metrics:       m,
		Actions:       registry,
	})
	if err != nil {
		logger.Error("failed to create dashboard", "error", err)
		os.Exit(1)
	}
	go func() {
		if err := dash.Start(); err != nil {
			logger.Error("dashboard failed", "error", err)
			cancel()
		}
	}()
	defer dash.Stop()

	// Assessments from recorded builds feed the dashboard's live feed.
	reg := pipeline.NewRegistry(engine, dash.Publish)

	mux := http.NewServeMux()
	mux.Handle("/build", m.Instrument("/build", routeByQuery(reg)))
	mux.Handle("/builds", m.Instrument("/builds", http.HandlerFunc(reg.HandleListBuilds)))

	api := &http.Server{
		Addr:         *apiAddr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("pipeline API listening", "address", *apiAddr)
	logger.Info("dashboard listening", "address", cfg.Server.Address)
	logger.Info("rules compiled", "levels", len(engine.Rules()))

	errChan := make(chan error, 1)
	go func() {
		errChan <- api.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("pipeline API failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := api.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}
}

// routeByQuery dispatches /build: POST records a build, GET looks one up.
func routeByQuery(reg *pipeline.Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			reg.HandleRecordBuild(w, r)
			return
		}
		reg.HandleGetBuild(w, r)
	})
}
