package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/leadscout-ai/leadscout/pkg/config"
	"github.com/leadscout-ai/leadscout/pkg/crew"
	"github.com/leadscout-ai/leadscout/pkg/server"
	"github.com/leadscout-ai/leadscout/pkg/store"
	"github.com/leadscout-ai/leadscout/pkg/telemetry"
)

func runServe(ctx context.Context, global globalFlags, cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":8090", "listen address")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}

	shutdown, err := telemetry.InitWithConfig("leadscout", version, telemetry.Config{
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		fatal(err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()

	metrics, err := telemetry.NewRunMetrics()
	if err != nil {
		fatal(err)
	}

	c, err := buildCrew(cfg, crew.WithMetrics(metrics))
	if err != nil {
		fatal(err)
	}

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		fatal(err)
	}
	defer db.Close()
	runs, err := store.NewRunStore(db)
	if err != nil {
		fatal(err)
	}

	handler := server.New(c, runs,
		server.WithReportDir(cfg.Report.Dir),
		server.WithMetrics(metrics),
	)

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("server.shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	slog.Info("server.listening", slog.String("addr", *addr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal(fmt.Errorf("server failed: %w", err))
	}
}
