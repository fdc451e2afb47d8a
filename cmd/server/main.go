// Prefetch - Behavioral Telemetry Collection and Session Classification
// Copyright 2026 Greg L. (greglas75)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greglas75/prefetch

// Command server runs the Prefetch telemetry collector: the collect
// endpoint, the classification dashboard, raw export, and the
// supervised journal and heartbeat services behind them.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/greglas75/prefetch/internal/api"
	"github.com/greglas75/prefetch/internal/config"
	"github.com/greglas75/prefetch/internal/heartbeat"
	"github.com/greglas75/prefetch/internal/journal"
	"github.com/greglas75/prefetch/internal/logging"
	"github.com/greglas75/prefetch/internal/session"
	"github.com/greglas75/prefetch/internal/supervisor"
	"github.com/greglas75/prefetch/internal/supervisor/services"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	printBanner(cfg)

	// Durable logs. Both files are created empty up front so the
	// dashboard and export have something to read before the first
	// event arrives.
	events, err := journal.Open(journal.Config{
		Name:      "events",
		Path:      cfg.EventLogPath(),
		QueueSize: cfg.Telemetry.QueueSize,
	})
	if err != nil {
		return err
	}
	heartbeats, err := journal.Open(journal.Config{
		Name:      "heartbeats",
		Path:      cfg.HeartbeatLogPath(),
		QueueSize: cfg.Telemetry.QueueSize,
	})
	if err != nil {
		return err
	}

	buffer := heartbeat.NewBuffer(heartbeats, heartbeat.Config{
		FlushInterval:  cfg.Heartbeat.FlushInterval,
		Capacity:       cfg.Heartbeat.Capacity,
		OverflowPolicy: cfg.Heartbeat.OverflowPolicy,
	})

	aggregator := session.NewAggregator(events)
	handler := api.NewHandler(cfg, events, buffer, aggregator)
	router := api.NewRouter(handler, api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.Security.CORSOrigins,
		RateLimitDisabled:  cfg.Security.RateLimitDisabled,
		RateLimitWrite:     cfg.Security.RateLimitWrite,
		RateLimitRead:      cfg.Security.RateLimitRead,
		RateLimitWindow:    cfg.Security.RateLimitWindow,
	}))

	server := &http.Server{
		Addr:           cfg.ListenAddr(),
		Handler:        router.Setup(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)
	tree.AddStorageService(events)
	tree.AddStorageService(heartbeats)
	tree.AddIngestService(buffer)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	logging.Info().
		Str("addr", cfg.ListenAddr()).
		Str("event_log", cfg.EventLogPath()).
		Str("heartbeat_log", cfg.HeartbeatLogPath()).
		Str("durability", cfg.Telemetry.Durability).
		Msg("Prefetch collector starting")

	err = tree.Serve(ctx)
	logging.Info().Msg("Prefetch collector stopped")
	if err != nil && ctx.Err() != nil {
		// Cancellation through the signal context is a clean exit.
		return nil
	}
	return err
}

// printBanner writes the startup banner to stdout, separate from the
// structured log stream.
func printBanner(cfg *config.Config) {
	fmt.Printf(`
╔══════════════════════════════════════════════════════╗
║  Prefetch Detection Server                           ║
║                                                      ║
║  Collect:       http://localhost:%-5d/collect       ║
║  Dashboard:     http://localhost:%-5d/dashboard     ║
║  Export data:   http://localhost:%-5d/export        ║
║  Metrics:       http://localhost:%-5d/metrics       ║
║                                                      ║
║  Event log:     %-36s ║
╚══════════════════════════════════════════════════════╝
`, cfg.Server.Port, cfg.Server.Port, cfg.Server.Port, cfg.Server.Port, cfg.EventLogPath())
}
