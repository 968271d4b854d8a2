// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-orchestrator/internal/adapter"
	"github.com/pdiddy/research-orchestrator/internal/agents"
	"github.com/pdiddy/research-orchestrator/internal/cache"
	"github.com/pdiddy/research-orchestrator/internal/events"
	"github.com/pdiddy/research-orchestrator/internal/metrics"
	"github.com/pdiddy/research-orchestrator/internal/normalize"
	"github.com/pdiddy/research-orchestrator/internal/orchestrator"
	"github.com/pdiddy/research-orchestrator/internal/persist"
	"github.com/pdiddy/research-orchestrator/internal/provider"
	"github.com/pdiddy/research-orchestrator/internal/store"
	"github.com/pdiddy/research-orchestrator/pkg/types"
)

// app holds the wired pipeline for one CLI invocation.
type app struct {
	cfg      types.Config
	registry *agents.Registry
	client   *provider.Client
	store    *store.SQLStore
	orch     *orchestrator.Orchestrator

	nc            *nats.Conn
	metricsServer *http.Server
}

// loadRegistry returns the configured agent catalog or the built-in one.
func loadRegistry(cfg types.Config) (*agents.Registry, error) {
	if cfg.AgentCatalog == "" {
		return agents.Default(), nil
	}
	return agents.LoadFile(cfg.AgentCatalog)
}

// newApp wires every component from cfg.
func newApp(ctx context.Context, cfg types.Config) (*app, error) {
	registry, err := loadRegistry(cfg)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, registry: registry, store: st}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	if addr := viper.GetString("metrics_addr"); addr != "" {
		a.serveMetrics(addr, reg)
	}

	observers := []events.Observer{events.LogObserver(log)}
	if cfg.Events.NATSURL != "" {
		nc, err := events.Connect(cfg.Events.NATSURL)
		if err != nil {
			log.Warn("progress events will not be published", slog.String("error", err.Error()))
		} else {
			a.nc = nc
			observers = append(observers, events.NewNATSPublisher(nc, cfg.Events.SubjectPrefix, log))
		}
	}

	a.client = provider.NewClient(cfg.Provider)
	mirror := cache.NewMemory(cfg.CacheSize)

	a.orch = orchestrator.New(
		normalize.New(registry),
		adapter.New(a.client, registry,
			adapter.WithTimeout(cfg.Provider.CallTimeout),
			adapter.WithRetry(adapter.RetryPolicy{
				MaxAttempts: cfg.Provider.MaxAttempts,
				BaseDelay:   cfg.Provider.RetryBaseDelay,
			}),
			adapter.WithLogger(log),
			adapter.WithMetrics(m),
		),
		persist.New(st, mirror, persist.WithLogger(log), persist.WithMetrics(m)),
		orchestrator.WithObserver(events.Multi(log, observers...)),
		orchestrator.WithCache(mirror),
		orchestrator.WithHistoryStore(st),
		orchestrator.WithLogger(log),
		orchestrator.WithMetrics(m),
	)
	return a, nil
}

func (a *app) serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	a.metricsServer = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", slog.String("error", err.Error()))
		}
	}()
	log.Info("serving metrics", slog.String("addr", addr))
}

// Close flushes events and releases the datastore.
func (a *app) Close() error {
	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = a.metricsServer.Shutdown(ctx)
		cancel()
	}
	if a.nc != nil {
		if err := a.nc.Drain(); err != nil {
			log.Warn("draining NATS connection", slog.String("error", err.Error()))
		}
	}
	if err := a.store.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return nil
}
