// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package gateway provides the workspace gateway service.
//
// The gateway wires the validation engine, the update hub and the
// telemetry sampler behind a Gin HTTP server. Browser dashboards connect
// to the WebSocket endpoint to receive heartbeat and server-metrics
// updates and to request component validation.
//
// # Usage
//
//	cfg := gateway.Config{Port: 3000}
//	svc, err := gateway.New(cfg, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := svc.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/AleutianAI/WorkspaceGateway/services/gateway/handlers"
	"github.com/AleutianAI/WorkspaceGateway/services/gateway/hub"
	"github.com/AleutianAI/WorkspaceGateway/services/gateway/middleware"
	"github.com/AleutianAI/WorkspaceGateway/services/gateway/observability"
	"github.com/AleutianAI/WorkspaceGateway/services/gateway/routes"
	"github.com/AleutianAI/WorkspaceGateway/services/gateway/standards"
	"github.com/AleutianAI/WorkspaceGateway/services/gateway/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the gateway service.
//
// # Thread Safety
//
// Run blocks and must be called at most once. The accessors are safe for
// concurrent use.
type Service interface {
	// Run starts the hub, the sampler, the standards watcher and the HTTP
	// server, and blocks until ctx is done or the server fails.
	//
	// # Outputs
	//
	//   - error: Non-nil if the server cannot listen or fails while running.
	//     A clean shutdown after ctx is done returns nil.
	Run(ctx context.Context) error

	// Router returns the underlying Gin engine for testing.
	Router() *gin.Engine

	// Hub returns the update hub.
	Hub() *hub.Hub

	// Engine returns the validation engine.
	Engine() *standards.Engine

	// Sampler returns the telemetry sampler.
	Sampler() *telemetry.Sampler
}

// Options carries optional collaborators. A nil *Options selects every
// default.
//
// # Fields
//
//   - TelemetrySource: Snapshot source for the sampler. Default: host CPU and memory.
//   - Registry: Prometheus registry for the gateway metrics. Default: a new
//     registry carrying the Go and process collectors.
//   - Listener: Serve on this listener instead of Config.Port.
type Options struct {
	TelemetrySource telemetry.Source
	Registry        *prometheus.Registry
	Listener        net.Listener
}

// =============================================================================
// Implementation
// =============================================================================

type service struct {
	config   Config
	router   *gin.Engine
	registry *prometheus.Registry
	metrics  *observability.Metrics
	engine   *standards.Engine
	hub      *hub.Hub
	sampler  *telemetry.Sampler
	watcher  *standards.Watcher
	listener net.Listener

	tracerCleanup func(context.Context)

	// runCtx is the context the sampler is restarted on after a reload.
	mu     sync.Mutex
	runCtx context.Context
}

// New creates the gateway service.
//
// # Description
//
// Applies configuration defaults, validates the result, and wires the
// components:
//
//  1. Tracing (initTracer)
//  2. Prometheus metrics, when EnableMetrics is set
//  3. Standards document and validation engine
//  4. Update hub and telemetry sampler
//  5. Standards watcher, when StandardsFile is set
//  6. Gin router
//
// # Inputs
//
//   - cfg: Service configuration. Zero fields take defaults.
//   - opts: Optional collaborators. May be nil.
//
// # Outputs
//
//   - Service: Ready to Run.
//   - error: Non-nil if the configuration is invalid or a component fails
//     to initialize.
func New(cfg Config, opts *Options) (Service, error) {
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &Options{}
	}

	s := &service{config: cfg, listener: opts.Listener}

	tracerCleanup, err := initTracer(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = tracerCleanup

	if cfg.EnableMetrics {
		s.initMetrics(opts.Registry)
	}

	if err := s.initEngine(); err != nil {
		s.cleanup()
		return nil, err
	}

	hubOpts := []hub.Option{}
	if s.metrics != nil {
		hubOpts = append(hubOpts, hub.WithMetrics(s.metrics))
	}
	s.hub = hub.New(s.engine, hub.Config{HeartbeatInterval: cfg.HeartbeatInterval}, hubOpts...)

	source := opts.TelemetrySource
	if source == nil {
		source = telemetry.NewHostSource()
	}
	s.sampler = telemetry.NewSampler(source, s.hub, telemetry.SamplerConfig{Interval: cfg.SamplerInterval})
	if s.metrics != nil {
		s.sampler.SetTickObserver(s.metrics)
	}

	if cfg.StandardsFile != "" {
		s.watcher, err = standards.NewWatcher(cfg.StandardsFile, s.onStandardsChanged)
		if err != nil {
			s.cleanup()
			return nil, fmt.Errorf("failed to watch standards file: %w", err)
		}
	}

	s.initRouter()
	return s, nil
}

// Run implements Service.
func (s *service) Run(ctx context.Context) error {
	defer s.cleanup()

	g, gctx := errgroup.WithContext(ctx)

	s.mu.Lock()
	s.runCtx = gctx
	s.mu.Unlock()

	g.Go(func() error { return s.hub.Run(gctx) })
	s.sampler.Start(gctx)

	if s.watcher != nil {
		g.Go(func() error {
			if err := s.watcher.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("standards watcher: %w", err)
			}
			return nil
		})
	}

	srv := &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		var err error
		if s.listener != nil {
			slog.Info("Starting workspace gateway", "addr", s.listener.Addr().String())
			err = srv.Serve(s.listener)
		} else {
			slog.Info("Starting workspace gateway", "port", s.config.Port)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down workspace gateway")

		s.sampler.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Router implements Service.
func (s *service) Router() *gin.Engine {
	return s.router
}

// Hub implements Service.
func (s *service) Hub() *hub.Hub {
	return s.hub
}

// Engine implements Service.
func (s *service) Engine() *standards.Engine {
	return s.engine
}

// Sampler implements Service.
func (s *service) Sampler() *telemetry.Sampler {
	return s.sampler
}

// =============================================================================
// Initialization
// =============================================================================

func (s *service) initMetrics(reg *prometheus.Registry) {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	s.registry = reg
	s.metrics = observability.NewMetrics(reg)
}

// initEngine loads the standards document and builds the engine.
func (s *service) initEngine() error {
	std := standards.Default()
	if s.config.StandardsFile != "" {
		loaded, err := standards.Load(s.config.StandardsFile)
		if err != nil {
			return fmt.Errorf("failed to load standards: %w", err)
		}
		std = loaded
		slog.Info("Loaded standards file", "path", s.config.StandardsFile)
	}

	engineOpts := []standards.Option{
		standards.WithLoader(standards.NewFileLoader(s.config.StyleRoot)),
	}
	if s.metrics != nil {
		engineOpts = append(engineOpts, standards.WithDurationObserver(s.metrics))
	}

	engine, err := standards.NewEngine(std, engineOpts...)
	if err != nil {
		return fmt.Errorf("failed to create validation engine: %w", err)
	}
	s.engine = engine
	return nil
}

// initRouter sets up the Gin HTTP router with all routes.
func (s *service) initRouter() {
	gin.SetMode(s.config.GinMode)
	s.router = gin.Default()
	s.router.Use(otelgin.Middleware(serviceName))
	s.router.Use(middleware.CORS(s.config.CORSOrigins))

	var metricsHandler http.Handler
	if s.registry != nil {
		metricsHandler = promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
	}

	routes.SetupRoutes(s.router, routes.Dependencies{
		Prefix:   s.config.GlobalPrefix,
		Hub:      s.hub,
		Engine:   s.engine,
		Upgrader: handlers.NewUpgrader(s.config.CORSOrigins),
		Metrics:  metricsHandler,
	})
}

// onStandardsChanged swaps in a reloaded document and restarts the
// sampler.
func (s *service) onStandardsChanged(std *standards.Standards) {
	if err := s.engine.SetStandards(std); err != nil {
		slog.Warn("Rejected reloaded standards", "error", err)
		return
	}

	s.mu.Lock()
	ctx := s.runCtx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	slog.Info("Standards updated, restarting telemetry sampler")
	s.sampler.Stop()
	s.sampler.Start(ctx)
}

// cleanup releases all resources held by the service.
func (s *service) cleanup() {
	if s.sampler != nil {
		s.sampler.Stop()
	}
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			slog.Warn("Standards watcher close error", "error", err)
		}
	}
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}

var _ Service = (*service)(nil)
