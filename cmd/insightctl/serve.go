package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/goliatone/go-insightx/components/insights/gorouter"
	"github.com/goliatone/go-insightx/pkg/config"
	"github.com/goliatone/go-insightx/pkg/insights"
)

const shutdownTimeout = 5 * time.Second

type serveCmd struct {
	Addr        string `help:"Listen address (overrides server.addr)."`
	Transport   string `help:"fiber (go-router, websocket events) or http (net/http, SSE events)."`
	MetricsAddr string `name:"metrics-addr" help:"Prometheus listen address (overrides metrics.addr)."`
	NoMetrics   bool   `name:"no-metrics" help:"Do not start the Prometheus listener."`
	Presets     string `type:"path" help:"Extra preset manifest merged over the built-ins."`
}

func (cmd *serveCmd) Run(ctx context.Context, g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	cmd.override(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app, err := insights.New(cfg, logger, reg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Addr != "" {
		go serveMetrics(ctx, logger, cfg.Metrics, reg)
	}

	logger.Info("dashboard ready",
		zap.String("addr", cfg.Server.Addr),
		zap.String("path", cfg.Server.BasePath),
		zap.String("transport", cfg.Server.Transport),
	)
	if insights.Transport(cfg.Server.Transport) == insights.TransportHTTP {
		return serveHTTP(ctx, app)
	}
	return serveFiber(ctx, app)
}

func (cmd *serveCmd) override(cfg *config.Config) {
	if cmd.Addr != "" {
		cfg.Server.Addr = cmd.Addr
	}
	if cmd.Transport != "" {
		cfg.Server.Transport = cmd.Transport
	}
	if cmd.MetricsAddr != "" {
		cfg.Metrics.Addr = cmd.MetricsAddr
	}
	if cmd.NoMetrics {
		cfg.Metrics.Addr = ""
	}
	if cmd.Presets != "" {
		cfg.Presets.Path = cmd.Presets
	}
}

func serveFiber(ctx context.Context, app *insights.App) error {
	server := router.NewFiberAdapter()
	cfg := app.Config
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:         server.Router(),
		Controller:     app.Controller,
		API:            app.Executor,
		Validator:      app.Service.Validator(),
		Counters:       app.Service,
		Broadcast:      app.Hook,
		BasePath:       cfg.Server.BasePath,
		FrameInterval:  cfg.Animation.FrameInterval,
		CounterTimeout: cfg.Server.CounterTimeout,
	}); err != nil {
		return err
	}

	errs := make(chan error, 1)
	go func() { errs <- server.Serve(cfg.Server.Addr) }()
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		app.Logger.Info("shutting down")
		return nil
	}
}

func serveHTTP(ctx context.Context, app *insights.App) error {
	mux := http.NewServeMux()
	app.Handlers().Register(mux, app.Routes())
	server := &http.Server{
		Addr:              app.Config.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		// Event streams end with ctx so Shutdown does not wait on them.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	return runHTTP(ctx, server)
}

func serveMetrics(ctx context.Context, logger *zap.Logger, cfg config.MetricsConfig, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := runHTTP(ctx, server); err != nil {
		logger.Error("metrics server", zap.Error(err))
	}
}

// runHTTP serves until ctx ends, then drains open requests.
func runHTTP(ctx context.Context, server *http.Server) error {
	errs := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
