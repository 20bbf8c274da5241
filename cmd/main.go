package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/auscript/internal/adapters/http/api"
	"github.com/okian/auscript/internal/adapters/http/site"
	app "github.com/okian/auscript/internal/app"
	"github.com/okian/auscript/internal/config"
	"github.com/okian/auscript/pkg/logger"
	"github.com/okian/auscript/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := run(); err != nil {
		// The logger may not be usable yet.
		os.Stderr.WriteString("auscript: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// defaults -> optional file -> AUSCRIPT_* -> SERVER_HOST/SERVER_PORT/FLASK_ENV
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.EffectiveLogFormat())); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	log := logger.Named("main")
	if err := logger.SetLevelString(cfg.EffectiveLogLevel()); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	if cfg.HostFallback {
		log.Warn(ctx, "blank SERVER_HOST; using default", logger.String("host", config.DefaultHost))
	}
	if cfg.PortFallback {
		log.Warn(ctx, "invalid SERVER_PORT; using default",
			logger.String("value", cfg.RawPort),
			logger.Int("port", config.DefaultPort),
		)
	}

	svc := app.New(
		app.WithLogger(logger.Named("observer")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	handler, err := newHandler(ctx, cfg, svc)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", srv.Addr),
			logger.String("env", cfg.Env),
			logger.Bool("debug", cfg.Debug()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			_ = svc.Stop(context.Background())
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	// Stop accepting requests first, then drain the observer.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(ctx, "observer shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newHandler builds the full route table: pages, contact, static assets and
// the operational endpoints.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service) (http.Handler, error) {
	renderer, err := site.NewRenderer(site.WithDebug(cfg.Debug()))
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	mux := http.NewServeMux()
	site.NewServer(renderer,
		site.WithObserver(svc),
		site.WithMaxBodyBytes(cfg.MaxBodyBytes),
		site.WithLogger(logger.Named("site")),
	).Register(ctx, mux)
	api.NewServer(svc, logger.Named("api")).Register(ctx, mux)
	return mux, nil
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystem(m.Alloc, runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics copies observer stats into gauges.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	queueLen, _ := stats["queueLength"].(int)
	queueSize, _ := stats["queueSize"].(int)
	metrics.UpdateQueue(queueLen, queueSize)

	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
}
