package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/laneup/internal/adapters/history"
	"github.com/okian/laneup/internal/adapters/http/api"
	"github.com/okian/laneup/internal/adapters/http/swagger"
	"github.com/okian/laneup/internal/adapters/repository"
	app "github.com/okian/laneup/internal/app"
	"github.com/okian/laneup/internal/config"
	"github.com/okian/laneup/internal/domain/rating"
	"github.com/okian/laneup/pkg/logger"
	"github.com/okian/laneup/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger is not configured yet.
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithLevel(cfg.LogLevel)); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	metrics.Configure(metricsOptions(cfg)...)

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "laneup exited with error", logger.Error(err))
		os.Exit(1)
	}
}

// run serves the API until ctx is cancelled, then drains in-flight requests
// and queued results.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	svc := newService(cfg, log)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	metrics.StartSystemCollector(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info(ctx, "shutting down server...")
	case err := <-serveErr:
		runErr = fmt.Errorf("http server: %w", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(ctx, "service shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return runErr
}

// newService builds the service with file-backed stores where paths are
// configured and in-memory stores otherwise.
func newService(cfg *config.Config, log logger.Logger) *app.Service {
	var roster repository.Store = repository.NewMemoryStore()
	if cfg.RosterPath != "" {
		roster = repository.NewFileStore(cfg.RosterPath)
	}

	var hist history.Store = history.NewMemoryStore()
	if cfg.HistoryPath != "" {
		hist = history.NewJSONLStore(cfg.HistoryPath, log.Named("history"))
	}

	log.Info(context.Background(), "stores configured",
		logger.String("roster", storeName(cfg.RosterPath)),
		logger.String("history", storeName(cfg.HistoryPath)),
	)

	return app.New(
		app.WithLogger(log.Named("service")),
		app.WithRoster(roster),
		app.WithHistory(hist),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithPendingDraws(cfg.PendingDraws),
		app.WithThresholds(cfg.BalanceThresholds),
		app.WithMaxAcceptableDiff(cfg.MaxAcceptableDiff),
		app.WithFallback(cfg.FallbackOnFailure),
		app.WithRatingBounds(rating.Bounds{Min: cfg.RatingMin, Max: cfg.RatingMax}),
		app.WithHistoryPageSize(cfg.HistoryPageSize),
	)
}

// newHandler registers the API and documentation routes.
func newHandler(ctx context.Context, svc *app.Service) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, logger.Get().Named("api")).Register(ctx, mux)
	return mux
}

// metricsOptions maps the metrics_* settings onto the metrics manager.
func metricsOptions(cfg *config.Config) []metrics.Option {
	// Validate has already rejected malformed labels.
	labels, _ := cfg.MetricLabels()
	return []metrics.Option{
		metrics.WithMetricsEnabled(cfg.MetricsEnabled),
		metrics.WithMetricPrefix(cfg.MetricsPrefix),
		metrics.WithCustomLabels(labels),
		metrics.WithRefreshInterval(cfg.MetricsRefreshInterval),
	}
}

func storeName(path string) string {
	if path == "" {
		return "memory"
	}
	return path
}
