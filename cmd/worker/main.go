package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kirillkom/labor-law-assistant/internal/bootstrap"
	"github.com/kirillkom/labor-law-assistant/internal/config"
	"github.com/kirillkom/labor-law-assistant/internal/observability/logging"
	"github.com/kirillkom/labor-law-assistant/internal/observability/metrics"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_error", "error", err)
		os.Exit(1)
	}
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The worker only sweeps the cache; it does not listen for document events.
	cfg.NATSEnabled = false
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Service: "legal-worker", Logger: logger})
	if err != nil {
		logger.Error("bootstrap_error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	mux := http.NewServeMux()
	mux.Handle("/metrics", workerMetrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_error", "error", err)
		}
	}()

	if !app.Cache.Enabled() {
		logger.Warn("cache_disabled_nothing_to_sweep", "cache_backend", cfg.CacheBackend)
	} else {
		interval := time.Duration(cfg.CacheSweepIntervalSeconds) * time.Second
		if cfg.CacheIsProcessLocal() {
			logger.Warn("cache_sweeper_local_file", "cache_path", cfg.CachePath, "hint", "API processes sweep their own sqlite cache; this sweep reaches it only through a shared volume")
		}
		logger.Info("cache_sweeper_started", "interval", interval.String(), "cache_backend", cfg.CacheBackend)
		app.Cache.RunSweeper(ctx, interval, workerMetrics.ObserveSweep)
	}

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("worker_metrics_shutdown_error", "error", err)
	}
}
