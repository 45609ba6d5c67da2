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

	httpadapter "github.com/kirillkom/labor-law-assistant/internal/adapters/http"
	"github.com/kirillkom/labor-law-assistant/internal/bootstrap"
	"github.com/kirillkom/labor-law-assistant/internal/config"
	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
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
	logger := logging.NewJSONLogger("api", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.NewHTTPServerMetrics("api")
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Service:    "legal-api",
		Logger:     logger,
		Registerer: httpMetrics.Registry(),
	})
	if err != nil {
		logger.Error("bootstrap_error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	// Warm the index so the first request does not pay for the build.
	go func() {
		if _, err := app.Index.Ensure(ctx); err != nil {
			logger.Warn("index_warmup_failed", "error", err)
		}
	}()

	if cfg.CacheIsProcessLocal() {
		interval := time.Duration(cfg.CacheSweepIntervalSeconds) * time.Second
		logger.Info("cache_sweeper_started", "interval", interval.String(), "cache_path", cfg.CachePath)
		go app.Cache.RunSweeper(ctx, interval, nil)
	}

	if app.Events != nil {
		go func() {
			logger.Info("documents_changed_subscribed", "subject", cfg.NATSSubject)
			err := app.Events.SubscribeDocumentsChanged(ctx, func(handlerCtx context.Context, event domain.DocumentsChanged) error {
				rebuildCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
				defer cancel()
				err := app.Admin.HandleDocumentsChanged(rebuildCtx, event)
				app.Pipeline.ObserveIndexEvent(err)
				return err
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("documents_changed_subscription_failed", "error", err)
			}
		}()
	}

	router := httpadapter.NewRouter(cfg, app.Search, app.Ask, app.Admin, httpMetrics, logger).Handler()
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Duration(cfg.LLMTimeoutSeconds+30) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort, "llm_provider", cfg.LLMProvider, "cache_backend", cfg.CacheBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_error", "error", err)
	}
}
