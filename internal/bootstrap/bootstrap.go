package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/labor-law-assistant/internal/config"
	"github.com/kirillkom/labor-law-assistant/internal/core/lexical"
	"github.com/kirillkom/labor-law-assistant/internal/core/ports"
	"github.com/kirillkom/labor-law-assistant/internal/core/usecase"
	rediscache "github.com/kirillkom/labor-law-assistant/internal/infrastructure/cache/redis"
	sqlitecache "github.com/kirillkom/labor-law-assistant/internal/infrastructure/cache/sqlite"
	"github.com/kirillkom/labor-law-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/labor-law-assistant/internal/infrastructure/llm/openaicompat"
	"github.com/kirillkom/labor-law-assistant/internal/infrastructure/loader"
	"github.com/kirillkom/labor-law-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/labor-law-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/labor-law-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/labor-law-assistant/internal/observability/metrics"
)

type Options struct {
	// Service names the NATS client connection.
	Service string
	Logger  *slog.Logger
	// Registerer receives the pipeline metrics; nil disables them.
	Registerer prometheus.Registerer
}

type App struct {
	Config config.Config
	Logger *slog.Logger

	Documents *postgres.DocumentRepository
	Events    ports.DocumentEvents
	Pipeline  *metrics.PipelineMetrics

	Cache  *usecase.QueryCache
	Index  *usecase.IndexManager
	Admin  *usecase.IndexAdmin
	Search *usecase.SearchUseCase
	Ask    *usecase.AskUseCase

	closers []func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{Config: cfg, Logger: logger}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	app.onClose(func() { _ = db.Close() })

	app.Documents = postgres.NewDocumentRepository(db)
	if err := app.Documents.EnsureSchema(ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	store, closer, err := openCacheStore(ctx, cfg, db, logger)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("init query cache: %w", err)
	}
	if closer != nil {
		app.onClose(func() { _ = closer.Close() })
	}

	executor := resilience.NewExecutor(resilience.WithAttempts(cfg.RetryMaxAttempts, cfg.BreakerEnabled), logger)

	if cfg.NATSEnabled {
		service := opts.Service
		if service == "" {
			service = "labor-law-assistant"
		}
		events, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ClientName:         service,
			ResilienceExecutor: executor,
			Logger:             logger,
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("init document events: %w", err)
		}
		app.Events = events
		app.onClose(events.Close)
	}

	var observer ports.PipelineObserver
	if opts.Registerer != nil {
		app.Pipeline = metrics.NewPipelineMetrics(opts.Registerer)
		observer = app.Pipeline
	}

	normalizer := lexical.NewNormalizer()
	params := lexical.Params{TermSaturation: cfg.BM25K1, LengthNormalization: cfg.BM25B}
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second

	app.Cache = usecase.NewQueryCache(store, cacheTTL, observer, logger)
	app.Index = usecase.NewIndexManager(app.Documents, normalizer, params, observer, logger)
	app.Admin = usecase.NewIndexAdmin(app.Index, app.Cache, logger)
	app.Search = usecase.NewSearchUseCase(app.Index, app.Documents, app.Cache, normalizer, usecase.SearchOptions{
		DefaultLimit:  cfg.SearchDefaultLimit,
		MaxLimit:      cfg.SearchMaxLimit,
		SnippetLength: cfg.SnippetMaxChars,
	}, observer, logger)

	answerer := usecase.NewAnswerUseCase(newCompletionClient(cfg, executor, logger), usecase.AnswerOptions{
		ReviewThreshold:        cfg.ReviewThreshold,
		LowConfidenceThreshold: cfg.LowConfidenceThreshold,
		MaxContextDocuments:    cfg.ContextMaxDocuments,
		MaxSnippetChars:        cfg.ContextMaxChars,
		MaxTokens:              cfg.LLMMaxTokens,
		Temperature:            cfg.LLMTemperature,
		Timeout:                time.Duration(cfg.LLMTimeoutSeconds) * time.Second,
	}, observer, logger)
	app.Ask = usecase.NewAskUseCase(app.Search, answerer, cfg.AskTopK, logger)

	return app, nil
}

// Loader writes documents to the store and, when NATS is enabled, announces
// the change.
func (a *App) Loader() *loader.Loader {
	return loader.New(a.Documents, a.Events, a.Logger)
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// openCacheStore returns a nil store for CACHE_BACKEND=none. The closer is
// nil when the store shares the Postgres pool.
func openCacheStore(ctx context.Context, cfg config.Config, db *sql.DB, logger *slog.Logger) (ports.QueryCacheStore, io.Closer, error) {
	switch cfg.CacheBackend {
	case "none":
		return nil, nil, nil
	case "postgres":
		repo := postgres.NewQueryCacheRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		return repo, nil, nil
	case "redis":
		store, err := rediscache.Open(ctx, cfg.RedisURL, time.Duration(cfg.CacheTTLSeconds)*time.Second, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case "sqlite", "":
		store, err := sqlitecache.Open(cfg.CachePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("query_cache_opened", "backend", "sqlite", "path", store.Path())
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unsupported cache backend %q", cfg.CacheBackend)
	}
}

func newCompletionClient(cfg config.Config, executor *resilience.Executor, logger *slog.Logger) ports.CompletionClient {
	timeout := time.Duration(cfg.LLMTimeoutSeconds) * time.Second
	if cfg.LLMProvider == "openai" {
		return openaicompat.New(openaicompat.Options{
			APIKey:   cfg.OpenAIAPIKey,
			BaseURL:  cfg.OpenAIBaseURL,
			Model:    cfg.OpenAIModel,
			Timeout:  timeout,
			Executor: executor,
			Logger:   logger,
		})
	}
	return ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, ollama.Options{
		Timeout:  timeout,
		Executor: executor,
		Logger:   logger,
	})
}
