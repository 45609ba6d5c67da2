package ports

import (
	"context"
	"time"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
)

// DocumentSource is the read-only view of the legal document store.
type DocumentSource interface {
	ListDocuments(ctx context.Context) ([]domain.LegalDocument, error)
	// LatestUpdate returns the zero time when the store is empty.
	LatestUpdate(ctx context.Context) (time.Time, error)
	CountDocuments(ctx context.Context) (int, error)
	ListIDsByFilter(ctx context.Context, filter domain.DocumentFilter) ([]int64, error)
}

// DocumentWriter is used by the loader, never by the retrieval core.
type DocumentWriter interface {
	Upsert(ctx context.Context, doc *domain.LegalDocument) error
}

// QueryCacheStore persists cached search results. Get returns nil, nil on a miss.
type QueryCacheStore interface {
	Get(ctx context.Context, queryHash string) (*domain.CacheEntry, error)
	Put(ctx context.Context, entry domain.CacheEntry) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type CompletionRequest struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// CompletionClient is the hosted language model.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// DocumentEvents fans out "documents changed" notifications between processes.
type DocumentEvents interface {
	PublishDocumentsChanged(ctx context.Context, event domain.DocumentsChanged) error
	SubscribeDocumentsChanged(ctx context.Context, handler func(context.Context, domain.DocumentsChanged) error) error
}

// PipelineObserver receives retrieval and answer telemetry.
type PipelineObserver interface {
	ObserveCacheLookup(hit bool)
	ObserveSearch(source string, results int, duration time.Duration)
	ObserveIndexBuild(documents int, duration time.Duration, err error)
	ObserveAnswer(confidence float64, needsReview bool, reason string, failed bool)
}

type NopObserver struct{}

func (NopObserver) ObserveCacheLookup(bool) {}
func (NopObserver) ObserveSearch(string, int, time.Duration) {}
func (NopObserver) ObserveIndexBuild(int, time.Duration, error) {}
func (NopObserver) ObserveAnswer(float64, bool, string, bool) {}
