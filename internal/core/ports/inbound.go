package ports

import (
	"context"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
)

// Retriever is the inbound contract for lexical search over legal documents.
type Retriever interface {
	Search(ctx context.Context, query domain.SearchQuery) ([]domain.RetrievalResult, error)
}

// LegalAssistant answers a question end to end: retrieval, synthesis and escalation.
type LegalAssistant interface {
	Ask(ctx context.Context, question string) domain.LegalAnswer
}

// IndexAdmin exposes the relevance index lifecycle to operators.
type IndexAdmin interface {
	Status() domain.IndexStatus
	Rebuild(ctx context.Context) (domain.IndexStatus, error)
	ForceRebuild()
}

// CacheMaintainer removes expired query cache entries.
type CacheMaintainer interface {
	ClearExpired(ctx context.Context) (int64, error)
}
