package usecase

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
	"github.com/kirillkom/labor-law-assistant/internal/core/lexical"
	"github.com/kirillkom/labor-law-assistant/internal/core/ports"
)

type SearchOptions struct {
	DefaultLimit  int
	MaxLimit      int
	SnippetLength int
}

// SearchUseCase answers lexical queries over the legal corpus. Every failure
// mode other than caller cancellation degrades to an empty result.
type SearchUseCase struct {
	index      *IndexManager
	docs       ports.DocumentSource
	cache      *QueryCache
	normalizer *lexical.Normalizer
	opts       SearchOptions
	observer   ports.PipelineObserver
	logger     *slog.Logger
}

func NewSearchUseCase(
	index *IndexManager,
	docs ports.DocumentSource,
	cache *QueryCache,
	normalizer *lexical.Normalizer,
	opts SearchOptions,
	observer ports.PipelineObserver,
	logger *slog.Logger,
) *SearchUseCase {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = domain.DefaultSearchLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = domain.MaxSearchLimit
	}
	if opts.SnippetLength <= 0 {
		opts.SnippetLength = lexical.DefaultSnippetLength
	}
	if observer == nil {
		observer = ports.NopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchUseCase{
		index:      index,
		docs:       docs,
		cache:      cache,
		normalizer: normalizer,
		opts:       opts,
		observer:   observer,
		logger:     logger,
	}
}

type scoredPosition struct {
	pos   int
	score float64
}

func (uc *SearchUseCase) Search(ctx context.Context, query domain.SearchQuery) ([]domain.RetrievalResult, error) {
	start := time.Now()
	q := query.Normalize(uc.opts.DefaultLimit, uc.opts.MaxLimit)
	if !q.Searchable() {
		uc.observer.ObserveSearch("empty", 0, time.Since(start))
		return []domain.RetrievalResult{}, nil
	}
	if q.Type != "" {
		parsed, err := domain.ParseDocumentType(string(q.Type))
		if err != nil {
			uc.logger.Debug("search_invalid_filter", "error", err)
			uc.observer.ObserveSearch("empty", 0, time.Since(start))
			return []domain.RetrievalResult{}, nil
		}
		q.Type = parsed
	}

	if cached, ok := uc.cache.Get(ctx, q); ok {
		uc.observer.ObserveSearch("cache", len(cached), time.Since(start))
		return cached, nil
	}

	results, err := uc.searchIndex(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(results) > 0 {
		uc.cache.Set(ctx, q, results)
	}

	source := "index"
	if len(results) == 0 {
		source = "empty"
	}
	uc.observer.ObserveSearch(source, len(results), time.Since(start))
	return results, nil
}

func (uc *SearchUseCase) searchIndex(ctx context.Context, q domain.SearchQuery) ([]domain.RetrievalResult, error) {
	empty := []domain.RetrievalResult{}

	snap, err := uc.index.Ensure(ctx)
	if err != nil || snap == nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		uc.logger.Warn("search_index_unavailable", "error", err)
		return empty, nil
	}

	tokens := uc.normalizer.Normalize(q.Text)
	if len(tokens) == 0 {
		return empty, nil
	}

	positions, err := uc.candidatePositions(ctx, snap, q.Filter())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		uc.logger.Warn("search_filter_failed", "error", err)
		return empty, nil
	}

	scored := make([]scoredPosition, 0, len(positions))
	for _, pos := range positions {
		score := snap.Index.ScoreAt(tokens, pos)
		if score <= 0 {
			continue
		}
		scored = append(scored, scoredPosition{pos: pos, score: score})
	}
	// positions are ascending, so a stable sort breaks ties by corpus order
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > q.Limit {
		scored = scored[:q.Limit]
	}

	terms := uc.normalizer.Terms(q.Text)
	results := make([]domain.RetrievalResult, 0, len(scored))
	for _, item := range scored {
		doc := snap.Documents[item.pos]
		results = append(results, domain.RetrievalResult{
			DocumentID:      doc.ID,
			Title:           doc.Title,
			ReferenceNumber: doc.ReferenceNumber,
			DocumentType:    doc.Type,
			RelevanceScore:  item.score,
			Snippet:         lexical.ExtractSnippet(doc.Body, terms, uc.opts.SnippetLength),
		})
	}
	return results, nil
}

// candidatePositions restricts scoring to documents matching the filter.
func (uc *SearchUseCase) candidatePositions(ctx context.Context, snap *IndexSnapshot, filter domain.DocumentFilter) ([]int, error) {
	positions := make([]int, 0, len(snap.Documents))
	if filter.IsZero() {
		for pos := range snap.Documents {
			positions = append(positions, pos)
		}
		return positions, nil
	}

	ids, err := uc.docs.ListIDsByFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	allowed := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		allowed[id] = struct{}{}
	}
	for pos, doc := range snap.Documents {
		if _, ok := allowed[doc.ID]; ok {
			positions = append(positions, pos)
		}
	}
	return positions, nil
}
