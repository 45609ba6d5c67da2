package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
	"github.com/kirillkom/labor-law-assistant/internal/core/lexical"
	"github.com/kirillkom/labor-law-assistant/internal/core/ports"
)

// IndexSnapshot is an immutable, fully built index. Documents[i] is the
// document scored at index position i.
type IndexSnapshot struct {
	Index       *lexical.Index
	Documents   []domain.LegalDocument
	BuiltAt     time.Time
	SourceCount int
}

// IndexManager owns the relevance index lifecycle. Readers always see either
// the previous or the new snapshot, never a partially built one.
type IndexManager struct {
	docs       ports.DocumentSource
	normalizer *lexical.Normalizer
	params     lexical.Params
	observer   ports.PipelineObserver
	logger     *slog.Logger
	now        func() time.Time

	current  atomic.Pointer[IndexSnapshot]
	building atomic.Bool
	force    atomic.Bool
	rebuilds atomic.Int64
}

func NewIndexManager(
	docs ports.DocumentSource,
	normalizer *lexical.Normalizer,
	params lexical.Params,
	observer ports.PipelineObserver,
	logger *slog.Logger,
) *IndexManager {
	if observer == nil {
		observer = ports.NopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexManager{
		docs:       docs,
		normalizer: normalizer,
		params:     params,
		observer:   observer,
		logger:     logger,
		now:        time.Now,
	}
}

func (m *IndexManager) Snapshot() *IndexSnapshot {
	return m.current.Load()
}

func (m *IndexManager) State() domain.IndexState {
	switch {
	case m.building.Load():
		return domain.IndexBuilding
	case m.current.Load() != nil:
		return domain.IndexReady
	default:
		return domain.IndexAbsent
	}
}

// Rebuilds counts successful builds since start.
func (m *IndexManager) Rebuilds() int64 {
	return m.rebuilds.Load()
}

// ForceRebuild makes the next Ensure call rebuild regardless of store state.
func (m *IndexManager) ForceRebuild() {
	m.force.Store(true)
}

func (m *IndexManager) Status() domain.IndexStatus {
	status := domain.IndexStatus{
		State:               m.State(),
		Building:            m.building.Load(),
		Rebuilds:            m.rebuilds.Load(),
		TermSaturation:      m.params.TermSaturation,
		LengthNormalization: m.params.LengthNormalization,
	}
	if snap := m.current.Load(); snap != nil {
		builtAt := snap.BuiltAt
		status.Initialized = true
		status.BuiltAt = &builtAt
		status.DocumentCount = snap.SourceCount
		status.IndexedCount = snap.Index.Len()
	}
	return status
}

// Ensure returns a snapshot that is fresh with respect to the store,
// rebuilding first when needed. A failed rebuild falls back to the previous
// snapshot when there is one.
func (m *IndexManager) Ensure(ctx context.Context) (*IndexSnapshot, error) {
	snap := m.current.Load()
	reason, err := m.staleReason(ctx, snap)
	if err != nil {
		if snap != nil {
			m.logger.Warn("index_staleness_check_failed", "error", err)
			return snap, nil
		}
		reason = "no snapshot"
	}
	if reason == "" {
		return snap, nil
	}

	fresh, err := m.rebuild(ctx, reason)
	switch {
	case err == nil:
		return fresh, nil
	case errors.Is(err, domain.ErrIndexBuilding) && snap != nil:
		return snap, nil
	case errors.Is(err, domain.ErrEmptyCorpus):
		return nil, err
	case snap != nil:
		return snap, nil
	default:
		return nil, err
	}
}

// Rebuild builds a new snapshot unconditionally. It fails with
// domain.ErrIndexBuilding when another build is in flight.
func (m *IndexManager) Rebuild(ctx context.Context) (domain.IndexStatus, error) {
	if _, err := m.rebuild(ctx, "requested"); err != nil {
		return m.Status(), err
	}
	return m.Status(), nil
}

func (m *IndexManager) staleReason(ctx context.Context, snap *IndexSnapshot) (string, error) {
	if m.force.Load() {
		return "forced", nil
	}
	if snap == nil {
		return "no snapshot", nil
	}

	latest, err := m.docs.LatestUpdate(ctx)
	if err != nil {
		return "", fmt.Errorf("latest document update: %w", err)
	}
	if latest.After(snap.BuiltAt) {
		return "documents updated", nil
	}

	count, err := m.docs.CountDocuments(ctx)
	if err != nil {
		return "", fmt.Errorf("count documents: %w", err)
	}
	if count != snap.SourceCount {
		return "document count changed", nil
	}
	return "", nil
}

func (m *IndexManager) rebuild(ctx context.Context, reason string) (*IndexSnapshot, error) {
	if !m.building.CompareAndSwap(false, true) {
		return nil, domain.ErrIndexBuilding
	}
	defer m.building.Store(false)

	forced := m.force.Swap(false)
	start := m.now()
	snap, err := m.build(ctx, start)
	m.observer.ObserveIndexBuild(snapshotSize(snap), m.now().Sub(start), err)

	if err != nil {
		if forced {
			m.force.Store(true)
		}
		if errors.Is(err, domain.ErrEmptyCorpus) {
			m.current.Store(nil)
		}
		m.logger.Error("index_rebuild_failed", "reason", reason, "error", err)
		return nil, err
	}

	m.current.Store(snap)
	m.rebuilds.Add(1)
	m.logger.Info("index_rebuild_completed",
		"reason", reason,
		"documents", snap.SourceCount,
		"indexed", snap.Index.Len(),
		"duration_ms", float64(m.now().Sub(start).Microseconds())/1000.0,
	)
	return snap, nil
}

// build stamps the snapshot with the time loading started, so writes that
// land while loading are seen as newer on the next staleness check.
func (m *IndexManager) build(ctx context.Context, startedAt time.Time) (*IndexSnapshot, error) {
	docs, err := m.docs.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	corpus := make([][]string, 0, len(docs))
	kept := make([]domain.LegalDocument, 0, len(docs))
	for _, doc := range docs {
		tokens := m.normalizer.Normalize(doc.Body)
		if len(tokens) == 0 {
			m.logger.Debug("index_document_skipped", "document_id", doc.ID, "reason", "no tokens")
			continue
		}
		corpus = append(corpus, tokens)
		kept = append(kept, doc)
	}
	if len(corpus) == 0 {
		return nil, domain.ErrEmptyCorpus
	}

	index, err := lexical.NewIndex(corpus, m.params)
	if err != nil {
		return nil, fmt.Errorf("build bm25 index: %w", err)
	}
	return &IndexSnapshot{
		Index:       index,
		Documents:   kept,
		BuiltAt:     startedAt,
		SourceCount: len(docs),
	}, nil
}

func snapshotSize(snap *IndexSnapshot) int {
	if snap == nil {
		return 0
	}
	return snap.Index.Len()
}
