package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
	"github.com/kirillkom/labor-law-assistant/internal/core/ports"
)

// IndexAdmin is the operator view of the index: lifecycle status plus the
// cache in front of it, and the reaction to document change events.
type IndexAdmin struct {
	index  *IndexManager
	cache  *QueryCache
	logger *slog.Logger
}

var _ ports.IndexAdmin = (*IndexAdmin)(nil)

func NewIndexAdmin(index *IndexManager, cache *QueryCache, logger *slog.Logger) *IndexAdmin {
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexAdmin{index: index, cache: cache, logger: logger}
}

func (a *IndexAdmin) Status() domain.IndexStatus {
	status := a.index.Status()
	status.CacheEnabled = a.cache != nil && a.cache.Enabled()
	return status
}

func (a *IndexAdmin) Rebuild(ctx context.Context) (domain.IndexStatus, error) {
	if _, err := a.index.Rebuild(ctx); err != nil {
		return a.Status(), err
	}
	return a.Status(), nil
}

func (a *IndexAdmin) ForceRebuild() {
	a.index.ForceRebuild()
}

// HandleDocumentsChanged marks the index stale and warms it so the next
// search does not pay for the build. A build already in flight counts as
// handled; an empty corpus is not an error here.
func (a *IndexAdmin) HandleDocumentsChanged(ctx context.Context, event domain.DocumentsChanged) error {
	a.index.ForceRebuild()
	a.logger.Info("documents_changed_received", "count", event.Count, "source", event.Source)

	_, err := a.index.Ensure(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrIndexBuilding), errors.Is(err, domain.ErrEmptyCorpus):
		return nil
	default:
		return err
	}
}
