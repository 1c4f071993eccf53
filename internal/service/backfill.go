package service

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	domainerrors "github.com/shutterboxapp/shutterbox/internal/errors"
	"github.com/shutterboxapp/shutterbox/internal/library"
	"github.com/shutterboxapp/shutterbox/internal/media/images"
)

// DefaultBackfillWorkers bounds concurrent placeholder computations.
const DefaultBackfillWorkers = 4

// PlaceholderBackfill computes BlurHash placeholders for assets imported
// without one.
type PlaceholderBackfill struct {
	library      *library.Library
	placeholders *images.Placeholders
	workers      int
	logger       *slog.Logger
}

// NewPlaceholderBackfill creates a backfill with at most workers
// computations in flight.
func NewPlaceholderBackfill(lib *library.Library, p *images.Placeholders, workers int, logger *slog.Logger) *PlaceholderBackfill {
	if workers <= 0 {
		workers = DefaultBackfillWorkers
	}
	return &PlaceholderBackfill{library: lib, placeholders: p, workers: workers, logger: logger}
}

// Run fills in missing placeholders and returns how many were stored. An
// asset whose file cannot be hashed is skipped; an asset deleted meanwhile
// is ignored.
func (b *PlaceholderBackfill) Run(ctx context.Context) (int, error) {
	var pending []string
	paths := make(map[string]string)
	for _, a := range b.library.Snapshot().Assets() {
		if a.Placeholder == "" {
			pending = append(pending, a.ID)
			paths[a.ID] = a.StoragePath
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	b.logger.Info("backfilling placeholders", "assets", len(pending), "workers", b.workers)

	var stored atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for _, assetID := range pending {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			hash := b.placeholders.Generate(gctx, paths[assetID])
			if hash == "" {
				return nil
			}
			if _, err := b.library.SetPlaceholder(gctx, assetID, hash); err != nil {
				if domainerrors.Is(err, domainerrors.ErrNotFound) {
					return nil
				}
				return err
			}
			stored.Add(1)
			return nil
		})
	}

	err := g.Wait()
	n := int(stored.Load())
	b.logger.Info("placeholder backfill finished", "stored", n, "error", err)
	return n, err
}
