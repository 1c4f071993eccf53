package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shutterboxapp/shutterbox/internal/domain"
	"github.com/shutterboxapp/shutterbox/internal/library"
	"github.com/shutterboxapp/shutterbox/internal/search"
)

// SearchService keeps the full-text index in step with the library and
// runs queries against it.
type SearchService struct {
	index       *search.Index
	library     *library.Library
	logger      *slog.Logger
	unsubscribe func()
}

// NewSearchService creates a search service. Call Sync to populate the
// index and start following library changes.
func NewSearchService(index *search.Index, lib *library.Library, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:       index,
		library:     lib,
		logger:      logger,
		unsubscribe: func() {},
	}
}

// Search runs a query.
func (s *SearchService) Search(ctx context.Context, params search.Params) (*search.Result, error) {
	return s.index.Search(ctx, params)
}

// DocumentCount returns the number of indexed assets.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}

// Sync subscribes to library changes, then reindexes the whole library
// when the index was just created or disagrees with the library size.
// Subscribing first means no change is missed while reindexing.
func (s *SearchService) Sync(ctx context.Context) error {
	s.unsubscribe = s.library.Subscribe(s.apply)

	count, err := s.index.DocumentCount()
	if err != nil {
		return fmt.Errorf("count documents: %w", err)
	}
	if s.index.Created() || count != uint64(s.library.Snapshot().Len()) {
		return s.Reindex(ctx)
	}
	return nil
}

// Reindex rebuilds the index from the current snapshot.
func (s *SearchService) Reindex(ctx context.Context) error {
	if err := s.index.Rebuild(); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	assets := s.library.Snapshot().Assets()
	docs := make([]*search.AssetDocument, len(assets))
	for i, a := range assets {
		if err := ctx.Err(); err != nil {
			return err
		}
		docs[i] = search.NewAssetDocument(a)
	}
	if err := s.index.IndexDocuments(docs); err != nil {
		return fmt.Errorf("index assets: %w", err)
	}

	s.logger.Info("search index rebuilt", "assets", len(docs))
	return nil
}

// apply runs on the library coordinator, so index writes happen in
// mutation order.
func (s *SearchService) apply(c domain.Change) {
	var err error
	switch c.Kind {
	case domain.ChangeAssetDeleted:
		err = s.index.DeleteDocument(c.Asset.ID)
	case domain.ChangeTagDeleted:
		snap := s.library.Snapshot()
		docs := make([]*search.AssetDocument, 0, len(c.AssetIDs))
		for _, a := range snap.Lookup(c.AssetIDs) {
			docs = append(docs, search.NewAssetDocument(a))
		}
		err = s.index.IndexDocuments(docs)
	default:
		err = s.index.IndexDocument(search.NewAssetDocument(c.Asset))
	}
	if err != nil {
		s.logger.Warn("search index update failed",
			"change", string(c.Kind),
			"asset_id", c.Asset.ID,
			"error", err,
		)
	}
}

// Shutdown stops following library changes. The index itself is closed
// by its owner.
func (s *SearchService) Shutdown() error {
	s.unsubscribe()
	return nil
}
