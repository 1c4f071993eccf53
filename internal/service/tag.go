package service

import (
	"context"
	"log/slog"

	"github.com/shutterboxapp/shutterbox/internal/library"
)

// TagService exposes the tag manager. Change events reach clients through
// ForwardChanges, so the service only adds logging and batch helpers.
type TagService struct {
	library *library.Library
	logger  *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(lib *library.Library, logger *slog.Logger) *TagService {
	return &TagService{library: lib, logger: logger}
}

// AddTag attaches text to an asset. A case-insensitive duplicate is
// reported as TagAlreadyExists and leaves the existing casing in place.
func (s *TagService) AddTag(ctx context.Context, assetID, text string) (library.TagResult, error) {
	res, err := s.library.AddTag(ctx, assetID, text)
	if err != nil {
		return res, err
	}
	s.logger.Info("tag added", "asset_id", assetID, "tag", text, "result", res.String())
	return res, nil
}

// AddTagToAssets tags several assets, stopping at the first failure.
// It returns how many assets gained the tag.
func (s *TagService) AddTagToAssets(ctx context.Context, assetIDs []string, text string) (int, error) {
	added := 0
	for _, assetID := range assetIDs {
		res, err := s.library.AddTag(ctx, assetID, text)
		if err != nil {
			return added, err
		}
		if res == library.TagAdded {
			added++
		}
	}
	s.logger.Info("tag added to assets", "tag", text, "assets", len(assetIDs), "added", added)
	return added, nil
}

// RemoveTag detaches text from an asset, reporting whether it was present.
func (s *TagService) RemoveTag(ctx context.Context, assetID, text string) (bool, error) {
	removed, err := s.library.RemoveTag(ctx, assetID, text)
	if err != nil {
		return false, err
	}
	if removed {
		s.logger.Info("tag removed", "asset_id", assetID, "tag", text)
	}
	return removed, nil
}

// ListUniqueTags returns the tag vocabulary.
func (s *TagService) ListUniqueTags(ctx context.Context) ([]string, error) {
	return s.library.ListUniqueTags(ctx)
}

// DeleteTagEverywhere removes text from every asset and returns how many
// assets lost it.
func (s *TagService) DeleteTagEverywhere(ctx context.Context, text string) (int, error) {
	n, err := s.library.DeleteTagEverywhere(ctx, text)
	if err != nil {
		return 0, err
	}
	s.logger.Info("tag deleted everywhere", "tag", text, "assets", n)
	return n, nil
}
