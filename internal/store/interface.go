// Package store defines the persistence contract for the photo library and
// provides the Badger-backed implementation. The SQLite implementation lives
// in store/sqlite.
package store

import (
	"context"

	"github.com/shutterboxapp/shutterbox/internal/domain"
)

// Store is the persistence collaborator of the library. Any error from a
// mutating call means the change did not happen.
type Store interface {
	Close() error

	// Assets. Returned assets carry their tags in insertion order;
	// Selected is never persisted.
	InsertAsset(ctx context.Context, a *domain.Asset) error
	UpdateAsset(ctx context.Context, a *domain.Asset) error
	// DeleteAsset removes the asset, its tags and its photo-book entries.
	DeleteAsset(ctx context.Context, id string) error
	GetAsset(ctx context.Context, id string) (*domain.Asset, error)
	// ListAssets returns assets ordered by creation time, then id.
	ListAssets(ctx context.Context) ([]*domain.Asset, error)

	// Tags. InsertTag assigns Seq and fails with ErrAlreadyExists when the
	// asset already has a case-insensitively equal tag.
	InsertTag(ctx context.Context, t *domain.Tag) error
	// DeleteTag removes the asset's tag matching text case-insensitively.
	DeleteTag(ctx context.Context, assetID, text string) error
	// DeleteTagEverywhere returns the ids of the assets that lost the tag.
	DeleteTagEverywhere(ctx context.Context, text string) ([]string, error)
	QueryTagsForAsset(ctx context.Context, assetID string) ([]domain.Tag, error)
	// QueryAllTags returns every tag ordered by Seq.
	QueryAllTags(ctx context.Context) ([]domain.Tag, error)

	// Photo-books.
	CreatePhotoBook(ctx context.Context, b *domain.PhotoBook) error
	GetPhotoBook(ctx context.Context, id string) (*domain.PhotoBook, error)
	ListPhotoBooks(ctx context.Context) ([]*domain.PhotoBook, error)
	DeletePhotoBook(ctx context.Context, id string) error
}
