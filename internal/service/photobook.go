package service

import (
	"context"
	"log/slog"

	"github.com/shutterboxapp/shutterbox/internal/clock"
	"github.com/shutterboxapp/shutterbox/internal/domain"
	domainerrors "github.com/shutterboxapp/shutterbox/internal/errors"
	"github.com/shutterboxapp/shutterbox/internal/id"
	"github.com/shutterboxapp/shutterbox/internal/library"
	"github.com/shutterboxapp/shutterbox/internal/store"
	"github.com/shutterboxapp/shutterbox/internal/validation"
	"github.com/shutterboxapp/shutterbox/internal/view"
)

// CreatePhotoBookRequest describes a new photo-book. Exactly one of
// AssetIDs and Query selects the content; PageSize 0 puts everything on
// one masonry page.
type CreatePhotoBookRequest struct {
	Name     string      `json:"name" validate:"required,max=200"`
	AssetIDs []string    `json:"asset_ids" validate:"omitempty,unique,dive,required"`
	Query    *view.Query `json:"-"`
	PageSize int         `json:"page_size" validate:"gte=0,lte=64"`
}

// PhotoBookPage is one page of a photo-book with its assets resolved.
type PhotoBookPage struct {
	BookID string         `json:"book_id"`
	Number int            `json:"number"`
	Pages  int            `json:"pages"`
	Assets []domain.Asset `json:"assets"`
}

// PhotoBookService manages photo-books.
type PhotoBookService struct {
	store     store.Store
	library   *library.Library
	layouts   *LayoutService
	validator *validation.Validator
	clock     clock.Clock
	logger    *slog.Logger
}

// NewPhotoBookService creates a photo-book service.
func NewPhotoBookService(st store.Store, lib *library.Library, layouts *LayoutService, v *validation.Validator, c clock.Clock, logger *slog.Logger) *PhotoBookService {
	if c == nil {
		c = clock.Real()
	}
	return &PhotoBookService{
		store:     st,
		library:   lib,
		layouts:   layouts,
		validator: v,
		clock:     c,
		logger:    logger,
	}
}

// Create stores a photo-book over an explicit asset list or the result of
// a view query.
func (s *PhotoBookService) Create(ctx context.Context, req CreatePhotoBookRequest) (*domain.PhotoBook, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	assetIDs := req.AssetIDs
	switch {
	case req.Query != nil && len(assetIDs) > 0:
		return nil, domainerrors.Validation("asset_ids and a view query are mutually exclusive")
	case req.Query != nil:
		snap := s.library.Snapshot()
		for _, a := range view.Compute(snap.Assets(), *req.Query) {
			assetIDs = append(assetIDs, a.ID)
		}
	case len(assetIDs) == 0:
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"asset_ids": "is required",
		})
	}

	snap := s.library.Snapshot()
	for _, assetID := range assetIDs {
		if !snap.Contains(assetID) {
			return nil, domainerrors.NotFoundf("asset %s not found", assetID)
		}
	}

	bookID, err := id.NewPhotoBook()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate photo-book id")
	}

	book := &domain.PhotoBook{
		ID:        bookID,
		Name:      req.Name,
		PageSize:  req.PageSize,
		AssetIDs:  append([]string{}, assetIDs...),
		CreatedAt: s.clock.Now(),
	}
	if err := s.store.CreatePhotoBook(ctx, book); err != nil {
		return nil, store.AsDomainError(err)
	}

	s.logger.Info("photo-book created",
		"book_id", book.ID,
		"name", book.Name,
		"assets", len(book.AssetIDs),
		"page_size", book.PageSize,
	)
	return book, nil
}

// Get returns a photo-book.
func (s *PhotoBookService) Get(ctx context.Context, bookID string) (*domain.PhotoBook, error) {
	book, err := s.store.GetPhotoBook(ctx, bookID)
	if err != nil {
		return nil, store.AsDomainError(err)
	}
	return book, nil
}

// List returns every photo-book.
func (s *PhotoBookService) List(ctx context.Context) ([]*domain.PhotoBook, error) {
	books, err := s.store.ListPhotoBooks(ctx)
	if err != nil {
		return nil, store.AsDomainError(err)
	}
	return books, nil
}

// Delete removes a photo-book. The assets are untouched.
func (s *PhotoBookService) Delete(ctx context.Context, bookID string) error {
	if err := s.store.DeletePhotoBook(ctx, bookID); err != nil {
		return store.AsDomainError(err)
	}
	s.logger.Info("photo-book deleted", "book_id", bookID)
	return nil
}

// Page returns page n (zero-based) with its assets.
func (s *PhotoBookService) Page(ctx context.Context, bookID string, n int) (*PhotoBookPage, error) {
	book, err := s.Get(ctx, bookID)
	if err != nil {
		return nil, err
	}
	ids, ok := book.Page(n)
	if !ok {
		return nil, domainerrors.NotFoundf("photo-book %s has no page %d", bookID, n)
	}
	return &PhotoBookPage{
		BookID: book.ID,
		Number: n,
		Pages:  len(book.Pages()),
		Assets: s.library.Snapshot().Lookup(ids),
	}, nil
}

// PageLayout lays out page n with the masonry engine.
func (s *PhotoBookService) PageLayout(ctx context.Context, bookID string, n int, width float64) (*AssetLayout, error) {
	page, err := s.Page(ctx, bookID, n)
	if err != nil {
		return nil, err
	}
	out := s.layouts.layoutAssets(page.Assets, width)
	s.layouts.metrics.LayoutComputed(layoutSourcePage)
	return out, nil
}
