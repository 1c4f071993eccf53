package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shutterboxapp/shutterbox/internal/api/dto"
	"github.com/shutterboxapp/shutterbox/internal/domain"
	"github.com/shutterboxapp/shutterbox/internal/service"
)

func (s *Server) registerPhotoBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createPhotoBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/photobooks",
		Summary:       "Create photo-book",
		Description:   "Creates a photo-book from explicit asset ids or from a library view",
		Tags:          []string{"Photo-books"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreatePhotoBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "listPhotoBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/photobooks",
		Summary:     "List photo-books",
		Description: "Returns all photo-books",
		Tags:        []string{"Photo-books"},
	}, s.handleListPhotoBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPhotoBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/photobooks/{id}",
		Summary:     "Get photo-book",
		Description: "Returns a photo-book by ID",
		Tags:        []string{"Photo-books"},
	}, s.handleGetPhotoBook)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deletePhotoBook",
		Method:        http.MethodDelete,
		Path:          "/api/v1/photobooks/{id}",
		Summary:       "Delete photo-book",
		Description:   "Deletes a photo-book; its assets are kept",
		Tags:          []string{"Photo-books"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeletePhotoBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPhotoBookPage",
		Method:      http.MethodGet,
		Path:        "/api/v1/photobooks/{id}/pages/{page}",
		Summary:     "Get photo-book page",
		Description: "Returns the assets of one page",
		Tags:        []string{"Photo-books"},
	}, s.handleGetPhotoBookPage)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPhotoBookPageLayout",
		Method:      http.MethodGet,
		Path:        "/api/v1/photobooks/{id}/pages/{page}/layout",
		Summary:     "Get page layout",
		Description: "Lays out one page with the masonry engine",
		Tags:        []string{"Photo-books", "Layout"},
	}, s.handleGetPhotoBookPageLayout)
}

// === DTOs ===

// PhotoBookResponse contains photo-book data in API responses.
type PhotoBookResponse struct {
	ID        string    `json:"id" doc:"Photo-book ID"`
	Name      string    `json:"name" doc:"Display name"`
	PageSize  int       `json:"page_size" doc:"Assets per page; 0 keeps one page"`
	Pages     int       `json:"pages" doc:"Number of pages"`
	AssetIDs  []string  `json:"asset_ids" doc:"Assets in book order"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
}

func photoBookResponse(b *domain.PhotoBook) PhotoBookResponse {
	ids := b.AssetIDs
	if ids == nil {
		ids = []string{}
	}
	return PhotoBookResponse{
		ID:        b.ID,
		Name:      b.Name,
		PageSize:  b.PageSize,
		Pages:     len(b.Pages()),
		AssetIDs:  ids,
		CreatedAt: b.CreatedAt,
	}
}

// CreatePhotoBookInput wraps the create request for Huma.
type CreatePhotoBookInput struct {
	Body struct {
		Name     string           `json:"name" minLength:"1" maxLength:"200" doc:"Display name"`
		AssetIDs []string         `json:"asset_ids,omitempty" doc:"Assets in book order"`
		View     *dto.ViewRequest `json:"view,omitempty" doc:"Take the assets of this view instead of asset_ids"`
		PageSize int              `json:"page_size,omitempty" minimum:"0" maximum:"64" doc:"Assets per page; 0 keeps one page"`
	}
}

// PhotoBookOutput wraps a photo-book for Huma.
type PhotoBookOutput struct {
	Body PhotoBookResponse
}

// PhotoBookListOutput wraps the photo-book list for Huma.
type PhotoBookListOutput struct {
	Body dto.ListResponse[PhotoBookResponse]
}

// PageInput identifies one page.
type PageInput struct {
	dto.IDParam
	Page int `path:"page" minimum:"0" doc:"Zero-based page number"`
}

// PageResponse is one page with its assets.
type PageResponse struct {
	BookID string              `json:"book_id" doc:"Photo-book ID"`
	Number int                 `json:"number" doc:"Zero-based page number"`
	Pages  int                 `json:"pages" doc:"Number of pages in the book"`
	Assets []dto.AssetResponse `json:"assets" doc:"Assets on the page"`
}

// PageOutput wraps a page for Huma.
type PageOutput struct {
	Body PageResponse
}

// PageLayoutInput identifies a page and the width to lay it out at.
type PageLayoutInput struct {
	PageInput
	Width float64 `query:"width" minimum:"0" doc:"Container width in pixels; 0 uses the fallback width"`
}

// === Handlers ===

func (s *Server) handleCreatePhotoBook(ctx context.Context, input *CreatePhotoBookInput) (*PhotoBookOutput, error) {
	req := service.CreatePhotoBookRequest{
		Name:     input.Body.Name,
		AssetIDs: input.Body.AssetIDs,
		PageSize: input.Body.PageSize,
	}
	if v := input.Body.View; v != nil {
		q, err := viewQuery(v.Params())
		if err != nil {
			return nil, err
		}
		req.Query = &q
	}

	book, err := s.services.Books.Create(ctx, req)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &PhotoBookOutput{Body: photoBookResponse(book)}, nil
}

func (s *Server) handleListPhotoBooks(ctx context.Context, _ *struct{}) (*PhotoBookListOutput, error) {
	books, err := s.services.Books.List(ctx)
	if err != nil {
		return nil, toAPIError(err)
	}
	items := make([]PhotoBookResponse, len(books))
	for i, b := range books {
		items[i] = photoBookResponse(b)
	}
	return &PhotoBookListOutput{Body: dto.NewList(items)}, nil
}

func (s *Server) handleGetPhotoBook(ctx context.Context, input *dto.IDParam) (*PhotoBookOutput, error) {
	book, err := s.services.Books.Get(ctx, input.ID)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &PhotoBookOutput{Body: photoBookResponse(book)}, nil
}

func (s *Server) handleDeletePhotoBook(ctx context.Context, input *dto.IDParam) (*struct{}, error) {
	if err := s.services.Books.Delete(ctx, input.ID); err != nil {
		return nil, toAPIError(err)
	}
	return nil, nil
}

func (s *Server) handleGetPhotoBookPage(ctx context.Context, input *PageInput) (*PageOutput, error) {
	page, err := s.services.Books.Page(ctx, input.ID, input.Page)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &PageOutput{Body: PageResponse{
		BookID: page.BookID,
		Number: page.Number,
		Pages:  page.Pages,
		Assets: dto.FromAssets(page.Assets),
	}}, nil
}

func (s *Server) handleGetPhotoBookPageLayout(ctx context.Context, input *PageLayoutInput) (*LayoutOutput, error) {
	out, err := s.services.Books.PageLayout(ctx, input.ID, input.Page, input.Width)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &LayoutOutput{Body: layoutResponse(out)}, nil
}
