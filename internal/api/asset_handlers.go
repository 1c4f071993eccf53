package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/shutterboxapp/shutterbox/internal/api/dto"
	"github.com/shutterboxapp/shutterbox/internal/domain"
	domainerrors "github.com/shutterboxapp/shutterbox/internal/errors"
	"github.com/shutterboxapp/shutterbox/internal/http/response"
	"github.com/shutterboxapp/shutterbox/internal/view"
)

func (s *Server) registerAssetRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listAssets",
		Method:      http.MethodGet,
		Path:        "/api/v1/assets",
		Summary:     "List assets",
		Description: "Returns the library filtered by tag and sorted by the requested mode",
		Tags:        []string{"Assets"},
	}, s.handleListAssets)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSelectedAssets",
		Method:      http.MethodGet,
		Path:        "/api/v1/assets/selected",
		Summary:     "List selected assets",
		Description: "Returns the currently selected assets in import order",
		Tags:        []string{"Assets"},
	}, s.handleListSelectedAssets)

	huma.Register(s.api, huma.Operation{
		OperationID: "getAsset",
		Method:      http.MethodGet,
		Path:        "/api/v1/assets/{id}",
		Summary:     "Get asset",
		Description: "Returns an asset by ID",
		Tags:        []string{"Assets"},
	}, s.handleGetAsset)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteAsset",
		Method:        http.MethodDelete,
		Path:          "/api/v1/assets/{id}",
		Summary:       "Delete asset",
		Description:   "Removes an asset, its tags and its managed file",
		Tags:          []string{"Assets"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteAsset)

	huma.Register(s.api, huma.Operation{
		OperationID: "setAssetRating",
		Method:      http.MethodPut,
		Path:        "/api/v1/assets/{id}/rating",
		Summary:     "Set rating",
		Description: "Sets a 0-5 star rating; 0 clears it",
		Tags:        []string{"Assets"},
	}, s.handleSetRating)

	huma.Register(s.api, huma.Operation{
		OperationID: "setAssetSelected",
		Method:      http.MethodPut,
		Path:        "/api/v1/assets/{id}/selected",
		Summary:     "Set selection",
		Description: "Selects or deselects an asset",
		Tags:        []string{"Assets"},
	}, s.handleSetSelected)

	huma.Register(s.api, huma.Operation{
		OperationID: "addAssetTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/assets/{id}/tags",
		Summary:     "Add tag",
		Description: "Attaches a tag; a case-insensitive duplicate is reported as already_exists",
		Tags:        []string{"Tags"},
	}, s.handleAddAssetTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeAssetTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/assets/{id}/tags/{text}",
		Summary:     "Remove tag",
		Description: "Detaches a tag matched case-insensitively",
		Tags:        []string{"Tags"},
	}, s.handleRemoveAssetTag)
}

// === DTOs ===

// ListAssetsInput contains parameters for listing assets.
type ListAssetsInput struct {
	dto.ViewParams
}

// AssetListResponse is an ordered library view.
type AssetListResponse struct {
	Version uint64              `json:"version" doc:"Library version the view was computed from"`
	Items   []dto.AssetResponse `json:"items" doc:"Assets in view order"`
	Total   int                 `json:"total" doc:"Number of assets in the view"`
}

// AssetListOutput wraps the asset list response for Huma.
type AssetListOutput struct {
	Body AssetListResponse
}

// SelectedAssetsOutput wraps the selected assets for Huma.
type SelectedAssetsOutput struct {
	Body dto.ListResponse[dto.AssetResponse]
}

// AssetOutput wraps a single asset for Huma.
type AssetOutput struct {
	Body dto.AssetResponse
}

// SetRatingInput contains the new rating.
type SetRatingInput struct {
	dto.IDParam
	Body struct {
		Rating int `json:"rating" minimum:"0" maximum:"5" doc:"Star rating, 0 clears"`
	}
}

// SetSelectedInput contains the new selection state.
type SetSelectedInput struct {
	dto.IDParam
	Body struct {
		Selected bool `json:"selected" doc:"Selection state"`
	}
}

// AddTagInput contains the tag to attach.
type AddTagInput struct {
	dto.IDParam
	Body struct {
		Text string `json:"text" minLength:"1" maxLength:"100" doc:"Tag text: letters, digits and spaces"`
	}
}

// TagChangeResponse reports a tag mutation on one asset.
type TagChangeResponse struct {
	Result string            `json:"result" enum:"added,already_exists,removed,not_present" doc:"What happened"`
	Asset  dto.AssetResponse `json:"asset" doc:"The asset after the change"`
}

// TagChangeOutput wraps a tag change for Huma.
type TagChangeOutput struct {
	Body TagChangeResponse
}

// RemoveTagInput identifies the tag to detach.
type RemoveTagInput struct {
	dto.IDParam
	Text string `path:"text" doc:"Tag text, matched case-insensitively"`
}

// === Handlers ===

func (s *Server) handleListAssets(_ context.Context, input *ListAssetsInput) (*AssetListOutput, error) {
	q, err := viewQuery(input.ViewParams)
	if err != nil {
		return nil, err
	}
	v := s.services.Views.ComputeView(q)
	return &AssetListOutput{Body: AssetListResponse{
		Version: v.Version,
		Items:   dto.FromAssets(v.Assets),
		Total:   len(v.Assets),
	}}, nil
}

func (s *Server) handleListSelectedAssets(_ context.Context, _ *struct{}) (*SelectedAssetsOutput, error) {
	return &SelectedAssetsOutput{Body: dto.NewList(dto.FromAssets(s.services.Assets.Selected()))}, nil
}

func (s *Server) handleGetAsset(_ context.Context, input *dto.IDParam) (*AssetOutput, error) {
	a, err := s.services.Assets.Get(input.ID)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &AssetOutput{Body: dto.FromAsset(a)}, nil
}

func (s *Server) handleDeleteAsset(ctx context.Context, input *dto.IDParam) (*struct{}, error) {
	if _, err := s.services.Assets.Delete(ctx, input.ID); err != nil {
		return nil, toAPIError(err)
	}
	return nil, nil
}

func (s *Server) handleSetRating(ctx context.Context, input *SetRatingInput) (*AssetOutput, error) {
	a, err := s.services.Assets.SetRating(ctx, input.ID, input.Body.Rating)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &AssetOutput{Body: dto.FromAsset(a)}, nil
}

func (s *Server) handleSetSelected(ctx context.Context, input *SetSelectedInput) (*AssetOutput, error) {
	a, err := s.services.Assets.SetSelected(ctx, input.ID, input.Body.Selected)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &AssetOutput{Body: dto.FromAsset(a)}, nil
}

func (s *Server) handleAddAssetTag(ctx context.Context, input *AddTagInput) (*TagChangeOutput, error) {
	res, err := s.services.Tags.AddTag(ctx, input.ID, input.Body.Text)
	if err != nil {
		return nil, toAPIError(err)
	}
	a, err := s.services.Assets.Get(input.ID)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &TagChangeOutput{Body: TagChangeResponse{Result: res.String(), Asset: dto.FromAsset(a)}}, nil
}

func (s *Server) handleRemoveAssetTag(ctx context.Context, input *RemoveTagInput) (*TagChangeOutput, error) {
	removed, err := s.services.Tags.RemoveTag(ctx, input.ID, input.Text)
	if err != nil {
		return nil, toAPIError(err)
	}
	a, err := s.services.Assets.Get(input.ID)
	if err != nil {
		return nil, toAPIError(err)
	}
	result := "not_present"
	if removed {
		result = "removed"
	}
	return &TagChangeOutput{Body: TagChangeResponse{Result: result, Asset: dto.FromAsset(a)}}, nil
}

// handleAssetFile streams the managed image file.
// This is a chi handler (not Huma) so http.ServeFile can answer range and
// conditional requests.
func (s *Server) handleAssetFile(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "id")

	_, path, err := s.services.Assets.File(assetID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	// Managed files are never rewritten in place.
	w.Header().Set("Cache-Control", "private, max-age=31536000, immutable")
	http.ServeFile(w, r, path)
}

// viewQuery converts query parameters into a view query.
func viewQuery(p dto.ViewParams) (view.Query, error) {
	mode, err := domain.ParseSortMode(p.Sort)
	if err != nil {
		return view.Query{}, toAPIError(domainerrors.Validation(err.Error()))
	}
	return view.Query{Tag: p.Tag, Sort: mode, DateAscending: p.DateAsc}, nil
}
