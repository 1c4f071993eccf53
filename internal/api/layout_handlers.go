package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shutterboxapp/shutterbox/internal/api/dto"
	domainerrors "github.com/shutterboxapp/shutterbox/internal/errors"
	"github.com/shutterboxapp/shutterbox/internal/layout"
	"github.com/shutterboxapp/shutterbox/internal/service"
)

func (s *Server) registerLayoutRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "computeLayout",
		Method:      http.MethodPost,
		Path:        "/api/v1/layout",
		Summary:     "Compute layout",
		Description: "Packs items or library assets into masonry columns for a container width",
		Tags:        []string{"Layout"},
	}, s.handleComputeLayout)

	huma.Register(s.api, huma.Operation{
		OperationID:   "updateViewport",
		Method:        http.MethodPut,
		Path:          "/api/v1/layout/viewport",
		Summary:       "Update viewport",
		Description:   "Records the viewport width and view; the live layout is recomputed after the debounce window",
		Tags:          []string{"Layout"},
		DefaultStatus: http.StatusAccepted,
	}, s.handleUpdateViewport)

	huma.Register(s.api, huma.Operation{
		OperationID: "getViewportLayout",
		Method:      http.MethodGet,
		Path:        "/api/v1/layout/viewport",
		Summary:     "Get viewport layout",
		Description: "Returns the most recent live layout",
		Tags:        []string{"Layout"},
	}, s.handleGetViewportLayout)
}

// === DTOs ===

// ComputeLayoutInput carries either raw item sizes or asset ids.
type ComputeLayoutInput struct {
	Body struct {
		Width    float64       `json:"width" minimum:"0" doc:"Container width in pixels; 0 uses the fallback width"`
		Items    []layout.Item `json:"items,omitempty" doc:"Intrinsic item sizes, in order"`
		AssetIDs []string      `json:"asset_ids,omitempty" doc:"Library assets to lay out, in order"`
	}
}

// LayoutResponse is a masonry plan. When the layout was computed over
// assets, placement i belongs to AssetIDs[i].
type LayoutResponse struct {
	Width    float64     `json:"width" doc:"Container width used"`
	Columns  int         `json:"columns" doc:"Column count"`
	Height   float64     `json:"height" doc:"Height of the tallest column"`
	AssetIDs []string    `json:"asset_ids,omitempty" doc:"Assets in placement order"`
	Plan     layout.Plan `json:"plan" doc:"Column assignment"`
	Version  uint64      `json:"version,omitempty" doc:"Library version of a live layout"`
}

// LayoutOutput wraps a layout for Huma.
type LayoutOutput struct {
	Body LayoutResponse
}

// UpdateViewportInput carries the viewport state.
type UpdateViewportInput struct {
	Body struct {
		Width float64          `json:"width" minimum:"0" doc:"Container width in pixels"`
		View  *dto.ViewRequest `json:"view,omitempty" doc:"New view; omitted keeps the current one"`
	}
}

// ViewportResponse reports whether a recomputation was scheduled.
type ViewportResponse struct {
	Scheduled bool `json:"scheduled" doc:"Whether the change scheduled a recomputation"`
	Pending   bool `json:"pending" doc:"Whether a recomputation is running or settling"`
}

// ViewportOutput wraps the viewport response for Huma.
type ViewportOutput struct {
	Body ViewportResponse
}

// === Handlers ===

func (s *Server) handleComputeLayout(_ context.Context, input *ComputeLayoutInput) (*LayoutOutput, error) {
	body := input.Body
	if len(body.Items) > 0 && len(body.AssetIDs) > 0 {
		return nil, toAPIError(domainerrors.Validation("items and asset_ids are mutually exclusive"))
	}

	if len(body.AssetIDs) > 0 {
		out, err := s.services.Layouts.ComputeAssetLayout(body.AssetIDs, body.Width)
		if err != nil {
			return nil, toAPIError(err)
		}
		return &LayoutOutput{Body: layoutResponse(out)}, nil
	}

	plan, columns := s.services.Layouts.ComputeLayout(body.Items, body.Width)
	opts := s.services.Layouts.Options()
	return &LayoutOutput{Body: LayoutResponse{
		Width:   opts.EffectiveWidth(body.Width),
		Columns: columns,
		Height:  plan.Height(opts.Spacing),
		Plan:    plan,
	}}, nil
}

func (s *Server) handleUpdateViewport(_ context.Context, input *UpdateViewportInput) (*ViewportOutput, error) {
	scheduled := false
	if v := input.Body.View; v != nil {
		q, err := viewQuery(v.Params())
		if err != nil {
			return nil, err
		}
		s.services.Layouts.SetQuery(q)
		scheduled = true
	}
	if s.services.Layouts.Resize(input.Body.Width) {
		scheduled = true
	}
	return &ViewportOutput{Body: ViewportResponse{
		Scheduled: scheduled,
		Pending:   s.services.Layouts.Pending(),
	}}, nil
}

func (s *Server) handleGetViewportLayout(_ context.Context, _ *struct{}) (*LayoutOutput, error) {
	live := s.services.Layouts.Current()
	if live == nil {
		return nil, toAPIError(domainerrors.NotFound("no viewport layout computed yet"))
	}
	resp := layoutResponse(&live.AssetLayout)
	resp.Version = live.Version
	return &LayoutOutput{Body: resp}, nil
}

func layoutResponse(out *service.AssetLayout) LayoutResponse {
	return LayoutResponse{
		Width:    out.Width,
		Columns:  out.Columns,
		Height:   out.Height,
		AssetIDs: out.AssetIDs,
		Plan:     out.Plan,
	}
}
