package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/shutterboxapp/shutterbox/internal/errors"
	"github.com/shutterboxapp/shutterbox/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchAssets",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search assets",
		Description: "Full-text search over file names and tags with tag and rating filters",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// SearchInput contains search query parameters.
type SearchInput struct {
	Query     string `query:"q" doc:"Search text; empty matches everything"`
	Tag       string `query:"tag" doc:"Only assets carrying this tag"`
	MinRating int    `query:"min_rating" minimum:"0" maximum:"5" doc:"Minimum star rating"`
	Sort      string `query:"sort" enum:"relevance,recent,rating" default:"relevance" doc:"Result order"`
	Limit     int    `query:"limit" minimum:"1" maximum:"100" default:"20" doc:"Maximum hits"`
	Offset    int    `query:"offset" minimum:"0" doc:"Hits to skip"`
	Highlight bool   `query:"highlight" doc:"Include highlighted fragments"`
}

// SearchOutput wraps search results for Huma.
type SearchOutput struct {
	Body *search.Result
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	if s.services.Search == nil {
		return nil, toAPIError(domainerrors.Unavailable("search is not available"))
	}

	res, err := s.services.Search.Search(ctx, search.Params{
		Query:     input.Query,
		Tag:       input.Tag,
		MinRating: input.MinRating,
		Limit:     input.Limit,
		Offset:    input.Offset,
		SortBy:    input.Sort,
		Highlight: input.Highlight,
	})
	if err != nil {
		s.logger.Error("search failed", "query", input.Query, "error", err)
		return nil, toAPIError(err)
	}
	return &SearchOutput{Body: res}, nil
}
