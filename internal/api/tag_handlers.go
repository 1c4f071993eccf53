package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shutterboxapp/shutterbox/internal/color"
	domainerrors "github.com/shutterboxapp/shutterbox/internal/errors"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns the tag vocabulary: one entry per case-insensitive group, in its first-used casing",
		Tags:        []string{"Tags"},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "applyTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags/apply",
		Summary:     "Apply tag",
		Description: "Attaches a tag to several assets, or to the current selection when no ids are given",
		Tags:        []string{"Tags"},
	}, s.handleApplyTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tags/{text}",
		Summary:     "Delete tag everywhere",
		Description: "Removes a tag from every asset that carries it",
		Tags:        []string{"Tags"},
	}, s.handleDeleteTag)
}

// === DTOs ===

// ListTagsResponse contains the tag vocabulary.
type ListTagsResponse struct {
	Tags   []string          `json:"tags" doc:"Unique tags sorted case-insensitively"`
	Colors map[string]string `json:"colors" doc:"Display color per tag"`
}

// ListTagsOutput wraps the list tags response for Huma.
type ListTagsOutput struct {
	Body ListTagsResponse
}

// ApplyTagInput names the tag and its targets.
type ApplyTagInput struct {
	Body struct {
		Text     string   `json:"text" minLength:"1" maxLength:"100" doc:"Tag text"`
		AssetIDs []string `json:"asset_ids,omitempty" doc:"Target assets; empty means the current selection"`
	}
}

// ApplyTagResponse reports a batch tag.
type ApplyTagResponse struct {
	Text    string `json:"text" doc:"Tag text"`
	Targets int    `json:"targets" doc:"Number of assets considered"`
	Added   int    `json:"added" doc:"Number of assets that gained the tag"`
}

// ApplyTagOutput wraps the apply tag response for Huma.
type ApplyTagOutput struct {
	Body ApplyTagResponse
}

// DeleteTagInput identifies the tag to delete.
type DeleteTagInput struct {
	Text string `path:"text" doc:"Tag text, matched case-insensitively"`
}

// DeleteTagResponse reports how many assets lost the tag.
type DeleteTagResponse struct {
	Text   string `json:"text" doc:"Tag text"`
	Assets int    `json:"assets" doc:"Number of assets that carried it"`
}

// DeleteTagOutput wraps the delete tag response for Huma.
type DeleteTagOutput struct {
	Body DeleteTagResponse
}

// === Handlers ===

func (s *Server) handleListTags(ctx context.Context, _ *struct{}) (*ListTagsOutput, error) {
	tags, err := s.services.Tags.ListUniqueTags(ctx)
	if err != nil {
		return nil, toAPIError(err)
	}
	if tags == nil {
		tags = []string{}
	}
	return &ListTagsOutput{Body: ListTagsResponse{Tags: tags, Colors: color.Palette(tags)}}, nil
}

func (s *Server) handleApplyTag(ctx context.Context, input *ApplyTagInput) (*ApplyTagOutput, error) {
	ids := input.Body.AssetIDs
	if len(ids) == 0 {
		for _, a := range s.services.Assets.Selected() {
			ids = append(ids, a.ID)
		}
	}
	if len(ids) == 0 {
		return nil, toAPIError(domainerrors.Validation("no assets selected"))
	}

	added, err := s.services.Tags.AddTagToAssets(ctx, ids, input.Body.Text)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &ApplyTagOutput{Body: ApplyTagResponse{
		Text:    input.Body.Text,
		Targets: len(ids),
		Added:   added,
	}}, nil
}

func (s *Server) handleDeleteTag(ctx context.Context, input *DeleteTagInput) (*DeleteTagOutput, error) {
	n, err := s.services.Tags.DeleteTagEverywhere(ctx, input.Text)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &DeleteTagOutput{Body: DeleteTagResponse{Text: input.Text, Assets: n}}, nil
}
