// Package dto provides request and response types for the Shutterbox API.
// These types are used by huma to generate OpenAPI documentation and perform validation.
package dto

// ListResponse is a generic list response.
type ListResponse[T any] struct {
	Items []T `json:"items" doc:"List of items"`
	Total int `json:"total" doc:"Number of items"`
}

// NewList wraps items, substituting an empty list for nil.
func NewList[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Total: len(items)}
}

// IDParam is a path parameter for resource IDs.
type IDParam struct {
	ID string `path:"id" doc:"Resource identifier"`
}

// ViewParams select and order a library view.
type ViewParams struct {
	Tag     string `query:"tag" doc:"Only assets carrying this tag, compared case-insensitively"`
	Sort    string `query:"sort" enum:"date_desc,date_asc,rating_highest,rating_lowest,rating_none" default:"date_desc" doc:"Sort mode"`
	DateAsc bool   `query:"date_asc" doc:"Date direction used by rating_none"`
}

// ViewRequest is a view selection sent in a request body.
type ViewRequest struct {
	Tag     string `json:"tag,omitempty" doc:"Only assets carrying this tag"`
	Sort    string `json:"sort,omitempty" enum:"date_desc,date_asc,rating_highest,rating_lowest,rating_none" doc:"Sort mode"`
	DateAsc bool   `json:"date_asc,omitempty" doc:"Date direction used by rating_none"`
}

// Params converts the request into query parameters.
func (v ViewRequest) Params() ViewParams {
	return ViewParams{Tag: v.Tag, Sort: v.Sort, DateAsc: v.DateAsc}
}
