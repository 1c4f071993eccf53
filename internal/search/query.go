package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/shutterboxapp/shutterbox/internal/domain"
)

// Sort orders for Params.SortBy.
const (
	SortRelevance = "relevance"
	SortRecent    = "recent"
	SortRating    = "rating"
)

// Params configures a search query.
type Params struct {
	Query string
	// Tag restricts results to assets carrying the tag, ignoring case.
	Tag       string
	MinRating int

	Limit  int
	Offset int
	SortBy string

	Highlight bool
}

// DefaultParams returns sensible defaults.
func DefaultParams() Params {
	return Params{Limit: 20, SortBy: SortRelevance}
}

// Result represents the search results.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit represents a single search result.
type Hit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	FileName   string            `json:"file_name"`
	Tags       []string          `json:"tags,omitempty"`
	Rating     int               `json:"rating"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Search executes a search query.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultParams().Limit
	}

	req := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	switch params.SortBy {
	case SortRecent:
		req.SortBy([]string{"-created_at", "id"})
	case SortRating:
		req.SortBy([]string{"-rating", "-created_at", "id"})
	default:
		req.SortBy([]string{"-_score", "-created_at", "id"})
	}
	if params.Highlight {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("file_name")
		req.Highlight.AddField("tags")
	}
	req.Fields = []string{"file_name", "tags", "rating"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if n, ok := h.Fields["file_name"].(string); ok {
			hit.FileName = n
		}
		// A single stored value comes back as a string, several as a slice.
		switch tags := h.Fields["tags"].(type) {
		case string:
			hit.Tags = []string{tags}
		case []any:
			for _, t := range tags {
				if str, ok := t.(string); ok {
					hit.Tags = append(hit.Tags, str)
				}
			}
		}
		if r, ok := h.Fields["rating"].(float64); ok {
			hit.Rating = int(r)
		}
		if len(h.Fragments) > 0 {
			hit.Highlights = make(map[string]string)
			for field, fragments := range h.Fragments {
				if len(fragments) > 0 {
					hit.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, hit)
	}
	return result, nil
}

// buildQuery constructs the Bleve query from params.
func buildQuery(params Params) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		nameMatch := bleve.NewMatchQuery(q)
		nameMatch.SetField("file_name")
		nameMatch.SetBoost(2.0)

		tagMatch := bleve.NewMatchQuery(q)
		tagMatch.SetField("tags")
		tagMatch.SetBoost(3.0)

		textQueries := []query.Query{nameMatch, tagMatch}

		// Typo tolerance on single words.
		if !strings.ContainsAny(q, " \t") && len(q) >= 4 {
			fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
			fuzzy.SetFuzziness(1)
			fuzzy.SetField("tags")
			fuzzy.SetBoost(0.8)
			textQueries = append(textQueries, fuzzy)
		}

		// Prefix query for autocomplete (minimum 2 chars)
		if len(q) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(q))
			prefix.SetField("file_name")
			prefix.SetBoost(0.5)
			textQueries = append(textQueries, prefix)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if key := domain.FoldKey(params.Tag); key != "" {
		tq := bleve.NewTermQuery(key)
		tq.SetField("tag_keys")
		queries = append(queries, tq)
	}

	if params.MinRating > 0 {
		lo := float64(params.MinRating)
		inclusive := true
		rq := bleve.NewNumericRangeInclusiveQuery(&lo, nil, &inclusive, nil)
		rq.SetField("rating")
		queries = append(queries, rq)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}
