// Package view computes filtered and sorted views of the library. Compute
// is a pure function over its inputs and may run on any goroutine.
package view

import (
	"cmp"
	"slices"
	"strings"

	"github.com/shutterboxapp/shutterbox/internal/domain"
)

// Query selects and orders a view.
type Query struct {
	// Tag keeps only assets carrying a case-insensitively equal tag.
	// Empty means no filter.
	Tag  string
	Sort domain.SortMode
	// DateAscending is the active date direction used by SortRatingNone.
	DateAscending bool
}

// Compute filters assets by q.Tag and sorts the result by q.Sort. The input
// is not modified. Ties not decided by the sort mode fall back to newest
// first, then asset id, so equal inputs always give equal output.
func Compute(assets []domain.Asset, q Query) []domain.Asset {
	out := filter(assets, q.Tag)
	slices.SortStableFunc(out, comparator(q))
	return out
}

func filter(assets []domain.Asset, tag string) []domain.Asset {
	key := domain.FoldKey(tag)
	out := make([]domain.Asset, 0, len(assets))
	for _, a := range assets {
		if key != "" && !a.HasTag(tag) {
			continue
		}
		out = append(out, a.Clone())
	}
	return out
}

func comparator(q Query) func(a, b domain.Asset) int {
	switch q.Sort {
	case domain.SortDateAscending:
		return byDate(true)
	case domain.SortRatingHighest:
		return func(a, b domain.Asset) int {
			if c := cmp.Compare(b.Rating, a.Rating); c != 0 {
				return c
			}
			return byDate(false)(a, b)
		}
	case domain.SortRatingLowest:
		return func(a, b domain.Asset) int {
			// Unrated sorts after every rated asset.
			if c := cmp.Compare(lowestRank(a.Rating), lowestRank(b.Rating)); c != 0 {
				return c
			}
			return byDate(false)(a, b)
		}
	case domain.SortRatingNone:
		return byDate(q.DateAscending)
	default:
		return byDate(false)
	}
}

func lowestRank(rating int) int {
	if rating == 0 {
		return domain.MaxRating + 1
	}
	return rating
}

func byDate(ascending bool) func(a, b domain.Asset) int {
	return func(a, b domain.Asset) int {
		c := a.CreatedAt.Compare(b.CreatedAt)
		if !ascending {
			c = -c
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	}
}
