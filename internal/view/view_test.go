package view

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shutterboxapp/shutterbox/internal/domain"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func asset(n, rating int, tags ...string) domain.Asset {
	return domain.Asset{
		ID:        fmt.Sprintf("ast-%d", n),
		Width:     10,
		Height:    10,
		SizeMB:    1,
		CreatedAt: base.Add(time.Duration(n) * time.Hour),
		Rating:    rating,
		Tags:      tags,
	}
}

func ids(assets []domain.Asset) []string {
	out := make([]string, len(assets))
	for i, a := range assets {
		out[i] = a.ID
	}
	return out
}

func library() []domain.Asset {
	return []domain.Asset{
		asset(1, 3, "Nature"),
		asset(2, 0, "city"),
		asset(3, 5, "nature", "sea"),
		asset(4, 1),
		asset(5, 0, "NATURE"),
		asset(6, 3, "city"),
	}
}

func TestCompute_SortModes(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"default is newest first", Query{}, []string{"ast-6", "ast-5", "ast-4", "ast-3", "ast-2", "ast-1"}},
		{"date descending", Query{Sort: domain.SortDateDescending}, []string{"ast-6", "ast-5", "ast-4", "ast-3", "ast-2", "ast-1"}},
		{"date ascending", Query{Sort: domain.SortDateAscending}, []string{"ast-1", "ast-2", "ast-3", "ast-4", "ast-5", "ast-6"}},
		{"rating highest, ties newest first", Query{Sort: domain.SortRatingHighest}, []string{"ast-3", "ast-6", "ast-1", "ast-4", "ast-5", "ast-2"}},
		{"rating lowest, unrated last", Query{Sort: domain.SortRatingLowest}, []string{"ast-4", "ast-6", "ast-1", "ast-3", "ast-5", "ast-2"}},
		{"rating none follows descending date", Query{Sort: domain.SortRatingNone}, []string{"ast-6", "ast-5", "ast-4", "ast-3", "ast-2", "ast-1"}},
		{"rating none follows ascending date", Query{Sort: domain.SortRatingNone, DateAscending: true}, []string{"ast-1", "ast-2", "ast-3", "ast-4", "ast-5", "ast-6"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Compute(library(), tt.query)))
		})
	}
}

func TestCompute_FilterThenSort(t *testing.T) {
	got := Compute(library(), Query{Tag: "nature", Sort: domain.SortRatingHighest})
	assert.Equal(t, []string{"ast-3", "ast-1", "ast-5"}, ids(got))

	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		assert.True(t, prev.Rating > cur.Rating ||
			(prev.Rating == cur.Rating && !prev.CreatedAt.Before(cur.CreatedAt)))
	}
}

func TestCompute_FilterIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, []string{"ast-6", "ast-2"}, ids(Compute(library(), Query{Tag: "CITY"})))
	assert.Empty(t, Compute(library(), Query{Tag: "mountains"}))
}

func TestCompute_RatingLowestPutsUnratedLast(t *testing.T) {
	// Unrated assets are the newest, yet still sort after every rated one.
	assets := []domain.Asset{asset(1, 5), asset(2, 1), asset(8, 0), asset(9, 0)}

	got := Compute(assets, Query{Sort: domain.SortRatingLowest})
	assert.Equal(t, []string{"ast-2", "ast-1", "ast-9", "ast-8"}, ids(got))
}

func TestCompute_DoesNotMutateInput(t *testing.T) {
	in := library()
	before := ids(in)

	out := Compute(in, Query{Sort: domain.SortDateAscending, Tag: "nature"})
	out[0].Tags[0] = "changed"

	assert.Equal(t, before, ids(in))
	assert.Equal(t, "Nature", in[0].Tags[0])
}

func TestCompute_DeterministicTieBreak(t *testing.T) {
	a := asset(1, 2)
	b := asset(1, 2)
	b.ID = "ast-0"

	first := ids(Compute([]domain.Asset{a, b}, Query{}))
	second := ids(Compute([]domain.Asset{b, a}, Query{}))
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"ast-0", "ast-1"}, first)
}

func TestCompute_Empty(t *testing.T) {
	assert.Empty(t, Compute(nil, Query{Tag: "x"}))
}
