// Package storetest holds the behavioral suite every store.Store
// implementation must pass.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shutterboxapp/shutterbox/internal/domain"
	"github.com/shutterboxapp/shutterbox/internal/store"
)

// Factory returns a fresh, empty store. Cleanup is the factory's job.
type Factory func(t *testing.T) store.Store

var base = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

// NewAsset builds a valid asset created n minutes after a fixed base time.
func NewAsset(id string, n int) *domain.Asset {
	return &domain.Asset{
		ID:          id,
		FileName:    id + ".jpg",
		StoragePath: "/media/" + id + ".jpg",
		Width:       400,
		Height:      300,
		SizeMB:      1.5,
		CreatedAt:   base.Add(time.Duration(n) * time.Minute),
	}
}

// Run exercises the full Store contract.
func Run(t *testing.T, newStore Factory) {
	t.Run("assets", func(t *testing.T) { testAssets(t, newStore(t)) })
	t.Run("tags", func(t *testing.T) { testTags(t, newStore(t)) })
	t.Run("tag vocabulary order", func(t *testing.T) { testTagOrder(t, newStore(t)) })
	t.Run("delete tag everywhere", func(t *testing.T) { testDeleteEverywhere(t, newStore(t)) })
	t.Run("asset delete cascades", func(t *testing.T) { testCascade(t, newStore(t)) })
	t.Run("photo-books", func(t *testing.T) { testPhotoBooks(t, newStore(t)) })
}

func testAssets(t *testing.T, s store.Store) {
	ctx := context.Background()

	a := NewAsset("ast-b", 2)
	a.Selected = true
	require.NoError(t, s.InsertAsset(ctx, a))
	require.NoError(t, s.InsertAsset(ctx, NewAsset("ast-a", 1)))

	err := s.InsertAsset(ctx, NewAsset("ast-a", 1))
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	got, err := s.GetAsset(ctx, "ast-b")
	require.NoError(t, err)
	assert.Equal(t, "ast-b.jpg", got.FileName)
	assert.Equal(t, 400, got.Width)
	assert.InDelta(t, 1.5, got.SizeMB, 1e-9)
	assert.True(t, got.CreatedAt.Equal(a.CreatedAt))
	assert.False(t, got.Selected, "selection is never persisted")

	got.Rating = 4
	got.Placeholder = "LKO2?U%2Tw=w]~RBVZRi};RPxuwH"
	require.NoError(t, s.UpdateAsset(ctx, got))

	again, err := s.GetAsset(ctx, "ast-b")
	require.NoError(t, err)
	assert.Equal(t, 4, again.Rating)
	assert.Equal(t, got.Placeholder, again.Placeholder)

	err = s.UpdateAsset(ctx, NewAsset("ast-missing", 0))
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetAsset(ctx, "ast-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	list, err := s.ListAssets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "ast-a", list[0].ID)
	assert.Equal(t, "ast-b", list[1].ID)

	require.NoError(t, s.DeleteAsset(ctx, "ast-a"))
	assert.ErrorIs(t, s.DeleteAsset(ctx, "ast-a"), store.ErrNotFound)
}

func testTags(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.InsertAsset(ctx, NewAsset("ast-1", 0)))

	first := &domain.Tag{AssetID: "ast-1", Text: "Nature"}
	require.NoError(t, s.InsertTag(ctx, first))
	assert.Positive(t, first.Seq)

	err := s.InsertTag(ctx, &domain.Tag{AssetID: "ast-1", Text: "NATURE"})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	err = s.InsertTag(ctx, &domain.Tag{AssetID: "ast-unknown", Text: "x"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.InsertTag(ctx, &domain.Tag{AssetID: "ast-1", Text: "beach"}))

	tags, err := s.QueryTagsForAsset(ctx, "ast-1")
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "Nature", tags[0].Text)
	assert.Equal(t, "beach", tags[1].Text)
	assert.Less(t, tags[0].Seq, tags[1].Seq)

	a, err := s.GetAsset(ctx, "ast-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Nature", "beach"}, a.Tags)

	require.NoError(t, s.DeleteTag(ctx, "ast-1", "nature"))
	assert.ErrorIs(t, s.DeleteTag(ctx, "ast-1", "nature"), store.ErrNotFound)

	tags, err = s.QueryTagsForAsset(ctx, "ast-1")
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "beach", tags[0].Text)
}

func testTagOrder(t *testing.T, s store.Store) {
	ctx := context.Background()
	for i := range 3 {
		require.NoError(t, s.InsertAsset(ctx, NewAsset(fmt.Sprintf("ast-%d", i), i)))
	}

	inserts := []struct{ asset, text string }{
		{"ast-2", "Sunset"}, {"ast-0", "sunset"}, {"ast-1", "apple"}, {"ast-0", "Zebra"},
	}
	for _, in := range inserts {
		require.NoError(t, s.InsertTag(ctx, &domain.Tag{AssetID: in.asset, Text: in.text}))
	}

	all, err := s.QueryAllTags(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i, in := range inserts {
		assert.Equal(t, in.text, all[i].Text)
		assert.Equal(t, in.asset, all[i].AssetID)
	}

	assert.Equal(t, []string{"apple", "Sunset", "Zebra"}, domain.Vocabulary(all))
}

func testDeleteEverywhere(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, id := range []string{"ast-1", "ast-2", "ast-3"} {
		require.NoError(t, s.InsertAsset(ctx, NewAsset(id, 0)))
	}
	require.NoError(t, s.InsertTag(ctx, &domain.Tag{AssetID: "ast-1", Text: "Travel"}))
	require.NoError(t, s.InsertTag(ctx, &domain.Tag{AssetID: "ast-3", Text: "travel"}))
	require.NoError(t, s.InsertTag(ctx, &domain.Tag{AssetID: "ast-3", Text: "food"}))

	affected, err := s.DeleteTagEverywhere(ctx, "TRAVEL")
	require.NoError(t, err)
	assert.Equal(t, []string{"ast-1", "ast-3"}, affected)

	all, err := s.QueryAllTags(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "food", all[0].Text)

	affected, err = s.DeleteTagEverywhere(ctx, "travel")
	require.NoError(t, err)
	assert.Empty(t, affected)
}

func testCascade(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.InsertAsset(ctx, NewAsset("ast-1", 0)))
	require.NoError(t, s.InsertAsset(ctx, NewAsset("ast-2", 1)))
	require.NoError(t, s.InsertTag(ctx, &domain.Tag{AssetID: "ast-1", Text: "gone"}))
	require.NoError(t, s.CreatePhotoBook(ctx, &domain.PhotoBook{
		ID: "pb-1", Name: "Trip", PageSize: 4, AssetIDs: []string{"ast-1", "ast-2"}, CreatedAt: base,
	}))

	require.NoError(t, s.DeleteAsset(ctx, "ast-1"))

	all, err := s.QueryAllTags(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	book, err := s.GetPhotoBook(ctx, "pb-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ast-2"}, book.AssetIDs)

	// The tag key is free again for a new asset with the same id.
	require.NoError(t, s.InsertAsset(ctx, NewAsset("ast-1", 2)))
	require.NoError(t, s.InsertTag(ctx, &domain.Tag{AssetID: "ast-1", Text: "gone"}))
}

func testPhotoBooks(t *testing.T, s store.Store) {
	ctx := context.Background()
	for i := range 5 {
		require.NoError(t, s.InsertAsset(ctx, NewAsset(fmt.Sprintf("ast-%d", i), i)))
	}

	book := &domain.PhotoBook{
		ID: "pb-2", Name: "Later", PageSize: 4,
		AssetIDs:  []string{"ast-4", "ast-0", "ast-3", "ast-1", "ast-2"},
		CreatedAt: base.Add(time.Hour),
	}
	require.NoError(t, s.CreatePhotoBook(ctx, book))
	require.NoError(t, s.CreatePhotoBook(ctx, &domain.PhotoBook{ID: "pb-1", Name: "Earlier", CreatedAt: base}))
	assert.ErrorIs(t, s.CreatePhotoBook(ctx, book), store.ErrAlreadyExists)

	err := s.CreatePhotoBook(ctx, &domain.PhotoBook{ID: "pb-3", AssetIDs: []string{"ast-nope"}, CreatedAt: base})
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.GetPhotoBook(ctx, "pb-2")
	require.NoError(t, err)
	assert.Equal(t, "Later", got.Name)
	assert.Equal(t, 4, got.PageSize)
	assert.Equal(t, book.AssetIDs, got.AssetIDs)
	assert.Len(t, got.Pages(), 2)

	list, err := s.ListPhotoBooks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "pb-1", list[0].ID)
	assert.Empty(t, list[0].AssetIDs)

	require.NoError(t, s.DeletePhotoBook(ctx, "pb-1"))
	assert.ErrorIs(t, s.DeletePhotoBook(ctx, "pb-1"), store.ErrNotFound)
	_, err = s.GetPhotoBook(ctx, "pb-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
