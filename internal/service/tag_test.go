package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/shutterboxapp/shutterbox/internal/errors"
	"github.com/shutterboxapp/shutterbox/internal/library"
	"github.com/shutterboxapp/shutterbox/internal/sse"
)

func TestTagService_Lifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.importPNG(t, "a.png", 10, 10)
	b := h.importPNG(t, "b.png", 10, 10)

	res, err := h.tags.AddTag(ctx, a.ID, "Nature")
	require.NoError(t, err)
	assert.Equal(t, library.TagAdded, res)

	res, err = h.tags.AddTag(ctx, a.ID, "nature")
	require.NoError(t, err)
	assert.Equal(t, library.TagAlreadyExists, res)

	added, err := h.tags.AddTagToAssets(ctx, []string{a.ID, b.ID}, "NATURE")
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	vocab, err := h.tags.ListUniqueTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Nature"}, vocab)

	removed, err := h.tags.RemoveTag(ctx, b.ID, "nature")
	require.NoError(t, err)
	assert.True(t, removed)

	n, err := h.tags.DeleteTagEverywhere(ctx, "NaTuRe")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := h.assets.Get(a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)

	_, ok := h.events.last(sse.EventTagDeleted)
	assert.True(t, ok)
}

func TestTagService_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.importPNG(t, "a.png", 10, 10)

	_, err := h.tags.AddTag(ctx, a.ID, "no/slashes")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	_, err = h.tags.AddTag(ctx, "ast-missing", "ok")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))

	_, err = h.tags.AddTagToAssets(ctx, []string{a.ID, "ast-missing"}, "ok")
	assert.Error(t, err)

	n, err := h.tags.DeleteTagEverywhere(ctx, "unused")
	require.NoError(t, err)
	assert.Zero(t, n)
}
