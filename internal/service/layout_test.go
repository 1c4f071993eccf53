package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shutterboxapp/shutterbox/internal/domain"
	domainerrors "github.com/shutterboxapp/shutterbox/internal/errors"
	"github.com/shutterboxapp/shutterbox/internal/layout"
	"github.com/shutterboxapp/shutterbox/internal/sse"
	"github.com/shutterboxapp/shutterbox/internal/view"
)

func TestLayoutService_ComputeLayout(t *testing.T) {
	h := newHarness(t)

	// 408px fits two 180px columns with 8px spacing.
	plan, columns := h.layouts.ComputeLayout([]layout.Item{
		{Width: 200, Height: 200},
		{Width: 200, Height: 100},
		{Width: 200, Height: 300},
		{Width: 0, Height: 0},
	}, 408)

	assert.Equal(t, 2, columns)
	assert.InDelta(t, 200.0, plan.ColumnWidth, 1e-9)
	assert.Equal(t, [][]int{{0, 3}, {1, 2}}, plan.Columns)
	assert.Equal(t, []float64{416, 416}, plan.ColumnHeights)

	_, columns = h.layouts.ComputeLayout(nil, 0)
	assert.Equal(t, layout.DefaultOptions().Columns(layout.DefaultOptions().FallbackWidth), columns)
}

func TestLayoutService_ComputeAssetLayout(t *testing.T) {
	h := newHarness(t)
	wide := h.importPNG(t, "wide.png", 40, 20)
	tall := h.importPNG(t, "tall.png", 20, 40)

	out, err := h.layouts.ComputeAssetLayout([]string{tall.ID, wide.ID}, 408)
	require.NoError(t, err)
	assert.Equal(t, []string{tall.ID, wide.ID}, out.AssetIDs)
	assert.Equal(t, 2, out.Columns)
	assert.InDelta(t, 400.0, out.Plan.Placements[0].Height, 1e-9)
	assert.InDelta(t, 100.0, out.Plan.Placements[1].Height, 1e-9)
	assert.InDelta(t, 400.0, out.Height, 1e-9)

	_, err = h.layouts.ComputeAssetLayout([]string{"ast-missing"}, 408)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestLayoutService_LiveViewport(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a := h.importPNG(t, "a.png", 10, 10)
	h.clock.Advance(testDebounce + testSettle)

	live := h.layouts.Current()
	require.NotNil(t, live, "library change schedules a layout")
	assert.Equal(t, []string{a.ID}, live.AssetIDs)

	assert.True(t, h.layouts.Resize(408))
	assert.False(t, h.layouts.Resize(408.5), "sub-pixel change is not material")
	h.clock.Advance(testDebounce)

	live = h.layouts.Current()
	assert.Equal(t, 2, live.Columns)
	assert.InDelta(t, 408.0, live.Width, 1e-9)

	ev, ok := h.events.last(sse.EventLayoutRecomputed)
	require.True(t, ok)
	assert.Equal(t, 2, ev.Data.(sse.LayoutEventData).Columns)

	h.clock.Advance(testSettle)
	b := h.importPNG(t, "b.png", 10, 10)
	_, err := h.tags.AddTag(ctx, b.ID, "pick")
	require.NoError(t, err)
	h.layouts.SetQuery(view.Query{Tag: "pick", Sort: domain.SortDateDescending})
	h.clock.Advance(testDebounce)

	assert.Equal(t, []string{b.ID}, h.layouts.Current().AssetIDs)
	assert.True(t, h.layouts.Pending(), "settling after the run")
}
