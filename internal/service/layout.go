package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/shutterboxapp/shutterbox/internal/clock"
	"github.com/shutterboxapp/shutterbox/internal/domain"
	domainerrors "github.com/shutterboxapp/shutterbox/internal/errors"
	"github.com/shutterboxapp/shutterbox/internal/layout"
	"github.com/shutterboxapp/shutterbox/internal/library"
	"github.com/shutterboxapp/shutterbox/internal/metrics"
	"github.com/shutterboxapp/shutterbox/internal/sse"
	"github.com/shutterboxapp/shutterbox/internal/view"
)

// Layout sources for metrics.
const (
	layoutSourceRequest  = "request"
	layoutSourceViewport = "viewport"
	layoutSourcePage     = "page"
)

// AssetLayout is a masonry plan over assets. Placement i belongs to
// AssetIDs[i].
type AssetLayout struct {
	Width    float64     `json:"width"`
	Columns  int         `json:"columns"`
	AssetIDs []string    `json:"asset_ids"`
	Plan     layout.Plan `json:"plan"`
	Height   float64     `json:"height"`
}

// LiveLayout is the most recent viewport layout.
type LiveLayout struct {
	AssetLayout
	Query   view.Query `json:"-"`
	Version uint64     `json:"version"`
}

// LayoutService computes masonry layouts. Besides one-off computations it
// keeps a live layout for the viewport, recomputed through a Scheduler when
// the viewport is resized, the view query changes or the library changes.
type LayoutService struct {
	library   *library.Library
	opts      layout.Options
	viewport  *layout.Viewport
	scheduler *layout.Scheduler
	events    Emitter
	metrics   *metrics.Metrics
	logger    *slog.Logger

	mu          sync.Mutex
	query       view.Query
	current     *LiveLayout
	unsubscribe func()
}

// LayoutServiceOptions configures a LayoutService.
type LayoutServiceOptions struct {
	Layout   layout.Options
	Debounce time.Duration
	Settle   time.Duration
	Clock    clock.Clock
}

// NewLayoutService creates the service and starts following library
// changes. Call Shutdown to stop.
func NewLayoutService(lib *library.Library, opts LayoutServiceOptions, events Emitter, m *metrics.Metrics, logger *slog.Logger) *LayoutService {
	if events == nil {
		events = NoopEmitter()
	}
	s := &LayoutService{
		library:  lib,
		opts:     opts.Layout,
		viewport: layout.NewViewport(opts.Layout),
		events:   events,
		metrics:  m,
		logger:   logger,
		query:    view.Query{Sort: domain.DefaultSortMode},
	}
	s.scheduler = layout.NewScheduler(opts.Clock, opts.Debounce, opts.Settle, s.recompute)
	s.unsubscribe = lib.Subscribe(func(domain.Change) { s.scheduler.Trigger() })
	return s
}

// Options returns the layout constants.
func (s *LayoutService) Options() layout.Options { return s.opts }

// ComputeLayout lays items out for width, deriving the column count from
// the width.
func (s *LayoutService) ComputeLayout(items []layout.Item, width float64) (layout.Plan, int) {
	width = s.opts.EffectiveWidth(width)
	columns := s.opts.Columns(width)
	plan := layout.Layout(items, width, columns, s.opts)
	s.metrics.LayoutComputed(layoutSourceRequest)
	return plan, columns
}

// ComputeAssetLayout lays out library assets in the given order.
func (s *LayoutService) ComputeAssetLayout(assetIDs []string, width float64) (*AssetLayout, error) {
	snap := s.library.Snapshot()
	assets := make([]domain.Asset, 0, len(assetIDs))
	for _, assetID := range assetIDs {
		a, ok := snap.Get(assetID)
		if !ok {
			return nil, domainerrors.NotFoundf("asset %s not found", assetID)
		}
		assets = append(assets, a)
	}
	out := s.layoutAssets(assets, width)
	s.metrics.LayoutComputed(layoutSourceRequest)
	return out, nil
}

func (s *LayoutService) layoutAssets(assets []domain.Asset, width float64) *AssetLayout {
	width = s.opts.EffectiveWidth(width)
	columns := s.opts.Columns(width)

	items := make([]layout.Item, len(assets))
	ids := make([]string, len(assets))
	for i, a := range assets {
		items[i] = layout.Item{Width: float64(a.Width), Height: float64(a.Height)}
		ids[i] = a.ID
	}

	plan := layout.Layout(items, width, columns, s.opts)
	return &AssetLayout{
		Width:    width,
		Columns:  columns,
		AssetIDs: ids,
		Plan:     plan,
		Height:   plan.Height(s.opts.Spacing),
	}
}

// Resize records the viewport width and schedules a recomputation when the
// change is material. It reports whether one was scheduled.
func (s *LayoutService) Resize(width float64) bool {
	if !s.viewport.Resize(width) {
		return false
	}
	w, cols := s.viewport.State()
	s.logger.Debug("viewport resized", "width", w, "columns", cols)
	s.scheduler.Trigger()
	return true
}

// SetQuery changes the view shown in the viewport.
func (s *LayoutService) SetQuery(q view.Query) {
	s.mu.Lock()
	s.query = q
	s.mu.Unlock()
	s.scheduler.Trigger()
}

// Refresh schedules a recomputation.
func (s *LayoutService) Refresh() { s.scheduler.Trigger() }

// Current returns the latest viewport layout, or nil before the first run.
func (s *LayoutService) Current() *LiveLayout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Pending reports whether a recomputation is running or settling.
func (s *LayoutService) Pending() bool { return s.scheduler.Busy() }

func (s *LayoutService) recompute() {
	s.mu.Lock()
	q := s.query
	s.mu.Unlock()

	snap := s.library.Snapshot()
	width, _ := s.viewport.State()
	out := s.layoutAssets(view.Compute(snap.Assets(), q), width)

	live := &LiveLayout{AssetLayout: *out, Query: q, Version: snap.Version()}
	s.mu.Lock()
	s.current = live
	s.mu.Unlock()

	s.metrics.LayoutComputed(layoutSourceViewport)
	s.events.Emit(sse.NewLayoutRecomputedEvent(sse.LayoutEventData{
		Width:       out.Width,
		Columns:     out.Columns,
		Items:       len(out.AssetIDs),
		TotalHeight: out.Height,
	}))
	s.logger.Debug("viewport layout recomputed",
		"width", out.Width,
		"columns", out.Columns,
		"items", len(out.AssetIDs),
		"version", snap.Version(),
	)
}

// Shutdown stops following the library and cancels pending runs.
func (s *LayoutService) Shutdown() error {
	s.unsubscribe()
	s.scheduler.Stop()
	return nil
}
