package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shutterboxapp/shutterbox/internal/clock"
	"github.com/shutterboxapp/shutterbox/internal/domain"
	"github.com/shutterboxapp/shutterbox/internal/ingest"
	"github.com/shutterboxapp/shutterbox/internal/layout"
	"github.com/shutterboxapp/shutterbox/internal/library"
	"github.com/shutterboxapp/shutterbox/internal/logger"
	"github.com/shutterboxapp/shutterbox/internal/media/images"
	"github.com/shutterboxapp/shutterbox/internal/sse"
	"github.com/shutterboxapp/shutterbox/internal/store"
	"github.com/shutterboxapp/shutterbox/internal/validation"
)

// recordingEmitter keeps every emitted event.
type recordingEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordingEmitter) Emit(e sse.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingEmitter) types() []sse.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sse.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *recordingEmitter) last(t sse.EventType) (sse.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == t {
			return r.events[i], true
		}
	}
	return sse.Event{}, false
}

type harness struct {
	store    store.Store
	library  *library.Library
	storage  *images.Storage
	pipeline *ingest.Pipeline
	events   *recordingEmitter
	clock    *clock.Fake
	assets   *AssetService
	tags     *TagService
	views    *ViewService
	layouts  *LayoutService
	books    *PhotoBookService
}

const (
	testDebounce = 150 * time.Millisecond
	testSettle   = 50 * time.Millisecond
)

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.Discard()

	st, err := store.NewInMemoryBadger(log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	fake := clock.NewFake(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	v := validation.New()
	lib := library.New(st, v, fake, nil, log)
	t.Cleanup(func() { _ = lib.Shutdown() })

	storage, err := images.NewStorage(t.TempDir())
	require.NoError(t, err)

	pipeline := ingest.New(storage, images.StdDecoder{}, lib, log, ingest.Options{
		RetryAttempts: 1,
		Clock:         fake,
	})

	events := &recordingEmitter{}
	t.Cleanup(ForwardChanges(lib, events))

	layouts := NewLayoutService(lib, LayoutServiceOptions{
		Layout:   layout.DefaultOptions(),
		Debounce: testDebounce,
		Settle:   testSettle,
		Clock:    fake,
	}, events, nil, log)
	t.Cleanup(func() { _ = layouts.Shutdown() })

	return &harness{
		store:    st,
		library:  lib,
		storage:  storage,
		pipeline: pipeline,
		events:   events,
		clock:    fake,
		assets:   NewAssetService(lib, pipeline, storage, events, log),
		tags:     NewTagService(lib, log),
		views:    NewViewService(lib),
		layouts:  layouts,
		books:    NewPhotoBookService(st, lib, layouts, v, fake, log),
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 5), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// importPNG imports one generated image and returns the committed asset.
func (h *harness) importPNG(t *testing.T, name string, w, ht int) domain.Asset {
	t.Helper()
	report, err := h.assets.Import(context.Background(), []ingest.Source{
		ingest.BytesSource(name, pngBytes(t, w, ht)),
	})
	require.NoError(t, err)
	require.Len(t, report.Imported, 1, "failures: %+v", report.Failures)
	return report.Imported[0]
}
