package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/shutterboxapp/shutterbox/internal/clock"
	"github.com/shutterboxapp/shutterbox/internal/domain"
	"github.com/shutterboxapp/shutterbox/internal/ingest"
	"github.com/shutterboxapp/shutterbox/internal/layout"
	"github.com/shutterboxapp/shutterbox/internal/library"
	"github.com/shutterboxapp/shutterbox/internal/logger"
	"github.com/shutterboxapp/shutterbox/internal/media/images"
	"github.com/shutterboxapp/shutterbox/internal/metrics"
	"github.com/shutterboxapp/shutterbox/internal/search"
	"github.com/shutterboxapp/shutterbox/internal/service"
	"github.com/shutterboxapp/shutterbox/internal/sse"
	"github.com/shutterboxapp/shutterbox/internal/store"
	"github.com/shutterboxapp/shutterbox/internal/validation"
)

const (
	testDebounce = 100 * time.Millisecond
	testSettle   = 20 * time.Millisecond
)

// testServer wraps the API server with direct access to its services.
type testServer struct {
	*Server
	clock    *clock.Fake
	services *Services
}

type testOptions struct {
	opts     Options
	noSearch bool
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	return setupTestServerWith(t, testOptions{})
}

func setupTestServerWith(t *testing.T, to testOptions) *testServer {
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

	sseManager := sse.NewManager(log)
	t.Cleanup(service.ForwardChanges(lib, sseManager))

	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	layouts := service.NewLayoutService(lib, service.LayoutServiceOptions{
		Layout:   layout.DefaultOptions(),
		Debounce: testDebounce,
		Settle:   testSettle,
		Clock:    fake,
	}, sseManager, m, log)
	t.Cleanup(func() { _ = layouts.Shutdown() })

	services := &Services{
		Assets:  service.NewAssetService(lib, pipeline, storage, sseManager, log),
		Tags:    service.NewTagService(lib, log),
		Views:   service.NewViewService(lib),
		Layouts: layouts,
		Books:   service.NewPhotoBookService(st, lib, layouts, v, fake, log),
	}

	if !to.noSearch {
		idx, err := search.Open(search.Options{DataPath: t.TempDir(), Logger: log})
		require.NoError(t, err)
		t.Cleanup(func() { _ = idx.Close() })

		searchSvc := service.NewSearchService(idx, lib, log)
		require.NoError(t, searchSvc.Sync(context.Background()))
		t.Cleanup(func() { _ = searchSvc.Shutdown() })
		services.Search = searchSvc
	}

	s := NewServer(services, sseManager, m, to.opts, log)
	t.Cleanup(func() { _ = s.Shutdown() })

	return &testServer{Server: s, clock: fake, services: services}
}

// envelope mirrors response.Envelope with a typed payload.
type envelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return env
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

type uploadFile struct {
	name string
	data []byte
}

func (ts *testServer) upload(t *testing.T, files ...uploadFile) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile(uploadFormField, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.RemoteAddr = "192.0.2.10:5000"
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

// importPNG imports one generated image through the service.
func (ts *testServer) importPNG(t *testing.T, name string, w, h int) domain.Asset {
	t.Helper()
	report, err := ts.services.Assets.Import(context.Background(), []ingest.Source{
		ingest.BytesSource(name, pngBytes(t, w, h)),
	})
	require.NoError(t, err)
	require.Len(t, report.Imported, 1, "failures: %+v", report.Failures)
	return report.Imported[0]
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x * 3), G: uint8(y * 3), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
