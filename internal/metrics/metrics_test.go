package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	// Fresh registry per test to avoid duplicate registration.
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err)
}

func TestObserveImport(t *testing.T) {
	m := newTestMetrics(t)

	m.ObserveImport(OutcomeImported, 10*time.Millisecond)
	m.ObserveImport(OutcomeImported, 20*time.Millisecond)
	m.ObserveImport("empty_file", time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.imports.WithLabelValues(OutcomeImported)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.imports.WithLabelValues("empty_file")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.importDuration))
}

func TestLayoutAndAssets(t *testing.T) {
	m := newTestMetrics(t)

	m.LayoutComputed("resize")
	m.SetAssets(42)

	assert.InDelta(t, 1, testutil.ToFloat64(m.layouts.WithLabelValues("resize")), 0)
	assert.InDelta(t, 42, testutil.ToFloat64(m.assets), 0)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveImport(OutcomeImported, time.Second)
		m.LayoutComputed("data")
		m.SetAssets(1)
	})
}

func TestMiddleware(t *testing.T) {
	m := newTestMetrics(t)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/v1/assets/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/assets/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.InDelta(t, 2, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/v1/assets/{id}", "404")), 0)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "http_requests_total")
}
