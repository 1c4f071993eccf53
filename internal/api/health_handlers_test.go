package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck_Success(t *testing.T) {
	ts := setupTestServer(t)
	ts.importPNG(t, "a.png", 10, 10)

	rec := ts.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	health := decode[HealthResponse](t, rec).Data
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "1 asset", health.Components["library"].Message)
	assert.Equal(t, "healthy", health.Components["search"].Status)
	assert.Equal(t, "0 connected clients", health.Components["sse"].Message)
}

func TestHealthCheck_DegradedWithoutSearch(t *testing.T) {
	ts := setupTestServerWith(t, testOptions{noSearch: true})

	rec := ts.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	health := decode[HealthResponse](t, rec).Data
	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "degraded", health.Components["search"].Status)
}

func TestHealthCheck_ReportsViewport(t *testing.T) {
	ts := setupTestServer(t)
	ts.importPNG(t, "a.png", 10, 10)

	rec := ts.do(t, http.MethodPut, "/api/v1/layout/viewport", map[string]any{"width": 408})
	require.Equal(t, http.StatusAccepted, rec.Code)
	ts.clock.Advance(testDebounce + testSettle)

	rec = ts.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	layout := decode[HealthResponse](t, rec).Data.Components["layout"]
	assert.Equal(t, "healthy", layout.Status)
	assert.Equal(t, "2 columns at width 408", layout.Message)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	ts.do(t, http.MethodGet, "/health", nil)

	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `path="/health"`)
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "1 asset", plural(1, "asset"))
	assert.Equal(t, "0 assets", plural(0, "asset"))
	assert.Equal(t, "3 documents", plural(3, "document"))
}
