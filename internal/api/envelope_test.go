package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/shutterboxapp/shutterbox/internal/errors"
	"github.com/shutterboxapp/shutterbox/internal/http/response"
)

func TestEnvelopeTransformer_AlwaysIncludesVersion(t *testing.T) {
	tests := []struct {
		name        string
		status      string
		input       any
		wantSuccess bool
		wantCode    string
	}{
		{"success response", "200", map[string]string{"key": "value"}, true, ""},
		{"created response", "201", map[string]string{"id": "ast-1"}, true, ""},
		{"no content response", "204", nil, true, ""},
		{"bad request error", "400", errors.New("invalid input"), false, "VALIDATION"},
		{"not found error", "404", errors.New("missing"), false, "NOT_FOUND"},
		{"internal server error", "500", errors.New("boom"), false, "INTERNAL"},
		{
			name:   "api error with details",
			status: "409",
			input: &APIError{
				Code:    "CONFLICT",
				Message: "photo-book changed",
				Details: map[string]string{"id": "pb-1"},
			},
			wantCode: "CONFLICT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := EnvelopeTransformer(nil, tt.status, tt.input)
			require.NoError(t, err)

			env, ok := out.(response.Envelope)
			require.True(t, ok)
			assert.Equal(t, response.EnvelopeVersion, env.Version)
			assert.Equal(t, tt.wantSuccess, env.Success)
			assert.Equal(t, tt.wantCode, env.Code)
		})
	}
}

func TestEnvelopeTransformer_APIErrorShape(t *testing.T) {
	out, err := EnvelopeTransformer(nil, "409", &APIError{
		Code:    "CONFLICT",
		Message: "photo-book changed",
		Details: map[string]string{"id": "pb-1"},
	})
	require.NoError(t, err)

	b, err := json.Marshal(out)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, map[string]any{
		"v":       float64(1),
		"success": false,
		"error":   "photo-book changed",
		"code":    "CONFLICT",
		"details": map[string]any{"id": "pb-1"},
	}, got)
}

func TestToAPIError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"not found", domainerrors.NotFound("asset not found"), http.StatusNotFound, "NOT_FOUND", "asset not found"},
		{"validation", domainerrors.Validation("bad tag"), http.StatusBadRequest, "VALIDATION", "bad tag"},
		{"already exists", domainerrors.AlreadyExists("tag exists"), http.StatusConflict, "ALREADY_EXISTS", "tag exists"},
		{"internal hides message", domainerrors.Internal("disk path /secret"), http.StatusInternalServerError, "INTERNAL", "internal server error"},
		{"plain error hides message", errors.New("sqlite: locked"), http.StatusInternalServerError, "INTERNAL", "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var apiErr *APIError
			require.ErrorAs(t, toAPIError(tt.err), &apiErr)
			assert.Equal(t, tt.wantStatus, apiErr.GetStatus())
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}

func TestStatusToCode(t *testing.T) {
	assert.Equal(t, "VALIDATION", statusToCode(http.StatusUnprocessableEntity))
	assert.Equal(t, "RATE_LIMITED", statusToCode(http.StatusTooManyRequests))
	assert.Equal(t, "UNAVAILABLE", statusToCode(http.StatusServiceUnavailable))
	assert.Equal(t, "INTERNAL", statusToCode(http.StatusTeapot))
}
