package api

import (
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shutterboxapp/shutterbox/internal/http/response"
)

// EnvelopeTransformer wraps every huma response body in response.Envelope
// so huma routes and plain chi handlers share one wire format.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if apiErr, ok := v.(*APIError); ok {
		return response.ErrorEnvelope(apiErr.Code, apiErr.Message, apiErr.Details), nil
	}
	if strings.HasPrefix(status, "2") {
		return response.SuccessEnvelope(v), nil
	}
	code, _ := strconv.Atoi(status)
	return response.ErrorEnvelope(statusToCode(code), "request failed", v), nil
}
