package validation_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/shutterboxapp/shutterbox/internal/errors"
	"github.com/shutterboxapp/shutterbox/internal/validation"
)

type createBookRequest struct {
	Name     string   `json:"name" validate:"required,max=200"`
	AssetIDs []string `json:"asset_ids" validate:"required,min=1,dive,required"`
	PageSize int      `json:"page_size" validate:"gte=0,lte=64"`
}

func TestValidator_Struct(t *testing.T) {
	v := validation.New()

	require.NoError(t, v.Validate(createBookRequest{Name: "Summer", AssetIDs: []string{"ast-1"}, PageSize: 4}))

	err := v.Validate(createBookRequest{AssetIDs: []string{"ast-1"}})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())

	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["name"])
}

func TestValidator_TagText(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name  string
		text  string
		valid bool
	}{
		{"plain word", "nature", true},
		{"words and digits", "Trip 2024", true},
		{"unicode letters", "Café Zürich", true},
		{"empty", "", false},
		{"blank", "   ", false},
		{"punctuation", "hello!", false},
		{"symbol", "a#b", false},
		{"hyphen", "black-white", false},
		{"exactly 100 runes", strings.Repeat("é", 100), true},
		{"101 runes", strings.Repeat("a", 101), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.TagText(tt.text)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
		})
	}
}

func TestValidator_Rating(t *testing.T) {
	v := validation.New()

	for r := 0; r <= 5; r++ {
		assert.NoError(t, v.Rating(r))
	}
	assert.Error(t, v.Rating(-1))
	assert.Error(t, v.Rating(6))
}

func TestIsTagText(t *testing.T) {
	assert.True(t, validation.IsTagText("Beach\tday"))
	assert.False(t, validation.IsTagText("\n"))
}
