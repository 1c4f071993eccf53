package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForTag(t *testing.T) {
	c := ForTag("Beach")
	assert.Regexp(t, `^#[0-9A-F]{6}$`, c)
	assert.Equal(t, c, ForTag("Beach"), "colors are stable")
	assert.Equal(t, c, ForTag("  BEACH "), "case variants share a color")
}

func TestPalette(t *testing.T) {
	p := Palette([]string{"Beach", "Sunset"})
	assert.Len(t, p, 2)
	assert.Equal(t, ForTag("Sunset"), p["Sunset"])
	assert.Empty(t, Palette(nil))
}

func TestHSLToRGB(t *testing.T) {
	r, g, b := hslToRGB(0, 0, 0.5)
	assert.Equal(t, [3]uint8{127, 127, 127}, [3]uint8{r, g, b})

	r, g, b = hslToRGB(120, 1, 0.5)
	assert.Equal(t, uint8(255), g)
	assert.Less(t, r, uint8(2))
	assert.Less(t, b, uint8(2))
}
