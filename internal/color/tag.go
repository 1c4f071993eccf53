// Package color derives stable display colors for tag chips.
package color

import (
	"fmt"
	"hash/fnv"

	"github.com/shutterboxapp/shutterbox/internal/domain"
)

// ForTag returns a hex color for a tag. Tags that differ only in case share
// a color.
func ForTag(text string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(domain.FoldKey(text)))
	hue := float64(h.Sum32() % 360)

	// Muted enough for white label text.
	r, g, b := hslToRGB(hue, 0.45, 0.45)

	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

// Palette maps each tag to its color.
func Palette(tags []string) map[string]string {
	out := make(map[string]string, len(tags))
	for _, t := range tags {
		out[t] = ForTag(t)
	}
	return out
}

// hslToRGB converts hue (degrees), saturation and lightness (0-1) to RGB.
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	h /= 360.0

	var r1, g1, b1 float64

	if s == 0 {
		r1, g1, b1 = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q

		r1 = hueToRGB(p, q, h+1.0/3.0)
		g1 = hueToRGB(p, q, h)
		b1 = hueToRGB(p, q, h-1.0/3.0)
	}

	r = uint8(r1 * 255)
	g = uint8(g1 * 255)
	b = uint8(b1 * 255)
	return
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
