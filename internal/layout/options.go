package layout

import "math"

// Options are the layout constants.
type Options struct {
	Spacing        float64
	FallbackWidth  float64
	MinColumnWidth float64
	MinColumns     int
	MaxColumns     int
}

// DefaultOptions returns the stock gallery settings.
func DefaultOptions() Options {
	return Options{
		Spacing:        8,
		FallbackWidth:  800,
		MinColumnWidth: 180,
		MinColumns:     1,
		MaxColumns:     8,
	}
}

// Columns derives the column count for an available width.
func (o Options) Columns(available float64) int {
	return ColumnCount(available, o.Spacing, o.MinColumnWidth, o.MinColumns, o.MaxColumns)
}

// EffectiveWidth substitutes the fallback width for an unknown width.
func (o Options) EffectiveWidth(width float64) float64 {
	if width <= 0 {
		return o.FallbackWidth
	}
	return width
}

// ColumnCount returns floor((available+spacing)/(minColumnWidth+spacing))
// clamped to [minColumns, maxColumns]. minColumns is never below 1.
func ColumnCount(available, spacing, minColumnWidth float64, minColumns, maxColumns int) int {
	minColumns = max(1, minColumns)
	maxColumns = max(minColumns, maxColumns)

	step := minColumnWidth + spacing
	if step <= 0 || available <= 0 {
		return minColumns
	}
	n := int(math.Floor((available + spacing) / step))
	return min(max(n, minColumns), maxColumns)
}
