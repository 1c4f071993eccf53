// Package layout packs photos into balanced masonry columns.
//
// Layout is a pure function: identical items, width and column count always
// produce the identical plan. Each item goes to the column with the smallest
// accumulated height at the moment it is placed, the leftmost column winning
// ties. Scheduler coalesces recomputation requests so at most one layout is
// computed at a time.
package layout

// Item is the intrinsic size of one photo. A non-positive width or height
// means the aspect ratio is unknown and the item is laid out square.
type Item struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Placement positions one input item.
type Placement struct {
	Index  int     `json:"index"`
	Column int     `json:"column"`
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Plan is the result of Layout.
type Plan struct {
	ColumnWidth float64 `json:"column_width"`
	// Placements are in input order.
	Placements []Placement `json:"placements"`
	// Columns lists the item indices of each column, top to bottom.
	Columns [][]int `json:"columns"`
	// ColumnHeights are the final accumulated heights, each including the
	// spacing after its last item.
	ColumnHeights []float64 `json:"column_heights"`
}

// Height is the tallest column without its trailing spacing.
func (p Plan) Height(spacing float64) float64 {
	var h float64
	for i, ch := range p.ColumnHeights {
		if len(p.Columns[i]) > 0 {
			h = max(h, ch-spacing)
		}
	}
	return h
}

// Layout assigns each item to a column. containerWidth <= 0 uses
// opts.FallbackWidth. columns <= 0 yields an empty plan.
func Layout(items []Item, containerWidth float64, columns int, opts Options) Plan {
	if columns <= 0 {
		return Plan{Placements: []Placement{}, Columns: [][]int{}, ColumnHeights: []float64{}}
	}

	width := containerWidth
	if width <= 0 {
		width = opts.FallbackWidth
	}
	colWidth := max(0, (width-opts.Spacing*float64(columns-1))/float64(columns))

	plan := Plan{
		ColumnWidth:   colWidth,
		Placements:    make([]Placement, 0, len(items)),
		Columns:       make([][]int, columns),
		ColumnHeights: make([]float64, columns),
	}
	for c := range plan.Columns {
		plan.Columns[c] = []int{}
	}

	for i, item := range items {
		c := shortest(plan.ColumnHeights)
		h := renderedHeight(item, colWidth)

		plan.Placements = append(plan.Placements, Placement{
			Index:  i,
			Column: c,
			Top:    plan.ColumnHeights[c],
			Height: h,
		})
		plan.Columns[c] = append(plan.Columns[c], i)
		plan.ColumnHeights[c] += h + opts.Spacing
	}
	return plan
}

// shortest returns the first column with the minimum height.
func shortest(heights []float64) int {
	best := 0
	for c := 1; c < len(heights); c++ {
		if heights[c] < heights[best] {
			best = c
		}
	}
	return best
}

func renderedHeight(item Item, colWidth float64) float64 {
	if item.Width <= 0 || item.Height <= 0 {
		return colWidth
	}
	return colWidth * (item.Height / item.Width)
}
