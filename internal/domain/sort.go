package domain

import "fmt"

// SortMode selects the ordering of a library view.
type SortMode string

const (
	SortDateDescending SortMode = "date_desc"
	SortDateAscending  SortMode = "date_asc"
	SortRatingHighest  SortMode = "rating_highest"
	SortRatingLowest   SortMode = "rating_lowest"
	// SortRatingNone falls back to the active date direction.
	SortRatingNone SortMode = "rating_none"
)

// DefaultSortMode is used when no mode is requested.
const DefaultSortMode = SortDateDescending

// SortModes lists every accepted mode.
var SortModes = []SortMode{
	SortDateDescending, SortDateAscending, SortRatingHighest, SortRatingLowest, SortRatingNone,
}

// ParseSortMode accepts the mode names above; empty selects the default.
func ParseSortMode(s string) (SortMode, error) {
	if s == "" {
		return DefaultSortMode, nil
	}
	for _, m := range SortModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown sort mode %q", s)
}

func (m SortMode) String() string { return string(m) }
