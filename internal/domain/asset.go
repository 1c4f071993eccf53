package domain

import (
	"slices"
	"time"
)

// BytesPerMB converts a byte count into the megabytes reported on an Asset.
const BytesPerMB = 1024 * 1024

// MaxRating is the highest star rating; 0 means unrated.
const MaxRating = 5

// Asset is a managed photo in the library.
type Asset struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	StoragePath string    `json:"storage_path"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	SizeMB      float64   `json:"size_mb"`
	CreatedAt   time.Time `json:"created_at"`
	Rating      int       `json:"rating"`
	Placeholder string    `json:"placeholder,omitempty"`

	// Selected is UI state and is never persisted.
	Selected bool `json:"selected"`

	// Tags keeps insertion order; membership is case-insensitive.
	Tags []string `json:"tags"`
}

// SizeInMB converts a byte count to megabytes.
func SizeInMB(bytes int64) float64 {
	return float64(bytes) / BytesPerMB
}

// Clone returns a deep copy so snapshots never share tag slices.
func (a Asset) Clone() Asset {
	a.Tags = slices.Clone(a.Tags)
	return a
}

// FindTag returns the index of the tag matching text case-insensitively, or -1.
func (a *Asset) FindTag(text string) int {
	key := FoldKey(text)
	return slices.IndexFunc(a.Tags, func(t string) bool {
		return FoldKey(t) == key
	})
}

// HasTag reports whether the asset carries text, ignoring case.
func (a *Asset) HasTag(text string) bool {
	return a.FindTag(text) >= 0
}

// IsRated reports whether the asset has a non-zero rating.
func (a *Asset) IsRated() bool {
	return a.Rating > 0
}

// Valid reports whether the committed-asset invariants hold.
func (a *Asset) Valid() bool {
	return a.ID != "" && a.Width > 0 && a.Height > 0 && a.SizeMB > 0 &&
		a.Rating >= 0 && a.Rating <= MaxRating
}
