// Package search provides full-text search over the photo library using
// Bleve: file names, tags, ratings and import dates.
package search

import (
	"github.com/shutterboxapp/shutterbox/internal/domain"
)

// AssetDocument is the indexed form of an asset.
type AssetDocument struct {
	ID       string   `json:"id"`
	FileName string   `json:"file_name"`
	Tags     []string `json:"tags,omitempty"`
	// TagKeys holds case-folded tags for exact, case-insensitive filtering.
	TagKeys   []string `json:"tag_keys,omitempty"`
	Rating    int      `json:"rating"`
	CreatedAt int64    `json:"created_at"` // Unix seconds
}

// NewAssetDocument builds the document for a.
func NewAssetDocument(a domain.Asset) *AssetDocument {
	doc := &AssetDocument{
		ID:        a.ID,
		FileName:  a.FileName,
		Tags:      append([]string(nil), a.Tags...),
		Rating:    a.Rating,
		CreatedAt: a.CreatedAt.Unix(),
	}
	for _, t := range a.Tags {
		doc.TagKeys = append(doc.TagKeys, domain.FoldKey(t))
	}
	return doc
}

// ToMap converts the document to the field names used by the mapping.
func (d *AssetDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"file_name":  d.FileName,
		"rating":     float64(d.Rating),
		"created_at": float64(d.CreatedAt),
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
		m["tag_keys"] = d.TagKeys
	}
	return m
}
