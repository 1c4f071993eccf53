package dto

import (
	"time"

	"github.com/shutterboxapp/shutterbox/internal/domain"
)

// AssetResponse contains asset data in API responses. The managed storage
// path is never exposed; clients fetch the file through FileURL.
type AssetResponse struct {
	ID          string    `json:"id" doc:"Asset ID"`
	FileName    string    `json:"file_name" doc:"Original file name"`
	FileURL     string    `json:"file_url" doc:"URL of the image file"`
	Width       int       `json:"width" doc:"Pixel width"`
	Height      int       `json:"height" doc:"Pixel height"`
	SizeMB      float64   `json:"size_mb" doc:"File size in megabytes"`
	CreatedAt   time.Time `json:"created_at" doc:"Import time"`
	Rating      int       `json:"rating" doc:"Star rating, 0 when unrated"`
	Placeholder string    `json:"placeholder,omitempty" doc:"BlurHash placeholder"`
	Selected    bool      `json:"selected" doc:"Whether the asset is selected"`
	Tags        []string  `json:"tags" doc:"Tags in insertion order"`
}

// FileURL is the download path of an asset's image.
func FileURL(assetID string) string {
	return "/api/v1/assets/" + assetID + "/file"
}

// FromAsset converts a domain asset.
func FromAsset(a domain.Asset) AssetResponse {
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	return AssetResponse{
		ID:          a.ID,
		FileName:    a.FileName,
		FileURL:     FileURL(a.ID),
		Width:       a.Width,
		Height:      a.Height,
		SizeMB:      a.SizeMB,
		CreatedAt:   a.CreatedAt,
		Rating:      a.Rating,
		Placeholder: a.Placeholder,
		Selected:    a.Selected,
		Tags:        tags,
	}
}

// FromAssets converts a slice of domain assets.
func FromAssets(assets []domain.Asset) []AssetResponse {
	out := make([]AssetResponse, len(assets))
	for i, a := range assets {
		out[i] = FromAsset(a)
	}
	return out
}
