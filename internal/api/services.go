package api

import (
	"github.com/shutterboxapp/shutterbox/internal/service"
)

// Services groups all business logic services used by the API server.
// Search may be nil when the index is unavailable; its routes then answer
// 503.
type Services struct {
	Assets  *service.AssetService
	Tags    *service.TagService
	Views   *service.ViewService
	Layouts *service.LayoutService
	Books   *service.PhotoBookService
	Search  *service.SearchService
}
