package service

import (
	"github.com/shutterboxapp/shutterbox/internal/domain"
	"github.com/shutterboxapp/shutterbox/internal/library"
	"github.com/shutterboxapp/shutterbox/internal/view"
)

// View is an ordered result with the snapshot version it was computed from.
type View struct {
	Version uint64         `json:"version"`
	Assets  []domain.Asset `json:"assets"`
}

// ViewService computes filtered and sorted views of the current library.
type ViewService struct {
	library *library.Library
}

// NewViewService creates a view service.
func NewViewService(lib *library.Library) *ViewService {
	return &ViewService{library: lib}
}

// ComputeView filters and sorts the current snapshot. It never blocks on
// library mutations.
func (s *ViewService) ComputeView(q view.Query) View {
	snap := s.library.Snapshot()
	return View{
		Version: snap.Version(),
		Assets:  view.Compute(snap.Assets(), q),
	}
}

// IDs returns the asset ids of a view in order.
func (v View) IDs() []string {
	ids := make([]string, len(v.Assets))
	for i, a := range v.Assets {
		ids[i] = a.ID
	}
	return ids
}
