package providers

import (
	"github.com/samber/do/v2"

	"github.com/shutterboxapp/shutterbox/internal/clock"
	"github.com/shutterboxapp/shutterbox/internal/config"
	"github.com/shutterboxapp/shutterbox/internal/ingest"
	"github.com/shutterboxapp/shutterbox/internal/layout"
	"github.com/shutterboxapp/shutterbox/internal/logger"
	"github.com/shutterboxapp/shutterbox/internal/media/images"
	"github.com/shutterboxapp/shutterbox/internal/metrics"
	"github.com/shutterboxapp/shutterbox/internal/service"
	"github.com/shutterboxapp/shutterbox/internal/validation"
)

// ChangeForwarderHandle forwards library changes to SSE clients until
// shutdown.
type ChangeForwarderHandle struct {
	stop func()
}

// Shutdown implements do.Shutdownable.
func (h *ChangeForwarderHandle) Shutdown() error {
	h.stop()
	return nil
}

// ProvideChangeForwarder subscribes the SSE manager to library changes.
func ProvideChangeForwarder(i do.Injector) (*ChangeForwarderHandle, error) {
	libHandle := do.MustInvoke[*LibraryHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	return &ChangeForwarderHandle{stop: service.ForwardChanges(libHandle.Library, sseHandle.Manager)}, nil
}

// ProvideAssetService provides the asset service.
func ProvideAssetService(i do.Injector) (*service.AssetService, error) {
	libHandle := do.MustInvoke[*LibraryHandle](i)
	pipeline := do.MustInvoke[*ingest.Pipeline](i)
	storage := do.MustInvoke[*images.Storage](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAssetService(libHandle.Library, pipeline, storage, sseHandle.Manager, log.Component("assets")), nil
}

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	libHandle := do.MustInvoke[*LibraryHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(libHandle.Library, log.Component("tags")), nil
}

// ProvideViewService provides the filter-sort service.
func ProvideViewService(i do.Injector) (*service.ViewService, error) {
	libHandle := do.MustInvoke[*LibraryHandle](i)
	return service.NewViewService(libHandle.Library), nil
}

// LayoutServiceHandle wraps the layout service with shutdown capability.
type LayoutServiceHandle struct {
	*service.LayoutService
}

// Shutdown implements do.Shutdownable.
func (h *LayoutServiceHandle) Shutdown() error {
	return h.LayoutService.Shutdown()
}

// ProvideLayoutService provides the masonry layout service.
func ProvideLayoutService(i do.Injector) (*LayoutServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	libHandle := do.MustInvoke[*LibraryHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	opts := layout.Options{
		Spacing:        cfg.Layout.Spacing,
		FallbackWidth:  cfg.Layout.FallbackWidth,
		MinColumnWidth: cfg.Layout.MinColumnWidth,
		MinColumns:     cfg.Layout.MinColumns,
		MaxColumns:     cfg.Layout.MaxColumns,
	}

	svc := service.NewLayoutService(libHandle.Library, service.LayoutServiceOptions{
		Layout:   opts,
		Debounce: cfg.Layout.Debounce,
		Settle:   cfg.Layout.Settle,
		Clock:    clock.Real(),
	}, sseHandle.Manager, m, log.Component("layout"))

	// Lay out whatever was loaded at startup.
	svc.Refresh()

	return &LayoutServiceHandle{LayoutService: svc}, nil
}

// ProvidePhotoBookService provides the photo-book service.
func ProvidePhotoBookService(i do.Injector) (*service.PhotoBookService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	libHandle := do.MustInvoke[*LibraryHandle](i)
	layoutHandle := do.MustInvoke[*LayoutServiceHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPhotoBookService(
		storeHandle.Store,
		libHandle.Library,
		layoutHandle.LayoutService,
		v,
		clock.Real(),
		log.Component("photobooks"),
	), nil
}
