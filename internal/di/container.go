// Package di provides dependency injection configuration for Shutterbox.
package di

import (
	"github.com/samber/do/v2"

	"github.com/shutterboxapp/shutterbox/internal/config"
	"github.com/shutterboxapp/shutterbox/internal/di/providers"
	"github.com/shutterboxapp/shutterbox/internal/ingest"
	"github.com/shutterboxapp/shutterbox/internal/logger"
	"github.com/shutterboxapp/shutterbox/internal/media/images"
	"github.com/shutterboxapp/shutterbox/internal/metrics"
	"github.com/shutterboxapp/shutterbox/internal/service"
	"github.com/shutterboxapp/shutterbox/internal/validation"
)

// NewContainer creates the DI container for cfg with the providers shared
// by the server and the import tool.
func NewContainer(cfg *config.Config) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, cfg)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideTracing)
	do.Provide(injector, providers.ProvideMetrics)
	do.Provide(injector, providers.ProvideValidator)

	// Database layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideLibrary)

	// Storage layer
	do.Provide(injector, providers.ProvideImageStorage)
	do.Provide(injector, providers.ProvidePlaceholders)
	do.Provide(injector, providers.ProvideIngestPipeline)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Business services
	do.Provide(injector, providers.ProvideChangeForwarder)
	do.Provide(injector, providers.ProvideAssetService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideViewService)
	do.Provide(injector, providers.ProvideLayoutService)
	do.Provide(injector, providers.ProvidePhotoBookService)

	// Workers
	do.Provide(injector, providers.ProvideInbox)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideMDNSService)

	return injector
}

// Bootstrap initializes the server's services and starts the background
// workers. This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	if err := BootstrapLibrary(injector); err != nil {
		return err
	}

	if _, err := do.Invoke[*providers.SearchServiceHandle](injector); err != nil {
		do.MustInvoke[*logger.Logger](injector).Error("Search index unavailable", "error", err)
	}
	_ = do.MustInvoke[*providers.ChangeForwarderHandle](injector)
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*service.ViewService](injector)
	_ = do.MustInvoke[*providers.LayoutServiceHandle](injector)
	_ = do.MustInvoke[*service.PhotoBookService](injector)

	// Workers
	if _, err := do.Invoke[*providers.InboxHandle](injector); err != nil {
		return err
	}
	providers.RunPlaceholderBackfill(injector)

	// Server
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.MDNSServiceHandle](injector); err != nil {
		return err
	}
	return nil
}

// BootstrapLibrary initializes what importing needs: logging, tracing,
// the store, the library and the ingestion pipeline.
func BootstrapLibrary(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	if _, err := do.Invoke[*providers.TracingHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*metrics.Metrics](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.LibraryHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*images.Storage](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*ingest.Pipeline](injector)
	_ = do.MustInvoke[*service.AssetService](injector)
	return nil
}
