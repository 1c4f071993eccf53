package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/shutterboxapp/shutterbox/internal/config"
	"github.com/shutterboxapp/shutterbox/internal/logger"
	"github.com/shutterboxapp/shutterbox/internal/search"
	"github.com/shutterboxapp/shutterbox/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.Open(search.Options{
		DataPath: cfg.Library.IndexPath,
		Logger:   log.Component("search"),
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount, "created", index.Created())

	return &SearchIndexHandle{Index: index}, nil
}

// SearchServiceHandle stops following library changes on shutdown.
type SearchServiceHandle struct {
	*service.SearchService
}

// Shutdown implements do.Shutdownable.
func (h *SearchServiceHandle) Shutdown() error {
	return h.SearchService.Shutdown()
}

// ProvideSearchService provides the search service, synchronized with the
// library.
func ProvideSearchService(i do.Injector) (*SearchServiceHandle, error) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	libHandle := do.MustInvoke[*LibraryHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewSearchService(indexHandle.Index, libHandle.Library, log.Component("search"))
	if err := svc.Sync(context.Background()); err != nil {
		return nil, err
	}

	count, _ := svc.DocumentCount()
	log.Info("Search index synchronized", "documents", count)

	return &SearchServiceHandle{SearchService: svc}, nil
}
