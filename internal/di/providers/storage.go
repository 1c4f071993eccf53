package providers

import (
	"github.com/samber/do/v2"

	"github.com/shutterboxapp/shutterbox/internal/config"
	"github.com/shutterboxapp/shutterbox/internal/ingest"
	"github.com/shutterboxapp/shutterbox/internal/logger"
	"github.com/shutterboxapp/shutterbox/internal/media/images"
	"github.com/shutterboxapp/shutterbox/internal/metrics"
)

// ProvideImageStorage provides managed media storage.
func ProvideImageStorage(i do.Injector) (*images.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	storage, err := images.NewStorage(cfg.Library.MediaPath)
	if err != nil {
		return nil, err
	}
	log.Info("Media storage initialized", "path", storage.Root())
	return storage, nil
}

// ProvidePlaceholders provides the BlurHash generator.
func ProvidePlaceholders(i do.Injector) (*images.Placeholders, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return images.NewPlaceholders(log.Component("placeholders")), nil
}

// ProvideIngestPipeline provides the ingestion pipeline committing into
// the library.
func ProvideIngestPipeline(i do.Injector) (*ingest.Pipeline, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storage := do.MustInvoke[*images.Storage](i)
	libHandle := do.MustInvoke[*LibraryHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	opts := ingest.Options{
		RetryAttempts: cfg.Ingest.RetryAttempts,
		RetryDelay:    cfg.Ingest.RetryDelay,
		Metrics:       m,
	}
	if cfg.Ingest.Placeholders {
		opts.Placeholders = do.MustInvoke[*images.Placeholders](i)
	}

	return ingest.New(storage, images.StdDecoder{}, libHandle.Library, log.Component("ingest"), opts), nil
}
