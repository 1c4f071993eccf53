package service

import (
	"context"
	"log/slog"

	"github.com/shutterboxapp/shutterbox/internal/domain"
	domainerrors "github.com/shutterboxapp/shutterbox/internal/errors"
	"github.com/shutterboxapp/shutterbox/internal/id"
	"github.com/shutterboxapp/shutterbox/internal/ingest"
	"github.com/shutterboxapp/shutterbox/internal/library"
	"github.com/shutterboxapp/shutterbox/internal/media/images"
	"github.com/shutterboxapp/shutterbox/internal/sse"
)

// ImportFailure describes one file that was not imported.
type ImportFailure struct {
	FileName string      `json:"file_name"`
	Kind     ingest.Kind `json:"kind"`
	Message  string      `json:"message"`
}

// ImportReport summarizes an import batch.
type ImportReport struct {
	BatchID   string          `json:"batch_id"`
	Imported  []domain.Asset  `json:"imported"`
	Failures  []ImportFailure `json:"failures"`
	Abandoned int             `json:"abandoned"`
}

// AssetService imports, reads and mutates photos.
type AssetService struct {
	library  *library.Library
	pipeline *ingest.Pipeline
	storage  *images.Storage
	events   Emitter
	logger   *slog.Logger
}

// NewAssetService creates an asset service.
func NewAssetService(lib *library.Library, pipeline *ingest.Pipeline, storage *images.Storage, events Emitter, logger *slog.Logger) *AssetService {
	if events == nil {
		events = NoopEmitter()
	}
	return &AssetService{
		library:  lib,
		pipeline: pipeline,
		storage:  storage,
		events:   events,
		logger:   logger,
	}
}

// Import ingests sources as one batch. Per-file failures are reported, not
// returned: the error is only set when the batch could not start.
func (s *AssetService) Import(ctx context.Context, sources []ingest.Source) (*ImportReport, error) {
	if len(sources) == 0 {
		return nil, domainerrors.Validation("no files to import")
	}

	batchID, err := id.NewBatch()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate batch id")
	}

	s.logger.Info("import started", "batch_id", batchID, "files", len(sources))
	s.events.Emit(sse.NewImportStartedEvent(batchID, len(sources)))

	report := s.pipeline.IngestBatch(ctx, sources, func(done, total int, r ingest.Result) {
		data := sse.ImportProgressEventData{
			BatchID:  batchID,
			Done:     done,
			Total:    total,
			FileName: r.FileName,
		}
		if r.Asset != nil {
			data.AssetID = r.Asset.ID
		}
		if r.Err != nil {
			data.Error = r.Err.Kind.String()
		}
		s.events.Emit(sse.NewImportProgressEvent(data))
	})

	out := &ImportReport{
		BatchID:   batchID,
		Imported:  report.Imported(),
		Failures:  []ImportFailure{},
		Abandoned: report.Abandoned,
	}
	if out.Imported == nil {
		out.Imported = []domain.Asset{}
	}
	for _, f := range report.Failures() {
		out.Failures = append(out.Failures, ImportFailure{
			FileName: f.FileName,
			Kind:     f.Kind,
			Message:  f.Error(),
		})
	}

	s.events.Emit(sse.NewImportCompletedEvent(sse.ImportCompletedEventData{
		BatchID:   batchID,
		Imported:  len(out.Imported),
		Failed:    len(out.Failures),
		Abandoned: out.Abandoned,
	}))
	s.logger.Info("import completed",
		"batch_id", batchID,
		"imported", len(out.Imported),
		"failed", len(out.Failures),
		"abandoned", out.Abandoned,
	)
	return out, nil
}

// Get returns one asset from the current snapshot.
func (s *AssetService) Get(assetID string) (domain.Asset, error) {
	return s.library.Get(assetID)
}

// List returns every asset in commit order.
func (s *AssetService) List() []domain.Asset {
	return s.library.Snapshot().Assets()
}

// File returns the managed file path of an asset.
func (s *AssetService) File(assetID string) (domain.Asset, string, error) {
	a, err := s.library.Get(assetID)
	if err != nil {
		return domain.Asset{}, "", err
	}
	if !s.storage.Exists(a.StoragePath) {
		return domain.Asset{}, "", domainerrors.NotFoundf("file for asset %s is missing", assetID)
	}
	return a, a.StoragePath, nil
}

// Delete removes an asset and its managed file. The asset is gone once the
// library accepts the delete; a file that cannot be removed is left as an
// orphan and logged.
func (s *AssetService) Delete(ctx context.Context, assetID string) (domain.Asset, error) {
	a, err := s.library.Delete(ctx, assetID)
	if err != nil {
		return domain.Asset{}, err
	}
	if err := s.storage.Remove(a.StoragePath); err != nil {
		s.logger.Warn("failed to remove asset file",
			"asset_id", a.ID,
			"path", a.StoragePath,
			"error", err,
		)
	}
	s.logger.Info("asset deleted", "asset_id", a.ID, "file", a.FileName)
	return a, nil
}

// SetRating sets a 0-5 star rating.
func (s *AssetService) SetRating(ctx context.Context, assetID string, rating int) (domain.Asset, error) {
	a, err := s.library.SetRating(ctx, assetID, rating)
	if err != nil {
		return domain.Asset{}, err
	}
	s.logger.Debug("rating set", "asset_id", assetID, "rating", rating)
	return a, nil
}

// SetSelected toggles the transient selection flag.
func (s *AssetService) SetSelected(ctx context.Context, assetID string, selected bool) (domain.Asset, error) {
	return s.library.SetSelected(ctx, assetID, selected)
}

// Selected returns the currently selected assets in commit order.
func (s *AssetService) Selected() []domain.Asset {
	var out []domain.Asset
	for _, a := range s.library.Snapshot().Assets() {
		if a.Selected {
			out = append(out, a)
		}
	}
	return out
}
