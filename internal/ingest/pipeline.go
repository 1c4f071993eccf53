// Package ingest copies picked files into managed storage, validates them and
// commits them to the library. Every item either commits fully or leaves no
// managed file behind.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/shutterboxapp/shutterbox/internal/clock"
	"github.com/shutterboxapp/shutterbox/internal/domain"
	"github.com/shutterboxapp/shutterbox/internal/id"
	"github.com/shutterboxapp/shutterbox/internal/media/images"
	"github.com/shutterboxapp/shutterbox/internal/metrics"
	"github.com/shutterboxapp/shutterbox/internal/tracing"
)

// Defaults for the decode retry loop.
const (
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = 250 * time.Millisecond
)

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// IsSupported reports whether name has an importable extension.
func IsSupported(name string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(name))]
}

// SupportedExtensions lists the importable extensions, sorted.
func SupportedExtensions() []string {
	return slices.Sorted(maps.Keys(allowedExtensions))
}

// Committer persists a validated asset. Only a committed asset is part of
// the library.
type Committer interface {
	Commit(ctx context.Context, asset domain.Asset) (domain.Asset, error)
}

// CommitterFunc adapts a function to Committer.
type CommitterFunc func(ctx context.Context, asset domain.Asset) (domain.Asset, error)

func (f CommitterFunc) Commit(ctx context.Context, asset domain.Asset) (domain.Asset, error) {
	return f(ctx, asset)
}

// Options tunes a Pipeline. A non-positive RetryAttempts takes the default.
// A zero RetryDelay retries without waiting; a negative one takes the
// default.
type Options struct {
	RetryAttempts int
	RetryDelay    time.Duration

	// Placeholders, when set, computes a BlurHash for each import.
	Placeholders *images.Placeholders
	Clock        clock.Clock
	Metrics      *metrics.Metrics
}

// Pipeline ingests sources one at a time.
type Pipeline struct {
	storage      *images.Storage
	decoder      images.Decoder
	committer    Committer
	placeholders *images.Placeholders
	clock        clock.Clock
	metrics      *metrics.Metrics
	logger       *slog.Logger

	attempts int
	delay    time.Duration
}

// New creates a pipeline writing into storage.
func New(storage *images.Storage, decoder images.Decoder, committer Committer, logger *slog.Logger, opts Options) *Pipeline {
	p := &Pipeline{
		storage:      storage,
		decoder:      decoder,
		committer:    committer,
		placeholders: opts.Placeholders,
		clock:        opts.Clock,
		metrics:      opts.Metrics,
		logger:       logger,
		attempts:     opts.RetryAttempts,
		delay:        opts.RetryDelay,
	}
	if p.clock == nil {
		p.clock = clock.Real()
	}
	if p.attempts <= 0 {
		p.attempts = DefaultRetryAttempts
	}
	if p.delay < 0 {
		p.delay = DefaultRetryDelay
	}
	return p
}

// Result is the outcome of one item: exactly one of Asset and Err is set.
type Result struct {
	FileName string        `json:"file_name"`
	Asset    *domain.Asset `json:"asset,omitempty"`
	Err      *ImportError  `json:"-"`
}

// OK reports whether the item was committed.
func (r Result) OK() bool { return r.Err == nil }

// Ingest imports one source. An item is atomic: cancellation of ctx does not
// interrupt it once started.
func (p *Pipeline) Ingest(ctx context.Context, src Source) Result {
	ctx = context.WithoutCancel(ctx)
	name := src.Name()

	ctx, span := tracing.Tracer().Start(ctx, "ingest.file")
	span.SetAttributes(attribute.String("file.name", name))
	defer span.End()

	start := p.clock.Now()
	asset, err := p.ingest(ctx, src, name)
	elapsed := p.clock.Now().Sub(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Kind.String())
		p.metrics.ObserveImport(err.Kind.String(), elapsed)
		p.logger.Warn("import failed",
			"file", name,
			"kind", err.Kind.String(),
			"error", err.Err,
		)
		return Result{FileName: name, Err: err}
	}

	span.SetAttributes(
		attribute.String("asset.id", asset.ID),
		attribute.Int("asset.width", asset.Width),
		attribute.Int("asset.height", asset.Height),
	)
	p.metrics.ObserveImport(metrics.OutcomeImported, elapsed)
	p.logger.Info("asset imported",
		"asset_id", asset.ID,
		"file", name,
		"width", asset.Width,
		"height", asset.Height,
		"size_mb", asset.SizeMB,
		"duration", elapsed,
	)
	return Result{FileName: name, Asset: &asset}
}

func (p *Pipeline) ingest(ctx context.Context, src Source, name string) (domain.Asset, *ImportError) {
	fail := func(kind Kind, err error) *ImportError {
		return &ImportError{Kind: kind, FileName: name, Err: err}
	}

	ext := filepath.Ext(name)
	if !allowedExtensions[strings.ToLower(ext)] {
		return domain.Asset{}, fail(KindUnsupportedExtension, fmt.Errorf("extension %q not allowed", ext))
	}

	path, size, err := p.copy(ctx, src, ext)
	if err != nil {
		return domain.Asset{}, fail(KindCopyFailed, err)
	}

	// Past this point every failure removes the managed file first.
	rollback := func(kind Kind, err error) *ImportError {
		if rmErr := p.storage.Remove(path); rmErr != nil {
			p.logger.Error("rollback failed", "path", path, "error", rmErr)
			err = errors.Join(err, rmErr)
		}
		return fail(kind, err)
	}

	if size == 0 {
		return domain.Asset{}, rollback(KindEmptyFile, errors.New("file is empty"))
	}

	dims, kind, err := p.decode(ctx, path)
	if err != nil {
		return domain.Asset{}, rollback(kind, err)
	}
	if dims.Width <= 0 || dims.Height <= 0 {
		return domain.Asset{}, rollback(KindInvalidDimensions,
			fmt.Errorf("dimensions %dx%d", dims.Width, dims.Height))
	}

	assetID, err := id.NewAsset()
	if err != nil {
		return domain.Asset{}, rollback(KindCommitFailed, err)
	}

	asset := domain.Asset{
		ID:          assetID,
		FileName:    name,
		StoragePath: path,
		Width:       dims.Width,
		Height:      dims.Height,
		SizeMB:      domain.SizeInMB(size),
		CreatedAt:   p.clock.Now().UTC(),
		Tags:        []string{},
	}
	if p.placeholders != nil {
		asset.Placeholder = p.placeholders.Generate(ctx, path)
	}

	committed, err := p.committer.Commit(ctx, asset)
	if err != nil {
		return domain.Asset{}, rollback(KindCommitFailed, err)
	}
	return committed, nil
}

// copy streams src into a new managed file and returns its path and size.
// A failed copy leaves nothing behind.
func (p *Pipeline) copy(ctx context.Context, src Source, ext string) (string, int64, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("open source: %w", err)
	}
	defer rc.Close() //nolint:errcheck // read side

	f, path, err := p.storage.Create(ext)
	if err != nil {
		return "", 0, err
	}

	n, copyErr := io.Copy(f, rc)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		if rmErr := p.storage.Remove(path); rmErr != nil {
			err = errors.Join(err, rmErr)
		}
		return "", 0, fmt.Errorf("copy to managed storage: %w", err)
	}

	p.logger.Debug("source copied", "path", path, "bytes", n)
	return path, n, nil
}

// decode runs the decoder, retrying transient failures with a fixed delay.
// Content that is not an image fails immediately.
func (p *Pipeline) decode(ctx context.Context, path string) (images.Dimensions, Kind, error) {
	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		dims, err := p.decoder.Decode(ctx, path)
		if err == nil {
			return dims, 0, nil
		}
		if errors.Is(err, images.ErrNotImage) {
			return images.Dimensions{}, KindDecodeFailed, err
		}

		lastErr = err
		p.logger.Debug("decode attempt failed",
			"path", path,
			"attempt", attempt,
			"error", err,
		)
		if attempt < p.attempts {
			<-p.clock.After(p.delay)
		}
	}
	return images.Dimensions{}, KindFileLocked,
		fmt.Errorf("decode failed after %d attempts: %w", p.attempts, lastErr)
}
