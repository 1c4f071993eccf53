package images

import (
	"context"
	"log/slog"
	"time"
)

// Placeholders computes BlurHash strings for managed files. Failures are
// logged and yield an empty hash; a missing placeholder never fails an
// import.
type Placeholders struct {
	logger *slog.Logger
}

// NewPlaceholders creates a placeholder generator.
func NewPlaceholders(logger *slog.Logger) *Placeholders {
	return &Placeholders{logger: logger}
}

// Generate returns the BlurHash for the image at path, or "" on failure.
func (p *Placeholders) Generate(ctx context.Context, path string) string {
	if ctx.Err() != nil {
		return ""
	}

	start := time.Now()
	hash, err := ComputeBlurHash(path)
	if err != nil {
		p.logger.Warn("placeholder generation failed",
			"path", path,
			"error", err,
		)
		return ""
	}

	p.logger.Debug("placeholder generated",
		"path", path,
		"hash", hash,
		"duration", time.Since(start),
	)
	return hash
}
