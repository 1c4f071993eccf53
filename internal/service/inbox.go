package service

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/shutterboxapp/shutterbox/internal/ingest"
	"github.com/shutterboxapp/shutterbox/internal/watcher"
)

// InboxService imports photos dropped into a watched folder. Each settled
// file is imported as a single-item batch and removed from the inbox once
// it is in the library; files that fail stay where they are.
type InboxService struct {
	watcher *watcher.Watcher
	assets  *AssetService
	root    string
	logger  *slog.Logger
}

// NewInboxService creates an inbox over root.
func NewInboxService(w *watcher.Watcher, assets *AssetService, root string, logger *slog.Logger) *InboxService {
	return &InboxService{watcher: w, assets: assets, root: root, logger: logger}
}

// Run imports files already in the inbox, then follows new ones until ctx
// is cancelled.
func (s *InboxService) Run(ctx context.Context) error {
	if err := s.watcher.Watch(s.root); err != nil {
		return err
	}

	existing, err := s.watcher.Scan(s.root)
	if err != nil {
		return err
	}
	for _, path := range existing {
		if ctx.Err() != nil {
			return nil
		}
		s.importFile(ctx, path)
	}

	done := make(chan error, 1)
	go func() { done <- s.watcher.Start(ctx) }()

	s.logger.Info("inbox watching", "path", s.root, "existing", len(existing))
	for {
		select {
		case <-ctx.Done():
			return <-done
		case err := <-done:
			return err
		case ev := <-s.watcher.Events():
			if ev.Op == watcher.OpSettled {
				s.importFile(ctx, ev.Path)
			}
		case err := <-s.watcher.Errors():
			s.logger.Warn("inbox watcher error", "error", err)
		}
	}
}

// importFile returns whether the file made it into the library.
func (s *InboxService) importFile(ctx context.Context, path string) bool {
	report, err := s.assets.Import(ctx, []ingest.Source{ingest.FileSource(path)})
	if err != nil {
		s.logger.Warn("inbox import failed", "path", path, "error", err)
		return false
	}
	if len(report.Imported) == 0 {
		for _, f := range report.Failures {
			s.logger.Warn("inbox file rejected", "path", path, "kind", f.Kind.String(), "error", f.Message)
		}
		return false
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("failed to clear inbox file", "path", path, "error", err)
	}
	return true
}
