package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/shutterboxapp/shutterbox/internal/config"
	"github.com/shutterboxapp/shutterbox/internal/ingest"
	"github.com/shutterboxapp/shutterbox/internal/logger"
	"github.com/shutterboxapp/shutterbox/internal/media/images"
	"github.com/shutterboxapp/shutterbox/internal/service"
	"github.com/shutterboxapp/shutterbox/internal/watcher"
)

// InboxHandle runs the inbox watcher until shutdown. Watcher is nil when
// no inbox is configured.
type InboxHandle struct {
	*watcher.Watcher
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (h *InboxHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	h.cancel()
	select {
	case <-h.done:
	case <-time.After(shutdownTimeout):
	}
	return h.Watcher.Stop()
}

// ProvideInbox watches the configured drop folder and imports settled files.
func ProvideInbox(i do.Injector) (*InboxHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Watcher.InboxPath == "" {
		log.Info("Inbox disabled")
		return &InboxHandle{}, nil
	}

	assets := do.MustInvoke[*service.AssetService](i)

	w, err := watcher.New(log.Component("watcher"), watcher.Options{
		SettleDelay: cfg.Watcher.SettleDelay,
		Extensions:  ingest.SupportedExtensions(),
	})
	if err != nil {
		return nil, err
	}

	inbox := service.NewInboxService(w, assets, cfg.Watcher.InboxPath, log.Component("inbox"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := inbox.Run(ctx); err != nil {
			log.Error("Inbox stopped", "path", cfg.Watcher.InboxPath, "error", err)
		}
	}()

	log.Info("Inbox started", "path", cfg.Watcher.InboxPath)
	return &InboxHandle{Watcher: w, cancel: cancel, done: done}, nil
}

// RunPlaceholderBackfill computes placeholders missing from earlier imports
// in the background.
func RunPlaceholderBackfill(i do.Injector) {
	cfg := do.MustInvoke[*config.Config](i)
	if !cfg.Ingest.Placeholders {
		return
	}

	log := do.MustInvoke[*logger.Logger](i)
	libHandle := do.MustInvoke[*LibraryHandle](i)
	placeholders := do.MustInvoke[*images.Placeholders](i)

	backfill := service.NewPlaceholderBackfill(libHandle.Library, placeholders, cfg.Ingest.BackfillWorkers, log.Component("backfill"))
	go func() {
		n, err := backfill.Run(context.Background())
		if err != nil {
			log.Error("Placeholder backfill failed", "stored", n, "error", err)
			return
		}
		if n > 0 {
			log.Info("Placeholder backfill completed", "stored", n)
		}
	}()
}
