package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/shutterboxapp/shutterbox/internal/clock"
	"github.com/shutterboxapp/shutterbox/internal/config"
	"github.com/shutterboxapp/shutterbox/internal/library"
	"github.com/shutterboxapp/shutterbox/internal/logger"
	"github.com/shutterboxapp/shutterbox/internal/metrics"
	"github.com/shutterboxapp/shutterbox/internal/sse"
	"github.com/shutterboxapp/shutterbox/internal/store"
	"github.com/shutterboxapp/shutterbox/internal/store/sqlite"
	"github.com/shutterboxapp/shutterbox/internal/validation"
)

// sqliteFileName is the database file inside the database directory.
const sqliteFileName = "shutterbox.db"

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the configured store backend with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the SQLite or Badger store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dir := cfg.Library.DatabasePath
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Backend {
	case config.BackendBadger:
		st, err = store.NewBadger(dir, log.Component("store"))
	default:
		st, err = sqlite.Open(filepath.Join(dir, sqliteFileName), log.Component("store"))
	}
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "backend", cfg.Store.Backend, "path", dir)
	return &StoreHandle{Store: st}, nil
}

// LibraryHandle wraps the library coordinator with shutdown capability.
type LibraryHandle struct {
	*library.Library
}

// Shutdown implements do.Shutdownable.
func (h *LibraryHandle) Shutdown() error {
	return h.Library.Shutdown()
}

// ProvideLibrary starts the library coordinator and loads persisted assets.
func ProvideLibrary(i do.Injector) (*LibraryHandle, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	lib := library.New(storeHandle.Store, v, clock.Real(), m, log.Component("library"))
	if err := lib.Load(context.Background()); err != nil {
		_ = lib.Shutdown()
		return nil, err
	}
	return &LibraryHandle{Library: lib}, nil
}

// ProvideValidator provides the shared request validator.
func ProvideValidator(_ do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}
