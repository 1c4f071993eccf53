// Package library owns the in-memory photo library. A single coordinator
// goroutine executes every mutation in order and publishes an immutable
// snapshot after each one; readers use the snapshot and never block.
package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/shutterboxapp/shutterbox/internal/clock"
	"github.com/shutterboxapp/shutterbox/internal/domain"
	domainerrors "github.com/shutterboxapp/shutterbox/internal/errors"
	"github.com/shutterboxapp/shutterbox/internal/metrics"
	"github.com/shutterboxapp/shutterbox/internal/store"
	"github.com/shutterboxapp/shutterbox/internal/validation"
)

// ErrClosed is returned for operations posted after Shutdown.
var ErrClosed = errors.New("library is closed")

type request struct {
	fn   func()
	done chan struct{}
}

// Library is the single writer of the photo library.
type Library struct {
	store     store.Store
	validator *validation.Validator
	clock     clock.Clock
	metrics   *metrics.Metrics
	logger    *slog.Logger

	snapshot atomic.Pointer[domain.Snapshot]
	requests chan request
	quit     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	// Owned by the coordinator goroutine.
	assets    []domain.Asset
	index     map[string]int
	version   uint64
	observers map[int]domain.Observer
	nextObs   int
}

// New starts the coordinator. The library is empty until Load.
func New(s store.Store, v *validation.Validator, c clock.Clock, m *metrics.Metrics, logger *slog.Logger) *Library {
	if c == nil {
		c = clock.Real()
	}
	l := &Library{
		store:     s,
		validator: v,
		clock:     c,
		metrics:   m,
		logger:    logger,
		requests:  make(chan request),
		quit:      make(chan struct{}),
		stopped:   make(chan struct{}),
		index:     make(map[string]int),
		observers: make(map[int]domain.Observer),
	}
	l.snapshot.Store(domain.EmptySnapshot())
	go l.run()
	return l
}

func (l *Library) run() {
	defer close(l.stopped)
	for {
		select {
		case req := <-l.requests:
			req.fn()
			close(req.done)
		case <-l.quit:
			return
		}
	}
}

// Shutdown stops the coordinator after the operation in progress.
func (l *Library) Shutdown() error {
	l.stopOnce.Do(func() { close(l.quit) })
	<-l.stopped
	return nil
}

// do runs fn on the coordinator. ctx only bounds the wait for a turn; once
// fn has started it runs to completion.
func (l *Library) do(ctx context.Context, fn func()) error {
	req := request{fn: fn, done: make(chan struct{})}
	select {
	case l.requests <- req:
	case <-l.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-req.done
	return nil
}

// Snapshot returns the current immutable library state.
func (l *Library) Snapshot() *domain.Snapshot {
	return l.snapshot.Load()
}

// Get returns the asset with id from the current snapshot.
func (l *Library) Get(id string) (domain.Asset, error) {
	a, ok := l.Snapshot().Get(id)
	if !ok {
		return domain.Asset{}, domainerrors.NotFoundf("asset %s not found", id)
	}
	return a, nil
}

// Subscribe registers an observer and returns a function that removes it.
func (l *Library) Subscribe(obs domain.Observer) func() {
	var key int
	if err := l.do(context.Background(), func() {
		key = l.nextObs
		l.nextObs++
		l.observers[key] = obs
	}); err != nil {
		return func() {}
	}
	return func() {
		_ = l.do(context.Background(), func() { delete(l.observers, key) })
	}
}

// Load replaces the in-memory state with the persisted library.
func (l *Library) Load(ctx context.Context) error {
	var err error
	if postErr := l.do(ctx, func() {
		var stored []*domain.Asset
		stored, err = l.store.ListAssets(ctx)
		if err != nil {
			err = fmt.Errorf("load assets: %w", err)
			return
		}
		l.assets = l.assets[:0]
		clear(l.index)
		for _, a := range stored {
			l.index[a.ID] = len(l.assets)
			l.assets = append(l.assets, *a)
		}
		l.publish()
		l.logger.Info("library loaded", "assets", len(l.assets))
	}); postErr != nil {
		return postErr
	}
	return err
}

// Commit persists a validated asset and adds it to the library.
func (l *Library) Commit(ctx context.Context, asset domain.Asset) (domain.Asset, error) {
	if !asset.Valid() {
		return domain.Asset{}, domainerrors.Validationf("asset %q violates library invariants", asset.ID)
	}
	asset.Selected = false
	if asset.Tags == nil {
		asset.Tags = []string{}
	}

	var err error
	if postErr := l.do(ctx, func() {
		if err = l.store.InsertAsset(ctx, &asset); err != nil {
			err = store.AsDomainError(err)
			return
		}
		l.index[asset.ID] = len(l.assets)
		l.assets = append(l.assets, asset.Clone())
		l.publish()
		l.notify(domain.Change{Kind: domain.ChangeAssetAdded, Asset: asset.Clone()})
	}); postErr != nil {
		return domain.Asset{}, postErr
	}
	if err != nil {
		return domain.Asset{}, err
	}
	return asset, nil
}

// Delete removes the asset and its tags. The managed file is left to the
// caller.
func (l *Library) Delete(ctx context.Context, id string) (domain.Asset, error) {
	var (
		removed domain.Asset
		err     error
	)
	if postErr := l.do(ctx, func() {
		i, ok := l.index[id]
		if !ok {
			err = domainerrors.NotFoundf("asset %s not found", id)
			return
		}
		if err = l.store.DeleteAsset(ctx, id); err != nil {
			err = store.AsDomainError(err)
			return
		}
		removed = l.assets[i]
		l.assets = slices.Delete(l.assets, i, i+1)
		l.reindex()
		l.publish()
		l.notify(domain.Change{Kind: domain.ChangeAssetDeleted, Asset: removed.Clone()})
	}); postErr != nil {
		return domain.Asset{}, postErr
	}
	return removed, err
}

// SetRating sets a 0-5 star rating; 0 clears it.
func (l *Library) SetRating(ctx context.Context, id string, rating int) (domain.Asset, error) {
	if err := l.validator.Rating(rating); err != nil {
		return domain.Asset{}, err
	}
	return l.update(ctx, id, func(a *domain.Asset) (bool, error) {
		if a.Rating == rating {
			return false, nil
		}
		next := a.Clone()
		next.Rating = rating
		if err := l.store.UpdateAsset(ctx, &next); err != nil {
			return false, store.AsDomainError(err)
		}
		a.Rating = rating
		return true, nil
	})
}

// SetPlaceholder stores a BlurHash placeholder for an asset.
func (l *Library) SetPlaceholder(ctx context.Context, id, hash string) (domain.Asset, error) {
	return l.update(ctx, id, func(a *domain.Asset) (bool, error) {
		if a.Placeholder == hash {
			return false, nil
		}
		next := a.Clone()
		next.Placeholder = hash
		if err := l.store.UpdateAsset(ctx, &next); err != nil {
			return false, store.AsDomainError(err)
		}
		a.Placeholder = hash
		return true, nil
	})
}

// SetSelected toggles the transient selection flag. It is not persisted.
func (l *Library) SetSelected(ctx context.Context, id string, selected bool) (domain.Asset, error) {
	return l.update(ctx, id, func(a *domain.Asset) (bool, error) {
		changed := a.Selected != selected
		a.Selected = selected
		return changed, nil
	})
}

// update applies mutate to the asset on the coordinator and publishes when
// mutate reports a change.
func (l *Library) update(ctx context.Context, id string, mutate func(*domain.Asset) (bool, error)) (domain.Asset, error) {
	var (
		out domain.Asset
		err error
	)
	if postErr := l.do(ctx, func() {
		i, ok := l.index[id]
		if !ok {
			err = domainerrors.NotFoundf("asset %s not found", id)
			return
		}
		a := l.assets[i].Clone()
		var changed bool
		if changed, err = mutate(&a); err != nil {
			return
		}
		l.assets[i] = a
		out = a.Clone()
		if changed {
			l.publish()
			l.notify(domain.Change{Kind: domain.ChangeAssetUpdated, Asset: a.Clone()})
		}
	}); postErr != nil {
		return domain.Asset{}, postErr
	}
	return out, err
}

func (l *Library) reindex() {
	clear(l.index)
	for i, a := range l.assets {
		l.index[a.ID] = i
	}
}

// publish must run on the coordinator.
func (l *Library) publish() {
	l.version++
	l.snapshot.Store(domain.NewSnapshot(l.version, l.assets))
	l.metrics.SetAssets(len(l.assets))
}

// notify must run on the coordinator, after publish.
func (l *Library) notify(c domain.Change) {
	c.Version = l.version
	keys := make([]int, 0, len(l.observers))
	for k := range l.observers {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		l.observers[k](c)
	}
}
