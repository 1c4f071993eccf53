package library

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shutterboxapp/shutterbox/internal/clock"
	"github.com/shutterboxapp/shutterbox/internal/domain"
	domainerrors "github.com/shutterboxapp/shutterbox/internal/errors"
	"github.com/shutterboxapp/shutterbox/internal/logger"
	"github.com/shutterboxapp/shutterbox/internal/store"
	"github.com/shutterboxapp/shutterbox/internal/validation"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func setupLibrary(t *testing.T) (*Library, store.Store, *clock.Fake) {
	t.Helper()
	s, err := store.NewInMemoryBadger(logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	c := clock.NewFake(epoch)
	l := New(s, validation.New(), c, nil, logger.Discard())
	t.Cleanup(func() { _ = l.Shutdown() })
	return l, s, c
}

func testAsset(n int) domain.Asset {
	return domain.Asset{
		ID:          fmt.Sprintf("ast-%02d", n),
		FileName:    fmt.Sprintf("photo-%d.jpg", n),
		StoragePath: fmt.Sprintf("/media/%d.jpg", n),
		Width:       100 * n,
		Height:      50 * n,
		SizeMB:      0.5,
		CreatedAt:   epoch.Add(time.Duration(n) * time.Hour),
	}
}

func commit(t *testing.T, l *Library, n int) domain.Asset {
	t.Helper()
	a, err := l.Commit(context.Background(), testAsset(n))
	require.NoError(t, err)
	return a
}

func TestCommit(t *testing.T) {
	l, s, _ := setupLibrary(t)
	ctx := context.Background()

	var changes []domain.Change
	unsubscribe := l.Subscribe(func(c domain.Change) { changes = append(changes, c) })
	defer unsubscribe()

	a := commit(t, l, 1)
	assert.Equal(t, []string{}, a.Tags)

	snap := l.Snapshot()
	assert.Equal(t, 1, snap.Len())
	assert.True(t, snap.Contains(a.ID))

	stored, err := s.GetAsset(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.FileName, stored.FileName)

	require.Len(t, changes, 1)
	assert.Equal(t, domain.ChangeAssetAdded, changes[0].Kind)
	assert.Equal(t, snap.Version(), changes[0].Version)
}

func TestCommit_RejectsInvalidAndDuplicate(t *testing.T) {
	l, _, _ := setupLibrary(t)
	ctx := context.Background()

	bad := testAsset(1)
	bad.Width = 0
	_, err := l.Commit(ctx, bad)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	commit(t, l, 1)
	_, err = l.Commit(ctx, testAsset(1))
	assert.True(t, domainerrors.Is(err, domainerrors.ErrAlreadyExists))
	assert.Equal(t, 1, l.Snapshot().Len(), "failed commit leaves library unchanged")
}

func TestSnapshotsAreImmutable(t *testing.T) {
	l, _, _ := setupLibrary(t)
	ctx := context.Background()

	a := commit(t, l, 1)
	before := l.Snapshot()

	_, err := l.AddTag(ctx, a.ID, "sunset")
	require.NoError(t, err)

	old, _ := before.Get(a.ID)
	assert.Empty(t, old.Tags)

	now, _ := l.Snapshot().Get(a.ID)
	assert.Equal(t, []string{"sunset"}, now.Tags)
	assert.Greater(t, l.Snapshot().Version(), before.Version())
}

func TestDelete(t *testing.T) {
	l, s, _ := setupLibrary(t)
	ctx := context.Background()

	a := commit(t, l, 1)
	b := commit(t, l, 2)
	_, err := l.AddTag(ctx, a.ID, "nature")
	require.NoError(t, err)

	removed, err := l.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, removed.ID)

	assert.False(t, l.Snapshot().Contains(a.ID))
	got, err := l.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	tags, err := s.QueryAllTags(ctx)
	require.NoError(t, err)
	assert.Empty(t, tags, "tags cascade with the asset")

	_, err = l.Delete(ctx, a.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestSetRating(t *testing.T) {
	l, s, _ := setupLibrary(t)
	ctx := context.Background()
	a := commit(t, l, 1)

	updated, err := l.SetRating(ctx, a.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Rating)

	stored, err := s.GetAsset(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Rating)

	_, err = l.SetRating(ctx, a.ID, 6)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	_, err = l.SetRating(ctx, "ast-missing", 1)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestSetPlaceholder(t *testing.T) {
	l, s, _ := setupLibrary(t)
	ctx := context.Background()
	a := commit(t, l, 1)
	before := l.Snapshot().Version()

	updated, err := l.SetPlaceholder(ctx, a.ID, "LEHV6nWB2yk8")
	require.NoError(t, err)
	assert.Equal(t, "LEHV6nWB2yk8", updated.Placeholder)

	stored, err := s.GetAsset(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "LEHV6nWB2yk8", stored.Placeholder)

	_, err = l.SetPlaceholder(ctx, a.ID, "LEHV6nWB2yk8")
	require.NoError(t, err)
	assert.Equal(t, before+1, l.Snapshot().Version(), "unchanged placeholder does not publish")
}

func TestSetSelected_NotPersisted(t *testing.T) {
	l, s, _ := setupLibrary(t)
	ctx := context.Background()
	a := commit(t, l, 1)

	updated, err := l.SetSelected(ctx, a.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.Selected)

	stored, err := s.GetAsset(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, stored.Selected)

	require.NoError(t, l.Load(ctx))
	reloaded, err := l.Get(a.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.Selected)
}

func TestLoad(t *testing.T) {
	s, err := store.NewInMemoryBadger(logger.Discard())
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	first := New(s, validation.New(), clock.NewFake(epoch), nil, logger.Discard())
	a, err := first.Commit(ctx, testAsset(1))
	require.NoError(t, err)
	_, err = first.AddTag(ctx, a.ID, "Family")
	require.NoError(t, err)
	require.NoError(t, first.Shutdown())

	second := New(s, validation.New(), clock.NewFake(epoch), nil, logger.Discard())
	defer second.Shutdown()
	require.NoError(t, second.Load(ctx))

	got, err := second.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Family"}, got.Tags)
}

func TestShutdown(t *testing.T) {
	l, _, _ := setupLibrary(t)
	require.NoError(t, l.Shutdown())
	require.NoError(t, l.Shutdown(), "shutdown is idempotent")

	_, err := l.Commit(context.Background(), testAsset(1))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestConcurrentMutationsAreSerialized(t *testing.T) {
	l, _, _ := setupLibrary(t)
	ctx := context.Background()
	a := commit(t, l, 1)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.AddTag(ctx, a.ID, fmt.Sprintf("tag %d", i))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := l.Get(a.ID)
	require.NoError(t, err)
	assert.Len(t, got.Tags, 20)
}
