package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shutterboxapp/shutterbox/internal/domain"
	"github.com/shutterboxapp/shutterbox/internal/store"
	"github.com/shutterboxapp/shutterbox/internal/store/storetest"
)

func newTestBadger(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewInMemoryBadger(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBadger_Contract(t *testing.T) {
	storetest.Run(t, newTestBadger)
}

func TestBadger_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "db")

	s, err := store.NewBadger(dir, nil)
	require.NoError(t, err)
	require.NoError(t, s.InsertAsset(ctx, storetest.NewAsset("ast-1", 0)))
	first := &domain.Tag{AssetID: "ast-1", Text: "kept"}
	require.NoError(t, s.InsertTag(ctx, first))
	require.NoError(t, s.Close())

	s, err = store.NewBadger(dir, nil)
	require.NoError(t, err)
	defer s.Close()

	a, err := s.GetAsset(ctx, "ast-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, a.Tags)

	// Sequence numbers keep increasing after a restart.
	second := &domain.Tag{AssetID: "ast-1", Text: "later"}
	require.NoError(t, s.InsertTag(ctx, second))
	assert.Greater(t, second.Seq, first.Seq)
}

func TestBadger_CanceledContext(t *testing.T) {
	s := newTestBadger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.InsertAsset(ctx, storetest.NewAsset("ast-1", 0))
	assert.ErrorIs(t, err, context.Canceled)
}
