package images

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStorage(t *testing.T) {
	t.Run("creates nested root", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "nested", "media")

		storage, err := NewStorage(root)
		require.NoError(t, err)

		info, err := os.Stat(storage.Root())
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("returns error for empty path", func(t *testing.T) {
		storage, err := NewStorage("")
		assert.Error(t, err)
		assert.Nil(t, storage)
	})
}

func TestStorage_Create(t *testing.T) {
	storage := setupTestStorage(t)

	f, path, err := storage.Create(".JPG")
	require.NoError(t, err)
	_, err = f.WriteString("data")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.True(t, strings.HasSuffix(path, ".jpg"), "extension is lowercased")
	assert.Equal(t, storage.Root(), filepath.Dir(path))
	assert.True(t, storage.Exists(path))

	size, err := storage.Size(path)
	require.NoError(t, err)
	assert.EqualValues(t, 4, size)
}

func TestStorage_CreateUniqueNames(t *testing.T) {
	storage := setupTestStorage(t)

	const goroutines = 20
	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		paths = make(map[string]bool)
	)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f, path, err := storage.Create(".png")
			if !assert.NoError(t, err) {
				return
			}
			_ = f.Close()
			mu.Lock()
			paths[path] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, paths, goroutines)
}

func TestStorage_Remove(t *testing.T) {
	storage := setupTestStorage(t)

	f, path, err := storage.Create(".png")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, storage.Remove(path))
	assert.False(t, storage.Exists(path))

	// Removing again is a no-op.
	assert.NoError(t, storage.Remove(path))

	outside := filepath.Join(t.TempDir(), "elsewhere.png")
	assert.ErrorIs(t, storage.Remove(outside), ErrOutsideStorage)
}

func TestStorage_Orphans(t *testing.T) {
	storage := setupTestStorage(t)

	var created []string
	for range 3 {
		f, path, err := storage.Create(".png")
		require.NoError(t, err)
		require.NoError(t, f.Close())
		created = append(created, path)
	}

	all, err := storage.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, created, all)

	orphans, err := storage.Orphans(map[string]bool{created[0]: true, created[2]: true})
	require.NoError(t, err)
	assert.Equal(t, []string{created[1]}, orphans)
}

func TestStorage_Path(t *testing.T) {
	storage := setupTestStorage(t)

	assert.Equal(t, filepath.Join(storage.Root(), "a.png"), storage.Path("a.png"))
	assert.Equal(t, filepath.Join(storage.Root(), "a.png"), storage.Path("../../a.png"))
	assert.True(t, storage.Contains(storage.Path("x.jpg")))
}

// setupTestStorage creates a Storage instance with a temporary directory.
func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	storage, err := NewStorage(t.TempDir())
	require.NoError(t, err)
	return storage
}
