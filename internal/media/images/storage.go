// Package images owns the managed media directory and the image capabilities
// the ingestion pipeline consumes: dimension decoding and BlurHash
// placeholders.
package images

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrOutsideStorage is returned for paths that are not managed files.
var ErrOutsideStorage = errors.New("path is outside managed storage")

// Storage is the managed media directory. Files are named with a random
// token plus the original extension, so names never collide.
type Storage struct {
	root string
	mu   sync.RWMutex
}

// NewStorage creates root if needed.
func NewStorage(root string) (*Storage, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root cannot be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Storage{root: abs}, nil
}

// Root returns the managed directory.
func (s *Storage) Root() string { return s.root }

// NewName returns a fresh storage name: uuid + lowercased extension.
func NewName(ext string) string {
	return uuid.NewString() + strings.ToLower(ext)
}

// Create opens a new, exclusively created file for ext and returns it with
// its full path. The caller owns the file and must close it.
func (s *Storage) Create(ext string) (*os.File, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.root, NewName(ext))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) //#nosec G304 -- name is generated
	if err != nil {
		return nil, "", fmt.Errorf("create managed file: %w", err)
	}
	return f, path, nil
}

// Contains reports whether path names a file directly inside the root.
func (s *Storage) Contains(path string) bool {
	return filepath.Dir(filepath.Clean(path)) == s.root
}

// Path returns the full path of a managed file name.
func (s *Storage) Path(name string) string {
	return filepath.Join(s.root, filepath.Base(name))
}

// Remove deletes a managed file. Missing files are not an error.
func (s *Storage) Remove(path string) error {
	if !s.Contains(path) {
		return ErrOutsideStorage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove managed file: %w", err)
	}
	return nil
}

// Exists reports whether a managed file is present.
func (s *Storage) Exists(path string) bool {
	if !s.Contains(path) {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := os.Stat(path)
	return err == nil
}

// Size returns the byte size of a managed file.
func (s *Storage) Size(path string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// List returns the full paths of every managed file.
func (s *Storage) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read storage root: %w", err)
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			paths = append(paths, filepath.Join(s.root, e.Name()))
		}
	}
	return paths, nil
}

// Orphans lists managed files whose path is not in known.
func (s *Storage) Orphans(known map[string]bool) ([]string, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, p := range all {
		if !known[p] {
			out = append(out, p)
		}
	}
	return out, nil
}
