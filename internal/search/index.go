package search

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

const (
	indexDir    = "search.bleve"
	versionFile = "search.version"

	// mappingVersion changes with the index mapping. An index stamped with
	// another version is dropped on Open.
	mappingVersion = "1"

	defaultBatchSize = 500
)

// Options configures the search index.
type Options struct {
	// DataPath holds the index on disk. Empty keeps the index in memory.
	DataPath  string
	BatchSize int
	Logger    *slog.Logger
}

// Index wraps a Bleve index of asset documents. It is safe for concurrent
// use; Rebuild excludes every other call.
type Index struct {
	mu        sync.RWMutex
	index     bleve.Index
	dir       string // empty for in-memory indexes
	batchSize int
	logger    *slog.Logger
	created   bool
}

// Open opens the index under opts.DataPath, creating it if needed. An
// unreadable index, or one built with an older mapping, is recreated
// empty and Created reports true.
func Open(opts Options) (*Index, error) {
	s := &Index{
		batchSize: opts.BatchSize,
		logger:    opts.Logger,
	}
	if s.batchSize <= 0 {
		s.batchSize = defaultBatchSize
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}

	if opts.DataPath == "" {
		idx, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create memory index: %w", err)
		}
		s.index, s.created = idx, true
		return s, nil
	}

	if err := os.MkdirAll(opts.DataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	s.dir = opts.DataPath

	idx, err := s.openExisting()
	if err != nil {
		s.logger.Info("recreating search index", "reason", err.Error())
		if idx, err = s.create(); err != nil {
			return nil, err
		}
		s.created = true
	}
	s.index = idx
	return s, nil
}

var errNoIndex = errors.New("no index on disk")

func (s *Index) openExisting() (bleve.Index, error) {
	if _, err := os.Stat(s.indexPath()); errors.Is(err, os.ErrNotExist) {
		return nil, errNoIndex
	}
	v, err := os.ReadFile(filepath.Join(s.dir, versionFile))
	if err != nil {
		return nil, errors.New("missing mapping version")
	}
	if got := strings.TrimSpace(string(v)); got != mappingVersion {
		return nil, fmt.Errorf("mapping version %s, want %s", got, mappingVersion)
	}
	idx, err := bleve.Open(s.indexPath())
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	s.logger.Info("opened search index", "path", s.indexPath())
	return idx, nil
}

// create replaces whatever is on disk with an empty index.
func (s *Index) create() (bleve.Index, error) {
	if s.dir == "" {
		return bleve.NewMemOnly(buildIndexMapping())
	}
	if err := os.RemoveAll(s.indexPath()); err != nil {
		return nil, fmt.Errorf("remove old index: %w", err)
	}
	idx, err := bleve.New(s.indexPath(), buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, versionFile), []byte(mappingVersion), 0o644); err != nil {
		s.logger.Warn("failed to write search version file", "error", err)
	}
	s.logger.Info("created search index", "path", s.indexPath(), "mapping_version", mappingVersion)
	return idx, nil
}

func (s *Index) indexPath() string { return filepath.Join(s.dir, indexDir) }

// Created reports whether Open started from an empty index, so the
// library has to be reindexed.
func (s *Index) Created() bool { return s.created }

// Close closes the index.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexDocument adds or replaces one document.
func (s *Index) IndexDocument(doc *AssetDocument) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(doc.ID, doc.ToMap())
}

// IndexDocuments adds or replaces documents in batches.
func (s *Index) IndexDocuments(docs []*AssetDocument) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for chunk := range slices.Chunk(docs, s.batchSize) {
		b := s.index.NewBatch()
		for _, doc := range chunk {
			if err := b.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(b); err != nil {
			return fmt.Errorf("commit batch of %d: %w", len(chunk), err)
		}
	}
	return nil
}

// DeleteDocument removes a document. Unknown IDs are ignored.
func (s *Index) DeleteDocument(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(id)
}

// DeleteDocuments removes documents in one batch.
func (s *Index) DeleteDocuments(ids []string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := s.index.NewBatch()
	for _, id := range ids {
		b.Delete(id)
	}
	return s.index.Batch(b)
}

// DocumentCount returns the number of indexed documents.
func (s *Index) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops every document by recreating the index.
func (s *Index) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	idx, err := s.create()
	if err != nil {
		return err
	}
	s.index = idx
	return nil
}
