package store

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/shutterboxapp/shutterbox/internal/domain"
)

// assetRecord is the persisted form of an asset. Tags are stored as their
// own records and Selected is not persisted at all.
type assetRecord struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	StoragePath string    `json:"storage_path"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	SizeMB      float64   `json:"size_mb"`
	CreatedAt   time.Time `json:"created_at"`
	Rating      int       `json:"rating"`
	Placeholder string    `json:"placeholder,omitempty"`
}

func toAssetRecord(a *domain.Asset) assetRecord {
	return assetRecord{
		ID:          a.ID,
		FileName:    a.FileName,
		StoragePath: a.StoragePath,
		Width:       a.Width,
		Height:      a.Height,
		SizeMB:      a.SizeMB,
		CreatedAt:   a.CreatedAt.UTC(),
		Rating:      a.Rating,
		Placeholder: a.Placeholder,
	}
}

func (r assetRecord) toDomain(tags []string) *domain.Asset {
	return &domain.Asset{
		ID:          r.ID,
		FileName:    r.FileName,
		StoragePath: r.StoragePath,
		Width:       r.Width,
		Height:      r.Height,
		SizeMB:      r.SizeMB,
		CreatedAt:   r.CreatedAt,
		Rating:      r.Rating,
		Placeholder: r.Placeholder,
		Tags:        tags,
	}
}

// InsertAsset stores a new asset.
func (s *Badger) InsertAsset(ctx context.Context, a *domain.Asset) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	if a.ID == "" {
		return ErrInvalidInput.WithMessage("asset id is required")
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := assetKey(a.ID)
		found, err := exists(txn, key)
		if err != nil {
			return err
		}
		if found {
			return ErrAlreadyExists.WithMessage("asset " + a.ID + " already exists")
		}
		return setJSON(txn, key, toAssetRecord(a))
	})
}

// UpdateAsset overwrites the scalar fields of an existing asset.
func (s *Badger) UpdateAsset(ctx context.Context, a *domain.Asset) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := assetKey(a.ID)
		found, err := exists(txn, key)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound.WithMessage("asset " + a.ID + " not found")
		}
		return setJSON(txn, key, toAssetRecord(a))
	})
}

// DeleteAsset removes the asset with its tags, tag index entries and
// photo-book references.
func (s *Badger) DeleteAsset(ctx context.Context, id string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := assetKey(id)
		found, err := exists(txn, key)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound.WithMessage("asset " + id + " not found")
		}

		tags, err := tagsForAsset(txn, id)
		if err != nil {
			return err
		}
		for _, t := range tags {
			if err := txn.Delete(tagKey(id, t.Key)); err != nil {
				return err
			}
			if err := txn.Delete(tagIndexKey(t.Key, id)); err != nil {
				return err
			}
		}

		if err := removeFromBooks(txn, id); err != nil {
			return err
		}
		return txn.Delete(key)
	})
}

// GetAsset returns the asset with its tags.
func (s *Badger) GetAsset(ctx context.Context, id string) (*domain.Asset, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	var out *domain.Asset
	err := s.db.View(func(txn *badger.Txn) error {
		var rec assetRecord
		if err := getJSON(txn, assetKey(id), &rec); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound.WithMessage("asset " + id + " not found")
			}
			return err
		}
		tags, err := tagsForAsset(txn, id)
		if err != nil {
			return err
		}
		out = rec.toDomain(tagTexts(tags))
		return nil
	})
	return out, err
}

// ListAssets returns every asset ordered by creation time, then id.
func (s *Badger) ListAssets(ctx context.Context) ([]*domain.Asset, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	var out []*domain.Asset
	err := s.db.View(func(txn *badger.Txn) error {
		var records []assetRecord
		err := scanPrefix(txn, []byte(assetPrefix), func(_, val []byte) error {
			var rec assetRecord
			if err := json.Unmarshal(val, &rec); err != nil {
				return fmt.Errorf("decode asset: %w", err)
			}
			records = append(records, rec)
			return nil
		})
		if err != nil {
			return err
		}

		all, err := allTags(txn)
		if err != nil {
			return err
		}
		byAsset := make(map[string][]string)
		for _, t := range all {
			byAsset[t.AssetID] = append(byAsset[t.AssetID], t.Text)
		}

		slices.SortFunc(records, func(a, b assetRecord) int {
			return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
		})
		out = make([]*domain.Asset, len(records))
		for i, rec := range records {
			out[i] = rec.toDomain(byAsset[rec.ID])
		}
		return nil
	})
	return out, err
}
