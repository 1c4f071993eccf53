package store

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/shutterboxapp/shutterbox/internal/domain"
)

// CreatePhotoBook stores a new photo-book. Every referenced asset must exist.
func (s *Badger) CreatePhotoBook(ctx context.Context, b *domain.PhotoBook) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		found, err := exists(txn, bookKey(b.ID))
		if err != nil {
			return err
		}
		if found {
			return ErrAlreadyExists.WithMessage("photo-book " + b.ID + " already exists")
		}
		for _, assetID := range b.AssetIDs {
			ok, err := exists(txn, assetKey(assetID))
			if err != nil {
				return err
			}
			if !ok {
				return ErrNotFound.WithMessage("asset " + assetID + " not found")
			}
		}
		return setJSON(txn, bookKey(b.ID), b)
	})
}

// GetPhotoBook returns the photo-book with id.
func (s *Badger) GetPhotoBook(ctx context.Context, id string) (*domain.PhotoBook, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	var b domain.PhotoBook
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, bookKey(id), &b)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound.WithMessage("photo-book " + id + " not found")
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListPhotoBooks returns all photo-books, oldest first.
func (s *Badger) ListPhotoBooks(ctx context.Context) ([]*domain.PhotoBook, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	var out []*domain.PhotoBook
	err := s.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, []byte(bookPrefix), func(_, val []byte) error {
			var b domain.PhotoBook
			if err := json.Unmarshal(val, &b); err != nil {
				return fmt.Errorf("decode photo-book: %w", err)
			}
			out = append(out, &b)
			return nil
		})
	})
	slices.SortFunc(out, func(a, b *domain.PhotoBook) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, err
}

// DeletePhotoBook removes the photo-book with id.
func (s *Badger) DeletePhotoBook(ctx context.Context, id string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		found, err := exists(txn, bookKey(id))
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound.WithMessage("photo-book " + id + " not found")
		}
		return txn.Delete(bookKey(id))
	})
}

// removeFromBooks drops assetID from every photo-book that references it.
func removeFromBooks(txn *badger.Txn, assetID string) error {
	var changed []*domain.PhotoBook
	err := scanPrefix(txn, []byte(bookPrefix), func(_, val []byte) error {
		var b domain.PhotoBook
		if err := json.Unmarshal(val, &b); err != nil {
			return fmt.Errorf("decode photo-book: %w", err)
		}
		if b.RemoveAsset(assetID) {
			changed = append(changed, &b)
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, b := range changed {
		if err := setJSON(txn, bookKey(b.ID), b); err != nil {
			return err
		}
	}
	return nil
}
