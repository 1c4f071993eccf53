package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shutterboxapp/shutterbox/internal/domain"
	"github.com/shutterboxapp/shutterbox/internal/store"
)

// CreatePhotoBook inserts the book and its ordered items in one transaction.
func (s *Store) CreatePhotoBook(ctx context.Context, b *domain.PhotoBook) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO photobooks (id, name, page_size, created_at) VALUES (?, ?, ?, ?)`,
			b.ID, b.Name, b.PageSize, formatTime(b.CreatedAt))
		if err != nil {
			return mapConstraint(err, "photo-book "+b.ID)
		}

		for pos, assetID := range b.AssetIDs {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO photobook_items (photobook_id, position, asset_id) VALUES (?, ?, ?)`,
				b.ID, pos, assetID)
			if err != nil {
				return mapConstraint(err, "photo-book item")
			}
		}
		return nil
	})
}

// GetPhotoBook returns the book with its items in page order.
func (s *Store) GetPhotoBook(ctx context.Context, id string) (*domain.PhotoBook, error) {
	var (
		b         domain.PhotoBook
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, page_size, created_at FROM photobooks WHERE id = ?`, id).
		Scan(&b.ID, &b.Name, &b.PageSize, &createdAt)
	if isNoRows(err) {
		return nil, store.ErrNotFound.WithMessage("photo-book " + id + " not found")
	}
	if err != nil {
		return nil, err
	}
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	if b.AssetIDs, err = s.bookItems(ctx, id); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListPhotoBooks returns every book, oldest first.
func (s *Store) ListPhotoBooks(ctx context.Context) ([]*domain.PhotoBook, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, page_size, created_at FROM photobooks ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*domain.PhotoBook
	for rows.Next() {
		var (
			b         domain.PhotoBook
			createdAt string
		)
		if err := rows.Scan(&b.ID, &b.Name, &b.PageSize, &createdAt); err != nil {
			return nil, err
		}
		if b.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		books = append(books, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for _, b := range books {
		if b.AssetIDs, err = s.bookItems(ctx, b.ID); err != nil {
			return nil, err
		}
	}
	return books, nil
}

// DeletePhotoBook removes the book; its items cascade.
func (s *Store) DeletePhotoBook(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM photobooks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectRows(res, "photo-book "+id+" not found")
}

func (s *Store) bookItems(ctx context.Context, bookID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT asset_id FROM photobook_items WHERE photobook_id = ? ORDER BY position`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
