package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shutterboxapp/shutterbox/internal/domain"
	"github.com/shutterboxapp/shutterbox/internal/store"
)

// assetColumns must match the scan order in scanAsset.
const assetColumns = `id, file_name, storage_path, width, height, size_mb, created_at, rating, placeholder`

func scanAsset(scanner interface{ Scan(dest ...any) error }) (*domain.Asset, error) {
	var (
		a           domain.Asset
		createdAt   string
		placeholder sql.NullString
	)
	err := scanner.Scan(&a.ID, &a.FileName, &a.StoragePath, &a.Width, &a.Height,
		&a.SizeMB, &createdAt, &a.Rating, &placeholder)
	if err != nil {
		return nil, err
	}
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	a.Placeholder = placeholder.String
	return &a, nil
}

// InsertAsset stores a new asset row.
func (s *Store) InsertAsset(ctx context.Context, a *domain.Asset) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assets (`+assetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.FileName, a.StoragePath, a.Width, a.Height, a.SizeMB,
		formatTime(a.CreatedAt), a.Rating, nullString(a.Placeholder),
	)
	return mapConstraint(err, "asset "+a.ID)
}

// UpdateAsset overwrites the mutable columns of an asset.
func (s *Store) UpdateAsset(ctx context.Context, a *domain.Asset) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE assets
		SET file_name = ?, storage_path = ?, width = ?, height = ?, size_mb = ?,
		    rating = ?, placeholder = ?
		WHERE id = ?`,
		a.FileName, a.StoragePath, a.Width, a.Height, a.SizeMB,
		a.Rating, nullString(a.Placeholder), a.ID,
	)
	if err != nil {
		return mapConstraint(err, "asset "+a.ID)
	}
	return expectRows(res, "asset "+a.ID+" not found")
}

// DeleteAsset removes an asset. Tags and photo-book entries cascade.
func (s *Store) DeleteAsset(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectRows(res, "asset "+id+" not found")
}

// GetAsset returns an asset with its tags in insertion order.
func (s *Store) GetAsset(ctx context.Context, id string) (*domain.Asset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = ?`, id)
	a, err := scanAsset(row)
	if isNoRows(err) {
		return nil, store.ErrNotFound.WithMessage("asset " + id + " not found")
	}
	if err != nil {
		return nil, err
	}

	tags, err := s.QueryTagsForAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		a.Tags = append(a.Tags, t.Text)
	}
	return a, nil
}

// ListAssets returns every asset ordered by creation time, then id.
func (s *Store) ListAssets(ctx context.Context) ([]*domain.Asset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+assetColumns+` FROM assets ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []*domain.Asset
	byID := make(map[string]*domain.Asset)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
		byID[a.ID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tags, err := s.QueryAllTags(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		if a, ok := byID[t.AssetID]; ok {
			a.Tags = append(a.Tags, t.Text)
		}
	}
	return assets, nil
}
