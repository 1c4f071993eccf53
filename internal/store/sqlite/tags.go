package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/shutterboxapp/shutterbox/internal/domain"
	"github.com/shutterboxapp/shutterbox/internal/store"
)

const tagColumns = `seq, asset_id, text, created_at`

func scanTag(scanner interface{ Scan(dest ...any) error }) (domain.Tag, error) {
	var (
		t         domain.Tag
		createdAt string
	)
	if err := scanner.Scan(&t.Seq, &t.AssetID, &t.Text, &createdAt); err != nil {
		return domain.Tag{}, err
	}
	var err error
	t.CreatedAt, err = parseTime(createdAt)
	return t, err
}

// InsertTag attaches a tag. The unique (asset_id, fold_key) constraint
// rejects case-insensitive duplicates; the foreign key rejects unknown assets.
func (s *Store) InsertTag(ctx context.Context, t *domain.Tag) error {
	key := t.Key()
	if key == "" {
		return store.ErrInvalidInput.WithMessage("tag text is required")
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	text := domain.NormalizeTagText(t.Text)

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO asset_tags (asset_id, text, fold_key, created_at)
		VALUES (?, ?, ?, ?)`,
		t.AssetID, text, key, formatTime(t.CreatedAt),
	)
	if err != nil {
		return mapConstraint(err, "tag")
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.Text = text
	t.Seq = seq
	return nil
}

// DeleteTag removes the asset's tag matching text case-insensitively.
func (s *Store) DeleteTag(ctx context.Context, assetID, text string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM asset_tags WHERE asset_id = ? AND fold_key = ?`,
		assetID, domain.FoldKey(text))
	if err != nil {
		return err
	}
	return expectRows(res, "tag not found on asset")
}

// DeleteTagEverywhere removes the tag from every asset and returns the ids
// of the assets that carried it.
func (s *Store) DeleteTagEverywhere(ctx context.Context, text string) ([]string, error) {
	key := domain.FoldKey(text)
	var affected []string

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT asset_id FROM asset_tags WHERE fold_key = ? ORDER BY asset_id`, key)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return err
			}
			affected = append(affected, id)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM asset_tags WHERE fold_key = ?`, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return affected, nil
}

// QueryTagsForAsset returns the asset's tags ordered by seq.
func (s *Store) QueryTagsForAsset(ctx context.Context, assetID string) ([]domain.Tag, error) {
	return s.queryTags(ctx,
		`SELECT `+tagColumns+` FROM asset_tags WHERE asset_id = ? ORDER BY seq`, assetID)
}

// QueryAllTags returns every tag ordered by seq.
func (s *Store) QueryAllTags(ctx context.Context) ([]domain.Tag, error) {
	return s.queryTags(ctx, `SELECT `+tagColumns+` FROM asset_tags ORDER BY seq`)
}

func (s *Store) queryTags(ctx context.Context, query string, args ...any) ([]domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []domain.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
