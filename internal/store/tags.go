package store

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/shutterboxapp/shutterbox/internal/domain"
)

type tagRecord struct {
	AssetID   string    `json:"asset_id"`
	Text      string    `json:"text"`
	Key       string    `json:"key"`
	Seq       int64     `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}

func (r tagRecord) toDomain() domain.Tag {
	return domain.Tag{AssetID: r.AssetID, Text: r.Text, Seq: r.Seq, CreatedAt: r.CreatedAt}
}

// InsertTag attaches a tag to an existing asset.
func (s *Badger) InsertTag(ctx context.Context, t *domain.Tag) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	key := t.Key()
	if key == "" {
		return ErrInvalidInput.WithMessage("tag text is required")
	}

	seq, err := s.tagSeq.Next()
	if err != nil {
		return fmt.Errorf("next tag sequence: %w", err)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	rec := tagRecord{
		AssetID:   t.AssetID,
		Text:      domain.NormalizeTagText(t.Text),
		Key:       key,
		Seq:       int64(seq) + 1,
		CreatedAt: t.CreatedAt.UTC(),
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		found, err := exists(txn, assetKey(t.AssetID))
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound.WithMessage("asset " + t.AssetID + " not found")
		}

		dup, err := exists(txn, tagKey(t.AssetID, key))
		if err != nil {
			return err
		}
		if dup {
			return ErrAlreadyExists.WithMessage("tag already exists on asset")
		}

		if err := setJSON(txn, tagKey(t.AssetID, key), rec); err != nil {
			return err
		}
		return txn.Set(tagIndexKey(key, t.AssetID), nil)
	})
	if err != nil {
		return err
	}

	t.Text = rec.Text
	t.Seq = rec.Seq
	return nil
}

// DeleteTag removes the tag on assetID matching text case-insensitively.
func (s *Badger) DeleteTag(ctx context.Context, assetID, text string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	key := domain.FoldKey(text)

	return s.db.Update(func(txn *badger.Txn) error {
		found, err := exists(txn, tagKey(assetID, key))
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound.WithMessage("tag not found on asset")
		}
		if err := txn.Delete(tagKey(assetID, key)); err != nil {
			return err
		}
		return txn.Delete(tagIndexKey(key, assetID))
	})
}

// DeleteTagEverywhere removes the tag from every asset. Matching nothing is
// not an error.
func (s *Badger) DeleteTagEverywhere(ctx context.Context, text string) ([]string, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	key := domain.FoldKey(text)
	prefix := tagIndexPrefix(key)

	var affected []string
	err := s.db.Update(func(txn *badger.Txn) error {
		affected = affected[:0]
		for _, idx := range scanKeys(txn, prefix) {
			assetID := string(idx[len(prefix):])
			if err := txn.Delete(tagKey(assetID, key)); err != nil {
				return err
			}
			if err := txn.Delete(idx); err != nil {
				return err
			}
			affected = append(affected, assetID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(affected)
	return affected, nil
}

// QueryTagsForAsset returns the asset's tags ordered by Seq.
func (s *Badger) QueryTagsForAsset(ctx context.Context, assetID string) ([]domain.Tag, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	var out []domain.Tag
	err := s.db.View(func(txn *badger.Txn) error {
		recs, err := tagsForAsset(txn, assetID)
		if err != nil {
			return err
		}
		out = make([]domain.Tag, len(recs))
		for i, r := range recs {
			out[i] = r.toDomain()
		}
		return nil
	})
	return out, err
}

// QueryAllTags returns every tag in the library ordered by Seq.
func (s *Badger) QueryAllTags(ctx context.Context) ([]domain.Tag, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	var out []domain.Tag
	err := s.db.View(func(txn *badger.Txn) error {
		recs, err := allTags(txn)
		if err != nil {
			return err
		}
		out = make([]domain.Tag, len(recs))
		for i, r := range recs {
			out[i] = r.toDomain()
		}
		return nil
	})
	return out, err
}

func tagsForAsset(txn *badger.Txn, assetID string) ([]tagRecord, error) {
	return collectTags(txn, assetTagsPrefix(assetID))
}

func allTags(txn *badger.Txn) ([]tagRecord, error) {
	return collectTags(txn, []byte(tagPrefix))
}

func collectTags(txn *badger.Txn, prefix []byte) ([]tagRecord, error) {
	var recs []tagRecord
	err := scanPrefix(txn, prefix, func(_, val []byte) error {
		var r tagRecord
		if err := json.Unmarshal(val, &r); err != nil {
			return fmt.Errorf("decode tag: %w", err)
		}
		recs = append(recs, r)
		return nil
	})
	slices.SortFunc(recs, func(a, b tagRecord) int { return cmp.Compare(a.Seq, b.Seq) })
	return recs, err
}

func tagTexts(recs []tagRecord) []string {
	if len(recs) == 0 {
		return nil
	}
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Text
	}
	return out
}
