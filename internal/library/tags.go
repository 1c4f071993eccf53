package library

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/shutterboxapp/shutterbox/internal/domain"
	domainerrors "github.com/shutterboxapp/shutterbox/internal/errors"
	"github.com/shutterboxapp/shutterbox/internal/store"
)

// TagResult reports the outcome of AddTag.
type TagResult int

const (
	TagAdded TagResult = iota + 1
	// TagAlreadyExists is a no-op: the asset already has the tag in some casing.
	TagAlreadyExists
)

func (r TagResult) String() string {
	switch r {
	case TagAdded:
		return "added"
	case TagAlreadyExists:
		return "already_exists"
	default:
		return "unknown"
	}
}

// TagErrorKind classifies tag failures.
type TagErrorKind int

const (
	TagInvalidText TagErrorKind = iota + 1
)

// TagError is returned for tag text rejected before any mutation. It
// unwraps to a domain validation error.
type TagError struct {
	Kind TagErrorKind
	Text string
	Err  error
}

func (e *TagError) Error() string {
	return fmt.Sprintf("invalid tag text %q: %v", e.Text, e.Err)
}

func (e *TagError) Unwrap() error { return e.Err }

func (l *Library) checkTagText(raw string) (string, error) {
	text := domain.NormalizeTagText(raw)
	if err := l.validator.TagText(text); err != nil {
		return "", &TagError{Kind: TagInvalidText, Text: raw, Err: err}
	}
	return text, nil
}

// AddTag attaches text to the asset unless a case-insensitively equal tag
// is already present, in which case the existing casing is kept.
func (l *Library) AddTag(ctx context.Context, assetID, text string) (TagResult, error) {
	text, err := l.checkTagText(text)
	if err != nil {
		return 0, err
	}

	var result TagResult
	if postErr := l.do(ctx, func() {
		i, ok := l.index[assetID]
		if !ok {
			err = domainerrors.NotFoundf("asset %s not found", assetID)
			return
		}
		a := &l.assets[i]
		if a.HasTag(text) {
			result = TagAlreadyExists
			return
		}

		tag := &domain.Tag{AssetID: assetID, Text: text, CreatedAt: l.clock.Now().UTC()}
		if err = l.store.InsertTag(ctx, tag); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				result, err = TagAlreadyExists, nil
				return
			}
			err = store.AsDomainError(err)
			return
		}

		a.Tags = append(slices.Clone(a.Tags), text)
		result = TagAdded
		l.publish()
		l.notify(domain.Change{Kind: domain.ChangeTagAdded, Asset: a.Clone(), Tag: text})
	}); postErr != nil {
		return 0, postErr
	}
	if err != nil {
		return 0, err
	}

	l.logger.Debug("tag added", "asset_id", assetID, "tag", text, "result", result.String())
	return result, nil
}

// RemoveTag removes the tag matching text case-insensitively and reports
// whether one was removed.
func (l *Library) RemoveTag(ctx context.Context, assetID, text string) (bool, error) {
	text = domain.NormalizeTagText(text)

	var (
		removed bool
		err     error
	)
	if postErr := l.do(ctx, func() {
		i, ok := l.index[assetID]
		if !ok {
			err = domainerrors.NotFoundf("asset %s not found", assetID)
			return
		}
		a := &l.assets[i]
		j := a.FindTag(text)
		if j < 0 {
			return
		}

		if err = l.store.DeleteTag(ctx, assetID, text); err != nil && !errors.Is(err, store.ErrNotFound) {
			err = store.AsDomainError(err)
			return
		}
		err = nil

		existing := a.Tags[j]
		a.Tags = slices.Delete(slices.Clone(a.Tags), j, j+1)
		removed = true
		l.publish()
		l.notify(domain.Change{Kind: domain.ChangeTagRemoved, Asset: a.Clone(), Tag: existing})
	}); postErr != nil {
		return false, postErr
	}
	return removed, err
}

// ListUniqueTags returns the library vocabulary: one entry per
// case-insensitive group, in the casing first used, sorted ignoring case.
func (l *Library) ListUniqueTags(ctx context.Context) ([]string, error) {
	tags, err := l.store.QueryAllTags(ctx)
	if err != nil {
		return nil, store.AsDomainError(err)
	}
	return domain.Vocabulary(tags), nil
}

// DeleteTagEverywhere removes text from every asset that carries it and
// returns how many assets changed. No match is not an error.
func (l *Library) DeleteTagEverywhere(ctx context.Context, text string) (int, error) {
	text, err := l.checkTagText(text)
	if err != nil {
		return 0, err
	}

	var affected []string
	if postErr := l.do(ctx, func() {
		if _, err = l.store.DeleteTagEverywhere(ctx, text); err != nil {
			err = store.AsDomainError(err)
			return
		}

		for i := range l.assets {
			a := &l.assets[i]
			if j := a.FindTag(text); j >= 0 {
				a.Tags = slices.Delete(slices.Clone(a.Tags), j, j+1)
				affected = append(affected, a.ID)
			}
		}
		if len(affected) == 0 {
			return
		}
		l.publish()
		l.notify(domain.Change{Kind: domain.ChangeTagDeleted, Tag: text, AssetIDs: slices.Clone(affected)})
	}); postErr != nil {
		return 0, postErr
	}
	if err != nil {
		return 0, err
	}

	l.logger.Info("tag deleted everywhere", "tag", text, "assets", len(affected))
	return len(affected), nil
}
