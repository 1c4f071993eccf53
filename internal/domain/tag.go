package domain

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Tag is a free-text label attached to one asset. Seq orders tags by their
// first insertion across the whole library.
type Tag struct {
	AssetID   string    `json:"asset_id"`
	Text      string    `json:"text"`
	Seq       int64     `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}

// Key returns the case-insensitive identity of the tag.
func (t Tag) Key() string {
	return FoldKey(t.Text)
}

// NormalizeTagText trims surrounding whitespace and composes the text to NFC
// so visually identical tags compare equal. Casing is preserved.
func NormalizeTagText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

// FoldKey is the case-insensitive comparison key for tag text.
// A Caser is stateful, so one is built per call.
func FoldKey(text string) string {
	return cases.Fold().String(NormalizeTagText(text))
}

// Vocabulary groups tags case-insensitively, keeps the casing of the
// earliest tag in each group and sorts the result case-insensitively.
// Tags are ordered by Seq before grouping, so input order does not matter.
func Vocabulary(tags []Tag) []string {
	ordered := slices.Clone(tags)
	slices.SortStableFunc(ordered, func(a, b Tag) int {
		return cmp.Compare(a.Seq, b.Seq)
	})

	seen := make(map[string]bool, len(ordered))
	type entry struct{ key, text string }
	out := make([]entry, 0, len(ordered))
	for _, t := range ordered {
		key := t.Key()
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, entry{key: key, text: NormalizeTagText(t.Text)})
	}

	slices.SortFunc(out, func(a, b entry) int {
		if c := strings.Compare(a.key, b.key); c != 0 {
			return c
		}
		return strings.Compare(a.text, b.text)
	})

	texts := make([]string, len(out))
	for i, e := range out {
		texts[i] = e.text
	}
	return texts
}
