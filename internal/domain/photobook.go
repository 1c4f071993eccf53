package domain

import (
	"slices"
	"time"
)

// DefaultPageSize bounds pages of the fixed photo-book layout.
const DefaultPageSize = 4

// PhotoBook is an ordered sequence of pages of assets. PageSize 0 keeps every
// asset on a single unbounded page, the form used for masonry pages.
type PhotoBook struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	PageSize  int       `json:"page_size"`
	AssetIDs  []string  `json:"asset_ids"`
	CreatedAt time.Time `json:"created_at"`
}

// Pages chunks the book's assets into pages on demand.
func (b *PhotoBook) Pages() [][]string {
	return Paginate(b.AssetIDs, b.PageSize)
}

// Page returns page n (zero based) and whether it exists.
func (b *PhotoBook) Page(n int) ([]string, bool) {
	pages := b.Pages()
	if n < 0 || n >= len(pages) {
		return nil, false
	}
	return pages[n], true
}

// RemoveAsset drops id from the book, keeping the remaining order.
func (b *PhotoBook) RemoveAsset(id string) bool {
	before := len(b.AssetIDs)
	b.AssetIDs = slices.DeleteFunc(b.AssetIDs, func(v string) bool { return v == id })
	return len(b.AssetIDs) != before
}

// Paginate splits ids into pages of size; size <= 0 yields one page.
// An empty list yields no pages.
func Paginate(ids []string, size int) [][]string {
	if len(ids) == 0 {
		return nil
	}
	if size <= 0 {
		return [][]string{slices.Clone(ids)}
	}
	pages := make([][]string, 0, (len(ids)+size-1)/size)
	for chunk := range slices.Chunk(ids, size) {
		pages = append(pages, slices.Clone(chunk))
	}
	return pages
}
