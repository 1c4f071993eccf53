// Package id generates prefixed, URL-safe identifiers.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the entities that carry generated ids.
const (
	PrefixAsset     = "ast"
	PrefixPhotoBook = "pb"
	PrefixClient    = "cli"
	PrefixBatch     = "imp"
)

const nanoidLength = 21

// Generate returns prefix-<nanoid>, e.g. "ast-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	n, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + n, nil
}

// MustGenerate panics when the system has no entropy.
func MustGenerate(prefix string) string {
	v, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("generate id: %v", err))
	}
	return v
}

// NewAsset returns a new asset id.
func NewAsset() (string, error) { return Generate(PrefixAsset) }

// NewPhotoBook returns a new photo-book id.
func NewPhotoBook() (string, error) { return Generate(PrefixPhotoBook) }

// NewBatch returns a new import batch id.
func NewBatch() (string, error) { return Generate(PrefixBatch) }

// HasPrefix reports whether v looks like an id minted with prefix.
func HasPrefix(v, prefix string) bool {
	rest, ok := strings.CutPrefix(v, prefix+"-")
	return ok && len(rest) == nanoidLength
}
