// Package typeid mints the prefixed, time-sortable ids used for accounts,
// documents and everything stored inside a document.
package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixUser     = "user"
	PrefixDocument = "doc"
	PrefixSnapshot = "snap"
	PrefixPage     = "page"
	PrefixLayer    = "layer"
	PrefixAsset    = "asset"
)

func New(prefix string) string {
	return typeid.MustGenerate(prefix).String()
}

func NewUserID() string     { return New(PrefixUser) }
func NewDocumentID() string { return New(PrefixDocument) }
func NewSnapshotID() string { return New(PrefixSnapshot) }
func NewPageID() string     { return New(PrefixPage) }
func NewLayerID() string    { return New(PrefixLayer) }
func NewAssetID() string    { return New(PrefixAsset) }

// Validate checks that id parses and carries prefix.
func Validate(id, prefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid %s id %q: %w", prefix, id, err)
	}
	if got := parsed.Prefix(); got != prefix {
		return fmt.Errorf("id %q has prefix %q, want %q", id, got, prefix)
	}
	return nil
}

// IsDocumentID reports whether id could name a stored document.
func IsDocumentID(id string) bool {
	return Validate(id, PrefixDocument) == nil
}
