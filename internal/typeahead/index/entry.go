// Package index builds immutable trie snapshots from catalog records.
package index

import (
	"fmt"

	apperrors "github.com/88clipon/saleor/pkg/errors"
)

// Kind categorises which representation of a record an entry was indexed
// from.
type Kind string

const (
	KindPrimaryName    Kind = "primary_name"
	KindVariantName    Kind = "variant_name"
	KindCodeIdentifier Kind = "code_identifier"
	KindAliasSlug      Kind = "alias_slug"
)

// Kinds lists every valid kind, in filter-display order.
var Kinds = []Kind{KindPrimaryName, KindVariantName, KindCodeIdentifier, KindAliasSlug}

// ParseKind validates a kind name from the API boundary.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown kind %q", apperrors.ErrInvalidArgument, s)
}

// SearchEntry is a single indexed fact. Entries are created during a build
// and never mutated afterwards.
type SearchEntry struct {
	// SourceID identifies the originating catalog record.
	SourceID string `json:"source_id"`
	// MatchedText is the literal inserted string in its original casing;
	// the lower-cased form is what the trie matches on.
	MatchedText string `json:"matched_text"`
	Kind        Kind   `json:"kind"`
	// Frequency is a ranking weight. Defaults to 1 when the record
	// carries none.
	Frequency int `json:"frequency"`
	// Metadata is passed through to the caller uninterpreted.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// RawRecord is what the backing catalog source yields for one searchable
// record: every representation that should be findable by prefix.
type RawRecord struct {
	SourceID        string            `json:"source_id"`
	PrimaryName     string            `json:"primary_name"`
	AliasSlug       string            `json:"alias_slug,omitempty"`
	IdentifierCodes []string          `json:"identifier_codes,omitempty"`
	VariantNames    []string          `json:"variant_names,omitempty"`
	Frequency       int               `json:"frequency,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}
