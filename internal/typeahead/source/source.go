// Package source provides the catalog backends the index is built from.
package source

import (
	"context"

	"github.com/88clipon/saleor/internal/typeahead/index"
)

// Source lists every searchable record in the backing catalog. Implementations
// must return a self-consistent snapshot of the catalog; the builder never
// writes back.
type Source interface {
	FetchAll(ctx context.Context) ([]index.RawRecord, error)
}

// Static is an in-memory Source for tests and database-less local runs.
type Static struct {
	Records []index.RawRecord
}

func (s *Static) FetchAll(ctx context.Context) ([]index.RawRecord, error) {
	out := make([]index.RawRecord, len(s.Records))
	copy(out, s.Records)
	return out, nil
}
