package index

import (
	"time"

	"github.com/88clipon/saleor/internal/typeahead/trie"
)

// Snapshot is one fully built, immutable instance of the index. A snapshot is
// published once and never mutated, so any number of readers may share it
// while a replacement is built off to the side.
type Snapshot struct {
	Trie          *trie.Trie[SearchEntry]
	BuiltAt       time.Time
	NodeCount     int
	TerminalCount int
	// Skipped counts malformed records dropped during the build.
	Skipped       int
	BuildDuration time.Duration
}

// Age returns how long ago the snapshot was built.
func (s *Snapshot) Age() time.Duration {
	return time.Since(s.BuiltAt)
}
