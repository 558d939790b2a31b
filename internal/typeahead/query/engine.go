// Package query walks the index for a prefix and ranks what it finds.
//
// Ranking is deterministic: exact matches outrank prefix-only matches, then
// higher frequency wins, then the shorter matched text, then ascending source
// ID, then folded text, then kind. The full chain makes search(P, k) a prefix
// of search(P, k+1) for any snapshot.
package query

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/88clipon/saleor/internal/typeahead/cache"
	"github.com/88clipon/saleor/internal/typeahead/index"
	apperrors "github.com/88clipon/saleor/pkg/errors"
)

// exactMatchBoost dominates any realistic frequency so an exact match always
// outranks a longer completion.
const exactMatchBoost = 1_000_000

// Result is one ranked search hit.
type Result struct {
	index.SearchEntry
	Score float64 `json:"score"`
}

// Engine executes prefix searches against the cache manager's current
// snapshot.
type Engine struct {
	cache     *cache.Manager
	minPrefix int
}

// New creates an Engine. minPrefix is the shortest prefix that returns
// results; shorter queries yield an empty result set by policy rather than
// an error, to keep single-character queries from sweeping the whole index.
func New(c *cache.Manager, minPrefix int) *Engine {
	return &Engine{cache: c, minPrefix: minPrefix}
}

// Search returns up to limit entries whose indexed text starts with prefix,
// case-insensitively. A non-positive limit is an invalid argument. kinds,
// when non-empty, restricts results to those kinds before ranking.
func (e *Engine) Search(ctx context.Context, prefix string, limit int, kinds []index.Kind) ([]Result, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", apperrors.ErrInvalidArgument, limit)
	}

	folded := strings.ToLower(strings.TrimSpace(prefix))
	if len([]rune(folded)) < e.minPrefix {
		return []Result{}, nil
	}

	snap, err := e.cache.Get(ctx)
	if err != nil {
		return nil, err
	}

	entries := snap.Trie.Collect(folded)
	if len(entries) == 0 {
		return []Result{}, nil
	}

	if len(kinds) > 0 {
		entries = filterKinds(entries, kinds)
	}

	results := make([]Result, 0, len(entries))
	for _, entry := range entries {
		results = append(results, Result{
			SearchEntry: entry,
			Score:       score(entry, folded),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if la, lb := len(a.MatchedText), len(b.MatchedText); la != lb {
			return la < lb
		}
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		if fa, fb := strings.ToLower(a.MatchedText), strings.ToLower(b.MatchedText); fa != fb {
			return fa < fb
		}
		return a.Kind < b.Kind
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// MinPrefix returns the configured minimum prefix length.
func (e *Engine) MinPrefix() int {
	return e.minPrefix
}

func score(entry index.SearchEntry, folded string) float64 {
	s := float64(entry.Frequency)
	if strings.ToLower(entry.MatchedText) == folded {
		s += exactMatchBoost
	}
	return s
}

func filterKinds(entries []index.SearchEntry, kinds []index.Kind) []index.SearchEntry {
	allowed := make(map[index.Kind]struct{}, len(kinds))
	for _, k := range kinds {
		allowed[k] = struct{}{}
	}
	out := entries[:0:0]
	for _, e := range entries {
		if _, ok := allowed[e.Kind]; ok {
			out = append(out, e)
		}
	}
	return out
}
