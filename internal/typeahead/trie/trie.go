// Package trie implements the prefix tree backing the type-ahead index.
//
// Matching is case-folded with strings.ToLower only; accented characters are
// not folded to their base form, so a query matches accented text only when
// typed accented. Non-alphanumeric characters (hyphens, slashes) are indexed
// as-is to keep exact matching for identifier codes.
package trie

import (
	"fmt"
	"strings"

	apperrors "github.com/88clipon/saleor/pkg/errors"
)

// Trie is a rune-keyed prefix tree with values of type T attached at terminal
// nodes. It is not safe for concurrent mutation; a fully built Trie is
// immutable and safe for any number of concurrent readers.
type Trie[T any] struct {
	root      *node[T]
	nodes     int
	terminals int
}

type node[T any] struct {
	children map[rune]*node[T]
	terminal bool
	entries  []T
}

// New returns an empty trie. The root represents the empty prefix and counts
// as one node.
func New[T any]() *Trie[T] {
	return &Trie[T]{
		root:  &node[T]{},
		nodes: 1,
	}
}

// Insert attaches entry at the terminal node spelled by text, creating
// intermediate nodes as needed. Text is lower-cased before insertion.
// Re-inserting the same text never duplicates nodes, but each call appends
// its entry, so records sharing a text accumulate at one terminal.
func (t *Trie[T]) Insert(text string, entry T) error {
	folded := strings.ToLower(text)
	if folded == "" {
		return fmt.Errorf("%w: empty text", apperrors.ErrInvalidKey)
	}

	n := t.root
	for _, r := range folded {
		child, ok := n.children[r]
		if !ok {
			if n.children == nil {
				n.children = make(map[rune]*node[T])
			}
			child = &node[T]{}
			n.children[r] = child
			t.nodes++
		}
		n = child
	}
	if !n.terminal {
		n.terminal = true
		t.terminals++
	}
	n.entries = append(n.entries, entry)
	return nil
}

// Collect returns every entry attached at or below the node spelled by
// prefix. The prefix is lower-cased before descent. A missing path yields
// nil. Order is unspecified; callers sort.
func (t *Trie[T]) Collect(prefix string) []T {
	n := t.descend(strings.ToLower(prefix))
	if n == nil {
		return nil
	}
	var out []T
	collect(n, &out)
	return out
}

// HasPrefix reports whether any indexed text starts with prefix.
func (t *Trie[T]) HasPrefix(prefix string) bool {
	return t.descend(strings.ToLower(prefix)) != nil
}

// NodeCount returns the number of nodes including the root.
func (t *Trie[T]) NodeCount() int {
	return t.nodes
}

// TerminalCount returns the number of nodes where at least one text ends.
func (t *Trie[T]) TerminalCount() int {
	return t.terminals
}

func (t *Trie[T]) descend(folded string) *node[T] {
	n := t.root
	for _, r := range folded {
		child, ok := n.children[r]
		if !ok {
			return nil
		}
		n = child
	}
	return n
}

func collect[T any](n *node[T], out *[]T) {
	if n.terminal {
		*out = append(*out, n.entries...)
	}
	for _, child := range n.children {
		collect(child, out)
	}
}
