package trie_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/88clipon/saleor/internal/typeahead/trie"
	apperrors "github.com/88clipon/saleor/pkg/errors"
)

func TestEmptyTrieHasOnlyRoot(t *testing.T) {
	tr := trie.New[string]()
	if got := tr.NodeCount(); got != 1 {
		t.Errorf("NodeCount() = %d, want 1 (root only)", got)
	}
	if got := tr.TerminalCount(); got != 0 {
		t.Errorf("TerminalCount() = %d, want 0", got)
	}
	if got := tr.Collect("anything"); got != nil {
		t.Errorf("Collect on empty trie = %v, want nil", got)
	}
}

func TestInsertRejectsEmptyText(t *testing.T) {
	tr := trie.New[string]()
	err := tr.Insert("", "value")
	if !errors.Is(err, apperrors.ErrInvalidKey) {
		t.Fatalf("Insert(\"\") error = %v, want ErrInvalidKey", err)
	}
	if got := tr.NodeCount(); got != 1 {
		t.Errorf("NodeCount() after rejected insert = %d, want 1", got)
	}
}

func TestInsertAndCollect(t *testing.T) {
	tr := trie.New[string]()
	for _, text := range []string{"ray", "rayon", "radio"} {
		if err := tr.Insert(text, text); err != nil {
			t.Fatalf("Insert(%q): %v", text, err)
		}
	}

	got := tr.Collect("ra")
	if len(got) != 3 {
		t.Fatalf("Collect(\"ra\") returned %d entries, want 3: %v", len(got), got)
	}
	if got := tr.Collect("ray"); len(got) != 2 {
		t.Errorf("Collect(\"ray\") returned %d entries, want 2", len(got))
	}
	if got := tr.Collect("z"); got != nil {
		t.Errorf("Collect(\"z\") = %v, want nil", got)
	}
}

func TestInsertIsStructurallyIdempotent(t *testing.T) {
	tr := trie.New[string]()
	if err := tr.Insert("sku-1", "first"); err != nil {
		t.Fatal(err)
	}
	nodes, terminals := tr.NodeCount(), tr.TerminalCount()

	// Same text again: no new nodes, but the entry accumulates.
	if err := tr.Insert("SKU-1", "second"); err != nil {
		t.Fatal(err)
	}
	if tr.NodeCount() != nodes {
		t.Errorf("NodeCount changed from %d to %d on duplicate insert", nodes, tr.NodeCount())
	}
	if tr.TerminalCount() != terminals {
		t.Errorf("TerminalCount changed from %d to %d on duplicate insert", terminals, tr.TerminalCount())
	}
	if got := tr.Collect("sku-1"); len(got) != 2 {
		t.Errorf("Collect returned %d entries, want both accumulated entries", len(got))
	}
}

func TestMatchingIsCaseInsensitive(t *testing.T) {
	tr := trie.New[int]()
	if err := tr.Insert("Ray-Ban", 1); err != nil {
		t.Fatal(err)
	}
	for _, prefix := range []string{"ray", "RAY", "Ray-B", "ray-ban"} {
		if got := tr.Collect(prefix); len(got) != 1 {
			t.Errorf("Collect(%q) returned %d entries, want 1", prefix, len(got))
		}
	}
}

func TestNonAlphanumericKeptAsIs(t *testing.T) {
	tr := trie.New[int]()
	if err := tr.Insert("AB/12-x", 7); err != nil {
		t.Fatal(err)
	}
	if got := tr.Collect("ab/12"); len(got) != 1 {
		t.Errorf("Collect(\"ab/12\") returned %d entries, want 1", len(got))
	}
	if !tr.HasPrefix("AB/") {
		t.Error("HasPrefix(\"AB/\") = false, want true")
	}
}

func TestCountsAcrossSharedPrefixes(t *testing.T) {
	tr := trie.New[int]()
	// "car" and "cart" share three nodes; "dog" adds three more.
	for i, text := range []string{"car", "cart", "dog"} {
		if err := tr.Insert(text, i); err != nil {
			t.Fatal(err)
		}
	}
	// root + c,a,r,t + d,o,g
	if got := tr.NodeCount(); got != 8 {
		t.Errorf("NodeCount() = %d, want 8", got)
	}
	if got := tr.TerminalCount(); got != 3 {
		t.Errorf("TerminalCount() = %d, want 3", got)
	}
}

func BenchmarkInsert(b *testing.B) {
	tr := trie.New[int]()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.Insert(fmt.Sprintf("product-%d", i), i)
	}
}

func BenchmarkCollect(b *testing.B) {
	tr := trie.New[int]()
	for i := 0; i < 10000; i++ {
		tr.Insert(fmt.Sprintf("product-%d", i), i)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		results := tr.Collect("product-1")
		_ = results
	}
}
