package query_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/88clipon/saleor/internal/typeahead/cache"
	"github.com/88clipon/saleor/internal/typeahead/index"
	"github.com/88clipon/saleor/internal/typeahead/query"
	"github.com/88clipon/saleor/internal/typeahead/source"
	apperrors "github.com/88clipon/saleor/pkg/errors"
)

func newEngine(t *testing.T, records []index.RawRecord) *query.Engine {
	t.Helper()
	m := cache.New(&source.Static{Records: records}, time.Hour, nil)
	return query.New(m, 2)
}

func catalog() []index.RawRecord {
	return []index.RawRecord{
		{SourceID: "1", PrimaryName: "Ray-Ban Aviator", AliasSlug: "ray-ban-aviator", IdentifierCodes: []string{"RB3025"}},
		{SourceID: "2", PrimaryName: "Ray-Ban Clubmaster", AliasSlug: "ray-ban-clubmaster"},
		{SourceID: "3", PrimaryName: "Rayon Scarf", Frequency: 50},
	}
}

func texts(results []query.Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.MatchedText
	}
	return out
}

func TestSearchExactMatchCompleteness(t *testing.T) {
	e := newEngine(t, catalog())
	for _, text := range []string{"Ray-Ban Aviator", "RB3025", "ray-ban-clubmaster", "Rayon Scarf"} {
		results, err := e.Search(context.Background(), text, 10, nil)
		if err != nil {
			t.Fatalf("Search(%q): %v", text, err)
		}
		found := false
		for _, r := range results {
			if strings.EqualFold(r.MatchedText, text) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Search(%q) did not include the exact match: %v", text, texts(results))
		}
	}
}

func TestSearchNoFalsePrefixes(t *testing.T) {
	e := newEngine(t, catalog())
	results, err := e.Search(context.Background(), "club", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("Search(\"club\") = %v; entries must start with the prefix", texts(results))
	}
}

func TestSearchShortPrefixPolicy(t *testing.T) {
	e := newEngine(t, catalog())
	results, err := e.Search(context.Background(), "r", 10, nil)
	if err != nil {
		t.Fatalf("short prefix must not error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Search(\"r\") = %v, want empty by policy", texts(results))
	}
}

func TestSearchInvalidLimit(t *testing.T) {
	e := newEngine(t, catalog())
	for _, limit := range []int{0, -1} {
		_, err := e.Search(context.Background(), "ray", limit, nil)
		if !errors.Is(err, apperrors.ErrInvalidArgument) {
			t.Errorf("Search(limit=%d) error = %v, want ErrInvalidArgument", limit, err)
		}
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	e := newEngine(t, catalog())
	lower, err := e.Search(context.Background(), "ray", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	upper, err := e.Search(context.Background(), "RAY", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(lower, upper) {
		t.Errorf("case-folded searches differ:\n%v\n%v", texts(lower), texts(upper))
	}
}

func TestSearchDeterministicOrdering(t *testing.T) {
	e := newEngine(t, catalog())
	first, err := e.Search(context.Background(), "ray", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, err := e.Search(context.Background(), "ray", 10, nil)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("ordering changed between identical searches:\n%v\n%v", texts(first), texts(again))
		}
	}
}

func TestSearchMonotonicTruncation(t *testing.T) {
	e := newEngine(t, catalog())
	for k := 1; k < 8; k++ {
		small, err := e.Search(context.Background(), "ray", k, nil)
		if err != nil {
			t.Fatal(err)
		}
		large, err := e.Search(context.Background(), "ray", k+1, nil)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(small, large[:len(small)]) {
			t.Fatalf("search(k=%d) is not a prefix of search(k=%d):\n%v\n%v",
				k, k+1, texts(small), texts(large))
		}
	}
}

func TestSearchExactOutranksLongerMatches(t *testing.T) {
	e := newEngine(t, []index.RawRecord{
		{SourceID: "1", PrimaryName: "Ray"},
		{SourceID: "2", PrimaryName: "Raybird Deluxe", Frequency: 500},
	})
	results, err := e.Search(context.Background(), "ray", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].MatchedText != "Ray" {
		t.Errorf("exact match not first: %v", texts(results))
	}
}

func TestSearchFrequencyThenLengthThenSourceID(t *testing.T) {
	e := newEngine(t, []index.RawRecord{
		{SourceID: "2", PrimaryName: "Ray-Ban Alpha"},
		{SourceID: "1", PrimaryName: "Ray-Ban Zulu5"},
		{SourceID: "3", PrimaryName: "Ray-Ban Hot", Frequency: 9},
		{SourceID: "4", PrimaryName: "Ray-Ban Clubmaster"},
	})
	results, err := e.Search(context.Background(), "ray", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := texts(results)
	// Highest frequency first; among equal frequencies the shorter text
	// wins, and the equal-length pair falls to ascending source ID.
	want := []string{"Ray-Ban Hot", "Ray-Ban Zulu5", "Ray-Ban Alpha", "Ray-Ban Clubmaster"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ordering = %v, want %v", got, want)
	}
}

func TestSearchScenarioTwoRayBans(t *testing.T) {
	e := newEngine(t, []index.RawRecord{
		{SourceID: "1", PrimaryName: "Ray-Ban Aviator"},
		{SourceID: "2", PrimaryName: "Ray-Ban Clubmaster"},
	})
	results, err := e.Search(context.Background(), "ray", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := texts(results)
	want := []string{"Ray-Ban Aviator", "Ray-Ban Clubmaster"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("results = %v, want %v (shorter text, then source ID)", got, want)
	}
}

func TestSearchKindFilter(t *testing.T) {
	e := newEngine(t, catalog())
	results, err := e.Search(context.Background(), "ray", 10, []index.Kind{index.KindCodeIdentifier, index.KindAliasSlug})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.Kind != index.KindCodeIdentifier && r.Kind != index.KindAliasSlug {
			t.Errorf("kind filter leaked %s entry %q", r.Kind, r.MatchedText)
		}
	}
	if len(results) == 0 {
		t.Error("kind filter returned nothing, want alias slugs")
	}
}

func TestSearchEmptySnapshot(t *testing.T) {
	e := newEngine(t, nil)
	results, err := e.Search(context.Background(), "ray", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("search on empty index = %v, want empty", texts(results))
	}
}

func BenchmarkSearch(b *testing.B) {
	records := make([]index.RawRecord, 5000)
	for i := range records {
		records[i] = index.RawRecord{
			SourceID:    fmt.Sprintf("%d", i),
			PrimaryName: fmt.Sprintf("Product %d Special Edition", i),
		}
	}
	m := cache.New(&source.Static{Records: records}, time.Hour, nil)
	e := query.New(m, 2)
	if _, err := e.Search(context.Background(), "product 1", 10, nil); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		results, _ := e.Search(context.Background(), "product 1", 10, nil)
		_ = results
	}
}
