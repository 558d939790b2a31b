package index

import (
	"log/slog"
	"time"

	"github.com/88clipon/saleor/internal/typeahead/trie"
	"github.com/88clipon/saleor/pkg/logger"
)

// Build constructs a fresh snapshot from a slice of catalog records. It is a
// pure function of its input: the records are read, never mutated.
//
// For each record every searchable representation is inserted with its kind:
// the primary name, the alias slug, each identifier code, and each variant
// name. A record contributing no indexable text is skipped and counted, never
// fatal; only the caller's failure to read the source aborts a build.
func Build(records []RawRecord) *Snapshot {
	start := time.Now()
	log := logger.WithComponent("index-builder")

	t := trie.New[SearchEntry]()
	skipped := 0

	for _, rec := range records {
		if insertRecord(t, rec, log) == 0 {
			skipped++
			log.Warn("record has no indexable text, skipping", "source_id", rec.SourceID)
		}
	}

	snap := &Snapshot{
		Trie:          t,
		BuiltAt:       time.Now().UTC(),
		NodeCount:     t.NodeCount(),
		TerminalCount: t.TerminalCount(),
		Skipped:       skipped,
		BuildDuration: time.Since(start),
	}
	log.Info("index built",
		"records", len(records),
		"skipped", skipped,
		"nodes", snap.NodeCount,
		"terminals", snap.TerminalCount,
		"duration", snap.BuildDuration,
	)
	return snap
}

// insertRecord inserts every representation of rec and returns how many were
// accepted.
func insertRecord(t *trie.Trie[SearchEntry], rec RawRecord, log *slog.Logger) int {
	freq := rec.Frequency
	if freq <= 0 {
		freq = 1
	}

	inserted := 0
	add := func(text string, kind Kind) {
		if text == "" {
			return
		}
		entry := SearchEntry{
			SourceID:    rec.SourceID,
			MatchedText: text,
			Kind:        kind,
			Frequency:   freq,
			Metadata:    rec.Metadata,
		}
		if err := t.Insert(text, entry); err != nil {
			log.Warn("dropping representation", "source_id", rec.SourceID, "kind", kind, "error", err)
			return
		}
		inserted++
	}

	add(rec.PrimaryName, KindPrimaryName)
	add(rec.AliasSlug, KindAliasSlug)
	for _, code := range rec.IdentifierCodes {
		add(code, KindCodeIdentifier)
	}
	for _, name := range rec.VariantNames {
		add(name, KindVariantName)
	}
	return inserted
}
