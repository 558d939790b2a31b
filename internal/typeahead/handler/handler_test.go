package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/88clipon/saleor/internal/typeahead/cache"
	"github.com/88clipon/saleor/internal/typeahead/handler"
	"github.com/88clipon/saleor/internal/typeahead/index"
	"github.com/88clipon/saleor/internal/typeahead/query"
	"github.com/88clipon/saleor/internal/typeahead/source"
)

func newServer(t *testing.T, records []index.RawRecord) (*httptest.Server, *cache.Manager) {
	t.Helper()
	m := cache.New(&source.Static{Records: records}, time.Hour, nil)
	e := query.New(m, 2)
	h := handler.New(e, m, nil, nil, 10, 50)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/index/stats", h.Stats)
	mux.HandleFunc("POST /api/v1/index/invalidate", h.Invalidate)
	mux.HandleFunc("POST /api/v1/index/rebuild", h.Rebuild)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, m
}

func catalog() []index.RawRecord {
	return []index.RawRecord{
		{SourceID: "1", PrimaryName: "Ray-Ban Aviator", IdentifierCodes: []string{"RB3025"}},
		{SourceID: "2", PrimaryName: "Ray-Ban Clubmaster"},
	}
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestSearchEndpoint(t *testing.T) {
	srv, _ := newServer(t, catalog())

	resp, err := http.Get(srv.URL + "/api/v1/search?q=ray")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Query   string `json:"query"`
		Count   int    `json:"count"`
		Results []struct {
			MatchedText string `json:"matched_text"`
			SourceID    string `json:"source_id"`
		} `json:"results"`
	}
	decode(t, resp, &body)
	if body.Count != 2 {
		t.Errorf("count = %d, want 2", body.Count)
	}
	if body.Results[0].MatchedText != "Ray-Ban Aviator" {
		t.Errorf("first result = %q", body.Results[0].MatchedText)
	}
}

func TestSearchEndpointRequiresQuery(t *testing.T) {
	srv, _ := newServer(t, catalog())
	resp, err := http.Get(srv.URL + "/api/v1/search")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSearchEndpointRejectsBadLimit(t *testing.T) {
	srv, _ := newServer(t, catalog())
	for _, limit := range []string{"0", "-3", "abc"} {
		resp, err := http.Get(srv.URL + "/api/v1/search?q=ray&limit=" + limit)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want 400", limit, resp.StatusCode)
		}
	}
}

func TestSearchEndpointRejectsUnknownKind(t *testing.T) {
	srv, _ := newServer(t, catalog())
	resp, err := http.Get(srv.URL + "/api/v1/search?q=ray&kinds=sku")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSearchEndpointKindFilter(t *testing.T) {
	srv, _ := newServer(t, catalog())
	resp, err := http.Get(srv.URL + "/api/v1/search?q=rb30&kinds=code_identifier")
	if err != nil {
		t.Fatal(err)
	}
	var body struct {
		Count   int `json:"count"`
		Results []struct {
			Kind string `json:"kind"`
		} `json:"results"`
	}
	decode(t, resp, &body)
	if body.Count != 1 || body.Results[0].Kind != "code_identifier" {
		t.Errorf("filtered search = %+v", body)
	}
}

func TestStatsEndpointDoesNotBuild(t *testing.T) {
	srv, m := newServer(t, catalog())

	resp, err := http.Get(srv.URL + "/api/v1/index/stats")
	if err != nil {
		t.Fatal(err)
	}
	var body struct {
		Index cache.Stats `json:"index"`
	}
	decode(t, resp, &body)
	if body.Index.Loaded {
		t.Error("stats reported loaded before any query or rebuild")
	}
	if m.Loaded() {
		t.Error("stats endpoint triggered a build")
	}
}

func TestRebuildAndStatsEndpoints(t *testing.T) {
	srv, _ := newServer(t, catalog())

	resp, err := http.Post(srv.URL+"/api/v1/index/rebuild?force=true", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("rebuild status = %d, want 200", resp.StatusCode)
	}
	var rebuild struct {
		Status        string `json:"status"`
		NodeCount     int    `json:"node_count"`
		TerminalCount int    `json:"terminal_count"`
	}
	decode(t, resp, &rebuild)
	if rebuild.Status != "ok" || rebuild.TerminalCount != 3 {
		t.Errorf("rebuild response = %+v", rebuild)
	}

	resp, err = http.Get(srv.URL + "/api/v1/index/stats")
	if err != nil {
		t.Fatal(err)
	}
	var stats struct {
		Index cache.Stats `json:"index"`
	}
	decode(t, resp, &stats)
	if !stats.Index.Loaded || stats.Index.TerminalCount != 3 {
		t.Errorf("stats after rebuild = %+v", stats.Index)
	}
}

func TestInvalidateEndpoint(t *testing.T) {
	srv, m := newServer(t, catalog())

	if _, err := http.Post(srv.URL+"/api/v1/index/rebuild?force=true", "", nil); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Post(srv.URL+"/api/v1/index/invalidate", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("invalidate status = %d, want 202", resp.StatusCode)
	}
	if stats := m.Stats(); !stats.Stale {
		t.Error("index not marked stale after invalidate")
	}
}
