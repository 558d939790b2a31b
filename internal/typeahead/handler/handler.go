// Package handler exposes the type-ahead index over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/88clipon/saleor/internal/typeahead/cache"
	"github.com/88clipon/saleor/internal/typeahead/index"
	"github.com/88clipon/saleor/internal/typeahead/query"
	"github.com/88clipon/saleor/internal/typeahead/querycache"
	apperrors "github.com/88clipon/saleor/pkg/errors"
	"github.com/88clipon/saleor/pkg/logger"
	"github.com/88clipon/saleor/pkg/metrics"
)

// Handler serves search queries and index admin operations.
type Handler struct {
	engine       *query.Engine
	manager      *cache.Manager
	results      *querycache.ResultCache // nil when Redis is unavailable
	metrics      *metrics.Metrics        // nil in tests
	defaultLimit int
	maxLimit     int
	logger       *slog.Logger
}

// New creates a Handler. results and m may be nil.
func New(engine *query.Engine, manager *cache.Manager, results *querycache.ResultCache, m *metrics.Metrics, defaultLimit, maxLimit int) *Handler {
	return &Handler{
		engine:       engine,
		manager:      manager,
		results:      results,
		metrics:      m,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		logger:       logger.WithComponent("typeahead-handler"),
	}
}

type searchResponse struct {
	Query    string         `json:"query"`
	Count    int            `json:"count"`
	CacheHit bool           `json:"cache_hit"`
	Results  []query.Result `json:"results"`
}

// Search handles GET /api/v1/search?q=<prefix>&limit=<n>&kinds=<k1,k2>.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	q := r.URL.Query().Get("q")
	if q == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	limit := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.countSearch("error")
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > h.maxLimit {
			parsed = h.maxLimit
		}
		limit = parsed
	}

	kinds, err := parseKinds(r.URL.Query().Get("kinds"))
	if err != nil {
		h.countSearch("error")
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}

	var results []query.Result
	cacheHit := false
	if h.results != nil {
		results, cacheHit, err = h.results.GetOrCompute(ctx, q, limit, kinds, func() ([]query.Result, error) {
			return h.engine.Search(ctx, q, limit, kinds)
		})
	} else {
		results, err = h.engine.Search(ctx, q, limit, kinds)
	}
	if err != nil {
		log.Error("search failed", "query", q, "error", err)
		h.countSearch("error")
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}

	outcome := "ok"
	if len(results) == 0 {
		outcome = "empty"
		if len([]rune(strings.TrimSpace(q))) < h.engine.MinPrefix() {
			outcome = "short_prefix"
		}
	}
	h.countSearch(outcome)
	if h.metrics != nil {
		status := "miss"
		if cacheHit {
			status = "hit"
		}
		if h.results == nil {
			status = "disabled"
		} else if cacheHit {
			h.metrics.ResultCacheHits.Inc()
		} else {
			h.metrics.ResultCacheMisses.Inc()
		}
		h.metrics.SearchLatency.WithLabelValues(status).Observe(time.Since(start).Seconds())
		h.metrics.SearchResultCount.Observe(float64(len(results)))
	}

	log.Info("search completed",
		"query", q,
		"returned", len(results),
		"cache_hit", cacheHit,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, searchResponse{
		Query:    q,
		Count:    len(results),
		CacheHit: cacheHit,
		Results:  results,
	})
}

// Stats handles GET /api/v1/index/stats. Read-only; never triggers a build.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	type statsResponse struct {
		Index       cache.Stats `json:"index"`
		ResultCache any         `json:"result_cache,omitempty"`
	}
	resp := statsResponse{Index: h.manager.Stats()}
	if h.results != nil {
		hits, misses := h.results.Stats()
		resp.ResultCache = map[string]int64{"hits": hits, "misses": misses}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Invalidate handles POST /api/v1/index/invalidate. The snapshot is marked
// stale; readers keep what they hold and the next access rebuilds.
func (h *Handler) Invalidate(w http.ResponseWriter, r *http.Request) {
	h.manager.Invalidate("api")
	h.flushResults(r.Context())
	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "invalidated"})
}

// Rebuild handles POST /api/v1/index/rebuild?force=true|false.
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"
	snap, err := h.manager.Rebuild(r.Context(), force)
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}
	h.flushResults(r.Context())
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"built_at":       snap.BuiltAt,
		"node_count":     snap.NodeCount,
		"terminal_count": snap.TerminalCount,
		"skipped":        snap.Skipped,
		"duration":       snap.BuildDuration.String(),
	})
}

func (h *Handler) flushResults(ctx context.Context) {
	if h.results == nil {
		return
	}
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := h.results.Invalidate(flushCtx); err != nil {
		h.logger.Error("result cache flush failed", "error", err)
	}
}

func (h *Handler) countSearch(outcome string) {
	if h.metrics != nil {
		h.metrics.SearchesTotal.WithLabelValues(outcome).Inc()
	}
}

func parseKinds(raw string) ([]index.Kind, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	kinds := make([]index.Kind, 0, len(parts))
	for _, p := range parts {
		k, err := index.ParseKind(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
