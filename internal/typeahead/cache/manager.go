// Package cache owns the current index snapshot and its rebuild lifecycle.
//
// The only shared mutable state is the snapshot pointer. Builds happen
// entirely off to the side and are published with a single atomic swap, so
// readers always see either the previous snapshot in full or the new one in
// full. Concurrent rebuild requests collapse to one in-flight build via
// singleflight.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/88clipon/saleor/internal/typeahead/index"
	"github.com/88clipon/saleor/internal/typeahead/source"
	apperrors "github.com/88clipon/saleor/pkg/errors"
	"github.com/88clipon/saleor/pkg/logger"
	"github.com/88clipon/saleor/pkg/metrics"
	"github.com/88clipon/saleor/pkg/resilience"
	"golang.org/x/sync/singleflight"
)

// Manager is the process-wide owner of the current snapshot. It starts empty
// and builds lazily on first access; there is no teardown beyond process
// exit.
type Manager struct {
	src     source.Source
	ttl     time.Duration
	retry   resilience.RetryConfig
	metrics *metrics.Metrics
	logger  *slog.Logger

	current atomic.Pointer[index.Snapshot]
	stale   atomic.Bool
	group   singleflight.Group
}

// Stats is the read-only diagnostics report. It never triggers a build.
type Stats struct {
	Loaded         bool       `json:"loaded"`
	Stale          bool       `json:"stale"`
	NodeCount      int        `json:"node_count"`
	TerminalCount  int        `json:"terminal_count"`
	SkippedRecords int        `json:"skipped_records"`
	BuiltAt        *time.Time `json:"built_at,omitempty"`
	BuildDuration  string     `json:"build_duration,omitempty"`
}

// New creates a Manager over the given source. ttl bounds non-forced
// rebuilds; m may be nil to disable metric reporting.
func New(src source.Source, ttl time.Duration, m *metrics.Metrics) *Manager {
	return &Manager{
		src:     src,
		ttl:     ttl,
		metrics: m,
		logger:  logger.WithComponent("index-cache"),
	}
}

// SetRetry overrides the backoff applied to the catalog fetch. Zero fields
// keep their defaults.
func (m *Manager) SetRetry(cfg resilience.RetryConfig) {
	m.retry = cfg
}

// Get returns the current snapshot, building one first if none exists or the
// current one has been invalidated. When a rebuild fails but a previous
// snapshot survives, that stale snapshot is served instead of an error.
func (m *Manager) Get(ctx context.Context) (*index.Snapshot, error) {
	if snap := m.current.Load(); snap != nil && !m.stale.Load() {
		return snap, nil
	}
	return m.rebuild(ctx)
}

// Invalidate marks the current snapshot stale without freeing it. Readers
// already holding the snapshot keep it; the next Get rebuilds.
func (m *Manager) Invalidate(origin string) {
	m.stale.Store(true)
	m.logger.Info("index invalidated", "origin", origin)
	if m.metrics != nil {
		m.metrics.InvalidationsTotal.WithLabelValues(origin).Inc()
	}
}

// Rebuild rebuilds unconditionally when force is set or the cached snapshot
// has aged past the TTL (a missing or invalidated snapshot counts as
// expired); otherwise it returns the cached snapshot unchanged.
func (m *Manager) Rebuild(ctx context.Context, force bool) (*index.Snapshot, error) {
	if !force {
		if snap := m.current.Load(); snap != nil && !m.stale.Load() && snap.Age() <= m.ttl {
			return snap, nil
		}
	}
	return m.rebuild(ctx)
}

// Stats reports on the current snapshot without ever building one.
func (m *Manager) Stats() Stats {
	snap := m.current.Load()
	if snap == nil {
		return Stats{Loaded: false, Stale: m.stale.Load()}
	}
	builtAt := snap.BuiltAt
	return Stats{
		Loaded:         true,
		Stale:          m.stale.Load(),
		NodeCount:      snap.NodeCount,
		TerminalCount:  snap.TerminalCount,
		SkippedRecords: snap.Skipped,
		BuiltAt:        &builtAt,
		BuildDuration:  snap.BuildDuration.String(),
	}
}

// Loaded reports whether a snapshot exists, for readiness probes.
func (m *Manager) Loaded() bool {
	return m.current.Load() != nil
}

// rebuild funnels every build through one singleflight key. All concurrent
// callers share the result: the fresh snapshot, the degraded stale one, or
// the failure when nothing can be served.
func (m *Manager) rebuild(ctx context.Context) (*index.Snapshot, error) {
	v, err, _ := m.group.Do("rebuild", func() (any, error) {
		var records []index.RawRecord
		fetchErr := resilience.Retry(ctx, "catalog-fetch", m.retry, func() error {
			var err error
			records, err = m.src.FetchAll(ctx)
			return err
		})
		if fetchErr != nil {
			// Degrade to the last good snapshot if one exists; the
			// stale flag stays set so the next access retries.
			if last := m.current.Load(); last != nil {
				m.logger.Warn("rebuild failed, serving stale snapshot",
					"error", fetchErr,
					"snapshot_age", last.Age(),
				)
				if m.metrics != nil {
					m.metrics.RebuildsTotal.WithLabelValues("degraded").Inc()
				}
				return last, nil
			}
			if m.metrics != nil {
				m.metrics.RebuildsTotal.WithLabelValues("failed").Inc()
			}
			return nil, fmt.Errorf("%w: %v", apperrors.ErrIndexUnavailable, fetchErr)
		}

		snap := index.Build(records)
		m.current.Store(snap)
		m.stale.Store(false)
		if m.metrics != nil {
			m.metrics.RebuildsTotal.WithLabelValues("ok").Inc()
			m.metrics.BuildDuration.Observe(snap.BuildDuration.Seconds())
			m.metrics.IndexNodes.Set(float64(snap.NodeCount))
			m.metrics.IndexTerminals.Set(float64(snap.TerminalCount))
			m.metrics.RecordsSkipped.Set(float64(snap.Skipped))
		}
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*index.Snapshot), nil
}
