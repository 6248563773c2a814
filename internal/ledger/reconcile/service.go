// Package reconcile merges independently fallible ledger aggregates into one
// advisory stats view. It never writes to the ledger and never fails as a
// whole: each field settles on its own.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"landledger/internal/ledger"
	"landledger/internal/ledger/metrics"
)

const (
	defaultCallTimeout  = 3 * time.Second
	defaultAttempts     = 2
	defaultRetryBackoff = 100 * time.Millisecond
	defaultMaxAge       = 15 * time.Second
)

var tracer = otel.Tracer("landledger/ledger/reconcile")

// Service computes AggregateStats from a ChainClient.
type Service struct {
	chain     ledger.ChainClient
	snapshots SnapshotStore
	metrics   *metrics.Metrics
	logger    *slog.Logger

	callTimeout  time.Duration
	attempts     int
	retryBackoff time.Duration
	maxAge       time.Duration
	now          func() time.Time

	refreshes singleflight.Group
	mu        sync.RWMutex
	latest    *AggregateStats
	// known mirrors the last merged snapshot for when the store cannot be read.
	known Snapshot
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithCallTimeout bounds each individual chain call.
func WithCallTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.callTimeout = d
		}
	}
}

// WithAttempts sets how many times a retryable field fetch is tried.
func WithAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.attempts = n
		}
	}
}

func WithRetryBackoff(d time.Duration) Option {
	return func(s *Service) { s.retryBackoff = d }
}

// WithMaxAge sets how long Stats serves the latest refresh before fetching
// again.
func WithMaxAge(d time.Duration) Option {
	return func(s *Service) { s.maxAge = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(chain ledger.ChainClient, snapshots SnapshotStore, opts ...Option) (*Service, error) {
	if chain == nil {
		return nil, errors.New("chain client is required")
	}
	if snapshots == nil {
		return nil, errors.New("snapshot store is required")
	}
	s := &Service{
		chain:        chain,
		snapshots:    snapshots,
		logger:       slog.Default(),
		callTimeout:  defaultCallTimeout,
		attempts:     defaultAttempts,
		retryBackoff: defaultRetryBackoff,
		maxAge:       defaultMaxAge,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// fieldResult is the settled outcome of one field fetch.
type fieldResult struct {
	Field Field
	Value uint64
	Err   error
}

// fallbackUse records which fallback served a failed field.
type fallbackUse struct {
	Field  Field
	Source string
}

const (
	fallbackLastKnown = "last_known"
	fallbackZero      = "zero"
)

// RefreshStats queries every field concurrently and merges the outcomes.
func (s *Service) RefreshStats(ctx context.Context) AggregateStats {
	ctx, span := tracer.Start(ctx, "ledger.refresh_stats", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	results := make([]fieldResult, len(fields))
	var g errgroup.Group
	for i, f := range fields {
		g.Go(func() error {
			results[i] = s.fetch(ctx, f)
			return nil
		})
	}
	_ = g.Wait()

	last, loaded := s.lastKnown(ctx)
	stats, next, fallbacks := merge(results, last, s.now())

	for _, fb := range fallbacks {
		s.metrics.IncrementFallback(string(fb.Field), fb.Source)
	}
	// A snapshot built on the in-process copy may be older than the stored
	// one, so it is only kept in process.
	if loaded && len(fallbacks) < len(results) {
		if err := s.snapshots.Save(ctx, next); err != nil {
			s.logger.WarnContext(ctx, "stats snapshot not saved", "error", err)
		}
	}
	if stats.DataFreshness == FreshnessStale {
		s.logger.WarnContext(ctx, "ledger stats degraded", "stale_fields", stats.StaleFields)
	}
	s.metrics.IncrementRefresh(string(stats.DataFreshness))
	span.SetAttributes(
		attribute.String("freshness", string(stats.DataFreshness)),
		attribute.Int("stale_fields", len(stats.StaleFields)),
	)

	s.mu.Lock()
	s.latest = &stats
	s.known = next
	s.mu.Unlock()
	return stats
}

// lastKnown loads the persisted snapshot, falling back to the in-process copy
// when the store cannot be read. loaded reports whether the store answered.
func (s *Service) lastKnown(ctx context.Context) (snap Snapshot, loaded bool) {
	snap, err := s.snapshots.Load(ctx)
	if err == nil {
		return snap, true
	}
	s.logger.WarnContext(ctx, "stats snapshot unavailable, using in-process values", "error", err)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.known.clone(), false
}

// Stats serves the latest refresh while it is younger than the max age and
// refreshes otherwise. Concurrent callers share one refresh.
func (s *Service) Stats(ctx context.Context) AggregateStats {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()
	if latest != nil && s.now().Sub(latest.RefreshedAt) < s.maxAge {
		return *latest
	}

	v, _, _ := s.refreshes.Do("stats", func() (any, error) {
		return s.RefreshStats(context.WithoutCancel(ctx)), nil
	})
	return v.(AggregateStats)
}

// merge is the single place where per-field outcomes become stats. A failed
// field takes its last-known value, or zero when there is none, and marks the
// result stale.
func merge(results []fieldResult, last Snapshot, now time.Time) (AggregateStats, Snapshot, []fallbackUse) {
	stats := AggregateStats{DataFreshness: FreshnessFresh, RefreshedAt: now}
	next := last.clone()
	var fallbacks []fallbackUse

	for _, r := range results {
		if r.Err == nil {
			stats.set(r.Field, r.Value)
			next[r.Field] = Observation{Value: r.Value, ObservedAt: now}
			continue
		}
		stats.DataFreshness = FreshnessStale
		stats.StaleFields = append(stats.StaleFields, r.Field)
		if obs, ok := last[r.Field]; ok {
			stats.set(r.Field, obs.Value)
			fallbacks = append(fallbacks, fallbackUse{Field: r.Field, Source: fallbackLastKnown})
			continue
		}
		stats.set(r.Field, 0)
		fallbacks = append(fallbacks, fallbackUse{Field: r.Field, Source: fallbackZero})
	}

	stats.PendingLands = pendingLands(stats.TotalLands, stats.VerifiedLands)
	return stats, next, fallbacks
}

// pendingLands can see verified > total when one side is a fallback.
func pendingLands(total, verified uint64) uint64 {
	if verified > total {
		return 0
	}
	return total - verified
}

func (s *Service) fetch(ctx context.Context, f Field) fieldResult {
	call := s.callFor(f)
	var err error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		var v uint64
		v, err = s.callWithTimeout(ctx, call)
		if err == nil {
			return fieldResult{Field: f, Value: v}
		}
		if !retryable(err) || attempt == s.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return fieldResult{Field: f, Err: err}
		case <-time.After(s.retryBackoff):
		}
	}
	s.logger.WarnContext(ctx, "ledger field fetch failed", "field", string(f), "error", err)
	return fieldResult{Field: f, Err: err}
}

func (s *Service) callWithTimeout(ctx context.Context, call func(context.Context) (uint64, error)) (uint64, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	return call(callCtx)
}

func (s *Service) callFor(f Field) func(context.Context) (uint64, error) {
	switch f {
	case FieldTotalUsers:
		return s.chain.TotalUsers
	case FieldTotalLands:
		return s.chain.TotalLands
	default:
		return s.chain.VerifiedLands
	}
}

// retryable treats unknown failures as transient; only explicit rejections,
// malformed answers and an open circuit are final.
func retryable(err error) bool {
	var rejected *ledger.ChainRejectedError
	if errors.As(err, &rejected) {
		return false
	}
	var ue *ledger.ChainUnavailableError
	if errors.As(err, &ue) {
		return ue.Retryable()
	}
	return true
}
