package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	defaultBatchSize = 100
	defaultInterval  = 2 * time.Second
)

// Relay polls the outbox and forwards pending rows to the publisher.
type Relay struct {
	source    Source
	publisher Publisher
	logger    *slog.Logger
	batchSize int
	interval  time.Duration
	now       func() time.Time
}

type RelayOption func(*Relay)

func WithBatchSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithClock(now func() time.Time) RelayOption {
	return func(r *Relay) { r.now = now }
}

func NewRelay(source Source, publisher Publisher, logger *slog.Logger, opts ...RelayOption) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Relay{
		source:    source,
		publisher: publisher,
		logger:    logger,
		batchSize: defaultBatchSize,
		interval:  defaultInterval,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays until ctx is cancelled. Failed batches are retried on the next
// tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.WarnContext(ctx, "outbox relay batch failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RelayOnce forwards one batch and returns how many rows were published.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	msgs, err := r.source.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	if len(msgs) == 0 {
		return 0, nil
	}
	if err := r.publisher.Publish(ctx, msgs); err != nil {
		return 0, err
	}

	ids := make([]uuid.UUID, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}
	if err := r.source.MarkPublished(ctx, ids, r.now()); err != nil {
		return 0, err
	}
	r.logger.DebugContext(ctx, "outbox batch relayed", "count", len(msgs))
	return len(msgs), nil
}
