package reconcile

import (
	"context"
	"time"
)

// Refresher keeps the latest stats warm on a fixed interval.
type Refresher struct {
	service  *Service
	interval time.Duration
}

func NewRefresher(service *Service, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Refresher{service: service, interval: interval}
}

// Run refreshes immediately and then on every tick until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		r.service.RefreshStats(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
