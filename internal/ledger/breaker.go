package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"landledger/internal/ledger/metrics"
	"landledger/pkg/platform/circuit"
)

// GuardedClient decorates a ChainClient with a circuit breaker and call
// metrics. Only unavailability counts against the breaker; a rejected
// request proves the ledger is up, and a caller's cancellation counts as
// neither.
type GuardedClient struct {
	next    ChainClient
	breaker *circuit.Breaker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewGuardedClient(next ChainClient, breaker *circuit.Breaker, m *metrics.Metrics, logger *slog.Logger) *GuardedClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &GuardedClient{next: next, breaker: breaker, metrics: m, logger: logger}
}

func (g *GuardedClient) TotalUsers(ctx context.Context) (uint64, error) {
	return guard(ctx, g, "total_users", g.next.TotalUsers)
}

func (g *GuardedClient) TotalLands(ctx context.Context) (uint64, error) {
	return guard(ctx, g, "total_lands", g.next.TotalLands)
}

func (g *GuardedClient) VerifiedLands(ctx context.Context) (uint64, error) {
	return guard(ctx, g, "verified_lands", g.next.VerifiedLands)
}

func (g *GuardedClient) RegisterLand(ctx context.Context, location string, size uint64) (Receipt, error) {
	return guard(ctx, g, "register_land", func(ctx context.Context) (Receipt, error) {
		return g.next.RegisterLand(ctx, location, size)
	})
}

func (g *GuardedClient) TransferLand(ctx context.Context, toAddress string, landID uint64) (Receipt, error) {
	return guard(ctx, g, "transfer_land", func(ctx context.Context) (Receipt, error) {
		return g.next.TransferLand(ctx, toAddress, landID)
	})
}

func (g *GuardedClient) GrantBuildingPermission(ctx context.Context, landID uint64) (Receipt, error) {
	return guard(ctx, g, "grant_building_permission", func(ctx context.Context) (Receipt, error) {
		return g.next.GrantBuildingPermission(ctx, landID)
	})
}

func (g *GuardedClient) RegisterUser(ctx context.Context, name, role string) (Receipt, error) {
	return guard(ctx, g, "register_user", func(ctx context.Context) (Receipt, error) {
		return g.next.RegisterUser(ctx, name, role)
	})
}

func guard[T any](ctx context.Context, g *GuardedClient, op string, call func(context.Context) (T, error)) (T, error) {
	var zero T
	if !g.breaker.Allow() {
		g.metrics.ObserveCall(op, "short_circuit", 0)
		return zero, NewUnavailable(KindCircuitOpen, op, nil)
	}

	start := time.Now()
	v, err := call(ctx)
	elapsed := time.Since(start)

	if err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil {
		g.metrics.ObserveCall(op, "cancelled", elapsed)
		return zero, err
	}
	if err != nil && IsUnavailable(err) {
		g.metrics.ObserveCall(op, "unavailable", elapsed)
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.metrics.SetBreakerOpen(true)
			g.logger.WarnContext(ctx, "ledger circuit opened", "op", op, "error", err)
		}
		return zero, err
	}

	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.metrics.SetBreakerOpen(false)
		g.logger.InfoContext(ctx, "ledger circuit closed", "op", op)
	}
	if err != nil {
		g.metrics.ObserveCall(op, "rejected", elapsed)
		return zero, err
	}
	g.metrics.ObserveCall(op, "ok", elapsed)
	return v, nil
}
