package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"

	"landledger/internal/audit"
	"landledger/internal/audit/outbox"
	auditstore "landledger/internal/audit/store"
	"landledger/internal/documents"
	jwttoken "landledger/internal/jwt_token"
	landhandler "landledger/internal/land/handler"
	landmetrics "landledger/internal/land/metrics"
	"landledger/internal/land/service"
	landstore "landledger/internal/land/store"
	"landledger/internal/ledger"
	"landledger/internal/ledger/gateway"
	ledgerhandler "landledger/internal/ledger/handler"
	ledgermetrics "landledger/internal/ledger/metrics"
	"landledger/internal/ledger/reconcile"
	"landledger/internal/platform/config"
	"landledger/internal/platform/httpserver"
	"landledger/internal/platform/kafka"
	"landledger/internal/platform/logger"
	"landledger/internal/platform/metrics"
	"landledger/internal/platform/postgres"
	"landledger/internal/platform/redis"
	httptransport "landledger/internal/transport/http"
	"landledger/pkg/platform/circuit"
	"landledger/pkg/platform/tx"
)

// main wires dependencies, serves HTTP and runs the background workers until
// a signal arrives. Business logic lives in the internal service packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// outboxStore is implemented by both audit stores.
type outboxStore interface {
	audit.Store
	outbox.Source
}

type backends struct {
	apps    service.ApplicationStore
	entries outboxStore
	runner  tx.Runner
	checks  map[string]httptransport.HealthCheck
	closers []func()
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		for i := len(b.closers) - 1; i >= 0; i-- {
			b.closers[i]()
		}
	}()

	docs, err := openDocumentStore(ctx, cfg.Documents, b)
	if err != nil {
		return err
	}

	snapshots, err := openSnapshotStore(ctx, cfg.Redis, b, log)
	if err != nil {
		return err
	}

	httpMetrics := metrics.New()
	landMetrics := landmetrics.New()
	ledgerMetrics := ledgermetrics.New()

	breaker := circuit.New("ledger",
		circuit.WithFailureThreshold(cfg.Ledger.BreakerThreshold),
		circuit.WithCooldown(cfg.Ledger.BreakerCooldown),
	)
	chain := ledger.NewGuardedClient(
		gateway.New(cfg.Ledger.GatewayURL, cfg.Ledger.GatewayToken, cfg.Ledger.CallTimeout),
		breaker, ledgerMetrics, log,
	)
	stats, err := reconcile.New(chain, snapshots,
		reconcile.WithLogger(log),
		reconcile.WithMetrics(ledgerMetrics),
		reconcile.WithCallTimeout(cfg.Ledger.CallTimeout),
		reconcile.WithAttempts(cfg.Ledger.Attempts),
		reconcile.WithMaxAge(cfg.Ledger.MaxStaleness),
	)
	if err != nil {
		return fmt.Errorf("init reconciliation: %w", err)
	}

	trail := audit.NewTrail(b.entries, log)
	intake, err := service.NewIntakeService(b.apps, docs, documents.NewContentInspector(cfg.Documents.StrictPDF),
		service.WithIntakeLogger(log),
		service.WithIntakeMetrics(landMetrics),
	)
	if err != nil {
		return fmt.Errorf("init intake: %w", err)
	}
	workflow, err := service.NewWorkflowService(b.apps, trail, b.runner,
		service.WithWorkflowLogger(log),
		service.WithWorkflowMetrics(landMetrics),
	)
	if err != nil {
		return fmt.Errorf("init workflow: %w", err)
	}
	queries, err := service.NewQueryService(b.apps, trail, docs)
	if err != nil {
		return fmt.Errorf("init queries: %w", err)
	}

	validator := jwttoken.NewJWTServiceAdapter(
		jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience),
	)
	router := httptransport.NewRouter(b.checks,
		landhandler.New(intake, workflow, queries, stats, log, httpMetrics, validator),
		ledgerhandler.New(stats, chain, log, httpMetrics, validator),
	)
	srv := httpserver.New(cfg.Server.Addr, router)

	var relay *outbox.Relay
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return err
		}
		defer producer.Close()
		if err := producer.EnsureTopic(ctx, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
			return err
		}
		b.checks["kafka"] = producer.Ping
		relay = outbox.NewRelay(b.entries, producer, log, outbox.WithInterval(cfg.Kafka.RelayInterval))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting landledger", "addr", cfg.Server.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return ignoreCancel(reconcile.NewRefresher(stats, cfg.Ledger.RefreshInterval).Run(gctx))
	})
	if relay != nil {
		g.Go(func() error { return ignoreCancel(relay.Run(gctx)) })
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		log.Info("server shut down")
		return nil
	})
	return g.Wait()
}

// openBackends picks postgres when DATABASE_URL is set, otherwise memory.
func openBackends(ctx context.Context, cfg *config.Config, log *slog.Logger) (*backends, error) {
	b := &backends{checks: map[string]httptransport.HealthCheck{}}
	if cfg.Database.URL == "" {
		log.Warn("DATABASE_URL not set, applications are kept in memory")
		b.apps = landstore.NewInMemoryStore()
		b.entries = auditstore.NewInMemoryStore()
		b.runner = tx.NewMemoryRunner()
		return b, nil
	}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, func() { _ = db.Close() })
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	b.apps = landstore.NewPostgres(db)
	b.entries = auditstore.NewPostgres(db)
	b.runner = tx.NewSQLRunner(db, cfg.Database.TxTimeout)
	b.checks["postgres"] = dbCheck(db)
	return b, nil
}

func dbCheck(db *sql.DB) httptransport.HealthCheck {
	return func(ctx context.Context) error { return db.PingContext(ctx) }
}

func openDocumentStore(ctx context.Context, cfg config.DocumentsConfig, b *backends) (documents.Store, error) {
	if cfg.Backend != config.BackendGCS {
		return documents.NewInMemoryStore(), nil
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	b.closers = append(b.closers, func() { _ = client.Close() })
	return documents.NewGCSStore(client, cfg.Bucket, cfg.Prefix), nil
}

func openSnapshotStore(ctx context.Context, cfg config.RedisConfig, b *backends, log *slog.Logger) (reconcile.SnapshotStore, error) {
	client, err := redis.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if client == nil {
		log.Warn("REDIS_URL not set, last-known ledger stats do not survive restarts")
		return reconcile.NewInMemorySnapshotStore(), nil
	}
	b.closers = append(b.closers, func() { _ = client.Close() })
	b.checks["redis"] = client.Health
	return reconcile.NewRedisSnapshotStore(client.Client, reconcile.DefaultSnapshotKey, 0), nil
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
