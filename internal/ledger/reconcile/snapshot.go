package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SnapshotStore keeps last-known ledger values so stale stats survive
// restarts. Load returns an empty snapshot when nothing was saved.
type SnapshotStore interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}

type InMemorySnapshotStore struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewInMemorySnapshotStore() *InMemorySnapshotStore {
	return &InMemorySnapshotStore{snap: Snapshot{}}
}

func (s *InMemorySnapshotStore) Load(_ context.Context) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.clone(), nil
}

func (s *InMemorySnapshotStore) Save(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap.clone()
	return nil
}

const (
	DefaultSnapshotKey = "landledger:ledger:stats:last"
	defaultSnapshotTTL = 7 * 24 * time.Hour
)

// RedisSnapshotStore stores the snapshot as one JSON value.
type RedisSnapshotStore struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

func NewRedisSnapshotStore(client redis.UniversalClient, key string, ttl time.Duration) *RedisSnapshotStore {
	if key == "" {
		key = DefaultSnapshotKey
	}
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	return &RedisSnapshotStore{client: client, key: key, ttl: ttl}
}

func (s *RedisSnapshotStore) Load(ctx context.Context) (Snapshot, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load stats snapshot: %w", err)
	}
	snap := Snapshot{}
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode stats snapshot: %w", err)
	}
	return snap, nil
}

func (s *RedisSnapshotStore) Save(ctx context.Context, snap Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode stats snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save stats snapshot: %w", err)
	}
	return nil
}
