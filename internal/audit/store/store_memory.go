package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"landledger/internal/audit"
	"landledger/internal/audit/outbox"
	id "landledger/pkg/domain"
	"landledger/pkg/platform/tx"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.ApplicationID][]audit.Entry
	outbox  []outbox.Message
	sent    map[uuid.UUID]time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[id.ApplicationID][]audit.Entry),
		sent:    make(map[uuid.UUID]time.Time),
	}
}

func (s *InMemoryStore) Append(ctx context.Context, entry audit.Entry) error {
	payload, err := marshalPayload(entry)
	if err != nil {
		return err
	}
	msg := outbox.Message{
		ID:          uuid.New(),
		AggregateID: entry.ApplicationID.String(),
		EventType:   entry.EventType(),
		Payload:     payload,
		CreatedAt:   entry.Timestamp,
	}

	s.mu.Lock()
	s.entries[entry.ApplicationID] = append(s.entries[entry.ApplicationID], entry)
	s.outbox = append(s.outbox, msg)
	s.mu.Unlock()

	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.entries[entry.ApplicationID] = removeEntry(s.entries[entry.ApplicationID], entry.ID)
		for i := range s.outbox {
			if s.outbox[i].ID == msg.ID {
				s.outbox = append(s.outbox[:i], s.outbox[i+1:]...)
				break
			}
		}
	})
	return nil
}

// ListByApplication orders by timestamp; equal timestamps keep append order.
func (s *InMemoryStore) ListByApplication(_ context.Context, appID id.ApplicationID) ([]audit.Entry, error) {
	s.mu.RLock()
	entries := append([]audit.Entry{}, s.entries[appID]...)
	s.mu.RUnlock()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries, nil
}

func (s *InMemoryStore) FetchUnpublished(_ context.Context, limit int) ([]outbox.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []outbox.Message
	for _, m := range s.outbox {
		if _, done := s.sent[m.ID]; done {
			continue
		}
		out = append(out, m)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) MarkPublished(_ context.Context, ids []uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msgID := range ids {
		s.sent[msgID] = at
	}
	return nil
}

func removeEntry(entries []audit.Entry, entryID uuid.UUID) []audit.Entry {
	for i := range entries {
		if entries[i].ID == entryID {
			return append(entries[:i:i], entries[i+1:]...)
		}
	}
	return entries
}
