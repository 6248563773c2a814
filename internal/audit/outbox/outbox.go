// Package outbox relays audit entries written in the same transaction as the
// decision to the message broker. Delivery is at-least-once.
package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Message is one unpublished outbox row.
type Message struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// Source yields pending outbox rows and records their publication.
type Source interface {
	FetchUnpublished(ctx context.Context, limit int) ([]Message, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Publisher delivers a batch to the broker; it succeeds only when every
// message was acknowledged.
type Publisher interface {
	Publish(ctx context.Context, msgs []Message) error
}
