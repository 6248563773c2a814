// Package store holds audit trail backends. Every append also queues an
// outbox message in the same unit of work.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"landledger/internal/audit"
)

// outboxPayload is the JSON body published to the broker.
type outboxPayload struct {
	ID            string `json:"id"`
	ApplicationID string `json:"application_id"`
	Actor         string `json:"actor"`
	Kind          string `json:"kind"`
	Decision      string `json:"decision,omitempty"`
	Note          string `json:"note,omitempty"`
	RequestID     string `json:"request_id,omitempty"`
	Timestamp     string `json:"timestamp"`
}

func marshalPayload(e audit.Entry) ([]byte, error) {
	b, err := json.Marshal(outboxPayload{
		ID:            e.ID.String(),
		ApplicationID: e.ApplicationID.String(),
		Actor:         e.Actor,
		Kind:          string(e.Kind),
		Decision:      e.Decision,
		Note:          e.Note,
		RequestID:     e.RequestID,
		Timestamp:     e.Timestamp.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal audit payload: %w", err)
	}
	return b, nil
}
