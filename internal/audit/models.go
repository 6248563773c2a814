package audit

import (
	"time"

	"github.com/google/uuid"

	id "landledger/pkg/domain"
)

// EntryKind separates mandatory decision records from free-text admin notes.
type EntryKind string

const (
	KindDecision EntryKind = "decision"
	KindNote     EntryKind = "note"
)

// Entry is one append-only audit record for an application.
type Entry struct {
	ID            uuid.UUID
	ApplicationID id.ApplicationID
	Actor         string
	Kind          EntryKind
	// Decision is the resulting status for decision entries.
	Decision  string
	Note      string
	RequestID string
	Timestamp time.Time
}

// EventType is the outbox event name for the entry.
func (e Entry) EventType() string {
	if e.Kind == KindDecision {
		return "land_application_decided"
	}
	return "land_application_note_added"
}
