// Package audit keeps the append-only trail of decisions and admin notes for
// land applications.
package audit

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"landledger/internal/land/models"
	id "landledger/pkg/domain"
	dErrors "landledger/pkg/domain-errors"
	"landledger/pkg/requestcontext"
)

// Store persists entries. Append must honour the unit of work bound to ctx.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByApplication(ctx context.Context, appID id.ApplicationID) ([]Entry, error)
}

// Trail appends and queries audit entries.
type Trail struct {
	store  Store
	logger *slog.Logger
}

func NewTrail(store Store, logger *slog.Logger) *Trail {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trail{store: store, logger: logger}
}

// Append records entry. A storage failure is surfaced as a PersistenceError.
func (t *Trail) Append(ctx context.Context, entry Entry) error {
	if entry.ApplicationID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "application_id is required")
	}
	if strings.TrimSpace(entry.Actor) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "actor is required")
	}
	if entry.Kind == KindNote && strings.TrimSpace(entry.Note) == "" {
		return models.MissingField("note")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}
	if entry.RequestID == "" {
		entry.RequestID = requestcontext.RequestID(ctx)
	}

	if err := t.store.Append(ctx, entry); err != nil {
		t.logger.ErrorContext(ctx, "audit append failed",
			"application_id", entry.ApplicationID.String(),
			"kind", string(entry.Kind),
			"error", err,
		)
		return models.NewPersistenceError("audit append", err)
	}
	return nil
}

// List returns the application's entries oldest first.
func (t *Trail) List(ctx context.Context, appID id.ApplicationID) ([]Entry, error) {
	entries, err := t.store.ListByApplication(ctx, appID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit entries")
	}
	return entries, nil
}
