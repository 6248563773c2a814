package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"landledger/internal/audit"
	"landledger/internal/audit/outbox"
	id "landledger/pkg/domain"
	"landledger/pkg/platform/tx"
)

// PostgresStore writes entries and their outbox rows with the executor bound
// to ctx, so both land or neither does.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry audit.Entry) error {
	payload, err := marshalPayload(entry)
	if err != nil {
		return err
	}
	exec := tx.Execer(ctx, s.db)

	_, err = exec.ExecContext(ctx, `
		INSERT INTO land_audit_entries (id, application_id, actor, kind, decision, note, request_id, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		entry.ID,
		uuid.UUID(entry.ApplicationID),
		entry.Actor,
		string(entry.Kind),
		entry.Decision,
		entry.Note,
		entry.RequestID,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	_, err = exec.ExecContext(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		uuid.New(),
		"land_application",
		entry.ApplicationID.String(),
		entry.EventType(),
		payload,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByApplication(ctx context.Context, appID id.ApplicationID) ([]audit.Entry, error) {
	rows, err := tx.Execer(ctx, s.db).QueryContext(ctx, `
		SELECT id, application_id, actor, kind, decision, note, request_id, recorded_at
		FROM land_audit_entries
		WHERE application_id = $1
		ORDER BY recorded_at ASC, seq ASC
	`, uuid.UUID(appID))
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := []audit.Entry{}
	for rows.Next() {
		var (
			e        audit.Entry
			rowAppID uuid.UUID
			kind     string
		)
		if err := rows.Scan(&e.ID, &rowAppID, &e.Actor, &kind, &e.Decision, &e.Note, &e.RequestID, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.ApplicationID = id.ApplicationID(rowAppID)
		e.Kind = audit.EntryKind(kind)
		e.Timestamp = e.Timestamp.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

// FetchUnpublished returns the oldest pending rows. A single relay instance is
// assumed; a second one would only cause duplicate deliveries.
func (s *PostgresStore) FetchUnpublished(ctx context.Context, limit int) ([]outbox.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var msgs []outbox.Message
	for rows.Next() {
		var m outbox.Message
		if err := rows.Scan(&m.ID, &m.AggregateID, &m.EventType, &m.Payload, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox rows: %w", err)
	}
	return msgs, nil
}

func (s *PostgresStore) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	strIDs := make([]string, len(ids))
	for i, msgID := range ids {
		strIDs[i] = msgID.String()
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE outbox SET published_at = $1 WHERE id = ANY($2::uuid[])`,
		at, pq.Array(strIDs),
	)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}
