package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"landledger/internal/land/models"
	id "landledger/pkg/domain"
	"landledger/pkg/platform/sentinel"
	"landledger/pkg/platform/tx"
)

const uniqueViolation = "23505"

const applicationColumns = `id, application_type, submitted_by, owner_name, land_location, land_type,
	type_specific_fields, documents, status, rejection_reason, submission_date, decision_date, decided_by`

// PostgresStore persists applications in PostgreSQL. Statements run inside the
// transaction bound to ctx when there is one.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, app *models.LandApplication) error {
	fields, err := json.Marshal(app.TypeSpecificFields)
	if err != nil {
		return fmt.Errorf("marshal type specific fields: %w", err)
	}
	docs, err := json.Marshal(app.Documents)
	if err != nil {
		return fmt.Errorf("marshal documents: %w", err)
	}

	query := `
		INSERT INTO land_applications (` + applicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = tx.Execer(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(app.ID),
		string(app.Type),
		uuid.UUID(app.SubmittedBy),
		app.OwnerName,
		app.LandLocation,
		app.LandType,
		fields,
		docs,
		string(app.Status),
		nullString(app.RejectionReason),
		app.SubmissionDate,
		app.DecisionDate,
		app.DecidedBy,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert land application: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, appID id.ApplicationID) (*models.LandApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM land_applications WHERE id = $1`
	app, err := scanApplication(tx.Execer(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(appID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find land application: %w", err)
	}
	return app, nil
}

// Decide is a compare-and-swap on status. When no row matches, the caller
// lost the race or the id is unknown; a follow-up read tells them apart.
func (s *PostgresStore) Decide(ctx context.Context, appID id.ApplicationID, d models.Decision) (*models.LandApplication, error) {
	query := `
		UPDATE land_applications
		SET status = $2, rejection_reason = $3, decision_date = $4, decided_by = $5
		WHERE id = $1 AND status = 'Pending'
		RETURNING ` + applicationColumns

	reason := ""
	if d.Status == models.StatusRejected {
		reason = d.RejectionReason
	}
	app, err := scanApplication(tx.Execer(ctx, s.db).QueryRowContext(ctx, query,
		uuid.UUID(appID),
		string(d.Status),
		nullString(reason),
		d.DecidedAt,
		d.DecidedBy,
	))
	if err == nil {
		return app, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("decide land application: %w", err)
	}
	if _, findErr := s.FindByID(ctx, appID); findErr != nil {
		return nil, findErr
	}
	return nil, sentinel.ErrConflict
}

func (s *PostgresStore) List(ctx context.Context, filter models.ListFilter, page models.Page) ([]*models.LandApplication, int, error) {
	page = page.Normalize()
	where, args := filterClause(filter)
	q := tx.Execer(ctx, s.db)

	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM land_applications`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count land applications: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM land_applications%s ORDER BY submission_date DESC, id LIMIT $%d OFFSET $%d`,
		applicationColumns, where, len(args)+1, len(args)+2)
	rows, err := q.QueryContext(ctx, query, append(args, page.Size, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list land applications: %w", err)
	}
	defer rows.Close()

	apps := []*models.LandApplication{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan land application: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate land applications: %w", err)
	}
	return apps, total, nil
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (models.StatusCounts, error) {
	var counts models.StatusCounts
	rows, err := tx.Execer(ctx, s.db).QueryContext(ctx, `SELECT status, COUNT(*) FROM land_applications GROUP BY status`)
	if err != nil {
		return counts, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return counts, fmt.Errorf("scan status count: %w", err)
		}
		counts.Add(models.Status(status), n)
	}
	if err := rows.Err(); err != nil {
		return counts, fmt.Errorf("iterate status counts: %w", err)
	}
	return counts, nil
}

func filterClause(f models.ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Type != "" {
		args = append(args, string(f.Type))
		conds = append(conds, fmt.Sprintf("application_type = $%d", len(args)))
	}
	if !f.SubmittedBy.IsNil() {
		args = append(args, uuid.UUID(f.SubmittedBy))
		conds = append(conds, fmt.Sprintf("submitted_by = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*models.LandApplication, error) {
	var (
		app          models.LandApplication
		appID        uuid.UUID
		submittedBy  uuid.UUID
		appType      string
		status       string
		fields       []byte
		docs         []byte
		reason       sql.NullString
		decisionDate sql.NullTime
		decidedBy    sql.NullString
	)
	err := row.Scan(
		&appID,
		&appType,
		&submittedBy,
		&app.OwnerName,
		&app.LandLocation,
		&app.LandType,
		&fields,
		&docs,
		&status,
		&reason,
		&app.SubmissionDate,
		&decisionDate,
		&decidedBy,
	)
	if err != nil {
		return nil, err
	}

	app.ID = id.ApplicationID(appID)
	app.SubmittedBy = id.UserID(submittedBy)
	app.Type = models.ApplicationType(appType)
	app.Status = models.Status(status)
	app.RejectionReason = reason.String
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &app.TypeSpecificFields); err != nil {
			return nil, fmt.Errorf("unmarshal type specific fields: %w", err)
		}
	}
	if err := json.Unmarshal(docs, &app.Documents); err != nil {
		return nil, fmt.Errorf("unmarshal documents: %w", err)
	}
	if decisionDate.Valid {
		t := decisionDate.Time.UTC()
		app.DecisionDate = &t
	}
	if decidedBy.Valid {
		s := decidedBy.String
		app.DecidedBy = &s
	}
	app.SubmissionDate = app.SubmissionDate.UTC()
	return &app, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
