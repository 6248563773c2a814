package service

import (
	"context"

	"landledger/internal/audit"
	"landledger/internal/land/models"
	id "landledger/pkg/domain"
)

// ApplicationStore persists land applications. Decide must apply the
// decision only while the stored status is pending and report a lost race as
// sentinel.ErrConflict.
type ApplicationStore interface {
	Create(ctx context.Context, app *models.LandApplication) error
	FindByID(ctx context.Context, appID id.ApplicationID) (*models.LandApplication, error)
	Decide(ctx context.Context, appID id.ApplicationID, d models.Decision) (*models.LandApplication, error)
	List(ctx context.Context, filter models.ListFilter, page models.Page) ([]*models.LandApplication, int, error)
	CountByStatus(ctx context.Context) (models.StatusCounts, error)
}

// AuditTrail appends and lists audit entries.
type AuditTrail interface {
	Append(ctx context.Context, entry audit.Entry) error
	List(ctx context.Context, appID id.ApplicationID) ([]audit.Entry, error)
}

// ContentInspector derives a media type from document bytes.
type ContentInspector interface {
	Inspect(data []byte) (contentType string, ok bool)
}
