package service

import (
	"context"
	"errors"

	"landledger/internal/audit"
	"landledger/internal/documents"
	"landledger/internal/land/models"
	id "landledger/pkg/domain"
	dErrors "landledger/pkg/domain-errors"
	"landledger/pkg/platform/sentinel"
)

// QueryService serves the read side for citizens and admins.
type QueryService struct {
	store ApplicationStore
	trail AuditTrail
	docs  documents.Store
}

func NewQueryService(store ApplicationStore, trail AuditTrail, docs documents.Store) (*QueryService, error) {
	if store == nil {
		return nil, errors.New("application store is required")
	}
	if trail == nil {
		return nil, errors.New("audit trail is required")
	}
	if docs == nil {
		return nil, errors.New("document store is required")
	}
	return &QueryService{store: store, trail: trail, docs: docs}, nil
}

// ApplicationPage is one page of a listing plus the unpaged total.
type ApplicationPage struct {
	Items []*models.LandApplication
	Total int
	Page  models.Page
}

// Detail is the admin view of one application.
type Detail struct {
	Application *models.LandApplication
	Checklist   []models.ChecklistItem
	Audit       []audit.Entry
}

// Get returns an application. Citizens only see their own; anything else is
// reported as not found.
func (s *QueryService) Get(ctx context.Context, appID id.ApplicationID, viewer id.UserID, admin bool) (*models.LandApplication, error) {
	app, err := s.store.FindByID(ctx, appID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return nil, models.NewPersistenceError("load application", err)
	}
	if !admin && app.SubmittedBy != viewer {
		return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
	}
	return app, nil
}

// Detail assembles the admin review view.
func (s *QueryService) Detail(ctx context.Context, appID id.ApplicationID) (*Detail, error) {
	app, err := s.Get(ctx, appID, id.UserID{}, true)
	if err != nil {
		return nil, err
	}
	entries, err := s.trail.List(ctx, appID)
	if err != nil {
		return nil, err
	}
	return &Detail{Application: app, Checklist: models.Checklist(app), Audit: entries}, nil
}

// ListMine lists the caller's own applications, newest first.
func (s *QueryService) ListMine(ctx context.Context, owner id.UserID, status models.Status, page models.Page) (*ApplicationPage, error) {
	return s.list(ctx, models.ListFilter{SubmittedBy: owner, Status: status}, page)
}

// ListAll lists every application for admins, newest first.
func (s *QueryService) ListAll(ctx context.Context, filter models.ListFilter, page models.Page) (*ApplicationPage, error) {
	return s.list(ctx, filter, page)
}

func (s *QueryService) list(ctx context.Context, filter models.ListFilter, page models.Page) (*ApplicationPage, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid status filter")
	}
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid type filter")
	}
	page = page.Normalize()
	items, total, err := s.store.List(ctx, filter, page)
	if err != nil {
		return nil, models.NewPersistenceError("list applications", err)
	}
	return &ApplicationPage{Items: items, Total: total, Page: page}, nil
}

// CountByStatus returns the off-chain application counts.
func (s *QueryService) CountByStatus(ctx context.Context) (models.StatusCounts, error) {
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return models.StatusCounts{}, models.NewPersistenceError("count applications", err)
	}
	return counts, nil
}

// Document fetches one stored document of an application the viewer may see.
func (s *QueryService) Document(ctx context.Context, appID id.ApplicationID, kind models.DocumentKind, viewer id.UserID, admin bool) (models.DocumentRef, *documents.Blob, error) {
	app, err := s.Get(ctx, appID, viewer, admin)
	if err != nil {
		return models.DocumentRef{}, nil, err
	}
	ref, ok := app.Documents[kind]
	if !ok {
		return models.DocumentRef{}, nil, dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	blob, err := s.docs.Get(ctx, ref.Handle)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.DocumentRef{}, nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return models.DocumentRef{}, nil, models.NewPersistenceError("load document", err)
	}
	return ref, blob, nil
}
