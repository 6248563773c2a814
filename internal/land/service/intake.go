package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"landledger/internal/documents"
	"landledger/internal/land/metrics"
	"landledger/internal/land/models"
	id "landledger/pkg/domain"
	dErrors "landledger/pkg/domain-errors"
	"landledger/pkg/requestcontext"
)

var tracer = otel.Tracer("landledger/land/service")

// Upload is one document as received from the citizen.
type Upload struct {
	Filename string
	Data     []byte
}

// SubmitRequest carries a raw submission. Type is validated here, not by the
// transport.
type SubmitRequest struct {
	Type        string
	SubmittedBy id.UserID
	Fields      map[string]string
	Documents   map[models.DocumentKind]Upload
}

// IntakeService admits complete applications as pending.
type IntakeService struct {
	store     ApplicationStore
	docs      documents.Store
	inspector ContentInspector
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

type IntakeOption func(*IntakeService)

func WithIntakeLogger(logger *slog.Logger) IntakeOption {
	return func(s *IntakeService) { s.logger = logger }
}

func WithIntakeMetrics(m *metrics.Metrics) IntakeOption {
	return func(s *IntakeService) { s.metrics = m }
}

func NewIntakeService(store ApplicationStore, docs documents.Store, inspector ContentInspector, opts ...IntakeOption) (*IntakeService, error) {
	if store == nil {
		return nil, errors.New("application store is required")
	}
	if docs == nil {
		return nil, errors.New("document store is required")
	}
	if inspector == nil {
		return nil, errors.New("content inspector is required")
	}
	s := &IntakeService{store: store, docs: docs, inspector: inspector, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// validated is a submission that passed every check.
type validated struct {
	appType   models.ApplicationType
	common    map[string]string
	extra     map[string]string
	documents map[models.DocumentKind]models.DocumentRef
	data      map[models.DocumentKind][]byte
}

// Submit validates req completely before touching any store. A validation
// failure has no side effect; a storage failure removes any documents already
// written.
func (s *IntakeService) Submit(ctx context.Context, req SubmitRequest) (*models.LandApplication, error) {
	ctx, span := tracer.Start(ctx, "land.submit")
	defer span.End()
	span.SetAttributes(attribute.String("application_type", req.Type))

	if req.SubmittedBy.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "submitter is required")
	}

	v, err := s.validate(req)
	if err != nil {
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			s.metrics.IncrementRefused(req.Type, string(ve.Reason))
			s.logger.InfoContext(ctx, "submission refused",
				"application_type", req.Type,
				"reason", string(ve.Reason),
				"subject", ve.Subject,
			)
		}
		return nil, err
	}

	appID := id.NewApplicationID()
	stored, err := s.storeDocuments(ctx, appID, v)
	if err != nil {
		s.compensate(ctx, appID, stored)
		return nil, models.NewPersistenceError("store documents", err)
	}

	app := &models.LandApplication{
		ID:                 appID,
		Type:               v.appType,
		SubmittedBy:        req.SubmittedBy,
		OwnerName:          v.common[models.FieldOwnerName],
		LandLocation:       v.common[models.FieldLandLocation],
		LandType:           v.common[models.FieldLandType],
		TypeSpecificFields: v.extra,
		Documents:          v.documents,
		Status:             models.StatusPending,
		SubmissionDate:     requestcontext.Now(ctx).UTC(),
	}
	if err := s.store.Create(ctx, app); err != nil {
		s.compensate(ctx, appID, stored)
		return nil, models.NewPersistenceError("create application", err)
	}

	s.metrics.IncrementSubmission(string(app.Type))
	s.logger.InfoContext(ctx, "land application submitted",
		"application_id", appID.String(),
		"application_type", string(app.Type),
		"user_id", req.SubmittedBy.String(),
	)
	return app, nil
}

func (s *IntakeService) validate(req SubmitRequest) (*validated, error) {
	appType, ok := models.ParseApplicationType(req.Type)
	if !ok {
		return nil, models.UnknownType(req.Type)
	}
	reqs, _ := models.RequirementFor(appType)

	v := &validated{
		appType:   appType,
		common:    make(map[string]string, 3),
		extra:     map[string]string{},
		documents: make(map[models.DocumentKind]models.DocumentRef, len(reqs.Documents)),
		data:      make(map[models.DocumentKind][]byte, len(reqs.Documents)),
	}

	for _, name := range reqs.RequiredFields {
		value := strings.TrimSpace(req.Fields[name])
		if value == "" {
			return nil, models.MissingField(name)
		}
		switch name {
		case models.FieldOwnerName, models.FieldLandLocation, models.FieldLandType:
			v.common[name] = value
		default:
			v.extra[name] = value
		}
	}
	for _, name := range reqs.OptionalFields {
		if value := strings.TrimSpace(req.Fields[name]); value != "" {
			v.extra[name] = value
		}
	}

	for _, kind := range reqs.Documents {
		upload, ok := req.Documents[kind]
		if !ok {
			return nil, models.MissingDocument(kind)
		}
		if int64(len(upload.Data)) > models.MaxDocumentSize {
			return nil, models.FileTooLarge(kind)
		}
		contentType, ok := s.inspector.Inspect(upload.Data)
		if !ok || !models.AllowedContentTypes[contentType] {
			return nil, models.InvalidFileType(kind)
		}
		v.documents[kind] = models.DocumentRef{
			Filename:    upload.Filename,
			ContentType: contentType,
			Size:        int64(len(upload.Data)),
		}
		v.data[kind] = upload.Data
	}

	var unexpected []string
	for kind := range req.Documents {
		if !models.IsDocumentFor(appType, kind) {
			unexpected = append(unexpected, string(kind))
		}
	}
	if len(unexpected) > 0 {
		sort.Strings(unexpected)
		return nil, models.UnexpectedDocument(models.DocumentKind(unexpected[0]))
	}
	return v, nil
}

// storeDocuments writes in table order and returns the handles written so
// far, even on failure.
func (s *IntakeService) storeDocuments(ctx context.Context, appID id.ApplicationID, v *validated) ([]string, error) {
	var stored []string
	for _, kind := range models.RequiredDocuments(v.appType) {
		ref := v.documents[kind]
		handle := documents.Handle(appID.String(), string(kind))
		if err := s.docs.Put(ctx, handle, ref.ContentType, v.data[kind]); err != nil {
			return stored, err
		}
		stored = append(stored, handle)
		ref.Handle = handle
		v.documents[kind] = ref
	}
	return stored, nil
}

func (s *IntakeService) compensate(ctx context.Context, appID id.ApplicationID, handles []string) {
	if len(handles) == 0 {
		return
	}
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	for _, handle := range handles {
		if err := s.docs.Delete(cleanupCtx, handle); err != nil {
			s.logger.ErrorContext(ctx, "orphaned document left in store",
				"application_id", appID.String(),
				"handle", handle,
				"error", err,
			)
		}
	}
}
