// Package handler exposes land application intake, review and download over
// HTTP.
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"landledger/internal/documents"
	ledgerhandler "landledger/internal/ledger/handler"
	"landledger/internal/ledger/reconcile"
	"landledger/internal/land/models"
	"landledger/internal/land/service"
	"landledger/internal/platform/metrics"
	"landledger/internal/platform/middleware"
	id "landledger/pkg/domain"
	dErrors "landledger/pkg/domain-errors"
	"landledger/pkg/platform/httputil"
	"landledger/pkg/platform/middleware/auth"
	request "landledger/pkg/platform/middleware/request"
	"landledger/pkg/platform/middleware/requesttime"
	"landledger/pkg/requestcontext"
)

const (
	// maxUploadBody bounds a whole submission: five documents plus form
	// overhead.
	maxUploadBody = 6*models.MaxDocumentSize + 1<<20
	// multipartMemory is held in memory before parts spill to temp files.
	multipartMemory = 8 << 20
)

type Intake interface {
	Submit(ctx context.Context, req service.SubmitRequest) (*models.LandApplication, error)
}

type Workflow interface {
	Decide(ctx context.Context, appID id.ApplicationID, action models.Action, actor, reason string) (*models.LandApplication, error)
	AddNote(ctx context.Context, appID id.ApplicationID, actor, note string) error
}

type Queries interface {
	Get(ctx context.Context, appID id.ApplicationID, viewer id.UserID, admin bool) (*models.LandApplication, error)
	Detail(ctx context.Context, appID id.ApplicationID) (*service.Detail, error)
	ListMine(ctx context.Context, owner id.UserID, status models.Status, page models.Page) (*service.ApplicationPage, error)
	ListAll(ctx context.Context, filter models.ListFilter, page models.Page) (*service.ApplicationPage, error)
	CountByStatus(ctx context.Context) (models.StatusCounts, error)
	Document(ctx context.Context, appID id.ApplicationID, kind models.DocumentKind, viewer id.UserID, admin bool) (models.DocumentRef, *documents.Blob, error)
}

// LedgerStats supplies the advisory ledger view shown on admin listings.
type LedgerStats interface {
	Stats(ctx context.Context) reconcile.AggregateStats
}

// Handler handles citizen and admin land application endpoints.
type Handler struct {
	logger       *slog.Logger
	intake       Intake
	workflow     Workflow
	queries      Queries
	stats        LedgerStats
	metrics      *metrics.Metrics
	jwtValidator auth.JWTValidator
}

func New(
	intake Intake,
	workflow Workflow,
	queries Queries,
	stats LedgerStats,
	logger *slog.Logger,
	m *metrics.Metrics,
	jwtValidator auth.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		intake:       intake,
		workflow:     workflow,
		queries:      queries,
		stats:        stats,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register adds the citizen routes under /land and the admin routes under
// /admin/land.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Recovery(h.logger))
		r.Use(request.RequestID)
		r.Use(requesttime.Middleware)
		r.Use(middleware.Logger(h.logger))
		r.Use(chimiddleware.Timeout(60 * time.Second))
		r.Use(middleware.LatencyMiddleware(h.metrics))
		r.Use(auth.RequireAuth(h.jwtValidator, h.logger))

		r.Get("/land/requirements", h.handleRequirements)
		r.Post("/land/applications/{type}", h.handleSubmit)
		r.Get("/land/applications", h.handleListMine)
		r.Get("/land/applications/{id}", h.handleGetMine)
		r.Get("/land/applications/{id}/documents/{kind}", h.handleDownload)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(requestcontext.RoleAdmin, h.logger))
			r.Get("/admin/land/applications", h.handleListAll)
			r.Get("/admin/land/applications/{id}", h.handleDetail)
			r.Post("/admin/land/applications/{id}/decision", h.handleDecide)
			r.Post("/admin/land/applications/{id}/notes", h.handleAddNote)
			r.Get("/admin/land/applications/{id}/audit", h.handleAudit)
			r.Get("/admin/land/applications/{id}/documents/{kind}", h.handleDownload)
		})
	})
}

func (h *Handler) handleRequirements(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, toRequirementsResponse(models.Requirements()))
}

// handleSubmit accepts one multipart form. Text parts are the descriptive
// fields; file parts are named by document kind.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.logger.WarnContext(ctx, "invalid multipart submission",
			"request_id", requestID,
			"error", err,
		)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "submission exceeds the upload limit"))
			return
		}
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "expected multipart/form-data body"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req := service.SubmitRequest{
		Type:        chi.URLParam(r, "type"),
		SubmittedBy: requestcontext.UserID(ctx),
		Fields:      make(map[string]string, len(r.MultipartForm.Value)),
		Documents:   make(map[models.DocumentKind]service.Upload, len(r.MultipartForm.File)),
	}
	for name, values := range r.MultipartForm.Value {
		if len(values) > 0 {
			req.Fields[name] = values[0]
		}
	}
	for name, headers := range r.MultipartForm.File {
		if len(headers) == 0 {
			continue
		}
		upload, err := readUpload(headers[0])
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to read uploaded document",
				"request_id", requestID,
				"kind", name,
				"error", err,
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unreadable document upload"))
			return
		}
		req.Documents[models.DocumentKind(name)] = upload
	}

	app, err := h.intake.Submit(ctx, req)
	if err != nil {
		h.writeServiceError(ctx, w, "submit application", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toApplicationResponse(app))
}

// readUpload reads at most one byte past the size limit so intake can refuse
// oversized documents without buffering them whole.
func readUpload(fh *multipart.FileHeader) (service.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return service.Upload{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, models.MaxDocumentSize+1))
	if err != nil {
		return service.Upload{}, err
	}
	return service.Upload{Filename: fh.Filename, Data: data}, nil
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := parsePage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.queries.ListMine(ctx, requestcontext.UserID(ctx), models.Status(r.URL.Query().Get("status")), page)
	if err != nil {
		h.writeServiceError(ctx, w, "list own applications", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(result))
}

func (h *Handler) handleGetMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := applicationID(w, r)
	if !ok {
		return
	}
	app, err := h.queries.Get(ctx, appID, requestcontext.UserID(ctx), false)
	if err != nil {
		h.writeServiceError(ctx, w, "get application", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

// handleDownload streams a stored document. Admins may read any application;
// citizens only their own.
func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := applicationID(w, r)
	if !ok {
		return
	}
	kind := models.DocumentKind(chi.URLParam(r, "kind"))
	ref, blob, err := h.queries.Document(ctx, appID, kind, requestcontext.UserID(ctx), requestcontext.IsAdmin(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, "download document", err)
		return
	}
	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": ref.Filename}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob.Data)
}

func (h *Handler) handleListAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := parsePage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	filter := models.ListFilter{
		Status: models.Status(r.URL.Query().Get("status")),
		Type:   models.ApplicationType(r.URL.Query().Get("type")),
	}
	result, err := h.queries.ListAll(ctx, filter, page)
	if err != nil {
		h.writeServiceError(ctx, w, "list applications", err)
		return
	}
	counts, err := h.queries.CountByStatus(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, "count applications", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AdminListResponse{
		ListResponse: toListResponse(result),
		StatusCounts: counts,
		LedgerStats:  ledgerhandler.NewStatsResponse(h.stats.Stats(ctx)),
	})
}

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := applicationID(w, r)
	if !ok {
		return
	}
	detail, err := h.queries.Detail(ctx, appID)
	if err != nil {
		h.writeServiceError(ctx, w, "get application detail", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDetailResponse(detail))
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := applicationID(w, r)
	if !ok {
		return
	}
	detail, err := h.queries.Detail(ctx, appID)
	if err != nil {
		h.writeServiceError(ctx, w, "list audit trail", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAuditResponse(detail.Audit))
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	appID, ok := applicationID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[DecisionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	app, err := h.workflow.Decide(ctx, appID, req.Action(), requestcontext.UserID(ctx).String(), req.RejectionReason)
	if err != nil {
		h.writeServiceError(ctx, w, "decide application", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

func (h *Handler) handleAddNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	appID, ok := applicationID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[NoteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.workflow.AddNote(ctx, appID, requestcontext.UserID(ctx).String(), req.Note); err != nil {
		h.writeServiceError(ctx, w, "add note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError logs at a level matching the error class and writes it.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	code, _ := dErrors.CodeOf(err)
	level := slog.LevelWarn
	if code == "" || code == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, op+" failed",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", requestcontext.UserID(ctx).String(),
		"error", err,
	)
	httputil.WriteError(w, err)
}

func applicationID(w http.ResponseWriter, r *http.Request) (id.ApplicationID, bool) {
	appID, err := id.ParseApplicationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ApplicationID{}, false
	}
	return appID, true
}

func parsePage(r *http.Request) (models.Page, error) {
	var page models.Page
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, dErrors.New(dErrors.CodeInvalidInput, "page must be an integer")
		}
		page.Number = n
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, dErrors.New(dErrors.CodeInvalidInput, "page_size must be an integer")
		}
		page.Size = n
	}
	return page.Normalize(), nil
}
