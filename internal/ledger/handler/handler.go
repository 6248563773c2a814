// Package handler exposes ledger stats and admin passthrough calls to the
// land registry.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"landledger/internal/ledger"
	"landledger/internal/ledger/reconcile"
	"landledger/internal/platform/metrics"
	"landledger/internal/platform/middleware"
	dErrors "landledger/pkg/domain-errors"
	"landledger/pkg/platform/httputil"
	"landledger/pkg/platform/middleware/auth"
	request "landledger/pkg/platform/middleware/request"
	"landledger/pkg/platform/middleware/requesttime"
	"landledger/pkg/requestcontext"
)

// StatsService serves aggregate ledger stats.
type StatsService interface {
	Stats(ctx context.Context) reconcile.AggregateStats
	RefreshStats(ctx context.Context) reconcile.AggregateStats
}

// Handler handles /admin/ledger endpoints.
type Handler struct {
	logger       *slog.Logger
	stats        StatsService
	chain        ledger.ChainClient
	metrics      *metrics.Metrics
	jwtValidator auth.JWTValidator
}

func New(stats StatsService, chain ledger.ChainClient, logger *slog.Logger, m *metrics.Metrics, jwtValidator auth.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		stats:        stats,
		chain:        chain,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register adds the admin-only ledger routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Recovery(h.logger))
		r.Use(request.RequestID)
		r.Use(requesttime.Middleware)
		r.Use(middleware.Logger(h.logger))
		r.Use(chimiddleware.Timeout(30 * time.Second))
		r.Use(middleware.LatencyMiddleware(h.metrics))
		r.Use(auth.RequireAuth(h.jwtValidator, h.logger))
		r.Use(auth.RequireRole(requestcontext.RoleAdmin, h.logger))

		r.Get("/admin/ledger/stats", h.handleStats)
		r.Post("/admin/ledger/lands", h.handleRegisterLand)
		r.Post("/admin/ledger/lands/{landID}/transfer", h.handleTransferLand)
		r.Post("/admin/ledger/lands/{landID}/building-permission", h.handleGrantPermission)
		r.Post("/admin/ledger/users", h.handleRegisterUser)
	})
}

// handleStats serves the cached stats; ?refresh=true forces a ledger round.
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var stats reconcile.AggregateStats
	if r.URL.Query().Get("refresh") == "true" {
		stats = h.stats.RefreshStats(ctx)
	} else {
		stats = h.stats.Stats(ctx)
	}
	httputil.WriteJSON(w, http.StatusOK, NewStatsResponse(stats))
}

func (h *Handler) handleRegisterLand(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[RegisterLandRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	receipt, err := h.chain.RegisterLand(ctx, req.Location, req.Size)
	h.writeReceipt(ctx, w, "register_land", receipt, err)
}

func (h *Handler) handleTransferLand(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	landID, ok := h.landID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransferLandRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	receipt, err := h.chain.TransferLand(ctx, req.ToAddress, landID)
	h.writeReceipt(ctx, w, "transfer_land", receipt, err)
}

func (h *Handler) handleGrantPermission(w http.ResponseWriter, r *http.Request) {
	landID, ok := h.landID(w, r)
	if !ok {
		return
	}
	receipt, err := h.chain.GrantBuildingPermission(r.Context(), landID)
	h.writeReceipt(r.Context(), w, "grant_building_permission", receipt, err)
}

func (h *Handler) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[RegisterUserRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	receipt, err := h.chain.RegisterUser(ctx, req.Name, req.Role)
	h.writeReceipt(ctx, w, "register_user", receipt, err)
}

func (h *Handler) landID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	landID, err := strconv.ParseUint(chi.URLParam(r, "landID"), 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid land id"))
		return 0, false
	}
	return landID, true
}

// writeReceipt answers 202: the ledger accepted the transaction but has not
// confirmed it.
func (h *Handler) writeReceipt(ctx context.Context, w http.ResponseWriter, op string, receipt ledger.Receipt, err error) {
	if err != nil {
		h.logger.WarnContext(ctx, "ledger call failed",
			"request_id", requestcontext.RequestID(ctx),
			"op", op,
			"retryable", ledger.IsRetryable(err),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "ledger transaction submitted",
		"request_id", requestcontext.RequestID(ctx),
		"op", op,
		"tx_hash", receipt.TxHash,
		"user_id", requestcontext.UserID(ctx).String(),
	)
	httputil.WriteJSON(w, http.StatusAccepted, receipt)
}
