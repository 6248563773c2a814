package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"landledger/internal/audit"
	"landledger/internal/land/metrics"
	"landledger/internal/land/models"
	id "landledger/pkg/domain"
	dErrors "landledger/pkg/domain-errors"
	"landledger/pkg/platform/sentinel"
	"landledger/pkg/platform/tx"
	"landledger/pkg/requestcontext"
)

// WorkflowService moves applications out of pending. Each decision and its
// audit entry commit together or not at all.
type WorkflowService struct {
	store   ApplicationStore
	trail   AuditTrail
	runner  tx.Runner
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type WorkflowOption func(*WorkflowService)

func WithWorkflowLogger(logger *slog.Logger) WorkflowOption {
	return func(s *WorkflowService) { s.logger = logger }
}

func WithWorkflowMetrics(m *metrics.Metrics) WorkflowOption {
	return func(s *WorkflowService) { s.metrics = m }
}

func NewWorkflowService(store ApplicationStore, trail AuditTrail, runner tx.Runner, opts ...WorkflowOption) (*WorkflowService, error) {
	if store == nil {
		return nil, errors.New("application store is required")
	}
	if trail == nil {
		return nil, errors.New("audit trail is required")
	}
	if runner == nil {
		return nil, errors.New("tx runner is required")
	}
	s := &WorkflowService{store: store, trail: trail, runner: runner, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Decide applies action to a pending application. Once an application has
// left pending every later call reports AlreadyResolved with the stored
// status. Decisions are never retried.
func (s *WorkflowService) Decide(ctx context.Context, appID id.ApplicationID, action models.Action, actor, reason string) (*models.LandApplication, error) {
	ctx, span := tracer.Start(ctx, "land.decide")
	defer span.End()
	span.SetAttributes(
		attribute.String("application_id", appID.String()),
		attribute.String("action", string(action)),
	)
	start := time.Now()
	defer func() { s.metrics.ObserveDecisionLatency(time.Since(start)) }()

	target, ok := action.TargetStatus()
	if !ok {
		return nil, models.InvalidAction()
	}
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "actor is required")
	}

	reason = strings.TrimSpace(reason)
	if target != models.StatusRejected {
		reason = ""
	}
	decision := models.Decision{
		Status:          target,
		RejectionReason: reason,
		DecidedAt:       requestcontext.Now(ctx).UTC(),
		DecidedBy:       actor,
	}

	// The pending guard is read inside the unit.
	var decided *models.LandApplication
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.load(ctx, appID)
		if err != nil {
			return err
		}
		if current.Status != models.StatusPending {
			return models.AlreadyResolved(current.Status)
		}
		if target == models.StatusRejected && reason == "" {
			return models.MissingReason()
		}

		updated, err := s.store.Decide(ctx, appID, decision)
		if err != nil {
			return s.translateDecideError(ctx, appID, err)
		}
		if err := s.trail.Append(ctx, audit.Entry{
			ApplicationID: appID,
			Actor:         actor,
			Kind:          audit.KindDecision,
			Decision:      string(target),
			Note:          reason,
		}); err != nil {
			return err
		}
		decided = updated
		return nil
	})
	if err != nil {
		return nil, s.decisionFailed(ctx, appID, action, actor, err)
	}

	s.metrics.IncrementDecision(strings.ToLower(string(target)))
	s.logger.InfoContext(ctx, "land application decided",
		"application_id", appID.String(),
		"status", string(target),
		"actor", actor,
	)
	return decided, nil
}

func (s *WorkflowService) decisionFailed(ctx context.Context, appID id.ApplicationID, action models.Action, actor string, err error) error {
	if status, resolved := models.IsAlreadyResolved(err); resolved {
		s.metrics.IncrementDecision("already_resolved")
		s.logger.InfoContext(ctx, "decision refused, application already resolved",
			"application_id", appID.String(),
			"status", string(status),
			"actor", actor,
		)
		return err
	}
	if models.IsMissingReason(err) {
		s.metrics.IncrementDecision("missing_reason")
		return err
	}
	s.metrics.IncrementDecision("error")
	code, coded := dErrors.CodeOf(err)
	if !coded {
		err = models.NewPersistenceError("commit decision", err)
	} else if code == dErrors.CodeNotFound {
		return err
	}
	s.logger.ErrorContext(ctx, "decision failed",
		"application_id", appID.String(),
		"action", string(action),
		"error", err,
	)
	return err
}

// translateDecideError turns a lost compare-and-set into AlreadyResolved
// carrying the status the winner stored.
func (s *WorkflowService) translateDecideError(ctx context.Context, appID id.ApplicationID, err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "application not found")
	case errors.Is(err, sentinel.ErrConflict):
		latest, findErr := s.store.FindByID(ctx, appID)
		if findErr != nil {
			return models.NewPersistenceError("reload application", findErr)
		}
		return models.AlreadyResolved(latest.Status)
	default:
		return models.NewPersistenceError("update application", err)
	}
}

// AddNote appends a free-text note to the application's audit trail. Notes
// are accepted in any status.
func (s *WorkflowService) AddNote(ctx context.Context, appID id.ApplicationID, actor, note string) error {
	if strings.TrimSpace(note) == "" {
		return models.MissingField("note")
	}
	if _, err := s.load(ctx, appID); err != nil {
		return err
	}
	return s.trail.Append(ctx, audit.Entry{
		ApplicationID: appID,
		Actor:         strings.TrimSpace(actor),
		Kind:          audit.KindNote,
		Note:          strings.TrimSpace(note),
	})
}

func (s *WorkflowService) load(ctx context.Context, appID id.ApplicationID) (*models.LandApplication, error) {
	app, err := s.store.FindByID(ctx, appID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return nil, models.NewPersistenceError("load application", err)
	}
	return app, nil
}
