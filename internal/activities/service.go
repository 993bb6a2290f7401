// internal/activities/service.go
package activities

import (
	"context"
	"errors"
	"time"

	apperrors "activity-signup/internal/common/errors"
	"activity-signup/internal/common/logger"
	"activity-signup/internal/common/metrics"
	"activity-signup/internal/common/observability"
	"activity-signup/internal/common/reqctx"
	"activity-signup/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	ResultOK                  = "ok"
	ResultActivityNotFound    = "activity_not_found"
	ResultParticipantNotFound = "participant_not_found"
	ResultAlreadySignedUp     = "already_signed_up"
	ResultActivityFull        = "activity_full"

	defaultSideEffectTimeout = 2 * time.Second
)

// AuditRecorder persists completed registry mutations.
type AuditRecorder interface {
	Record(ctx context.Context, event models.SignupEvent) error
}

// Notifier tells the outside world about completed registry mutations.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) (*models.NotificationResult, error)
}

// Service wraps the Registry with logging, metrics, tracing and the
// best-effort audit and notification side effects.
type Service struct {
	registry      *Registry
	logger        logger.Logger
	obs           *observability.Observability
	audit         AuditRecorder
	notifier      Notifier
	auditTimeout  time.Duration
	notifyTimeout time.Duration
	now           func() time.Time
}

type ServiceOption func(*Service)

func WithAudit(rec AuditRecorder, timeout time.Duration) ServiceOption {
	return func(s *Service) {
		s.audit = rec
		if timeout > 0 {
			s.auditTimeout = timeout
		}
	}
}

func WithNotifier(n Notifier, timeout time.Duration) ServiceOption {
	return func(s *Service) {
		s.notifier = n
		if timeout > 0 {
			s.notifyTimeout = timeout
		}
	}
}

func WithObservability(obs *observability.Observability) ServiceOption {
	return func(s *Service) {
		if obs != nil {
			s.obs = obs
		}
	}
}

// WithClock overrides the timestamp source used for events.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(reg *Registry, log logger.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		registry:      reg,
		logger:        log.WithFields(map[string]interface{}{"component": "activities"}),
		obs:           observability.NewNoop(),
		auditTimeout:  defaultSideEffectTimeout,
		notifyTimeout: defaultSideEffectTimeout,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	for name, a := range reg.List() {
		metrics.RegistryParticipants.WithLabelValues(name).Set(float64(len(a.Participants)))
	}
	return s
}

// Registry exposes the underlying registry, mainly for tests and tooling.
func (s *Service) Registry() *Registry {
	return s.registry
}

// ListActivities returns the full registry snapshot.
func (s *Service) ListActivities(ctx context.Context) map[string]models.Activity {
	start := time.Now()
	ctx, span := s.obs.StartSpan(ctx, "activities.list")
	defer span.End()

	all := s.registry.List()

	span.SetAttributes(attribute.Int("activity.count", len(all)))
	s.observe(ctx, "list", ResultOK, start)
	return all
}

// Signup adds email to the named activity. Errors are *apperrors.StandardError.
func (s *Service) Signup(ctx context.Context, name, email string) (*models.SignupEvent, error) {
	return s.mutate(ctx, models.ActionSignup, name, email, s.registry.Signup)
}

// Unregister removes email from the named activity. Errors are
// *apperrors.StandardError.
func (s *Service) Unregister(ctx context.Context, name, email string) (*models.SignupEvent, error) {
	return s.mutate(ctx, models.ActionUnregister, name, email, s.registry.Unregister)
}

func (s *Service) mutate(
	ctx context.Context,
	action models.SignupAction,
	name, email string,
	op func(name, email string) (models.Activity, error),
) (*models.SignupEvent, error) {
	start := time.Now()
	ctx, span := s.obs.StartSpan(ctx, "activities."+string(action),
		attribute.String("activity.name", name),
	)
	defer span.End()

	requestID := reqctx.RequestID(ctx)
	log := logger.ForRequest(ctx, s.logger).WithFields(map[string]interface{}{
		"action":   string(action),
		"activity": name,
	})

	updated, err := op(name, email)
	if err != nil {
		result := resultLabel(err)
		s.observe(ctx, string(action), result, start)
		span.SetStatus(codes.Error, result)
		log.Warn("registry operation rejected", map[string]interface{}{
			"result": result,
			"email":  email,
		})
		return nil, s.toStandardError(err, name, email)
	}

	metrics.RegistryParticipants.WithLabelValues(name).Set(float64(len(updated.Participants)))
	s.observe(ctx, string(action), ResultOK, start)

	event := &models.SignupEvent{
		ID:         uuid.New().String(),
		Action:     action,
		Activity:   name,
		Email:      email,
		RequestID:  requestID,
		OccurredAt: s.now().UTC().Format(time.RFC3339),
	}

	log.Info("registry updated", map[string]interface{}{
		"eventId":      event.ID,
		"participants": len(updated.Participants),
	})

	// The registry lock is already released here.
	s.recordAudit(ctx, log, event)
	s.sendNotification(ctx, log, event)

	return event, nil
}

func (s *Service) recordAudit(ctx context.Context, log logger.Logger, event *models.SignupEvent) {
	if s.audit == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.auditTimeout)
	defer cancel()

	if err := s.audit.Record(ctx, *event); err != nil {
		metrics.SideEffectsFailed.WithLabelValues("audit").Inc()
		log.Error("audit write failed", map[string]interface{}{
			"error":   apperrors.NewAuditWriteFailedError(err),
			"eventId": event.ID,
		})
	}
}

func (s *Service) sendNotification(ctx context.Context, log logger.Logger, event *models.SignupEvent) {
	if s.notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	n := models.Notification{
		ID:         event.ID,
		Type:       notificationType(event.Action),
		Activity:   event.Activity,
		Email:      event.Email,
		OccurredAt: event.OccurredAt,
	}

	res, err := s.notifier.Notify(ctx, n)
	if err != nil {
		metrics.SideEffectsFailed.WithLabelValues("notification").Inc()
		log.Error("notification failed", map[string]interface{}{
			"error":   err,
			"eventId": event.ID,
		})
		return
	}
	if res != nil {
		log.Debug("notification dispatched", map[string]interface{}{
			"eventId":  event.ID,
			"channels": res.Channels,
		})
	}
}

func (s *Service) observe(ctx context.Context, operation, result string, start time.Time) {
	metrics.RegistryOperations.WithLabelValues(operation, result).Inc()
	s.obs.RecordOperation(ctx, operation, result, time.Since(start))
}

func notificationType(action models.SignupAction) string {
	if action == models.ActionUnregister {
		return models.NotificationTypeUnregistered
	}
	return models.NotificationTypeSignedUp
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, ErrActivityNotFound):
		return ResultActivityNotFound
	case errors.Is(err, ErrParticipantNotFound):
		return ResultParticipantNotFound
	case errors.Is(err, ErrAlreadySignedUp):
		return ResultAlreadySignedUp
	case errors.Is(err, ErrActivityFull):
		return ResultActivityFull
	default:
		return "error"
	}
}

func (s *Service) toStandardError(err error, name, email string) error {
	switch {
	case errors.Is(err, ErrActivityNotFound):
		return apperrors.NewActivityNotFoundError(name, err)
	case errors.Is(err, ErrParticipantNotFound):
		return apperrors.NewParticipantNotFoundError(name, email, err)
	case errors.Is(err, ErrAlreadySignedUp):
		return apperrors.NewAlreadySignedUpError(name, email, err)
	case errors.Is(err, ErrActivityFull):
		capacity := 0
		if a, getErr := s.registry.Get(name); getErr == nil {
			capacity = a.MaxParticipants
		}
		return apperrors.NewActivityFullError(name, capacity, err)
	default:
		return apperrors.NewInternalError(err)
	}
}
