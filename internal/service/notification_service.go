package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cometicitcare/dba-backend-sub002/internal/models"
	"github.com/cometicitcare/dba-backend-sub002/pkg/jobs"
)

// TransitionNotification is the payload queued for each accepted transition.
type TransitionNotification struct {
	RecordID           string
	RegistrationNumber string
	Entity             models.RegistrationEntity
	Action             string
	FromStatus         string
	ToStatus           string
	ActorID            string
	Reason             string
}

// NotificationService dispatches transition notifications off the request
// path through the in-memory job queue. Delivery is currently a structured
// log entry; the queue gives retries and backpressure when a real channel
// (email, SMS) is plugged in.
type NotificationService struct {
	queue   *jobs.Queue
	logger  *zap.Logger
	enabled bool
}

// NewNotificationService constructs the service and its worker queue.
func NewNotificationService(logger *zap.Logger, workers, retries int, enabled bool) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{logger: logger, enabled: enabled}
	s.queue = jobs.NewQueue("transition-notifications", s.deliver, jobs.QueueConfig{
		Workers:    workers,
		MaxRetries: retries,
		Logger:     logger,
	})
	return s
}

// Start launches the worker pool.
func (s *NotificationService) Start(ctx context.Context) {
	if s.enabled {
		s.queue.Start(ctx)
	}
}

// Stop drains the worker pool.
func (s *NotificationService) Stop() {
	if s.enabled {
		s.queue.Stop()
	}
}

// OnTransition implements TransitionHook.
func (s *NotificationService) OnTransition(_ context.Context, record *models.RegistrationRecord, event *models.TransitionEvent) {
	if !s.enabled || record == nil || event == nil {
		return
	}
	payload := TransitionNotification{
		RecordID:           record.ID,
		RegistrationNumber: record.RegistrationNumber,
		Entity:             record.Entity,
		Action:             event.Action,
		FromStatus:         event.FromStatus,
		ToStatus:           event.ToStatus,
		ActorID:            event.ActorID,
	}
	if event.Reason != nil {
		payload.Reason = *event.Reason
	}
	if err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    fmt.Sprintf("transition.%s", event.Action),
		Payload: payload,
	}); err != nil {
		s.logger.Warn("failed to enqueue transition notification",
			zap.String("record_id", record.ID),
			zap.Error(err))
	}
}

func (s *NotificationService) deliver(_ context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(TransitionNotification)
	if !ok {
		return fmt.Errorf("unexpected notification payload type %T", job.Payload)
	}
	s.logger.Info("transition notification",
		zap.String("record_id", payload.RecordID),
		zap.String("registration_number", payload.RegistrationNumber),
		zap.String("entity", string(payload.Entity)),
		zap.String("action", payload.Action),
		zap.String("from", payload.FromStatus),
		zap.String("to", payload.ToStatus),
		zap.String("actor", payload.ActorID))
	return nil
}
