package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cometicitcare/dba-backend-sub002/internal/dto"
	"github.com/cometicitcare/dba-backend-sub002/internal/models"
	"github.com/cometicitcare/dba-backend-sub002/internal/repository"
	"github.com/cometicitcare/dba-backend-sub002/internal/workflow"
	appErrors "github.com/cometicitcare/dba-backend-sub002/pkg/errors"
)

type objectionStore interface {
	Create(ctx context.Context, objection *models.ObjectionRecord) error
	GetByID(ctx context.Context, id string) (*models.ObjectionRecord, error)
	List(ctx context.Context, filter models.ObjectionFilter) ([]models.ObjectionRecord, error)
	ApplyTransition(ctx context.Context, params repository.ObjectionUpdateParams) error
}

type objectionRegistrationLookup interface {
	GetByID(ctx context.Context, entity models.RegistrationEntity, id string) (*models.RegistrationRecord, error)
}

// ObjectionService drives the objection workflow. It reuses the same
// transition machinery as registrations with the four-state objection table.
type ObjectionService struct {
	repo          objectionStore
	registrations registrationStore
	events        transitionEventStore
	table         *workflow.Table
	logger        *zap.Logger
	now           func() time.Time
}

// NewObjectionService constructs the service.
func NewObjectionService(repo objectionStore, registrations registrationStore, events transitionEventStore, logger *zap.Logger) *ObjectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ObjectionService{
		repo:          repo,
		registrations: registrations,
		events:        events,
		table:         workflow.Objection(),
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Create files an objection against an existing, non-deleted registration.
func (s *ObjectionService) Create(ctx context.Context, req dto.CreateObjectionRequest, actor *models.JWTClaims) (*models.ObjectionRecord, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if strings.TrimSpace(req.RegistrationID) == "" || strings.TrimSpace(req.ObjectorName) == "" || strings.TrimSpace(req.Grounds) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "registrationId, objectorName, and grounds are required")
	}

	var target *models.RegistrationRecord
	for _, entity := range models.KnownEntities {
		record, err := s.registrations.GetByID(ctx, entity, req.RegistrationID)
		if err == nil {
			target = record
			break
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load registration")
		}
	}
	if target == nil || target.Deleted {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
	}

	objection := &models.ObjectionRecord{
		RegistrationID:  target.ID,
		Entity:          target.Entity,
		Status:          models.ObjectionStatus(s.table.Initial()),
		ObjectorName:    strings.TrimSpace(req.ObjectorName),
		ObjectorAddress: strings.TrimSpace(req.ObjectorAddress),
		Grounds:         strings.TrimSpace(req.Grounds),
		CreatedBy:       actor.UserID,
	}
	if err := s.repo.Create(ctx, objection); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create objection")
	}
	return objection, nil
}

// Get loads a single objection.
func (s *ObjectionService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.ObjectionRecord, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	objection, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load objection")
	}
	if objection.Deleted {
		return nil, appErrors.ErrNotFound
	}
	return objection, nil
}

// List returns objections matching the query.
func (s *ObjectionService) List(ctx context.Context, query dto.ObjectionQuery, actor *models.JWTClaims) ([]models.ObjectionRecord, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	objections, err := s.repo.List(ctx, models.ObjectionFilter{
		RegistrationID: query.RegistrationID,
		Status:         query.Status,
		Limit:          query.Limit,
		Offset:         query.Offset,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list objections")
	}
	return objections, nil
}

// Apply runs one workflow action against an objection under the same
// load, decide, validate, version-checked commit sequence as registrations.
func (s *ObjectionService) Apply(ctx context.Context, id string, req dto.ObjectionActionRequest, actor *models.JWTClaims) (*models.ObjectionRecord, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if req.Action == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "action is required")
	}
	if req.ExpectedVersion <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "expectedVersion is required; read the objection before acting on it")
	}

	objection, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	decision, err := s.table.Decide(workflow.Status(objection.Status), workflow.Action(req.Action), actor.Role)
	if err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(req.Reason)
	if decision.RequiresReason && reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s requires a reason", req.Action))
	}

	now := s.now()
	params := repository.ObjectionUpdateParams{
		ID:              objection.ID,
		ExpectedVersion: req.ExpectedVersion,
		Status:          models.ObjectionStatus(decision.To),
		UpdatedAt:       now,
	}
	actorID := actor.UserID
	switch decision.Effect {
	case workflow.EffectApproved:
		params.ApprovedBy = &actorID
		params.ApprovedAt = &now
		objection.ApprovedBy = &actorID
		objection.ApprovedAt = &now
	case workflow.EffectRejected:
		params.RejectedBy = &actorID
		params.RejectedAt = &now
		params.RejectionReason = &reason
		objection.RejectedBy = &actorID
		objection.RejectedAt = &now
		objection.RejectionReason = &reason
	case workflow.EffectCancelled:
		params.CancelledBy = &actorID
		params.CancelledAt = &now
		params.CancellationReason = &reason
		objection.CancelledBy = &actorID
		objection.CancelledAt = &now
		objection.CancellationReason = &reason
	}

	if err := s.repo.ApplyTransition(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to commit objection transition")
	}

	objection.Status = models.ObjectionStatus(decision.To)
	objection.Version = req.ExpectedVersion + 1
	objection.UpdatedAt = now

	event := &models.TransitionEvent{
		RecordID:   objection.ID,
		Entity:     objection.Entity,
		FromStatus: string(decision.From),
		ToStatus:   string(decision.To),
		Action:     string(req.Action),
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		Version:    objection.Version,
		OccurredAt: now,
	}
	if reason != "" {
		event.Reason = &reason
	}
	if err := s.events.Append(ctx, event); err != nil {
		s.logger.Error("failed to append objection transition event",
			zap.String("objection_id", objection.ID),
			zap.String("action", string(req.Action)),
			zap.Error(err))
	}

	return objection, nil
}
