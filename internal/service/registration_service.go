package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cometicitcare/dba-backend-sub002/internal/dto"
	"github.com/cometicitcare/dba-backend-sub002/internal/models"
	"github.com/cometicitcare/dba-backend-sub002/internal/repository"
	"github.com/cometicitcare/dba-backend-sub002/internal/workflow"
	appErrors "github.com/cometicitcare/dba-backend-sub002/pkg/errors"
)

type registrationStore interface {
	Create(ctx context.Context, record *models.RegistrationRecord) error
	GetByID(ctx context.Context, entity models.RegistrationEntity, id string) (*models.RegistrationRecord, error)
	GetByNumber(ctx context.Context, number string) (*models.RegistrationRecord, error)
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationRecord, error)
	ApplyTransition(ctx context.Context, params repository.TransitionUpdateParams) error
	SoftDelete(ctx context.Context, id string, expectedVersion int, deletedBy string, reason *string) error
}

type transitionEventStore interface {
	Append(ctx context.Context, event *models.TransitionEvent) error
	ListByRecord(ctx context.Context, recordID string) ([]models.TransitionEvent, error)
}

// TransitionHook observes accepted transitions after they are committed.
// Hooks must not block the request path for long and cannot veto a
// transition; certificate generation and notifications plug in here.
type TransitionHook interface {
	OnTransition(ctx context.Context, record *models.RegistrationRecord, event *models.TransitionEvent)
}

// TransitionHookFunc allows using plain functions as hooks.
type TransitionHookFunc func(ctx context.Context, record *models.RegistrationRecord, event *models.TransitionEvent)

// OnTransition implements TransitionHook.
func (f TransitionHookFunc) OnTransition(ctx context.Context, record *models.RegistrationRecord, event *models.TransitionEvent) {
	f(ctx, record, event)
}

var registrationNumberPrefix = map[models.RegistrationEntity]string{
	models.EntityTemple:   "TMP",
	models.EntityAramaya:  "ARM",
	models.EntityBhikku:   "BHK",
	models.EntitySilmatha: "SIL",
}

// referenceCodeFields maps stage-payload keys to the reference table their
// value must resolve against.
var referenceCodeFields = map[string]models.ReferenceKind{
	"provinceCode": models.ReferenceProvince,
	"districtCode": models.ReferenceDistrict,
	"divisionCode": models.ReferenceDivision,
	"nikayaCode":   models.ReferenceNikaya,
}

type referenceResolver interface {
	Get(ctx context.Context, kind models.ReferenceKind, code string) (*models.ReferenceItem, error)
}

// RegistrationService orchestrates the registration lifecycle: it resolves
// the workflow shape for the entity, asks the transition table to admit the
// requested action, commits the mutation through the repository's conditional
// update, and appends the transition event.
type RegistrationService struct {
	repo       registrationStore
	events     transitionEventStore
	tables     map[models.RegistrationEntity]*workflow.Table
	hooks      []TransitionHook
	references referenceResolver
	logger     *zap.Logger
	now        func() time.Time
}

// RegistrationServiceOption configures the service.
type RegistrationServiceOption func(*RegistrationService)

// WithTransitionHooks registers post-commit observers.
func WithTransitionHooks(hooks ...TransitionHook) RegistrationServiceOption {
	return func(s *RegistrationService) {
		for _, h := range hooks {
			if h != nil {
				s.hooks = append(s.hooks, h)
			}
		}
	}
}

// WithReferenceResolver enables reference-code validation of stage payloads.
// Without a resolver, payloads are only checked for JSON well-formedness.
func WithReferenceResolver(resolver referenceResolver) RegistrationServiceOption {
	return func(s *RegistrationService) {
		s.references = resolver
	}
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) RegistrationServiceOption {
	return func(s *RegistrationService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewRegistrationService constructs the service with the standard workflow
// tables per entity.
func NewRegistrationService(repo registrationStore, events transitionEventStore, logger *zap.Logger, opts ...RegistrationServiceOption) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &RegistrationService{
		repo:   repo,
		events: events,
		tables: workflow.TablesByEntity(),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

func (s *RegistrationService) table(entity models.RegistrationEntity) (*workflow.Table, error) {
	table, ok := s.tables[entity]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown registration entity: %s", entity))
	}
	return table, nil
}

// Create opens a new registration record in its workflow's initial status.
func (s *RegistrationService) Create(ctx context.Context, entity models.RegistrationEntity, req dto.CreateRegistrationRequest, actor *models.JWTClaims) (*models.RegistrationRecord, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleDataEntry, models.RoleAdmin, models.RoleSuperAdmin:
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("role %s may not create registrations", actor.Role))
	}
	table, err := s.table(entity)
	if err != nil {
		return nil, err
	}
	if err := s.validateStageData(ctx, req.StageOneData); err != nil {
		return nil, err
	}

	record := &models.RegistrationRecord{
		RegistrationNumber: s.newRegistrationNumber(entity),
		Entity:             entity,
		Status:             models.RegistrationStatus(table.Initial()),
		StageOneData:       append(json.RawMessage(nil), req.StageOneData...),
		CreatedBy:          actor.UserID,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create registration")
	}
	return record, nil
}

// Get loads a registration record. Soft-deleted records are only visible to
// administrators; everyone else sees them as absent.
func (s *RegistrationService) Get(ctx context.Context, entity models.RegistrationEntity, id string, actor *models.JWTClaims) (*models.RegistrationRecord, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if _, err := s.table(entity); err != nil {
		return nil, err
	}
	record, err := s.repo.GetByID(ctx, entity, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load registration")
	}
	if record.Deleted && actor.Role != models.RoleAdmin && actor.Role != models.RoleSuperAdmin {
		return nil, appErrors.ErrNotFound
	}
	return record, nil
}

// Lookup resolves a record by its registration number under the same
// soft-delete visibility rules as Get.
func (s *RegistrationService) Lookup(ctx context.Context, number string, actor *models.JWTClaims) (*models.RegistrationRecord, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "registration number is required")
	}
	record, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load registration")
	}
	if record.Deleted && actor.Role != models.RoleAdmin && actor.Role != models.RoleSuperAdmin {
		return nil, appErrors.ErrNotFound
	}
	return record, nil
}

// List returns non-deleted registrations matching the query.
func (s *RegistrationService) List(ctx context.Context, entity models.RegistrationEntity, query dto.RegistrationQuery, actor *models.JWTClaims) ([]models.RegistrationRecord, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if _, err := s.table(entity); err != nil {
		return nil, err
	}
	records, err := s.repo.List(ctx, models.RegistrationFilter{
		Entity: entity,
		Status: query.Status,
		Search: query.Search,
		Limit:  query.Limit,
		Offset: query.Offset,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list registrations")
	}
	return records, nil
}

// History returns the record's full transition log in commit order.
func (s *RegistrationService) History(ctx context.Context, entity models.RegistrationEntity, id string, actor *models.JWTClaims) ([]models.TransitionEvent, error) {
	if _, err := s.Get(ctx, entity, id, actor); err != nil {
		return nil, err
	}
	events, err := s.events.ListByRecord(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load transition history")
	}
	return events, nil
}

// Apply runs one workflow action against a record. The sequence is fixed:
// load, consult the transition table, validate the action payload, commit via
// the version-checked update, then append the transition event. A version
// mismatch at commit time surfaces as CONFLICT and nothing is written.
// Edges marked internal are refused here; only their owning collaborator may
// fire them.
func (s *RegistrationService) Apply(ctx context.Context, entity models.RegistrationEntity, id string, req dto.ActionRequest, actor *models.JWTClaims) (*dto.ActionResponse, error) {
	return s.apply(ctx, entity, id, req, actor, false)
}

func (s *RegistrationService) apply(ctx context.Context, entity models.RegistrationEntity, id string, req dto.ActionRequest, actor *models.JWTClaims, internal bool) (*dto.ActionResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	table, err := s.table(entity)
	if err != nil {
		return nil, err
	}
	if req.Action == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "action is required")
	}
	if req.ExpectedVersion <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "expectedVersion is required; read the record before acting on it")
	}

	record, err := s.repo.GetByID(ctx, entity, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load registration")
	}
	if record.Deleted {
		return nil, appErrors.ErrNotFound
	}

	decision, err := table.Decide(workflow.Status(record.Status), workflow.Action(req.Action), actor.Role)
	if err != nil {
		return nil, err
	}
	if decision.Internal && !internal {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("%s is recorded by the system when its trigger occurs and cannot be requested directly", req.Action))
	}

	reason := strings.TrimSpace(req.Reason)
	if decision.RequiresReason && reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s requires a reason", req.Action))
	}
	if decision.RequiresFields && len(req.Fields) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s requires a fields payload", req.Action))
	}
	if len(req.Fields) > 0 {
		if err := s.validateStageData(ctx, req.Fields); err != nil {
			return nil, err
		}
	}

	now := s.now()
	params := repository.TransitionUpdateParams{
		ID:              record.ID,
		ExpectedVersion: req.ExpectedVersion,
		Status:          models.RegistrationStatus(decision.To),
		UpdatedAt:       now,
	}
	s.stampEffect(&params, decision, req, actor.UserID, now)

	if err := s.repo.ApplyTransition(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to commit transition")
	}

	applyEffect(record, params)
	record.Status = models.RegistrationStatus(decision.To)
	record.Version = req.ExpectedVersion + 1
	record.UpdatedAt = now

	event := &models.TransitionEvent{
		RecordID:   record.ID,
		Entity:     record.Entity,
		FromStatus: string(decision.From),
		ToStatus:   string(decision.To),
		Action:     string(req.Action),
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		Version:    record.Version,
		OccurredAt: now,
	}
	if reason != "" {
		event.Reason = &reason
	}
	if err := s.events.Append(ctx, event); err != nil {
		// The state change is already committed; losing the event row is a
		// gap in the history, not a reason to report failure to the caller.
		s.logger.Error("failed to append transition event",
			zap.String("record_id", record.ID),
			zap.String("action", string(req.Action)),
			zap.Error(err))
	}

	for _, hook := range s.hooks {
		hook.OnTransition(ctx, record, event)
	}

	return &dto.ActionResponse{
		Record:     record,
		NewStatus:  record.Status,
		NewVersion: record.Version,
	}, nil
}

// Delete soft-deletes a record under the same version discipline as a
// transition. Only administrators may delete.
func (s *RegistrationService) Delete(ctx context.Context, entity models.RegistrationEntity, id string, req dto.DeleteRegistrationRequest, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleSuperAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("role %s may not delete registrations", actor.Role))
	}
	if req.ExpectedVersion <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "expectedVersion is required; read the record before deleting it")
	}
	record, err := s.repo.GetByID(ctx, entity, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load registration")
	}
	if record.Deleted {
		return appErrors.ErrNotFound
	}
	if err := s.repo.SoftDelete(ctx, id, req.ExpectedVersion, actor.UserID, optionalString(req.Reason)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrConflict, "")
		}
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to delete registration")
	}
	return nil
}

// validateStageData checks a stage payload is a well-formed JSON object and,
// when a resolver is configured, that every administrative-division or nikaya
// code it carries exists in the reference tables. A failed lookup surfaces as
// a validation error; it never drives a state change.
func (s *RegistrationService) validateStageData(ctx context.Context, data json.RawMessage) error {
	if len(data) == 0 {
		return nil
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "stage data must be a JSON object")
	}
	if s.references == nil {
		return nil
	}
	for field, kind := range referenceCodeFields {
		raw, ok := fields[field]
		if !ok {
			continue
		}
		code, ok := raw.(string)
		if !ok || strings.TrimSpace(code) == "" {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be a non-empty code", field))
		}
		if _, err := s.references.Get(ctx, kind, code); err != nil {
			if appErrors.FromError(err).Code == appErrors.ErrNotFound.Code {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown %s %q", field, code))
			}
			return err
		}
	}
	return nil
}

// stampEffect fills the audit columns the admitted transition writes.
func (s *RegistrationService) stampEffect(params *repository.TransitionUpdateParams, decision workflow.Transition, req dto.ActionRequest, actorID string, now time.Time) {
	switch decision.Effect {
	case workflow.EffectPrinted:
		params.PrintedBy = &actorID
		params.PrintedAt = &now
	case workflow.EffectScanned:
		params.ScannedBy = &actorID
		params.ScannedAt = &now
	case workflow.EffectStageSaved:
		if models.WorkflowAction(decision.Action) == models.ActionSaveStageTwo {
			params.StageTwoData = append([]byte(nil), req.Fields...)
		} else {
			params.StageOneData = append([]byte(nil), req.Fields...)
		}
	case workflow.EffectStageOneCertified:
		params.StageOneCertifiedBy = &actorID
		params.StageOneCertifiedAt = &now
	case workflow.EffectApproved:
		params.ApprovedBy = &actorID
		params.ApprovedAt = &now
	case workflow.EffectRejected:
		reason := strings.TrimSpace(req.Reason)
		params.RejectedBy = &actorID
		params.RejectedAt = &now
		params.RejectionReason = &reason
	case workflow.EffectResubmitted:
		params.ClearRejection = true
		if len(req.Fields) > 0 {
			if models.RegistrationStatus(decision.To) == models.StatusStageTwoPending {
				params.StageTwoData = append([]byte(nil), req.Fields...)
			} else {
				params.StageOneData = append([]byte(nil), req.Fields...)
			}
		}
	}
}

// applyEffect mirrors the committed column changes onto the in-memory record
// so the response reflects the stored state without a re-read.
func applyEffect(record *models.RegistrationRecord, params repository.TransitionUpdateParams) {
	if len(params.StageOneData) > 0 {
		record.StageOneData = params.StageOneData
	}
	if len(params.StageTwoData) > 0 {
		record.StageTwoData = params.StageTwoData
	}
	if params.PrintedBy != nil {
		record.PrintedBy = params.PrintedBy
		record.PrintedAt = params.PrintedAt
	}
	if params.ScannedBy != nil {
		record.ScannedBy = params.ScannedBy
		record.ScannedAt = params.ScannedAt
	}
	if params.StageOneCertifiedBy != nil {
		record.StageOneCertifiedBy = params.StageOneCertifiedBy
		record.StageOneCertifiedAt = params.StageOneCertifiedAt
	}
	if params.ApprovedBy != nil {
		record.ApprovedBy = params.ApprovedBy
		record.ApprovedAt = params.ApprovedAt
	}
	if params.RejectedBy != nil {
		record.RejectedBy = params.RejectedBy
		record.RejectedAt = params.RejectedAt
		record.RejectionReason = params.RejectionReason
	}
	if params.ClearRejection {
		record.RejectedBy = nil
		record.RejectedAt = nil
		record.RejectionReason = nil
		record.ResubmissionCount++
	}
}

func optionalString(value string) *string {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	return &v
}

func (s *RegistrationService) newRegistrationNumber(entity models.RegistrationEntity) string {
	prefix, ok := registrationNumberPrefix[entity]
	if !ok {
		prefix = "REG"
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%d-%s", prefix, s.now().Year(), suffix)
}
