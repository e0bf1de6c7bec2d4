package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cometicitcare/dba-backend-sub002/internal/dto"
	"github.com/cometicitcare/dba-backend-sub002/internal/models"
	"github.com/cometicitcare/dba-backend-sub002/internal/repository"
	appErrors "github.com/cometicitcare/dba-backend-sub002/pkg/errors"
)

type stubRegistrationStore struct {
	records       map[string]*models.RegistrationRecord
	created       []*models.RegistrationRecord
	applied       []repository.TransitionUpdateParams
	applyErr      error
	softDeleted   []string
	softDeleteErr error
}

func newStubRegistrationStore() *stubRegistrationStore {
	return &stubRegistrationStore{records: make(map[string]*models.RegistrationRecord)}
}

func (s *stubRegistrationStore) Create(_ context.Context, record *models.RegistrationRecord) error {
	if record.ID == "" {
		record.ID = "rec-" + record.RegistrationNumber
	}
	record.Version = 1
	record.CreatedAt = time.Now().UTC()
	s.created = append(s.created, record)
	s.records[record.ID] = record
	return nil
}

func (s *stubRegistrationStore) GetByID(_ context.Context, entity models.RegistrationEntity, id string) (*models.RegistrationRecord, error) {
	record, ok := s.records[id]
	if !ok || record.Entity != entity {
		return nil, sql.ErrNoRows
	}
	clone := *record
	return &clone, nil
}

func (s *stubRegistrationStore) GetByNumber(_ context.Context, number string) (*models.RegistrationRecord, error) {
	for _, record := range s.records {
		if record.RegistrationNumber == number {
			clone := *record
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubRegistrationStore) List(_ context.Context, filter models.RegistrationFilter) ([]models.RegistrationRecord, error) {
	var out []models.RegistrationRecord
	for _, record := range s.records {
		if record.Entity == filter.Entity && !record.Deleted {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (s *stubRegistrationStore) ApplyTransition(_ context.Context, params repository.TransitionUpdateParams) error {
	if s.applyErr != nil {
		return s.applyErr
	}
	record, ok := s.records[params.ID]
	if !ok || record.Version != params.ExpectedVersion || record.Deleted {
		return sql.ErrNoRows
	}
	s.applied = append(s.applied, params)
	record.Status = params.Status
	record.Version++
	return nil
}

func (s *stubRegistrationStore) SoftDelete(_ context.Context, id string, expectedVersion int, _ string, _ *string) error {
	if s.softDeleteErr != nil {
		return s.softDeleteErr
	}
	record, ok := s.records[id]
	if !ok || record.Version != expectedVersion || record.Deleted {
		return sql.ErrNoRows
	}
	record.Deleted = true
	record.Version++
	s.softDeleted = append(s.softDeleted, id)
	return nil
}

type stubEventStore struct {
	events    []*models.TransitionEvent
	appendErr error
}

func (s *stubEventStore) Append(_ context.Context, event *models.TransitionEvent) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.events = append(s.events, event)
	return nil
}

func (s *stubEventStore) ListByRecord(_ context.Context, recordID string) ([]models.TransitionEvent, error) {
	var out []models.TransitionEvent
	for _, event := range s.events {
		if event.RecordID == recordID {
			out = append(out, *event)
		}
	}
	return out, nil
}

type stubReferenceResolver struct {
	codes map[models.ReferenceKind]map[string]struct{}
}

func (r *stubReferenceResolver) Get(_ context.Context, kind models.ReferenceKind, code string) (*models.ReferenceItem, error) {
	if set, ok := r.codes[kind]; ok {
		if _, ok := set[code]; ok {
			return &models.ReferenceItem{Code: code}, nil
		}
	}
	return nil, appErrors.ErrNotFound
}

func dataEntryActor() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-de", Role: models.RoleDataEntry}
}

func approverActor() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-ap", Role: models.RoleApprover}
}

func adminActor() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-admin", Role: models.RoleAdmin}
}

func seedRecord(store *stubRegistrationStore, entity models.RegistrationEntity, status models.RegistrationStatus, version int) *models.RegistrationRecord {
	record := &models.RegistrationRecord{
		ID:                 "rec-1",
		RegistrationNumber: "BHK-2026-TEST0001",
		Entity:             entity,
		Status:             status,
		Version:            version,
		CreatedBy:          "user-de",
	}
	store.records[record.ID] = record
	return record
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, code, appErr.Code)
}

func TestRegistrationServiceCreateStartsAtInitialStatus(t *testing.T) {
	store := newStubRegistrationStore()
	svc := NewRegistrationService(store, &stubEventStore{}, zap.NewNop())

	record, err := svc.Create(context.Background(), models.EntityTemple, dto.CreateRegistrationRequest{
		StageOneData: json.RawMessage(`{"templeName":"Sri Vajiraramaya"}`),
	}, dataEntryActor())
	require.NoError(t, err)
	require.Equal(t, models.StatusStageOnePending, record.Status)
	require.Equal(t, 1, record.Version)
	require.Contains(t, record.RegistrationNumber, "TMP-")
}

func TestRegistrationServiceCreateForbiddenForApprover(t *testing.T) {
	store := newStubRegistrationStore()
	svc := NewRegistrationService(store, &stubEventStore{}, zap.NewNop())

	_, err := svc.Create(context.Background(), models.EntityBhikku, dto.CreateRegistrationRequest{}, approverActor())
	requireCode(t, err, appErrors.ErrForbidden.Code)
	require.Empty(t, store.created)
}

func TestRegistrationServiceApplyHappyPath(t *testing.T) {
	store := newStubRegistrationStore()
	events := &stubEventStore{}
	svc := NewRegistrationService(store, events, zap.NewNop())
	seedRecord(store, models.EntityBhikku, models.StatusPending, 1)

	resp, err := svc.Apply(context.Background(), models.EntityBhikku, "rec-1", dto.ActionRequest{
		Action:          models.ActionMarkPrinted,
		ExpectedVersion: 1,
	}, dataEntryActor())
	require.NoError(t, err)
	require.Equal(t, models.StatusPrinted, resp.NewStatus)
	require.Equal(t, 2, resp.NewVersion)
	require.Equal(t, "user-de", *resp.Record.PrintedBy)

	require.Len(t, events.events, 1)
	require.Equal(t, string(models.StatusPending), events.events[0].FromStatus)
	require.Equal(t, string(models.StatusPrinted), events.events[0].ToStatus)
	require.Equal(t, 2, events.events[0].Version)
}

func TestRegistrationServiceApplyStaleVersionConflict(t *testing.T) {
	store := newStubRegistrationStore()
	svc := NewRegistrationService(store, &stubEventStore{}, zap.NewNop())
	seedRecord(store, models.EntityBhikku, models.StatusPending, 4)

	_, err := svc.Apply(context.Background(), models.EntityBhikku, "rec-1", dto.ActionRequest{
		Action:          models.ActionMarkPrinted,
		ExpectedVersion: 3,
	}, dataEntryActor())
	requireCode(t, err, appErrors.ErrConflict.Code)
}

func TestRegistrationServiceApplyRoleGateFailsClosed(t *testing.T) {
	store := newStubRegistrationStore()
	svc := NewRegistrationService(store, &stubEventStore{}, zap.NewNop())
	seedRecord(store, models.EntityBhikku, models.StatusPendApproval, 1)

	_, err := svc.Apply(context.Background(), models.EntityBhikku, "rec-1", dto.ActionRequest{
		Action:          models.ActionApprove,
		ExpectedVersion: 1,
	}, dataEntryActor())
	requireCode(t, err, appErrors.ErrForbidden.Code)
	require.Empty(t, store.applied)
}

func TestRegistrationServiceApplyInvalidTransition(t *testing.T) {
	store := newStubRegistrationStore()
	svc := NewRegistrationService(store, &stubEventStore{}, zap.NewNop())
	seedRecord(store, models.EntityBhikku, models.StatusCompleted, 5)

	_, err := svc.Apply(context.Background(), models.EntityBhikku, "rec-1", dto.ActionRequest{
		Action:          models.ActionApprove,
		ExpectedVersion: 5,
	}, approverActor())
	requireCode(t, err, appErrors.ErrInvalidTransition.Code)
}

func TestRegistrationServiceRejectRequiresReason(t *testing.T) {
	store := newStubRegistrationStore()
	svc := NewRegistrationService(store, &stubEventStore{}, zap.NewNop())
	seedRecord(store, models.EntityBhikku, models.StatusPendApproval, 2)

	_, err := svc.Apply(context.Background(), models.EntityBhikku, "rec-1", dto.ActionRequest{
		Action:          models.ActionReject,
		ExpectedVersion: 2,
	}, approverActor())
	requireCode(t, err, appErrors.ErrValidation.Code)

	resp, err := svc.Apply(context.Background(), models.EntityBhikku, "rec-1", dto.ActionRequest{
		Action:          models.ActionReject,
		ExpectedVersion: 2,
		Reason:          "birth certificate missing",
	}, approverActor())
	require.NoError(t, err)
	require.Equal(t, models.StatusRejected, resp.NewStatus)
	require.Equal(t, "birth certificate missing", *resp.Record.RejectionReason)
}

func TestRegistrationServiceResubmitClearsRejection(t *testing.T) {
	store := newStubRegistrationStore()
	svc := NewRegistrationService(store, &stubEventStore{}, zap.NewNop())
	record := seedRecord(store, models.EntityBhikku, models.StatusRejected, 3)
	reason := "photo illegible"
	record.RejectedBy = strPtr("user-ap")
	record.RejectionReason = &reason

	resp, err := svc.Apply(context.Background(), models.EntityBhikku, "rec-1", dto.ActionRequest{
		Action:          models.ActionResubmit,
		ExpectedVersion: 3,
	}, dataEntryActor())
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, resp.NewStatus)
	require.Nil(t, resp.Record.RejectedBy)
	require.Nil(t, resp.Record.RejectionReason)
	require.Equal(t, 1, resp.Record.ResubmissionCount)
}

func TestRegistrationServiceSaveStageRequiresFields(t *testing.T) {
	store := newStubRegistrationStore()
	svc := NewRegistrationService(store, &stubEventStore{}, zap.NewNop())
	record := seedRecord(store, models.EntityTemple, models.StatusStageOnePending, 1)
	record.RegistrationNumber = "TMP-2026-TEST0001"

	_, err := svc.Apply(context.Background(), models.EntityTemple, "rec-1", dto.ActionRequest{
		Action:          models.ActionSaveStageOne,
		ExpectedVersion: 1,
	}, dataEntryActor())
	requireCode(t, err, appErrors.ErrValidation.Code)

	resp, err := svc.Apply(context.Background(), models.EntityTemple, "rec-1", dto.ActionRequest{
		Action:          models.ActionSaveStageOne,
		ExpectedVersion: 1,
		Fields:          json.RawMessage(`{"templeName":"Sri Vajiraramaya","district":"COL"}`),
	}, dataEntryActor())
	require.NoError(t, err)
	require.Equal(t, models.StatusStageOnePendApproval, resp.NewStatus)
	require.JSONEq(t, `{"templeName":"Sri Vajiraramaya","district":"COL"}`, string(resp.Record.StageOneData))
}

func TestRegistrationServiceStageOneApprovalStampsCertifier(t *testing.T) {
	store := newStubRegistrationStore()
	svc := NewRegistrationService(store, &stubEventStore{}, zap.NewNop())
	seedRecord(store, models.EntityTemple, models.StatusStageOnePendApproval, 2)

	resp, err := svc.Apply(context.Background(), models.EntityTemple, "rec-1", dto.ActionRequest{
		Action:          models.ActionApproveStageOne,
		ExpectedVersion: 2,
	}, approverActor())
	require.NoError(t, err)
	require.Equal(t, models.StatusStageTwoPending, resp.NewStatus)
	require.Equal(t, "user-ap", *resp.Record.StageOneCertifiedBy)
	require.Nil(t, resp.Record.ApprovedBy)
}

func TestRegistrationServiceDocumentEventNotDirectlyInvokable(t *testing.T) {
	store := newStubRegistrationStore()
	svc := NewRegistrationService(store, &stubEventStore{}, zap.NewNop())
	seedRecord(store, models.EntityBhikku, models.StatusPrinted, 2)

	_, err := svc.Apply(context.Background(), models.EntityBhikku, "rec-1", dto.ActionRequest{
		Action:          models.ActionDocumentAttached,
		ExpectedVersion: 2,
	}, dataEntryActor())
	requireCode(t, err, appErrors.ErrInvalidTransition.Code)
	require.Empty(t, store.applied)
	require.Equal(t, models.StatusPrinted, store.records["rec-1"].Status)
	require.Equal(t, 2, store.records["rec-1"].Version)
}

func TestRegistrationServiceCreateValidatesReferenceCodes(t *testing.T) {
	store := newStubRegistrationStore()
	resolver := &stubReferenceResolver{codes: map[models.ReferenceKind]map[string]struct{}{
		models.ReferenceProvince: {"WP": {}},
	}}
	svc := NewRegistrationService(store, &stubEventStore{}, zap.NewNop(), WithReferenceResolver(resolver))

	_, err := svc.Create(context.Background(), models.EntityTemple, dto.CreateRegistrationRequest{
		StageOneData: json.RawMessage(`{"templeName":"Sri Vajiraramaya","provinceCode":"XX"}`),
	}, dataEntryActor())
	requireCode(t, err, appErrors.ErrValidation.Code)
	require.Empty(t, store.created)

	record, err := svc.Create(context.Background(), models.EntityTemple, dto.CreateRegistrationRequest{
		StageOneData: json.RawMessage(`{"templeName":"Sri Vajiraramaya","provinceCode":"WP"}`),
	}, dataEntryActor())
	require.NoError(t, err)
	require.Equal(t, models.StatusStageOnePending, record.Status)
}

func TestRegistrationServiceSaveStageValidatesReferenceCodes(t *testing.T) {
	store := newStubRegistrationStore()
	resolver := &stubReferenceResolver{codes: map[models.ReferenceKind]map[string]struct{}{
		models.ReferenceDistrict: {"COL": {}},
	}}
	svc := NewRegistrationService(store, &stubEventStore{}, zap.NewNop(), WithReferenceResolver(resolver))
	seedRecord(store, models.EntityTemple, models.StatusStageOnePending, 1)

	_, err := svc.Apply(context.Background(), models.EntityTemple, "rec-1", dto.ActionRequest{
		Action:          models.ActionSaveStageOne,
		ExpectedVersion: 1,
		Fields:          json.RawMessage(`{"districtCode":"ZZZ"}`),
	}, dataEntryActor())
	requireCode(t, err, appErrors.ErrValidation.Code)
	require.Empty(t, store.applied)

	resp, err := svc.Apply(context.Background(), models.EntityTemple, "rec-1", dto.ActionRequest{
		Action:          models.ActionSaveStageOne,
		ExpectedVersion: 1,
		Fields:          json.RawMessage(`{"districtCode":"COL"}`),
	}, dataEntryActor())
	require.NoError(t, err)
	require.Equal(t, models.StatusStageOnePendApproval, resp.NewStatus)
}

func TestRegistrationServiceLookupByNumber(t *testing.T) {
	store := newStubRegistrationStore()
	svc := NewRegistrationService(store, &stubEventStore{}, zap.NewNop())
	record := seedRecord(store, models.EntityBhikku, models.StatusPending, 1)

	found, err := svc.Lookup(context.Background(), record.RegistrationNumber, dataEntryActor())
	require.NoError(t, err)
	require.Equal(t, record.ID, found.ID)

	_, err = svc.Lookup(context.Background(), "BHK-2026-MISSING", dataEntryActor())
	requireCode(t, err, appErrors.ErrNotFound.Code)

	record.Deleted = true
	_, err = svc.Lookup(context.Background(), record.RegistrationNumber, dataEntryActor())
	requireCode(t, err, appErrors.ErrNotFound.Code)
	found, err = svc.Lookup(context.Background(), record.RegistrationNumber, adminActor())
	require.NoError(t, err)
	require.True(t, found.Deleted)
}

func TestRegistrationServiceApplyOnDeletedRecord(t *testing.T) {
	store := newStubRegistrationStore()
	svc := NewRegistrationService(store, &stubEventStore{}, zap.NewNop())
	record := seedRecord(store, models.EntityBhikku, models.StatusPending, 2)
	record.Deleted = true

	_, err := svc.Apply(context.Background(), models.EntityBhikku, "rec-1", dto.ActionRequest{
		Action:          models.ActionMarkPrinted,
		ExpectedVersion: 2,
	}, dataEntryActor())
	requireCode(t, err, appErrors.ErrNotFound.Code)
}

func TestRegistrationServiceHooksFireAfterCommit(t *testing.T) {
	store := newStubRegistrationStore()
	var hookEvents []*models.TransitionEvent
	svc := NewRegistrationService(store, &stubEventStore{}, zap.NewNop(),
		WithTransitionHooks(TransitionHookFunc(func(_ context.Context, _ *models.RegistrationRecord, event *models.TransitionEvent) {
			hookEvents = append(hookEvents, event)
		})))
	seedRecord(store, models.EntityBhikku, models.StatusPending, 1)

	_, err := svc.Apply(context.Background(), models.EntityBhikku, "rec-1", dto.ActionRequest{
		Action:          models.ActionMarkPrinted,
		ExpectedVersion: 1,
	}, dataEntryActor())
	require.NoError(t, err)
	require.Len(t, hookEvents, 1)
	require.Equal(t, string(models.ActionMarkPrinted), hookEvents[0].Action)
}

func TestRegistrationServiceDeleteAdminOnly(t *testing.T) {
	store := newStubRegistrationStore()
	svc := NewRegistrationService(store, &stubEventStore{}, zap.NewNop())
	seedRecord(store, models.EntityBhikku, models.StatusPending, 1)

	err := svc.Delete(context.Background(), models.EntityBhikku, "rec-1", dto.DeleteRegistrationRequest{ExpectedVersion: 1}, dataEntryActor())
	requireCode(t, err, appErrors.ErrForbidden.Code)

	require.NoError(t, svc.Delete(context.Background(), models.EntityBhikku, "rec-1", dto.DeleteRegistrationRequest{ExpectedVersion: 1}, adminActor()))
	require.Equal(t, []string{"rec-1"}, store.softDeleted)
}

func TestRegistrationServiceHistoryOrdersByVersion(t *testing.T) {
	store := newStubRegistrationStore()
	events := &stubEventStore{}
	svc := NewRegistrationService(store, events, zap.NewNop())
	seedRecord(store, models.EntityBhikku, models.StatusPending, 1)

	_, err := svc.Apply(context.Background(), models.EntityBhikku, "rec-1", dto.ActionRequest{
		Action:          models.ActionMarkPrinted,
		ExpectedVersion: 1,
	}, dataEntryActor())
	require.NoError(t, err)
	_, err = svc.apply(context.Background(), models.EntityBhikku, "rec-1", dto.ActionRequest{
		Action:          models.ActionDocumentAttached,
		ExpectedVersion: 2,
	}, dataEntryActor(), true)
	require.NoError(t, err)

	history, err := svc.History(context.Background(), models.EntityBhikku, "rec-1", dataEntryActor())
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, 2, history[0].Version)
	require.Equal(t, 3, history[1].Version)
}

func strPtr(s string) *string { return &s }
