package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cometicitcare/dba-backend-sub002/internal/dto"
	"github.com/cometicitcare/dba-backend-sub002/internal/models"
	"github.com/cometicitcare/dba-backend-sub002/internal/repository"
	appErrors "github.com/cometicitcare/dba-backend-sub002/pkg/errors"
)

type stubObjectionStore struct {
	objections map[string]*models.ObjectionRecord
	applied    []repository.ObjectionUpdateParams
}

func newStubObjectionStore() *stubObjectionStore {
	return &stubObjectionStore{objections: make(map[string]*models.ObjectionRecord)}
}

func (s *stubObjectionStore) Create(_ context.Context, objection *models.ObjectionRecord) error {
	if objection.ID == "" {
		objection.ID = "obj-1"
	}
	objection.Version = 1
	objection.CreatedAt = time.Now().UTC()
	s.objections[objection.ID] = objection
	return nil
}

func (s *stubObjectionStore) GetByID(_ context.Context, id string) (*models.ObjectionRecord, error) {
	objection, ok := s.objections[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *objection
	return &clone, nil
}

func (s *stubObjectionStore) List(_ context.Context, filter models.ObjectionFilter) ([]models.ObjectionRecord, error) {
	var out []models.ObjectionRecord
	for _, objection := range s.objections {
		if filter.RegistrationID != "" && objection.RegistrationID != filter.RegistrationID {
			continue
		}
		out = append(out, *objection)
	}
	return out, nil
}

func (s *stubObjectionStore) ApplyTransition(_ context.Context, params repository.ObjectionUpdateParams) error {
	objection, ok := s.objections[params.ID]
	if !ok || objection.Version != params.ExpectedVersion {
		return sql.ErrNoRows
	}
	s.applied = append(s.applied, params)
	objection.Status = params.Status
	objection.Version++
	return nil
}

func seedObjection(store *stubObjectionStore, status models.ObjectionStatus, version int) *models.ObjectionRecord {
	objection := &models.ObjectionRecord{
		ID:             "obj-1",
		RegistrationID: "rec-1",
		Entity:         models.EntityTemple,
		Status:         status,
		Version:        version,
		ObjectorName:   "K. Perera",
		Grounds:        "boundary dispute with adjoining land",
		CreatedBy:      "user-de",
	}
	store.objections[objection.ID] = objection
	return objection
}

func TestObjectionServiceCreateRequiresLiveRegistration(t *testing.T) {
	registrations := newStubRegistrationStore()
	store := newStubObjectionStore()
	svc := NewObjectionService(store, registrations, &stubEventStore{}, zap.NewNop())

	_, err := svc.Create(context.Background(), dto.CreateObjectionRequest{
		RegistrationID: "missing",
		ObjectorName:   "K. Perera",
		Grounds:        "boundary dispute",
	}, dataEntryActor())
	requireCode(t, err, appErrors.ErrNotFound.Code)

	seedRecord(registrations, models.EntityTemple, models.StatusStageOnePendApproval, 1)
	objection, err := svc.Create(context.Background(), dto.CreateObjectionRequest{
		RegistrationID: "rec-1",
		ObjectorName:   "K. Perera",
		Grounds:        "boundary dispute",
	}, dataEntryActor())
	require.NoError(t, err)
	require.Equal(t, models.ObjectionStatusPending, objection.Status)
	require.Equal(t, models.EntityTemple, objection.Entity)
	require.Equal(t, 1, objection.Version)
}

func TestObjectionServiceApproveTerminal(t *testing.T) {
	store := newStubObjectionStore()
	events := &stubEventStore{}
	svc := NewObjectionService(store, newStubRegistrationStore(), events, zap.NewNop())
	seedObjection(store, models.ObjectionStatusPending, 1)

	objection, err := svc.Apply(context.Background(), "obj-1", dto.ObjectionActionRequest{
		Action:          models.ActionApprove,
		ExpectedVersion: 1,
	}, approverActor())
	require.NoError(t, err)
	require.Equal(t, models.ObjectionStatusApproved, objection.Status)
	require.Equal(t, 2, objection.Version)
	require.Equal(t, "user-ap", *objection.ApprovedBy)
	require.Len(t, events.events, 1)

	// Approved is terminal: nothing further is admitted.
	_, err = svc.Apply(context.Background(), "obj-1", dto.ObjectionActionRequest{
		Action:          models.ActionCancel,
		ExpectedVersion: 2,
		Reason:          "withdrawn",
	}, adminActor())
	requireCode(t, err, appErrors.ErrInvalidTransition.Code)
}

func TestObjectionServiceCancelRequiresReason(t *testing.T) {
	store := newStubObjectionStore()
	svc := NewObjectionService(store, newStubRegistrationStore(), &stubEventStore{}, zap.NewNop())
	seedObjection(store, models.ObjectionStatusPending, 1)

	_, err := svc.Apply(context.Background(), "obj-1", dto.ObjectionActionRequest{
		Action:          models.ActionCancel,
		ExpectedVersion: 1,
	}, dataEntryActor())
	requireCode(t, err, appErrors.ErrValidation.Code)

	objection, err := svc.Apply(context.Background(), "obj-1", dto.ObjectionActionRequest{
		Action:          models.ActionCancel,
		ExpectedVersion: 1,
		Reason:          "objector withdrew in writing",
	}, dataEntryActor())
	require.NoError(t, err)
	require.Equal(t, models.ObjectionStatusCancelled, objection.Status)
	require.Equal(t, "objector withdrew in writing", *objection.CancellationReason)
}

func TestObjectionServiceStaleVersionConflict(t *testing.T) {
	store := newStubObjectionStore()
	svc := NewObjectionService(store, newStubRegistrationStore(), &stubEventStore{}, zap.NewNop())
	seedObjection(store, models.ObjectionStatusPending, 5)

	_, err := svc.Apply(context.Background(), "obj-1", dto.ObjectionActionRequest{
		Action:          models.ActionApprove,
		ExpectedVersion: 4,
	}, approverActor())
	requireCode(t, err, appErrors.ErrConflict.Code)
	require.Empty(t, store.applied)
}

func TestObjectionServiceRejectRoleGate(t *testing.T) {
	store := newStubObjectionStore()
	svc := NewObjectionService(store, newStubRegistrationStore(), &stubEventStore{}, zap.NewNop())
	seedObjection(store, models.ObjectionStatusPending, 1)

	_, err := svc.Apply(context.Background(), "obj-1", dto.ObjectionActionRequest{
		Action:          models.ActionReject,
		ExpectedVersion: 1,
		Reason:          "grounds unsubstantiated",
	}, dataEntryActor())
	requireCode(t, err, appErrors.ErrForbidden.Code)
}
