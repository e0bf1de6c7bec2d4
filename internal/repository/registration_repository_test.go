package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/cometicitcare/dba-backend-sub002/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRegistrationRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRegistrationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registrations")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.RegistrationRecord{
		RegistrationNumber: "BHK-2026-0001",
		Entity:             models.EntityBhikku,
		Status:             models.StatusPending,
		CreatedBy:          "user-1",
		StageOneData:       []byte(`{"fullName":"Ven. Sumana"}`),
	}
	require.NoError(t, repo.Create(context.Background(), record))
	require.NotEmpty(t, record.ID)
	require.Equal(t, 1, record.Version)
	require.False(t, record.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRegistrationRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "registration_number", "entity", "status", "version", "stage_one_data", "stage_two_data",
		"resubmission_count", "created_by", "created_at", "updated_at", "printed_by", "printed_at",
		"scanned_by", "scanned_at", "stage_one_certified_by", "stage_one_certified_at",
		"approved_by", "approved_at", "rejected_by", "rejected_at", "rejection_reason",
		"cancelled_by", "cancelled_at", "cancellation_reason", "deleted", "deleted_by", "deleted_at",
	}).AddRow(
		"reg-1", "BHK-2026-0001", "bhikku", "PENDING", 1, []byte(`{}`), nil,
		0, "user-1", now, now, nil, nil,
		nil, nil, nil, nil,
		nil, nil, nil, nil, nil,
		nil, nil, nil, false, nil, nil,
	)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, registration_number, entity, status, version")).
		WithArgs("reg-1", "bhikku").
		WillReturnRows(rows)

	record, err := repo.GetByID(context.Background(), models.EntityBhikku, "reg-1")
	require.NoError(t, err)
	require.Equal(t, "BHK-2026-0001", record.RegistrationNumber)
	require.Equal(t, models.StatusPending, record.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryApplyTransition(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRegistrationRepository(db)
	now := time.Now().UTC()
	actor := "user-1"

	mock.ExpectExec(regexp.QuoteMeta("UPDATE registrations SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	err := repo.ApplyTransition(context.Background(), TransitionUpdateParams{
		ID:              "reg-1",
		ExpectedVersion: 1,
		Status:          models.StatusPrinted,
		UpdatedAt:       now,
		PrintedBy:       &actor,
		PrintedAt:       &now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryApplyTransitionStaleVersion(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRegistrationRepository(db)

	// Zero rows affected is a definite conflict, never a silent merge.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE registrations SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.ApplyTransition(context.Background(), TransitionUpdateParams{
		ID:              "reg-1",
		ExpectedVersion: 1,
		Status:          models.StatusPrinted,
		UpdatedAt:       time.Now().UTC(),
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositorySoftDeleteConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRegistrationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE registrations")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SoftDelete(context.Background(), "reg-1", 3, "admin-1", nil))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE registrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.SoftDelete(context.Background(), "reg-1", 3, "admin-1", nil)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRegistrationRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "registration_number", "entity", "status", "version", "stage_one_data", "stage_two_data",
		"resubmission_count", "created_by", "created_at", "updated_at", "printed_by", "printed_at",
		"scanned_by", "scanned_at", "stage_one_certified_by", "stage_one_certified_at",
		"approved_by", "approved_at", "rejected_by", "rejected_at", "rejection_reason",
		"cancelled_by", "cancelled_at", "cancellation_reason", "deleted", "deleted_by", "deleted_at",
	}).AddRow(
		"reg-2", "TMP-2026-0007", "temple", "S1_PEND_APPROVAL", 2, []byte(`{}`), nil,
		0, "user-2", now, now, nil, nil,
		nil, nil, nil, nil,
		nil, nil, nil, nil, nil,
		nil, nil, nil, false, nil, nil,
	)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, registration_number, entity, status, version")).
		WithArgs("temple", "S1_PEND_APPROVAL").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.RegistrationFilter{
		Entity: models.EntityTemple,
		Status: []models.RegistrationStatus{models.StatusStageOnePendApproval},
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "TMP-2026-0007", list[0].RegistrationNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}
