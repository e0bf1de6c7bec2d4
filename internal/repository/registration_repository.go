package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cometicitcare/dba-backend-sub002/internal/models"
)

const registrationColumns = `id, registration_number, entity, status, version, stage_one_data, stage_two_data,
       resubmission_count, created_by, created_at, updated_at, printed_by, printed_at, scanned_by, scanned_at,
       stage_one_certified_by, stage_one_certified_at, approved_by, approved_at,
       rejected_by, rejected_at, rejection_reason, cancelled_by, cancelled_at, cancellation_reason,
       deleted, deleted_by, deleted_at`

// RegistrationRepository persists registration records. Every workflow write
// goes through ApplyTransition, a single conditional update keyed on the
// version the caller read: that conditional update is the serialization point
// for concurrent actions on the same record.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Create inserts a new registration row at version 1.
func (r *RegistrationRepository) Create(ctx context.Context, record *models.RegistrationRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Version == 0 {
		record.Version = 1
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = record.CreatedAt
	const query = `INSERT INTO registrations
	(id, registration_number, entity, status, version, stage_one_data, stage_two_data, resubmission_count,
	 created_by, created_at, updated_at, deleted)
	VALUES (:id, :registration_number, :entity, :status, :version, :stage_one_data, :stage_two_data, :resubmission_count,
	 :created_by, :created_at, :updated_at, FALSE)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

// GetByID fetches a registration by identifier, soft-deleted rows included;
// callers decide whether a deleted row is visible.
func (r *RegistrationRepository) GetByID(ctx context.Context, entity models.RegistrationEntity, id string) (*models.RegistrationRecord, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1 AND entity = $2`
	var record models.RegistrationRecord
	if err := r.db.GetContext(ctx, &record, query, id, entity); err != nil {
		return nil, err
	}
	return &record, nil
}

// GetByNumber fetches a registration by its immutable registration number.
func (r *RegistrationRepository) GetByNumber(ctx context.Context, number string) (*models.RegistrationRecord, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE registration_number = $1`
	var record models.RegistrationRecord
	if err := r.db.GetContext(ctx, &record, query, number); err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns registrations matching the filter, newest first.
func (r *RegistrationRepository) List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationRecord, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 6)
	builder.WriteString(`SELECT ` + registrationColumns + ` FROM registrations WHERE deleted = FALSE`)

	if filter.Entity != "" {
		args = append(args, filter.Entity)
		builder.WriteString(fmt.Sprintf(" AND entity = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		builder.WriteString(fmt.Sprintf(" AND status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedBy != "" {
		args = append(args, filter.CreatedBy)
		builder.WriteString(fmt.Sprintf(" AND created_by = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToUpper(filter.Search)+"%")
		builder.WriteString(fmt.Sprintf(" AND UPPER(registration_number) LIKE $%d", len(args)))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var records []models.RegistrationRecord
	if err := r.db.SelectContext(ctx, &records, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return records, nil
}

// TransitionUpdateParams groups the columns a single workflow transition may
// write. Nil pointers leave the column untouched.
type TransitionUpdateParams struct {
	ID              string
	ExpectedVersion int
	Status          models.RegistrationStatus
	UpdatedAt       time.Time

	StageOneData []byte
	StageTwoData []byte

	PrintedBy *string
	PrintedAt *time.Time

	ScannedBy *string
	ScannedAt *time.Time

	StageOneCertifiedBy *string
	StageOneCertifiedAt *time.Time

	ApprovedBy *string
	ApprovedAt *time.Time

	RejectedBy      *string
	RejectedAt      *time.Time
	RejectionReason *string

	// ClearRejection nulls the rejection columns and bumps the resubmission
	// counter; set on resubmit since the rejection is superseded.
	ClearRejection bool
}

// ApplyTransition performs the atomic compare-and-swap commit: the row is
// updated only if the version the caller read is still current. Zero rows
// affected is a definite conflict (concurrent write or soft delete) and is
// reported as sql.ErrNoRows for the service layer to map.
func (r *RegistrationRepository) ApplyTransition(ctx context.Context, params TransitionUpdateParams) error {
	setParts := []string{
		"status = :status",
		"version = version + 1",
		"updated_at = :updated_at",
	}
	if len(params.StageOneData) > 0 {
		setParts = append(setParts, "stage_one_data = :stage_one_data")
	}
	if len(params.StageTwoData) > 0 {
		setParts = append(setParts, "stage_two_data = :stage_two_data")
	}
	if params.PrintedBy != nil {
		setParts = append(setParts, "printed_by = :printed_by", "printed_at = :printed_at")
	}
	if params.ScannedBy != nil {
		setParts = append(setParts, "scanned_by = :scanned_by", "scanned_at = :scanned_at")
	}
	if params.StageOneCertifiedBy != nil {
		setParts = append(setParts, "stage_one_certified_by = :stage_one_certified_by", "stage_one_certified_at = :stage_one_certified_at")
	}
	if params.ApprovedBy != nil {
		setParts = append(setParts, "approved_by = :approved_by", "approved_at = :approved_at")
	}
	if params.RejectedBy != nil {
		setParts = append(setParts, "rejected_by = :rejected_by", "rejected_at = :rejected_at", "rejection_reason = :rejection_reason")
	}
	if params.ClearRejection {
		setParts = append(setParts,
			"rejected_by = NULL", "rejected_at = NULL", "rejection_reason = NULL",
			"resubmission_count = resubmission_count + 1")
	}

	query := fmt.Sprintf(`UPDATE registrations SET %s WHERE id = :id AND version = :expected_version AND deleted = FALSE`,
		strings.Join(setParts, ", "))

	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":                     params.ID,
		"expected_version":       params.ExpectedVersion,
		"status":                 params.Status,
		"updated_at":             params.UpdatedAt,
		"stage_one_data":         params.StageOneData,
		"stage_two_data":         params.StageTwoData,
		"printed_by":             params.PrintedBy,
		"printed_at":             params.PrintedAt,
		"scanned_by":             params.ScannedBy,
		"scanned_at":             params.ScannedAt,
		"stage_one_certified_by": params.StageOneCertifiedBy,
		"stage_one_certified_at": params.StageOneCertifiedAt,
		"approved_by":            params.ApprovedBy,
		"approved_at":            params.ApprovedAt,
		"rejected_by":            params.RejectedBy,
		"rejected_at":            params.RejectedAt,
		"rejection_reason":       params.RejectionReason,
	})
	if err != nil {
		return fmt.Errorf("apply transition: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check transition rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SoftDelete marks a record deleted under the same version discipline as a
// workflow transition. Deleted records accept no further workflow actions.
func (r *RegistrationRepository) SoftDelete(ctx context.Context, id string, expectedVersion int, deletedBy string, reason *string) error {
	const query = `UPDATE registrations
	SET deleted = TRUE, deleted_by = $3, deleted_at = $4, cancellation_reason = COALESCE($5, cancellation_reason),
	    version = version + 1, updated_at = $4
	WHERE id = $1 AND version = $2 AND deleted = FALSE`
	result, err := r.db.ExecContext(ctx, query, id, expectedVersion, deletedBy, time.Now().UTC(), reason)
	if err != nil {
		return fmt.Errorf("soft delete registration: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
