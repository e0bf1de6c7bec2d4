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

const objectionColumns = `id, registration_id, entity, status, version, objector_name, objector_address, grounds,
       created_by, created_at, updated_at, approved_by, approved_at,
       rejected_by, rejected_at, rejection_reason, cancelled_by, cancelled_at, cancellation_reason, deleted`

// ObjectionRepository persists objection records under the same optimistic
// concurrency contract as registrations.
type ObjectionRepository struct {
	db *sqlx.DB
}

// NewObjectionRepository constructs the repository.
func NewObjectionRepository(db *sqlx.DB) *ObjectionRepository {
	return &ObjectionRepository{db: db}
}

// Create inserts a new objection row at version 1.
func (r *ObjectionRepository) Create(ctx context.Context, objection *models.ObjectionRecord) error {
	if objection.ID == "" {
		objection.ID = uuid.NewString()
	}
	if objection.Version == 0 {
		objection.Version = 1
	}
	now := time.Now().UTC()
	if objection.CreatedAt.IsZero() {
		objection.CreatedAt = now
	}
	objection.UpdatedAt = objection.CreatedAt
	const query = `INSERT INTO objections
	(id, registration_id, entity, status, version, objector_name, objector_address, grounds,
	 created_by, created_at, updated_at, deleted)
	VALUES (:id, :registration_id, :entity, :status, :version, :objector_name, :objector_address, :grounds,
	 :created_by, :created_at, :updated_at, FALSE)`
	if _, err := r.db.NamedExecContext(ctx, query, objection); err != nil {
		return fmt.Errorf("create objection: %w", err)
	}
	return nil
}

// GetByID fetches an objection by identifier.
func (r *ObjectionRepository) GetByID(ctx context.Context, id string) (*models.ObjectionRecord, error) {
	query := `SELECT ` + objectionColumns + ` FROM objections WHERE id = $1`
	var objection models.ObjectionRecord
	if err := r.db.GetContext(ctx, &objection, query, id); err != nil {
		return nil, err
	}
	return &objection, nil
}

// List returns objections matching the filter, newest first.
func (r *ObjectionRepository) List(ctx context.Context, filter models.ObjectionFilter) ([]models.ObjectionRecord, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(`SELECT ` + objectionColumns + ` FROM objections WHERE deleted = FALSE`)

	if filter.RegistrationID != "" {
		args = append(args, filter.RegistrationID)
		builder.WriteString(fmt.Sprintf(" AND registration_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		builder.WriteString(fmt.Sprintf(" AND status IN (%s)", strings.Join(placeholders, ",")))
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

	var objections []models.ObjectionRecord
	if err := r.db.SelectContext(ctx, &objections, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list objections: %w", err)
	}
	return objections, nil
}

// ObjectionUpdateParams groups the columns an objection transition may write.
type ObjectionUpdateParams struct {
	ID              string
	ExpectedVersion int
	Status          models.ObjectionStatus
	UpdatedAt       time.Time

	ApprovedBy *string
	ApprovedAt *time.Time

	RejectedBy      *string
	RejectedAt      *time.Time
	RejectionReason *string

	CancelledBy        *string
	CancelledAt        *time.Time
	CancellationReason *string
}

// ApplyTransition commits an objection transition with the same conditional
// update discipline as registrations; zero rows affected means conflict.
func (r *ObjectionRepository) ApplyTransition(ctx context.Context, params ObjectionUpdateParams) error {
	setParts := []string{
		"status = :status",
		"version = version + 1",
		"updated_at = :updated_at",
	}
	if params.ApprovedBy != nil {
		setParts = append(setParts, "approved_by = :approved_by", "approved_at = :approved_at")
	}
	if params.RejectedBy != nil {
		setParts = append(setParts, "rejected_by = :rejected_by", "rejected_at = :rejected_at", "rejection_reason = :rejection_reason")
	}
	if params.CancelledBy != nil {
		setParts = append(setParts, "cancelled_by = :cancelled_by", "cancelled_at = :cancelled_at", "cancellation_reason = :cancellation_reason")
	}

	query := fmt.Sprintf(`UPDATE objections SET %s WHERE id = :id AND version = :expected_version AND deleted = FALSE`,
		strings.Join(setParts, ", "))

	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":                  params.ID,
		"expected_version":    params.ExpectedVersion,
		"status":              params.Status,
		"updated_at":          params.UpdatedAt,
		"approved_by":         params.ApprovedBy,
		"approved_at":         params.ApprovedAt,
		"rejected_by":         params.RejectedBy,
		"rejected_at":         params.RejectedAt,
		"rejection_reason":    params.RejectionReason,
		"cancelled_by":        params.CancelledBy,
		"cancelled_at":        params.CancelledAt,
		"cancellation_reason": params.CancellationReason,
	})
	if err != nil {
		return fmt.Errorf("apply objection transition: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check objection transition rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
