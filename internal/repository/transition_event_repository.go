package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cometicitcare/dba-backend-sub002/internal/models"
)

// TransitionEventRepository is the append-only workflow history. Events are
// never updated or deleted; the record's flat audit columns are a projection
// of this log.
type TransitionEventRepository struct {
	db *sqlx.DB
}

// NewTransitionEventRepository constructs the repository.
func NewTransitionEventRepository(db *sqlx.DB) *TransitionEventRepository {
	return &TransitionEventRepository{db: db}
}

// Append writes one transition event.
func (r *TransitionEventRepository) Append(ctx context.Context, event *models.TransitionEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	const query = `INSERT INTO registration_transition_events
	(id, record_id, entity, from_status, to_status, action, actor_id, actor_role, reason, version, occurred_at)
	VALUES (:id, :record_id, :entity, :from_status, :to_status, :action, :actor_id, :actor_role, :reason, :version, :occurred_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("append transition event: %w", err)
	}
	return nil
}

// ListByRecord returns a record's full transition history in commit order.
func (r *TransitionEventRepository) ListByRecord(ctx context.Context, recordID string) ([]models.TransitionEvent, error) {
	const query = `SELECT id, record_id, entity, from_status, to_status, action, actor_id, actor_role, reason, version, occurred_at
	FROM registration_transition_events WHERE record_id = $1 ORDER BY version ASC, occurred_at ASC`
	var events []models.TransitionEvent
	if err := r.db.SelectContext(ctx, &events, query, recordID); err != nil {
		return nil, fmt.Errorf("list transition events: %w", err)
	}
	return events, nil
}
