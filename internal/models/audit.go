package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin          = "LOGIN"
	AuditActionLogout         = "LOGOUT"
	AuditActionPasswordChange = "PASSWORD_CHANGE"
	AuditActionTransition     = "WORKFLOW_TRANSITION"
)

// AuditLog represents a request-level audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// TransitionEvent is one row of the append-only workflow transition log.
// One event is written per accepted transition; the flat audit columns on the
// record hold only the latest values, the event log is the full history.
type TransitionEvent struct {
	ID         string             `db:"id" json:"id"`
	RecordID   string             `db:"record_id" json:"recordId"`
	Entity     RegistrationEntity `db:"entity" json:"entity"`
	FromStatus string             `db:"from_status" json:"fromStatus"`
	ToStatus   string             `db:"to_status" json:"toStatus"`
	Action     string             `db:"action" json:"action"`
	ActorID    string             `db:"actor_id" json:"actorId"`
	ActorRole  UserRole           `db:"actor_role" json:"actorRole"`
	Reason     *string            `db:"reason" json:"reason,omitempty"`
	Version    int                `db:"version" json:"version"`
	OccurredAt time.Time          `db:"occurred_at" json:"occurredAt"`
}
