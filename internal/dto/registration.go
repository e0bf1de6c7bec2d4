package dto

import (
	"encoding/json"

	"github.com/cometicitcare/dba-backend-sub002/internal/models"
)

// CreateRegistrationRequest opens a new registration record in its shape's
// initial status. Stage one data may be supplied up front; later stages are
// ignored until the workflow reaches them.
type CreateRegistrationRequest struct {
	StageOneData json.RawMessage `json:"stageOneData"`
}

// ActionRequest is the wire contract for a workflow action:
// {action, recordId (path), expectedVersion, payload}. Callers must always
// read before writing; expectedVersion is the version they read.
type ActionRequest struct {
	Action          models.WorkflowAction `json:"action"`
	ExpectedVersion int                   `json:"expectedVersion"`
	Reason          string                `json:"reason,omitempty"`
	Fields          json.RawMessage       `json:"fields,omitempty"`
}

// ActionResponse reports the outcome of an accepted transition.
type ActionResponse struct {
	Record     *models.RegistrationRecord `json:"record"`
	NewStatus  models.RegistrationStatus  `json:"newStatus"`
	NewVersion int                        `json:"newVersion"`
}

// DeleteRegistrationRequest soft-deletes a record; the version check applies
// to deletes exactly as it does to workflow transitions.
type DeleteRegistrationRequest struct {
	ExpectedVersion int    `json:"expectedVersion"`
	Reason          string `json:"reason,omitempty"`
}

// RegistrationQuery mirrors supported listing filters.
type RegistrationQuery struct {
	Status []models.RegistrationStatus
	Search string
	Limit  int
	Offset int
}
