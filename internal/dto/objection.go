package dto

import "github.com/cometicitcare/dba-backend-sub002/internal/models"

// CreateObjectionRequest files an objection against a registration.
type CreateObjectionRequest struct {
	RegistrationID  string `json:"registrationId" validate:"required"`
	ObjectorName    string `json:"objectorName" validate:"required"`
	ObjectorAddress string `json:"objectorAddress"`
	Grounds         string `json:"grounds" validate:"required"`
}

// ObjectionActionRequest drives the four-state objection workflow.
type ObjectionActionRequest struct {
	Action          models.WorkflowAction `json:"action"`
	ExpectedVersion int                   `json:"expectedVersion"`
	Reason          string                `json:"reason,omitempty"`
}

// ObjectionQuery mirrors supported listing filters.
type ObjectionQuery struct {
	RegistrationID string
	Status         []models.ObjectionStatus
	Limit          int
	Offset         int
}
