package models

import (
	"encoding/json"
	"time"
)

// RegistrationEntity enumerates the registration categories managed by the registry.
type RegistrationEntity string

const (
	EntityTemple   RegistrationEntity = "temple"
	EntityAramaya  RegistrationEntity = "aramaya"
	EntityBhikku   RegistrationEntity = "bhikku"
	EntitySilmatha RegistrationEntity = "silmatha"
)

// KnownEntities lists every registration category in declaration order.
var KnownEntities = []RegistrationEntity{EntityTemple, EntityAramaya, EntityBhikku, EntitySilmatha}

// RegistrationStatus is the workflow status of a registration record.
// Each entity's workflow shape draws from a closed subset of these values.
type RegistrationStatus string

// Single-stage print/approve workflow statuses (bhikku, silmatha).
const (
	StatusPending      RegistrationStatus = "PENDING"
	StatusPrinted      RegistrationStatus = "PRINTED"
	StatusPendApproval RegistrationStatus = "PEND_APPROVAL"
	StatusCompleted    RegistrationStatus = "COMPLETED"
	StatusRejected     RegistrationStatus = "REJECTED"
)

// Two-stage certify/approve workflow statuses (temple, aramaya).
// Approving stage one lands directly on S2_PENDING: the workflow status is a
// single value, so the stage-one approval is recorded in the audit columns
// while the status moves the record into the next stage.
const (
	StatusStageOnePending      RegistrationStatus = "S1_PENDING"
	StatusStageOnePendApproval RegistrationStatus = "S1_PEND_APPROVAL"
	StatusStageOneRejected     RegistrationStatus = "S1_REJECTED"
	StatusStageTwoPending      RegistrationStatus = "S2_PENDING"
	StatusStageTwoPendApproval RegistrationStatus = "S2_PEND_APPROVAL"
	StatusStageTwoRejected     RegistrationStatus = "S2_REJECTED"
)

// WorkflowAction names a transition request on a registration record.
type WorkflowAction string

const (
	ActionMarkPrinted      WorkflowAction = "MARK_PRINTED"
	ActionDocumentAttached WorkflowAction = "DOCUMENT_ATTACHED"
	ActionApprove          WorkflowAction = "APPROVE"
	ActionReject           WorkflowAction = "REJECT"
	ActionResubmit         WorkflowAction = "RESUBMIT"

	ActionSaveStageOne     WorkflowAction = "SAVE_STAGE_ONE"
	ActionApproveStageOne  WorkflowAction = "APPROVE_STAGE_ONE"
	ActionRejectStageOne   WorkflowAction = "REJECT_STAGE_ONE"
	ActionResubmitStageOne WorkflowAction = "RESUBMIT_STAGE_ONE"
	ActionSaveStageTwo     WorkflowAction = "SAVE_STAGE_TWO"
	ActionApproveStageTwo  WorkflowAction = "APPROVE_STAGE_TWO"
	ActionRejectStageTwo   WorkflowAction = "REJECT_STAGE_TWO"
	ActionResubmitStageTwo WorkflowAction = "RESUBMIT_STAGE_TWO"

	ActionCancel WorkflowAction = "CANCEL"
)

// RegistrationRecord is the subject of the workflow. The registration number
// is assigned once on creation and never changes; version is the optimistic
// concurrency token and increments by exactly one per accepted transition.
type RegistrationRecord struct {
	ID                 string             `db:"id" json:"id"`
	RegistrationNumber string             `db:"registration_number" json:"registrationNumber"`
	Entity             RegistrationEntity `db:"entity" json:"entity"`
	Status             RegistrationStatus `db:"status" json:"status"`
	Version            int                `db:"version" json:"version"`

	StageOneData json.RawMessage `db:"stage_one_data" json:"stageOneData,omitempty"`
	StageTwoData json.RawMessage `db:"stage_two_data" json:"stageTwoData,omitempty"`

	ResubmissionCount int `db:"resubmission_count" json:"resubmissionCount"`

	CreatedBy string    `db:"created_by" json:"createdBy"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	PrintedBy *string    `db:"printed_by" json:"printedBy,omitempty"`
	PrintedAt *time.Time `db:"printed_at" json:"printedAt,omitempty"`

	ScannedBy *string    `db:"scanned_by" json:"scannedBy,omitempty"`
	ScannedAt *time.Time `db:"scanned_at" json:"scannedAt,omitempty"`

	StageOneCertifiedBy *string    `db:"stage_one_certified_by" json:"stageOneCertifiedBy,omitempty"`
	StageOneCertifiedAt *time.Time `db:"stage_one_certified_at" json:"stageOneCertifiedAt,omitempty"`

	ApprovedBy *string    `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt *time.Time `db:"approved_at" json:"approvedAt,omitempty"`

	RejectedBy      *string    `db:"rejected_by" json:"rejectedBy,omitempty"`
	RejectedAt      *time.Time `db:"rejected_at" json:"rejectedAt,omitempty"`
	RejectionReason *string    `db:"rejection_reason" json:"rejectionReason,omitempty"`

	CancelledBy        *string    `db:"cancelled_by" json:"cancelledBy,omitempty"`
	CancelledAt        *time.Time `db:"cancelled_at" json:"cancelledAt,omitempty"`
	CancellationReason *string    `db:"cancellation_reason" json:"cancellationReason,omitempty"`

	Deleted   bool       `db:"deleted" json:"deleted"`
	DeletedBy *string    `db:"deleted_by" json:"deletedBy,omitempty"`
	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
}

// RegistrationFilter constrains listing queries.
type RegistrationFilter struct {
	Entity    RegistrationEntity
	Status    []RegistrationStatus
	CreatedBy string
	Search    string
	Limit     int
	Offset    int
}
