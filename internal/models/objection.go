package models

import "time"

// ObjectionStatus captures the four-state objection workflow.
type ObjectionStatus string

const (
	ObjectionStatusPending   ObjectionStatus = "PENDING"
	ObjectionStatusApproved  ObjectionStatus = "APPROVED"
	ObjectionStatusRejected  ObjectionStatus = "REJECTED"
	ObjectionStatusCancelled ObjectionStatus = "CANCELLED"
)

// ObjectionRecord is an objection raised against a registration. It is a
// second instantiation of the generic workflow engine: same optimistic
// concurrency discipline, same transition event trail.
type ObjectionRecord struct {
	ID             string             `db:"id" json:"id"`
	RegistrationID string             `db:"registration_id" json:"registrationId"`
	Entity         RegistrationEntity `db:"entity" json:"entity"`
	Status         ObjectionStatus    `db:"status" json:"status"`
	Version        int                `db:"version" json:"version"`

	ObjectorName    string `db:"objector_name" json:"objectorName"`
	ObjectorAddress string `db:"objector_address" json:"objectorAddress"`
	Grounds         string `db:"grounds" json:"grounds"`

	CreatedBy string    `db:"created_by" json:"createdBy"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	ApprovedBy *string    `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt *time.Time `db:"approved_at" json:"approvedAt,omitempty"`

	RejectedBy      *string    `db:"rejected_by" json:"rejectedBy,omitempty"`
	RejectedAt      *time.Time `db:"rejected_at" json:"rejectedAt,omitempty"`
	RejectionReason *string    `db:"rejection_reason" json:"rejectionReason,omitempty"`

	CancelledBy        *string    `db:"cancelled_by" json:"cancelledBy,omitempty"`
	CancelledAt        *time.Time `db:"cancelled_at" json:"cancelledAt,omitempty"`
	CancellationReason *string    `db:"cancellation_reason" json:"cancellationReason,omitempty"`

	Deleted bool `db:"deleted" json:"deleted"`
}

// ObjectionFilter constrains objection listing queries.
type ObjectionFilter struct {
	RegistrationID string
	Status         []ObjectionStatus
	Limit          int
	Offset         int
}
