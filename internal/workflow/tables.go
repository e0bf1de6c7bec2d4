package workflow

import "github.com/cometicitcare/dba-backend-sub002/internal/models"

var (
	dataEntryRoles = []models.UserRole{models.RoleDataEntry, models.RoleAdmin, models.RoleSuperAdmin}
	approverRoles  = []models.UserRole{models.RoleApprover, models.RoleAdmin, models.RoleSuperAdmin}
)

// SingleStage builds the print/approve workflow used by bhikku and silmatha
// registrations.
//
//	PENDING -> PRINTED -> PEND_APPROVAL -> COMPLETED
//	                      PEND_APPROVAL -> REJECTED -> PENDING
//
// The PRINTED -> PEND_APPROVAL edge is driven by the implicit document-attached
// event fired by the upload collaborator, not by a direct user action; it runs
// through the same commit path as every other transition.
func SingleStage() *Table {
	return NewTable("single-stage", Status(models.StatusPending), []Transition{
		{
			From:   Status(models.StatusPending),
			Action: Action(models.ActionMarkPrinted),
			Roles:  dataEntryRoles,
			To:     Status(models.StatusPrinted),
			Effect: EffectPrinted,
		},
		{
			From:     Status(models.StatusPrinted),
			Action:   Action(models.ActionDocumentAttached),
			Roles:    dataEntryRoles,
			To:       Status(models.StatusPendApproval),
			Effect:   EffectScanned,
			Internal: true,
		},
		{
			From:   Status(models.StatusPendApproval),
			Action: Action(models.ActionApprove),
			Roles:  approverRoles,
			To:     Status(models.StatusCompleted),
			Effect: EffectApproved,
		},
		{
			From:           Status(models.StatusPendApproval),
			Action:         Action(models.ActionReject),
			Roles:          approverRoles,
			To:             Status(models.StatusRejected),
			RequiresReason: true,
			Effect:         EffectRejected,
		},
		{
			From:   Status(models.StatusRejected),
			Action: Action(models.ActionResubmit),
			Roles:  dataEntryRoles,
			To:     Status(models.StatusPending),
			Effect: EffectResubmitted,
		},
	}, Status(models.StatusCompleted))
}

// TwoStage builds the certify/approve workflow used by temple and aramaya
// registrations. Each stage's field group is saved by data entry and then
// certified by an approver; approving stage one moves the record straight
// into S2_PENDING, approving stage two completes the registration.
func TwoStage() *Table {
	return NewTable("two-stage", Status(models.StatusStageOnePending), []Transition{
		{
			From:           Status(models.StatusStageOnePending),
			Action:         Action(models.ActionSaveStageOne),
			Roles:          dataEntryRoles,
			To:             Status(models.StatusStageOnePendApproval),
			RequiresFields: true,
			Effect:         EffectStageSaved,
		},
		{
			From:   Status(models.StatusStageOnePendApproval),
			Action: Action(models.ActionApproveStageOne),
			Roles:  approverRoles,
			To:     Status(models.StatusStageTwoPending),
			Effect: EffectStageOneCertified,
		},
		{
			From:           Status(models.StatusStageOnePendApproval),
			Action:         Action(models.ActionRejectStageOne),
			Roles:          approverRoles,
			To:             Status(models.StatusStageOneRejected),
			RequiresReason: true,
			Effect:         EffectRejected,
		},
		{
			From:   Status(models.StatusStageOneRejected),
			Action: Action(models.ActionResubmitStageOne),
			Roles:  dataEntryRoles,
			To:     Status(models.StatusStageOnePending),
			Effect: EffectResubmitted,
		},
		{
			From:           Status(models.StatusStageTwoPending),
			Action:         Action(models.ActionSaveStageTwo),
			Roles:          dataEntryRoles,
			To:             Status(models.StatusStageTwoPendApproval),
			RequiresFields: true,
			Effect:         EffectStageSaved,
		},
		{
			From:   Status(models.StatusStageTwoPendApproval),
			Action: Action(models.ActionApproveStageTwo),
			Roles:  approverRoles,
			To:     Status(models.StatusCompleted),
			Effect: EffectApproved,
		},
		{
			From:           Status(models.StatusStageTwoPendApproval),
			Action:         Action(models.ActionRejectStageTwo),
			Roles:          approverRoles,
			To:             Status(models.StatusStageTwoRejected),
			RequiresReason: true,
			Effect:         EffectRejected,
		},
		{
			From:   Status(models.StatusStageTwoRejected),
			Action: Action(models.ActionResubmitStageTwo),
			Roles:  dataEntryRoles,
			To:     Status(models.StatusStageTwoPending),
			Effect: EffectResubmitted,
		},
	}, Status(models.StatusCompleted))
}

// Objection builds the four-state objection workflow.
func Objection() *Table {
	return NewTable("objection", Status(models.ObjectionStatusPending), []Transition{
		{
			From:   Status(models.ObjectionStatusPending),
			Action: Action(models.ActionApprove),
			Roles:  approverRoles,
			To:     Status(models.ObjectionStatusApproved),
			Effect: EffectApproved,
		},
		{
			From:           Status(models.ObjectionStatusPending),
			Action:         Action(models.ActionReject),
			Roles:          approverRoles,
			To:             Status(models.ObjectionStatusRejected),
			RequiresReason: true,
			Effect:         EffectRejected,
		},
		{
			From:           Status(models.ObjectionStatusPending),
			Action:         Action(models.ActionCancel),
			Roles:          dataEntryRoles,
			To:             Status(models.ObjectionStatusCancelled),
			RequiresReason: true,
			Effect:         EffectCancelled,
		},
	}, Status(models.ObjectionStatusApproved), Status(models.ObjectionStatusRejected), Status(models.ObjectionStatusCancelled))
}

// TablesByEntity maps each registration category to its workflow shape.
func TablesByEntity() map[models.RegistrationEntity]*Table {
	single := SingleStage()
	two := TwoStage()
	return map[models.RegistrationEntity]*Table{
		models.EntityTemple:   two,
		models.EntityAramaya:  two,
		models.EntityBhikku:   single,
		models.EntitySilmatha: single,
	}
}
