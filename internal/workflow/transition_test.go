package workflow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cometicitcare/dba-backend-sub002/internal/models"
	appErrors "github.com/cometicitcare/dba-backend-sub002/pkg/errors"
)

func requireErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, code, appErr.Code)
}

func TestSingleStageHappyPath(t *testing.T) {
	table := SingleStage()
	require.Equal(t, Status(models.StatusPending), table.Initial())

	tr, err := table.Decide(Status(models.StatusPending), Action(models.ActionMarkPrinted), models.RoleDataEntry)
	require.NoError(t, err)
	require.Equal(t, Status(models.StatusPrinted), tr.To)
	require.Equal(t, EffectPrinted, tr.Effect)

	tr, err = table.Decide(Status(models.StatusPrinted), Action(models.ActionDocumentAttached), models.RoleDataEntry)
	require.NoError(t, err)
	require.Equal(t, Status(models.StatusPendApproval), tr.To)
	require.Equal(t, EffectScanned, tr.Effect)
	require.True(t, tr.Internal)

	tr, err = table.Decide(Status(models.StatusPendApproval), Action(models.ActionApprove), models.RoleApprover)
	require.NoError(t, err)
	require.Equal(t, Status(models.StatusCompleted), tr.To)
	require.True(t, table.IsTerminal(tr.To))
}

func TestSingleStageRejectRequiresReason(t *testing.T) {
	table := SingleStage()
	tr, err := table.Decide(Status(models.StatusPendApproval), Action(models.ActionReject), models.RoleApprover)
	require.NoError(t, err)
	require.True(t, tr.RequiresReason)
	require.Equal(t, Status(models.StatusRejected), tr.To)

	tr, err = table.Decide(Status(models.StatusRejected), Action(models.ActionResubmit), models.RoleDataEntry)
	require.NoError(t, err)
	require.Equal(t, Status(models.StatusPending), tr.To)
	require.Equal(t, EffectResubmitted, tr.Effect)
}

func TestRoleGateFailsClosed(t *testing.T) {
	table := SingleStage()

	// Data entry may not approve.
	_, err := table.Decide(Status(models.StatusPendApproval), Action(models.ActionApprove), models.RoleDataEntry)
	requireErrorCode(t, err, "FORBIDDEN")

	// Approver may not mark printed.
	_, err = table.Decide(Status(models.StatusPending), Action(models.ActionMarkPrinted), models.RoleApprover)
	requireErrorCode(t, err, "FORBIDDEN")

	// Anonymous actors are always refused.
	_, err = table.Decide(Status(models.StatusPending), Action(models.ActionMarkPrinted), "")
	requireErrorCode(t, err, "FORBIDDEN")

	// Admin is a superset of both roles.
	_, err = table.Decide(Status(models.StatusPending), Action(models.ActionMarkPrinted), models.RoleAdmin)
	require.NoError(t, err)
	_, err = table.Decide(Status(models.StatusPendApproval), Action(models.ActionApprove), models.RoleSuperAdmin)
	require.NoError(t, err)
}

func TestInvalidTransitionFailsClosed(t *testing.T) {
	table := SingleStage()

	// No approve edge from PENDING.
	_, err := table.Decide(Status(models.StatusPending), Action(models.ActionApprove), models.RoleApprover)
	requireErrorCode(t, err, "INVALID_TRANSITION")

	// COMPLETED is terminal: nothing leaves it.
	for _, action := range []models.WorkflowAction{models.ActionMarkPrinted, models.ActionApprove, models.ActionReject, models.ActionResubmit} {
		_, err := table.Decide(Status(models.StatusCompleted), Action(action), models.RoleSuperAdmin)
		requireErrorCode(t, err, "INVALID_TRANSITION")
	}

	// Undeclared statuses are refused outright.
	_, err = table.Decide(Status("S1_PENDING"), Action(models.ActionApprove), models.RoleApprover)
	requireErrorCode(t, err, "INVALID_TRANSITION")
}

func TestTwoStageWalkthrough(t *testing.T) {
	table := TwoStage()
	require.Equal(t, Status(models.StatusStageOnePending), table.Initial())

	steps := []struct {
		from   models.RegistrationStatus
		action models.WorkflowAction
		role   models.UserRole
		to     models.RegistrationStatus
	}{
		{models.StatusStageOnePending, models.ActionSaveStageOne, models.RoleDataEntry, models.StatusStageOnePendApproval},
		{models.StatusStageOnePendApproval, models.ActionApproveStageOne, models.RoleApprover, models.StatusStageTwoPending},
		{models.StatusStageTwoPending, models.ActionSaveStageTwo, models.RoleDataEntry, models.StatusStageTwoPendApproval},
		{models.StatusStageTwoPendApproval, models.ActionApproveStageTwo, models.RoleApprover, models.StatusCompleted},
	}
	for _, step := range steps {
		tr, err := table.Decide(Status(step.from), Action(step.action), step.role)
		require.NoError(t, err, "step %s", step.action)
		require.Equal(t, Status(step.to), tr.To)
	}
	require.True(t, table.IsTerminal(Status(models.StatusCompleted)))
}

func TestTwoStageRejectAndResubmitPerStage(t *testing.T) {
	table := TwoStage()

	tr, err := table.Decide(Status(models.StatusStageOnePendApproval), Action(models.ActionRejectStageOne), models.RoleApprover)
	require.NoError(t, err)
	require.True(t, tr.RequiresReason)
	require.Equal(t, Status(models.StatusStageOneRejected), tr.To)

	tr, err = table.Decide(Status(models.StatusStageOneRejected), Action(models.ActionResubmitStageOne), models.RoleDataEntry)
	require.NoError(t, err)
	require.Equal(t, Status(models.StatusStageOnePending), tr.To)

	tr, err = table.Decide(Status(models.StatusStageTwoPendApproval), Action(models.ActionRejectStageTwo), models.RoleApprover)
	require.NoError(t, err)
	require.Equal(t, Status(models.StatusStageTwoRejected), tr.To)

	// A stage-two reject edge never fires from stage one.
	_, err = table.Decide(Status(models.StatusStageOnePendApproval), Action(models.ActionRejectStageTwo), models.RoleApprover)
	requireErrorCode(t, err, "INVALID_TRANSITION")
}

func TestTwoStageSaveRequiresFields(t *testing.T) {
	table := TwoStage()
	tr, err := table.Decide(Status(models.StatusStageOnePending), Action(models.ActionSaveStageOne), models.RoleDataEntry)
	require.NoError(t, err)
	require.True(t, tr.RequiresFields)
	tr, err = table.Decide(Status(models.StatusStageTwoPending), Action(models.ActionSaveStageTwo), models.RoleAdmin)
	require.NoError(t, err)
	require.True(t, tr.RequiresFields)
}

func TestObjectionTable(t *testing.T) {
	table := Objection()
	require.Equal(t, Status(models.ObjectionStatusPending), table.Initial())

	tr, err := table.Decide(Status(models.ObjectionStatusPending), Action(models.ActionApprove), models.RoleApprover)
	require.NoError(t, err)
	require.Equal(t, Status(models.ObjectionStatusApproved), tr.To)

	tr, err = table.Decide(Status(models.ObjectionStatusPending), Action(models.ActionCancel), models.RoleDataEntry)
	require.NoError(t, err)
	require.True(t, tr.RequiresReason)
	require.Equal(t, Status(models.ObjectionStatusCancelled), tr.To)

	for _, terminal := range []models.ObjectionStatus{models.ObjectionStatusApproved, models.ObjectionStatusRejected, models.ObjectionStatusCancelled} {
		require.True(t, table.IsTerminal(Status(terminal)))
		_, err := table.Decide(Status(terminal), Action(models.ActionApprove), models.RoleSuperAdmin)
		requireErrorCode(t, err, "INVALID_TRANSITION")
	}
}

func TestTablesByEntityClosedStatusSets(t *testing.T) {
	tables := TablesByEntity()
	require.Len(t, tables, 4)

	single := tables[models.EntityBhikku]
	require.Same(t, single, tables[models.EntitySilmatha])
	require.True(t, single.Contains(Status(models.StatusPending)))
	require.False(t, single.Contains(Status(models.StatusStageOnePending)))

	two := tables[models.EntityTemple]
	require.Same(t, two, tables[models.EntityAramaya])
	require.True(t, two.Contains(Status(models.StatusStageTwoRejected)))
	require.False(t, two.Contains(Status(models.StatusPrinted)))
}

func TestActionsEnumeration(t *testing.T) {
	table := SingleStage()
	actions := table.Actions(Status(models.StatusPendApproval))
	require.ElementsMatch(t, []Action{Action(models.ActionApprove), Action(models.ActionReject)}, actions)
	require.Empty(t, table.Actions(Status(models.StatusCompleted)))
}
