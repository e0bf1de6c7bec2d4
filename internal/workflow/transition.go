// Package workflow implements the registration lifecycle state machine: a
// declarative transition table per workflow shape and the pure decision logic
// that gates every status change on (current status, requested action, actor
// role). Evaluation never blocks and never mutates anything; persisting an
// admitted transition is the caller's job.
package workflow

import (
	"fmt"

	"github.com/cometicitcare/dba-backend-sub002/internal/models"
	appErrors "github.com/cometicitcare/dba-backend-sub002/pkg/errors"
)

// Status is a workflow status value. Tables are built from the typed status
// constants in the models package; the engine itself is generic so the same
// machinery serves registrations and objections.
type Status string

// Action names a requested transition.
type Action string

// Effect tells the engine which audit columns a transition stamps.
type Effect string

const (
	EffectNone              Effect = ""
	EffectPrinted           Effect = "PRINTED"
	EffectScanned           Effect = "SCANNED"
	EffectStageSaved        Effect = "STAGE_SAVED"
	EffectStageOneCertified Effect = "STAGE_ONE_CERTIFIED"
	EffectApproved          Effect = "APPROVED"
	EffectRejected          Effect = "REJECTED"
	EffectResubmitted       Effect = "RESUBMITTED"
	EffectCancelled         Effect = "CANCELLED"
)

// Transition is a single allowed edge in the state machine.
type Transition struct {
	From           Status
	Action         Action
	Roles          []models.UserRole
	To             Status
	RequiresReason bool
	RequiresFields bool
	Effect         Effect

	// Internal marks an edge recorded by a system collaborator when its
	// trigger occurs, never requested directly through the action endpoint.
	Internal bool
}

func (t Transition) allows(role models.UserRole) bool {
	for _, r := range t.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Table is the transition authority for one workflow shape.
type Table struct {
	name        string
	initial     Status
	statuses    map[Status]struct{}
	terminal    map[Status]struct{}
	transitions []Transition
}

// NewTable builds a transition authority. The closed status set is derived
// from the declared edges plus the initial status.
func NewTable(name string, initial Status, transitions []Transition, terminal ...Status) *Table {
	statuses := map[Status]struct{}{initial: {}}
	for _, tr := range transitions {
		statuses[tr.From] = struct{}{}
		statuses[tr.To] = struct{}{}
	}
	terminalSet := make(map[Status]struct{}, len(terminal))
	for _, s := range terminal {
		terminalSet[s] = struct{}{}
	}
	return &Table{
		name:        name,
		initial:     initial,
		statuses:    statuses,
		terminal:    terminalSet,
		transitions: transitions,
	}
}

// Name identifies the workflow shape.
func (t *Table) Name() string { return t.name }

// Initial is the status assigned on record creation.
func (t *Table) Initial() Status { return t.initial }

// Contains reports whether the status belongs to this shape's closed set.
func (t *Table) Contains(status Status) bool {
	_, ok := t.statuses[status]
	return ok
}

// IsTerminal reports whether no further transitions exist from the status.
func (t *Table) IsTerminal(status Status) bool {
	_, ok := t.terminal[status]
	return ok
}

// Actions returns the actions admissible from the given status, regardless of role.
func (t *Table) Actions(status Status) []Action {
	var actions []Action
	for _, tr := range t.transitions {
		if tr.From == status {
			actions = append(actions, tr.Action)
		}
	}
	return actions
}

// Decide evaluates a transition request. It fails closed: the zero Transition
// and a typed error are returned unless the current status has a declared
// edge for the action and the acting role is in the edge's allowed set.
func (t *Table) Decide(current Status, action Action, role models.UserRole) (Transition, error) {
	if role == "" {
		return Transition{}, appErrors.Clone(appErrors.ErrForbidden,
			fmt.Sprintf("anonymous actor may not perform %s on %s workflow", action, t.name))
	}
	if !t.Contains(current) {
		return Transition{}, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("status %q is not part of the %s workflow", current, t.name))
	}

	var match *Transition
	for i := range t.transitions {
		tr := t.transitions[i]
		if tr.From == current && tr.Action == action {
			match = &tr
			break
		}
	}
	if match == nil {
		return Transition{}, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("action %s is not allowed while status is %s", action, current))
	}
	if !match.allows(role) {
		return Transition{}, appErrors.Clone(appErrors.ErrForbidden,
			fmt.Sprintf("role %s may not perform %s while status is %s", role, action, current))
	}
	return *match, nil
}
