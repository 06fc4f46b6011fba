// Package taskguard is the authorization engine of a task and project
// management application.
//
// Roles bundle permission slugs and are assigned to users either globally
// or scoped to a single team or project. A check against a resource first
// runs the resource's ownership and membership shortcuts and only then
// falls back to the user's role assignments (global plus the matching
// scope). Every call is tenant-scoped via forge.Scope or WithTenant.
//
//	eng, err := taskguard.NewEngine(taskguard.WithStore(memory.New()))
//	_ = eng.Seed(ctx, catalog.Default())
//	ok, err := eng.Can(ctx, user, taskguard.ActionUpdate, eng.Project("p1", "u1", nil))
package taskguard

import (
	"github.com/yaseralshikh/taskguard/policy"
	"github.com/yaseralshikh/taskguard/resource"
	"github.com/yaseralshikh/taskguard/scope"
)

// User is the actor of a check.
type User = resource.User

// Action names an operation on a resource.
type Action = policy.Action

// Decision is the outcome code of a check.
type Decision = policy.Decision

const (
	ActionView             = policy.ActionView
	ActionCreate           = policy.ActionCreate
	ActionUpdate           = policy.ActionUpdate
	ActionDelete           = policy.ActionDelete
	ActionArchive          = policy.ActionArchive
	ActionAssign           = policy.ActionAssign
	ActionUpdateStatus     = policy.ActionUpdateStatus
	ActionAddMember        = policy.ActionAddMember
	ActionRemoveMember     = policy.ActionRemoveMember
	ActionUpdateMemberRole = policy.ActionUpdateMemberRole
)

const (
	// DecisionAllow means the request is permitted.
	DecisionAllow = policy.DecisionAllow

	// DecisionDenyInactive means the user is deactivated.
	DecisionDenyInactive = policy.DecisionDenyInactive

	// DecisionDenyNoRule means no rule exists for the resource type and action.
	DecisionDenyNoRule = policy.DecisionDenyNoRule

	// DecisionDenyPrecondition means a rule's precondition failed.
	DecisionDenyPrecondition = policy.DecisionDenyPrecondition

	// DecisionDenyNoPermission means no applicable role grants the permission.
	DecisionDenyNoPermission = policy.DecisionDenyNoPermission

	// DecisionDenyNoShortcut means the rule has no RBAC fallback and no
	// shortcut held.
	DecisionDenyNoShortcut = policy.DecisionDenyNoShortcut
)

// CheckRequest is the input to a check.
//
// With a nil Resource the check is a plain permission lookup: Permission
// (or the action when Permission is empty) is the slug and Scope selects
// which assignments apply. The zero Scope is Global.
type CheckRequest struct {
	User       User              `json:"user"`
	Action     Action            `json:"action"`
	Resource   resource.Resource `json:"-"`
	Permission string            `json:"permission,omitempty"`
	Scope      scope.Scope       `json:"scope"`
}

// CheckResult is the outcome of a check.
type CheckResult struct {
	Allowed    bool        `json:"allowed"`
	Decision   Decision    `json:"decision"`
	Reason     string      `json:"reason,omitempty"`
	MatchedBy  []MatchInfo `json:"matched_by,omitempty"`
	EvalTimeNs int64       `json:"eval_time_ns"`
}

// MatchInfo describes what allowed the request.
type MatchInfo struct {
	Source string `json:"source"` // "shortcut" or "rbac"
	Rule   string `json:"rule,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// slug returns the permission slug of a resource-less request.
func (r *CheckRequest) slug() string {
	if r.Permission != "" {
		return r.Permission
	}
	return string(r.Action)
}
