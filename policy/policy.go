// Package policy holds the per-resource authorization rules.
//
// A Rule is an ordered list of shortcut predicates followed by an optional
// RBAC fallback. Shortcuts are OR-ed and short-circuit: the first one that
// holds allows the request and RBAC is never consulted. Only when every
// shortcut fails is the rule's permission slug checked, at the scope the
// rule derives from the resource.
package policy

import (
	"context"
	"fmt"

	"github.com/yaseralshikh/taskguard/resource"
	"github.com/yaseralshikh/taskguard/scope"
)

// Action names an operation on a resource.
type Action string

const (
	ActionView             Action = "view"
	ActionCreate           Action = "create"
	ActionUpdate           Action = "update"
	ActionDelete           Action = "delete"
	ActionArchive          Action = "archive"
	ActionAssign           Action = "assign"
	ActionUpdateStatus     Action = "updateStatus"
	ActionAddMember        Action = "addMember"
	ActionRemoveMember     Action = "removeMember"
	ActionUpdateMemberRole Action = "updateMemberRole"
)

// Decision is the outcome code of a check.
type Decision string

const (
	DecisionAllow            Decision = "allow"
	DecisionDenyInactive     Decision = "deny_inactive"
	DecisionDenyNoRule       Decision = "deny_no_rule"
	DecisionDenyPrecondition Decision = "deny_precondition"
	DecisionDenyNoPermission Decision = "deny_no_permission"
	DecisionDenyNoShortcut   Decision = "deny_no_shortcut"
)

// Checker resolves a permission slug for a user at a scope. The engine
// implements it.
type Checker interface {
	HasPermission(ctx context.Context, userID, slug string, sc scope.Scope) (bool, error)
}

// PredicateFunc inspects the user and resource.
type PredicateFunc func(ctx context.Context, u resource.User, r resource.Resource) (bool, error)

// Predicate is a named PredicateFunc. Names show up in check results.
type Predicate struct {
	Name string
	Fn   PredicateFunc
}

// Rule decides one (resource type, action) pair.
type Rule struct {
	// Require, when set, must hold before anything else is evaluated.
	Require *Predicate

	// Shortcuts are evaluated in order.
	Shortcuts []Predicate

	// Permission is the RBAC fallback slug. Empty means no fallback.
	Permission string

	// Scope derives the RBAC scope from the resource. Nil means Global.
	Scope func(r resource.Resource) scope.Scope
}

// Outcome is the result of evaluating a Rule.
type Outcome struct {
	Allowed    bool
	Decision   Decision
	Source     string // "shortcut", "rbac" or "" on deny
	Matched    string // predicate name or permission slug
	Permission string
	Scope      scope.Scope
	Reason     string
}

// Evaluate applies rule to (u, r). Deny is an outcome, never an error.
// Errors come from predicates and from chk, e.g. an unknown permission slug.
func Evaluate(ctx context.Context, chk Checker, rule Rule, u resource.User, r resource.Resource) (Outcome, error) {
	if rule.Require != nil {
		ok, err := rule.Require.Fn(ctx, u, r)
		if err != nil {
			return Outcome{}, fmt.Errorf("policy: %s: %w", rule.Require.Name, err)
		}
		if !ok {
			return Outcome{
				Decision: DecisionDenyPrecondition,
				Reason:   "precondition failed: " + rule.Require.Name,
			}, nil
		}
	}

	for _, p := range rule.Shortcuts {
		ok, err := p.Fn(ctx, u, r)
		if err != nil {
			return Outcome{}, fmt.Errorf("policy: %s: %w", p.Name, err)
		}
		if ok {
			return Outcome{
				Allowed:  true,
				Decision: DecisionAllow,
				Source:   "shortcut",
				Matched:  p.Name,
			}, nil
		}
	}

	if rule.Permission == "" {
		return Outcome{Decision: DecisionDenyNoShortcut, Reason: "no shortcut matched"}, nil
	}

	sc := scope.Global()
	if rule.Scope != nil {
		sc = rule.Scope(r)
	}
	ok, err := chk.HasPermission(ctx, u.ID, rule.Permission, sc)
	if err != nil {
		return Outcome{}, err
	}
	if ok {
		return Outcome{
			Allowed:    true,
			Decision:   DecisionAllow,
			Source:     "rbac",
			Matched:    rule.Permission,
			Permission: rule.Permission,
			Scope:      sc,
		}, nil
	}
	return Outcome{
		Decision:   DecisionDenyNoPermission,
		Permission: rule.Permission,
		Scope:      sc,
		Reason:     "no role grants " + rule.Permission + " at " + sc.String(),
	}, nil
}

// Table maps resource types and actions to rules.
type Table map[resource.Type]map[Action]Rule

// Rule looks up the rule for (typ, action).
func (t Table) Rule(typ resource.Type, action Action) (Rule, bool) {
	rules, ok := t[typ]
	if !ok {
		return Rule{}, false
	}
	r, ok := rules[action]
	return r, ok
}

// With returns a copy of t with rule installed for (typ, action).
func (t Table) With(typ resource.Type, action Action, rule Rule) Table {
	out := make(Table, len(t)+1)
	for k, v := range t {
		inner := make(map[Action]Rule, len(v))
		for a, r := range v {
			inner[a] = r
		}
		out[k] = inner
	}
	if out[typ] == nil {
		out[typ] = make(map[Action]Rule)
	}
	out[typ][action] = rule
	return out
}
