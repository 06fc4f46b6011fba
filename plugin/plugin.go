// Package plugin defines the plugin system for taskguard.
// Plugins are notified of lifecycle events (check evaluated, permission
// granted, member added, etc.) and can react with logging, metrics or
// tracing.
//
// Each lifecycle hook is a separate interface so plugins opt in only
// to the events they care about.
package plugin

import (
	"context"

	"github.com/yaseralshikh/taskguard/assignment"
	"github.com/yaseralshikh/taskguard/membership"
	"github.com/yaseralshikh/taskguard/permission"
	"github.com/yaseralshikh/taskguard/role"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// ──────────────────────────────────────────────────
// Check lifecycle hooks
// ──────────────────────────────────────────────────

// BeforeCheck is called before a check is evaluated.
// The req parameter is *taskguard.CheckRequest (passed as any to avoid an
// import cycle).
type BeforeCheck interface {
	OnBeforeCheck(ctx context.Context, req any) error
}

// AfterCheck is called after a check completes.
// The req parameter is *taskguard.CheckRequest; result is *taskguard.CheckResult.
type AfterCheck interface {
	OnAfterCheck(ctx context.Context, req, result any) error
}

// ──────────────────────────────────────────────────
// Role lifecycle hooks
// ──────────────────────────────────────────────────

// RoleCreated is called after a role is created.
type RoleCreated interface {
	OnRoleCreated(ctx context.Context, r *role.Role) error
}

// RoleUpdated is called after a role is updated.
type RoleUpdated interface {
	OnRoleUpdated(ctx context.Context, r *role.Role) error
}

// RoleDeleted is called after a role and its assignments are deleted.
type RoleDeleted interface {
	OnRoleDeleted(ctx context.Context, r *role.Role) error
}

// PermissionGranted is called after a permission is attached to a role.
type PermissionGranted interface {
	OnPermissionGranted(ctx context.Context, r *role.Role, p *permission.Permission) error
}

// PermissionRevoked is called after a permission is detached from a role.
type PermissionRevoked interface {
	OnPermissionRevoked(ctx context.Context, r *role.Role, p *permission.Permission) error
}

// ──────────────────────────────────────────────────
// Assignment lifecycle hooks
// ──────────────────────────────────────────────────

// RoleAssigned is called after a role is assigned to a user.
type RoleAssigned interface {
	OnRoleAssigned(ctx context.Context, a *assignment.Assignment) error
}

// RoleRemoved is called after a user's role assignment is removed.
type RoleRemoved interface {
	OnRoleRemoved(ctx context.Context, a *assignment.Assignment) error
}

// AssignmentAnomaly is called when a stored assignment has only one of its
// scope columns set. The engine treats such rows as global.
type AssignmentAnomaly interface {
	OnAssignmentAnomaly(ctx context.Context, a *assignment.Assignment) error
}

// ──────────────────────────────────────────────────
// Membership lifecycle hooks
// ──────────────────────────────────────────────────

// MemberAdded is called after a user joins (or rejoins) a roster.
type MemberAdded interface {
	OnMemberAdded(ctx context.Context, m *membership.Member) error
}

// MemberRemoved is called after a member is soft-deleted.
type MemberRemoved interface {
	OnMemberRemoved(ctx context.Context, m *membership.Member) error
}

// MemberRoleUpdated is called after a member's tag changes.
type MemberRoleUpdated interface {
	OnMemberRoleUpdated(ctx context.Context, m *membership.Member) error
}

// ──────────────────────────────────────────────────
// Shutdown hook
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
