package assignment

import (
	"context"

	"github.com/yaseralshikh/taskguard/id"
	"github.com/yaseralshikh/taskguard/scope"
)

// Store defines persistence operations for role assignments.
type Store interface {
	// CreateAssignment persists a new assignment. An identical
	// (tenant, role, user, scope) row is a conflict.
	CreateAssignment(ctx context.Context, a *Assignment) error

	GetAssignment(ctx context.Context, assID id.AssignmentID) (*Assignment, error)

	DeleteAssignment(ctx context.Context, assID id.AssignmentID) error

	ListAssignments(ctx context.Context, filter *ListFilter) ([]*Assignment, error)

	CountAssignments(ctx context.Context, filter *ListFilter) (int64, error)

	// ListApplicableAssignments returns the user's assignments that may
	// apply to a check at target: global rows, half-scoped rows and rows
	// scoped exactly to target.
	ListApplicableAssignments(ctx context.Context, tenantID, userID string, target scope.Scope) ([]*Assignment, error)

	// DeleteUserRole removes the user's assignment of roleID at exactly sc
	// and reports how many rows went away.
	DeleteUserRole(ctx context.Context, tenantID, userID string, roleID id.RoleID, sc scope.Scope) (int64, error)

	// DeleteAssignmentsByScope removes every assignment scoped to sc.
	// Global is rejected by callers.
	DeleteAssignmentsByScope(ctx context.Context, tenantID string, sc scope.Scope) (int64, error)

	DeleteAssignmentsByRole(ctx context.Context, roleID id.RoleID) error

	DeleteAssignmentsByUser(ctx context.Context, tenantID, userID string) error

	DeleteAssignmentsByTenant(ctx context.Context, tenantID string) error
}
