package role

import (
	"context"

	"github.com/yaseralshikh/taskguard/id"
)

// Store defines persistence operations for roles and the role/permission
// link table.
type Store interface {
	// CreateRole persists a new role. A duplicate slug within the tenant is
	// a conflict.
	CreateRole(ctx context.Context, r *Role) error

	GetRole(ctx context.Context, roleID id.RoleID) (*Role, error)

	// GetRoleBySlug retrieves a role by tenant and slug.
	GetRoleBySlug(ctx context.Context, tenantID, slug string) (*Role, error)

	UpdateRole(ctx context.Context, r *Role) error

	DeleteRole(ctx context.Context, roleID id.RoleID) error

	ListRoles(ctx context.Context, filter *ListFilter) ([]*Role, error)

	CountRoles(ctx context.Context, filter *ListFilter) (int64, error)

	// RoleHasPermission reports whether any of the roles carries permID.
	RoleHasPermission(ctx context.Context, roleIDs []id.RoleID, permID id.PermissionID) (bool, error)

	// AttachPermission links a permission to a role. Attaching twice is a
	// no-op.
	AttachPermission(ctx context.Context, roleID id.RoleID, permID id.PermissionID) error

	// DetachPermission unlinks a permission. Detaching an absent link is a
	// no-op.
	DetachPermission(ctx context.Context, roleID id.RoleID, permID id.PermissionID) error

	// SetRolePermissions replaces the role's permission set atomically.
	SetRolePermissions(ctx context.Context, roleID id.RoleID, permIDs []id.PermissionID) error

	DeleteRolesByTenant(ctx context.Context, tenantID string) error
}
