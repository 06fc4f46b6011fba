package permission

import (
	"context"

	"github.com/yaseralshikh/taskguard/id"
)

// Store persists the catalog. There is no update or delete of a single
// permission: the catalog is seeded and then read.
type Store interface {
	// CreatePermission persists a new permission. A duplicate slug within
	// the tenant is a conflict.
	CreatePermission(ctx context.Context, p *Permission) error

	// GetPermissionBySlug retrieves a permission by tenant and slug.
	GetPermissionBySlug(ctx context.Context, tenantID, slug string) (*Permission, error)

	// ListPermissions returns permissions ordered by group then slug.
	ListPermissions(ctx context.Context, filter *ListFilter) ([]*Permission, error)

	CountPermissions(ctx context.Context, filter *ListFilter) (int64, error)

	// ListPermissionsByRole returns the permissions attached to a role.
	ListPermissionsByRole(ctx context.Context, roleID id.RoleID) ([]*Permission, error)

	DeletePermissionsByTenant(ctx context.Context, tenantID string) error
}
