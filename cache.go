package taskguard

import (
	"context"

	"github.com/yaseralshikh/taskguard/scope"
)

// PermissionKey identifies one HasPermission lookup within a tenant.
type PermissionKey struct {
	UserID     string
	Permission string
	Scope      scope.Scope
}

// String renders the key as "user|permission|scope".
func (k PermissionKey) String() string {
	return k.UserID + "|" + k.Permission + "|" + k.Scope.String()
}

// Cache stores HasPermission results. Shortcut decisions are never cached
// because they depend on caller-supplied resource state.
type Cache interface {
	// Get returns a cached lookup result.
	Get(ctx context.Context, tenantID string, key PermissionKey) (allowed, found bool)

	// Stamp captures the invalidation state that applies to key. Callers
	// take it before reading the store and hand it back to Set.
	Stamp(ctx context.Context, tenantID string, key PermissionKey) string

	// Set stores a lookup result computed under stamp. The write is
	// dropped if the tenant or the user was invalidated since.
	Set(ctx context.Context, tenantID string, key PermissionKey, stamp string, allowed bool)

	// InvalidateTenant drops every result for a tenant. Called when role
	// permission sets change.
	InvalidateTenant(ctx context.Context, tenantID string)

	// InvalidateUser drops the results of one user. Called when the user's
	// assignments change.
	InvalidateUser(ctx context.Context, tenantID, userID string)
}
