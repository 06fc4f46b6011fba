package taskguard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yaseralshikh/taskguard/assignment"
	"github.com/yaseralshikh/taskguard/id"
	"github.com/yaseralshikh/taskguard/permission"
	"github.com/yaseralshikh/taskguard/role"
	"github.com/yaseralshikh/taskguard/scope"
	"github.com/yaseralshikh/taskguard/store"
)

// ──────────────────────────────────────────────────
// Permission catalog
// ──────────────────────────────────────────────────

// FindPermission looks a permission up by slug.
func (e *Engine) FindPermission(ctx context.Context, slug string) (*permission.Permission, error) {
	t := tenantFromContext(ctx)
	p, err := e.store.GetPermissionBySlug(ctx, t.tenantID, slug)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrPermissionNotFound, slug)
	}
	return p, err
}

// ListPermissionsByGroup returns the catalog entries of one group. An
// empty group lists everything.
func (e *Engine) ListPermissionsByGroup(ctx context.Context, group string) ([]*permission.Permission, error) {
	t := tenantFromContext(ctx)
	return e.store.ListPermissions(ctx, &permission.ListFilter{TenantID: t.tenantID, Group: group})
}

// ──────────────────────────────────────────────────
// Roles
// ──────────────────────────────────────────────────

// FindRole looks a role up by slug.
func (e *Engine) FindRole(ctx context.Context, slug string) (*role.Role, error) {
	t := tenantFromContext(ctx)
	r, err := e.store.GetRoleBySlug(ctx, t.tenantID, slug)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrRoleNotFound, slug)
	}
	return r, err
}

// CreateRole persists r in the current tenant. A duplicate slug fails with
// store.ErrConflict.
func (e *Engine) CreateRole(ctx context.Context, r *role.Role) error {
	t := tenantFromContext(ctx)
	now := time.Now().UTC()
	if r.ID.IsNil() {
		r.ID = id.NewRoleID()
	}
	r.TenantID = t.tenantID
	r.AppID = t.appID
	r.CreatedAt = now
	r.UpdatedAt = now
	if err := e.store.CreateRole(ctx, r); err != nil {
		return fmt.Errorf("create role %q: %w", r.Slug, err)
	}
	if e.plugins != nil {
		e.plugins.EmitRoleCreated(ctx, r)
	}
	return nil
}

// UpdateRole changes the name, description and metadata of the role with
// r.Slug. System roles are refused.
func (e *Engine) UpdateRole(ctx context.Context, r *role.Role) error {
	cur, err := e.FindRole(ctx, r.Slug)
	if err != nil {
		return err
	}
	if cur.IsSystem {
		return fmt.Errorf("%w: %q", ErrSystemRoleImmutable, cur.Slug)
	}
	cur.Name = r.Name
	cur.Description = r.Description
	cur.Metadata = r.Metadata
	cur.UpdatedAt = time.Now().UTC()
	if err := e.store.UpdateRole(ctx, cur); err != nil {
		return fmt.Errorf("update role %q: %w", cur.Slug, err)
	}
	*r = *cur
	if e.plugins != nil {
		e.plugins.EmitRoleUpdated(ctx, cur)
	}
	return nil
}

// DeleteRole removes a non-system role together with its assignments.
func (e *Engine) DeleteRole(ctx context.Context, slug string) error {
	r, err := e.FindRole(ctx, slug)
	if err != nil {
		return err
	}
	if r.IsSystem {
		return fmt.Errorf("%w: %q", ErrSystemRoleImmutable, slug)
	}
	if err := e.store.DeleteAssignmentsByRole(ctx, r.ID); err != nil {
		return fmt.Errorf("delete role %q assignments: %w", slug, err)
	}
	if err := e.store.DeleteRole(ctx, r.ID); err != nil {
		return fmt.Errorf("delete role %q: %w", slug, err)
	}
	e.invalidateTenant(ctx, r.TenantID)
	if e.plugins != nil {
		e.plugins.EmitRoleDeleted(ctx, r)
	}
	return nil
}

// RolePermissions lists the permissions attached to a role.
func (e *Engine) RolePermissions(ctx context.Context, roleSlug string) ([]*permission.Permission, error) {
	r, err := e.FindRole(ctx, roleSlug)
	if err != nil {
		return nil, err
	}
	return e.store.ListPermissionsByRole(ctx, r.ID)
}

// RoleHasPermission reports whether the role carries the permission.
func (e *Engine) RoleHasPermission(ctx context.Context, roleSlug, permSlug string) (bool, error) {
	r, p, err := e.rolePermission(ctx, roleSlug, permSlug)
	if err != nil {
		return false, err
	}
	return e.store.RoleHasPermission(ctx, []id.RoleID{r.ID}, p.ID)
}

// GrantPermission attaches a permission to a role. Granting twice is a no-op.
func (e *Engine) GrantPermission(ctx context.Context, roleSlug, permSlug string) error {
	r, p, err := e.mutableRolePermission(ctx, roleSlug, permSlug)
	if err != nil {
		return err
	}
	if err := e.store.AttachPermission(ctx, r.ID, p.ID); err != nil {
		return fmt.Errorf("grant %q to %q: %w", permSlug, roleSlug, err)
	}
	e.invalidateTenant(ctx, r.TenantID)
	if e.plugins != nil {
		e.plugins.EmitPermissionGranted(ctx, r, p)
	}
	return nil
}

// RevokePermission detaches a permission from a role. Revoking an absent
// link is a no-op.
func (e *Engine) RevokePermission(ctx context.Context, roleSlug, permSlug string) error {
	r, p, err := e.mutableRolePermission(ctx, roleSlug, permSlug)
	if err != nil {
		return err
	}
	if err := e.store.DetachPermission(ctx, r.ID, p.ID); err != nil {
		return fmt.Errorf("revoke %q from %q: %w", permSlug, roleSlug, err)
	}
	e.invalidateTenant(ctx, r.TenantID)
	if e.plugins != nil {
		e.plugins.EmitPermissionRevoked(ctx, r, p)
	}
	return nil
}

func (e *Engine) rolePermission(ctx context.Context, roleSlug, permSlug string) (*role.Role, *permission.Permission, error) {
	r, err := e.FindRole(ctx, roleSlug)
	if err != nil {
		return nil, nil, err
	}
	p, err := e.FindPermission(ctx, permSlug)
	if err != nil {
		return nil, nil, err
	}
	return r, p, nil
}

func (e *Engine) mutableRolePermission(ctx context.Context, roleSlug, permSlug string) (*role.Role, *permission.Permission, error) {
	r, p, err := e.rolePermission(ctx, roleSlug, permSlug)
	if err != nil {
		return nil, nil, err
	}
	if r.IsSystem && !e.config.SystemRolePermissionsMutable {
		return nil, nil, fmt.Errorf("%w: %q", ErrSystemRoleImmutable, roleSlug)
	}
	return r, p, nil
}

// ──────────────────────────────────────────────────
// Assignments
// ──────────────────────────────────────────────────

// AssignRole grants roleSlug to userID at sc. Assigning an identical
// (role, user, scope) twice is a no-op.
func (e *Engine) AssignRole(ctx context.Context, userID, roleSlug string, sc scope.Scope) error {
	if err := validScope(sc); err != nil {
		return err
	}
	r, err := e.FindRole(ctx, roleSlug)
	if err != nil {
		return err
	}
	t := tenantFromContext(ctx)
	a := &assignment.Assignment{
		ID:        id.NewAssignmentID(),
		TenantID:  t.tenantID,
		AppID:     t.appID,
		RoleID:    r.ID,
		UserID:    userID,
		Scope:     sc,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.store.CreateAssignment(ctx, a); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil
		}
		return fmt.Errorf("assign %q to %s: %w", roleSlug, userID, err)
	}
	e.invalidateUser(ctx, t.tenantID, userID)

	e.logger.Info("role assigned",
		slog.String("user", userID),
		slog.String("role", roleSlug),
		slog.String("scope", sc.String()),
	)
	if e.plugins != nil {
		e.plugins.EmitRoleAssigned(ctx, a)
	}
	return nil
}

// RemoveRole drops the assignment of roleSlug to userID at exactly sc.
// Assignments at other scopes are untouched. Removing an absent
// assignment is a no-op.
func (e *Engine) RemoveRole(ctx context.Context, userID, roleSlug string, sc scope.Scope) error {
	if err := validScope(sc); err != nil {
		return err
	}
	r, err := e.FindRole(ctx, roleSlug)
	if err != nil {
		return err
	}
	t := tenantFromContext(ctx)
	n, err := e.store.DeleteUserRole(ctx, t.tenantID, userID, r.ID, sc)
	if err != nil {
		return fmt.Errorf("remove %q from %s: %w", roleSlug, userID, err)
	}
	if n == 0 {
		return nil
	}
	e.invalidateUser(ctx, t.tenantID, userID)
	if e.plugins != nil {
		e.plugins.EmitRoleRemoved(ctx, &assignment.Assignment{
			TenantID: t.tenantID,
			AppID:    t.appID,
			RoleID:   r.ID,
			UserID:   userID,
			Scope:    sc,
		})
	}
	return nil
}

// Assignment returns one of the tenant's assignments and its role.
// Assignments of other tenants are reported as not found.
func (e *Engine) Assignment(ctx context.Context, assID id.AssignmentID) (*assignment.Assignment, *role.Role, error) {
	t := tenantFromContext(ctx)
	a, err := e.store.GetAssignment(ctx, assID)
	if err != nil {
		return nil, nil, err
	}
	if a.TenantID != t.tenantID {
		return nil, nil, fmt.Errorf("assignment %s: %w", assID, store.ErrNotFound)
	}
	r, err := e.store.GetRole(ctx, a.RoleID)
	if err != nil {
		return nil, nil, fmt.Errorf("role of assignment %s: %w", assID, err)
	}
	return a, r, nil
}

// RemoveAssignment deletes one assignment by ID.
func (e *Engine) RemoveAssignment(ctx context.Context, assID id.AssignmentID) error {
	a, _, err := e.Assignment(ctx, assID)
	if err != nil {
		return err
	}
	if err := e.store.DeleteAssignment(ctx, assID); err != nil {
		return fmt.Errorf("remove assignment %s: %w", assID, err)
	}
	e.invalidateUser(ctx, a.TenantID, a.UserID)
	if e.plugins != nil {
		e.plugins.EmitRoleRemoved(ctx, a)
	}
	return nil
}

// UserAssignments lists every assignment of a user.
func (e *Engine) UserAssignments(ctx context.Context, userID string) ([]*assignment.Assignment, error) {
	t := tenantFromContext(ctx)
	return e.store.ListAssignments(ctx, &assignment.ListFilter{TenantID: t.tenantID, UserID: userID})
}

func validScope(sc scope.Scope) error {
	if sc.IsGlobal() {
		return nil
	}
	if _, err := scope.New(sc.Kind(), sc.ID()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScope, err)
	}
	return nil
}
