package taskguard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yaseralshikh/taskguard/assignment"
	"github.com/yaseralshikh/taskguard/catalog"
	"github.com/yaseralshikh/taskguard/id"
	"github.com/yaseralshikh/taskguard/membership"
	"github.com/yaseralshikh/taskguard/permission"
	"github.com/yaseralshikh/taskguard/resource"
	"github.com/yaseralshikh/taskguard/role"
	"github.com/yaseralshikh/taskguard/store"
)

// Seed installs cat into the current tenant. Existing permissions and
// roles are left alone, so seeding twice is a no-op and permission sets
// edited after the first seed survive. A nil cat seeds catalog.Default().
func (e *Engine) Seed(ctx context.Context, cat *catalog.Catalog) error {
	if cat == nil {
		cat = catalog.Default()
	}
	if err := cat.Validate(); err != nil {
		return err
	}
	t := tenantFromContext(ctx)
	now := time.Now().UTC()

	permIDs := make(map[string]id.PermissionID, len(cat.Permissions))
	var newPerms, newRoles int
	for _, def := range cat.Permissions {
		p, err := e.store.GetPermissionBySlug(ctx, t.tenantID, def.Slug)
		switch {
		case err == nil:
		case errors.Is(err, store.ErrNotFound):
			p = &permission.Permission{
				ID:          id.NewPermissionID(),
				TenantID:    t.tenantID,
				AppID:       t.appID,
				Name:        def.Name,
				Slug:        def.Slug,
				Description: def.Description,
				Group:       def.Group,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := e.store.CreatePermission(ctx, p); err != nil {
				return fmt.Errorf("seed permission %q: %w", def.Slug, err)
			}
			newPerms++
		default:
			return fmt.Errorf("seed permission %q: %w", def.Slug, err)
		}
		permIDs[def.Slug] = p.ID
	}

	for _, def := range cat.Roles {
		_, err := e.store.GetRoleBySlug(ctx, t.tenantID, def.Slug)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("seed role %q: %w", def.Slug, err)
		}
		r := &role.Role{
			ID:          id.NewRoleID(),
			TenantID:    t.tenantID,
			AppID:       t.appID,
			Name:        def.Name,
			Slug:        def.Slug,
			Description: def.Description,
			IsSystem:    def.System,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := e.store.CreateRole(ctx, r); err != nil {
			return fmt.Errorf("seed role %q: %w", def.Slug, err)
		}
		slugs := cat.Expand(def)
		ids := make([]id.PermissionID, 0, len(slugs))
		for _, s := range slugs {
			ids = append(ids, permIDs[s])
		}
		if err := e.store.SetRolePermissions(ctx, r.ID, ids); err != nil {
			return fmt.Errorf("seed role %q permissions: %w", def.Slug, err)
		}
		newRoles++
	}

	e.invalidateTenant(ctx, t.tenantID)
	e.logger.Info("catalog seeded",
		slog.String("tenant", t.tenantID),
		slog.Int("new_permissions", newPerms),
		slog.Int("new_roles", newRoles),
	)
	return nil
}

// ProvisionOwner sets up the creator of a new team or project: an
// admin-tagged roster row plus the owner role from Config.OwnerRoles,
// scoped to res. The capacity limit does not apply to the owner.
func (e *Engine) ProvisionOwner(ctx context.Context, res resource.Container) error {
	owner := res.OwnerID()
	if owner == "" {
		return fmt.Errorf("taskguard: %s has no owner", res.Scope())
	}
	if _, err := e.addMember(ctx, res, owner, membership.TagAdmin, false); err != nil {
		return err
	}
	slug := e.config.ownerRole(res.ResourceType())
	if slug == "" {
		return nil
	}
	return e.AssignRole(ctx, owner, slug, res.Scope())
}

// ForgetResource drops the scoped assignments and the roster of a deleted
// team or project so no orphaned rows remain.
func (e *Engine) ForgetResource(ctx context.Context, res resource.Container) error {
	t := tenantFromContext(ctx)
	sc := res.Scope()
	if sc.IsGlobal() {
		return ErrInvalidScope
	}
	assignments, err := e.store.DeleteAssignmentsByScope(ctx, t.tenantID, sc)
	if err != nil {
		return fmt.Errorf("forget %s assignments: %w", sc, err)
	}
	members, err := e.store.DeleteMembersByScope(ctx, t.tenantID, sc)
	if err != nil {
		return fmt.Errorf("forget %s members: %w", sc, err)
	}
	e.invalidateTenant(ctx, t.tenantID)
	e.logger.Info("resource forgotten",
		slog.String("scope", sc.String()),
		slog.Int64("assignments", assignments),
		slog.Int64("members", members),
	)
	return nil
}

// ForgetUser deprovisions a user within the tenant: every role assignment
// is deleted and every active roster row is soft-deleted. It returns how
// many assignments and rosters were affected.
func (e *Engine) ForgetUser(ctx context.Context, userID string) (assignments, rosters int, err error) {
	t := tenantFromContext(ctx)
	rows, err := e.store.ListAssignments(ctx, &assignment.ListFilter{TenantID: t.tenantID, UserID: userID})
	if err != nil {
		return 0, 0, fmt.Errorf("forget user %s: %w", userID, err)
	}
	if err := e.store.DeleteAssignmentsByUser(ctx, t.tenantID, userID); err != nil {
		return 0, 0, fmt.Errorf("forget user %s assignments: %w", userID, err)
	}
	e.invalidateUser(ctx, t.tenantID, userID)

	members, err := e.store.ListMembers(ctx, &membership.ListFilter{TenantID: t.tenantID, UserID: userID})
	if err != nil {
		return len(rows), 0, fmt.Errorf("forget user %s rosters: %w", userID, err)
	}
	for _, m := range members {
		removed, err := e.store.RemoveMember(ctx, t.tenantID, m.Scope, userID)
		if err != nil {
			return len(rows), rosters, fmt.Errorf("forget user %s on %s: %w", userID, m.Scope, err)
		}
		if removed {
			rosters++
			if e.plugins != nil {
				e.plugins.EmitMemberRemoved(ctx, m)
			}
		}
	}

	e.logger.Info("user forgotten",
		slog.String("user", userID),
		slog.Int("assignments", len(rows)),
		slog.Int("rosters", rosters),
	)
	return len(rows), rosters, nil
}

// PurgeTenant deletes everything the tenant in ctx owns: decision logs,
// rosters, assignments, roles and the permission catalog. The tenant must
// be seeded again before it can be used.
func (e *Engine) PurgeTenant(ctx context.Context) error {
	t := tenantFromContext(ctx)
	if t.tenantID == "" {
		return errors.New("taskguard: purge tenant: no tenant in context")
	}
	steps := []struct {
		what string
		fn   func(context.Context, string) error
	}{
		{"check logs", e.store.DeleteCheckLogsByTenant},
		{"members", e.store.DeleteMembersByTenant},
		{"assignments", e.store.DeleteAssignmentsByTenant},
		{"roles", e.store.DeleteRolesByTenant},
		{"permissions", e.store.DeletePermissionsByTenant},
	}
	for _, step := range steps {
		if err := step.fn(ctx, t.tenantID); err != nil {
			return fmt.Errorf("purge tenant %s %s: %w", t.tenantID, step.what, err)
		}
	}
	e.invalidateTenant(ctx, t.tenantID)
	e.logger.Warn("tenant purged", slog.String("tenant", t.tenantID))
	return nil
}
