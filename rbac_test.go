package taskguard

import (
	"context"
	"errors"
	"testing"

	"github.com/yaseralshikh/taskguard/assignment"
	"github.com/yaseralshikh/taskguard/catalog"
	"github.com/yaseralshikh/taskguard/permission"
	"github.com/yaseralshikh/taskguard/resource"
	"github.com/yaseralshikh/taskguard/role"
	"github.com/yaseralshikh/taskguard/scope"
	"github.com/yaseralshikh/taskguard/store"
)

func TestSeedIsIdempotent(t *testing.T) {
	eng, s, ctx := newTestEngine(t)

	if err := eng.RevokePermission(ctx, catalog.RoleViewer, catalog.ViewReports); err != nil {
		t.Fatal(err)
	}
	if err := eng.Seed(ctx, nil); err != nil {
		t.Fatal(err)
	}

	n, err := s.CountPermissions(ctx, &permission.ListFilter{TenantID: "t1"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 33 {
		t.Fatalf("expected 33 permissions, got %d", n)
	}
	roles, err := s.CountRoles(ctx, &role.ListFilter{TenantID: "t1"})
	if err != nil {
		t.Fatal(err)
	}
	if roles != 7 {
		t.Fatalf("expected 7 roles, got %d", roles)
	}

	ok, err := eng.RoleHasPermission(ctx, catalog.RoleViewer, catalog.ViewReports)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("reseeding must not restore a revoked permission")
	}
}

func TestGrantPermissionIsIdempotent(t *testing.T) {
	eng, _, ctx := newTestEngine(t)

	before, err := eng.RolePermissions(ctx, catalog.RoleViewer)
	if err != nil {
		t.Fatal(err)
	}
	for range 2 {
		if err := eng.GrantPermission(ctx, catalog.RoleViewer, catalog.ExportData); err != nil {
			t.Fatal(err)
		}
	}
	after, err := eng.RolePermissions(ctx, catalog.RoleViewer)
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != len(before)+1 {
		t.Fatalf("expected %d permissions, got %d", len(before)+1, len(after))
	}

	for range 2 {
		if err := eng.RevokePermission(ctx, catalog.RoleViewer, catalog.ExportData); err != nil {
			t.Fatal(err)
		}
	}
	after, err = eng.RolePermissions(ctx, catalog.RoleViewer)
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != len(before) {
		t.Fatalf("expected %d permissions after revoke, got %d", len(before), len(after))
	}
}

func TestGrantUnknownSlugs(t *testing.T) {
	eng, _, ctx := newTestEngine(t)

	if err := eng.GrantPermission(ctx, catalog.RoleViewer, "nope"); !errors.Is(err, ErrPermissionNotFound) {
		t.Fatalf("expected ErrPermissionNotFound, got %v", err)
	}
	if err := eng.RevokePermission(ctx, "nope", catalog.ViewTasks); !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
	if err := eng.AssignRole(ctx, "u1", "nope", scope.Global()); !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
	if _, err := eng.FindPermission(ctx, "nope"); !errors.Is(err, ErrPermissionNotFound) {
		t.Fatalf("expected ErrPermissionNotFound, got %v", err)
	}
}

func TestRevokeKeepsUnionFromOtherRoles(t *testing.T) {
	eng, _, ctx := newTestEngine(t)
	sc := scope.Project("p1")

	for _, slug := range []string{"editor-a", "editor-b"} {
		if err := eng.CreateRole(ctx, &role.Role{Name: slug, Slug: slug}); err != nil {
			t.Fatal(err)
		}
		if err := eng.GrantPermission(ctx, slug, catalog.EditTasks); err != nil {
			t.Fatal(err)
		}
	}
	mustAssign(t, eng, ctx, "only-a", "editor-a", sc)
	mustAssign(t, eng, ctx, "both", "editor-a", sc)
	mustAssign(t, eng, ctx, "both", "editor-b", sc)

	if err := eng.RevokePermission(ctx, "editor-a", catalog.EditTasks); err != nil {
		t.Fatal(err)
	}

	if ok, _ := eng.HasPermission(ctx, "only-a", catalog.EditTasks, sc); ok {
		t.Error("only-a lost its sole grant")
	}
	if ok, _ := eng.HasPermission(ctx, "both", catalog.EditTasks, sc); !ok {
		t.Error("both still holds editor-b")
	}
}

func TestRevokeRemovesScopedTaskAccess(t *testing.T) {
	eng, _, ctx := newTestEngine(t)
	project := eng.Project("p1", "owner", nil)
	task := &resource.Task{ID: "x1", CreatedBy: "c", Project: project}

	mustAssign(t, eng, ctx, "d", catalog.RoleProjectMember, project.Scope())
	if !mustCan(t, eng, ctx, active("d"), ActionUpdate, task) {
		t.Fatal("project-member should edit tasks in its project")
	}

	if err := eng.RevokePermission(ctx, catalog.RoleProjectMember, catalog.EditTasks); err != nil {
		t.Fatal(err)
	}
	if mustCan(t, eng, ctx, active("d"), ActionUpdate, task) {
		t.Fatal("revoked edit-tasks must deny the update")
	}
}

func TestSystemRoles(t *testing.T) {
	eng, _, ctx := newTestEngine(t)

	if err := eng.DeleteRole(ctx, catalog.RoleSuperAdmin); !errors.Is(err, ErrSystemRoleImmutable) {
		t.Fatalf("expected ErrSystemRoleImmutable on delete, got %v", err)
	}
	if err := eng.UpdateRole(ctx, &role.Role{Slug: catalog.RoleTeamOwner, Name: "Boss"}); !errors.Is(err, ErrSystemRoleImmutable) {
		t.Fatalf("expected ErrSystemRoleImmutable on update, got %v", err)
	}
	if err := eng.GrantPermission(ctx, catalog.RoleTeamOwner, catalog.ManageUsers); !errors.Is(err, ErrSystemRoleImmutable) {
		t.Fatalf("expected ErrSystemRoleImmutable on grant, got %v", err)
	}

	cfg := DefaultConfig()
	cfg.SystemRolePermissionsMutable = true
	mutable, _, mctx := newTestEngine(t, WithConfig(cfg))
	if err := mutable.GrantPermission(mctx, catalog.RoleTeamOwner, catalog.ManageUsers); err != nil {
		t.Fatalf("grant with mutable system roles: %v", err)
	}
	if err := mutable.DeleteRole(mctx, catalog.RoleTeamOwner); !errors.Is(err, ErrSystemRoleImmutable) {
		t.Fatalf("deleting a system role is never allowed, got %v", err)
	}
}

func TestRoleLifecycle(t *testing.T) {
	eng, s, ctx := newTestEngine(t)

	r := &role.Role{Name: "Auditor", Slug: "auditor"}
	if err := eng.CreateRole(ctx, r); err != nil {
		t.Fatal(err)
	}
	if err := eng.CreateRole(ctx, &role.Role{Name: "Again", Slug: "auditor"}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	upd := &role.Role{Slug: "auditor", Name: "Auditor (read only)"}
	if err := eng.UpdateRole(ctx, upd); err != nil {
		t.Fatal(err)
	}
	if upd.ID != r.ID || upd.Name != "Auditor (read only)" {
		t.Fatalf("unexpected updated role %+v", upd)
	}

	mustAssign(t, eng, ctx, "u1", "auditor", scope.Global())
	if err := eng.DeleteRole(ctx, "auditor"); err != nil {
		t.Fatal(err)
	}
	n, err := s.CountAssignments(ctx, &assignment.ListFilter{TenantID: "t1", UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("deleting a role must drop its assignments, %d left", n)
	}
}

func TestAssignAndRemoveRole(t *testing.T) {
	eng, _, ctx := newTestEngine(t)
	p1, p2 := scope.Project("p1"), scope.Project("p2")

	mustAssign(t, eng, ctx, "u1", catalog.RoleProjectMember, p1)
	mustAssign(t, eng, ctx, "u1", catalog.RoleProjectMember, p1)
	mustAssign(t, eng, ctx, "u1", catalog.RoleProjectMember, p2)

	list, err := eng.UserAssignments(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(list))
	}

	if err := eng.RemoveRole(ctx, "u1", catalog.RoleProjectMember, p1); err != nil {
		t.Fatal(err)
	}
	if err := eng.RemoveRole(ctx, "u1", catalog.RoleProjectMember, p1); err != nil {
		t.Fatalf("removing twice is a no-op, got %v", err)
	}
	if ok, _ := eng.HasPermission(ctx, "u1", catalog.EditTasks, p2); !ok {
		t.Fatal("removal at p1 must keep the p2 assignment")
	}
	if ok, _ := eng.HasPermission(ctx, "u1", catalog.EditTasks, p1); ok {
		t.Fatal("p1 assignment should be gone")
	}
}

func TestAssignRoleRejectsInvalidScope(t *testing.T) {
	eng, _, ctx := newTestEngine(t)
	if err := eng.AssignRole(ctx, "u1", catalog.RoleViewer, scope.Team("")); !errors.Is(err, ErrInvalidScope) {
		t.Fatalf("expected ErrInvalidScope, got %v", err)
	}
}

func TestListPermissionsByGroup(t *testing.T) {
	eng, _, ctx := newTestEngine(t)
	perms, err := eng.ListPermissionsByGroup(ctx, "time")
	if err != nil {
		t.Fatal(err)
	}
	if len(perms) != 4 {
		t.Fatalf("expected 4 time permissions, got %d", len(perms))
	}
	for _, p := range perms {
		if p.Group != "time" {
			t.Errorf("%s is in group %s", p.Slug, p.Group)
		}
	}
}

func mustAssign(t *testing.T, eng *Engine, ctx context.Context, userID, roleSlug string, sc scope.Scope) {
	t.Helper()
	if err := eng.AssignRole(ctx, userID, roleSlug, sc); err != nil {
		t.Fatalf("assign %s to %s: %v", roleSlug, userID, err)
	}
}
