package taskguard

import (
	"context"
	"errors"
	"testing"

	"github.com/yaseralshikh/taskguard/catalog"
	"github.com/yaseralshikh/taskguard/checklog"
	"github.com/yaseralshikh/taskguard/membership"
	"github.com/yaseralshikh/taskguard/permission"
	"github.com/yaseralshikh/taskguard/role"
	"github.com/yaseralshikh/taskguard/scope"
	"github.com/yaseralshikh/taskguard/store"
)

func TestAssignmentByID(t *testing.T) {
	eng, _, ctx := newTestEngine(t)
	sc := scope.Team("7")
	if err := eng.AssignRole(ctx, "u1", catalog.RoleTeamAdmin, sc); err != nil {
		t.Fatal(err)
	}
	rows, err := eng.UserAssignments(ctx, "u1")
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected one assignment, got %d (%v)", len(rows), err)
	}
	assID := rows[0].ID

	a, r, err := eng.Assignment(ctx, assID)
	if err != nil {
		t.Fatal(err)
	}
	if r.Slug != catalog.RoleTeamAdmin || a.UserID != "u1" || a.Scope != sc {
		t.Fatalf("unexpected assignment %+v with role %s", a, r.Slug)
	}

	other := WithTenant(context.Background(), "app1", "t2")
	if _, _, err := eng.Assignment(other, assID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("foreign tenant should not see the assignment, got %v", err)
	}
	if err := eng.RemoveAssignment(other, assID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("foreign tenant should not remove the assignment, got %v", err)
	}

	ok, err := eng.HasPermission(ctx, "u1", catalog.EditTeams, sc)
	if err != nil || !ok {
		t.Fatalf("expected permission before removal: ok=%v err=%v", ok, err)
	}
	if err := eng.RemoveAssignment(ctx, assID); err != nil {
		t.Fatal(err)
	}
	ok, err = eng.HasPermission(ctx, "u1", catalog.EditTeams, sc)
	if err != nil || ok {
		t.Fatalf("expected no permission after removal: ok=%v err=%v", ok, err)
	}
	if err := eng.RemoveAssignment(ctx, assID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second removal: expected not found, got %v", err)
	}
}

func TestDecisionByID(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DecisionLog = true
	eng, _, ctx := newTestEngine(t, WithConfig(cfg))

	if _, err := eng.Check(ctx, &CheckRequest{User: active("u1"), Permission: catalog.ViewTasks}); err != nil {
		t.Fatal(err)
	}
	entries, _, err := eng.Decisions(ctx, checklog.QueryFilter{})
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one decision, got %d (%v)", len(entries), err)
	}

	got, err := eng.Decision(ctx, entries[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.UserID != "u1" {
		t.Fatalf("unexpected entry %+v", got)
	}

	other := WithTenant(context.Background(), "app1", "t2")
	if _, err := eng.Decision(other, entries[0].ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("foreign tenant should not read the decision, got %v", err)
	}
}

func TestForgetUser(t *testing.T) {
	eng, _, ctx := newTestEngine(t)
	team := eng.Team("7", "owner", nil)
	project := eng.Project("p1", "owner", team)

	if err := eng.AssignRole(ctx, "u1", catalog.RoleViewer, scope.Global()); err != nil {
		t.Fatal(err)
	}
	if err := eng.AssignRole(ctx, "u1", catalog.RoleProjectMember, project.Scope()); err != nil {
		t.Fatal(err)
	}
	if err := eng.AssignRole(ctx, "u2", catalog.RoleViewer, scope.Global()); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.AddMember(ctx, team, "u1", membership.TagMember); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.AddMember(ctx, project, "u1", membership.TagAdmin); err != nil {
		t.Fatal(err)
	}

	if ok, _ := eng.HasPermission(ctx, "u1", catalog.ViewTasks, scope.Global()); !ok {
		t.Fatal("expected viewer to see tasks before forget")
	}

	assignments, rosters, err := eng.ForgetUser(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if assignments != 2 || rosters != 2 {
		t.Fatalf("expected 2 assignments and 2 rosters, got %d and %d", assignments, rosters)
	}

	if ok, _ := eng.HasPermission(ctx, "u1", catalog.ViewTasks, scope.Global()); ok {
		t.Fatal("forgotten user kept a permission")
	}
	if ok, _ := eng.IsMember(ctx, project, "u1"); ok {
		t.Fatal("forgotten user kept a roster row")
	}
	if ok, _ := eng.HasPermission(ctx, "u2", catalog.ViewTasks, scope.Global()); !ok {
		t.Fatal("other users must keep their roles")
	}
}

func TestPurgeTenant(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DecisionLog = true
	eng, _, ctx := newTestEngine(t, WithConfig(cfg))
	other := WithTenant(context.Background(), "app1", "t2")
	if err := eng.Seed(other, nil); err != nil {
		t.Fatal(err)
	}

	for _, c := range []context.Context{ctx, other} {
		if err := eng.AssignRole(c, "u1", catalog.RoleViewer, scope.Global()); err != nil {
			t.Fatal(err)
		}
		if _, err := eng.AddMember(c, eng.Team("7", "owner", nil), "u1", membership.TagMember); err != nil {
			t.Fatal(err)
		}
		if _, err := eng.Check(c, &CheckRequest{User: active("u1"), Permission: catalog.ViewTasks}); err != nil {
			t.Fatal(err)
		}
	}

	if err := eng.PurgeTenant(ctx); err != nil {
		t.Fatal(err)
	}

	if _, n, _ := eng.ListRoles(ctx, role.ListFilter{}); n != 0 {
		t.Fatalf("expected no roles left in t1, got %d", n)
	}
	if _, n, _ := eng.ListPermissions(ctx, permission.ListFilter{}); n != 0 {
		t.Fatalf("expected no permissions left in t1, got %d", n)
	}
	if _, n, _ := eng.Decisions(ctx, checklog.QueryFilter{}); n != 0 {
		t.Fatalf("expected no decisions left in t1, got %d", n)
	}
	if _, err := eng.HasPermission(ctx, "u1", catalog.ViewTasks, scope.Global()); !errors.Is(err, ErrPermissionNotFound) {
		t.Fatalf("expected ErrPermissionNotFound after purge, got %v", err)
	}

	if _, n, _ := eng.ListRoles(other, role.ListFilter{}); n != int64(len(catalog.Default().Roles)) {
		t.Fatalf("t2 roles touched by t1 purge: %d left", n)
	}
	if _, n, _ := eng.Decisions(other, checklog.QueryFilter{}); n != 1 {
		t.Fatalf("t2 decisions touched by t1 purge: %d left", n)
	}
	if ok, _ := eng.HasPermission(other, "u1", catalog.ViewTasks, scope.Global()); !ok {
		t.Fatal("t2 assignment touched by t1 purge")
	}
	if ok, _ := eng.IsMember(other, eng.Team("7", "owner", nil), "u1"); !ok {
		t.Fatal("t2 roster touched by t1 purge")
	}
}

func TestPurgeTenantRequiresTenant(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	if err := eng.PurgeTenant(context.Background()); err == nil {
		t.Fatal("expected an error without a tenant")
	}
}
