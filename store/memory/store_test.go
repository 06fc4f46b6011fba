package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yaseralshikh/taskguard/assignment"
	"github.com/yaseralshikh/taskguard/checklog"
	"github.com/yaseralshikh/taskguard/id"
	"github.com/yaseralshikh/taskguard/membership"
	"github.com/yaseralshikh/taskguard/permission"
	"github.com/yaseralshikh/taskguard/role"
	"github.com/yaseralshikh/taskguard/scope"
	"github.com/yaseralshikh/taskguard/store"
)

func TestRoleCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := &role.Role{ID: id.NewRoleID(), TenantID: "t1", AppID: "app1", Name: "Viewer", Slug: "viewer"}
	if err := s.CreateRole(ctx, r); err != nil {
		t.Fatal(err)
	}

	dup := &role.Role{ID: id.NewRoleID(), TenantID: "t1", Name: "Viewer 2", Slug: "viewer"}
	if err := s.CreateRole(ctx, dup); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict for duplicate slug, got %v", err)
	}

	other := &role.Role{ID: id.NewRoleID(), TenantID: "t2", Name: "Viewer", Slug: "viewer"}
	if err := s.CreateRole(ctx, other); err != nil {
		t.Fatalf("same slug in another tenant should be allowed: %v", err)
	}

	got, err := s.GetRoleBySlug(ctx, "t1", "viewer")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != r.ID {
		t.Fatal("slug lookup mismatch")
	}

	r.Description = "read only"
	if err := s.UpdateRole(ctx, r); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetRole(ctx, r.ID)
	if got.Description != "read only" {
		t.Fatal("update failed")
	}

	count, _ := s.CountRoles(ctx, &role.ListFilter{TenantID: "t1", Limit: 1, Offset: 5})
	if count != 1 {
		t.Fatalf("expected count 1 ignoring pagination, got %d", count)
	}

	if err := s.DeleteRole(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetRole(ctx, r.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestPermissionListOrder(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, p := range []struct{ slug, group string }{
		{"view-tasks", "tasks"},
		{"edit-teams", "teams"},
		{"create-tasks", "tasks"},
	} {
		err := s.CreatePermission(ctx, &permission.Permission{
			ID: id.NewPermissionID(), TenantID: "t1", Slug: p.slug, Name: p.slug, Group: p.group,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	list, err := s.ListPermissions(ctx, &permission.ListFilter{TenantID: "t1"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"create-tasks", "view-tasks", "edit-teams"}
	for i, p := range list {
		if p.Slug != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, p.Slug, want[i])
		}
	}

	tasks, _ := s.ListPermissions(ctx, &permission.ListFilter{TenantID: "t1", Group: "tasks"})
	if len(tasks) != 2 {
		t.Fatalf("expected 2 task permissions, got %d", len(tasks))
	}

	if _, err := s.GetPermissionBySlug(ctx, "t1", "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRolePermissionLinks(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := &role.Role{ID: id.NewRoleID(), TenantID: "t1", Slug: "editor"}
	p := &permission.Permission{ID: id.NewPermissionID(), TenantID: "t1", Slug: "edit-tasks"}
	_ = s.CreateRole(ctx, r)
	_ = s.CreatePermission(ctx, p)

	for range 2 {
		if err := s.AttachPermission(ctx, r.ID, p.ID); err != nil {
			t.Fatal(err)
		}
	}
	ids, _ := s.ListPermissionsByRole(ctx, r.ID)
	if len(ids) != 1 {
		t.Fatalf("double attach should store once, got %d", len(ids))
	}

	ok, _ := s.RoleHasPermission(ctx, []id.RoleID{id.NewRoleID(), r.ID}, p.ID)
	if !ok {
		t.Fatal("expected role to carry permission")
	}

	for range 2 {
		if err := s.DetachPermission(ctx, r.ID, p.ID); err != nil {
			t.Fatal(err)
		}
	}
	ok, _ = s.RoleHasPermission(ctx, []id.RoleID{r.ID}, p.ID)
	if ok {
		t.Fatal("expected permission detached")
	}
}

func TestApplicableAssignments(t *testing.T) {
	ctx := context.Background()
	s := New()
	roleID := id.NewRoleID()

	mk := func(sc scope.Scope) *assignment.Assignment {
		return &assignment.Assignment{ID: id.NewAssignmentID(), TenantID: "t1", RoleID: roleID, UserID: "u1", Scope: sc}
	}

	global := mk(scope.Global())
	team1 := mk(scope.Team("1"))
	team2 := mk(scope.Team("2"))
	for _, a := range []*assignment.Assignment{global, team1, team2} {
		if err := s.CreateAssignment(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.CreateAssignment(ctx, mk(scope.Team("1"))); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict for identical assignment, got %v", err)
	}

	half := mk(scope.Global())
	half.Malformed = true
	s.PutRawAssignment(half)

	got, err := s.ListApplicableAssignments(ctx, "t1", "u1", scope.Team("1"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected global, half-scoped and team 1 rows, got %d", len(got))
	}
	for _, a := range got {
		if a.Scope == scope.Team("2") {
			t.Fatal("team 2 assignment must not apply to team 1")
		}
	}

	n, _ := s.DeleteUserRole(ctx, "t1", "u1", roleID, scope.Team("2"))
	if n != 1 {
		t.Fatalf("expected 1 removed, got %d", n)
	}
	n, _ = s.DeleteUserRole(ctx, "t1", "u1", roleID, scope.Team("2"))
	if n != 0 {
		t.Fatalf("second removal should be a no-op, got %d", n)
	}

	n, _ = s.DeleteAssignmentsByScope(ctx, "t1", scope.Team("1"))
	if n != 1 {
		t.Fatalf("expected 1 scoped row removed, got %d", n)
	}
}

func TestMembershipUpsertRestoresSoftDeleted(t *testing.T) {
	ctx := context.Background()
	s := New()
	sc := scope.Team("7")

	m := &membership.Member{ID: id.NewMemberID(), TenantID: "t1", Scope: sc, UserID: "u1", Role: membership.TagMember}
	added, err := s.UpsertMember(ctx, m)
	if err != nil || !added {
		t.Fatalf("first add: added=%v err=%v", added, err)
	}

	again := &membership.Member{ID: id.NewMemberID(), TenantID: "t1", Scope: sc, UserID: "u1", Role: membership.TagAdmin}
	added, _ = s.UpsertMember(ctx, again)
	if added {
		t.Fatal("re-adding an active member should report added=false")
	}
	got, _ := s.GetMember(ctx, "t1", sc, "u1")
	if got.Role != membership.TagMember {
		t.Fatal("re-adding an active member must not change the tag")
	}

	removed, _ := s.RemoveMember(ctx, "t1", sc, "u1")
	if !removed {
		t.Fatal("expected removal")
	}
	if _, err := s.GetMember(ctx, "t1", sc, "u1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("soft-deleted member should not be found, got %v", err)
	}
	if n, _ := s.CountMembers(ctx, "t1", sc); n != 0 {
		t.Fatalf("soft-deleted member must not count, got %d", n)
	}

	added, _ = s.UpsertMember(ctx, again)
	if !added {
		t.Fatal("restoring a soft-deleted member should report added=true")
	}
	all, _ := s.ListMembers(ctx, &membership.ListFilter{TenantID: "t1", Scope: &sc, IncludeDeleted: true})
	if len(all) != 1 {
		t.Fatalf("expected a single row after restore, got %d", len(all))
	}
	if all[0].Role != membership.TagAdmin || !all[0].Active() {
		t.Fatalf("restored row should be active admin, got %+v", all[0])
	}
	if all[0].ID != m.ID {
		t.Fatal("restore must reuse the original row")
	}
}

func TestMembershipUpdateRole(t *testing.T) {
	ctx := context.Background()
	s := New()
	sc := scope.Project("p")

	if err := s.UpdateMemberRole(ctx, "t1", sc, "ghost", membership.TagAdmin); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for non-member, got %v", err)
	}

	_, _ = s.UpsertMember(ctx, &membership.Member{ID: id.NewMemberID(), TenantID: "t1", Scope: sc, UserID: "u1", Role: membership.TagMember})
	if err := s.UpdateMemberRole(ctx, "t1", sc, "u1", membership.TagAdmin); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetMember(ctx, "t1", sc, "u1")
	if got.Role != membership.TagAdmin {
		t.Fatalf("expected admin, got %s", got.Role)
	}
}

func TestCheckLogQuery(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Now().Add(-time.Hour)

	for i, d := range []string{"allow", "deny", "allow"} {
		e := &checklog.Entry{
			ID: id.NewCheckLogID(), TenantID: "t1", UserID: "u1", Action: "view",
			Decision: d, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.CreateCheckLog(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	allowed, _ := s.ListCheckLogs(ctx, &checklog.QueryFilter{TenantID: "t1", Decision: "allow"})
	if len(allowed) != 2 {
		t.Fatalf("expected 2 allow entries, got %d", len(allowed))
	}
	if !allowed[0].CreatedAt.After(allowed[1].CreatedAt) {
		t.Fatal("expected newest first")
	}

	other := &checklog.Entry{ID: id.NewCheckLogID(), TenantID: "t2", UserID: "u1", Action: "view", Decision: "allow", CreatedAt: base}
	if err := s.CreateCheckLog(ctx, other); err != nil {
		t.Fatal(err)
	}

	n, _ := s.PurgeCheckLogs(ctx, "t1", base.Add(90*time.Second))
	if n != 2 {
		t.Fatalf("expected 2 purged, got %d", n)
	}
	if c, _ := s.CountCheckLogs(ctx, &checklog.QueryFilter{TenantID: "t1"}); c != 1 {
		t.Fatalf("expected 1 remaining, got %d", c)
	}
	if c, _ := s.CountCheckLogs(ctx, &checklog.QueryFilter{TenantID: "t2"}); c != 1 {
		t.Fatalf("purge of t1 touched t2: %d left", c)
	}
}

func TestDeleteByTenant(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := &role.Role{ID: id.NewRoleID(), TenantID: "t1", Slug: "a"}
	p := &permission.Permission{ID: id.NewPermissionID(), TenantID: "t1", Slug: "p"}
	_ = s.CreateRole(ctx, r)
	_ = s.CreatePermission(ctx, p)
	_ = s.AttachPermission(ctx, r.ID, p.ID)
	_ = s.CreateAssignment(ctx, &assignment.Assignment{ID: id.NewAssignmentID(), TenantID: "t1", RoleID: r.ID, UserID: "u"})
	_, _ = s.UpsertMember(ctx, &membership.Member{ID: id.NewMemberID(), TenantID: "t1", Scope: scope.Team("x"), UserID: "u"})

	_ = s.DeleteRolesByTenant(ctx, "t1")
	_ = s.DeletePermissionsByTenant(ctx, "t1")
	_ = s.DeleteAssignmentsByTenant(ctx, "t1")
	_ = s.DeleteMembersByTenant(ctx, "t1")

	if n, _ := s.CountRoles(ctx, &role.ListFilter{TenantID: "t1"}); n != 0 {
		t.Fatalf("roles left: %d", n)
	}
	if n, _ := s.CountPermissions(ctx, &permission.ListFilter{TenantID: "t1"}); n != 0 {
		t.Fatalf("permissions left: %d", n)
	}
	if n, _ := s.CountAssignments(ctx, &assignment.ListFilter{TenantID: "t1"}); n != 0 {
		t.Fatalf("assignments left: %d", n)
	}
	if n, _ := s.CountMembers(ctx, "t1", scope.Team("x")); n != 0 {
		t.Fatalf("members left: %d", n)
	}
}
