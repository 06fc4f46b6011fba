package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/yaseralshikh/taskguard"
	"github.com/yaseralshikh/taskguard/catalog"
	"github.com/yaseralshikh/taskguard/scope"
	"github.com/yaseralshikh/taskguard/store/memory"
)

func newEngine(t *testing.T) (*taskguard.Engine, context.Context) {
	t.Helper()
	eng, err := taskguard.NewEngine(taskguard.WithStore(memory.New()))
	if err != nil {
		t.Fatal(err)
	}
	ctx := taskguard.WithTenant(context.Background(), "app1", "t1")
	if err := eng.Seed(ctx, nil); err != nil {
		t.Fatal(err)
	}
	return eng, ctx
}

func TestCheckAnyAndAll(t *testing.T) {
	eng, ctx := newEngine(t)
	sc := scope.Project("p1")
	if err := eng.AssignRole(ctx, "u1", catalog.RoleProjectMember, sc); err != nil {
		t.Fatal(err)
	}
	user := taskguard.User{ID: "u1", IsActive: true}

	tests := []struct {
		name  string
		slugs []string
		all   bool
		sc    scope.Scope
		want  bool
	}{
		{"any with one held", []string{catalog.DeleteProjects, catalog.ViewTasks}, false, sc, true},
		{"any with none held", []string{catalog.DeleteProjects, catalog.ManageRoles}, false, sc, false},
		{"all held", []string{catalog.ViewTasks, catalog.CreateTasks}, true, sc, true},
		{"all with one missing", []string{catalog.ViewTasks, catalog.DeleteProjects}, true, sc, false},
		{"other scope", []string{catalog.ViewTasks}, false, scope.Project("p2"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := check(ctx, eng, user, tt.sc, tt.slugs, tt.all)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("check(%v, all=%v) = %v, want %v", tt.slugs, tt.all, got, tt.want)
			}
		})
	}
}

func TestCheckUnknownSlugIsAnError(t *testing.T) {
	eng, ctx := newEngine(t)
	user := taskguard.User{ID: "u1", IsActive: true}

	_, err := check(ctx, eng, user, scope.Global(), []string{"launch-rockets"}, false)
	if !errors.Is(err, taskguard.ErrPermissionNotFound) {
		t.Fatalf("expected ErrPermissionNotFound, got %v", err)
	}
}

func TestCheckInactiveUser(t *testing.T) {
	eng, ctx := newEngine(t)
	if err := eng.AssignRole(ctx, "u1", catalog.RoleSuperAdmin, scope.Global()); err != nil {
		t.Fatal(err)
	}

	ok, err := check(ctx, eng, taskguard.User{ID: "u1"}, scope.Global(), []string{catalog.ViewTasks}, false)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("inactive user should be denied")
	}
}

func TestNormalize(t *testing.T) {
	got := normalize([]string{" View-Tasks ", "view-tasks", "", "edit-tasks"})
	if len(got) != 2 || got[0] != "view-tasks" || got[1] != "edit-tasks" {
		t.Fatalf("unexpected %v", got)
	}
}
