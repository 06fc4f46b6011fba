package catalog_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/yaseralshikh/taskguard/catalog"
)

func TestDefault(t *testing.T) {
	c := catalog.Default()

	if len(c.Permissions) != 33 {
		t.Fatalf("expected 33 permissions, got %d", len(c.Permissions))
	}
	if len(c.Roles) != 7 {
		t.Fatalf("expected 7 roles, got %d", len(c.Roles))
	}

	want := []string{"teams", "projects", "tasks", "comments", "attachments", "time", "reports", "users"}
	if got := c.Groups(); !slices.Equal(got, want) {
		t.Errorf("groups = %v, want %v", got, want)
	}

	for _, slug := range []string{catalog.RoleSuperAdmin, catalog.RoleTeamOwner} {
		r, ok := c.Role(slug)
		if !ok || !r.System {
			t.Errorf("expected %s to be a system role", slug)
		}
	}
	if r, _ := c.Role(catalog.RoleViewer); r.System {
		t.Error("viewer should not be a system role")
	}
}

func TestExpand(t *testing.T) {
	c := catalog.Default()

	admin, _ := c.Role(catalog.RoleSuperAdmin)
	if got := c.Expand(admin); len(got) != len(c.Permissions) {
		t.Errorf("super-admin expands to %d slugs, want %d", len(got), len(c.Permissions))
	}

	viewer, _ := c.Role(catalog.RoleViewer)
	got := c.Expand(viewer)
	if slices.Contains(got, catalog.EditTasks) {
		t.Error("viewer must not hold edit-tasks")
	}
	if !slices.Contains(got, catalog.ViewReports) {
		t.Error("viewer should hold view-reports")
	}

	pm, _ := c.Role(catalog.RoleProjectManager)
	if slices.Contains(c.Expand(pm), catalog.LogTime) {
		t.Error("project-manager does not log time in the default catalog")
	}
}

func TestLoadRejectsUnknownPermission(t *testing.T) {
	src := `
permissions:
  - {slug: a, name: A, group: g}
roles:
  - slug: r
    name: R
    permissions: [a, b]
`
	_, err := catalog.Load(strings.NewReader(src))
	if err == nil || !strings.Contains(err.Error(), `unknown permission "b"`) {
		t.Fatalf("expected unknown permission error, got %v", err)
	}
}

func TestLoadRejectsDuplicates(t *testing.T) {
	src := `
permissions:
  - {slug: a, name: A, group: g}
  - {slug: a, name: A again, group: g}
roles: []
`
	if _, err := catalog.Load(strings.NewReader(src)); err == nil {
		t.Fatal("expected duplicate permission error")
	}
}
