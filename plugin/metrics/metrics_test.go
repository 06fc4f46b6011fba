package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yaseralshikh/taskguard"
	"github.com/yaseralshikh/taskguard/catalog"
	"github.com/yaseralshikh/taskguard/membership"
	"github.com/yaseralshikh/taskguard/resource"
	"github.com/yaseralshikh/taskguard/scope"
	"github.com/yaseralshikh/taskguard/store/memory"
)

func TestMetricsFollowEngineActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	eng, err := taskguard.NewEngine(taskguard.WithStore(memory.New()), taskguard.WithPlugin(m))
	if err != nil {
		t.Fatal(err)
	}
	ctx := taskguard.WithTenant(context.Background(), "app1", "t1")
	if err := eng.Seed(ctx, nil); err != nil {
		t.Fatal(err)
	}

	task := &resource.Task{ID: "x1", CreatedBy: "c"}
	user := func(id string) taskguard.User { return taskguard.User{ID: id, IsActive: true} }

	if _, err := eng.Can(ctx, user("c"), taskguard.ActionUpdate, task); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Can(ctx, user("d"), taskguard.ActionUpdate, task); err != nil {
		t.Fatal(err)
	}
	if err := eng.AssignRole(ctx, "d", catalog.RoleTeamMember, scope.Team("T")); err != nil {
		t.Fatal(err)
	}
	if err := eng.GrantPermission(ctx, catalog.RoleViewer, catalog.ExportData); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.AddMember(ctx, eng.Team("T", "o", nil), "d", membership.TagMember); err != nil {
		t.Fatal(err)
	}

	if got := testutil.ToFloat64(m.checks.WithLabelValues("allow", "shortcut")); got != 1 {
		t.Errorf("allow/shortcut = %v", got)
	}
	if got := testutil.ToFloat64(m.checks.WithLabelValues("deny_no_permission", "none")); got != 1 {
		t.Errorf("deny_no_permission/none = %v", got)
	}
	if n, err := testutil.GatherAndCount(reg, "taskguard_role_assignments_total"); err != nil || n != 1 {
		t.Errorf("expected one assignment series, got %d", n)
	}
	if n, err := testutil.GatherAndCount(reg, "taskguard_permission_grants_total"); err != nil || n != 1 {
		t.Errorf("expected one grant series, got %d", n)
	}
	if n, err := testutil.GatherAndCount(reg, "taskguard_membership_changes_total"); err != nil || n != 1 {
		t.Errorf("expected one membership series, got %d", n)
	}
	if n, err := testutil.GatherAndCount(reg, "taskguard_check_duration_seconds"); err != nil || n != 1 {
		t.Errorf("expected the duration histogram, got %d", n)
	}
}
