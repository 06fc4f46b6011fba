// Package metrics is a plugin that exports authorization activity as
// Prometheus metrics.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yaseralshikh/taskguard"
	"github.com/yaseralshikh/taskguard/assignment"
	"github.com/yaseralshikh/taskguard/membership"
	"github.com/yaseralshikh/taskguard/permission"
	"github.com/yaseralshikh/taskguard/plugin"
	"github.com/yaseralshikh/taskguard/role"
)

// Plugin counts checks and mutations.
type Plugin struct {
	checks        *prometheus.CounterVec
	checkDuration prometheus.Histogram
	roleChanges   *prometheus.CounterVec
	grants        *prometheus.CounterVec
	assignments   *prometheus.CounterVec
	members       *prometheus.CounterVec
	anomalies     prometheus.Counter
}

// New creates the plugin and registers its collectors on reg.
func New(reg prometheus.Registerer) *Plugin {
	p := &Plugin{
		checks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskguard_checks_total",
				Help: "Authorization checks by decision and matching source",
			},
			[]string{"decision", "source"},
		),
		checkDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "taskguard_check_duration_seconds",
				Help:    "Authorization check evaluation time in seconds",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
		),
		roleChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskguard_role_changes_total",
				Help: "Role creations, updates and deletions",
			},
			[]string{"op"},
		),
		grants: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskguard_permission_grants_total",
				Help: "Permission grants and revocations on roles",
			},
			[]string{"op", "role"},
		),
		assignments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskguard_role_assignments_total",
				Help: "Role assignments added and removed, by scope kind",
			},
			[]string{"op", "scope"},
		),
		members: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskguard_membership_changes_total",
				Help: "Roster changes by operation and container kind",
			},
			[]string{"op", "scope"},
		),
		anomalies: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "taskguard_assignment_anomalies_total",
				Help: "Half-scoped role assignments read from storage",
			},
		),
	}
	reg.MustRegister(p.checks, p.checkDuration, p.roleChanges, p.grants, p.assignments, p.members, p.anomalies)
	return p
}

func (p *Plugin) Name() string { return "metrics" }

func (p *Plugin) OnAfterCheck(_ context.Context, _, result any) error {
	res, ok := result.(*taskguard.CheckResult)
	if !ok {
		return nil
	}
	source := "none"
	if len(res.MatchedBy) > 0 {
		source = res.MatchedBy[0].Source
	}
	p.checks.WithLabelValues(string(res.Decision), source).Inc()
	p.checkDuration.Observe(time.Duration(res.EvalTimeNs).Seconds())
	return nil
}

func (p *Plugin) OnRoleCreated(context.Context, *role.Role) error {
	p.roleChanges.WithLabelValues("create").Inc()
	return nil
}

func (p *Plugin) OnRoleUpdated(context.Context, *role.Role) error {
	p.roleChanges.WithLabelValues("update").Inc()
	return nil
}

func (p *Plugin) OnRoleDeleted(context.Context, *role.Role) error {
	p.roleChanges.WithLabelValues("delete").Inc()
	return nil
}

func (p *Plugin) OnPermissionGranted(_ context.Context, r *role.Role, _ *permission.Permission) error {
	p.grants.WithLabelValues("grant", r.Slug).Inc()
	return nil
}

func (p *Plugin) OnPermissionRevoked(_ context.Context, r *role.Role, _ *permission.Permission) error {
	p.grants.WithLabelValues("revoke", r.Slug).Inc()
	return nil
}

func (p *Plugin) OnRoleAssigned(_ context.Context, a *assignment.Assignment) error {
	p.assignments.WithLabelValues("assign", scopeLabel(a.Scope.Kind())).Inc()
	return nil
}

func (p *Plugin) OnRoleRemoved(_ context.Context, a *assignment.Assignment) error {
	p.assignments.WithLabelValues("remove", scopeLabel(a.Scope.Kind())).Inc()
	return nil
}

func (p *Plugin) OnAssignmentAnomaly(context.Context, *assignment.Assignment) error {
	p.anomalies.Inc()
	return nil
}

func (p *Plugin) OnMemberAdded(_ context.Context, m *membership.Member) error {
	p.members.WithLabelValues("add", scopeLabel(m.Scope.Kind())).Inc()
	return nil
}

func (p *Plugin) OnMemberRemoved(_ context.Context, m *membership.Member) error {
	p.members.WithLabelValues("remove", scopeLabel(m.Scope.Kind())).Inc()
	return nil
}

func (p *Plugin) OnMemberRoleUpdated(_ context.Context, m *membership.Member) error {
	p.members.WithLabelValues("update", scopeLabel(m.Scope.Kind())).Inc()
	return nil
}

func scopeLabel[K ~string](k K) string {
	if k == "" {
		return "global"
	}
	return string(k)
}

var (
	_ plugin.AfterCheck        = (*Plugin)(nil)
	_ plugin.RoleCreated       = (*Plugin)(nil)
	_ plugin.RoleUpdated       = (*Plugin)(nil)
	_ plugin.RoleDeleted       = (*Plugin)(nil)
	_ plugin.PermissionGranted = (*Plugin)(nil)
	_ plugin.PermissionRevoked = (*Plugin)(nil)
	_ plugin.RoleAssigned      = (*Plugin)(nil)
	_ plugin.RoleRemoved       = (*Plugin)(nil)
	_ plugin.AssignmentAnomaly = (*Plugin)(nil)
	_ plugin.MemberAdded       = (*Plugin)(nil)
	_ plugin.MemberRemoved     = (*Plugin)(nil)
	_ plugin.MemberRoleUpdated = (*Plugin)(nil)
)
