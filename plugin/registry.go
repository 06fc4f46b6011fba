package plugin

import (
	"context"
	"log/slog"

	"github.com/yaseralshikh/taskguard/assignment"
	"github.com/yaseralshikh/taskguard/membership"
	"github.com/yaseralshikh/taskguard/permission"
	"github.com/yaseralshikh/taskguard/role"
)

// entry pairs a hook with the plugin name for logging.
type entry[H any] struct {
	name string
	hook H
}

// Registry holds registered plugins and dispatches lifecycle events.
// Plugins are type-cached at registration time so emit calls iterate
// only over plugins implementing the relevant hook.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger

	beforeCheck       []entry[BeforeCheck]
	afterCheck        []entry[AfterCheck]
	roleCreated       []entry[RoleCreated]
	roleUpdated       []entry[RoleUpdated]
	roleDeleted       []entry[RoleDeleted]
	permissionGranted []entry[PermissionGranted]
	permissionRevoked []entry[PermissionRevoked]
	roleAssigned      []entry[RoleAssigned]
	roleRemoved       []entry[RoleRemoved]
	anomaly           []entry[AssignmentAnomaly]
	memberAdded       []entry[MemberAdded]
	memberRemoved     []entry[MemberRemoved]
	memberRoleUpdated []entry[MemberRoleUpdated]
	shutdown          []entry[Shutdown]
}

// NewRegistry creates a registry that logs hook failures to logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a plugin and caches the hooks it implements.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	name := p.Name()

	addHook(&r.beforeCheck, name, p)
	addHook(&r.afterCheck, name, p)
	addHook(&r.roleCreated, name, p)
	addHook(&r.roleUpdated, name, p)
	addHook(&r.roleDeleted, name, p)
	addHook(&r.permissionGranted, name, p)
	addHook(&r.permissionRevoked, name, p)
	addHook(&r.roleAssigned, name, p)
	addHook(&r.roleRemoved, name, p)
	addHook(&r.anomaly, name, p)
	addHook(&r.memberAdded, name, p)
	addHook(&r.memberRemoved, name, p)
	addHook(&r.memberRoleUpdated, name, p)
	addHook(&r.shutdown, name, p)
}

func addHook[H any](list *[]entry[H], name string, p Plugin) {
	if h, ok := p.(H); ok {
		*list = append(*list, entry[H]{name: name, hook: h})
	}
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// emit calls fn for every entry and logs the failures.
func emit[H any](r *Registry, hook string, list []entry[H], fn func(H) error) {
	for _, e := range list {
		if err := fn(e.hook); err != nil {
			r.logHookError(hook, e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Check events
// ──────────────────────────────────────────────────

// EmitBeforeCheck notifies all plugins that implement BeforeCheck.
func (r *Registry) EmitBeforeCheck(ctx context.Context, req any) {
	emit(r, "OnBeforeCheck", r.beforeCheck, func(h BeforeCheck) error {
		return h.OnBeforeCheck(ctx, req)
	})
}

// EmitAfterCheck notifies all plugins that implement AfterCheck.
func (r *Registry) EmitAfterCheck(ctx context.Context, req, result any) {
	emit(r, "OnAfterCheck", r.afterCheck, func(h AfterCheck) error {
		return h.OnAfterCheck(ctx, req, result)
	})
}

// ──────────────────────────────────────────────────
// Role events
// ──────────────────────────────────────────────────

// EmitRoleCreated notifies all plugins that implement RoleCreated.
func (r *Registry) EmitRoleCreated(ctx context.Context, rl *role.Role) {
	emit(r, "OnRoleCreated", r.roleCreated, func(h RoleCreated) error {
		return h.OnRoleCreated(ctx, rl)
	})
}

// EmitRoleUpdated notifies all plugins that implement RoleUpdated.
func (r *Registry) EmitRoleUpdated(ctx context.Context, rl *role.Role) {
	emit(r, "OnRoleUpdated", r.roleUpdated, func(h RoleUpdated) error {
		return h.OnRoleUpdated(ctx, rl)
	})
}

// EmitRoleDeleted notifies all plugins that implement RoleDeleted.
func (r *Registry) EmitRoleDeleted(ctx context.Context, rl *role.Role) {
	emit(r, "OnRoleDeleted", r.roleDeleted, func(h RoleDeleted) error {
		return h.OnRoleDeleted(ctx, rl)
	})
}

// EmitPermissionGranted notifies all plugins that implement PermissionGranted.
func (r *Registry) EmitPermissionGranted(ctx context.Context, rl *role.Role, p *permission.Permission) {
	emit(r, "OnPermissionGranted", r.permissionGranted, func(h PermissionGranted) error {
		return h.OnPermissionGranted(ctx, rl, p)
	})
}

// EmitPermissionRevoked notifies all plugins that implement PermissionRevoked.
func (r *Registry) EmitPermissionRevoked(ctx context.Context, rl *role.Role, p *permission.Permission) {
	emit(r, "OnPermissionRevoked", r.permissionRevoked, func(h PermissionRevoked) error {
		return h.OnPermissionRevoked(ctx, rl, p)
	})
}

// ──────────────────────────────────────────────────
// Assignment events
// ──────────────────────────────────────────────────

// EmitRoleAssigned notifies all plugins that implement RoleAssigned.
func (r *Registry) EmitRoleAssigned(ctx context.Context, a *assignment.Assignment) {
	emit(r, "OnRoleAssigned", r.roleAssigned, func(h RoleAssigned) error {
		return h.OnRoleAssigned(ctx, a)
	})
}

// EmitRoleRemoved notifies all plugins that implement RoleRemoved.
func (r *Registry) EmitRoleRemoved(ctx context.Context, a *assignment.Assignment) {
	emit(r, "OnRoleRemoved", r.roleRemoved, func(h RoleRemoved) error {
		return h.OnRoleRemoved(ctx, a)
	})
}

// EmitAssignmentAnomaly notifies all plugins that implement AssignmentAnomaly.
func (r *Registry) EmitAssignmentAnomaly(ctx context.Context, a *assignment.Assignment) {
	emit(r, "OnAssignmentAnomaly", r.anomaly, func(h AssignmentAnomaly) error {
		return h.OnAssignmentAnomaly(ctx, a)
	})
}

// ──────────────────────────────────────────────────
// Membership events
// ──────────────────────────────────────────────────

// EmitMemberAdded notifies all plugins that implement MemberAdded.
func (r *Registry) EmitMemberAdded(ctx context.Context, m *membership.Member) {
	emit(r, "OnMemberAdded", r.memberAdded, func(h MemberAdded) error {
		return h.OnMemberAdded(ctx, m)
	})
}

// EmitMemberRemoved notifies all plugins that implement MemberRemoved.
func (r *Registry) EmitMemberRemoved(ctx context.Context, m *membership.Member) {
	emit(r, "OnMemberRemoved", r.memberRemoved, func(h MemberRemoved) error {
		return h.OnMemberRemoved(ctx, m)
	})
}

// EmitMemberRoleUpdated notifies all plugins that implement MemberRoleUpdated.
func (r *Registry) EmitMemberRoleUpdated(ctx context.Context, m *membership.Member) {
	emit(r, "OnMemberRoleUpdated", r.memberRoleUpdated, func(h MemberRoleUpdated) error {
		return h.OnMemberRoleUpdated(ctx, m)
	})
}

// EmitShutdown notifies all plugins that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	emit(r, "OnShutdown", r.shutdown, func(h Shutdown) error {
		return h.OnShutdown(ctx)
	})
}

// logHookError logs a warning when a hook fails. Hook errors never reach
// the caller.
func (r *Registry) logHookError(hook, pluginName string, err error) {
	r.logger.Warn("plugin hook error",
		slog.String("hook", hook),
		slog.String("plugin", pluginName),
		slog.String("error", err.Error()),
	)
}
