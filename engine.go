package taskguard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yaseralshikh/taskguard/assignment"
	"github.com/yaseralshikh/taskguard/checklog"
	"github.com/yaseralshikh/taskguard/id"
	"github.com/yaseralshikh/taskguard/plugin"
	"github.com/yaseralshikh/taskguard/policy"
	"github.com/yaseralshikh/taskguard/resource"
	"github.com/yaseralshikh/taskguard/scope"
	"github.com/yaseralshikh/taskguard/store"
)

// Engine is the authorization engine. It evaluates per-resource rules,
// resolves scoped role assignments, manages rosters and fires plugin hooks.
type Engine struct {
	store    store.Store
	cache    Cache
	plugins  *plugin.Registry
	logger   *slog.Logger
	config   Config
	policies policy.Table
}

// NewEngine creates an engine with the given options.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger:   slog.Default(),
		config:   DefaultConfig(),
		policies: policy.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		return nil, errors.New("taskguard: store is required")
	}
	return e, nil
}

// Store returns the underlying composite store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry (may be nil).
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.config }

// Start performs startup initialization.
func (e *Engine) Start(_ context.Context) error { return nil }

// Stop notifies plugins of shutdown.
func (e *Engine) Stop(ctx context.Context) error {
	if e.plugins != nil {
		e.plugins.EmitShutdown(ctx)
	}
	return nil
}

// Can reports whether user may perform action on res. A nil res turns the
// action into a global permission lookup.
func (e *Engine) Can(ctx context.Context, user User, action Action, res resource.Resource) (bool, error) {
	result, err := e.Check(ctx, &CheckRequest{User: user, Action: action, Resource: res})
	if err != nil {
		return false, err
	}
	return result.Allowed, nil
}

// Enforce returns ErrAccessDenied if the check is denied.
func (e *Engine) Enforce(ctx context.Context, req *CheckRequest) error {
	result, err := e.Check(ctx, req)
	if err != nil {
		return err
	}
	if !result.Allowed {
		return fmt.Errorf("%w: %s: %s", ErrAccessDenied, result.Decision, result.Reason)
	}
	return nil
}

// Check evaluates a request. Deny is a result, never an error; errors
// mean the catalog or the store is broken.
func (e *Engine) Check(ctx context.Context, req *CheckRequest) (*CheckResult, error) {
	start := time.Now()

	if e.plugins != nil {
		e.plugins.EmitBeforeCheck(ctx, req)
	}

	result, err := e.evaluate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("taskguard check: %w", err)
	}
	result.EvalTimeNs = time.Since(start).Nanoseconds()

	e.logger.Debug("authorization decision",
		slog.String("user", req.User.ID),
		slog.String("action", string(req.Action)),
		slog.String("decision", string(result.Decision)),
	)

	if e.config.DecisionLog {
		e.recordDecision(ctx, req, result)
	}

	if e.plugins != nil {
		e.plugins.EmitAfterCheck(ctx, req, result)
	}
	return result, nil
}

func (e *Engine) evaluate(ctx context.Context, req *CheckRequest) (*CheckResult, error) {
	if !req.User.IsActive {
		return &CheckResult{Decision: DecisionDenyInactive, Reason: "user is inactive"}, nil
	}

	if req.Resource == nil {
		slug := req.slug()
		ok, err := e.HasPermission(ctx, req.User.ID, slug, req.Scope)
		if err != nil {
			return nil, err
		}
		if !ok {
			return &CheckResult{
				Decision: DecisionDenyNoPermission,
				Reason:   "no role grants " + slug + " at " + req.Scope.String(),
			}, nil
		}
		return &CheckResult{
			Allowed:   true,
			Decision:  DecisionAllow,
			MatchedBy: []MatchInfo{{Source: "rbac", Rule: slug, Detail: req.Scope.String()}},
		}, nil
	}

	typ := req.Resource.ResourceType()
	rule, ok := e.policies.Rule(typ, req.Action)
	if !ok {
		return &CheckResult{
			Decision: DecisionDenyNoRule,
			Reason:   fmt.Sprintf("no rule for %s on %s", req.Action, typ),
		}, nil
	}

	out, err := policy.Evaluate(ctx, e, rule, req.User, req.Resource)
	if err != nil {
		return nil, err
	}
	result := &CheckResult{Allowed: out.Allowed, Decision: out.Decision, Reason: out.Reason}
	if out.Allowed {
		detail := ""
		if out.Source == "rbac" {
			detail = out.Scope.String()
		}
		result.MatchedBy = []MatchInfo{{Source: out.Source, Rule: out.Matched, Detail: detail}}
	}
	return result, nil
}

// HasPermission reports whether any role assigned to userID grants slug at
// sc. Global assignments always apply; scoped ones only when their scope
// equals sc. An unknown slug fails with ErrPermissionNotFound.
func (e *Engine) HasPermission(ctx context.Context, userID, slug string, sc scope.Scope) (bool, error) {
	t := tenantFromContext(ctx)
	key := PermissionKey{UserID: userID, Permission: slug, Scope: sc}

	var stamp string
	if e.cache != nil {
		if allowed, ok := e.cache.Get(ctx, t.tenantID, key); ok {
			return allowed, nil
		}
		stamp = e.cache.Stamp(ctx, t.tenantID, key)
	}

	perm, err := e.store.GetPermissionBySlug(ctx, t.tenantID, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, fmt.Errorf("%w: %q", ErrPermissionNotFound, slug)
		}
		return false, err
	}

	rows, err := e.store.ListApplicableAssignments(ctx, t.tenantID, userID, sc)
	if err != nil {
		return false, err
	}
	roleIDs := make([]id.RoleID, 0, len(rows))
	for _, a := range rows {
		if a.Malformed {
			e.reportAnomaly(ctx, a)
		}
		if a.Scope.Covers(sc) {
			roleIDs = append(roleIDs, a.RoleID)
		}
	}

	allowed := false
	if len(roleIDs) > 0 {
		allowed, err = e.store.RoleHasPermission(ctx, roleIDs, perm.ID)
		if err != nil {
			return false, err
		}
	}

	if e.cache != nil {
		e.cache.Set(ctx, t.tenantID, key, stamp, allowed)
	}
	return allowed, nil
}

// reportAnomaly logs a half-scoped assignment. Stores already read it back
// as Global.
func (e *Engine) reportAnomaly(ctx context.Context, a *assignment.Assignment) {
	e.logger.Warn("half-scoped role assignment treated as global",
		slog.String("assignment_id", a.ID.String()),
		slog.String("user", a.UserID),
		slog.String("role_id", a.RoleID.String()),
		slog.String("error", ErrInvariantViolation.Error()),
	)
	if e.plugins != nil {
		e.plugins.EmitAssignmentAnomaly(ctx, a)
	}
}

func (e *Engine) recordDecision(ctx context.Context, req *CheckRequest, result *CheckResult) {
	t := tenantFromContext(ctx)
	entry := &checklog.Entry{
		ID:         id.NewCheckLogID(),
		TenantID:   t.tenantID,
		AppID:      t.appID,
		UserID:     req.User.ID,
		Action:     string(req.Action),
		Permission: req.Permission,
		Decision:   string(result.Decision),
		Reason:     result.Reason,
		EvalTimeNs: result.EvalTimeNs,
		CreatedAt:  time.Now().UTC(),
	}
	if req.Resource != nil {
		entry.ResourceType = string(req.Resource.ResourceType())
		entry.ResourceID = req.Resource.ResourceID()
	} else {
		entry.Permission = req.slug()
	}
	if err := e.store.CreateCheckLog(ctx, entry); err != nil {
		e.logger.Warn("failed to record decision",
			slog.String("user", req.User.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (e *Engine) invalidateTenant(ctx context.Context, tenantID string) {
	if e.cache != nil {
		e.cache.InvalidateTenant(ctx, tenantID)
	}
}

func (e *Engine) invalidateUser(ctx context.Context, tenantID, userID string) {
	if e.cache != nil {
		e.cache.InvalidateUser(ctx, tenantID, userID)
	}
}

var _ policy.Checker = (*Engine)(nil)
