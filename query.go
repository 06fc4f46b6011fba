package taskguard

import (
	"context"
	"fmt"
	"time"

	"github.com/yaseralshikh/taskguard/assignment"
	"github.com/yaseralshikh/taskguard/checklog"
	"github.com/yaseralshikh/taskguard/id"
	"github.com/yaseralshikh/taskguard/permission"
	"github.com/yaseralshikh/taskguard/role"
	"github.com/yaseralshikh/taskguard/store"
)

// ListRoles returns one page of the tenant's roles and the total count.
// The tenant in ctx overrides filter.TenantID.
func (e *Engine) ListRoles(ctx context.Context, filter role.ListFilter) ([]*role.Role, int64, error) {
	filter.TenantID = tenantFromContext(ctx).tenantID
	roles, err := e.store.ListRoles(ctx, &filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list roles: %w", err)
	}
	total, err := e.store.CountRoles(ctx, &filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count roles: %w", err)
	}
	return roles, total, nil
}

// ListPermissions returns one page of the tenant's permission catalog.
func (e *Engine) ListPermissions(ctx context.Context, filter permission.ListFilter) ([]*permission.Permission, int64, error) {
	filter.TenantID = tenantFromContext(ctx).tenantID
	perms, err := e.store.ListPermissions(ctx, &filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list permissions: %w", err)
	}
	total, err := e.store.CountPermissions(ctx, &filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count permissions: %w", err)
	}
	return perms, total, nil
}

// ListAssignments returns one page of the tenant's role assignments.
func (e *Engine) ListAssignments(ctx context.Context, filter assignment.ListFilter) ([]*assignment.Assignment, int64, error) {
	filter.TenantID = tenantFromContext(ctx).tenantID
	rows, err := e.store.ListAssignments(ctx, &filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list assignments: %w", err)
	}
	total, err := e.store.CountAssignments(ctx, &filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count assignments: %w", err)
	}
	return rows, total, nil
}

// Decisions returns recorded checks, newest first.
func (e *Engine) Decisions(ctx context.Context, filter checklog.QueryFilter) ([]*checklog.Entry, int64, error) {
	filter.TenantID = tenantFromContext(ctx).tenantID
	entries, err := e.store.ListCheckLogs(ctx, &filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list decisions: %w", err)
	}
	total, err := e.store.CountCheckLogs(ctx, &filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count decisions: %w", err)
	}
	return entries, total, nil
}

// Decision returns one recorded check of the tenant.
func (e *Engine) Decision(ctx context.Context, logID id.CheckLogID) (*checklog.Entry, error) {
	entry, err := e.store.GetCheckLog(ctx, logID)
	if err != nil {
		return nil, err
	}
	if entry.TenantID != tenantFromContext(ctx).tenantID {
		return nil, fmt.Errorf("check log %s: %w", logID, store.ErrNotFound)
	}
	return entry, nil
}

// PurgeDecisions deletes the tenant's recorded checks older than before
// and returns how many were removed.
func (e *Engine) PurgeDecisions(ctx context.Context, before time.Time) (int64, error) {
	n, err := e.store.PurgeCheckLogs(ctx, tenantFromContext(ctx).tenantID, before)
	if err != nil {
		return 0, fmt.Errorf("purge decisions: %w", err)
	}
	return n, nil
}
