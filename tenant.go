package taskguard

import (
	"context"

	"github.com/xraph/forge"
)

type tenant struct {
	appID    string
	tenantID string
}

// tenantFromContext prefers forge.Scope and falls back to WithTenant.
func tenantFromContext(ctx context.Context) tenant {
	if s, ok := forge.ScopeFrom(ctx); ok {
		return tenant{appID: s.AppID(), tenantID: s.OrgID()}
	}
	return tenant{
		appID:    stringValue(ctx, ctxKeyAppID),
		tenantID: stringValue(ctx, ctxKeyTenantID),
	}
}
