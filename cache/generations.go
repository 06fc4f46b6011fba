package cache

import (
	"strconv"
	"strings"
)

// generations counts invalidations per tenant and per tenant user. A
// stamp taken before an invalidation no longer matches after it. Callers
// hold the owning cache's lock.
type generations struct {
	tenants map[string]uint64
	users   map[string]uint64
}

func (g *generations) stamp(tenantID, userID string) string {
	return strconv.FormatUint(g.tenants[tenantID], 10) + ":" +
		strconv.FormatUint(g.users[tenantID+"|"+userID], 10)
}

func (g *generations) bumpTenant(tenantID string) {
	if g.tenants == nil {
		g.tenants = make(map[string]uint64)
	}
	g.tenants[tenantID]++
	// The tenant generation alone now invalidates older stamps.
	prefix := tenantID + "|"
	for k := range g.users {
		if strings.HasPrefix(k, prefix) {
			delete(g.users, k)
		}
	}
}

func (g *generations) bumpUser(tenantID, userID string) {
	if g.users == nil {
		g.users = make(map[string]uint64)
	}
	g.users[tenantID+"|"+userID]++
}
