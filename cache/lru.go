package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/yaseralshikh/taskguard"
)

var _ taskguard.Cache = (*LRU)(nil)

// LRU is a bounded least-recently-used cache whose entries also expire
// after a TTL.
type LRU struct {
	entries *lru.LRU[string, bool]

	mu   sync.Mutex // orders Set against invalidation
	gens generations
}

// NewLRU creates an LRU holding at most size entries for ttl each.
// A zero ttl disables expiry.
func NewLRU(size int, ttl time.Duration) *LRU {
	if size <= 0 {
		size = 10000
	}
	return &LRU{entries: lru.NewLRU[string, bool](size, nil, ttl)}
}

func (c *LRU) Get(_ context.Context, tenantID string, key taskguard.PermissionKey) (bool, bool) {
	return c.entries.Get(entryKey(tenantID, key))
}

func (c *LRU) Stamp(_ context.Context, tenantID string, key taskguard.PermissionKey) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens.stamp(tenantID, key.UserID)
}

func (c *LRU) Set(_ context.Context, tenantID string, key taskguard.PermissionKey, stamp string, allowed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens.stamp(tenantID, key.UserID) != stamp {
		return
	}
	c.entries.Add(entryKey(tenantID, key), allowed)
}

func (c *LRU) InvalidateTenant(_ context.Context, tenantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens.bumpTenant(tenantID)
	c.removePrefix(tenantID + "|")
}

func (c *LRU) InvalidateUser(_ context.Context, tenantID, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens.bumpUser(tenantID, userID)
	c.removePrefix(tenantID + "|" + userID + "|")
}

// Len returns the number of live entries.
func (c *LRU) Len() int { return c.entries.Len() }

func (c *LRU) removePrefix(prefix string) {
	for _, k := range c.entries.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.entries.Remove(k)
		}
	}
}
