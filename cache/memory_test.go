package cache

import (
	"context"
	"testing"
	"time"

	"github.com/yaseralshikh/taskguard"
	"github.com/yaseralshikh/taskguard/scope"
)

func key(user, perm string, sc scope.Scope) taskguard.PermissionKey {
	return taskguard.PermissionKey{UserID: user, Permission: perm, Scope: sc}
}

// put stores a result under the current stamp.
func put(ctx context.Context, c taskguard.Cache, tenantID string, k taskguard.PermissionKey, allowed bool) {
	c.Set(ctx, tenantID, k, c.Stamp(ctx, tenantID, k), allowed)
}

// assertStaleStampDropped checks that a result computed before an
// invalidation is not stored after it.
func assertStaleStampDropped(t *testing.T, c taskguard.Cache) {
	t.Helper()
	ctx := context.Background()
	k := key("u1", "view-tasks", scope.Global())
	other := key("u2", "view-tasks", scope.Global())

	stamp := c.Stamp(ctx, "t1", k)
	otherStamp := c.Stamp(ctx, "t1", other)
	c.InvalidateUser(ctx, "t1", "u1")
	c.Set(ctx, "t1", k, stamp, true)
	if _, ok := c.Get(ctx, "t1", k); ok {
		t.Fatal("result computed before a user invalidation was cached")
	}
	c.Set(ctx, "t1", other, otherStamp, true)
	if _, ok := c.Get(ctx, "t1", other); !ok {
		t.Fatal("another user's stamp must survive a user invalidation")
	}

	stamp = c.Stamp(ctx, "t1", k)
	c.InvalidateTenant(ctx, "t1")
	c.Set(ctx, "t1", k, stamp, true)
	if _, ok := c.Get(ctx, "t1", k); ok {
		t.Fatal("result computed before a tenant invalidation was cached")
	}

	put(ctx, c, "t1", k, false)
	if allowed, ok := c.Get(ctx, "t1", k); !ok || allowed {
		t.Fatalf("fresh stamp should store: allowed=%v ok=%v", allowed, ok)
	}
}

func TestMemoryCacheHitMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(time.Minute))
	k := key("u1", "view-tasks", scope.Project("p1"))

	if _, ok := c.Get(ctx, "t1", k); ok {
		t.Fatal("expected cache miss")
	}

	put(ctx, c, "t1", k, true)
	allowed, ok := c.Get(ctx, "t1", k)
	if !ok || !allowed {
		t.Fatalf("expected cached allow, got allowed=%v ok=%v", allowed, ok)
	}

	// Negative results are cached too.
	deny := key("u1", "view-tasks", scope.Project("p2"))
	put(ctx, c, "t1", deny, false)
	if allowed, ok := c.Get(ctx, "t1", deny); !ok || allowed {
		t.Fatalf("expected cached deny, got allowed=%v ok=%v", allowed, ok)
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(time.Minute))
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	k := key("u1", "view-tasks", scope.Global())
	put(ctx, c, "t1", k, true)

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get(ctx, "t1", k); ok {
		t.Fatal("expected cache miss after TTL expiry")
	}
	if c.Len() != 0 {
		t.Fatal("expired entry should be dropped on read")
	}
}

func TestMemoryCacheInvalidateTenant(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	k1 := key("u1", "view-tasks", scope.Global())
	k2 := key("u2", "edit-tasks", scope.Team("7"))

	put(ctx, c, "t1", k1, true)
	put(ctx, c, "t1", k2, false)
	put(ctx, c, "t2", k1, true)

	c.InvalidateTenant(ctx, "t1")

	if _, ok := c.Get(ctx, "t1", k1); ok {
		t.Fatal("t1/u1 should be invalidated")
	}
	if _, ok := c.Get(ctx, "t1", k2); ok {
		t.Fatal("t1/u2 should be invalidated")
	}
	if _, ok := c.Get(ctx, "t2", k1); !ok {
		t.Fatal("t2 should still be cached")
	}
}

func TestMemoryCacheInvalidateUser(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	k1 := key("u1", "view-tasks", scope.Global())
	k2 := key("u10", "view-tasks", scope.Global())

	put(ctx, c, "t1", k1, true)
	put(ctx, c, "t1", k2, true)

	c.InvalidateUser(ctx, "t1", "u1")

	if _, ok := c.Get(ctx, "t1", k1); ok {
		t.Fatal("u1 should be invalidated")
	}
	if _, ok := c.Get(ctx, "t1", k2); !ok {
		t.Fatal("u10 shares a prefix with u1 but must survive")
	}
}

func TestMemoryCacheStaleStamp(t *testing.T) {
	assertStaleStampDropped(t, NewMemory())
}

func TestMemoryCacheMaxSize(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithMaxSize(2))

	for _, p := range []string{"p1", "p2", "p3", "p4", "p5"} {
		put(ctx, c, "t1", key("u1", "view-tasks", scope.Project(p)), true)
	}
	if c.Len() > 2 {
		t.Fatalf("expected max 2 entries, got %d", c.Len())
	}
}
