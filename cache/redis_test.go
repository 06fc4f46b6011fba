package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/yaseralshikh/taskguard/scope"
)

func newTestRedis(t *testing.T, opts ...RedisOption) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, opts...), mr
}

func TestRedisHitMiss(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedis(t)
	k := key("u1", "view-tasks", scope.Project("p1"))

	if _, ok := c.Get(ctx, "t1", k); ok {
		t.Fatal("expected cache miss")
	}

	put(ctx, c, "t1", k, true)
	if allowed, ok := c.Get(ctx, "t1", k); !ok || !allowed {
		t.Fatalf("expected cached allow, got allowed=%v ok=%v", allowed, ok)
	}

	deny := key("u1", "edit-tasks", scope.Project("p1"))
	put(ctx, c, "t1", deny, false)
	if allowed, ok := c.Get(ctx, "t1", deny); !ok || allowed {
		t.Fatalf("expected cached deny, got allowed=%v ok=%v", allowed, ok)
	}
}

func TestRedisTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t, WithRedisTTL(time.Minute))
	k := key("u1", "view-tasks", scope.Global())

	put(ctx, c, "t1", k, true)
	mr.FastForward(2 * time.Minute)

	if _, ok := c.Get(ctx, "t1", k); ok {
		t.Fatal("expected miss after TTL")
	}
}

func TestRedisInvalidation(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedis(t)
	u1 := key("u1", "view-tasks", scope.Global())
	u2 := key("u2", "view-tasks", scope.Global())

	put(ctx, c, "t1", u1, true)
	put(ctx, c, "t1", u2, true)
	put(ctx, c, "t2", u1, true)

	c.InvalidateUser(ctx, "t1", "u1")
	if _, ok := c.Get(ctx, "t1", u1); ok {
		t.Fatal("u1 should miss after user invalidation")
	}
	if _, ok := c.Get(ctx, "t1", u2); !ok {
		t.Fatal("u2 is unaffected by u1's invalidation")
	}

	c.InvalidateTenant(ctx, "t1")
	if _, ok := c.Get(ctx, "t1", u2); ok {
		t.Fatal("tenant invalidation drops every user")
	}
	if _, ok := c.Get(ctx, "t2", u1); !ok {
		t.Fatal("other tenants are unaffected")
	}
}

func TestRedisStaleStamp(t *testing.T) {
	c, _ := newTestRedis(t)
	assertStaleStampDropped(t, c)
}

func TestRedisKeyPrefix(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t, WithKeyPrefix("app"))
	put(ctx, c, "t1", key("u1", "view-tasks", scope.Team("7")), true)

	if !mr.Exists("app:t1:0:u1:0:view-tasks:team:7") {
		t.Fatalf("expected prefixed key, have %v", mr.Keys())
	}
}

func TestRedisOutageIsAMiss(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t, WithRedisLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	k := key("u1", "view-tasks", scope.Global())
	put(ctx, c, "t1", k, true)

	mr.Close()

	if _, ok := c.Get(ctx, "t1", k); ok {
		t.Fatal("expected miss while Redis is down")
	}
	if stamp := c.Stamp(ctx, "t1", k); stamp != "" {
		t.Fatalf("expected empty stamp while Redis is down, got %q", stamp)
	}
	put(ctx, c, "t1", k, true)
	c.InvalidateTenant(ctx, "t1")
}
