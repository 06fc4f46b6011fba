package extension

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/yaseralshikh/taskguard"
	"github.com/yaseralshikh/taskguard/cache"
	"github.com/yaseralshikh/taskguard/scope"
)

func TestBuildCacheDisabledWithoutTTL(t *testing.T) {
	e := New()
	if c := e.buildCache(nil); c != nil {
		t.Fatalf("expected no cache without a TTL, got %T", c)
	}
}

func TestBuildCacheLRU(t *testing.T) {
	e := New(WithConfig(Config{CacheTTL: time.Minute, CacheSize: 2}))
	c := e.buildCache(nil)
	lru, ok := c.(*cache.LRU)
	if !ok {
		t.Fatalf("expected LRU, got %T", c)
	}

	ctx := context.Background()
	for _, user := range []string{"u1", "u2", "u3"} {
		k := taskguard.PermissionKey{UserID: user, Permission: "view-tasks", Scope: scope.Global()}
		lru.Set(ctx, "t1", k, lru.Stamp(ctx, "t1", k), true)
	}
	if lru.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", lru.Len())
	}
}

func TestBuildCacheMemory(t *testing.T) {
	e := New(WithConfig(Config{CacheTTL: time.Minute, Cache: CacheMemory}))
	if c, ok := e.buildCache(nil).(*cache.Memory); !ok {
		t.Fatalf("expected Memory, got %T", c)
	}
}

func TestBuildCacheRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	e := New(WithConfig(Config{CacheTTL: time.Minute, RedisAddr: mr.Addr()}))
	c := e.buildCache(nil)
	if _, ok := c.(*cache.Redis); !ok {
		t.Fatalf("expected Redis, got %T", c)
	}
	t.Cleanup(func() { _ = e.redis.Close() })

	ctx := context.Background()
	k := taskguard.PermissionKey{UserID: "u1", Permission: "view-tasks", Scope: scope.Project("p1")}
	c.Set(ctx, "t1", k, c.Stamp(ctx, "t1", k), true)
	if allowed, hit := c.Get(ctx, "t1", k); !hit || !allowed {
		t.Fatalf("expected cached allow, got allowed=%v hit=%v", allowed, hit)
	}
}

func TestEngineConfigCarriesFlags(t *testing.T) {
	e := New(WithConfig(Config{CacheTTL: time.Second, DecisionLog: true, SystemRolePermissionsMutable: true}))
	cfg := e.engineConfig()
	if cfg.CacheTTL != time.Second || !cfg.DecisionLog || !cfg.SystemRolePermissionsMutable {
		t.Fatalf("flags not carried: %+v", cfg)
	}
	if len(cfg.OwnerRoles) == 0 {
		t.Fatal("owner roles come from the engine defaults")
	}
}

func TestLoadCatalog(t *testing.T) {
	e := New()
	cat, err := e.loadCatalog()
	if err != nil {
		t.Fatal(err)
	}
	if len(cat.Roles) == 0 {
		t.Fatal("expected the built-in catalog")
	}

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := []byte(`permissions:
  - {slug: view-tasks, name: View tasks, group: tasks}
roles:
  - {slug: reader, name: Reader, permissions: [view-tasks]}
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	e = New(WithConfig(Config{CatalogFile: path}))
	cat, err = e.loadCatalog()
	if err != nil {
		t.Fatal(err)
	}
	if len(cat.Roles) != 1 || cat.Roles[0].Slug != "reader" {
		t.Fatalf("unexpected roles %+v", cat.Roles)
	}
}

func TestLoadCatalogRejectsUnknownPermission(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := []byte(`permissions: []
roles:
  - {slug: reader, name: Reader, permissions: [view-tasks]}
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	e := New(WithConfig(Config{CatalogFile: path}))
	if _, err := e.loadCatalog(); err == nil {
		t.Fatal("expected an error for an undeclared permission")
	}
}

func TestStoreForDriverRejectsUnknown(t *testing.T) {
	if _, err := storeForDriver("cassandra", nil); err == nil {
		t.Fatal("expected an error for an unknown driver")
	}
}

func TestStartBeforeRegisterFails(t *testing.T) {
	if err := New().Start(context.Background()); err == nil {
		t.Fatal("expected Start to fail before Register")
	}
	if err := New().Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestSeedTenantsOption(t *testing.T) {
	e := New(WithSeedTenants("t1", "t2"))
	if !slices.Equal(e.config.SeedTenants, []string{"t1", "t2"}) {
		t.Fatalf("unexpected seed tenants %v", e.config.SeedTenants)
	}
	if e.config.Driver != DriverMemory {
		t.Fatalf("expected memory driver, got %q", e.config.Driver)
	}
}
