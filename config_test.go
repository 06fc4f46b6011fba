package taskguard

import (
	"testing"
	"time"

	"github.com/yaseralshikh/taskguard/catalog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.CacheTTL != 0 || cfg.DecisionLog || cfg.SystemRolePermissionsMutable {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.OwnerRoles["team"] != catalog.RoleTeamOwner || cfg.OwnerRoles["project"] != catalog.RoleProjectManager {
		t.Fatalf("unexpected owner roles %v", cfg.OwnerRoles)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("TASKGUARD_CACHE_TTL", "30s")
	t.Setenv("TASKGUARD_DECISION_LOG", "true")
	t.Setenv("TASKGUARD_OWNER_ROLES", "team:team-admin")

	cfg, err := ConfigFromEnv("taskguard")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Errorf("cache ttl = %s", cfg.CacheTTL)
	}
	if !cfg.DecisionLog {
		t.Error("decision log should be on")
	}
	if cfg.SystemRolePermissionsMutable {
		t.Error("unset variable must keep the default")
	}
	if cfg.OwnerRoles["team"] != catalog.RoleTeamAdmin || len(cfg.OwnerRoles) != 1 {
		t.Errorf("owner roles = %v", cfg.OwnerRoles)
	}
}

func TestConfigFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("TASKGUARD_CACHE_TTL", "soon")
	if _, err := ConfigFromEnv("taskguard"); err == nil {
		t.Fatal("expected a parse error")
	}
}
