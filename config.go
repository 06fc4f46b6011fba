package taskguard

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/yaseralshikh/taskguard/catalog"
	"github.com/yaseralshikh/taskguard/resource"
)

// Config holds configuration for the engine.
type Config struct {
	// CacheTTL is the time-to-live for cached permission lookups.
	// Zero means no caching.
	CacheTTL time.Duration `json:"cache_ttl,omitempty" envconfig:"CACHE_TTL"`

	// SystemRolePermissionsMutable allows GrantPermission and
	// RevokePermission on system roles. Deleting or updating a system
	// role is always refused.
	SystemRolePermissionsMutable bool `json:"system_role_permissions_mutable,omitempty" envconfig:"SYSTEM_ROLE_PERMISSIONS_MUTABLE"`

	// DecisionLog records every check in the check log store.
	DecisionLog bool `json:"decision_log,omitempty" envconfig:"DECISION_LOG"`

	// OwnerRoles maps a container type ("team", "project") to the role
	// ProvisionOwner assigns to its creator, scoped to the container.
	OwnerRoles map[string]string `json:"owner_roles,omitempty" envconfig:"OWNER_ROLES"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		OwnerRoles: map[string]string{
			string(resource.TypeTeam):    catalog.RoleTeamOwner,
			string(resource.TypeProject): catalog.RoleProjectManager,
		},
	}
}

// ConfigFromEnv overlays environment variables on DefaultConfig, e.g.
// TASKGUARD_CACHE_TTL=30s or TASKGUARD_OWNER_ROLES=team:team-owner.
func ConfigFromEnv(prefix string) (Config, error) {
	cfg := DefaultConfig()
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("taskguard: load config: %w", err)
	}
	return cfg, nil
}

func (c Config) ownerRole(t resource.Type) string {
	return c.OwnerRoles[string(t)]
}
