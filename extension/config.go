package extension

import "time"

// Store drivers understood by Config.Driver.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Cache backends understood by Config.Cache.
const (
	CacheLRU    = "lru"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds the taskguard extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.taskguard" or "taskguard" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for taskguard routes. Empty mounts them
	// at the router root.
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// Driver selects the store built from the grove.DB in the DI
	// container (sqlite, postgres, mongo). Empty or "memory" uses a store
	// from WithStore or the container, and an in-memory store otherwise.
	Driver string `json:"driver" mapstructure:"driver" yaml:"driver"`

	// SeedTenants lists tenants whose default catalog is seeded on start.
	SeedTenants []string `json:"seed_tenants" mapstructure:"seed_tenants" yaml:"seed_tenants"`

	// CatalogFile replaces the embedded default catalog when seeding.
	CatalogFile string `json:"catalog_file" mapstructure:"catalog_file" yaml:"catalog_file"`

	// CacheTTL enables permission lookup caching. Zero disables it.
	CacheTTL time.Duration `json:"cache_ttl" mapstructure:"cache_ttl" yaml:"cache_ttl"`

	// Cache selects the cache backend: lru (default), memory or redis.
	// A non-empty RedisAddr implies redis.
	Cache string `json:"cache" mapstructure:"cache" yaml:"cache"`

	// CacheSize bounds the in-process caches (default 10000).
	CacheSize int `json:"cache_size" mapstructure:"cache_size" yaml:"cache_size"`

	// RedisAddr is the Redis server used by the redis cache backend.
	RedisAddr string `json:"redis_addr" mapstructure:"redis_addr" yaml:"redis_addr"`

	// DecisionLog records every check.
	DecisionLog bool `json:"decision_log" mapstructure:"decision_log" yaml:"decision_log"`

	// SystemRolePermissionsMutable allows granting and revoking on system
	// roles.
	SystemRolePermissionsMutable bool `json:"system_role_permissions_mutable" mapstructure:"system_role_permissions_mutable" yaml:"system_role_permissions_mutable"`

	// Metrics registers the Prometheus plugin on the default registerer.
	Metrics bool `json:"metrics" mapstructure:"metrics" yaml:"metrics"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Driver:    DriverMemory,
		Cache:     CacheLRU,
		CacheSize: 10000,
	}
}
