// Package extension provides a Forge extension entry point for taskguard.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/yaseralshikh/taskguard"
	"github.com/yaseralshikh/taskguard/api"
	"github.com/yaseralshikh/taskguard/cache"
	"github.com/yaseralshikh/taskguard/catalog"
	"github.com/yaseralshikh/taskguard/plugin"
	"github.com/yaseralshikh/taskguard/plugin/metrics"
	"github.com/yaseralshikh/taskguard/store"
	"github.com/yaseralshikh/taskguard/store/memory"
	"github.com/yaseralshikh/taskguard/store/mongo"
	"github.com/yaseralshikh/taskguard/store/postgres"
	"github.com/yaseralshikh/taskguard/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "taskguard"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Scoped RBAC and resource authorization for teams, projects and tasks"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts taskguard as a Forge extension.
type Extension struct {
	config     Config
	eng        *taskguard.Engine
	apiHandler *api.API
	logger     *slog.Logger
	engineOpts []taskguard.Option
	apiOpts    []api.Option
	plugins    []plugin.Plugin
	redis      *redis.Client
}

// New creates a taskguard Forge extension with the given options.
func New(opts ...ExtOption) *Extension {
	e := &Extension{config: DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the extension name.
func (e *Extension) Name() string { return ExtensionName }

// Description returns the extension description.
func (e *Extension) Description() string { return ExtensionDescription }

// Version returns the extension version.
func (e *Extension) Version() string { return ExtensionVersion }

// Dependencies returns the list of extension names this extension depends on.
func (e *Extension) Dependencies() []string { return []string{} }

// Engine returns the underlying engine.
func (e *Extension) Engine() *taskguard.Engine { return e.eng }

// API returns the API handler.
func (e *Extension) API() *api.API { return e.apiHandler }

// Register implements [forge.Extension]. It initializes the engine,
// registers it in the DI container, and optionally registers HTTP routes.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.init(fapp); err != nil {
		return err
	}

	if err := vessel.Provide(fapp.Container(), func() (*taskguard.Engine, error) {
		return e.eng, nil
	}); err != nil {
		return fmt.Errorf("taskguard: register engine in container: %w", err)
	}

	return nil
}

func (e *Extension) init(fapp forge.App) error {
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	s, err := e.resolveStore(fapp)
	if err != nil {
		return err
	}

	opts := make([]taskguard.Option, 0, len(e.engineOpts)+len(e.plugins)+5)
	opts = append(opts,
		taskguard.WithLogger(logger),
		taskguard.WithConfig(e.engineConfig()),
	)
	if s != nil {
		opts = append(opts, taskguard.WithStore(s))
	}
	if c := e.buildCache(logger); c != nil {
		opts = append(opts, taskguard.WithCache(c))
	}
	if e.config.Metrics {
		opts = append(opts, taskguard.WithPlugin(metrics.New(prometheus.DefaultRegisterer)))
	}

	// User-provided options may override the store and cache.
	opts = append(opts, e.engineOpts...)
	for _, x := range e.plugins {
		opts = append(opts, taskguard.WithPlugin(x))
	}

	eng, err := taskguard.NewEngine(opts...)
	if err != nil {
		return fmt.Errorf("taskguard: create engine: %w", err)
	}
	e.eng = eng

	// The API keeps no router so that Handler builds a standalone one
	// instead of re-registering into the app router.
	e.apiHandler = api.New(eng, nil, e.apiOpts...)

	if !e.config.DisableRoutes {
		router := fapp.Router()
		if e.config.BasePath != "" {
			router = router.Group(e.config.BasePath)
		}
		if err := e.apiHandler.RegisterRoutes(router); err != nil {
			return fmt.Errorf("taskguard: register routes: %w", err)
		}
	}

	return nil
}

// resolveStore picks the persistence backend. A grove driver wraps the
// grove.DB from the container; otherwise a store.Store from the container
// is used, then an in-memory store. WithStore overrides all of these.
func (e *Extension) resolveStore(fapp forge.App) (store.Store, error) {
	switch e.config.Driver {
	case DriverSQLite, DriverPostgres, DriverMongo:
		db, err := forge.Inject[*grove.DB](fapp.Container())
		if err != nil {
			return nil, fmt.Errorf("taskguard: resolve grove database for %s: %w", e.config.Driver, err)
		}
		return storeForDriver(e.config.Driver, db)
	case "", DriverMemory:
		if s, err := forge.Inject[store.Store](fapp.Container()); err == nil {
			return s, nil
		}
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("taskguard: unknown store driver %q", e.config.Driver)
	}
}

func storeForDriver(driver string, db *grove.DB) (store.Store, error) {
	switch driver {
	case DriverSQLite:
		return sqlite.New(db), nil
	case DriverPostgres:
		return postgres.New(db), nil
	case DriverMongo:
		return mongo.New(db), nil
	}
	return nil, fmt.Errorf("taskguard: unknown store driver %q", driver)
}

func (e *Extension) engineConfig() taskguard.Config {
	cfg := taskguard.DefaultConfig()
	cfg.CacheTTL = e.config.CacheTTL
	cfg.DecisionLog = e.config.DecisionLog
	cfg.SystemRolePermissionsMutable = e.config.SystemRolePermissionsMutable
	return cfg
}

// buildCache returns nil when caching is disabled.
func (e *Extension) buildCache(logger *slog.Logger) taskguard.Cache {
	if e.config.CacheTTL <= 0 {
		return nil
	}
	size := e.config.CacheSize
	if size <= 0 {
		size = DefaultConfig().CacheSize
	}

	backend := e.config.Cache
	if e.config.RedisAddr != "" {
		backend = CacheRedis
	}
	switch backend {
	case CacheRedis:
		if logger == nil {
			logger = slog.Default()
		}
		addr := e.config.RedisAddr
		if addr == "" {
			addr = "localhost:6379"
		}
		e.redis = redis.NewClient(&redis.Options{Addr: addr})
		return cache.NewRedis(e.redis,
			cache.WithRedisTTL(e.config.CacheTTL),
			cache.WithRedisLogger(logger),
		)
	case CacheMemory:
		return cache.NewMemory(cache.WithTTL(e.config.CacheTTL), cache.WithMaxSize(size))
	default:
		return cache.NewLRU(size, e.config.CacheTTL)
	}
}

func (e *Extension) loadCatalog() (*catalog.Catalog, error) {
	if e.config.CatalogFile == "" {
		return catalog.Default(), nil
	}
	f, err := os.Open(e.config.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("taskguard: open catalog: %w", err)
	}
	defer f.Close()
	return catalog.Load(f)
}

// Start runs migrations and seeding unless disabled, then starts the engine.
func (e *Extension) Start(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("taskguard: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.eng.Store().Migrate(ctx); err != nil {
			return fmt.Errorf("taskguard: migration failed: %w", err)
		}
	}

	if len(e.config.SeedTenants) > 0 {
		cat, err := e.loadCatalog()
		if err != nil {
			return err
		}
		for _, tenantID := range e.config.SeedTenants {
			if err := e.eng.Seed(taskguard.WithTenant(ctx, "", tenantID), cat); err != nil {
				return fmt.Errorf("taskguard: seed tenant %s: %w", tenantID, err)
			}
		}
	}

	return e.eng.Start(ctx)
}

// Stop gracefully shuts down the engine and the Redis client it owns.
func (e *Extension) Stop(ctx context.Context) error {
	if e.eng == nil {
		return nil
	}
	err := e.eng.Stop(ctx)
	if e.redis != nil {
		err = errors.Join(err, e.redis.Close())
	}
	return err
}

// PurgeTenant deletes every record of tenantID: decision logs, rosters,
// assignments, roles and the permission catalog.
func (e *Extension) PurgeTenant(ctx context.Context, tenantID string) error {
	if e.eng == nil {
		return errors.New("taskguard: extension not initialized")
	}
	return e.eng.PurgeTenant(taskguard.WithTenant(ctx, "", tenantID))
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("taskguard: extension not initialized")
	}
	return e.eng.Store().Ping(ctx)
}

// Handler returns the HTTP handler for all API routes.
func (e *Extension) Handler() http.Handler {
	if e.apiHandler == nil {
		return http.NotFoundHandler()
	}
	return e.apiHandler.Handler()
}

// RegisterRoutes registers all taskguard API routes into a Forge router.
func (e *Extension) RegisterRoutes(router forge.Router) error {
	if e.apiHandler != nil {
		return e.apiHandler.RegisterRoutes(router)
	}
	return nil
}
