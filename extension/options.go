package extension

import (
	"log/slog"

	"github.com/yaseralshikh/taskguard"
	"github.com/yaseralshikh/taskguard/api"
	"github.com/yaseralshikh/taskguard/plugin"
	"github.com/yaseralshikh/taskguard/store"
)

// ExtOption configures the taskguard Forge extension.
type ExtOption func(*Extension)

// WithStore sets the persistence backend, overriding Config.Driver.
func WithStore(s store.Store) ExtOption {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, taskguard.WithStore(s))
	}
}

// WithConfig sets the extension configuration.
func WithConfig(cfg Config) ExtOption {
	return func(e *Extension) {
		e.config = cfg
	}
}

// WithEngineOptions adds engine-level options.
func WithEngineOptions(opts ...taskguard.Option) ExtOption {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opts...)
	}
}

// WithContainers sets how the HTTP API resolves teams and projects.
func WithContainers(r api.ContainerResolver) ExtOption {
	return func(e *Extension) {
		e.apiOpts = append(e.apiOpts, api.WithContainers(r))
	}
}

// WithPlugin registers a lifecycle hook plugin.
func WithPlugin(x plugin.Plugin) ExtOption {
	return func(e *Extension) {
		e.plugins = append(e.plugins, x)
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ExtOption {
	return func(e *Extension) {
		e.logger = l
	}
}

// WithDisableRoutes disables the registration of HTTP routes.
func WithDisableRoutes() ExtOption {
	return func(e *Extension) {
		e.config.DisableRoutes = true
	}
}

// WithDisableMigrate disables auto-migration on start.
func WithDisableMigrate() ExtOption {
	return func(e *Extension) {
		e.config.DisableMigrate = true
	}
}

// WithSeedTenants seeds the default catalog into each tenant on start.
func WithSeedTenants(tenantIDs ...string) ExtOption {
	return func(e *Extension) {
		e.config.SeedTenants = append(e.config.SeedTenants, tenantIDs...)
	}
}
