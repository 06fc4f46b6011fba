package taskguard

import (
	"log/slog"

	"github.com/yaseralshikh/taskguard/plugin"
	"github.com/yaseralshikh/taskguard/policy"
	"github.com/yaseralshikh/taskguard/store"
)

// Option is a functional option for the Engine.
type Option func(*Engine)

// WithStore sets the composite store.
func WithStore(s store.Store) Option { return func(e *Engine) { e.store = s } }

// WithCache sets the permission lookup cache.
func WithCache(c Cache) Option { return func(e *Engine) { e.cache = c } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithConfig sets the engine configuration.
func WithConfig(c Config) Option { return func(e *Engine) { e.config = c } }

// WithPolicies replaces the rule table. Use policy.Default().With(...) to
// override single rules.
func WithPolicies(t policy.Table) Option { return func(e *Engine) { e.policies = t } }

// WithPlugin registers a plugin with the engine.
func WithPlugin(x plugin.Plugin) Option {
	return func(e *Engine) {
		if e.plugins == nil {
			e.plugins = plugin.NewRegistry(e.logger)
		}
		e.plugins.Register(x)
	}
}
