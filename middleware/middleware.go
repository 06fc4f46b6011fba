// Package middleware provides HTTP authorization middleware for taskguard.
//
// Each middleware checks permission slugs for the request's user at a
// scope taken from the request (Global unless WithScope says otherwise).
package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/xraph/forge"

	"github.com/yaseralshikh/taskguard"
	"github.com/yaseralshikh/taskguard/scope"
)

// ScopeResolver picks the scope a request is checked at.
type ScopeResolver func(ctx forge.Context) (scope.Scope, error)

// UserResolver identifies the acting user. ok=false denies the request.
type UserResolver func(ctx forge.Context) (user taskguard.User, ok bool)

// Option configures a middleware.
type Option func(*guard)

// WithScope sets the scope resolver.
func WithScope(r ScopeResolver) Option { return func(g *guard) { g.scope = r } }

// WithUser sets the user resolver.
func WithUser(r UserResolver) Option { return func(g *guard) { g.user = r } }

// WithLogger sets the logger for lookup failures.
func WithLogger(l *slog.Logger) Option { return func(g *guard) { g.logger = l } }

// TeamParam scopes requests to the team named by a path parameter.
func TeamParam(name string) ScopeResolver {
	return func(ctx forge.Context) (scope.Scope, error) {
		return scope.New(scope.KindTeam, ctx.Param(name))
	}
}

// ProjectParam scopes requests to the project named by a path parameter.
func ProjectParam(name string) ScopeResolver {
	return func(ctx forge.Context) (scope.Scope, error) {
		return scope.New(scope.KindProject, ctx.Param(name))
	}
}

type guard struct {
	eng    *taskguard.Engine
	scope  ScopeResolver
	user   UserResolver
	logger *slog.Logger
}

func newGuard(eng *taskguard.Engine, opts []Option) *guard {
	g := &guard{
		eng:    eng,
		scope:  func(forge.Context) (scope.Scope, error) { return scope.Global(), nil },
		user:   forgeUser,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RequirePermission allows the request if the user holds slug.
func RequirePermission(eng *taskguard.Engine, slug string, opts ...Option) forge.Middleware {
	return newGuard(eng, opts).middleware("require permission", []string{slug}, true)
}

// RequireAny allows the request if the user holds ANY of slugs.
func RequireAny(eng *taskguard.Engine, slugs []string, opts ...Option) forge.Middleware {
	return newGuard(eng, opts).middleware("require any", slugs, false)
}

// RequireAll allows the request only if the user holds ALL of slugs.
func RequireAll(eng *taskguard.Engine, slugs []string, opts ...Option) forge.Middleware {
	return newGuard(eng, opts).middleware("require all", slugs, true)
}

func (g *guard) middleware(op string, slugs []string, all bool) forge.Middleware {
	required := normalize(slugs)
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			if len(required) == 0 {
				return next(ctx)
			}
			user, ok := g.user(ctx)
			if !ok {
				return denyResponse(ctx)
			}
			sc, err := g.scope(ctx)
			if err != nil {
				return forge.BadRequest("invalid scope: " + err.Error())
			}
			allowed, err := check(ctx.Context(), g.eng, user, sc, required, all)
			if err != nil {
				g.logger.Error("taskguard "+op,
					slog.String("user", user.ID),
					slog.String("scope", sc.String()),
					slog.String("error", err.Error()),
				)
				return err
			}
			if !allowed {
				return denyResponse(ctx)
			}
			return next(ctx)
		}
	}
}

// check runs one engine check per slug and stops at the first decisive
// result.
func check(ctx context.Context, eng *taskguard.Engine, user taskguard.User, sc scope.Scope, slugs []string, all bool) (bool, error) {
	for _, slug := range slugs {
		result, err := eng.Check(ctx, &taskguard.CheckRequest{User: user, Permission: slug, Scope: sc})
		if err != nil {
			return false, err
		}
		if result.Allowed && !all {
			return true, nil
		}
		if !result.Allowed && all {
			return false, nil
		}
	}
	return all, nil
}

// forgeUser reads the user ID set by the auth layer. Deactivated users
// are expected to be rejected there.
func forgeUser(ctx forge.Context) (taskguard.User, bool) {
	userID := forge.UserIDFromContext(ctx.Context())
	if userID == "" {
		return taskguard.User{}, false
	}
	return taskguard.User{ID: userID, IsActive: true}, true
}

func normalize(slugs []string) []string {
	seen := make(map[string]struct{}, len(slugs))
	out := make([]string, 0, len(slugs))
	for _, s := range slugs {
		s = strings.TrimSpace(strings.ToLower(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func denyResponse(ctx forge.Context) error {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.Response().WriteHeader(http.StatusForbidden)
	return json.NewEncoder(ctx.Response()).Encode(map[string]string{"error": "access denied"})
}
