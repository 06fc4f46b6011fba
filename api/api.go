// Package api provides HTTP handlers for the taskguard authorization engine.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/xraph/forge"

	"github.com/yaseralshikh/taskguard"
	"github.com/yaseralshikh/taskguard/resource"
	"github.com/yaseralshikh/taskguard/scope"
)

// ContainerResolver loads the team or project behind a scope. The host
// application owns those records; the resolver supplies owner and capacity
// so that roster operations can enforce them.
//
// Roster changes over HTTP fail with errNoContainerResolver until one is
// configured.
type ContainerResolver func(ctx context.Context, sc scope.Scope) (resource.Container, error)

// Option configures an API.
type Option func(*API)

// WithContainers sets the resolver used by membership and resource checks.
func WithContainers(r ContainerResolver) Option {
	return func(a *API) { a.containers = r }
}

// API wires all taskguard HTTP handlers together.
type API struct {
	eng        *taskguard.Engine
	router     forge.Router
	containers ContainerResolver
	validate   *validator.Validate
}

var errNoContainerResolver = errors.New("taskguard: no container resolver configured")

// New creates an API from an Engine and a Forge router. Without
// WithContainers, checks and roster reads see ownerless views with
// unlimited capacity and roster changes are refused.
func New(eng *taskguard.Engine, router forge.Router, opts ...Option) *API {
	a := &API{eng: eng, router: router, validate: validator.New()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handler returns the fully assembled http.Handler with all routes.
func (a *API) Handler() http.Handler {
	if a.router == nil {
		a.router = forge.NewRouter()
	}
	if err := a.RegisterRoutes(a.router); err != nil {
		panic("taskguard: register routes: " + err.Error())
	}
	return a.router.Handler()
}

// RegisterRoutes registers all API routes into the given Forge router.
func (a *API) RegisterRoutes(router forge.Router) error {
	registerers := []func(forge.Router) error{
		a.registerCheckRoutes,
		a.registerPermissionRoutes,
		a.registerRoleRoutes,
		a.registerAssignmentRoutes,
		a.registerMemberRoutes,
		a.registerCheckLogRoutes,
	}
	for _, fn := range registerers {
		if err := fn(router); err != nil {
			return err
		}
	}
	return nil
}

// view resolves a container for checks and reads.
func (a *API) view(ctx context.Context, sc scope.Scope) (resource.Container, error) {
	if a.containers != nil {
		return a.containers(ctx, sc)
	}
	return a.engineViews(ctx, sc)
}

// owned resolves a container whose owner and capacity must be enforced.
func (a *API) owned(ctx context.Context, sc scope.Scope) (resource.Container, error) {
	if a.containers == nil {
		return nil, errNoContainerResolver
	}
	return a.containers(ctx, sc)
}

func (a *API) engineViews(_ context.Context, sc scope.Scope) (resource.Container, error) {
	switch sc.Kind() {
	case scope.KindTeam:
		return a.eng.Team(sc.ID(), "", nil), nil
	case scope.KindProject:
		return a.eng.Project(sc.ID(), "", nil), nil
	default:
		return nil, taskguard.ErrInvalidScope
	}
}
