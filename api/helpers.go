package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/xraph/forge"

	"github.com/yaseralshikh/taskguard"
	"github.com/yaseralshikh/taskguard/scope"
	"github.com/yaseralshikh/taskguard/store"
)

// mapError maps domain errors to Forge HTTP errors. An unknown permission
// slug in a check stays unmapped: the catalog is broken, not the request.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, taskguard.ErrRoleNotFound),
		errors.Is(err, taskguard.ErrMemberNotFound),
		errors.Is(err, store.ErrNotFound):
		return forge.NotFound(err.Error())
	case errors.Is(err, taskguard.ErrSystemRoleImmutable),
		errors.Is(err, taskguard.ErrOwnerNotRemovable):
		return forge.Forbidden(err.Error())
	case errors.Is(err, taskguard.ErrCapacityExceeded),
		errors.Is(err, taskguard.ErrInvalidScope),
		errors.Is(err, taskguard.ErrInvalidTag),
		errors.Is(err, store.ErrConflict):
		return forge.BadRequest(err.Error())
	case errors.Is(err, taskguard.ErrAccessDenied):
		return forge.Forbidden(err.Error())
	}
	return err
}

// grantError treats an unknown permission slug in a path or body as a
// missing resource.
func grantError(err error) error {
	if errors.Is(err, taskguard.ErrPermissionNotFound) {
		return forge.NotFound(err.Error())
	}
	return mapError(err)
}

// validationError flattens validator errors into one 400 message.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return forge.BadRequest(err.Error())
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return forge.BadRequest(strings.Join(msgs, "; "))
}

func (a *API) validateBody(req any) error {
	if err := a.validate.Struct(req); err != nil {
		return validationError(err)
	}
	return nil
}

// parseScope builds a scope from a (type, id) pair where both empty
// means Global.
func parseScope(kind, entityID string) (scope.Scope, error) {
	if kind == "" && entityID == "" {
		return scope.Global(), nil
	}
	sc, err := scope.New(scope.Kind(kind), entityID)
	if err != nil {
		return scope.Scope{}, forge.BadRequest(fmt.Sprintf("invalid scope: %v", err))
	}
	return sc, nil
}

func parseTime(field, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid %s timestamp", field))
	}
	return &t, nil
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
