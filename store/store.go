// Package store composes the per-entity store interfaces into the single
// interface every backend implements. Backends: memory, sqlite, postgres,
// mongo.
package store

import (
	"context"
	"errors"

	"github.com/yaseralshikh/taskguard/assignment"
	"github.com/yaseralshikh/taskguard/checklog"
	"github.com/yaseralshikh/taskguard/membership"
	"github.com/yaseralshikh/taskguard/permission"
	"github.com/yaseralshikh/taskguard/role"
)

// Backends wrap these so callers can match with errors.Is.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Store is the aggregate persistence interface.
type Store interface {
	role.Store
	permission.Store
	assignment.Store
	membership.Store
	checklog.Store

	// Migrate creates or upgrades the schema.
	Migrate(ctx context.Context) error

	Ping(ctx context.Context) error

	Close() error
}
