package checklog

import (
	"context"
	"time"

	"github.com/yaseralshikh/taskguard/id"
)

// Store defines persistence operations for decision logs.
type Store interface {
	CreateCheckLog(ctx context.Context, e *Entry) error

	GetCheckLog(ctx context.Context, logID id.CheckLogID) (*Entry, error)

	// ListCheckLogs returns entries newest first.
	ListCheckLogs(ctx context.Context, filter *QueryFilter) ([]*Entry, error)

	CountCheckLogs(ctx context.Context, filter *QueryFilter) (int64, error)

	// PurgeCheckLogs removes the tenant's entries created before the given
	// time.
	PurgeCheckLogs(ctx context.Context, tenantID string, before time.Time) (int64, error)

	DeleteCheckLogsByTenant(ctx context.Context, tenantID string) error
}
