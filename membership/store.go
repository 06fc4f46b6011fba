package membership

import (
	"context"

	"github.com/yaseralshikh/taskguard/scope"
)

// Store defines persistence operations for rosters.
type Store interface {
	// UpsertMember adds m to its roster. An active row is left untouched
	// and reported as added=false; a soft-deleted row is restored with
	// m.Role and reported as added=true. A concurrent duplicate insert is
	// reported as added=false, never as an error.
	UpsertMember(ctx context.Context, m *Member) (added bool, err error)

	// GetMember returns the active row for the user.
	GetMember(ctx context.Context, tenantID string, sc scope.Scope, userID string) (*Member, error)

	// UpdateMemberRole changes the tag of an active row.
	UpdateMemberRole(ctx context.Context, tenantID string, sc scope.Scope, userID string, tag Tag) error

	// RemoveMember soft-deletes the active row and reports whether one
	// existed.
	RemoveMember(ctx context.Context, tenantID string, sc scope.Scope, userID string) (bool, error)

	ListMembers(ctx context.Context, filter *ListFilter) ([]*Member, error)

	// CountMembers counts active rows of a roster.
	CountMembers(ctx context.Context, tenantID string, sc scope.Scope) (int64, error)

	// DeleteMembersByScope hard-deletes a whole roster, used when the team
	// or project itself is deleted.
	DeleteMembersByScope(ctx context.Context, tenantID string, sc scope.Scope) (int64, error)

	DeleteMembersByTenant(ctx context.Context, tenantID string) error
}
