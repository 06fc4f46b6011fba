// Package membership records which users belong to a team or project and
// with which tag (admin or member).
//
// The membership tag is unrelated to RBAC role slugs. Ownership is not a
// membership either: the owner is a field of the team or project.
package membership

import (
	"errors"
	"fmt"
	"time"

	"github.com/yaseralshikh/taskguard/id"
	"github.com/yaseralshikh/taskguard/scope"
)

// Tag is the per-resource membership level.
type Tag string

const (
	TagAdmin  Tag = "admin"
	TagMember Tag = "member"
)

// ErrInvalidTag is returned by ParseTag.
var ErrInvalidTag = errors.New("membership: tag must be admin or member")

// ParseTag validates a tag string. Empty means member.
func ParseTag(s string) (Tag, error) {
	switch Tag(s) {
	case "", TagMember:
		return TagMember, nil
	case TagAdmin:
		return TagAdmin, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTag, s)
	}
}

// Member is one roster row. At most one row exists per
// (tenant, scope, user); removal sets DeletedAt instead of deleting.
type Member struct {
	ID        id.MemberID `json:"id" db:"id"`
	TenantID  string      `json:"tenant_id" db:"tenant_id"`
	AppID     string      `json:"app_id" db:"app_id"`
	Scope     scope.Scope `json:"scope"`
	UserID    string      `json:"user_id" db:"user_id"`
	Role      Tag         `json:"role" db:"role"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time  `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Active reports whether the row is not soft-deleted.
func (m *Member) Active() bool { return m.DeletedAt == nil }

// ListFilter narrows ListMembers. Soft-deleted rows are excluded unless
// IncludeDeleted is set.
type ListFilter struct {
	TenantID       string       `json:"tenant_id,omitempty"`
	Scope          *scope.Scope `json:"scope,omitempty"`
	UserID         string       `json:"user_id,omitempty"`
	Role           Tag          `json:"role,omitempty"`
	IncludeDeleted bool         `json:"include_deleted,omitempty"`
	Limit          int          `json:"limit,omitempty"`
	Offset         int          `json:"offset,omitempty"`
}
