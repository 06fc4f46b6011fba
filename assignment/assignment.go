// Package assignment binds roles to users, either globally or within a
// single team or project.
package assignment

import (
	"time"

	"github.com/yaseralshikh/taskguard/id"
	"github.com/yaseralshikh/taskguard/scope"
)

// Assignment grants RoleID to UserID at Scope.
//
// Malformed is set by stores when the persisted scope columns were half
// populated. Such rows are read back as Global and the engine reports them.
type Assignment struct {
	ID        id.AssignmentID `json:"id" db:"id"`
	TenantID  string          `json:"tenant_id" db:"tenant_id"`
	AppID     string          `json:"app_id" db:"app_id"`
	RoleID    id.RoleID       `json:"role_id" db:"role_id"`
	UserID    string          `json:"user_id" db:"user_id"`
	Scope     scope.Scope     `json:"scope"`
	GrantedBy string          `json:"granted_by,omitempty" db:"granted_by"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	Malformed bool            `json:"-"`
}

// Key identifies an assignment for uniqueness purposes.
func (a *Assignment) Key() string {
	return a.TenantID + "|" + a.RoleID.String() + "|" + a.UserID + "|" + a.Scope.String()
}

// ListFilter narrows ListAssignments. A nil Scope matches every scope.
type ListFilter struct {
	TenantID string       `json:"tenant_id,omitempty"`
	RoleID   *id.RoleID   `json:"role_id,omitempty"`
	UserID   string       `json:"user_id,omitempty"`
	Scope    *scope.Scope `json:"scope,omitempty"`
	Limit    int          `json:"limit,omitempty"`
	Offset   int          `json:"offset,omitempty"`
}
