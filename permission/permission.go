// Package permission defines catalog entries. A permission is identified in
// checks by its slug only.
package permission

import (
	"time"

	"github.com/yaseralshikh/taskguard/id"
)

// Permission is a named capability, e.g. "edit-tasks" in group "tasks".
type Permission struct {
	ID          id.PermissionID `json:"id" db:"id"`
	TenantID    string          `json:"tenant_id" db:"tenant_id"`
	AppID       string          `json:"app_id" db:"app_id"`
	Name        string          `json:"name" db:"name"`
	Slug        string          `json:"slug" db:"slug"`
	Description string          `json:"description,omitempty" db:"description"`
	Group       string          `json:"group" db:"group_name"`
	Metadata    map[string]any  `json:"metadata,omitempty" db:"metadata"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// ListFilter narrows ListPermissions.
type ListFilter struct {
	TenantID string `json:"tenant_id,omitempty"`
	Group    string `json:"group,omitempty"`
	Search   string `json:"search,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}
