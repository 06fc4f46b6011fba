// Package role defines named permission bundles.
package role

import (
	"time"

	"github.com/yaseralshikh/taskguard/id"
)

// Role groups permissions under a slug. System roles cannot be deleted or
// renamed.
type Role struct {
	ID          id.RoleID      `json:"id" db:"id"`
	TenantID    string         `json:"tenant_id" db:"tenant_id"`
	AppID       string         `json:"app_id" db:"app_id"`
	Name        string         `json:"name" db:"name"`
	Slug        string         `json:"slug" db:"slug"`
	Description string         `json:"description,omitempty" db:"description"`
	IsSystem    bool           `json:"is_system" db:"is_system"`
	Metadata    map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// ListFilter narrows ListRoles.
type ListFilter struct {
	TenantID string `json:"tenant_id,omitempty"`
	IsSystem *bool  `json:"is_system,omitempty"`
	Search   string `json:"search,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}
