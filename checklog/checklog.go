// Package checklog records authorization decisions for audit.
package checklog

import (
	"time"

	"github.com/yaseralshikh/taskguard/id"
)

// Entry is one recorded decision.
type Entry struct {
	ID           id.CheckLogID `json:"id" db:"id"`
	TenantID     string        `json:"tenant_id" db:"tenant_id"`
	AppID        string        `json:"app_id" db:"app_id"`
	UserID       string        `json:"user_id" db:"user_id"`
	Action       string        `json:"action" db:"action"`
	ResourceType string        `json:"resource_type,omitempty" db:"resource_type"`
	ResourceID   string        `json:"resource_id,omitempty" db:"resource_id"`
	Permission   string        `json:"permission,omitempty" db:"permission"`
	Decision     string        `json:"decision" db:"decision"`
	Reason       string        `json:"reason,omitempty" db:"reason"`
	EvalTimeNs   int64         `json:"eval_time_ns" db:"eval_time_ns"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
}

// QueryFilter narrows ListCheckLogs.
type QueryFilter struct {
	TenantID     string     `json:"tenant_id,omitempty"`
	UserID       string     `json:"user_id,omitempty"`
	Action       string     `json:"action,omitempty"`
	ResourceType string     `json:"resource_type,omitempty"`
	ResourceID   string     `json:"resource_id,omitempty"`
	Decision     string     `json:"decision,omitempty"`
	After        *time.Time `json:"after,omitempty"`
	Before       *time.Time `json:"before,omitempty"`
	Limit        int        `json:"limit,omitempty"`
	Offset       int        `json:"offset,omitempty"`
}
