package api

// ──────────────────────────────────────────────────
// Check requests
// ──────────────────────────────────────────────────

// CheckRequest is the request body for an authorization check.
//
// With resource_type team or project the check runs the resource rules
// against the resolved container. Otherwise it is a permission lookup of
// permission at the (scope_type, scope_id) scope.
type CheckRequest struct {
	UserID       string `json:"user_id" validate:"required" description:"User identifier"`
	IsOwner      bool   `json:"is_owner,omitempty" description:"User is a platform owner"`
	Inactive     bool   `json:"inactive,omitempty" description:"User is deactivated"`
	Action       string `json:"action,omitempty" description:"Action name for resource checks"`
	Permission   string `json:"permission,omitempty" description:"Permission slug for lookups"`
	ResourceType string `json:"resource_type,omitempty" validate:"omitempty,oneof=team project" description:"Container type (team, project)"`
	ResourceID   string `json:"resource_id,omitempty" validate:"required_with=ResourceType" description:"Container identifier"`
	ScopeType    string `json:"scope_type,omitempty" validate:"omitempty,oneof=team project" description:"Scope type for lookups (empty = global)"`
	ScopeID      string `json:"scope_id,omitempty" validate:"required_with=ScopeType" description:"Scope identifier"`
}

// BatchCheckRequest contains multiple checks.
type BatchCheckRequest struct {
	Checks []CheckRequest `json:"checks" validate:"required,min=1,max=100,dive" description:"List of authorization checks"`
}

// ──────────────────────────────────────────────────
// Permission requests
// ──────────────────────────────────────────────────

// ListPermissionsRequest holds query parameters.
type ListPermissionsRequest struct {
	Group  string `query:"group" description:"Filter by group"`
	Search string `query:"search" description:"Search by name or slug"`
	Limit  int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset int    `query:"offset" description:"Results to skip"`
}

// GetPermissionRequest is the path parameter for getting a permission.
type GetPermissionRequest struct {
	Slug string `path:"slug" description:"Permission slug"`
}

// ──────────────────────────────────────────────────
// Role requests
// ──────────────────────────────────────────────────

// CreateRoleRequest is the body for creating a role.
type CreateRoleRequest struct {
	Name        string         `json:"name" validate:"required,max=255" description:"Role name"`
	Slug        string         `json:"slug" validate:"required,max=255" description:"URL-safe slug"`
	Description string         `json:"description,omitempty" description:"Human-readable description"`
	Permissions []string       `json:"permissions,omitempty" description:"Permission slugs to grant"`
	Metadata    map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// UpdateRoleRequest is the body for updating a role.
type UpdateRoleRequest struct {
	Name        string         `json:"name,omitempty" validate:"max=255" description:"Role name"`
	Description string         `json:"description,omitempty" description:"Human-readable description"`
	Metadata    map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// GetRoleRequest is the path parameter for getting a role.
type GetRoleRequest struct {
	Slug string `path:"slug" description:"Role slug"`
}

// ListRolesRequest holds query parameters for listing roles.
type ListRolesRequest struct {
	Search string `query:"search" description:"Search by name or slug"`
	System string `query:"system" description:"Filter by system flag (true/false)"`
	Limit  int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset int    `query:"offset" description:"Results to skip"`
}

// GrantRequest is the path parameters of a role grant.
type GrantRequest struct {
	Slug       string `path:"slug" description:"Role slug"`
	Permission string `path:"permission" description:"Permission slug"`
}

// ──────────────────────────────────────────────────
// Assignment requests
// ──────────────────────────────────────────────────

// AssignRoleRequest is the body for assigning or removing a role.
type AssignRoleRequest struct {
	UserID    string `json:"user_id" validate:"required" description:"User identifier"`
	Role      string `json:"role" validate:"required" description:"Role slug"`
	ScopeType string `json:"scope_type,omitempty" validate:"omitempty,oneof=team project" description:"Scope type (empty = global)"`
	ScopeID   string `json:"scope_id,omitempty" validate:"required_with=ScopeType" description:"Scope identifier"`
}

// ListAssignmentsRequest holds query parameters.
type ListAssignmentsRequest struct {
	UserID    string `query:"user_id" description:"Filter by user"`
	Role      string `query:"role" description:"Filter by role slug"`
	ScopeType string `query:"scope_type" description:"Filter by scope type (global, team, project)"`
	ScopeID   string `query:"scope_id" description:"Filter by scope identifier"`
	Limit     int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset    int    `query:"offset" description:"Results to skip"`
}

// AssignmentRequest is the path parameter of one assignment.
type AssignmentRequest struct {
	ID string `path:"id" description:"Assignment ID"`
}

// UserAssignmentsRequest is the path parameter for a user's assignments.
type UserAssignmentsRequest struct {
	UserID string `path:"userId" description:"User identifier"`
}

// ──────────────────────────────────────────────────
// Membership requests
// ──────────────────────────────────────────────────

// ListMembersRequest is the path parameter of a roster.
type ListMembersRequest struct {
	ID string `path:"id" description:"Team or project identifier"`
}

// AddMemberRequest is the body for adding a member.
type AddMemberRequest struct {
	UserID string `json:"user_id" validate:"required" description:"User identifier"`
	Role   string `json:"role,omitempty" validate:"omitempty,oneof=admin member" description:"Membership tag (admin, member)"`
}

// UpdateMemberRequest is the body for changing a member's tag.
type UpdateMemberRequest struct {
	Role string `json:"role" validate:"required,oneof=admin member" description:"Membership tag (admin, member)"`
}

// MemberRequest is the path parameters of one roster row.
type MemberRequest struct {
	ID     string `path:"id" description:"Team or project identifier"`
	UserID string `path:"userId" description:"User identifier"`
}

// ──────────────────────────────────────────────────
// Check log requests
// ──────────────────────────────────────────────────

// ListCheckLogsRequest holds query parameters for querying check logs.
type ListCheckLogsRequest struct {
	UserID       string `query:"user_id" description:"Filter by user"`
	Action       string `query:"action" description:"Filter by action"`
	ResourceType string `query:"resource_type" description:"Filter by resource type"`
	ResourceID   string `query:"resource_id" description:"Filter by resource identifier"`
	Decision     string `query:"decision" description:"Filter by decision"`
	After        string `query:"after" description:"After timestamp (RFC3339)"`
	Before       string `query:"before" description:"Before timestamp (RFC3339)"`
	Limit        int    `query:"limit" description:"Maximum results"`
	Offset       int    `query:"offset" description:"Results to skip"`
}

// CheckLogRequest is the path parameter of one check log entry.
type CheckLogRequest struct {
	ID string `path:"id" description:"Check log ID"`
}

// PurgeCheckLogsRequest holds the cutoff for purging check logs.
type PurgeCheckLogsRequest struct {
	Before string `query:"before" validate:"required" description:"Delete entries older than this (RFC3339)"`
}
