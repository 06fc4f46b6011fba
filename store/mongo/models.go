package mongo

import (
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/yaseralshikh/taskguard/assignment"
	"github.com/yaseralshikh/taskguard/checklog"
	"github.com/yaseralshikh/taskguard/id"
	"github.com/yaseralshikh/taskguard/membership"
	"github.com/yaseralshikh/taskguard/permission"
	"github.com/yaseralshikh/taskguard/role"
	"github.com/yaseralshikh/taskguard/scope"
)

// ──────────────────────────────────────────────────
// Role model
// ──────────────────────────────────────────────────

type roleModel struct {
	grove.BaseModel `grove:"table:taskguard_roles"`
	ID              string         `grove:"id,pk"           bson:"_id"`
	TenantID        string         `grove:"tenant_id"       bson:"tenant_id"`
	AppID           string         `grove:"app_id"          bson:"app_id"`
	Name            string         `grove:"name"            bson:"name"`
	Slug            string         `grove:"slug"            bson:"slug"`
	Description     string         `grove:"description"     bson:"description"`
	IsSystem        bool           `grove:"is_system"       bson:"is_system"`
	Metadata        map[string]any `grove:"metadata"        bson:"metadata,omitempty"`
	CreatedAt       time.Time      `grove:"created_at"      bson:"created_at"`
	UpdatedAt       time.Time      `grove:"updated_at"      bson:"updated_at"`
}

func roleToModel(r *role.Role) *roleModel {
	return &roleModel{
		ID:          r.ID.String(),
		TenantID:    r.TenantID,
		AppID:       r.AppID,
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Metadata:    r.Metadata,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func roleFromModel(m *roleModel) *role.Role {
	rid, _ := id.ParseRoleID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &role.Role{
		ID:          rid,
		TenantID:    m.TenantID,
		AppID:       m.AppID,
		Name:        m.Name,
		Slug:        m.Slug,
		Description: m.Description,
		IsSystem:    m.IsSystem,
		Metadata:    m.Metadata,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Permission model
// ──────────────────────────────────────────────────

type permissionModel struct {
	grove.BaseModel `grove:"table:taskguard_permissions"`
	ID              string         `grove:"id,pk"           bson:"_id"`
	TenantID        string         `grove:"tenant_id"       bson:"tenant_id"`
	AppID           string         `grove:"app_id"          bson:"app_id"`
	Name            string         `grove:"name"            bson:"name"`
	Slug            string         `grove:"slug"            bson:"slug"`
	Description     string         `grove:"description"     bson:"description"`
	Group           string         `grove:"group_name"      bson:"group_name"`
	Metadata        map[string]any `grove:"metadata"        bson:"metadata,omitempty"`
	CreatedAt       time.Time      `grove:"created_at"      bson:"created_at"`
	UpdatedAt       time.Time      `grove:"updated_at"      bson:"updated_at"`
}

func permissionToModel(p *permission.Permission) *permissionModel {
	return &permissionModel{
		ID:          p.ID.String(),
		TenantID:    p.TenantID,
		AppID:       p.AppID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Group:       p.Group,
		Metadata:    p.Metadata,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func permissionFromModel(m *permissionModel) *permission.Permission {
	pid, _ := id.ParsePermissionID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &permission.Permission{
		ID:          pid,
		TenantID:    m.TenantID,
		AppID:       m.AppID,
		Name:        m.Name,
		Slug:        m.Slug,
		Description: m.Description,
		Group:       m.Group,
		Metadata:    m.Metadata,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Role-Permission junction model
// ──────────────────────────────────────────────────

type rolePermissionModel struct {
	grove.BaseModel `grove:"table:taskguard_role_permission"`
	RoleID          string `grove:"role_id"          bson:"role_id"`
	PermissionID    string `grove:"permission_id"    bson:"permission_id"`
}

// ──────────────────────────────────────────────────
// Role-User (assignment) model
// ──────────────────────────────────────────────────

// assignmentModel stores a global scope as null entity fields so the
// unique index treats two global rows for the same role and user as equal.
type assignmentModel struct {
	grove.BaseModel `grove:"table:taskguard_role_user"`
	ID              string    `grove:"id,pk"           bson:"_id"`
	TenantID        string    `grove:"tenant_id"       bson:"tenant_id"`
	AppID           string    `grove:"app_id"          bson:"app_id"`
	RoleID          string    `grove:"role_id"         bson:"role_id"`
	UserID          string    `grove:"user_id"         bson:"user_id"`
	EntityType      *string   `grove:"entity_type"     bson:"entity_type"`
	EntityID        *string   `grove:"entity_id"       bson:"entity_id"`
	GrantedBy       string    `grove:"granted_by"      bson:"granted_by"`
	CreatedAt       time.Time `grove:"created_at"      bson:"created_at"`
}

func assignmentToModel(a *assignment.Assignment) *assignmentModel {
	et, eid := a.Scope.Columns()
	return &assignmentModel{
		ID:         a.ID.String(),
		TenantID:   a.TenantID,
		AppID:      a.AppID,
		RoleID:     a.RoleID.String(),
		UserID:     a.UserID,
		EntityType: et,
		EntityID:   eid,
		GrantedBy:  a.GrantedBy,
		CreatedAt:  a.CreatedAt,
	}
}

func assignmentFromModel(m *assignmentModel) *assignment.Assignment {
	aid, _ := id.ParseAssignmentID(m.ID) //nolint:errcheck // stored IDs are always valid
	rid, _ := id.ParseRoleID(m.RoleID)   //nolint:errcheck // stored IDs are always valid
	sc, err := scope.FromColumns(m.EntityType, m.EntityID)
	return &assignment.Assignment{
		ID:        aid,
		TenantID:  m.TenantID,
		AppID:     m.AppID,
		RoleID:    rid,
		UserID:    m.UserID,
		Scope:     sc,
		GrantedBy: m.GrantedBy,
		CreatedAt: m.CreatedAt,
		Malformed: err != nil,
	}
}

// ──────────────────────────────────────────────────
// Membership model
// ──────────────────────────────────────────────────

type memberModel struct {
	grove.BaseModel `grove:"table:taskguard_memberships"`
	ID              string     `grove:"id,pk"           bson:"_id"`
	TenantID        string     `grove:"tenant_id"       bson:"tenant_id"`
	AppID           string     `grove:"app_id"          bson:"app_id"`
	EntityType      string     `grove:"entity_type"     bson:"entity_type"`
	EntityID        string     `grove:"entity_id"       bson:"entity_id"`
	UserID          string     `grove:"user_id"         bson:"user_id"`
	Role            string     `grove:"role"            bson:"role"`
	CreatedAt       time.Time  `grove:"created_at"      bson:"created_at"`
	UpdatedAt       time.Time  `grove:"updated_at"      bson:"updated_at"`
	DeletedAt       *time.Time `grove:"deleted_at"      bson:"deleted_at"`
}

func memberToModel(m *membership.Member) *memberModel {
	return &memberModel{
		ID:         m.ID.String(),
		TenantID:   m.TenantID,
		AppID:      m.AppID,
		EntityType: string(m.Scope.Kind()),
		EntityID:   m.Scope.ID(),
		UserID:     m.UserID,
		Role:       string(m.Role),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
		DeletedAt:  m.DeletedAt,
	}
}

func memberFromModel(m *memberModel) (*membership.Member, error) {
	mid, _ := id.ParseMemberID(m.ID) //nolint:errcheck // stored IDs are always valid
	sc, err := scope.New(scope.Kind(m.EntityType), m.EntityID)
	if err != nil {
		return nil, fmt.Errorf("member %s: %w", m.ID, err)
	}
	return &membership.Member{
		ID:        mid,
		TenantID:  m.TenantID,
		AppID:     m.AppID,
		Scope:     sc,
		UserID:    m.UserID,
		Role:      membership.Tag(m.Role),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		DeletedAt: m.DeletedAt,
	}, nil
}

// ──────────────────────────────────────────────────
// CheckLog model
// ──────────────────────────────────────────────────

type checkLogModel struct {
	grove.BaseModel `grove:"table:taskguard_check_logs"`
	ID              string    `grove:"id,pk"           bson:"_id"`
	TenantID        string    `grove:"tenant_id"       bson:"tenant_id"`
	AppID           string    `grove:"app_id"          bson:"app_id"`
	UserID          string    `grove:"user_id"         bson:"user_id"`
	Action          string    `grove:"action"          bson:"action"`
	ResourceType    string    `grove:"resource_type"   bson:"resource_type"`
	ResourceID      string    `grove:"resource_id"     bson:"resource_id"`
	Permission      string    `grove:"permission"      bson:"permission"`
	Decision        string    `grove:"decision"        bson:"decision"`
	Reason          string    `grove:"reason"          bson:"reason"`
	EvalTimeNs      int64     `grove:"eval_time_ns"    bson:"eval_time_ns"`
	CreatedAt       time.Time `grove:"created_at"      bson:"created_at"`
}

func checkLogToModel(e *checklog.Entry) *checkLogModel {
	return &checkLogModel{
		ID:           e.ID.String(),
		TenantID:     e.TenantID,
		AppID:        e.AppID,
		UserID:       e.UserID,
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		Permission:   e.Permission,
		Decision:     e.Decision,
		Reason:       e.Reason,
		EvalTimeNs:   e.EvalTimeNs,
		CreatedAt:    e.CreatedAt,
	}
}

func checkLogFromModel(m *checkLogModel) *checklog.Entry {
	clid, _ := id.ParseCheckLogID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &checklog.Entry{
		ID:           clid,
		TenantID:     m.TenantID,
		AppID:        m.AppID,
		UserID:       m.UserID,
		Action:       m.Action,
		ResourceType: m.ResourceType,
		ResourceID:   m.ResourceID,
		Permission:   m.Permission,
		Decision:     m.Decision,
		Reason:       m.Reason,
		EvalTimeNs:   m.EvalTimeNs,
		CreatedAt:    m.CreatedAt,
	}
}
