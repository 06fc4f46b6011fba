// Package resource holds the read-only views of users and domain records that
// authorization decisions are made about.
//
// The host application owns the real records. It builds these views (usually
// through Engine.Team / Engine.Project so that membership lookups are bound
// to the engine) and hands them to Engine.Can.
package resource

import (
	"context"

	"github.com/yaseralshikh/taskguard/scope"
)

// Type tags a resource kind.
type Type string

const (
	TypeTeam       Type = "team"
	TypeProject    Type = "project"
	TypeTask       Type = "task"
	TypeComment    Type = "comment"
	TypeAttachment Type = "attachment"
	TypeTimeEntry  Type = "time_entry"
	TypeTag        Type = "tag"
)

// User is the actor of a check.
type User struct {
	ID       string `json:"id"`
	IsOwner  bool   `json:"is_owner"`
	IsActive bool   `json:"is_active"`
}

// Resource is anything a check can target.
type Resource interface {
	ResourceType() Type
	ResourceID() string
}

// Ownable resources expose the user that owns them.
type Ownable interface {
	Resource
	OwnerID() string
}

// Memberable resources have a roster of admin/member users.
type Memberable interface {
	Resource
	IsMember(ctx context.Context, userID string) (bool, error)
	IsAdminMember(ctx context.Context, userID string) (bool, error)
}

// OwnableAndMemberable is implemented by teams and projects.
type OwnableAndMemberable interface {
	Ownable
	Memberable
}

// Container is a resource that memberships and scoped role assignments
// attach to.
type Container interface {
	OwnableAndMemberable
	Scope() scope.Scope
}

// Roster answers membership questions for a container scope.
type Roster interface {
	IsMember(ctx context.Context, sc scope.Scope, userID string) (bool, error)
	IsAdminMember(ctx context.Context, sc scope.Scope, userID string) (bool, error)
}

// StaticRoster is an in-memory roster keyed by user id with values "admin"
// or "member". It ignores the scope and suits single-resource views.
type StaticRoster map[string]string

func (r StaticRoster) IsMember(_ context.Context, _ scope.Scope, userID string) (bool, error) {
	_, ok := r[userID]
	return ok, nil
}

func (r StaticRoster) IsAdminMember(_ context.Context, _ scope.Scope, userID string) (bool, error) {
	return r[userID] == "admin", nil
}

// ──────────────────────────────────────────────────
// Team
// ──────────────────────────────────────────────────

// Team is a view of a team. MaxMembers nil means unlimited.
type Team struct {
	ID         string
	Owner      string
	MaxMembers *int
	Roster     Roster
}

func (t *Team) ResourceType() Type { return TypeTeam }
func (t *Team) ResourceID() string { return t.ID }
func (t *Team) OwnerID() string { return t.Owner }
func (t *Team) Scope() scope.Scope { return scope.Team(t.ID) }

func (t *Team) IsMember(ctx context.Context, userID string) (bool, error) {
	return rosterIsMember(ctx, t.Roster, t.Scope(), userID)
}

func (t *Team) IsAdminMember(ctx context.Context, userID string) (bool, error) {
	return rosterIsAdmin(ctx, t.Roster, t.Scope(), userID)
}

// ──────────────────────────────────────────────────
// Project
// ──────────────────────────────────────────────────

// Project is a view of a project. Team is nil for projects that do not
// belong to a team.
type Project struct {
	ID     string
	Owner  string
	Team   *Team
	Roster Roster
}

func (p *Project) ResourceType() Type { return TypeProject }
func (p *Project) ResourceID() string { return p.ID }
func (p *Project) OwnerID() string { return p.Owner }
func (p *Project) Scope() scope.Scope { return scope.Project(p.ID) }

func (p *Project) IsMember(ctx context.Context, userID string) (bool, error) {
	return rosterIsMember(ctx, p.Roster, p.Scope(), userID)
}

func (p *Project) IsAdminMember(ctx context.Context, userID string) (bool, error) {
	return rosterIsAdmin(ctx, p.Roster, p.Scope(), userID)
}

// ──────────────────────────────────────────────────
// Leaf resources
// ──────────────────────────────────────────────────

// Task is a view of a task. Project may be nil for personal tasks.
type Task struct {
	ID         string
	CreatedBy  string
	AssignedTo string
	Assignees  []string
	Project    *Project
}

func (t *Task) ResourceType() Type { return TypeTask }
func (t *Task) ResourceID() string { return t.ID }

// IsAssignee reports whether userID is the primary assignee or in the
// assignee list.
func (t *Task) IsAssignee(userID string) bool {
	if t.AssignedTo != "" && t.AssignedTo == userID {
		return true
	}
	for _, a := range t.Assignees {
		if a == userID {
			return true
		}
	}
	return false
}

// Comment is a view of a comment. Commentable is the resource the comment
// is attached to.
type Comment struct {
	ID          string
	Author      string
	Commentable Resource
}

func (c *Comment) ResourceType() Type { return TypeComment }
func (c *Comment) ResourceID() string { return c.ID }

// Attachment is a view of an uploaded file.
type Attachment struct {
	ID         string
	Uploader   string
	Attachable Resource
}

func (a *Attachment) ResourceType() Type { return TypeAttachment }
func (a *Attachment) ResourceID() string { return a.ID }

// TimeEntry is a view of a logged time record.
type TimeEntry struct {
	ID      string
	Author  string
	Project *Project
}

func (e *TimeEntry) ResourceType() Type { return TypeTimeEntry }
func (e *TimeEntry) ResourceID() string { return e.ID }

// Tag is a view of a user-defined label.
type Tag struct {
	ID        string
	CreatedBy string
}

func (t *Tag) ResourceType() Type { return TypeTag }
func (t *Tag) ResourceID() string { return t.ID }

// Ref is a bare type/id pair for callers that have nothing more to offer.
type Ref struct {
	Type Type
	ID   string
}

func (r Ref) ResourceType() Type { return r.Type }
func (r Ref) ResourceID() string { return r.ID }

func rosterIsMember(ctx context.Context, r Roster, sc scope.Scope, userID string) (bool, error) {
	if r == nil || userID == "" {
		return false, nil
	}
	return r.IsMember(ctx, sc, userID)
}

func rosterIsAdmin(ctx context.Context, r Roster, sc scope.Scope, userID string) (bool, error) {
	if r == nil || userID == "" {
		return false, nil
	}
	return r.IsAdminMember(ctx, sc, userID)
}

var (
	_ Container = (*Team)(nil)
	_ Container = (*Project)(nil)
)
