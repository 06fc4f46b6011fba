package policy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/yaseralshikh/taskguard/catalog"
	"github.com/yaseralshikh/taskguard/policy"
	"github.com/yaseralshikh/taskguard/resource"
	"github.com/yaseralshikh/taskguard/scope"
)

// grants is a fake Checker keyed by "slug@scope".
type grants struct {
	allowed map[string]bool
	calls   []string
	err     error
}

func (g *grants) HasPermission(_ context.Context, _ string, slug string, sc scope.Scope) (bool, error) {
	key := slug + "@" + sc.String()
	g.calls = append(g.calls, key)
	if g.err != nil {
		return false, g.err
	}
	return g.allowed[key], nil
}

func grant(keys ...string) *grants {
	g := &grants{allowed: make(map[string]bool)}
	for _, k := range keys {
		g.allowed[k] = true
	}
	return g
}

func check(t *testing.T, chk policy.Checker, u resource.User, action policy.Action, r resource.Resource) policy.Outcome {
	t.Helper()
	rule, ok := policy.Default().Rule(r.ResourceType(), action)
	if !ok {
		t.Fatalf("no rule for %s/%s", r.ResourceType(), action)
	}
	out, err := policy.Evaluate(context.Background(), chk, rule, u, r)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

var (
	alice = resource.User{ID: "alice", IsActive: true}
	bob   = resource.User{ID: "bob", IsActive: true}
)

func team() *resource.Team {
	return &resource.Team{ID: "T", Owner: "owner", Roster: resource.StaticRoster{"adm": "admin", "mem": "member"}}
}

func project(tm *resource.Team) *resource.Project {
	return &resource.Project{ID: "P", Owner: "powner", Team: tm, Roster: resource.StaticRoster{"padm": "admin", "pmem": "member"}}
}

func TestTeamRules(t *testing.T) {
	tests := []struct {
		name    string
		user    string
		action  policy.Action
		grants  []string
		allowed bool
		source  string
	}{
		{"owner views", "owner", policy.ActionView, nil, true, "shortcut"},
		{"member views", "mem", policy.ActionView, nil, true, "shortcut"},
		{"global view-teams", "alice", policy.ActionView, []string{"view-teams@global"}, true, "rbac"},
		{"scoped view-teams is not consulted", "alice", policy.ActionView, []string{"view-teams@team:T"}, false, ""},
		{"stranger denied", "alice", policy.ActionView, nil, false, ""},
		{"admin member updates", "adm", policy.ActionUpdate, nil, true, "shortcut"},
		{"plain member cannot update", "mem", policy.ActionUpdate, nil, false, ""},
		{"edit-teams scoped to team", "alice", policy.ActionUpdate, []string{"edit-teams@team:T"}, true, "rbac"},
		{"edit-teams on other team", "alice", policy.ActionUpdate, []string{"edit-teams@team:X"}, false, ""},
		{"admin member cannot delete", "adm", policy.ActionDelete, nil, false, ""},
		{"delete-teams scoped", "alice", policy.ActionDelete, []string{"delete-teams@team:T"}, true, "rbac"},
		{"admin manages members", "adm", policy.ActionAddMember, nil, true, "shortcut"},
		{"manage-team-members removes", "alice", policy.ActionRemoveMember, []string{"manage-team-members@team:T"}, true, "rbac"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := check(t, grant(tt.grants...), resource.User{ID: tt.user, IsActive: true}, tt.action, team())
			if out.Allowed != tt.allowed || out.Source != tt.source {
				t.Fatalf("got allowed=%v source=%q (%s), want %v %q", out.Allowed, out.Source, out.Reason, tt.allowed, tt.source)
			}
		})
	}
}

func TestProjectRules(t *testing.T) {
	tests := []struct {
		name    string
		user    string
		action  policy.Action
		grants  []string
		inTeam  bool
		allowed bool
	}{
		{"owner views", "powner", policy.ActionView, nil, true, true},
		{"project member views", "pmem", policy.ActionView, nil, true, true},
		{"team member views", "mem", policy.ActionView, nil, true, true},
		{"team member of teamless project", "mem", policy.ActionView, nil, false, false},
		{"view-projects scoped to team", "alice", policy.ActionView, []string{"view-projects@team:T"}, true, true},
		{"view-projects scoped to project is not the rule scope", "alice", policy.ActionView, []string{"view-projects@project:P"}, true, false},
		{"view-projects global for teamless project", "alice", policy.ActionView, []string{"view-projects@global"}, false, true},
		{"admin member archives", "padm", policy.ActionArchive, nil, true, true},
		{"archive-projects scoped", "alice", policy.ActionArchive, []string{"archive-projects@project:P"}, true, true},
		{"member cannot archive", "pmem", policy.ActionArchive, nil, true, false},
		{"edit-projects scoped", "alice", policy.ActionUpdate, []string{"edit-projects@project:P"}, true, true},
		{"admin cannot delete", "padm", policy.ActionDelete, nil, true, false},
		{"manage-project-members", "alice", policy.ActionAddMember, []string{"manage-project-members@project:P"}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tm *resource.Team
			if tt.inTeam {
				tm = team()
			}
			out := check(t, grant(tt.grants...), resource.User{ID: tt.user, IsActive: true}, tt.action, project(tm))
			if out.Allowed != tt.allowed {
				t.Fatalf("got allowed=%v (%s), want %v", out.Allowed, out.Reason, tt.allowed)
			}
		})
	}

	if _, ok := policy.Default().Rule(resource.TypeProject, policy.ActionUpdateMemberRole); ok {
		t.Error("projects have no updateMemberRole rule")
	}
}

func TestTaskRules(t *testing.T) {
	p := project(team())
	task := &resource.Task{ID: "X", CreatedBy: "creator", AssignedTo: "primary", Assignees: []string{"helper"}, Project: p}

	tests := []struct {
		name    string
		user    string
		action  policy.Action
		grants  []string
		allowed bool
	}{
		{"creator updates status without roles", "creator", policy.ActionUpdateStatus, nil, true},
		{"assignee list updates status", "helper", policy.ActionUpdateStatus, nil, true},
		{"assignee list cannot update", "helper", policy.ActionUpdate, nil, false},
		{"primary assignee updates", "primary", policy.ActionUpdate, nil, true},
		{"project member views", "pmem", policy.ActionView, nil, true},
		{"project member cannot update", "pmem", policy.ActionUpdate, nil, false},
		{"edit-tasks scoped to project", "alice", policy.ActionUpdate, []string{"edit-tasks@project:P"}, true},
		{"edit-tasks on another project", "alice", policy.ActionUpdate, []string{"edit-tasks@project:Q"}, false},
		{"project owner deletes", "powner", policy.ActionDelete, nil, true},
		{"project owner assigns", "powner", policy.ActionAssign, nil, true},
		{"assignee cannot assign", "primary", policy.ActionAssign, nil, false},
		{"assign-tasks", "alice", policy.ActionAssign, []string{"assign-tasks@project:P"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := check(t, grant(tt.grants...), resource.User{ID: tt.user, IsActive: true}, tt.action, task)
			if out.Allowed != tt.allowed {
				t.Fatalf("got allowed=%v (%s), want %v", out.Allowed, out.Reason, tt.allowed)
			}
		})
	}
}

func TestTaskWithoutProjectFallsBackToGlobal(t *testing.T) {
	task := &resource.Task{ID: "X", CreatedBy: "someone"}
	g := grant("view-tasks@global")
	out := check(t, g, alice, policy.ActionView, task)
	if !out.Allowed || out.Scope != scope.Global() {
		t.Fatalf("expected global view-tasks to allow, got %+v", out)
	}
}

func TestTaskCreate(t *testing.T) {
	p := project(nil)

	out := check(t, grant(), alice, policy.ActionCreate, &resource.Task{})
	if !out.Allowed {
		t.Fatal("task without project should be creatable")
	}

	out = check(t, grant(catalog.CreateTasks+"@global"), alice, policy.ActionCreate, &resource.Task{Project: p})
	if out.Allowed || out.Decision != policy.DecisionDenyPrecondition {
		t.Fatalf("non-member must be denied even with create-tasks, got %+v", out)
	}

	out = check(t, grant(), resource.User{ID: "pmem", IsActive: true}, policy.ActionCreate, &resource.Task{Project: p})
	if !out.Allowed {
		t.Fatal("project member should create tasks")
	}
}

func TestShortcutSkipsRBAC(t *testing.T) {
	g := grant()
	tm := team()
	out := check(t, g, resource.User{ID: "owner", IsActive: true}, policy.ActionDelete, tm)
	if !out.Allowed || out.Matched != "owner" {
		t.Fatalf("expected owner shortcut, got %+v", out)
	}
	if len(g.calls) != 0 {
		t.Fatalf("RBAC must not be consulted after a shortcut, got calls %v", g.calls)
	}
}

func TestRBACErrorPropagates(t *testing.T) {
	boom := errors.New("unknown slug")
	g := &grants{err: boom}
	rule, _ := policy.Default().Rule(resource.TypeTeam, policy.ActionView)
	_, err := policy.Evaluate(context.Background(), g, rule, alice, team())
	if !errors.Is(err, boom) {
		t.Fatalf("expected checker error, got %v", err)
	}
}

func TestCommentAndAttachmentOwnership(t *testing.T) {
	tm := team()
	task := &resource.Task{ID: "X", CreatedBy: "creator"}

	// Teams expose an owner; tasks do not.
	onTeam := &resource.Comment{ID: "c1", Author: "alice", Commentable: tm}
	onTask := &resource.Comment{ID: "c2", Author: "alice", Commentable: task}

	owner := resource.User{ID: "owner", IsActive: true}
	if out := check(t, grant(), owner, policy.ActionDelete, onTeam); !out.Allowed {
		t.Error("owner of the commented team should delete the comment")
	}
	creator := resource.User{ID: "creator", IsActive: true}
	if out := check(t, grant(), creator, policy.ActionDelete, onTask); out.Allowed {
		t.Error("task creator is not an owner and should not delete the comment")
	}
	if out := check(t, grant(), bob, policy.ActionView, onTask); !out.Allowed {
		t.Error("comments are always viewable")
	}
	if out := check(t, grant("edit-comments@global"), bob, policy.ActionUpdate, onTask); !out.Allowed {
		t.Error("global edit-comments should allow update")
	}

	att := &resource.Attachment{ID: "a1", Uploader: "alice", Attachable: project(nil)}
	if out := check(t, grant(), resource.User{ID: "powner", IsActive: true}, policy.ActionDelete, att); !out.Allowed {
		t.Error("owner of the attached project should delete the attachment")
	}
	if out := check(t, grant("delete-attachments@project:P"), bob, policy.ActionDelete, att); out.Allowed {
		t.Error("delete-attachments is a global permission")
	}
}

func TestTimeEntryAndTag(t *testing.T) {
	p := project(nil)
	entry := &resource.TimeEntry{ID: "e1", Author: "alice", Project: p}

	if out := check(t, grant(), resource.User{ID: "pmem", IsActive: true}, policy.ActionView, entry); !out.Allowed {
		t.Error("project member should view time entries")
	}
	if out := check(t, grant(), resource.User{ID: "powner", IsActive: true}, policy.ActionUpdate, entry); out.Allowed {
		t.Error("only the entry owner updates without a permission")
	}
	if out := check(t, grant(), resource.User{ID: "powner", IsActive: true}, policy.ActionDelete, entry); !out.Allowed {
		t.Error("project owner deletes time entries")
	}

	tag := &resource.Tag{ID: "g", CreatedBy: "alice"}
	if out := check(t, grant(), resource.User{ID: "root", IsOwner: true, IsActive: true}, policy.ActionDelete, tag); !out.Allowed {
		t.Error("super user deletes tags")
	}
	if out := check(t, grant(), bob, policy.ActionUpdate, tag); out.Allowed || out.Decision != policy.DecisionDenyNoShortcut {
		t.Errorf("tags have no RBAC fallback, got %+v", out)
	}
}

func TestWithOverridesCopy(t *testing.T) {
	base := policy.Default()
	custom := base.With(resource.TypeTag, policy.ActionView, policy.Rule{Permission: "view-tags"})

	if _, ok := base.Rule(resource.TypeTag, policy.ActionView); ok {
		t.Fatal("With must not mutate the receiver")
	}
	if r, ok := custom.Rule(resource.TypeTag, policy.ActionView); !ok || r.Permission != "view-tags" {
		t.Fatal("expected installed rule")
	}
}
