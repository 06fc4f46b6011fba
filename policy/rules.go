package policy

import (
	"context"

	"github.com/yaseralshikh/taskguard/catalog"
	"github.com/yaseralshikh/taskguard/resource"
	"github.com/yaseralshikh/taskguard/scope"
)

// Default returns the built-in rule table for teams, projects, tasks,
// comments, attachments, time entries and tags.
func Default() Table {
	manageTeam := Rule{
		Shortcuts:  []Predicate{ownsResource, adminOfResource},
		Permission: catalog.ManageTeamMembers,
		Scope:      ownScope,
	}
	manageProject := Rule{
		Shortcuts:  []Predicate{ownsResource, adminOfResource},
		Permission: catalog.ManageProjectMembers,
		Scope:      ownScope,
	}

	return Table{
		resource.TypeTeam: {
			ActionView: {
				Shortcuts:  []Predicate{ownsResource, memberOfResource},
				Permission: catalog.ViewTeams,
			},
			ActionCreate: {Shortcuts: []Predicate{activeUser}},
			ActionUpdate: {
				Shortcuts:  []Predicate{ownsResource, adminOfResource},
				Permission: catalog.EditTeams,
				Scope:      ownScope,
			},
			ActionDelete: {
				Shortcuts:  []Predicate{ownsResource},
				Permission: catalog.DeleteTeams,
				Scope:      ownScope,
			},
			ActionAddMember:        manageTeam,
			ActionRemoveMember:     manageTeam,
			ActionUpdateMemberRole: manageTeam,
		},

		resource.TypeProject: {
			ActionView: {
				Shortcuts:  []Predicate{ownsResource, memberOfResource, memberOfProjectTeam},
				Permission: catalog.ViewProjects,
				Scope:      projectTeamScope,
			},
			ActionCreate: {Shortcuts: []Predicate{activeUser}},
			ActionUpdate: {
				Shortcuts:  []Predicate{ownsResource, adminOfResource},
				Permission: catalog.EditProjects,
				Scope:      ownScope,
			},
			ActionDelete: {
				Shortcuts:  []Predicate{ownsResource},
				Permission: catalog.DeleteProjects,
				Scope:      ownScope,
			},
			ActionArchive: {
				Shortcuts:  []Predicate{ownsResource, adminOfResource},
				Permission: catalog.ArchiveProjects,
				Scope:      ownScope,
			},
			ActionAddMember:    manageProject,
			ActionRemoveMember: manageProject,
		},

		resource.TypeTask: {
			ActionView: {
				Shortcuts:  []Predicate{taskCreator, taskAssignedTo, taskAssignee, taskProjectMember},
				Permission: catalog.ViewTasks,
				Scope:      taskProjectScope,
			},
			ActionCreate: {
				Require:   &taskProjectMemberOrNone,
				Shortcuts: []Predicate{always},
			},
			ActionUpdate: {
				Shortcuts:  []Predicate{taskCreator, taskAssignedTo},
				Permission: catalog.EditTasks,
				Scope:      taskProjectScope,
			},
			ActionDelete: {
				Shortcuts:  []Predicate{taskCreator, taskProjectOwner},
				Permission: catalog.DeleteTasks,
				Scope:      taskProjectScope,
			},
			ActionAssign: {
				Shortcuts:  []Predicate{taskCreator, taskProjectOwner},
				Permission: catalog.AssignTasks,
				Scope:      taskProjectScope,
			},
			ActionUpdateStatus: {
				Shortcuts:  []Predicate{taskCreator, taskAssignedTo, taskAssignee},
				Permission: catalog.ChangeTaskStatus,
				Scope:      taskProjectScope,
			},
		},

		resource.TypeComment: {
			ActionView: {Shortcuts: []Predicate{always}},
			ActionUpdate: {
				Shortcuts:  []Predicate{commentAuthor},
				Permission: catalog.EditComments,
			},
			ActionDelete: {
				Shortcuts:  []Predicate{commentAuthor, commentableOwner},
				Permission: catalog.DeleteComments,
			},
		},

		resource.TypeAttachment: {
			ActionDelete: {
				Shortcuts:  []Predicate{attachmentUploader, attachableOwner},
				Permission: catalog.DeleteAttachments,
			},
		},

		resource.TypeTimeEntry: {
			ActionView: {
				Shortcuts:  []Predicate{timeEntryAuthor, timeEntryProjectMember},
				Permission: catalog.ViewTimeEntries,
				Scope:      timeEntryProjectScope,
			},
			ActionUpdate: {
				Shortcuts:  []Predicate{timeEntryAuthor},
				Permission: catalog.EditTimeEntries,
				Scope:      timeEntryProjectScope,
			},
			ActionDelete: {
				Shortcuts:  []Predicate{timeEntryAuthor, timeEntryProjectOwner},
				Permission: catalog.DeleteTimeEntries,
				Scope:      timeEntryProjectScope,
			},
		},

		resource.TypeTag: {
			ActionUpdate: {Shortcuts: []Predicate{tagCreator, superUser}},
			ActionDelete: {Shortcuts: []Predicate{tagCreator, superUser}},
		},
	}
}

// ──────────────────────────────────────────────────
// Generic predicates
// ──────────────────────────────────────────────────

var always = Predicate{Name: "always", Fn: func(context.Context, resource.User, resource.Resource) (bool, error) {
	return true, nil
}}

var activeUser = Predicate{Name: "active user", Fn: func(_ context.Context, u resource.User, _ resource.Resource) (bool, error) {
	return u.IsActive, nil
}}

var superUser = Predicate{Name: "super user", Fn: func(_ context.Context, u resource.User, _ resource.Resource) (bool, error) {
	return u.IsOwner, nil
}}

var ownsResource = Predicate{Name: "owner", Fn: func(_ context.Context, u resource.User, r resource.Resource) (bool, error) {
	return isOwner(u, r), nil
}}

var memberOfResource = Predicate{Name: "member", Fn: func(ctx context.Context, u resource.User, r resource.Resource) (bool, error) {
	m, ok := r.(resource.Memberable)
	if !ok {
		return false, nil
	}
	return m.IsMember(ctx, u.ID)
}}

var adminOfResource = Predicate{Name: "admin member", Fn: func(ctx context.Context, u resource.User, r resource.Resource) (bool, error) {
	m, ok := r.(resource.Memberable)
	if !ok {
		return false, nil
	}
	return m.IsAdminMember(ctx, u.ID)
}}

// ──────────────────────────────────────────────────
// Project predicates
// ──────────────────────────────────────────────────

var memberOfProjectTeam = Predicate{Name: "team member", Fn: func(ctx context.Context, u resource.User, r resource.Resource) (bool, error) {
	p, ok := r.(*resource.Project)
	if !ok || p.Team == nil {
		return false, nil
	}
	return p.Team.IsMember(ctx, u.ID)
}}

// ──────────────────────────────────────────────────
// Task predicates
// ──────────────────────────────────────────────────

func taskPredicate(name string, fn func(ctx context.Context, u resource.User, t *resource.Task) (bool, error)) Predicate {
	return Predicate{Name: name, Fn: func(ctx context.Context, u resource.User, r resource.Resource) (bool, error) {
		t, ok := r.(*resource.Task)
		if !ok {
			return false, nil
		}
		return fn(ctx, u, t)
	}}
}

var taskCreator = taskPredicate("creator", func(_ context.Context, u resource.User, t *resource.Task) (bool, error) {
	return t.CreatedBy != "" && t.CreatedBy == u.ID, nil
})

var taskAssignedTo = taskPredicate("assigned to", func(_ context.Context, u resource.User, t *resource.Task) (bool, error) {
	return t.AssignedTo != "" && t.AssignedTo == u.ID, nil
})

var taskAssignee = taskPredicate("assignee", func(_ context.Context, u resource.User, t *resource.Task) (bool, error) {
	return t.IsAssignee(u.ID), nil
})

var taskProjectMember = taskPredicate("project member", func(ctx context.Context, u resource.User, t *resource.Task) (bool, error) {
	if t.Project == nil {
		return false, nil
	}
	return t.Project.IsMember(ctx, u.ID)
})

var taskProjectOwner = taskPredicate("project owner", func(_ context.Context, u resource.User, t *resource.Task) (bool, error) {
	return t.Project != nil && isOwner(u, t.Project), nil
})

// A task may be created without a project; with one, the creator must
// belong to it.
var taskProjectMemberOrNone = taskPredicate("member of target project", func(ctx context.Context, u resource.User, t *resource.Task) (bool, error) {
	if t.Project == nil || isOwner(u, t.Project) {
		return true, nil
	}
	return t.Project.IsMember(ctx, u.ID)
})

// ──────────────────────────────────────────────────
// Comment, attachment, time entry and tag predicates
// ──────────────────────────────────────────────────

var commentAuthor = Predicate{Name: "author", Fn: func(_ context.Context, u resource.User, r resource.Resource) (bool, error) {
	c, ok := r.(*resource.Comment)
	return ok && c.Author != "" && c.Author == u.ID, nil
}}

var commentableOwner = Predicate{Name: "commentable owner", Fn: func(_ context.Context, u resource.User, r resource.Resource) (bool, error) {
	c, ok := r.(*resource.Comment)
	return ok && c.Commentable != nil && isOwner(u, c.Commentable), nil
}}

var attachmentUploader = Predicate{Name: "uploader", Fn: func(_ context.Context, u resource.User, r resource.Resource) (bool, error) {
	a, ok := r.(*resource.Attachment)
	return ok && a.Uploader != "" && a.Uploader == u.ID, nil
}}

var attachableOwner = Predicate{Name: "attachable owner", Fn: func(_ context.Context, u resource.User, r resource.Resource) (bool, error) {
	a, ok := r.(*resource.Attachment)
	return ok && a.Attachable != nil && isOwner(u, a.Attachable), nil
}}

var timeEntryAuthor = Predicate{Name: "entry owner", Fn: func(_ context.Context, u resource.User, r resource.Resource) (bool, error) {
	e, ok := r.(*resource.TimeEntry)
	return ok && e.Author != "" && e.Author == u.ID, nil
}}

var timeEntryProjectMember = Predicate{Name: "project member", Fn: func(ctx context.Context, u resource.User, r resource.Resource) (bool, error) {
	e, ok := r.(*resource.TimeEntry)
	if !ok || e.Project == nil {
		return false, nil
	}
	return e.Project.IsMember(ctx, u.ID)
}}

var timeEntryProjectOwner = Predicate{Name: "project owner", Fn: func(_ context.Context, u resource.User, r resource.Resource) (bool, error) {
	e, ok := r.(*resource.TimeEntry)
	return ok && e.Project != nil && isOwner(u, e.Project), nil
}}

var tagCreator = Predicate{Name: "creator", Fn: func(_ context.Context, u resource.User, r resource.Resource) (bool, error) {
	t, ok := r.(*resource.Tag)
	return ok && t.CreatedBy != "" && t.CreatedBy == u.ID, nil
}}

// ──────────────────────────────────────────────────
// Scopes
// ──────────────────────────────────────────────────

func ownScope(r resource.Resource) scope.Scope {
	if c, ok := r.(resource.Container); ok {
		return c.Scope()
	}
	return scope.Global()
}

func projectTeamScope(r resource.Resource) scope.Scope {
	if p, ok := r.(*resource.Project); ok && p.Team != nil {
		return p.Team.Scope()
	}
	return scope.Global()
}

func taskProjectScope(r resource.Resource) scope.Scope {
	if t, ok := r.(*resource.Task); ok && t.Project != nil {
		return t.Project.Scope()
	}
	return scope.Global()
}

func timeEntryProjectScope(r resource.Resource) scope.Scope {
	if e, ok := r.(*resource.TimeEntry); ok && e.Project != nil {
		return e.Project.Scope()
	}
	return scope.Global()
}

func isOwner(u resource.User, r resource.Resource) bool {
	o, ok := r.(resource.Ownable)
	return ok && u.ID != "" && o.OwnerID() == u.ID
}
