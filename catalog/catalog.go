// Package catalog describes the permission catalog and role bundles that an
// engine is seeded with, and names the permission slugs that the built-in
// policy rules consult.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Permission slugs referenced by the built-in rules.
const (
	ViewTeams         = "view-teams"
	CreateTeams       = "create-teams"
	EditTeams         = "edit-teams"
	DeleteTeams       = "delete-teams"
	ManageTeamMembers = "manage-team-members"

	ViewProjects         = "view-projects"
	CreateProjects       = "create-projects"
	EditProjects         = "edit-projects"
	DeleteProjects       = "delete-projects"
	ArchiveProjects      = "archive-projects"
	ManageProjectMembers = "manage-project-members"

	ViewTasks        = "view-tasks"
	CreateTasks      = "create-tasks"
	EditTasks        = "edit-tasks"
	DeleteTasks      = "delete-tasks"
	AssignTasks      = "assign-tasks"
	ChangeTaskStatus = "change-task-status"

	ViewComments   = "view-comments"
	CreateComments = "create-comments"
	EditComments   = "edit-comments"
	DeleteComments = "delete-comments"

	UploadAttachments = "upload-attachments"
	DeleteAttachments = "delete-attachments"

	LogTime           = "log-time"
	ViewTimeEntries   = "view-time-entries"
	EditTimeEntries   = "edit-time-entries"
	DeleteTimeEntries = "delete-time-entries"

	ViewReports   = "view-reports"
	CreateReports = "create-reports"
	ExportData    = "export-data"

	ViewUsers   = "view-users"
	ManageUsers = "manage-users"
	ManageRoles = "manage-roles"
)

// Role slugs of the default bundles.
const (
	RoleSuperAdmin     = "super-admin"
	RoleTeamOwner      = "team-owner"
	RoleTeamAdmin      = "team-admin"
	RoleTeamMember     = "team-member"
	RoleProjectManager = "project-manager"
	RoleProjectMember  = "project-member"
	RoleViewer         = "viewer"
)

// Wildcard in a role's permission list expands to every catalog slug.
const Wildcard = "*"

//go:embed default.yaml
var defaultYAML []byte

// PermissionDef is one catalog entry.
type PermissionDef struct {
	Slug        string `yaml:"slug"`
	Name        string `yaml:"name"`
	Group       string `yaml:"group"`
	Description string `yaml:"description,omitempty"`
}

// RoleDef is a role bundle.
type RoleDef struct {
	Slug        string   `yaml:"slug"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	System      bool     `yaml:"system,omitempty"`
	Permissions []string `yaml:"permissions"`
}

// Catalog is a validated set of permissions and roles.
type Catalog struct {
	Permissions []PermissionDef `yaml:"permissions"`
	Roles       []RoleDef       `yaml:"roles"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded default is invalid: %v", err))
	}
	return c
}

// Load decodes and validates a catalog from r.
func Load(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Parse is Load over a byte slice.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks slug uniqueness and that every role references known
// permissions.
func (c *Catalog) Validate() error {
	var errs []error
	perms := make(map[string]struct{}, len(c.Permissions))
	for _, p := range c.Permissions {
		if p.Slug == "" {
			errs = append(errs, errors.New("catalog: permission with empty slug"))
			continue
		}
		if _, dup := perms[p.Slug]; dup {
			errs = append(errs, fmt.Errorf("catalog: duplicate permission %q", p.Slug))
		}
		perms[p.Slug] = struct{}{}
	}

	roles := make(map[string]struct{}, len(c.Roles))
	for _, r := range c.Roles {
		if r.Slug == "" {
			errs = append(errs, errors.New("catalog: role with empty slug"))
			continue
		}
		if _, dup := roles[r.Slug]; dup {
			errs = append(errs, fmt.Errorf("catalog: duplicate role %q", r.Slug))
		}
		roles[r.Slug] = struct{}{}
		for _, slug := range r.Permissions {
			if slug == Wildcard {
				continue
			}
			if _, ok := perms[slug]; !ok {
				errs = append(errs, fmt.Errorf("catalog: role %q references unknown permission %q", r.Slug, slug))
			}
		}
	}
	return errors.Join(errs...)
}

// Expand returns the concrete permission slugs of role r, resolving the
// wildcard against the catalog.
func (c *Catalog) Expand(r RoleDef) []string {
	for _, slug := range r.Permissions {
		if slug == Wildcard {
			all := make([]string, len(c.Permissions))
			for i, p := range c.Permissions {
				all[i] = p.Slug
			}
			return all
		}
	}
	return append([]string(nil), r.Permissions...)
}

// Groups returns the distinct permission groups in catalog order.
func (c *Catalog) Groups() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range c.Permissions {
		if !seen[p.Group] {
			seen[p.Group] = true
			out = append(out, p.Group)
		}
	}
	return out
}

// Role returns the bundle with the given slug.
func (c *Catalog) Role(slug string) (RoleDef, bool) {
	for _, r := range c.Roles {
		if r.Slug == slug {
			return r, true
		}
	}
	return RoleDef{}, false
}
