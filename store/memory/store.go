// Package memory provides an in-memory implementation of the taskguard
// composite store. It is intended for testing and development.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/yaseralshikh/taskguard/assignment"
	"github.com/yaseralshikh/taskguard/checklog"
	"github.com/yaseralshikh/taskguard/id"
	"github.com/yaseralshikh/taskguard/membership"
	"github.com/yaseralshikh/taskguard/permission"
	"github.com/yaseralshikh/taskguard/role"
	"github.com/yaseralshikh/taskguard/scope"
	"github.com/yaseralshikh/taskguard/store"
)

var _ store.Store = (*Store)(nil)

// Store is a thread-safe in-memory store. A single lock guards every map,
// which makes each method atomic with respect to the others.
type Store struct {
	mu sync.RWMutex

	roles           map[string]*role.Role
	permissions     map[string]*permission.Permission
	rolePermissions map[string]map[string]struct{} // roleID -> set of permIDs
	assignments     map[string]*assignment.Assignment
	members         map[string]*membership.Member // memberKey -> row
	checkLogs       map[string]*checklog.Entry

	now func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		roles:           make(map[string]*role.Role),
		permissions:     make(map[string]*permission.Permission),
		rolePermissions: make(map[string]map[string]struct{}),
		assignments:     make(map[string]*assignment.Assignment),
		members:         make(map[string]*membership.Member),
		checkLogs:       make(map[string]*checklog.Entry),
		now:             time.Now,
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Role Store
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(_ context.Context, r *role.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.roles {
		if existing.TenantID == r.TenantID && existing.Slug == r.Slug {
			return fmt.Errorf("role slug %q: %w", r.Slug, store.ErrConflict)
		}
	}
	s.roles[r.ID.String()] = copyRole(r)
	return nil
}

func (s *Store) GetRole(_ context.Context, roleID id.RoleID) (*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[roleID.String()]
	if !ok {
		return nil, fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
	}
	return copyRole(r), nil
}

func (s *Store) GetRoleBySlug(_ context.Context, tenantID, slug string) (*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.roles {
		if r.TenantID == tenantID && r.Slug == slug {
			return copyRole(r), nil
		}
	}
	return nil, fmt.Errorf("role slug %q: %w", slug, store.ErrNotFound)
}

func (s *Store) UpdateRole(_ context.Context, r *role.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[r.ID.String()]; !ok {
		return fmt.Errorf("role %s: %w", r.ID, store.ErrNotFound)
	}
	s.roles[r.ID.String()] = copyRole(r)
	return nil
}

func (s *Store) DeleteRole(_ context.Context, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[roleID.String()]; !ok {
		return fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
	}
	delete(s.roles, roleID.String())
	delete(s.rolePermissions, roleID.String())
	return nil
}

func (s *Store) ListRoles(_ context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*role.Role, 0, len(s.roles))
	for _, r := range s.roles {
		if filter != nil {
			if filter.TenantID != "" && r.TenantID != filter.TenantID {
				continue
			}
			if filter.IsSystem != nil && r.IsSystem != *filter.IsSystem {
				continue
			}
			if filter.Search != "" && !containsFold(r.Name, filter.Search) && !containsFold(r.Slug, filter.Search) {
				continue
			}
		}
		result = append(result, copyRole(r))
	}
	slices.SortFunc(result, func(a, b *role.Role) int { return cmp.Compare(a.Slug, b.Slug) })
	if filter == nil {
		return result, nil
	}
	return paginate(result, filter.Limit, filter.Offset), nil
}

func (s *Store) CountRoles(ctx context.Context, filter *role.ListFilter) (int64, error) {
	var f role.ListFilter
	if filter != nil {
		f = *filter
	}
	f.Limit, f.Offset = 0, 0
	list, err := s.ListRoles(ctx, &f)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) RoleHasPermission(_ context.Context, roleIDs []id.RoleID, permID id.PermissionID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rid := range roleIDs {
		if _, ok := s.rolePermissions[rid.String()][permID.String()]; ok {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) AttachPermission(_ context.Context, roleID id.RoleID, permID id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := roleID.String()
	if s.rolePermissions[key] == nil {
		s.rolePermissions[key] = make(map[string]struct{})
	}
	s.rolePermissions[key][permID.String()] = struct{}{}
	return nil
}

func (s *Store) DetachPermission(_ context.Context, roleID id.RoleID, permID id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rolePermissions[roleID.String()], permID.String())
	return nil
}

func (s *Store) SetRolePermissions(_ context.Context, roleID id.RoleID, permIDs []id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := make(map[string]struct{}, len(permIDs))
	for _, pid := range permIDs {
		set[pid.String()] = struct{}{}
	}
	s.rolePermissions[roleID.String()] = set
	return nil
}

func (s *Store) DeleteRolesByTenant(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, r := range s.roles {
		if r.TenantID == tenantID {
			delete(s.roles, k)
			delete(s.rolePermissions, k)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Permission Store
// ──────────────────────────────────────────────────

func (s *Store) CreatePermission(_ context.Context, p *permission.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.permissions {
		if existing.TenantID == p.TenantID && existing.Slug == p.Slug {
			return fmt.Errorf("permission slug %q: %w", p.Slug, store.ErrConflict)
		}
	}
	s.permissions[p.ID.String()] = copyPermission(p)
	return nil
}

func (s *Store) GetPermissionBySlug(_ context.Context, tenantID, slug string) (*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.permissions {
		if p.TenantID == tenantID && p.Slug == slug {
			return copyPermission(p), nil
		}
	}
	return nil, fmt.Errorf("permission slug %q: %w", slug, store.ErrNotFound)
}

func (s *Store) ListPermissions(_ context.Context, filter *permission.ListFilter) ([]*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*permission.Permission, 0, len(s.permissions))
	for _, p := range s.permissions {
		if filter != nil {
			if filter.TenantID != "" && p.TenantID != filter.TenantID {
				continue
			}
			if filter.Group != "" && p.Group != filter.Group {
				continue
			}
			if filter.Search != "" && !containsFold(p.Name, filter.Search) && !containsFold(p.Slug, filter.Search) {
				continue
			}
		}
		result = append(result, copyPermission(p))
	}
	sortPermissions(result)
	if filter == nil {
		return result, nil
	}
	return paginate(result, filter.Limit, filter.Offset), nil
}

func (s *Store) CountPermissions(ctx context.Context, filter *permission.ListFilter) (int64, error) {
	var f permission.ListFilter
	if filter != nil {
		f = *filter
	}
	f.Limit, f.Offset = 0, 0
	list, err := s.ListPermissions(ctx, &f)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) ListPermissionsByRole(_ context.Context, roleID id.RoleID) ([]*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.rolePermissions[roleID.String()]
	result := make([]*permission.Permission, 0, len(set))
	for permID := range set {
		if p, ok := s.permissions[permID]; ok {
			result = append(result, copyPermission(p))
		}
	}
	sortPermissions(result)
	return result, nil
}

func (s *Store) DeletePermissionsByTenant(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, p := range s.permissions {
		if p.TenantID == tenantID {
			delete(s.permissions, k)
			for _, set := range s.rolePermissions {
				delete(set, k)
			}
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Assignment Store
// ──────────────────────────────────────────────────

func (s *Store) CreateAssignment(_ context.Context, a *assignment.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := a.Key()
	for _, existing := range s.assignments {
		if existing.Key() == key {
			return fmt.Errorf("assignment %s: %w", key, store.ErrConflict)
		}
	}
	s.assignments[a.ID.String()] = copyAssignment(a)
	return nil
}

func (s *Store) GetAssignment(_ context.Context, assID id.AssignmentID) (*assignment.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assignments[assID.String()]
	if !ok {
		return nil, fmt.Errorf("assignment %s: %w", assID, store.ErrNotFound)
	}
	return copyAssignment(a), nil
}

func (s *Store) DeleteAssignment(_ context.Context, assID id.AssignmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assignments[assID.String()]; !ok {
		return fmt.Errorf("assignment %s: %w", assID, store.ErrNotFound)
	}
	delete(s.assignments, assID.String())
	return nil
}

func (s *Store) ListAssignments(_ context.Context, filter *assignment.ListFilter) ([]*assignment.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*assignment.Assignment, 0)
	for _, a := range s.assignments {
		if filter != nil {
			if filter.TenantID != "" && a.TenantID != filter.TenantID {
				continue
			}
			if filter.RoleID != nil && a.RoleID != *filter.RoleID {
				continue
			}
			if filter.UserID != "" && a.UserID != filter.UserID {
				continue
			}
			if filter.Scope != nil && a.Scope != *filter.Scope {
				continue
			}
		}
		result = append(result, copyAssignment(a))
	}
	sortAssignments(result)
	if filter == nil {
		return result, nil
	}
	return paginate(result, filter.Limit, filter.Offset), nil
}

func (s *Store) CountAssignments(ctx context.Context, filter *assignment.ListFilter) (int64, error) {
	var f assignment.ListFilter
	if filter != nil {
		f = *filter
	}
	f.Limit, f.Offset = 0, 0
	list, err := s.ListAssignments(ctx, &f)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) ListApplicableAssignments(_ context.Context, tenantID, userID string, target scope.Scope) ([]*assignment.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*assignment.Assignment
	for _, a := range s.assignments {
		if a.TenantID != tenantID || a.UserID != userID {
			continue
		}
		if a.Malformed || a.Scope.Covers(target) {
			result = append(result, copyAssignment(a))
		}
	}
	sortAssignments(result)
	return result, nil
}

func (s *Store) DeleteUserRole(_ context.Context, tenantID, userID string, roleID id.RoleID, sc scope.Scope) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, a := range s.assignments {
		if a.TenantID == tenantID && a.UserID == userID && a.RoleID == roleID && a.Scope == sc {
			delete(s.assignments, k)
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteAssignmentsByScope(_ context.Context, tenantID string, sc scope.Scope) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, a := range s.assignments {
		if a.TenantID == tenantID && a.Scope == sc {
			delete(s.assignments, k)
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteAssignmentsByRole(_ context.Context, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, a := range s.assignments {
		if a.RoleID == roleID {
			delete(s.assignments, k)
		}
	}
	return nil
}

func (s *Store) DeleteAssignmentsByUser(_ context.Context, tenantID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, a := range s.assignments {
		if a.TenantID == tenantID && a.UserID == userID {
			delete(s.assignments, k)
		}
	}
	return nil
}

func (s *Store) DeleteAssignmentsByTenant(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, a := range s.assignments {
		if a.TenantID == tenantID {
			delete(s.assignments, k)
		}
	}
	return nil
}

// PutRawAssignment stores a without the uniqueness check. Tests use it to
// simulate rows written by other tools, including half-scoped ones.
func (s *Store) PutRawAssignment(a *assignment.Assignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[a.ID.String()] = copyAssignment(a)
}

// ──────────────────────────────────────────────────
// Membership Store
// ──────────────────────────────────────────────────

func memberKey(tenantID string, sc scope.Scope, userID string) string {
	return tenantID + "|" + sc.String() + "|" + userID
}

func (s *Store) UpsertMember(_ context.Context, m *membership.Member) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memberKey(m.TenantID, m.Scope, m.UserID)
	existing, ok := s.members[key]
	switch {
	case !ok:
		s.members[key] = copyMember(m)
		return true, nil
	case existing.Active():
		return false, nil
	default:
		existing.DeletedAt = nil
		existing.Role = m.Role
		existing.UpdatedAt = s.now().UTC()
		*m = *copyMember(existing)
		return true, nil
	}
}

func (s *Store) GetMember(_ context.Context, tenantID string, sc scope.Scope, userID string) (*membership.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[memberKey(tenantID, sc, userID)]
	if !ok || !m.Active() {
		return nil, fmt.Errorf("member %s in %s: %w", userID, sc, store.ErrNotFound)
	}
	return copyMember(m), nil
}

func (s *Store) UpdateMemberRole(_ context.Context, tenantID string, sc scope.Scope, userID string, tag membership.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[memberKey(tenantID, sc, userID)]
	if !ok || !m.Active() {
		return fmt.Errorf("member %s in %s: %w", userID, sc, store.ErrNotFound)
	}
	m.Role = tag
	m.UpdatedAt = s.now().UTC()
	return nil
}

func (s *Store) RemoveMember(_ context.Context, tenantID string, sc scope.Scope, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[memberKey(tenantID, sc, userID)]
	if !ok || !m.Active() {
		return false, nil
	}
	now := s.now().UTC()
	m.DeletedAt = &now
	m.UpdatedAt = now
	return true, nil
}

func (s *Store) ListMembers(_ context.Context, filter *membership.ListFilter) ([]*membership.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*membership.Member, 0)
	for _, m := range s.members {
		if filter != nil {
			if filter.TenantID != "" && m.TenantID != filter.TenantID {
				continue
			}
			if filter.Scope != nil && m.Scope != *filter.Scope {
				continue
			}
			if filter.UserID != "" && m.UserID != filter.UserID {
				continue
			}
			if filter.Role != "" && m.Role != filter.Role {
				continue
			}
			if !filter.IncludeDeleted && !m.Active() {
				continue
			}
		} else if !m.Active() {
			continue
		}
		result = append(result, copyMember(m))
	}
	slices.SortFunc(result, func(a, b *membership.Member) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
	if filter == nil {
		return result, nil
	}
	return paginate(result, filter.Limit, filter.Offset), nil
}

func (s *Store) CountMembers(_ context.Context, tenantID string, sc scope.Scope) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, m := range s.members {
		if m.TenantID == tenantID && m.Scope == sc && m.Active() {
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteMembersByScope(_ context.Context, tenantID string, sc scope.Scope) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, m := range s.members {
		if m.TenantID == tenantID && m.Scope == sc {
			delete(s.members, k)
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteMembersByTenant(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, m := range s.members {
		if m.TenantID == tenantID {
			delete(s.members, k)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// CheckLog Store
// ──────────────────────────────────────────────────

func (s *Store) CreateCheckLog(_ context.Context, e *checklog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.checkLogs[e.ID.String()] = &cp
	return nil
}

func (s *Store) GetCheckLog(_ context.Context, logID id.CheckLogID) (*checklog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.checkLogs[logID.String()]
	if !ok {
		return nil, fmt.Errorf("check log %s: %w", logID, store.ErrNotFound)
	}
	cp := *e
	return &cp, nil
}

func (s *Store) ListCheckLogs(_ context.Context, filter *checklog.QueryFilter) ([]*checklog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*checklog.Entry, 0)
	for _, e := range s.checkLogs {
		if filter != nil && !matchCheckLog(e, filter) {
			continue
		}
		cp := *e
		result = append(result, &cp)
	}
	slices.SortFunc(result, func(a, b *checklog.Entry) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID.String(), a.ID.String())
	})
	if filter == nil {
		return result, nil
	}
	return paginate(result, filter.Limit, filter.Offset), nil
}

func (s *Store) CountCheckLogs(_ context.Context, filter *checklog.QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, e := range s.checkLogs {
		if filter == nil || matchCheckLog(e, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) PurgeCheckLogs(_ context.Context, tenantID string, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, e := range s.checkLogs {
		if e.TenantID == tenantID && e.CreatedAt.Before(before) {
			delete(s.checkLogs, k)
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteCheckLogsByTenant(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.checkLogs {
		if e.TenantID == tenantID {
			delete(s.checkLogs, k)
		}
	}
	return nil
}

func matchCheckLog(e *checklog.Entry, f *checklog.QueryFilter) bool {
	switch {
	case f.TenantID != "" && e.TenantID != f.TenantID,
		f.UserID != "" && e.UserID != f.UserID,
		f.Action != "" && e.Action != f.Action,
		f.ResourceType != "" && e.ResourceType != f.ResourceType,
		f.ResourceID != "" && e.ResourceID != f.ResourceID,
		f.Decision != "" && e.Decision != f.Decision,
		f.After != nil && !e.CreatedAt.After(*f.After),
		f.Before != nil && !e.CreatedAt.Before(*f.Before):
		return false
	}
	return true
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func copyRole(r *role.Role) *role.Role {
	cp := *r
	cp.Metadata = copyMap(r.Metadata)
	return &cp
}

func copyPermission(p *permission.Permission) *permission.Permission {
	cp := *p
	cp.Metadata = copyMap(p.Metadata)
	return &cp
}

func copyAssignment(a *assignment.Assignment) *assignment.Assignment {
	cp := *a
	return &cp
}

func copyMember(m *membership.Member) *membership.Member {
	cp := *m
	if m.DeletedAt != nil {
		t := *m.DeletedAt
		cp.DeletedAt = &t
	}
	return &cp
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

func sortPermissions(ps []*permission.Permission) {
	slices.SortFunc(ps, func(a, b *permission.Permission) int {
		if c := cmp.Compare(a.Group, b.Group); c != 0 {
			return c
		}
		return cmp.Compare(a.Slug, b.Slug)
	})
}

func sortAssignments(as []*assignment.Assignment) {
	slices.SortFunc(as, func(a, b *assignment.Assignment) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func paginate[T any](items []*T, limit, offset int) []*T {
	if offset > 0 && offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
