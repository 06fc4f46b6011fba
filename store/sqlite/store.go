// Package sqlite provides a SQLite implementation of the taskguard
// composite store using grove ORM with Go-based migrations.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/yaseralshikh/taskguard/assignment"
	"github.com/yaseralshikh/taskguard/checklog"
	"github.com/yaseralshikh/taskguard/id"
	"github.com/yaseralshikh/taskguard/membership"
	"github.com/yaseralshikh/taskguard/permission"
	"github.com/yaseralshikh/taskguard/role"
	"github.com/yaseralshikh/taskguard/scope"
	"github.com/yaseralshikh/taskguard/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a SQLite implementation of the composite taskguard store.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("taskguard/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("taskguard/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

type rowsResult interface {
	RowsAffected() (int64, error)
}

// affected reads RowsAffected from an exec result.
func affected(res rowsResult) (int64, error) {
	if res == nil {
		return 0, nil
	}
	return res.RowsAffected()
}

// scopeWhere matches the nullable entity columns of an assignment exactly.
func scopeWhere(sc scope.Scope) (string, []any) {
	if sc.IsGlobal() {
		return "entity_type IS NULL AND entity_id IS NULL", nil
	}
	return "entity_type = ? AND entity_id = ?", []any{string(sc.Kind()), sc.ID()}
}

// ──────────────────────────────────────────────────
// Role operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(ctx context.Context, r *role.Role) error {
	m, err := roleToModel(r)
	if err != nil {
		return fmt.Errorf("taskguard: create role: %w", err)
	}
	res, err := s.sdb.NewInsert(m).
		OnConflict("(tenant_id, slug) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: create role: %w", err)
	}
	if n, err := affected(res); err == nil && n == 0 {
		return fmt.Errorf("role slug %q: %w", r.Slug, store.ErrConflict)
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, roleID id.RoleID) (*role.Role, error) {
	m := new(roleModel)
	err := s.sdb.NewSelect(m).Where("id = ?", roleID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("taskguard: get role: %w", err)
	}
	r, err := roleFromModel(m)
	if err != nil {
		return nil, fmt.Errorf("taskguard: get role: %w", err)
	}
	return r, nil
}

func (s *Store) GetRoleBySlug(ctx context.Context, tenantID, slug string) (*role.Role, error) {
	m := new(roleModel)
	err := s.sdb.NewSelect(m).
		Where("tenant_id = ?", tenantID).
		Where("slug = ?", slug).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("role slug %q: %w", slug, store.ErrNotFound)
		}
		return nil, fmt.Errorf("taskguard: get role by slug: %w", err)
	}
	r, err := roleFromModel(m)
	if err != nil {
		return nil, fmt.Errorf("taskguard: get role by slug: %w", err)
	}
	return r, nil
}

func (s *Store) UpdateRole(ctx context.Context, r *role.Role) error {
	m, err := roleToModel(r)
	if err != nil {
		return fmt.Errorf("taskguard: update role: %w", err)
	}
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: update role: %w", err)
	}
	if n, err := affected(res); err == nil && n == 0 {
		return fmt.Errorf("role %s: %w", r.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.sdb.NewDelete((*roleModel)(nil)).
		Where("id = ?", roleID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: delete role: %w", err)
	}
	return nil
}

func (s *Store) ListRoles(ctx context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	var models []roleModel
	q := s.sdb.NewSelect(&models).OrderExpr("slug ASC")
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.IsSystem != nil {
			q = q.Where("is_system = ?", *filter.IsSystem)
		}
		if filter.Search != "" {
			q = q.Where("(LOWER(name) LIKE LOWER(?) OR LOWER(slug) LIKE LOWER(?))", "%"+filter.Search+"%", "%"+filter.Search+"%")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("taskguard: list roles: %w", err)
	}
	result := make([]*role.Role, len(models))
	for i := range models {
		r, err := roleFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("taskguard: list roles: %w", err)
		}
		result[i] = r
	}
	return result, nil
}

func (s *Store) CountRoles(ctx context.Context, filter *role.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*roleModel)(nil))
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.IsSystem != nil {
			q = q.Where("is_system = ?", *filter.IsSystem)
		}
		if filter.Search != "" {
			q = q.Where("(LOWER(name) LIKE LOWER(?) OR LOWER(slug) LIKE LOWER(?))", "%"+filter.Search+"%", "%"+filter.Search+"%")
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("taskguard: count roles: %w", err)
	}
	return count, nil
}

func (s *Store) RoleHasPermission(ctx context.Context, roleIDs []id.RoleID, permID id.PermissionID) (bool, error) {
	if len(roleIDs) == 0 {
		return false, nil
	}
	ids := make([]string, len(roleIDs))
	for i, rid := range roleIDs {
		ids[i] = rid.String()
	}
	count, err := s.sdb.NewSelect((*rolePermissionModel)(nil)).
		Where("role_id IN (?)", ids).
		Where("permission_id = ?", permID.String()).
		Count(ctx)
	if err != nil {
		return false, fmt.Errorf("taskguard: role has permission: %w", err)
	}
	return count > 0, nil
}

func (s *Store) AttachPermission(ctx context.Context, roleID id.RoleID, permID id.PermissionID) error {
	m := &rolePermissionModel{
		RoleID:       roleID.String(),
		PermissionID: permID.String(),
	}
	_, err := s.sdb.NewInsert(m).
		OnConflict("(role_id, permission_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: attach permission: %w", err)
	}
	return nil
}

func (s *Store) DetachPermission(ctx context.Context, roleID id.RoleID, permID id.PermissionID) error {
	_, err := s.sdb.NewDelete((*rolePermissionModel)(nil)).
		Where("role_id = ?", roleID.String()).
		Where("permission_id = ?", permID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: detach permission: %w", err)
	}
	return nil
}

func (s *Store) SetRolePermissions(ctx context.Context, roleID id.RoleID, permIDs []id.PermissionID) error {
	tx, err := s.sdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("taskguard: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	_, err = tx.NewDelete((*rolePermissionModel)(nil)).
		Where("role_id = ?", roleID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: clear role permissions: %w", err)
	}

	if len(permIDs) > 0 {
		models := make([]rolePermissionModel, len(permIDs))
		for i, pid := range permIDs {
			models[i] = rolePermissionModel{
				RoleID:       roleID.String(),
				PermissionID: pid.String(),
			}
		}
		_, err = tx.NewInsert(&models).
			OnConflict("(role_id, permission_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("taskguard: set role permissions: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("taskguard: commit tx: %w", err)
	}
	return nil
}

func (s *Store) DeleteRolesByTenant(ctx context.Context, tenantID string) error {
	_, err := s.sdb.NewDelete((*roleModel)(nil)).
		Where("tenant_id = ?", tenantID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: delete roles by tenant: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Permission operations
// ──────────────────────────────────────────────────

func (s *Store) CreatePermission(ctx context.Context, p *permission.Permission) error {
	m, err := permissionToModel(p)
	if err != nil {
		return fmt.Errorf("taskguard: create permission: %w", err)
	}
	res, err := s.sdb.NewInsert(m).
		OnConflict("(tenant_id, slug) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: create permission: %w", err)
	}
	if n, err := affected(res); err == nil && n == 0 {
		return fmt.Errorf("permission slug %q: %w", p.Slug, store.ErrConflict)
	}
	return nil
}

func (s *Store) GetPermissionBySlug(ctx context.Context, tenantID, slug string) (*permission.Permission, error) {
	m := new(permissionModel)
	err := s.sdb.NewSelect(m).
		Where("tenant_id = ?", tenantID).
		Where("slug = ?", slug).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("permission slug %q: %w", slug, store.ErrNotFound)
		}
		return nil, fmt.Errorf("taskguard: get permission by slug: %w", err)
	}
	p, err := permissionFromModel(m)
	if err != nil {
		return nil, fmt.Errorf("taskguard: get permission by slug: %w", err)
	}
	return p, nil
}

func (s *Store) ListPermissions(ctx context.Context, filter *permission.ListFilter) ([]*permission.Permission, error) {
	var models []permissionModel
	q := s.sdb.NewSelect(&models).OrderExpr("group_name ASC, slug ASC")
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.Group != "" {
			q = q.Where("group_name = ?", filter.Group)
		}
		if filter.Search != "" {
			q = q.Where("(LOWER(name) LIKE LOWER(?) OR LOWER(slug) LIKE LOWER(?))", "%"+filter.Search+"%", "%"+filter.Search+"%")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("taskguard: list permissions: %w", err)
	}
	return permissionsFromModels(models)
}

func (s *Store) CountPermissions(ctx context.Context, filter *permission.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*permissionModel)(nil))
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.Group != "" {
			q = q.Where("group_name = ?", filter.Group)
		}
		if filter.Search != "" {
			q = q.Where("(LOWER(name) LIKE LOWER(?) OR LOWER(slug) LIKE LOWER(?))", "%"+filter.Search+"%", "%"+filter.Search+"%")
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("taskguard: count permissions: %w", err)
	}
	return count, nil
}

func (s *Store) ListPermissionsByRole(ctx context.Context, roleID id.RoleID) ([]*permission.Permission, error) {
	var rpModels []rolePermissionModel
	err := s.sdb.NewSelect(&rpModels).
		Where("role_id = ?", roleID.String()).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("taskguard: list permissions by role: %w", err)
	}
	if len(rpModels) == 0 {
		return []*permission.Permission{}, nil
	}
	permIDs := make([]string, len(rpModels))
	for i, rp := range rpModels {
		permIDs[i] = rp.PermissionID
	}

	var models []permissionModel
	err = s.sdb.NewSelect(&models).
		Where("id IN (?)", permIDs).
		OrderExpr("group_name ASC, slug ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("taskguard: list permissions by role: %w", err)
	}
	return permissionsFromModels(models)
}

func permissionsFromModels(models []permissionModel) ([]*permission.Permission, error) {
	result := make([]*permission.Permission, len(models))
	for i := range models {
		p, err := permissionFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("taskguard: list permissions: %w", err)
		}
		result[i] = p
	}
	return result, nil
}

func (s *Store) DeletePermissionsByTenant(ctx context.Context, tenantID string) error {
	_, err := s.sdb.NewDelete((*permissionModel)(nil)).
		Where("tenant_id = ?", tenantID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: delete permissions by tenant: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Assignment operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAssignment(ctx context.Context, a *assignment.Assignment) error {
	res, err := s.sdb.NewInsert(assignmentToModel(a)).
		OnConflict("DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: create assignment: %w", err)
	}
	if n, err := affected(res); err == nil && n == 0 {
		return fmt.Errorf("assignment %s: %w", a.Key(), store.ErrConflict)
	}
	return nil
}

func (s *Store) GetAssignment(ctx context.Context, assID id.AssignmentID) (*assignment.Assignment, error) {
	m := new(assignmentModel)
	err := s.sdb.NewSelect(m).Where("id = ?", assID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("assignment %s: %w", assID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("taskguard: get assignment: %w", err)
	}
	return assignmentFromModel(m), nil
}

func (s *Store) DeleteAssignment(ctx context.Context, assID id.AssignmentID) error {
	res, err := s.sdb.NewDelete((*assignmentModel)(nil)).
		Where("id = ?", assID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: delete assignment: %w", err)
	}
	if n, err := affected(res); err == nil && n == 0 {
		return fmt.Errorf("assignment %s: %w", assID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListAssignments(ctx context.Context, filter *assignment.ListFilter) ([]*assignment.Assignment, error) {
	var models []assignmentModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC, id ASC")
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.RoleID != nil {
			q = q.Where("role_id = ?", filter.RoleID.String())
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.Scope != nil {
			clause, args := scopeWhere(*filter.Scope)
			q = q.Where(clause, args...)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("taskguard: list assignments: %w", err)
	}
	return assignmentsFromModels(models), nil
}

func (s *Store) CountAssignments(ctx context.Context, filter *assignment.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*assignmentModel)(nil))
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.RoleID != nil {
			q = q.Where("role_id = ?", filter.RoleID.String())
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.Scope != nil {
			clause, args := scopeWhere(*filter.Scope)
			q = q.Where(clause, args...)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("taskguard: count assignments: %w", err)
	}
	return count, nil
}

// ListApplicableAssignments returns global rows, half-scoped rows and rows
// scoped exactly to target. The engine reports the half-scoped ones.
func (s *Store) ListApplicableAssignments(ctx context.Context, tenantID, userID string, target scope.Scope) ([]*assignment.Assignment, error) {
	var models []assignmentModel
	q := s.sdb.NewSelect(&models).
		Where("tenant_id = ?", tenantID).
		Where("user_id = ?", userID)
	if target.IsGlobal() {
		q = q.Where("(entity_type IS NULL OR entity_id IS NULL)")
	} else {
		q = q.Where("(entity_type IS NULL OR entity_id IS NULL OR (entity_type = ? AND entity_id = ?))",
			string(target.Kind()), target.ID())
	}
	if err := q.OrderExpr("created_at ASC, id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("taskguard: list applicable assignments: %w", err)
	}
	return assignmentsFromModels(models), nil
}

func assignmentsFromModels(models []assignmentModel) []*assignment.Assignment {
	result := make([]*assignment.Assignment, len(models))
	for i := range models {
		result[i] = assignmentFromModel(&models[i])
	}
	return result
}

func (s *Store) DeleteUserRole(ctx context.Context, tenantID, userID string, roleID id.RoleID, sc scope.Scope) (int64, error) {
	clause, args := scopeWhere(sc)
	res, err := s.sdb.NewDelete((*assignmentModel)(nil)).
		Where("tenant_id = ?", tenantID).
		Where("user_id = ?", userID).
		Where("role_id = ?", roleID.String()).
		Where(clause, args...).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("taskguard: delete user role: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return 0, fmt.Errorf("taskguard: delete user role rows: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteAssignmentsByScope(ctx context.Context, tenantID string, sc scope.Scope) (int64, error) {
	clause, args := scopeWhere(sc)
	res, err := s.sdb.NewDelete((*assignmentModel)(nil)).
		Where("tenant_id = ?", tenantID).
		Where(clause, args...).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("taskguard: delete assignments by scope: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return 0, fmt.Errorf("taskguard: delete assignments by scope rows: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteAssignmentsByRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.sdb.NewDelete((*assignmentModel)(nil)).
		Where("role_id = ?", roleID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: delete assignments by role: %w", err)
	}
	return nil
}

func (s *Store) DeleteAssignmentsByUser(ctx context.Context, tenantID, userID string) error {
	_, err := s.sdb.NewDelete((*assignmentModel)(nil)).
		Where("tenant_id = ?", tenantID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: delete assignments by user: %w", err)
	}
	return nil
}

func (s *Store) DeleteAssignmentsByTenant(ctx context.Context, tenantID string) error {
	_, err := s.sdb.NewDelete((*assignmentModel)(nil)).
		Where("tenant_id = ?", tenantID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: delete assignments by tenant: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Membership operations
// ──────────────────────────────────────────────────

// UpsertMember inserts, or restores a soft-deleted row. The unique key on
// (tenant, entity, user) turns a racing duplicate insert into a no-op.
func (s *Store) UpsertMember(ctx context.Context, m *membership.Member) (bool, error) {
	res, err := s.sdb.NewInsert(memberToModel(m)).
		OnConflict("(tenant_id, entity_type, entity_id, user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("taskguard: add member: %w", err)
	}
	if n, err := affected(res); err == nil && n == 1 {
		return true, nil
	}

	res, err = s.sdb.NewUpdate((*memberModel)(nil)).
		Set("deleted_at = NULL").
		Set("role = ?", string(m.Role)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("tenant_id = ?", m.TenantID).
		Where("entity_type = ?", string(m.Scope.Kind())).
		Where("entity_id = ?", m.Scope.ID()).
		Where("user_id = ?", m.UserID).
		Where("deleted_at IS NOT NULL").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("taskguard: restore member: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return false, fmt.Errorf("taskguard: restore member rows: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	restored, err := s.GetMember(ctx, m.TenantID, m.Scope, m.UserID)
	if err != nil {
		return false, err
	}
	*m = *restored
	return true, nil
}

func (s *Store) GetMember(ctx context.Context, tenantID string, sc scope.Scope, userID string) (*membership.Member, error) {
	m := new(memberModel)
	err := s.sdb.NewSelect(m).
		Where("tenant_id = ?", tenantID).
		Where("entity_type = ?", string(sc.Kind())).
		Where("entity_id = ?", sc.ID()).
		Where("user_id = ?", userID).
		Where("deleted_at IS NULL").
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("member %s in %s: %w", userID, sc, store.ErrNotFound)
		}
		return nil, fmt.Errorf("taskguard: get member: %w", err)
	}
	return memberFromModel(m)
}

func (s *Store) UpdateMemberRole(ctx context.Context, tenantID string, sc scope.Scope, userID string, tag membership.Tag) error {
	res, err := s.sdb.NewUpdate((*memberModel)(nil)).
		Set("role = ?", string(tag)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("tenant_id = ?", tenantID).
		Where("entity_type = ?", string(sc.Kind())).
		Where("entity_id = ?", sc.ID()).
		Where("user_id = ?", userID).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: update member role: %w", err)
	}
	if n, err := affected(res); err == nil && n == 0 {
		return fmt.Errorf("member %s in %s: %w", userID, sc, store.ErrNotFound)
	}
	return nil
}

func (s *Store) RemoveMember(ctx context.Context, tenantID string, sc scope.Scope, userID string) (bool, error) {
	now := time.Now().UTC()
	res, err := s.sdb.NewUpdate((*memberModel)(nil)).
		Set("deleted_at = ?", now).
		Set("updated_at = ?", now).
		Where("tenant_id = ?", tenantID).
		Where("entity_type = ?", string(sc.Kind())).
		Where("entity_id = ?", sc.ID()).
		Where("user_id = ?", userID).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("taskguard: remove member: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return false, fmt.Errorf("taskguard: remove member rows: %w", err)
	}
	return n > 0, nil
}

func (s *Store) ListMembers(ctx context.Context, filter *membership.ListFilter) ([]*membership.Member, error) {
	var models []memberModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC, user_id ASC")
	includeDeleted := false
	if filter != nil {
		includeDeleted = filter.IncludeDeleted
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.Scope != nil {
			q = q.Where("entity_type = ?", string(filter.Scope.Kind())).
				Where("entity_id = ?", filter.Scope.ID())
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.Role != "" {
			q = q.Where("role = ?", string(filter.Role))
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if !includeDeleted {
		q = q.Where("deleted_at IS NULL")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("taskguard: list members: %w", err)
	}
	result := make([]*membership.Member, len(models))
	for i := range models {
		m, err := memberFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("taskguard: list members: %w", err)
		}
		result[i] = m
	}
	return result, nil
}

func (s *Store) CountMembers(ctx context.Context, tenantID string, sc scope.Scope) (int64, error) {
	count, err := s.sdb.NewSelect((*memberModel)(nil)).
		Where("tenant_id = ?", tenantID).
		Where("entity_type = ?", string(sc.Kind())).
		Where("entity_id = ?", sc.ID()).
		Where("deleted_at IS NULL").
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("taskguard: count members: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteMembersByScope(ctx context.Context, tenantID string, sc scope.Scope) (int64, error) {
	res, err := s.sdb.NewDelete((*memberModel)(nil)).
		Where("tenant_id = ?", tenantID).
		Where("entity_type = ?", string(sc.Kind())).
		Where("entity_id = ?", sc.ID()).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("taskguard: delete members by scope: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return 0, fmt.Errorf("taskguard: delete members by scope rows: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteMembersByTenant(ctx context.Context, tenantID string) error {
	_, err := s.sdb.NewDelete((*memberModel)(nil)).
		Where("tenant_id = ?", tenantID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: delete members by tenant: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// CheckLog operations
// ──────────────────────────────────────────────────

func (s *Store) CreateCheckLog(ctx context.Context, e *checklog.Entry) error {
	if _, err := s.sdb.NewInsert(checkLogToModel(e)).Exec(ctx); err != nil {
		return fmt.Errorf("taskguard: create check log: %w", err)
	}
	return nil
}

func (s *Store) GetCheckLog(ctx context.Context, logID id.CheckLogID) (*checklog.Entry, error) {
	m := new(checkLogModel)
	err := s.sdb.NewSelect(m).Where("id = ?", logID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("check log %s: %w", logID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("taskguard: get check log: %w", err)
	}
	return checkLogFromModel(m), nil
}

func (s *Store) ListCheckLogs(ctx context.Context, filter *checklog.QueryFilter) ([]*checklog.Entry, error) {
	var models []checkLogModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at DESC, id DESC")
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.Action != "" {
			q = q.Where("action = ?", filter.Action)
		}
		if filter.ResourceType != "" {
			q = q.Where("resource_type = ?", filter.ResourceType)
		}
		if filter.ResourceID != "" {
			q = q.Where("resource_id = ?", filter.ResourceID)
		}
		if filter.Decision != "" {
			q = q.Where("decision = ?", filter.Decision)
		}
		if filter.After != nil {
			q = q.Where("created_at >= ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at <= ?", *filter.Before)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("taskguard: list check logs: %w", err)
	}
	result := make([]*checklog.Entry, len(models))
	for i := range models {
		result[i] = checkLogFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountCheckLogs(ctx context.Context, filter *checklog.QueryFilter) (int64, error) {
	q := s.sdb.NewSelect((*checkLogModel)(nil))
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.Action != "" {
			q = q.Where("action = ?", filter.Action)
		}
		if filter.ResourceType != "" {
			q = q.Where("resource_type = ?", filter.ResourceType)
		}
		if filter.ResourceID != "" {
			q = q.Where("resource_id = ?", filter.ResourceID)
		}
		if filter.Decision != "" {
			q = q.Where("decision = ?", filter.Decision)
		}
		if filter.After != nil {
			q = q.Where("created_at >= ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at <= ?", *filter.Before)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("taskguard: count check logs: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeCheckLogs(ctx context.Context, tenantID string, before time.Time) (int64, error) {
	res, err := s.sdb.NewDelete((*checkLogModel)(nil)).
		Where("tenant_id = ?", tenantID).
		Where("created_at < ?", before).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("taskguard: purge check logs: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return 0, fmt.Errorf("taskguard: purge check logs rows: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteCheckLogsByTenant(ctx context.Context, tenantID string) error {
	_, err := s.sdb.NewDelete((*checkLogModel)(nil)).
		Where("tenant_id = ?", tenantID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: delete check logs by tenant: %w", err)
	}
	return nil
}
