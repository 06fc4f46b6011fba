// Package mongo provides a MongoDB implementation of the taskguard
// composite store on top of the grove mongo driver.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/yaseralshikh/taskguard/assignment"
	"github.com/yaseralshikh/taskguard/checklog"
	"github.com/yaseralshikh/taskguard/id"
	"github.com/yaseralshikh/taskguard/membership"
	"github.com/yaseralshikh/taskguard/permission"
	"github.com/yaseralshikh/taskguard/role"
	"github.com/yaseralshikh/taskguard/scope"
	"github.com/yaseralshikh/taskguard/store"
)

// Collection name constants.
const (
	colRoles          = "taskguard_roles"
	colPermissions    = "taskguard_permissions"
	colRolePermission = "taskguard_role_permission"
	colRoleUser       = "taskguard_role_user"
	colMemberships    = "taskguard_memberships"
	colCheckLogs      = "taskguard_check_logs"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a MongoDB implementation of the composite taskguard store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Migrate creates indexes for all taskguard collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("taskguard/mongo: migrate %s indexes: %w", col, err)
		}
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

func now() time.Time {
	return time.Now().UTC()
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all taskguard
// collections. The unique indexes carry the uniqueness rules of the
// SQL schemas.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colRoles: {
			{
				Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "slug", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "is_system", Value: 1}}},
		},
		colPermissions: {
			{
				Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "slug", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "group_name", Value: 1}}},
		},
		colRolePermission: {
			{
				Keys:    bson.D{{Key: "role_id", Value: 1}, {Key: "permission_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "permission_id", Value: 1}}},
		},
		colRoleUser: {
			{
				Keys: bson.D{
					{Key: "tenant_id", Value: 1},
					{Key: "role_id", Value: 1},
					{Key: "user_id", Value: 1},
					{Key: "entity_type", Value: 1},
					{Key: "entity_id", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "entity_type", Value: 1}, {Key: "entity_id", Value: 1}}},
			{Keys: bson.D{{Key: "role_id", Value: 1}}},
		},
		colMemberships: {
			{
				Keys: bson.D{
					{Key: "tenant_id", Value: 1},
					{Key: "entity_type", Value: 1},
					{Key: "entity_id", Value: 1},
					{Key: "user_id", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "user_id", Value: 1}}},
		},
		colCheckLogs: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "resource_type", Value: 1}, {Key: "resource_id", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "decision", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
	}
}

// scopeFilter matches the nullable entity fields of an assignment exactly.
func scopeFilter(f bson.M, sc scope.Scope) {
	if sc.IsGlobal() {
		f["entity_type"] = nil
		f["entity_id"] = nil
		return
	}
	f["entity_type"] = string(sc.Kind())
	f["entity_id"] = sc.ID()
}

func memberKey(tenantID string, sc scope.Scope, userID string) bson.M {
	return bson.M{
		"tenant_id":   tenantID,
		"entity_type": string(sc.Kind()),
		"entity_id":   sc.ID(),
		"user_id":     userID,
	}
}

func searchFilter(f bson.M, search string) {
	if search == "" {
		return
	}
	re := bson.M{"$regex": search, "$options": "i"}
	f["$or"] = bson.A{bson.M{"name": re}, bson.M{"slug": re}}
}

// ──────────────────────────────────────────────────
// Role operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(ctx context.Context, r *role.Role) error {
	if _, err := s.mdb.NewInsert(roleToModel(r)).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("role slug %q: %w", r.Slug, store.ErrConflict)
		}
		return fmt.Errorf("taskguard: create role: %w", err)
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, roleID id.RoleID) (*role.Role, error) {
	var m roleModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": roleID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("taskguard: get role: %w", err)
	}
	return roleFromModel(&m), nil
}

func (s *Store) GetRoleBySlug(ctx context.Context, tenantID, slug string) (*role.Role, error) {
	var m roleModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"tenant_id": tenantID, "slug": slug}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("role slug %q: %w", slug, store.ErrNotFound)
		}
		return nil, fmt.Errorf("taskguard: get role by slug: %w", err)
	}
	return roleFromModel(&m), nil
}

func (s *Store) UpdateRole(ctx context.Context, r *role.Role) error {
	m := roleToModel(r)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: update role: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("role %s: %w", r.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.mdb.NewDelete((*roleModel)(nil)).
		Filter(bson.M{"_id": roleID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: delete role: %w", err)
	}
	_, err = s.mdb.NewDelete((*rolePermissionModel)(nil)).
		Many().
		Filter(bson.M{"role_id": roleID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: delete role permissions: %w", err)
	}
	return nil
}

func roleFilter(filter *role.ListFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.TenantID != "" {
		f["tenant_id"] = filter.TenantID
	}
	if filter.IsSystem != nil {
		f["is_system"] = *filter.IsSystem
	}
	searchFilter(f, filter.Search)
	return f
}

func (s *Store) ListRoles(ctx context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	var models []roleModel
	q := s.mdb.NewFind(&models).
		Filter(roleFilter(filter)).
		Sort(bson.D{{Key: "slug", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("taskguard: list roles: %w", err)
	}
	result := make([]*role.Role, len(models))
	for i := range models {
		result[i] = roleFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountRoles(ctx context.Context, filter *role.ListFilter) (int64, error) {
	count, err := s.mdb.NewFind((*roleModel)(nil)).
		Filter(roleFilter(filter)).
		Count(ctx)
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
	count, err := s.mdb.NewFind((*rolePermissionModel)(nil)).
		Filter(bson.M{"role_id": bson.M{"$in": ids}, "permission_id": permID.String()}).
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
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return nil // already attached
		}
		return fmt.Errorf("taskguard: attach permission: %w", err)
	}
	return nil
}

func (s *Store) DetachPermission(ctx context.Context, roleID id.RoleID, permID id.PermissionID) error {
	_, err := s.mdb.NewDelete((*rolePermissionModel)(nil)).
		Filter(bson.M{"role_id": roleID.String(), "permission_id": permID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: detach permission: %w", err)
	}
	return nil
}

// SetRolePermissions clears and re-inserts the links. MongoDB offers no
// multi-document transaction on standalone servers, so a concurrent reader
// may briefly see an empty set.
func (s *Store) SetRolePermissions(ctx context.Context, roleID id.RoleID, permIDs []id.PermissionID) error {
	_, err := s.mdb.NewDelete((*rolePermissionModel)(nil)).
		Many().
		Filter(bson.M{"role_id": roleID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: clear role permissions: %w", err)
	}

	if len(permIDs) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(permIDs))
	models := make([]rolePermissionModel, 0, len(permIDs))
	for _, pid := range permIDs {
		if _, dup := seen[pid.String()]; dup {
			continue
		}
		seen[pid.String()] = struct{}{}
		models = append(models, rolePermissionModel{
			RoleID:       roleID.String(),
			PermissionID: pid.String(),
		})
	}
	if _, err := s.mdb.NewInsert(&models).Exec(ctx); err != nil {
		return fmt.Errorf("taskguard: set role permissions: %w", err)
	}
	return nil
}

// DeleteRolesByTenant also drops the role/permission links, which carry no
// tenant of their own.
func (s *Store) DeleteRolesByTenant(ctx context.Context, tenantID string) error {
	var models []roleModel
	if err := s.mdb.NewFind(&models).Filter(bson.M{"tenant_id": tenantID}).Scan(ctx); err != nil {
		return fmt.Errorf("taskguard: find roles by tenant: %w", err)
	}
	if len(models) == 0 {
		return nil
	}
	ids := make([]string, len(models))
	for i := range models {
		ids[i] = models[i].ID
	}
	_, err := s.mdb.NewDelete((*rolePermissionModel)(nil)).
		Many().
		Filter(bson.M{"role_id": bson.M{"$in": ids}}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: delete role permissions by tenant: %w", err)
	}
	_, err = s.mdb.NewDelete((*roleModel)(nil)).
		Many().
		Filter(bson.M{"tenant_id": tenantID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: delete roles by tenant: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Permission operations
// ──────────────────────────────────────────────────

func (s *Store) CreatePermission(ctx context.Context, p *permission.Permission) error {
	if _, err := s.mdb.NewInsert(permissionToModel(p)).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("permission slug %q: %w", p.Slug, store.ErrConflict)
		}
		return fmt.Errorf("taskguard: create permission: %w", err)
	}
	return nil
}

func (s *Store) GetPermissionBySlug(ctx context.Context, tenantID, slug string) (*permission.Permission, error) {
	var m permissionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"tenant_id": tenantID, "slug": slug}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("permission slug %q: %w", slug, store.ErrNotFound)
		}
		return nil, fmt.Errorf("taskguard: get permission by slug: %w", err)
	}
	return permissionFromModel(&m), nil
}

func permissionFilter(filter *permission.ListFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.TenantID != "" {
		f["tenant_id"] = filter.TenantID
	}
	if filter.Group != "" {
		f["group_name"] = filter.Group
	}
	searchFilter(f, filter.Search)
	return f
}

var permissionSort = bson.D{{Key: "group_name", Value: 1}, {Key: "slug", Value: 1}}

func (s *Store) ListPermissions(ctx context.Context, filter *permission.ListFilter) ([]*permission.Permission, error) {
	var models []permissionModel
	q := s.mdb.NewFind(&models).
		Filter(permissionFilter(filter)).
		Sort(permissionSort)
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("taskguard: list permissions: %w", err)
	}
	return permissionsFromModels(models), nil
}

func (s *Store) CountPermissions(ctx context.Context, filter *permission.ListFilter) (int64, error) {
	count, err := s.mdb.NewFind((*permissionModel)(nil)).
		Filter(permissionFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("taskguard: count permissions: %w", err)
	}
	return count, nil
}

func (s *Store) ListPermissionsByRole(ctx context.Context, roleID id.RoleID) ([]*permission.Permission, error) {
	var rpModels []rolePermissionModel
	if err := s.mdb.NewFind(&rpModels).
		Filter(bson.M{"role_id": roleID.String()}).
		Scan(ctx); err != nil {
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
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{"_id": bson.M{"$in": permIDs}}).
		Sort(permissionSort).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("taskguard: list permissions by role: %w", err)
	}
	return permissionsFromModels(models), nil
}

func permissionsFromModels(models []permissionModel) []*permission.Permission {
	result := make([]*permission.Permission, len(models))
	for i := range models {
		result[i] = permissionFromModel(&models[i])
	}
	return result
}

func (s *Store) DeletePermissionsByTenant(ctx context.Context, tenantID string) error {
	_, err := s.mdb.NewDelete((*permissionModel)(nil)).
		Many().
		Filter(bson.M{"tenant_id": tenantID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: delete permissions by tenant: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Assignment operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAssignment(ctx context.Context, a *assignment.Assignment) error {
	if _, err := s.mdb.NewInsert(assignmentToModel(a)).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("assignment %s: %w", a.Key(), store.ErrConflict)
		}
		return fmt.Errorf("taskguard: create assignment: %w", err)
	}
	return nil
}

func (s *Store) GetAssignment(ctx context.Context, assID id.AssignmentID) (*assignment.Assignment, error) {
	var m assignmentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": assID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("assignment %s: %w", assID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("taskguard: get assignment: %w", err)
	}
	return assignmentFromModel(&m), nil
}

func (s *Store) DeleteAssignment(ctx context.Context, assID id.AssignmentID) error {
	res, err := s.mdb.NewDelete((*assignmentModel)(nil)).
		Filter(bson.M{"_id": assID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: delete assignment: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("assignment %s: %w", assID, store.ErrNotFound)
	}
	return nil
}

func assignmentFilter(filter *assignment.ListFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.TenantID != "" {
		f["tenant_id"] = filter.TenantID
	}
	if filter.RoleID != nil {
		f["role_id"] = filter.RoleID.String()
	}
	if filter.UserID != "" {
		f["user_id"] = filter.UserID
	}
	if filter.Scope != nil {
		scopeFilter(f, *filter.Scope)
	}
	return f
}

var assignmentSort = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}

func (s *Store) ListAssignments(ctx context.Context, filter *assignment.ListFilter) ([]*assignment.Assignment, error) {
	var models []assignmentModel
	q := s.mdb.NewFind(&models).
		Filter(assignmentFilter(filter)).
		Sort(assignmentSort)
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("taskguard: list assignments: %w", err)
	}
	return assignmentsFromModels(models), nil
}

func (s *Store) CountAssignments(ctx context.Context, filter *assignment.ListFilter) (int64, error) {
	count, err := s.mdb.NewFind((*assignmentModel)(nil)).
		Filter(assignmentFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("taskguard: count assignments: %w", err)
	}
	return count, nil
}

// ListApplicableAssignments returns global rows, half-scoped rows and rows
// scoped exactly to target.
func (s *Store) ListApplicableAssignments(ctx context.Context, tenantID, userID string, target scope.Scope) ([]*assignment.Assignment, error) {
	or := bson.A{
		bson.M{"entity_type": nil},
		bson.M{"entity_id": nil},
	}
	if !target.IsGlobal() {
		or = append(or, bson.M{"entity_type": string(target.Kind()), "entity_id": target.ID()})
	}
	var models []assignmentModel
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{"tenant_id": tenantID, "user_id": userID, "$or": or}).
		Sort(assignmentSort).
		Scan(ctx); err != nil {
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
	f := bson.M{"tenant_id": tenantID, "user_id": userID, "role_id": roleID.String()}
	scopeFilter(f, sc)
	res, err := s.mdb.NewDelete((*assignmentModel)(nil)).
		Many().
		Filter(f).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("taskguard: delete user role: %w", err)
	}
	return res.DeletedCount(), nil
}

func (s *Store) DeleteAssignmentsByScope(ctx context.Context, tenantID string, sc scope.Scope) (int64, error) {
	f := bson.M{"tenant_id": tenantID}
	scopeFilter(f, sc)
	res, err := s.mdb.NewDelete((*assignmentModel)(nil)).
		Many().
		Filter(f).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("taskguard: delete assignments by scope: %w", err)
	}
	return res.DeletedCount(), nil
}

func (s *Store) DeleteAssignmentsByRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.mdb.NewDelete((*assignmentModel)(nil)).
		Many().
		Filter(bson.M{"role_id": roleID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: delete assignments by role: %w", err)
	}
	return nil
}

func (s *Store) DeleteAssignmentsByUser(ctx context.Context, tenantID, userID string) error {
	_, err := s.mdb.NewDelete((*assignmentModel)(nil)).
		Many().
		Filter(bson.M{"tenant_id": tenantID, "user_id": userID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: delete assignments by user: %w", err)
	}
	return nil
}

func (s *Store) DeleteAssignmentsByTenant(ctx context.Context, tenantID string) error {
	_, err := s.mdb.NewDelete((*assignmentModel)(nil)).
		Many().
		Filter(bson.M{"tenant_id": tenantID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: delete assignments by tenant: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Membership operations
// ──────────────────────────────────────────────────

// UpsertMember inserts, or restores a soft-deleted document. A duplicate
// key on insert means the row exists, possibly from a concurrent add.
func (s *Store) UpsertMember(ctx context.Context, m *membership.Member) (bool, error) {
	_, err := s.mdb.NewInsert(memberToModel(m)).Exec(ctx)
	if err == nil {
		return true, nil
	}
	if !mongod.IsDuplicateKeyError(err) {
		return false, fmt.Errorf("taskguard: add member: %w", err)
	}

	f := memberKey(m.TenantID, m.Scope, m.UserID)
	f["deleted_at"] = bson.M{"$ne": nil}
	res, err := s.mdb.NewUpdate((*memberModel)(nil)).
		Filter(f).
		Set("deleted_at", nil).
		Set("role", string(m.Role)).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("taskguard: restore member: %w", err)
	}
	if res.MatchedCount() == 0 {
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
	f := memberKey(tenantID, sc, userID)
	f["deleted_at"] = nil
	var m memberModel
	if err := s.mdb.NewFind(&m).Filter(f).Scan(ctx); err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("member %s in %s: %w", userID, sc, store.ErrNotFound)
		}
		return nil, fmt.Errorf("taskguard: get member: %w", err)
	}
	return memberFromModel(&m)
}

func (s *Store) UpdateMemberRole(ctx context.Context, tenantID string, sc scope.Scope, userID string, tag membership.Tag) error {
	f := memberKey(tenantID, sc, userID)
	f["deleted_at"] = nil
	res, err := s.mdb.NewUpdate((*memberModel)(nil)).
		Filter(f).
		Set("role", string(tag)).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: update member role: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("member %s in %s: %w", userID, sc, store.ErrNotFound)
	}
	return nil
}

func (s *Store) RemoveMember(ctx context.Context, tenantID string, sc scope.Scope, userID string) (bool, error) {
	f := memberKey(tenantID, sc, userID)
	f["deleted_at"] = nil
	t := now()
	res, err := s.mdb.NewUpdate((*memberModel)(nil)).
		Filter(f).
		Set("deleted_at", t).
		Set("updated_at", t).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("taskguard: remove member: %w", err)
	}
	return res.MatchedCount() > 0, nil
}

func (s *Store) ListMembers(ctx context.Context, filter *membership.ListFilter) ([]*membership.Member, error) {
	f := bson.M{}
	includeDeleted := false
	if filter != nil {
		includeDeleted = filter.IncludeDeleted
		if filter.TenantID != "" {
			f["tenant_id"] = filter.TenantID
		}
		if filter.Scope != nil {
			f["entity_type"] = string(filter.Scope.Kind())
			f["entity_id"] = filter.Scope.ID()
		}
		if filter.UserID != "" {
			f["user_id"] = filter.UserID
		}
		if filter.Role != "" {
			f["role"] = string(filter.Role)
		}
	}
	if !includeDeleted {
		f["deleted_at"] = nil
	}

	var models []memberModel
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "user_id", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
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
	count, err := s.mdb.NewFind((*memberModel)(nil)).
		Filter(bson.M{
			"tenant_id":   tenantID,
			"entity_type": string(sc.Kind()),
			"entity_id":   sc.ID(),
			"deleted_at":  nil,
		}).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("taskguard: count members: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteMembersByScope(ctx context.Context, tenantID string, sc scope.Scope) (int64, error) {
	res, err := s.mdb.NewDelete((*memberModel)(nil)).
		Many().
		Filter(bson.M{
			"tenant_id":   tenantID,
			"entity_type": string(sc.Kind()),
			"entity_id":   sc.ID(),
		}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("taskguard: delete members by scope: %w", err)
	}
	return res.DeletedCount(), nil
}

func (s *Store) DeleteMembersByTenant(ctx context.Context, tenantID string) error {
	_, err := s.mdb.NewDelete((*memberModel)(nil)).
		Many().
		Filter(bson.M{"tenant_id": tenantID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: delete members by tenant: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// CheckLog operations
// ──────────────────────────────────────────────────

func (s *Store) CreateCheckLog(ctx context.Context, e *checklog.Entry) error {
	if _, err := s.mdb.NewInsert(checkLogToModel(e)).Exec(ctx); err != nil {
		return fmt.Errorf("taskguard: create check log: %w", err)
	}
	return nil
}

func (s *Store) GetCheckLog(ctx context.Context, logID id.CheckLogID) (*checklog.Entry, error) {
	var m checkLogModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": logID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("check log %s: %w", logID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("taskguard: get check log: %w", err)
	}
	return checkLogFromModel(&m), nil
}

func checkLogFilter(filter *checklog.QueryFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.TenantID != "" {
		f["tenant_id"] = filter.TenantID
	}
	if filter.UserID != "" {
		f["user_id"] = filter.UserID
	}
	if filter.Action != "" {
		f["action"] = filter.Action
	}
	if filter.ResourceType != "" {
		f["resource_type"] = filter.ResourceType
	}
	if filter.ResourceID != "" {
		f["resource_id"] = filter.ResourceID
	}
	if filter.Decision != "" {
		f["decision"] = filter.Decision
	}
	if filter.After != nil || filter.Before != nil {
		dateFilter := bson.M{}
		if filter.After != nil {
			dateFilter["$gte"] = *filter.After
		}
		if filter.Before != nil {
			dateFilter["$lte"] = *filter.Before
		}
		f["created_at"] = dateFilter
	}
	return f
}

func (s *Store) ListCheckLogs(ctx context.Context, filter *checklog.QueryFilter) ([]*checklog.Entry, error) {
	var models []checkLogModel
	q := s.mdb.NewFind(&models).
		Filter(checkLogFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	count, err := s.mdb.NewFind((*checkLogModel)(nil)).
		Filter(checkLogFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("taskguard: count check logs: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeCheckLogs(ctx context.Context, tenantID string, before time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*checkLogModel)(nil)).
		Many().
		Filter(bson.M{"tenant_id": tenantID, "created_at": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("taskguard: purge check logs: %w", err)
	}
	return res.DeletedCount(), nil
}

func (s *Store) DeleteCheckLogsByTenant(ctx context.Context, tenantID string) error {
	_, err := s.mdb.NewDelete((*checkLogModel)(nil)).
		Many().
		Filter(bson.M{"tenant_id": tenantID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskguard: delete check logs by tenant: %w", err)
	}
	return nil
}
