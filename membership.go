package taskguard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yaseralshikh/taskguard/id"
	"github.com/yaseralshikh/taskguard/membership"
	"github.com/yaseralshikh/taskguard/resource"
	"github.com/yaseralshikh/taskguard/scope"
	"github.com/yaseralshikh/taskguard/store"
)

// Team returns a team view whose membership lookups go through the engine.
// maxMembers nil means unlimited.
func (e *Engine) Team(teamID, ownerID string, maxMembers *int) *resource.Team {
	return &resource.Team{ID: teamID, Owner: ownerID, MaxMembers: maxMembers, Roster: roster{e}}
}

// Project returns a project view whose membership lookups go through the
// engine. team may be nil.
func (e *Engine) Project(projectID, ownerID string, team *resource.Team) *resource.Project {
	return &resource.Project{ID: projectID, Owner: ownerID, Team: team, Roster: roster{e}}
}

// roster adapts the engine to resource.Roster for the tenant in ctx.
type roster struct{ e *Engine }

func (r roster) IsMember(ctx context.Context, sc scope.Scope, userID string) (bool, error) {
	m, err := r.e.activeMember(ctx, sc, userID)
	return m != nil, err
}

func (r roster) IsAdminMember(ctx context.Context, sc scope.Scope, userID string) (bool, error) {
	m, err := r.e.activeMember(ctx, sc, userID)
	return m != nil && m.Role == membership.TagAdmin, err
}

func (e *Engine) activeMember(ctx context.Context, sc scope.Scope, userID string) (*membership.Member, error) {
	if userID == "" {
		return nil, nil
	}
	t := tenantFromContext(ctx)
	m, err := e.store.GetMember(ctx, t.tenantID, sc, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// IsMember reports whether userID is an active member of res. Owners are
// not members unless they also hold a roster row.
func (e *Engine) IsMember(ctx context.Context, res resource.Container, userID string) (bool, error) {
	return roster{e}.IsMember(ctx, res.Scope(), userID)
}

// IsAdminMember reports whether userID is an active admin-tagged member.
func (e *Engine) IsAdminMember(ctx context.Context, res resource.Container, userID string) (bool, error) {
	return roster{e}.IsAdminMember(ctx, res.Scope(), userID)
}

// ListMembers returns the active members of res.
func (e *Engine) ListMembers(ctx context.Context, res resource.Container) ([]*membership.Member, error) {
	t := tenantFromContext(ctx)
	sc := res.Scope()
	return e.store.ListMembers(ctx, &membership.ListFilter{TenantID: t.tenantID, Scope: &sc})
}

// CanAddMoreMembers reports whether team has room for another member.
func (e *Engine) CanAddMoreMembers(ctx context.Context, team *resource.Team) (bool, error) {
	if team.MaxMembers == nil {
		return true, nil
	}
	t := tenantFromContext(ctx)
	n, err := e.store.CountMembers(ctx, t.tenantID, team.Scope())
	if err != nil {
		return false, err
	}
	return n < int64(*team.MaxMembers), nil
}

// AddMember puts userID on the roster of res with tag. Adding an active
// member again is a no-op reported as added=false; a soft-deleted member
// is restored with the new tag. Full teams fail with ErrCapacityExceeded.
func (e *Engine) AddMember(ctx context.Context, res resource.Container, userID string, tag membership.Tag) (bool, error) {
	return e.addMember(ctx, res, userID, tag, true)
}

func (e *Engine) addMember(ctx context.Context, res resource.Container, userID string, tag membership.Tag, checkCapacity bool) (bool, error) {
	tag, err := membership.ParseTag(string(tag))
	if err != nil {
		return false, err
	}
	sc := res.Scope()

	if team, ok := res.(*resource.Team); ok && checkCapacity && team.MaxMembers != nil {
		existing, err := e.activeMember(ctx, sc, userID)
		if err != nil {
			return false, err
		}
		if existing != nil {
			return false, nil
		}
		room, err := e.CanAddMoreMembers(ctx, team)
		if err != nil {
			return false, err
		}
		if !room {
			return false, fmt.Errorf("%w: team %s allows %d", ErrCapacityExceeded, team.ID, *team.MaxMembers)
		}
	}

	t := tenantFromContext(ctx)
	now := time.Now().UTC()
	m := &membership.Member{
		ID:        id.NewMemberID(),
		TenantID:  t.tenantID,
		AppID:     t.appID,
		Scope:     sc,
		UserID:    userID,
		Role:      tag,
		CreatedAt: now,
		UpdatedAt: now,
	}
	added, err := e.store.UpsertMember(ctx, m)
	if err != nil {
		return false, fmt.Errorf("add member %s to %s: %w", userID, sc, err)
	}
	if added && e.plugins != nil {
		e.plugins.EmitMemberAdded(ctx, m)
	}
	return added, nil
}

// RemoveMember soft-deletes userID from the roster of res. The owner of
// res cannot be removed. Removing a non-member is a no-op.
func (e *Engine) RemoveMember(ctx context.Context, res resource.Container, userID string) error {
	if res.OwnerID() != "" && res.OwnerID() == userID {
		return fmt.Errorf("%w: %s owns %s", ErrOwnerNotRemovable, userID, res.Scope())
	}
	t := tenantFromContext(ctx)
	sc := res.Scope()
	removed, err := e.store.RemoveMember(ctx, t.tenantID, sc, userID)
	if err != nil {
		return fmt.Errorf("remove member %s from %s: %w", userID, sc, err)
	}
	if removed && e.plugins != nil {
		e.plugins.EmitMemberRemoved(ctx, &membership.Member{TenantID: t.tenantID, AppID: t.appID, Scope: sc, UserID: userID})
	}
	return nil
}

// UpdateMemberRole changes the tag of an active member. Non-members fail
// with ErrMemberNotFound.
func (e *Engine) UpdateMemberRole(ctx context.Context, res resource.Container, userID string, tag membership.Tag) error {
	tag, err := membership.ParseTag(string(tag))
	if err != nil {
		return err
	}
	t := tenantFromContext(ctx)
	sc := res.Scope()
	if err := e.store.UpdateMemberRole(ctx, t.tenantID, sc, userID, tag); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s in %s", ErrMemberNotFound, userID, sc)
		}
		return err
	}
	if e.plugins != nil {
		e.plugins.EmitMemberRoleUpdated(ctx, &membership.Member{TenantID: t.tenantID, AppID: t.appID, Scope: sc, UserID: userID, Role: tag})
	}
	return nil
}

var _ resource.Roster = roster{}
