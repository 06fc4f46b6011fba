package taskguard

import (
	"errors"

	"github.com/yaseralshikh/taskguard/membership"
)

var (
	// ErrAccessDenied is returned by Enforce when a check is denied.
	ErrAccessDenied = errors.New("taskguard: access denied")

	// ErrRoleNotFound is returned when a role slug is not in the catalog.
	ErrRoleNotFound = errors.New("taskguard: role not found")

	// ErrPermissionNotFound is returned when a permission slug is not in the
	// catalog. Callers must never read it as a deny.
	ErrPermissionNotFound = errors.New("taskguard: permission not found")

	// ErrMemberNotFound is returned when updating a user that is not an
	// active member.
	ErrMemberNotFound = errors.New("taskguard: member not found")

	// ErrCapacityExceeded is returned when a team is full.
	ErrCapacityExceeded = errors.New("taskguard: team member limit reached")

	// ErrOwnerNotRemovable is returned when removing the owner of a team or
	// project from its roster.
	ErrOwnerNotRemovable = errors.New("taskguard: owner cannot be removed as a member")

	// ErrSystemRoleImmutable is returned when modifying a system role.
	ErrSystemRoleImmutable = errors.New("taskguard: system role cannot be modified")

	// ErrInvariantViolation describes a stored assignment with only one of
	// its scope columns set.
	ErrInvariantViolation = errors.New("taskguard: half-scoped role assignment")

	// ErrInvalidScope is returned for a scope without a kind or id.
	ErrInvalidScope = errors.New("taskguard: invalid scope")

	// ErrInvalidTag is returned for a membership tag other than admin or member.
	ErrInvalidTag = membership.ErrInvalidTag
)
