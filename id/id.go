// Package id provides prefixed, sortable identifiers for taskguard records.
//
// Identifiers are TypeIDs ("prefix_suffix") backed by UUIDv7, so they sort by
// creation time and carry their record kind in the prefix.
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix names the record kind encoded in an ID.
type Prefix string

// Record kinds.
const (
	PrefixRole       Prefix = "role"
	PrefixPermission Prefix = "perm"
	PrefixAssignment Prefix = "asgn"
	PrefixMember     Prefix = "mbr"
	PrefixCheckLog   Prefix = "chklog"
)

// ID is a TypeID. The zero value is Nil and stores as SQL NULL.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero ID.
var Nil ID

// New generates an ID for prefix. An invalid prefix is a programming error
// and panics.
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}
	return ID{inner: tid, valid: true}
}

// Parse parses any TypeID string.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses s and requires the given prefix.
func ParseWithPrefix(s string, want Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if got := parsed.Prefix(); got != want {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", want, got)
	}
	return parsed, nil
}

// MustParse panics when s is not a valid ID.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}
	return parsed
}

// ──────────────────────────────────────────────────
// Per-kind aliases, constructors and parsers
// ──────────────────────────────────────────────────

type (
	RoleID       = ID
	PermissionID = ID
	AssignmentID = ID
	MemberID     = ID
	CheckLogID   = ID
)

func NewRoleID() ID       { return New(PrefixRole) }
func NewPermissionID() ID { return New(PrefixPermission) }
func NewAssignmentID() ID { return New(PrefixAssignment) }
func NewMemberID() ID     { return New(PrefixMember) }
func NewCheckLogID() ID   { return New(PrefixCheckLog) }

func ParseRoleID(s string) (ID, error)       { return ParseWithPrefix(s, PrefixRole) }
func ParsePermissionID(s string) (ID, error) { return ParseWithPrefix(s, PrefixPermission) }
func ParseAssignmentID(s string) (ID, error) { return ParseWithPrefix(s, PrefixAssignment) }
func ParseMemberID(s string) (ID, error)     { return ParseWithPrefix(s, PrefixMember) }
func ParseCheckLogID(s string) (ID, error)   { return ParseWithPrefix(s, PrefixCheckLog) }

// ──────────────────────────────────────────────────
// Methods
// ──────────────────────────────────────────────────

// String returns "prefix_suffix", or "" for Nil.
func (i ID) String() string {
	if !i.valid {
		return ""
	}
	return i.inner.String()
}

// Prefix returns the record kind.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}
	return Prefix(i.inner.Prefix())
}

// IsNil reports whether i is the zero ID.
func (i ID) IsNil() bool { return !i.valid }

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input yields Nil.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Value implements driver.Valuer.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // NULL for optional columns
	}
	return i.inner.String(), nil
}

// Scan implements sql.Scanner.
func (i *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*i = Nil
		return nil
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
