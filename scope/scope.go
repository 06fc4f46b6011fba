// Package scope defines where a role assignment or membership applies.
//
// A Scope is exactly one of Global, Team(id) or Project(id). The zero value
// is Global. Storage backends persist a scope as a nullable
// (entity_type, entity_id) column pair; FromColumns is the only way back.
package scope

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind is the entity type of a non-global scope.
type Kind string

const (
	KindGlobal  Kind = ""
	KindTeam    Kind = "team"
	KindProject Kind = "project"
)

// ErrHalfScoped is returned by FromColumns when exactly one of the two
// columns is set. The returned scope is Global in that case.
var ErrHalfScoped = errors.New("scope: entity_type and entity_id must be both set or both empty")

// ErrUnknownKind is returned for an entity type other than team or project.
var ErrUnknownKind = errors.New("scope: unknown entity type")

// Scope is a tagged union of Global, Team(id) and Project(id).
// Scopes are comparable values.
type Scope struct {
	kind Kind
	id   string
}

// Global is the unscoped case.
func Global() Scope { return Scope{} }

// Team scopes to a single team.
func Team(id string) Scope { return Scope{kind: KindTeam, id: id} }

// Project scopes to a single project.
func Project(id string) Scope { return Scope{kind: KindProject, id: id} }

// New builds a scope from a kind and id. An empty kind with an empty id
// is Global.
func New(kind Kind, id string) (Scope, error) {
	switch {
	case kind == KindGlobal && id == "":
		return Global(), nil
	case kind == KindGlobal || id == "":
		return Global(), ErrHalfScoped
	case kind == KindTeam || kind == KindProject:
		return Scope{kind: kind, id: id}, nil
	default:
		return Global(), fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Kind returns the entity type, or KindGlobal.
func (s Scope) Kind() Kind { return s.kind }

// ID returns the entity id, or "" for Global.
func (s Scope) ID() string { return s.id }

// IsGlobal reports whether s is the Global case.
func (s Scope) IsGlobal() bool { return s.kind == KindGlobal }

// Covers reports whether an assignment held at s applies to a check at
// target. Global assignments cover every target; scoped ones only their
// own entity.
func (s Scope) Covers(target Scope) bool {
	return s.IsGlobal() || s == target
}

func (s Scope) String() string {
	if s.IsGlobal() {
		return "global"
	}
	return string(s.kind) + ":" + s.id
}

// Columns returns the nullable column pair used by SQL and document stores.
func (s Scope) Columns() (entityType, entityID *string) {
	if s.IsGlobal() {
		return nil, nil
	}
	k, id := string(s.kind), s.id
	return &k, &id
}

// FromColumns rebuilds a scope from storage. A half-populated pair yields
// Global together with ErrHalfScoped so the caller can report the row.
func FromColumns(entityType, entityID *string) (Scope, error) {
	var k, id string
	if entityType != nil {
		k = *entityType
	}
	if entityID != nil {
		id = *entityID
	}
	return New(Kind(k), id)
}

type wire struct {
	Type string `json:"type,omitempty"`
	ID   string `json:"id,omitempty"`
}

// MarshalJSON encodes Global as null and scoped values as {"type","id"}.
func (s Scope) MarshalJSON() ([]byte, error) {
	if s.IsGlobal() {
		return []byte("null"), nil
	}
	return json.Marshal(wire{Type: string(s.kind), ID: s.id})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (s *Scope) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Global()
		return nil
	}
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	parsed, err := New(Kind(w.Type), w.ID)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
