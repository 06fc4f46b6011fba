package scope_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/yaseralshikh/taskguard/scope"
)

func strp(s string) *string { return &s }

func TestCovers(t *testing.T) {
	tests := []struct {
		name   string
		held   scope.Scope
		target scope.Scope
		want   bool
	}{
		{"global covers global", scope.Global(), scope.Global(), true},
		{"global covers team", scope.Global(), scope.Team("t1"), true},
		{"team covers same team", scope.Team("t1"), scope.Team("t1"), true},
		{"team misses other team", scope.Team("t1"), scope.Team("t2"), false},
		{"team misses global", scope.Team("t1"), scope.Global(), false},
		{"team misses project with same id", scope.Team("x"), scope.Project("x"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.held.Covers(tt.target); got != tt.want {
				t.Errorf("Covers = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromColumns(t *testing.T) {
	tests := []struct {
		name    string
		typ, id *string
		want    scope.Scope
		wantErr error
	}{
		{"both null", nil, nil, scope.Global(), nil},
		{"team", strp("team"), strp("7"), scope.Team("7"), nil},
		{"project", strp("project"), strp("9"), scope.Project("9"), nil},
		{"type only", strp("team"), nil, scope.Global(), scope.ErrHalfScoped},
		{"id only", nil, strp("7"), scope.Global(), scope.ErrHalfScoped},
		{"unknown type", strp("board"), strp("1"), scope.Global(), scope.ErrUnknownKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := scope.FromColumns(tt.typ, tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("scope = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestColumnsRoundTrip(t *testing.T) {
	for _, s := range []scope.Scope{scope.Global(), scope.Team("a"), scope.Project("b")} {
		typ, id := s.Columns()
		back, err := scope.FromColumns(typ, id)
		if err != nil {
			t.Fatalf("%v: %v", s, err)
		}
		if back != s {
			t.Errorf("got %v, want %v", back, s)
		}
	}
}

func TestJSON(t *testing.T) {
	type holder struct {
		Scope scope.Scope `json:"scope"`
	}
	data, err := json.Marshal(holder{Scope: scope.Project("p1")})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"scope":{"type":"project","id":"p1"}}` {
		t.Fatalf("unexpected encoding %s", data)
	}

	var h holder
	if err := json.Unmarshal([]byte(`{"scope":null}`), &h); err != nil {
		t.Fatal(err)
	}
	if !h.Scope.IsGlobal() {
		t.Errorf("expected global, got %v", h.Scope)
	}

	if err := json.Unmarshal([]byte(`{"scope":{"type":"team"}}`), &h); !errors.Is(err, scope.ErrHalfScoped) {
		t.Errorf("expected ErrHalfScoped, got %v", err)
	}
}
