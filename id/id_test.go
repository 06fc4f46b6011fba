package id_test

import (
	"strings"
	"testing"

	"github.com/yaseralshikh/taskguard/id"
)

var kinds = []struct {
	name    string
	newFn   func() id.ID
	parseFn func(string) (id.ID, error)
	prefix  string
}{
	{"role", id.NewRoleID, id.ParseRoleID, "role_"},
	{"permission", id.NewPermissionID, id.ParsePermissionID, "perm_"},
	{"assignment", id.NewAssignmentID, id.ParseAssignmentID, "asgn_"},
	{"member", id.NewMemberID, id.ParseMemberID, "mbr_"},
	{"checklog", id.NewCheckLogID, id.ParseCheckLogID, "chklog_"},
}

func TestKinds(t *testing.T) {
	for i, k := range kinds {
		t.Run(k.name, func(t *testing.T) {
			fresh := k.newFn()
			if !strings.HasPrefix(fresh.String(), k.prefix) {
				t.Fatalf("expected prefix %q, got %q", k.prefix, fresh)
			}

			parsed, err := k.parseFn(fresh.String())
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if parsed.String() != fresh.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed, fresh)
			}

			other := kinds[(i+1)%len(kinds)].newFn()
			if _, err := k.parseFn(other.String()); err == nil {
				t.Errorf("expected %s parser to reject %q", k.name, other)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	id.MustParse("not an id")
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" || i.Prefix() != "" {
		t.Errorf("expected empty string and prefix, got %q / %q", i.String(), i.Prefix())
	}

	val, err := i.Value()
	if err != nil || val != nil {
		t.Fatalf("expected NULL value, got %v (%v)", val, err)
	}
}

func TestTextAndSQLRoundTrip(t *testing.T) {
	original := id.NewMemberID()

	data, err := original.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	var fromText id.ID
	if err := fromText.UnmarshalText(data); err != nil {
		t.Fatal(err)
	}
	if fromText != original {
		t.Errorf("text mismatch: %q != %q", fromText, original)
	}

	val, err := original.Value()
	if err != nil {
		t.Fatal(err)
	}
	var fromSQL id.ID
	if err := fromSQL.Scan(val); err != nil {
		t.Fatal(err)
	}
	if fromSQL.String() != original.String() {
		t.Errorf("scan mismatch: %q != %q", fromSQL, original)
	}

	var fromNull id.ID
	if err := fromNull.Scan(nil); err != nil || !fromNull.IsNil() {
		t.Errorf("expected nil after scanning NULL, got %q (%v)", fromNull, err)
	}
	if err := fromNull.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}
