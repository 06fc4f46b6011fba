package plugin

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/yaseralshikh/taskguard/assignment"
	"github.com/yaseralshikh/taskguard/id"
	"github.com/yaseralshikh/taskguard/membership"
	"github.com/yaseralshikh/taskguard/role"
	"github.com/yaseralshikh/taskguard/scope"
)

// recorder implements Plugin + RoleCreated + AfterCheck + MemberAdded.
type recorder struct {
	roleCreated int
	afterCheck  int
	members     []string
}

func (p *recorder) Name() string { return "recorder" }

func (p *recorder) OnRoleCreated(_ context.Context, _ *role.Role) error {
	p.roleCreated++
	return nil
}

func (p *recorder) OnAfterCheck(_ context.Context, _, _ any) error {
	p.afterCheck++
	return nil
}

func (p *recorder) OnMemberAdded(_ context.Context, m *membership.Member) error {
	p.members = append(p.members, m.UserID)
	return nil
}

// failing only implements AssignmentAnomaly and always errors.
type failing struct{}

func (failing) Name() string { return "failing" }

func (failing) OnAssignmentAnomaly(context.Context, *assignment.Assignment) error {
	return errors.New("boom")
}

type minimal struct{}

func (minimal) Name() string { return "minimal" }

func TestRegistryDispatch(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(slog.Default())

	rec := &recorder{}
	reg.Register(rec)
	reg.Register(minimal{})

	if len(reg.Plugins()) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(reg.Plugins()))
	}

	reg.EmitRoleCreated(ctx, &role.Role{ID: id.NewRoleID(), Slug: "viewer"})
	reg.EmitAfterCheck(ctx, nil, nil)
	reg.EmitMemberAdded(ctx, &membership.Member{UserID: "u1", Scope: scope.Team("7")})

	if rec.roleCreated != 1 || rec.afterCheck != 1 {
		t.Fatalf("unexpected dispatch counts: %+v", rec)
	}
	if len(rec.members) != 1 || rec.members[0] != "u1" {
		t.Fatalf("member hook got %v", rec.members)
	}

	// Hooks without listeners are no-ops.
	reg.EmitBeforeCheck(ctx, nil)
	reg.EmitRoleDeleted(ctx, &role.Role{})
	reg.EmitPermissionGranted(ctx, &role.Role{}, nil)
	reg.EmitShutdown(ctx)
}

func TestRegistryLogsHookErrors(t *testing.T) {
	var buf bytes.Buffer
	reg := NewRegistry(slog.New(slog.NewTextHandler(&buf, nil)))
	reg.Register(failing{})

	reg.EmitAssignmentAnomaly(context.Background(), &assignment.Assignment{UserID: "u1"})

	out := buf.String()
	if !strings.Contains(out, "plugin hook error") || !strings.Contains(out, "plugin=failing") {
		t.Fatalf("expected hook error log, got %q", out)
	}
}
