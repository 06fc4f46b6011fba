package api

import (
	"context"
	"errors"
	"testing"

	"github.com/yaseralshikh/taskguard"
	"github.com/yaseralshikh/taskguard/resource"
	"github.com/yaseralshikh/taskguard/scope"
	"github.com/yaseralshikh/taskguard/store/memory"
)

func newTestEngine(t *testing.T) *taskguard.Engine {
	t.Helper()
	eng, err := taskguard.NewEngine(taskguard.WithStore(memory.New()))
	if err != nil {
		t.Fatal(err)
	}
	return eng
}

func TestRosterChangesNeedResolver(t *testing.T) {
	a := New(newTestEngine(t), nil)
	ctx := context.Background()

	if _, err := a.owned(ctx, scope.Team("7")); !errors.Is(err, errNoContainerResolver) {
		t.Fatalf("expected errNoContainerResolver, got %v", err)
	}

	res, err := a.view(ctx, scope.Team("7"))
	if err != nil {
		t.Fatal(err)
	}
	if res.OwnerID() != "" {
		t.Fatalf("engine view should be ownerless, got %q", res.OwnerID())
	}
	if _, err := a.view(ctx, scope.Global()); !errors.Is(err, taskguard.ErrInvalidScope) {
		t.Fatalf("expected ErrInvalidScope for global, got %v", err)
	}
}

func TestRosterChangesUseResolver(t *testing.T) {
	eng := newTestEngine(t)
	a := New(eng, nil, WithContainers(func(_ context.Context, sc scope.Scope) (resource.Container, error) {
		return eng.Team(sc.ID(), "alice", nil), nil
	}))
	ctx := context.Background()

	for name, resolve := range map[string]ContainerResolver{"owned": a.owned, "view": a.view} {
		res, err := resolve(ctx, scope.Team("7"))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if res.OwnerID() != "alice" {
			t.Fatalf("%s: expected owner alice, got %q", name, res.OwnerID())
		}
	}
}
