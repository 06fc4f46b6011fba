package cache

import (
	"context"
	"testing"
	"time"

	"github.com/yaseralshikh/taskguard"
	"github.com/yaseralshikh/taskguard/assignment"
	"github.com/yaseralshikh/taskguard/catalog"
	"github.com/yaseralshikh/taskguard/scope"
	"github.com/yaseralshikh/taskguard/store/memory"
)

// interleavedStore runs a hook once, right after the first assignment
// read, to land a write between an engine lookup and its cache fill.
type interleavedStore struct {
	*memory.Store
	hook func()
}

func (s *interleavedStore) ListApplicableAssignments(ctx context.Context, tenantID, userID string, target scope.Scope) ([]*assignment.Assignment, error) {
	rows, err := s.Store.ListApplicableAssignments(ctx, tenantID, userID, target)
	if h := s.hook; h != nil {
		s.hook = nil
		h()
	}
	return rows, err
}

func TestEngineDropsResultComputedAcrossInvalidation(t *testing.T) {
	caches := map[string]func(t *testing.T) taskguard.Cache{
		"memory": func(*testing.T) taskguard.Cache { return NewMemory() },
		"lru":    func(*testing.T) taskguard.Cache { return NewLRU(100, time.Minute) },
		"redis": func(t *testing.T) taskguard.Cache {
			c, _ := newTestRedis(t)
			return c
		},
	}
	for name, newCache := range caches {
		t.Run(name, func(t *testing.T) {
			st := &interleavedStore{Store: memory.New()}
			eng, err := taskguard.NewEngine(taskguard.WithStore(st), taskguard.WithCache(newCache(t)))
			if err != nil {
				t.Fatal(err)
			}
			ctx := taskguard.WithTenant(context.Background(), "app1", "t1")
			if err := eng.Seed(ctx, nil); err != nil {
				t.Fatal(err)
			}

			st.hook = func() {
				if err := eng.AssignRole(ctx, "u1", catalog.RoleViewer, scope.Global()); err != nil {
					t.Error(err)
				}
			}

			ok, err := eng.HasPermission(ctx, "u1", catalog.ViewTasks, scope.Global())
			if err != nil {
				t.Fatal(err)
			}
			if ok {
				t.Fatal("first lookup read the assignments before the grant")
			}

			ok, err = eng.HasPermission(ctx, "u1", catalog.ViewTasks, scope.Global())
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				t.Fatal("stale deny was cached across the grant")
			}
		})
	}
}
