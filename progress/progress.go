// Package progress computes the derived figures stored on tasks and
// projects and serializes their recomputation.
package progress

import (
	"context"
	"math"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Percent returns done/total as a percentage rounded to two decimals.
// An empty total yields 0.
func Percent(done, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return round2(float64(done) / float64(total) * 100)
}

// Hours converts logged minutes into hours rounded to two decimals.
func Hours(minutes ...int64) float64 {
	var sum int64
	for _, m := range minutes {
		sum += m
	}
	return round2(float64(sum) / 60)
}

// TaskProgress derives a task's completion from its checklist. A task
// without checklist items keeps its manually set progress.
func TaskProgress(completed, total int64, current float64) float64 {
	if total <= 0 {
		return current
	}
	return Percent(completed, total)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Aggregates is the storage a recompute reads counts from and writes the
// result back to. It is handed to the caller's transaction runner.
type Aggregates interface {
	CountProjectTasks(ctx context.Context, projectID string) (completed, total int64, err error)
	CountChecklist(ctx context.Context, taskID string) (completed, total int64, err error)
	TaskMinutes(ctx context.Context, taskID string) ([]int64, error)
	CurrentTaskProgress(ctx context.Context, taskID string) (float64, error)

	SetProjectProgress(ctx context.Context, projectID string, pct float64) error
	SetTaskProgress(ctx context.Context, taskID string, pct float64) error
	SetTaskHours(ctx context.Context, taskID string, hours float64) error
}

// TxFunc runs fn inside one transaction and commits when fn returns nil.
type TxFunc func(ctx context.Context, fn func(ctx context.Context, agg Aggregates) error) error

// Recomputer serializes recomputes per aggregate. Concurrent requests for
// an aggregate whose recompute has not started yet share that run; a
// request that arrives after the counts are read waits for a fresh one.
type Recomputer struct {
	tx    TxFunc
	group singleflight.Group
	locks keyedMutex
}

// NewRecomputer creates a Recomputer that runs every recompute through tx.
func NewRecomputer(tx TxFunc) *Recomputer {
	return &Recomputer{tx: tx}
}

// ProjectProgress recomputes and stores a project's completion percentage.
func (r *Recomputer) ProjectProgress(ctx context.Context, projectID string) (float64, error) {
	return r.run(ctx, "project:"+projectID, func(ctx context.Context, agg Aggregates) (float64, error) {
		completed, total, err := agg.CountProjectTasks(ctx, projectID)
		if err != nil {
			return 0, err
		}
		pct := Percent(completed, total)
		return pct, agg.SetProjectProgress(ctx, projectID, pct)
	})
}

// TaskProgress recomputes and stores a task's checklist completion.
func (r *Recomputer) TaskProgress(ctx context.Context, taskID string) (float64, error) {
	return r.run(ctx, "task-progress:"+taskID, func(ctx context.Context, agg Aggregates) (float64, error) {
		completed, total, err := agg.CountChecklist(ctx, taskID)
		if err != nil {
			return 0, err
		}
		current, err := agg.CurrentTaskProgress(ctx, taskID)
		if err != nil {
			return 0, err
		}
		pct := TaskProgress(completed, total, current)
		return pct, agg.SetTaskProgress(ctx, taskID, pct)
	})
}

// TaskHours recomputes and stores a task's logged hours.
func (r *Recomputer) TaskHours(ctx context.Context, taskID string) (float64, error) {
	return r.run(ctx, "task-hours:"+taskID, func(ctx context.Context, agg Aggregates) (float64, error) {
		minutes, err := agg.TaskMinutes(ctx, taskID)
		if err != nil {
			return 0, err
		}
		hours := Hours(minutes...)
		return hours, agg.SetTaskHours(ctx, taskID, hours)
	})
}

func (r *Recomputer) run(ctx context.Context, key string, fn func(context.Context, Aggregates) (float64, error)) (float64, error) {
	ch := r.group.DoChan(key, func() (any, error) {
		unlock := r.locks.lock(key)
		defer unlock()
		// Later callers must not join a run that may already have read.
		r.group.Forget(key)

		var out float64
		err := r.tx(context.WithoutCancel(ctx), func(ctx context.Context, agg Aggregates) error {
			v, err := fn(ctx, agg)
			out = v
			return err
		})
		return out, err
	})
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(float64), nil
	}
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
