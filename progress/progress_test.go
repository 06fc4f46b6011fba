package progress

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		done, total int64
		want        float64
	}{
		{0, 0, 0},
		{3, 0, 0},
		{0, 4, 0},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{4, 4, 100},
	}
	for _, tt := range tests {
		if got := Percent(tt.done, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %v, want %v", tt.done, tt.total, got, tt.want)
		}
	}
}

func TestHours(t *testing.T) {
	if got := Hours(); got != 0 {
		t.Errorf("no entries = %v", got)
	}
	if got := Hours(30, 45, 25); got != 1.67 {
		t.Errorf("100 minutes = %v, want 1.67", got)
	}
	if got := Hours(90); got != 1.5 {
		t.Errorf("90 minutes = %v, want 1.5", got)
	}
}

func TestTaskProgressKeepsManualValueWithoutChecklist(t *testing.T) {
	if got := TaskProgress(0, 0, 40); got != 40 {
		t.Errorf("got %v, want the manual 40", got)
	}
	if got := TaskProgress(1, 4, 40); got != 25 {
		t.Errorf("got %v, want 25", got)
	}
}

// fakeAgg is an in-memory aggregate store. busy counts runs inside a
// transaction so tests can detect overlap.
type fakeAgg struct {
	mu        sync.Mutex
	completed int64
	total     int64
	minutes   []int64
	manual    float64
	project   float64
	task      float64
	hours     float64
	writes    int

	busy    atomic.Int32
	overlap atomic.Bool
	fail    error
}

func (f *fakeAgg) tx(ctx context.Context, fn func(context.Context, Aggregates) error) error {
	if f.busy.Add(1) > 1 {
		f.overlap.Store(true)
	}
	defer f.busy.Add(-1)
	time.Sleep(time.Millisecond)
	return fn(ctx, f)
}

func (f *fakeAgg) CountProjectTasks(context.Context, string) (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed, f.total, f.fail
}

func (f *fakeAgg) CountChecklist(context.Context, string) (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed, f.total, f.fail
}

func (f *fakeAgg) TaskMinutes(context.Context, string) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.minutes...), f.fail
}

func (f *fakeAgg) CurrentTaskProgress(context.Context, string) (float64, error) {
	return f.manual, nil
}

func (f *fakeAgg) SetProjectProgress(_ context.Context, _ string, pct float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.project = pct
	f.writes++
	return nil
}

func (f *fakeAgg) SetTaskProgress(_ context.Context, _ string, pct float64) error {
	f.task = pct
	return nil
}

func (f *fakeAgg) SetTaskHours(_ context.Context, _ string, hours float64) error {
	f.hours = hours
	return nil
}

func TestRecomputerStoresResults(t *testing.T) {
	ctx := context.Background()
	agg := &fakeAgg{completed: 1, total: 4, minutes: []int64{60, 30}, manual: 10}
	r := NewRecomputer(agg.tx)

	pct, err := r.ProjectProgress(ctx, "p1")
	if err != nil || pct != 25 || agg.project != 25 {
		t.Fatalf("project progress = %v (%v), stored %v", pct, err, agg.project)
	}
	if _, err := r.TaskProgress(ctx, "t1"); err != nil || agg.task != 25 {
		t.Fatalf("task progress stored %v (%v)", agg.task, err)
	}
	if _, err := r.TaskHours(ctx, "t1"); err != nil || agg.hours != 1.5 {
		t.Fatalf("task hours stored %v (%v)", agg.hours, err)
	}

	agg.total = 0
	if _, err := r.TaskProgress(ctx, "t1"); err != nil || agg.task != 10 {
		t.Fatalf("empty checklist should keep manual progress, stored %v", agg.task)
	}
}

func TestRecomputerPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	agg := &fakeAgg{fail: boom}
	r := NewRecomputer(agg.tx)

	if _, err := r.ProjectProgress(context.Background(), "p1"); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestRecomputerSerializesAndSeesLatestCounts(t *testing.T) {
	ctx := context.Background()
	agg := &fakeAgg{total: 50}
	r := NewRecomputer(agg.tx)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			agg.mu.Lock()
			agg.completed++
			agg.mu.Unlock()
			if _, err := r.ProjectProgress(ctx, "p1"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if agg.overlap.Load() {
		t.Fatal("recomputes for the same project overlapped")
	}
	if agg.project != 100 {
		t.Fatalf("final progress = %v, want 100", agg.project)
	}
	if agg.writes > 50 {
		t.Fatalf("more writes than requests: %d", agg.writes)
	}
}

func TestRecomputerCallerCancellation(t *testing.T) {
	agg := &fakeAgg{completed: 1, total: 2}
	r := NewRecomputer(agg.tx)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// The run may still win the race against the cancelled context.
	if _, err := r.ProjectProgress(ctx, "p1"); err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
