package rescan

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"
)

// memStore is an in-memory Store for tests.
type memStore struct {
	mu   sync.Mutex
	next map[string]time.Time
}

func newMemStore() *memStore {
	return &memStore{next: make(map[string]time.Time)}
}

func (m *memStore) DueVideoIDs(ctx context.Context, now time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []string
	for id, at := range m.next {
		if !at.After(now) {
			due = append(due, id)
		}
	}
	sort.Strings(due)
	return due, nil
}

func (m *memStore) SetRescanTimes(ctx context.Context, videoID string, scoredAt, nextAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next[videoID] = nextAt
	return nil
}

func TestTrackerWindowDefault(t *testing.T) {
	tr := NewTracker(newMemStore(), 0)
	if tr.Window() != DefaultWindow {
		t.Errorf("Window = %v, want %v", tr.Window(), DefaultWindow)
	}
}

func TestMarkScoredAdvancesDeadline(t *testing.T) {
	store := newMemStore()
	tr := NewTracker(store, DefaultWindow)
	ctx := context.Background()

	scoredAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	if err := tr.MarkScored(ctx, "v1", scoredAt); err != nil {
		t.Fatalf("MarkScored: %v", err)
	}

	// Just under the window: not due.
	due, err := tr.Due(ctx, scoredAt.Add(DefaultWindow-time.Minute))
	if err != nil {
		t.Fatalf("Due: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("due before window elapsed: %v", due)
	}

	// At the window boundary: due.
	due, err = tr.Due(ctx, scoredAt.Add(DefaultWindow))
	if err != nil {
		t.Fatalf("Due: %v", err)
	}
	if len(due) != 1 || due[0] != "v1" {
		t.Errorf("due = %v, want [v1]", due)
	}
}

func TestMarkScoredIsMonotonic(t *testing.T) {
	store := newMemStore()
	tr := NewTracker(store, DefaultWindow)
	ctx := context.Background()

	first := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	second := first.Add(25 * time.Hour)

	_ = tr.MarkScored(ctx, "v1", first)
	_ = tr.MarkScored(ctx, "v1", second)

	// The deadline advanced past the first window; only the second one counts.
	due, _ := tr.Due(ctx, first.Add(DefaultWindow))
	if len(due) != 0 {
		t.Errorf("deadline did not advance: %v", due)
	}
	due, _ = tr.Due(ctx, second.Add(DefaultWindow))
	if len(due) != 1 {
		t.Errorf("due = %v, want [v1]", due)
	}
}

func TestAcquireRelease(t *testing.T) {
	tr := NewTracker(newMemStore(), DefaultWindow)

	acquired, busy := tr.Acquire([]string{"a", "b", "c"})
	if len(acquired) != 3 || len(busy) != 0 {
		t.Fatalf("first acquire: acquired=%v busy=%v", acquired, busy)
	}

	// Second claim sees everything busy.
	acquired, busy = tr.Acquire([]string{"a", "b", "d"})
	if len(acquired) != 1 || acquired[0] != "d" {
		t.Errorf("acquired = %v, want [d]", acquired)
	}
	if len(busy) != 2 {
		t.Errorf("busy = %v, want [a b]", busy)
	}

	tr.Release([]string{"a", "b", "c", "d"})
	if tr.InFlight("a") {
		t.Error("a still in flight after release")
	}

	acquired, busy = tr.Acquire([]string{"a"})
	if len(acquired) != 1 || len(busy) != 0 {
		t.Errorf("after release: acquired=%v busy=%v", acquired, busy)
	}
}

func TestDueExcludesInFlight(t *testing.T) {
	store := newMemStore()
	tr := NewTracker(store, DefaultWindow)
	ctx := context.Background()

	scoredAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	_ = tr.MarkScored(ctx, "v1", scoredAt)
	_ = tr.MarkScored(ctx, "v2", scoredAt)

	tr.Acquire([]string{"v1"})

	due, err := tr.Due(ctx, scoredAt.Add(DefaultWindow))
	if err != nil {
		t.Fatalf("Due: %v", err)
	}
	if len(due) != 1 || due[0] != "v2" {
		t.Errorf("due = %v, want [v2]", due)
	}
}

func TestConcurrentAcquireClaimsOnce(t *testing.T) {
	tr := NewTracker(newMemStore(), DefaultWindow)

	const goroutines = 16
	var wg sync.WaitGroup
	claims := make([][]string, goroutines)
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			acquired, _ := tr.Acquire([]string{"hot"})
			claims[g] = acquired
		}(g)
	}
	wg.Wait()

	winners := 0
	for _, c := range claims {
		winners += len(c)
	}
	if winners != 1 {
		t.Errorf("video claimed %d times, want exactly once", winners)
	}
}
