package cleanup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeStore struct {
	mu       sync.Mutex
	expired  int
	finished int
	failExp  error
}

func (s *fakeStore) ExpirePendingRequests(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failExp != nil {
		return 0, s.failExp
	}
	s.expired++
	return 2, nil
}

func (s *fakeStore) FinishOverdueRooms(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished++
	return 1, nil
}

func (s *fakeStore) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expired, s.finished
}

func TestSweepRunsBothStages(t *testing.T) {
	store := &fakeStore{}
	s := NewSweeper(store, time.Minute)

	s.sweep(context.Background())

	exp, fin := store.counts()
	if exp != 1 || fin != 1 {
		t.Errorf("sweep counts = (%d, %d), want (1, 1)", exp, fin)
	}
}

func TestSweepContinuesPastErrors(t *testing.T) {
	store := &fakeStore{failExp: errors.New("db down")}
	s := NewSweeper(store, time.Minute)

	s.sweep(context.Background())

	// The room stage still runs when the request stage fails
	if _, fin := store.counts(); fin != 1 {
		t.Errorf("finished count = %d, want 1", fin)
	}
}

func TestDefaultInterval(t *testing.T) {
	s := NewSweeper(&fakeStore{}, 0)
	if s.interval != 5*time.Minute {
		t.Errorf("interval = %v, want 5m default", s.interval)
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	store := &fakeStore{}
	s := NewSweeper(store, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	time.Sleep(35 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)

	exp, _ := store.counts()
	if exp < 2 {
		t.Errorf("expected at least 2 sweep cycles, got %d", exp)
	}
	after, _ := store.counts()
	time.Sleep(30 * time.Millisecond)
	final, _ := store.counts()
	if final != after {
		t.Error("sweeper kept running after cancel")
	}
}
