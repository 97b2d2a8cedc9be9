package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// Store is the persistence surface the sweeper needs
type Store interface {
	ExpirePendingRequests(ctx context.Context, now time.Time) (int64, error)
	FinishOverdueRooms(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically retires state that lazy reads may never touch:
// PENDING requests past their deadline and ONGOING rooms past their
// window. Both sweeps are conditional updates, so racing with a live
// transition is harmless.
type Sweeper struct {
	store    Store
	interval time.Duration
	now      func() time.Time
}

// NewSweeper creates a new sweep worker
func NewSweeper(store Store, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Sweeper{
		store:    store,
		interval: interval,
		now:      time.Now,
	}
}

// Start begins the sweep worker in a goroutine
func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Sweeper) run(ctx context.Context) {
	slog.Info("sweep worker started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start
	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("sweep worker stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	slog.Debug("running sweep cycle")
	now := s.now()

	expired, err := s.store.ExpirePendingRequests(ctx, now)
	if err != nil {
		slog.Error("failed to expire pending requests", "error", err)
	} else if expired > 0 {
		slog.Info("expired pending schedule requests", "count", expired)
	}

	finished, err := s.store.FinishOverdueRooms(ctx, now)
	if err != nil {
		slog.Error("failed to finish overdue rooms", "error", err)
	} else if finished > 0 {
		slog.Info("finished overdue rooms", "count", finished)
	}
}
