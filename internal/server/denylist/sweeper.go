package denylist

import (
	"context"
	"time"

	"github.com/ThanhLuuv/user-management-backend/internal/logging"
)

// Sweeper calls Prune on a fixed interval until its context ends.
type Sweeper struct {
	store    Store
	interval time.Duration
	logger   logging.Logger
	now      func() time.Time
}

func NewSweeper(store Store, interval time.Duration, logger logging.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		logger:   logger.With("module", "denylist-sweeper"),
		now:      time.Now,
	}
}

// Run blocks until ctx is done. A non-positive interval disables sweeping.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single prune pass.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	n, err := s.store.Prune(ctx, s.now())
	if err != nil {
		s.logger.Warn(ctx, "denylist prune failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Debug(ctx, "denylist pruned", "removed", n)
	}
}
