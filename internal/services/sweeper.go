package services

import (
	"context"
	"time"

	applog "github.com/phentivokcs/vintagevibes/internal/log"
)

// Sweeper periodically reclaims expired soft holds. It is a liveness
// aid, not a correctness requirement: Reserve already treats an expired
// hold as available, so a late sweep only delays catalog freshness.
type Sweeper struct {
	Res      *ReservationService
	Interval time.Duration
}

func NewSweeper(res *ReservationService, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{Res: res, Interval: interval}
}

// Run blocks until ctx is cancelled. Call it on its own goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.Res.SweepExpired()
			if err != nil {
				applog.BgError("sweeper.run.fail", err, nil)
				continue
			}
			if n > 0 {
				applog.BgInfo("sweeper.released", map[string]any{"count": n})
			}
		}
	}
}
