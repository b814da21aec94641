// Package retention purges refresh token lineages that are fully revoked and
// older than the retention horizon. Nothing else ever hard-deletes token
// records: reuse detection needs dead records to stay queryable.
package retention

import (
	"context"
	"log"
	"time"
)

// Purger is the token store operation the sweeper drives.
type Purger interface {
	PurgeRevokedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper periodically removes expired, fully-revoked lineages.
type Sweeper struct {
	store    Purger
	horizon  time.Duration
	interval time.Duration
}

// NewSweeper returns a Sweeper that every interval purges lineages whose
// records were all revoked more than horizon ago.
func NewSweeper(store Purger, horizon, interval time.Duration) *Sweeper {
	return &Sweeper{store: store, horizon: horizon, interval: interval}
}

// Run sweeps once immediately and then on every tick until ctx is canceled.
// Sweep errors are logged and do not stop the loop.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("retention: stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// SweepOnce performs a single purge pass, for one-shot invocations.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.horizon)
	return s.store.PurgeRevokedBefore(ctx, cutoff)
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.SweepOnce(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Printf("retention: sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("retention: purged %d expired revoked token records", n)
	}
}
