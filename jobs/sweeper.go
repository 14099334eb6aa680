package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Sweeper periodically deletes terminal jobs older than TTL.
type Sweeper struct {
	Store Store
	TTL   time.Duration
	Log   *logrus.Logger

	cron *cron.Cron
}

// NewSweeper creates a sweeper. TTL <= 0 defaults to 24h.
func NewSweeper(store Store, ttl time.Duration, log *logrus.Logger) *Sweeper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Sweeper{Store: store, TTL: ttl, Log: log, cron: cron.New()}
}

// Start registers the sweep on the given cron spec (e.g. "@every 15m") and
// starts the scheduler.
func (s *Sweeper) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.Sweep); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop stops the scheduler, waiting for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep deletes expired jobs once. Exposed for manual triggering and tests.
func (s *Sweeper) Sweep() {
	cutoff := time.Now().UTC().Add(-s.TTL)
	removed, err := s.Store.DeleteExpired(context.Background(), cutoff)
	if err != nil {
		s.Log.WithError(err).Error("job sweep failed")
		return
	}
	if removed > 0 {
		s.Log.WithField("removed", removed).Info("expired bulk-download jobs deleted")
	}
}
