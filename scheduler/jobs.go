// Package scheduler runs the daily history sync and weekly cleanup.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"kmj_screener/services/datafetcher"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
)

// priceRetention bounds how much history is kept in the price table
const priceRetention = 5 * 365 * 24 * time.Hour

// Syncer is the data work the scheduler drives
type Syncer interface {
	SyncStockList(ctx context.Context) (int, error)
	SyncAll(ctx context.Context, days int) (*datafetcher.SyncResult, error)
	Cleanup(ctx context.Context, cutoff time.Time) error
}

// Scheduler manages scheduled jobs
type Scheduler struct {
	cron    *gocron.Scheduler
	syncer  Syncer
	days    int
	syncAt  string
	loc     *time.Location
	ctx     context.Context
	cancel  context.CancelFunc
	running atomic.Bool

	// mu guards done, stopped and the running transition to true
	mu      sync.Mutex
	done    chan struct{}
	stopped bool
}

// NewScheduler creates a scheduler that syncs days of history at syncAt
// (HH:MM, market local time) on trading days
func NewScheduler(syncer Syncer, days int, syncAt string, loc *time.Location) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   gocron.NewScheduler(loc),
		syncer: syncer,
		days:   days,
		syncAt: syncAt,
		loc:    loc,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start registers all jobs and starts the scheduler
func (s *Scheduler) Start() error {
	log.Info().Str("sync_at", s.syncAt).Str("tz", s.loc.String()).Msg("Starting scheduler")

	// History sync after market close
	if _, err := s.cron.Every(1).Day().At(s.syncAt).Do(func() {
		if !isTradingDay(time.Now().In(s.loc)) {
			return
		}
		s.TriggerSync()
	}); err != nil {
		return err
	}

	// Cleanup old data weekly on Sunday at 01:00
	if _, err := s.cron.Every(1).Week().Sunday().At("01:00").Do(func() {
		if err := s.syncer.Cleanup(s.ctx, time.Now().Add(-priceRetention)); err != nil {
			log.Error().Err(err).Msg("Cleanup failed")
		}
	}); err != nil {
		return err
	}

	s.cron.StartAsync()
	log.Info().Msg("Scheduler started successfully")
	return nil
}

// TriggerSync starts a sync in the background. It returns false when a
// sync is already running or the scheduler has been stopped.
func (s *Scheduler) TriggerSync() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		log.Info().Msg("Scheduler stopped, skipping sync")
		return false
	}
	if !s.running.CompareAndSwap(false, true) {
		log.Info().Msg("Sync already running, skipping")
		return false
	}

	done := make(chan struct{})
	s.done = done
	go func() {
		defer close(done)
		defer s.running.Store(false)
		s.runSync(s.ctx)
	}()
	return true
}

// Running reports whether a sync is in progress
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

func (s *Scheduler) runSync(ctx context.Context) {
	if n, err := s.syncer.SyncStockList(ctx); err != nil {
		log.Warn().Err(err).Msg("Stock list refresh failed, syncing known stocks")
	} else {
		log.Info().Int("stocks", n).Msg("Stock list refreshed")
	}

	if _, err := s.syncer.SyncAll(ctx, s.days); err != nil {
		log.Error().Err(err).Msg("History sync aborted")
	}
}

// Stop stops the scheduler, cancels a running sync and waits for it to return
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.cancel()
	s.wait()
	log.Info().Msg("Scheduler stopped")
}

// isTradingDay reports whether the exchanges trade on t's weekday.
// Exchange holidays are not modelled; a holiday sync fetches nothing new.
func isTradingDay(t time.Time) bool {
	return t.Weekday() != time.Saturday && t.Weekday() != time.Sunday
}

// wait blocks until the most recently triggered sync has finished
func (s *Scheduler) wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}
