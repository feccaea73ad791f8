package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/nickeldime/wealthos/internal/common"
)

// Scheduler runs the refresh cycle on the quotes cadence. A single cron
// entry drives everything; the resolver's per-class windows decide which
// providers actually get hit on each tick (metals and FRED mostly ride the
// cache). SkipIfStillRunning guarantees cycles never overlap — a slow
// provider chain delays the next tick rather than stacking a second pass.
type Scheduler struct {
	app    *App
	cron   *cron.Cron
	logger *common.Logger
}

// NewScheduler creates the refresh scheduler for an app.
func NewScheduler(a *App) *Scheduler {
	logger := a.Logger
	return &Scheduler{
		app:    a,
		logger: logger,
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DiscardLogger),
			cron.Recover(cron.DiscardLogger),
		)),
	}
}

// Start registers the refresh job and begins ticking. An immediate first
// cycle runs before the cron takes over so a fresh start has data at once.
func (s *Scheduler) Start(ctx context.Context) error {
	interval := common.Interval(s.app.Config.Refresh.Quotes, common.RefreshQuotes)

	spec := fmt.Sprintf("@every %s", interval)
	_, err := s.cron.AddFunc(spec, func() {
		if err := s.app.RunCycle(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Refresh cycle failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}

	if err := s.app.RunCycle(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Initial refresh cycle failed")
	}

	s.cron.Start()
	s.logger.Info().Str("interval", interval.String()).Msg("Refresh scheduler started")
	return nil
}

// Stop halts the cron and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.logger.Info().Msg("Refresh scheduler stopped")
	}
}
