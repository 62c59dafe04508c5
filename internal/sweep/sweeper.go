// Package sweep runs the periodic expiry pass over stale matches and
// tournaments.
package sweep

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

type matchSweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

type tournamentSweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// Sweeper cancels expired waiting and active games on a fixed interval.
type Sweeper struct {
	matches     matchSweeper
	tournaments tournamentSweeper
	interval    time.Duration
	scheduler   gocron.Scheduler
	logger      zerolog.Logger
}

func New(matches matchSweeper, tournaments tournamentSweeper, interval time.Duration, logger zerolog.Logger) (*Sweeper, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Sweeper{
		matches:     matches,
		tournaments: tournaments,
		interval:    interval,
		scheduler:   scheduler,
		logger:      logger.With().Str("component", "sweeper").Logger(),
	}, nil
}

// Start schedules the sweep job and begins running it.
func (s *Sweeper) Start(ctx context.Context) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.RunOnce(ctx) }),
	)
	if err != nil {
		return err
	}
	s.scheduler.Start()
	s.logger.Info().Dur("interval", s.interval).Msg("expiry sweeper started")
	return nil
}

// RunOnce performs a single sweep pass.
func (s *Sweeper) RunOnce(ctx context.Context) {
	if n, err := s.matches.SweepExpired(ctx); err != nil {
		s.logger.Error().Err(err).Msg("match sweep failed")
	} else if n > 0 {
		s.logger.Info().Int("cancelled", n).Msg("expired matches cancelled")
	}

	if n, err := s.tournaments.SweepExpired(ctx); err != nil {
		s.logger.Error().Err(err).Msg("tournament sweep failed")
	} else if n > 0 {
		s.logger.Info().Int("cancelled", n).Msg("expired tournaments cancelled")
	}
}

// Stop shuts the scheduler down, waiting for a running job to finish.
func (s *Sweeper) Stop() error {
	return s.scheduler.Shutdown()
}
