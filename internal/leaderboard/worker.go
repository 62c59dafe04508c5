package leaderboard

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// SnapshotWorker writes periodic leaderboard snapshots to Postgres.
type SnapshotWorker struct {
	service   *Service
	interval  time.Duration
	topN      int
	scheduler gocron.Scheduler
	logger    zerolog.Logger
}

func NewSnapshotWorker(service *Service, interval time.Duration, topN int, logger zerolog.Logger) (*SnapshotWorker, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &SnapshotWorker{
		service:   service,
		interval:  interval,
		topN:      topN,
		scheduler: scheduler,
		logger:    logger.With().Str("component", "leaderboard_snapshot").Logger(),
	}, nil
}

// Start schedules the snapshot job.
func (w *SnapshotWorker) Start(ctx context.Context) error {
	_, err := w.scheduler.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() {
			if err := w.service.Snapshot(ctx, w.topN); err != nil {
				w.logger.Error().Err(err).Msg("snapshot failed")
			}
		}),
	)
	if err != nil {
		return err
	}
	w.scheduler.Start()
	w.logger.Info().Dur("interval", w.interval).Int("top_n", w.topN).Msg("snapshot worker started")
	return nil
}

// Stop shuts the scheduler down.
func (w *SnapshotWorker) Stop() error {
	return w.scheduler.Shutdown()
}
