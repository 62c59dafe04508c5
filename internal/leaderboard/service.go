// Package leaderboard maintains ranked point totals in redis sorted sets,
// one per time window, and periodically snapshots the top entries to
// Postgres so rankings survive a cache flush.
package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quizduel/duel-platform/internal/db/repository"
	"github.com/quizduel/duel-platform/internal/events"
	"github.com/quizduel/duel-platform/pkg/apperrors"
)

// Ranking windows.
const (
	WindowDaily   = "daily"
	WindowWeekly  = "weekly"
	WindowAllTime = "alltime"
)

const (
	dailyTTL  = 48 * time.Hour
	weeklyTTL = 15 * 24 * time.Hour

	tournamentWinScore = 10
)

// Entry is one ranked row served to clients.
type Entry struct {
	Rank        int       `json:"rank"`
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Score       int       `json:"score"`
}

type snapshotStore interface {
	ReplaceSnapshot(ctx context.Context, window string, entries []repository.LeaderboardEntry, takenAt time.Time) error
	ListSnapshot(ctx context.Context, window string, limit int) ([]repository.LeaderboardEntry, error)
}

type nameResolver interface {
	ListDisplayNames(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error)
}

// Service ranks players by points earned from completed games.
type Service struct {
	redis     *redis.Client
	snapshots snapshotStore
	profiles  nameResolver
	logger    zerolog.Logger
}

func NewService(rdb *redis.Client, snapshots snapshotStore, profiles nameResolver, logger zerolog.Logger) *Service {
	return &Service{
		redis:     rdb,
		snapshots: snapshots,
		profiles:  profiles,
		logger:    logger.With().Str("component", "leaderboard").Logger(),
	}
}

func windowKey(window string, now time.Time) string {
	switch window {
	case WindowDaily:
		return "lb:daily:" + now.UTC().Format("2006-01-02")
	case WindowWeekly:
		year, week := now.UTC().ISOWeek()
		return fmt.Sprintf("lb:weekly:%d-W%02d", year, week)
	default:
		return "lb:alltime"
	}
}

func windowTTL(window string) time.Duration {
	switch window {
	case WindowDaily:
		return dailyTTL
	case WindowWeekly:
		return weeklyTTL
	default:
		return 0
	}
}

// ValidWindow reports whether the window name is one we rank.
func ValidWindow(window string) bool {
	switch window {
	case WindowDaily, WindowWeekly, WindowAllTime:
		return true
	}
	return false
}

// AddScore credits points to a player in every window.
func (s *Service) AddScore(ctx context.Context, userID uuid.UUID, points int) error {
	if points <= 0 {
		return nil
	}
	now := time.Now()
	for _, window := range []string{WindowDaily, WindowWeekly, WindowAllTime} {
		key := windowKey(window, now)
		if err := s.redis.ZIncrBy(ctx, key, float64(points), userID.String()).Err(); err != nil {
			return fmt.Errorf("increment %s leaderboard: %w", window, err)
		}
		if ttl := windowTTL(window); ttl > 0 {
			s.redis.Expire(ctx, key, ttl)
		}
	}
	return nil
}

// HandleMatchCompleted credits each participant's final score.
func (s *Service) HandleMatchCompleted(ctx context.Context, ev events.MatchCompleted) error {
	for _, p := range ev.Players {
		if err := s.AddScore(ctx, p.UserID, p.Score); err != nil {
			s.logger.Error().Err(err).
				Str("match_id", ev.MatchID.String()).
				Str("user_id", p.UserID.String()).
				Msg("leaderboard update failed")
		}
	}
	return nil
}

// HandleTournamentCompleted credits the champion's bonus.
func (s *Service) HandleTournamentCompleted(ctx context.Context, ev events.TournamentCompleted) error {
	if err := s.AddScore(ctx, ev.WinnerID, tournamentWinScore); err != nil {
		s.logger.Error().Err(err).
			Str("tournament_id", ev.TournamentID).
			Msg("leaderboard update failed")
	}
	return nil
}

// Top returns the current ranking for a window, falling back to the latest
// Postgres snapshot when redis is unavailable.
func (s *Service) Top(ctx context.Context, window string, limit int) ([]Entry, error) {
	if !ValidWindow(window) {
		return nil, apperrors.E(apperrors.KindNotFound, "unknown leaderboard window %q", window)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	key := windowKey(window, time.Now())
	members, err := s.redis.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		s.logger.Warn().Err(err).Str("window", window).Msg("redis ranking unavailable, serving snapshot")
		return s.fromSnapshot(ctx, window, limit)
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m.Member.(string))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	names, err := s.profiles.ListDisplayNames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve display names: %w", err)
	}

	entries := make([]Entry, 0, len(members))
	rank := 0
	for _, m := range members {
		id, err := uuid.Parse(m.Member.(string))
		if err != nil {
			continue
		}
		rank++
		entries = append(entries, Entry{
			Rank:        rank,
			UserID:      id,
			DisplayName: names[id],
			Score:       int(m.Score),
		})
	}
	return entries, nil
}

func (s *Service) fromSnapshot(ctx context.Context, window string, limit int) ([]Entry, error) {
	rows, err := s.snapshots.ListSnapshot(ctx, window, limit)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, Entry{
			Rank:        r.Rank,
			UserID:      r.UserID,
			DisplayName: r.DisplayName,
			Score:       r.Score,
		})
	}
	return entries, nil
}

// Snapshot persists the top N of every window to Postgres.
func (s *Service) Snapshot(ctx context.Context, topN int) error {
	now := time.Now()
	for _, window := range []string{WindowDaily, WindowWeekly, WindowAllTime} {
		key := windowKey(window, now)
		members, err := s.redis.ZRevRangeWithScores(ctx, key, 0, int64(topN-1)).Result()
		if err != nil {
			return fmt.Errorf("read %s ranking: %w", window, err)
		}

		entries := make([]repository.LeaderboardEntry, 0, len(members))
		for i, m := range members {
			id, err := uuid.Parse(m.Member.(string))
			if err != nil {
				continue
			}
			entries = append(entries, repository.LeaderboardEntry{
				Rank:   i + 1,
				UserID: id,
				Score:  int(m.Score),
			})
		}
		if err := s.snapshots.ReplaceSnapshot(ctx, window, entries, now); err != nil {
			return fmt.Errorf("snapshot %s ranking: %w", window, err)
		}
	}
	s.logger.Debug().Int("top_n", topN).Msg("leaderboard snapshot written")
	return nil
}
