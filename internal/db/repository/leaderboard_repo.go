package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LeaderboardEntry is one ranked row of a snapshot.
type LeaderboardEntry struct {
	Rank        int
	UserID      uuid.UUID
	DisplayName string
	Score       int
}

// LeaderboardRepository persists periodic leaderboard snapshots.
type LeaderboardRepository struct {
	pool *pgxpool.Pool
}

// NewLeaderboardRepository constructs a leaderboard repository.
func NewLeaderboardRepository(pool *pgxpool.Pool) *LeaderboardRepository {
	return &LeaderboardRepository{pool: pool}
}

// ReplaceSnapshot swaps the stored snapshot for one window atomically.
func (r *LeaderboardRepository) ReplaceSnapshot(ctx context.Context, window string, entries []LeaderboardEntry, takenAt time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM leaderboard_snapshots WHERE window_name = $1`, window); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	for _, e := range entries {
		_, err := tx.Exec(ctx,
			`INSERT INTO leaderboard_snapshots (window_name, rank, user_id, score, taken_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			window, e.Rank, e.UserID, e.Score, takenAt)
		if err != nil {
			return fmt.Errorf("insert snapshot row: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// ListSnapshot returns the stored snapshot for a window, best rank first,
// joined with display names.
func (r *LeaderboardRepository) ListSnapshot(ctx context.Context, window string, limit int) ([]LeaderboardEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.rank, s.user_id, p.display_name, s.score
		 FROM leaderboard_snapshots s
		 JOIN profiles p ON p.user_id = s.user_id
		 WHERE s.window_name = $1
		 ORDER BY s.rank
		 LIMIT $2`,
		window, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshot: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Rank, &e.UserID, &e.DisplayName, &e.Score); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
