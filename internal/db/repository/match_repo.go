package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MatchRepository contains DB helpers for matches, participants and results.
type MatchRepository struct {
	pool *pgxpool.Pool
}

// NewMatchRepository constructs a new match repository.
func NewMatchRepository(pool *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{pool: pool}
}

// UpdateMatchStatusParams describes a guarded status transition. AllowedFrom
// is enforced in SQL so a racing cancel/complete loses cleanly.
type UpdateMatchStatusParams struct {
	MatchID                 uuid.UUID
	Status                  string
	AllowedFrom             []string
	SetStartedAt            *time.Time
	SetCompletedAt          *time.Time
	SetExpiresAt            *time.Time
	SetCurrentQuestionIndex *int16
}

// CreateMatch persists a match, its ordered question list and the initial
// participants in one transaction.
func (r *MatchRepository) CreateMatch(ctx context.Context, m Match, questionIDs []uuid.UUID, participants ...MatchParticipant) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO matches (match_id, status, is_private, join_code, is_bracket, creator_id,
		                      current_question_index, created_at, started_at, completed_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.MatchID, m.Status, m.IsPrivate, m.JoinCode, m.IsBracket, m.CreatorID,
		m.CurrentQuestionIndex, m.CreatedAt, m.StartedAt, m.CompletedAt, m.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}

	for i, questionID := range questionIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO match_questions (match_id, position, question_id) VALUES ($1, $2, $3)`,
			m.MatchID, i, questionID); err != nil {
			return fmt.Errorf("insert match question: %w", err)
		}
	}

	for _, p := range participants {
		if err := insertParticipant(ctx, tx, p); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetMatch loads a match by id.
func (r *MatchRepository) GetMatch(ctx context.Context, matchID uuid.UUID) (Match, error) {
	return r.scanMatch(r.pool.QueryRow(ctx, matchSelect+` WHERE match_id = $1`, matchID))
}

// GetMatchByJoinCode resolves a private match through its join code.
func (r *MatchRepository) GetMatchByJoinCode(ctx context.Context, code string) (Match, error) {
	return r.scanMatch(r.pool.QueryRow(ctx, matchSelect+` WHERE join_code = $1`, code))
}

// JoinCodeExists reports whether a join code is already taken.
func (r *MatchRepository) JoinCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM matches WHERE join_code = $1)`, code).Scan(&exists)
	return exists, err
}

// ListQuestionIDs returns the match's question ids in draw order.
func (r *MatchRepository) ListQuestionIDs(ctx context.Context, matchID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT question_id FROM match_questions WHERE match_id = $1 ORDER BY position`, matchID)
	if err != nil {
		return nil, fmt.Errorf("list match questions: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// InsertParticipant adds a participant row.
func (r *MatchRepository) InsertParticipant(ctx context.Context, p MatchParticipant) error {
	return insertParticipant(ctx, r.pool, p)
}

// GetParticipant loads one participant row.
func (r *MatchRepository) GetParticipant(ctx context.Context, matchID, userID uuid.UUID) (MatchParticipant, error) {
	row := r.pool.QueryRow(ctx, participantSelect+` WHERE match_id = $1 AND user_id = $2`, matchID, userID)
	return scanParticipant(row)
}

// ListParticipants returns all participants ordered by join time.
func (r *MatchRepository) ListParticipants(ctx context.Context, matchID uuid.UUID) ([]MatchParticipant, error) {
	rows, err := r.pool.Query(ctx, participantSelect+` WHERE match_id = $1 ORDER BY joined_at, user_id`, matchID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var participants []MatchParticipant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// SaveParticipantProgress persists the answer list and, once final, the
// computed totals and completion timestamp.
func (r *MatchRepository) SaveParticipantProgress(ctx context.Context, p MatchParticipant) error {
	answersJSON, err := json.Marshal(p.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE match_participants
		 SET answers = $3, total_score = $4, total_time_seconds = $5, completed_at = $6
		 WHERE match_id = $1 AND user_id = $2`,
		p.MatchID, p.UserID, answersJSON, p.TotalScore, p.TotalTimeSeconds, p.CompletedAt)
	if err != nil {
		return fmt.Errorf("save participant progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteParticipant removes one participant row, reporting whether it existed.
func (r *MatchRepository) DeleteParticipant(ctx context.Context, matchID, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM match_participants WHERE match_id = $1 AND user_id = $2`, matchID, userID)
	if err != nil {
		return false, fmt.Errorf("delete participant: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteParticipants removes every participant of a match.
func (r *MatchRepository) DeleteParticipants(ctx context.Context, matchID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM match_participants WHERE match_id = $1`, matchID)
	return err
}

// UpdateMatchStatus applies a guarded transition. It reports false when the
// match was not in an allowed source state (the race loser path).
func (r *MatchRepository) UpdateMatchStatus(ctx context.Context, params UpdateMatchStatusParams) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE matches
		 SET status = $2,
		     started_at = COALESCE($3, started_at),
		     completed_at = COALESCE($4, completed_at),
		     expires_at = COALESCE($5, expires_at),
		     current_question_index = COALESCE($6, current_question_index)
		 WHERE match_id = $1 AND status = ANY($7)`,
		params.MatchID, params.Status, params.SetStartedAt, params.SetCompletedAt,
		params.SetExpiresAt, params.SetCurrentQuestionIndex, params.AllowedFrom)
	if err != nil {
		return false, fmt.Errorf("update match status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// InsertResult creates the unique result row for a completed match.
func (r *MatchRepository) InsertResult(ctx context.Context, res MatchResult) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO match_results (match_id, player1_id, player1_score, player1_time_seconds,
		                            player2_id, player2_score, player2_time_seconds,
		                            winner_id, is_draw, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		res.MatchID, res.Player1ID, res.Player1Score, res.Player1TimeSeconds,
		res.Player2ID, res.Player2Score, res.Player2TimeSeconds,
		res.WinnerID, res.IsDraw, res.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert match result: %w", err)
	}
	return nil
}

// GetResult loads the result row of a completed match.
func (r *MatchRepository) GetResult(ctx context.Context, matchID uuid.UUID) (MatchResult, error) {
	var res MatchResult
	err := r.pool.QueryRow(ctx,
		`SELECT match_id, player1_id, player1_score, player1_time_seconds,
		        player2_id, player2_score, player2_time_seconds, winner_id, is_draw, created_at
		 FROM match_results WHERE match_id = $1`, matchID).
		Scan(&res.MatchID, &res.Player1ID, &res.Player1Score, &res.Player1TimeSeconds,
			&res.Player2ID, &res.Player2Score, &res.Player2TimeSeconds,
			&res.WinnerID, &res.IsDraw, &res.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return MatchResult{}, ErrNotFound
	}
	if err != nil {
		return MatchResult{}, fmt.Errorf("get match result: %w", err)
	}
	return res, nil
}

// CountCreatedSince counts non-cancelled matches created by a user within the
// trailing window. Served by the (creator_id, created_at) index.
func (r *MatchRepository) CountCreatedSince(ctx context.Context, creatorID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM matches
		 WHERE creator_id = $1 AND created_at >= $2 AND status <> 'cancelled'`,
		creatorID, since).Scan(&count)
	return count, err
}

// ListExpired returns live matches whose expiry has passed.
func (r *MatchRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]Match, error) {
	rows, err := r.pool.Query(ctx,
		matchSelect+` WHERE status IN ('waiting', 'active') AND expires_at < $1 LIMIT $2`,
		now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired matches: %w", err)
	}
	defer rows.Close()
	return collectMatches(rows)
}

// ListWaitingPublic returns joinable public matches, oldest first.
func (r *MatchRepository) ListWaitingPublic(ctx context.Context, now time.Time, limit int) ([]Match, error) {
	rows, err := r.pool.Query(ctx,
		matchSelect+` WHERE status = 'waiting' AND is_private = FALSE AND expires_at > $1
		 ORDER BY created_at LIMIT $2`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list waiting matches: %w", err)
	}
	defer rows.Close()
	return collectMatches(rows)
}

const matchSelect = `SELECT match_id, status, is_private, join_code, is_bracket, creator_id,
       current_question_index, created_at, started_at, completed_at, expires_at
FROM matches`

const participantSelect = `SELECT match_id, user_id, joined_at, completed_at, answers,
       total_score, total_time_seconds
FROM match_participants`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *MatchRepository) scanMatch(row rowScanner) (Match, error) {
	var m Match
	err := row.Scan(&m.MatchID, &m.Status, &m.IsPrivate, &m.JoinCode, &m.IsBracket,
		&m.CreatorID, &m.CurrentQuestionIndex, &m.CreatedAt, &m.StartedAt, &m.CompletedAt, &m.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Match{}, ErrNotFound
	}
	if err != nil {
		return Match{}, fmt.Errorf("scan match: %w", err)
	}
	return m, nil
}

func collectMatches(rows pgx.Rows) ([]Match, error) {
	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.MatchID, &m.Status, &m.IsPrivate, &m.JoinCode, &m.IsBracket,
			&m.CreatorID, &m.CurrentQuestionIndex, &m.CreatedAt, &m.StartedAt, &m.CompletedAt, &m.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func scanParticipant(row rowScanner) (MatchParticipant, error) {
	var p MatchParticipant
	var answersJSON []byte
	err := row.Scan(&p.MatchID, &p.UserID, &p.JoinedAt, &p.CompletedAt, &answersJSON,
		&p.TotalScore, &p.TotalTimeSeconds)
	if errors.Is(err, pgx.ErrNoRows) {
		return MatchParticipant{}, ErrNotFound
	}
	if err != nil {
		return MatchParticipant{}, fmt.Errorf("scan participant: %w", err)
	}
	if len(answersJSON) > 0 {
		if err := json.Unmarshal(answersJSON, &p.Answers); err != nil {
			return MatchParticipant{}, fmt.Errorf("unmarshal answers: %w", err)
		}
	}
	return p, nil
}

type execQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertParticipant(ctx context.Context, db execQuerier, p MatchParticipant) error {
	answersJSON := []byte(`[]`)
	if p.Answers != nil {
		var err error
		answersJSON, err = json.Marshal(p.Answers)
		if err != nil {
			return fmt.Errorf("marshal answers: %w", err)
		}
	}
	_, err := db.Exec(ctx,
		`INSERT INTO match_participants (match_id, user_id, joined_at, completed_at, answers,
		                                 total_score, total_time_seconds)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.MatchID, p.UserID, p.JoinedAt, p.CompletedAt, answersJSON,
		p.TotalScore, p.TotalTimeSeconds)
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}
