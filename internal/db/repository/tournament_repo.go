package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateRound signals that a bracket slot row already exists; the
// advancement raced and this caller lost.
var ErrDuplicateRound = errors.New("bracket round already exists")

// TournamentRepository contains DB helpers for tournaments and bracket slots.
type TournamentRepository struct {
	pool *pgxpool.Pool
}

// NewTournamentRepository constructs a tournament repository.
func NewTournamentRepository(pool *pgxpool.Pool) *TournamentRepository {
	return &TournamentRepository{pool: pool}
}

// UpdateTournamentStatusParams describes a guarded tournament transition.
type UpdateTournamentStatusParams struct {
	TournamentID   string
	Status         string
	AllowedFrom    []string
	SetStartedAt   *time.Time
	SetCompletedAt *time.Time
}

// CreateTournament persists the tournament and its creator participant.
func (r *TournamentRepository) CreateTournament(ctx context.Context, t Tournament, creator TournamentParticipant) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO tournaments (tournament_id, status, creator_id, created_at, started_at, completed_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.TournamentID, t.Status, t.CreatorID, t.CreatedAt, t.StartedAt, t.CompletedAt, t.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert tournament: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO tournament_participants (tournament_id, user_id, seed, joined_at)
		 VALUES ($1, $2, $3, $4)`,
		creator.TournamentID, creator.UserID, creator.Seed, creator.JoinedAt); err != nil {
		return fmt.Errorf("insert creator participant: %w", err)
	}

	return tx.Commit(ctx)
}

// GetTournament loads a tournament by its public id.
func (r *TournamentRepository) GetTournament(ctx context.Context, tournamentID string) (Tournament, error) {
	var t Tournament
	err := r.pool.QueryRow(ctx,
		`SELECT tournament_id, status, creator_id, created_at, started_at, completed_at, expires_at
		 FROM tournaments WHERE tournament_id = $1`, tournamentID).
		Scan(&t.TournamentID, &t.Status, &t.CreatorID, &t.CreatedAt, &t.StartedAt, &t.CompletedAt, &t.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Tournament{}, ErrNotFound
	}
	if err != nil {
		return Tournament{}, fmt.Errorf("get tournament: %w", err)
	}
	return t, nil
}

// InsertParticipant adds one participant row.
func (r *TournamentRepository) InsertParticipant(ctx context.Context, p TournamentParticipant) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tournament_participants (tournament_id, user_id, seed, joined_at)
		 VALUES ($1, $2, $3, $4)`,
		p.TournamentID, p.UserID, p.Seed, p.JoinedAt)
	if err != nil {
		return fmt.Errorf("insert tournament participant: %w", err)
	}
	return nil
}

// ListParticipants returns all participants ordered by join time.
func (r *TournamentRepository) ListParticipants(ctx context.Context, tournamentID string) ([]TournamentParticipant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT tournament_id, user_id, seed, joined_at
		 FROM tournament_participants WHERE tournament_id = $1 ORDER BY joined_at, user_id`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list tournament participants: %w", err)
	}
	defer rows.Close()

	var participants []TournamentParticipant
	for rows.Next() {
		var p TournamentParticipant
		if err := rows.Scan(&p.TournamentID, &p.UserID, &p.Seed, &p.JoinedAt); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// SetParticipantSeed records the bracket slot assigned by the start shuffle.
func (r *TournamentRepository) SetParticipantSeed(ctx context.Context, tournamentID string, userID uuid.UUID, seed int16) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE tournament_participants SET seed = $3 WHERE tournament_id = $1 AND user_id = $2`,
		tournamentID, userID, seed)
	return err
}

// DeleteParticipant removes one participant, reporting whether it existed.
func (r *TournamentRepository) DeleteParticipant(ctx context.Context, tournamentID string, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM tournament_participants WHERE tournament_id = $1 AND user_id = $2`,
		tournamentID, userID)
	if err != nil {
		return false, fmt.Errorf("delete tournament participant: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteParticipants removes every participant of a tournament.
func (r *TournamentRepository) DeleteParticipants(ctx context.Context, tournamentID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM tournament_participants WHERE tournament_id = $1`, tournamentID)
	return err
}

// UpdateTournamentStatus applies a guarded transition; false means the
// tournament was not in an allowed source state.
func (r *TournamentRepository) UpdateTournamentStatus(ctx context.Context, params UpdateTournamentStatusParams) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tournaments
		 SET status = $2,
		     started_at = COALESCE($3, started_at),
		     completed_at = COALESCE($4, completed_at)
		 WHERE tournament_id = $1 AND status = ANY($5)`,
		params.TournamentID, params.Status, params.SetStartedAt, params.SetCompletedAt, params.AllowedFrom)
	if err != nil {
		return false, fmt.Errorf("update tournament status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// InsertTournamentMatch binds a bracket slot to a match. A duplicate round
// insert returns ErrDuplicateRound via the unique constraint.
func (r *TournamentRepository) InsertTournamentMatch(ctx context.Context, tm TournamentMatch) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tournament_matches (tournament_id, round, match_id, player1_id, player2_id, status, winner_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		tm.TournamentID, tm.Round, tm.MatchID, tm.Player1ID, tm.Player2ID, tm.Status, tm.WinnerID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateRound
		}
		return fmt.Errorf("insert tournament match: %w", err)
	}
	return nil
}

// UpdateTournamentMatch records the slot's coordination status and winner.
func (r *TournamentRepository) UpdateTournamentMatch(ctx context.Context, tournamentID, round, status string, winnerID *uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tournament_matches SET status = $3, winner_id = $4
		 WHERE tournament_id = $1 AND round = $2`,
		tournamentID, round, status, winnerID)
	if err != nil {
		return fmt.Errorf("update tournament match: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetTournamentMatchByMatchID resolves the bracket slot bound to a match.
func (r *TournamentRepository) GetTournamentMatchByMatchID(ctx context.Context, matchID uuid.UUID) (TournamentMatch, error) {
	row := r.pool.QueryRow(ctx, tournamentMatchSelect+` WHERE match_id = $1`, matchID)
	return scanTournamentMatch(row)
}

// ListTournamentMatches returns all bound bracket slots for a tournament.
func (r *TournamentRepository) ListTournamentMatches(ctx context.Context, tournamentID string) ([]TournamentMatch, error) {
	rows, err := r.pool.Query(ctx, tournamentMatchSelect+` WHERE tournament_id = $1 ORDER BY round`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list tournament matches: %w", err)
	}
	defer rows.Close()

	var tms []TournamentMatch
	for rows.Next() {
		tm, err := scanTournamentMatch(rows)
		if err != nil {
			return nil, err
		}
		tms = append(tms, tm)
	}
	return tms, rows.Err()
}

// ReserveFinalQuestions stores the question set drawn for the eventual final.
func (r *TournamentRepository) ReserveFinalQuestions(ctx context.Context, tournamentID string, questionIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, questionID := range questionIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO tournament_final_questions (tournament_id, position, question_id)
			 VALUES ($1, $2, $3)`,
			tournamentID, i, questionID); err != nil {
			return fmt.Errorf("reserve final question: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// ListFinalQuestions returns the reserved final question set in draw order.
func (r *TournamentRepository) ListFinalQuestions(ctx context.Context, tournamentID string) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT question_id FROM tournament_final_questions
		 WHERE tournament_id = $1 ORDER BY position`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list final questions: %w", err)
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

// CountCreatedSince counts non-cancelled tournaments created by a user within
// the trailing window.
func (r *TournamentRepository) CountCreatedSince(ctx context.Context, creatorID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tournaments
		 WHERE creator_id = $1 AND created_at >= $2 AND status <> 'cancelled'`,
		creatorID, since).Scan(&count)
	return count, err
}

// ListExpired returns live tournaments whose expiry has passed.
func (r *TournamentRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]Tournament, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT tournament_id, status, creator_id, created_at, started_at, completed_at, expires_at
		 FROM tournaments WHERE status IN ('waiting', 'active') AND expires_at < $1 LIMIT $2`,
		now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired tournaments: %w", err)
	}
	defer rows.Close()

	var tournaments []Tournament
	for rows.Next() {
		var t Tournament
		if err := rows.Scan(&t.TournamentID, &t.Status, &t.CreatorID, &t.CreatedAt,
			&t.StartedAt, &t.CompletedAt, &t.ExpiresAt); err != nil {
			return nil, err
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

const tournamentMatchSelect = `SELECT tournament_id, round, match_id, player1_id, player2_id, status, winner_id
FROM tournament_matches`

func scanTournamentMatch(row rowScanner) (TournamentMatch, error) {
	var tm TournamentMatch
	err := row.Scan(&tm.TournamentID, &tm.Round, &tm.MatchID, &tm.Player1ID, &tm.Player2ID,
		&tm.Status, &tm.WinnerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return TournamentMatch{}, ErrNotFound
	}
	if err != nil {
		return TournamentMatch{}, fmt.Errorf("scan tournament match: %w", err)
	}
	return tm, nil
}
