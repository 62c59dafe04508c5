package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrInsufficientPoints signals a conditional point spend that failed.
var ErrInsufficientPoints = errors.New("insufficient points")

// ErrDuplicateEmail signals that the email is already registered.
var ErrDuplicateEmail = errors.New("email already registered")

// ProfileRepository contains DB helpers for user profiles.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository constructs a profile repository.
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// Create persists a new profile row.
func (r *ProfileRepository) Create(ctx context.Context, p Profile) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO profiles (user_id, email, password_hash, display_name, is_admin,
		                       points, correct_answers_total, referral_code, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.UserID, p.Email, p.PasswordHash, p.DisplayName, p.IsAdmin,
		p.Points, p.CorrectAnswersTotal, p.ReferralCode, p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// GetByID loads a profile by user id.
func (r *ProfileRepository) GetByID(ctx context.Context, userID uuid.UUID) (Profile, error) {
	return r.scan(r.pool.QueryRow(ctx, profileSelect+` WHERE user_id = $1`, userID))
}

// GetByEmail loads a profile by email.
func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (Profile, error) {
	return r.scan(r.pool.QueryRow(ctx, profileSelect+` WHERE email = $1`, email))
}

// GetByReferralCode resolves the owner of a referral code.
func (r *ProfileRepository) GetByReferralCode(ctx context.Context, code string) (Profile, error) {
	return r.scan(r.pool.QueryRow(ctx, profileSelect+` WHERE referral_code = $1`, code))
}

// AddPoints applies an additive point mutation.
func (r *ProfileRepository) AddPoints(ctx context.Context, userID uuid.UUID, delta int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE profiles SET points = points + $2 WHERE user_id = $1`, userID, delta)
	if err != nil {
		return fmt.Errorf("add points: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SpendPoints deducts points only when the balance covers the amount.
func (r *ProfileRepository) SpendPoints(ctx context.Context, userID uuid.UUID, amount int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE profiles SET points = points - $2 WHERE user_id = $1 AND points >= $2`,
		userID, amount)
	if err != nil {
		return fmt.Errorf("spend points: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientPoints
	}
	return nil
}

// AddCorrectAnswers bumps the cumulative correct-answer counter.
func (r *ProfileRepository) AddCorrectAnswers(ctx context.Context, userID uuid.UUID, delta int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE profiles SET correct_answers_total = correct_answers_total + $2 WHERE user_id = $1`,
		userID, delta)
	if err != nil {
		return fmt.Errorf("add correct answers: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDisplayNames resolves display names for a set of user ids.
func (r *ProfileRepository) ListDisplayNames(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, display_name FROM profiles WHERE user_id = ANY($1)`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("list display names: %w", err)
	}
	defer rows.Close()

	names := make(map[uuid.UUID]string, len(userIDs))
	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan display name: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

const profileSelect = `SELECT user_id, email, password_hash, display_name, is_admin,
       points, correct_answers_total, referral_code, created_at
FROM profiles`

func (r *ProfileRepository) scan(row rowScanner) (Profile, error) {
	var p Profile
	err := row.Scan(&p.UserID, &p.Email, &p.PasswordHash, &p.DisplayName, &p.IsAdmin,
		&p.Points, &p.CorrectAnswersTotal, &p.ReferralCode, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("scan profile: %w", err)
	}
	return p, nil
}
