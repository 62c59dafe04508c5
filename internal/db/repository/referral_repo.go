package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAlreadyRedeemed signals a signee attempting a second referral redemption.
var ErrAlreadyRedeemed = errors.New("referral already redeemed")

// ReferralRepository records referral-code redemptions.
type ReferralRepository struct {
	pool *pgxpool.Pool
}

// NewReferralRepository constructs a referral repository.
func NewReferralRepository(pool *pgxpool.Pool) *ReferralRepository {
	return &ReferralRepository{pool: pool}
}

// InsertRedemption records one redemption. The signee is the primary key, so
// a user can redeem at most one code ever.
func (r *ReferralRepository) InsertRedemption(ctx context.Context, ownerID, signeeID uuid.UUID, redeemedAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO referral_redemptions (signee_id, owner_id, redeemed_at) VALUES ($1, $2, $3)`,
		signeeID, ownerID, redeemedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyRedeemed
		}
		return fmt.Errorf("insert referral redemption: %w", err)
	}
	return nil
}
