package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PurchaseRepository contains DB helpers for store purchases.
type PurchaseRepository struct {
	pool *pgxpool.Pool
}

// NewPurchaseRepository constructs a purchase repository.
func NewPurchaseRepository(pool *pgxpool.Pool) *PurchaseRepository {
	return &PurchaseRepository{pool: pool}
}

// Insert persists a purchase. Duration is stored in seconds; 0 = permanent.
func (r *PurchaseRepository) Insert(ctx context.Context, p Purchase) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO purchases (purchase_id, user_id, item_type, matches_bonus, tournaments_bonus,
		                        duration_seconds, purchased_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.PurchaseID, p.UserID, p.ItemType, p.MatchesBonus, p.TournamentsBonus,
		int64(p.Duration/time.Second), p.PurchasedAt)
	if err != nil {
		return fmt.Errorf("insert purchase: %w", err)
	}
	return nil
}

// ActiveStadiumBonuses sums quota bonuses across the user's currently active
// stadium purchases (permanent, or purchased_at + duration still ahead).
func (r *PurchaseRepository) ActiveStadiumBonuses(ctx context.Context, userID uuid.UUID, now time.Time) (StadiumBonuses, error) {
	var b StadiumBonuses
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(matches_bonus), 0), COALESCE(SUM(tournaments_bonus), 0)
		 FROM purchases
		 WHERE user_id = $1 AND item_type = 'stadium'
		   AND (duration_seconds = 0 OR purchased_at + duration_seconds * INTERVAL '1 second' > $2)`,
		userID, now).Scan(&b.Matches, &b.Tournaments)
	if err != nil {
		return StadiumBonuses{}, fmt.Errorf("active stadium bonuses: %w", err)
	}
	return b, nil
}

// HasActiveMentor reports whether the user holds a live mentor purchase.
func (r *PurchaseRepository) HasActiveMentor(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error) {
	var active bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM purchases
		   WHERE user_id = $1 AND item_type = 'mentor'
		     AND (duration_seconds = 0 OR purchased_at + duration_seconds * INTERVAL '1 second' > $2))`,
		userID, now).Scan(&active)
	if err != nil {
		return false, fmt.Errorf("active mentor: %w", err)
	}
	return active, nil
}
