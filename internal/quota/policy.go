// Package quota enforces the rolling 24 hour creation limits for matches and
// tournaments, including purchased stadium bonuses.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quizduel/duel-platform/internal/db/repository"
	"github.com/quizduel/duel-platform/pkg/apperrors"
)

// Window is the trailing period counted against the limits. Cancelled
// creations do not count.
const Window = 24 * time.Hour

type matchCounter interface {
	CountCreatedSince(ctx context.Context, creatorID uuid.UUID, since time.Time) (int, error)
}

type tournamentCounter interface {
	CountCreatedSince(ctx context.Context, creatorID uuid.UUID, since time.Time) (int, error)
}

type bonusStore interface {
	ActiveStadiumBonuses(ctx context.Context, userID uuid.UUID, now time.Time) (repository.StadiumBonuses, error)
}

// Remaining is the quota snapshot for one user.
type Remaining struct {
	MatchLimit          int `json:"match_limit"`
	MatchUsed           int `json:"match_used"`
	MatchRemaining      int `json:"match_remaining"`
	TournamentLimit     int `json:"tournament_limit"`
	TournamentUsed      int `json:"tournament_used"`
	TournamentRemaining int `json:"tournament_remaining"`
}

// Policy answers "may this user create another match/tournament right now".
// Match and tournament windows are counted independently.
type Policy struct {
	matches     matchCounter
	tournaments tournamentCounter
	purchases   bonusStore

	matchBase      int
	tournamentBase int
	logger         zerolog.Logger
}

func NewPolicy(
	matches matchCounter,
	tournaments tournamentCounter,
	purchases bonusStore,
	matchBase, tournamentBase int,
	logger zerolog.Logger,
) *Policy {
	return &Policy{
		matches:        matches,
		tournaments:    tournaments,
		purchases:      purchases,
		matchBase:      matchBase,
		tournamentBase: tournamentBase,
		logger:         logger.With().Str("component", "quota").Logger(),
	}
}

func (p *Policy) limits(ctx context.Context, userID uuid.UUID, now time.Time) (matchLimit, tournamentLimit int, err error) {
	bonuses, err := p.purchases.ActiveStadiumBonuses(ctx, userID, now)
	if err != nil {
		return 0, 0, fmt.Errorf("load stadium bonuses: %w", err)
	}
	return p.matchBase + bonuses.Matches, p.tournamentBase + bonuses.Tournaments, nil
}

// Remaining reports both quotas for the trailing window.
func (p *Policy) Remaining(ctx context.Context, userID uuid.UUID) (*Remaining, error) {
	now := time.Now()
	matchLimit, tournamentLimit, err := p.limits(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	since := now.Add(-Window)
	matchUsed, err := p.matches.CountCreatedSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("count matches: %w", err)
	}
	tournamentUsed, err := p.tournaments.CountCreatedSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("count tournaments: %w", err)
	}

	return &Remaining{
		MatchLimit:          matchLimit,
		MatchUsed:           matchUsed,
		MatchRemaining:      max(0, matchLimit-matchUsed),
		TournamentLimit:     tournamentLimit,
		TournamentUsed:      tournamentUsed,
		TournamentRemaining: max(0, tournamentLimit-tournamentUsed),
	}, nil
}

// AuthorizeMatchCreation rejects when the trailing window already holds as
// many non-cancelled creations as the limit allows.
func (p *Policy) AuthorizeMatchCreation(ctx context.Context, userID uuid.UUID) error {
	now := time.Now()
	matchLimit, _, err := p.limits(ctx, userID, now)
	if err != nil {
		return err
	}
	used, err := p.matches.CountCreatedSince(ctx, userID, now.Add(-Window))
	if err != nil {
		return fmt.Errorf("count matches: %w", err)
	}
	if used >= matchLimit {
		return apperrors.WithDetails(apperrors.KindQuotaExceeded,
			map[string]any{"limit": matchLimit, "used": used},
			"daily match creation limit reached")
	}
	return nil
}

// AuthorizeTournamentCreation is the tournament-side counterpart.
func (p *Policy) AuthorizeTournamentCreation(ctx context.Context, userID uuid.UUID) error {
	now := time.Now()
	_, tournamentLimit, err := p.limits(ctx, userID, now)
	if err != nil {
		return err
	}
	used, err := p.tournaments.CountCreatedSince(ctx, userID, now.Add(-Window))
	if err != nil {
		return fmt.Errorf("count tournaments: %w", err)
	}
	if used >= tournamentLimit {
		return apperrors.WithDetails(apperrors.KindQuotaExceeded,
			map[string]any{"limit": tournamentLimit, "used": used},
			"daily tournament creation limit reached")
	}
	return nil
}
