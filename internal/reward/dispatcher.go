// Package reward grants points in reaction to completed matches and
// tournaments, and for referral redemptions.
package reward

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quizduel/duel-platform/internal/events"
	"github.com/quizduel/duel-platform/internal/metrics"
)

// Point grants per trigger.
const (
	MatchWinPoints          = 5
	MatchCreatorPoints      = 2
	TournamentWinPoints     = 10
	TournamentCreatorPoints = 4
	ReferralOwnerPoints     = 5
	ReferralSigneePoints    = 2
)

type profileStore interface {
	AddPoints(ctx context.Context, userID uuid.UUID, delta int) error
}

// Dispatcher converts game outcomes into point grants. Bracket matches carry
// no per-match rewards; their players compete for the tournament grant.
type Dispatcher struct {
	profiles profileStore
	logger   zerolog.Logger
}

func NewDispatcher(profiles profileStore, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		profiles: profiles,
		logger:   logger.With().Str("component", "reward").Logger(),
	}
}

// HandleMatchCompleted grants the winner and creator rewards for regular
// matches. Draws grant only the creator reward.
func (d *Dispatcher) HandleMatchCompleted(ctx context.Context, ev events.MatchCompleted) error {
	if ev.IsBracket {
		return nil
	}

	if ev.WinnerID != nil {
		if err := d.grant(ctx, *ev.WinnerID, MatchWinPoints, "match_win"); err != nil {
			return err
		}
	}
	if ev.CreatorID != nil {
		if err := d.grant(ctx, *ev.CreatorID, MatchCreatorPoints, "match_creator"); err != nil {
			return err
		}
	}
	return nil
}

// HandleTournamentCompleted grants the champion and creator rewards.
func (d *Dispatcher) HandleTournamentCompleted(ctx context.Context, ev events.TournamentCompleted) error {
	if err := d.grant(ctx, ev.WinnerID, TournamentWinPoints, "tournament_win"); err != nil {
		return err
	}
	return d.grant(ctx, ev.CreatorID, TournamentCreatorPoints, "tournament_creator")
}

// GrantReferral rewards both sides of a redeemed referral code.
func (d *Dispatcher) GrantReferral(ctx context.Context, ownerID, signeeID uuid.UUID) error {
	if err := d.grant(ctx, ownerID, ReferralOwnerPoints, "referral_owner"); err != nil {
		return err
	}
	return d.grant(ctx, signeeID, ReferralSigneePoints, "referral_signee")
}

func (d *Dispatcher) grant(ctx context.Context, userID uuid.UUID, points int, trigger string) error {
	if err := d.profiles.AddPoints(ctx, userID, points); err != nil {
		return fmt.Errorf("grant %s to %s: %w", trigger, userID, err)
	}

	metrics.PointsGranted.WithLabelValues(trigger).Add(float64(points))
	d.logger.Info().
		Str("user_id", userID.String()).
		Str("trigger", trigger).
		Int("points", points).
		Msg("points granted")
	return nil
}
