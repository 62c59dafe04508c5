package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PlayerOutcome summarizes one participant's final numbers in a match.
type PlayerOutcome struct {
	UserID           uuid.UUID
	Score            int
	TimeSpentSeconds int
}

// MatchCompleted is emitted exactly once per match, inside the completion
// transition of the match state machine.
type MatchCompleted struct {
	MatchID     uuid.UUID
	CreatorID   *uuid.UUID
	IsBracket   bool
	WinnerID    *uuid.UUID
	IsDraw      bool
	Players     []PlayerOutcome
	CompletedAt time.Time
}

// FinalStarted is emitted when both semifinals resolved and the bracket
// advanced to the final.
type FinalStarted struct {
	TournamentID string
	MatchID      uuid.UUID
	Player1ID    uuid.UUID
	Player2ID    uuid.UUID
}

// TournamentCompleted is emitted once when the final's result lands.
type TournamentCompleted struct {
	TournamentID string
	CreatorID    uuid.UUID
	WinnerID     uuid.UUID
	CompletedAt  time.Time
}

// MatchCompletedHandler reacts to a match completion.
type MatchCompletedHandler func(ctx context.Context, ev MatchCompleted) error

// FinalStartedHandler reacts to bracket advancement.
type FinalStartedHandler func(ctx context.Context, ev FinalStarted) error

// TournamentCompletedHandler reacts to a tournament completion.
type TournamentCompletedHandler func(ctx context.Context, ev TournamentCompleted) error

// Bus fans domain events out to subscribers synchronously, in subscription
// order, as part of the emitting operation. Handler errors are joined and
// surfaced to the emitter.
type Bus struct {
	mu             sync.RWMutex
	matchDone      []MatchCompletedHandler
	finalStarted   []FinalStartedHandler
	tournamentDone []TournamentCompletedHandler
	logger         zerolog.Logger
}

// NewBus creates an event bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{logger: logger.With().Str("component", "events").Logger()}
}

// SubscribeMatchCompleted registers a MatchCompleted handler.
func (b *Bus) SubscribeMatchCompleted(h MatchCompletedHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.matchDone = append(b.matchDone, h)
}

// SubscribeFinalStarted registers a FinalStarted handler.
func (b *Bus) SubscribeFinalStarted(h FinalStartedHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.finalStarted = append(b.finalStarted, h)
}

// SubscribeTournamentCompleted registers a TournamentCompleted handler.
func (b *Bus) SubscribeTournamentCompleted(h TournamentCompletedHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tournamentDone = append(b.tournamentDone, h)
}

// PublishMatchCompleted runs every MatchCompleted handler.
func (b *Bus) PublishMatchCompleted(ctx context.Context, ev MatchCompleted) error {
	b.mu.RLock()
	handlers := b.matchDone
	b.mu.RUnlock()

	b.logger.Info().
		Str("match_id", ev.MatchID.String()).
		Bool("is_draw", ev.IsDraw).
		Bool("is_bracket", ev.IsBracket).
		Msg("match completed")

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishFinalStarted runs every FinalStarted handler.
func (b *Bus) PublishFinalStarted(ctx context.Context, ev FinalStarted) error {
	b.mu.RLock()
	handlers := b.finalStarted
	b.mu.RUnlock()

	b.logger.Info().
		Str("tournament_id", ev.TournamentID).
		Str("match_id", ev.MatchID.String()).
		Msg("bracket advanced to final")

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishTournamentCompleted runs every TournamentCompleted handler.
func (b *Bus) PublishTournamentCompleted(ctx context.Context, ev TournamentCompleted) error {
	b.mu.RLock()
	handlers := b.tournamentDone
	b.mu.RUnlock()

	b.logger.Info().
		Str("tournament_id", ev.TournamentID).
		Str("winner_id", ev.WinnerID.String()).
		Msg("tournament completed")

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
