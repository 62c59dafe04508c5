package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishRunsHandlersInSubscriptionOrder(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	var order []string

	bus.SubscribeMatchCompleted(func(ctx context.Context, ev MatchCompleted) error {
		order = append(order, "first")
		return nil
	})
	bus.SubscribeMatchCompleted(func(ctx context.Context, ev MatchCompleted) error {
		order = append(order, "second")
		return nil
	})

	err := bus.PublishMatchCompleted(context.Background(), MatchCompleted{MatchID: uuid.New()})

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestPublishJoinsHandlerErrors(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	errFirst := errors.New("first failed")
	errSecond := errors.New("second failed")
	var ran bool

	bus.SubscribeMatchCompleted(func(ctx context.Context, ev MatchCompleted) error {
		return errFirst
	})
	bus.SubscribeMatchCompleted(func(ctx context.Context, ev MatchCompleted) error {
		ran = true
		return errSecond
	})

	err := bus.PublishMatchCompleted(context.Background(), MatchCompleted{MatchID: uuid.New()})

	assert.True(t, ran, "a failing handler must not stop later handlers")
	assert.ErrorIs(t, err, errFirst)
	assert.ErrorIs(t, err, errSecond)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	assert.NoError(t, bus.PublishMatchCompleted(context.Background(), MatchCompleted{MatchID: uuid.New()}))
	assert.NoError(t, bus.PublishFinalStarted(context.Background(), FinalStarted{TournamentID: "t_abcxyz2345kk"}))
	assert.NoError(t, bus.PublishTournamentCompleted(context.Background(), TournamentCompleted{
		TournamentID: "t_abcxyz2345kk",
		WinnerID:     uuid.New(),
		CompletedAt:  time.Now(),
	}))
}

func TestFinalStartedPayloadDelivered(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	matchID := uuid.New()
	var got FinalStarted

	bus.SubscribeFinalStarted(func(ctx context.Context, ev FinalStarted) error {
		got = ev
		return nil
	})

	err := bus.PublishFinalStarted(context.Background(), FinalStarted{
		TournamentID: "t_abcxyz2345kk",
		MatchID:      matchID,
	})

	require.NoError(t, err)
	assert.Equal(t, "t_abcxyz2345kk", got.TournamentID)
	assert.Equal(t, matchID, got.MatchID)
}
