package quota

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quizduel/duel-platform/internal/db/repository"
	"github.com/quizduel/duel-platform/pkg/apperrors"
)

type mockCounter struct {
	mock.Mock
}

func (m *mockCounter) CountCreatedSince(ctx context.Context, creatorID uuid.UUID, since time.Time) (int, error) {
	args := m.Called(ctx, creatorID, since)
	return args.Int(0), args.Error(1)
}

type mockBonuses struct {
	mock.Mock
}

func (m *mockBonuses) ActiveStadiumBonuses(ctx context.Context, userID uuid.UUID, now time.Time) (repository.StadiumBonuses, error) {
	args := m.Called(ctx, userID, now)
	return args.Get(0).(repository.StadiumBonuses), args.Error(1)
}

func newPolicy() (*Policy, *mockCounter, *mockCounter, *mockBonuses) {
	matches := new(mockCounter)
	tournaments := new(mockCounter)
	bonuses := new(mockBonuses)
	return NewPolicy(matches, tournaments, bonuses, 3, 1, zerolog.Nop()), matches, tournaments, bonuses
}

func TestAuthorizeMatchUnderLimit(t *testing.T) {
	p, matches, _, bonuses := newPolicy()
	user := uuid.New()

	bonuses.On("ActiveStadiumBonuses", mock.Anything, user, mock.Anything).
		Return(repository.StadiumBonuses{}, nil)
	matches.On("CountCreatedSince", mock.Anything, user, mock.Anything).Return(2, nil)

	assert.NoError(t, p.AuthorizeMatchCreation(context.Background(), user))
}

func TestAuthorizeMatchAtLimit(t *testing.T) {
	p, matches, _, bonuses := newPolicy()
	user := uuid.New()

	bonuses.On("ActiveStadiumBonuses", mock.Anything, user, mock.Anything).
		Return(repository.StadiumBonuses{}, nil)
	matches.On("CountCreatedSince", mock.Anything, user, mock.Anything).Return(3, nil)

	err := p.AuthorizeMatchCreation(context.Background(), user)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindQuotaExceeded, apperrors.KindOf(err))
	details := apperrors.DetailsOf(err)
	assert.Equal(t, 3, details["limit"])
	assert.Equal(t, 3, details["used"])
}

func TestStadiumBonusRaisesMatchLimit(t *testing.T) {
	p, matches, _, bonuses := newPolicy()
	user := uuid.New()

	bonuses.On("ActiveStadiumBonuses", mock.Anything, user, mock.Anything).
		Return(repository.StadiumBonuses{Matches: 2}, nil)

	matches.On("CountCreatedSince", mock.Anything, user, mock.Anything).Return(4, nil).Once()
	assert.NoError(t, p.AuthorizeMatchCreation(context.Background(), user))

	matches.On("CountCreatedSince", mock.Anything, user, mock.Anything).Return(5, nil).Once()
	err := p.AuthorizeMatchCreation(context.Background(), user)
	assert.Equal(t, apperrors.KindQuotaExceeded, apperrors.KindOf(err))
}

func TestAuthorizeTournamentAtLimit(t *testing.T) {
	p, _, tournaments, bonuses := newPolicy()
	user := uuid.New()

	bonuses.On("ActiveStadiumBonuses", mock.Anything, user, mock.Anything).
		Return(repository.StadiumBonuses{}, nil)
	tournaments.On("CountCreatedSince", mock.Anything, user, mock.Anything).Return(1, nil)

	err := p.AuthorizeTournamentCreation(context.Background(), user)
	assert.Equal(t, apperrors.KindQuotaExceeded, apperrors.KindOf(err))
}

func TestRemainingSnapshot(t *testing.T) {
	p, matches, tournaments, bonuses := newPolicy()
	user := uuid.New()

	bonuses.On("ActiveStadiumBonuses", mock.Anything, user, mock.Anything).
		Return(repository.StadiumBonuses{Matches: 2, Tournaments: 1}, nil)
	matches.On("CountCreatedSince", mock.Anything, user, mock.Anything).Return(1, nil)
	tournaments.On("CountCreatedSince", mock.Anything, user, mock.Anything).Return(2, nil)

	rem, err := p.Remaining(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, 5, rem.MatchLimit)
	assert.Equal(t, 4, rem.MatchRemaining)
	assert.Equal(t, 2, rem.TournamentLimit)
	assert.Equal(t, 0, rem.TournamentRemaining)
}

func TestRemainingNeverNegative(t *testing.T) {
	p, matches, tournaments, bonuses := newPolicy()
	user := uuid.New()

	bonuses.On("ActiveStadiumBonuses", mock.Anything, user, mock.Anything).
		Return(repository.StadiumBonuses{}, nil)
	matches.On("CountCreatedSince", mock.Anything, user, mock.Anything).Return(7, nil)
	tournaments.On("CountCreatedSince", mock.Anything, user, mock.Anything).Return(0, nil)

	rem, err := p.Remaining(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, 0, rem.MatchRemaining)
}
