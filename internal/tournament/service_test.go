package tournament

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
	"github.com/quizduel/duel-platform/internal/events"
	"github.com/quizduel/duel-platform/pkg/apperrors"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateTournament(ctx context.Context, t repository.Tournament, creator repository.TournamentParticipant) error {
	return m.Called(ctx, t, creator).Error(0)
}

func (m *mockStore) GetTournament(ctx context.Context, tournamentID string) (repository.Tournament, error) {
	args := m.Called(ctx, tournamentID)
	return args.Get(0).(repository.Tournament), args.Error(1)
}

func (m *mockStore) InsertParticipant(ctx context.Context, p repository.TournamentParticipant) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockStore) ListParticipants(ctx context.Context, tournamentID string) ([]repository.TournamentParticipant, error) {
	args := m.Called(ctx, tournamentID)
	return args.Get(0).([]repository.TournamentParticipant), args.Error(1)
}

func (m *mockStore) SetParticipantSeed(ctx context.Context, tournamentID string, userID uuid.UUID, seed int16) error {
	return m.Called(ctx, tournamentID, userID, seed).Error(0)
}

func (m *mockStore) DeleteParticipant(ctx context.Context, tournamentID string, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tournamentID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) DeleteParticipants(ctx context.Context, tournamentID string) error {
	return m.Called(ctx, tournamentID).Error(0)
}

func (m *mockStore) UpdateTournamentStatus(ctx context.Context, params repository.UpdateTournamentStatusParams) (bool, error) {
	args := m.Called(ctx, params)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) InsertTournamentMatch(ctx context.Context, tm repository.TournamentMatch) error {
	return m.Called(ctx, tm).Error(0)
}

func (m *mockStore) UpdateTournamentMatch(ctx context.Context, tournamentID, round, status string, winnerID *uuid.UUID) error {
	return m.Called(ctx, tournamentID, round, status, winnerID).Error(0)
}

func (m *mockStore) GetTournamentMatchByMatchID(ctx context.Context, matchID uuid.UUID) (repository.TournamentMatch, error) {
	args := m.Called(ctx, matchID)
	return args.Get(0).(repository.TournamentMatch), args.Error(1)
}

func (m *mockStore) ListTournamentMatches(ctx context.Context, tournamentID string) ([]repository.TournamentMatch, error) {
	args := m.Called(ctx, tournamentID)
	return args.Get(0).([]repository.TournamentMatch), args.Error(1)
}

func (m *mockStore) ReserveFinalQuestions(ctx context.Context, tournamentID string, questionIDs []uuid.UUID) error {
	return m.Called(ctx, tournamentID, questionIDs).Error(0)
}

func (m *mockStore) ListFinalQuestions(ctx context.Context, tournamentID string) ([]uuid.UUID, error) {
	args := m.Called(ctx, tournamentID)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *mockStore) ListExpired(ctx context.Context, now time.Time, limit int) ([]repository.Tournament, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).([]repository.Tournament), args.Error(1)
}

type mockMatches struct {
	mock.Mock
}

func (m *mockMatches) CreateBracketMatch(ctx context.Context, player1, player2 uuid.UUID, questionIDs []uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, player1, player2, questionIDs)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *mockMatches) CancelBracketMatch(ctx context.Context, matchID uuid.UUID) error {
	return m.Called(ctx, matchID).Error(0)
}

type mockQuestions struct {
	mock.Mock
}

func (m *mockQuestions) SelectQuestions(ctx context.Context, category string) ([]uuid.UUID, error) {
	args := m.Called(ctx, category)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type mockProfiles struct {
	mock.Mock
}

func (m *mockProfiles) GetByID(ctx context.Context, userID uuid.UUID) (repository.Profile, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(repository.Profile), args.Error(1)
}

type mockQuota struct {
	mock.Mock
}

func (m *mockQuota) AuthorizeTournamentCreation(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

type mockBus struct {
	mock.Mock
}

func (m *mockBus) PublishFinalStarted(ctx context.Context, ev events.FinalStarted) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *mockBus) PublishTournamentCompleted(ctx context.Context, ev events.TournamentCompleted) error {
	return m.Called(ctx, ev).Error(0)
}

type noopLocker struct{}

func (noopLocker) Lock(ctx context.Context, key string) (func() error, error) {
	return func() error { return nil }, nil
}

type fixture struct {
	store     *mockStore
	matches   *mockMatches
	questions *mockQuestions
	profiles  *mockProfiles
	quota     *mockQuota
	bus       *mockBus
	svc       *Service
}

func newFixture() *fixture {
	f := &fixture{
		store:     new(mockStore),
		matches:   new(mockMatches),
		questions: new(mockQuestions),
		profiles:  new(mockProfiles),
		quota:     new(mockQuota),
		bus:       new(mockBus),
	}
	f.svc = NewService(f.store, f.matches, f.questions, f.profiles, f.quota, noopLocker{}, f.bus, 24*time.Hour, 200, zerolog.Nop())
	return f
}

func questionSet() []uuid.UUID {
	ids := make([]uuid.UUID, 5)
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids
}

func waitingTournament(creator uuid.UUID) repository.Tournament {
	return repository.Tournament{
		TournamentID: newTournamentID(),
		Status:       StatusWaiting,
		CreatorID:    creator,
		CreatedAt:    time.Now(),
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

func lobby(tournamentID string, users ...uuid.UUID) []repository.TournamentParticipant {
	out := make([]repository.TournamentParticipant, 0, len(users))
	for _, u := range users {
		out = append(out, repository.TournamentParticipant{TournamentID: tournamentID, UserID: u, JoinedAt: time.Now()})
	}
	return out
}

func TestCreateTournament(t *testing.T) {
	f := newFixture()
	creator := uuid.New()

	f.quota.On("AuthorizeTournamentCreation", mock.Anything, creator).Return(nil)
	f.store.On("CreateTournament", mock.Anything, mock.MatchedBy(func(tn repository.Tournament) bool {
		return tn.Status == StatusWaiting && tn.CreatorID == creator
	}), mock.MatchedBy(func(p repository.TournamentParticipant) bool {
		// Seed stays nil until the bracket starts; the column is nullable.
		return p.UserID == creator && p.Seed == nil
	})).Return(nil)

	resp, err := f.svc.Create(context.Background(), CreateRequest{CreatorID: creator})
	require.NoError(t, err)
	assert.Len(t, resp.TournamentID, 14)
	assert.True(t, resp.ExpiresAt.After(time.Now()))
}

func TestCreateTournamentQuotaDenied(t *testing.T) {
	f := newFixture()
	creator := uuid.New()

	f.quota.On("AuthorizeTournamentCreation", mock.Anything, creator).
		Return(apperrors.E(apperrors.KindQuotaExceeded, "daily tournament limit reached"))

	_, err := f.svc.Create(context.Background(), CreateRequest{CreatorID: creator})
	assert.Equal(t, apperrors.KindQuotaExceeded, apperrors.KindOf(err))
	f.store.AssertNotCalled(t, "CreateTournament", mock.Anything, mock.Anything, mock.Anything)
}

func TestJoinFourthPlayerStartsBracket(t *testing.T) {
	f := newFixture()
	creator := uuid.New()
	tn := waitingTournament(creator)
	others := []uuid.UUID{uuid.New(), uuid.New()}
	fourth := uuid.New()

	f.store.On("GetTournament", mock.Anything, tn.TournamentID).Return(tn, nil)
	f.store.On("ListParticipants", mock.Anything, tn.TournamentID).
		Return(lobby(tn.TournamentID, creator, others[0], others[1]), nil)
	f.store.On("InsertParticipant", mock.Anything, mock.MatchedBy(func(p repository.TournamentParticipant) bool {
		return p.UserID == fourth && p.Seed == nil
	})).Return(nil)
	f.store.On("SetParticipantSeed", mock.Anything, tn.TournamentID, mock.Anything, mock.Anything).
		Return(nil).Times(Capacity)
	f.questions.On("SelectQuestions", mock.Anything, "").Return(questionSet(), nil).Twice()
	f.store.On("ReserveFinalQuestions", mock.Anything, tn.TournamentID, mock.Anything).Return(nil)
	f.matches.On("CreateBracketMatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(uuid.New(), nil).Twice()
	f.store.On("InsertTournamentMatch", mock.Anything, mock.MatchedBy(func(tm repository.TournamentMatch) bool {
		return tm.Status == SlotActive && (tm.Round == RoundSemifinal1 || tm.Round == RoundSemifinal2)
	})).Return(nil).Twice()
	f.store.On("UpdateTournamentStatus", mock.Anything, mock.MatchedBy(func(p repository.UpdateTournamentStatusParams) bool {
		return p.Status == StatusActive && p.SetStartedAt != nil
	})).Return(true, nil)

	err := f.svc.Join(context.Background(), tn.TournamentID, fourth)
	require.NoError(t, err)
	f.store.AssertExpectations(t)
	f.matches.AssertExpectations(t)
}

func TestJoinFullTournament(t *testing.T) {
	f := newFixture()
	creator := uuid.New()
	tn := waitingTournament(creator)

	f.store.On("GetTournament", mock.Anything, tn.TournamentID).Return(tn, nil)
	f.store.On("ListParticipants", mock.Anything, tn.TournamentID).
		Return(lobby(tn.TournamentID, creator, uuid.New(), uuid.New(), uuid.New()), nil)

	err := f.svc.Join(context.Background(), tn.TournamentID, uuid.New())
	assert.Equal(t, apperrors.KindFull, apperrors.KindOf(err))
}

func TestJoinTwiceRejected(t *testing.T) {
	f := newFixture()
	creator := uuid.New()
	tn := waitingTournament(creator)

	f.store.On("GetTournament", mock.Anything, tn.TournamentID).Return(tn, nil)
	f.store.On("ListParticipants", mock.Anything, tn.TournamentID).
		Return(lobby(tn.TournamentID, creator), nil)

	err := f.svc.Join(context.Background(), tn.TournamentID, creator)
	assert.Equal(t, apperrors.KindAlreadyJoined, apperrors.KindOf(err))
}

func TestJoinStartedTournamentRejected(t *testing.T) {
	f := newFixture()
	tn := waitingTournament(uuid.New())
	tn.Status = StatusActive

	f.store.On("GetTournament", mock.Anything, tn.TournamentID).Return(tn, nil)

	err := f.svc.Join(context.Background(), tn.TournamentID, uuid.New())
	assert.Equal(t, apperrors.KindInvalidState, apperrors.KindOf(err))
}

func TestLeaveAfterStartRejected(t *testing.T) {
	f := newFixture()
	tn := waitingTournament(uuid.New())
	tn.Status = StatusActive

	f.store.On("GetTournament", mock.Anything, tn.TournamentID).Return(tn, nil)

	err := f.svc.Leave(context.Background(), tn.TournamentID, uuid.New())
	assert.Equal(t, apperrors.KindInvalidState, apperrors.KindOf(err))
}

func TestHandleMatchCompletedIgnoresRegularMatches(t *testing.T) {
	f := newFixture()

	err := f.svc.HandleMatchCompleted(context.Background(), events.MatchCompleted{
		MatchID:   uuid.New(),
		IsBracket: false,
	})
	require.NoError(t, err)
	f.store.AssertNotCalled(t, "GetTournamentMatchByMatchID", mock.Anything, mock.Anything)
}

func semiSlot(tournamentID, round string, winner *uuid.UUID) repository.TournamentMatch {
	status := SlotActive
	if winner != nil {
		status = SlotCompleted
	}
	return repository.TournamentMatch{
		TournamentID: tournamentID,
		Round:        round,
		MatchID:      uuid.New(),
		Player1ID:    uuid.New(),
		Player2ID:    uuid.New(),
		Status:       status,
		WinnerID:     winner,
	}
}

func TestFirstSemifinalDoesNotAdvance(t *testing.T) {
	f := newFixture()
	tn := waitingTournament(uuid.New())
	winner := uuid.New()
	slot := semiSlot(tn.TournamentID, RoundSemifinal1, nil)
	slot.Player1ID = winner

	f.store.On("GetTournamentMatchByMatchID", mock.Anything, slot.MatchID).Return(slot, nil)
	f.store.On("UpdateTournamentMatch", mock.Anything, tn.TournamentID, RoundSemifinal1, SlotCompleted, &winner).Return(nil)
	done := slot
	done.Status = SlotCompleted
	done.WinnerID = &winner
	f.store.On("ListTournamentMatches", mock.Anything, tn.TournamentID).Return([]repository.TournamentMatch{
		done,
		semiSlot(tn.TournamentID, RoundSemifinal2, nil),
	}, nil)

	err := f.svc.HandleMatchCompleted(context.Background(), events.MatchCompleted{
		MatchID:   slot.MatchID,
		IsBracket: true,
		WinnerID:  &winner,
	})
	require.NoError(t, err)
	f.matches.AssertNotCalled(t, "CreateBracketMatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSecondSemifinalOpensFinal(t *testing.T) {
	f := newFixture()
	tn := waitingTournament(uuid.New())
	winner1 := uuid.New()
	winner2 := uuid.New()
	finalQuestions := questionSet()
	finalMatchID := uuid.New()

	slot2 := semiSlot(tn.TournamentID, RoundSemifinal2, nil)
	f.store.On("GetTournamentMatchByMatchID", mock.Anything, slot2.MatchID).Return(slot2, nil)
	f.store.On("UpdateTournamentMatch", mock.Anything, tn.TournamentID, RoundSemifinal2, SlotCompleted, &winner2).Return(nil)
	resolved2 := slot2
	resolved2.Status = SlotCompleted
	resolved2.WinnerID = &winner2
	f.store.On("ListTournamentMatches", mock.Anything, tn.TournamentID).Return([]repository.TournamentMatch{
		semiSlot(tn.TournamentID, RoundSemifinal1, &winner1),
		resolved2,
	}, nil)
	f.store.On("ListFinalQuestions", mock.Anything, tn.TournamentID).Return(finalQuestions, nil)
	f.matches.On("CreateBracketMatch", mock.Anything, winner1, winner2, finalQuestions).Return(finalMatchID, nil)
	f.store.On("InsertTournamentMatch", mock.Anything, mock.MatchedBy(func(tm repository.TournamentMatch) bool {
		return tm.Round == RoundFinal && tm.Player1ID == winner1 && tm.Player2ID == winner2
	})).Return(nil)
	f.bus.On("PublishFinalStarted", mock.Anything, events.FinalStarted{
		TournamentID: tn.TournamentID,
		MatchID:      finalMatchID,
		Player1ID:    winner1,
		Player2ID:    winner2,
	}).Return(nil)

	err := f.svc.HandleMatchCompleted(context.Background(), events.MatchCompleted{
		MatchID:   slot2.MatchID,
		IsBracket: true,
		WinnerID:  &winner2,
	})
	require.NoError(t, err)
	f.bus.AssertExpectations(t)
}

func TestAdvancementSkipsWhenFinalExists(t *testing.T) {
	f := newFixture()
	tn := waitingTournament(uuid.New())
	winner := uuid.New()
	slot := semiSlot(tn.TournamentID, RoundSemifinal1, nil)

	f.store.On("GetTournamentMatchByMatchID", mock.Anything, slot.MatchID).Return(slot, nil)
	f.store.On("UpdateTournamentMatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	other := uuid.New()
	f.store.On("ListTournamentMatches", mock.Anything, tn.TournamentID).Return([]repository.TournamentMatch{
		semiSlot(tn.TournamentID, RoundSemifinal1, &winner),
		semiSlot(tn.TournamentID, RoundSemifinal2, &other),
		semiSlot(tn.TournamentID, RoundFinal, nil),
	}, nil)

	err := f.svc.HandleMatchCompleted(context.Background(), events.MatchCompleted{
		MatchID:   slot.MatchID,
		IsBracket: true,
		WinnerID:  &winner,
	})
	require.NoError(t, err)
	f.matches.AssertNotCalled(t, "CreateBracketMatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDuplicateFinalInsertDiscardsExtraMatch(t *testing.T) {
	f := newFixture()
	tn := waitingTournament(uuid.New())
	winner1 := uuid.New()
	winner2 := uuid.New()
	slot := semiSlot(tn.TournamentID, RoundSemifinal2, nil)
	extraMatchID := uuid.New()

	f.store.On("GetTournamentMatchByMatchID", mock.Anything, slot.MatchID).Return(slot, nil)
	f.store.On("UpdateTournamentMatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.store.On("ListTournamentMatches", mock.Anything, tn.TournamentID).Return([]repository.TournamentMatch{
		semiSlot(tn.TournamentID, RoundSemifinal1, &winner1),
		semiSlot(tn.TournamentID, RoundSemifinal2, &winner2),
	}, nil)
	f.store.On("ListFinalQuestions", mock.Anything, tn.TournamentID).Return(questionSet(), nil)
	f.matches.On("CreateBracketMatch", mock.Anything, winner1, winner2, mock.Anything).Return(extraMatchID, nil)
	f.store.On("InsertTournamentMatch", mock.Anything, mock.Anything).Return(repository.ErrDuplicateRound)
	f.matches.On("CancelBracketMatch", mock.Anything, extraMatchID).Return(nil)

	err := f.svc.HandleMatchCompleted(context.Background(), events.MatchCompleted{
		MatchID:   slot.MatchID,
		IsBracket: true,
		WinnerID:  &winner2,
	})
	require.NoError(t, err)
	f.matches.AssertExpectations(t)
	f.bus.AssertNotCalled(t, "PublishFinalStarted", mock.Anything, mock.Anything)
}

func TestDrawAdvancesEarlierSeed(t *testing.T) {
	f := newFixture()
	tn := waitingTournament(uuid.New())
	slot := semiSlot(tn.TournamentID, RoundSemifinal1, nil)

	f.store.On("GetTournamentMatchByMatchID", mock.Anything, slot.MatchID).Return(slot, nil)
	f.store.On("UpdateTournamentMatch", mock.Anything, tn.TournamentID, RoundSemifinal1, SlotCompleted, &slot.Player1ID).Return(nil)
	f.store.On("ListTournamentMatches", mock.Anything, tn.TournamentID).Return([]repository.TournamentMatch{
		slot,
		semiSlot(tn.TournamentID, RoundSemifinal2, nil),
	}, nil)

	err := f.svc.HandleMatchCompleted(context.Background(), events.MatchCompleted{
		MatchID:   slot.MatchID,
		IsBracket: true,
		IsDraw:    true,
	})
	require.NoError(t, err)
	f.store.AssertExpectations(t)
}

func TestFinalCompletionCompletesTournament(t *testing.T) {
	f := newFixture()
	creator := uuid.New()
	tn := waitingTournament(creator)
	tn.Status = StatusActive
	champion := uuid.New()
	finalSlot := semiSlot(tn.TournamentID, RoundFinal, nil)
	finalSlot.Player1ID = champion

	f.store.On("GetTournamentMatchByMatchID", mock.Anything, finalSlot.MatchID).Return(finalSlot, nil)
	f.store.On("UpdateTournamentMatch", mock.Anything, tn.TournamentID, RoundFinal, SlotCompleted, &champion).Return(nil)
	f.store.On("GetTournament", mock.Anything, tn.TournamentID).Return(tn, nil)
	f.store.On("UpdateTournamentStatus", mock.Anything, mock.MatchedBy(func(p repository.UpdateTournamentStatusParams) bool {
		return p.Status == StatusCompleted && p.SetCompletedAt != nil
	})).Return(true, nil)
	f.bus.On("PublishTournamentCompleted", mock.Anything, mock.MatchedBy(func(ev events.TournamentCompleted) bool {
		return ev.TournamentID == tn.TournamentID && ev.WinnerID == champion && ev.CreatorID == creator
	})).Return(nil)

	err := f.svc.HandleMatchCompleted(context.Background(), events.MatchCompleted{
		MatchID:   finalSlot.MatchID,
		IsBracket: true,
		WinnerID:  &champion,
	})
	require.NoError(t, err)
	f.bus.AssertExpectations(t)
}

func TestFinalCompletionPublishesOnlyOnce(t *testing.T) {
	f := newFixture()
	tn := waitingTournament(uuid.New())
	champion := uuid.New()
	finalSlot := semiSlot(tn.TournamentID, RoundFinal, nil)

	f.store.On("GetTournamentMatchByMatchID", mock.Anything, finalSlot.MatchID).Return(finalSlot, nil)
	f.store.On("UpdateTournamentMatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.store.On("GetTournament", mock.Anything, tn.TournamentID).Return(tn, nil)
	f.store.On("UpdateTournamentStatus", mock.Anything, mock.Anything).Return(false, nil)

	err := f.svc.HandleMatchCompleted(context.Background(), events.MatchCompleted{
		MatchID:   finalSlot.MatchID,
		IsBracket: true,
		WinnerID:  &champion,
	})
	require.NoError(t, err)
	f.bus.AssertNotCalled(t, "PublishTournamentCompleted", mock.Anything, mock.Anything)
}

func TestCancelCascadesIntoBracketMatches(t *testing.T) {
	f := newFixture()
	creator := uuid.New()
	tn := waitingTournament(creator)
	tn.Status = StatusActive
	live := semiSlot(tn.TournamentID, RoundSemifinal1, nil)
	winner := uuid.New()
	done := semiSlot(tn.TournamentID, RoundSemifinal2, &winner)

	f.store.On("GetTournament", mock.Anything, tn.TournamentID).Return(tn, nil)
	f.store.On("UpdateTournamentStatus", mock.Anything, mock.MatchedBy(func(p repository.UpdateTournamentStatusParams) bool {
		return p.Status == StatusCancelled
	})).Return(true, nil)
	f.store.On("ListTournamentMatches", mock.Anything, tn.TournamentID).
		Return([]repository.TournamentMatch{live, done}, nil)
	f.matches.On("CancelBracketMatch", mock.Anything, live.MatchID).Return(nil)
	f.store.On("UpdateTournamentMatch", mock.Anything, tn.TournamentID, live.Round, SlotCancelled, (*uuid.UUID)(nil)).Return(nil)
	f.store.On("DeleteParticipants", mock.Anything, tn.TournamentID).Return(nil)

	err := f.svc.Cancel(context.Background(), tn.TournamentID, creator)
	require.NoError(t, err)
	f.matches.AssertNumberOfCalls(t, "CancelBracketMatch", 1)
}

func TestSweepExpiredTournaments(t *testing.T) {
	f := newFixture()
	tn := waitingTournament(uuid.New())

	f.store.On("ListExpired", mock.Anything, mock.Anything, 200).
		Return([]repository.Tournament{tn}, nil)
	f.store.On("UpdateTournamentStatus", mock.Anything, mock.MatchedBy(func(p repository.UpdateTournamentStatusParams) bool {
		return p.Status == StatusCancelled
	})).Return(true, nil)
	f.store.On("ListTournamentMatches", mock.Anything, tn.TournamentID).
		Return([]repository.TournamentMatch{}, nil)
	f.store.On("DeleteParticipants", mock.Anything, tn.TournamentID).Return(nil)

	swept, err := f.svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, swept)
}
