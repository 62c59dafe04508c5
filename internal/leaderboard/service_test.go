package leaderboard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quizduel/duel-platform/internal/db/repository"
	"github.com/quizduel/duel-platform/internal/events"
	"github.com/quizduel/duel-platform/pkg/apperrors"
)

type mockSnapshots struct{ mock.Mock }

func (m *mockSnapshots) ReplaceSnapshot(ctx context.Context, window string, entries []repository.LeaderboardEntry, takenAt time.Time) error {
	return m.Called(ctx, window, entries, takenAt).Error(0)
}

func (m *mockSnapshots) ListSnapshot(ctx context.Context, window string, limit int) ([]repository.LeaderboardEntry, error) {
	args := m.Called(ctx, window, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.LeaderboardEntry), args.Error(1)
}

type mockNames struct{ mock.Mock }

func (m *mockNames) ListDisplayNames(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]string), args.Error(1)
}

// unreachableRedis returns a client that fails every command, forcing the
// snapshot fallback path.
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:            "127.0.0.1:1",
		DialTimeout:     50 * time.Millisecond,
		MaxRetries:      -1,
		PoolTimeout:     50 * time.Millisecond,
		ConnMaxIdleTime: time.Millisecond,
	})
}

func TestValidWindow(t *testing.T) {
	assert.True(t, ValidWindow(WindowDaily))
	assert.True(t, ValidWindow(WindowWeekly))
	assert.True(t, ValidWindow(WindowAllTime))
	assert.False(t, ValidWindow("monthly"))
	assert.False(t, ValidWindow(""))
}

func TestWindowKeyFormats(t *testing.T) {
	at := time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "lb:daily:2025-03-05", windowKey(WindowDaily, at))
	assert.Equal(t, "lb:weekly:2025-W10", windowKey(WindowWeekly, at))
	assert.Equal(t, "lb:alltime", windowKey(WindowAllTime, at))
}

func TestTopRejectsUnknownWindow(t *testing.T) {
	s := NewService(unreachableRedis(), &mockSnapshots{}, &mockNames{}, zerolog.Nop())

	_, err := s.Top(context.Background(), "monthly", 10)

	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestTopFallsBackToSnapshot(t *testing.T) {
	snapshots := &mockSnapshots{}
	userID := uuid.New()
	snapshots.On("ListSnapshot", mock.Anything, WindowAllTime, 10).Return([]repository.LeaderboardEntry{
		{Rank: 1, UserID: userID, DisplayName: "ada", Score: 42},
	}, nil)
	s := NewService(unreachableRedis(), snapshots, &mockNames{}, zerolog.Nop())

	entries, err := s.Top(context.Background(), WindowAllTime, 10)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, userID, entries[0].UserID)
	assert.Equal(t, "ada", entries[0].DisplayName)
	assert.Equal(t, 42, entries[0].Score)
}

func TestHandleMatchCompletedSwallowsRedisErrors(t *testing.T) {
	s := NewService(unreachableRedis(), &mockSnapshots{}, &mockNames{}, zerolog.Nop())

	err := s.HandleMatchCompleted(context.Background(), events.MatchCompleted{
		MatchID: uuid.New(),
		Players: []events.PlayerOutcome{{UserID: uuid.New(), Score: 3}},
	})

	assert.NoError(t, err)
}

func TestAddScoreIgnoresNonPositive(t *testing.T) {
	s := NewService(unreachableRedis(), &mockSnapshots{}, &mockNames{}, zerolog.Nop())

	assert.NoError(t, s.AddScore(context.Background(), uuid.New(), 0))
	assert.NoError(t, s.AddScore(context.Background(), uuid.New(), -5))
}
