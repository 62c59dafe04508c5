package scoring

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecideHigherScoreWins(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	out := Decide(
		PlayerFinal{UserID: alice, Score: 5, TotalTimeSeconds: 40},
		PlayerFinal{UserID: bob, Score: 5, TotalTimeSeconds: 55},
	)
	require.NotNil(t, out.WinnerID)
	assert.Equal(t, alice, *out.WinnerID)
	assert.False(t, out.IsDraw)

	out = Decide(
		PlayerFinal{UserID: alice, Score: 4, TotalTimeSeconds: 60},
		PlayerFinal{UserID: bob, Score: 3, TotalTimeSeconds: 60},
	)
	require.NotNil(t, out.WinnerID)
	assert.Equal(t, alice, *out.WinnerID)
}

func TestDecideScoreBeatsTime(t *testing.T) {
	fast := uuid.New()
	accurate := uuid.New()

	out := Decide(
		PlayerFinal{UserID: fast, Score: 2, TotalTimeSeconds: 10},
		PlayerFinal{UserID: accurate, Score: 4, TotalTimeSeconds: 90},
	)
	require.NotNil(t, out.WinnerID)
	assert.Equal(t, accurate, *out.WinnerID)
}

func TestDecideTieBreaksOnTime(t *testing.T) {
	slow := uuid.New()
	quick := uuid.New()

	out := Decide(
		PlayerFinal{UserID: slow, Score: 3, TotalTimeSeconds: 72},
		PlayerFinal{UserID: quick, Score: 3, TotalTimeSeconds: 48},
	)
	require.NotNil(t, out.WinnerID)
	assert.Equal(t, quick, *out.WinnerID)
}

func TestDecideDraw(t *testing.T) {
	out := Decide(
		PlayerFinal{UserID: uuid.New(), Score: 3, TotalTimeSeconds: 60},
		PlayerFinal{UserID: uuid.New(), Score: 3, TotalTimeSeconds: 60},
	)
	assert.Nil(t, out.WinnerID)
	assert.True(t, out.IsDraw)
}
