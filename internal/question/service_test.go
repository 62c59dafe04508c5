package question

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quizduel/duel-platform/internal/db/repository"
	"github.com/quizduel/duel-platform/pkg/apperrors"
)

type mockBank struct{ mock.Mock }

func (m *mockBank) PickRandomIDs(ctx context.Context, category string, limit int) ([]uuid.UUID, error) {
	args := m.Called(ctx, category, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *mockBank) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]repository.Question, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.Question), args.Error(1)
}

func (m *mockBank) CorrectOption(ctx context.Context, questionID uuid.UUID) (int16, error) {
	args := m.Called(ctx, questionID)
	return args.Get(0).(int16), args.Error(1)
}

func (m *mockBank) SetCorrectOption(ctx context.Context, questionID uuid.UUID, option int16) error {
	return m.Called(ctx, questionID, option).Error(0)
}

func newIDs(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids
}

func TestSelectQuestionsDrawsFive(t *testing.T) {
	bank := &mockBank{}
	drawn := newIDs(5)
	bank.On("PickRandomIDs", mock.Anything, "", QuestionsPerMatch).Return(drawn, nil)
	s := NewService(bank, QuestionsPerMatch, zerolog.Nop())

	ids, err := s.SelectQuestions(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, drawn, ids)
}

func TestSelectQuestionsShortPool(t *testing.T) {
	bank := &mockBank{}
	bank.On("PickRandomIDs", mock.Anything, "", QuestionsPerMatch).Return(newIDs(3), nil)
	s := NewService(bank, QuestionsPerMatch, zerolog.Nop())

	_, err := s.SelectQuestions(context.Background(), "")

	assert.True(t, apperrors.IsKind(err, apperrors.KindContentUnavailable))
}

func TestSelectQuestionsShortCategory(t *testing.T) {
	bank := &mockBank{}
	bank.On("PickRandomIDs", mock.Anything, "history", QuestionsPerMatch).Return(newIDs(2), nil)
	s := NewService(bank, QuestionsPerMatch, zerolog.Nop())

	_, err := s.SelectQuestions(context.Background(), "history")

	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindContentUnavailable))
	assert.Contains(t, err.Error(), "history")
}

func TestCorrectOptionMissingRecordIsDataIntegrity(t *testing.T) {
	bank := &mockBank{}
	questionID := uuid.New()
	bank.On("CorrectOption", mock.Anything, questionID).Return(int16(0), repository.ErrNotFound)
	s := NewService(bank, QuestionsPerMatch, zerolog.Nop())

	_, err := s.CorrectOption(context.Background(), questionID)

	assert.True(t, apperrors.IsKind(err, apperrors.KindDataIntegrity))
}

func TestCorrectOptionReadsVault(t *testing.T) {
	bank := &mockBank{}
	questionID := uuid.New()
	bank.On("CorrectOption", mock.Anything, questionID).Return(int16(3), nil)
	s := NewService(bank, QuestionsPerMatch, zerolog.Nop())

	option, err := s.CorrectOption(context.Background(), questionID)

	require.NoError(t, err)
	assert.Equal(t, 3, option)
}

func TestSelectQuestionsUsesConfiguredDrawSize(t *testing.T) {
	bank := &mockBank{}
	drawn := newIDs(7)
	bank.On("PickRandomIDs", mock.Anything, "", 7).Return(drawn, nil)
	s := NewService(bank, 7, zerolog.Nop())

	ids, err := s.SelectQuestions(context.Background(), "")

	require.NoError(t, err)
	assert.Len(t, ids, 7)
	bank.AssertCalled(t, "PickRandomIDs", mock.Anything, "", 7)
}

func TestSelectQuestionsDefaultsDrawSize(t *testing.T) {
	bank := &mockBank{}
	bank.On("PickRandomIDs", mock.Anything, "", QuestionsPerMatch).Return(newIDs(5), nil)
	s := NewService(bank, 0, zerolog.Nop())

	_, err := s.SelectQuestions(context.Background(), "")

	require.NoError(t, err)
	bank.AssertCalled(t, "PickRandomIDs", mock.Anything, "", QuestionsPerMatch)
}

func TestSetCorrectOptionRejectsOutOfRange(t *testing.T) {
	s := NewService(&mockBank{}, QuestionsPerMatch, zerolog.Nop())

	assert.True(t, apperrors.IsKind(
		s.SetCorrectOption(context.Background(), uuid.New(), 0), apperrors.KindInvalidSelection))
	assert.True(t, apperrors.IsKind(
		s.SetCorrectOption(context.Background(), uuid.New(), 5), apperrors.KindInvalidSelection))
}
