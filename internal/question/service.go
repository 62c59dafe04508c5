package question

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quizduel/duel-platform/internal/db/repository"
	"github.com/quizduel/duel-platform/pkg/apperrors"
)

// QuestionsPerMatch is the default draw size for every match created through
// the standard path, used when the configured size is absent.
const QuestionsPerMatch = 5

// Bank is the storage behind question selection and the answer vault.
type Bank interface {
	PickRandomIDs(ctx context.Context, category string, limit int) ([]uuid.UUID, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]repository.Question, error)
	CorrectOption(ctx context.Context, questionID uuid.UUID) (int16, error)
	SetCorrectOption(ctx context.Context, questionID uuid.UUID, option int16) error
}

// Service exposes the question bank accessor and the answer vault. Correct
// options never travel through any client-facing struct; callers get them
// one lookup at a time, server-side.
type Service struct {
	bank     Bank
	perMatch int
	logger   zerolog.Logger
}

// NewService constructs the question service. perMatch sets the draw size;
// non-positive values fall back to QuestionsPerMatch.
func NewService(bank Bank, perMatch int, logger zerolog.Logger) *Service {
	if perMatch <= 0 {
		perMatch = QuestionsPerMatch
	}
	return &Service{
		bank:     bank,
		perMatch: perMatch,
		logger:   logger.With().Str("component", "question").Logger(),
	}
}

// SelectQuestions draws exactly the configured number of random question ids,
// optionally restricted to a category. No side effects.
func (s *Service) SelectQuestions(ctx context.Context, categoryFilter string) ([]uuid.UUID, error) {
	ids, err := s.bank.PickRandomIDs(ctx, categoryFilter, s.perMatch)
	if err != nil {
		return nil, fmt.Errorf("draw questions: %w", err)
	}
	if len(ids) < s.perMatch {
		if categoryFilter != "" {
			return nil, apperrors.E(apperrors.KindContentUnavailable,
				"category %q has only %d questions, need %d", categoryFilter, len(ids), s.perMatch)
		}
		return nil, apperrors.E(apperrors.KindContentUnavailable,
			"question pool has only %d questions, need %d", len(ids), s.perMatch)
	}
	return ids[:s.perMatch], nil
}

// GetQuestions loads question content (never answers) in the given order.
func (s *Service) GetQuestions(ctx context.Context, ids []uuid.UUID) ([]repository.Question, error) {
	return s.bank.GetByIDs(ctx, ids)
}

// CorrectOption reads the vaulted option for a question. A missing record is
// a data-integrity fault, not a wrong answer.
func (s *Service) CorrectOption(ctx context.Context, questionID uuid.UUID) (int, error) {
	option, err := s.bank.CorrectOption(ctx, questionID)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Error().Str("question_id", questionID.String()).Msg("answer record missing")
		return 0, apperrors.Wrap(apperrors.KindDataIntegrity, err,
			"question %s has no answer record", questionID)
	}
	if err != nil {
		return 0, err
	}
	return int(option), nil
}

// SetCorrectOption writes the vault record for a question.
func (s *Service) SetCorrectOption(ctx context.Context, questionID uuid.UUID, option int) error {
	if option < 1 || option > 4 {
		return apperrors.E(apperrors.KindInvalidSelection, "correct option must be 1-4, got %d", option)
	}
	return s.bank.SetCorrectOption(ctx, questionID, int16(option))
}
