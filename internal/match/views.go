package match

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/quizduel/duel-platform/internal/db/repository"
	"github.com/quizduel/duel-platform/pkg/apperrors"
)

func toQuestionContent(q repository.Question) QuestionContent {
	return QuestionContent{
		QuestionID:       q.QuestionID,
		MediaURL:         q.MediaURL,
		Prompt:           q.Prompt,
		Options:          q.Options,
		TimeLimitSeconds: q.TimeLimitSeconds,
		Difficulty:       q.Difficulty,
	}
}

func toProgress(participants []repository.MatchParticipant) []ParticipantProgress {
	out := make([]ParticipantProgress, 0, len(participants))
	for _, p := range participants {
		out = append(out, ParticipantProgress{
			UserID:        p.UserID,
			AnsweredCount: len(p.Answers),
			Completed:     p.CompletedAt != nil,
		})
	}
	return out
}

// Details serves the in-progress view to a participant. Question content is
// included; correct options are not, they live in the vault until completion.
func (s *Service) Details(ctx context.Context, matchID, userID uuid.UUID) (*DetailsView, error) {
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.E(apperrors.KindNotFound, "match %s not found", matchID)
		}
		return nil, fmt.Errorf("get match: %w", err)
	}
	if m.Status == StatusCompleted {
		return nil, apperrors.E(apperrors.KindInvalidState, "match is completed, use the results view")
	}

	participants, err := s.store.ListParticipants(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	var member bool
	for _, p := range participants {
		if p.UserID == userID {
			member = true
			break
		}
	}
	if !member {
		return nil, apperrors.E(apperrors.KindUnauthorized, "only participants can view this match")
	}

	questionIDs, err := s.store.ListQuestionIDs(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	questions, err := s.questions.GetQuestions(ctx, questionIDs)
	if err != nil {
		return nil, err
	}

	view := &DetailsView{
		MatchID:              m.MatchID,
		Status:               m.Status,
		IsPrivate:            m.IsPrivate,
		CurrentQuestionIndex: m.CurrentQuestionIndex,
		Questions:            make([]QuestionContent, 0, len(questions)),
		Participants:         toProgress(participants),
		ExpiresAt:            m.ExpiresAt,
	}
	if m.CreatorID != nil && *m.CreatorID == userID {
		view.JoinCode = m.JoinCode
	}
	for _, q := range questions {
		view.Questions = append(view.Questions, toQuestionContent(q))
	}
	return view, nil
}

// Results serves the full post-completion view, correct options included.
func (s *Service) Results(ctx context.Context, matchID uuid.UUID) (*ResultView, error) {
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.E(apperrors.KindNotFound, "match %s not found", matchID)
		}
		return nil, fmt.Errorf("get match: %w", err)
	}
	if m.Status != StatusCompleted {
		return nil, apperrors.E(apperrors.KindInvalidState, "match is %s, results are not available", m.Status)
	}
	return s.buildResultView(ctx, m)
}

func (s *Service) buildResultView(ctx context.Context, m repository.Match) (*ResultView, error) {
	res, err := s.store.GetResult(ctx, m.MatchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.E(apperrors.KindDataIntegrity, "completed match %s has no result", m.MatchID)
		}
		return nil, fmt.Errorf("get result: %w", err)
	}

	questionIDs, err := s.store.ListQuestionIDs(ctx, m.MatchID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	questions, err := s.questions.GetQuestions(ctx, questionIDs)
	if err != nil {
		return nil, err
	}

	view := &ResultView{
		MatchID:     m.MatchID,
		Status:      m.Status,
		WinnerID:    res.WinnerID,
		IsDraw:      res.IsDraw,
		Questions:   make([]QuestionReview, 0, len(questions)),
		CompletedAt: m.CompletedAt,
	}
	for _, q := range questions {
		correct, err := s.questions.CorrectOption(ctx, q.QuestionID)
		if err != nil {
			return nil, err
		}
		view.Questions = append(view.Questions, QuestionReview{
			QuestionContent: toQuestionContent(q),
			CorrectOption:   correct,
		})
	}

	view.Participants = []ParticipantReview{
		{UserID: res.Player1ID, TotalScore: &res.Player1Score, TotalTimeSeconds: &res.Player1TimeSeconds},
		{UserID: res.Player2ID, TotalScore: &res.Player2Score, TotalTimeSeconds: &res.Player2TimeSeconds},
	}
	// Per-question answers survive in participant rows; results keep them for review.
	participants, err := s.store.ListParticipants(ctx, m.MatchID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	for i := range view.Participants {
		for _, p := range participants {
			if p.UserID == view.Participants[i].UserID {
				view.Participants[i].Answers = p.Answers
			}
		}
	}
	return view, nil
}

// Partial serves a status snapshot at any lifecycle stage. The full result is
// attached only once the match is completed.
func (s *Service) Partial(ctx context.Context, matchID uuid.UUID) (*PartialView, error) {
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.E(apperrors.KindNotFound, "match %s not found", matchID)
		}
		return nil, fmt.Errorf("get match: %w", err)
	}

	participants, err := s.store.ListParticipants(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	view := &PartialView{
		MatchID:      m.MatchID,
		Status:       m.Status,
		Participants: toProgress(participants),
	}
	if m.Status == StatusCompleted {
		result, err := s.buildResultView(ctx, m)
		if err != nil {
			return nil, err
		}
		view.Result = result
	}
	return view, nil
}
