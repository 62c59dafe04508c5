// Package match implements the head-to-head match lifecycle: creation,
// joining, asynchronous answer submission, outcome decision and expiry.
package match

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quizduel/duel-platform/internal/db/repository"
	"github.com/quizduel/duel-platform/internal/events"
	"github.com/quizduel/duel-platform/internal/match/scoring"
	"github.com/quizduel/duel-platform/internal/metrics"
	"github.com/quizduel/duel-platform/pkg/apperrors"
)

type matchStore interface {
	CreateMatch(ctx context.Context, m repository.Match, questionIDs []uuid.UUID, participants ...repository.MatchParticipant) error
	GetMatch(ctx context.Context, matchID uuid.UUID) (repository.Match, error)
	GetMatchByJoinCode(ctx context.Context, code string) (repository.Match, error)
	JoinCodeExists(ctx context.Context, code string) (bool, error)
	ListQuestionIDs(ctx context.Context, matchID uuid.UUID) ([]uuid.UUID, error)
	InsertParticipant(ctx context.Context, p repository.MatchParticipant) error
	GetParticipant(ctx context.Context, matchID, userID uuid.UUID) (repository.MatchParticipant, error)
	ListParticipants(ctx context.Context, matchID uuid.UUID) ([]repository.MatchParticipant, error)
	SaveParticipantProgress(ctx context.Context, p repository.MatchParticipant) error
	DeleteParticipant(ctx context.Context, matchID, userID uuid.UUID) (bool, error)
	DeleteParticipants(ctx context.Context, matchID uuid.UUID) error
	UpdateMatchStatus(ctx context.Context, params repository.UpdateMatchStatusParams) (bool, error)
	InsertResult(ctx context.Context, res repository.MatchResult) error
	GetResult(ctx context.Context, matchID uuid.UUID) (repository.MatchResult, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]repository.Match, error)
	ListWaitingPublic(ctx context.Context, now time.Time, limit int) ([]repository.Match, error)
}

type questionProvider interface {
	SelectQuestions(ctx context.Context, category string) ([]uuid.UUID, error)
	GetQuestions(ctx context.Context, ids []uuid.UUID) ([]repository.Question, error)
	CorrectOption(ctx context.Context, questionID uuid.UUID) (int, error)
}

type profileStore interface {
	GetByID(ctx context.Context, userID uuid.UUID) (repository.Profile, error)
	AddCorrectAnswers(ctx context.Context, userID uuid.UUID, delta int) error
}

type creationPolicy interface {
	AuthorizeMatchCreation(ctx context.Context, userID uuid.UUID) error
}

type lifecycleLocker interface {
	LockMatch(ctx context.Context, matchID uuid.UUID) (func() error, error)
}

type completionPublisher interface {
	PublishMatchCompleted(ctx context.Context, ev events.MatchCompleted) error
}

// Service orchestrates the match lifecycle against the store.
type Service struct {
	store     matchStore
	questions questionProvider
	profiles  profileStore
	quota     creationPolicy
	locker    lifecycleLocker
	events    completionPublisher

	matchWindow    time.Duration
	sweepBatchSize int
	logger         zerolog.Logger
}

func NewService(
	store matchStore,
	questions questionProvider,
	profiles profileStore,
	quota creationPolicy,
	locker lifecycleLocker,
	bus completionPublisher,
	matchWindow time.Duration,
	sweepBatchSize int,
	logger zerolog.Logger,
) *Service {
	return &Service{
		store:          store,
		questions:      questions,
		profiles:       profiles,
		quota:          quota,
		locker:         locker,
		events:         bus,
		matchWindow:    matchWindow,
		sweepBatchSize: sweepBatchSize,
		logger:         logger.With().Str("component", "match").Logger(),
	}
}

// Create opens a new match in waiting state with the creator already joined.
// Private matches get a join code; public matches are listed for matchmaking.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResponse, error) {
	if err := s.quota.AuthorizeMatchCreation(ctx, req.CreatorID); err != nil {
		return nil, err
	}

	questionIDs, err := s.questions.SelectQuestions(ctx, req.Category)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	m := repository.Match{
		MatchID:   uuid.New(),
		Status:    StatusWaiting,
		IsPrivate: req.IsPrivate,
		CreatorID: &req.CreatorID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.matchWindow),
	}
	if req.IsPrivate {
		code, err := s.generateJoinCode(ctx)
		if err != nil {
			return nil, err
		}
		m.JoinCode = &code
	}

	creator := repository.MatchParticipant{
		MatchID:  m.MatchID,
		UserID:   req.CreatorID,
		JoinedAt: now,
	}
	if err := s.store.CreateMatch(ctx, m, questionIDs, creator); err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}

	metrics.MatchesCreated.Inc()
	s.logger.Info().
		Str("match_id", m.MatchID.String()).
		Str("creator_id", req.CreatorID.String()).
		Bool("private", req.IsPrivate).
		Msg("match created")

	resp := &CreateResponse{MatchID: m.MatchID, ExpiresAt: m.ExpiresAt}
	if m.JoinCode != nil {
		resp.JoinCode = *m.JoinCode
	}
	return resp, nil
}

// Join adds userID as the second participant of a public match and activates it.
func (s *Service) Join(ctx context.Context, matchID, userID uuid.UUID) error {
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.E(apperrors.KindNotFound, "match %s not found", matchID)
		}
		return fmt.Errorf("get match: %w", err)
	}
	if m.IsPrivate {
		return apperrors.E(apperrors.KindNotFound, "match %s not found", matchID)
	}
	return s.join(ctx, m.MatchID, userID)
}

// JoinByCode resolves a private match by its join code and joins it.
func (s *Service) JoinByCode(ctx context.Context, code string, userID uuid.UUID) (uuid.UUID, error) {
	m, err := s.store.GetMatchByJoinCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return uuid.Nil, apperrors.E(apperrors.KindNotFound, "no match with that join code")
		}
		return uuid.Nil, fmt.Errorf("get match by code: %w", err)
	}
	if err := s.join(ctx, m.MatchID, userID); err != nil {
		return uuid.Nil, err
	}
	return m.MatchID, nil
}

func (s *Service) join(ctx context.Context, matchID, userID uuid.UUID) error {
	unlock, err := s.locker.LockMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer unlock()

	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("get match: %w", err)
	}
	if m.Status != StatusWaiting {
		return apperrors.E(apperrors.KindInvalidState, "match is %s, not joinable", m.Status)
	}
	now := time.Now()
	if now.After(m.ExpiresAt) {
		return apperrors.E(apperrors.KindExpired, "match has expired")
	}

	participants, err := s.store.ListParticipants(ctx, matchID)
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}
	for _, p := range participants {
		if p.UserID == userID {
			return apperrors.E(apperrors.KindAlreadyJoined, "already joined this match")
		}
	}
	if len(participants) >= MaxParticipants {
		return apperrors.E(apperrors.KindFull, "match already has %d players", MaxParticipants)
	}

	err = s.store.InsertParticipant(ctx, repository.MatchParticipant{
		MatchID:  matchID,
		UserID:   userID,
		JoinedAt: now,
	})
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}

	cursor := int16(0)
	expires := now.Add(s.matchWindow)
	applied, err := s.store.UpdateMatchStatus(ctx, repository.UpdateMatchStatusParams{
		MatchID:                 matchID,
		Status:                  StatusActive,
		AllowedFrom:             []string{StatusWaiting},
		SetStartedAt:            &now,
		SetExpiresAt:            &expires,
		SetCurrentQuestionIndex: &cursor,
	})
	if err != nil {
		return fmt.Errorf("activate match: %w", err)
	}
	if !applied {
		return apperrors.E(apperrors.KindInvalidState, "match is no longer joinable")
	}

	s.logger.Info().
		Str("match_id", matchID.String()).
		Str("user_id", userID.String()).
		Msg("match activated")
	return nil
}

// SubmitAnswer records one answer for the calling participant, scoring it
// against the answer vault. The creator may answer while still waiting for an
// opponent; the match completes when both participants finish all questions.
func (s *Service) SubmitAnswer(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	unlock, err := s.locker.LockMatch(ctx, req.MatchID)
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	res, ev, err := s.submitLocked(ctx, req)
	unlock()
	if err != nil {
		return nil, err
	}
	// Published only after the match lock is released: completion handlers
	// take the tournament lock, which Cancel holds while it cancels bracket
	// matches under their match locks.
	if ev != nil {
		if err := s.events.PublishMatchCompleted(ctx, *ev); err != nil {
			return nil, fmt.Errorf("publish completion: %w", err)
		}
	}
	return res, nil
}

func (s *Service) submitLocked(ctx context.Context, req SubmitRequest) (*SubmitResult, *events.MatchCompleted, error) {
	m, err := s.store.GetMatch(ctx, req.MatchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperrors.E(apperrors.KindNotFound, "match %s not found", req.MatchID)
		}
		return nil, nil, fmt.Errorf("get match: %w", err)
	}

	creatorMayPlayEarly := m.Status == StatusWaiting && m.CreatorID != nil && *m.CreatorID == req.UserID
	if m.Status != StatusActive && !creatorMayPlayEarly {
		return nil, nil, apperrors.E(apperrors.KindInvalidState, "match is %s, not accepting answers", m.Status)
	}
	now := time.Now()
	if now.After(m.ExpiresAt) {
		return nil, nil, apperrors.E(apperrors.KindExpired, "match has expired")
	}

	questionIDs, err := s.store.ListQuestionIDs(ctx, req.MatchID)
	if err != nil {
		return nil, nil, fmt.Errorf("list questions: %w", err)
	}
	var belongs bool
	for _, id := range questionIDs {
		if id == req.QuestionID {
			belongs = true
			break
		}
	}
	if !belongs {
		return nil, nil, apperrors.E(apperrors.KindNotFound, "question %s is not part of this match", req.QuestionID)
	}

	participant, err := s.store.GetParticipant(ctx, req.MatchID, req.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperrors.E(apperrors.KindNotFound, "not a participant of this match")
		}
		return nil, nil, fmt.Errorf("get participant: %w", err)
	}
	for _, a := range participant.Answers {
		if a.QuestionID == req.QuestionID {
			return nil, nil, apperrors.E(apperrors.KindDuplicateAnswer, "question already answered")
		}
	}
	if req.SelectedAnswer < 0 || req.SelectedAnswer > 4 {
		return nil, nil, apperrors.E(apperrors.KindInvalidSelection, "selected answer must be between 0 and 4")
	}

	correct, err := s.questions.CorrectOption(ctx, req.QuestionID)
	if err != nil {
		return nil, nil, err
	}
	// Selection 0 means the timer ran out without an answer; never correct.
	isCorrect := req.SelectedAnswer != 0 && req.SelectedAnswer == correct

	participant.Answers = append(participant.Answers, repository.ParticipantAnswer{
		QuestionID:       req.QuestionID,
		SelectedAnswer:   req.SelectedAnswer,
		TimeSpentSeconds: req.TimeSpentSeconds,
		IsCorrect:        isCorrect,
	})

	userCompleted := len(participant.Answers) == len(questionIDs)
	if userCompleted {
		score := 0
		totalTime := 0
		for _, a := range participant.Answers {
			if a.IsCorrect {
				score++
			}
			totalTime += a.TimeSpentSeconds
		}
		participant.TotalScore = &score
		participant.TotalTimeSeconds = &totalTime
		participant.CompletedAt = &now
	}

	if err := s.store.SaveParticipantProgress(ctx, participant); err != nil {
		return nil, nil, fmt.Errorf("save progress: %w", err)
	}
	metrics.AnswersSubmitted.WithLabelValues(strconv.FormatBool(isCorrect)).Inc()

	var ev *events.MatchCompleted
	if userCompleted {
		ev, err = s.finalizeIfBothDone(ctx, m)
		if err != nil {
			return nil, nil, err
		}
	}

	return &SubmitResult{IsCorrect: isCorrect, UserCompleted: userCompleted}, ev, nil
}

// finalizeIfBothDone runs under the match lock. When both participants have
// finished it decides the outcome and flips the match to completed exactly
// once. The completion event is returned for the caller to publish after the
// lock is released.
func (s *Service) finalizeIfBothDone(ctx context.Context, m repository.Match) (*events.MatchCompleted, error) {
	participants, err := s.store.ListParticipants(ctx, m.MatchID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	if len(participants) != MaxParticipants {
		return nil, nil
	}
	for _, p := range participants {
		if p.CompletedAt == nil {
			return nil, nil
		}
	}

	p1, p2 := participants[0], participants[1]
	outcome := scoring.Decide(
		scoring.PlayerFinal{UserID: p1.UserID, Score: *p1.TotalScore, TotalTimeSeconds: *p1.TotalTimeSeconds},
		scoring.PlayerFinal{UserID: p2.UserID, Score: *p2.TotalScore, TotalTimeSeconds: *p2.TotalTimeSeconds},
	)

	now := time.Now()
	applied, err := s.store.UpdateMatchStatus(ctx, repository.UpdateMatchStatusParams{
		MatchID:        m.MatchID,
		Status:         StatusCompleted,
		AllowedFrom:    allowedFrom(StatusCompleted),
		SetCompletedAt: &now,
	})
	if err != nil {
		return nil, fmt.Errorf("complete match: %w", err)
	}
	if !applied {
		return nil, apperrors.E(apperrors.KindInvalidState, "match was cancelled before completion")
	}

	res := repository.MatchResult{
		MatchID:            m.MatchID,
		Player1ID:          p1.UserID,
		Player1Score:       *p1.TotalScore,
		Player1TimeSeconds: *p1.TotalTimeSeconds,
		Player2ID:          p2.UserID,
		Player2Score:       *p2.TotalScore,
		Player2TimeSeconds: *p2.TotalTimeSeconds,
		WinnerID:           outcome.WinnerID,
		IsDraw:             outcome.IsDraw,
		CreatedAt:          now,
	}
	if err := s.store.InsertResult(ctx, res); err != nil {
		return nil, fmt.Errorf("insert result: %w", err)
	}

	for _, p := range participants {
		if err := s.profiles.AddCorrectAnswers(ctx, p.UserID, *p.TotalScore); err != nil {
			s.logger.Error().Err(err).
				Str("user_id", p.UserID.String()).
				Msg("record correct answers")
		}
	}

	metrics.MatchesCompleted.Inc()
	s.logger.Info().
		Str("match_id", m.MatchID.String()).
		Bool("draw", outcome.IsDraw).
		Msg("match completed")

	return &events.MatchCompleted{
		MatchID:   m.MatchID,
		CreatorID: m.CreatorID,
		IsBracket: m.IsBracket,
		WinnerID:  outcome.WinnerID,
		IsDraw:    outcome.IsDraw,
		Players: []events.PlayerOutcome{
			{UserID: p1.UserID, Score: *p1.TotalScore, TimeSpentSeconds: *p1.TotalTimeSeconds},
			{UserID: p2.UserID, Score: *p2.TotalScore, TimeSpentSeconds: *p2.TotalTimeSeconds},
		},
		CompletedAt: now,
	}, nil
}

// Leave removes the caller from a live match. If at most one participant
// would remain the match is force-cancelled.
func (s *Service) Leave(ctx context.Context, matchID, userID uuid.UUID) error {
	unlock, err := s.locker.LockMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer unlock()

	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.E(apperrors.KindNotFound, "match %s not found", matchID)
		}
		return fmt.Errorf("get match: %w", err)
	}
	if m.Status != StatusWaiting && m.Status != StatusActive {
		return apperrors.E(apperrors.KindInvalidState, "match is %s, cannot leave", m.Status)
	}

	removed, err := s.store.DeleteParticipant(ctx, matchID, userID)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	if !removed {
		return apperrors.E(apperrors.KindNotFound, "not a participant of this match")
	}

	remaining, err := s.store.ListParticipants(ctx, matchID)
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}
	if len(remaining) <= 1 {
		if err := s.cancelLocked(ctx, matchID); err != nil {
			return err
		}
	}

	s.logger.Info().
		Str("match_id", matchID.String()).
		Str("user_id", userID.String()).
		Int("remaining", len(remaining)).
		Msg("participant left match")
	return nil
}

// Cancel aborts a live match. Only the creator or an admin may cancel.
func (s *Service) Cancel(ctx context.Context, matchID, byUserID uuid.UUID) error {
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.E(apperrors.KindNotFound, "match %s not found", matchID)
		}
		return fmt.Errorf("get match: %w", err)
	}

	if m.CreatorID == nil || *m.CreatorID != byUserID {
		caller, err := s.profiles.GetByID(ctx, byUserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.E(apperrors.KindUnauthorized, "only the creator may cancel this match")
			}
			return fmt.Errorf("get profile: %w", err)
		}
		if !caller.IsAdmin {
			return apperrors.E(apperrors.KindUnauthorized, "only the creator may cancel this match")
		}
	}

	unlock, err := s.locker.LockMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer unlock()

	m, err = s.store.GetMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("get match: %w", err)
	}
	if m.Status != StatusWaiting && m.Status != StatusActive {
		return apperrors.E(apperrors.KindInvalidState, "match is %s, cannot cancel", m.Status)
	}
	return s.cancelLocked(ctx, matchID)
}

// cancelLocked flips a live match to cancelled and evicts participants.
// Callers hold the match lock.
func (s *Service) cancelLocked(ctx context.Context, matchID uuid.UUID) error {
	now := time.Now()
	applied, err := s.store.UpdateMatchStatus(ctx, repository.UpdateMatchStatusParams{
		MatchID:        matchID,
		Status:         StatusCancelled,
		AllowedFrom:    liveStates,
		SetCompletedAt: &now,
	})
	if err != nil {
		return fmt.Errorf("cancel match: %w", err)
	}
	if !applied {
		return apperrors.E(apperrors.KindInvalidState, "match already finished")
	}
	if err := s.store.DeleteParticipants(ctx, matchID); err != nil {
		return fmt.Errorf("clear participants: %w", err)
	}

	metrics.MatchesCancelled.Inc()
	s.logger.Info().Str("match_id", matchID.String()).Msg("match cancelled")
	return nil
}

// SweepExpired cancels live matches past their deadline. Returns how many
// were swept; individual failures are logged and skipped.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	expired, err := s.store.ListExpired(ctx, time.Now(), s.sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list expired: %w", err)
	}

	swept := 0
	for _, m := range expired {
		if err := s.expireOne(ctx, m.MatchID); err != nil {
			s.logger.Error().Err(err).
				Str("match_id", m.MatchID.String()).
				Msg("sweep match")
			continue
		}
		swept++
	}
	return swept, nil
}

func (s *Service) expireOne(ctx context.Context, matchID uuid.UUID) error {
	unlock, err := s.locker.LockMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer unlock()

	if err := s.cancelLocked(ctx, matchID); err != nil {
		// Completed in the window between listing and locking; not a sweep failure.
		if apperrors.KindOf(err) == apperrors.KindInvalidState {
			return nil
		}
		return err
	}
	metrics.ExpirySweepCancelled.Inc()
	return nil
}

// ListOpen returns public matches waiting for an opponent.
func (s *Service) ListOpen(ctx context.Context, limit int) ([]repository.Match, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	matches, err := s.store.ListWaitingPublic(ctx, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("list open matches: %w", err)
	}
	return matches, nil
}

// CreateBracketMatch opens an already-active match between two tournament
// players with a pre-drawn question set. Bracket matches have no creator,
// no join code and are excluded from per-match rewards.
func (s *Service) CreateBracketMatch(ctx context.Context, player1, player2 uuid.UUID, questionIDs []uuid.UUID) (uuid.UUID, error) {
	now := time.Now()
	cursor := int16(0)
	m := repository.Match{
		MatchID:              uuid.New(),
		Status:               StatusActive,
		IsBracket:            true,
		CurrentQuestionIndex: &cursor,
		CreatedAt:            now,
		StartedAt:            &now,
		ExpiresAt:            now.Add(s.matchWindow),
	}
	participants := []repository.MatchParticipant{
		{MatchID: m.MatchID, UserID: player1, JoinedAt: now},
		{MatchID: m.MatchID, UserID: player2, JoinedAt: now},
	}
	if err := s.store.CreateMatch(ctx, m, questionIDs, participants...); err != nil {
		return uuid.Nil, fmt.Errorf("create bracket match: %w", err)
	}

	metrics.MatchesCreated.Inc()
	s.logger.Info().
		Str("match_id", m.MatchID.String()).
		Str("player1_id", player1.String()).
		Str("player2_id", player2.String()).
		Msg("bracket match created")
	return m.MatchID, nil
}

// CancelBracketMatch aborts a bracket match on behalf of its tournament.
func (s *Service) CancelBracketMatch(ctx context.Context, matchID uuid.UUID) error {
	unlock, err := s.locker.LockMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer unlock()

	err = s.cancelLocked(ctx, matchID)
	if err != nil && apperrors.KindOf(err) == apperrors.KindInvalidState {
		return nil
	}
	return err
}
