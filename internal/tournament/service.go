// Package tournament implements the 4-player single-elimination bracket:
// lobby, seeded semifinals, advancement into the final and completion.
package tournament

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quizduel/duel-platform/internal/db/repository"
	"github.com/quizduel/duel-platform/internal/events"
	"github.com/quizduel/duel-platform/internal/metrics"
	"github.com/quizduel/duel-platform/pkg/apperrors"
)

type tournamentStore interface {
	CreateTournament(ctx context.Context, t repository.Tournament, creator repository.TournamentParticipant) error
	GetTournament(ctx context.Context, tournamentID string) (repository.Tournament, error)
	InsertParticipant(ctx context.Context, p repository.TournamentParticipant) error
	ListParticipants(ctx context.Context, tournamentID string) ([]repository.TournamentParticipant, error)
	SetParticipantSeed(ctx context.Context, tournamentID string, userID uuid.UUID, seed int16) error
	DeleteParticipant(ctx context.Context, tournamentID string, userID uuid.UUID) (bool, error)
	DeleteParticipants(ctx context.Context, tournamentID string) error
	UpdateTournamentStatus(ctx context.Context, params repository.UpdateTournamentStatusParams) (bool, error)
	InsertTournamentMatch(ctx context.Context, tm repository.TournamentMatch) error
	UpdateTournamentMatch(ctx context.Context, tournamentID, round, status string, winnerID *uuid.UUID) error
	GetTournamentMatchByMatchID(ctx context.Context, matchID uuid.UUID) (repository.TournamentMatch, error)
	ListTournamentMatches(ctx context.Context, tournamentID string) ([]repository.TournamentMatch, error)
	ReserveFinalQuestions(ctx context.Context, tournamentID string, questionIDs []uuid.UUID) error
	ListFinalQuestions(ctx context.Context, tournamentID string) ([]uuid.UUID, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]repository.Tournament, error)
}

type bracketMatches interface {
	CreateBracketMatch(ctx context.Context, player1, player2 uuid.UUID, questionIDs []uuid.UUID) (uuid.UUID, error)
	CancelBracketMatch(ctx context.Context, matchID uuid.UUID) error
}

type questionDrawer interface {
	SelectQuestions(ctx context.Context, category string) ([]uuid.UUID, error)
}

type profileStore interface {
	GetByID(ctx context.Context, userID uuid.UUID) (repository.Profile, error)
}

type creationPolicy interface {
	AuthorizeTournamentCreation(ctx context.Context, userID uuid.UUID) error
}

type lifecycleLocker interface {
	Lock(ctx context.Context, key string) (func() error, error)
}

type bracketPublisher interface {
	PublishFinalStarted(ctx context.Context, ev events.FinalStarted) error
	PublishTournamentCompleted(ctx context.Context, ev events.TournamentCompleted) error
}

// Service orchestrates the tournament lifecycle and reacts to bracket match
// completions.
type Service struct {
	store     tournamentStore
	matches   bracketMatches
	questions questionDrawer
	profiles  profileStore
	quota     creationPolicy
	locker    lifecycleLocker
	events    bracketPublisher

	window         time.Duration
	sweepBatchSize int
	logger         zerolog.Logger
}

func NewService(
	store tournamentStore,
	matches bracketMatches,
	questions questionDrawer,
	profiles profileStore,
	quota creationPolicy,
	locker lifecycleLocker,
	bus bracketPublisher,
	window time.Duration,
	sweepBatchSize int,
	logger zerolog.Logger,
) *Service {
	return &Service{
		store:          store,
		matches:        matches,
		questions:      questions,
		profiles:       profiles,
		quota:          quota,
		locker:         locker,
		events:         bus,
		window:         window,
		sweepBatchSize: sweepBatchSize,
		logger:         logger.With().Str("component", "tournament").Logger(),
	}
}

func (s *Service) lock(ctx context.Context, tournamentID string) (func() error, error) {
	return s.locker.Lock(ctx, "tournament:"+tournamentID)
}

// Create opens a tournament lobby with the creator already joined.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResponse, error) {
	if err := s.quota.AuthorizeTournamentCreation(ctx, req.CreatorID); err != nil {
		return nil, err
	}

	now := time.Now()
	t := repository.Tournament{
		TournamentID: newTournamentID(),
		Status:       StatusWaiting,
		CreatorID:    req.CreatorID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.window),
	}
	creator := repository.TournamentParticipant{
		TournamentID: t.TournamentID,
		UserID:       req.CreatorID,
		JoinedAt:     now,
	}
	if err := s.store.CreateTournament(ctx, t, creator); err != nil {
		return nil, fmt.Errorf("create tournament: %w", err)
	}

	s.logger.Info().
		Str("tournament_id", t.TournamentID).
		Str("creator_id", req.CreatorID.String()).
		Msg("tournament created")
	return &CreateResponse{TournamentID: t.TournamentID, ExpiresAt: t.ExpiresAt}, nil
}

// Join adds a participant to the lobby. The fourth join starts the bracket.
func (s *Service) Join(ctx context.Context, tournamentID string, userID uuid.UUID) error {
	unlock, err := s.lock(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer unlock()

	t, err := s.store.GetTournament(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.E(apperrors.KindNotFound, "tournament %s not found", tournamentID)
		}
		return fmt.Errorf("get tournament: %w", err)
	}
	if t.Status != StatusWaiting {
		return apperrors.E(apperrors.KindInvalidState, "tournament is %s, not joinable", t.Status)
	}
	now := time.Now()
	if now.After(t.ExpiresAt) {
		return apperrors.E(apperrors.KindExpired, "tournament has expired")
	}

	participants, err := s.store.ListParticipants(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}
	for _, p := range participants {
		if p.UserID == userID {
			return apperrors.E(apperrors.KindAlreadyJoined, "already joined this tournament")
		}
	}
	if len(participants) >= Capacity {
		return apperrors.E(apperrors.KindFull, "tournament already has %d players", Capacity)
	}

	joined := repository.TournamentParticipant{
		TournamentID: tournamentID,
		UserID:       userID,
		JoinedAt:     now,
	}
	if err := s.store.InsertParticipant(ctx, joined); err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}

	s.logger.Info().
		Str("tournament_id", tournamentID).
		Str("user_id", userID.String()).
		Int("players", len(participants)+1).
		Msg("tournament joined")

	if len(participants)+1 == Capacity {
		return s.startBracket(ctx, t, append(participants, joined))
	}
	return nil
}

// startBracket runs under the tournament lock once the lobby fills: shuffle
// seeds, draw the shared semifinal set, reserve the final set and open both
// semifinal matches with all players pre-joined.
func (s *Service) startBracket(ctx context.Context, t repository.Tournament, participants []repository.TournamentParticipant) error {
	shuffled := make([]repository.TournamentParticipant, len(participants))
	copy(shuffled, participants)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	for i, p := range shuffled {
		seed := int16(i + 1)
		if err := s.store.SetParticipantSeed(ctx, t.TournamentID, p.UserID, seed); err != nil {
			return fmt.Errorf("set seed: %w", err)
		}
	}

	semiQuestions, err := s.questions.SelectQuestions(ctx, "")
	if err != nil {
		return err
	}
	finalQuestions, err := s.questions.SelectQuestions(ctx, "")
	if err != nil {
		return err
	}
	if err := s.store.ReserveFinalQuestions(ctx, t.TournamentID, finalQuestions); err != nil {
		return fmt.Errorf("reserve final questions: %w", err)
	}

	pairings := []struct {
		round   string
		player1 uuid.UUID
		player2 uuid.UUID
	}{
		{RoundSemifinal1, shuffled[0].UserID, shuffled[1].UserID},
		{RoundSemifinal2, shuffled[2].UserID, shuffled[3].UserID},
	}
	for _, pairing := range pairings {
		matchID, err := s.matches.CreateBracketMatch(ctx, pairing.player1, pairing.player2, semiQuestions)
		if err != nil {
			return fmt.Errorf("create %s: %w", pairing.round, err)
		}
		err = s.store.InsertTournamentMatch(ctx, repository.TournamentMatch{
			TournamentID: t.TournamentID,
			Round:        pairing.round,
			MatchID:      matchID,
			Player1ID:    pairing.player1,
			Player2ID:    pairing.player2,
			Status:       SlotActive,
		})
		if err != nil {
			return fmt.Errorf("bind %s: %w", pairing.round, err)
		}
	}

	now := time.Now()
	applied, err := s.store.UpdateTournamentStatus(ctx, repository.UpdateTournamentStatusParams{
		TournamentID: t.TournamentID,
		Status:       StatusActive,
		AllowedFrom:  []string{StatusWaiting},
		SetStartedAt: &now,
	})
	if err != nil {
		return fmt.Errorf("activate tournament: %w", err)
	}
	if !applied {
		return apperrors.E(apperrors.KindInvalidState, "tournament is no longer startable")
	}

	metrics.TournamentsStarted.Inc()
	s.logger.Info().Str("tournament_id", t.TournamentID).Msg("bracket started")
	return nil
}

// HandleMatchCompleted reacts to bracket match completions: it records the
// slot winner, advances to the final when both semifinals resolved, and
// completes the tournament when the final resolves. A drawn bracket match
// advances the earlier-seeded player of the pairing.
func (s *Service) HandleMatchCompleted(ctx context.Context, ev events.MatchCompleted) error {
	if !ev.IsBracket {
		return nil
	}

	tm, err := s.store.GetTournamentMatchByMatchID(ctx, ev.MatchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("resolve bracket slot: %w", err)
	}

	unlock, err := s.lock(ctx, tm.TournamentID)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer unlock()

	winner := tm.Player1ID
	if ev.WinnerID != nil {
		winner = *ev.WinnerID
	}
	if err := s.store.UpdateTournamentMatch(ctx, tm.TournamentID, tm.Round, SlotCompleted, &winner); err != nil {
		return fmt.Errorf("record slot winner: %w", err)
	}

	s.logger.Info().
		Str("tournament_id", tm.TournamentID).
		Str("round", tm.Round).
		Str("winner_id", winner.String()).
		Bool("draw", ev.IsDraw).
		Msg("bracket slot resolved")

	if tm.Round == RoundFinal {
		return s.completeTournament(ctx, tm.TournamentID, winner)
	}
	return s.advanceIfSemisDone(ctx, tm.TournamentID)
}

// advanceIfSemisDone opens the final once both semifinal slots carry winners.
// The final slot's unique round constraint makes the insert fire at most once
// even if both semifinal completions race past the lock.
func (s *Service) advanceIfSemisDone(ctx context.Context, tournamentID string) error {
	slots, err := s.store.ListTournamentMatches(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("list bracket slots: %w", err)
	}

	var semi1, semi2 *repository.TournamentMatch
	for i := range slots {
		switch slots[i].Round {
		case RoundSemifinal1:
			semi1 = &slots[i]
		case RoundSemifinal2:
			semi2 = &slots[i]
		case RoundFinal:
			return nil
		}
	}
	if semi1 == nil || semi2 == nil {
		return apperrors.E(apperrors.KindDataIntegrity, "tournament %s is missing semifinal slots", tournamentID)
	}
	if semi1.Status != SlotCompleted || semi2.Status != SlotCompleted {
		return nil
	}
	if semi1.WinnerID == nil || semi2.WinnerID == nil {
		return apperrors.E(apperrors.KindDataIntegrity, "completed semifinal without winner in tournament %s", tournamentID)
	}

	finalQuestions, err := s.store.ListFinalQuestions(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("list final questions: %w", err)
	}

	matchID, err := s.matches.CreateBracketMatch(ctx, *semi1.WinnerID, *semi2.WinnerID, finalQuestions)
	if err != nil {
		return fmt.Errorf("create final: %w", err)
	}
	err = s.store.InsertTournamentMatch(ctx, repository.TournamentMatch{
		TournamentID: tournamentID,
		Round:        RoundFinal,
		MatchID:      matchID,
		Player1ID:    *semi1.WinnerID,
		Player2ID:    *semi2.WinnerID,
		Status:       SlotActive,
	})
	if errors.Is(err, repository.ErrDuplicateRound) {
		// Lost the insert race; discard the extra match.
		if cancelErr := s.matches.CancelBracketMatch(ctx, matchID); cancelErr != nil {
			s.logger.Error().Err(cancelErr).
				Str("match_id", matchID.String()).
				Msg("discard duplicate final match")
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("bind final: %w", err)
	}

	return s.events.PublishFinalStarted(ctx, events.FinalStarted{
		TournamentID: tournamentID,
		MatchID:      matchID,
		Player1ID:    *semi1.WinnerID,
		Player2ID:    *semi2.WinnerID,
	})
}

// completeTournament flips the tournament to completed exactly once.
func (s *Service) completeTournament(ctx context.Context, tournamentID string, winner uuid.UUID) error {
	t, err := s.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("get tournament: %w", err)
	}

	now := time.Now()
	applied, err := s.store.UpdateTournamentStatus(ctx, repository.UpdateTournamentStatusParams{
		TournamentID:   tournamentID,
		Status:         StatusCompleted,
		AllowedFrom:    []string{StatusActive},
		SetCompletedAt: &now,
	})
	if err != nil {
		return fmt.Errorf("complete tournament: %w", err)
	}
	if !applied {
		return nil
	}

	metrics.TournamentsCompleted.Inc()
	s.logger.Info().
		Str("tournament_id", tournamentID).
		Str("winner_id", winner.String()).
		Msg("tournament completed")

	return s.events.PublishTournamentCompleted(ctx, events.TournamentCompleted{
		TournamentID: tournamentID,
		CreatorID:    t.CreatorID,
		WinnerID:     winner,
		CompletedAt:  now,
	})
}

// Leave removes a participant from the lobby. Leaving is only possible while
// the tournament is waiting; once the bracket starts players are committed.
func (s *Service) Leave(ctx context.Context, tournamentID string, userID uuid.UUID) error {
	unlock, err := s.lock(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer unlock()

	t, err := s.store.GetTournament(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.E(apperrors.KindNotFound, "tournament %s not found", tournamentID)
		}
		return fmt.Errorf("get tournament: %w", err)
	}
	if t.Status != StatusWaiting {
		return apperrors.E(apperrors.KindInvalidState, "cannot leave a %s tournament", t.Status)
	}

	removed, err := s.store.DeleteParticipant(ctx, tournamentID, userID)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	if !removed {
		return apperrors.E(apperrors.KindNotFound, "not a participant of this tournament")
	}

	remaining, err := s.store.ListParticipants(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}
	if len(remaining) == 0 {
		if err := s.cancelLocked(ctx, tournamentID); err != nil {
			return err
		}
	}

	s.logger.Info().
		Str("tournament_id", tournamentID).
		Str("user_id", userID.String()).
		Msg("participant left tournament")
	return nil
}

// Cancel aborts a live tournament and its unresolved bracket matches. Only
// the creator or an admin may cancel.
func (s *Service) Cancel(ctx context.Context, tournamentID string, byUserID uuid.UUID) error {
	t, err := s.store.GetTournament(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.E(apperrors.KindNotFound, "tournament %s not found", tournamentID)
		}
		return fmt.Errorf("get tournament: %w", err)
	}

	if t.CreatorID != byUserID {
		caller, err := s.profiles.GetByID(ctx, byUserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.E(apperrors.KindUnauthorized, "only the creator may cancel this tournament")
			}
			return fmt.Errorf("get profile: %w", err)
		}
		if !caller.IsAdmin {
			return apperrors.E(apperrors.KindUnauthorized, "only the creator may cancel this tournament")
		}
	}

	unlock, err := s.lock(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer unlock()

	t, err = s.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("get tournament: %w", err)
	}
	if t.Status != StatusWaiting && t.Status != StatusActive {
		return apperrors.E(apperrors.KindInvalidState, "tournament is %s, cannot cancel", t.Status)
	}
	return s.cancelLocked(ctx, tournamentID)
}

// cancelLocked flips a live tournament to cancelled and cascades into its
// unresolved bracket matches. Callers hold the tournament lock.
func (s *Service) cancelLocked(ctx context.Context, tournamentID string) error {
	now := time.Now()
	applied, err := s.store.UpdateTournamentStatus(ctx, repository.UpdateTournamentStatusParams{
		TournamentID:   tournamentID,
		Status:         StatusCancelled,
		AllowedFrom:    []string{StatusWaiting, StatusActive},
		SetCompletedAt: &now,
	})
	if err != nil {
		return fmt.Errorf("cancel tournament: %w", err)
	}
	if !applied {
		return apperrors.E(apperrors.KindInvalidState, "tournament already finished")
	}

	slots, err := s.store.ListTournamentMatches(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("list bracket slots: %w", err)
	}
	for _, slot := range slots {
		if slot.Status != SlotActive {
			continue
		}
		if err := s.matches.CancelBracketMatch(ctx, slot.MatchID); err != nil {
			s.logger.Error().Err(err).
				Str("match_id", slot.MatchID.String()).
				Msg("cancel bracket match")
			continue
		}
		if err := s.store.UpdateTournamentMatch(ctx, tournamentID, slot.Round, SlotCancelled, nil); err != nil {
			s.logger.Error().Err(err).
				Str("round", slot.Round).
				Msg("mark bracket slot cancelled")
		}
	}

	if err := s.store.DeleteParticipants(ctx, tournamentID); err != nil {
		return fmt.Errorf("clear participants: %w", err)
	}

	s.logger.Info().Str("tournament_id", tournamentID).Msg("tournament cancelled")
	return nil
}

// SweepExpired cancels live tournaments past their deadline.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	expired, err := s.store.ListExpired(ctx, time.Now(), s.sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list expired: %w", err)
	}

	swept := 0
	for _, t := range expired {
		if err := s.expireOne(ctx, t.TournamentID); err != nil {
			s.logger.Error().Err(err).
				Str("tournament_id", t.TournamentID).
				Msg("sweep tournament")
			continue
		}
		swept++
	}
	return swept, nil
}

func (s *Service) expireOne(ctx context.Context, tournamentID string) error {
	unlock, err := s.lock(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer unlock()

	if err := s.cancelLocked(ctx, tournamentID); err != nil {
		if apperrors.KindOf(err) == apperrors.KindInvalidState {
			return nil
		}
		return err
	}
	metrics.ExpirySweepCancelled.Inc()
	return nil
}

// Details serves the tournament projection with lobby and bracket state.
func (s *Service) Details(ctx context.Context, tournamentID string) (*DetailsView, error) {
	t, err := s.store.GetTournament(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.E(apperrors.KindNotFound, "tournament %s not found", tournamentID)
		}
		return nil, fmt.Errorf("get tournament: %w", err)
	}

	participants, err := s.store.ListParticipants(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	slots, err := s.store.ListTournamentMatches(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list bracket slots: %w", err)
	}

	view := &DetailsView{
		TournamentID: t.TournamentID,
		Status:       t.Status,
		CreatorID:    t.CreatorID,
		Participants: make([]ParticipantView, 0, len(participants)),
		Bracket:      make([]BracketSlotView, 0, len(slots)),
		ExpiresAt:    t.ExpiresAt,
		StartedAt:    t.StartedAt,
		CompletedAt:  t.CompletedAt,
	}
	for _, p := range participants {
		view.Participants = append(view.Participants, ParticipantView{
			UserID:   p.UserID,
			Seed:     p.Seed,
			JoinedAt: p.JoinedAt,
		})
	}
	for _, slot := range slots {
		view.Bracket = append(view.Bracket, BracketSlotView{
			Round:     slot.Round,
			MatchID:   slot.MatchID,
			Player1ID: slot.Player1ID,
			Player2ID: slot.Player2ID,
			Status:    slot.Status,
			WinnerID:  slot.WinnerID,
		})
	}
	return view, nil
}
