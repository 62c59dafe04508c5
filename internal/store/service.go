// Package store sells quota boosts and in-match power-ups for points.
package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quizduel/duel-platform/internal/db/repository"
	"github.com/quizduel/duel-platform/pkg/apperrors"
)

// Item types sold by the store.
const (
	ItemStadium = "stadium"
	ItemMentor  = "mentor"
)

// Power-up price and effect constants.
const (
	FiftyFiftyCost        = 20
	TimeBoostCost         = 15
	TimeBoostExtraSeconds = 10
)

// Item is one purchasable catalog entry.
type Item struct {
	ItemType         string        `json:"item_type"`
	Name             string        `json:"name"`
	Cost             int           `json:"cost"`
	MatchesBonus     int           `json:"matches_bonus,omitempty"`
	TournamentsBonus int           `json:"tournaments_bonus,omitempty"`
	Duration         time.Duration `json:"-"`
	DurationSeconds  int64         `json:"duration_seconds"`
}

var catalog = []Item{
	{
		ItemType:         ItemStadium,
		Name:             "Stadium",
		Cost:             50,
		MatchesBonus:     2,
		TournamentsBonus: 1,
		Duration:         24 * time.Hour,
		DurationSeconds:  int64(24 * time.Hour / time.Second),
	},
	{
		ItemType:        ItemMentor,
		Name:            "Mentor",
		Cost:            80,
		Duration:        7 * 24 * time.Hour,
		DurationSeconds: int64(7 * 24 * time.Hour / time.Second),
	},
}

type profileStore interface {
	SpendPoints(ctx context.Context, userID uuid.UUID, amount int) error
}

type purchaseStore interface {
	Insert(ctx context.Context, p repository.Purchase) error
	HasActiveMentor(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error)
}

type matchReader interface {
	GetParticipant(ctx context.Context, matchID, userID uuid.UUID) (repository.MatchParticipant, error)
	ListQuestionIDs(ctx context.Context, matchID uuid.UUID) ([]uuid.UUID, error)
}

type answerVault interface {
	CorrectOption(ctx context.Context, questionID uuid.UUID) (int, error)
}

// Service sells items and applies power-ups.
type Service struct {
	profiles  profileStore
	purchases purchaseStore
	matches   matchReader
	vault     answerVault
	logger    zerolog.Logger
}

func NewService(profiles profileStore, purchases purchaseStore, matches matchReader, vault answerVault, logger zerolog.Logger) *Service {
	return &Service{
		profiles:  profiles,
		purchases: purchases,
		matches:   matches,
		vault:     vault,
		logger:    logger.With().Str("component", "store").Logger(),
	}
}

// Catalog returns the purchasable items.
func (s *Service) Catalog() []Item {
	return catalog
}

func findItem(itemType string) (Item, bool) {
	for _, item := range catalog {
		if item.ItemType == itemType {
			return item, true
		}
	}
	return Item{}, false
}

// Purchase deducts the item's cost and records the purchase.
func (s *Service) Purchase(ctx context.Context, userID uuid.UUID, itemType string) (*repository.Purchase, error) {
	item, ok := findItem(itemType)
	if !ok {
		return nil, apperrors.E(apperrors.KindNotFound, "unknown store item %q", itemType)
	}

	if err := s.spend(ctx, userID, item.Cost); err != nil {
		return nil, err
	}

	p := repository.Purchase{
		PurchaseID:       uuid.New(),
		UserID:           userID,
		ItemType:         item.ItemType,
		MatchesBonus:     item.MatchesBonus,
		TournamentsBonus: item.TournamentsBonus,
		Duration:         item.Duration,
		PurchasedAt:      time.Now(),
	}
	if err := s.purchases.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("record purchase: %w", err)
	}

	s.logger.Info().
		Str("user_id", userID.String()).
		Str("item_type", item.ItemType).
		Int("cost", item.Cost).
		Msg("item purchased")
	return &p, nil
}

// UseFiftyFifty removes two wrong options for one unanswered match question.
// The returned option numbers can be greyed out client-side; the correct
// option itself is never revealed.
func (s *Service) UseFiftyFifty(ctx context.Context, userID, matchID, questionID uuid.UUID) ([]int, error) {
	if err := s.requireMentor(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.checkQuestionOpen(ctx, userID, matchID, questionID); err != nil {
		return nil, err
	}

	correct, err := s.vault.CorrectOption(ctx, questionID)
	if err != nil {
		return nil, err
	}

	if err := s.spend(ctx, userID, FiftyFiftyCost); err != nil {
		return nil, err
	}

	var wrong []int
	for option := 1; option <= 4; option++ {
		if option != correct {
			wrong = append(wrong, option)
		}
	}
	// Keep one random wrong option alongside the correct one.
	keep := rand.Intn(len(wrong))
	removed := make([]int, 0, 2)
	for i, option := range wrong {
		if i != keep {
			removed = append(removed, option)
		}
	}

	s.logger.Info().
		Str("user_id", userID.String()).
		Str("match_id", matchID.String()).
		Msg("fifty-fifty used")
	return removed, nil
}

// UseTimeBoost buys extra answer time for the current match.
func (s *Service) UseTimeBoost(ctx context.Context, userID, matchID uuid.UUID) (int, error) {
	if err := s.requireMentor(ctx, userID); err != nil {
		return 0, err
	}
	if _, err := s.matches.GetParticipant(ctx, matchID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, apperrors.E(apperrors.KindNotFound, "not a participant of this match")
		}
		return 0, fmt.Errorf("get participant: %w", err)
	}

	if err := s.spend(ctx, userID, TimeBoostCost); err != nil {
		return 0, err
	}

	s.logger.Info().
		Str("user_id", userID.String()).
		Str("match_id", matchID.String()).
		Msg("time boost used")
	return TimeBoostExtraSeconds, nil
}

// requireMentor gates power-ups on an unexpired mentor purchase.
func (s *Service) requireMentor(ctx context.Context, userID uuid.UUID) error {
	mentored, err := s.purchases.HasActiveMentor(ctx, userID, time.Now())
	if err != nil {
		return fmt.Errorf("check mentor: %w", err)
	}
	if !mentored {
		return apperrors.E(apperrors.KindInvalidState, "power-ups require an active mentor pass")
	}
	return nil
}

func (s *Service) checkQuestionOpen(ctx context.Context, userID, matchID, questionID uuid.UUID) error {
	questionIDs, err := s.matches.ListQuestionIDs(ctx, matchID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	var belongs bool
	for _, id := range questionIDs {
		if id == questionID {
			belongs = true
			break
		}
	}
	if !belongs {
		return apperrors.E(apperrors.KindNotFound, "question %s is not part of this match", questionID)
	}

	participant, err := s.matches.GetParticipant(ctx, matchID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.E(apperrors.KindNotFound, "not a participant of this match")
		}
		return fmt.Errorf("get participant: %w", err)
	}
	for _, a := range participant.Answers {
		if a.QuestionID == questionID {
			return apperrors.E(apperrors.KindInvalidState, "question already answered")
		}
	}
	return nil
}

func (s *Service) spend(ctx context.Context, userID uuid.UUID, amount int) error {
	err := s.profiles.SpendPoints(ctx, userID, amount)
	if errors.Is(err, repository.ErrInsufficientPoints) {
		return apperrors.WithDetails(apperrors.KindInvalidRequest,
			map[string]any{"cost": amount},
			"not enough points")
	}
	if err != nil {
		return fmt.Errorf("spend points: %w", err)
	}
	return nil
}
