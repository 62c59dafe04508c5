// Package auth handles registration, login, token refresh and the referral
// program.
package auth

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quizduel/duel-platform/internal/auth/jwt"
	"github.com/quizduel/duel-platform/internal/db/repository"
	"github.com/quizduel/duel-platform/pkg/apperrors"
)

const referralCodeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

func newReferralCode() string {
	b := make([]byte, 8)
	for i := range b {
		b[i] = referralCodeAlphabet[rand.Intn(len(referralCodeAlphabet))]
	}
	return string(b)
}

type userStore interface {
	Create(ctx context.Context, p repository.Profile) error
	GetByID(ctx context.Context, userID uuid.UUID) (repository.Profile, error)
	GetByEmail(ctx context.Context, email string) (repository.Profile, error)
	GetByReferralCode(ctx context.Context, code string) (repository.Profile, error)
}

type referralStore interface {
	InsertRedemption(ctx context.Context, ownerID, signeeID uuid.UUID, redeemedAt time.Time) error
}

type referralRewarder interface {
	GrantReferral(ctx context.Context, ownerID, signeeID uuid.UUID) error
}

// RegisterRequest creates a new account. ReferralCode is optional.
type RegisterRequest struct {
	Email        string
	Password     string
	DisplayName  string
	ReferralCode string
}

// TokenPair is an access/refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse is returned by register, login and OAuth flows.
type AuthResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	DisplayName  string    `json:"display_name"`
	ReferralCode string    `json:"referral_code"`
	TokenPair
}

// ProfileView is the authenticated user's own profile.
type ProfileView struct {
	UserID              uuid.UUID `json:"user_id"`
	Email               *string   `json:"email,omitempty"`
	DisplayName         string    `json:"display_name"`
	IsAdmin             bool      `json:"is_admin"`
	Points              int       `json:"points"`
	CorrectAnswersTotal int       `json:"correct_answers_total"`
	ReferralCode        string    `json:"referral_code"`
}

// Service implements account lifecycle and token issuance.
type Service struct {
	users     userStore
	referrals referralStore
	rewards   referralRewarder
	tokens    *jwt.Manager
	logger    zerolog.Logger
}

func NewService(users userStore, referrals referralStore, rewards referralRewarder, tokens *jwt.Manager, logger zerolog.Logger) *Service {
	return &Service{
		users:     users,
		referrals: referrals,
		rewards:   rewards,
		tokens:    tokens,
		logger:    logger.With().Str("component", "auth").Logger(),
	}
}

// Register creates an account, optionally redeeming a referral code, and
// returns a fresh token pair.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return nil, apperrors.E(apperrors.KindInvalidRequest, "a valid email is required")
	}
	if req.DisplayName == "" {
		return nil, apperrors.E(apperrors.KindInvalidRequest, "display_name is required")
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, ErrPasswordTooShort) {
			return nil, apperrors.Wrap(apperrors.KindInvalidRequest, err, "weak password")
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var referrer *repository.Profile
	if req.ReferralCode != "" {
		owner, err := s.users.GetByReferralCode(ctx, strings.ToUpper(req.ReferralCode))
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.E(apperrors.KindNotFound, "referral code not found")
			}
			return nil, fmt.Errorf("resolve referral code: %w", err)
		}
		referrer = &owner
	}

	now := time.Now()
	profile := repository.Profile{
		UserID:       uuid.New(),
		Email:        &req.Email,
		PasswordHash: &hash,
		DisplayName:  req.DisplayName,
		ReferralCode: newReferralCode(),
		CreatedAt:    now,
	}
	if err := s.users.Create(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.E(apperrors.KindInvalidRequest, "email already registered")
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}

	if referrer != nil {
		if err := s.redeemReferral(ctx, referrer.UserID, profile.UserID, now); err != nil {
			s.logger.Error().Err(err).
				Str("user_id", profile.UserID.String()).
				Msg("redeem referral")
		}
	}

	s.logger.Info().
		Str("user_id", profile.UserID.String()).
		Msg("account registered")
	return s.respond(profile)
}

func (s *Service) redeemReferral(ctx context.Context, ownerID, signeeID uuid.UUID, now time.Time) error {
	err := s.referrals.InsertRedemption(ctx, ownerID, signeeID, now)
	if errors.Is(err, repository.ErrAlreadyRedeemed) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("insert redemption: %w", err)
	}
	return s.rewards.GrantReferral(ctx, ownerID, signeeID)
}

// Login verifies credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	profile, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.E(apperrors.KindUnauthenticated, "invalid credentials")
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if profile.PasswordHash == nil {
		return nil, apperrors.E(apperrors.KindUnauthenticated, "invalid credentials")
	}
	if err := VerifyPassword(*profile.PasswordHash, password); err != nil {
		return nil, apperrors.E(apperrors.KindUnauthenticated, "invalid credentials")
	}
	return s.respond(profile)
}

// Refresh exchanges a valid refresh token for a new pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnauthenticated, err, "invalid refresh token")
	}
	profile, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.E(apperrors.KindUnauthenticated, "account no longer exists")
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return s.respond(profile)
}

// Me returns the caller's own profile.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*ProfileView, error) {
	profile, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.E(apperrors.KindNotFound, "profile not found")
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &ProfileView{
		UserID:              profile.UserID,
		Email:               profile.Email,
		DisplayName:         profile.DisplayName,
		IsAdmin:             profile.IsAdmin,
		Points:              profile.Points,
		CorrectAnswersTotal: profile.CorrectAnswersTotal,
		ReferralCode:        profile.ReferralCode,
	}, nil
}

// ValidateToken validates an access token for the HTTP middleware.
func (s *Service) ValidateToken(token string) (*jwt.Claims, error) {
	return s.tokens.ValidateAccessToken(token)
}

func (s *Service) respond(profile repository.Profile) (*AuthResponse, error) {
	user := jwt.User{ID: profile.UserID, DisplayName: profile.DisplayName, IsAdmin: profile.IsAdmin}
	access, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	return &AuthResponse{
		UserID:       profile.UserID,
		DisplayName:  profile.DisplayName,
		ReferralCode: profile.ReferralCode,
		TokenPair:    TokenPair{AccessToken: access, RefreshToken: refresh},
	}, nil
}
