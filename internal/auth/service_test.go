package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quizduel/duel-platform/internal/auth/jwt"
	"github.com/quizduel/duel-platform/internal/db/repository"
	"github.com/quizduel/duel-platform/pkg/apperrors"
)

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) Create(ctx context.Context, p repository.Profile) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockUsers) GetByID(ctx context.Context, userID uuid.UUID) (repository.Profile, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(repository.Profile), args.Error(1)
}

func (m *mockUsers) GetByEmail(ctx context.Context, email string) (repository.Profile, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(repository.Profile), args.Error(1)
}

func (m *mockUsers) GetByReferralCode(ctx context.Context, code string) (repository.Profile, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(repository.Profile), args.Error(1)
}

type mockReferrals struct {
	mock.Mock
}

func (m *mockReferrals) InsertRedemption(ctx context.Context, ownerID, signeeID uuid.UUID, redeemedAt time.Time) error {
	return m.Called(ctx, ownerID, signeeID, redeemedAt).Error(0)
}

type mockRewards struct {
	mock.Mock
}

func (m *mockRewards) GrantReferral(ctx context.Context, ownerID, signeeID uuid.UUID) error {
	return m.Called(ctx, ownerID, signeeID).Error(0)
}

func newService() (*Service, *mockUsers, *mockReferrals, *mockRewards) {
	users := new(mockUsers)
	referrals := new(mockReferrals)
	rewards := new(mockRewards)
	tokens := jwt.NewManager(jwt.TokenConfig{Secret: []byte("test-secret")})
	return NewService(users, referrals, rewards, tokens, zerolog.Nop()), users, referrals, rewards
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("testpassword123")
	assert.NoError(t, err)
	assert.NotEmpty(t, hash)

	assert.NoError(t, VerifyPassword(hash, "testpassword123"))
	assert.Error(t, VerifyPassword(hash, "wrongpassword"))
}

func TestPasswordTooShort(t *testing.T) {
	_, err := HashPassword("short")
	assert.Equal(t, ErrPasswordTooShort, err)
}

func TestRegisterIssuesTokens(t *testing.T) {
	svc, users, _, _ := newService()

	users.On("Create", mock.Anything, mock.MatchedBy(func(p repository.Profile) bool {
		return p.Email != nil && *p.Email == "player@example.com" &&
			p.PasswordHash != nil && len(p.ReferralCode) == 8
	})).Return(nil)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:       "Player@Example.com",
		Password:    "testpassword123",
		DisplayName: "Player One",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Len(t, resp.ReferralCode, 8)
}

func TestRegisterWithReferralCode(t *testing.T) {
	svc, users, referrals, rewards := newService()
	owner := uuid.New()

	users.On("GetByReferralCode", mock.Anything, "FRIEND23").
		Return(repository.Profile{UserID: owner, ReferralCode: "FRIEND23"}, nil)
	users.On("Create", mock.Anything, mock.Anything).Return(nil)
	referrals.On("InsertRedemption", mock.Anything, owner, mock.Anything, mock.Anything).Return(nil)
	rewards.On("GrantReferral", mock.Anything, owner, mock.Anything).Return(nil)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:        "signee@example.com",
		Password:     "testpassword123",
		DisplayName:  "Signee",
		ReferralCode: "friend23",
	})
	require.NoError(t, err)
	rewards.AssertExpectations(t)
}

func TestRegisterUnknownReferralCode(t *testing.T) {
	svc, users, _, _ := newService()

	users.On("GetByReferralCode", mock.Anything, "NOPE2345").
		Return(repository.Profile{}, repository.ErrNotFound)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:        "signee@example.com",
		Password:     "testpassword123",
		DisplayName:  "Signee",
		ReferralCode: "NOPE2345",
	})
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, users, _, _ := newService()

	users.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicateEmail)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:       "taken@example.com",
		Password:    "testpassword123",
		DisplayName: "Player",
	})
	assert.Equal(t, apperrors.KindInvalidRequest, apperrors.KindOf(err))
}

func TestLoginRoundTrip(t *testing.T) {
	svc, users, _, _ := newService()
	hash, err := HashPassword("testpassword123")
	require.NoError(t, err)
	userID := uuid.New()

	users.On("GetByEmail", mock.Anything, "player@example.com").Return(repository.Profile{
		UserID:       userID,
		DisplayName:  "Player",
		PasswordHash: &hash,
	}, nil)

	resp, err := svc.Login(context.Background(), "player@example.com", "testpassword123")
	require.NoError(t, err)
	assert.Equal(t, userID, resp.UserID)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, users, _, _ := newService()
	hash, _ := HashPassword("testpassword123")

	users.On("GetByEmail", mock.Anything, mock.Anything).Return(repository.Profile{
		UserID:       uuid.New(),
		PasswordHash: &hash,
	}, nil)

	_, err := svc.Login(context.Background(), "player@example.com", "wrongpassword")
	assert.Equal(t, apperrors.KindUnauthenticated, apperrors.KindOf(err))
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, users, _, _ := newService()

	users.On("GetByEmail", mock.Anything, mock.Anything).
		Return(repository.Profile{}, repository.ErrNotFound)

	_, err := svc.Login(context.Background(), "ghost@example.com", "testpassword123")
	assert.Equal(t, apperrors.KindUnauthenticated, apperrors.KindOf(err))
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, users, _, _ := newService()
	hash, _ := HashPassword("testpassword123")
	userID := uuid.New()

	users.On("GetByEmail", mock.Anything, mock.Anything).Return(repository.Profile{
		UserID:       userID,
		PasswordHash: &hash,
	}, nil)

	resp, err := svc.Login(context.Background(), "player@example.com", "testpassword123")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), resp.AccessToken)
	assert.Equal(t, apperrors.KindUnauthenticated, apperrors.KindOf(err))
}

func TestRefreshIssuesNewPair(t *testing.T) {
	svc, users, _, _ := newService()
	hash, _ := HashPassword("testpassword123")
	userID := uuid.New()
	profile := repository.Profile{UserID: userID, DisplayName: "Player", PasswordHash: &hash}

	users.On("GetByEmail", mock.Anything, mock.Anything).Return(profile, nil)
	users.On("GetByID", mock.Anything, userID).Return(profile, nil)

	resp, err := svc.Login(context.Background(), "player@example.com", "testpassword123")
	require.NoError(t, err)

	renewed, err := svc.Refresh(context.Background(), resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, renewed.AccessToken)
}
