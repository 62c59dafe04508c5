package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/quizduel/duel-platform/internal/db/repository"
	"github.com/quizduel/duel-platform/pkg/apperrors"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleOAuth runs the Google sign-in flow and maps identities to profiles.
type GoogleOAuth struct {
	config  *oauth2.Config
	service *Service
}

func NewGoogleOAuth(clientID, clientSecret, redirectURL string, service *Service) *GoogleOAuth {
	return &GoogleOAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"email", "profile"},
			Endpoint:     google.Endpoint,
		},
		service: service,
	}
}

// Enabled reports whether Google credentials were configured.
func (g *GoogleOAuth) Enabled() bool {
	return g.config.ClientID != ""
}

// LoginURL returns the consent page URL for the given CSRF state.
func (g *GoogleOAuth) LoginURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type googleUserInfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// HandleCallback exchanges the authorization code, resolves or creates the
// matching profile and issues a token pair.
func (g *GoogleOAuth) HandleCallback(ctx context.Context, code string) (*AuthResponse, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnauthenticated, err, "code exchange failed")
	}

	info, err := g.fetchUserInfo(ctx, token)
	if err != nil {
		return nil, err
	}
	if info.Email == "" {
		return nil, apperrors.E(apperrors.KindUnauthenticated, "google account has no email")
	}

	profile, err := g.service.users.GetByEmail(ctx, info.Email)
	if errors.Is(err, repository.ErrNotFound) {
		name := info.Name
		if name == "" {
			name = info.Email
		}
		profile = repository.Profile{
			UserID:       uuid.New(),
			Email:        &info.Email,
			DisplayName:  name,
			ReferralCode: newReferralCode(),
			CreatedAt:    time.Now(),
		}
		if err := g.service.users.Create(ctx, profile); err != nil {
			return nil, fmt.Errorf("create oauth profile: %w", err)
		}
		g.service.logger.Info().
			Str("user_id", profile.UserID.String()).
			Msg("account registered via google")
	} else if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return g.service.respond(profile)
}

func (g *GoogleOAuth) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := g.config.Client(ctx, token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.E(apperrors.KindUnauthenticated, "userinfo request rejected")
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	return &info, nil
}
