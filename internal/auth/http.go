package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	httperrors "github.com/quizduel/duel-platform/pkg/http/errors"
)

// HTTPHandlers provides the account endpoints.
type HTTPHandlers struct {
	service *Service
	google  *GoogleOAuth
	logger  zerolog.Logger
}

func NewHTTPHandlers(service *Service, google *GoogleOAuth, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service: service,
		google:  google,
		logger:  logger.With().Str("component", "auth_http").Logger(),
	}
}

// Register handles POST /v1/auth/register
func (h *HTTPHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		DisplayName  string `json:"display_name"`
		ReferralCode string `json:"referral_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, "invalid JSON payload")
		return
	}

	resp, err := h.service.Register(r.Context(), RegisterRequest{
		Email:        req.Email,
		Password:     req.Password,
		DisplayName:  req.DisplayName,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		httperrors.RespondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

// Login handles POST /v1/auth/login
func (h *HTTPHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, "invalid JSON payload")
		return
	}

	resp, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httperrors.RespondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Refresh handles POST /v1/auth/refresh
func (h *HTTPHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, "invalid JSON payload")
		return
	}

	resp, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httperrors.RespondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Me handles GET /v1/auth/me
func (h *HTTPHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w)
		return
	}

	view, err := h.service.Me(r.Context(), claims.UserID)
	if err != nil {
		httperrors.RespondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

const oauthStateCookie = "oauth_state"

// GoogleLogin handles GET /v1/auth/google
func (h *HTTPHandlers) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.google == nil || !h.google.Enabled() {
		httperrors.RespondError(w, http.StatusNotImplemented, "oauth_disabled", "Google sign-in is not configured")
		return
	}

	state := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.google.LoginURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback handles GET /v1/auth/google/callback
func (h *HTTPHandlers) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil || !h.google.Enabled() {
		httperrors.RespondError(w, http.StatusNotImplemented, "oauth_disabled", "Google sign-in is not configured")
		return
	}

	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		httperrors.RespondBadRequest(w, "oauth state mismatch")
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		httperrors.RespondBadRequest(w, "missing authorization code")
		return
	}

	resp, err := h.google.HandleCallback(r.Context(), code)
	if err != nil {
		h.logger.Error().Err(err).Msg("google callback")
		httperrors.RespondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
