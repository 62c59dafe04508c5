package tournament

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/quizduel/duel-platform/internal/auth"
	httperrors "github.com/quizduel/duel-platform/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for tournament operations.
type HTTPHandlers struct {
	service *Service
	logger  zerolog.Logger
}

func NewHTTPHandlers(service *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service: service,
		logger:  logger.With().Str("component", "tournament_http").Logger(),
	}
}

// Create handles POST /v1/tournaments
func (h *HTTPHandlers) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w)
		return
	}

	var req struct {
		Category string `json:"category"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httperrors.RespondBadRequest(w, "invalid JSON payload")
			return
		}
	}

	resp, err := h.service.Create(r.Context(), CreateRequest{
		CreatorID: claims.UserID,
		Category:  req.Category,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", claims.UserID.String()).Msg("create tournament")
		httperrors.RespondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

// Join handles POST /v1/tournaments/{id}/join
func (h *HTTPHandlers) Join(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w)
		return
	}
	tournamentID, ok := pathTournamentID(w, r)
	if !ok {
		return
	}

	if err := h.service.Join(r.Context(), tournamentID, claims.UserID); err != nil {
		httperrors.RespondAppError(w, err)
		return
	}

	view, err := h.service.Details(r.Context(), tournamentID)
	if err != nil {
		httperrors.RespondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Leave handles POST /v1/tournaments/{id}/leave
func (h *HTTPHandlers) Leave(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w)
		return
	}
	tournamentID, ok := pathTournamentID(w, r)
	if !ok {
		return
	}

	if err := h.service.Leave(r.Context(), tournamentID, claims.UserID); err != nil {
		httperrors.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Cancel handles POST /v1/tournaments/{id}/cancel
func (h *HTTPHandlers) Cancel(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w)
		return
	}
	tournamentID, ok := pathTournamentID(w, r)
	if !ok {
		return
	}

	if err := h.service.Cancel(r.Context(), tournamentID, claims.UserID); err != nil {
		httperrors.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Details handles GET /v1/tournaments/{id}
func (h *HTTPHandlers) Details(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.ClaimsFromContext(r.Context()); !ok {
		httperrors.RespondUnauthorized(w)
		return
	}
	tournamentID, ok := pathTournamentID(w, r)
	if !ok {
		return
	}

	view, err := h.service.Details(r.Context(), tournamentID)
	if err != nil {
		httperrors.RespondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func pathTournamentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if !strings.HasPrefix(id, "t_") || len(id) != 14 {
		httperrors.RespondValidationError(w, "id", "malformed tournament id")
		return "", false
	}
	return id, true
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
