package match

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quizduel/duel-platform/internal/auth"
	httperrors "github.com/quizduel/duel-platform/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for match operations.
type HTTPHandlers struct {
	service *Service
	logger  zerolog.Logger
}

func NewHTTPHandlers(service *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service: service,
		logger:  logger.With().Str("component", "match_http").Logger(),
	}
}

type createMatchRequest struct {
	IsPrivate bool   `json:"is_private"`
	Category  string `json:"category"`
}

type createMatchResponse struct {
	MatchID   string `json:"match_id"`
	JoinCode  string `json:"join_code,omitempty"`
	ExpiresAt string `json:"expires_at"`
}

// Create handles POST /v1/matches
func (h *HTTPHandlers) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w)
		return
	}

	var req createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, "invalid JSON payload")
		return
	}

	resp, err := h.service.Create(r.Context(), CreateRequest{
		CreatorID: claims.UserID,
		IsPrivate: req.IsPrivate,
		Category:  req.Category,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", claims.UserID.String()).Msg("create match")
		httperrors.RespondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, createMatchResponse{
		MatchID:   resp.MatchID.String(),
		JoinCode:  resp.JoinCode,
		ExpiresAt: resp.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// ListOpen handles GET /v1/matches
func (h *HTTPHandlers) ListOpen(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.ClaimsFromContext(r.Context()); !ok {
		httperrors.RespondUnauthorized(w)
		return
	}

	matches, err := h.service.ListOpen(r.Context(), 20)
	if err != nil {
		h.logger.Error().Err(err).Msg("list open matches")
		httperrors.RespondAppError(w, err)
		return
	}

	type openMatch struct {
		MatchID   string `json:"match_id"`
		CreatedAt string `json:"created_at"`
		ExpiresAt string `json:"expires_at"`
	}
	out := make([]openMatch, 0, len(matches))
	for _, m := range matches {
		out = append(out, openMatch{
			MatchID:   m.MatchID.String(),
			CreatedAt: m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			ExpiresAt: m.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"matches": out})
}

// Join handles POST /v1/matches/{id}/join
func (h *HTTPHandlers) Join(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w)
		return
	}
	matchID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Join(r.Context(), matchID, claims.UserID); err != nil {
		httperrors.RespondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"match_id": matchID.String(), "status": StatusActive})
}

// JoinByCode handles POST /v1/matches/join
func (h *HTTPHandlers) JoinByCode(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w)
		return
	}

	var req struct {
		JoinCode string `json:"join_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, "invalid JSON payload")
		return
	}
	if len(req.JoinCode) != joinCodeLength {
		httperrors.RespondValidationError(w, "join_code", "join code must be 6 characters")
		return
	}

	matchID, err := h.service.JoinByCode(r.Context(), req.JoinCode, claims.UserID)
	if err != nil {
		httperrors.RespondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"match_id": matchID.String(), "status": StatusActive})
}

type submitAnswerRequest struct {
	QuestionID       string `json:"question_id"`
	SelectedAnswer   int    `json:"selected_answer"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
}

// SubmitAnswer handles POST /v1/matches/{id}/answers
func (h *HTTPHandlers) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w)
		return
	}
	matchID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, "invalid JSON payload")
		return
	}
	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		httperrors.RespondValidationError(w, "question_id", "question_id must be a UUID")
		return
	}
	if req.TimeSpentSeconds < 0 {
		httperrors.RespondValidationError(w, "time_spent_seconds", "time_spent_seconds must not be negative")
		return
	}

	result, err := h.service.SubmitAnswer(r.Context(), SubmitRequest{
		MatchID:          matchID,
		UserID:           claims.UserID,
		QuestionID:       questionID,
		SelectedAnswer:   req.SelectedAnswer,
		TimeSpentSeconds: req.TimeSpentSeconds,
	})
	if err != nil {
		httperrors.RespondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Leave handles POST /v1/matches/{id}/leave
func (h *HTTPHandlers) Leave(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w)
		return
	}
	matchID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Leave(r.Context(), matchID, claims.UserID); err != nil {
		httperrors.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Cancel handles POST /v1/matches/{id}/cancel
func (h *HTTPHandlers) Cancel(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w)
		return
	}
	matchID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Cancel(r.Context(), matchID, claims.UserID); err != nil {
		httperrors.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Details handles GET /v1/matches/{id}
func (h *HTTPHandlers) Details(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w)
		return
	}
	matchID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	view, err := h.service.Details(r.Context(), matchID, claims.UserID)
	if err != nil {
		httperrors.RespondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Results handles GET /v1/matches/{id}/results
func (h *HTTPHandlers) Results(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.ClaimsFromContext(r.Context()); !ok {
		httperrors.RespondUnauthorized(w)
		return
	}
	matchID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	view, err := h.service.Results(r.Context(), matchID)
	if err != nil {
		httperrors.RespondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Partial handles GET /v1/matches/{id}/partial
func (h *HTTPHandlers) Partial(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.ClaimsFromContext(r.Context()); !ok {
		httperrors.RespondUnauthorized(w)
		return
	}
	matchID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	view, err := h.service.Partial(r.Context(), matchID)
	if err != nil {
		httperrors.RespondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func pathUUID(w http.ResponseWriter, r *http.Request, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(key))
	if err != nil {
		httperrors.RespondValidationError(w, key, key+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
