package store

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quizduel/duel-platform/internal/auth"
	httperrors "github.com/quizduel/duel-platform/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for the point store.
type HTTPHandlers struct {
	service *Service
	logger  zerolog.Logger
}

func NewHTTPHandlers(service *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service: service,
		logger:  logger.With().Str("component", "store_http").Logger(),
	}
}

// Catalog handles GET /v1/store
func (h *HTTPHandlers) Catalog(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.ClaimsFromContext(r.Context()); !ok {
		httperrors.RespondUnauthorized(w)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": h.service.Catalog()})
}

type purchaseRequest struct {
	ItemType string `json:"item_type"`
}

// Purchase handles POST /v1/store/purchases
func (h *HTTPHandlers) Purchase(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w)
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, "invalid JSON payload")
		return
	}
	if req.ItemType == "" {
		httperrors.RespondValidationError(w, "item_type", "item_type is required")
		return
	}

	purchase, err := h.service.Purchase(r.Context(), claims.UserID, req.ItemType)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", claims.UserID.String()).Msg("purchase")
		httperrors.RespondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"purchase_id": purchase.PurchaseID.String(),
		"item_type":   purchase.ItemType,
		"expires_at":  purchase.PurchasedAt.Add(purchase.Duration).Format("2006-01-02T15:04:05Z07:00"),
	})
}

type fiftyFiftyRequest struct {
	QuestionID string `json:"question_id"`
}

// FiftyFifty handles POST /v1/matches/{id}/powerups/fifty-fifty
func (h *HTTPHandlers) FiftyFifty(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w)
		return
	}
	matchID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondValidationError(w, "id", "must be a valid UUID")
		return
	}

	var req fiftyFiftyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, "invalid JSON payload")
		return
	}
	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		httperrors.RespondValidationError(w, "question_id", "must be a valid UUID")
		return
	}

	removed, err := h.service.UseFiftyFifty(r.Context(), claims.UserID, matchID, questionID)
	if err != nil {
		h.logger.Error().Err(err).Str("match_id", matchID.String()).Msg("fifty-fifty")
		httperrors.RespondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"removed_options": removed})
}

// TimeBoost handles POST /v1/matches/{id}/powerups/time-boost
func (h *HTTPHandlers) TimeBoost(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w)
		return
	}
	matchID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondValidationError(w, "id", "must be a valid UUID")
		return
	}

	extra, err := h.service.UseTimeBoost(r.Context(), claims.UserID, matchID)
	if err != nil {
		h.logger.Error().Err(err).Str("match_id", matchID.String()).Msg("time boost")
		httperrors.RespondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"extra_seconds": extra})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
