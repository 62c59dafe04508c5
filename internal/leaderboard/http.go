package leaderboard

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/quizduel/duel-platform/internal/auth"
	httperrors "github.com/quizduel/duel-platform/pkg/http/errors"
)

// HTTPHandlers serves ranked leaderboard views.
type HTTPHandlers struct {
	service *Service
	logger  zerolog.Logger
}

func NewHTTPHandlers(service *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service: service,
		logger:  logger.With().Str("component", "leaderboard_http").Logger(),
	}
}

// Top handles GET /v1/leaderboards/{window}
func (h *HTTPHandlers) Top(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.ClaimsFromContext(r.Context()); !ok {
		httperrors.RespondUnauthorized(w)
		return
	}

	window := r.PathValue("window")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httperrors.RespondValidationError(w, "limit", "must be an integer")
			return
		}
		limit = n
	}

	entries, err := h.service.Top(r.Context(), window, limit)
	if err != nil {
		h.logger.Error().Err(err).Str("window", window).Msg("leaderboard read")
		httperrors.RespondAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"window":  window,
		"entries": entries,
	})
}
