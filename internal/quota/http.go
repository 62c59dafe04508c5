package quota

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/quizduel/duel-platform/internal/auth"
	httperrors "github.com/quizduel/duel-platform/pkg/http/errors"
)

// HTTPHandlers exposes the quota snapshot endpoint.
type HTTPHandlers struct {
	policy *Policy
	logger zerolog.Logger
}

func NewHTTPHandlers(policy *Policy, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		policy: policy,
		logger: logger.With().Str("component", "quota_http").Logger(),
	}
}

// Remaining handles GET /v1/quota
func (h *HTTPHandlers) Remaining(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w)
		return
	}

	rem, err := h.policy.Remaining(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", claims.UserID.String()).Msg("quota snapshot")
		httperrors.RespondAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rem)
}
