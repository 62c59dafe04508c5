package errors

import (
	"encoding/json"
	"net/http"

	"github.com/quizduel/duel-platform/pkg/apperrors"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Field   string         `json:"field,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// RespondError writes a standardized error response to the HTTP response writer
func RespondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// RespondValidationError writes a validation error response with field information
func RespondValidationError(w http.ResponseWriter, field, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   "validation_failed",
		Message: message,
		Field:   field,
	})
}

// RespondAppError maps a domain error kind to an HTTP status and writes the
// standardized response, including any structured details the error carries.
func RespondAppError(w http.ResponseWriter, err error) {
	kind := apperrors.KindOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusForKind(kind))
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   string(kind),
		Message: err.Error(),
		Details: apperrors.DetailsOf(err),
	})
}

// StatusForKind returns the HTTP status for a domain error kind.
func StatusForKind(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.KindUnauthorized:
		return http.StatusForbidden
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindInvalidState, apperrors.KindAlreadyJoined, apperrors.KindFull,
		apperrors.KindDuplicateAnswer, apperrors.KindExpired:
		return http.StatusConflict
	case apperrors.KindInvalidSelection, apperrors.KindInvalidRequest:
		return http.StatusBadRequest
	case apperrors.KindQuotaExceeded:
		return http.StatusTooManyRequests
	case apperrors.KindContentUnavailable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// RespondInternalError writes an internal server error response
func RespondInternalError(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusInternalServerError, string(apperrors.KindInternal), message)
}

// RespondUnauthorized writes an unauthenticated error response
func RespondUnauthorized(w http.ResponseWriter) {
	RespondError(w, http.StatusUnauthorized, string(apperrors.KindUnauthenticated), "Authentication required")
}

// RespondForbidden writes a forbidden error response
func RespondForbidden(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusForbidden, string(apperrors.KindUnauthorized), message)
}

// RespondBadRequest writes a bad request error response
func RespondBadRequest(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusBadRequest, string(apperrors.KindInvalidRequest), message)
}
