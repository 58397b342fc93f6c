package api

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/wallet-profiles/internal/errors"
	"github.com/wallet-profiles/internal/logging"
)

// ErrorResponse is the body of every non-field error
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Common error codes
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeRateLimit    = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// respondError sends {"error": message, "code": code}
func respondError(w http.ResponseWriter, statusCode int, code, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// respondServiceError maps a service error onto the response. Validation
// and conflict errors become a map of field name to messages so clients can
// attach them to inputs; everything else uses ErrorResponse.
func respondServiceError(w http.ResponseWriter, logger *logging.Logger, err error) {
	catErr := apperrors.Categorize(err)

	if len(catErr.Fields) > 0 {
		respondJSON(w, catErr.StatusCode, catErr.Fields)
		return
	}

	if catErr.StatusCode >= http.StatusInternalServerError {
		logger.WithError(err).WithField("category", string(catErr.Category)).Error("Request failed")
		respondError(w, catErr.StatusCode, catErr.Code, "An internal error occurred")
		return
	}

	respondError(w, catErr.StatusCode, catErr.Code, catErr.Message)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// parseJSONBody parses JSON request body.
func parseJSONBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}
