package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kaisan-events/registration-service/internal/domain"
)

// Response represents a standard API response
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// Error represents an API error
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := Response{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	json.NewEncoder(w).Encode(response)
}

// JSONError writes an error response
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	json.NewEncoder(w).Encode(response)
}

// HandleError handles common domain errors and writes appropriate responses
func HandleError(w http.ResponseWriter, err error) {
	var dup domain.DuplicateRegistrationError
	if errors.As(err, &dup) {
		JSONError(w, http.StatusConflict, "DUPLICATE_REGISTRATION", dup.Error(), map[string]any{
			"email":                    dup.Email,
			"registrations_with_email": dup.EmailCount,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		JSONError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found", nil)

	case errors.Is(err, domain.ErrAlreadyExists):
		JSONError(w, http.StatusConflict, "ALREADY_EXISTS", "Resource already exists", nil)

	case errors.Is(err, domain.ErrUnknownKind):
		JSONError(w, http.StatusBadRequest, "UNKNOWN_KIND", "Unknown notification kind", nil)

	case errors.Is(err, domain.ErrInvalidPhone):
		JSONError(w, http.StatusBadRequest, "INVALID_PHONE", "Invalid phone number", nil)

	case errors.Is(err, domain.ErrRateLimitExceeded):
		JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many dispatch attempts, try again later", nil)

	case errors.Is(err, domain.ErrProfileBusy):
		JSONError(w, http.StatusConflict, "PROFILE_BUSY", "A dispatch is already in progress", nil)

	default:
		var validationErr domain.ValidationError
		if errors.As(err, &validationErr) {
			JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", validationErr.Message, map[string]string{
				"field": validationErr.Field,
			})
			return
		}

		JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred", nil)
	}
}

// DecodeJSON decodes JSON request body
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return domain.NewValidationError("body", "request body is required")
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		return domain.NewValidationError("body", "invalid JSON: "+err.Error())
	}

	return nil
}
