package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaisan-events/registration-service/internal/domain"
)

func TestHandleError_DuplicateRegistration(t *testing.T) {
	rec := httptest.NewRecorder()

	HandleError(rec, domain.DuplicateRegistrationError{Email: "asha@example.com", EmailCount: 2})

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "DUPLICATE_REGISTRATION", resp.Error.Code)

	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "asha@example.com", details["email"])
	assert.Equal(t, float64(2), details["registrations_with_email"])
}

func TestHandleError_NotFound(t *testing.T) {
	rec := httptest.NewRecorder()

	HandleError(rec, domain.ErrNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleError_Validation(t *testing.T) {
	rec := httptest.NewRecorder()

	HandleError(rec, domain.NewValidationError("email", "email is required"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestHandleError_Internal(t *testing.T) {
	rec := httptest.NewRecorder()

	HandleError(rec, errors.New("connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
}
