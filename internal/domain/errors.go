package domain

import (
	"errors"
	"fmt"
)

// Domain sentinel errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrAlreadyExists     = errors.New("resource already exists")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnknownKind       = errors.New("unknown notification kind")
	ErrInvalidPhone      = errors.New("invalid phone number")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrProfileBusy       = errors.New("browser profile is busy")
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}

// DuplicateRegistrationError is returned when a registration already exists
// for the same (email, date of birth) pair. EmailCount carries how many
// registrations share the email, for the conflict message.
type DuplicateRegistrationError struct {
	Email      string
	EmailCount int64
}

func (e DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("registration already exists for this email and date of birth (registrations with this email: %d)", e.EmailCount)
}

func (e DuplicateRegistrationError) Is(target error) bool {
	return target == ErrAlreadyExists
}
