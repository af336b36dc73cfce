package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kaisan-events/registration-service/internal/config"
	"github.com/kaisan-events/registration-service/internal/domain"
)

func newTestRegistrationService(repo *MockRegistrantRepository) *RegistrationService {
	return NewRegistrationService(repo, testLogger(), config.EventConfig{CodePrefix: "INFLUENCIA2025"})
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Name:        "Asha",
		Email:       "asha@example.com",
		Phone:       "9876543210",
		DateOfBirth: "1995-04-12",
	}
}

func TestRegister_Success(t *testing.T) {
	repo := new(MockRegistrantRepository)
	svc := newTestRegistrationService(repo)

	repo.On("GetByEmailAndDOB", mock.Anything, "asha@example.com", "1995-04-12").Return(nil, domain.ErrNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Registrant")).Return(nil)

	reg, err := svc.Register(context.Background(), validRegisterInput())

	require.NoError(t, err)
	assert.Equal(t, "Asha", reg.Name)
	assert.Equal(t, "asha@example.com", reg.Email)
	assert.Equal(t, domain.PaymentPending, reg.PaymentStatus)
	assert.Equal(t, domain.TicketStandard, reg.TicketType)
	assert.True(t, strings.HasPrefix(reg.ConfirmationCode, "INFLUENCIA2025-"))
	assert.Len(t, reg.ConfirmationCode, len("INFLUENCIA2025-")+8)
	repo.AssertExpectations(t)
}

func TestRegister_ExtendedFieldsTakePrecedence(t *testing.T) {
	repo := new(MockRegistrantRepository)
	svc := newTestRegistrationService(repo)

	input := validRegisterInput()
	input.FullName = "Asha Nair"
	input.ContactNumber = "+91 98765 43210"

	repo.On("GetByEmailAndDOB", mock.Anything, "asha@example.com", "1995-04-12").Return(nil, domain.ErrNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Registrant")).Return(nil)

	reg, err := svc.Register(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "Asha Nair", reg.DisplayName())
	assert.Equal(t, "+91 98765 43210", reg.ContactPhone())
}

func TestRegister_EmailNormalized(t *testing.T) {
	repo := new(MockRegistrantRepository)
	svc := newTestRegistrationService(repo)

	input := validRegisterInput()
	input.Email = "  Asha@Example.COM "

	repo.On("GetByEmailAndDOB", mock.Anything, "asha@example.com", "1995-04-12").Return(nil, domain.ErrNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Registrant")).Return(nil)

	reg, err := svc.Register(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", reg.Email)
}

func TestRegister_ValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterInput)
		field  string
	}{
		{"missing name", func(in *RegisterInput) { in.Name = "" }, "name"},
		{"missing email", func(in *RegisterInput) { in.Email = "" }, "email"},
		{"malformed email", func(in *RegisterInput) { in.Email = "not-an-email" }, "email"},
		{"missing phone", func(in *RegisterInput) { in.Phone = "" }, "phone"},
		{"missing dob", func(in *RegisterInput) { in.DateOfBirth = "" }, "date_of_birth"},
		{"bad ticket type", func(in *RegisterInput) { in.TicketType = "backstage" }, "ticket_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRegistrantRepository)
			svc := newTestRegistrationService(repo)

			input := validRegisterInput()
			tt.mutate(&input)

			_, err := svc.Register(context.Background(), input)

			var verr domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			repo.AssertNotCalled(t, "Create")
		})
	}
}

func TestRegister_DuplicatePair(t *testing.T) {
	repo := new(MockRegistrantRepository)
	svc := newTestRegistrationService(repo)

	existing := testRegistrant(uuid.New())
	repo.On("GetByEmailAndDOB", mock.Anything, "asha@example.com", "1995-04-12").Return(existing, nil)
	repo.On("CountByEmail", mock.Anything, "asha@example.com").Return(int64(3), nil)

	_, err := svc.Register(context.Background(), validRegisterInput())

	var dup domain.DuplicateRegistrationError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, int64(3), dup.EmailCount)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	repo.AssertNotCalled(t, "Create")
}

func TestRegister_SameEmailDifferentDOB(t *testing.T) {
	repo := new(MockRegistrantRepository)
	svc := newTestRegistrationService(repo)

	repo.On("GetByEmailAndDOB", mock.Anything, "asha@example.com", "2001-09-30").Return(nil, domain.ErrNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Registrant")).Return(nil)

	input := validRegisterInput()
	input.DateOfBirth = "2001-09-30"

	_, err := svc.Register(context.Background(), input)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRegister_StorageRace(t *testing.T) {
	repo := new(MockRegistrantRepository)
	svc := newTestRegistrationService(repo)

	repo.On("GetByEmailAndDOB", mock.Anything, "asha@example.com", "1995-04-12").Return(nil, domain.ErrNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Registrant")).Return(domain.ErrAlreadyExists)
	repo.On("CountByEmail", mock.Anything, "asha@example.com").Return(int64(1), nil)

	_, err := svc.Register(context.Background(), validRegisterInput())

	var dup domain.DuplicateRegistrationError
	require.ErrorAs(t, err, &dup)
}

func TestRegister_LookupError(t *testing.T) {
	repo := new(MockRegistrantRepository)
	svc := newTestRegistrationService(repo)

	repo.On("GetByEmailAndDOB", mock.Anything, "asha@example.com", "1995-04-12").Return(nil, errors.New("connection refused"))

	_, err := svc.Register(context.Background(), validRegisterInput())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestUpdatePaymentStatus_InvalidStatus(t *testing.T) {
	repo := new(MockRegistrantRepository)
	svc := newTestRegistrationService(repo)

	err := svc.UpdatePaymentStatus(context.Background(), uuid.New(), "refunded")

	var verr domain.ValidationError
	require.ErrorAs(t, err, &verr)
	repo.AssertNotCalled(t, "UpdatePaymentStatus")
}

func TestUpdatePaymentStatus_Valid(t *testing.T) {
	repo := new(MockRegistrantRepository)
	svc := newTestRegistrationService(repo)

	id := uuid.New()
	repo.On("UpdatePaymentStatus", mock.Anything, id, domain.PaymentConfirmed).Return(nil)

	err := svc.UpdatePaymentStatus(context.Background(), id, domain.PaymentConfirmed)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}
