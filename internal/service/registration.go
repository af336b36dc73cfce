package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/kaisan-events/registration-service/internal/config"
	"github.com/kaisan-events/registration-service/internal/domain"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// RegisterInput carries one registration submission. Name/Phone come from
// the basic form; FullName/ContactNumber from the extended one. Either
// variant of each pair satisfies the requirement.
type RegisterInput struct {
	Name            string   `json:"name"`
	FullName        string   `json:"full_name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	ContactNumber   string   `json:"contact_number"`
	DateOfBirth     string   `json:"date_of_birth"`
	Organization    string   `json:"organization"`
	Business        string   `json:"business"`
	Designation     string   `json:"designation"`
	Gender          string   `json:"gender"`
	Sectors         []string `json:"sectors"`
	Experience      string   `json:"experience"`
	LinkedInProfile string   `json:"linkedin_profile"`
	Address         string   `json:"address"`
	City            string   `json:"city"`
	State           string   `json:"state"`
	Country         string   `json:"country"`
	ReferralCode    string   `json:"referral_code"`
	TicketType      string   `json:"ticket_type"`
}

// RegistrationService manages event registrations
type RegistrationService struct {
	registrants domain.RegistrantRepository
	logger      *slog.Logger
	cfg         config.EventConfig
}

// NewRegistrationService creates a new RegistrationService
func NewRegistrationService(registrants domain.RegistrantRepository, logger *slog.Logger, cfg config.EventConfig) *RegistrationService {
	return &RegistrationService{
		registrants: registrants,
		logger:      logger,
		cfg:         cfg,
	}
}

// Register validates a submission, rejects duplicates over the
// (email, date of birth) pair, and persists the registrant with a freshly
// issued confirmation code.
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (*domain.Registrant, error) {
	name := strings.TrimSpace(input.FullName)
	if name == "" {
		name = strings.TrimSpace(input.Name)
	}
	if name == "" {
		return nil, domain.NewValidationError("name", "name is required")
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, domain.NewValidationError("email", "email is required")
	}
	if !emailPattern.MatchString(email) {
		return nil, domain.NewValidationError("email", "invalid email format")
	}

	phoneNumber := strings.TrimSpace(input.ContactNumber)
	if phoneNumber == "" {
		phoneNumber = strings.TrimSpace(input.Phone)
	}
	if phoneNumber == "" {
		return nil, domain.NewValidationError("phone", "phone number is required")
	}

	dob := strings.TrimSpace(input.DateOfBirth)
	if dob == "" {
		return nil, domain.NewValidationError("date_of_birth", "date of birth is required")
	}

	ticketType := domain.TicketStandard
	if input.TicketType != "" {
		ticketType = domain.TicketType(input.TicketType)
		if !ticketType.IsValid() {
			return nil, domain.NewValidationError("ticket_type", "invalid ticket type")
		}
	}

	// Same email with a different date of birth is allowed: families share
	// email addresses. The storage layer enforces the same pair uniqueness,
	// this pre-check exists to produce the friendlier conflict message.
	existing, err := s.registrants.GetByEmailAndDOB(ctx, email, dob)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing registration: %w", err)
	}
	if existing != nil {
		count, countErr := s.registrants.CountByEmail(ctx, email)
		if countErr != nil {
			count = 1
		}
		return nil, domain.DuplicateRegistrationError{Email: email, EmailCount: count}
	}

	registrant := domain.NewRegistrant(name, email, phoneNumber, dob)
	registrant.FullName = strings.TrimSpace(input.FullName)
	registrant.ContactNumber = strings.TrimSpace(input.ContactNumber)
	registrant.Organization = strings.TrimSpace(input.Organization)
	registrant.Business = strings.TrimSpace(input.Business)
	registrant.Designation = strings.TrimSpace(input.Designation)
	registrant.Gender = strings.TrimSpace(input.Gender)
	registrant.Sectors = input.Sectors
	registrant.Experience = strings.TrimSpace(input.Experience)
	registrant.LinkedInProfile = strings.TrimSpace(input.LinkedInProfile)
	registrant.Address = strings.TrimSpace(input.Address)
	registrant.City = strings.TrimSpace(input.City)
	registrant.State = strings.TrimSpace(input.State)
	registrant.Country = strings.TrimSpace(input.Country)
	registrant.ReferralCode = strings.TrimSpace(input.ReferralCode)
	registrant.TicketType = ticketType
	registrant.ConfirmationCode = s.newConfirmationCode()

	if err := s.registrants.Create(ctx, registrant); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			count, countErr := s.registrants.CountByEmail(ctx, email)
			if countErr != nil {
				count = 1
			}
			return nil, domain.DuplicateRegistrationError{Email: email, EmailCount: count}
		}
		return nil, fmt.Errorf("failed to create registrant: %w", err)
	}

	s.logger.Info("registrant created",
		"registrant_id", registrant.ID,
		"email", registrant.Email,
		"ticket_type", registrant.TicketType,
	)

	return registrant, nil
}

// GetByID retrieves a registrant by ID
func (s *RegistrationService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Registrant, error) {
	return s.registrants.GetByID(ctx, id)
}

// List lists registrants with filters and pagination
func (s *RegistrationService) List(ctx context.Context, filter domain.RegistrantFilter) (*domain.RegistrantListResult, error) {
	return s.registrants.List(ctx, filter)
}

// UpdatePaymentStatus updates a registrant's payment status
func (s *RegistrationService) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) error {
	if !status.IsValid() {
		return domain.NewValidationError("payment_status", "invalid payment status")
	}
	if err := s.registrants.UpdatePaymentStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info("payment status updated", "registrant_id", id, "status", status)
	return nil
}

// newConfirmationCode issues codes like INFLUENCIA2025-9F3A2C41
func (s *RegistrationService) newConfirmationCode() string {
	token := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
	return s.cfg.CodePrefix + "-" + token
}
