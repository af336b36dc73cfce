package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the payment state of a registration
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
	PaymentCancelled PaymentStatus = "cancelled"
)

func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentPending, PaymentConfirmed, PaymentCancelled:
		return true
	}
	return false
}

type TicketType string

const (
	TicketStandard TicketType = "standard"
	TicketPremium  TicketType = "premium"
	TicketVIP      TicketType = "vip"
)

func (t TicketType) IsValid() bool {
	switch t {
	case TicketStandard, TicketPremium, TicketVIP:
		return true
	}
	return false
}

// Registrant represents an event registration record.
//
// Name/Phone are the fields collected by the basic form; FullName and
// ContactNumber come from the extended form and take precedence when set.
type Registrant struct {
	ID               uuid.UUID     `json:"id"`
	Name             string        `json:"name"`
	Email            string        `json:"email"`
	Phone            string        `json:"phone"`
	FullName         string        `json:"full_name,omitempty"`
	ContactNumber    string        `json:"contact_number,omitempty"`
	Organization     string        `json:"organization,omitempty"`
	Business         string        `json:"business,omitempty"`
	Designation      string        `json:"designation,omitempty"`
	Gender           string        `json:"gender,omitempty"`
	Sectors          []string      `json:"sectors,omitempty"`
	Experience       string        `json:"experience,omitempty"`
	DateOfBirth      string        `json:"date_of_birth"`
	LinkedInProfile  string        `json:"linkedin_profile,omitempty"`
	Address          string        `json:"address,omitempty"`
	City             string        `json:"city,omitempty"`
	State            string        `json:"state,omitempty"`
	Country          string        `json:"country,omitempty"`
	ReferralCode     string        `json:"referral_code,omitempty"`
	TicketType       TicketType    `json:"ticket_type"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	ConfirmationCode string        `json:"confirmation_code"`
	Attended         bool          `json:"attended"`
	CheckInTime      *time.Time    `json:"check_in_time,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// NewRegistrant creates a registrant with the required basic fields
func NewRegistrant(name, email, phone, dateOfBirth string) *Registrant {
	now := time.Now().UTC()
	return &Registrant{
		ID:            uuid.New(),
		Name:          name,
		Email:         email,
		Phone:         phone,
		DateOfBirth:   dateOfBirth,
		TicketType:    TicketStandard,
		PaymentStatus: PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// DisplayName returns the extended full name when present, else the basic
// name. An empty result means neither field was filled in.
func (r *Registrant) DisplayName() string {
	if r.FullName != "" {
		return r.FullName
	}
	return r.Name
}

// ContactPhone returns the extended contact number when present, else the
// basic phone field.
func (r *Registrant) ContactPhone() string {
	if r.ContactNumber != "" {
		return r.ContactNumber
	}
	return r.Phone
}

// MarkAttended records check-in
func (r *Registrant) MarkAttended() {
	now := time.Now().UTC()
	r.Attended = true
	r.CheckInTime = &now
	r.UpdatedAt = now
}

type RegistrantFilter struct {
	PaymentStatus *PaymentStatus
	TicketType    *TicketType
	Email         *string
	Page          int
	PageSize      int
}

type RegistrantListResult struct {
	Registrants []*Registrant `json:"registrants"`
	Total       int64         `json:"total"`
	Page        int           `json:"page"`
	PageSize    int           `json:"page_size"`
	TotalPages  int           `json:"total_pages"`
}

// RegistrantRepository defines the interface for registrant persistence.
// Uniqueness over (email, date_of_birth) is enforced at the storage layer.
type RegistrantRepository interface {
	Create(ctx context.Context, registrant *Registrant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Registrant, error)
	GetByEmailAndDOB(ctx context.Context, email, dateOfBirth string) (*Registrant, error)
	CountByEmail(ctx context.Context, email string) (int64, error)
	List(ctx context.Context, filter RegistrantFilter) (*RegistrantListResult, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) error
}
