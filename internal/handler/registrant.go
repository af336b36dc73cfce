package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kaisan-events/registration-service/internal/domain"
	"github.com/kaisan-events/registration-service/internal/service"
)

// RegistrantHandler handles registration HTTP requests
type RegistrantHandler struct {
	service  *service.RegistrationService
	validate *validator.Validate
}

// NewRegistrantHandler creates a new RegistrantHandler
func NewRegistrantHandler(service *service.RegistrationService) *RegistrantHandler {
	return &RegistrantHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers registration routes
func (h *RegistrantHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)
	r.Patch("/{id}/payment", h.UpdatePayment)
}

// CreateRegistrationRequest represents a registration submission. The basic
// form sends name/phone; the extended form sends full_name/contact_number
// plus the profile fields.
type CreateRegistrationRequest struct {
	Name            string   `json:"name"`
	FullName        string   `json:"full_name"`
	Email           string   `json:"email" validate:"required"`
	Phone           string   `json:"phone"`
	ContactNumber   string   `json:"contact_number"`
	DateOfBirth     string   `json:"date_of_birth" validate:"required"`
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
	TicketType      string   `json:"ticket_type" validate:"omitempty,oneof=standard premium vip"`
}

// Create registers a new attendee
func (h *RegistrantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRegistrationRequest
	if err := DecodeJSON(r, &req); err != nil {
		HandleError(w, err)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	registrant, err := h.service.Register(r.Context(), service.RegisterInput{
		Name:            req.Name,
		FullName:        req.FullName,
		Email:           req.Email,
		Phone:           req.Phone,
		ContactNumber:   req.ContactNumber,
		DateOfBirth:     req.DateOfBirth,
		Organization:    req.Organization,
		Business:        req.Business,
		Designation:     req.Designation,
		Gender:          req.Gender,
		Sectors:         req.Sectors,
		Experience:      req.Experience,
		LinkedInProfile: req.LinkedInProfile,
		Address:         req.Address,
		City:            req.City,
		State:           req.State,
		Country:         req.Country,
		ReferralCode:    req.ReferralCode,
		TicketType:      req.TicketType,
	})
	if err != nil {
		HandleError(w, err)
		return
	}

	JSON(w, http.StatusCreated, registrant)
}

// GetByID retrieves a registrant by ID
func (h *RegistrantHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		JSONError(w, http.StatusBadRequest, "INVALID_ID", "Invalid registrant ID", nil)
		return
	}

	registrant, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		HandleError(w, err)
		return
	}

	JSON(w, http.StatusOK, registrant)
}

// List lists registrants with filters
func (h *RegistrantHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.RegistrantFilter{
		Page:     1,
		PageSize: 20,
	}

	if status := r.URL.Query().Get("payment_status"); status != "" {
		s := domain.PaymentStatus(status)
		if !s.IsValid() {
			JSONError(w, http.StatusBadRequest, "INVALID_PAYMENT_STATUS", "Invalid payment status", nil)
			return
		}
		filter.PaymentStatus = &s
	}

	if ticket := r.URL.Query().Get("ticket_type"); ticket != "" {
		tt := domain.TicketType(ticket)
		if !tt.IsValid() {
			JSONError(w, http.StatusBadRequest, "INVALID_TICKET_TYPE", "Invalid ticket type", nil)
			return
		}
		filter.TicketType = &tt
	}

	if email := r.URL.Query().Get("email"); email != "" {
		filter.Email = &email
	}

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			JSONError(w, http.StatusBadRequest, "INVALID_PAGE", "Invalid page number", nil)
			return
		}
		filter.Page = page
	}

	if pageSizeStr := r.URL.Query().Get("page_size"); pageSizeStr != "" {
		pageSize, err := strconv.Atoi(pageSizeStr)
		if err != nil || pageSize < 1 || pageSize > 100 {
			JSONError(w, http.StatusBadRequest, "INVALID_PAGE_SIZE", "Page size must be between 1 and 100", nil)
			return
		}
		filter.PageSize = pageSize
	}

	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		HandleError(w, err)
		return
	}

	JSON(w, http.StatusOK, result)
}

// UpdatePaymentRequest updates a registrant's payment status
type UpdatePaymentRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled"`
}

// UpdatePayment updates the payment status of a registrant
func (h *RegistrantHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		JSONError(w, http.StatusBadRequest, "INVALID_ID", "Invalid registrant ID", nil)
		return
	}

	var req UpdatePaymentRequest
	if err := DecodeJSON(r, &req); err != nil {
		HandleError(w, err)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	if err := h.service.UpdatePaymentStatus(r.Context(), id, domain.PaymentStatus(req.Status)); err != nil {
		HandleError(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]string{
		"message": "Payment status updated",
	})
}
