package handler

import (
	"context"
	"encoding/base64"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kaisan-events/registration-service/internal/browser"
	"github.com/kaisan-events/registration-service/internal/domain"
)

// Dispatcher performs reminder dispatches. Satisfied by service.DispatchService.
type Dispatcher interface {
	Dispatch(ctx context.Context, req domain.DispatchRequest) domain.DispatchOutcome
	CheckLogin(ctx context.Context) (browser.AuthState, error)
	ListAttempts(ctx context.Context, filter domain.DispatchLogFilter) (*domain.DispatchLogResult, error)
}

// DispatchHandler handles reminder dispatch HTTP requests
type DispatchHandler struct {
	dispatcher Dispatcher
	metrics    *Metrics
	validate   *validator.Validate
}

// NewDispatchHandler creates a new DispatchHandler
func NewDispatchHandler(dispatcher Dispatcher, metrics *Metrics) *DispatchHandler {
	return &DispatchHandler{
		dispatcher: dispatcher,
		metrics:    metrics,
		validate:   validator.New(),
	}
}

// RegisterRoutes registers dispatch routes
func (h *DispatchHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Send)
	r.Get("/login-check", h.LoginCheck)
	r.Get("/log", h.ListAttempts)
}

// SendReminderRequest selects the registrant and template for one dispatch
type SendReminderRequest struct {
	RegistrantID string `json:"registrant_id" validate:"required,uuid"`
	Kind         string `json:"kind" validate:"required"`
}

// Send dispatches one reminder and reports the outcome.
//
// Status mapping: sent is 200; a required QR scan is 401 with the QR image
// inline so the operator can re-link and retry; unknown registrant is 404;
// other permanent failures are 400; transient failures are 502 and safe to
// retry as-is.
func (h *DispatchHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req SendReminderRequest
	if err := DecodeJSON(r, &req); err != nil {
		HandleError(w, err)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	registrantID, err := uuid.Parse(req.RegistrantID)
	if err != nil {
		JSONError(w, http.StatusBadRequest, "INVALID_ID", "Invalid registrant ID", nil)
		return
	}

	kind := domain.NotificationKind(req.Kind)
	if !kind.IsValid() {
		JSONError(w, http.StatusBadRequest, "UNKNOWN_KIND", "Unknown notification kind", nil)
		return
	}

	start := time.Now()
	outcome := h.dispatcher.Dispatch(r.Context(), domain.DispatchRequest{
		RegistrantID: registrantID,
		Kind:         kind,
	})
	if h.metrics != nil {
		h.metrics.RecordDispatch(kind, outcome, time.Since(start))
	}

	switch outcome.Status {
	case domain.OutcomeSent:
		JSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"message": "reminder sent",
		})

	case domain.OutcomeAuthRequired:
		JSONError(w, http.StatusUnauthorized, "AUTHENTICATION_REQUIRED",
			"WhatsApp session is not linked, scan the QR code and retry", map[string]string{
				"qr_code_base64": base64.StdEncoding.EncodeToString(outcome.QRImage),
			})

	case domain.OutcomePermanent:
		if outcome.Reason == domain.ReasonNotFound {
			JSONError(w, http.StatusNotFound, "NOT_FOUND", "Registrant not found", nil)
			return
		}
		JSONError(w, http.StatusBadRequest, "DISPATCH_REJECTED", outcome.Reason, nil)

	default:
		JSONError(w, http.StatusBadGateway, "DISPATCH_FAILED", outcome.Reason, nil)
	}
}

// LoginCheck probes the WhatsApp session state without sending anything
func (h *DispatchHandler) LoginCheck(w http.ResponseWriter, r *http.Request) {
	state, err := h.dispatcher.CheckLogin(r.Context())
	if err != nil {
		JSONError(w, http.StatusBadGateway, "LOGIN_CHECK_FAILED", err.Error(), nil)
		return
	}

	switch state.Status {
	case browser.AuthStatusAuthenticated:
		JSON(w, http.StatusOK, map[string]string{
			"status": "authenticated",
		})
	case browser.AuthStatusNeedsScan:
		JSONError(w, http.StatusUnauthorized, "AUTHENTICATION_REQUIRED",
			"WhatsApp session is not linked", map[string]string{
				"qr_code_base64": base64.StdEncoding.EncodeToString(state.QRImage),
			})
	default:
		JSONError(w, http.StatusBadGateway, "LOGIN_CHECK_FAILED", "session state could not be determined", nil)
	}
}

// ListAttempts lists dispatch audit entries with filters
func (h *DispatchHandler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	filter := domain.DispatchLogFilter{
		Page:     1,
		PageSize: 20,
	}

	if idStr := r.URL.Query().Get("registrant_id"); idStr != "" {
		id, err := uuid.Parse(idStr)
		if err != nil {
			JSONError(w, http.StatusBadRequest, "INVALID_ID", "Invalid registrant ID", nil)
			return
		}
		filter.RegistrantID = &id
	}

	if status := r.URL.Query().Get("status"); status != "" {
		s := domain.OutcomeStatus(status)
		filter.Status = &s
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

	result, err := h.dispatcher.ListAttempts(r.Context(), filter)
	if err != nil {
		HandleError(w, err)
		return
	}

	JSON(w, http.StatusOK, result)
}
