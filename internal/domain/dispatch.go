package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NotificationKind selects the reminder template for a dispatch
type NotificationKind string

const (
	KindInitial        NotificationKind = "initial"
	KindFollowUp       NotificationKind = "followUp"
	KindFinalWarning   NotificationKind = "finalWarning"
	KindConfirmed      NotificationKind = "confirmed"
	KindTwoDayReminder NotificationKind = "twoDayReminder"
)

func (k NotificationKind) IsValid() bool {
	switch k {
	case KindInitial, KindFollowUp, KindFinalWarning, KindConfirmed, KindTwoDayReminder:
		return true
	}
	return false
}

// DispatchRequest identifies one reminder to send. Immutable per attempt.
type DispatchRequest struct {
	RegistrantID uuid.UUID
	Kind         NotificationKind
}

// OutcomeStatus classifies the result of a dispatch attempt
type OutcomeStatus string

const (
	OutcomeSent OutcomeStatus = "sent"
	// OutcomeAuthRequired is a recoverable state, not a failure: the
	// operator scans the QR image and the caller retries the same request.
	OutcomeAuthRequired OutcomeStatus = "authentication_required"
	OutcomeTransient    OutcomeStatus = "transient_failure"
	OutcomePermanent    OutcomeStatus = "permanent_failure"
)

// Well-known outcome reasons the result reporter switches on
const (
	ReasonNotFound     = "registrant not found"
	ReasonInvalidPhone = "invalid phone"
	ReasonInvalidKind  = "invalid message type"
	ReasonLoadTimeout  = "load timeout"
	ReasonCancelled    = "cancelled"
)

// DispatchOutcome is the single result of one dispatch attempt. Exactly one
// of the constructors below produces it; QRImage is set only for
// OutcomeAuthRequired.
type DispatchOutcome struct {
	Status  OutcomeStatus
	Reason  string
	QRImage []byte
}

func SentOutcome() DispatchOutcome {
	return DispatchOutcome{Status: OutcomeSent}
}

func AuthRequiredOutcome(qrImage []byte) DispatchOutcome {
	return DispatchOutcome{Status: OutcomeAuthRequired, QRImage: qrImage}
}

func TransientOutcome(reason string) DispatchOutcome {
	return DispatchOutcome{Status: OutcomeTransient, Reason: reason}
}

func PermanentOutcome(reason string) DispatchOutcome {
	return DispatchOutcome{Status: OutcomePermanent, Reason: reason}
}

// DispatchAttempt is the persisted audit record of one dispatch attempt
type DispatchAttempt struct {
	ID           uuid.UUID        `json:"id"`
	RegistrantID uuid.UUID        `json:"registrant_id"`
	Kind         NotificationKind `json:"kind"`
	Phone        string           `json:"phone,omitempty"`
	Status       OutcomeStatus    `json:"status"`
	Reason       string           `json:"reason,omitempty"`
	DurationMS   int64            `json:"duration_ms"`
	CreatedAt    time.Time        `json:"created_at"`
}

type DispatchLogFilter struct {
	RegistrantID *uuid.UUID
	Status       *OutcomeStatus
	Page         int
	PageSize     int
}

type DispatchLogResult struct {
	Attempts []*DispatchAttempt `json:"attempts"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// DispatchLogRepository persists dispatch attempt records
type DispatchLogRepository interface {
	Create(ctx context.Context, attempt *DispatchAttempt) error
	List(ctx context.Context, filter DispatchLogFilter) (*DispatchLogResult, error)
}
