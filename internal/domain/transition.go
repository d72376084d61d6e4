package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingAction string

const (
	ActionCreate  BookingAction = "create"
	ActionConfirm BookingAction = "confirm"
	ActionDecline BookingAction = "decline"
	ActionCancel  BookingAction = "cancel"
	ActionStart   BookingAction = "start"
	ActionEnd     BookingAction = "end"
	ActionExpire  BookingAction = "expire"
	ActionDelete  BookingAction = "delete"
)

// transitions is the whole lifecycle graph. Anything not listed is refused.
var transitions = map[BookingStatus]map[BookingAction]BookingStatus{
	BookingStatusPending: {
		ActionConfirm: BookingStatusConfirmed,
		ActionDecline: BookingStatusDeclined,
		ActionCancel:  BookingStatusCanceled,
		ActionExpire:  BookingStatusExpired,
	},
	BookingStatusConfirmed: {
		ActionStart:  BookingStatusActive,
		ActionCancel: BookingStatusCanceled,
	},
	BookingStatusActive: {
		ActionEnd:    BookingStatusCompleted,
		ActionCancel: BookingStatusCanceled,
	},
}

// NextStatus returns the status reached by applying action to from.
func NextStatus(from BookingStatus, action BookingAction) (BookingStatus, error) {
	to, ok := transitions[from][action]
	if !ok {
		return "", &TransitionError{From: from, Action: action}
	}
	return to, nil
}

// AllowedActions lists the actions that may be requested from a status.
func AllowedActions(from BookingStatus) []BookingAction {
	actions := make([]BookingAction, 0, len(transitions[from]))
	for _, a := range []BookingAction{ActionConfirm, ActionDecline, ActionCancel, ActionStart, ActionEnd, ActionExpire} {
		if _, ok := transitions[from][a]; ok {
			actions = append(actions, a)
		}
	}
	return actions
}

func IsTransitionAction(a BookingAction) bool {
	switch a {
	case ActionConfirm, ActionDecline, ActionCancel, ActionStart, ActionEnd, ActionExpire:
		return true
	}
	return false
}

// BookingTransitionCommand is the single input of the state machine.
type BookingTransitionCommand struct {
	TenantID  uuid.UUID         `validate:"required"`
	BookingID uuid.UUID         `validate:"required"`
	UserID    uuid.UUID         `validate:"required"`
	Action    BookingAction     `validate:"required"`
	Payload   TransitionPayload `validate:"-"`
}

type TransitionPayload struct {
	Reason       string        `json:"reason" validate:"max=500"`
	ApplyLateFee bool          `json:"apply_late_fee"`
	Payment      *PaymentInput `json:"payment,omitempty"`
	Refund       *RefundInput  `json:"refund,omitempty"`
}

// PaymentInput is money taken alongside a transition (deposit on confirm,
// balance on start or end).
type PaymentInput struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" validate:"required,max=50"`
	Reference string          `json:"reference" validate:"max=200"`
}

type RefundInput struct {
	Amount    decimal.Decimal `json:"amount"`
	PaymentID *uuid.UUID      `json:"payment_id,omitempty"`
	Reason    string          `json:"reason" validate:"max=500"`
}

type TransitionResult struct {
	Status  BookingStatus `json:"status"`
	Booking *Booking      `json:"booking"`
}
