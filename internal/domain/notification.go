package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventBookingCreated   EventType = "booking.created"
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingDeclined  EventType = "booking.declined"
	EventBookingCanceled  EventType = "booking.canceled"
	EventBookingStarted   EventType = "booking.started"
	EventBookingCompleted EventType = "booking.completed"
	EventBookingExpired   EventType = "booking.expired"
)

// EventForAction maps a lifecycle action to the event published after it.
func EventForAction(a BookingAction) EventType {
	switch a {
	case ActionConfirm:
		return EventBookingConfirmed
	case ActionDecline:
		return EventBookingDeclined
	case ActionCancel:
		return EventBookingCanceled
	case ActionStart:
		return EventBookingStarted
	case ActionEnd:
		return EventBookingCompleted
	case ActionExpire:
		return EventBookingExpired
	}
	return EventBookingCreated
}

// Event is a tenant-facing domain event.
type Event struct {
	Type       EventType         `json:"type"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	Attributes map[string]string `json:"attributes"`
	OccurredAt time.Time         `json:"occurred_at"`
}

type Notification struct {
	ID         uuid.UUID         `json:"id"`
	TenantID   uuid.UUID         `json:"tenant_id"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	IsRead     bool              `json:"is_read"`
	Attributes map[string]string `json:"attributes"`
	CreatedAt  time.Time         `json:"created_at"`
}
