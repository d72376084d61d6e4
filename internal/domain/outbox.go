package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxKind string

const (
	OutboxGenerateInvoice   OutboxKind = "generate_invoice"
	OutboxGenerateAgreement OutboxKind = "generate_agreement"
	OutboxConfirmationEmail OutboxKind = "confirmation_email"
	OutboxPublishEvent      OutboxKind = "publish_event"
)

type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "PENDING"
	OutboxStatusDone    OutboxStatus = "DONE"
	OutboxStatusFailed  OutboxStatus = "FAILED"
)

// OutboxEntry is a post-commit effect recorded in the same transaction as
// the change that caused it.
type OutboxEntry struct {
	ID          uuid.UUID       `json:"id"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	BookingID   *uuid.UUID      `json:"booking_id,omitempty"`
	UserID      uuid.UUID       `json:"user_id"`
	Kind        OutboxKind      `json:"kind"`
	Payload     json.RawMessage `json:"payload"`
	Status      OutboxStatus    `json:"status"`
	Attempts    int             `json:"attempts"`
	LastError   string          `json:"last_error,omitempty"`
	AvailableAt time.Time       `json:"available_at"`
	CreatedAt   time.Time       `json:"created_at"`
}
