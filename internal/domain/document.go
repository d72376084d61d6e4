package domain

import (
	"time"

	"github.com/google/uuid"
)

type Invoice struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	BookingID uuid.UUID `json:"booking_id"`
	Number    string    `json:"invoice_number"`
	URL       string    `json:"url"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Agreement struct {
	ID                 uuid.UUID `json:"id"`
	TenantID           uuid.UUID `json:"tenant_id"`
	BookingID          uuid.UUID `json:"booking_id"`
	Number             string    `json:"agreement_number"`
	URL                string    `json:"url"`
	SignableURL        string    `json:"signable_url"`
	SignatureRequestID string    `json:"signature_request_id,omitempty"`
	CreatedBy          uuid.UUID `json:"created_by"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type InvoiceResult struct {
	InvoiceNumber string `json:"invoice_number"`
	URL           string `json:"url"`
}

type AgreementResult struct {
	AgreementNumber string `json:"agreement_number"`
	URL             string `json:"url"`
	SignableURL     string `json:"signable_url"`
}

// RenderStatus is what the external renderer reports for a job.
type RenderStatus string

const (
	RenderStatusPending RenderStatus = "pending"
	RenderStatusSuccess RenderStatus = "success"
	RenderStatusFailure RenderStatus = "failure"
)

// RenderPayload is the booking snapshot handed to the document renderer.
type RenderPayload struct {
	DocumentNumber string         `json:"document_number"`
	IssuedAt       time.Time      `json:"issued_at"`
	Tenant         RenderTenant   `json:"tenant"`
	Booking        *Booking       `json:"booking"`
	PrimaryDriver  Driver         `json:"primary_driver"`
	Vehicle        *Vehicle       `json:"vehicle,omitempty"`
	Extra          map[string]any `json:"extra,omitempty"`
}

type RenderTenant struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	Email    string `json:"email"`
	Currency string `json:"currency"`
}
