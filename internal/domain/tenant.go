package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultInvoicePrefixTemplate   = "INV-{year}{month}-"
	DefaultAgreementPrefixTemplate = "AGR-"
)

type Tenant struct {
	ID                      uuid.UUID `json:"id"`
	Code                    string    `json:"code"`
	Name                    string    `json:"name"`
	Email                   string    `json:"email"`
	Currency                string    `json:"currency"`
	InvoicePrefixTemplate   string    `json:"invoice_prefix_template"`
	AgreementPrefixTemplate string    `json:"agreement_prefix_template"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

type CreateTenantCommand struct {
	Name                    string `json:"name" validate:"required,max=200"`
	Email                   string `json:"email" validate:"required,email"`
	Currency                string `json:"currency" validate:"omitempty,len=3"`
	InvoicePrefixTemplate   string `json:"invoice_prefix_template" validate:"max=50"`
	AgreementPrefixTemplate string `json:"agreement_prefix_template" validate:"max=50"`
}
