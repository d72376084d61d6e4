package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypePayment TransactionType = "PAYMENT"
	TransactionTypeRefund  TransactionType = "REFUND"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// SignedAmount applies the ledger sign convention: refunds are money out of
// the tenant, everything else is recorded positive.
func (t TransactionType) SignedAmount(amount decimal.Decimal) decimal.Decimal {
	if t == TransactionTypeRefund {
		return amount.Abs().Neg()
	}
	return amount.Abs()
}

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypePayment, TransactionTypeRefund, TransactionTypeExpense:
		return true
	}
	return false
}

// Transaction mirrors exactly one Payment, Refund or Expense.
type Transaction struct {
	ID        uuid.UUID       `json:"id"`
	TenantID  uuid.UUID       `json:"tenant_id"`
	Type      TransactionType `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Date      time.Time       `json:"date"`
	BookingID *uuid.UUID      `json:"booking_id,omitempty"`
	PaymentID *uuid.UUID      `json:"payment_id,omitempty"`
	RefundID  *uuid.UUID      `json:"refund_id,omitempty"`
	ExpenseID *uuid.UUID      `json:"expense_id,omitempty"`
	CreatedBy uuid.UUID       `json:"created_by"`
	UpdatedBy uuid.UUID       `json:"updated_by"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	State     RecordState     `json:"-"`
}

// SourceID returns the id of the record the transaction mirrors.
func (t *Transaction) SourceID() uuid.UUID {
	switch {
	case t.PaymentID != nil:
		return *t.PaymentID
	case t.RefundID != nil:
		return *t.RefundID
	case t.ExpenseID != nil:
		return *t.ExpenseID
	}
	return uuid.Nil
}

// SetSource points the transaction at its source, clearing the other two.
func (t *Transaction) SetSource(sourceType TransactionType, id uuid.UUID) {
	t.PaymentID, t.RefundID, t.ExpenseID = nil, nil, nil
	switch sourceType {
	case TransactionTypePayment:
		t.PaymentID = &id
	case TransactionTypeRefund:
		t.RefundID = &id
	case TransactionTypeExpense:
		t.ExpenseID = &id
	}
}

type Payment struct {
	ID         uuid.UUID       `json:"id"`
	TenantID   uuid.UUID       `json:"tenant_id"`
	BookingID  *uuid.UUID      `json:"booking_id,omitempty"`
	CustomerID *uuid.UUID      `json:"customer_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	Reference  string          `json:"reference"`
	Date       time.Time       `json:"date"`
	CreatedBy  uuid.UUID       `json:"created_by"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	State      RecordState     `json:"-"`
}

type Refund struct {
	ID        uuid.UUID       `json:"id"`
	TenantID  uuid.UUID       `json:"tenant_id"`
	BookingID *uuid.UUID      `json:"booking_id,omitempty"`
	PaymentID *uuid.UUID      `json:"payment_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason"`
	Date      time.Time       `json:"date"`
	CreatedBy uuid.UUID       `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	State     RecordState     `json:"-"`
}

type Expense struct {
	ID          uuid.UUID       `json:"id"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	BookingID   *uuid.UUID      `json:"booking_id,omitempty"`
	VehicleID   *uuid.UUID      `json:"vehicle_id,omitempty"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	CreatedBy   uuid.UUID       `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	State       RecordState     `json:"-"`
}

// LedgerEntry is a transaction joined to its concrete source and, when the
// source is attributed to one, the affected booking.
type LedgerEntry struct {
	Transaction Transaction `json:"transaction"`
	Payment     *Payment    `json:"payment,omitempty"`
	Refund      *Refund     `json:"refund,omitempty"`
	Expense     *Expense    `json:"expense,omitempty"`
	BookingCode string      `json:"booking_code,omitempty"`
}

// LedgerEntryInput describes one side of a source/transaction pair.
type LedgerEntryInput struct {
	SourceType TransactionType
	SourceID   uuid.UUID
	Amount     decimal.Decimal
	Date       time.Time
	TenantID   uuid.UUID
	UserID     uuid.UUID
	BookingID  *uuid.UUID
}

// Record* commands are what callers submit to the ledger service.

type RecordPaymentCommand struct {
	TenantID   uuid.UUID       `json:"-" validate:"required"`
	UserID     uuid.UUID       `json:"-" validate:"required"`
	BookingID  *uuid.UUID      `json:"booking_id,omitempty"`
	CustomerID *uuid.UUID      `json:"customer_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method" validate:"required,max=50"`
	Reference  string          `json:"reference" validate:"max=200"`
	Date       time.Time       `json:"date"`
}

type RecordRefundCommand struct {
	TenantID  uuid.UUID       `json:"-" validate:"required"`
	UserID    uuid.UUID       `json:"-" validate:"required"`
	BookingID *uuid.UUID      `json:"booking_id,omitempty"`
	PaymentID *uuid.UUID      `json:"payment_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason" validate:"max=500"`
	Date      time.Time       `json:"date"`
}

type RecordExpenseCommand struct {
	TenantID    uuid.UUID       `json:"-" validate:"required"`
	UserID      uuid.UUID       `json:"-" validate:"required"`
	BookingID   *uuid.UUID      `json:"booking_id,omitempty"`
	VehicleID   *uuid.UUID      `json:"vehicle_id,omitempty"`
	Category    string          `json:"category" validate:"required,max=100"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"max=1000"`
	Date        time.Time       `json:"date"`
}

// Balance is the signed sum of live transactions, for a tenant or one booking.
type Balance struct {
	TenantID  uuid.UUID       `json:"tenant_id"`
	BookingID *uuid.UUID      `json:"booking_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
}
