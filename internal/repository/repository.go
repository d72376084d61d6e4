package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rentflow-backend/internal/domain"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *domain.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
}

type VehicleRepository interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Vehicle, error)
	// SetStatus points the vehicle at the tenant's status record with the given name.
	SetStatus(ctx context.Context, tenantID, vehicleID uuid.UUID, statusName string) error
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Booking, error)
	// GetForUpdate loads the booking and holds its row lock until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, booking *domain.Booking) error
	UpdateValues(ctx context.Context, booking *domain.Booking) error
	List(ctx context.Context, tenantID uuid.UUID, filter domain.BookingFilter) ([]domain.Booking, int32, error)
	// ListExpirable pages PENDING bookings starting before cutoff in
	// (start_date, id) order, resuming after the cursor when one is given.
	ListExpirable(ctx context.Context, cutoff time.Time, after *domain.ExpiryCursor, limit int) ([]domain.Booking, error)
	SoftDelete(ctx context.Context, tenantID, id, userID uuid.UUID, at time.Time) error
}

type ActivityRepository interface {
	Create(ctx context.Context, activity *domain.BookingActivity) error
	ListByBooking(ctx context.Context, tenantID, bookingID uuid.UUID) ([]domain.BookingActivity, error)
}

type SequenceRepository interface {
	// Next atomically increments (tenant, series, scope) and returns the new
	// value, seeding at 1. The row stays locked until the caller's
	// transaction ends.
	Next(ctx context.Context, tenantID uuid.UUID, series domain.Series, scope string) (int64, error)
}

type LedgerRepository interface {
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	GetTransactionBySource(ctx context.Context, tenantID uuid.UUID, sourceType domain.TransactionType, sourceID uuid.UUID) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *domain.Transaction) error
	SoftDeleteTransaction(ctx context.Context, tenantID, id, userID uuid.UUID, at time.Time) error
	ListTransactionsByBooking(ctx context.Context, tenantID, bookingID uuid.UUID) ([]domain.Transaction, error)
	ListTenantEntries(ctx context.Context, tenantID uuid.UUID) ([]domain.LedgerEntry, error)
	Balance(ctx context.Context, tenantID uuid.UUID, bookingID *uuid.UUID) (decimal.Decimal, error)

	CreatePayment(ctx context.Context, p *domain.Payment) error
	GetPayment(ctx context.Context, tenantID, id uuid.UUID) (*domain.Payment, error)
	UpdatePayment(ctx context.Context, p *domain.Payment) error
	SoftDeletePayment(ctx context.Context, tenantID, id uuid.UUID, at time.Time) error

	CreateRefund(ctx context.Context, r *domain.Refund) error
	GetRefund(ctx context.Context, tenantID, id uuid.UUID) (*domain.Refund, error)
	UpdateRefund(ctx context.Context, r *domain.Refund) error
	SoftDeleteRefund(ctx context.Context, tenantID, id uuid.UUID, at time.Time) error

	CreateExpense(ctx context.Context, e *domain.Expense) error
	GetExpense(ctx context.Context, tenantID, id uuid.UUID) (*domain.Expense, error)
	UpdateExpense(ctx context.Context, e *domain.Expense) error
	SoftDeleteExpense(ctx context.Context, tenantID, id uuid.UUID, at time.Time) error
}

type DocumentRepository interface {
	GetInvoiceByBooking(ctx context.Context, tenantID, bookingID uuid.UUID) (*domain.Invoice, error)
	// CreateInvoice inserts the row unless the booking already has one, and
	// reports whether it inserted.
	CreateInvoice(ctx context.Context, inv *domain.Invoice) (bool, error)
	UpdateInvoiceURL(ctx context.Context, tenantID, bookingID uuid.UUID, url string) error

	GetAgreementByBooking(ctx context.Context, tenantID, bookingID uuid.UUID) (*domain.Agreement, error)
	CreateAgreement(ctx context.Context, agr *domain.Agreement) (bool, error)
	UpdateAgreementURLs(ctx context.Context, tenantID, bookingID uuid.UUID, url, signableURL string) error
	SetSignatureRequest(ctx context.Context, tenantID, bookingID uuid.UUID, requestID string) error
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, entry *domain.OutboxEntry) error
	// ClaimDue locks up to limit due entries, skipping rows other workers hold.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.OutboxEntry, error)
	MarkDone(ctx context.Context, id uuid.UUID) error
	MarkRetry(ctx context.Context, id uuid.UUID, attempts int, lastErr string, availableAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string) error
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, tenantID, id uuid.UUID) error
}

// Repositories is one consistent set of repositories, bound either to the
// connection pool or to a single open transaction.
type Repositories struct {
	Tenants       TenantRepository
	Vehicles      VehicleRepository
	Bookings      BookingRepository
	Activities    ActivityRepository
	Sequences     SequenceRepository
	Ledger        LedgerRepository
	Documents     DocumentRepository
	Outbox        OutboxRepository
	Notifications NotificationRepository
}

// TxOptions bounds a multi-statement unit of work.
type TxOptions struct {
	// MaxWait bounds how long to wait for a connection.
	MaxWait time.Duration
	// Timeout bounds the transaction body.
	Timeout time.Duration
}

// TxManager runs fn inside one transaction. fn's error, a panic, or a
// timeout rolls everything back.
type TxManager interface {
	WithinTx(ctx context.Context, opts TxOptions, fn func(ctx context.Context, repos Repositories) error) error
}
