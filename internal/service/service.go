package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentflow-backend/internal/domain"
	"rentflow-backend/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TenantService interface {
	CreateTenant(ctx context.Context, cmd domain.CreateTenantCommand) (*domain.Tenant, error)
	GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
}

type BookingService interface {
	CreateBooking(ctx context.Context, cmd domain.CreateBookingCommand) (*domain.Booking, error)
	GetBooking(ctx context.Context, tenantID, bookingID uuid.UUID) (*domain.Booking, error)
	ListBookings(ctx context.Context, tenantID uuid.UUID, filter domain.BookingFilter) ([]domain.Booking, int32, error)
	DeleteBooking(ctx context.Context, tenantID, bookingID, userID uuid.UUID) error
	Transition(ctx context.Context, cmd domain.BookingTransitionCommand) (*domain.TransitionResult, error)
	// ExpirePendingBookings expires PENDING bookings whose start date is
	// before cutoff and returns how many were expired.
	ExpirePendingBookings(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

type LedgerService interface {
	RecordPayment(ctx context.Context, cmd domain.RecordPaymentCommand) (*domain.LedgerEntry, error)
	RecordRefund(ctx context.Context, cmd domain.RecordRefundCommand) (*domain.LedgerEntry, error)
	RecordExpense(ctx context.Context, cmd domain.RecordExpenseCommand) (*domain.LedgerEntry, error)
	UpdatePayment(ctx context.Context, id uuid.UUID, cmd domain.RecordPaymentCommand) (*domain.LedgerEntry, error)
	UpdateRefund(ctx context.Context, id uuid.UUID, cmd domain.RecordRefundCommand) (*domain.LedgerEntry, error)
	UpdateExpense(ctx context.Context, id uuid.UUID, cmd domain.RecordExpenseCommand) (*domain.LedgerEntry, error)
	DeletePayment(ctx context.Context, tenantID, id, userID uuid.UUID) error
	DeleteRefund(ctx context.Context, tenantID, id, userID uuid.UUID) error
	DeleteExpense(ctx context.Context, tenantID, id, userID uuid.UUID) error
	GetTenantTransactions(ctx context.Context, tenantID uuid.UUID) ([]domain.LedgerEntry, error)
	GetBalance(ctx context.Context, tenantID uuid.UUID, bookingID *uuid.UUID) (*domain.Balance, error)
}

type DocumentService interface {
	GenerateInvoice(ctx context.Context, tenantID, bookingID, userID uuid.UUID) (*domain.InvoiceResult, error)
	GenerateAgreement(ctx context.Context, tenantID, bookingID, userID uuid.UUID) (*domain.AgreementResult, error)
	RequestAgreementSignature(ctx context.Context, tenantID, bookingID uuid.UUID) (*domain.Agreement, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, tenantID uuid.UUID, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, tenantID, notificationID uuid.UUID) error
}

type EmailService interface {
	SendBookingConfirmation(ctx context.Context, tenant *domain.Tenant, booking *domain.Booking, driver domain.Driver) error
}

// DefaultTxOptions bounds every multi-statement unit the services open.
var DefaultTxOptions = repository.TxOptions{MaxWait: 20 * time.Second, Timeout: 15 * time.Second}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct runs struct tag validation and reports the first failure as
// a domain.ValidationError.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.NewValidationError("", err.Error())
	}
	fe := verrs[0]
	var message string
	switch fe.Tag() {
	case "required":
		message = "is required"
	case "email":
		message = "must be a valid email address"
	case "min":
		message = fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		message = fmt.Sprintf("must not exceed %s", fe.Param())
	case "gtefield":
		message = fmt.Sprintf("must not be before %s", fe.Param())
	default:
		message = fmt.Sprintf("failed on the '%s' tag", fe.Tag())
	}
	return domain.NewValidationError(fe.Namespace(), message)
}

func requirePositive(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.NewValidationError(field, "must be greater than zero")
	}
	return nil
}
