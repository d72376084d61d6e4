package http

import (
	"context"
	"time"

	"rentflow-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockTenantService struct {
	mock.Mock
}

func (m *MockTenantService) CreateTenant(ctx context.Context, cmd domain.CreateTenantCommand) (*domain.Tenant, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

func (m *MockTenantService) GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) CreateBooking(ctx context.Context, cmd domain.CreateBookingCommand) (*domain.Booking, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingService) GetBooking(ctx context.Context, tenantID, bookingID uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, tenantID, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingService) ListBookings(ctx context.Context, tenantID uuid.UUID, filter domain.BookingFilter) ([]domain.Booking, int32, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]domain.Booking), args.Get(1).(int32), args.Error(2)
}

func (m *MockBookingService) DeleteBooking(ctx context.Context, tenantID, bookingID, userID uuid.UUID) error {
	args := m.Called(ctx, tenantID, bookingID, userID)
	return args.Error(0)
}

func (m *MockBookingService) Transition(ctx context.Context, cmd domain.BookingTransitionCommand) (*domain.TransitionResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransitionResult), args.Error(1)
}

func (m *MockBookingService) ExpirePendingBookings(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	args := m.Called(ctx, cutoff, limit)
	return args.Int(0), args.Error(1)
}

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) entry(args mock.Arguments) (*domain.LedgerEntry, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerService) RecordPayment(ctx context.Context, cmd domain.RecordPaymentCommand) (*domain.LedgerEntry, error) {
	return m.entry(m.Called(ctx, cmd))
}

func (m *MockLedgerService) RecordRefund(ctx context.Context, cmd domain.RecordRefundCommand) (*domain.LedgerEntry, error) {
	return m.entry(m.Called(ctx, cmd))
}

func (m *MockLedgerService) RecordExpense(ctx context.Context, cmd domain.RecordExpenseCommand) (*domain.LedgerEntry, error) {
	return m.entry(m.Called(ctx, cmd))
}

func (m *MockLedgerService) UpdatePayment(ctx context.Context, id uuid.UUID, cmd domain.RecordPaymentCommand) (*domain.LedgerEntry, error) {
	return m.entry(m.Called(ctx, id, cmd))
}

func (m *MockLedgerService) UpdateRefund(ctx context.Context, id uuid.UUID, cmd domain.RecordRefundCommand) (*domain.LedgerEntry, error) {
	return m.entry(m.Called(ctx, id, cmd))
}

func (m *MockLedgerService) UpdateExpense(ctx context.Context, id uuid.UUID, cmd domain.RecordExpenseCommand) (*domain.LedgerEntry, error) {
	return m.entry(m.Called(ctx, id, cmd))
}

func (m *MockLedgerService) DeletePayment(ctx context.Context, tenantID, id, userID uuid.UUID) error {
	return m.Called(ctx, tenantID, id, userID).Error(0)
}

func (m *MockLedgerService) DeleteRefund(ctx context.Context, tenantID, id, userID uuid.UUID) error {
	return m.Called(ctx, tenantID, id, userID).Error(0)
}

func (m *MockLedgerService) DeleteExpense(ctx context.Context, tenantID, id, userID uuid.UUID) error {
	return m.Called(ctx, tenantID, id, userID).Error(0)
}

func (m *MockLedgerService) GetTenantTransactions(ctx context.Context, tenantID uuid.UUID) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerService) GetBalance(ctx context.Context, tenantID uuid.UUID, bookingID *uuid.UUID) (*domain.Balance, error) {
	args := m.Called(ctx, tenantID, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Balance), args.Error(1)
}

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) GenerateInvoice(ctx context.Context, tenantID, bookingID, userID uuid.UUID) (*domain.InvoiceResult, error) {
	args := m.Called(ctx, tenantID, bookingID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceResult), args.Error(1)
}

func (m *MockDocumentService) GenerateAgreement(ctx context.Context, tenantID, bookingID, userID uuid.UUID) (*domain.AgreementResult, error) {
	args := m.Called(ctx, tenantID, bookingID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AgreementResult), args.Error(1)
}

func (m *MockDocumentService) RequestAgreementSignature(ctx context.Context, tenantID, bookingID uuid.UUID) (*domain.Agreement, error) {
	args := m.Called(ctx, tenantID, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agreement), args.Error(1)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) GetNotifications(ctx context.Context, tenantID uuid.UUID, page, pageSize int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, tenantID, page, pageSize)
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}

func (m *MockNotificationService) MarkAsRead(ctx context.Context, tenantID, notificationID uuid.UUID) error {
	return m.Called(ctx, tenantID, notificationID).Error(0)
}

type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, data, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStorage) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
