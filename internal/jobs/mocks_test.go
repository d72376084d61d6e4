package jobs

import (
	"context"
	"sync"
	"time"

	"rentflow-backend/internal/domain"
	"rentflow-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

var fixedNow = time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Enqueue(ctx context.Context, entry *domain.OutboxEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockOutboxRepo) ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.OutboxEntry, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OutboxEntry), args.Error(1)
}

func (m *MockOutboxRepo) MarkDone(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) MarkRetry(ctx context.Context, id uuid.UUID, attempts int, lastErr string, availableAt time.Time) error {
	args := m.Called(ctx, id, attempts, lastErr, availableAt)
	return args.Error(0)
}

func (m *MockOutboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string) error {
	args := m.Called(ctx, id, attempts, lastErr)
	return args.Error(0)
}

// MockTenantRepo implements only the reads the worker makes; the embedded
// interface panics on anything else.
type MockTenantRepo struct {
	mock.Mock
	repository.TenantRepository
}

func (m *MockTenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

type MockBookingRepo struct {
	mock.Mock
	repository.BookingRepository
}

func (m *MockBookingRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
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

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendBookingConfirmation(ctx context.Context, tenant *domain.Tenant, booking *domain.Booking, driver domain.Driver) error {
	args := m.Called(ctx, tenant, booking, driver)
	return args.Error(0)
}

type MockSink struct {
	mock.Mock
}

func (m *MockSink) Publish(ctx context.Context, tenantID uuid.UUID, ev domain.Event) error {
	args := m.Called(ctx, tenantID, ev)
	return args.Error(0)
}

// fakeTxManager runs fn directly against repos.
type fakeTxManager struct {
	repos repository.Repositories

	mu        sync.Mutex
	commits   int
	rollbacks int
}

func (f *fakeTxManager) WithinTx(ctx context.Context, _ repository.TxOptions, fn func(ctx context.Context, repos repository.Repositories) error) error {
	err := fn(ctx, f.repos)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

func reposForRunner() repository.Repositories {
	return repository.Repositories{Outbox: new(MockOutboxRepo)}
}
