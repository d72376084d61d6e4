package service

import (
	"context"
	"sync"
	"time"

	"rentflow-backend/internal/domain"
	"rentflow-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockTenantRepo struct {
	mock.Mock
}

func (m *MockTenantRepo) Create(ctx context.Context, tenant *domain.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

type MockVehicleRepo struct {
	mock.Mock
}

func (m *MockVehicleRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Vehicle, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vehicle), args.Error(1)
}

func (m *MockVehicleRepo) SetStatus(ctx context.Context, tenantID, vehicleID uuid.UUID, statusName string) error {
	args := m.Called(ctx, tenantID, vehicleID, statusName)
	return args.Error(0)
}

type MockBookingRepo struct {
	mock.Mock
}

func (m *MockBookingRepo) Create(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepo) GetForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepo) UpdateStatus(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepo) UpdateValues(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepo) List(ctx context.Context, tenantID uuid.UUID, filter domain.BookingFilter) ([]domain.Booking, int32, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]domain.Booking), args.Get(1).(int32), args.Error(2)
}

func (m *MockBookingRepo) ListExpirable(ctx context.Context, cutoff time.Time, after *domain.ExpiryCursor, limit int) ([]domain.Booking, error) {
	args := m.Called(ctx, cutoff, after, limit)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepo) SoftDelete(ctx context.Context, tenantID, id, userID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, tenantID, id, userID, at)
	return args.Error(0)
}

type MockActivityRepo struct {
	mock.Mock
}

func (m *MockActivityRepo) Create(ctx context.Context, activity *domain.BookingActivity) error {
	args := m.Called(ctx, activity)
	return args.Error(0)
}

func (m *MockActivityRepo) ListByBooking(ctx context.Context, tenantID, bookingID uuid.UUID) ([]domain.BookingActivity, error) {
	args := m.Called(ctx, tenantID, bookingID)
	return args.Get(0).([]domain.BookingActivity), args.Error(1)
}

type MockSequenceRepo struct {
	mock.Mock
}

func (m *MockSequenceRepo) Next(ctx context.Context, tenantID uuid.UUID, series domain.Series, scope string) (int64, error) {
	args := m.Called(ctx, tenantID, series, scope)
	return args.Get(0).(int64), args.Error(1)
}

type MockLedgerRepo struct {
	mock.Mock
}

func (m *MockLedgerRepo) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockLedgerRepo) GetTransactionBySource(ctx context.Context, tenantID uuid.UUID, sourceType domain.TransactionType, sourceID uuid.UUID) (*domain.Transaction, error) {
	args := m.Called(ctx, tenantID, sourceType, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepo) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockLedgerRepo) SoftDeleteTransaction(ctx context.Context, tenantID, id, userID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, tenantID, id, userID, at)
	return args.Error(0)
}

func (m *MockLedgerRepo) ListTransactionsByBooking(ctx context.Context, tenantID, bookingID uuid.UUID) ([]domain.Transaction, error) {
	args := m.Called(ctx, tenantID, bookingID)
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepo) ListTenantEntries(ctx context.Context, tenantID uuid.UUID) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepo) Balance(ctx context.Context, tenantID uuid.UUID, bookingID *uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, bookingID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedgerRepo) CreatePayment(ctx context.Context, p *domain.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockLedgerRepo) GetPayment(ctx context.Context, tenantID, id uuid.UUID) (*domain.Payment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockLedgerRepo) UpdatePayment(ctx context.Context, p *domain.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockLedgerRepo) SoftDeletePayment(ctx context.Context, tenantID, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, tenantID, id, at)
	return args.Error(0)
}

func (m *MockLedgerRepo) CreateRefund(ctx context.Context, r *domain.Refund) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockLedgerRepo) GetRefund(ctx context.Context, tenantID, id uuid.UUID) (*domain.Refund, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Refund), args.Error(1)
}

func (m *MockLedgerRepo) UpdateRefund(ctx context.Context, r *domain.Refund) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockLedgerRepo) SoftDeleteRefund(ctx context.Context, tenantID, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, tenantID, id, at)
	return args.Error(0)
}

func (m *MockLedgerRepo) CreateExpense(ctx context.Context, e *domain.Expense) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockLedgerRepo) GetExpense(ctx context.Context, tenantID, id uuid.UUID) (*domain.Expense, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}

func (m *MockLedgerRepo) UpdateExpense(ctx context.Context, e *domain.Expense) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockLedgerRepo) SoftDeleteExpense(ctx context.Context, tenantID, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, tenantID, id, at)
	return args.Error(0)
}

type MockDocumentRepo struct {
	mock.Mock
}

func (m *MockDocumentRepo) GetInvoiceByBooking(ctx context.Context, tenantID, bookingID uuid.UUID) (*domain.Invoice, error) {
	args := m.Called(ctx, tenantID, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockDocumentRepo) CreateInvoice(ctx context.Context, inv *domain.Invoice) (bool, error) {
	args := m.Called(ctx, inv)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentRepo) UpdateInvoiceURL(ctx context.Context, tenantID, bookingID uuid.UUID, url string) error {
	args := m.Called(ctx, tenantID, bookingID, url)
	return args.Error(0)
}

func (m *MockDocumentRepo) GetAgreementByBooking(ctx context.Context, tenantID, bookingID uuid.UUID) (*domain.Agreement, error) {
	args := m.Called(ctx, tenantID, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agreement), args.Error(1)
}

func (m *MockDocumentRepo) CreateAgreement(ctx context.Context, agr *domain.Agreement) (bool, error) {
	args := m.Called(ctx, agr)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentRepo) UpdateAgreementURLs(ctx context.Context, tenantID, bookingID uuid.UUID, url, signableURL string) error {
	args := m.Called(ctx, tenantID, bookingID, url, signableURL)
	return args.Error(0)
}

func (m *MockDocumentRepo) SetSignatureRequest(ctx context.Context, tenantID, bookingID uuid.UUID, requestID string) error {
	args := m.Called(ctx, tenantID, bookingID, requestID)
	return args.Error(0)
}

type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Enqueue(ctx context.Context, entry *domain.OutboxEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockOutboxRepo) ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.OutboxEntry, error) {
	args := m.Called(ctx, now, limit)
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

type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, note *domain.Notification) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

func (m *MockNotificationRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}

func (m *MockNotificationRepo) MarkAsRead(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// mockRepos bundles one mock per repository.
type mockRepos struct {
	tenants       *MockTenantRepo
	vehicles      *MockVehicleRepo
	bookings      *MockBookingRepo
	activities    *MockActivityRepo
	sequences     *MockSequenceRepo
	ledger        *MockLedgerRepo
	documents     *MockDocumentRepo
	outbox        *MockOutboxRepo
	notifications *MockNotificationRepo
}

func newMockRepos() *mockRepos {
	return &mockRepos{
		tenants:       new(MockTenantRepo),
		vehicles:      new(MockVehicleRepo),
		bookings:      new(MockBookingRepo),
		activities:    new(MockActivityRepo),
		sequences:     new(MockSequenceRepo),
		ledger:        new(MockLedgerRepo),
		documents:     new(MockDocumentRepo),
		outbox:        new(MockOutboxRepo),
		notifications: new(MockNotificationRepo),
	}
}

func (m *mockRepos) Repositories() repository.Repositories {
	return repository.Repositories{
		Tenants:       m.tenants,
		Vehicles:      m.vehicles,
		Bookings:      m.bookings,
		Activities:    m.activities,
		Sequences:     m.sequences,
		Ledger:        m.ledger,
		Documents:     m.documents,
		Outbox:        m.outbox,
		Notifications: m.notifications,
	}
}

func (m *mockRepos) AssertExpectations(t mock.TestingT) {
	m.tenants.AssertExpectations(t)
	m.vehicles.AssertExpectations(t)
	m.bookings.AssertExpectations(t)
	m.activities.AssertExpectations(t)
	m.sequences.AssertExpectations(t)
	m.ledger.AssertExpectations(t)
	m.documents.AssertExpectations(t)
	m.outbox.AssertExpectations(t)
	m.notifications.AssertExpectations(t)
}

// fakeTxManager runs fn directly against the mocks and counts commits and
// rollbacks.
type fakeTxManager struct {
	repos *mockRepos
	// override replaces the mocks for the repositories it sets.
	override func(repository.Repositories) repository.Repositories
	// serial runs one unit at a time, like a row lock held to commit.
	serial bool
	unit   sync.Mutex

	mu        sync.Mutex
	commits   int
	rollbacks int
}

func (f *fakeTxManager) WithinTx(ctx context.Context, _ repository.TxOptions, fn func(ctx context.Context, repos repository.Repositories) error) error {
	if f.serial {
		f.unit.Lock()
		defer f.unit.Unlock()
	}
	repos := f.repos.Repositories()
	if f.override != nil {
		repos = f.override(repos)
	}
	err := fn(ctx, repos)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

var fixedNow = time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }
