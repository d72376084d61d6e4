package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"rentflow-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestBookingService(opts ...BookingOption) (BookingService, *mockRepos, *fakeTxManager) {
	repos := newMockRepos()
	txm := &fakeTxManager{repos: repos}
	opts = append([]BookingOption{WithClock(clock)}, opts...)
	svc := NewBookingService(txm, repos.Repositories(), NewSequenceAllocator(), NewLedgerEntries(clock), opts...)
	return svc, repos, txm
}

func testBooking(status domain.BookingStatus) *domain.Booking {
	id := uuid.New()
	return &domain.Booking{
		ID:           id,
		TenantID:     uuid.New(),
		RentalNumber: "000007",
		BookingCode:  "ABC001-000007",
		Status:       status,
		StartDate:    fixedNow.Add(48 * time.Hour),
		EndDate:      fixedNow.Add(96 * time.Hour),
		VehicleID:    uuid.New(),
		Values: domain.Values{
			Total:   decimal.NewFromInt(300),
			LateFee: decimal.NewFromInt(25),
		},
		Drivers: []domain.Driver{
			{ID: uuid.New(), BookingID: id, CustomerID: uuid.New(), Name: "Second", IsPrimary: false},
			{ID: uuid.New(), BookingID: id, CustomerID: uuid.New(), Name: "Main", IsPrimary: true},
		},
		State: domain.Active{},
	}
}

func transitionCmd(b *domain.Booking, action domain.BookingAction) domain.BookingTransitionCommand {
	return domain.BookingTransitionCommand{
		TenantID:  b.TenantID,
		BookingID: b.ID,
		UserID:    uuid.New(),
		Action:    action,
	}
}

func outboxKind(kind domain.OutboxKind) any {
	return mock.MatchedBy(func(e *domain.OutboxEntry) bool { return e.Kind == kind })
}

func TestBookingService_CreateBooking(t *testing.T) {
	ctx := context.Background()
	tenant := &domain.Tenant{ID: uuid.New(), Code: "ABC-001"}
	vehicle := &domain.Vehicle{ID: uuid.New(), TenantID: tenant.ID, DailyRate: decimal.NewFromInt(50), Deposit: decimal.NewFromInt(200)}
	customerID := uuid.New()
	cmd := domain.CreateBookingCommand{
		TenantID:       tenant.ID,
		UserID:         uuid.New(),
		VehicleID:      vehicle.ID,
		StartDate:      time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2024, time.March, 12, 0, 0, 0, 0, time.UTC),
		PickupLocation: "Depot",
		ReturnLocation: "Depot",
		Drivers:        []domain.DriverInput{{CustomerID: customerID, Name: "Ada", IsPrimary: true}},
		Extras:         []domain.ExtraInput{{Name: "Child seat", Quantity: 2, UnitPrice: decimal.NewFromInt(5)}},
	}

	t.Run("first booking gets the first code", func(t *testing.T) {
		svc, repos, txm := newTestBookingService()
		repos.tenants.On("GetByID", ctx, tenant.ID).Return(tenant, nil)
		repos.vehicles.On("GetByID", ctx, tenant.ID, vehicle.ID).Return(vehicle, nil)
		repos.sequences.On("Next", ctx, tenant.ID, domain.SeriesRentalNumber, "").Return(int64(1), nil)
		repos.bookings.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil)
		repos.activities.On("Create", ctx, mock.MatchedBy(func(a *domain.BookingActivity) bool {
			return a.Action == domain.ActionCreate && a.CustomerID == customerID
		})).Return(nil)
		repos.outbox.On("Enqueue", ctx, outboxKind(domain.OutboxPublishEvent)).Return(nil)

		b, err := svc.CreateBooking(ctx, cmd)
		require.NoError(t, err)
		assert.Equal(t, "000001", b.RentalNumber)
		assert.Equal(t, "ABC001-000001", b.BookingCode)
		assert.Equal(t, domain.BookingStatusPending, b.Status)
		assert.Equal(t, 3, b.Values.Days)
		assert.True(t, b.Values.BasePrice.Equal(decimal.NewFromInt(150)))
		assert.True(t, b.Values.ExtrasTotal.Equal(decimal.NewFromInt(10)))
		assert.True(t, b.Values.Total.Equal(decimal.NewFromInt(160)))
		assert.Equal(t, 1, txm.commits)
		repos.AssertExpectations(t)
	})

	t.Run("retries a colliding rental number", func(t *testing.T) {
		svc, repos, txm := newTestBookingService()
		repos.tenants.On("GetByID", ctx, tenant.ID).Return(tenant, nil)
		repos.vehicles.On("GetByID", ctx, tenant.ID, vehicle.ID).Return(vehicle, nil)
		repos.sequences.On("Next", ctx, tenant.ID, domain.SeriesRentalNumber, "").Return(int64(4), nil).Once()
		repos.sequences.On("Next", ctx, tenant.ID, domain.SeriesRentalNumber, "").Return(int64(5), nil).Once()
		repos.bookings.On("Create", ctx, mock.Anything).
			Return(fmt.Errorf("%w: bookings_tenant_rental_number_key", domain.ErrAllocationCollision)).Once()
		repos.bookings.On("Create", ctx, mock.Anything).Return(nil).Once()
		repos.activities.On("Create", ctx, mock.Anything).Return(nil)
		repos.outbox.On("Enqueue", ctx, mock.Anything).Return(nil)

		b, err := svc.CreateBooking(ctx, cmd)
		require.NoError(t, err)
		assert.Equal(t, "ABC001-000005", b.BookingCode)
		assert.Equal(t, 1, txm.rollbacks)
		assert.Equal(t, 1, txm.commits)
	})

	t.Run("requires exactly one primary driver", func(t *testing.T) {
		svc, _, txm := newTestBookingService()
		bad := cmd
		bad.Drivers = []domain.DriverInput{
			{CustomerID: uuid.New(), Name: "A", IsPrimary: true},
			{CustomerID: uuid.New(), Name: "B", IsPrimary: true},
		}
		_, err := svc.CreateBooking(ctx, bad)
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, 0, txm.commits+txm.rollbacks)
	})

	t.Run("end before start", func(t *testing.T) {
		svc, _, _ := newTestBookingService()
		bad := cmd
		bad.EndDate = cmd.StartDate.Add(-24 * time.Hour)
		_, err := svc.CreateBooking(ctx, bad)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "CreateBookingCommand.EndDate", verr.Field)
	})
}

func TestBookingService_Transition_Confirm(t *testing.T) {
	ctx := context.Background()

	t.Run("late confirmation is dated at the start date", func(t *testing.T) {
		svc, repos, txm := newTestBookingService()
		b := testBooking(domain.BookingStatusPending)
		b.StartDate = fixedNow.Add(-24 * time.Hour)
		primary, _ := b.PrimaryDriver()
		cmd := transitionCmd(b, domain.ActionConfirm)

		repos.bookings.On("GetForUpdate", ctx, b.TenantID, b.ID).Return(b, nil)
		repos.bookings.On("UpdateStatus", ctx, b).Return(nil)
		repos.activities.On("Create", ctx, mock.MatchedBy(func(a *domain.BookingActivity) bool {
			return a.Action == domain.ActionConfirm && a.CreatedAt.Equal(b.StartDate) && a.CustomerID == primary.CustomerID
		})).Return(nil)
		for _, kind := range []domain.OutboxKind{domain.OutboxGenerateInvoice, domain.OutboxGenerateAgreement, domain.OutboxConfirmationEmail, domain.OutboxPublishEvent} {
			repos.outbox.On("Enqueue", ctx, outboxKind(kind)).Return(nil).Once()
		}

		res, err := svc.Transition(ctx, cmd)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusConfirmed, res.Status)
		assert.Equal(t, cmd.UserID, res.Booking.UpdatedBy)
		assert.Equal(t, 1, txm.commits)
		repos.AssertExpectations(t)
		repos.vehicles.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("timely confirmation is dated now", func(t *testing.T) {
		svc, repos, _ := newTestBookingService()
		b := testBooking(domain.BookingStatusPending)
		repos.bookings.On("GetForUpdate", ctx, b.TenantID, b.ID).Return(b, nil)
		repos.bookings.On("UpdateStatus", ctx, b).Return(nil)
		repos.activities.On("Create", ctx, mock.MatchedBy(func(a *domain.BookingActivity) bool {
			return a.CreatedAt.Equal(fixedNow)
		})).Return(nil)
		repos.outbox.On("Enqueue", ctx, mock.Anything).Return(nil)

		_, err := svc.Transition(ctx, transitionCmd(b, domain.ActionConfirm))
		require.NoError(t, err)
		repos.activities.AssertExpectations(t)
	})

	t.Run("deposit payment is written to the ledger", func(t *testing.T) {
		svc, repos, _ := newTestBookingService()
		b := testBooking(domain.BookingStatusPending)
		cmd := transitionCmd(b, domain.ActionConfirm)
		cmd.Payload.Payment = &domain.PaymentInput{Amount: decimal.NewFromInt(200), Method: "card"}

		repos.bookings.On("GetForUpdate", ctx, b.TenantID, b.ID).Return(b, nil)
		repos.bookings.On("UpdateStatus", ctx, b).Return(nil)
		repos.activities.On("Create", ctx, mock.Anything).Return(nil)
		repos.ledger.On("CreatePayment", ctx, mock.MatchedBy(func(p *domain.Payment) bool {
			return *p.BookingID == b.ID && p.Amount.Equal(decimal.NewFromInt(200))
		})).Return(nil)
		repos.ledger.On("CreateTransaction", ctx, mock.MatchedBy(func(tx *domain.Transaction) bool {
			return tx.Type == domain.TransactionTypePayment && *tx.BookingID == b.ID
		})).Return(nil)
		repos.outbox.On("Enqueue", ctx, mock.Anything).Return(nil)

		_, err := svc.Transition(ctx, cmd)
		require.NoError(t, err)
		repos.ledger.AssertExpectations(t)
	})
}

func TestBookingService_Transition_StartAndEnd(t *testing.T) {
	ctx := context.Background()

	t.Run("start rents the vehicle", func(t *testing.T) {
		svc, repos, _ := newTestBookingService()
		b := testBooking(domain.BookingStatusConfirmed)
		repos.bookings.On("GetForUpdate", ctx, b.TenantID, b.ID).Return(b, nil)
		repos.bookings.On("UpdateStatus", ctx, b).Return(nil)
		repos.activities.On("Create", ctx, mock.Anything).Return(nil)
		repos.vehicles.On("SetStatus", ctx, b.TenantID, b.VehicleID, domain.VehicleStatusRented).Return(nil)
		repos.outbox.On("Enqueue", ctx, outboxKind(domain.OutboxPublishEvent)).Return(nil).Once()

		res, err := svc.Transition(ctx, transitionCmd(b, domain.ActionStart))
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusActive, res.Status)
		repos.AssertExpectations(t)
	})

	t.Run("end applies the late fee once", func(t *testing.T) {
		svc, repos, _ := newTestBookingService()
		b := testBooking(domain.BookingStatusActive)
		cmd := transitionCmd(b, domain.ActionEnd)
		cmd.Payload.ApplyLateFee = true

		repos.bookings.On("GetForUpdate", ctx, b.TenantID, b.ID).Return(b, nil)
		repos.bookings.On("UpdateStatus", ctx, b).Return(nil)
		repos.activities.On("Create", ctx, mock.Anything).Return(nil)
		repos.vehicles.On("SetStatus", ctx, b.TenantID, b.VehicleID, domain.VehicleStatusPendingInspection).Return(nil)
		repos.bookings.On("UpdateValues", ctx, b).Return(nil).Once()
		repos.outbox.On("Enqueue", ctx, outboxKind(domain.OutboxGenerateInvoice)).Return(nil).Once()
		repos.outbox.On("Enqueue", ctx, outboxKind(domain.OutboxPublishEvent)).Return(nil).Once()

		res, err := svc.Transition(ctx, cmd)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCompleted, res.Status)
		assert.True(t, res.Booking.Values.Total.Equal(decimal.NewFromInt(325)))
		assert.True(t, res.Booking.Values.LateFeeApplied)
		repos.AssertExpectations(t)
	})

	t.Run("end on a booking that is not active writes nothing", func(t *testing.T) {
		svc, repos, txm := newTestBookingService()
		b := testBooking(domain.BookingStatusConfirmed)
		repos.bookings.On("GetForUpdate", ctx, b.TenantID, b.ID).Return(b, nil)

		_, err := svc.Transition(ctx, transitionCmd(b, domain.ActionEnd))
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		var terr *domain.TransitionError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, domain.BookingStatusConfirmed, terr.From)
		assert.Equal(t, 1, txm.rollbacks)
		repos.bookings.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
		repos.vehicles.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		repos.activities.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		repos.outbox.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
	})
}

func TestBookingService_Transition_Refused(t *testing.T) {
	ctx := context.Background()
	statuses := []domain.BookingStatus{
		domain.BookingStatusPending, domain.BookingStatusConfirmed, domain.BookingStatusDeclined,
		domain.BookingStatusCanceled, domain.BookingStatusActive, domain.BookingStatusCompleted, domain.BookingStatusExpired,
	}
	actions := []domain.BookingAction{
		domain.ActionConfirm, domain.ActionDecline, domain.ActionCancel,
		domain.ActionStart, domain.ActionEnd,
	}
	for _, from := range statuses {
		for _, action := range actions {
			if _, err := domain.NextStatus(from, action); err == nil {
				continue
			}
			t.Run(fmt.Sprintf("%s from %s", action, from), func(t *testing.T) {
				svc, repos, _ := newTestBookingService()
				b := testBooking(from)
				repos.bookings.On("GetForUpdate", ctx, b.TenantID, b.ID).Return(b, nil)

				_, err := svc.Transition(ctx, transitionCmd(b, action))
				assert.ErrorIs(t, err, domain.ErrInvalidTransition)
				assert.Equal(t, from, b.Status)
				repos.activities.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			})
		}
	}
}

func TestBookingService_Transition_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("missing primary driver", func(t *testing.T) {
		svc, repos, txm := newTestBookingService()
		b := testBooking(domain.BookingStatusPending)
		b.Drivers[1].IsPrimary = false
		repos.bookings.On("GetForUpdate", ctx, b.TenantID, b.ID).Return(b, nil)
		repos.bookings.On("UpdateStatus", ctx, b).Return(nil)

		_, err := svc.Transition(ctx, transitionCmd(b, domain.ActionDecline))
		assert.ErrorIs(t, err, domain.ErrPrimaryDriverMissing)
		assert.Equal(t, 1, txm.rollbacks)
		repos.activities.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown booking", func(t *testing.T) {
		svc, repos, _ := newTestBookingService()
		b := testBooking(domain.BookingStatusPending)
		repos.bookings.On("GetForUpdate", ctx, b.TenantID, b.ID).Return(nil, domain.NotFoundError("booking", b.ID))

		_, err := svc.Transition(ctx, transitionCmd(b, domain.ActionCancel))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("payload rejected before the unit opens", func(t *testing.T) {
		svc, _, txm := newTestBookingService()
		b := testBooking(domain.BookingStatusPending)

		cmd := transitionCmd(b, domain.ActionCancel)
		cmd.Payload.Payment = &domain.PaymentInput{Amount: decimal.NewFromInt(10), Method: "cash"}
		_, err := svc.Transition(ctx, cmd)
		assert.ErrorIs(t, err, domain.ErrValidation)

		cmd = transitionCmd(b, domain.ActionCancel)
		cmd.Payload.Refund = &domain.RefundInput{Amount: decimal.NewFromInt(-5)}
		_, err = svc.Transition(ctx, cmd)
		assert.ErrorIs(t, err, domain.ErrValidation)

		cmd = transitionCmd(b, domain.ActionConfirm)
		cmd.Payload.ApplyLateFee = true
		_, err = svc.Transition(ctx, cmd)
		assert.ErrorIs(t, err, domain.ErrValidation)

		cmd = transitionCmd(b, domain.ActionDelete)
		_, err = svc.Transition(ctx, cmd)
		assert.ErrorIs(t, err, domain.ErrValidation)

		assert.Equal(t, 0, txm.commits+txm.rollbacks)
	})

	t.Run("cancel with refund records a negative transaction", func(t *testing.T) {
		svc, repos, _ := newTestBookingService()
		b := testBooking(domain.BookingStatusConfirmed)
		cmd := transitionCmd(b, domain.ActionCancel)
		cmd.Payload.Reason = "customer request"
		cmd.Payload.Refund = &domain.RefundInput{Amount: decimal.NewFromInt(80)}

		repos.bookings.On("GetForUpdate", ctx, b.TenantID, b.ID).Return(b, nil)
		repos.bookings.On("UpdateStatus", ctx, b).Return(nil)
		repos.activities.On("Create", ctx, mock.MatchedBy(func(a *domain.BookingActivity) bool {
			return a.Note == "customer request"
		})).Return(nil)
		repos.ledger.On("CreateRefund", ctx, mock.MatchedBy(func(r *domain.Refund) bool {
			return r.Reason == "customer request"
		})).Return(nil)
		repos.ledger.On("CreateTransaction", ctx, mock.MatchedBy(func(tx *domain.Transaction) bool {
			return tx.Type == domain.TransactionTypeRefund && tx.Amount.Equal(decimal.NewFromInt(-80))
		})).Return(nil)
		repos.outbox.On("Enqueue", ctx, outboxKind(domain.OutboxPublishEvent)).Return(nil)

		res, err := svc.Transition(ctx, cmd)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCanceled, res.Status)
		repos.AssertExpectations(t)
	})
}

func TestBookingService_OutboxNotifier(t *testing.T) {
	ctx := context.Background()
	ready := make(chan struct{}, 1)
	svc, repos, _ := newTestBookingService(WithOutboxNotifier(ready))

	for i := 0; i < 2; i++ {
		b := testBooking(domain.BookingStatusPending)
		repos.bookings.On("GetForUpdate", ctx, b.TenantID, b.ID).Return(b, nil)
		repos.bookings.On("UpdateStatus", ctx, b).Return(nil)
		repos.activities.On("Create", ctx, mock.Anything).Return(nil)
		repos.outbox.On("Enqueue", ctx, mock.Anything).Return(nil)
		_, err := svc.Transition(ctx, transitionCmd(b, domain.ActionDecline))
		require.NoError(t, err)
	}

	assert.Len(t, ready, 1, "a full channel never blocks the caller")
}

func TestBookingService_DeleteBooking(t *testing.T) {
	ctx := context.Background()
	svc, repos, txm := newTestBookingService()
	b := testBooking(domain.BookingStatusCompleted)
	userID := uuid.New()
	payment := domain.Transaction{ID: uuid.New(), Type: domain.TransactionTypePayment}
	payment.SetSource(domain.TransactionTypePayment, uuid.New())

	repos.bookings.On("GetForUpdate", ctx, b.TenantID, b.ID).Return(b, nil)
	repos.bookings.On("SoftDelete", ctx, b.TenantID, b.ID, userID, fixedNow).Return(nil)
	repos.ledger.On("ListTransactionsByBooking", ctx, b.TenantID, b.ID).Return([]domain.Transaction{payment}, nil)
	repos.ledger.On("SoftDeleteTransaction", ctx, b.TenantID, payment.ID, userID, fixedNow).Return(nil)
	repos.ledger.On("SoftDeletePayment", ctx, b.TenantID, *payment.PaymentID, fixedNow).Return(nil)
	repos.activities.On("Create", ctx, mock.MatchedBy(func(a *domain.BookingActivity) bool {
		return a.Action == domain.ActionDelete
	})).Return(nil)

	require.NoError(t, svc.DeleteBooking(ctx, b.TenantID, b.ID, userID))
	assert.Equal(t, 1, txm.commits)
	repos.AssertExpectations(t)
}

func TestBookingService_ExpirePendingBookings(t *testing.T) {
	ctx := context.Background()
	svc, repos, _ := newTestBookingService()
	cutoff := fixedNow.Add(-24 * time.Hour)

	stale := testBooking(domain.BookingStatusPending)
	stale.StartDate = fixedNow.Add(-48 * time.Hour)
	raced := testBooking(domain.BookingStatusPending)
	raced.StartDate = fixedNow.Add(-47 * time.Hour)
	racedNow := *raced
	racedNow.Status = domain.BookingStatusConfirmed

	repos.bookings.On("ListExpirable", ctx, cutoff, (*domain.ExpiryCursor)(nil), 50).Return([]domain.Booking{*stale, *raced}, nil)
	repos.bookings.On("GetForUpdate", ctx, stale.TenantID, stale.ID).Return(stale, nil)
	repos.bookings.On("GetForUpdate", ctx, raced.TenantID, raced.ID).Return(&racedNow, nil)
	repos.bookings.On("UpdateStatus", ctx, stale).Return(nil)
	repos.activities.On("Create", ctx, mock.MatchedBy(func(a *domain.BookingActivity) bool {
		return a.Action == domain.ActionExpire && a.CreatedBy == SystemUserID
	})).Return(nil)
	repos.outbox.On("Enqueue", ctx, outboxKind(domain.OutboxPublishEvent)).Return(nil)

	n, err := svc.ExpirePendingBookings(ctx, cutoff, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.BookingStatusExpired, stale.Status)
	assert.Equal(t, domain.BookingStatusConfirmed, racedNow.Status)
}

func TestBookingService_ExpirePendingBookings_PagesPastFailures(t *testing.T) {
	ctx := context.Background()
	svc, repos, _ := newTestBookingService()
	cutoff := fixedNow.Add(-24 * time.Hour)

	// Two old bookings without a primary driver fill the first page.
	broken1 := testBooking(domain.BookingStatusPending)
	broken1.StartDate = fixedNow.Add(-96 * time.Hour)
	broken1.Drivers[1].IsPrimary = false
	broken2 := testBooking(domain.BookingStatusPending)
	broken2.StartDate = fixedNow.Add(-72 * time.Hour)
	broken2.Drivers[1].IsPrimary = false
	newer := testBooking(domain.BookingStatusPending)
	newer.StartDate = fixedNow.Add(-48 * time.Hour)

	cursor := &domain.ExpiryCursor{StartDate: broken2.StartDate, ID: broken2.ID}
	repos.bookings.On("ListExpirable", ctx, cutoff, (*domain.ExpiryCursor)(nil), 2).Return([]domain.Booking{*broken1, *broken2}, nil).Once()
	repos.bookings.On("ListExpirable", ctx, cutoff, cursor, 2).Return([]domain.Booking{*newer}, nil).Once()
	for _, b := range []*domain.Booking{broken1, broken2, newer} {
		repos.bookings.On("GetForUpdate", ctx, b.TenantID, b.ID).Return(b, nil)
		repos.bookings.On("UpdateStatus", ctx, b).Return(nil)
	}
	repos.activities.On("Create", ctx, mock.Anything).Return(nil)
	repos.outbox.On("Enqueue", ctx, outboxKind(domain.OutboxPublishEvent)).Return(nil)

	n, err := svc.ExpirePendingBookings(ctx, cutoff, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.BookingStatusExpired, newer.Status)
	repos.bookings.AssertNumberOfCalls(t, "ListExpirable", 2)
}

func TestBookingService_Expire_RechecksStartDate(t *testing.T) {
	ctx := context.Background()
	svc, repos, txm := newTestBookingService()
	cutoff := fixedNow.Add(-24 * time.Hour)

	listed := testBooking(domain.BookingStatusPending)
	listed.StartDate = fixedNow.Add(-48 * time.Hour)
	// Rescheduled between the scan and the lock.
	locked := *listed
	locked.StartDate = fixedNow.Add(48 * time.Hour)

	repos.bookings.On("ListExpirable", ctx, cutoff, (*domain.ExpiryCursor)(nil), 10).Return([]domain.Booking{*listed}, nil)
	repos.bookings.On("GetForUpdate", ctx, listed.TenantID, listed.ID).Return(&locked, nil)

	n, err := svc.ExpirePendingBookings(ctx, cutoff, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, domain.BookingStatusPending, locked.Status)
	assert.Equal(t, 0, txm.commits)
	repos.bookings.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
}

func TestBookingService_Transition_RefusesExpire(t *testing.T) {
	ctx := context.Background()
	svc, repos, txm := newTestBookingService()
	b := testBooking(domain.BookingStatusPending)

	_, err := svc.Transition(ctx, transitionCmd(b, domain.ActionExpire))

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "action", verr.Field)
	assert.Equal(t, domain.BookingStatusPending, b.Status)
	assert.Equal(t, 0, txm.commits)
	repos.bookings.AssertNotCalled(t, "GetForUpdate", mock.Anything, mock.Anything, mock.Anything)
}
