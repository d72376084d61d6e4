package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rentflow-backend/internal/domain"
	"rentflow-backend/internal/logger"
	"rentflow-backend/internal/repository"
	"rentflow-backend/internal/utils"

	"github.com/google/uuid"
)

// SystemUserID attributes changes made by scheduled jobs.
var SystemUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// createAttempts bounds how often CreateBooking retries a colliding rental
// number.
const createAttempts = 3

type bookingService struct {
	txm    repository.TxManager
	repos  repository.Repositories
	seq    *SequenceAllocator
	ledger *LedgerEntries
	now    func() time.Time
	// outboxReady, when set, is nudged after every commit that enqueued work.
	outboxReady chan<- struct{}
}

type BookingOption func(*bookingService)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) BookingOption {
	return func(s *bookingService) { s.now = now }
}

// WithOutboxNotifier makes the service signal ch after committing outbox
// entries. The send never blocks.
func WithOutboxNotifier(ch chan<- struct{}) BookingOption {
	return func(s *bookingService) { s.outboxReady = ch }
}

func NewBookingService(txm repository.TxManager, repos repository.Repositories, seq *SequenceAllocator, ledger *LedgerEntries, opts ...BookingOption) BookingService {
	s := &bookingService{
		txm:    txm,
		repos:  repos,
		seq:    seq,
		ledger: ledger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *bookingService) CreateBooking(ctx context.Context, cmd domain.CreateBookingCommand) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.CreateBooking", "tenantID", cmd.TenantID, "vehicleID", cmd.VehicleID)
	if err := validateStruct(cmd); err != nil {
		logger.ExitMethodWithError("bookingService.CreateBooking", err)
		return nil, err
	}
	primaries := 0
	for _, d := range cmd.Drivers {
		if d.IsPrimary {
			primaries++
		}
	}
	if primaries != 1 {
		err := domain.NewValidationError("drivers", "exactly one driver must be primary")
		logger.ExitMethodWithError("bookingService.CreateBooking", err)
		return nil, err
	}

	var booking *domain.Booking
	err := RetryOnCollision(ctx, createAttempts, func(ctx context.Context) error {
		return s.txm.WithinTx(ctx, DefaultTxOptions, func(ctx context.Context, repos repository.Repositories) error {
			var err error
			booking, err = s.insertBooking(ctx, repos, cmd)
			return err
		})
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.CreateBooking", err)
		return nil, err
	}
	s.nudgeOutbox()
	logger.ExitMethod("bookingService.CreateBooking", "bookingID", booking.ID, "bookingCode", booking.BookingCode)
	return booking, nil
}

func (s *bookingService) insertBooking(ctx context.Context, repos repository.Repositories, cmd domain.CreateBookingCommand) (*domain.Booking, error) {
	tenant, err := repos.Tenants.GetByID(ctx, cmd.TenantID)
	if err != nil {
		return nil, err
	}
	vehicle, err := repos.Vehicles.GetByID(ctx, cmd.TenantID, cmd.VehicleID)
	if err != nil {
		return nil, err
	}

	extras := make([]domain.Extra, 0, len(cmd.Extras))
	for _, x := range cmd.Extras {
		extras = append(extras, utils.PriceExtra(domain.Extra{
			ID:        uuid.New(),
			Name:      x.Name,
			Quantity:  x.Quantity,
			UnitPrice: x.UnitPrice,
		}))
	}
	values, err := utils.CalculateValues(cmd.StartDate, cmd.EndDate, vehicle, extras, cmd.Discount, cmd.TaxRate)
	if err != nil {
		return nil, err
	}

	rentalNumber, err := s.seq.NextRentalNumber(ctx, repos.Sequences, tenant.ID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	b := &domain.Booking{
		ID:             uuid.New(),
		TenantID:       tenant.ID,
		RentalNumber:   rentalNumber,
		BookingCode:    BookingCode(tenant.Code, rentalNumber),
		Status:         domain.BookingStatusPending,
		StartDate:      cmd.StartDate,
		EndDate:        cmd.EndDate,
		PickupLocation: cmd.PickupLocation,
		ReturnLocation: cmd.ReturnLocation,
		VehicleID:      vehicle.ID,
		Values:         values,
		Extras:         extras,
		CreatedBy:      cmd.UserID,
		UpdatedBy:      cmd.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
		State:          domain.Active{},
	}
	for _, d := range cmd.Drivers {
		b.Drivers = append(b.Drivers, domain.Driver{
			CustomerID: d.CustomerID,
			Name:       d.Name,
			Email:      d.Email,
			Phone:      d.Phone,
			IsPrimary:  d.IsPrimary,
		})
	}
	if err := repos.Bookings.Create(ctx, b); err != nil {
		return nil, err
	}

	driver, _ := b.PrimaryDriver()
	if err := repos.Activities.Create(ctx, &domain.BookingActivity{
		ID:         uuid.New(),
		TenantID:   b.TenantID,
		BookingID:  b.ID,
		CustomerID: driver.CustomerID,
		Action:     domain.ActionCreate,
		CreatedBy:  cmd.UserID,
		CreatedAt:  now,
	}); err != nil {
		return nil, err
	}
	if err := s.enqueue(ctx, repos, b, cmd.UserID, domain.ActionCreate, domain.OutboxPublishEvent); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *bookingService) GetBooking(ctx context.Context, tenantID, bookingID uuid.UUID) (*domain.Booking, error) {
	return s.repos.Bookings.GetByID(ctx, tenantID, bookingID)
}

func (s *bookingService) ListBookings(ctx context.Context, tenantID uuid.UUID, filter domain.BookingFilter) ([]domain.Booking, int32, error) {
	return s.repos.Bookings.List(ctx, tenantID, filter)
}

// DeleteBooking soft-deletes the booking and every ledger entry attributed
// to it in one unit.
func (s *bookingService) DeleteBooking(ctx context.Context, tenantID, bookingID, userID uuid.UUID) error {
	logger.EnterMethod("bookingService.DeleteBooking", "tenantID", tenantID, "bookingID", bookingID)
	err := s.txm.WithinTx(ctx, DefaultTxOptions, func(ctx context.Context, repos repository.Repositories) error {
		b, err := repos.Bookings.GetForUpdate(ctx, tenantID, bookingID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if err := repos.Bookings.SoftDelete(ctx, tenantID, bookingID, userID, now); err != nil {
			return err
		}
		voided, err := s.ledger.VoidBookingTransactions(ctx, repos.Ledger, tenantID, bookingID, userID)
		if err != nil {
			return err
		}
		logger.Debug("Voided booking transactions", "bookingID", bookingID, "count", voided)
		driver, _ := b.PrimaryDriver()
		return repos.Activities.Create(ctx, &domain.BookingActivity{
			ID:         uuid.New(),
			TenantID:   tenantID,
			BookingID:  bookingID,
			CustomerID: driver.CustomerID,
			Action:     domain.ActionDelete,
			CreatedBy:  userID,
			CreatedAt:  now,
		})
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.DeleteBooking", err)
		return err
	}
	logger.ExitMethod("bookingService.DeleteBooking", "bookingID", bookingID)
	return nil
}

// Transition applies one lifecycle action. Every write it makes commits or
// rolls back together. Expire is time-triggered and only reachable through
// ExpirePendingBookings.
func (s *bookingService) Transition(ctx context.Context, cmd domain.BookingTransitionCommand) (*domain.TransitionResult, error) {
	logger.EnterMethod("bookingService.Transition", "tenantID", cmd.TenantID, "bookingID", cmd.BookingID, "action", cmd.Action)
	if cmd.Action == domain.ActionExpire {
		err := domain.NewValidationError("action", "expire is time-triggered and cannot be requested")
		logger.ExitMethodWithError("bookingService.Transition", err)
		return nil, err
	}
	return s.transition(ctx, cmd, nil)
}

// transition runs cmd as one unit. guard, when set, sees the locked booking
// before anything is written.
func (s *bookingService) transition(ctx context.Context, cmd domain.BookingTransitionCommand, guard func(*domain.Booking) error) (*domain.TransitionResult, error) {
	if err := validateTransition(cmd); err != nil {
		logger.ExitMethodWithError("bookingService.Transition", err)
		return nil, err
	}

	var booking *domain.Booking
	err := s.txm.WithinTx(ctx, DefaultTxOptions, func(ctx context.Context, repos repository.Repositories) error {
		b, to, err := s.lockForTransition(ctx, repos, cmd)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(b); err != nil {
				return err
			}
		}
		if err := s.writeStatus(ctx, repos, b, to, cmd.UserID); err != nil {
			return err
		}
		driver, err := primaryDriver(b)
		if err != nil {
			return err
		}
		if err := s.appendActivity(ctx, repos, b, driver, cmd); err != nil {
			return err
		}
		if err := s.updateVehicleStatus(ctx, repos, b, cmd.Action); err != nil {
			return err
		}
		if cmd.Action == domain.ActionEnd && cmd.Payload.ApplyLateFee {
			if err := s.applyLateFee(ctx, repos, b, cmd.UserID); err != nil {
				return err
			}
		}
		if err := s.recordPayload(ctx, repos, b, driver, cmd); err != nil {
			return err
		}
		if err := s.enqueue(ctx, repos, b, cmd.UserID, cmd.Action, effectsFor(cmd.Action)...); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.Transition", err, "action", cmd.Action)
		return nil, err
	}
	s.nudgeOutbox()
	logger.ExitMethod("bookingService.Transition", "bookingID", booking.ID, "status", booking.Status)
	return &domain.TransitionResult{Status: booking.Status, Booking: booking}, nil
}

func validateTransition(cmd domain.BookingTransitionCommand) error {
	if err := validateStruct(cmd); err != nil {
		return err
	}
	if !domain.IsTransitionAction(cmd.Action) {
		return domain.NewValidationError("action", fmt.Sprintf("unknown action %q", cmd.Action))
	}
	p := cmd.Payload
	if err := validateStruct(p); err != nil {
		return err
	}
	if p.Payment != nil {
		switch cmd.Action {
		case domain.ActionConfirm, domain.ActionStart, domain.ActionEnd:
		default:
			return domain.NewValidationError("payment", fmt.Sprintf("not accepted on %s", cmd.Action))
		}
		if err := requirePositive("payment.amount", p.Payment.Amount); err != nil {
			return err
		}
	}
	if p.Refund != nil {
		switch cmd.Action {
		case domain.ActionCancel, domain.ActionDecline:
		default:
			return domain.NewValidationError("refund", fmt.Sprintf("not accepted on %s", cmd.Action))
		}
		if err := requirePositive("refund.amount", p.Refund.Amount); err != nil {
			return err
		}
	}
	if p.ApplyLateFee && cmd.Action != domain.ActionEnd {
		return domain.NewValidationError("apply_late_fee", "only accepted on end")
	}
	return nil
}

// lockForTransition loads the booking under a row lock and resolves the
// target status.
func (s *bookingService) lockForTransition(ctx context.Context, repos repository.Repositories, cmd domain.BookingTransitionCommand) (*domain.Booking, domain.BookingStatus, error) {
	b, err := repos.Bookings.GetForUpdate(ctx, cmd.TenantID, cmd.BookingID)
	if err != nil {
		return nil, "", err
	}
	to, err := domain.NextStatus(b.Status, cmd.Action)
	if err != nil {
		return nil, "", err
	}
	return b, to, nil
}

func (s *bookingService) writeStatus(ctx context.Context, repos repository.Repositories, b *domain.Booking, to domain.BookingStatus, userID uuid.UUID) error {
	b.Status = to
	b.UpdatedBy = userID
	b.UpdatedAt = s.now().UTC()
	return repos.Bookings.UpdateStatus(ctx, b)
}

func primaryDriver(b *domain.Booking) (domain.Driver, error) {
	d, ok := b.PrimaryDriver()
	if !ok {
		return domain.Driver{}, fmt.Errorf("booking %s: %w", b.ID, domain.ErrPrimaryDriverMissing)
	}
	return d, nil
}

// appendActivity records the action. A confirmation that arrives after the
// rental already began is dated at the start date.
func (s *bookingService) appendActivity(ctx context.Context, repos repository.Repositories, b *domain.Booking, driver domain.Driver, cmd domain.BookingTransitionCommand) error {
	at := s.now().UTC()
	if cmd.Action == domain.ActionConfirm && b.StartDate.Before(at) {
		at = b.StartDate
	}
	return repos.Activities.Create(ctx, &domain.BookingActivity{
		ID:         uuid.New(),
		TenantID:   b.TenantID,
		BookingID:  b.ID,
		CustomerID: driver.CustomerID,
		Action:     cmd.Action,
		Note:       cmd.Payload.Reason,
		CreatedBy:  cmd.UserID,
		CreatedAt:  at,
	})
}

func (s *bookingService) updateVehicleStatus(ctx context.Context, repos repository.Repositories, b *domain.Booking, action domain.BookingAction) error {
	switch action {
	case domain.ActionStart:
		return repos.Vehicles.SetStatus(ctx, b.TenantID, b.VehicleID, domain.VehicleStatusRented)
	case domain.ActionEnd:
		return repos.Vehicles.SetStatus(ctx, b.TenantID, b.VehicleID, domain.VehicleStatusPendingInspection)
	}
	return nil
}

func (s *bookingService) applyLateFee(ctx context.Context, repos repository.Repositories, b *domain.Booking, userID uuid.UUID) error {
	if !b.Values.ApplyLateFee() {
		return nil
	}
	b.UpdatedBy = userID
	return repos.Bookings.UpdateValues(ctx, b)
}

// recordPayload writes the money that travelled with the action, each
// source together with its ledger transaction.
func (s *bookingService) recordPayload(ctx context.Context, repos repository.Repositories, b *domain.Booking, driver domain.Driver, cmd domain.BookingTransitionCommand) error {
	bookingID := b.ID
	if p := cmd.Payload.Payment; p != nil {
		customerID := driver.CustomerID
		if _, err := s.ledger.AddPayment(ctx, repos.Ledger, &domain.Payment{
			TenantID:   b.TenantID,
			BookingID:  &bookingID,
			CustomerID: &customerID,
			Amount:     p.Amount,
			Method:     p.Method,
			Reference:  p.Reference,
			CreatedBy:  cmd.UserID,
		}); err != nil {
			return err
		}
	}
	if r := cmd.Payload.Refund; r != nil {
		reason := r.Reason
		if reason == "" {
			reason = cmd.Payload.Reason
		}
		if _, err := s.ledger.AddRefund(ctx, repos.Ledger, &domain.Refund{
			TenantID:  b.TenantID,
			BookingID: &bookingID,
			PaymentID: r.PaymentID,
			Amount:    r.Amount,
			Reason:    reason,
			CreatedBy: cmd.UserID,
		}); err != nil {
			return err
		}
	}
	return nil
}

// effectsFor lists the post-commit work each action schedules.
func effectsFor(action domain.BookingAction) []domain.OutboxKind {
	switch action {
	case domain.ActionConfirm:
		return []domain.OutboxKind{
			domain.OutboxGenerateInvoice,
			domain.OutboxGenerateAgreement,
			domain.OutboxConfirmationEmail,
			domain.OutboxPublishEvent,
		}
	case domain.ActionEnd:
		return []domain.OutboxKind{domain.OutboxGenerateInvoice, domain.OutboxPublishEvent}
	}
	return []domain.OutboxKind{domain.OutboxPublishEvent}
}

func (s *bookingService) enqueue(ctx context.Context, repos repository.Repositories, b *domain.Booking, userID uuid.UUID, action domain.BookingAction, kinds ...domain.OutboxKind) error {
	now := s.now().UTC()
	bookingID := b.ID
	for _, kind := range kinds {
		payload := json.RawMessage("{}")
		if kind == domain.OutboxPublishEvent {
			raw, err := json.Marshal(bookingEvent(b, action, now))
			if err != nil {
				return err
			}
			payload = raw
		}
		if err := repos.Outbox.Enqueue(ctx, &domain.OutboxEntry{
			ID:          uuid.New(),
			TenantID:    b.TenantID,
			BookingID:   &bookingID,
			UserID:      userID,
			Kind:        kind,
			Payload:     payload,
			Status:      domain.OutboxStatusPending,
			AvailableAt: now,
			CreatedAt:   now,
		}); err != nil {
			return fmt.Errorf("enqueue %s: %w", kind, err)
		}
	}
	return nil
}

func bookingEvent(b *domain.Booking, action domain.BookingAction, at time.Time) domain.Event {
	return domain.Event{
		Type:    domain.EventForAction(action),
		Title:   fmt.Sprintf("Booking %s", b.Status),
		Message: fmt.Sprintf("Booking %s is now %s", b.BookingCode, b.Status),
		Attributes: map[string]string{
			"booking_id":   b.ID.String(),
			"booking_code": b.BookingCode,
			"status":       string(b.Status),
			"action":       string(action),
		},
		OccurredAt: at,
	}
}

func (s *bookingService) nudgeOutbox() {
	if s.outboxReady == nil {
		return
	}
	select {
	case s.outboxReady <- struct{}{}:
	default:
	}
}

// errNotExpirable marks a candidate whose start date moved past the cutoff
// after it was listed.
var errNotExpirable = errors.New("booking is not due to expire")

// ExpirePendingBookings runs the expire action for PENDING bookings that
// should have started before cutoff. Candidates are paged by
// (start_date, id) so bookings that keep failing do not hide newer ones.
// Bookings that moved on concurrently are skipped.
func (s *bookingService) ExpirePendingBookings(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	logger.EnterMethod("bookingService.ExpirePendingBookings", "cutoff", cutoff, "limit", limit)
	expired, failed, seen := 0, 0, 0
	var after *domain.ExpiryCursor
	for {
		candidates, err := s.repos.Bookings.ListExpirable(ctx, cutoff, after, limit)
		if err != nil {
			logger.ExitMethodWithError("bookingService.ExpirePendingBookings", err)
			return expired, err
		}
		for _, b := range candidates {
			seen++
			err := s.expire(ctx, b, cutoff)
			switch {
			case err == nil:
				expired++
			case ctx.Err() != nil:
				return expired, ctx.Err()
			case errors.Is(err, errNotExpirable), errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrNotFound):
				logger.WithBooking(b.TenantID, b.ID).Debug("Skipped expiry candidate", "reason", err)
			default:
				failed++
				logger.WithBooking(b.TenantID, b.ID).Warn("Failed to expire booking", "error", err)
			}
		}
		if limit <= 0 || len(candidates) < limit {
			break
		}
		last := candidates[len(candidates)-1]
		after = &domain.ExpiryCursor{StartDate: last.StartDate, ID: last.ID}
	}
	logger.ExitMethod("bookingService.ExpirePendingBookings", "expired", expired, "failed", failed, "candidates", seen)
	return expired, nil
}

// expire moves b to EXPIRED as the system user, re-checking the start date
// under the row lock.
func (s *bookingService) expire(ctx context.Context, b domain.Booking, cutoff time.Time) error {
	_, err := s.transition(ctx, domain.BookingTransitionCommand{
		TenantID:  b.TenantID,
		BookingID: b.ID,
		UserID:    SystemUserID,
		Action:    domain.ActionExpire,
		Payload:   domain.TransitionPayload{Reason: "not confirmed before start date"},
	}, func(locked *domain.Booking) error {
		if !locked.StartDate.Before(cutoff) {
			return errNotExpirable
		}
		return nil
	})
	return err
}
