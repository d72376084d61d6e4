package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rentflow-backend/internal/config"
	"rentflow-backend/internal/domain"
	"rentflow-backend/internal/logger"
	"rentflow-backend/internal/repository"
	"rentflow-backend/internal/service"

	"github.com/google/uuid"
)

// OutboxWorker delivers the effects a committed unit of work recorded in the
// outbox. Delivery is at-least-once: a failed entry is rescheduled with
// exponential backoff until it runs out of attempts.
type OutboxWorker struct {
	txm      repository.TxManager
	repos    repository.Repositories
	services *Services
	cfg      config.OutboxConfig
	now      func() time.Time
}

func NewOutboxWorker(txm repository.TxManager, repos repository.Repositories, services *Services, cfg config.OutboxConfig) *OutboxWorker {
	cfg.SetDefaults()
	return &OutboxWorker{
		txm:      txm,
		repos:    repos,
		services: services,
		cfg:      cfg,
		now:      time.Now,
	}
}

// errPermanent marks a failure retrying cannot fix.
var errPermanent = errors.New("permanent outbox failure")

// Drain claims one batch of due entries and delivers them. It returns how
// many entries it claimed.
func (w *OutboxWorker) Drain(ctx context.Context) (int, error) {
	entries, err := w.claim(ctx)
	if err != nil {
		return 0, fmt.Errorf("claim outbox entries: %w", err)
	}
	for i := range entries {
		w.deliver(ctx, &entries[i])
	}
	return len(entries), nil
}

// claim locks a batch of due entries and pushes their availability out by
// the lease, so other workers skip them while this one delivers. An entry
// whose worker dies becomes due again when the lease runs out.
func (w *OutboxWorker) claim(ctx context.Context) ([]domain.OutboxEntry, error) {
	var entries []domain.OutboxEntry
	err := w.txm.WithinTx(ctx, service.DefaultTxOptions, func(ctx context.Context, repos repository.Repositories) error {
		now := w.now().UTC()
		claimed, err := repos.Outbox.ClaimDue(ctx, now, w.cfg.BatchSize)
		if err != nil {
			return err
		}
		leaseUntil := now.Add(w.cfg.LeaseTimeout)
		for _, e := range claimed {
			if err := repos.Outbox.MarkRetry(ctx, e.ID, e.Attempts, e.LastError, leaseUntil); err != nil {
				return err
			}
		}
		entries = claimed
		return nil
	})
	return entries, err
}

func (w *OutboxWorker) deliver(ctx context.Context, e *domain.OutboxEntry) {
	var bookingID any
	if e.BookingID != nil {
		bookingID = *e.BookingID
	}
	log := logger.WithBooking(e.TenantID, bookingID).With("kind", e.Kind, "outbox_id", e.ID)

	err := w.dispatch(ctx, e)
	attempts := e.Attempts + 1
	if err == nil {
		if err := w.repos.Outbox.MarkDone(ctx, e.ID); err != nil {
			log.Error("Failed to mark outbox entry done", "error", err)
		}
		return
	}

	if errors.Is(err, errPermanent) || attempts >= w.cfg.MaxAttempts {
		log.Error("Outbox entry failed", "attempts", attempts, "error", err)
		if err := w.repos.Outbox.MarkFailed(ctx, e.ID, attempts, err.Error()); err != nil {
			log.Error("Failed to mark outbox entry failed", "error", err)
		}
		return
	}

	next := w.now().UTC().Add(w.backoff(attempts))
	log.Warn("Outbox entry will be retried", "attempts", attempts, "next_attempt", next, "error", err)
	if err := w.repos.Outbox.MarkRetry(ctx, e.ID, attempts, err.Error(), next); err != nil {
		log.Error("Failed to reschedule outbox entry", "error", err)
	}
}

// backoff is BaseBackoff doubled per failed attempt, capped at MaxBackoff.
func (w *OutboxWorker) backoff(attempts int) time.Duration {
	d := w.cfg.BaseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= w.cfg.MaxBackoff {
			return w.cfg.MaxBackoff
		}
	}
	return d
}

func (w *OutboxWorker) dispatch(ctx context.Context, e *domain.OutboxEntry) error {
	if e.Kind == domain.OutboxPublishEvent {
		var ev domain.Event
		if err := json.Unmarshal(e.Payload, &ev); err != nil {
			return fmt.Errorf("%w: decode event: %v", errPermanent, err)
		}
		return w.services.Sink.Publish(ctx, e.TenantID, ev)
	}

	if e.BookingID == nil {
		return fmt.Errorf("%w: %s entry has no booking", errPermanent, e.Kind)
	}
	bookingID := *e.BookingID

	var err error
	switch e.Kind {
	case domain.OutboxGenerateInvoice:
		_, err = w.services.Document.GenerateInvoice(ctx, e.TenantID, bookingID, e.UserID)
	case domain.OutboxGenerateAgreement:
		_, err = w.services.Document.GenerateAgreement(ctx, e.TenantID, bookingID, e.UserID)
	case domain.OutboxConfirmationEmail:
		err = w.sendConfirmation(ctx, e.TenantID, bookingID)
	default:
		return fmt.Errorf("%w: unknown kind %q", errPermanent, e.Kind)
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrPrimaryDriverMissing) {
		return fmt.Errorf("%w: %v", errPermanent, err)
	}
	return err
}

func (w *OutboxWorker) sendConfirmation(ctx context.Context, tenantID, bookingID uuid.UUID) error {
	tenant, err := w.repos.Tenants.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}
	booking, err := w.repos.Bookings.GetByID(ctx, tenantID, bookingID)
	if err != nil {
		return err
	}
	for _, d := range booking.Drivers {
		if d.IsPrimary {
			return w.services.Email.SendBookingConfirmation(ctx, tenant, booking, d)
		}
	}
	return domain.ErrPrimaryDriverMissing
}

// drainAll drains batches until one comes back short.
func (w *OutboxWorker) drainAll(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := w.Drain(ctx)
		total += n
		if err != nil || n < w.cfg.BatchSize {
			return total, err
		}
	}
}

// Run drains on every poll tick and whenever ready fires, until ctx is done.
func (w *OutboxWorker) Run(ctx context.Context, ready <-chan struct{}) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()
	logger.Info("Outbox worker started", "interval", w.cfg.PollInterval, "batch_size", w.cfg.BatchSize)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Outbox worker stopped")
			return
		case <-ticker.C:
		case <-ready:
		}
		if _, err := w.drainAll(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Failed to drain outbox", "error", err)
		}
	}
}

// DrainOutbox delivers every due outbox entry.
func (jr *JobRunner) DrainOutbox() {
	jr.runWithRecovery("DrainOutbox", func(ctx context.Context) {
		count, err := jr.outbox.drainAll(ctx)
		if err != nil {
			logger.Error("Failed to drain outbox", "delivered", count, "error", err)
			return
		}
		logger.Info("Drained outbox", "count", count)
	})
}
