package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentflow-backend/internal/domain"
	"rentflow-backend/internal/logger"
	"rentflow-backend/internal/repository"

	"github.com/google/uuid"
)

// LedgerEntries holds the ledger steps that run inside a caller's
// transaction. Each source row is written together with the one transaction
// that mirrors it.
type LedgerEntries struct {
	now func() time.Time
}

func NewLedgerEntries(now func() time.Time) *LedgerEntries {
	if now == nil {
		now = time.Now
	}
	return &LedgerEntries{now: now}
}

// CreateLedgerEntry writes the transaction for a source, signed by its type.
func (l *LedgerEntries) CreateLedgerEntry(ctx context.Context, ledger repository.LedgerRepository, in domain.LedgerEntryInput) (*domain.Transaction, error) {
	if !in.SourceType.Valid() {
		return nil, domain.NewValidationError("type", fmt.Sprintf("unknown transaction type %q", in.SourceType))
	}
	if err := requirePositive("amount", in.Amount); err != nil {
		return nil, err
	}
	now := l.now().UTC()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	tx := &domain.Transaction{
		ID:        uuid.New(),
		TenantID:  in.TenantID,
		Type:      in.SourceType,
		Amount:    in.SourceType.SignedAmount(in.Amount),
		Date:      date,
		BookingID: in.BookingID,
		CreatedBy: in.UserID,
		UpdatedBy: in.UserID,
		CreatedAt: now,
		UpdatedAt: now,
		State:     domain.Active{},
	}
	tx.SetSource(in.SourceType, in.SourceID)
	if err := ledger.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("create ledger entry: %w", err)
	}
	return tx, nil
}

func (l *LedgerEntries) findBySource(ctx context.Context, ledger repository.LedgerRepository, tenantID uuid.UUID, sourceType domain.TransactionType, sourceID uuid.UUID) (*domain.Transaction, error) {
	tx, err := ledger.GetTransactionBySource(ctx, tenantID, sourceType, sourceID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%s %s: %w", sourceType, sourceID, domain.ErrAssociatedTransactionNotFound)
	}
	return tx, err
}

// UpdateLedgerEntry copies amount, date and booking from the source onto its
// transaction.
func (l *LedgerEntries) UpdateLedgerEntry(ctx context.Context, ledger repository.LedgerRepository, in domain.LedgerEntryInput) (*domain.Transaction, error) {
	if err := requirePositive("amount", in.Amount); err != nil {
		return nil, err
	}
	tx, err := l.findBySource(ctx, ledger, in.TenantID, in.SourceType, in.SourceID)
	if err != nil {
		return nil, err
	}
	tx.Amount = tx.Type.SignedAmount(in.Amount)
	if !in.Date.IsZero() {
		tx.Date = in.Date
	}
	tx.BookingID = in.BookingID
	tx.UpdatedBy = in.UserID
	tx.UpdatedAt = l.now().UTC()
	if err := ledger.UpdateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("update ledger entry: %w", err)
	}
	return tx, nil
}

// VoidLedgerEntry soft-deletes the transaction mirroring a source.
func (l *LedgerEntries) VoidLedgerEntry(ctx context.Context, ledger repository.LedgerRepository, tenantID, userID uuid.UUID, sourceType domain.TransactionType, sourceID uuid.UUID) error {
	tx, err := l.findBySource(ctx, ledger, tenantID, sourceType, sourceID)
	if err != nil {
		return err
	}
	return ledger.SoftDeleteTransaction(ctx, tenantID, tx.ID, userID, l.now().UTC())
}

// VoidBookingTransactions soft-deletes every live transaction attributed to
// the booking together with its source.
func (l *LedgerEntries) VoidBookingTransactions(ctx context.Context, ledger repository.LedgerRepository, tenantID, bookingID, userID uuid.UUID) (int, error) {
	txs, err := ledger.ListTransactionsByBooking(ctx, tenantID, bookingID)
	if err != nil {
		return 0, err
	}
	at := l.now().UTC()
	for _, tx := range txs {
		if err := ledger.SoftDeleteTransaction(ctx, tenantID, tx.ID, userID, at); err != nil {
			return 0, err
		}
		var err error
		switch tx.Type {
		case domain.TransactionTypePayment:
			err = ledger.SoftDeletePayment(ctx, tenantID, tx.SourceID(), at)
		case domain.TransactionTypeRefund:
			err = ledger.SoftDeleteRefund(ctx, tenantID, tx.SourceID(), at)
		case domain.TransactionTypeExpense:
			err = ledger.SoftDeleteExpense(ctx, tenantID, tx.SourceID(), at)
		}
		if err != nil {
			return 0, err
		}
	}
	return len(txs), nil
}

// AddPayment inserts a payment and its PAYMENT transaction.
func (l *LedgerEntries) AddPayment(ctx context.Context, ledger repository.LedgerRepository, p *domain.Payment) (*domain.LedgerEntry, error) {
	if err := requirePositive("amount", p.Amount); err != nil {
		return nil, err
	}
	l.stamp(&p.ID, &p.Date, &p.CreatedAt, &p.UpdatedAt)
	p.State = domain.Active{}
	if err := ledger.CreatePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	tx, err := l.CreateLedgerEntry(ctx, ledger, domain.LedgerEntryInput{
		SourceType: domain.TransactionTypePayment, SourceID: p.ID, Amount: p.Amount, Date: p.Date,
		TenantID: p.TenantID, UserID: p.CreatedBy, BookingID: p.BookingID,
	})
	if err != nil {
		return nil, err
	}
	return &domain.LedgerEntry{Transaction: *tx, Payment: p}, nil
}

// AddRefund inserts a refund and its negative REFUND transaction.
func (l *LedgerEntries) AddRefund(ctx context.Context, ledger repository.LedgerRepository, r *domain.Refund) (*domain.LedgerEntry, error) {
	if err := requirePositive("amount", r.Amount); err != nil {
		return nil, err
	}
	l.stamp(&r.ID, &r.Date, &r.CreatedAt, &r.UpdatedAt)
	r.State = domain.Active{}
	if err := ledger.CreateRefund(ctx, r); err != nil {
		return nil, fmt.Errorf("create refund: %w", err)
	}
	tx, err := l.CreateLedgerEntry(ctx, ledger, domain.LedgerEntryInput{
		SourceType: domain.TransactionTypeRefund, SourceID: r.ID, Amount: r.Amount, Date: r.Date,
		TenantID: r.TenantID, UserID: r.CreatedBy, BookingID: r.BookingID,
	})
	if err != nil {
		return nil, err
	}
	return &domain.LedgerEntry{Transaction: *tx, Refund: r}, nil
}

// AddExpense inserts an expense and its EXPENSE transaction.
func (l *LedgerEntries) AddExpense(ctx context.Context, ledger repository.LedgerRepository, e *domain.Expense) (*domain.LedgerEntry, error) {
	if err := requirePositive("amount", e.Amount); err != nil {
		return nil, err
	}
	l.stamp(&e.ID, &e.Date, &e.CreatedAt, &e.UpdatedAt)
	e.State = domain.Active{}
	if err := ledger.CreateExpense(ctx, e); err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}
	tx, err := l.CreateLedgerEntry(ctx, ledger, domain.LedgerEntryInput{
		SourceType: domain.TransactionTypeExpense, SourceID: e.ID, Amount: e.Amount, Date: e.Date,
		TenantID: e.TenantID, UserID: e.CreatedBy, BookingID: e.BookingID,
	})
	if err != nil {
		return nil, err
	}
	return &domain.LedgerEntry{Transaction: *tx, Expense: e}, nil
}

func (l *LedgerEntries) stamp(id *uuid.UUID, date, createdAt, updatedAt *time.Time) {
	now := l.now().UTC()
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	if date.IsZero() {
		*date = now
	}
	*createdAt, *updatedAt = now, now
}

type ledgerService struct {
	txm     repository.TxManager
	repos   repository.Repositories
	entries *LedgerEntries
}

func NewLedgerService(txm repository.TxManager, repos repository.Repositories, entries *LedgerEntries) LedgerService {
	return &ledgerService{txm: txm, repos: repos, entries: entries}
}

func (s *ledgerService) RecordPayment(ctx context.Context, cmd domain.RecordPaymentCommand) (*domain.LedgerEntry, error) {
	logger.EnterMethod("ledgerService.RecordPayment", "tenantID", cmd.TenantID, "bookingID", cmd.BookingID)
	if err := validateStruct(cmd); err != nil {
		return nil, err
	}
	p := &domain.Payment{
		TenantID: cmd.TenantID, BookingID: cmd.BookingID, CustomerID: cmd.CustomerID, Amount: cmd.Amount,
		Method: cmd.Method, Reference: cmd.Reference, Date: cmd.Date, CreatedBy: cmd.UserID,
	}
	var entry *domain.LedgerEntry
	err := s.txm.WithinTx(ctx, DefaultTxOptions, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		entry, err = s.entries.AddPayment(ctx, repos.Ledger, p)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("ledgerService.RecordPayment", err)
		return nil, err
	}
	logger.ExitMethod("ledgerService.RecordPayment", "paymentID", p.ID)
	return entry, nil
}

func (s *ledgerService) RecordRefund(ctx context.Context, cmd domain.RecordRefundCommand) (*domain.LedgerEntry, error) {
	logger.EnterMethod("ledgerService.RecordRefund", "tenantID", cmd.TenantID, "bookingID", cmd.BookingID)
	if err := validateStruct(cmd); err != nil {
		return nil, err
	}
	r := &domain.Refund{
		TenantID: cmd.TenantID, BookingID: cmd.BookingID, PaymentID: cmd.PaymentID, Amount: cmd.Amount,
		Reason: cmd.Reason, Date: cmd.Date, CreatedBy: cmd.UserID,
	}
	var entry *domain.LedgerEntry
	err := s.txm.WithinTx(ctx, DefaultTxOptions, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		entry, err = s.entries.AddRefund(ctx, repos.Ledger, r)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("ledgerService.RecordRefund", err)
		return nil, err
	}
	logger.ExitMethod("ledgerService.RecordRefund", "refundID", r.ID)
	return entry, nil
}

func (s *ledgerService) RecordExpense(ctx context.Context, cmd domain.RecordExpenseCommand) (*domain.LedgerEntry, error) {
	logger.EnterMethod("ledgerService.RecordExpense", "tenantID", cmd.TenantID, "category", cmd.Category)
	if err := validateStruct(cmd); err != nil {
		return nil, err
	}
	e := &domain.Expense{
		TenantID: cmd.TenantID, BookingID: cmd.BookingID, VehicleID: cmd.VehicleID, Category: cmd.Category,
		Amount: cmd.Amount, Description: cmd.Description, Date: cmd.Date, CreatedBy: cmd.UserID,
	}
	var entry *domain.LedgerEntry
	err := s.txm.WithinTx(ctx, DefaultTxOptions, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		entry, err = s.entries.AddExpense(ctx, repos.Ledger, e)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("ledgerService.RecordExpense", err)
		return nil, err
	}
	logger.ExitMethod("ledgerService.RecordExpense", "expenseID", e.ID)
	return entry, nil
}

func (s *ledgerService) UpdatePayment(ctx context.Context, id uuid.UUID, cmd domain.RecordPaymentCommand) (*domain.LedgerEntry, error) {
	if err := validateStruct(cmd); err != nil {
		return nil, err
	}
	if err := requirePositive("amount", cmd.Amount); err != nil {
		return nil, err
	}
	var entry *domain.LedgerEntry
	err := s.txm.WithinTx(ctx, DefaultTxOptions, func(ctx context.Context, repos repository.Repositories) error {
		p, err := repos.Ledger.GetPayment(ctx, cmd.TenantID, id)
		if err != nil {
			return err
		}
		p.BookingID, p.CustomerID, p.Amount = cmd.BookingID, cmd.CustomerID, cmd.Amount
		p.Method, p.Reference = cmd.Method, cmd.Reference
		if !cmd.Date.IsZero() {
			p.Date = cmd.Date
		}
		p.UpdatedAt = s.entries.now().UTC()
		if err := repos.Ledger.UpdatePayment(ctx, p); err != nil {
			return err
		}
		tx, err := s.entries.UpdateLedgerEntry(ctx, repos.Ledger, domain.LedgerEntryInput{
			SourceType: domain.TransactionTypePayment, SourceID: p.ID, Amount: p.Amount, Date: p.Date,
			TenantID: p.TenantID, UserID: cmd.UserID, BookingID: p.BookingID,
		})
		if err != nil {
			return err
		}
		entry = &domain.LedgerEntry{Transaction: *tx, Payment: p}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *ledgerService) UpdateRefund(ctx context.Context, id uuid.UUID, cmd domain.RecordRefundCommand) (*domain.LedgerEntry, error) {
	if err := validateStruct(cmd); err != nil {
		return nil, err
	}
	if err := requirePositive("amount", cmd.Amount); err != nil {
		return nil, err
	}
	var entry *domain.LedgerEntry
	err := s.txm.WithinTx(ctx, DefaultTxOptions, func(ctx context.Context, repos repository.Repositories) error {
		r, err := repos.Ledger.GetRefund(ctx, cmd.TenantID, id)
		if err != nil {
			return err
		}
		r.BookingID, r.PaymentID, r.Amount, r.Reason = cmd.BookingID, cmd.PaymentID, cmd.Amount, cmd.Reason
		if !cmd.Date.IsZero() {
			r.Date = cmd.Date
		}
		r.UpdatedAt = s.entries.now().UTC()
		if err := repos.Ledger.UpdateRefund(ctx, r); err != nil {
			return err
		}
		tx, err := s.entries.UpdateLedgerEntry(ctx, repos.Ledger, domain.LedgerEntryInput{
			SourceType: domain.TransactionTypeRefund, SourceID: r.ID, Amount: r.Amount, Date: r.Date,
			TenantID: r.TenantID, UserID: cmd.UserID, BookingID: r.BookingID,
		})
		if err != nil {
			return err
		}
		entry = &domain.LedgerEntry{Transaction: *tx, Refund: r}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *ledgerService) UpdateExpense(ctx context.Context, id uuid.UUID, cmd domain.RecordExpenseCommand) (*domain.LedgerEntry, error) {
	if err := validateStruct(cmd); err != nil {
		return nil, err
	}
	if err := requirePositive("amount", cmd.Amount); err != nil {
		return nil, err
	}
	var entry *domain.LedgerEntry
	err := s.txm.WithinTx(ctx, DefaultTxOptions, func(ctx context.Context, repos repository.Repositories) error {
		e, err := repos.Ledger.GetExpense(ctx, cmd.TenantID, id)
		if err != nil {
			return err
		}
		e.BookingID, e.VehicleID, e.Category = cmd.BookingID, cmd.VehicleID, cmd.Category
		e.Amount, e.Description = cmd.Amount, cmd.Description
		if !cmd.Date.IsZero() {
			e.Date = cmd.Date
		}
		e.UpdatedAt = s.entries.now().UTC()
		if err := repos.Ledger.UpdateExpense(ctx, e); err != nil {
			return err
		}
		tx, err := s.entries.UpdateLedgerEntry(ctx, repos.Ledger, domain.LedgerEntryInput{
			SourceType: domain.TransactionTypeExpense, SourceID: e.ID, Amount: e.Amount, Date: e.Date,
			TenantID: e.TenantID, UserID: cmd.UserID, BookingID: e.BookingID,
		})
		if err != nil {
			return err
		}
		entry = &domain.LedgerEntry{Transaction: *tx, Expense: e}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *ledgerService) DeletePayment(ctx context.Context, tenantID, id, userID uuid.UUID) error {
	return s.txm.WithinTx(ctx, DefaultTxOptions, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Ledger.SoftDeletePayment(ctx, tenantID, id, s.entries.now().UTC()); err != nil {
			return err
		}
		return s.entries.VoidLedgerEntry(ctx, repos.Ledger, tenantID, userID, domain.TransactionTypePayment, id)
	})
}

func (s *ledgerService) DeleteRefund(ctx context.Context, tenantID, id, userID uuid.UUID) error {
	return s.txm.WithinTx(ctx, DefaultTxOptions, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Ledger.SoftDeleteRefund(ctx, tenantID, id, s.entries.now().UTC()); err != nil {
			return err
		}
		return s.entries.VoidLedgerEntry(ctx, repos.Ledger, tenantID, userID, domain.TransactionTypeRefund, id)
	})
}

func (s *ledgerService) DeleteExpense(ctx context.Context, tenantID, id, userID uuid.UUID) error {
	return s.txm.WithinTx(ctx, DefaultTxOptions, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Ledger.SoftDeleteExpense(ctx, tenantID, id, s.entries.now().UTC()); err != nil {
			return err
		}
		return s.entries.VoidLedgerEntry(ctx, repos.Ledger, tenantID, userID, domain.TransactionTypeExpense, id)
	})
}

func (s *ledgerService) GetTenantTransactions(ctx context.Context, tenantID uuid.UUID) ([]domain.LedgerEntry, error) {
	return s.repos.Ledger.ListTenantEntries(ctx, tenantID)
}

func (s *ledgerService) GetBalance(ctx context.Context, tenantID uuid.UUID, bookingID *uuid.UUID) (*domain.Balance, error) {
	amount, err := s.repos.Ledger.Balance(ctx, tenantID, bookingID)
	if err != nil {
		return nil, err
	}
	return &domain.Balance{TenantID: tenantID, BookingID: bookingID, Amount: amount}, nil
}
