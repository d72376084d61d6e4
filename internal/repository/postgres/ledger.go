package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rentflow-backend/internal/domain"
	"rentflow-backend/internal/logger"
	"rentflow-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const transactionColumns = `t.id, t.tenant_id, t.type, t.amount, t.date, t.booking_id, t.payment_id, t.refund_id, t.expense_id,
	t.created_by, t.updated_by, t.created_at, t.updated_at, t.deleted_at`

type ledgerRepository struct {
	db DBTX
}

func NewLedgerRepository(db DBTX) repository.LedgerRepository {
	return &ledgerRepository{db: db}
}

func uuidPtr(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}

func sourceColumn(t domain.TransactionType) (string, error) {
	switch t {
	case domain.TransactionTypePayment:
		return "payment_id", nil
	case domain.TransactionTypeRefund:
		return "refund_id", nil
	case domain.TransactionTypeExpense:
		return "expense_id", nil
	}
	return "", domain.NewValidationError("type", fmt.Sprintf("unknown transaction type %q", t))
}

func scanTransaction(row rowScanner, extra ...any) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	var bookingID, paymentID, refundID, expenseID uuid.NullUUID
	var deletedAt sql.NullTime
	dest := []any{&t.ID, &t.TenantID, &t.Type, &t.Amount, &t.Date, &bookingID, &paymentID, &refundID, &expenseID,
		&t.CreatedBy, &t.UpdatedBy, &t.CreatedAt, &t.UpdatedAt, &deletedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	t.BookingID = uuidPtr(bookingID)
	t.PaymentID = uuidPtr(paymentID)
	t.RefundID = uuidPtr(refundID)
	t.ExpenseID = uuidPtr(expenseID)
	t.State = domain.StateFromColumn(deletedAt)
	return t, nil
}

func (r *ledgerRepository) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	query := `INSERT INTO transactions (id, tenant_id, type, amount, date, booking_id, payment_id, refund_id, expense_id,
	          created_by, updated_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	logger.DatabaseCall("INSERT", "transactions", "type", t.Type, "sourceID", t.SourceID())
	_, err := r.db.ExecContext(ctx, query, t.ID, t.TenantID, string(t.Type), t.Amount, t.Date, t.BookingID, t.PaymentID, t.RefundID, t.ExpenseID,
		t.CreatedBy, t.UpdatedBy, t.CreatedAt, t.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "transactionID", t.ID)
	return err
}

// GetTransactionBySource returns the live transaction mirroring the source.
func (r *ledgerRepository) GetTransactionBySource(ctx context.Context, tenantID uuid.UUID, sourceType domain.TransactionType, sourceID uuid.UUID) (*domain.Transaction, error) {
	col, err := sourceColumn(sourceType)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + transactionColumns + ` FROM transactions t
	          WHERE t.tenant_id = $1 AND t.` + col + ` = $2 AND t.deleted_at IS NULL`
	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, tenantID, sourceID))
	if err != nil {
		return nil, notFound(err, "transaction for "+string(sourceType), sourceID)
	}
	return t, nil
}

func (r *ledgerRepository) UpdateTransaction(ctx context.Context, t *domain.Transaction) error {
	query := `UPDATE transactions SET amount = $1, date = $2, booking_id = $3, updated_by = $4, updated_at = $5
	          WHERE tenant_id = $6 AND id = $7 AND deleted_at IS NULL`
	logger.DatabaseCall("UPDATE", "transactions", "transactionID", t.ID)
	res, err := r.db.ExecContext(ctx, query, t.Amount, t.Date, t.BookingID, t.UpdatedBy, t.UpdatedAt, t.TenantID, t.ID)
	if err != nil {
		return err
	}
	return requireOne(res, "transaction", t.ID)
}

func (r *ledgerRepository) SoftDeleteTransaction(ctx context.Context, tenantID, id, userID uuid.UUID, at time.Time) error {
	query := `UPDATE transactions SET deleted_at = $1, deleted_by = $2, updated_by = $2, updated_at = $1
	          WHERE tenant_id = $3 AND id = $4 AND deleted_at IS NULL`
	logger.DatabaseCall("UPDATE", "transactions", "transactionID", id, "op", "soft delete")
	res, err := r.db.ExecContext(ctx, query, at, userID, tenantID, id)
	if err != nil {
		return err
	}
	return requireOne(res, "transaction", id)
}

func (r *ledgerRepository) ListTransactionsByBooking(ctx context.Context, tenantID, bookingID uuid.UUID) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions t
	          WHERE t.tenant_id = $1 AND t.booking_id = $2 AND t.deleted_at IS NULL ORDER BY t.date`
	rows, err := r.db.QueryContext(ctx, query, tenantID, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// ListTenantEntries joins each live transaction to its source and booking in
// one round trip.
func (r *ledgerRepository) ListTenantEntries(ctx context.Context, tenantID uuid.UUID) ([]domain.LedgerEntry, error) {
	query := `SELECT ` + transactionColumns + `,
	          COALESCE(b.booking_code, ''),
	          COALESCE(p.method, ''), COALESCE(p.reference, ''),
	          COALESCE(rf.reason, ''),
	          COALESCE(e.category, ''), COALESCE(e.description, '')
	          FROM transactions t
	          LEFT JOIN bookings b ON b.id = t.booking_id
	          LEFT JOIN payments p ON p.id = t.payment_id
	          LEFT JOIN refunds rf ON rf.id = t.refund_id
	          LEFT JOIN expenses e ON e.id = t.expense_id
	          WHERE t.tenant_id = $1 AND t.deleted_at IS NULL
	          ORDER BY t.date DESC`
	logger.DatabaseCall("SELECT", "transactions", "tenantID", tenantID, "op", "ledger")
	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LedgerEntry
	for rows.Next() {
		var code, method, reference, reason, category, description string
		t, err := scanTransaction(rows, &code, &method, &reference, &reason, &category, &description)
		if err != nil {
			return nil, err
		}
		entry := domain.LedgerEntry{Transaction: *t, BookingCode: code}
		amount := t.Amount.Abs()
		switch {
		case t.PaymentID != nil:
			entry.Payment = &domain.Payment{ID: *t.PaymentID, TenantID: tenantID, BookingID: t.BookingID, Amount: amount, Method: method, Reference: reference, Date: t.Date}
		case t.RefundID != nil:
			entry.Refund = &domain.Refund{ID: *t.RefundID, TenantID: tenantID, BookingID: t.BookingID, Amount: amount, Reason: reason, Date: t.Date}
		case t.ExpenseID != nil:
			entry.Expense = &domain.Expense{ID: *t.ExpenseID, TenantID: tenantID, BookingID: t.BookingID, Amount: amount, Category: category, Description: description, Date: t.Date}
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (r *ledgerRepository) Balance(ctx context.Context, tenantID uuid.UUID, bookingID *uuid.UUID) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM transactions
	          WHERE tenant_id = $1 AND deleted_at IS NULL AND ($2::uuid IS NULL OR booking_id = $2)`
	var total decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, tenantID, bookingID).Scan(&total)
	return total, err
}

func (r *ledgerRepository) CreatePayment(ctx context.Context, p *domain.Payment) error {
	query := `INSERT INTO payments (id, tenant_id, booking_id, customer_id, amount, method, reference, date, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	logger.DatabaseCall("INSERT", "payments", "paymentID", p.ID)
	_, err := r.db.ExecContext(ctx, query, p.ID, p.TenantID, p.BookingID, p.CustomerID, p.Amount, p.Method, p.Reference, p.Date, p.CreatedBy, p.CreatedAt, p.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "paymentID", p.ID)
	return err
}

func (r *ledgerRepository) GetPayment(ctx context.Context, tenantID, id uuid.UUID) (*domain.Payment, error) {
	p := &domain.Payment{}
	var bookingID, customerID uuid.NullUUID
	var deletedAt sql.NullTime
	query := `SELECT id, tenant_id, booking_id, customer_id, amount, method, reference, date, created_by, created_at, updated_at, deleted_at
	          FROM payments WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`
	err := r.db.QueryRowContext(ctx, query, tenantID, id).Scan(&p.ID, &p.TenantID, &bookingID, &customerID, &p.Amount, &p.Method, &p.Reference, &p.Date, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, notFound(err, "payment", id)
	}
	p.BookingID = uuidPtr(bookingID)
	p.CustomerID = uuidPtr(customerID)
	p.State = domain.StateFromColumn(deletedAt)
	return p, nil
}

func (r *ledgerRepository) UpdatePayment(ctx context.Context, p *domain.Payment) error {
	query := `UPDATE payments SET booking_id = $1, customer_id = $2, amount = $3, method = $4, reference = $5, date = $6, updated_at = $7
	          WHERE tenant_id = $8 AND id = $9 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, p.BookingID, p.CustomerID, p.Amount, p.Method, p.Reference, p.Date, p.UpdatedAt, p.TenantID, p.ID)
	if err != nil {
		return err
	}
	return requireOne(res, "payment", p.ID)
}

func (r *ledgerRepository) SoftDeletePayment(ctx context.Context, tenantID, id uuid.UUID, at time.Time) error {
	return r.softDelete(ctx, "payments", "payment", tenantID, id, at)
}

func (r *ledgerRepository) CreateRefund(ctx context.Context, rf *domain.Refund) error {
	query := `INSERT INTO refunds (id, tenant_id, booking_id, payment_id, amount, reason, date, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	logger.DatabaseCall("INSERT", "refunds", "refundID", rf.ID)
	_, err := r.db.ExecContext(ctx, query, rf.ID, rf.TenantID, rf.BookingID, rf.PaymentID, rf.Amount, rf.Reason, rf.Date, rf.CreatedBy, rf.CreatedAt, rf.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "refundID", rf.ID)
	return err
}

func (r *ledgerRepository) GetRefund(ctx context.Context, tenantID, id uuid.UUID) (*domain.Refund, error) {
	rf := &domain.Refund{}
	var bookingID, paymentID uuid.NullUUID
	var deletedAt sql.NullTime
	query := `SELECT id, tenant_id, booking_id, payment_id, amount, reason, date, created_by, created_at, updated_at, deleted_at
	          FROM refunds WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`
	err := r.db.QueryRowContext(ctx, query, tenantID, id).Scan(&rf.ID, &rf.TenantID, &bookingID, &paymentID, &rf.Amount, &rf.Reason, &rf.Date, &rf.CreatedBy, &rf.CreatedAt, &rf.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, notFound(err, "refund", id)
	}
	rf.BookingID = uuidPtr(bookingID)
	rf.PaymentID = uuidPtr(paymentID)
	rf.State = domain.StateFromColumn(deletedAt)
	return rf, nil
}

func (r *ledgerRepository) UpdateRefund(ctx context.Context, rf *domain.Refund) error {
	query := `UPDATE refunds SET booking_id = $1, payment_id = $2, amount = $3, reason = $4, date = $5, updated_at = $6
	          WHERE tenant_id = $7 AND id = $8 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, rf.BookingID, rf.PaymentID, rf.Amount, rf.Reason, rf.Date, rf.UpdatedAt, rf.TenantID, rf.ID)
	if err != nil {
		return err
	}
	return requireOne(res, "refund", rf.ID)
}

func (r *ledgerRepository) SoftDeleteRefund(ctx context.Context, tenantID, id uuid.UUID, at time.Time) error {
	return r.softDelete(ctx, "refunds", "refund", tenantID, id, at)
}

func (r *ledgerRepository) CreateExpense(ctx context.Context, e *domain.Expense) error {
	query := `INSERT INTO expenses (id, tenant_id, booking_id, vehicle_id, category, amount, description, date, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	logger.DatabaseCall("INSERT", "expenses", "expenseID", e.ID)
	_, err := r.db.ExecContext(ctx, query, e.ID, e.TenantID, e.BookingID, e.VehicleID, e.Category, e.Amount, e.Description, e.Date, e.CreatedBy, e.CreatedAt, e.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "expenseID", e.ID)
	return err
}

func (r *ledgerRepository) GetExpense(ctx context.Context, tenantID, id uuid.UUID) (*domain.Expense, error) {
	e := &domain.Expense{}
	var bookingID, vehicleID uuid.NullUUID
	var deletedAt sql.NullTime
	query := `SELECT id, tenant_id, booking_id, vehicle_id, category, amount, description, date, created_by, created_at, updated_at, deleted_at
	          FROM expenses WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`
	err := r.db.QueryRowContext(ctx, query, tenantID, id).Scan(&e.ID, &e.TenantID, &bookingID, &vehicleID, &e.Category, &e.Amount, &e.Description, &e.Date, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, notFound(err, "expense", id)
	}
	e.BookingID = uuidPtr(bookingID)
	e.VehicleID = uuidPtr(vehicleID)
	e.State = domain.StateFromColumn(deletedAt)
	return e, nil
}

func (r *ledgerRepository) UpdateExpense(ctx context.Context, e *domain.Expense) error {
	query := `UPDATE expenses SET booking_id = $1, vehicle_id = $2, category = $3, amount = $4, description = $5, date = $6, updated_at = $7
	          WHERE tenant_id = $8 AND id = $9 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, e.BookingID, e.VehicleID, e.Category, e.Amount, e.Description, e.Date, e.UpdatedAt, e.TenantID, e.ID)
	if err != nil {
		return err
	}
	return requireOne(res, "expense", e.ID)
}

func (r *ledgerRepository) SoftDeleteExpense(ctx context.Context, tenantID, id uuid.UUID, at time.Time) error {
	return r.softDelete(ctx, "expenses", "expense", tenantID, id, at)
}

func (r *ledgerRepository) softDelete(ctx context.Context, table, entity string, tenantID, id uuid.UUID, at time.Time) error {
	query := `UPDATE ` + table + ` SET deleted_at = $1, updated_at = $1 WHERE tenant_id = $2 AND id = $3 AND deleted_at IS NULL`
	logger.DatabaseCall("UPDATE", table, "id", id, "op", "soft delete")
	res, err := r.db.ExecContext(ctx, query, at, tenantID, id)
	if err != nil {
		return err
	}
	return requireOne(res, entity, id)
}
