package postgres

import (
	"context"
	"time"

	"rentflow-backend/internal/domain"
	"rentflow-backend/internal/logger"
	"rentflow-backend/internal/repository"

	"github.com/google/uuid"
)

type documentRepository struct {
	db DBTX
}

func NewDocumentRepository(db DBTX) repository.DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) GetInvoiceByBooking(ctx context.Context, tenantID, bookingID uuid.UUID) (*domain.Invoice, error) {
	inv := &domain.Invoice{}
	query := `SELECT id, tenant_id, booking_id, number, url, created_by, created_at, updated_at
	          FROM invoices WHERE tenant_id = $1 AND booking_id = $2`
	err := r.db.QueryRowContext(ctx, query, tenantID, bookingID).Scan(&inv.ID, &inv.TenantID, &inv.BookingID, &inv.Number, &inv.URL, &inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "invoice for booking", bookingID)
	}
	return inv, nil
}

// CreateInvoice leaves an existing row for the booking untouched.
func (r *documentRepository) CreateInvoice(ctx context.Context, inv *domain.Invoice) (bool, error) {
	query := `INSERT INTO invoices (id, tenant_id, booking_id, number, url, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          ON CONFLICT (booking_id) DO NOTHING`
	logger.DatabaseCall("INSERT", "invoices", "bookingID", inv.BookingID, "number", inv.Number)
	res, err := r.db.ExecContext(ctx, query, inv.ID, inv.TenantID, inv.BookingID, inv.Number, inv.URL, inv.CreatedBy, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return false, mapError(err)
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("INSERT", n, err, "bookingID", inv.BookingID)
	return n == 1, err
}

func (r *documentRepository) UpdateInvoiceURL(ctx context.Context, tenantID, bookingID uuid.UUID, url string) error {
	query := `UPDATE invoices SET url = $1, updated_at = $2 WHERE tenant_id = $3 AND booking_id = $4`
	res, err := r.db.ExecContext(ctx, query, url, time.Now().UTC(), tenantID, bookingID)
	if err != nil {
		return err
	}
	return requireOne(res, "invoice for booking", bookingID)
}

func (r *documentRepository) GetAgreementByBooking(ctx context.Context, tenantID, bookingID uuid.UUID) (*domain.Agreement, error) {
	a := &domain.Agreement{}
	query := `SELECT id, tenant_id, booking_id, number, url, signable_url, signature_request_id, created_by, created_at, updated_at
	          FROM agreements WHERE tenant_id = $1 AND booking_id = $2`
	err := r.db.QueryRowContext(ctx, query, tenantID, bookingID).Scan(&a.ID, &a.TenantID, &a.BookingID, &a.Number, &a.URL, &a.SignableURL, &a.SignatureRequestID, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "agreement for booking", bookingID)
	}
	return a, nil
}

func (r *documentRepository) CreateAgreement(ctx context.Context, a *domain.Agreement) (bool, error) {
	query := `INSERT INTO agreements (id, tenant_id, booking_id, number, url, signable_url, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          ON CONFLICT (booking_id) DO NOTHING`
	logger.DatabaseCall("INSERT", "agreements", "bookingID", a.BookingID, "number", a.Number)
	res, err := r.db.ExecContext(ctx, query, a.ID, a.TenantID, a.BookingID, a.Number, a.URL, a.SignableURL, a.CreatedBy, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return false, mapError(err)
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("INSERT", n, err, "bookingID", a.BookingID)
	return n == 1, err
}

func (r *documentRepository) UpdateAgreementURLs(ctx context.Context, tenantID, bookingID uuid.UUID, url, signableURL string) error {
	query := `UPDATE agreements SET url = $1, signable_url = $2, updated_at = $3 WHERE tenant_id = $4 AND booking_id = $5`
	res, err := r.db.ExecContext(ctx, query, url, signableURL, time.Now().UTC(), tenantID, bookingID)
	if err != nil {
		return err
	}
	return requireOne(res, "agreement for booking", bookingID)
}

func (r *documentRepository) SetSignatureRequest(ctx context.Context, tenantID, bookingID uuid.UUID, requestID string) error {
	query := `UPDATE agreements SET signature_request_id = $1, updated_at = $2 WHERE tenant_id = $3 AND booking_id = $4`
	res, err := r.db.ExecContext(ctx, query, requestID, time.Now().UTC(), tenantID, bookingID)
	if err != nil {
		return err
	}
	return requireOne(res, "agreement for booking", bookingID)
}
