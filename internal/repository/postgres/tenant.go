package postgres

import (
	"context"
	"time"

	"rentflow-backend/internal/domain"
	"rentflow-backend/internal/logger"
	"rentflow-backend/internal/repository"

	"github.com/google/uuid"
)

type tenantRepository struct {
	db DBTX
}

func NewTenantRepository(db DBTX) repository.TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) Create(ctx context.Context, t *domain.Tenant) error {
	logger.DatabaseCall("INSERT", "tenants", "tenantID", t.ID, "code", t.Code)
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	query := `INSERT INTO tenants (id, code, name, email, currency, invoice_prefix_template, agreement_prefix_template, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query, t.ID, t.Code, t.Name, t.Email, t.Currency, t.InvoicePrefixTemplate, t.AgreementPrefixTemplate, now, now)
	logger.DatabaseResult("INSERT", 1, err, "tenantID", t.ID)
	if err != nil {
		return mapError(err)
	}

	// Every tenant starts with the vehicle status records the booking
	// lifecycle moves between.
	statusQuery := `INSERT INTO vehicle_statuses (id, tenant_id, name) VALUES ($1, $2, $3)
	                ON CONFLICT (tenant_id, name) DO NOTHING`
	for _, name := range []string{domain.VehicleStatusAvailable, domain.VehicleStatusRented, domain.VehicleStatusPendingInspection} {
		if _, err := r.db.ExecContext(ctx, statusQuery, uuid.New(), t.ID, name); err != nil {
			return err
		}
	}
	return nil
}

func (r *tenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	t := &domain.Tenant{}
	query := `SELECT id, code, name, email, currency, invoice_prefix_template, agreement_prefix_template, created_at, updated_at
	          FROM tenants WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Code, &t.Name, &t.Email, &t.Currency, &t.InvoicePrefixTemplate, &t.AgreementPrefixTemplate, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "tenant", id)
	}
	return t, nil
}
