package postgres

import (
	"context"

	"rentflow-backend/internal/domain"
	"rentflow-backend/internal/logger"
	"rentflow-backend/internal/repository"

	"github.com/google/uuid"
)

type activityRepository struct {
	db DBTX
}

func NewActivityRepository(db DBTX) repository.ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, a *domain.BookingActivity) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	query := `INSERT INTO booking_activities (id, tenant_id, booking_id, customer_id, action, note, created_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	logger.DatabaseCall("INSERT", "booking_activities", "bookingID", a.BookingID, "action", a.Action)
	_, err := r.db.ExecContext(ctx, query, a.ID, a.TenantID, a.BookingID, a.CustomerID, string(a.Action), a.Note, a.CreatedBy, a.CreatedAt)
	logger.DatabaseResult("INSERT", 1, err, "activityID", a.ID)
	return err
}

func (r *activityRepository) ListByBooking(ctx context.Context, tenantID, bookingID uuid.UUID) ([]domain.BookingActivity, error) {
	query := `SELECT id, tenant_id, booking_id, customer_id, action, note, created_by, created_at
	          FROM booking_activities WHERE tenant_id = $1 AND booking_id = $2 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, tenantID, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.BookingActivity
	for rows.Next() {
		var a domain.BookingActivity
		if err := rows.Scan(&a.ID, &a.TenantID, &a.BookingID, &a.CustomerID, &a.Action, &a.Note, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
