package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"rentflow-backend/internal/domain"
	"rentflow-backend/internal/logger"
	"rentflow-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const bookingColumns = `id, tenant_id, rental_number, booking_code, status, start_date, end_date, pickup_location, return_location,
	vehicle_id, values_snapshot, extras, created_by, updated_by, created_at, updated_at, deleted_at`

type bookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) repository.BookingRepository {
	return &bookingRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	b := &domain.Booking{}
	var values, extras []byte
	var deletedAt sql.NullTime
	err := row.Scan(&b.ID, &b.TenantID, &b.RentalNumber, &b.BookingCode, &b.Status, &b.StartDate, &b.EndDate,
		&b.PickupLocation, &b.ReturnLocation, &b.VehicleID, &values, &extras, &b.CreatedBy, &b.UpdatedBy,
		&b.CreatedAt, &b.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(values, &b.Values); err != nil {
		return nil, fmt.Errorf("decode values snapshot: %w", err)
	}
	if len(extras) > 0 {
		if err := json.Unmarshal(extras, &b.Extras); err != nil {
			return nil, fmt.Errorf("decode extras: %w", err)
		}
	}
	b.State = domain.StateFromColumn(deletedAt)
	return b, nil
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	logger.EnterMethod("bookingRepository.Create", "tenantID", b.TenantID, "bookingCode", b.BookingCode)

	values, err := json.Marshal(b.Values)
	if err != nil {
		return err
	}
	extras := b.Extras
	if extras == nil {
		extras = []domain.Extra{}
	}
	extrasJSON, err := json.Marshal(extras)
	if err != nil {
		return err
	}

	query := `INSERT INTO bookings (id, tenant_id, rental_number, booking_code, status, start_date, end_date, pickup_location,
	          return_location, vehicle_id, values_snapshot, extras, created_by, updated_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	logger.DatabaseCall("INSERT", "bookings", "bookingID", b.ID)
	_, err = r.db.ExecContext(ctx, query, b.ID, b.TenantID, b.RentalNumber, b.BookingCode, string(b.Status), b.StartDate, b.EndDate,
		b.PickupLocation, b.ReturnLocation, b.VehicleID, values, extrasJSON, b.CreatedBy, b.UpdatedBy, b.CreatedAt, b.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "bookingID", b.ID)
	if err != nil {
		logger.ExitMethodWithError("bookingRepository.Create", err)
		return mapError(err)
	}

	driverQuery := `INSERT INTO booking_drivers (id, booking_id, customer_id, name, email, phone, is_primary)
	                VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for i := range b.Drivers {
		d := &b.Drivers[i]
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
		d.BookingID = b.ID
		if _, err := r.db.ExecContext(ctx, driverQuery, d.ID, b.ID, d.CustomerID, d.Name, d.Email, d.Phone, d.IsPrimary); err != nil {
			logger.ExitMethodWithError("bookingRepository.Create", err, "reason", "driver insert failed")
			return err
		}
	}

	logger.ExitMethod("bookingRepository.Create", "bookingID", b.ID)
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Booking, error) {
	return r.get(ctx, tenantID, id, "")
}

func (r *bookingRepository) GetForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*domain.Booking, error) {
	return r.get(ctx, tenantID, id, " FOR UPDATE")
}

func (r *bookingRepository) get(ctx context.Context, tenantID, id uuid.UUID, lock string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL` + lock
	logger.DatabaseCall("SELECT", "bookings", "bookingID", id, "lock", lock != "")
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		return nil, notFound(err, "booking", id)
	}
	drivers, err := r.listDrivers(ctx, []uuid.UUID{b.ID})
	if err != nil {
		return nil, err
	}
	b.Drivers = drivers[b.ID]
	return b, nil
}

func (r *bookingRepository) listDrivers(ctx context.Context, bookingIDs []uuid.UUID) (map[uuid.UUID][]domain.Driver, error) {
	ids := make([]string, len(bookingIDs))
	for i, id := range bookingIDs {
		ids[i] = id.String()
	}
	query := `SELECT id, booking_id, customer_id, name, email, phone, is_primary
	          FROM booking_drivers WHERE booking_id = ANY($1::uuid[]) ORDER BY is_primary DESC, name`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]domain.Driver, len(bookingIDs))
	for rows.Next() {
		var d domain.Driver
		if err := rows.Scan(&d.ID, &d.BookingID, &d.CustomerID, &d.Name, &d.Email, &d.Phone, &d.IsPrimary); err != nil {
			return nil, err
		}
		out[d.BookingID] = append(out[d.BookingID], d)
	}
	return out, rows.Err()
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, b *domain.Booking) error {
	query := `UPDATE bookings SET status = $1, updated_by = $2, updated_at = $3 WHERE tenant_id = $4 AND id = $5 AND deleted_at IS NULL`
	logger.DatabaseCall("UPDATE", "bookings", "bookingID", b.ID, "status", b.Status)
	res, err := r.db.ExecContext(ctx, query, string(b.Status), b.UpdatedBy, b.UpdatedAt, b.TenantID, b.ID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "bookingID", b.ID)
		return err
	}
	return requireOne(res, "booking", b.ID)
}

func (r *bookingRepository) UpdateValues(ctx context.Context, b *domain.Booking) error {
	values, err := json.Marshal(b.Values)
	if err != nil {
		return err
	}
	query := `UPDATE bookings SET values_snapshot = $1, updated_by = $2, updated_at = $3 WHERE tenant_id = $4 AND id = $5 AND deleted_at IS NULL`
	logger.DatabaseCall("UPDATE", "bookings", "bookingID", b.ID, "field", "values_snapshot")
	res, err := r.db.ExecContext(ctx, query, values, b.UpdatedBy, b.UpdatedAt, b.TenantID, b.ID)
	if err != nil {
		return err
	}
	return requireOne(res, "booking", b.ID)
}

func (r *bookingRepository) List(ctx context.Context, tenantID uuid.UUID, filter domain.BookingFilter) ([]domain.Booking, int32, error) {
	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	where := `tenant_id = $1 AND deleted_at IS NULL`
	args := []any{tenantID}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		where += ` AND status = ANY($2)`
		args = append(args, pq.Array(statuses))
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM bookings WHERE `+where, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE %s ORDER BY start_date DESC LIMIT $%d OFFSET $%d`,
		bookingColumns, where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, query, append(args, pageSize, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	var ids []uuid.UUID
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, *b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return bookings, count, nil
	}

	drivers, err := r.listDrivers(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range bookings {
		bookings[i].Drivers = drivers[bookings[i].ID]
	}
	return bookings, count, nil
}

// ListExpirable spans all tenants; the expiry job runs as the system.
func (r *bookingRepository) ListExpirable(ctx context.Context, cutoff time.Time, after *domain.ExpiryCursor, limit int) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE status = $1 AND start_date < $2 AND deleted_at IS NULL`
	args := []any{string(domain.BookingStatusPending), cutoff}
	if after != nil {
		query += ` AND (start_date, id) > ($3, $4)`
		args = append(args, after.StartDate, after.ID)
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY start_date, id LIMIT $%d`, len(args))
	logger.DatabaseCall("SELECT", "bookings", "cutoff", cutoff, "limit", limit, "resume", after != nil)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *bookingRepository) SoftDelete(ctx context.Context, tenantID, id, userID uuid.UUID, at time.Time) error {
	query := `UPDATE bookings SET deleted_at = $1, deleted_by = $2, updated_by = $2, updated_at = $1
	          WHERE tenant_id = $3 AND id = $4 AND deleted_at IS NULL`
	logger.DatabaseCall("UPDATE", "bookings", "bookingID", id, "op", "soft delete")
	res, err := r.db.ExecContext(ctx, query, at, userID, tenantID, id)
	if err != nil {
		return err
	}
	return requireOne(res, "booking", id)
}
