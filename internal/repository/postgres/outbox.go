package postgres

import (
	"context"
	"time"

	"rentflow-backend/internal/domain"
	"rentflow-backend/internal/logger"
	"rentflow-backend/internal/repository"

	"github.com/google/uuid"
)

type outboxRepository struct {
	db DBTX
}

func NewOutboxRepository(db DBTX) repository.OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) Enqueue(ctx context.Context, e *domain.OutboxEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = domain.OutboxStatusPending
	}
	payload := []byte(e.Payload)
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	query := `INSERT INTO outbox (id, tenant_id, booking_id, user_id, kind, payload, status, attempts, available_at, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	logger.DatabaseCall("INSERT", "outbox", "kind", e.Kind, "bookingID", e.BookingID)
	_, err := r.db.ExecContext(ctx, query, e.ID, e.TenantID, e.BookingID, e.UserID, string(e.Kind), payload, string(e.Status), e.Attempts, e.AvailableAt, e.CreatedAt)
	logger.DatabaseResult("INSERT", 1, err, "outboxID", e.ID)
	return err
}

// ClaimDue must run inside a transaction; the row locks are what keep two
// workers off the same entry.
func (r *outboxRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.OutboxEntry, error) {
	query := `SELECT id, tenant_id, booking_id, user_id, kind, payload, status, attempts, last_error, available_at, created_at
	          FROM outbox WHERE status = $1 AND available_at <= $2
	          ORDER BY available_at LIMIT $3
	          FOR UPDATE SKIP LOCKED`
	rows, err := r.db.QueryContext(ctx, query, string(domain.OutboxStatusPending), now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OutboxEntry
	for rows.Next() {
		var e domain.OutboxEntry
		var bookingID uuid.NullUUID
		var payload []byte
		if err := rows.Scan(&e.ID, &e.TenantID, &bookingID, &e.UserID, &e.Kind, &payload, &e.Status, &e.Attempts, &e.LastError, &e.AvailableAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.BookingID = uuidPtr(bookingID)
		e.Payload = payload
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *outboxRepository) MarkDone(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE outbox SET status = $1, attempts = attempts + 1, last_error = '' WHERE id = $2`,
		string(domain.OutboxStatusDone), id)
	return err
}

func (r *outboxRepository) MarkRetry(ctx context.Context, id uuid.UUID, attempts int, lastErr string, availableAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE outbox SET attempts = $1, last_error = $2, available_at = $3 WHERE id = $4`,
		attempts, lastErr, availableAt, id)
	return err
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE outbox SET status = $1, attempts = $2, last_error = $3 WHERE id = $4`,
		string(domain.OutboxStatusFailed), attempts, lastErr, id)
	return err
}
