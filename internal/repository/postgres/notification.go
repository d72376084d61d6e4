package postgres

import (
	"context"
	"encoding/json"

	"rentflow-backend/internal/domain"
	"rentflow-backend/internal/logger"
	"rentflow-backend/internal/repository"

	"github.com/google/uuid"
)

type notificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	logger.EnterMethod("notificationRepository.Create", "tenantID", n.TenantID, "title", n.Title)

	attrs, err := json.Marshal(n.Attributes)
	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "reason", "failed to marshal attributes")
		return err
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}

	query := `INSERT INTO notifications (id, tenant_id, title, message, is_read, attributes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	logger.DatabaseCall("INSERT", "notifications", "tenantID", n.TenantID)
	_, err = r.db.ExecContext(ctx, query, n.ID, n.TenantID, n.Title, n.Message, n.IsRead, attrs, n.CreatedAt)
	logger.DatabaseResult("INSERT", 1, err, "notificationID", n.ID)
	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err)
		return err
	}

	logger.ExitMethod("notificationRepository.Create", "notificationID", n.ID)
	return nil
}

func (r *notificationRepository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int32) ([]domain.Notification, int32, error) {
	logger.EnterMethod("notificationRepository.List", "tenantID", tenantID, "limit", limit, "offset", offset)

	var count int32
	countQuery := `SELECT count(*) FROM notifications WHERE tenant_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, tenantID).Scan(&count); err != nil {
		logger.ExitMethodWithError("notificationRepository.List", err, "reason", "count failed")
		return nil, 0, err
	}

	query := `SELECT id, tenant_id, title, message, is_read, attributes, created_at
	          FROM notifications WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, tenantID, limit, offset)
	if err != nil {
		logger.ExitMethodWithError("notificationRepository.List", err)
		return nil, 0, err
	}
	defer rows.Close()

	var notes []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var attrs []byte
		if err := rows.Scan(&n.ID, &n.TenantID, &n.Title, &n.Message, &n.IsRead, &attrs, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &n.Attributes); err != nil {
				logger.Warn("Failed to unmarshal notification attributes", "notificationID", n.ID, "error", err)
			}
		}
		notes = append(notes, n)
	}

	logger.ExitMethod("notificationRepository.List", "count", len(notes), "total", count)
	return notes, count, rows.Err()
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, tenantID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = true WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	return requireOne(res, "notification", id)
}
