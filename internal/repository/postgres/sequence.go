package postgres

import (
	"context"

	"rentflow-backend/internal/domain"
	"rentflow-backend/internal/logger"
	"rentflow-backend/internal/repository"

	"github.com/google/uuid"
)

type sequenceRepository struct {
	db DBTX
}

func NewSequenceRepository(db DBTX) repository.SequenceRepository {
	return &sequenceRepository{db: db}
}

// Next upserts the counter row. The first caller seeds it at 1; concurrent
// callers serialize on the row lock so no value is handed out twice.
func (r *sequenceRepository) Next(ctx context.Context, tenantID uuid.UUID, series domain.Series, scope string) (int64, error) {
	query := `INSERT INTO sequences (tenant_id, series, scope, last_value, updated_at)
	          VALUES ($1, $2, $3, 1, NOW())
	          ON CONFLICT (tenant_id, series, scope)
	          DO UPDATE SET last_value = sequences.last_value + 1, updated_at = NOW()
	          RETURNING last_value`
	logger.DatabaseCall("UPSERT", "sequences", "tenantID", tenantID, "series", series, "scope", scope)
	var value int64
	err := r.db.QueryRowContext(ctx, query, tenantID, string(series), scope).Scan(&value)
	logger.DatabaseResult("UPSERT", 1, err, "series", series, "value", value)
	if err != nil {
		return 0, mapError(err)
	}
	return value, nil
}
