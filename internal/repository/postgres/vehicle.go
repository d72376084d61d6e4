package postgres

import (
	"context"

	"rentflow-backend/internal/domain"
	"rentflow-backend/internal/logger"
	"rentflow-backend/internal/repository"

	"github.com/google/uuid"
)

type vehicleRepository struct {
	db DBTX
}

func NewVehicleRepository(db DBTX) repository.VehicleRepository {
	return &vehicleRepository{db: db}
}

func (r *vehicleRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Vehicle, error) {
	v := &domain.Vehicle{}
	query := `SELECT v.id, v.tenant_id, v.plate, v.make, v.model, COALESCE(s.name, ''), v.daily_rate, v.weekly_rate, v.monthly_rate, v.late_fee, v.deposit
	          FROM vehicles v LEFT JOIN vehicle_statuses s ON s.id = v.status_id
	          WHERE v.tenant_id = $1 AND v.id = $2 AND v.deleted_at IS NULL`
	err := r.db.QueryRowContext(ctx, query, tenantID, id).Scan(&v.ID, &v.TenantID, &v.Plate, &v.Make, &v.Model, &v.Status, &v.DailyRate, &v.WeeklyRate, &v.MonthlyRate, &v.LateFee, &v.Deposit)
	if err != nil {
		return nil, notFound(err, "vehicle", id)
	}
	return v, nil
}

func (r *vehicleRepository) SetStatus(ctx context.Context, tenantID, vehicleID uuid.UUID, statusName string) error {
	logger.DatabaseCall("UPDATE", "vehicles", "vehicleID", vehicleID, "status", statusName)
	query := `UPDATE vehicles SET status_id = s.id
	          FROM vehicle_statuses s
	          WHERE s.tenant_id = $1 AND s.name = $3 AND vehicles.tenant_id = $1 AND vehicles.id = $2`
	res, err := r.db.ExecContext(ctx, query, tenantID, vehicleID, statusName)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "vehicleID", vehicleID)
		return err
	}
	return requireOne(res, "vehicle status", statusName)
}
