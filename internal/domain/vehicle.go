package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Names of the per-tenant vehicle status records the lifecycle moves between.
const (
	VehicleStatusAvailable         = "Available"
	VehicleStatusRented            = "Rented"
	VehicleStatusPendingInspection = "Pending Inspection"
)

type Vehicle struct {
	ID          uuid.UUID       `json:"id"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	Plate       string          `json:"plate"`
	Make        string          `json:"make"`
	Model       string          `json:"model"`
	Status      string          `json:"status"`
	DailyRate   decimal.Decimal `json:"daily_rate"`
	WeeklyRate  decimal.Decimal `json:"weekly_rate"`
	MonthlyRate decimal.Decimal `json:"monthly_rate"`
	LateFee     decimal.Decimal `json:"late_fee"`
	Deposit     decimal.Decimal `json:"deposit"`
}
