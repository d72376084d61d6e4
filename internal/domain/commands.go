package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateBookingCommand struct {
	TenantID       uuid.UUID       `json:"-" validate:"required"`
	UserID         uuid.UUID       `json:"-" validate:"required"`
	VehicleID      uuid.UUID       `json:"vehicle_id" validate:"required"`
	StartDate      time.Time       `json:"start_date" validate:"required"`
	EndDate        time.Time       `json:"end_date" validate:"required,gtefield=StartDate"`
	PickupLocation string          `json:"pickup_location" validate:"required,max=300"`
	ReturnLocation string          `json:"return_location" validate:"required,max=300"`
	Drivers        []DriverInput   `json:"drivers" validate:"required,min=1,dive"`
	Extras         []ExtraInput    `json:"extras" validate:"dive"`
	Discount       decimal.Decimal `json:"discount"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
}

type DriverInput struct {
	CustomerID uuid.UUID `json:"customer_id" validate:"required"`
	Name       string    `json:"name" validate:"required,max=200"`
	Email      string    `json:"email" validate:"omitempty,email"`
	Phone      string    `json:"phone" validate:"max=50"`
	IsPrimary  bool      `json:"is_primary"`
}

type ExtraInput struct {
	Name      string          `json:"name" validate:"required,max=200"`
	Quantity  int             `json:"quantity" validate:"min=1"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}
