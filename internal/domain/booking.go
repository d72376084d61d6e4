package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusDeclined  BookingStatus = "DECLINED"
	BookingStatusCanceled  BookingStatus = "CANCELED"
	BookingStatusActive    BookingStatus = "ACTIVE"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusExpired   BookingStatus = "EXPIRED"
)

// IsTerminal reports whether no action can leave the status.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingStatusCompleted, BookingStatusDeclined, BookingStatusCanceled, BookingStatusExpired:
		return true
	}
	return false
}

type Booking struct {
	ID             uuid.UUID     `json:"id"`
	TenantID       uuid.UUID     `json:"tenant_id"`
	RentalNumber   string        `json:"rental_number"`
	BookingCode    string        `json:"booking_code"`
	Status         BookingStatus `json:"status"`
	StartDate      time.Time     `json:"start_date"`
	EndDate        time.Time     `json:"end_date"`
	PickupLocation string        `json:"pickup_location"`
	ReturnLocation string        `json:"return_location"`
	VehicleID      uuid.UUID     `json:"vehicle_id"`
	// Values is the pricing snapshot captured at creation. Later vehicle
	// rate changes never touch it.
	Values    Values      `json:"values"`
	Extras    []Extra     `json:"extras"`
	Drivers   []Driver    `json:"drivers"`
	CreatedBy uuid.UUID   `json:"created_by"`
	UpdatedBy uuid.UUID   `json:"updated_by"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	State     RecordState `json:"-"`
}

// PrimaryDriver returns the driver flagged primary, or false when none is.
func (b *Booking) PrimaryDriver() (Driver, bool) {
	for _, d := range b.Drivers {
		if d.IsPrimary {
			return d, true
		}
	}
	return Driver{}, false
}

type Values struct {
	DailyRate      decimal.Decimal `json:"daily_rate"`
	WeeklyRate     decimal.Decimal `json:"weekly_rate"`
	MonthlyRate    decimal.Decimal `json:"monthly_rate"`
	Days           int             `json:"days"`
	BasePrice      decimal.Decimal `json:"base_price"`
	ExtrasTotal    decimal.Decimal `json:"extras_total"`
	Discount       decimal.Decimal `json:"discount"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	Tax            decimal.Decimal `json:"tax"`
	LateFee        decimal.Decimal `json:"late_fee"`
	LateFeeApplied bool            `json:"late_fee_applied"`
	Deposit        decimal.Decimal `json:"deposit"`
	Total          decimal.Decimal `json:"total"`
}

// ApplyLateFee adds the configured late fee to the total once.
func (v *Values) ApplyLateFee() bool {
	if v.LateFeeApplied || !v.LateFee.IsPositive() {
		return false
	}
	v.Total = v.Total.Add(v.LateFee)
	v.LateFeeApplied = true
	return true
}

type Extra struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

type Driver struct {
	ID         uuid.UUID `json:"id"`
	BookingID  uuid.UUID `json:"booking_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	IsPrimary  bool      `json:"is_primary"`
}

type BookingActivity struct {
	ID         uuid.UUID     `json:"id"`
	TenantID   uuid.UUID     `json:"tenant_id"`
	BookingID  uuid.UUID     `json:"booking_id"`
	CustomerID uuid.UUID     `json:"customer_id"`
	Action     BookingAction `json:"action"`
	Note       string        `json:"note"`
	CreatedBy  uuid.UUID     `json:"created_by"`
	CreatedAt  time.Time     `json:"created_at"`
}

// BookingFilter narrows ListBookings. Zero values mean "any".
type BookingFilter struct {
	Statuses []BookingStatus
	Page     int32
	PageSize int32
}

// ExpiryCursor resumes an expiry scan after the last booking it returned.
type ExpiryCursor struct {
	StartDate time.Time
	ID        uuid.UUID
}
