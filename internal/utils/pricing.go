package utils

import (
	"fmt"
	"time"

	"rentflow-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// Date represents a calendar date
type Date struct {
	Year  int
	Month int
	Day   int
}

// DateOf drops the clock part of t, in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{Year: y, Month: int(m), Day: d}
}

func (d Date) midnight() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// DateDifference represents the difference between two dates
type DateDifference struct {
	Months int
	Days   int
}

// RentalBreakdown is how a rental period is split across rate tiers.
type RentalBreakdown struct {
	Months    int
	Weeks     int
	Days      int
	TotalDays int
}

// DaysInMonth returns the number of days in a given month
func DaysInMonth(year, month int) int {
	if month == 2 {
		if (year%4 == 0 && year%100 != 0) || (year%400 == 0) {
			return 29
		}
		return 28
	}
	if month == 4 || month == 6 || month == 9 || month == 11 {
		return 30
	}
	return 31
}

// CalculateDateDifference computes the difference between two dates
// Returns (months, days) where both start and end dates are included
func CalculateDateDifference(startDate, endDate Date) (DateDifference, error) {
	if endDate.midnight().Before(startDate.midnight()) {
		return DateDifference{}, fmt.Errorf("end date must be >= start date")
	}

	years := endDate.Year - startDate.Year
	months := endDate.Month - startDate.Month
	days := endDate.Day - startDate.Day + 1 // +1 to include both ends

	// If days < 0, borrow from months
	if days < 0 {
		months -= 1
		prevMonth := endDate.Month - 1
		prevYear := endDate.Year
		if prevMonth < 1 {
			prevMonth = 12
			prevYear -= 1
		}
		days = DaysInMonth(prevYear, prevMonth) + days
	}

	if months < 0 {
		years -= 1
		months += 12
	}
	months += 12 * years

	return DateDifference{Months: months, Days: days}, nil
}

// BreakdownPeriod splits [start, end] into months, weeks and days. A tier
// whose rate is zero is folded into the tier below it.
func BreakdownPeriod(start, end time.Time, v *domain.Vehicle) (RentalBreakdown, error) {
	s, e := DateOf(start), DateOf(end)
	diff, err := CalculateDateDifference(s, e)
	if err != nil {
		return RentalBreakdown{}, err
	}
	totalDays := int(e.midnight().Sub(s.midnight()).Hours()/24) + 1

	const daysPerWeek = 7
	b := RentalBreakdown{Months: diff.Months, Days: diff.Days, TotalDays: totalDays}
	if v.MonthlyRate.IsZero() {
		b.Months = 0
		b.Days = totalDays
	}
	if !v.WeeklyRate.IsZero() {
		b.Weeks = b.Days / daysPerWeek
		b.Days = b.Days % daysPerWeek
	}
	return b, nil
}

// CalculateValues prices a booking with the tiered month/week/day algorithm
// and returns the snapshot stored on it.
func CalculateValues(start, end time.Time, v *domain.Vehicle, extras []domain.Extra, discount, taxRate decimal.Decimal) (domain.Values, error) {
	b, err := BreakdownPeriod(start, end, v)
	if err != nil {
		return domain.Values{}, err
	}
	if discount.IsNegative() {
		return domain.Values{}, domain.NewValidationError("discount", "must not be negative")
	}
	if taxRate.IsNegative() {
		return domain.Values{}, domain.NewValidationError("tax_rate", "must not be negative")
	}

	base := v.MonthlyRate.Mul(decimal.NewFromInt(int64(b.Months))).
		Add(v.WeeklyRate.Mul(decimal.NewFromInt(int64(b.Weeks)))).
		Add(v.DailyRate.Mul(decimal.NewFromInt(int64(b.Days))))

	extrasTotal := decimal.Zero
	for _, x := range extras {
		extrasTotal = extrasTotal.Add(x.Total)
	}

	subtotal := base.Add(extrasTotal).Sub(discount)
	if subtotal.IsNegative() {
		subtotal = decimal.Zero
	}
	tax := subtotal.Mul(taxRate).Round(2)

	return domain.Values{
		DailyRate:   v.DailyRate,
		WeeklyRate:  v.WeeklyRate,
		MonthlyRate: v.MonthlyRate,
		Days:        b.TotalDays,
		BasePrice:   base.Round(2),
		ExtrasTotal: extrasTotal.Round(2),
		Discount:    discount,
		TaxRate:     taxRate,
		Tax:         tax,
		LateFee:     v.LateFee,
		Deposit:     v.Deposit,
		Total:       subtotal.Add(tax).Round(2),
	}, nil
}

// PriceExtra fills in the line total of an extra.
func PriceExtra(x domain.Extra) domain.Extra {
	x.Total = x.UnitPrice.Mul(decimal.NewFromInt(int64(x.Quantity))).Round(2)
	return x
}
