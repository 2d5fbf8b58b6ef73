package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayrollStatus enum
type PayrollStatus string

const (
	PayrollStatusDraft PayrollStatus = "DRAFT"
	PayrollStatusPaid  PayrollStatus = "PAID"
)

// Payroll is the record of one employee for one month. It is unique per
// (EmployeeID, PeriodMonth, PeriodYear) and immutable once PAID.
type Payroll struct {
	ID          string
	EmployeeID  string
	PeriodMonth int
	PeriodYear  int

	// Refreshed on every recompute while DRAFT
	TotalMinutes int
	HoursWorked  decimal.Decimal
	WorkedDays   int
	UnclosedDays int
	HourlyRate   decimal.Decimal
	BaseSalary   decimal.Decimal

	// Set manually, preserved across recomputes
	Bonus      decimal.Decimal
	Deductions decimal.Decimal

	TotalPaid decimal.Decimal
	Status    PayrollStatus
	PaidAt    *time.Time
	PaidBy    *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Payroll) IsPaid() bool {
	return p.Status == PayrollStatusPaid
}

// HoursFromMinutes converts worked minutes to hours, rounded to 4 decimals.
// It is informational only and never feeds the salary.
func HoursFromMinutes(totalMinutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(totalMinutes)).DivRound(decimal.NewFromInt(60), 4)
}

// ComputeBaseSalary returns minutes * rate / 60 rounded half-up to 2 decimals.
// The division comes last so exact half cents are not lost.
func ComputeBaseSalary(totalMinutes int, hourlyRate decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(totalMinutes)).Mul(hourlyRate).DivRound(decimal.NewFromInt(60), 2)
}

// ComputeTotalPaid returns base + bonus - deductions rounded to 2 decimals.
func ComputeTotalPaid(base, bonus, deductions decimal.Decimal) decimal.Decimal {
	return base.Add(bonus).Sub(deductions).Round(2)
}

// PeriodBounds returns the first and last calendar day of the month as dates.
func PeriodBounds(month, year int) (time.Time, time.Time) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, last
}

// ReconcileReport summarises a batch run over all active employees.
type ReconcileReport struct {
	PeriodMonth int
	PeriodYear  int
	Reconciled  int
	SkippedPaid int
	Failed      map[string]error
}
