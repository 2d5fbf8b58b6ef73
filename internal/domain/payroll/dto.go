package payroll

import (
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ValidatePeriod checks month and year of a payroll period.
func ValidatePeriod(month, year int) error {
	if month < 1 || month > 12 || year < 1 {
		return ErrInvalidPeriod
	}
	return nil
}

type ReconcileRequest struct {
	EmployeeID string `json:"employee_id"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
}

func (r *ReconcileRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	if r.Month < 1 || r.Month > 12 {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "month must be between 1 and 12"})
	}
	if r.Year < 1 {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "year must be positive"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type SetAdjustmentsRequest struct {
	EmployeeID string          `json:"-"`
	Month      int             `json:"-"`
	Year       int             `json:"-"`
	Bonus      decimal.Decimal `json:"bonus"`
	Deductions decimal.Decimal `json:"deductions"`
}

func (r *SetAdjustmentsRequest) Validate() error {
	if err := ValidatePeriod(r.Month, r.Year); err != nil {
		return err
	}
	if validator.IsEmpty(r.EmployeeID) {
		return validator.ValidationErrors{{Field: "employee_id", Message: "employee_id is required"}}
	}
	if r.Bonus.IsNegative() || r.Deductions.IsNegative() {
		return ErrNegativeAdjustment
	}
	return nil
}

type MarkPaidRequest struct {
	EmployeeID string `json:"-"`
	Month      int    `json:"-"`
	Year       int    `json:"-"`
	PaidBy     string `json:"paid_by"`
}

func (r *MarkPaidRequest) Validate() error {
	if err := ValidatePeriod(r.Month, r.Year); err != nil {
		return err
	}
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	if validator.IsEmpty(r.PaidBy) {
		errs = append(errs, validator.ValidationError{Field: "paid_by", Message: "paid_by is required"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========== RESPONSE DTOs ==========

type PayrollResponse struct {
	ID           string          `json:"id"`
	EmployeeID   string          `json:"employee_id"`
	PeriodMonth  int             `json:"period_month"`
	PeriodYear   int             `json:"period_year"`
	TotalMinutes int             `json:"total_minutes"`
	HoursWorked  decimal.Decimal `json:"hours_worked"`
	WorkedDays   int             `json:"worked_days"`
	UnclosedDays int             `json:"unclosed_days"`
	HourlyRate   decimal.Decimal `json:"hourly_rate"`
	BaseSalary   decimal.Decimal `json:"base_salary"`
	Bonus        decimal.Decimal `json:"bonus"`
	Deductions   decimal.Decimal `json:"deductions"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	Status       string          `json:"status"`
	PaidAt       *string         `json:"paid_at,omitempty"`
	PaidBy       *string         `json:"paid_by,omitempty"`
}

func NewPayrollResponse(p Payroll) PayrollResponse {
	resp := PayrollResponse{
		ID:           p.ID,
		EmployeeID:   p.EmployeeID,
		PeriodMonth:  p.PeriodMonth,
		PeriodYear:   p.PeriodYear,
		TotalMinutes: p.TotalMinutes,
		HoursWorked:  p.HoursWorked.Round(2),
		WorkedDays:   p.WorkedDays,
		UnclosedDays: p.UnclosedDays,
		HourlyRate:   p.HourlyRate,
		BaseSalary:   p.BaseSalary,
		Bonus:        p.Bonus,
		Deductions:   p.Deductions,
		TotalPaid:    p.TotalPaid,
		Status:       string(p.Status),
		PaidBy:       p.PaidBy,
	}
	if p.PaidAt != nil {
		paidAt := p.PaidAt.UTC().Format(time.RFC3339)
		resp.PaidAt = &paidAt
	}
	return resp
}

type ReconcileReportResponse struct {
	PeriodMonth int               `json:"period_month"`
	PeriodYear  int               `json:"period_year"`
	Reconciled  int               `json:"reconciled"`
	SkippedPaid int               `json:"skipped_paid"`
	Failed      map[string]string `json:"failed,omitempty"`
}

func NewReconcileReportResponse(r ReconcileReport) ReconcileReportResponse {
	resp := ReconcileReportResponse{
		PeriodMonth: r.PeriodMonth,
		PeriodYear:  r.PeriodYear,
		Reconciled:  r.Reconciled,
		SkippedPaid: r.SkippedPaid,
	}
	if len(r.Failed) > 0 {
		resp.Failed = make(map[string]string, len(r.Failed))
		for id, err := range r.Failed {
			resp.Failed[id] = err.Error()
		}
	}
	return resp
}
