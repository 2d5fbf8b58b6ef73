package payroll

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PayrollRepository defines data access methods for payroll records.
type PayrollRepository interface {
	GetByPeriod(ctx context.Context, employeeID string, month, year int) (Payroll, error)

	// GetByPeriodForUpdate locks the row for the rest of the transaction.
	GetByPeriodForUpdate(ctx context.Context, employeeID string, month, year int) (Payroll, error)

	// UpsertDraft inserts the record or refreshes the computed fields of the
	// DRAFT record with the same period. Bonus and deductions of an existing
	// record are kept and TotalPaid is recomputed from them. A PAID record is
	// left untouched and ErrPayrollRecordAlreadyPaid is returned.
	UpsertDraft(ctx context.Context, record Payroll) (Payroll, error)

	// UpdateAdjustments sets bonus, deductions and total of a DRAFT record.
	UpdateAdjustments(ctx context.Context, employeeID string, month, year int, bonus, deductions decimal.Decimal) (Payroll, error)

	// MarkPaid moves a DRAFT record to PAID.
	MarkPaid(ctx context.Context, employeeID string, month, year int, paidBy string, paidAt time.Time) (Payroll, error)
}
