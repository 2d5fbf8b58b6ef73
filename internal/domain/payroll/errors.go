package payroll

import (
	"fmt"

	"github.com/cmlabs-hris/workforce-core/internal/pkg/apperror"
)

var (
	ErrPayrollRecordNotFound    = fmt.Errorf("payroll record %w", apperror.ErrNotFound)
	ErrPayrollRecordAlreadyPaid = apperror.New(apperror.ErrImmutableState, "PAYROLL_ALREADY_PAID", "payroll record already paid, cannot modify")
	ErrInvalidPeriod            = apperror.Validation("INVALID_PERIOD", "invalid payroll period")
	ErrNegativeAdjustment       = apperror.Validation("NEGATIVE_ADJUSTMENT", "bonus and deductions must be non-negative")
)
