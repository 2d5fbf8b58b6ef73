package leave

import (
	"fmt"

	"github.com/cmlabs-hris/workforce-core/internal/pkg/apperror"
)

var (
	ErrInsufficientBalance = apperror.New(apperror.ErrInsufficientBalance, "INSUFFICIENT_LEAVE_BALANCE", "insufficient leave balance")
	ErrInvalidDateRange    = apperror.Validation("INVALID_DATE_RANGE", "end_date must not be before start_date")
	ErrInvalidDirection    = apperror.Validation("INVALID_DIRECTION", "direction must be DEDUCT or REFUND")

	ErrBalanceNotFound = fmt.Errorf("leave balance %w", apperror.ErrNotFound)

	// ErrAlreadyApplied is returned by the entry store when the adjustment for
	// a leave request and direction exists already.
	ErrAlreadyApplied = fmt.Errorf("leave adjustment already applied")
)
