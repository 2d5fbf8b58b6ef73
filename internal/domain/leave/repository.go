package leave

import (
	"context"

	"github.com/shopspring/decimal"
)

// BalanceRepository mutates annual leave balances with single atomic updates.
type BalanceRepository interface {
	GetBalance(ctx context.Context, employeeID string) (decimal.Decimal, error)

	// AdjustBalance adds delta to the balance and returns the new value. When
	// floor is set, an update that would leave the balance below it fails with
	// ErrInsufficientBalance and changes nothing.
	AdjustBalance(ctx context.Context, employeeID string, delta decimal.Decimal, floor *decimal.Decimal) (decimal.Decimal, error)

	// HasEntry reports whether an adjustment for the leave request and
	// direction is already recorded.
	HasEntry(ctx context.Context, leaveRequestID string, direction Direction) (bool, error)

	// InsertEntry records an applied adjustment. It returns ErrAlreadyApplied
	// when the entry's leave request and direction are already recorded.
	InsertEntry(ctx context.Context, entry BudgetEntry) error
}
