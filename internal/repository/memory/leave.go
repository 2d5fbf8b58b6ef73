package memory

import (
	"context"

	"github.com/cmlabs-hris/workforce-core/internal/domain/leave"
	"github.com/shopspring/decimal"
)

type balanceRow struct {
	remaining decimal.Decimal
}

type balanceRepository struct {
	store *Store
}

func NewBalanceRepository(store *Store) leave.BalanceRepository {
	return &balanceRepository{store: store}
}

func (r *balanceRepository) GetBalance(_ context.Context, employeeID string) (decimal.Decimal, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	row, ok := r.store.balances[employeeID]
	if !ok {
		return decimal.Zero, leave.ErrBalanceNotFound
	}
	return row.remaining, nil
}

// AdjustBalance checks and writes under one lock, the in-memory equivalent of
// a conditional UPDATE.
func (r *balanceRepository) AdjustBalance(ctx context.Context, employeeID string, delta decimal.Decimal, floor *decimal.Decimal) (decimal.Decimal, error) {
	defer r.store.lock(ctx)()

	row, ok := r.store.balances[employeeID]
	if !ok {
		return decimal.Zero, leave.ErrBalanceNotFound
	}
	next := row.remaining.Add(delta)
	if floor != nil && next.LessThan(*floor) {
		return row.remaining, leave.ErrInsufficientBalance
	}
	row.remaining = next
	r.store.balances[employeeID] = row
	return next, nil
}

func (r *balanceRepository) HasEntry(_ context.Context, leaveRequestID string, direction leave.Direction) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	_, exists := r.store.entries[entryKey{LeaveRequestID: leaveRequestID, Direction: direction}]
	return exists, nil
}

func (r *balanceRepository) InsertEntry(ctx context.Context, entry leave.BudgetEntry) error {
	defer r.store.lock(ctx)()

	key := entryKey{Direction: entry.Direction}
	if entry.LeaveRequestID != nil {
		key.LeaveRequestID = *entry.LeaveRequestID
		if _, exists := r.store.entries[key]; exists {
			return leave.ErrAlreadyApplied
		}
	} else {
		// unkeyed entries never conflict
		key.LeaveRequestID = "adhoc:" + entry.ID
	}
	r.store.entries[key] = entry
	return nil
}
