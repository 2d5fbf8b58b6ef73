package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/workforce-core/internal/domain/leave"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type balanceRepository struct {
	db *database.DB
}

func NewBalanceRepository(db *database.DB) leave.BalanceRepository {
	return &balanceRepository{db: db}
}

// GetBalance implements leave.BalanceRepository.
func (r *balanceRepository) GetBalance(ctx context.Context, employeeID string) (decimal.Decimal, error) {
	q := GetQuerier(ctx, r.db)

	var balance decimal.Decimal
	err := q.QueryRow(ctx,
		`SELECT annual_leave_days_remaining FROM employees WHERE id = $1`, employeeID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
			return decimal.Zero, leave.ErrBalanceNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to get leave balance: %w", err)
	}

	return balance, nil
}

// AdjustBalance implements leave.BalanceRepository. The floor check and the
// write are one statement, so concurrent deductions cannot both pass it.
func (r *balanceRepository) AdjustBalance(ctx context.Context, employeeID string, delta decimal.Decimal, floor *decimal.Decimal) (decimal.Decimal, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE employees
		SET annual_leave_days_remaining = annual_leave_days_remaining + $2,
			updated_at = NOW()
		WHERE id = $1
		  AND ($3::numeric IS NULL OR annual_leave_days_remaining + $2 >= $3::numeric)
		RETURNING annual_leave_days_remaining
	`

	var balance decimal.Decimal
	err := q.QueryRow(ctx, query, employeeID, delta, floor).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if isInvalidID(err) {
		return decimal.Zero, leave.ErrBalanceNotFound
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("failed to adjust leave balance: %w", err)
	}

	// No row updated: either the employee is unknown or the floor held.
	current, err := r.GetBalance(ctx, employeeID)
	if err != nil {
		return decimal.Zero, err
	}
	return current, leave.ErrInsufficientBalance
}

// HasEntry implements leave.BalanceRepository.
func (r *balanceRepository) HasEntry(ctx context.Context, leaveRequestID string, direction leave.Direction) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM leave_budget_entries WHERE leave_request_id = $1 AND direction = $2)`,
		leaveRequestID, direction,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check leave budget entry: %w", err)
	}

	return exists, nil
}

// InsertEntry implements leave.BalanceRepository.
func (r *balanceRepository) InsertEntry(ctx context.Context, entry leave.BudgetEntry) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_budget_entries (
			id, employee_id, leave_request_id, direction, days, balance_after, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT ON CONSTRAINT uk_leave_budget_entry DO NOTHING
	`

	tag, err := q.Exec(ctx, query,
		entry.ID,
		entry.EmployeeID,
		entry.LeaveRequestID,
		entry.Direction,
		entry.Days,
		entry.BalanceAfter,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert leave budget entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrAlreadyApplied
	}

	return nil
}
