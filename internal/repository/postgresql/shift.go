package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/domain/employee"
	"github.com/cmlabs-hris/workforce-core/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const shiftOverlapConstraint = "ex_shift_published_overlap"

type shiftRepository struct {
	db *database.DB
}

func NewShiftRepository(db *database.DB) schedule.ShiftRepository {
	return &shiftRepository{db: db}
}

// LockEmployee implements schedule.ShiftRepository with a transaction scoped
// advisory lock keyed on the employee.
func (r *shiftRepository) LockEmployee(ctx context.Context, employeeID string) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); !ok {
		return fmt.Errorf("failed to lock employee shifts: no transaction in context")
	}
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('shifts:' || $1::text))`, employeeID); err != nil {
		return fmt.Errorf("failed to lock employee shifts: %w", err)
	}
	return nil
}

// ListPublished implements schedule.ShiftRepository.
func (r *shiftRepository) ListPublished(ctx context.Context, employeeID string, from, to time.Time) ([]schedule.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, start_time, end_time, status, created_at, updated_at
		FROM shifts
		WHERE employee_id = $1
		  AND status = 'PUBLISHED'
		  AND start_time <= $3
		  AND end_time >= $2
		ORDER BY start_time ASC
	`

	rows, err := q.Query(ctx, query, employeeID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list published shifts: %w", err)
	}
	defer rows.Close()

	var shifts []schedule.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		shifts = append(shifts, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shifts: %w", err)
	}

	return shifts, nil
}

// Create implements schedule.ShiftRepository.
func (r *shiftRepository) Create(ctx context.Context, shift schedule.Shift) (schedule.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO shifts (id, employee_id, start_time, end_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, employee_id, start_time, end_time, status, created_at, updated_at
	`

	created, err := scanShift(q.QueryRow(ctx, query,
		shift.ID,
		shift.EmployeeID,
		shift.StartTime.UTC(),
		shift.EndTime.UTC(),
		shift.Status,
		shift.CreatedAt,
		shift.UpdatedAt,
	))
	if err != nil {
		return schedule.Shift{}, mapShiftWriteError("create", err)
	}

	return created, nil
}

// GetByID implements schedule.ShiftRepository.
func (r *shiftRepository) GetByID(ctx context.Context, id string) (schedule.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, start_time, end_time, status, created_at, updated_at
		FROM shifts
		WHERE id = $1
	`

	s, err := scanShift(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.Shift{}, schedule.ErrShiftNotFound
		}
		return schedule.Shift{}, fmt.Errorf("failed to get shift: %w", err)
	}

	return s, nil
}

// UpdateStatus implements schedule.ShiftRepository.
func (r *shiftRepository) UpdateStatus(ctx context.Context, id string, status schedule.ShiftStatus) (schedule.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE shifts
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, employee_id, start_time, end_time, status, created_at, updated_at
	`

	s, err := scanShift(q.QueryRow(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.Shift{}, schedule.ErrShiftNotFound
		}
		return schedule.Shift{}, mapShiftWriteError("update", err)
	}

	return s, nil
}

func scanShift(row pgx.Row) (schedule.Shift, error) {
	var s schedule.Shift
	if err := row.Scan(&s.ID, &s.EmployeeID, &s.StartTime, &s.EndTime, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return schedule.Shift{}, err
	}
	s.StartTime = s.StartTime.UTC()
	s.EndTime = s.EndTime.UTC()
	return s, nil
}

// mapShiftWriteError turns the exclusion constraint into an overlap violation.
// It only fires when two writers bypass the advisory lock.
func mapShiftWriteError(op string, err error) error {
	switch {
	case isExclusionViolation(err, shiftOverlapConstraint):
		return &schedule.Violation{
			Kind:    schedule.ViolationOverlap,
			Message: "shift overlaps a published shift",
		}
	case isForeignKeyViolation(err):
		return employee.ErrEmployeeNotFound
	}
	return fmt.Errorf("failed to %s shift: %w", op, err)
}
