package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/domain/attendance"
	"github.com/cmlabs-hris/workforce-core/internal/domain/employee"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/database"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

// Append implements attendance.AttendanceRepository.
func (a *attendanceRepository) Append(ctx context.Context, event attendance.Event) (attendance.Event, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_events (
			id, employee_id, event_type, occurred_at, capture_method, is_late, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := q.QueryRow(ctx, query,
		event.ID,
		event.EmployeeID,
		event.Type,
		event.Timestamp.UTC(),
		event.CaptureMethod,
		event.IsLate,
		event.CreatedAt,
	).Scan(&event.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return attendance.Event{}, fmt.Errorf("failed to append attendance event: %w", employee.ErrEmployeeNotFound)
		}
		return attendance.Event{}, fmt.Errorf("failed to append attendance event: %w", err)
	}

	return event, nil
}

// ListByEmployeeInRange implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByEmployeeInRange(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Event, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT id, employee_id, event_type, occurred_at, capture_method, is_late, created_at
		FROM attendance_events
		WHERE employee_id = $1
		  AND occurred_at >= $2
		  AND occurred_at < $3
		ORDER BY occurred_at ASC, created_at ASC
	`

	rows, err := q.Query(ctx, query, employeeID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance events: %w", err)
	}
	defer rows.Close()

	var events []attendance.Event
	for rows.Next() {
		var e attendance.Event
		if err := rows.Scan(
			&e.ID, &e.EmployeeID, &e.Type, &e.Timestamp, &e.CaptureMethod, &e.IsLate, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attendance event: %w", err)
		}
		e.Timestamp = e.Timestamp.UTC()
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance events: %w", err)
	}

	return events, nil
}
