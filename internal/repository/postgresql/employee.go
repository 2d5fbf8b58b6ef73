package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/domain/employee"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepository struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.ConfigRepository {
	return &employeeRepository{db: db}
}

// GetConfig implements employee.ConfigRepository.
func (r *employeeRepository) GetConfig(ctx context.Context, id string) (employee.Config, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, full_name, hourly_rate, COALESCE(weekly_hour_goal, 0), COALESCE(timezone, ''),
			   employment_status, annual_leave_days_remaining, updated_at
		FROM employees
		WHERE id = $1
	`

	var cfg employee.Config
	err := q.QueryRow(ctx, query, id).Scan(
		&cfg.ID, &cfg.FullName, &cfg.HourlyRate, &cfg.WeeklyHourGoal, &cfg.Timezone,
		&cfg.EmploymentStatus, &cfg.AnnualLeaveDaysRemaining, &cfg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
			return employee.Config{}, employee.ErrEmployeeNotFound
		}
		return employee.Config{}, fmt.Errorf("failed to get employee config: %w", err)
	}

	return cfg, nil
}

// GetDaySchedule implements employee.ConfigRepository.
func (r *employeeRepository) GetDaySchedule(ctx context.Context, id string, isoWeekday int) (employee.DaySchedule, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT day_of_week, to_char(clock_in_time, 'HH24:MI:SS'), grace_period_minutes
		FROM employee_day_schedules
		WHERE employee_id = $1 AND day_of_week = $2
	`

	var (
		ds      employee.DaySchedule
		clockIn string
	)
	err := q.QueryRow(ctx, query, id, isoWeekday).Scan(&ds.DayOfWeek, &clockIn, &ds.GracePeriodMinutes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
			return employee.DaySchedule{}, employee.ErrNoDaySchedule
		}
		return employee.DaySchedule{}, fmt.Errorf("failed to get day schedule: %w", err)
	}

	ds.ClockInTime, err = time.Parse(time.TimeOnly, clockIn)
	if err != nil {
		return employee.DaySchedule{}, fmt.Errorf("failed to parse clock in time %q: %w", clockIn, err)
	}

	return ds, nil
}

// ListActiveIDs implements employee.ConfigRepository.
func (r *employeeRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id FROM employees
		WHERE employment_status = 'active'
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan active employees: %w", err)
	}

	return ids, nil
}
