package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/domain/employee"
	"github.com/cmlabs-hris/workforce-core/internal/domain/payroll"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const payrollColumns = `
	id, employee_id, period_month, period_year,
	total_minutes, hours_worked, worked_days, unclosed_days, hourly_rate, base_salary,
	bonus, deductions, total_paid, status, paid_at, paid_by, created_at, updated_at
`

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

// GetByPeriod implements payroll.PayrollRepository.
func (r *payrollRepository) GetByPeriod(ctx context.Context, employeeID string, month, year int) (payroll.Payroll, error) {
	return r.getByPeriod(ctx, employeeID, month, year, "")
}

// GetByPeriodForUpdate implements payroll.PayrollRepository.
func (r *payrollRepository) GetByPeriodForUpdate(ctx context.Context, employeeID string, month, year int) (payroll.Payroll, error) {
	return r.getByPeriod(ctx, employeeID, month, year, "FOR UPDATE")
}

func (r *payrollRepository) getByPeriod(ctx context.Context, employeeID string, month, year int, lock string) (payroll.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payrollColumns + `
		FROM payrolls
		WHERE employee_id = $1 AND period_month = $2 AND period_year = $3
	` + lock

	p, err := scanPayroll(q.QueryRow(ctx, query, employeeID, month, year))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
			return payroll.Payroll{}, payroll.ErrPayrollRecordNotFound
		}
		return payroll.Payroll{}, fmt.Errorf("failed to get payroll record: %w", err)
	}

	return p, nil
}

// UpsertDraft implements payroll.PayrollRepository. The conflict branch only
// updates DRAFT rows, so a PAID record yields no row.
func (r *payrollRepository) UpsertDraft(ctx context.Context, record payroll.Payroll) (payroll.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payrolls (
			id, employee_id, period_month, period_year,
			total_minutes, hours_worked, worked_days, unclosed_days, hourly_rate, base_salary,
			bonus, deductions, total_paid, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 'DRAFT')
		ON CONFLICT ON CONSTRAINT uk_payroll_period DO UPDATE SET
			total_minutes = EXCLUDED.total_minutes,
			hours_worked = EXCLUDED.hours_worked,
			worked_days = EXCLUDED.worked_days,
			unclosed_days = EXCLUDED.unclosed_days,
			hourly_rate = EXCLUDED.hourly_rate,
			base_salary = EXCLUDED.base_salary,
			total_paid = ROUND(EXCLUDED.base_salary + payrolls.bonus - payrolls.deductions, 2),
			updated_at = NOW()
		WHERE payrolls.status = 'DRAFT'
		RETURNING ` + payrollColumns

	p, err := scanPayroll(q.QueryRow(ctx, query,
		record.ID,
		record.EmployeeID,
		record.PeriodMonth,
		record.PeriodYear,
		record.TotalMinutes,
		record.HoursWorked,
		record.WorkedDays,
		record.UnclosedDays,
		record.HourlyRate,
		record.BaseSalary,
		record.Bonus,
		record.Deductions,
		payroll.ComputeTotalPaid(record.BaseSalary, record.Bonus, record.Deductions),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Payroll{}, payroll.ErrPayrollRecordAlreadyPaid
		}
		if isForeignKeyViolation(err) {
			return payroll.Payroll{}, employee.ErrEmployeeNotFound
		}
		return payroll.Payroll{}, fmt.Errorf("failed to upsert payroll record: %w", err)
	}

	return p, nil
}

// UpdateAdjustments implements payroll.PayrollRepository.
func (r *payrollRepository) UpdateAdjustments(ctx context.Context, employeeID string, month, year int, bonus, deductions decimal.Decimal) (payroll.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payrolls
		SET bonus = $4,
			deductions = $5,
			total_paid = ROUND(base_salary + $4 - $5, 2),
			updated_at = NOW()
		WHERE employee_id = $1 AND period_month = $2 AND period_year = $3
		  AND status = 'DRAFT'
		RETURNING ` + payrollColumns

	p, err := scanPayroll(q.QueryRow(ctx, query, employeeID, month, year, bonus, deductions))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.explainMissingDraft(ctx, employeeID, month, year)
		}
		return payroll.Payroll{}, fmt.Errorf("failed to update payroll adjustments: %w", err)
	}

	return p, nil
}

// MarkPaid implements payroll.PayrollRepository.
func (r *payrollRepository) MarkPaid(ctx context.Context, employeeID string, month, year int, paidBy string, paidAt time.Time) (payroll.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payrolls
		SET status = 'PAID',
			paid_by = $4,
			paid_at = $5,
			updated_at = $5
		WHERE employee_id = $1 AND period_month = $2 AND period_year = $3
		  AND status = 'DRAFT'
		RETURNING ` + payrollColumns

	p, err := scanPayroll(q.QueryRow(ctx, query, employeeID, month, year, paidBy, paidAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.explainMissingDraft(ctx, employeeID, month, year)
		}
		return payroll.Payroll{}, fmt.Errorf("failed to mark payroll paid: %w", err)
	}

	return p, nil
}

// explainMissingDraft tells a missing record apart from a PAID one after a
// DRAFT-only update matched nothing.
func (r *payrollRepository) explainMissingDraft(ctx context.Context, employeeID string, month, year int) (payroll.Payroll, error) {
	existing, err := r.GetByPeriod(ctx, employeeID, month, year)
	if err != nil {
		return payroll.Payroll{}, err
	}
	return existing, payroll.ErrPayrollRecordAlreadyPaid
}

func scanPayroll(row pgx.Row) (payroll.Payroll, error) {
	var p payroll.Payroll
	err := row.Scan(
		&p.ID, &p.EmployeeID, &p.PeriodMonth, &p.PeriodYear,
		&p.TotalMinutes, &p.HoursWorked, &p.WorkedDays, &p.UnclosedDays, &p.HourlyRate, &p.BaseSalary,
		&p.Bonus, &p.Deductions, &p.TotalPaid, &p.Status, &p.PaidAt, &p.PaidBy, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
