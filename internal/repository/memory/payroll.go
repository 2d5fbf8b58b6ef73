package memory

import (
	"context"
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

type payrollRepository struct {
	store *Store
}

func NewPayrollRepository(store *Store) payroll.PayrollRepository {
	return &payrollRepository{store: store}
}

func (r *payrollRepository) GetByPeriod(_ context.Context, employeeID string, month, year int) (payroll.Payroll, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.payrolls[periodKey{EmployeeID: employeeID, Month: month, Year: year}]
	if !ok {
		return payroll.Payroll{}, payroll.ErrPayrollRecordNotFound
	}
	return p, nil
}

// GetByPeriodForUpdate relies on Store.WithinTx for isolation.
func (r *payrollRepository) GetByPeriodForUpdate(ctx context.Context, employeeID string, month, year int) (payroll.Payroll, error) {
	return r.GetByPeriod(ctx, employeeID, month, year)
}

func (r *payrollRepository) UpsertDraft(ctx context.Context, record payroll.Payroll) (payroll.Payroll, error) {
	defer r.store.lock(ctx)()

	key := periodKey{EmployeeID: record.EmployeeID, Month: record.PeriodMonth, Year: record.PeriodYear}
	now := time.Now().UTC()

	existing, ok := r.store.payrolls[key]
	if !ok {
		record.Status = payroll.PayrollStatusDraft
		record.TotalPaid = payroll.ComputeTotalPaid(record.BaseSalary, record.Bonus, record.Deductions)
		record.CreatedAt = now
		record.UpdatedAt = now
		r.store.payrolls[key] = record
		return record, nil
	}
	if existing.IsPaid() {
		return existing, payroll.ErrPayrollRecordAlreadyPaid
	}

	existing.TotalMinutes = record.TotalMinutes
	existing.HoursWorked = record.HoursWorked
	existing.WorkedDays = record.WorkedDays
	existing.UnclosedDays = record.UnclosedDays
	existing.HourlyRate = record.HourlyRate
	existing.BaseSalary = record.BaseSalary
	existing.TotalPaid = payroll.ComputeTotalPaid(existing.BaseSalary, existing.Bonus, existing.Deductions)
	existing.UpdatedAt = now
	r.store.payrolls[key] = existing
	return existing, nil
}

func (r *payrollRepository) UpdateAdjustments(ctx context.Context, employeeID string, month, year int, bonus, deductions decimal.Decimal) (payroll.Payroll, error) {
	defer r.store.lock(ctx)()

	key := periodKey{EmployeeID: employeeID, Month: month, Year: year}
	p, ok := r.store.payrolls[key]
	if !ok {
		return payroll.Payroll{}, payroll.ErrPayrollRecordNotFound
	}
	if p.IsPaid() {
		return p, payroll.ErrPayrollRecordAlreadyPaid
	}
	p.Bonus = bonus
	p.Deductions = deductions
	p.TotalPaid = payroll.ComputeTotalPaid(p.BaseSalary, bonus, deductions)
	p.UpdatedAt = time.Now().UTC()
	r.store.payrolls[key] = p
	return p, nil
}

func (r *payrollRepository) MarkPaid(ctx context.Context, employeeID string, month, year int, paidBy string, paidAt time.Time) (payroll.Payroll, error) {
	defer r.store.lock(ctx)()

	key := periodKey{EmployeeID: employeeID, Month: month, Year: year}
	p, ok := r.store.payrolls[key]
	if !ok {
		return payroll.Payroll{}, payroll.ErrPayrollRecordNotFound
	}
	if p.IsPaid() {
		return p, payroll.ErrPayrollRecordAlreadyPaid
	}
	p.Status = payroll.PayrollStatusPaid
	p.PaidAt = &paidAt
	p.PaidBy = &paidBy
	p.UpdatedAt = paidAt
	r.store.payrolls[key] = p
	return p, nil
}
