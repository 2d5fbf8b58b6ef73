package memory

import (
	"context"
	"slices"

	"github.com/cmlabs-hris/workforce-core/internal/domain/employee"
)

type employeeRepository struct {
	store *Store
}

func NewEmployeeRepository(store *Store) employee.ConfigRepository {
	return &employeeRepository{store: store}
}

func (r *employeeRepository) GetConfig(ctx context.Context, employeeID string) (employee.Config, error) {
	if err := ctx.Err(); err != nil {
		return employee.Config{}, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	cfg, ok := r.store.employees[employeeID]
	if !ok {
		return employee.Config{}, employee.ErrEmployeeNotFound
	}
	if row, ok := r.store.balances[employeeID]; ok {
		cfg.AnnualLeaveDaysRemaining = row.remaining
	}
	return cfg, nil
}

func (r *employeeRepository) GetDaySchedule(ctx context.Context, employeeID string, isoWeekday int) (employee.DaySchedule, error) {
	if err := ctx.Err(); err != nil {
		return employee.DaySchedule{}, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	ds, ok := r.store.schedules[scheduleKey{EmployeeID: employeeID, DayOfWeek: isoWeekday}]
	if !ok {
		return employee.DaySchedule{}, employee.ErrNoDaySchedule
	}
	return ds, nil
}

func (r *employeeRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var ids []string
	for id, cfg := range r.store.employees {
		if cfg.EmploymentStatus == "" || cfg.EmploymentStatus == employee.EmploymentStatusActive {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}
