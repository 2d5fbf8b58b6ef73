package memory

import (
	"context"
	"slices"
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/domain/schedule"
)

type shiftRepository struct {
	store *Store
}

func NewShiftRepository(store *Store) schedule.ShiftRepository {
	return &shiftRepository{store: store}
}

// LockEmployee is a no-op: Store.WithinTx already serialises transactions.
func (r *shiftRepository) LockEmployee(context.Context, string) error {
	return nil
}

func (r *shiftRepository) ListPublished(_ context.Context, employeeID string, from, to time.Time) ([]schedule.Shift, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []schedule.Shift
	for _, s := range r.store.shifts {
		if s.EmployeeID == employeeID && s.Status == schedule.ShiftStatusPublished && s.Overlaps(from, to) {
			result = append(result, s)
		}
	}
	slices.SortFunc(result, func(a, b schedule.Shift) int {
		return a.StartTime.Compare(b.StartTime)
	})
	return result, nil
}

func (r *shiftRepository) Create(ctx context.Context, shift schedule.Shift) (schedule.Shift, error) {
	defer r.store.lock(ctx)()

	r.store.shifts[shift.ID] = shift
	return shift, nil
}

func (r *shiftRepository) GetByID(_ context.Context, id string) (schedule.Shift, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	s, ok := r.store.shifts[id]
	if !ok {
		return schedule.Shift{}, schedule.ErrShiftNotFound
	}
	return s, nil
}

func (r *shiftRepository) UpdateStatus(ctx context.Context, id string, status schedule.ShiftStatus) (schedule.Shift, error) {
	defer r.store.lock(ctx)()

	s, ok := r.store.shifts[id]
	if !ok {
		return schedule.Shift{}, schedule.ErrShiftNotFound
	}
	s.Status = status
	s.UpdatedAt = time.Now().UTC()
	r.store.shifts[id] = s
	return s, nil
}
