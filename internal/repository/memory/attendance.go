package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/domain/attendance"
)

type attendanceRepository struct {
	store *Store
}

func NewAttendanceRepository(store *Store) attendance.AttendanceRepository {
	return &attendanceRepository{store: store}
}

// Append inserts the event keeping the employee's events ordered by timestamp.
func (r *attendanceRepository) Append(ctx context.Context, event attendance.Event) (attendance.Event, error) {
	defer r.store.lock(ctx)()

	evts := r.store.events[event.EmployeeID]
	i := sort.Search(len(evts), func(i int) bool {
		return evts[i].Timestamp.After(event.Timestamp)
	})
	evts = append(evts, attendance.Event{})
	copy(evts[i+1:], evts[i:])
	evts[i] = event
	r.store.events[event.EmployeeID] = evts

	return event, nil
}

func (r *attendanceRepository) ListByEmployeeInRange(_ context.Context, employeeID string, from, to time.Time) ([]attendance.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []attendance.Event
	for _, e := range r.store.events[employeeID] {
		if !e.Timestamp.Before(from) && e.Timestamp.Before(to) {
			result = append(result, e)
		}
	}
	return result, nil
}
