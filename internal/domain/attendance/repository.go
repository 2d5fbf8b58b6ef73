package attendance

import (
	"context"
	"time"
)

// AttendanceRepository is the append-only event store. There is no update or
// delete; corrections are compensating events.
type AttendanceRepository interface {
	Append(ctx context.Context, event Event) (Event, error)

	// ListByEmployeeInRange returns events with from <= timestamp < to ordered
	// by timestamp ascending.
	ListByEmployeeInRange(ctx context.Context, employeeID string, from, to time.Time) ([]Event, error)
}
