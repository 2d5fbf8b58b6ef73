package attendance

import (
	"context"
	"iter"
	"time"
)

// AttendanceService defines the attendance ledger operations
type AttendanceService interface {
	// Append records a clock event and freezes its lateness flag.
	Append(ctx context.Context, req AppendEventRequest) (Event, error)

	// DeriveWorkedIntervals pairs events into one interval per local day for the
	// inclusive date range [from, to].
	DeriveWorkedIntervals(ctx context.Context, employeeID string, from, to time.Time) (iter.Seq[WorkedInterval], error)

	// Summarize totals the worked intervals of [from, to].
	Summarize(ctx context.Context, employeeID string, from, to time.Time) (Summary, error)
}
