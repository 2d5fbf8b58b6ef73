package attendance

import (
	"time"
)

type EventType string

const (
	EventTypeClockIn  EventType = "CLOCK_IN"
	EventTypeClockOut EventType = "CLOCK_OUT"
)

var EventTypeValues = []string{
	string(EventTypeClockIn),
	string(EventTypeClockOut),
}

// Event is an immutable clock event. IsLate is computed once when the event
// is appended and never recomputed.
type Event struct {
	ID            string
	EmployeeID    string
	Type          EventType
	Timestamp     time.Time // UTC
	CaptureMethod string    // badge, qr, manual, ...
	IsLate        bool
	CreatedAt     time.Time
}

// WorkedInterval is derived from the ledger on demand and never stored.
type WorkedInterval struct {
	EmployeeID string
	Day        time.Time // local midnight of the calendar day
	Start      time.Time
	End        time.Time
	Minutes    int
}

// Summary aggregates worked intervals over a date range.
type Summary struct {
	EmployeeID   string
	From         time.Time
	To           time.Time
	TotalMinutes int
	WorkedDays   int
	UnclosedDays int // days with a CLOCK_IN but no usable CLOCK_OUT
	LateDays     int
}
