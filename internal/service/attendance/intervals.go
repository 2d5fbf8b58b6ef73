package attendance

import (
	"slices"
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/domain/attendance"
)

// workDay holds the events of one local calendar day that decide its interval.
type workDay struct {
	day     time.Time
	firstIn *attendance.Event
	lastOut *attendance.Event
}

// interval pairs the first CLOCK_IN with the latest CLOCK_OUT. Days without a
// CLOCK_OUT after the first CLOCK_IN have no interval.
func (d workDay) interval(employeeID string) (attendance.WorkedInterval, bool) {
	if d.firstIn == nil || d.lastOut == nil || !d.lastOut.Timestamp.After(d.firstIn.Timestamp) {
		return attendance.WorkedInterval{}, false
	}
	start := d.firstIn.Timestamp.In(d.day.Location())
	end := d.lastOut.Timestamp.In(d.day.Location())
	return attendance.WorkedInterval{
		EmployeeID: employeeID,
		Day:        d.day,
		Start:      start,
		End:        end,
		Minutes:    int(end.Sub(start) / time.Minute),
	}, true
}

func (d workDay) unclosed() bool {
	_, ok := d.interval("")
	return d.firstIn != nil && !ok
}

// groupByDay partitions events by calendar day in loc and returns the days in
// ascending order. Intermediate swipes are ignored.
func groupByDay(events []attendance.Event, loc *time.Location) []workDay {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b attendance.Event) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	var days []workDay
	for i := range sorted {
		e := &sorted[i]
		day := localDate(e.Timestamp, loc)

		if len(days) == 0 || !days[len(days)-1].day.Equal(day) {
			days = append(days, workDay{day: day})
		}
		current := &days[len(days)-1]

		switch e.Type {
		case attendance.EventTypeClockIn:
			if current.firstIn == nil {
				current.firstIn = e
			}
		case attendance.EventTypeClockOut:
			current.lastOut = e
		}
	}
	return days
}

// localDate returns midnight of t's calendar day in loc.
func localDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
