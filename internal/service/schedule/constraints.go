package schedule

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/domain/employee"
	"github.com/cmlabs-hris/workforce-core/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/apperror"
)

// checkIntegrity fails when two stored PUBLISHED shifts overlap. shifts must
// be ordered by start time.
func checkIntegrity(shifts []schedule.Shift) error {
	for i := 1; i < len(shifts); i++ {
		for j := 0; j < i; j++ {
			if shifts[j].Overlaps(shifts[i].StartTime, shifts[i].EndTime) {
				return apperror.Integrity(
					fmt.Sprintf("published shifts %s and %s overlap", shifts[j].ID, shifts[i].ID), nil)
			}
		}
	}
	return nil
}

func checkOverlap(shifts []schedule.Shift, start, end time.Time) *schedule.Violation {
	for _, sh := range shifts {
		if sh.Overlaps(start, end) {
			return schedule.NewOverlapViolation(sh)
		}
	}
	return nil
}

// checkRest looks at the nearest shift ending at or before start and the
// nearest shift starting at or after end.
func checkRest(shifts []schedule.Shift, start, end time.Time, rest time.Duration, minRestHours int) *schedule.Violation {
	var prev, next *schedule.Shift
	for i := range shifts {
		sh := &shifts[i]
		if !sh.EndTime.After(start) && (prev == nil || sh.EndTime.After(prev.EndTime)) {
			prev = sh
		}
		if !sh.StartTime.Before(end) && (next == nil || sh.StartTime.Before(next.StartTime)) {
			next = sh
		}
	}

	if prev != nil {
		if gap := start.Sub(prev.EndTime); gap < rest {
			return schedule.NewRestViolation(schedule.RestSideBefore, *prev, gap, minRestHours)
		}
	}
	if next != nil {
		if gap := next.StartTime.Sub(end); gap < rest {
			return schedule.NewRestViolation(schedule.RestSideAfter, *next, gap, minRestHours)
		}
	}
	return nil
}

// checkWeeklyCap sums shifts starting in [weekStart, weekEnd) plus the
// proposed one. Landing exactly on the cap is allowed.
func checkWeeklyCap(shifts []schedule.Shift, start, end, weekStart, weekEnd time.Time, capHours int) *schedule.Violation {
	total := end.Sub(start)
	for _, sh := range shifts {
		if !sh.StartTime.Before(weekStart) && sh.StartTime.Before(weekEnd) {
			total += sh.Duration()
		}
	}
	if total > time.Duration(capHours)*time.Hour {
		return schedule.NewWeeklyCapViolation(total, capHours)
	}
	return nil
}

// isoWeek returns the Monday 00:00 starting t's ISO week in loc and the
// following Monday.
func isoWeek(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	offset := employee.ISOWeekday(local.Weekday()) - 1
	weekStart := time.Date(local.Year(), local.Month(), local.Day()-offset, 0, 0, 0, 0, loc)
	return weekStart, weekStart.AddDate(0, 0, 7)
}
