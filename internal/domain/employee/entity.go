package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultWeeklyHourGoal = 45

type EmploymentStatus string

const (
	EmploymentStatusActive EmploymentStatus = "active"
)

// Config is the read-only slice of the employee record the workforce core needs.
type Config struct {
	ID                       string
	FullName                 string
	HourlyRate               decimal.Decimal // zero means no hourly pay configured
	WeeklyHourGoal           int
	Timezone                 string
	EmploymentStatus         EmploymentStatus
	AnnualLeaveDaysRemaining decimal.Decimal
	UpdatedAt                time.Time
}

// HasHourlyPay reports whether payroll should be computed from hours worked.
func (c Config) HasHourlyPay() bool {
	return c.HourlyRate.IsPositive()
}

// WeeklyCapHours returns the weekly hour goal, defaulting when unset.
func (c Config) WeeklyCapHours(fallback int) int {
	if c.WeeklyHourGoal > 0 {
		return c.WeeklyHourGoal
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultWeeklyHourGoal
}

// Location resolves the employee timezone, falling back when unset or unknown.
func (c Config) Location(fallback *time.Location) *time.Location {
	if c.Timezone != "" {
		if loc, err := time.LoadLocation(c.Timezone); err == nil {
			return loc
		}
	}
	if fallback != nil {
		return fallback
	}
	return time.UTC
}

// DaySchedule is the planned start of work on one weekday.
type DaySchedule struct {
	DayOfWeek          int // 1=Monday, ..., 7=Sunday
	ClockInTime        time.Time
	GracePeriodMinutes int
}

// ISOWeekday converts time.Weekday to 1=Monday..7=Sunday.
func ISOWeekday(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}

// LateAfter returns the instant after which a clock-in on day (local) is late.
func (s DaySchedule) LateAfter(day time.Time) time.Time {
	scheduledIn := time.Date(
		day.Year(), day.Month(), day.Day(),
		s.ClockInTime.Hour(), s.ClockInTime.Minute(), 0, 0,
		day.Location(),
	)
	return scheduledIn.Add(time.Duration(s.GracePeriodMinutes) * time.Minute)
}
