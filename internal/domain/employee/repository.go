package employee

import "context"

// ConfigRepository is the read-only view of employee configuration owned by
// the surrounding HR application.
type ConfigRepository interface {
	GetConfig(ctx context.Context, id string) (Config, error)

	// GetDaySchedule returns ErrNoDaySchedule when the employee has no planned
	// work on that ISO weekday.
	GetDaySchedule(ctx context.Context, id string, isoWeekday int) (DaySchedule, error)

	ListActiveIDs(ctx context.Context) ([]string, error)
}
