package attendance

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/domain/attendance"
	"github.com/cmlabs-hris/workforce-core/internal/domain/employee"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/apperror"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/events"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/metrics"
	"github.com/google/uuid"
)

// Config holds the attendance ledger policy.
type Config struct {
	DefaultLocation       *time.Location
	MaxClockSkew          time.Duration
	ScheduleLookupTimeout time.Duration
}

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	employee.ConfigRepository
	emitter events.Emitter
	metrics *metrics.Metrics
	config  Config
	now     func() time.Time
}

var _ attendance.AttendanceService = (*AttendanceServiceImpl)(nil)

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.ConfigRepository,
	emitter events.Emitter,
	m *metrics.Metrics,
	cfg Config,
) *AttendanceServiceImpl {
	if cfg.DefaultLocation == nil {
		cfg.DefaultLocation = time.UTC
	}
	if cfg.ScheduleLookupTimeout == 0 {
		cfg.ScheduleLookupTimeout = 2 * time.Second
	}
	if emitter == nil {
		emitter = events.Discard
	}
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		ConfigRepository:     employeeRepo,
		emitter:              emitter,
		metrics:              m,
		config:               cfg,
		now:                  time.Now,
	}
}

// WithClock replaces the clock used for skew checks and timestamps.
func (s *AttendanceServiceImpl) WithClock(now func() time.Time) *AttendanceServiceImpl {
	s.now = now
	return s
}

// Append implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Append(ctx context.Context, req attendance.AppendEventRequest) (attendance.Event, error) {
	if err := req.Validate(); err != nil {
		return attendance.Event{}, err
	}

	nowUTC := s.now().UTC()
	if req.Timestamp.After(nowUTC.Add(s.config.MaxClockSkew)) {
		return attendance.Event{}, attendance.ErrClockSkew
	}

	cfg, err := s.ConfigRepository.GetConfig(ctx, req.EmployeeID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return attendance.Event{}, err
		}
		return attendance.Event{}, fmt.Errorf("failed to get employee config: %w", err)
	}

	isLate := false
	if req.Type == attendance.EventTypeClockIn {
		isLate = s.computeIsLate(ctx, cfg, req.Timestamp)
	}

	event, err := s.AttendanceRepository.Append(ctx, attendance.Event{
		ID:            uuid.New().String(),
		EmployeeID:    req.EmployeeID,
		Type:          req.Type,
		Timestamp:     req.Timestamp.UTC(),
		CaptureMethod: req.CaptureMethod,
		IsLate:        isLate,
		CreatedAt:     nowUTC,
	})
	if err != nil {
		return attendance.Event{}, fmt.Errorf("failed to append attendance event: %w", err)
	}

	s.metrics.IncAttendanceEvent(string(event.Type), event.IsLate)
	s.emitter.Emit(ctx, events.New(events.AttendanceEventAppended, event.EmployeeID, map[string]any{
		"event_id":  event.ID,
		"type":      string(event.Type),
		"timestamp": event.Timestamp.Format(time.RFC3339),
		"is_late":   event.IsLate,
	}))

	return event, nil
}

// computeIsLate compares the clock-in with the weekday schedule. A missing
// schedule means not late; a failed or slow lookup falls back to not late.
func (s *AttendanceServiceImpl) computeIsLate(ctx context.Context, cfg employee.Config, ts time.Time) bool {
	local := ts.In(cfg.Location(s.config.DefaultLocation))

	lookupCtx, cancel := context.WithTimeout(ctx, s.config.ScheduleLookupTimeout)
	defer cancel()

	daySchedule, err := s.ConfigRepository.GetDaySchedule(lookupCtx, cfg.ID, employee.ISOWeekday(local.Weekday()))
	if err != nil {
		if errors.Is(err, employee.ErrNoDaySchedule) {
			return false
		}
		s.metrics.IncScheduleLookupFallback()
		slog.WarnContext(ctx, "schedule lookup failed, clock-in recorded as on time",
			"employee_id", cfg.ID,
			"timestamp", ts.UTC().Format(time.RFC3339),
			"error", err,
		)
		return false
	}

	return local.After(daySchedule.LateAfter(local))
}

// DeriveWorkedIntervals implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) DeriveWorkedIntervals(ctx context.Context, employeeID string, from, to time.Time) (iter.Seq[attendance.WorkedInterval], error) {
	days, err := s.loadDays(ctx, employeeID, from, to)
	if err != nil {
		return nil, err
	}

	return func(yield func(attendance.WorkedInterval) bool) {
		for _, d := range days {
			interval, ok := d.interval(employeeID)
			if !ok {
				continue
			}
			if !yield(interval) {
				return
			}
		}
	}, nil
}

// Summarize implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Summarize(ctx context.Context, employeeID string, from, to time.Time) (attendance.Summary, error) {
	days, err := s.loadDays(ctx, employeeID, from, to)
	if err != nil {
		return attendance.Summary{}, err
	}

	summary := attendance.Summary{
		EmployeeID: employeeID,
		From:       dateOnly(from),
		To:         dateOnly(to),
	}
	for _, d := range days {
		if d.firstIn != nil && d.firstIn.IsLate {
			summary.LateDays++
		}
		if d.unclosed() {
			summary.UnclosedDays++
			continue
		}
		if interval, ok := d.interval(employeeID); ok {
			summary.WorkedDays++
			summary.TotalMinutes += interval.Minutes
		}
	}
	return summary, nil
}

// loadDays fetches the events of the local dates [from, to] once and groups them.
func (s *AttendanceServiceImpl) loadDays(ctx context.Context, employeeID string, from, to time.Time) ([]workDay, error) {
	if employeeID == "" {
		return nil, apperror.Validation("EMPLOYEE_ID_REQUIRED", "employee_id is required")
	}
	if dateOnly(to).Before(dateOnly(from)) {
		return nil, attendance.ErrInvalidRange
	}

	cfg, err := s.ConfigRepository.GetConfig(ctx, employeeID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get employee config: %w", err)
	}
	loc := cfg.Location(s.config.DefaultLocation)

	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	end := time.Date(to.Year(), to.Month(), to.Day()+1, 0, 0, 0, 0, loc)

	evts, err := s.AttendanceRepository.ListByEmployeeInRange(ctx, employeeID, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance events: %w", err)
	}
	return groupByDay(evts, loc), nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
