package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/domain/employee"
	"github.com/cmlabs-hris/workforce-core/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/apperror"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/database"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/events"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/metrics"
	"github.com/google/uuid"
)

// Config holds the shift constraint policy.
type Config struct {
	MinRestHours          int
	DefaultWeeklyHourGoal int
	DefaultLocation       *time.Location
}

type ShiftServiceImpl struct {
	schedule.ShiftRepository
	employee.ConfigRepository
	tx      database.Transactor
	emitter events.Emitter
	metrics *metrics.Metrics
	config  Config
	now     func() time.Time
}

var _ schedule.ShiftService = (*ShiftServiceImpl)(nil)

func NewShiftService(
	tx database.Transactor,
	shiftRepo schedule.ShiftRepository,
	employeeRepo employee.ConfigRepository,
	emitter events.Emitter,
	m *metrics.Metrics,
	cfg Config,
) *ShiftServiceImpl {
	if cfg.MinRestHours < 0 {
		cfg.MinRestHours = schedule.DefaultMinRestHours
	}
	if cfg.DefaultWeeklyHourGoal <= 0 {
		cfg.DefaultWeeklyHourGoal = employee.DefaultWeeklyHourGoal
	}
	if cfg.DefaultLocation == nil {
		cfg.DefaultLocation = time.UTC
	}
	if emitter == nil {
		emitter = events.Discard
	}
	return &ShiftServiceImpl{
		ShiftRepository:  shiftRepo,
		ConfigRepository: employeeRepo,
		tx:               tx,
		emitter:          emitter,
		metrics:          m,
		config:           cfg,
		now:              time.Now,
	}
}

// Validate implements schedule.ShiftService.
func (s *ShiftServiceImpl) Validate(ctx context.Context, req schedule.ValidateShiftRequest) (schedule.ValidationResult, error) {
	if err := req.Validate(); err != nil {
		return schedule.ValidationResult{}, err
	}

	result, err := s.check(ctx, req.EmployeeID, req.StartTime, req.EndTime)
	if err != nil {
		return schedule.ValidationResult{}, err
	}
	s.record(ctx, req.EmployeeID, result)
	return result, nil
}

// Create implements schedule.ShiftService.
func (s *ShiftServiceImpl) Create(ctx context.Context, req schedule.CreateShiftRequest) (schedule.Shift, error) {
	if err := req.Validate(); err != nil {
		return schedule.Shift{}, err
	}

	nowUTC := s.now().UTC()
	shift := schedule.Shift{
		ID:         uuid.New().String(),
		EmployeeID: req.EmployeeID,
		StartTime:  req.StartTime.UTC(),
		EndTime:    req.EndTime.UTC(),
		Status:     req.Status,
		CreatedAt:  nowUTC,
		UpdatedAt:  nowUTC,
	}

	if shift.Status == schedule.ShiftStatusDraft {
		// drafts do not take part in constraint checks
		if _, err := s.ConfigRepository.GetConfig(ctx, shift.EmployeeID); err != nil {
			return schedule.Shift{}, err
		}
		created, err := s.ShiftRepository.Create(ctx, shift)
		if err != nil {
			return schedule.Shift{}, fmt.Errorf("failed to create shift: %w", err)
		}
		return created, nil
	}

	var created schedule.Shift
	var result schedule.ValidationResult
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if err := s.ShiftRepository.LockEmployee(txCtx, shift.EmployeeID); err != nil {
			return fmt.Errorf("failed to lock employee shifts: %w", err)
		}

		var err error
		result, err = s.check(txCtx, shift.EmployeeID, shift.StartTime, shift.EndTime)
		if err != nil {
			return err
		}
		if !result.Valid {
			return result.Violation
		}

		created, err = s.ShiftRepository.Create(txCtx, shift)
		if err != nil {
			return fmt.Errorf("failed to create shift: %w", err)
		}
		return nil
	})
	if err != nil {
		if result.Violation != nil {
			s.record(ctx, shift.EmployeeID, result)
		}
		return schedule.Shift{}, err
	}

	s.record(ctx, shift.EmployeeID, result)
	s.emitPublished(ctx, created)
	return created, nil
}

// Publish implements schedule.ShiftService.
func (s *ShiftServiceImpl) Publish(ctx context.Context, shiftID string) (schedule.Shift, error) {
	var published schedule.Shift
	var result schedule.ValidationResult
	var employeeID string
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		shift, err := s.ShiftRepository.GetByID(txCtx, shiftID)
		if err != nil {
			return err
		}
		employeeID = shift.EmployeeID
		if err := s.ShiftRepository.LockEmployee(txCtx, shift.EmployeeID); err != nil {
			return fmt.Errorf("failed to lock employee shifts: %w", err)
		}
		// re-read under the lock
		shift, err = s.ShiftRepository.GetByID(txCtx, shiftID)
		if err != nil {
			return err
		}

		switch shift.Status {
		case schedule.ShiftStatusCancelled:
			return schedule.ErrShiftCancelled
		case schedule.ShiftStatusPublished:
			return schedule.ErrShiftNotDraft
		}

		result, err = s.check(txCtx, shift.EmployeeID, shift.StartTime, shift.EndTime)
		if err != nil {
			return err
		}
		if !result.Valid {
			return result.Violation
		}

		published, err = s.ShiftRepository.UpdateStatus(txCtx, shiftID, schedule.ShiftStatusPublished)
		return err
	})
	if err != nil {
		if result.Violation != nil {
			s.record(ctx, employeeID, result)
		}
		return schedule.Shift{}, err
	}

	s.record(ctx, employeeID, result)
	s.emitPublished(ctx, published)
	return published, nil
}

// Cancel implements schedule.ShiftService.
func (s *ShiftServiceImpl) Cancel(ctx context.Context, shiftID string) (schedule.Shift, error) {
	var cancelled schedule.Shift
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		shift, err := s.ShiftRepository.GetByID(txCtx, shiftID)
		if err != nil {
			return err
		}
		if shift.Status == schedule.ShiftStatusCancelled {
			return schedule.ErrShiftCancelled
		}
		cancelled, err = s.ShiftRepository.UpdateStatus(txCtx, shiftID, schedule.ShiftStatusCancelled)
		return err
	})
	if err != nil {
		return schedule.Shift{}, err
	}
	return cancelled, nil
}

// GetByID implements schedule.ShiftService.
func (s *ShiftServiceImpl) GetByID(ctx context.Context, shiftID string) (schedule.Shift, error) {
	return s.ShiftRepository.GetByID(ctx, shiftID)
}

// check runs overlap, rest gap and weekly cap in that order and stops at the
// first failure.
func (s *ShiftServiceImpl) check(ctx context.Context, employeeID string, start, end time.Time) (schedule.ValidationResult, error) {
	cfg, err := s.ConfigRepository.GetConfig(ctx, employeeID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return schedule.ValidationResult{}, err
		}
		return schedule.ValidationResult{}, fmt.Errorf("failed to get employee config: %w", err)
	}

	rest := time.Duration(s.config.MinRestHours) * time.Hour
	weekStart, weekEnd := isoWeek(start, cfg.Location(s.config.DefaultLocation))

	from := start.Add(-rest)
	if weekStart.Before(from) {
		from = weekStart
	}
	to := end.Add(rest)
	if weekEnd.After(to) {
		to = weekEnd
	}

	published, err := s.ShiftRepository.ListPublished(ctx, employeeID, from, to)
	if err != nil {
		return schedule.ValidationResult{}, fmt.Errorf("failed to list published shifts: %w", err)
	}
	if err := checkIntegrity(published); err != nil {
		slog.ErrorContext(ctx, "published shifts violate the overlap invariant", "employee_id", employeeID, "error", err)
		return schedule.ValidationResult{}, err
	}

	if v := checkOverlap(published, start, end); v != nil {
		return schedule.Rejected(v), nil
	}
	if v := checkRest(published, start, end, rest, s.config.MinRestHours); v != nil {
		return schedule.Rejected(v), nil
	}
	capHours := cfg.WeeklyCapHours(s.config.DefaultWeeklyHourGoal)
	if v := checkWeeklyCap(published, start, end, weekStart, weekEnd, capHours); v != nil {
		return schedule.Rejected(v), nil
	}
	return schedule.Accepted(), nil
}

func (s *ShiftServiceImpl) record(ctx context.Context, employeeID string, result schedule.ValidationResult) {
	if result.Valid {
		s.metrics.IncShiftValidation("valid")
		return
	}
	if result.Violation == nil {
		return
	}
	s.metrics.IncShiftValidation(string(result.Violation.Kind))
	s.emitter.Emit(ctx, events.New(events.ShiftValidationFailed, employeeID, map[string]any{
		"kind":                 string(result.Violation.Kind),
		"message":              result.Violation.Message,
		"conflicting_shift_id": result.Violation.ConflictingShiftID,
	}))
}

func (s *ShiftServiceImpl) emitPublished(ctx context.Context, shift schedule.Shift) {
	s.emitter.Emit(ctx, events.New(events.ShiftPublished, shift.EmployeeID, map[string]any{
		"shift_id":   shift.ID,
		"start_time": shift.StartTime.Format(time.RFC3339),
		"end_time":   shift.EndTime.Format(time.RFC3339),
	}))
}
