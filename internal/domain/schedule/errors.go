package schedule

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/pkg/apperror"
)

var (
	// Constraint violation kinds, matched with errors.Is against a *Violation
	ErrOverlapViolation   = fmt.Errorf("shift overlaps a published shift: %w", apperror.ErrConstraintViolation)
	ErrRestViolation      = fmt.Errorf("rest gap too short: %w", apperror.ErrConstraintViolation)
	ErrWeeklyCapViolation = fmt.Errorf("weekly hour cap exceeded: %w", apperror.ErrConstraintViolation)

	// Shift errors
	ErrShiftNotFound      = fmt.Errorf("shift %w", apperror.ErrNotFound)
	ErrShiftCancelled     = apperror.New(apperror.ErrImmutableState, "SHIFT_CANCELLED", "shift is cancelled")
	ErrShiftNotDraft      = apperror.Validation("SHIFT_NOT_DRAFT", "only draft shifts can be published")
	ErrInvalidShiftWindow = apperror.Validation("INVALID_SHIFT_WINDOW", "end_time must be after start_time")
	ErrInvalidShiftStatus = apperror.Validation("INVALID_SHIFT_STATUS", "status must be DRAFT or PUBLISHED")
)

// Violation is a failed constraint check. It is returned inside a
// ValidationResult by Validate and as an error by Create and Publish.
type Violation struct {
	Kind    ViolationKind
	Message string

	// ConflictingShiftID is set for overlap and rest violations.
	ConflictingShiftID string
	// Side is set for rest violations.
	Side RestSide
	// WeeklyHours and WeeklyCapHours are set for weekly cap violations.
	WeeklyHours    float64
	WeeklyCapHours int
}

func (v *Violation) Error() string {
	return v.Message
}

func (v *Violation) Is(target error) bool {
	if target == apperror.ErrConstraintViolation {
		return true
	}
	switch v.Kind {
	case ViolationOverlap:
		return target == ErrOverlapViolation
	case ViolationRest:
		return target == ErrRestViolation
	case ViolationWeeklyCap:
		return target == ErrWeeklyCapViolation
	}
	return false
}

// Code is the machine readable name used by the HTTP layer.
func (v *Violation) Code() string {
	return string(v.Kind) + "_VIOLATION"
}

func NewOverlapViolation(conflict Shift) *Violation {
	return &Violation{
		Kind:               ViolationOverlap,
		Message:            fmt.Sprintf("shift overlaps published shift %s", conflict),
		ConflictingShiftID: conflict.ID,
	}
}

func NewRestViolation(side RestSide, neighbour Shift, gap time.Duration, minRestHours int) *Violation {
	var msg string
	if side == RestSideBefore {
		msg = fmt.Sprintf("only %s of rest after published shift %s ends, %d hours required before this shift starts",
			gap, neighbour, minRestHours)
	} else {
		msg = fmt.Sprintf("only %s of rest before published shift %s starts, %d hours required after this shift ends",
			gap, neighbour, minRestHours)
	}
	return &Violation{
		Kind:               ViolationRest,
		Message:            msg,
		ConflictingShiftID: neighbour.ID,
		Side:               side,
	}
}

func NewWeeklyCapViolation(total time.Duration, capHours int) *Violation {
	hours := total.Hours()
	return &Violation{
		Kind:           ViolationWeeklyCap,
		Message:        fmt.Sprintf("weekly total of %.2f hours exceeds the cap of %d hours", hours, capHours),
		WeeklyHours:    hours,
		WeeklyCapHours: capHours,
	}
}
