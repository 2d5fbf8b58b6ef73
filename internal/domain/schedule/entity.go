package schedule

import (
	"fmt"
	"time"
)

type ShiftStatus string

const (
	ShiftStatusDraft     ShiftStatus = "DRAFT"
	ShiftStatusPublished ShiftStatus = "PUBLISHED"
	ShiftStatusCancelled ShiftStatus = "CANCELLED"
)

var ShiftStatusValues = []string{
	string(ShiftStatusDraft),
	string(ShiftStatusPublished),
	string(ShiftStatusCancelled),
}

// DefaultMinRestHours is the rest gap used when none is configured.
const DefaultMinRestHours = 8

type Shift struct {
	ID         string
	EmployeeID string
	StartTime  time.Time
	EndTime    time.Time
	Status     ShiftStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (s Shift) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// Overlaps uses inclusive boundaries, so shifts that touch overlap.
func (s Shift) Overlaps(start, end time.Time) bool {
	return !s.StartTime.After(end) && !s.EndTime.Before(start)
}

func (s Shift) String() string {
	return fmt.Sprintf("%s [%s, %s]", s.ID, s.StartTime.UTC().Format(time.RFC3339), s.EndTime.UTC().Format(time.RFC3339))
}

// ViolationKind names the check a proposed shift failed.
type ViolationKind string

const (
	ViolationOverlap   ViolationKind = "OVERLAP"
	ViolationRest      ViolationKind = "REST"
	ViolationWeeklyCap ViolationKind = "WEEKLY_CAP"
)

// RestSide says which neighbour of the proposed shift is too close.
type RestSide string

const (
	RestSideBefore RestSide = "before"
	RestSideAfter  RestSide = "after"
)

// ValidationResult is the outcome of a constraint check. Violation is nil
// when Valid is true.
type ValidationResult struct {
	Valid     bool
	Violation *Violation
}

func Accepted() ValidationResult {
	return ValidationResult{Valid: true}
}

func Rejected(v *Violation) ValidationResult {
	return ValidationResult{Valid: false, Violation: v}
}
