package events

import (
	"time"

	"github.com/google/uuid"
)

// Event names published by the workforce core.
const (
	AttendanceEventAppended = "attendance.event_appended"
	AttendanceUnclosedDays  = "attendance.unclosed_days"
	ShiftValidationFailed   = "shift.validation_failed"
	ShiftPublished          = "shift.published"
	LeaveAdjusted           = "leave.adjusted"
	PayrollReconciled       = "payroll.reconciled"
	PayrollPaid             = "payroll.paid"
)

// Event is a fire-and-forget notification about a state change. Payload must
// be JSON serialisable.
type Event struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	EmployeeID string         `json:"employee_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

func New(name, employeeID string, payload map[string]any) Event {
	return Event{
		ID:         uuid.New().String(),
		Name:       name,
		EmployeeID: employeeID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}
