package attendance

import (
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/pkg/validator"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

type AppendEventRequest struct {
	EmployeeID    string    `json:"employee_id"`
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	CaptureMethod string    `json:"capture_method"`
}

// Validate checks the shape of the request. The clock skew rule needs the
// current time and is checked by the service.
func (r *AppendEventRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if !validator.IsInSlice(string(r.Type), EventTypeValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of: CLOCK_IN, CLOCK_OUT",
		})
	}

	if r.Timestamp.IsZero() {
		errs = append(errs, validator.ValidationError{
			Field:   "timestamp",
			Message: "timestamp is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type EventResponse struct {
	ID            string `json:"id"`
	EmployeeID    string `json:"employee_id"`
	Type          string `json:"type"`
	Timestamp     string `json:"timestamp"`
	CaptureMethod string `json:"capture_method"`
	IsLate        bool   `json:"is_late"`
	CreatedAt     string `json:"created_at"`
}

func NewEventResponse(e Event) EventResponse {
	return EventResponse{
		ID:            e.ID,
		EmployeeID:    e.EmployeeID,
		Type:          string(e.Type),
		Timestamp:     e.Timestamp.UTC().Format(time.RFC3339),
		CaptureMethod: e.CaptureMethod,
		IsLate:        e.IsLate,
		CreatedAt:     e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// RangeQuery is the ?from=&to= pair of the interval and summary endpoints.
type RangeQuery struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Parse validates both dates and returns them as date-only values.
func (q RangeQuery) Parse() (time.Time, time.Time, error) {
	var errs validator.ValidationErrors

	from, ok := validator.IsValidDate(q.From)
	if !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "from",
			Message: "from must be in YYYY-MM-DD format",
		})
	}
	to, ok := validator.IsValidDate(q.To)
	if !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "to",
			Message: "to must be in YYYY-MM-DD format",
		})
	}
	if len(errs) == 0 && to.Before(from) {
		errs = append(errs, validator.ValidationError{
			Field:   "to",
			Message: "to must not be before from",
		})
	}

	if len(errs) > 0 {
		return time.Time{}, time.Time{}, errs
	}
	return from, to, nil
}

type IntervalResponse struct {
	Day     string `json:"day"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Minutes int    `json:"minutes"`
}

func NewIntervalResponse(w WorkedInterval) IntervalResponse {
	return IntervalResponse{
		Day:     w.Day.Format("2006-01-02"),
		Start:   w.Start.Format(time.RFC3339),
		End:     w.End.Format(time.RFC3339),
		Minutes: w.Minutes,
	}
}

type SummaryResponse struct {
	EmployeeID   string `json:"employee_id"`
	From         string `json:"from"`
	To           string `json:"to"`
	TotalMinutes int    `json:"total_minutes"`
	WorkedDays   int    `json:"worked_days"`
	UnclosedDays int    `json:"unclosed_days"`
	LateDays     int    `json:"late_days"`
}

func NewSummaryResponse(s Summary) SummaryResponse {
	return SummaryResponse{
		EmployeeID:   s.EmployeeID,
		From:         s.From.Format("2006-01-02"),
		To:           s.To.Format("2006-01-02"),
		TotalMinutes: s.TotalMinutes,
		WorkedDays:   s.WorkedDays,
		UnclosedDays: s.UnclosedDays,
		LateDays:     s.LateDays,
	}
}
