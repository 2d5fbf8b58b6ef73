package schedule

import (
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/pkg/validator"
)

// ========================================
// SHIFT DTOs
// ========================================

type ValidateShiftRequest struct {
	EmployeeID string    `json:"employee_id" validate:"required"`
	StartTime  time.Time `json:"start_time" validate:"required"`
	EndTime    time.Time `json:"end_time" validate:"required"`
}

func (r *ValidateShiftRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	if !r.EndTime.After(r.StartTime) {
		return ErrInvalidShiftWindow
	}
	return nil
}

type CreateShiftRequest struct {
	EmployeeID string      `json:"employee_id" validate:"required"`
	StartTime  time.Time   `json:"start_time" validate:"required"`
	EndTime    time.Time   `json:"end_time" validate:"required"`
	Status     ShiftStatus `json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED"`
}

// Validate defaults an empty status to PUBLISHED.
func (r *CreateShiftRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	if !r.EndTime.After(r.StartTime) {
		return ErrInvalidShiftWindow
	}
	if r.Status == "" {
		r.Status = ShiftStatusPublished
	}
	return nil
}

type ShiftResponse struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func NewShiftResponse(s Shift) ShiftResponse {
	return ShiftResponse{
		ID:         s.ID,
		EmployeeID: s.EmployeeID,
		StartTime:  s.StartTime.UTC().Format(time.RFC3339),
		EndTime:    s.EndTime.UTC().Format(time.RFC3339),
		Status:     string(s.Status),
		CreatedAt:  s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type ViolationResponse struct {
	Kind               string   `json:"kind"`
	Message            string   `json:"message"`
	ConflictingShiftID string   `json:"conflicting_shift_id,omitempty"`
	Side               string   `json:"side,omitempty"`
	WeeklyHours        *float64 `json:"weekly_hours,omitempty"`
	WeeklyCapHours     *int     `json:"weekly_cap_hours,omitempty"`
}

func NewViolationResponse(v *Violation) *ViolationResponse {
	if v == nil {
		return nil
	}
	resp := &ViolationResponse{
		Kind:               string(v.Kind),
		Message:            v.Message,
		ConflictingShiftID: v.ConflictingShiftID,
		Side:               string(v.Side),
	}
	if v.Kind == ViolationWeeklyCap {
		hours, capHours := v.WeeklyHours, v.WeeklyCapHours
		resp.WeeklyHours = &hours
		resp.WeeklyCapHours = &capHours
	}
	return resp
}

type ValidationResultResponse struct {
	Valid     bool               `json:"valid"`
	Violation *ViolationResponse `json:"violation,omitempty"`
}

func NewValidationResultResponse(r ValidationResult) ValidationResultResponse {
	return ValidationResultResponse{
		Valid:     r.Valid,
		Violation: NewViolationResponse(r.Violation),
	}
}
