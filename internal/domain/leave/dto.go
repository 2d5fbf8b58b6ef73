package leave

import (
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// AdjustRequest is a budget adjustment over an inclusive date span.
type AdjustRequest struct {
	EmployeeID     string
	StartDate      time.Time
	EndDate        time.Time
	Direction      Direction
	LeaveRequestID *string
}

func (r *AdjustRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}
	if r.StartDate.IsZero() {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date is required",
		})
	}
	if r.EndDate.IsZero() {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date is required",
		})
	}
	if len(errs) > 0 {
		return errs
	}

	if !validator.IsInSlice(string(r.Direction), DirectionValues) {
		return ErrInvalidDirection
	}
	if r.EndDate.Before(r.StartDate) {
		return ErrInvalidDateRange
	}
	return nil
}

// TransitionRequest describes a leave request moving from one status to another.
type TransitionRequest struct {
	Request LeaveRequest
	From    LeaveRequestStatus
	To      LeaveRequestStatus
}

// ========================================
// HTTP DTOs
// ========================================

type AdjustLeaveBudgetRequest struct {
	EmployeeID     string  `json:"employee_id"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	Direction      string  `json:"direction"`
	LeaveRequestID *string `json:"leave_request_id,omitempty"`
}

func (r *AdjustLeaveBudgetRequest) ToAdjustRequest() (AdjustRequest, error) {
	start, end, err := parseDates(r.StartDate, r.EndDate)
	if err != nil {
		return AdjustRequest{}, err
	}
	return AdjustRequest{
		EmployeeID:     r.EmployeeID,
		StartDate:      start,
		EndDate:        end,
		Direction:      Direction(r.Direction),
		LeaveRequestID: r.LeaveRequestID,
	}, nil
}

type LeaveTransitionRequest struct {
	LeaveRequestID string `json:"leave_request_id"`
	EmployeeID     string `json:"employee_id"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	From           string `json:"from_status"`
	To             string `json:"to_status"`
}

func (r *LeaveTransitionRequest) ToTransitionRequest() (TransitionRequest, error) {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.LeaveRequestID) {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_request_id",
			Message: "leave_request_id is required",
		})
	}
	if !validator.IsInSlice(r.From, LeaveRequestStatusValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "from_status",
			Message: "from_status must be one of: PENDING, APPROVED, REJECTED, CANCELLED",
		})
	}
	if !validator.IsInSlice(r.To, LeaveRequestStatusValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "to_status",
			Message: "to_status must be one of: PENDING, APPROVED, REJECTED, CANCELLED",
		})
	}
	if len(errs) > 0 {
		return TransitionRequest{}, errs
	}

	start, end, err := parseDates(r.StartDate, r.EndDate)
	if err != nil {
		return TransitionRequest{}, err
	}
	return TransitionRequest{
		Request: LeaveRequest{
			ID:         r.LeaveRequestID,
			EmployeeID: r.EmployeeID,
			StartDate:  start,
			EndDate:    end,
			Status:     LeaveRequestStatus(r.From),
		},
		From: LeaveRequestStatus(r.From),
		To:   LeaveRequestStatus(r.To),
	}, nil
}

func parseDates(startStr, endStr string) (time.Time, time.Time, error) {
	var errs validator.ValidationErrors

	start, ok := validator.IsValidDate(startStr)
	if !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be in YYYY-MM-DD format",
		})
	}
	end, ok := validator.IsValidDate(endStr)
	if !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be in YYYY-MM-DD format",
		})
	}
	if len(errs) > 0 {
		return time.Time{}, time.Time{}, errs
	}
	return start, end, nil
}

type AdjustResponse struct {
	EmployeeID string          `json:"employee_id"`
	Direction  string          `json:"direction"`
	Days       decimal.Decimal `json:"days"`
	Balance    decimal.Decimal `json:"balance"`
	Applied    bool            `json:"applied"`
}

func NewAdjustResponse(r AdjustResult) AdjustResponse {
	return AdjustResponse{
		EmployeeID: r.EmployeeID,
		Direction:  string(r.Direction),
		Days:       r.Days,
		Balance:    r.Balance,
		Applied:    r.Applied,
	}
}
