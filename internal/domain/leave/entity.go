package leave

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionDeduct Direction = "DEDUCT"
	DirectionRefund Direction = "REFUND"
)

var DirectionValues = []string{
	string(DirectionDeduct),
	string(DirectionRefund),
}

type LeaveRequestStatus string

const (
	LeaveRequestStatusPending   LeaveRequestStatus = "PENDING"
	LeaveRequestStatusApproved  LeaveRequestStatus = "APPROVED"
	LeaveRequestStatusRejected  LeaveRequestStatus = "REJECTED"
	LeaveRequestStatusCancelled LeaveRequestStatus = "CANCELLED"
)

var LeaveRequestStatusValues = []string{
	string(LeaveRequestStatusPending),
	string(LeaveRequestStatusApproved),
	string(LeaveRequestStatusRejected),
	string(LeaveRequestStatusCancelled),
}

// LeaveRequest is owned by the approval workflow. The budget ledger only reads it.
type LeaveRequest struct {
	ID         string
	EmployeeID string
	StartDate  time.Time
	EndDate    time.Time
	Status     LeaveRequestStatus
}

// BudgetEntry is the audit row written for every applied adjustment. With a
// leave request id it is unique per (request, direction).
type BudgetEntry struct {
	ID             string
	EmployeeID     string
	LeaveRequestID *string
	Direction      Direction
	Days           decimal.Decimal
	BalanceAfter   decimal.Decimal
	CreatedAt      time.Time
}

// AdjustResult reports the balance after an adjustment. Applied is false when
// the same request and direction had already been applied.
type AdjustResult struct {
	EmployeeID string
	Direction  Direction
	Days       decimal.Decimal
	Balance    decimal.Decimal
	Applied    bool
}

// CountDays returns the inclusive day span ceil((end-start)/24h) + 1.
func CountDays(start, end time.Time) int {
	span := end.Sub(start)
	return int(math.Ceil(span.Hours()/24)) + 1
}

// DirectionFor maps a leave request transition to a budget adjustment.
// ok is false for transitions that do not touch the budget.
func DirectionFor(from, to LeaveRequestStatus) (Direction, bool) {
	switch {
	case from == LeaveRequestStatusPending && to == LeaveRequestStatusApproved:
		return DirectionDeduct, true
	case from == LeaveRequestStatusApproved &&
		(to == LeaveRequestStatusRejected || to == LeaveRequestStatusCancelled):
		return DirectionRefund, true
	}
	return "", false
}
