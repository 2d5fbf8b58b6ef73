package schedule

import (
	"context"
	"time"
)

type ShiftRepository interface {
	// LockEmployee serialises check-then-write sequences for one employee. It
	// must be called inside a transaction and is released on commit or rollback.
	LockEmployee(ctx context.Context, employeeID string) error

	// ListPublished returns PUBLISHED shifts of the employee intersecting
	// [from, to], ordered by start time.
	ListPublished(ctx context.Context, employeeID string, from, to time.Time) ([]Shift, error)

	Create(ctx context.Context, shift Shift) (Shift, error)
	GetByID(ctx context.Context, id string) (Shift, error)
	UpdateStatus(ctx context.Context, id string, status ShiftStatus) (Shift, error)
}
