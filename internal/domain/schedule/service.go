package schedule

import "context"

type ShiftService interface {
	// Validate is read-only: validating the same shift twice gives the same result.
	Validate(ctx context.Context, req ValidateShiftRequest) (ValidationResult, error)

	// Create checks and inserts in one transaction. Drafts skip the checks.
	Create(ctx context.Context, req CreateShiftRequest) (Shift, error)

	Publish(ctx context.Context, shiftID string) (Shift, error)
	Cancel(ctx context.Context, shiftID string) (Shift, error)
	GetByID(ctx context.Context, shiftID string) (Shift, error)
}
