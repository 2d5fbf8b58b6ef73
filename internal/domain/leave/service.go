package leave

import "context"

type LeaveBudgetService interface {
	Adjust(ctx context.Context, req AdjustRequest) (AdjustResult, error)

	// ApplyTransition adjusts the budget for a leave request status change.
	// It returns nil and no error for transitions that do not touch the budget.
	ApplyTransition(ctx context.Context, req TransitionRequest) (*AdjustResult, error)
}
