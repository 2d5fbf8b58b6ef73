package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/domain/leave"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/database"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/events"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Config holds the leave budget policy.
type Config struct {
	// AllowNegative restores the trust-based behaviour where a deduction may
	// drive the balance below zero.
	AllowNegative bool
}

type LeaveBudgetServiceImpl struct {
	leave.BalanceRepository
	tx      database.Transactor
	emitter events.Emitter
	metrics *metrics.Metrics
	config  Config
}

var _ leave.LeaveBudgetService = (*LeaveBudgetServiceImpl)(nil)

func NewLeaveBudgetService(tx database.Transactor, balanceRepo leave.BalanceRepository, emitter events.Emitter, m *metrics.Metrics, cfg Config) *LeaveBudgetServiceImpl {
	if emitter == nil {
		emitter = events.Discard
	}
	return &LeaveBudgetServiceImpl{
		BalanceRepository: balanceRepo,
		tx:                tx,
		emitter:           emitter,
		metrics:           m,
		config:            cfg,
	}
}

// Adjust implements leave.LeaveBudgetService.
func (l *LeaveBudgetServiceImpl) Adjust(ctx context.Context, req leave.AdjustRequest) (leave.AdjustResult, error) {
	if err := req.Validate(); err != nil {
		return leave.AdjustResult{}, err
	}

	days := decimal.NewFromInt(int64(leave.CountDays(req.StartDate, req.EndDate)))
	delta := days
	var floor *decimal.Decimal
	if req.Direction == leave.DirectionDeduct {
		delta = days.Neg()
		if !l.config.AllowNegative {
			zero := decimal.Zero
			floor = &zero
		}
	}

	result := leave.AdjustResult{
		EmployeeID: req.EmployeeID,
		Direction:  req.Direction,
		Days:       days,
	}

	err := l.tx.WithinTx(ctx, func(txCtx context.Context) error {
		// a replay must not hit the floor check of an already applied deduction
		if err := l.checkNotApplied(txCtx, req); err != nil {
			return err
		}

		balance, err := l.BalanceRepository.AdjustBalance(txCtx, req.EmployeeID, delta, floor)
		if err != nil {
			return err
		}

		err = l.BalanceRepository.InsertEntry(txCtx, leave.BudgetEntry{
			ID:             uuid.New().String(),
			EmployeeID:     req.EmployeeID,
			LeaveRequestID: req.LeaveRequestID,
			Direction:      req.Direction,
			Days:           days,
			BalanceAfter:   balance,
			CreatedAt:      time.Now().UTC(),
		})
		if err != nil {
			return err
		}

		result.Balance = balance
		result.Applied = true
		return nil
	})

	if errors.Is(err, leave.ErrInsufficientBalance) {
		// a concurrent twin may have committed the entry while this one waited
		if applied := l.checkNotApplied(ctx, req); errors.Is(applied, leave.ErrAlreadyApplied) {
			err = applied
		}
	}

	switch {
	case err == nil:
	case errors.Is(err, leave.ErrAlreadyApplied):
		// retried request: the balance is left as the first call set it
		balance, getErr := l.BalanceRepository.GetBalance(ctx, req.EmployeeID)
		if getErr != nil {
			return leave.AdjustResult{}, fmt.Errorf("failed to get leave balance: %w", getErr)
		}
		result.Balance = balance
		l.metrics.IncLeaveAdjustment(string(req.Direction), "duplicate")
		slog.InfoContext(ctx, "leave adjustment already applied",
			"employee_id", req.EmployeeID,
			"leave_request_id", *req.LeaveRequestID,
			"direction", req.Direction,
		)
		return result, nil
	case errors.Is(err, leave.ErrInsufficientBalance):
		l.metrics.IncLeaveAdjustment(string(req.Direction), "insufficient")
		return leave.AdjustResult{}, err
	default:
		l.metrics.IncLeaveAdjustment(string(req.Direction), "failed")
		return leave.AdjustResult{}, err
	}

	l.metrics.IncLeaveAdjustment(string(req.Direction), "applied")
	payload := map[string]any{
		"direction": string(req.Direction),
		"days":      days.String(),
		"balance":   result.Balance.String(),
	}
	if req.LeaveRequestID != nil {
		payload["leave_request_id"] = *req.LeaveRequestID
	}
	l.emitter.Emit(ctx, events.New(events.LeaveAdjusted, req.EmployeeID, payload))

	return result, nil
}

func (l *LeaveBudgetServiceImpl) checkNotApplied(ctx context.Context, req leave.AdjustRequest) error {
	if req.LeaveRequestID == nil {
		return nil
	}
	exists, err := l.BalanceRepository.HasEntry(ctx, *req.LeaveRequestID, req.Direction)
	if err != nil {
		return err
	}
	if exists {
		return leave.ErrAlreadyApplied
	}
	return nil
}

// ApplyTransition implements leave.LeaveBudgetService.
func (l *LeaveBudgetServiceImpl) ApplyTransition(ctx context.Context, req leave.TransitionRequest) (*leave.AdjustResult, error) {
	direction, ok := leave.DirectionFor(req.From, req.To)
	if !ok {
		return nil, nil
	}

	requestID := req.Request.ID
	result, err := l.Adjust(ctx, leave.AdjustRequest{
		EmployeeID:     req.Request.EmployeeID,
		StartDate:      req.Request.StartDate,
		EndDate:        req.Request.EndDate,
		Direction:      direction,
		LeaveRequestID: &requestID,
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
