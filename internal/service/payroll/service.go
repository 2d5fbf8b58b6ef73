package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/domain/attendance"
	"github.com/cmlabs-hris/workforce-core/internal/domain/employee"
	"github.com/cmlabs-hris/workforce-core/internal/domain/payroll"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/apperror"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/database"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/events"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Config holds payroll engine settings.
type Config struct {
	// Concurrency bounds ReconcileAll. Default 4.
	Concurrency int
}

type PayrollServiceImpl struct {
	payroll.PayrollRepository
	employee.ConfigRepository
	attendanceService attendance.AttendanceService
	tx                database.Transactor
	emitter           events.Emitter
	metrics           *metrics.Metrics
	config            Config
	now               func() time.Time
}

var _ payroll.PayrollService = (*PayrollServiceImpl)(nil)

func NewPayrollService(
	tx database.Transactor,
	payrollRepo payroll.PayrollRepository,
	employeeRepo employee.ConfigRepository,
	attendanceService attendance.AttendanceService,
	emitter events.Emitter,
	m *metrics.Metrics,
	cfg Config,
) *PayrollServiceImpl {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if emitter == nil {
		emitter = events.Discard
	}
	return &PayrollServiceImpl{
		PayrollRepository: payrollRepo,
		ConfigRepository:  employeeRepo,
		attendanceService: attendanceService,
		tx:                tx,
		emitter:           emitter,
		metrics:           m,
		config:            cfg,
		now:               time.Now,
	}
}

// WithClock replaces the clock used for PAID timestamps.
func (s *PayrollServiceImpl) WithClock(now func() time.Time) *PayrollServiceImpl {
	s.now = now
	return s
}

// Reconcile implements payroll.PayrollService.
func (s *PayrollServiceImpl) Reconcile(ctx context.Context, employeeID string, month, year int) (payroll.Payroll, error) {
	if employeeID == "" {
		return payroll.Payroll{}, apperror.Validation("EMPLOYEE_ID_REQUIRED", "employee_id is required")
	}
	if err := payroll.ValidatePeriod(month, year); err != nil {
		return payroll.Payroll{}, err
	}

	started := time.Now()
	defer func() { s.metrics.ObservePayrollReconcile(time.Since(started)) }()

	var record payroll.Payroll
	var alreadyPaid bool
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		existing, err := s.PayrollRepository.GetByPeriodForUpdate(txCtx, employeeID, month, year)
		found := err == nil
		if err != nil && !errors.Is(err, payroll.ErrPayrollRecordNotFound) {
			return fmt.Errorf("failed to get payroll record: %w", err)
		}
		if found && existing.IsPaid() {
			record, alreadyPaid = existing, true
			return nil
		}

		cfg, err := s.ConfigRepository.GetConfig(txCtx, employeeID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return err
			}
			return fmt.Errorf("failed to get employee config: %w", err)
		}

		first, last := payroll.PeriodBounds(month, year)
		summary, err := s.attendanceService.Summarize(txCtx, employeeID, first, last)
		if err != nil {
			return fmt.Errorf("failed to summarize attendance: %w", err)
		}

		// fixed-salary employees keep a zero base
		base := decimal.Zero
		if cfg.HasHourlyPay() {
			base = payroll.ComputeBaseSalary(summary.TotalMinutes, cfg.HourlyRate)
		}
		draft := payroll.Payroll{
			ID:           uuid.New().String(),
			EmployeeID:   employeeID,
			PeriodMonth:  month,
			PeriodYear:   year,
			TotalMinutes: summary.TotalMinutes,
			HoursWorked:  payroll.HoursFromMinutes(summary.TotalMinutes),
			WorkedDays:   summary.WorkedDays,
			UnclosedDays: summary.UnclosedDays,
			HourlyRate:   cfg.HourlyRate,
			BaseSalary:   base,
			Bonus:        decimal.Zero,
			Deductions:   decimal.Zero,
			Status:       payroll.PayrollStatusDraft,
		}
		if found {
			draft.ID = existing.ID
			draft.Bonus = existing.Bonus
			draft.Deductions = existing.Deductions
		}
		draft.TotalPaid = payroll.ComputeTotalPaid(draft.BaseSalary, draft.Bonus, draft.Deductions)

		record, err = s.PayrollRepository.UpsertDraft(txCtx, draft)
		if errors.Is(err, payroll.ErrPayrollRecordAlreadyPaid) {
			// paid between the read and the write
			record, err = s.PayrollRepository.GetByPeriod(txCtx, employeeID, month, year)
			alreadyPaid = true
		}
		return err
	})
	if err != nil {
		s.metrics.IncPayrollReconciliation("failed")
		return payroll.Payroll{}, err
	}

	if alreadyPaid {
		s.metrics.IncPayrollReconciliation("skipped_paid")
		slog.DebugContext(ctx, "payroll already paid, returning existing record",
			"employee_id", employeeID, "month", month, "year", year)
		return record, nil
	}

	s.metrics.IncPayrollReconciliation("reconciled")
	s.emitter.Emit(ctx, events.New(events.PayrollReconciled, employeeID, map[string]any{
		"payroll_id":    record.ID,
		"month":         month,
		"year":          year,
		"total_minutes": record.TotalMinutes,
		"total_paid":    record.TotalPaid.StringFixed(2),
	}))
	if record.UnclosedDays > 0 {
		s.emitter.Emit(ctx, events.New(events.AttendanceUnclosedDays, employeeID, map[string]any{
			"month":         month,
			"year":          year,
			"unclosed_days": record.UnclosedDays,
		}))
	}
	return record, nil
}

// ReconcileAll implements payroll.PayrollService.
func (s *PayrollServiceImpl) ReconcileAll(ctx context.Context, month, year int) (payroll.ReconcileReport, error) {
	if err := payroll.ValidatePeriod(month, year); err != nil {
		return payroll.ReconcileReport{}, err
	}

	ids, err := s.ConfigRepository.ListActiveIDs(ctx)
	if err != nil {
		return payroll.ReconcileReport{}, fmt.Errorf("failed to list active employees: %w", err)
	}

	report := payroll.ReconcileReport{
		PeriodMonth: month,
		PeriodYear:  year,
		Failed:      make(map[string]error),
	}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(s.config.Concurrency)
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			record, err := s.Reconcile(ctx, id, month, year)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				report.Failed[id] = err
			case record.IsPaid():
				report.SkippedPaid++
			default:
				report.Reconciled++
			}
			return nil
		})
	}
	_ = g.Wait()

	for id, err := range report.Failed {
		slog.ErrorContext(ctx, "payroll reconciliation failed", "employee_id", id, "month", month, "year", year, "error", err)
	}
	slog.InfoContext(ctx, "payroll reconciliation finished",
		"month", month,
		"year", year,
		"reconciled", report.Reconciled,
		"skipped_paid", report.SkippedPaid,
		"failed", len(report.Failed),
	)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// Get implements payroll.PayrollService.
func (s *PayrollServiceImpl) Get(ctx context.Context, employeeID string, month, year int) (payroll.Payroll, error) {
	if err := payroll.ValidatePeriod(month, year); err != nil {
		return payroll.Payroll{}, err
	}
	return s.PayrollRepository.GetByPeriod(ctx, employeeID, month, year)
}

// SetAdjustments implements payroll.PayrollService.
func (s *PayrollServiceImpl) SetAdjustments(ctx context.Context, req payroll.SetAdjustmentsRequest) (payroll.Payroll, error) {
	if err := req.Validate(); err != nil {
		return payroll.Payroll{}, err
	}
	bonus, deductions := req.Bonus.Round(2), req.Deductions.Round(2)
	return s.PayrollRepository.UpdateAdjustments(ctx, req.EmployeeID, req.Month, req.Year, bonus, deductions)
}

// MarkPaid implements payroll.PayrollService.
func (s *PayrollServiceImpl) MarkPaid(ctx context.Context, req payroll.MarkPaidRequest) (payroll.Payroll, error) {
	if err := req.Validate(); err != nil {
		return payroll.Payroll{}, err
	}

	record, err := s.PayrollRepository.MarkPaid(ctx, req.EmployeeID, req.Month, req.Year, req.PaidBy, s.now().UTC())
	if err != nil {
		return payroll.Payroll{}, err
	}

	s.emitter.Emit(ctx, events.New(events.PayrollPaid, req.EmployeeID, map[string]any{
		"payroll_id": record.ID,
		"month":      req.Month,
		"year":       req.Year,
		"total_paid": record.TotalPaid.StringFixed(2),
		"paid_by":    req.PaidBy,
	}))
	return record, nil
}
