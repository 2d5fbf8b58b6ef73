package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/domain/payroll"
)

// PayrollJobs keeps DRAFT payroll records in line with the attendance ledger.
type PayrollJobs struct {
	payrollService payroll.PayrollService
	interval       time.Duration
	closingDays    int
	location       *time.Location
	now            func() time.Time
}

// NewPayrollJobs reconciles the current month on every run, and the previous
// month as well during the first closingDays days of a month.
func NewPayrollJobs(payrollService payroll.PayrollService, interval time.Duration, closingDays int, loc *time.Location) *PayrollJobs {
	if loc == nil {
		loc = time.UTC
	}
	return &PayrollJobs{
		payrollService: payrollService,
		interval:       interval,
		closingDays:    closingDays,
		location:       loc,
		now:            time.Now,
	}
}

func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(Job{
		Name:     "reconcile_open_payrolls",
		Interval: j.interval,
		Timeout:  j.interval,
		Fn:       j.ReconcileOpenPeriods,
	})
}

// Period is one payroll month.
type Period struct {
	Month int
	Year  int
}

// OpenPeriods returns the periods the next run will reconcile, oldest first.
func (j *PayrollJobs) OpenPeriods() []Period {
	now := j.now().In(j.location)
	current := Period{Month: int(now.Month()), Year: now.Year()}
	if now.Day() > j.closingDays {
		return []Period{current}
	}
	prev := now.AddDate(0, 0, -now.Day())
	return []Period{{Month: int(prev.Month()), Year: prev.Year()}, current}
}

func (j *PayrollJobs) ReconcileOpenPeriods(ctx context.Context) error {
	var errs []error
	for _, p := range j.OpenPeriods() {
		report, err := j.payrollService.ReconcileAll(ctx, p.Month, p.Year)
		if err != nil {
			errs = append(errs, fmt.Errorf("reconcile %02d/%d: %w", p.Month, p.Year, err))
			continue
		}
		if len(report.Failed) > 0 {
			errs = append(errs, fmt.Errorf("reconcile %02d/%d: %d employees failed", p.Month, p.Year, len(report.Failed)))
		}
		slog.InfoContext(ctx, "Cron: payroll period reconciled",
			"month", p.Month,
			"year", p.Year,
			"reconciled", report.Reconciled,
			"skipped_paid", report.SkippedPaid,
		)
	}
	return errors.Join(errs...)
}
