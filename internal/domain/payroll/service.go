package payroll

import (
	"context"
)

type PayrollService interface {
	// Reconcile recomputes the DRAFT record of the period from the attendance
	// ledger. A PAID record is returned unchanged.
	Reconcile(ctx context.Context, employeeID string, month, year int) (Payroll, error)

	// ReconcileAll reconciles every active employee. Per-employee failures are
	// collected in the report.
	ReconcileAll(ctx context.Context, month, year int) (ReconcileReport, error)

	Get(ctx context.Context, employeeID string, month, year int) (Payroll, error)
	SetAdjustments(ctx context.Context, req SetAdjustmentsRequest) (Payroll, error)
	MarkPaid(ctx context.Context, req MarkPaidRequest) (Payroll, error)
}
