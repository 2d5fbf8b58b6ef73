package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the workforce core. All methods are
// safe on a nil receiver so services can run without metrics in tests.
type Metrics struct {
	// Attendance events appended by type and lateness
	AttendanceEvents *prometheus.CounterVec

	// Shift constraint checks by outcome (valid, OVERLAP, REST, WEEKLY_CAP)
	ShiftValidations *prometheus.CounterVec

	// Leave budget adjustments by direction and outcome
	LeaveAdjustments *prometheus.CounterVec

	// Payroll reconciliations by outcome (reconciled, skipped_paid, failed)
	PayrollReconciliations *prometheus.CounterVec

	// Duration of a single payroll reconciliation
	PayrollReconcileLatency prometheus.Histogram

	// Schedule lookups that fell back to isLate=false
	ScheduleLookupFallbacks prometheus.Counter
}

// New registers all workforce metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AttendanceEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "workforce_attendance_events_total",
			Help: "Total clock events appended to the attendance ledger",
		}, []string{"type", "late"}),

		ShiftValidations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "workforce_shift_validations_total",
			Help: "Total shift constraint checks by outcome",
		}, []string{"outcome"}),

		LeaveAdjustments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "workforce_leave_adjustments_total",
			Help: "Total leave budget adjustments by direction and outcome",
		}, []string{"direction", "outcome"}),

		PayrollReconciliations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "workforce_payroll_reconciliations_total",
			Help: "Total payroll reconciliations by outcome",
		}, []string{"outcome"}),

		PayrollReconcileLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "workforce_payroll_reconcile_duration_seconds",
			Help:    "Duration of a single payroll reconciliation",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		ScheduleLookupFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "workforce_schedule_lookup_fallbacks_total",
			Help: "Schedule lookups that failed or timed out while computing lateness",
		}),
	}
}

func (m *Metrics) IncAttendanceEvent(eventType string, late bool) {
	if m != nil {
		lateLabel := "false"
		if late {
			lateLabel = "true"
		}
		m.AttendanceEvents.WithLabelValues(eventType, lateLabel).Inc()
	}
}

func (m *Metrics) IncShiftValidation(outcome string) {
	if m != nil {
		m.ShiftValidations.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncLeaveAdjustment(direction, outcome string) {
	if m != nil {
		m.LeaveAdjustments.WithLabelValues(direction, outcome).Inc()
	}
}

func (m *Metrics) IncPayrollReconciliation(outcome string) {
	if m != nil {
		m.PayrollReconciliations.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObservePayrollReconcile(d time.Duration) {
	if m != nil {
		m.PayrollReconcileLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncScheduleLookupFallback() {
	if m != nil {
		m.ScheduleLookupFallbacks.Inc()
	}
}
