package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/domain/payroll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePayrollService struct {
	payroll.PayrollService

	mu      sync.Mutex
	calls   []Period
	failFor map[Period]error
	failed  map[string]error
}

func (f *fakePayrollService) ReconcileAll(_ context.Context, month, year int) (payroll.ReconcileReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := Period{Month: month, Year: year}
	f.calls = append(f.calls, p)
	if err := f.failFor[p]; err != nil {
		return payroll.ReconcileReport{}, err
	}
	return payroll.ReconcileReport{PeriodMonth: month, PeriodYear: year, Reconciled: 3, Failed: f.failed}, nil
}

func newJobs(svc payroll.PayrollService, now time.Time) *PayrollJobs {
	j := NewPayrollJobs(svc, time.Hour, 5, time.UTC)
	j.now = func() time.Time { return now }
	return j
}

func TestOpenPeriods(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want []Period
	}{
		{"mid month", time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC), []Period{{3, 2024}}},
		{"closing window", time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC), []Period{{2, 2024}, {3, 2024}}},
		{"january closes december", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), []Period{{12, 2023}, {1, 2024}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, newJobs(&fakePayrollService{}, tt.now).OpenPeriods())
		})
	}
}

func TestReconcileOpenPeriods(t *testing.T) {
	now := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)

	t.Run("reconciles every open period", func(t *testing.T) {
		svc := &fakePayrollService{}
		require.NoError(t, newJobs(svc, now).ReconcileOpenPeriods(context.Background()))
		assert.Equal(t, []Period{{2, 2024}, {3, 2024}}, svc.calls)
	})

	t.Run("keeps going after a failed period", func(t *testing.T) {
		svc := &fakePayrollService{failFor: map[Period]error{{2, 2024}: errors.New("db down")}}
		err := newJobs(svc, now).ReconcileOpenPeriods(context.Background())
		require.Error(t, err)
		assert.ErrorContains(t, err, "db down")
		assert.Len(t, svc.calls, 2)
	})

	t.Run("reports employee failures", func(t *testing.T) {
		svc := &fakePayrollService{failed: map[string]error{"emp-1": errors.New("boom")}}
		err := newJobs(svc, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)).ReconcileOpenPeriods(context.Background())
		assert.ErrorContains(t, err, "1 employees failed")
	})
}

func TestScheduler_RunOnceAndStop(t *testing.T) {
	svc := &fakePayrollService{}
	s := NewScheduler(context.Background(), nil)
	newJobs(svc, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)).RegisterJobs(s)

	s.AddJob(Job{Name: "always_fails", Interval: time.Hour, Fn: func(context.Context) error {
		return errors.New("nope")
	}})

	assert.Equal(t, 1, s.RunOnce(context.Background()))
	assert.Equal(t, []Period{{3, 2024}}, svc.calls)

	s.Start()
	s.Stop()

	svc.mu.Lock()
	defer svc.mu.Unlock()
	// Start runs each job immediately once
	assert.Len(t, svc.calls, 2)
}
