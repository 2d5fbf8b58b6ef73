// Package memory provides in-memory repositories for tests and local runs.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/cmlabs-hris/workforce-core/internal/domain/attendance"
	"github.com/cmlabs-hris/workforce-core/internal/domain/employee"
	"github.com/cmlabs-hris/workforce-core/internal/domain/leave"
	"github.com/cmlabs-hris/workforce-core/internal/domain/payroll"
	"github.com/cmlabs-hris/workforce-core/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/database"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

// Store holds every table of the workforce core. Repositories created from
// the same Store share its data and its transactions.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	employees map[string]employee.Config
	schedules map[scheduleKey]employee.DaySchedule
	events    map[string][]attendance.Event
	shifts    map[string]schedule.Shift
	balances  map[string]balanceRow
	entries   map[entryKey]leave.BudgetEntry
	payrolls  map[periodKey]payroll.Payroll
}

type scheduleKey struct {
	EmployeeID string
	DayOfWeek  int
}

type entryKey struct {
	LeaveRequestID string
	Direction      leave.Direction
}

type periodKey struct {
	EmployeeID string
	Month      int
	Year       int
}

type txKey struct{}

func NewStore() *Store {
	return &Store{
		employees: make(map[string]employee.Config),
		schedules: make(map[scheduleKey]employee.DaySchedule),
		events:    make(map[string][]attendance.Event),
		shifts:    make(map[string]schedule.Shift),
		balances:  make(map[string]balanceRow),
		entries:   make(map[entryKey]leave.BudgetEntry),
		payrolls:  make(map[periodKey]payroll.Payroll),
	}
}

var _ database.Transactor = (*Store)(nil)

// WithinTx runs fn with transactions serialised. State is restored from a
// snapshot when fn fails. Nested calls join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// lock takes the table write lock. A write outside a transaction also waits
// for the open transaction so its rollback cannot discard the write.
func (s *Store) lock(ctx context.Context) (unlock func()) {
	if ctx.Value(txKey{}) != nil {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

type snapshot struct {
	events   map[string][]attendance.Event
	shifts   map[string]schedule.Shift
	balances map[string]balanceRow
	entries  map[entryKey]leave.BudgetEntry
	payrolls map[periodKey]payroll.Payroll
}

// snapshot copies the tables mutated by the workforce core. Employee config
// and schedules are read-only here.
func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make(map[string][]attendance.Event, len(s.events))
	for k, v := range s.events {
		events[k] = append([]attendance.Event(nil), v...)
	}
	return snapshot{
		events:   events,
		shifts:   maps.Clone(s.shifts),
		balances: maps.Clone(s.balances),
		entries:  maps.Clone(s.entries),
		payrolls: maps.Clone(s.payrolls),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = snap.events
	s.shifts = snap.shifts
	s.balances = snap.balances
	s.entries = snap.entries
	s.payrolls = snap.payrolls
}

// =============================================================================
// SEEDING
// =============================================================================

// PutEmployee stores the employee config and sets its leave balance.
func (s *Store) PutEmployee(cfg employee.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.employees[cfg.ID] = cfg
	s.balances[cfg.ID] = balanceRow{remaining: cfg.AnnualLeaveDaysRemaining}
}

func (s *Store) PutDaySchedule(employeeID string, ds employee.DaySchedule) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.schedules[scheduleKey{EmployeeID: employeeID, DayOfWeek: ds.DayOfWeek}] = ds
}
