package attendance

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/domain/attendance"
	"github.com/cmlabs-hris/workforce-core/internal/domain/employee"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/apperror"
	"github.com/cmlabs-hris/workforce-core/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T, cfg employee.Config) (*AttendanceServiceImpl, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.PutEmployee(cfg)
	svc := NewAttendanceService(
		memory.NewAttendanceRepository(store),
		memory.NewEmployeeRepository(store),
		nil,
		nil,
		Config{MaxClockSkew: 5 * time.Minute, ScheduleLookupTimeout: 50 * time.Millisecond},
	).WithClock(func() time.Time { return fixedNow })
	return svc, store
}

func appendAll(t *testing.T, svc *AttendanceServiceImpl, employeeID string, evts ...attendance.AppendEventRequest) {
	t.Helper()
	for _, e := range evts {
		e.EmployeeID = employeeID
		_, err := svc.Append(context.Background(), e)
		require.NoError(t, err)
	}
}

func clockIn(ts string) attendance.AppendEventRequest {
	return attendance.AppendEventRequest{Type: attendance.EventTypeClockIn, Timestamp: at(ts), CaptureMethod: "badge"}
}

func clockOut(ts string) attendance.AppendEventRequest {
	return attendance.AppendEventRequest{Type: attendance.EventTypeClockOut, Timestamp: at(ts), CaptureMethod: "badge"}
}

func TestDeriveWorkedIntervals_FirstInLatestOut(t *testing.T) {
	svc, _ := newTestService(t, employee.Config{ID: "emp-1"})
	appendAll(t, svc, "emp-1",
		clockIn("2024-01-10T09:00:00Z"),
		clockOut("2024-01-10T12:00:00Z"),
		clockIn("2024-01-10T13:00:00Z"),
		clockIn("2024-01-10T13:05:00Z"),
		clockOut("2024-01-10T17:00:00Z"),
	)

	seq, err := svc.DeriveWorkedIntervals(context.Background(), "emp-1", date(2024, 1, 10), date(2024, 1, 10))
	require.NoError(t, err)

	intervals := slices.Collect(seq)
	require.Len(t, intervals, 1)
	assert.Equal(t, at("2024-01-10T09:00:00Z"), intervals[0].Start.UTC())
	assert.Equal(t, at("2024-01-10T17:00:00Z"), intervals[0].End.UTC())
	assert.Equal(t, 480, intervals[0].Minutes)
	assert.Equal(t, "emp-1", intervals[0].EmployeeID)
}

func TestDeriveWorkedIntervals_UnclosedDayYieldsNothing(t *testing.T) {
	svc, _ := newTestService(t, employee.Config{ID: "emp-1"})
	appendAll(t, svc, "emp-1",
		clockIn("2024-01-10T09:00:00Z"),
		clockIn("2024-01-11T09:00:00Z"),
		clockOut("2024-01-11T17:30:00Z"),
	)

	seq, err := svc.DeriveWorkedIntervals(context.Background(), "emp-1", date(2024, 1, 10), date(2024, 1, 11))
	require.NoError(t, err)

	intervals := slices.Collect(seq)
	require.Len(t, intervals, 1)
	assert.Equal(t, date(2024, 1, 11), intervals[0].Day)
	assert.Equal(t, 510, intervals[0].Minutes)
}

func TestDeriveWorkedIntervals_ClockOutBeforeClockInYieldsNothing(t *testing.T) {
	svc, _ := newTestService(t, employee.Config{ID: "emp-1"})
	appendAll(t, svc, "emp-1",
		clockOut("2024-01-10T06:00:00Z"),
		clockIn("2024-01-10T22:00:00Z"),
	)

	seq, err := svc.DeriveWorkedIntervals(context.Background(), "emp-1", date(2024, 1, 10), date(2024, 1, 10))
	require.NoError(t, err)
	assert.Empty(t, slices.Collect(seq))
}

func TestDeriveWorkedIntervals_OrderedAndRestartable(t *testing.T) {
	svc, _ := newTestService(t, employee.Config{ID: "emp-1"})
	// appended out of order
	appendAll(t, svc, "emp-1",
		clockOut("2024-01-12T16:00:00Z"),
		clockIn("2024-01-10T08:00:00Z"),
		clockIn("2024-01-12T08:00:00Z"),
		clockOut("2024-01-10T16:00:00Z"),
		clockIn("2024-01-11T08:00:00Z"),
		clockOut("2024-01-11T10:30:00Z"),
	)

	seq, err := svc.DeriveWorkedIntervals(context.Background(), "emp-1", date(2024, 1, 10), date(2024, 1, 12))
	require.NoError(t, err)

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	require.Len(t, first, 3)
	assert.Equal(t, first, second)

	var days []time.Time
	for _, w := range first {
		days = append(days, w.Day)
	}
	assert.Equal(t, []time.Time{date(2024, 1, 10), date(2024, 1, 11), date(2024, 1, 12)}, days)
	assert.Equal(t, []int{480, 150, 480}, []int{first[0].Minutes, first[1].Minutes, first[2].Minutes})
}

func TestDeriveWorkedIntervals_EarlyBreak(t *testing.T) {
	svc, _ := newTestService(t, employee.Config{ID: "emp-1"})
	appendAll(t, svc, "emp-1",
		clockIn("2024-01-10T08:00:00Z"),
		clockOut("2024-01-10T16:00:00Z"),
		clockIn("2024-01-11T08:00:00Z"),
		clockOut("2024-01-11T16:00:00Z"),
	)

	seq, err := svc.DeriveWorkedIntervals(context.Background(), "emp-1", date(2024, 1, 10), date(2024, 1, 11))
	require.NoError(t, err)

	count := 0
	for range seq {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestDeriveWorkedIntervals_PartitionsByEmployeeTimezone(t *testing.T) {
	svc, _ := newTestService(t, employee.Config{ID: "emp-jkt", Timezone: "Asia/Jakarta"})
	// 2024-01-10 22:00 and 2024-01-11 06:00 in Jakarta (UTC+7)
	appendAll(t, svc, "emp-jkt",
		clockIn("2024-01-10T15:00:00Z"),
		clockOut("2024-01-10T23:00:00Z"),
	)

	seq, err := svc.DeriveWorkedIntervals(context.Background(), "emp-jkt", date(2024, 1, 10), date(2024, 1, 11))
	require.NoError(t, err)

	// the clock-in lands on the 10th and the clock-out on the 11th, local time
	assert.Empty(t, slices.Collect(seq))

	summary, err := svc.Summarize(context.Background(), "emp-jkt", date(2024, 1, 10), date(2024, 1, 11))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.UnclosedDays)
}

func TestDeriveWorkedIntervals_Validation(t *testing.T) {
	svc, _ := newTestService(t, employee.Config{ID: "emp-1"})

	_, err := svc.DeriveWorkedIntervals(context.Background(), "emp-1", date(2024, 1, 12), date(2024, 1, 10))
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.DeriveWorkedIntervals(context.Background(), "", date(2024, 1, 10), date(2024, 1, 12))
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.DeriveWorkedIntervals(context.Background(), "ghost", date(2024, 1, 10), date(2024, 1, 12))
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSummarize(t *testing.T) {
	svc, store := newTestService(t, employee.Config{ID: "emp-1", HourlyRate: decimal.NewFromInt(100)})
	store.PutDaySchedule("emp-1", employee.DaySchedule{
		DayOfWeek:          3, // Wednesday
		ClockInTime:        time.Date(0, 1, 1, 9, 0, 0, 0, time.UTC),
		GracePeriodMinutes: 10,
	})
	appendAll(t, svc, "emp-1",
		clockIn("2024-01-10T09:30:00Z"), // Wednesday, late
		clockOut("2024-01-10T17:30:00Z"),
		clockIn("2024-01-11T09:00:00Z"), // Thursday, unclosed
		clockIn("2024-01-12T09:00:00Z"),
		clockOut("2024-01-12T13:00:59Z"),
	)

	summary, err := svc.Summarize(context.Background(), "emp-1", date(2024, 1, 1), date(2024, 1, 31))
	require.NoError(t, err)
	assert.Equal(t, 480+240, summary.TotalMinutes)
	assert.Equal(t, 2, summary.WorkedDays)
	assert.Equal(t, 1, summary.UnclosedDays)
	assert.Equal(t, 1, summary.LateDays)
}

func TestAppend_RejectsClockSkew(t *testing.T) {
	svc, _ := newTestService(t, employee.Config{ID: "emp-1"})

	_, err := svc.Append(context.Background(), attendance.AppendEventRequest{
		EmployeeID: "emp-1",
		Type:       attendance.EventTypeClockIn,
		Timestamp:  fixedNow.Add(6 * time.Minute),
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.ErrorIs(t, err, attendance.ErrClockSkew)

	_, err = svc.Append(context.Background(), attendance.AppendEventRequest{
		EmployeeID: "emp-1",
		Type:       attendance.EventTypeClockIn,
		Timestamp:  fixedNow.Add(4 * time.Minute),
	})
	assert.NoError(t, err)
}

func TestAppend_ValidationErrors(t *testing.T) {
	svc, _ := newTestService(t, employee.Config{ID: "emp-1"})

	_, err := svc.Append(context.Background(), attendance.AppendEventRequest{Type: "BREAK"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestAppend_AcceptsDuplicatesAndOutOfOrder(t *testing.T) {
	svc, _ := newTestService(t, employee.Config{ID: "emp-1"})
	appendAll(t, svc, "emp-1",
		clockIn("2024-01-10T09:00:00Z"),
		clockIn("2024-01-10T09:00:00Z"),
		clockOut("2024-01-09T17:00:00Z"),
	)
}

func TestAppend_ComputesLatenessOnce(t *testing.T) {
	svc, store := newTestService(t, employee.Config{ID: "emp-1", Timezone: "Asia/Jakarta"})
	store.PutDaySchedule("emp-1", employee.DaySchedule{
		DayOfWeek:          3,
		ClockInTime:        time.Date(0, 1, 1, 8, 0, 0, 0, time.UTC),
		GracePeriodMinutes: 15,
	})

	// 08:15 local is still on time, 08:16 is late
	onTime, err := svc.Append(context.Background(), attendance.AppendEventRequest{
		EmployeeID: "emp-1", Type: attendance.EventTypeClockIn, Timestamp: at("2024-01-10T01:15:00Z"),
	})
	require.NoError(t, err)
	assert.False(t, onTime.IsLate)

	late, err := svc.Append(context.Background(), attendance.AppendEventRequest{
		EmployeeID: "emp-1", Type: attendance.EventTypeClockIn, Timestamp: at("2024-01-10T01:16:00Z"),
	})
	require.NoError(t, err)
	assert.True(t, late.IsLate)

	// a later schedule change does not touch stored events
	store.PutDaySchedule("emp-1", employee.DaySchedule{
		DayOfWeek:   3,
		ClockInTime: time.Date(0, 1, 1, 10, 0, 0, 0, time.UTC),
	})
	evts, err := memory.NewAttendanceRepository(store).ListByEmployeeInRange(context.Background(), "emp-1", at("2024-01-10T00:00:00Z"), at("2024-01-11T00:00:00Z"))
	require.NoError(t, err)
	require.Len(t, evts, 2)
	assert.True(t, evts[1].IsLate)

	out, err := svc.Append(context.Background(), attendance.AppendEventRequest{
		EmployeeID: "emp-1", Type: attendance.EventTypeClockOut, Timestamp: at("2024-01-10T12:00:00Z"),
	})
	require.NoError(t, err)
	assert.False(t, out.IsLate)
}

func TestAppend_NoScheduleIsNotLate(t *testing.T) {
	svc, _ := newTestService(t, employee.Config{ID: "emp-1"})

	e, err := svc.Append(context.Background(), clockInFor("emp-1", "2024-01-13T23:00:00Z"))
	require.NoError(t, err)
	assert.False(t, e.IsLate)
}

func TestAppend_UnknownEmployee(t *testing.T) {
	svc, _ := newTestService(t, employee.Config{ID: "emp-1"})

	_, err := svc.Append(context.Background(), clockInFor("ghost", "2024-01-10T09:00:00Z"))
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

// slowSchedules blocks schedule lookups until the context gives up.
type slowSchedules struct {
	employee.ConfigRepository
}

func (slowSchedules) GetDaySchedule(ctx context.Context, _ string, _ int) (employee.DaySchedule, error) {
	<-ctx.Done()
	return employee.DaySchedule{}, ctx.Err()
}

func TestAppend_ScheduleLookupTimeoutFallsBackToOnTime(t *testing.T) {
	store := memory.NewStore()
	store.PutEmployee(employee.Config{ID: "emp-1"})
	svc := NewAttendanceService(
		memory.NewAttendanceRepository(store),
		slowSchedules{memory.NewEmployeeRepository(store)},
		nil,
		nil,
		Config{MaxClockSkew: time.Minute, ScheduleLookupTimeout: 20 * time.Millisecond},
	).WithClock(func() time.Time { return fixedNow })

	start := time.Now()
	e, err := svc.Append(context.Background(), clockInFor("emp-1", "2024-01-10T11:00:00Z"))
	require.NoError(t, err)
	assert.False(t, e.IsLate)
	assert.Less(t, time.Since(start), time.Second)
}

type failingLedger struct {
	attendance.AttendanceRepository
}

func (failingLedger) Append(context.Context, attendance.Event) (attendance.Event, error) {
	return attendance.Event{}, errors.New("disk full")
}

func TestAppend_StoreError(t *testing.T) {
	store := memory.NewStore()
	store.PutEmployee(employee.Config{ID: "emp-1"})
	svc := NewAttendanceService(failingLedger{}, memory.NewEmployeeRepository(store), nil, nil, Config{MaxClockSkew: time.Minute}).
		WithClock(func() time.Time { return fixedNow })

	_, err := svc.Append(context.Background(), clockInFor("emp-1", "2024-01-10T09:00:00Z"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func clockInFor(employeeID, ts string) attendance.AppendEventRequest {
	r := clockIn(ts)
	r.EmployeeID = employeeID
	return r
}
