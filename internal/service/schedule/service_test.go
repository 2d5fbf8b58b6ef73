package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/domain/employee"
	"github.com/cmlabs-hris/workforce-core/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/apperror"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/events"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/events/mock"
	"github.com/cmlabs-hris/workforce-core/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ShiftServiceTestSuite struct {
	suite.Suite
	store   *memory.Store
	service *ShiftServiceImpl
	ctx     context.Context
}

func (s *ShiftServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.store.PutEmployee(employee.Config{ID: "emp-1", WeeklyHourGoal: 45})
	s.store.PutEmployee(employee.Config{ID: "emp-2", WeeklyHourGoal: 10})
	s.service = NewShiftService(
		s.store,
		memory.NewShiftRepository(s.store),
		memory.NewEmployeeRepository(s.store),
		nil,
		nil,
		Config{MinRestHours: 8, DefaultWeeklyHourGoal: 45},
	)
}

func TestShiftServiceSuite(t *testing.T) {
	suite.Run(t, new(ShiftServiceTestSuite))
}

// 2024-01-08 is a Monday.
func ts(day, hour int) time.Time {
	return time.Date(2024, 1, day, hour, 0, 0, 0, time.UTC)
}

func (s *ShiftServiceTestSuite) publish(employeeID string, start, end time.Time) schedule.Shift {
	shift, err := s.service.Create(s.ctx, schedule.CreateShiftRequest{
		EmployeeID: employeeID, StartTime: start, EndTime: end, Status: schedule.ShiftStatusPublished,
	})
	s.Require().NoError(err)
	return shift
}

func (s *ShiftServiceTestSuite) validate(employeeID string, start, end time.Time) schedule.ValidationResult {
	result, err := s.service.Validate(s.ctx, schedule.ValidateShiftRequest{EmployeeID: employeeID, StartTime: start, EndTime: end})
	s.Require().NoError(err)
	return result
}

func (s *ShiftServiceTestSuite) TestValidate_NoShiftsIsValid() {
	result := s.validate("emp-1", ts(8, 9), ts(8, 17))
	s.True(result.Valid)
	s.Nil(result.Violation)
}

func (s *ShiftServiceTestSuite) TestValidate_Overlap() {
	existing := s.publish("emp-1", ts(8, 9), ts(8, 17))

	result := s.validate("emp-1", ts(8, 16), ts(8, 20))
	s.False(result.Valid)
	s.Require().NotNil(result.Violation)
	s.Equal(schedule.ViolationOverlap, result.Violation.Kind)
	s.Equal(existing.ID, result.Violation.ConflictingShiftID)
	s.Contains(result.Violation.Message, existing.ID)
	s.ErrorIs(result.Violation, schedule.ErrOverlapViolation)
	s.ErrorIs(result.Violation, apperror.ErrConstraintViolation)
}

func (s *ShiftServiceTestSuite) TestValidate_OverlapBoundaryIsInclusive() {
	s.publish("emp-1", ts(8, 9), ts(8, 17))

	result := s.validate("emp-1", ts(8, 17), ts(8, 20))
	s.Require().NotNil(result.Violation)
	s.Equal(schedule.ViolationOverlap, result.Violation.Kind)
}

func (s *ShiftServiceTestSuite) TestValidate_OverlapIsPerEmployee() {
	s.publish("emp-1", ts(8, 9), ts(8, 17))

	s.True(s.validate("emp-2", ts(8, 9), ts(8, 17)).Valid)
}

func (s *ShiftServiceTestSuite) TestValidate_RestBefore() {
	prev := s.publish("emp-1", ts(8, 9), ts(8, 17))

	// 7 hours after the previous shift ends
	result := s.validate("emp-1", ts(9, 0), ts(9, 6))
	s.Require().NotNil(result.Violation)
	s.Equal(schedule.ViolationRest, result.Violation.Kind)
	s.Equal(schedule.RestSideBefore, result.Violation.Side)
	s.Equal(prev.ID, result.Violation.ConflictingShiftID)
	s.Contains(result.Violation.Message, "before this shift starts")
	s.ErrorIs(result.Violation, schedule.ErrRestViolation)

	// exactly 8 hours is enough
	s.True(s.validate("emp-1", ts(9, 1), ts(9, 6)).Valid)
}

func (s *ShiftServiceTestSuite) TestValidate_RestAfter() {
	next := s.publish("emp-1", ts(9, 9), ts(9, 17))

	result := s.validate("emp-1", ts(8, 20), ts(9, 2))
	s.Require().NotNil(result.Violation)
	s.Equal(schedule.ViolationRest, result.Violation.Kind)
	s.Equal(schedule.RestSideAfter, result.Violation.Side)
	s.Equal(next.ID, result.Violation.ConflictingShiftID)
	s.Contains(result.Violation.Message, "after this shift ends")
}

func (s *ShiftServiceTestSuite) TestValidate_OverlapCheckedBeforeRest() {
	s.publish("emp-1", ts(8, 9), ts(8, 17))
	s.publish("emp-1", ts(9, 9), ts(9, 17))

	result := s.validate("emp-1", ts(9, 8), ts(9, 10))
	s.Require().NotNil(result.Violation)
	s.Equal(schedule.ViolationOverlap, result.Violation.Kind)
}

func (s *ShiftServiceTestSuite) TestValidate_WeeklyCapBoundaryInclusive() {
	// Monday to Thursday, 9 hours each
	for day := 8; day <= 11; day++ {
		s.publish("emp-1", ts(day, 8), ts(day, 17))
	}

	// Friday brings the week to exactly 45 hours
	friday := s.validate("emp-1", ts(12, 8), ts(12, 17))
	s.True(friday.Valid)
	s.publish("emp-1", ts(12, 8), ts(12, 17))

	// one more hour on Saturday is over the cap
	result := s.validate("emp-1", ts(13, 8), ts(13, 9))
	s.Require().NotNil(result.Violation)
	s.Equal(schedule.ViolationWeeklyCap, result.Violation.Kind)
	s.Equal(45, result.Violation.WeeklyCapHours)
	s.InDelta(46.0, result.Violation.WeeklyHours, 0.001)
	s.ErrorIs(result.Violation, schedule.ErrWeeklyCapViolation)

	// the next ISO week starts fresh
	s.True(s.validate("emp-1", ts(15, 8), ts(15, 17)).Valid)
}

func (s *ShiftServiceTestSuite) TestValidate_UsesEmployeeWeeklyGoal() {
	s.publish("emp-2", ts(8, 8), ts(8, 16))

	result := s.validate("emp-2", ts(9, 8), ts(9, 11))
	s.Require().NotNil(result.Violation)
	s.Equal(schedule.ViolationWeeklyCap, result.Violation.Kind)
	s.Equal(10, result.Violation.WeeklyCapHours)

	s.True(s.validate("emp-2", ts(9, 8), ts(9, 10)).Valid)
}

func (s *ShiftServiceTestSuite) TestValidate_IsIdempotent() {
	s.publish("emp-1", ts(8, 9), ts(8, 17))

	first := s.validate("emp-1", ts(9, 9), ts(9, 17))
	second := s.validate("emp-1", ts(9, 9), ts(9, 17))
	s.Equal(first, second)

	rejectedFirst := s.validate("emp-1", ts(8, 10), ts(8, 12))
	rejectedSecond := s.validate("emp-1", ts(8, 10), ts(8, 12))
	s.Equal(rejectedFirst, rejectedSecond)

	shifts, err := memory.NewShiftRepository(s.store).ListPublished(s.ctx, "emp-1", ts(1, 0), ts(31, 0))
	s.Require().NoError(err)
	s.Len(shifts, 1)
}

func (s *ShiftServiceTestSuite) TestValidate_InvalidInput() {
	_, err := s.service.Validate(s.ctx, schedule.ValidateShiftRequest{EmployeeID: "emp-1", StartTime: ts(8, 17), EndTime: ts(8, 9)})
	s.ErrorIs(err, apperror.ErrValidation)

	_, err = s.service.Validate(s.ctx, schedule.ValidateShiftRequest{StartTime: ts(8, 9), EndTime: ts(8, 17)})
	s.ErrorIs(err, apperror.ErrValidation)

	_, err = s.service.Validate(s.ctx, schedule.ValidateShiftRequest{EmployeeID: "ghost", StartTime: ts(8, 9), EndTime: ts(8, 17)})
	s.ErrorIs(err, apperror.ErrNotFound)
}

func (s *ShiftServiceTestSuite) TestCreate_RejectsViolationAndStoresNothing() {
	s.publish("emp-1", ts(8, 9), ts(8, 17))

	_, err := s.service.Create(s.ctx, schedule.CreateShiftRequest{EmployeeID: "emp-1", StartTime: ts(8, 12), EndTime: ts(8, 20)})
	s.ErrorIs(err, schedule.ErrOverlapViolation)

	var v *schedule.Violation
	s.Require().ErrorAs(err, &v)
	s.Equal(schedule.ViolationOverlap, v.Kind)

	shifts, err := memory.NewShiftRepository(s.store).ListPublished(s.ctx, "emp-1", ts(1, 0), ts(31, 0))
	s.Require().NoError(err)
	s.Len(shifts, 1)
}

func (s *ShiftServiceTestSuite) TestCreate_DefaultsToPublished() {
	shift, err := s.service.Create(s.ctx, schedule.CreateShiftRequest{EmployeeID: "emp-1", StartTime: ts(8, 9), EndTime: ts(8, 17)})
	s.Require().NoError(err)
	s.Equal(schedule.ShiftStatusPublished, shift.Status)
	s.NotEmpty(shift.ID)
}

func (s *ShiftServiceTestSuite) TestDraftsDoNotParticipate() {
	s.publish("emp-1", ts(8, 9), ts(8, 17))

	draft, err := s.service.Create(s.ctx, schedule.CreateShiftRequest{
		EmployeeID: "emp-1", StartTime: ts(8, 10), EndTime: ts(8, 12), Status: schedule.ShiftStatusDraft,
	})
	s.Require().NoError(err)
	s.Equal(schedule.ShiftStatusDraft, draft.Status)

	s.True(s.validate("emp-1", ts(10, 10), ts(10, 12)).Valid)

	// publishing runs the checks
	_, err = s.service.Publish(s.ctx, draft.ID)
	s.ErrorIs(err, schedule.ErrOverlapViolation)

	stored, err := s.service.GetByID(s.ctx, draft.ID)
	s.Require().NoError(err)
	s.Equal(schedule.ShiftStatusDraft, stored.Status)
}

func (s *ShiftServiceTestSuite) TestPublish() {
	draft, err := s.service.Create(s.ctx, schedule.CreateShiftRequest{
		EmployeeID: "emp-1", StartTime: ts(8, 9), EndTime: ts(8, 17), Status: schedule.ShiftStatusDraft,
	})
	s.Require().NoError(err)

	published, err := s.service.Publish(s.ctx, draft.ID)
	s.Require().NoError(err)
	s.Equal(schedule.ShiftStatusPublished, published.Status)

	_, err = s.service.Publish(s.ctx, draft.ID)
	s.ErrorIs(err, apperror.ErrValidation)

	_, err = s.service.Publish(s.ctx, "missing")
	s.ErrorIs(err, apperror.ErrNotFound)
}

func (s *ShiftServiceTestSuite) TestCancel() {
	shift := s.publish("emp-1", ts(8, 9), ts(8, 17))

	cancelled, err := s.service.Cancel(s.ctx, shift.ID)
	s.Require().NoError(err)
	s.Equal(schedule.ShiftStatusCancelled, cancelled.Status)

	// a cancelled shift frees its slot
	s.True(s.validate("emp-1", ts(8, 9), ts(8, 17)).Valid)

	_, err = s.service.Cancel(s.ctx, shift.ID)
	s.ErrorIs(err, apperror.ErrImmutableState)

	_, err = s.service.Publish(s.ctx, shift.ID)
	s.ErrorIs(err, apperror.ErrImmutableState)
}

func (s *ShiftServiceTestSuite) TestIntegrityErrorOnOverlappingPublishedShifts() {
	repo := memory.NewShiftRepository(s.store)
	for _, id := range []string{"a", "b"} {
		_, err := repo.Create(s.ctx, schedule.Shift{
			ID: id, EmployeeID: "emp-1", StartTime: ts(8, 9), EndTime: ts(8, 17), Status: schedule.ShiftStatusPublished,
		})
		s.Require().NoError(err)
	}

	_, err := s.service.Validate(s.ctx, schedule.ValidateShiftRequest{EmployeeID: "emp-1", StartTime: ts(10, 9), EndTime: ts(10, 17)})
	s.ErrorIs(err, apperror.ErrIntegrity)
}

func (s *ShiftServiceTestSuite) TestCreate_ConcurrentRequestsCreateOneShift() {
	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.service.Create(s.ctx, schedule.CreateShiftRequest{
				EmployeeID: "emp-1", StartTime: ts(8, 9), EndTime: ts(8, 17),
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, schedule.ErrOverlapViolation)
	}
	s.Equal(1, succeeded)
}

func TestShiftService_EmitsValidationFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	emitter := mock.NewMockEmitter(ctrl)

	store := memory.NewStore()
	store.PutEmployee(employee.Config{ID: "emp-1"})
	svc := NewShiftService(store, memory.NewShiftRepository(store), memory.NewEmployeeRepository(store), emitter, nil,
		Config{MinRestHours: 8, DefaultWeeklyHourGoal: 45})

	emitter.EXPECT().Emit(gomock.Any(), gomock.Any()).Do(func(_ context.Context, e events.Event) {
		assert.Equal(t, events.ShiftPublished, e.Name)
	})
	_, err := svc.Create(context.Background(), schedule.CreateShiftRequest{EmployeeID: "emp-1", StartTime: ts(8, 9), EndTime: ts(8, 17)})
	require.NoError(t, err)

	emitter.EXPECT().Emit(gomock.Any(), gomock.Any()).Do(func(_ context.Context, e events.Event) {
		assert.Equal(t, events.ShiftValidationFailed, e.Name)
		assert.Equal(t, "emp-1", e.EmployeeID)
		assert.Equal(t, string(schedule.ViolationRest), e.Payload["kind"])
	})
	result, err := svc.Validate(context.Background(), schedule.ValidateShiftRequest{EmployeeID: "emp-1", StartTime: ts(8, 20), EndTime: ts(8, 22)})
	require.NoError(t, err)
	assert.False(t, result.Valid)
}

type failingShifts struct {
	schedule.ShiftRepository
}

func (failingShifts) ListPublished(context.Context, string, time.Time, time.Time) ([]schedule.Shift, error) {
	return nil, errors.New("connection reset")
}

func TestShiftService_StoreErrorIsNotAViolation(t *testing.T) {
	store := memory.NewStore()
	store.PutEmployee(employee.Config{ID: "emp-1"})
	svc := NewShiftService(store, failingShifts{memory.NewShiftRepository(store)}, memory.NewEmployeeRepository(store), nil, nil,
		Config{MinRestHours: 8})

	_, err := svc.Validate(context.Background(), schedule.ValidateShiftRequest{EmployeeID: "emp-1", StartTime: ts(8, 9), EndTime: ts(8, 17)})
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperror.ErrConstraintViolation)
}

func TestIsoWeek(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	tests := []struct {
		name      string
		t         time.Time
		loc       *time.Location
		wantStart time.Time
	}{
		{"monday", ts(8, 0), time.UTC, ts(8, 0)},
		{"sunday night", time.Date(2024, 1, 14, 23, 59, 0, 0, time.UTC), time.UTC, ts(8, 0)},
		{"sunday UTC is monday in Jakarta", time.Date(2024, 1, 14, 20, 0, 0, 0, time.UTC), jakarta, time.Date(2024, 1, 15, 0, 0, 0, 0, jakarta)},
		{"across month", time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC), time.UTC, time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := isoWeek(tt.t, tt.loc)
			assert.True(t, tt.wantStart.Equal(start), "got %s", start)
			assert.True(t, tt.wantStart.AddDate(0, 0, 7).Equal(end))
		})
	}
}
