// Package cache decorates repositories with a Redis read-through cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/domain/employee"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const (
	EmployeeConfigKeyPrefix   = "workforce:employee:config:"
	EmployeeScheduleKeyPrefix = "workforce:employee:schedule:"

	DefaultTTL = 5 * time.Minute
)

func EmployeeConfigKey(id string) string {
	return EmployeeConfigKeyPrefix + id
}

func EmployeeScheduleKey(id string, isoWeekday int) string {
	return fmt.Sprintf("%s%s:%d", EmployeeScheduleKeyPrefix, id, isoWeekday)
}

// EmployeeRepository caches employee config and day schedules. Misses are
// collapsed with singleflight. Redis failures fall through to the wrapped
// repository. The cached leave balance is informational only; leave budget
// operations read the balance store directly.
type EmployeeRepository struct {
	next employee.ConfigRepository
	rdb  *redis.Client
	sf   singleflight.Group
	ttl  time.Duration
}

var _ employee.ConfigRepository = (*EmployeeRepository)(nil)

func NewEmployeeRepository(next employee.ConfigRepository, rdb *redis.Client, ttl time.Duration) *EmployeeRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &EmployeeRepository{next: next, rdb: rdb, ttl: ttl}
}

type configEntry struct {
	ID                       string          `json:"id"`
	FullName                 string          `json:"full_name"`
	HourlyRate               decimal.Decimal `json:"hourly_rate"`
	WeeklyHourGoal           int             `json:"weekly_hour_goal"`
	Timezone                 string          `json:"timezone"`
	EmploymentStatus         string          `json:"employment_status"`
	AnnualLeaveDaysRemaining decimal.Decimal `json:"annual_leave_days_remaining"`
	UpdatedAt                time.Time       `json:"updated_at"`
}

type scheduleEntry struct {
	DayOfWeek          int    `json:"day_of_week"`
	ClockInTime        string `json:"clock_in_time"`
	GracePeriodMinutes int    `json:"grace_period_minutes"`
}

// GetConfig implements employee.ConfigRepository.
func (r *EmployeeRepository) GetConfig(ctx context.Context, id string) (employee.Config, error) {
	key := EmployeeConfigKey(id)

	var entry configEntry
	if r.load(ctx, key, &entry) {
		return employee.Config{
			ID:                       entry.ID,
			FullName:                 entry.FullName,
			HourlyRate:               entry.HourlyRate,
			WeeklyHourGoal:           entry.WeeklyHourGoal,
			Timezone:                 entry.Timezone,
			EmploymentStatus:         employee.EmploymentStatus(entry.EmploymentStatus),
			AnnualLeaveDaysRemaining: entry.AnnualLeaveDaysRemaining,
			UpdatedAt:                entry.UpdatedAt,
		}, nil
	}

	v, err, _ := r.sf.Do(key, func() (interface{}, error) {
		cfg, err := r.next.GetConfig(ctx, id)
		if err != nil {
			return employee.Config{}, err
		}
		r.store(ctx, key, configEntry{
			ID:                       cfg.ID,
			FullName:                 cfg.FullName,
			HourlyRate:               cfg.HourlyRate,
			WeeklyHourGoal:           cfg.WeeklyHourGoal,
			Timezone:                 cfg.Timezone,
			EmploymentStatus:         string(cfg.EmploymentStatus),
			AnnualLeaveDaysRemaining: cfg.AnnualLeaveDaysRemaining,
			UpdatedAt:                cfg.UpdatedAt,
		})
		return cfg, nil
	})
	if err != nil {
		return employee.Config{}, err
	}
	return v.(employee.Config), nil
}

// GetDaySchedule implements employee.ConfigRepository. Missing schedules are
// not cached.
func (r *EmployeeRepository) GetDaySchedule(ctx context.Context, id string, isoWeekday int) (employee.DaySchedule, error) {
	key := EmployeeScheduleKey(id, isoWeekday)

	var entry scheduleEntry
	if r.load(ctx, key, &entry) {
		clockIn, err := time.Parse(time.TimeOnly, entry.ClockInTime)
		if err == nil {
			return employee.DaySchedule{
				DayOfWeek:          entry.DayOfWeek,
				ClockInTime:        clockIn,
				GracePeriodMinutes: entry.GracePeriodMinutes,
			}, nil
		}
	}

	v, err, _ := r.sf.Do(key, func() (interface{}, error) {
		ds, err := r.next.GetDaySchedule(ctx, id, isoWeekday)
		if err != nil {
			return employee.DaySchedule{}, err
		}
		r.store(ctx, key, scheduleEntry{
			DayOfWeek:          ds.DayOfWeek,
			ClockInTime:        ds.ClockInTime.Format(time.TimeOnly),
			GracePeriodMinutes: ds.GracePeriodMinutes,
		})
		return ds, nil
	})
	if err != nil {
		return employee.DaySchedule{}, err
	}
	return v.(employee.DaySchedule), nil
}

// ListActiveIDs implements employee.ConfigRepository without caching.
func (r *EmployeeRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	return r.next.ListActiveIDs(ctx)
}

// Invalidate drops every cached entry of the employee.
func (r *EmployeeRepository) Invalidate(ctx context.Context, id string) error {
	keys := []string{EmployeeConfigKey(id)}
	for day := 1; day <= 7; day++ {
		keys = append(keys, EmployeeScheduleKey(id, day))
	}
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate employee cache: %w", err)
	}
	return nil
}

func (r *EmployeeRepository) load(ctx context.Context, key string, dst any) bool {
	cached, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "employee cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(cached, dst); err != nil {
		slog.WarnContext(ctx, "employee cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (r *EmployeeRepository) store(ctx context.Context, key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.rdb.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "employee cache write failed", "key", key, "error", err)
	}
}
