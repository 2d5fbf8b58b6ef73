package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/config"
	"github.com/cmlabs-hris/workforce-core/internal/domain/attendance"
	"github.com/cmlabs-hris/workforce-core/internal/domain/employee"
	"github.com/cmlabs-hris/workforce-core/internal/domain/leave"
	"github.com/cmlabs-hris/workforce-core/internal/domain/payroll"
	"github.com/cmlabs-hris/workforce-core/internal/domain/schedule"
	appHTTP "github.com/cmlabs-hris/workforce-core/internal/handler/http"
	"github.com/cmlabs-hris/workforce-core/internal/handler/http/middleware"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/cron"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/database"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/events"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/metrics"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/sse"
	"github.com/cmlabs-hris/workforce-core/internal/repository/cache"
	"github.com/cmlabs-hris/workforce-core/internal/repository/memory"
	"github.com/cmlabs-hris/workforce-core/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/workforce-core/internal/service/attendance"
	leaveService "github.com/cmlabs-hris/workforce-core/internal/service/leave"
	payrollService "github.com/cmlabs-hris/workforce-core/internal/service/payroll"
	scheduleService "github.com/cmlabs-hris/workforce-core/internal/service/schedule"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

type repositories struct {
	tx         database.Transactor
	employees  employee.ConfigRepository
	attendance attendance.AttendanceRepository
	shifts     schedule.ShiftRepository
	balances   leave.BalanceRepository
	payrolls   payroll.PayrollRepository
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logLevel := parseLogLevel(cfg.App.LogLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, logLevel); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, logLevel slog.Level) error {
	location, err := time.LoadLocation(cfg.Workforce.DefaultTimezone)
	if err != nil {
		return fmt.Errorf("load default timezone: %w", err)
	}

	repos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer repos.close()

	// Employee config cache and idempotent appends
	var employeeHandler appHTTP.EmployeeHandler
	var idempotency func(http.Handler) http.Handler
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, cache reads will fall through", "error", err)
		}
		cached := cache.NewEmployeeRepository(repos.employees, rdb, cfg.Redis.CacheTTL)
		repos.employees = cached
		employeeHandler = appHTTP.NewEmployeeHandler(cached)
		idempotency = middleware.Idempotency(rdb, cfg.Redis.IdempotencyTTL, logger)
		logger.Info("employee config cache enabled", "ttl", cfg.Redis.CacheTTL)
	}

	// Domain events
	var publisher events.Publisher = events.NewLogPublisher(logger)
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() {
			if err := kafkaPublisher.Close(); err != nil {
				logger.Error("failed to close kafka writer", "error", err)
			}
		}()
		publisher = kafkaPublisher
		logger.Info("publishing events to kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	hub := sse.NewHub(32)
	dispatcher := events.NewDispatcher(events.Fanout{publisher, hub}, logger, events.DispatcherConfig{})
	defer dispatcher.Stop()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Services
	attendanceSvc := attendanceService.NewAttendanceService(repos.attendance, repos.employees, dispatcher, m, attendanceService.Config{
		DefaultLocation:       location,
		MaxClockSkew:          cfg.Workforce.MaxClockSkew,
		ScheduleLookupTimeout: cfg.Workforce.ScheduleLookupTimeout,
	})
	shiftSvc := scheduleService.NewShiftService(repos.tx, repos.shifts, repos.employees, dispatcher, m, scheduleService.Config{
		MinRestHours:          cfg.Workforce.MinRestHours,
		DefaultWeeklyHourGoal: cfg.Workforce.DefaultWeeklyHourGoal,
		DefaultLocation:       location,
	})
	leaveSvc := leaveService.NewLeaveBudgetService(repos.tx, repos.balances, dispatcher, m, leaveService.Config{
		AllowNegative: cfg.Workforce.LeaveAllowNegative,
	})
	payrollSvc := payrollService.NewPayrollService(repos.tx, repos.payrolls, repos.employees, attendanceSvc, dispatcher, m, payrollService.Config{
		Concurrency: cfg.Workforce.PayrollConcurrency,
	})

	// Background jobs
	scheduler := cron.NewScheduler(ctx, logger)
	cron.NewPayrollJobs(payrollSvc, cfg.Workforce.PayrollCronInterval, cfg.Workforce.PayrollClosingDays, location).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		AllowedOrigins: []string{cfg.App.FrontendURL},
		Logger:         logger,
		LogLevel:       logLevel,
		Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		RateLimit:      rate.Limit(cfg.App.RateLimitRPS),
		RateBurst:      cfg.App.RateLimitBurst,
		Idempotency:    idempotency,
	}, appHTTP.Handlers{
		Attendance: appHTTP.NewAttendanceHandler(attendanceSvc),
		Shift:      appHTTP.NewShiftHandler(shiftSvc),
		Leave:      appHTTP.NewLeaveHandler(leaveSvc),
		Payroll:    appHTTP.NewPayrollHandler(payrollSvc),
		Employee:   employeeHandler,
		Stream:     appHTTP.NewStreamHandler(hub, 30*time.Second),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server.RegisterOnShutdown(hub.Close)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server running", "addr", server.Addr, "env", cfg.App.Env, "store", cfg.Store.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func openRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*repositories, error) {
	switch cfg.Store.Driver {
	case "memory":
		logger.Warn("using in-memory store, data is lost on restart")
		store := memory.NewStore()
		return &repositories{
			tx:         store,
			employees:  memory.NewEmployeeRepository(store),
			attendance: memory.NewAttendanceRepository(store),
			shifts:     memory.NewShiftRepository(store),
			balances:   memory.NewBalanceRepository(store),
			payrolls:   memory.NewPayrollRepository(store),
			close:      func() {},
		}, nil
	default:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := postgresql.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		return &repositories{
			tx:         postgresql.NewTransactor(db),
			employees:  postgresql.NewEmployeeRepository(db),
			attendance: postgresql.NewAttendanceRepository(db),
			shifts:     postgresql.NewShiftRepository(db),
			balances:   postgresql.NewBalanceRepository(db),
			payrolls:   postgresql.NewPayrollRepository(db),
			close:      db.Close,
		}, nil
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
