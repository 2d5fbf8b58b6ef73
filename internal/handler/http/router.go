package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/workforce-core/internal/handler/http/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"golang.org/x/time/rate"
)

// RouterConfig holds the transport settings of the HTTP adapter.
type RouterConfig struct {
	AllowedOrigins []string
	Logger         *slog.Logger
	LogLevel       slog.Level
	Metrics        http.Handler // served on /metrics when set

	// RateLimit is requests per second per client on /api/v1. Zero disables it.
	RateLimit rate.Limit
	RateBurst int

	// Idempotency wraps attendance appends when set.
	Idempotency func(http.Handler) http.Handler
}

// Handlers groups the route handlers. Employee is nil when the config cache
// is disabled, Stream when live events are off.
type Handlers struct {
	Attendance AttendanceHandler
	Shift      ShiftHandler
	Leave      LeaveHandler
	Payroll    PayrollHandler
	Employee   EmployeeHandler
	Stream     StreamHandler
}

func NewRouter(cfg RouterConfig, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimit > 0 {
			r.Use(middleware.RateLimitByIP(cfg.RateLimit, cfg.RateBurst))
		}

		r.Route("/attendance", func(r chi.Router) {
			if cfg.Idempotency != nil {
				r.With(cfg.Idempotency).Post("/events", h.Attendance.AppendEvent)
			} else {
				r.Post("/events", h.Attendance.AppendEvent)
			}
			r.Route("/{employeeID}", func(r chi.Router) {
				r.Get("/intervals", h.Attendance.ListIntervals)
				r.Get("/summary", h.Attendance.GetSummary)
			})
		})

		r.Route("/shifts", func(r chi.Router) {
			r.Post("/validate", h.Shift.Validate)
			r.Post("/", h.Shift.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Shift.Get)
				r.Post("/publish", h.Shift.Publish)
				r.Post("/cancel", h.Shift.Cancel)
			})
		})

		r.Route("/leave", func(r chi.Router) {
			r.Post("/adjustments", h.Leave.Adjust)
			r.Post("/transitions", h.Leave.ApplyTransition)
		})

		r.Route("/payroll", func(r chi.Router) {
			r.Post("/reconcile", h.Payroll.Reconcile)
			r.Route("/{employeeID}/{year}/{month}", func(r chi.Router) {
				r.Get("/", h.Payroll.Get)
				r.Put("/adjustments", h.Payroll.SetAdjustments)
				r.Post("/paid", h.Payroll.MarkPaid)
			})
		})

		if h.Employee != nil {
			r.Delete("/employees/{employeeID}/config-cache", h.Employee.InvalidateConfig)
		}

		if h.Stream != nil {
			r.Get("/events/stream", h.Stream.Stream)
		}
	})
	return r
}
