package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/hackgods/appointment-lifecycle/internal/identity"
	"github.com/hackgods/appointment-lifecycle/internal/scheduling"
)

type RouterConfig struct {
	Facade         *scheduling.Facade
	Verifier       *identity.Verifier
	Health         *HealthHandler
	MetricsHandler http.Handler // optional, served at /metrics
	Logger         *zap.Logger
	CORSOrigins    []string
	RateLimit      int // requests per minute per IP, 0 disables
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	// Health endpoints
	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.Liveness)
		r.Get("/health/ready", cfg.Health.Readiness)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		if cfg.RateLimit > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
		}
		r.Use(Authenticate(cfg.Verifier))

		// Appointment endpoints
		r.Post("/appointments", createAppointmentHandler(cfg.Facade))
		r.Get("/appointments", listAppointmentsHandler(cfg.Facade))
		r.Get("/appointments/{id}", getAppointmentHandler(cfg.Facade))
		r.Patch("/appointments/{id}/status", updateStatusHandler(cfg.Facade))
		r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Facade))
		r.Post("/appointments/{id}/reschedule", rescheduleAppointmentHandler(cfg.Facade))
		r.Post("/appointments/{id}/payment", recordPaymentHandler(cfg.Facade))

		r.Get("/earnings", listEarningsHandler(cfg.Facade))
	})

	return r
}
