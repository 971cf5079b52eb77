package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/ratelimit"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig carries everything the router wires together.
type RouterConfig struct {
	Env            string
	AllowedOrigins []string

	JWTService      jwt.Service
	Limiter         ratelimit.Limiter
	Metrics         *metrics.Metrics
	MetricsRegistry prometheus.Gatherer

	Attendance   AttendanceHandler
	Roster       RosterHandler
	Notification NotificationHandler
}

func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "clinic-attendance"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.Env),
	)

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	if cfg.MetricsRegistry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.MetricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// The stream authenticates with its own short-lived query token.
		r.Get("/notifications/stream", cfg.Notification.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(cfg.JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Route("/attendance", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireWorkerProfile)
					r.Use(middleware.RequirePermission(user.PermissionAttendanceCheck))
					if cfg.Limiter != nil {
						r.Use(middleware.RateLimit(cfg.Limiter, "attendance_check", cfg.Metrics))
					}
					r.Post("/check-in", cfg.Attendance.CheckIn)
					r.Post("/check-out", cfg.Attendance.CheckOut)
				})

				r.With(
					middleware.RequireWorkerProfile,
					middleware.RequirePermission(user.PermissionAttendanceViewOwn),
				).Get("/my", cfg.Attendance.GetMyAttendance)

				r.With(middleware.RequirePermission(user.PermissionAttendanceViewAll)).Get("/", cfg.Attendance.List)

				r.Route("/{id}", func(r chi.Router) {
					r.With(middleware.RequirePermission(user.PermissionAttendanceViewOwn)).Get("/", cfg.Attendance.Get)
					r.With(middleware.RequirePermission(user.PermissionAttendanceEdit)).Patch("/", cfg.Attendance.Update)
					r.With(middleware.RequirePermission(user.PermissionAttendanceOverride)).Post("/status", cfg.Attendance.OverrideStatus)

					r.Route("/explanations", func(r chi.Router) {
						r.With(
							middleware.RequireWorkerProfile,
							middleware.RequirePermission(user.PermissionExplanationSubmit),
						).Post("/", cfg.Attendance.SubmitExplanation)
						r.With(middleware.RequirePermission(user.PermissionExplanationResolve)).Post("/resolve", cfg.Attendance.ResolveExplanation)
					})
				})
			})

			r.Route("/roster", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionRosterReconcile))
				r.Post("/reconcile", cfg.Roster.Reconcile)
				r.Post("/reset", cfg.Roster.Reset)
				r.Post("/mark-absent", cfg.Roster.MarkAbsentStaff)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Use(middleware.RequireWorkerProfile)
				r.Get("/", cfg.Notification.List)
				r.Post("/read", cfg.Notification.MarkAsRead)
				r.Get("/stream-token", cfg.Notification.GetSSEToken)
			})
		})
	})
	return r
}
