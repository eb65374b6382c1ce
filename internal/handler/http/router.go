package http

import (
	"log/slog"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// RouterOptions carries the process level settings the router needs.
type RouterOptions struct {
	Logger         *slog.Logger
	LogLevel       slog.Level
	AllowedOrigins []string
}

func NewRouter(JWTService jwt.Service, timeTrackingHandler TimeTrackingHandler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1/time", func(r chi.Router) {
		// EventSource cannot send headers; the stream authenticates with a query token.
		r.Get("/status/stream", timeTrackingHandler.StreamStatus)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionTimeTrack))
				r.Post("/clock-in", timeTrackingHandler.ClockIn)
				r.Post("/clock-out", timeTrackingHandler.ClockOut)
				r.Post("/breaks/start", timeTrackingHandler.StartBreak)
				r.Post("/breaks/end", timeTrackingHandler.EndBreak)
			})

			r.With(middleware.RequirePermission(user.PermissionTimeManualEntry)).
				Post("/manual-entries", timeTrackingHandler.SubmitManualEntry)

			r.Route("/entries", func(r chi.Router) {
				r.Get("/", timeTrackingHandler.ListEntries)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", timeTrackingHandler.GetEntry)
					r.Get("/breaks", timeTrackingHandler.ListBreaks)
					r.With(middleware.RequirePermission(user.PermissionTimeManualEntry)).
						Post("/corrections", timeTrackingHandler.SubmitCorrection)

					r.With(middleware.RequirePermission(user.PermissionAuditView)).
						Get("/audit", timeTrackingHandler.GetEntryAudit)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionTimeApprove))
						r.Post("/approve", timeTrackingHandler.Approve)
						r.Post("/reject", timeTrackingHandler.Reject)
					})
				})
			})

			r.With(middleware.RequirePermission(user.PermissionTimeApprove)).
				Get("/pending-approvals", timeTrackingHandler.ListPendingApprovals)

			r.Route("/status", func(r chi.Router) {
				r.Get("/", timeTrackingHandler.GetMyStatus)
				r.With(middleware.RequireEmployee).Get("/stream/token", timeTrackingHandler.GetStreamToken)
				r.With(middleware.RequirePermission(user.PermissionTimeViewAll)).
					Get("/{employeeID}", timeTrackingHandler.GetEmployeeStatus)
			})
		})
	})

	return r
}
