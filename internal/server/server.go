package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hongminglow/volunteer-hours/internal/approvals"
	"github.com/hongminglow/volunteer-hours/internal/auth"
	"github.com/hongminglow/volunteer-hours/internal/config"
	"github.com/hongminglow/volunteer-hours/internal/http/handlers"
	"github.com/hongminglow/volunteer-hours/internal/middleware"
	"github.com/hongminglow/volunteer-hours/internal/storage"
)

// Stores groups the persistence dependencies.
type Stores struct {
	Users    storage.UserStore
	Projects storage.ProjectStore
	TimeLogs storage.TimeLogStore
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, stores Stores, logger *slog.Logger, registry *prometheus.Registry) *Server {
	return &Server{inner: &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewHandler(cfg, stores, logger, registry),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}}
}

// NewHandler builds the routed handler without binding a listener.
func NewHandler(cfg config.Config, stores Stores, logger *slog.Logger, registry *prometheus.Registry) http.Handler {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	approvalService := approvals.NewService(stores.Projects, stores.TimeLogs, approvals.Limits{
		MaxProjects:   cfg.Approvals.MaxProjects,
		MaxVolunteers: cfg.Approvals.MaxVolunteers,
		MaxResults:    cfg.Approvals.MaxResults,
		FetchTimeout:  cfg.Approvals.FetchTimeout,
		Concurrency:   cfg.Approvals.FetchConcurrency,
	}, logger, approvals.NewMetrics(registry))

	health := handlers.NewHealthHandler(time.Now())
	authHandler := handlers.NewAuthHandler(stores.Users, tokens, cfg.AdminUsernames, logger)
	users := handlers.NewUserHandler(stores.Users, logger)
	timelogs := handlers.NewTimeLogHandler(stores.TimeLogs, stores.Projects, logger)
	approvalHandler := handlers.NewApprovalHandler(approvalService, stores.TimeLogs, logger)
	projects := handlers.NewProjectHandler(stores.Projects, logger)
	reports := handlers.NewReportHandler(stores.TimeLogs, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Logging(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	health.Register(r)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.AuthRatePerMinute, cfg.AuthRateBurst, logger))
		authHandler.Register(r)
	})
	users.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(tokens, stores.Users, logger))
		authHandler.RegisterAuthenticated(r)
		users.RegisterAuthenticated(r)
		timelogs.Register(r)
		approvalHandler.Register(r)
		projects.Register(r)
		reports.Register(r)
	})

	return r
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
