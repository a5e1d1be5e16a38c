package api

import (
	"net/http"

	"confessions/backend/internal/auth"
	"confessions/backend/internal/confession"
	"confessions/backend/internal/config"
	"confessions/backend/internal/namecheck"
	"confessions/backend/internal/observability"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Server struct {
	cfg                config.Config
	db                 *pgxpool.Pool
	validator          *namecheck.Validator
	users              UserStore
	confessions        *confession.Service
	logger             *observability.Logger
	metrics            *observability.APIMetrics
	publicWriteLimiter *ipRateLimiter
}

type Option func(*Server)

func WithLogger(logger *observability.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithUserStore(users UserStore) Option {
	return func(s *Server) {
		s.users = users
	}
}

func WithConfessionStore(store confession.Store) Option {
	return func(s *Server) {
		s.confessions = confession.NewService(store, s.validator, s.confessionOptions())
	}
}

// New builds the API server. Stores default to Postgres on db; options may replace them.
func New(cfg config.Config, db *pgxpool.Pool, validator *namecheck.Validator, opts ...Option) *Server {
	if validator == nil {
		validator = namecheck.Default()
	}
	s := &Server{
		cfg:                cfg,
		db:                 db,
		validator:          validator,
		logger:             observability.NewNopLogger(),
		metrics:            observability.NewAPIMetrics(),
		publicWriteLimiter: newIPRateLimiter(cfg.PublicWriteLimit, cfg.PublicWriteWindow),
	}
	if db != nil {
		s.users = newPGUserStore(db, s.metrics.ObserveDBQuery)
		s.confessions = confession.NewService(confession.NewPGStore(db, s.metrics.ObserveDBQuery), validator, s.confessionOptions())
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) confessionOptions() confession.Options {
	return confession.Options{
		MessageMinLen:    s.cfg.MessageMinLen,
		MessageMaxLen:    s.cfg.MessageMaxLen,
		AdminNotesMaxLen: s.cfg.AdminNotesMaxLen,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.recoverJSONMiddleware)
	r.Use(s.requestObservabilityMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(s.securityHeadersMiddleware)
	r.Use(s.maxBodyBytesMiddleware(s.cfg.RequestBodyMaxBytes))
	r.Use(s.requestContextTimeoutMiddleware)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/auth", func(r chi.Router) {
		r.Use(s.publicWriteRateLimitMiddleware)
		r.Post("/signup", s.handleSignup)
		r.Post("/login", s.handleLogin)
	})

	r.With(s.publicWriteRateLimitMiddleware).Post("/names/validate", s.handleValidateName)
	r.Get("/vibes", s.handleListVibes)

	r.Route("/confessions", func(r chi.Router) {
		r.Get("/public", s.handleListPublicConfessions)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.cfg.JWTSecret))
			r.With(s.publicWriteRateLimitMiddleware).Post("/", s.handleCreateConfession)
			r.Get("/my", s.handleListMyConfessions)
		})

		r.Get("/{id}", s.handleGetConfession)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.Middleware(s.cfg.JWTSecret))
		r.Use(auth.RequireAdmin)

		r.Get("/stats", s.handleAdminStats)
		r.Get("/confessions", s.handleAdminListConfessions)
		r.Post("/confessions/{id}/approve", s.handleAdminReview(confession.ActionApprove))
		r.Post("/confessions/{id}/reject", s.handleAdminReview(confession.ActionReject))
		r.Post("/confessions/{id}/post", s.handleAdminReview(confession.ActionPost))
		r.Post("/confessions/{id}/notes", s.handleAdminUpdateNotes)
		r.Get("/users", s.handleAdminListUsers)
		r.Post("/users/{id}/block", s.handleAdminBlockUser)
	})

	return r
}
