package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"spendly/internal/auth"
	applog "spendly/internal/log"
	"spendly/internal/middleware/ratelimit"
	"spendly/internal/middleware/security"
	"spendly/internal/middleware/trace"
	"spendly/internal/services"
)

// Services are the application services behind the API.
type Services struct {
	Expenses   *services.ExpenseService
	Taxonomy   *services.TaxonomyService
	Onboarding *services.OnboardingService
	Dashboard  *services.DashboardService
	Profiles   *services.ProfileService
	Assistant  *services.AssistantService
}

// Pinger reports backend readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Addr           string
	Verifier       *auth.Verifier
	AllowedOrigins []string
	// AIRequestsPerMinute limits the AI routes per user.
	AIRequestsPerMinute int
	// UncategorizedLabel names the dashboard bucket for expenses without a
	// category. Empty uses the default.
	UncategorizedLabel string
	DefaultLocale      string
	Logger             *applog.Logger
	Ready              Pinger
}

type Server struct {
	http.Server

	svc       Services
	cfg       Config
	aiLimiter *ratelimit.Limiter
	tracer    *trace.Middleware
	detector  *security.Detector

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(cfg Config, svc Services) *Server {
	if cfg.Logger == nil {
		cfg.Logger = applog.New(applog.DefaultConfig())
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		svc:       svc,
		cfg:       cfg,
		aiLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.AIRequestsPerMinute}),
		detector:  security.NewDetector(),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(s.tracer.Middleware)
	r.Use(applog.Middleware(s.cfg.Logger.WithComponent(applog.ComponentHTTP)))
	r.Use(applog.RequestIDMiddleware(requestID))
	r.Use(middleware.Recoverer)
	r.Use(s.detector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", trace.HeaderRequestID},
		ExposedHeaders:   []string{trace.HeaderRequestID, "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("route not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(auth.Middleware(s.cfg.Verifier, func(w http.ResponseWriter, r *http.Request, err error) {
			applog.FromContext(r.Context()).DebugContext(r.Context(), "Authentication failed", applog.FieldError, err)
			UnauthorizedError().Write(w)
		}))
		api.Use(applog.UserMiddleware(auth.UserID))

		api.Get("/profile", s.handleGetProfile)
		api.Patch("/profile", s.handleUpdateProfile)
		api.Get("/credits", s.handleGetCredits)

		api.Route("/onboarding", func(o chi.Router) {
			o.Post("/categories", s.handleOnboardingCategories)
			o.Post("/accounts", s.handleOnboardingAccounts)
			o.Post("/owners", s.handleOnboardingOwners)
			o.Post("/complete", s.handleCompleteOnboarding)
		})

		api.Route("/categories", func(c chi.Router) {
			c.Get("/", s.handleListCategories)
			c.Post("/", s.handleCreateCategory)
			c.Get("/{id}", s.handleGetCategory)
			c.Patch("/{id}", s.handleUpdateCategory)
			c.Delete("/{id}", s.handleDeleteCategory)
		})
		api.Route("/accounts", func(a chi.Router) {
			a.Get("/", s.handleListAccounts)
			a.Post("/", s.handleCreateAccount)
			a.Get("/{id}", s.handleGetAccount)
			a.Patch("/{id}", s.handleUpdateAccount)
			a.Delete("/{id}", s.handleDeleteAccount)
		})
		api.Route("/owners", func(o chi.Router) {
			o.Get("/", s.handleListOwners)
			o.Post("/", s.handleCreateOwner)
			o.Get("/{id}", s.handleGetOwner)
			o.Patch("/{id}", s.handleUpdateOwner)
			o.Delete("/{id}", s.handleDeleteOwner)
		})

		api.Route("/expenses", func(e chi.Router) {
			e.Get("/", s.handleListExpenses)
			e.Post("/", s.handleCreateExpense)
			e.Get("/{id}", s.handleGetExpense)
			e.Patch("/{id}", s.handleUpdateExpense)
			e.Delete("/{id}", s.handleDeleteExpense)
		})

		api.Get("/dashboard", s.handleDashboard)

		api.Route("/ai", func(a chi.Router) {
			a.Use(s.aiLimiter.Middleware(userID, func(w http.ResponseWriter, r *http.Request) {
				applog.FromContext(r.Context()).WarnContext(r.Context(), "AI rate limit exceeded", applog.FieldPath, r.URL.Path)
				TooManyRequestsError().Write(w)
			}))
			a.Post("/classify", s.handleClassifyText)
			a.Post("/voice", s.handleClassifyVoice)
			a.Post("/transcribe", s.handleTranscribe)
			a.Post("/suggest-categories", s.handleSuggestCategories)
		})
	})

	return r
}

// Shutdown stops the limiter cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.aiLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
