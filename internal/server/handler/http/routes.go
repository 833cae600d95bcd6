package http

import (
	"net/http"

	"github.com/atinyakov/loancalc/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Auth        *AuthHandler
	Calculators *CalculatorHandler
	Admin       *AdminHandler
	Health      *HealthHandler
}

// NewRouter constructs and returns an HTTP handler that serves
// the calculator API.
//
// Routes:
//
//	GET    /healthz                          → Health
//	POST   /api/auth/register                → Auth.Register
//	POST   /api/auth/login                   → Auth.Login
//	GET    /api/auth/user                    → Auth.User (token)
//	GET    /api/calculators                  → Calculators.List
//	GET    /api/calculators/{id}             → Calculators.Get
//	POST   /api/calculators/calculate/{type} → Calculators.Calculate
//	POST   /api/calculators/email            → Calculators.Email (token, rate limited)
//	GET    /api/admin/calculators            → Admin.List (token, admin)
//	POST   /api/admin/calculators            → Admin.Create (token, admin)
//	PUT    /api/admin/calculators/{id}       → Admin.Update (token, admin)
//	DELETE /api/admin/calculators/{id}       → Admin.Delete (token, admin)
func NewRouter(h Handlers, verifier middleware.TokenVerifier, limiter *RateLimiter, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(KeepPeerAddr)
	r.Use(chiMiddleware.RealIP)
	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)
	// Bodies, when present, must be JSON
	r.Use(chiMiddleware.AllowContentType("application/json"))

	auth := middleware.TokenAuth(verifier)

	r.Get("/healthz", h.Health.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.With(auth).Get("/user", h.Auth.User)
		})

		r.Route("/calculators", func(r chi.Router) {
			r.Get("/", h.Calculators.List)
			r.Get("/{id}", h.Calculators.Get)
			r.Post("/calculate/{type}", h.Calculators.Calculate)
			r.With(auth, RateLimit(limiter)).Post("/email", h.Calculators.Email)
		})

		// Protected group: valid token with the admin role
		r.Route("/admin", func(r chi.Router) {
			r.Use(auth, middleware.RequireAdmin)
			r.Get("/calculators", h.Admin.List)
			r.Post("/calculators", h.Admin.Create)
			r.Put("/calculators/{id}", h.Admin.Update)
			r.Delete("/calculators/{id}", h.Admin.Delete)
		})
	})

	return r
}
