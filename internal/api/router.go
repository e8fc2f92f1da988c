package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/xeot403/chatx/internal/api/middleware"
	"github.com/xeot403/chatx/internal/handlers"
	"github.com/xeot403/chatx/internal/hub"
	"github.com/xeot403/chatx/internal/store"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, userStore store.UserStore, h *hub.Hub) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(8 * 1024)) // 8KB max body
	r.Use(middleware.RequireJSON)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// CORS - the page may be served from a separate static dev server
	// (e.g. Live Server on :5500), so browser clients call cross-origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	handler := handlers.NewHandler(userStore, h)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes
	r.Get("/", handler.Root)
	r.Get("/health", handler.Health)
	r.Get("/online", handler.Online)
	r.Get("/ws", h.ServeWS)

	// Credential routes, rate limited per IP
	limiter := middleware.NewRateLimiter(logger, 30, 10)
	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)

		r.Post("/register", handler.Register)
		r.Post("/login", handler.Login)
	})

	return r
}
