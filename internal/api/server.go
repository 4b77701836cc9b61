package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"

	"github.com/kohizeri/smartcollar-api/internal/api/handler"
	"github.com/kohizeri/smartcollar-api/internal/config"
)

// NewRouter creates and configures the Chi router with all middleware and
// routes. The telemetry endpoints mirror the payloads the collar firmware
// already sends; the pet routes serve the mobile app.
func NewRouter(h *handler.Handler, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type"},
		ExposedHeaders:   []string{"X-Process-Time"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/redis", h.HealthCheckRedis)
	})

	// Inbound telemetry. Direct-call path; the store listener feeds the
	// same evaluators for collar writes that bypass these endpoints.
	r.Post("/bpm", h.PostBPM)
	r.Post("/temperature", h.PostTemperature)
	r.Post("/location", h.PostLocation)

	// Per-pet reads
	r.Route("/pets/{uid}/{petID}", func(r chi.Router) {
		r.Get("/settings", h.GetSettings)
		r.Get("/notifications", h.GetNotifications)
	})

	return r
}
