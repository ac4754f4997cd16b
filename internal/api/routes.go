package api

import (
	"net/http"
	"time"

	"github.com/Sternrassler/freight-batch/pkg/metrics"
	"github.com/Sternrassler/freight-batch/pkg/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig shapes the router.
type RouterConfig struct {
	AllowedOrigins []string

	// Throttle limits batch submissions per client. Nil disables it.
	Throttle *ratelimit.Limiter
}

// NewRouter mounts every route on a chi router.
func NewRouter(h *Handlers, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.Logger))
	r.Use(middleware.Recoverer)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition", "Retry-After"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Readiness)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/operations", h.ListOperations)
		r.Get("/batches/{id}", h.GetBatch)
		r.Get("/batches/{id}/export.csv", h.ExportBatch)

		r.Group(func(r chi.Router) {
			if cfg.Throttle != nil {
				r.Use(ratelimit.Middleware(cfg.Throttle, ratelimit.ClientIP))
			}
			r.Post("/batches", h.SubmitBatch)
			r.Post("/{operation}", h.SubmitOperation)
		})
	})

	return r
}

// NewServer wraps the router in an http.Server. WriteTimeout stays unset: a
// submission is answered only after its whole batch finished.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
}
