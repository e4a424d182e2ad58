// Package router sets up all HTTP routes and middleware chains for the
// catalog API. Routes are split into the public storefront group and the
// admin group.
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"omexcatalog/internal/handlers"
	"omexcatalog/internal/metrics"
	"omexcatalog/internal/middleware"
)

// requestTimeout bounds every request, including admin cache rebuilds.
const requestTimeout = 30 * time.Second

// Deps are the handler groups and optional infrastructure the router wires.
// Metrics, RateLimiter and Ready may be nil.
type Deps struct {
	Public         *handlers.Public
	Admin          *handlers.Admin
	Metrics        *metrics.Collector
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
	// Ready reports whether backing services are reachable.
	Ready func(ctx context.Context) error
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(middleware.SecureHeaders)
	r.Use(chimw.Timeout(requestTimeout))

	r.Get("/health", healthHandler)
	r.Get("/ready", readyHandler(d.Ready))
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}

	// Storefront API, called from browsers on other origins.
	r.Route("/store/categories", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: d.AllowedOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
		if d.RateLimiter != nil {
			r.Use(d.RateLimiter.Middleware)
		}

		r.Get("/", d.Public.List)
		r.Get("/tree", d.Public.Tree)
		r.Get("/{slug}", d.Public.Show)
		r.Get("/{slug}/subcategories", d.Public.Subcategories)
		r.Get("/{slug}/breadcrumb", d.Public.Breadcrumb)
		r.Get("/{slug}/descendants", d.Public.Descendants)
	})

	// Admin API. Authentication is handled in front of this service.
	r.Route("/admin", func(r chi.Router) {
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", d.Admin.List)
			r.Post("/", d.Admin.Create)
			r.Get("/flat", d.Admin.Flat)
			r.Post("/cache/rebuild", d.Admin.RebuildCache)
			r.Post("/cache/invalidate", d.Admin.InvalidateCache)
			r.Get("/{id}", d.Admin.Get)
			r.Put("/{id}", d.Admin.Update)
			r.Delete("/{id}", d.Admin.Delete)
			r.Put("/{id}/translations/{locale}", d.Admin.PutTranslation)
		})
		r.Get("/cache/log", d.Admin.CacheLog)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// readyHandler answers 503 while ready reports an error.
func readyHandler(ready func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}
}
