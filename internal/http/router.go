// Package httpapi assembles the HTTP surface: middleware, domain routes,
// the health probe and the metrics endpoint.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"helpinghands/internal/platform/metrics"
	ratelimit "helpinghands/internal/ratelimit/middleware"
	ratelimitmodels "helpinghands/internal/ratelimit/models"
	"helpinghands/pkg/platform/middleware/admin"
	"helpinghands/pkg/platform/middleware/request"
	"helpinghands/pkg/platform/middleware/requesttime"
)

// Routes is implemented by every domain handler.
type Routes interface {
	Register(r chi.Router)
}

// AdminRoutes is implemented by handlers exposing gated listings.
type AdminRoutes interface {
	RegisterAdmin(r chi.Router)
}

// Counter reports the number of stored records.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Config carries the router settings.
type Config struct {
	AdminToken         string
	CORSAllowedOrigins []string
}

// Deps are the pieces mounted on the router.
type Deps struct {
	Handlers    []Routes
	Admin       []AdminRoutes
	Donors      Counter
	Emergencies Counter
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Logger      *slog.Logger
	// RateLimit is optional.
	RateLimit *ratelimit.Middleware
}

// NewRouter builds the root handler.
func NewRouter(cfg Config, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(request.ID)
	r.Use(recoverer(deps.Logger))
	r.Use(requesttime.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Admin-Token", chimw.RequestIDHeader},
		ExposedHeaders: []string{chimw.RequestIDHeader},
		MaxAge:         300,
	}))
	r.Use(observe(deps.Metrics))
	if deps.RateLimit != nil {
		r.Use(deps.RateLimit.RateLimit(Classify))
	}

	r.Get("/health", newHealth(deps.Donors, deps.Emergencies, deps.Logger).ServeHTTP)
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	for _, h := range deps.Handlers {
		h.Register(r)
	}
	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(cfg.AdminToken, deps.Logger))
		for _, h := range deps.Admin {
			h.RegisterAdmin(r)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"Route not found"}`))
	})
	return r
}

// Classify assigns the AI-backed endpoints to their rate limit classes.
func Classify(r *http.Request) (ratelimitmodels.EndpointClass, bool) {
	if r.Method != http.MethodPost {
		return "", false
	}
	switch r.URL.Path {
	case "/api/emergency":
		return ratelimitmodels.ClassAlert, true
	case "/api/ai-help":
		return ratelimitmodels.ClassAI, true
	}
	return "", false
}

// observe records latency per matched route pattern.
func observe(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					route = p
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.ObserveHTTPRequest(r.Method, route, status, start)
		})
	}
}

// recoverer turns a panic into the standard failure envelope.
func recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				ctx := r.Context()
				logger.ErrorContext(ctx, "panic recovered",
					"request_id", chimw.GetReqID(ctx),
					"panic", rec,
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"success":false,"message":"Internal server error","error":"internal error"}`))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
