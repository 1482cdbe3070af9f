// Package api assembles the HTTP surface: routes, the auth gate on
// protected routes, and the global middleware stack.
package api

import (
	"net/http"
	"strings"

	"github.com/contactbook/contactbook/internal/auth"
	"github.com/contactbook/contactbook/internal/contacts"
	apperrors "github.com/contactbook/contactbook/internal/errors"
	"github.com/contactbook/contactbook/internal/health"
	"github.com/contactbook/contactbook/internal/logger"
	"github.com/contactbook/contactbook/internal/metrics"
	"github.com/contactbook/contactbook/internal/middleware"
)

const DefaultPrefix = "/v1/api"

type Config struct {
	Prefix          string
	AllowedOrigins  []string
	AuthHandlers    *auth.Handlers
	ContactHandlers *contacts.Handlers
	Gate            func(http.Handler) http.Handler
	Health          *health.Handler
	Metrics         *metrics.Metrics
	Logger          *logger.Logger
}

type Router struct {
	mux     *http.ServeMux
	handler http.Handler
	cfg     Config
}

func NewRouter(cfg Config) *Router {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	cfg.Prefix = "/" + strings.Trim(cfg.Prefix, "/")
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	r := &Router{mux: http.NewServeMux(), cfg: cfg}
	r.setupRoutes()
	// A recovered panic still gets a request id, a metric and a log line.
	r.handler = middleware.Chain(r.mux,
		apperrors.RequestIDMiddleware,
		cfg.Metrics.Middleware,
		logger.LoggingMiddleware(cfg.Logger),
		logger.RecoveryMiddleware(cfg.Logger),
		middleware.CORS(cfg.AllowedOrigins),
	)
	return r
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

func (r *Router) setupRoutes() {
	if r.cfg.Health != nil {
		r.mux.HandleFunc("GET /health", r.cfg.Health.HealthHandler)
		r.mux.HandleFunc("GET /health/live", r.cfg.Health.LivenessHandler)
		r.mux.HandleFunc("GET /health/ready", r.cfg.Health.ReadinessHandler)
	}
	if r.cfg.Metrics != nil {
		r.mux.Handle("GET /metrics", r.cfg.Metrics.Handler())
	}

	a, c := r.cfg.AuthHandlers, r.cfg.ContactHandlers

	// Public
	r.handle("POST /auth/register", a.Register, false)
	r.handle("POST /auth/login", a.Login, false)

	// Protected
	r.handle("GET /auth/me", a.Me, true)
	r.handle("GET /contacts", c.List, true)
	r.handle("POST /contact", c.Create, true)
	r.handle("GET /contact/{id}", c.Get, true)
	r.handle("PATCH /contact/{id}", c.Update, true)
	r.handle("DELETE /contact/{id}", c.Delete, true)

	r.mux.Handle(r.cfg.Prefix+"/", apperrors.HandleFunc(notFound))
}

// handle registers h under the API prefix. pattern is "METHOD /path".
func (r *Router) handle(pattern string, h apperrors.Handler, protected bool) {
	method, path, _ := strings.Cut(pattern, " ")

	var handler http.Handler = apperrors.HandleFunc(h)
	if protected {
		handler = r.cfg.Gate(handler)
	}
	r.mux.Handle(method+" "+r.cfg.Prefix+path, handler)
}

func notFound(w http.ResponseWriter, r *http.Request) error {
	return apperrors.NotFound("Not Found", "No route for "+r.Method+" "+r.URL.Path)
}
