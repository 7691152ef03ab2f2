package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lumenmart/api/internal/platform/auth"
	"github.com/lumenmart/api/internal/platform/httpx"
)

type routerConfig struct {
	middlewares []func(http.Handler) http.Handler
	timeout     time.Duration

	health    *HealthHandlers
	orders    *OrderHandlers
	addresses *AddressHandlers

	authn *auth.Authenticator
}

// Option customises the router configuration before construction.
type Option func(*routerConfig)

const defaultTimeout = 60 * time.Second

// NewRouter constructs the chi router. Order and address routes mount at the
// root; there is no version prefix on this API.
func NewRouter(opts ...Option) chi.Router {
	cfg := routerConfig{
		timeout: defaultTimeout,
		middlewares: []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := chi.NewRouter()
	for _, mw := range cfg.middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}
	r.Use(middleware.Timeout(cfg.timeout))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("route_not_found", fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed))
	})

	if cfg.health == nil {
		cfg.health = NewHealthHandlers()
	}
	r.Get("/healthz", cfg.health.Healthz)

	if cfg.orders != nil {
		r.Route("/orders", func(group chi.Router) {
			cfg.orders.Routes(group, cfg.authn)
		})
	}
	if cfg.addresses != nil {
		r.Route("/user/addresses", cfg.addresses.Routes)
	}

	return r
}

// WithMiddlewares appends additional global middleware to the router.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(cfg *routerConfig) {
		if timeout > 0 {
			cfg.timeout = timeout
		}
	}
}

// WithHealthHandlers overrides the health endpoints.
func WithHealthHandlers(h *HealthHandlers) Option {
	return func(cfg *routerConfig) { cfg.health = h }
}

// WithOrderHandlers mounts the order endpoints.
func WithOrderHandlers(h *OrderHandlers) Option {
	return func(cfg *routerConfig) { cfg.orders = h }
}

// WithAddressHandlers mounts the address book endpoints.
func WithAddressHandlers(h *AddressHandlers) Option {
	return func(cfg *routerConfig) { cfg.addresses = h }
}

// WithAuthenticator guards the staff-facing order mutation routes. Without
// it those routes stay open, which suits local development and tests.
func WithAuthenticator(authn *auth.Authenticator) Option {
	return func(cfg *routerConfig) { cfg.authn = authn }
}
