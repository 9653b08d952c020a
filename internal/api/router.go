package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/sydlexius/discresolve/internal/api/middleware"
	"github.com/sydlexius/discresolve/internal/provider"
	"github.com/sydlexius/discresolve/internal/resolve"
)

// Resolver runs one resolution. Implemented by *resolve.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, query string) (*resolve.Outcome, error)
}

// RouterDeps bundles all dependencies needed by the HTTP router.
type RouterDeps struct {
	Resolver Resolver
	Registry *provider.Registry

	// Backend is the search provider the resolver uses.
	Backend provider.ProviderName
	// CatalogAuthenticated reports whether a Discogs token is configured.
	CatalogAuthenticated bool

	// Metrics serves /metrics when non-nil.
	Metrics http.Handler
	// RateLimitPerMinute limits resolve calls per client IP; 0 disables it.
	RateLimitPerMinute int
	// TrustedProxies are the peers whose forwarding headers name the client.
	TrustedProxies []netip.Prefix

	Logger   *slog.Logger
	BasePath string
}

// Router sets up all HTTP routes for the application.
type Router struct {
	resolver             Resolver
	registry             *provider.Registry
	backend              provider.ProviderName
	catalogAuthenticated bool
	metrics              http.Handler
	rateLimitPerMinute   int
	trustedProxies       []netip.Prefix
	logger               *slog.Logger
	basePath             string
}

// NewRouter creates a new Router with all routes configured.
func NewRouter(deps RouterDeps) *Router {
	return &Router{
		resolver:             deps.Resolver,
		registry:             deps.Registry,
		backend:              deps.Backend,
		catalogAuthenticated: deps.CatalogAuthenticated,
		metrics:              deps.Metrics,
		rateLimitPerMinute:   deps.RateLimitPerMinute,
		trustedProxies:       deps.TrustedProxies,
		logger:               deps.Logger.With(slog.String("component", "api")),
		basePath:             deps.BasePath,
	}
}

// Handler returns the fully configured HTTP handler with middleware applied.
// ctx bounds background work such as rate limiter cleanup.
func (r *Router) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	bp := r.basePath

	resolveHandler := http.Handler(http.HandlerFunc(r.handleResolve))
	if r.rateLimitPerMinute > 0 {
		limiter := middleware.NewClientRateLimiter(ctx, r.rateLimitPerMinute, r.rateLimitPerMinute, r.trustedProxies)
		resolveHandler = limiter.Middleware(resolveHandler)
	}

	mux.HandleFunc("GET "+bp+"/api/v1/health", r.handleHealth)
	mux.Handle("GET "+bp+"/api/v1/resolve", resolveHandler)
	mux.HandleFunc("GET "+bp+"/api/v1/providers", r.handleListProviders)
	if r.metrics != nil {
		mux.Handle("GET "+bp+"/metrics", r.metrics)
	}

	var h http.Handler = mux
	h = middleware.SecurityHeaders(h)
	h = middleware.Logging(r.logger)(h)
	return middleware.RequestID(h)
}
