package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/relaysuite/trustcore/internal/access/domain"
	"github.com/relaysuite/trustcore/internal/access/gate"
	"github.com/relaysuite/trustcore/internal/access/token"
	"github.com/relaysuite/trustcore/pkg/httpx"
	"github.com/relaysuite/trustcore/pkg/slogx"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger is implemented by stores that can report backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	Tokens *token.Service
	Gate   *gate.Gate
	Store  Pinger // nil for stores without a health probe
}

func NewRouter(
	tokens *token.Service,
	g *gate.Gate,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		Tokens:       tokens,
		Gate:         g,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerPasswordReset()
	r.registerMe()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Tokens: r.Tokens}

	// POST /v1/auth/login - strict rate limit by IP (credential endpoint)
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /v1/auth/refresh - moderate rate limit, token carried in body
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /v1/auth/logout - requires a live bearer token, no API-key fallback
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			Secure(r.Gate, domain.RoutePolicy{JWTOnly: true}),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerPasswordReset() {
	h := &PasswordResetHandler{Tokens: r.Tokens}

	// POST /v1/auth/password-reset - platform-only endpoint: the surrounding
	// platform mints the token and delivers it out of band. Admin principals
	// only so the route can't be used to probe accounts.
	r.Mux.Handle("POST /v1/auth/password-reset",
		httpx.Chain(http.HandlerFunc(h.HandleRequest),
			Secure(r.Gate, domain.RoutePolicy{
				RequiredRoles: []domain.Role{domain.RoleAdmin, domain.RoleSuperadmin},
			}),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /v1/auth/password-reset/confirm - strict rate limit by IP
	// (credential endpoint, the token is the credential)
	r.Mux.Handle("POST /v1/auth/password-reset/confirm",
		httpx.Chain(http.HandlerFunc(h.HandleConfirm),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerMe() {
	r.Mux.Handle("GET /v1/me",
		httpx.Chain(http.HandlerFunc(HandleMe),
			Secure(r.Gate, domain.RoutePolicy{JWTOnly: true}),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.Store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("GET /metrics", promhttp.Handler())
}
