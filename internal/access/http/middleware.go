package http

import (
	"errors"
	"net/http"

	"github.com/relaysuite/trustcore/internal/access/domain"
	"github.com/relaysuite/trustcore/internal/access/gate"
	"github.com/relaysuite/trustcore/pkg/httpx"
	"github.com/relaysuite/trustcore/pkg/slogx"
)

// Secure runs the route through the gate under the given policy. Denials are
// translated to HTTP: authentication failures become 401 with an RFC 6750
// WWW-Authenticate header, authorization failures become 403. On success the
// principal is attached to the request context.
func Secure(g *gate.Gate, policy domain.RoutePolicy) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := g.Authorize(r.Context(), r, policy)
			if err != nil {
				var (
					authErr   *domain.AuthRequiredError
					forbidden *domain.ForbiddenError
				)
				switch {
				case errors.As(err, &authErr):
					w.Header().Set("WWW-Authenticate",
						`Bearer error="invalid_token", error_description="`+authErr.Reason+`"`)
					httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", authErr.Reason)
				case errors.As(err, &forbidden):
					httpx.WriteError(w, http.StatusForbidden, "forbidden", forbidden.Reason)
				default:
					slogx.FromContext(r.Context()).Error("authorization failed", "err", err)
					httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
				}
				return
			}

			if !principal.IsZero() {
				r = r.WithContext(gate.WithPrincipal(r.Context(), principal))
			}
			next.ServeHTTP(w, r)
		})
	}
}
