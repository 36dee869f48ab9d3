package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/relaysuite/trustcore/internal/access/domain"
	"github.com/relaysuite/trustcore/internal/access/store"
	"github.com/relaysuite/trustcore/pkg/slogx"
)

// Gate is the authorization orchestrator. Authentication (which strategy
// produced a principal) and authorization (what that principal may do) are
// two strictly ordered phases: strategy logic never sees entitlements, and
// entitlement logic never cares how the principal was established.
type Gate struct {
	// Strategies is the ordered authentication chain. The first entry is
	// the primary strategy; a JWTOnly policy restricts the walk to it.
	Strategies []Strategy

	// Users resolves module and role grants for entitlement checks.
	Users store.UserRepository
}

// Authorize evaluates the route policy against the request. It returns the
// authenticated principal on allow, or one of *domain.AuthRequiredError /
// *domain.ForbiddenError on reject. Public routes return a zero principal.
func (g *Gate) Authorize(ctx context.Context, r *http.Request, policy domain.RoutePolicy) (domain.Principal, error) {
	// 1. Public routes bypass everything.
	if policy.Public {
		decisions.WithLabelValues(outcomePublic).Inc()
		return domain.Principal{}, nil
	}

	// 2. Authentication: primary strategy, then fallback unless JWTOnly.
	principal, err := g.authenticate(ctx, r, policy)
	if err != nil {
		decisions.WithLabelValues(outcomeAuthRequired).Inc()
		return domain.Principal{}, err
	}

	// 3. A strategy reporting success without binding an identity is a
	// programming error, not an authentication failure.
	if principal.IsZero() {
		decisions.WithLabelValues(outcomeForbidden).Inc()
		return domain.Principal{}, &domain.ForbiddenError{Reason: "principal missing"}
	}

	// 4. No entitlement requirements: authenticated is enough.
	if policy.Unrestricted() {
		decisions.WithLabelValues(outcomeAllow).Inc()
		return principal, nil
	}

	// 5. Entitlement load. The only suspension point besides the API-key
	// fallback; nothing is written, so cancellation needs no compensation.
	user, err := g.Users.FindByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			decisions.WithLabelValues(outcomeForbidden).Inc()
			return domain.Principal{}, &domain.ForbiddenError{Reason: "user not found"}
		}
		return domain.Principal{}, err
	}

	// 6. Superadmin skips module and role checks entirely.
	if user.Role.IsSuperadmin() {
		decisions.WithLabelValues(outcomeAllow).Inc()
		return principal, nil
	}

	// 7. Hierarchical module check: first missing module wins, no
	// aggregation. Both the user and its tenant must grant each module.
	for _, m := range policy.RequiredModules {
		if !user.HasModule(m) {
			decisions.WithLabelValues(outcomeForbidden).Inc()
			return domain.Principal{}, &domain.ForbiddenError{
				Reason: fmt.Sprintf("access to module '%s' denied", m),
			}
		}
	}

	// 8. Any-of role check, flat membership.
	if len(policy.RequiredRoles) > 0 && !policy.AllowsRole(user.Role) {
		decisions.WithLabelValues(outcomeForbidden).Inc()
		return domain.Principal{}, &domain.ForbiddenError{
			Reason: "required role not met: " + joinRoles(policy.RequiredRoles),
		}
	}

	// 9. Allow.
	decisions.WithLabelValues(outcomeAllow).Inc()
	return principal, nil
}

// authenticate walks the strategy chain. Intermediate failures are
// swallowed; only the final combined failure surfaces.
func (g *Gate) authenticate(ctx context.Context, r *http.Request, policy domain.RoutePolicy) (domain.Principal, error) {
	if len(g.Strategies) == 0 {
		return domain.Principal{}, &domain.AuthRequiredError{Reason: "authentication required"}
	}

	log := slogx.FromContext(ctx)

	principal, err := g.Strategies[0].Authenticate(ctx, r)
	if err == nil {
		return principal, nil
	}
	log.Debug("primary strategy failed",
		slog.String("strategy", g.Strategies[0].Name()), slog.Any("err", err))

	if policy.JWTOnly {
		return domain.Principal{}, &domain.AuthRequiredError{Reason: "primary authentication required"}
	}

	for _, s := range g.Strategies[1:] {
		principal, err = s.Authenticate(ctx, r)
		if err == nil {
			return principal, nil
		}
		log.Debug("fallback strategy failed",
			slog.String("strategy", s.Name()), slog.Any("err", err))
	}

	return domain.Principal{}, &domain.AuthRequiredError{Reason: "authentication required"}
}

func joinRoles(roles []domain.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.String()
	}
	return strings.Join(names, ", ")
}
