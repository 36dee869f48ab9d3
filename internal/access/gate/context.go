package gate

import (
	"context"

	"github.com/relaysuite/trustcore/internal/access/domain"
)

type principalKey struct{}

// WithPrincipal binds the authenticated principal to the request context.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the bound principal, if any.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}
