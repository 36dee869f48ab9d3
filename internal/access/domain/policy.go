package domain

import "slices"

// RoutePolicy is the static auth metadata attached to a route at
// registration time and consumed per-request by the gate. Zero value means
// "authenticated users only, no entitlement requirements".
type RoutePolicy struct {
	// Public skips authentication and authorization entirely.
	Public bool

	// JWTOnly disables the API-key fallback strategy: only the primary
	// bearer-token strategy may authenticate this route.
	JWTOnly bool

	// RequiredModules must ALL be granted (user AND tenant, see
	// User.HasModule) for access.
	RequiredModules []string

	// RequiredRoles is any-of: the user's role must be a member of this
	// set when non-empty. Membership is flat, role "admin" does not imply
	// role "moderator".
	RequiredRoles []Role
}

// Unrestricted reports whether the policy carries no entitlement
// requirements at all, letting the gate skip the repository load.
func (p RoutePolicy) Unrestricted() bool {
	return len(p.RequiredModules) == 0 && len(p.RequiredRoles) == 0
}

// AllowsRole reports any-of role membership.
func (p RoutePolicy) AllowsRole(r Role) bool {
	return slices.Contains(p.RequiredRoles, r)
}
