package domain

import (
	"slices"
	"time"
)

// User is the full user record loaded for entitlement checks. Modules are
// the features granted to this specific user; whether a grant is effective
// also depends on the owning tenant (see HasModule).
type User struct {
	ID           int64
	TenantID     int64
	Username     string
	Email        string
	PasswordHash string // argon2 encoded
	Role         Role
	Modules      []string
	Tenant       *Tenant
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Tenant is the reseller/organization a user belongs to. A tenant's module
// set caps every user under it: downgrading a tenant out of a feature
// instantly revokes it for all its users regardless of individual grants.
type Tenant struct {
	ID        int64
	Name      string
	Modules   []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasModule reports the hierarchical module grant: module m is available to
// the user only if both the user's own module set AND the owning tenant's
// module set list it. No tenant means no grant.
func (u *User) HasModule(m string) bool {
	if u.Tenant == nil {
		return false
	}
	return slices.Contains(u.Modules, m) && slices.Contains(u.Tenant.Modules, m)
}

// Principal derives the request identity from a stored user record.
func (u *User) Principal() Principal {
	return Principal{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		TenantID: u.TenantID,
	}
}
