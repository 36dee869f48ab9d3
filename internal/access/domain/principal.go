package domain

// Principal is the authenticated identity bound to a request after a
// strategy succeeds. It is read-only for the remainder of request handling
// and discarded at request end; nothing here is persisted.
type Principal struct {
	UserID   int64
	Username string
	Email    string
	Role     Role
	TenantID int64 // 0 when the user has no tenant
}

// IsZero reports whether no identity was bound.
func (p Principal) IsZero() bool { return p.UserID == 0 }
