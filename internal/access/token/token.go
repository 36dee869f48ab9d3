package token

import (
	"fmt"
	"time"
)

// Type discriminates what a token may be used for. The claim is checked by
// every consumer: an access token cannot refresh a session, a refresh token
// cannot authenticate an API call, a reset token can only reset a password.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
	TypeReset   Type = "reset"
)

// Fixed per-type lifetimes.
const (
	AccessTokenTTL  = 1 * time.Hour
	RefreshTokenTTL = 7 * 24 * time.Hour
	ResetTokenTTL   = 24 * time.Hour

	// RevokeDefaultTTL is how long a revocation entry is kept when the
	// caller doesn't know the token's natural expiry.
	RevokeDefaultTTL = 24 * time.Hour
)

// TTL returns the fixed lifetime for the token type.
func (t Type) TTL() (time.Duration, error) {
	switch t {
	case TypeAccess:
		return AccessTokenTTL, nil
	case TypeRefresh:
		return RefreshTokenTTL, nil
	case TypeReset:
		return ResetTokenTTL, nil
	}
	return 0, fmt.Errorf("token: unknown token type %q", t)
}

// InvalidTokenError reports a signature, expiry or structural failure
// during verification. Always recoverable at the call site: the boundary
// maps it to "authentication required", never a process failure.
type InvalidTokenError struct {
	Err error
}

func (e *InvalidTokenError) Error() string {
	return "token: invalid token: " + e.Err.Error()
}

func (e *InvalidTokenError) Unwrap() error { return e.Err }
