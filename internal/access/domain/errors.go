package domain

// AuthRequiredError means no strategy produced a principal, or a JWTOnly
// route saw only a failed primary strategy. Mapped to HTTP 401 at the
// boundary.
type AuthRequiredError struct {
	Reason string
}

func (e *AuthRequiredError) Error() string { return e.Reason }

// ForbiddenError means a principal was established but an entitlement or
// role check failed. The message names the specific missing module or role
// so operators can diagnose without log correlation. Mapped to HTTP 403.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string { return e.Reason }
