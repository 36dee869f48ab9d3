package token

import (
	"time"

	"github.com/relaysuite/trustcore/internal/access/domain"
	"github.com/relaysuite/trustcore/internal/access/store"
	"github.com/relaysuite/trustcore/pkg/idx"
	"github.com/relaysuite/trustcore/pkg/jwtx"
)

// PasswordHasher is the one-way hash collaborator consumed by the login and
// reset flows. cryptox.Argon2Hasher is the production implementation.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) error
}

// Service issues, decodes, type-checks and revokes typed tokens.
type Service struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Users    store.UserRepository
	Revoked  RevocationStore
	Hasher   PasswordHasher
	Issuer   string
	Audience []string

	// Clock overrides time.Now for tests. Leave nil in production.
	Clock func() time.Time
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now().UTC()
}

// Issue signs a typed token for the principal with the type's fixed TTL and
// a fresh jti. Issuance never touches the revocation registry.
func (s *Service) Issue(typ Type, p domain.Principal) (string, error) {
	ttl, err := typ.TTL()
	if err != nil {
		return "", err
	}

	claims := jwtx.NewClaims(
		p.UserID,
		p.Username,
		p.Email,
		p.Role.String(),
		string(typ),
		p.TenantID,
		idx.New().String(),
		ttl,
		s.Issuer,
		s.Audience,
		s.now(),
	)

	return s.Signer.Sign(claims)
}

// Decode structurally parses a token without verifying signature or expiry.
// Only for call sites that immediately re-verify; never authorizes.
func (s *Service) Decode(tokenStr string) (jwtx.Claims, error) {
	claims, err := jwtx.Decode(tokenStr)
	if err != nil {
		return jwtx.Claims{}, &InvalidTokenError{Err: err}
	}
	return claims, nil
}

// Verify cryptographically verifies signature, expiry, issuer and audience.
// Any mismatch fails with *InvalidTokenError.
func (s *Service) Verify(tokenStr string) (jwtx.Claims, error) {
	claims, err := s.Verifier.Verify(tokenStr)
	if err != nil {
		return jwtx.Claims{}, &InvalidTokenError{Err: err}
	}
	return claims, nil
}

// IsType reports whether the token verifies AND carries the expected type
// claim. It never returns an error: callers asking "is this a refresh
// token" want a boolean gate, not exception-driven control flow. Verify
// throws, IsType swallows; both shapes are load-bearing.
func (s *Service) IsType(tokenStr string, typ Type) bool {
	claims, err := s.Verify(tokenStr)
	if err != nil {
		return false
	}
	return claims.TokenType == string(typ)
}

// Revoke inserts a jti into the revocation registry. A zero expiry falls
// back to now+24h so entries without a known natural expiry still age out.
func (s *Service) Revoke(jti string, expiresAt time.Time) {
	if expiresAt.IsZero() {
		expiresAt = s.now().Add(RevokeDefaultTTL)
	}
	s.Revoked.Revoke(jti, expiresAt)
}

// IsRevoked is a registry membership test.
func (s *Service) IsRevoked(jti string) bool {
	return s.Revoked.IsRevoked(jti)
}

// Cleanup sweeps registry entries whose natural expiry has passed.
func (s *Service) Cleanup() int {
	return s.Revoked.Cleanup(s.now())
}
