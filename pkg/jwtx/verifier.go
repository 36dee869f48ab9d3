package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a token and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// VerifyOptions captures common expectations used by verifiers.
type VerifyOptions struct {
	// Issuer the token must have (claims.iss). Empty means "don't care".
	Issuer string

	// Audience values the token must contain (claims.aud). Empty means "don't care".
	Audience []string

	// Leeway allows small clock skew when validating exp/nbf.
	// Because time sync is never perfect.
	Leeway time.Duration
}

// NewVerifier pairs a signer's public key with claim expectations. Only the
// signer's own algorithm is accepted, so a token signed with a different
// method never reaches key verification.
func NewVerifier(s Signer, opts VerifyOptions) (Verifier, error) {
	switch sig := s.(type) {
	case *ES256Signer:
		return &keyVerifier{alg: sig.Alg(), key: sig.Public(), opts: opts}, nil
	case *EdDSASigner:
		return &keyVerifier{alg: sig.Alg(), key: sig.Public(), opts: opts}, nil
	default:
		return nil, fmt.Errorf("jwtx: no verifier for signer %T", s)
	}
}

// keyVerifier validates tokens against a single public key.
type keyVerifier struct {
	alg  string
	key  any
	opts VerifyOptions
}

// Verify validates the token string and returns its parsed Claims.
func (v *keyVerifier) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{v.alg}),
		jwt.WithLeeway(v.opts.Leeway),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("jwtx: parse or verify: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, errors.New("jwtx: invalid token claims")
	}

	// Now check all the claim requirements
	if err := claims.ValidateIssuer(v.opts.Issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience(v.opts.Audience); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiry(v.opts.Leeway); err != nil {
		return Claims{}, err
	}

	return *claims, nil
}

// Decode structurally parses a token WITHOUT verifying its signature or
// expiry. It exists for call sites that immediately re-verify through other
// means (e.g. pulling the jti out of an already-trusted token). Never use
// the result of Decode to authorize anything.
func Decode(tokenStr string) (Claims, error) {
	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, &claims); err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return claims, nil
}
