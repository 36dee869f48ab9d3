package token

import (
	"context"
	"errors"
	"log/slog"

	"github.com/relaysuite/trustcore/internal/access/domain"
	"github.com/relaysuite/trustcore/internal/access/store"
	"github.com/relaysuite/trustcore/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("token: invalid_credentials")
	ErrInvalidRefresh     = errors.New("token: invalid_refresh_token")
	ErrInvalidReset       = errors.New("token: invalid_reset_token")
)

// Pair is what the login and refresh flows return: a short-lived access
// token and a longer-lived refresh token, both typed JWTs.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"` // always "Bearer"
	ExpiresIn    int64  `json:"expires_in"` // seconds until access token expiry
}

// ExchangePassword implements the login flow: verify the password against
// the stored hash and issue a fresh token pair. Lookup and hash failures
// collapse into ErrInvalidCredentials so responses don't leak which half
// was wrong.
func (s *Service) ExchangePassword(ctx context.Context, email, password string) (*Pair, error) {
	l := slogx.FromContext(ctx)

	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.Hasher.Compare(password, user.PasswordHash); err != nil {
		l.Info("password exchange failed", slog.Int64("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	return s.issuePair(user.Principal())
}

// Refresh rotates a refresh token: the presented token must verify, carry
// the refresh type, and not be revoked. The old token's jti is revoked so
// each refresh token is single-use.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Pair, error) {
	claims, err := s.Verify(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefresh
	}
	if claims.TokenType != string(TypeRefresh) {
		return nil, ErrInvalidRefresh
	}
	if s.IsRevoked(claims.ID) {
		return nil, ErrInvalidRefresh
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidRefresh
	}

	// Re-load the user so a role or tenant change since issuance lands in
	// the new pair.
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	s.Revoke(claims.ID, claims.ExpiresAt.Time)

	return s.issuePair(user.Principal())
}

// RequestPasswordReset issues a reset token for the account. Delivering it
// (email, SMS) is the platform's job; this core only mints the credential.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return s.Issue(TypeReset, user.Principal())
}

// ResetPassword consumes a reset token and replaces the user's password
// hash. Reset tokens are single-use: the jti is revoked on success.
func (s *Service) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	claims, err := s.Verify(resetToken)
	if err != nil {
		return ErrInvalidReset
	}
	if claims.TokenType != string(TypeReset) {
		return ErrInvalidReset
	}
	if s.IsRevoked(claims.ID) {
		return ErrInvalidReset
	}

	userID, err := claims.UserID()
	if err != nil {
		return ErrInvalidReset
	}

	hash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.Users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidReset
		}
		return err
	}

	s.Revoke(claims.ID, claims.ExpiresAt.Time)
	slogx.FromContext(ctx).Info("password reset completed", slog.Int64("user_id", userID))

	return nil
}

func (s *Service) issuePair(p domain.Principal) (*Pair, error) {
	access, err := s.Issue(TypeAccess, p)
	if err != nil {
		return nil, err
	}

	refresh, err := s.Issue(TypeRefresh, p)
	if err != nil {
		return nil, err
	}

	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(AccessTokenTTL.Seconds()),
	}, nil
}
