package gate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/relaysuite/trustcore/internal/access/domain"
	"github.com/relaysuite/trustcore/internal/access/store"
	"github.com/relaysuite/trustcore/internal/access/token"
	"github.com/relaysuite/trustcore/pkg/cryptox"
)

// Strategy is one way of turning an inbound request into a principal. The
// gate walks an ordered list of these; a strategy failing just means the
// next one gets a shot.
type Strategy interface {
	Name() string
	Authenticate(ctx context.Context, r *http.Request) (domain.Principal, error)
}

var (
	errNoBearerToken = errors.New("gate: missing bearer token")
	errNoAPIKey      = errors.New("gate: missing api key")
	errTokenRevoked  = errors.New("gate: token revoked")
	errWrongType     = errors.New("gate: not an access token")
)

// BearerStrategy is the primary strategy: a verified, unrevoked access
// token in the Authorization header.
type BearerStrategy struct {
	Tokens *token.Service
}

func (s *BearerStrategy) Name() string { return "bearer" }

func (s *BearerStrategy) Authenticate(ctx context.Context, r *http.Request) (domain.Principal, error) {
	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return domain.Principal{}, errNoBearerToken
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

	claims, err := s.Tokens.Verify(raw)
	if err != nil {
		return domain.Principal{}, err
	}

	if claims.TokenType != string(token.TypeAccess) {
		return domain.Principal{}, errWrongType
	}
	if s.Tokens.IsRevoked(claims.ID) {
		return domain.Principal{}, errTokenRevoked
	}

	userID, err := claims.UserID()
	if err != nil {
		return domain.Principal{}, err
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.Principal{}, err
	}

	return domain.Principal{
		UserID:   userID,
		Username: claims.Username,
		Email:    claims.Email,
		Role:     role,
		TenantID: claims.TenantID,
	}, nil
}

// APIKeyStrategy is the fallback strategy: an X-API-Key header resolved to
// a principal through the repository. Only key fingerprints ever reach
// storage.
type APIKeyStrategy struct {
	Users store.UserRepository
}

func (s *APIKeyStrategy) Name() string { return "api_key" }

func (s *APIKeyStrategy) Authenticate(ctx context.Context, r *http.Request) (domain.Principal, error) {
	key := r.Header.Get("X-API-Key")
	if key == "" {
		return domain.Principal{}, errNoAPIKey
	}

	principal, err := s.Users.FindByAPIKey(ctx, cryptox.FingerprintToken(key))
	if err != nil {
		return domain.Principal{}, fmt.Errorf("gate: api key lookup: %w", err)
	}

	return principal, nil
}
