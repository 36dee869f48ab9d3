package token_test

import (
	"context"
	"testing"

	"github.com/relaysuite/trustcore/internal/access/domain"
	"github.com/relaysuite/trustcore/internal/access/store"
	"github.com/relaysuite/trustcore/internal/access/token"
	"github.com/relaysuite/trustcore/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, repo *store.Memory, password string) domain.User {
	t.Helper()

	hash, err := cryptox.NewArgon2Hasher("test-pepper").Hash(password)
	require.NoError(t, err)

	tenant := repo.AddTenant(domain.Tenant{Name: "acme", Modules: []string{"flows"}})
	return repo.AddUser(domain.User{
		TenantID:     tenant.ID,
		Username:     "mara",
		Email:        "mara@example.com",
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Modules:      []string{"flows"},
	})
}

func TestExchangePassword(t *testing.T) {
	t.Parallel()

	repo := store.NewMemory()
	user := seedUser(t, repo, "hunter2hunter2")
	svc := newTestService(t, repo)
	ctx := context.Background()

	t.Run("valid credentials issue a pair", func(t *testing.T) {
		pair, err := svc.ExchangePassword(ctx, "mara@example.com", "hunter2hunter2")
		require.NoError(t, err)
		require.Equal(t, "Bearer", pair.TokenType)
		require.Equal(t, int64(token.AccessTokenTTL.Seconds()), pair.ExpiresIn)

		claims, err := svc.Verify(pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, string(token.TypeAccess), claims.TokenType)

		uid, err := claims.UserID()
		require.NoError(t, err)
		require.Equal(t, user.ID, uid)

		require.True(t, svc.IsType(pair.RefreshToken, token.TypeRefresh))
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.ExchangePassword(ctx, "mara@example.com", "wrong")
		require.ErrorIs(t, err, token.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.ExchangePassword(ctx, "nobody@example.com", "hunter2hunter2")
		require.ErrorIs(t, err, token.ErrInvalidCredentials)
	})
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	repo := store.NewMemory()
	seedUser(t, repo, "hunter2hunter2")
	svc := newTestService(t, repo)
	ctx := context.Background()

	pair, err := svc.ExchangePassword(ctx, "mara@example.com", "hunter2hunter2")
	require.NoError(t, err)

	t.Run("valid refresh rotates the pair", func(t *testing.T) {
		next, err := svc.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		require.NotEqual(t, pair.RefreshToken, next.RefreshToken)
		require.True(t, svc.IsType(next.AccessToken, token.TypeAccess))

		// Old refresh token is single-use.
		_, err = svc.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, token.ErrInvalidRefresh)
	})

	t.Run("access token cannot refresh", func(t *testing.T) {
		_, err := svc.Refresh(ctx, pair.AccessToken)
		require.ErrorIs(t, err, token.ErrInvalidRefresh)
	})

	t.Run("garbage cannot refresh", func(t *testing.T) {
		_, err := svc.Refresh(ctx, "garbage")
		require.ErrorIs(t, err, token.ErrInvalidRefresh)
	})
}

func TestPasswordReset(t *testing.T) {
	t.Parallel()

	repo := store.NewMemory()
	seedUser(t, repo, "old-password-1")
	svc := newTestService(t, repo)
	ctx := context.Background()

	t.Run("full reset flow", func(t *testing.T) {
		reset, err := svc.RequestPasswordReset(ctx, "mara@example.com")
		require.NoError(t, err)
		require.True(t, svc.IsType(reset, token.TypeReset))

		require.NoError(t, svc.ResetPassword(ctx, reset, "new-password-9"))

		// Old password no longer works, new one does.
		_, err = svc.ExchangePassword(ctx, "mara@example.com", "old-password-1")
		require.ErrorIs(t, err, token.ErrInvalidCredentials)
		_, err = svc.ExchangePassword(ctx, "mara@example.com", "new-password-9")
		require.NoError(t, err)

		// Reset tokens are single-use.
		err = svc.ResetPassword(ctx, reset, "another-password")
		require.ErrorIs(t, err, token.ErrInvalidReset)
	})

	t.Run("unknown email propagates not found", func(t *testing.T) {
		_, err := svc.RequestPasswordReset(ctx, "nobody@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("access token cannot reset a password", func(t *testing.T) {
		pair, err := svc.ExchangePassword(ctx, "mara@example.com", "new-password-9")
		require.NoError(t, err)

		err = svc.ResetPassword(ctx, pair.AccessToken, "sneaky-password")
		require.ErrorIs(t, err, token.ErrInvalidReset)
	})
}
