package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/relaysuite/trustcore/internal/access/domain"
	"github.com/relaysuite/trustcore/internal/access/store"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(filepath.Join(t.TempDir(), "trustcore.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func seed(t *testing.T, repo *usersRepo) domain.User {
	t.Helper()
	ctx := context.Background()

	tenant, err := repo.CreateTenant(ctx, domain.Tenant{
		Name:    "acme",
		Modules: []string{"billing", "reports"},
	})
	require.NoError(t, err)

	user, err := repo.CreateUser(ctx, domain.User{
		TenantID:     tenant.ID,
		Username:     "mara",
		Email:        "mara@example.com",
		PasswordHash: "$argon2id$stub",
		Role:         domain.RoleAdmin,
		Modules:      []string{"billing"},
	})
	require.NoError(t, err)
	return user
}

func TestUsersRepoFind(t *testing.T) {
	s := newTestStore(t)
	repo := s.Users().(*usersRepo)
	seeded := seed(t, repo)
	ctx := context.Background()

	t.Run("by id with tenant attached", func(t *testing.T) {
		u, err := repo.FindByID(ctx, seeded.ID)
		require.NoError(t, err)
		require.Equal(t, "mara", u.Username)
		require.Equal(t, domain.RoleAdmin, u.Role)
		require.Equal(t, []string{"billing"}, u.Modules)
		require.NotNil(t, u.Tenant)
		require.Equal(t, "acme", u.Tenant.Name)
		require.Equal(t, []string{"billing", "reports"}, u.Tenant.Modules)
		require.True(t, u.HasModule("billing"))
		require.False(t, u.HasModule("reports"))
	})

	t.Run("by email", func(t *testing.T) {
		u, err := repo.FindByEmail(ctx, "mara@example.com")
		require.NoError(t, err)
		require.Equal(t, seeded.ID, u.ID)
	})

	t.Run("missing rows map to ErrNotFound", func(t *testing.T) {
		_, err := repo.FindByID(ctx, 9999)
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = repo.FindByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestUsersRepoAPIKeys(t *testing.T) {
	s := newTestStore(t)
	repo := s.Users().(*usersRepo)
	seeded := seed(t, repo)
	ctx := context.Background()

	require.NoError(t, repo.CreateAPIKey(ctx, "fp-abc123", seeded.ID))

	principal, err := repo.FindByAPIKey(ctx, "fp-abc123")
	require.NoError(t, err)
	require.Equal(t, seeded.ID, principal.UserID)
	require.Equal(t, domain.RoleAdmin, principal.Role)

	_, err = repo.FindByAPIKey(ctx, "fp-unknown")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsersRepoUpdatePasswordHash(t *testing.T) {
	s := newTestStore(t)
	repo := s.Users().(*usersRepo)
	seeded := seed(t, repo)
	ctx := context.Background()

	require.NoError(t, repo.UpdatePasswordHash(ctx, seeded.ID, "$argon2id$rotated"))

	u, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	require.Equal(t, "$argon2id$rotated", u.PasswordHash)

	require.ErrorIs(t, repo.UpdatePasswordHash(ctx, 9999, "x"), store.ErrNotFound)
}

func TestUsersRepoUserWithoutTenant(t *testing.T) {
	s := newTestStore(t)
	repo := s.Users().(*usersRepo)
	ctx := context.Background()

	user, err := repo.CreateUser(ctx, domain.User{
		Username:     "orphan",
		Email:        "orphan@example.com",
		PasswordHash: "$argon2id$stub",
		Role:         domain.RoleUser,
		Modules:      []string{"billing"},
	})
	require.NoError(t, err)

	u, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.Nil(t, u.Tenant)
	require.Zero(t, u.TenantID)
	require.False(t, u.HasModule("billing"), "no tenant means no effective grant")
}
