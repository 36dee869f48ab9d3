package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/relaysuite/trustcore/internal/access/domain"
	"github.com/relaysuite/trustcore/internal/access/gate"
	accesshttp "github.com/relaysuite/trustcore/internal/access/http"
	"github.com/relaysuite/trustcore/internal/access/store"
	"github.com/relaysuite/trustcore/internal/access/token"
	"github.com/relaysuite/trustcore/pkg/cryptox"
	"github.com/relaysuite/trustcore/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	server *httptest.Server
	repo   *store.Memory
	tokens *token.Service
	hasher *cryptox.Argon2Hasher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	pemKey, err := cryptox.GenerateES256Key()
	require.NoError(t, err)

	signer, err := jwtx.NewSignerES256(pemKey)
	require.NoError(t, err)

	verifier, err := jwtx.NewVerifier(signer, jwtx.VerifyOptions{
		Issuer:   "trustcore-test",
		Audience: []string{"trustcore-api"},
	})
	require.NoError(t, err)

	repo := store.NewMemory()
	hasher := cryptox.NewArgon2Hasher("test-pepper")

	tokens := &token.Service{
		Signer:   signer,
		Verifier: verifier,
		Users:    repo,
		Revoked:  token.NewMemoryRevocationStore(),
		Hasher:   hasher,
		Issuer:   "trustcore-test",
		Audience: []string{"trustcore-api"},
	}

	g := &gate.Gate{
		Strategies: []gate.Strategy{
			&gate.BearerStrategy{Tokens: tokens},
			&gate.APIKeyStrategy{Users: repo},
		},
		Users: repo,
	}

	router := accesshttp.NewRouter(tokens, g, "test", slog.New(slog.DiscardHandler))
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, repo: repo, tokens: tokens, hasher: hasher}
}

func (e *testEnv) seedUser(t *testing.T, email, password string, role domain.Role) domain.User {
	t.Helper()

	hash, err := e.hasher.Hash(password)
	require.NoError(t, err)

	tenant := e.repo.AddTenant(domain.Tenant{Name: "acme", Modules: []string{"billing"}})
	return e.repo.AddUser(domain.User{
		TenantID:     tenant.ID,
		Username:     "mara",
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Modules:      []string{"billing"},
	})
}

func (e *testEnv) post(t *testing.T, path string, body any, headers map[string]string) (*stdhttp.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := stdhttp.NewRequest(stdhttp.MethodPost, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, raw
}

func (e *testEnv) get(t *testing.T, path string, headers map[string]string) (*stdhttp.Response, []byte) {
	t.Helper()

	req, err := stdhttp.NewRequest(stdhttp.MethodGet, e.server.URL+path, nil)
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, raw
}

func login(t *testing.T, e *testEnv, email, password string) token.Pair {
	t.Helper()

	resp, raw := e.post(t, "/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode, string(raw))

	var pair token.Pair
	require.NoError(t, json.Unmarshal(raw, &pair))
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "Bearer", pair.TokenType)
	return pair
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "mara@example.com", "correct horse", domain.RoleUser)

	t.Run("valid credentials", func(t *testing.T) {
		login(t, env, "mara@example.com", "correct horse")
	})

	t.Run("wrong password", func(t *testing.T) {
		resp, raw := env.post(t, "/v1/auth/login", map[string]string{
			"email":    "mara@example.com",
			"password": "wrong",
		}, nil)
		require.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
		require.Contains(t, string(raw), "invalid_credentials")
	})

	t.Run("unknown account gets the same error", func(t *testing.T) {
		resp, raw := env.post(t, "/v1/auth/login", map[string]string{
			"email":    "nobody@example.com",
			"password": "whatever",
		}, nil)
		require.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
		require.Contains(t, string(raw), "invalid_credentials")
	})

	t.Run("missing fields", func(t *testing.T) {
		resp, _ := env.post(t, "/v1/auth/login", map[string]string{"email": "mara@example.com"}, nil)
		require.Equal(t, stdhttp.StatusBadRequest, resp.StatusCode)
	})
}

func TestMeEndpoint(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "mara@example.com", "correct horse", domain.RoleAdmin)
	pair := login(t, env, "mara@example.com", "correct horse")

	t.Run("with access token", func(t *testing.T) {
		resp, raw := env.get(t, "/v1/me", map[string]string{
			"Authorization": "Bearer " + pair.AccessToken,
		})
		require.Equal(t, stdhttp.StatusOK, resp.StatusCode)

		var me struct {
			UserID int64  `json:"user_id"`
			Role   string `json:"role"`
		}
		require.NoError(t, json.Unmarshal(raw, &me))
		require.Equal(t, user.ID, me.UserID)
		require.Equal(t, "admin", me.Role)
	})

	t.Run("without credentials", func(t *testing.T) {
		resp, _ := env.get(t, "/v1/me", nil)
		require.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
		require.Contains(t, resp.Header.Get("WWW-Authenticate"), "Bearer")
	})

	t.Run("refresh token is not an access credential", func(t *testing.T) {
		resp, _ := env.get(t, "/v1/me", map[string]string{
			"Authorization": "Bearer " + pair.RefreshToken,
		})
		require.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("api key cannot reach jwt-only route", func(t *testing.T) {
		key, err := cryptox.GenerateToken(32)
		require.NoError(t, err)
		env.repo.AddAPIKey(cryptox.FingerprintToken(key), user.ID)

		resp, _ := env.get(t, "/v1/me", map[string]string{"X-API-Key": key})
		require.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
	})
}

func TestRefreshEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "mara@example.com", "correct horse", domain.RoleUser)
	pair := login(t, env, "mara@example.com", "correct horse")

	resp, raw := env.post(t, "/v1/auth/refresh", map[string]string{
		"refresh_token": pair.RefreshToken,
	}, nil)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	var rotated token.Pair
	require.NoError(t, json.Unmarshal(raw, &rotated))
	require.NotEmpty(t, rotated.AccessToken)

	// The old refresh token was consumed by the rotation.
	resp, _ = env.post(t, "/v1/auth/refresh", map[string]string{
		"refresh_token": pair.RefreshToken,
	}, nil)
	require.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "mara@example.com", "correct horse", domain.RoleUser)
	pair := login(t, env, "mara@example.com", "correct horse")
	authz := map[string]string{"Authorization": "Bearer " + pair.AccessToken}

	resp, _ := env.post(t, "/v1/auth/logout", nil, authz)
	require.Equal(t, stdhttp.StatusNoContent, resp.StatusCode)

	// The revoked token no longer authenticates.
	resp, _ = env.get(t, "/v1/me", authz)
	require.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
}

func TestPasswordResetEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "admin@example.com", "admin password", domain.RoleAdmin)

	hash, err := env.hasher.Hash("old password")
	require.NoError(t, err)
	env.repo.AddUser(domain.User{
		Username:     "dana",
		Email:        "dana@example.com",
		PasswordHash: hash,
		Role:         domain.RoleUser,
	})

	adminPair := login(t, env, "admin@example.com", "admin password")
	adminAuthz := map[string]string{"Authorization": "Bearer " + adminPair.AccessToken}

	t.Run("mint requires an admin principal", func(t *testing.T) {
		resp, _ := env.post(t, "/v1/auth/password-reset", map[string]string{
			"email": "dana@example.com",
		}, nil)
		require.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("full reset round trip", func(t *testing.T) {
		resp, raw := env.post(t, "/v1/auth/password-reset", map[string]string{
			"email": "dana@example.com",
		}, adminAuthz)
		require.Equal(t, stdhttp.StatusOK, resp.StatusCode, string(raw))

		var minted struct {
			ResetToken string `json:"reset_token"`
		}
		require.NoError(t, json.Unmarshal(raw, &minted))
		require.NotEmpty(t, minted.ResetToken)

		resp, _ = env.post(t, "/v1/auth/password-reset/confirm", map[string]string{
			"reset_token":  minted.ResetToken,
			"new_password": "brand new password",
		}, nil)
		require.Equal(t, stdhttp.StatusNoContent, resp.StatusCode)

		// Old password is dead, new one works.
		resp, _ = env.post(t, "/v1/auth/login", map[string]string{
			"email":    "dana@example.com",
			"password": "old password",
		}, nil)
		require.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)

		login(t, env, "dana@example.com", "brand new password")

		// Reset tokens are single use.
		resp, _ = env.post(t, "/v1/auth/password-reset/confirm", map[string]string{
			"reset_token":  minted.ResetToken,
			"new_password": "another password",
		}, nil)
		require.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown email", func(t *testing.T) {
		resp, _ := env.post(t, "/v1/auth/password-reset", map[string]string{
			"email": "ghost@example.com",
		}, adminAuthz)
		require.Equal(t, stdhttp.StatusNotFound, resp.StatusCode)
	})

	t.Run("short password rejected", func(t *testing.T) {
		resp, raw := env.post(t, "/v1/auth/password-reset", map[string]string{
			"email": "dana@example.com",
		}, adminAuthz)
		require.Equal(t, stdhttp.StatusOK, resp.StatusCode)

		var minted struct {
			ResetToken string `json:"reset_token"`
		}
		require.NoError(t, json.Unmarshal(raw, &minted))

		resp, _ = env.post(t, "/v1/auth/password-reset/confirm", map[string]string{
			"reset_token":  minted.ResetToken,
			"new_password": "short",
		}, nil)
		require.Equal(t, stdhttp.StatusBadRequest, resp.StatusCode)
	})
}

func TestAPIKeyAuthentication(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "mara@example.com", "correct horse", domain.RoleAdmin)

	key, err := cryptox.GenerateToken(32)
	require.NoError(t, err)
	env.repo.AddAPIKey(cryptox.FingerprintToken(key), user.ID)

	// API keys satisfy role-protected routes that allow the fallback strategy.
	resp, raw := env.post(t, "/v1/auth/password-reset", map[string]string{
		"email": "mara@example.com",
	}, map[string]string{"X-API-Key": key})
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode, string(raw))

	resp, _ = env.post(t, "/v1/auth/password-reset", map[string]string{
		"email": "mara@example.com",
	}, map[string]string{"X-API-Key": "not-a-real-key"})
	require.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp, raw := env.get(t, "/livez", nil)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	require.Contains(t, string(raw), `"status":"ok"`)

	resp, _ = env.get(t, "/readyz", nil)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
}
