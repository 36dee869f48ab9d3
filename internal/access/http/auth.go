package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/relaysuite/trustcore/internal/access/token"
	"github.com/relaysuite/trustcore/pkg/httpx"
	"github.com/relaysuite/trustcore/pkg/slogx"
)

// AuthHandler serves the login, refresh and logout endpoints.
type AuthHandler struct {
	Tokens *token.Service
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	pair, err := h.Tokens.ExchangePassword(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, token.ErrInvalidCredentials) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "email or password incorrect")
			return
		}
		log.Error("login failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "refresh_token is required")
		return
	}

	pair, err := h.Tokens.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, token.ErrInvalidRefresh) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_grant", "refresh token rejected")
			return
		}
		log.Error("refresh failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, pair)
}

// HandleLogout revokes the presented access token. The route runs behind the
// gate so the token has already verified; revocation makes it unusable for
// the rest of its lifetime.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	raw := bearerToken(r)
	if raw == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "bearer token required")
		return
	}

	claims, err := h.Tokens.Verify(raw)
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "token rejected")
		return
	}

	h.Tokens.Revoke(claims.ID, claims.ExpiresAt.Time)
	w.WriteHeader(http.StatusNoContent)
}
