package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/relaysuite/trustcore/internal/access/store"
	"github.com/relaysuite/trustcore/internal/access/token"
	"github.com/relaysuite/trustcore/pkg/httpx"
	"github.com/relaysuite/trustcore/pkg/slogx"
)

const minPasswordLength = 8

// PasswordResetHandler serves the reset-token mint and confirm endpoints.
// Minting is restricted to platform principals; delivering the token to the
// end user (email, SMS) is the platform's responsibility.
type PasswordResetHandler struct {
	Tokens *token.Service
}

type resetRequestBody struct {
	Email string `json:"email"`
}

type resetRequestResponse struct {
	ResetToken string `json:"reset_token"`
}

func (h *PasswordResetHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req resetRequestBody
	if err := decodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email is required")
		return
	}

	resetToken, err := h.Tokens.RequestPasswordReset(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "not_found", "no account with that email")
			return
		}
		log.Error("reset token mint failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, resetRequestResponse{ResetToken: resetToken})
}

type resetConfirmBody struct {
	ResetToken  string `json:"reset_token"`
	NewPassword string `json:"new_password"`
}

func (h *PasswordResetHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req resetConfirmBody
	if err := decodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	if req.ResetToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "reset_token is required")
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "new_password must be at least 8 characters")
		return
	}

	if err := h.Tokens.ResetPassword(ctx, req.ResetToken, req.NewPassword); err != nil {
		if errors.Is(err, token.ErrInvalidReset) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_grant", "reset token rejected")
			return
		}
		log.Error("password reset failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
