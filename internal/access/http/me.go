package http

import (
	"net/http"

	"github.com/relaysuite/trustcore/internal/access/gate"
	"github.com/relaysuite/trustcore/pkg/httpx"
)

type meResponse struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	TenantID int64  `json:"tenant_id,omitempty"`
}

// HandleMe echoes the authenticated principal back to the caller.
func HandleMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := gate.PrincipalFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, meResponse{
		UserID:   principal.UserID,
		Username: principal.Username,
		Email:    principal.Email,
		Role:     principal.Role.String(),
		TenantID: principal.TenantID,
	})
}
