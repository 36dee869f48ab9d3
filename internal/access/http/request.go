package http

import (
	"encoding/json"
	"net/http"
	"strings"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// decodeJSON decodes the request body into v, rejecting oversized bodies.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// bearerToken extracts the raw bearer token from the Authorization header.
// Returns "" when no bearer credential is present.
func bearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
}
