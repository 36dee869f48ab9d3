package http

import (
	"net/http"
	"time"

	"github.com/relaysuite/trustcore/pkg/httpx"
	"github.com/relaysuite/trustcore/pkg/slogx"
)

// ReadyzHandler is the readiness probe: verifies the backing store is
// reachable before reporting ready. A nil store skips the probe.
func ReadyzHandler(startTime time.Time, version string, store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			if err := store.Ping(r.Context()); err != nil {
				slogx.FromContext(r.Context()).Warn("readiness probe failed", "err", err)
				httpx.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{
					Status:  "unavailable",
					Uptime:  time.Since(startTime).String(),
					Version: version,
				})
				return
			}
		}

		httpx.WriteJSON(w, http.StatusOK, healthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}
