// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package api

import (
	"net/http"
	"time"
)

var startedAt = time.Now()

// Health reports process liveness and database reachability.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK

	checks := map[string]string{"database": "ok"}
	if err := h.db.Ping(r.Context()); err != nil {
		checks["database"] = err.Error()
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, successEnvelope(map[string]interface{}{
		"status":        status,
		"uptimeSeconds": int64(time.Since(startedAt).Seconds()),
		"checks":        checks,
		"wsClients":     h.hub.GetClientCount(),
	}))
}
