// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package api

import (
	"net/http"

	"github.com/playgrid/playgrid/internal/logging"
	wshub "github.com/playgrid/playgrid/internal/websocket"
)

// WebSocket upgrades the connection, registers the client with the hub and
// pushes the initial dashboard payload.
// GET /ws
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := wshub.NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()

	// Initial payload so the dashboard renders without a REST round trip.
	// Best-effort: a failed snapshot still leaves a live subscription.
	if snapshot, err := h.dashboard.Dashboard(r.Context()); err == nil {
		client.Send(wshub.Message{Type: wshub.MessageTypeDashboard, Data: snapshot})
	} else {
		logging.Warn().Err(err).Msg("failed to build initial dashboard payload")
	}
}
