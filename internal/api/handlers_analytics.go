// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package api

import (
	"net/http"
	"time"
)

// Dashboard serves the overview payload.
// GET /api/analytics/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	snapshot, err := h.dashboard.Dashboard(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeSuccess(w, snapshot, started)
}

// Overview serves the last-7-days revenue chart and event volumes.
// GET /api/analytics/overview
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	overview, err := h.dashboard.Overview(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeSuccess(w, overview, started)
}

// Heatmap serves the positional heatmap for one event type.
// GET /api/analytics/heatmap?eventType=player_move&hours=24
func (h *Handler) Heatmap(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	eventType := r.URL.Query().Get("eventType")
	if eventType == "" {
		writeBadRequest(w, "eventType query parameter is required")
		return
	}
	hours := queryInt(r, "hours", 24)
	if hours <= 0 {
		hours = 24
	}

	cells, err := h.dashboard.Heatmap(r.Context(), eventType, time.Duration(hours)*time.Hour)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeSuccess(w, cells, started)
}

// RecentEvents serves the newest processed events.
// GET /api/analytics/events/recent?limit=50
func (h *Handler) RecentEvents(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	events, err := h.dashboard.RecentEvents(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeSuccess(w, events, started)
}

// PlayerTimeline serves one player's event history.
// GET /api/analytics/players/{id}/timeline?hours=24
func (h *Handler) PlayerTimeline(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	playerID, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "Invalid player id")
		return
	}

	events, err := h.dashboard.PlayerTimeline(r.Context(), playerID, queryInt(r, "hours", 24))
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeSuccess(w, events, started)
}

// ResourceStats serves the revenue breakdown per resource.
// GET /api/analytics/resources?hours=24
func (h *Handler) ResourceStats(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	hours := queryInt(r, "hours", 24)
	if hours <= 0 {
		hours = 24
	}

	stats, err := h.dashboard.ResourceStats(r.Context(), time.Duration(hours)*time.Hour)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeSuccess(w, stats, started)
}

// ServerStatus serves the game server's last heartbeat and intake counters.
// GET /api/analytics/server
func (h *Handler) ServerStatus(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	status, online := h.ingest.ServerStatus()
	counters, err := h.ingest.EventCounters()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"online":        online,
		"status":        status,
		"eventCounters": counters,
	}, started)
}
