// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/playgrid/playgrid/internal/database"
)

// OnlinePlayers serves the players seen within the online window.
// GET /api/players/online?limit=50
func (h *Handler) OnlinePlayers(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	players, err := h.dashboard.OnlinePlayers(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeSuccess(w, players, started)
}

// SearchPlayers finds players by name or serial fragment.
// GET /api/players/search?q=ali&limit=50
func (h *Handler) SearchPlayers(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	term := r.URL.Query().Get("q")
	if term == "" {
		writeBadRequest(w, "q query parameter is required")
		return
	}

	players, err := h.dashboard.SearchPlayers(r.Context(), term, queryInt(r, "limit", 50))
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeSuccess(w, players, started)
}

// PlayerDetail serves the full player view.
// GET /api/players/{id}
func (h *Handler) PlayerDetail(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	playerID, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "Invalid player id")
		return
	}

	detail, err := h.dashboard.PlayerDetail(r.Context(), playerID)
	if errors.Is(err, database.ErrPlayerNotFound) {
		writeNotFound(w, "Player not found")
		return
	}
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeSuccess(w, detail, started)
}

// PlayerStats serves a player row with activity counts.
// GET /api/players/{id}/stats
func (h *Handler) PlayerStats(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	playerID, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "Invalid player id")
		return
	}

	stats, err := h.dashboard.PlayerStats(r.Context(), playerID)
	if errors.Is(err, database.ErrPlayerNotFound) {
		writeNotFound(w, "Player not found")
		return
	}
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeSuccess(w, stats, started)
}

// PlayerTransactions serves one player's newest ledger entries.
// GET /api/players/{id}/transactions?limit=50
func (h *Handler) PlayerTransactions(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	playerID, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "Invalid player id")
		return
	}

	txs, err := h.dashboard.PlayerTransactions(r.Context(), playerID, queryInt(r, "limit", 50))
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeSuccess(w, txs, started)
}
