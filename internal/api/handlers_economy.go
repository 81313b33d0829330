// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package api

import (
	"net/http"
	"time"
)

// EconomySnapshot serves the current economy snapshot, computing one when
// the history is empty.
// GET /api/economy/snapshot
func (h *Handler) EconomySnapshot(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	snapshot, err := h.dashboard.EconomySnapshot(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeSuccess(w, snapshot, started)
}

// EconomyTimeseries serves one metric's snapshot history.
// GET /api/economy/timeseries?metric=totalMoney&period=7d
func (h *Handler) EconomyTimeseries(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = "totalMoney"
	}
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "24h"
	}

	points, err := h.dashboard.EconomyTimeseries(r.Context(), metric, period)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	writeSuccess(w, points, started)
}

// Transactions serves a page of the global ledger.
// GET /api/economy/transactions?limit=50&offset=0
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	txs, err := h.dashboard.Transactions(r.Context(), queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeSuccess(w, txs, started)
}
