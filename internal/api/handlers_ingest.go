// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/playgrid/playgrid/internal/models"
	"github.com/playgrid/playgrid/internal/validation"
)

// ingestAck is the fire-and-forget intake response: enqueue confirmed,
// processing pending.
type ingestAck struct {
	Success   bool  `json:"success"`
	Accepted  int   `json:"accepted,omitempty"`
	Timestamp int64 `json:"timestamp"`
}

// Event accepts one telemetry event.
// POST /api/mta/event
func (h *Handler) Event(w http.ResponseWriter, r *http.Request) {
	var event models.TelemetryEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}
	if verr := validation.ValidateStruct(&event); verr != nil {
		apiErr := verr.ToAPIError()
		writeErrorDetails(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	if err := h.ingest.ProcessEvent(r.Context(), &event); err != nil {
		writeError(w, http.StatusServiceUnavailable, "QUEUE_ERROR", "Failed to enqueue event")
		return
	}

	writeSuccess(w, ingestAck{Success: true, Timestamp: time.Now().UnixMilli()}, time.Now())
}

// Batch accepts up to 500 events at once.
// POST /api/mta/events/batch
func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	var batch models.BatchEvents
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}
	if verr := validation.ValidateStruct(&batch); verr != nil {
		apiErr := verr.ToAPIError()
		writeErrorDetails(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	accepted, err := h.ingest.ProcessBatch(r.Context(), &batch)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "QUEUE_ERROR", "Failed to enqueue batch")
		return
	}

	writeSuccess(w, ingestAck{Success: true, Accepted: accepted, Timestamp: time.Now().UnixMilli()}, time.Now())
}

// Heartbeat stores the game server's status blob.
// POST /api/mta/heartbeat
func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	var status map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&status); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	if err := h.ingest.Heartbeat(status); err != nil {
		writeInternalError(w, err)
		return
	}

	writeSuccess(w, ingestAck{Success: true, Timestamp: time.Now().UnixMilli()}, time.Now())
}
