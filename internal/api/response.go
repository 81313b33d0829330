// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/playgrid/playgrid/internal/logging"
	"github.com/playgrid/playgrid/internal/models"
)

func writeJSON(w http.ResponseWriter, statusCode int, body models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

// writeSuccess writes a 200 envelope with query timing metadata.
func writeSuccess(w http.ResponseWriter, data interface{}, started time.Time) {
	writeJSON(w, http.StatusOK, models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(started).Milliseconds(),
		},
	})
}

func successEnvelope(data interface{}) models.APIResponse {
	return models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	}
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeErrorDetails(w, statusCode, code, message, nil)
}

func writeErrorDetails(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	writeJSON(w, statusCode, models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", message)
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", message)
}

func writeInternalError(w http.ResponseWriter, err error) {
	logging.Error().Err(err).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Internal server error")
}
