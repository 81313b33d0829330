// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package gate

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/playgrid/playgrid/internal/logging"
	"github.com/playgrid/playgrid/internal/models"
)

// Request headers carrying the intake credentials.
const (
	HeaderAPIKey    = "X-Api-Key"
	HeaderTimestamp = "X-Timestamp"
	HeaderSignature = "X-Signature"
)

// Middleware returns a chi-compatible middleware that rejects requests
// failing signature verification with 401 and the matching error code.
func Middleware(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := v.Verify(
				r.Header.Get(HeaderAPIKey),
				r.Header.Get(HeaderTimestamp),
				r.Header.Get(HeaderSignature),
			)
			if err != nil {
				code := errorCode(err)
				logging.Warn().
					Str("remote_addr", r.RemoteAddr).
					Str("path", r.URL.Path).
					Str("code", code).
					Msg("Rejected unsigned intake request")
				respondUnauthorized(w, code, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// errorCode maps a verification failure to its API error code.
func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return "MISSING_CREDENTIALS"
	case errors.Is(err, ErrRequestExpired):
		return "REQUEST_EXPIRED"
	case errors.Is(err, ErrInvalidAPIKey):
		return "INVALID_API_KEY"
	case errors.Is(err, ErrInvalidSignature):
		return "INVALID_SIGNATURE"
	default:
		return "UNAUTHORIZED"
	}
}

func respondUnauthorized(w http.ResponseWriter, code string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)

	resp := models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    code,
			Message: err.Error(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
	}
	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		logging.Error().Err(encErr).Msg("Failed to encode gate error response")
	}
}
