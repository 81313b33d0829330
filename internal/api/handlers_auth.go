// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/playgrid/playgrid/internal/auth"
	"github.com/playgrid/playgrid/internal/logging"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Login authenticates the configured admin and issues a session token.
// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	if err := h.credentials.Verify(req.Username, req.Password); err != nil {
		logging.Warn().Str("username", req.Username).Msg("failed login attempt")
		writeError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Invalid credentials")
		return
	}

	token, err := h.jwt.GenerateToken(req.Username, auth.AdminRole)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeSuccess(w, loginResponse{
		Token:    token,
		Username: req.Username,
		Role:     auth.AdminRole,
	}, time.Now())
}
