// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

// Package api is the HTTP surface: telemetry intake behind the signed-
// request gate, dashboard reads behind JWT, and the WebSocket endpoint.
package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/playgrid/playgrid/internal/auth"
	"github.com/playgrid/playgrid/internal/config"
	"github.com/playgrid/playgrid/internal/dashboard"
	"github.com/playgrid/playgrid/internal/database"
	"github.com/playgrid/playgrid/internal/ingest"
	wshub "github.com/playgrid/playgrid/internal/websocket"
)

// Handler carries the services the HTTP endpoints delegate to.
type Handler struct {
	cfg         *config.Config
	db          *database.DB
	ingest      *ingest.Service
	dashboard   *dashboard.Service
	hub         *wshub.Hub
	jwt         *auth.JWTManager
	credentials *auth.Credentials
}

// NewHandler wires the endpoint handler.
func NewHandler(
	cfg *config.Config,
	db *database.DB,
	ingestSvc *ingest.Service,
	dashboardSvc *dashboard.Service,
	hub *wshub.Hub,
	jwtManager *auth.JWTManager,
	credentials *auth.Credentials,
) *Handler {
	return &Handler{
		cfg:         cfg,
		db:          db,
		ingest:      ingestSvc,
		dashboard:   dashboardSvc,
		hub:         hub,
		jwt:         jwtManager,
		credentials: credentials,
	}
}

// upgrader builds the WebSocket upgrader with origin checking against the
// configured CORS origins. An empty origin list allows same-host only.
func (h *Handler) upgrader() websocket.Upgrader {
	origins := h.cfg.Security.CORSOrigins
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range origins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return origin == "http://"+r.Host || origin == "https://"+r.Host
		},
	}
}

// queryInt reads an integer query parameter, or def when absent/invalid.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// pathID reads the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
