// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/playgrid/playgrid/internal/auth"
	"github.com/playgrid/playgrid/internal/gate"
	"github.com/playgrid/playgrid/internal/middleware"
)

// Routes builds the full route tree.
//
// Route groups:
//   - /health, /metrics: open
//   - /api/auth: login, strictly rate limited
//   - /api/mta: telemetry intake, behind the signed-request gate
//   - /api/analytics, /api/economy, /api/players, /ws: behind JWT
func (h *Handler) Routes(verifier *gate.Verifier) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", gate.HeaderAPIKey, gate.HeaderTimestamp, gate.HeaderSignature},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(httprate.LimitByIP(5, 5*time.Minute)) // brute-force guard
		r.Post("/login", h.Login)
	})

	r.Route("/api/mta", func(r chi.Router) {
		if !h.cfg.Security.RateLimitDisabled {
			r.Use(httprate.LimitByIP(h.cfg.Security.RateLimitReqs, h.cfg.Security.RateLimitWindow))
		}
		r.Use(middleware.Prometheus)
		r.Use(gate.Middleware(verifier))

		r.Post("/event", h.Event)
		r.Post("/events/batch", h.Batch)
		r.Post("/heartbeat", h.Heartbeat)
	})

	r.Group(func(r chi.Router) {
		if !h.cfg.Security.RateLimitDisabled {
			r.Use(httprate.LimitByIP(h.cfg.Security.RateLimitReqs, h.cfg.Security.RateLimitWindow))
		}
		r.Use(middleware.Prometheus)
		r.Use(middleware.Compression)
		r.Use(auth.Middleware(h.jwt))

		r.Route("/api/analytics", func(r chi.Router) {
			r.Get("/dashboard", h.Dashboard)
			r.Get("/overview", h.Overview)
			r.Get("/heatmap", h.Heatmap)
			r.Get("/events/recent", h.RecentEvents)
			r.Get("/players/{id}/timeline", h.PlayerTimeline)
			r.Get("/resources", h.ResourceStats)
			r.Get("/server", h.ServerStatus)
		})

		r.Route("/api/economy", func(r chi.Router) {
			r.Get("/snapshot", h.EconomySnapshot)
			r.Get("/timeseries", h.EconomyTimeseries)
			r.Get("/transactions", h.Transactions)
		})

		r.Route("/api/players", func(r chi.Router) {
			r.Get("/online", h.OnlinePlayers)
			r.Get("/search", h.SearchPlayers)
			r.Get("/{id}", h.PlayerDetail)
			r.Get("/{id}/stats", h.PlayerStats)
			r.Get("/{id}/transactions", h.PlayerTransactions)
		})
	})

	// WebSocket skips compression; the JWT rides in the token query
	// parameter during the handshake.
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(h.jwt))
		r.Get("/ws", h.WebSocket)
	})

	return r
}
