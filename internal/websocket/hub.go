// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

// Package websocket fans processed events and stats updates out to live
// dashboard clients. All connection state lives in the hub; clients register
// and unregister through channels, never by touching the map directly.
package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/playgrid/playgrid/internal/logging"
	"github.com/playgrid/playgrid/internal/metrics"
	"github.com/playgrid/playgrid/internal/models"
)

// Message types pushed to dashboard clients.
const (
	MessageTypeEvent       = "event"
	MessageTypeStatsUpdate = "stats_update"
	MessageTypeDashboard   = "dashboard"
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
)

// Message is one WebSocket frame.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a hub. Run it under the supervision tree via Serve.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Serve runs the hub until ctx is done, then closes every client.
// Lifecycle events take priority over broadcasts so the client set is
// consistent before any message goes out. Implements suture.Service.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		// Drain pending lifecycle events before broadcasting.
		select {
		case client := <-h.Register:
			h.register(client)
			continue
		case client := <-h.Unregister:
			h.unregister(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) String() string { return "websocket-hub" }

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()
	metrics.WSConnections.Set(float64(count))
	logging.Info().Int("total_clients", count).Msg("websocket client connected")
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.close()
	}
	count := len(h.clients)
	h.mu.Unlock()
	metrics.WSConnections.Set(float64(count))
	logging.Info().Int("total_clients", count).Msg("websocket client disconnected")
}

// BroadcastEvent pushes a processed event to every client. Implements the
// processor's broadcaster. Non-blocking: drops when the hub queue is full.
func (h *Hub) BroadcastEvent(event *models.Event) {
	h.enqueue(Message{Type: MessageTypeEvent, Data: event})
}

// BroadcastStats pushes a stats update to every client.
func (h *Hub) BroadcastStats(stats interface{}) {
	h.enqueue(Message{Type: MessageTypeStatsUpdate, Data: stats})
}

func (h *Hub) enqueue(message Message) {
	select {
	case h.broadcast <- message:
		metrics.WSBroadcasts.Inc()
	default:
		logging.Warn().Str("type", message.Type).Msg("websocket broadcast queue full, dropping message")
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcastToClients delivers one message to every client in stable ID
// order. Clients with a full send buffer are dropped; a stalled consumer
// must not stall the hub.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}
	for _, client := range toRemove {
		client.close()
		delete(h.clients, client)
	}
	if len(toRemove) > 0 {
		metrics.WSConnections.Set(float64(len(h.clients)))
		logging.Warn().Int("dropped", len(toRemove)).Msg("dropped stalled websocket clients")
	}
}

func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	for _, client := range clients {
		client.close()
		delete(h.clients, client)
	}
	h.mu.Unlock()

	metrics.WSConnections.Set(0)
	logging.Info().
		Str("component", "websocket-hub").
		Int("clients_closed", len(clients)).
		Str("reason", ctx.Err().Error()).
		Msg("websocket hub stopped")
}
