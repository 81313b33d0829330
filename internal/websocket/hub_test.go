// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/playgrid/playgrid/internal/models"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.Serve(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Error("hub did not stop within a second")
		}
	})
	return hub
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.GetClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", hub.GetClientCount(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := startHub(t)

	client := NewClient(hub, nil)
	hub.Register <- client
	waitForClients(t, hub, 1)

	hub.Unregister <- client
	waitForClients(t, hub, 0)

	// Channel must be closed after unregister.
	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("send channel delivered a message after unregister")
		}
	case <-time.After(time.Second):
		t.Error("send channel not closed after unregister")
	}
}

func TestHubBroadcastEvent(t *testing.T) {
	hub := startHub(t)

	a := NewClient(hub, nil)
	b := NewClient(hub, nil)
	hub.Register <- a
	hub.Register <- b
	waitForClients(t, hub, 2)

	event := &models.Event{ID: uuid.New(), EventType: "player_chat"}
	hub.BroadcastEvent(event)

	for _, client := range []*Client{a, b} {
		select {
		case msg := <-client.send:
			if msg.Type != MessageTypeEvent {
				t.Errorf("message type = %q, want %q", msg.Type, MessageTypeEvent)
			}
			got, ok := msg.Data.(*models.Event)
			if !ok || got.EventType != "player_chat" {
				t.Errorf("message data = %#v", msg.Data)
			}
		case <-time.After(time.Second):
			t.Fatal("client did not receive broadcast")
		}
	}
}

func TestHubDropsStalledClient(t *testing.T) {
	hub := startHub(t)

	stalled := NewClient(hub, nil)
	// Fill the client buffer so the next broadcast cannot be queued.
	for i := 0; i < cap(stalled.send); i++ {
		stalled.send <- Message{Type: MessageTypePing}
	}
	hub.Register <- stalled
	waitForClients(t, hub, 1)

	hub.BroadcastStats(map[string]int{"online": 3})
	waitForClients(t, hub, 0)
}

func TestSendAfterUnregisterIsNoop(t *testing.T) {
	hub := startHub(t)

	client := NewClient(hub, nil)
	hub.Register <- client
	waitForClients(t, hub, 1)

	hub.Unregister <- client
	waitForClients(t, hub, 0)

	// A peer can disconnect between registration and the handler's
	// initial stats push. Send must not panic on the torn-down client.
	client.Send(Message{Type: MessageTypeStatsUpdate, Data: map[string]int{"online": 0}})
	client.Send(Message{Type: MessageTypePing})
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Serve(ctx) }()

	client := NewClient(hub, nil)
	hub.Register <- client
	waitForClients(t, hub, 1)

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
	if hub.GetClientCount() != 0 {
		t.Errorf("client count = %d after shutdown, want 0", hub.GetClientCount())
	}
}
