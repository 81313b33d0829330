// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/playgrid/playgrid/internal/config"
	"github.com/playgrid/playgrid/internal/database"
	"github.com/playgrid/playgrid/internal/models"
)

type recordingBroadcaster struct {
	events []*models.Event
}

func (b *recordingBroadcaster) BroadcastEvent(event *models.Event) {
	b.events = append(b.events, event)
}

func newTestProcessor(t *testing.T) (*Processor, *database.DB, *recordingBroadcaster) {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{
		Path:      filepath.Join(t.TempDir(), "test.duckdb"),
		MaxMemory: "256MB",
		Threads:   2,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close database: %v", err)
		}
	})
	broadcaster := &recordingBroadcaster{}
	return NewProcessor(db, broadcaster), db, broadcaster
}

func telemetryMessage(t *testing.T, event *models.TelemetryEvent) *message.Message {
	t.Helper()
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return message.NewMessage(watermill.NewUUID(), payload)
}

func TestProcessorHandleEconomicEvent(t *testing.T) {
	processor, db, broadcaster := newTestProcessor(t)
	ctx := context.Background()

	ts := time.Now().Add(-time.Minute).UnixMilli()
	event := telemetryEvent(models.EventPlayerMoneyChange, map[string]interface{}{
		"amount":     float64(300),
		"newBalance": float64(1300),
		"source":     "job",
	})
	event.Timestamp = &ts
	event.Position = &models.Position{X: 120, Y: -40, Z: 3}

	if err := processor.Handle(telemetryMessage(t, event)); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}

	player, err := db.GetPlayerBySerial(ctx, event.PlayerSerial)
	if err != nil {
		t.Fatalf("GetPlayerBySerial() error: %v", err)
	}
	if player.LastUsername != "Alice" {
		t.Errorf("player username = %q, want Alice", player.LastUsername)
	}

	events, err := db.GetRecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecentEvents() error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].EventType != models.EventPlayerMoneyChange {
		t.Errorf("event type = %q", events[0].EventType)
	}
	if events[0].PositionX == nil || *events[0].PositionX != 120 {
		t.Errorf("position x = %v, want 120", events[0].PositionX)
	}

	txs, err := db.GetRecentTransactions(ctx, 10, 0)
	if err != nil {
		t.Fatalf("GetRecentTransactions() error: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txs))
	}
	if txs[0].Kind != models.KindEarn || txs[0].Amount != 300 || txs[0].Source != "job" {
		t.Errorf("got kind=%s amount=%v source=%q", txs[0].Kind, txs[0].Amount, txs[0].Source)
	}

	if len(broadcaster.events) != 1 {
		t.Fatalf("broadcast %d events, want 1", len(broadcaster.events))
	}
	if broadcaster.events[0].PlayerUsername != "Alice" {
		t.Errorf("broadcast username = %q", broadcaster.events[0].PlayerUsername)
	}
}

func TestProcessorHandleDuplicateDelivery(t *testing.T) {
	processor, db, broadcaster := newTestProcessor(t)
	ctx := context.Background()

	ts := time.Now().UnixMilli()
	event := telemetryEvent(models.EventPlayerMoneyChange, map[string]interface{}{
		"amount": float64(-50),
	})
	event.Timestamp = &ts

	for i := 0; i < 2; i++ {
		if err := processor.Handle(telemetryMessage(t, event)); err != nil {
			t.Fatalf("Handle() delivery %d error: %v", i+1, err)
		}
	}

	events, err := db.GetRecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecentEvents() error: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("got %d events after redelivery, want 1", len(events))
	}
	txs, err := db.GetRecentTransactions(ctx, 10, 0)
	if err != nil {
		t.Fatalf("GetRecentTransactions() error: %v", err)
	}
	if len(txs) != 1 {
		t.Errorf("got %d transactions after redelivery, want 1", len(txs))
	}
	if len(broadcaster.events) != 1 {
		t.Errorf("broadcast %d events after redelivery, want 1", len(broadcaster.events))
	}
}

func TestProcessorHandleSocialEvent(t *testing.T) {
	processor, db, _ := newTestProcessor(t)
	ctx := context.Background()

	// Target must exist as a player row first so the edge resolves.
	targetID, err := db.UpsertPlayer(ctx, db.Conn(),
		"00000000000000000000000000000002", "Bob", time.Now(), models.PlayerMetrics{})
	if err != nil {
		t.Fatalf("UpsertPlayer() error: %v", err)
	}

	ts := time.Now().UnixMilli()
	event := telemetryEvent(models.EventPlayerChat, map[string]interface{}{
		"targetPlayerId": float64(targetID),
		"message":        "hey",
	})
	event.Timestamp = &ts

	if err := processor.Handle(telemetryMessage(t, event)); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}

	player, err := db.GetPlayerBySerial(ctx, event.PlayerSerial)
	if err != nil {
		t.Fatalf("GetPlayerBySerial() error: %v", err)
	}
	rels, err := db.GetPlayerRelationships(ctx, player.ID, 10)
	if err != nil {
		t.Fatalf("GetPlayerRelationships() error: %v", err)
	}
	if len(rels) != 1 {
		t.Fatalf("got %d relationships, want 1", len(rels))
	}
	if rels[0].Strength != 1.0 || rels[0].Interactions != 1 {
		t.Errorf("got strength=%v interactions=%d, want 1.0/1", rels[0].Strength, rels[0].Interactions)
	}
}

func TestProcessorHandleUnparseablePayload(t *testing.T) {
	processor, db, _ := newTestProcessor(t)

	msg := message.NewMessage(watermill.NewUUID(), []byte("{not json"))
	if err := processor.Handle(msg); err != nil {
		t.Fatalf("Handle() error: %v, want nil (ack and drop)", err)
	}

	events, err := db.GetRecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetRecentEvents() error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events from garbage payload, want 0", len(events))
	}
}
