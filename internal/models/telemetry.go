// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// TelemetryEvent is the canonical inbound event from the game server.
// This is the wire shape accepted by the ingest endpoints and the payload
// carried through the NATS stream to the event processor.
//
// PlayerID is advisory only (the in-game element id, reused across sessions);
// PlayerSerial is the stable client identity and the only field trusted for
// player resolution.
type TelemetryEvent struct {
	EventType    string                 `json:"eventType" validate:"required,eventtype"`
	PlayerID     *int64                 `json:"playerId,omitempty"`
	PlayerSerial string                 `json:"playerSerial" validate:"required,gameserial"`
	PlayerName   string                 `json:"playerName" validate:"required"`
	Position     *Position              `json:"position,omitempty"`
	Data         map[string]interface{} `json:"data" validate:"required"`
	Timestamp    *int64                 `json:"timestamp,omitempty"` // epoch ms; server time if absent
}

// Position is a 3D world coordinate attached to positional events.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// BatchEvents is the bulk-ingestion wire shape.
type BatchEvents struct {
	Events []TelemetryEvent `json:"events" validate:"required,min=1,max=500,dive"`
}

// OccurredAt returns the client-supplied event time, or now if absent.
func (e *TelemetryEvent) OccurredAt(now time.Time) time.Time {
	if e.Timestamp != nil {
		return time.UnixMilli(*e.Timestamp).UTC()
	}
	return now.UTC()
}

// DedupKey derives a stable idempotency key for the event. At-least-once
// delivery means the processor can see the same event twice; event and ledger
// inserts are conditional on this key's absence.
func (e *TelemetryEvent) DedupKey() string {
	h := sha256.New()
	h.Write([]byte(e.PlayerSerial))
	h.Write([]byte{0})
	h.Write([]byte(e.EventType))
	h.Write([]byte{0})
	if e.Timestamp != nil {
		h.Write([]byte(strconv.FormatInt(*e.Timestamp, 10)))
	}
	h.Write([]byte{0})
	if payload, err := json.Marshal(e.Data); err == nil {
		h.Write(payload)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Topic returns the NATS subject for this event.
// Format: telemetry.<event_type>, e.g. telemetry.player_money_change.
func (e *TelemetryEvent) Topic() string {
	return "telemetry." + e.EventType
}

// Event type constants for the types the derivers react to. EventType is an
// open string tag; unknown types are persisted without derivation.
const (
	EventPlayerChat        = "player_chat"
	EventPlayerTrade       = "player_trade"
	EventFactionAction     = "faction_action"
	EventPlayerMoneyChange = "player_money_change"
	EventShopPurchase      = "shop_purchase"
	EventPlayerTransaction = "player_transaction"
	EventVehiclePurchase   = "vehicle_purchase"
	EventFineIssued        = "fine_issued"
)

// IsSocial reports whether the event type can derive a relationship edge.
func (e *TelemetryEvent) IsSocial() bool {
	switch e.EventType {
	case EventPlayerChat, EventPlayerTrade, EventFactionAction:
		return true
	}
	return false
}

// IsEconomic reports whether the event type can derive a ledger entry.
func (e *TelemetryEvent) IsEconomic() bool {
	switch e.EventType {
	case EventPlayerMoneyChange, EventPlayerTrade, EventShopPurchase,
		EventPlayerTransaction, EventVehiclePurchase, EventFineIssued:
		return true
	}
	return false
}

// TargetPlayerID extracts the second-player reference from the payload, if
// present. Social derivation requires it.
func (e *TelemetryEvent) TargetPlayerID() (int64, bool) {
	return payloadInt64(e.Data, "targetPlayerId")
}

// PayloadFloat extracts a numeric payload field. JSON numbers decode as
// float64; integer-typed values are accepted too.
func (e *TelemetryEvent) PayloadFloat(key string) (float64, bool) {
	return payloadFloat(e.Data, key)
}

// PayloadString extracts a string payload field, or "" if absent.
func (e *TelemetryEvent) PayloadString(key string) string {
	if v, ok := e.Data[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func payloadFloat(data map[string]interface{}, key string) (float64, bool) {
	v, ok := data[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func payloadInt64(data map[string]interface{}, key string) (int64, bool) {
	f, ok := payloadFloat(data, key)
	if !ok {
		return 0, false
	}
	return int64(f), true
}
