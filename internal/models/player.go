// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package models

import "time"

// Player is one row per distinct game-client identity. The serial uniquely
// and permanently identifies a player; display name and the metric snapshot
// reflect only the most recently processed event.
type Player struct {
	ID           int64     `json:"id"`
	Serial       string    `json:"serial"`
	LastUsername string    `json:"lastUsername"`
	LastSeen     time.Time `json:"lastSeen"`
	RiskScore    int       `json:"riskScore"`
	CreatedAt    time.Time `json:"createdAt"`

	// Mutable game-state snapshot, merged field-by-field from event payloads.
	Money         float64 `json:"money"`
	Bank          float64 `json:"bank"`
	Level         int     `json:"level"`
	Experience    int64   `json:"experience"`
	Job           string  `json:"job"`
	PlayedTime    int64   `json:"playedTime"`
	Hunger        int     `json:"hunger"`
	Thirst        int     `json:"thirst"`
	PremiumPoints int     `json:"premiumPoints"`
	Faction       string  `json:"faction"`
}

// PlayerMetrics carries the optional metric fields of an event payload.
// Nil pointer means the field was absent and the stored value must be left
// untouched by the upsert (no accidental zeroing).
type PlayerMetrics struct {
	Money         *float64
	Bank          *float64
	Level         *int
	Experience    *int64
	Job           *string
	PlayedTime    *int64
	Hunger        *int
	Thirst        *int
	PremiumPoints *int
	Faction       *string
}

// MetricsFromPayload extracts the known metric fields present in an event
// payload. Unknown payload fields are ignored here; the full payload is
// persisted verbatim on the Event row.
func MetricsFromPayload(data map[string]interface{}) PlayerMetrics {
	var m PlayerMetrics
	if v, ok := payloadFloat(data, "money"); ok {
		m.Money = &v
	}
	if v, ok := payloadFloat(data, "bank"); ok {
		m.Bank = &v
	}
	if v, ok := payloadInt64(data, "level"); ok {
		lvl := int(v)
		m.Level = &lvl
	}
	if v, ok := payloadInt64(data, "experience"); ok {
		m.Experience = &v
	}
	if s, ok := data["job"].(string); ok {
		m.Job = &s
	}
	if v, ok := payloadInt64(data, "playedTime"); ok {
		m.PlayedTime = &v
	}
	if v, ok := payloadInt64(data, "hunger"); ok {
		h := int(v)
		m.Hunger = &h
	}
	if v, ok := payloadInt64(data, "thirst"); ok {
		t := int(v)
		m.Thirst = &t
	}
	if v, ok := payloadInt64(data, "premiumPoints"); ok {
		p := int(v)
		m.PremiumPoints = &p
	}
	if s, ok := data["faction"].(string); ok {
		m.Faction = &s
	}
	return m
}

// RelationshipFriend is the only relationship type currently derived.
const RelationshipFriend = "FRIEND"

// PlayerRelationship is one weighted edge per (playerA, playerB, type).
// The key is as-given, not symmetrized: a reciprocal event from B about A
// creates an independent (B, A) edge.
type PlayerRelationship struct {
	ID              int64     `json:"id"`
	PlayerAID       int64     `json:"playerAId"`
	PlayerBID       int64     `json:"playerBId"`
	Type            string    `json:"type"`
	Strength        float64   `json:"strength"`
	Interactions    int64     `json:"interactions"`
	LastInteraction time.Time `json:"lastInteraction"`

	// PlayerB summary, populated on reads that join the peer.
	PeerUsername string `json:"peerUsername,omitempty"`
	PeerSerial   string `json:"peerSerial,omitempty"`
}
