// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package models

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// TransactionKind classifies the direction of a ledger entry. The stored
// amount is always an absolute value; kind alone carries the sign.
type TransactionKind string

// Transaction kinds.
const (
	KindEarn        TransactionKind = "EARN"
	KindSpend       TransactionKind = "SPEND"
	KindTransferIn  TransactionKind = "TRANSFER_IN"
	KindTransferOut TransactionKind = "TRANSFER_OUT"
)

// Valid reports whether k is one of the four ledger kinds.
func (k TransactionKind) Valid() bool {
	switch k {
	case KindEarn, KindSpend, KindTransferIn, KindTransferOut:
		return true
	}
	return false
}

// Event is one immutable row per ingested telemetry message. Append-only.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	EventType string          `json:"eventType"`
	PlayerID  int64           `json:"playerId"`
	PositionX *float64        `json:"positionX,omitempty"`
	PositionY *float64        `json:"positionY,omitempty"`
	PositionZ *float64        `json:"positionZ,omitempty"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	DedupKey  string          `json:"-"`

	// Player summary, populated on reads that join the owner.
	PlayerUsername string `json:"playerUsername,omitempty"`
	PlayerSerial   string `json:"playerSerial,omitempty"`
}

// Transaction is one immutable signed-amount ledger entry derived from an
// economic event. Amount is always >= 0; Balance is the resulting balance
// when the event reported one, else 0.
type Transaction struct {
	ID        uuid.UUID       `json:"id"`
	PlayerID  int64           `json:"playerId"`
	Kind      TransactionKind `json:"kind"`
	Amount    float64         `json:"amount"`
	Balance   float64         `json:"balance"`
	Source    string          `json:"source"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	DedupKey  string          `json:"-"`

	PlayerUsername string `json:"playerUsername,omitempty"`
	PlayerSerial   string `json:"playerSerial,omitempty"`
}

// EconomicMetric is one snapshot per aggregation run over the full ledger.
// Never mutated; the dashboard reads the most recent by timestamp.
type EconomicMetric struct {
	ID              int64     `json:"-"`
	TotalMoney      float64   `json:"totalMoney"`
	MoneyInCirc     float64   `json:"moneyInCirc"`
	AvgPlayerWealth float64   `json:"avgPlayerWealth"`
	InflationRate   float64   `json:"inflationRate"`
	Timestamp       time.Time `json:"timestamp"`
}
