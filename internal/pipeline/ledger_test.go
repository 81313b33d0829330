// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package pipeline

import (
	"testing"
	"time"

	"github.com/playgrid/playgrid/internal/models"
)

func telemetryEvent(eventType string, data map[string]interface{}) *models.TelemetryEvent {
	return &models.TelemetryEvent{
		EventType:    eventType,
		PlayerSerial: "A1B2C3D4E5F6A7B8C9D0E1F2A3B4C5D6",
		PlayerName:   "Alice",
		Data:         data,
	}
}

func TestDeriveTransactionMoneyChange(t *testing.T) {
	at := time.Now()

	tests := []struct {
		name    string
		data    map[string]interface{}
		want    models.TransactionKind
		amount  float64
		balance float64
		source  string
		none    bool
	}{
		{
			name:    "positive amount earns",
			data:    map[string]interface{}{"amount": float64(250), "newBalance": float64(1250), "source": "job"},
			want:    models.KindEarn,
			amount:  250,
			balance: 1250,
			source:  "job",
		},
		{
			name:    "negative amount spends with absolute value",
			data:    map[string]interface{}{"amount": float64(-75), "newBalance": float64(925)},
			want:    models.KindSpend,
			amount:  75,
			balance: 925,
			source:  "unknown",
		},
		{name: "zero amount skipped", data: map[string]interface{}{"amount": float64(0)}, none: true},
		{name: "missing amount skipped", data: map[string]interface{}{"source": "job"}, none: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := deriveTransaction(telemetryEvent(models.EventPlayerMoneyChange, tt.data), 7, at, "dedup")
			if tt.none {
				if got != nil {
					t.Fatalf("deriveTransaction() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("deriveTransaction() = nil, want entry")
			}
			if got.Kind != tt.want || got.Amount != tt.amount || got.Balance != tt.balance || got.Source != tt.source {
				t.Errorf("got kind=%s amount=%v balance=%v source=%q, want kind=%s amount=%v balance=%v source=%q",
					got.Kind, got.Amount, got.Balance, got.Source, tt.want, tt.amount, tt.balance, tt.source)
			}
			if got.PlayerID != 7 || got.DedupKey != "dedup" {
				t.Errorf("got playerID=%d dedupKey=%q", got.PlayerID, got.DedupKey)
			}
		})
	}
}

func TestDeriveTransactionKindTable(t *testing.T) {
	tests := []struct {
		transType string
		want      models.TransactionKind
	}{
		{"deposit", models.KindTransferOut},
		{"withdraw", models.KindTransferIn},
		{"business_deposit", models.KindTransferOut},
		{"business_withdraw", models.KindTransferIn},
		{"transfer_sent", models.KindTransferOut},
		{"transfer_received", models.KindTransferIn},
		{"shop_purchase", models.KindSpend},
		{"gas_purchase", models.KindSpend},
		{"repair_cost", models.KindSpend},
		{"traffic_fine", models.KindSpend},
		{"ammo_purchase", models.KindSpend},
		{"job_payout", models.KindEarn},
		{"illegal_income", models.KindEarn},
		{"something_new", models.KindSpend},
	}

	for _, tt := range tests {
		t.Run(tt.transType, func(t *testing.T) {
			got := deriveTransaction(telemetryEvent(models.EventPlayerTransaction, map[string]interface{}{
				"type":   tt.transType,
				"amount": float64(100),
			}), 1, time.Now(), "k")
			if got == nil {
				t.Fatal("deriveTransaction() = nil, want entry")
			}
			if got.Kind != tt.want {
				t.Errorf("kind = %s, want %s", got.Kind, tt.want)
			}
			if got.Source != "bank" {
				t.Errorf("source = %q, want bank", got.Source)
			}
		})
	}
}

func TestDeriveTransactionSourceResource(t *testing.T) {
	got := deriveTransaction(telemetryEvent(models.EventPlayerTransaction, map[string]interface{}{
		"type":            "shop_purchase",
		"amount":          float64(-40),
		"source_resource": "24-7",
		"newBalance":      float64(60),
	}), 1, time.Now(), "k")
	if got == nil {
		t.Fatal("deriveTransaction() = nil, want entry")
	}
	if got.Source != "24-7" || got.Amount != 40 || got.Balance != 60 {
		t.Errorf("got source=%q amount=%v balance=%v", got.Source, got.Amount, got.Balance)
	}
}

func TestDeriveTransactionVehiclePurchase(t *testing.T) {
	got := deriveTransaction(telemetryEvent(models.EventVehiclePurchase, map[string]interface{}{
		"price": float64(25000),
	}), 1, time.Now(), "k")
	if got == nil {
		t.Fatal("deriveTransaction() = nil, want entry")
	}
	if got.Kind != models.KindSpend || got.Amount != 25000 || got.Source != "carshop" {
		t.Errorf("got kind=%s amount=%v source=%q", got.Kind, got.Amount, got.Source)
	}

	if got := deriveTransaction(telemetryEvent(models.EventVehiclePurchase, map[string]interface{}{}), 1, time.Now(), "k"); got != nil {
		t.Errorf("priceless purchase derived %+v, want nil", got)
	}
}

func TestDeriveTransactionFineIssued(t *testing.T) {
	got := deriveTransaction(telemetryEvent(models.EventFineIssued, map[string]interface{}{
		"amount": float64(500),
	}), 1, time.Now(), "k")
	if got == nil {
		t.Fatal("deriveTransaction() = nil, want entry")
	}
	if got.Kind != models.KindSpend || got.Amount != 500 || got.Source != "traffic_fine" {
		t.Errorf("got kind=%s amount=%v source=%q", got.Kind, got.Amount, got.Source)
	}
}

func TestDeriveTransactionTradeHasNoEntry(t *testing.T) {
	got := deriveTransaction(telemetryEvent(models.EventPlayerTrade, map[string]interface{}{
		"targetPlayerId": float64(9),
	}), 1, time.Now(), "k")
	if got != nil {
		t.Errorf("player_trade derived %+v, want nil", got)
	}
}
