// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package pipeline

import (
	"math"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/playgrid/playgrid/internal/models"
)

// transactionKinds maps the data.type of a player_transaction event to a
// ledger kind. Directionality is from the player's perspective: a bank
// deposit moves money out of the player's hands.
var transactionKinds = map[string]models.TransactionKind{
	"deposit":           models.KindTransferOut,
	"withdraw":          models.KindTransferIn,
	"business_deposit":  models.KindTransferOut,
	"business_withdraw": models.KindTransferIn,
	"transfer_sent":     models.KindTransferOut,
	"transfer_received": models.KindTransferIn,
	"shop_purchase":     models.KindSpend,
	"gas_purchase":      models.KindSpend,
	"repair_cost":       models.KindSpend,
	"traffic_fine":      models.KindSpend,
	"ammo_purchase":     models.KindSpend,
	"job_payout":        models.KindEarn,
	"illegal_income":    models.KindEarn,
}

// deriveTransaction builds the ledger entry for an economic event, or nil
// when the event carries nothing bookable (player_trade has no amount field;
// a zero money change is a no-op). The entry reuses the event's idempotency
// key so redelivery cannot double-book.
func deriveTransaction(event *models.TelemetryEvent, playerID int64, occurredAt time.Time, dedupKey string) *models.Transaction {
	var (
		kind    models.TransactionKind
		amount  float64
		balance float64
		source  string
	)

	switch event.EventType {
	case models.EventPlayerMoneyChange:
		v, ok := event.PayloadFloat("amount")
		if !ok || v == 0 {
			return nil
		}
		kind = models.KindSpend
		if v > 0 {
			kind = models.KindEarn
		}
		amount = v
		balance, _ = event.PayloadFloat("newBalance")
		source = event.PayloadString("source")
		if source == "" {
			source = "unknown"
		}

	case models.EventPlayerTransaction:
		v, ok := event.PayloadFloat("amount")
		if !ok {
			return nil
		}
		kind, ok = transactionKinds[event.PayloadString("type")]
		if !ok {
			kind = models.KindSpend
		}
		amount = v
		balance, _ = event.PayloadFloat("newBalance")
		source = event.PayloadString("source_resource")
		if source == "" {
			source = "bank"
		}

	case models.EventVehiclePurchase:
		v, ok := event.PayloadFloat("price")
		if !ok {
			return nil
		}
		kind = models.KindSpend
		amount = v
		source = event.PayloadString("source_resource")
		if source == "" {
			source = "carshop"
		}

	case models.EventFineIssued:
		v, ok := event.PayloadFloat("amount")
		if !ok {
			return nil
		}
		kind = models.KindSpend
		amount = v
		source = "traffic_fine"

	default:
		return nil
	}

	metadata, _ := json.Marshal(event.Data)
	return &models.Transaction{
		ID:        uuid.New(),
		PlayerID:  playerID,
		Kind:      kind,
		Amount:    math.Abs(amount),
		Balance:   balance,
		Source:    source,
		Metadata:  metadata,
		Timestamp: occurredAt,
		DedupKey:  dedupKey,
	}
}
