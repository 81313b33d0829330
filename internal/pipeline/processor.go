// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package pipeline

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/playgrid/playgrid/internal/database"
	"github.com/playgrid/playgrid/internal/logging"
	"github.com/playgrid/playgrid/internal/metrics"
	"github.com/playgrid/playgrid/internal/models"
)

// Broadcaster pushes processed events to live dashboard clients. Nil-safe:
// the processor works without one.
type Broadcaster interface {
	BroadcastEvent(event *models.Event)
}

// Processor consumes telemetry messages from the stream and materializes
// them: player upsert, event insert, and relationship/ledger derivation, all
// inside one database transaction per message. A returned error nacks the
// message for redelivery; the dedup key makes redelivery idempotent.
type Processor struct {
	db          *database.DB
	broadcaster Broadcaster
	logger      zerolog.Logger
	now         func() time.Time
}

// NewProcessor creates a processor. broadcaster may be nil.
func NewProcessor(db *database.DB, broadcaster Broadcaster) *Processor {
	return &Processor{
		db:          db,
		broadcaster: broadcaster,
		logger:      logging.With().Str("component", "processor").Logger(),
		now:         time.Now,
	}
}

// Handle is the message handler registered on the router. It never publishes;
// derived rows go straight to the database.
func (p *Processor) Handle(msg *message.Message) error {
	start := p.now()

	var event models.TelemetryEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		// Unparseable payloads can never succeed; ack and drop.
		metrics.EventsFailed.Inc()
		p.logger.Error().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping unparseable telemetry payload")
		return nil
	}
	if event.EventType == "" || event.PlayerSerial == "" {
		metrics.EventsFailed.Inc()
		p.logger.Error().Str("message_uuid", msg.UUID).Msg("Dropping telemetry payload without type or serial")
		return nil
	}

	occurredAt := event.OccurredAt(p.now())
	row, derived, err := p.materialize(msg, &event, occurredAt)
	if err != nil {
		metrics.EventsFailed.Inc()
		p.logger.Error().Err(err).
			Str("event_type", event.EventType).
			Str("player_serial", event.PlayerSerial).
			Msg("Failed to process telemetry event")
		return err
	}

	if row == nil {
		metrics.EventsDeduplicated.Inc()
		p.logger.Debug().Str("event_type", event.EventType).Msg("Duplicate event skipped")
		return nil
	}

	metrics.RecordProcessed(event.EventType, time.Since(start))
	if derived != "" {
		metrics.RecordTransactionDerived(derived)
	}
	if p.broadcaster != nil {
		p.broadcaster.BroadcastEvent(row)
	}
	return nil
}

// materialize runs the per-event transaction. It returns the inserted event
// row (nil when the dedup key already exists) and the derived transaction
// kind, if any.
func (p *Processor) materialize(msg *message.Message, event *models.TelemetryEvent, occurredAt time.Time) (*models.Event, string, error) {
	ctx := msg.Context()
	dedupKey := event.DedupKey()

	var (
		row     *models.Event
		derived string
	)
	err := p.db.WithTx(ctx, func(tx *sql.Tx) error {
		playerID, err := p.db.UpsertPlayer(ctx, tx, event.PlayerSerial, event.PlayerName,
			occurredAt, models.MetricsFromPayload(event.Data))
		if err != nil {
			return fmt.Errorf("upsert player: %w", err)
		}

		data, err := json.Marshal(event.Data)
		if err != nil {
			return fmt.Errorf("marshal event data: %w", err)
		}
		candidate := &models.Event{
			ID:        uuid.New(),
			EventType: event.EventType,
			PlayerID:  playerID,
			Data:      data,
			Timestamp: occurredAt,
			DedupKey:  dedupKey,
		}
		if event.Position != nil {
			x, y, z := event.Position.X, event.Position.Y, event.Position.Z
			candidate.PositionX, candidate.PositionY, candidate.PositionZ = &x, &y, &z
		}

		inserted, err := p.db.InsertEvent(ctx, tx, candidate)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		if !inserted {
			// Already materialized by an earlier delivery; derivations
			// ran then, so the whole message is a no-op.
			return nil
		}
		row = candidate
		row.PlayerUsername = event.PlayerName
		row.PlayerSerial = event.PlayerSerial

		if event.IsSocial() {
			if targetID, ok := event.TargetPlayerID(); ok {
				if err := p.db.UpsertRelationship(ctx, tx, playerID, targetID,
					models.RelationshipFriend, occurredAt); err != nil {
					return fmt.Errorf("upsert relationship: %w", err)
				}
			}
		}

		if event.IsEconomic() {
			if entry := deriveTransaction(event, playerID, occurredAt, dedupKey); entry != nil {
				if _, err := p.db.InsertTransaction(ctx, tx, entry); err != nil {
					return fmt.Errorf("insert transaction: %w", err)
				}
				derived = string(entry.Kind)
			}
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return row, derived, nil
}
