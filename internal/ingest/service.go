// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

// Package ingest accepts telemetry from game servers and hands it to the
// durable queue. Intake is fire-and-forget: the HTTP response confirms
// enqueue, not processing.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/playgrid/playgrid/internal/config"
	"github.com/playgrid/playgrid/internal/kv"
	"github.com/playgrid/playgrid/internal/logging"
	"github.com/playgrid/playgrid/internal/metrics"
	"github.com/playgrid/playgrid/internal/models"
)

// KV key layout for the live-state layer.
const (
	keyRecentEvents  = "recent:events"
	keyCounterPrefix = "counter:events:"
	keyHeartbeat     = "heartbeat:server"
)

// Publisher is the queue-facing side of intake.
type Publisher interface {
	PublishEvent(ctx context.Context, event *models.TelemetryEvent) error
}

// Service wires intake to the queue and the KV live-state layer.
type Service struct {
	publisher Publisher
	store     *kv.Store
	cfg       config.IngestConfig
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService creates the intake service.
func NewService(publisher Publisher, store *kv.Store, cfg config.IngestConfig) *Service {
	return &Service{
		publisher: publisher,
		store:     store,
		cfg:       cfg,
		logger:    logging.With().Str("component", "ingest").Logger(),
		now:       time.Now,
	}
}

// stamp assigns the server receive time to events that carry no client
// timestamp. The idempotency key hashes the timestamp, so stamping must
// happen before the first publish: distinct events stay distinct, while
// broker redeliveries of one publish keep one key.
func (s *Service) stamp(event *models.TelemetryEvent) {
	if event.Timestamp == nil {
		ms := s.now().UnixMilli()
		event.Timestamp = &ms
	}
}

// ProcessEvent enqueues one event and updates the live-state layer. The ring
// push and counter increment are best-effort: their failure is logged but
// never surfaces to the caller, only a failed enqueue does.
func (s *Service) ProcessEvent(ctx context.Context, event *models.TelemetryEvent) error {
	metrics.RecordEventReceived(event.EventType)
	s.stamp(event)

	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		return fmt.Errorf("enqueue event: %w", err)
	}

	if err := s.store.PushCapped(keyRecentEvents, event, s.cfg.RecentEventsCap); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to push event onto recent ring")
	}
	if _, err := s.store.IncrementWithTTL(keyCounterPrefix+event.EventType, s.cfg.CounterTTL); err != nil {
		s.logger.Warn().Err(err).Str("event_type", event.EventType).Msg("Failed to bump intake counter")
	}
	return nil
}

// ProcessBatch enqueues every event in the batch. Batches skip the ring and
// counters. Returns the number of events enqueued before the first failure.
func (s *Service) ProcessBatch(ctx context.Context, batch *models.BatchEvents) (int, error) {
	for i := range batch.Events {
		event := &batch.Events[i]
		metrics.RecordEventReceived(event.EventType)
		s.stamp(event)
		if err := s.publisher.PublishEvent(ctx, event); err != nil {
			return i, fmt.Errorf("enqueue batch event %d: %w", i, err)
		}
	}
	return len(batch.Events), nil
}

// Heartbeat stores the game server's status blob with a short TTL; an expired
// key means the server went quiet.
func (s *Service) Heartbeat(status map[string]interface{}) error {
	return s.store.SetJSON(keyHeartbeat, status, s.cfg.HeartbeatTTL)
}

// ServerStatus returns the last heartbeat blob, or ok=false when the server
// has not reported within the TTL.
func (s *Service) ServerStatus() (map[string]interface{}, bool) {
	var status map[string]interface{}
	if err := s.store.GetJSON(keyHeartbeat, &status); err != nil {
		return nil, false
	}
	return status, true
}

// RecentEvents returns up to limit raw events from the live ring, newest
// first.
func (s *Service) RecentEvents(limit int) ([]models.TelemetryEvent, error) {
	raw, err := s.store.List(keyRecentEvents, limit)
	if err != nil {
		return nil, fmt.Errorf("read recent ring: %w", err)
	}
	events := make([]models.TelemetryEvent, 0, len(raw))
	for _, item := range raw {
		var event models.TelemetryEvent
		if err := json.Unmarshal(item, &event); err != nil {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// EventCounters returns the per-type intake counters still within their TTL.
func (s *Service) EventCounters() (map[string]int64, error) {
	counters, err := s.store.Counters(keyCounterPrefix)
	if err != nil {
		return nil, fmt.Errorf("read intake counters: %w", err)
	}
	return counters, nil
}
