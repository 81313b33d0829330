// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

// Package economy computes point-in-time snapshots of the server economy
// from the transaction ledger. Snapshots are append-only; the newest row is
// the current state and the history is the timeseries.
package economy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/playgrid/playgrid/internal/config"
	"github.com/playgrid/playgrid/internal/database"
	"github.com/playgrid/playgrid/internal/logging"
	"github.com/playgrid/playgrid/internal/metrics"
	"github.com/playgrid/playgrid/internal/models"
)

// Aggregator recomputes economy snapshots over the full ledger. Safe for
// concurrent use; the mutex serializes the scheduler against lazy on-read
// refreshes.
type Aggregator struct {
	db     *database.DB
	cfg    config.EconomyConfig
	logger zerolog.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewAggregator creates an aggregator.
func NewAggregator(db *database.DB, cfg config.EconomyConfig) *Aggregator {
	return &Aggregator{
		db:     db,
		cfg:    cfg,
		logger: logging.With().Str("component", "economy").Logger(),
		now:    time.Now,
	}
}

// Snapshot recomputes and persists a snapshot. When the previous snapshot is
// younger than the minimum interval it is returned unchanged instead; that
// deduplicates the scheduler racing a lazy refresh. All-or-nothing: a failed
// recompute writes no row.
func (a *Aggregator) Snapshot(ctx context.Context) (*models.EconomicMetric, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now().UTC()

	previous, err := a.db.GetLatestMetric(ctx)
	if err != nil && !errors.Is(err, database.ErrNoMetrics) {
		metrics.SnapshotRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("read latest snapshot: %w", err)
	}
	if previous != nil && now.Sub(previous.Timestamp) < a.cfg.MinSnapshotInterval {
		metrics.SnapshotRuns.WithLabelValues("skipped").Inc()
		return previous, nil
	}

	sums, err := a.db.LedgerSums(ctx)
	if err != nil {
		metrics.SnapshotRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("sum ledger: %w", err)
	}
	circulation := sums[models.KindEarn] + sums[models.KindTransferIn] -
		sums[models.KindSpend] - sums[models.KindTransferOut]
	if circulation < 0 {
		circulation = 0
	}

	playerCount, err := a.db.CountPlayers(ctx)
	if err != nil {
		metrics.SnapshotRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("count players: %w", err)
	}
	avgWealth := 0.0
	if playerCount > 0 {
		avgWealth = circulation / float64(playerCount)
	}

	inflation := 0.0
	if previous != nil && previous.MoneyInCirc > 0 {
		inflation = (circulation - previous.MoneyInCirc) / previous.MoneyInCirc * 100
	}

	snapshot := &models.EconomicMetric{
		TotalMoney:      circulation,
		MoneyInCirc:     circulation,
		AvgPlayerWealth: avgWealth,
		InflationRate:   inflation,
		Timestamp:       now,
	}
	if err := a.db.InsertEconomicMetric(ctx, snapshot); err != nil {
		metrics.SnapshotRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}

	metrics.SnapshotRuns.WithLabelValues("success").Inc()
	a.logger.Info().
		Float64("circulation", circulation).
		Float64("avg_wealth", avgWealth).
		Float64("inflation_pct", inflation).
		Int64("players", playerCount).
		Msg("Economy snapshot written")
	return snapshot, nil
}

// Latest returns the newest snapshot, generating one synchronously when none
// exists yet.
func (a *Aggregator) Latest(ctx context.Context) (*models.EconomicMetric, error) {
	snapshot, err := a.db.GetLatestMetric(ctx)
	if errors.Is(err, database.ErrNoMetrics) {
		return a.Snapshot(ctx)
	}
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Timeseries returns snapshots within the trailing window, oldest first.
func (a *Aggregator) Timeseries(ctx context.Context, window time.Duration) ([]models.EconomicMetric, error) {
	return a.db.GetMetricTimeseries(ctx, window)
}

// StatsBroadcaster pushes fresh snapshots to connected dashboard clients.
type StatsBroadcaster interface {
	BroadcastStats(stats interface{})
}

// Scheduler runs the aggregator on a fixed cadence under the supervision
// tree. Implements suture.Service.
type Scheduler struct {
	aggregator  *Aggregator
	interval    time.Duration
	broadcaster StatsBroadcaster
	logger      zerolog.Logger
}

// NewScheduler creates the periodic snapshot service. broadcaster may be
// nil when no live push is wanted.
func NewScheduler(aggregator *Aggregator, interval time.Duration, broadcaster StatsBroadcaster) *Scheduler {
	return &Scheduler{
		aggregator:  aggregator,
		interval:    interval,
		broadcaster: broadcaster,
		logger:      logging.With().Str("component", "economy-scheduler").Logger(),
	}
}

// Serve snapshots once at startup, then on every tick until ctx is done.
// Snapshot failures are logged, not fatal; the next tick retries.
func (s *Scheduler) Serve(ctx context.Context) error {
	s.snapshot(ctx, "Startup economy snapshot failed")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.snapshot(ctx, "Scheduled economy snapshot failed")
		}
	}
}

func (s *Scheduler) snapshot(ctx context.Context, failMsg string) {
	snapshot, err := s.aggregator.Snapshot(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg(failMsg)
		return
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastStats(snapshot)
	}
}

func (s *Scheduler) String() string { return "economy-scheduler" }
