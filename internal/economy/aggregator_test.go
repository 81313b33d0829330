// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package economy

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/playgrid/playgrid/internal/config"
	"github.com/playgrid/playgrid/internal/database"
	"github.com/playgrid/playgrid/internal/models"
)

func newTestAggregator(t *testing.T) (*Aggregator, *database.DB) {
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
	return NewAggregator(db, config.EconomyConfig{
		RefreshInterval:     time.Hour,
		MinSnapshotInterval: time.Minute,
	}), db
}

func seedLedger(t *testing.T, db *database.DB, playerID int64, entries map[models.TransactionKind]float64) {
	t.Helper()
	ctx := context.Background()
	for kind, amount := range entries {
		tx := &models.Transaction{
			ID:        uuid.New(),
			PlayerID:  playerID,
			Kind:      kind,
			Amount:    amount,
			Source:    "test",
			Timestamp: time.Now(),
			DedupKey:  uuid.NewString(),
		}
		if _, err := db.InsertTransaction(ctx, db.Conn(), tx); err != nil {
			t.Fatalf("seed transaction: %v", err)
		}
	}
}

func seedPlayer(t *testing.T, db *database.DB, serial string) int64 {
	t.Helper()
	id, err := db.UpsertPlayer(context.Background(), db.Conn(), serial, "P", time.Now(), models.PlayerMetrics{})
	if err != nil {
		t.Fatalf("seed player: %v", err)
	}
	return id
}

func TestSnapshotCirculation(t *testing.T) {
	agg, db := newTestAggregator(t)
	ctx := context.Background()

	a := seedPlayer(t, db, "00000000000000000000000000000001")
	seedPlayer(t, db, "00000000000000000000000000000002")
	seedLedger(t, db, a, map[models.TransactionKind]float64{
		models.KindEarn:        1000,
		models.KindTransferIn:  400,
		models.KindSpend:       300,
		models.KindTransferOut: 100,
	})

	snapshot, err := agg.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if snapshot.MoneyInCirc != 1000 {
		t.Errorf("circulation = %v, want 1000", snapshot.MoneyInCirc)
	}
	if snapshot.TotalMoney != 1000 {
		t.Errorf("totalMoney = %v, want 1000", snapshot.TotalMoney)
	}
	if snapshot.AvgPlayerWealth != 500 {
		t.Errorf("avgWealth = %v, want 500 across 2 players", snapshot.AvgPlayerWealth)
	}
	if snapshot.InflationRate != 0 {
		t.Errorf("inflation = %v, want 0 for first snapshot", snapshot.InflationRate)
	}
}

func TestSnapshotClampsNegativeCirculation(t *testing.T) {
	agg, db := newTestAggregator(t)

	a := seedPlayer(t, db, "00000000000000000000000000000001")
	seedLedger(t, db, a, map[models.TransactionKind]float64{
		models.KindEarn:  100,
		models.KindSpend: 900,
	})

	snapshot, err := agg.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if snapshot.MoneyInCirc != 0 {
		t.Errorf("circulation = %v, want clamp to 0", snapshot.MoneyInCirc)
	}
	if snapshot.AvgPlayerWealth != 0 {
		t.Errorf("avgWealth = %v, want 0", snapshot.AvgPlayerWealth)
	}
}

func TestSnapshotEmptyDatabase(t *testing.T) {
	agg, _ := newTestAggregator(t)

	snapshot, err := agg.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if snapshot.MoneyInCirc != 0 || snapshot.AvgPlayerWealth != 0 || snapshot.InflationRate != 0 {
		t.Errorf("empty snapshot = %+v, want zeros", snapshot)
	}
}

func TestSnapshotMinIntervalGuard(t *testing.T) {
	agg, db := newTestAggregator(t)
	ctx := context.Background()

	a := seedPlayer(t, db, "00000000000000000000000000000001")
	seedLedger(t, db, a, map[models.TransactionKind]float64{models.KindEarn: 100})

	first, err := agg.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}

	seedLedger(t, db, a, map[models.TransactionKind]float64{models.KindEarn: 900})
	second, err := agg.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if second.MoneyInCirc != first.MoneyInCirc {
		t.Errorf("guarded snapshot recomputed: %v vs %v", second.MoneyInCirc, first.MoneyInCirc)
	}

	series, err := agg.Timeseries(ctx, time.Hour)
	if err != nil {
		t.Fatalf("Timeseries() error: %v", err)
	}
	if len(series) != 1 {
		t.Errorf("got %d snapshots, want 1 (second run skipped)", len(series))
	}
}

func TestSnapshotInflation(t *testing.T) {
	agg, db := newTestAggregator(t)
	ctx := context.Background()

	a := seedPlayer(t, db, "00000000000000000000000000000001")
	seedLedger(t, db, a, map[models.TransactionKind]float64{models.KindEarn: 1000})

	base := time.Now().Add(-2 * time.Hour)
	agg.now = func() time.Time { return base }
	if _, err := agg.Snapshot(ctx); err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}

	seedLedger(t, db, a, map[models.TransactionKind]float64{models.KindEarn: 250})
	agg.now = time.Now
	snapshot, err := agg.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if snapshot.InflationRate != 25 {
		t.Errorf("inflation = %v%%, want 25%%", snapshot.InflationRate)
	}
}

func TestLatestGeneratesWhenEmpty(t *testing.T) {
	agg, db := newTestAggregator(t)
	ctx := context.Background()

	a := seedPlayer(t, db, "00000000000000000000000000000001")
	seedLedger(t, db, a, map[models.TransactionKind]float64{models.KindEarn: 500})

	snapshot, err := agg.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest() error: %v", err)
	}
	if snapshot.MoneyInCirc != 500 {
		t.Errorf("lazy snapshot circulation = %v, want 500", snapshot.MoneyInCirc)
	}

	// Second read serves the stored row, not a recompute.
	again, err := agg.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest() error: %v", err)
	}
	if delta := again.Timestamp.Sub(snapshot.Timestamp); delta < -time.Millisecond || delta > time.Millisecond {
		t.Errorf("Latest() recomputed: %v vs %v", again.Timestamp, snapshot.Timestamp)
	}
	if again.MoneyInCirc != snapshot.MoneyInCirc {
		t.Errorf("Latest() circulation = %v, want %v", again.MoneyInCirc, snapshot.MoneyInCirc)
	}
}

type recordingStats struct {
	pushed []interface{}
}

func (r *recordingStats) BroadcastStats(stats interface{}) {
	r.pushed = append(r.pushed, stats)
}

func TestSchedulerBroadcastsSnapshot(t *testing.T) {
	agg, db := newTestAggregator(t)
	ctx := context.Background()

	a := seedPlayer(t, db, "00000000000000000000000000000002")
	seedLedger(t, db, a, map[models.TransactionKind]float64{models.KindEarn: 300})

	rec := &recordingStats{}
	sched := NewScheduler(agg, time.Hour, rec)

	sched.snapshot(ctx, "snapshot failed")

	if len(rec.pushed) != 1 {
		t.Fatalf("broadcasts = %d, want 1", len(rec.pushed))
	}
	snapshot, ok := rec.pushed[0].(*models.EconomicMetric)
	if !ok {
		t.Fatalf("broadcast payload type = %T, want *models.EconomicMetric", rec.pushed[0])
	}
	if snapshot.MoneyInCirc != 300 {
		t.Errorf("broadcast circulation = %v, want 300", snapshot.MoneyInCirc)
	}
}
