// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/playgrid/playgrid/internal/models"
)

// ErrNoMetrics is returned when no economic snapshot exists yet.
var ErrNoMetrics = errors.New("database: no economic metrics recorded")

// InsertEconomicMetric appends one aggregator snapshot.
func (db *DB) InsertEconomicMetric(ctx context.Context, m *models.EconomicMetric) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO economic_metrics
			(total_money, money_in_circulation, avg_player_wealth, inflation_rate, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		m.TotalMoney, m.MoneyInCirc, m.AvgPlayerWealth, m.InflationRate, m.Timestamp)
	if err != nil {
		return fmt.Errorf("insert economic metric: %w", err)
	}
	return nil
}

// GetLatestMetric returns the most recent snapshot, or ErrNoMetrics.
func (db *DB) GetLatestMetric(ctx context.Context) (*models.EconomicMetric, error) {
	var m models.EconomicMetric
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, total_money, money_in_circulation, avg_player_wealth, inflation_rate, timestamp
		 FROM economic_metrics
		 ORDER BY timestamp DESC
		 LIMIT 1`).Scan(
		&m.ID, &m.TotalMoney, &m.MoneyInCirc, &m.AvgPlayerWealth, &m.InflationRate, &m.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoMetrics
	}
	if err != nil {
		return nil, fmt.Errorf("get latest metric: %w", err)
	}
	return &m, nil
}

// GetMetricTimeseries returns snapshots within the trailing window,
// oldest first.
func (db *DB) GetMetricTimeseries(ctx context.Context, window time.Duration) ([]models.EconomicMetric, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, total_money, money_in_circulation, avg_player_wealth, inflation_rate, timestamp
		 FROM economic_metrics
		 WHERE timestamp >= ?
		 ORDER BY timestamp ASC`, time.Now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("get metric timeseries: %w", err)
	}
	defer rows.Close()

	var out []models.EconomicMetric
	for rows.Next() {
		var m models.EconomicMetric
		if err := rows.Scan(
			&m.ID, &m.TotalMoney, &m.MoneyInCirc, &m.AvgPlayerWealth, &m.InflationRate, &m.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
