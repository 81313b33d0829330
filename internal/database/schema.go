// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core tables and indexes.
func createTablesQueries() []string {
	return []string{
		`CREATE SEQUENCE IF NOT EXISTS players_id_seq`,

		// Player identity plus the last-seen snapshot merged from
		// telemetry payloads. serial is the stable game-client identity.
		`CREATE TABLE IF NOT EXISTS players (
			id BIGINT PRIMARY KEY DEFAULT nextval('players_id_seq'),
			serial TEXT NOT NULL UNIQUE,
			last_username TEXT NOT NULL,
			last_seen TIMESTAMP NOT NULL,
			risk_score DOUBLE NOT NULL DEFAULT 0,
			money DOUBLE NOT NULL DEFAULT 0,
			bank DOUBLE NOT NULL DEFAULT 0,
			level INTEGER NOT NULL DEFAULT 0,
			experience BIGINT NOT NULL DEFAULT 0,
			job TEXT,
			played_time BIGINT NOT NULL DEFAULT 0,
			hunger INTEGER NOT NULL DEFAULT 0,
			thirst INTEGER NOT NULL DEFAULT 0,
			premium_points INTEGER NOT NULL DEFAULT 0,
			faction TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// Immutable event log. dedup_key makes at-least-once delivery
		// idempotent via ON CONFLICT DO NOTHING.
		`CREATE TABLE IF NOT EXISTS events (
			id UUID PRIMARY KEY,
			event_type TEXT NOT NULL,
			player_id BIGINT NOT NULL,
			pos_x DOUBLE,
			pos_y DOUBLE,
			pos_z DOUBLE,
			data JSON,
			timestamp TIMESTAMP NOT NULL,
			dedup_key TEXT NOT NULL UNIQUE
		)`,

		// Transaction ledger derived from economic events. Amounts are
		// stored as absolute values; kind carries the direction.
		`CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY,
			player_id BIGINT NOT NULL,
			kind TEXT NOT NULL,
			amount DOUBLE NOT NULL,
			balance DOUBLE NOT NULL DEFAULT 0,
			source TEXT NOT NULL,
			metadata JSON,
			timestamp TIMESTAMP NOT NULL,
			dedup_key TEXT NOT NULL UNIQUE
		)`,

		// Social graph edges. The (a, b, type) key is directional as
		// observed; strength grows without cap.
		`CREATE TABLE IF NOT EXISTS player_relationships (
			player_a_id BIGINT NOT NULL,
			player_b_id BIGINT NOT NULL,
			rel_type TEXT NOT NULL,
			strength DOUBLE NOT NULL,
			interactions INTEGER NOT NULL,
			last_interaction TIMESTAMP NOT NULL,
			PRIMARY KEY (player_a_id, player_b_id, rel_type)
		)`,

		`CREATE SEQUENCE IF NOT EXISTS economic_metrics_id_seq`,

		// Append-only economy snapshots written by the aggregator.
		`CREATE TABLE IF NOT EXISTS economic_metrics (
			id BIGINT PRIMARY KEY DEFAULT nextval('economic_metrics_id_seq'),
			total_money DOUBLE NOT NULL,
			money_in_circulation DOUBLE NOT NULL,
			avg_player_wealth DOUBLE NOT NULL,
			inflation_rate DOUBLE NOT NULL,
			timestamp TIMESTAMP NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_players_last_seen ON players(last_seen)`,
		`CREATE INDEX IF NOT EXISTS idx_events_type_ts ON events(event_type, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_events_player_ts ON events(player_id, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_kind_ts ON transactions(kind, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_player_ts ON transactions(player_id, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_ts ON economic_metrics(timestamp)`,
	}
}

// createTables runs the schema statements.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range createTablesQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema statement: %s: %w", query, err)
		}
	}
	return nil
}
