// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/playgrid/playgrid/internal/models"
)

// InsertEvent appends one immutable event row. A duplicate dedup_key is
// silently skipped so retried deliveries cannot double-insert; the return
// value reports whether a row was actually written.
func (db *DB) InsertEvent(ctx context.Context, q Queryer, event *models.Event) (bool, error) {
	res, err := q.ExecContext(ctx,
		`INSERT INTO events (id, event_type, player_id, pos_x, pos_y, pos_z, data, timestamp, dedup_key)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (dedup_key) DO NOTHING`,
		event.ID, event.EventType, event.PlayerID,
		event.PositionX, event.PositionY, event.PositionZ,
		string(event.Data), event.Timestamp, event.DedupKey)
	if err != nil {
		return false, fmt.Errorf("insert event: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert event rows affected: %w", err)
	}
	return affected > 0, nil
}

const eventColumns = `
	e.id, e.event_type, e.player_id, e.pos_x, e.pos_y, e.pos_z,
	CAST(e.data AS TEXT), e.timestamp,
	COALESCE(p.last_username, ''), COALESCE(p.serial, '')`

func collectEvents(rows *sql.Rows) ([]models.Event, error) {
	var events []models.Event
	for rows.Next() {
		var e models.Event
		var data string
		if err := rows.Scan(
			&e.ID, &e.EventType, &e.PlayerID, &e.PositionX, &e.PositionY, &e.PositionZ,
			&data, &e.Timestamp,
			&e.PlayerUsername, &e.PlayerSerial,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Data = []byte(data)
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetRecentEvents returns the newest events with the owning player joined.
func (db *DB) GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+eventColumns+`
		 FROM events e
		 LEFT JOIN players p ON p.id = e.player_id
		 ORDER BY e.timestamp DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// GetPlayerTimeline returns one player's events in the trailing window,
// newest first.
func (db *DB) GetPlayerTimeline(ctx context.Context, playerID int64, window time.Duration, limit int) ([]models.Event, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+eventColumns+`
		 FROM events e
		 LEFT JOIN players p ON p.id = e.player_id
		 WHERE e.player_id = ? AND e.timestamp >= ?
		 ORDER BY e.timestamp DESC
		 LIMIT ?`,
		playerID, time.Now().Add(-window), limit)
	if err != nil {
		return nil, fmt.Errorf("get player timeline: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// CountPlayerEvents counts one player's events.
func (db *DB) CountPlayerEvents(ctx context.Context, playerID int64) (int64, error) {
	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE player_id = ?`, playerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count player events: %w", err)
	}
	return count, nil
}

// HeatmapRow is one populated 50-unit grid cell before normalization.
type HeatmapRow struct {
	GridX int64
	GridY int64
	Count int64
}

// GetHeatmapRows buckets positioned events of eventType within the
// trailing window into 50-unit grid cells. Cells without events are not
// returned.
func (db *DB) GetHeatmapRows(ctx context.Context, eventType string, window time.Duration) ([]HeatmapRow, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT CAST(floor(pos_x / 50) AS BIGINT) AS gx,
		        CAST(floor(pos_y / 50) AS BIGINT) AS gy,
		        COUNT(*) AS c
		 FROM events
		 WHERE event_type = ?
		   AND timestamp >= ?
		   AND pos_x IS NOT NULL
		   AND pos_y IS NOT NULL
		 GROUP BY gx, gy`,
		eventType, time.Now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("get heatmap rows: %w", err)
	}
	defer rows.Close()

	var cells []HeatmapRow
	for rows.Next() {
		var cell HeatmapRow
		if err := rows.Scan(&cell.GridX, &cell.GridY, &cell.Count); err != nil {
			return nil, fmt.Errorf("scan heatmap row: %w", err)
		}
		cells = append(cells, cell)
	}
	return cells, rows.Err()
}

// GetEventCountsByType counts events per type within the trailing window.
func (db *DB) GetEventCountsByType(ctx context.Context, window time.Duration) (map[string]int64, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT event_type, COUNT(*)
		 FROM events
		 WHERE timestamp >= ?
		 GROUP BY event_type`,
		time.Now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("get event counts by type: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var eventType string
		var count int64
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, fmt.Errorf("scan event count: %w", err)
		}
		counts[eventType] = count
	}
	return counts, rows.Err()
}
