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

// ErrPlayerNotFound is returned by single-player reads when no row matches.
var ErrPlayerNotFound = errors.New("database: player not found")

// Queryer is satisfied by both *sql.DB and *sql.Tx so the processor can
// run writes inside its per-job transaction while handlers use the pool.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Conn returns the pooled connection as a Queryer for read paths.
func (db *DB) Conn() Queryer {
	return db.conn
}

// UpsertPlayer creates or refreshes the player identified by serial and
// returns its id. Username and last_seen are always overwritten; metric
// fields update only when present in the payload (nil pointers leave the
// stored value untouched).
func (db *DB) UpsertPlayer(ctx context.Context, q Queryer, serial, username string, seenAt time.Time, m models.PlayerMetrics) (int64, error) {
	const query = `
		INSERT INTO players (
			serial, last_username, last_seen,
			money, bank, level, experience, job,
			played_time, hunger, thirst, premium_points, faction
		) VALUES (
			?, ?, ?,
			COALESCE(?, 0), COALESCE(?, 0), COALESCE(?, 0), COALESCE(?, 0), ?,
			COALESCE(?, 0), COALESCE(?, 0), COALESCE(?, 0), COALESCE(?, 0), ?
		)
		ON CONFLICT (serial) DO UPDATE SET
			last_username = excluded.last_username,
			last_seen = excluded.last_seen,
			money = COALESCE(?, players.money),
			bank = COALESCE(?, players.bank),
			level = COALESCE(?, players.level),
			experience = COALESCE(?, players.experience),
			job = COALESCE(?, players.job),
			played_time = COALESCE(?, players.played_time),
			hunger = COALESCE(?, players.hunger),
			thirst = COALESCE(?, players.thirst),
			premium_points = COALESCE(?, players.premium_points),
			faction = COALESCE(?, players.faction)
		RETURNING id`

	var id int64
	err := q.QueryRowContext(ctx, query,
		serial, username, seenAt,
		m.Money, m.Bank, m.Level, m.Experience, m.Job,
		m.PlayedTime, m.Hunger, m.Thirst, m.PremiumPoints, m.Faction,
		m.Money, m.Bank, m.Level, m.Experience, m.Job,
		m.PlayedTime, m.Hunger, m.Thirst, m.PremiumPoints, m.Faction,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert player %s: %w", serial, err)
	}
	return id, nil
}

const playerColumns = `
	id, serial, last_username, last_seen, risk_score,
	money, bank, level, experience, COALESCE(job, ''),
	played_time, hunger, thirst, premium_points, COALESCE(faction, ''),
	created_at`

func scanPlayer(scan func(dest ...interface{}) error) (models.Player, error) {
	var p models.Player
	var risk float64
	err := scan(
		&p.ID, &p.Serial, &p.LastUsername, &p.LastSeen, &risk,
		&p.Money, &p.Bank, &p.Level, &p.Experience, &p.Job,
		&p.PlayedTime, &p.Hunger, &p.Thirst, &p.PremiumPoints, &p.Faction,
		&p.CreatedAt,
	)
	p.RiskScore = int(risk)
	return p, err
}

// GetPlayerByID returns one player by id.
func (db *DB) GetPlayerByID(ctx context.Context, id int64) (*models.Player, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = ?`, id)

	p, err := scanPlayer(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get player %d: %w", id, err)
	}
	return &p, nil
}

// GetPlayerBySerial returns one player by game-client serial.
func (db *DB) GetPlayerBySerial(ctx context.Context, serial string) (*models.Player, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE serial = ?`, serial)

	p, err := scanPlayer(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get player by serial: %w", err)
	}
	return &p, nil
}

// SearchPlayers returns players whose username or serial contains the
// query, most recently seen first.
func (db *DB) SearchPlayers(ctx context.Context, search string, limit int) ([]models.Player, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+playerColumns+`
		 FROM players
		 WHERE last_username ILIKE '%' || ? || '%' OR serial ILIKE '%' || ? || '%'
		 ORDER BY last_seen DESC
		 LIMIT ?`,
		search, search, limit)
	if err != nil {
		return nil, fmt.Errorf("search players: %w", err)
	}
	defer rows.Close()

	return collectPlayers(rows)
}

// GetOnlinePlayers returns players seen within the liveness window,
// most recently seen first.
func (db *DB) GetOnlinePlayers(ctx context.Context, window time.Duration, limit int) ([]models.Player, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+playerColumns+`
		 FROM players
		 WHERE last_seen >= ?
		 ORDER BY last_seen DESC
		 LIMIT ?`,
		time.Now().Add(-window), limit)
	if err != nil {
		return nil, fmt.Errorf("get online players: %w", err)
	}
	defer rows.Close()

	return collectPlayers(rows)
}

func collectPlayers(rows *sql.Rows) ([]models.Player, error) {
	var players []models.Player
	for rows.Next() {
		p, err := scanPlayer(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// CountOnlinePlayers counts players seen within the liveness window.
func (db *DB) CountOnlinePlayers(ctx context.Context, window time.Duration) (int64, error) {
	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM players WHERE last_seen >= ?`,
		time.Now().Add(-window)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count online players: %w", err)
	}
	return count, nil
}

// CountPlayers counts all known players.
func (db *DB) CountPlayers(ctx context.Context) (int64, error) {
	var count int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM players`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count players: %w", err)
	}
	return count, nil
}

// CountRiskPlayers counts players whose risk score exceeds the threshold.
func (db *DB) CountRiskPlayers(ctx context.Context, threshold float64) (int64, error) {
	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM players WHERE risk_score > ?`, threshold).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count risk players: %w", err)
	}
	return count, nil
}

// CountPlayersCreatedSince counts players first seen after the cutoff,
// feeding the dashboard growth trend.
func (db *DB) CountPlayersCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM players WHERE created_at >= ?`, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count players created since: %w", err)
	}
	return count, nil
}
