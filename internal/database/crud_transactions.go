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

// InsertTransaction appends one ledger entry. Entries carry the dedup key
// of their originating event, so a retried job skips rather than
// double-books.
func (db *DB) InsertTransaction(ctx context.Context, q Queryer, tx *models.Transaction) (bool, error) {
	res, err := q.ExecContext(ctx,
		`INSERT INTO transactions (id, player_id, kind, amount, balance, source, metadata, timestamp, dedup_key)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (dedup_key) DO NOTHING`,
		tx.ID, tx.PlayerID, string(tx.Kind), tx.Amount, tx.Balance,
		tx.Source, string(tx.Metadata), tx.Timestamp, tx.DedupKey)
	if err != nil {
		return false, fmt.Errorf("insert transaction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert transaction rows affected: %w", err)
	}
	return affected > 0, nil
}

const transactionColumns = `
	t.id, t.player_id, t.kind, t.amount, t.balance, t.source,
	CAST(t.metadata AS TEXT), t.timestamp,
	COALESCE(p.last_username, ''), COALESCE(p.serial, '')`

func collectTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	var txs []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var kind, metadata string
		if err := rows.Scan(
			&t.ID, &t.PlayerID, &kind, &t.Amount, &t.Balance, &t.Source,
			&metadata, &t.Timestamp,
			&t.PlayerUsername, &t.PlayerSerial,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Kind = models.TransactionKind(kind)
		t.Metadata = []byte(metadata)
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// GetRecentTransactions returns the newest ledger entries with the owner
// joined.
func (db *DB) GetRecentTransactions(ctx context.Context, limit, offset int) ([]models.Transaction, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+transactionColumns+`
		 FROM transactions t
		 LEFT JOIN players p ON p.id = t.player_id
		 ORDER BY t.timestamp DESC
		 LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("get recent transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// GetPlayerTransactions returns one player's newest ledger entries.
func (db *DB) GetPlayerTransactions(ctx context.Context, playerID int64, limit int) ([]models.Transaction, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+transactionColumns+`
		 FROM transactions t
		 LEFT JOIN players p ON p.id = t.player_id
		 WHERE t.player_id = ?
		 ORDER BY t.timestamp DESC
		 LIMIT ?`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("get player transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// GetSpendTransactions returns SPEND entries within the trailing window,
// newest first, with the owner joined.
func (db *DB) GetSpendTransactions(ctx context.Context, window time.Duration, limit int) ([]models.Transaction, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+transactionColumns+`
		 FROM transactions t
		 LEFT JOIN players p ON p.id = t.player_id
		 WHERE t.kind = 'SPEND' AND t.timestamp >= ?
		 ORDER BY t.timestamp DESC
		 LIMIT ?`, time.Now().Add(-window), limit)
	if err != nil {
		return nil, fmt.Errorf("get spend transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// CountPlayerTransactions counts one player's ledger entries.
func (db *DB) CountPlayerTransactions(ctx context.Context, playerID int64) (int64, error) {
	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE player_id = ?`, playerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count player transactions: %w", err)
	}
	return count, nil
}

// LedgerSums returns the absolute-amount totals per transaction kind over
// the full ledger. Missing kinds read as zero.
func (db *DB) LedgerSums(ctx context.Context) (map[models.TransactionKind]float64, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT kind, COALESCE(SUM(amount), 0) FROM transactions GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("ledger sums: %w", err)
	}
	defer rows.Close()

	sums := make(map[models.TransactionKind]float64)
	for rows.Next() {
		var kind string
		var total float64
		if err := rows.Scan(&kind, &total); err != nil {
			return nil, fmt.Errorf("scan ledger sum: %w", err)
		}
		sums[models.TransactionKind(kind)] = total
	}
	return sums, rows.Err()
}

// DailySpend is the SPEND total of one calendar day.
type DailySpend struct {
	Day   time.Time
	Total float64
}

// GetDailySpend returns per-day SPEND totals for the trailing number of
// days, oldest day first. Days without spending are absent.
func (db *DB) GetDailySpend(ctx context.Context, days int) ([]DailySpend, error) {
	since := time.Now().AddDate(0, 0, -days)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT date_trunc('day', timestamp) AS day, COALESCE(SUM(amount), 0)
		 FROM transactions
		 WHERE kind = 'SPEND' AND timestamp >= ?
		 GROUP BY day
		 ORDER BY day ASC`, since)
	if err != nil {
		return nil, fmt.Errorf("get daily spend: %w", err)
	}
	defer rows.Close()

	var out []DailySpend
	for rows.Next() {
		var d DailySpend
		if err := rows.Scan(&d.Day, &d.Total); err != nil {
			return nil, fmt.Errorf("scan daily spend: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SourceSpend is the SPEND total attributed to one source.
type SourceSpend struct {
	Source string
	Total  float64
	Count  int64
}

// GetSpendBySource returns SPEND totals grouped by source within the
// trailing window, largest total first.
func (db *DB) GetSpendBySource(ctx context.Context, window time.Duration) ([]SourceSpend, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT source, COALESCE(SUM(amount), 0), COUNT(*)
		 FROM transactions
		 WHERE kind = 'SPEND' AND timestamp >= ?
		 GROUP BY source
		 ORDER BY 2 DESC`, time.Now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("get spend by source: %w", err)
	}
	defer rows.Close()

	var out []SourceSpend
	for rows.Next() {
		var s SourceSpend
		if err := rows.Scan(&s.Source, &s.Total, &s.Count); err != nil {
			return nil, fmt.Errorf("scan spend by source: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
