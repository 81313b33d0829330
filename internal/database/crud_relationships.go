// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/playgrid/playgrid/internal/models"
)

// UpsertRelationship records one interaction on the (playerA, playerB,
// relType) edge. First interaction creates the edge at strength 1.0;
// every repeat adds 0.1 strength and one interaction, atomically at the
// row level. The edge is directional: events from B about A maintain a
// separate (B, A) edge.
func (db *DB) UpsertRelationship(ctx context.Context, q Queryer, playerA, playerB int64, relType string, at time.Time) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO player_relationships
			(player_a_id, player_b_id, rel_type, strength, interactions, last_interaction)
		 VALUES (?, ?, ?, 1.0, 1, ?)
		 ON CONFLICT (player_a_id, player_b_id, rel_type) DO UPDATE SET
			strength = player_relationships.strength + 0.1,
			interactions = player_relationships.interactions + 1,
			last_interaction = excluded.last_interaction`,
		playerA, playerB, relType, at)
	if err != nil {
		return fmt.Errorf("upsert relationship %d->%d: %w", playerA, playerB, err)
	}
	return nil
}

// GetPlayerRelationships returns a player's outgoing edges with the peer
// joined, strongest first.
func (db *DB) GetPlayerRelationships(ctx context.Context, playerID int64, limit int) ([]models.PlayerRelationship, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT r.player_a_id, r.player_b_id, r.rel_type, r.strength,
		        r.interactions, r.last_interaction,
		        COALESCE(p.last_username, ''), COALESCE(p.serial, '')
		 FROM player_relationships r
		 LEFT JOIN players p ON p.id = r.player_b_id
		 WHERE r.player_a_id = ?
		 ORDER BY r.strength DESC
		 LIMIT ?`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("get player relationships: %w", err)
	}
	defer rows.Close()

	var edges []models.PlayerRelationship
	for rows.Next() {
		var rel models.PlayerRelationship
		if err := rows.Scan(
			&rel.PlayerAID, &rel.PlayerBID, &rel.Type, &rel.Strength,
			&rel.Interactions, &rel.LastInteraction,
			&rel.PeerUsername, &rel.PeerSerial,
		); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		edges = append(edges, rel)
	}
	return edges, rows.Err()
}
