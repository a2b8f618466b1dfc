package store

import (
	"fmt"
	"time"

	"github.com/lawnchairsociety/wangtile/internal/autotile"
	"github.com/lawnchairsociety/wangtile/internal/terrain"
	"github.com/lawnchairsociety/wangtile/internal/wang"
)

// WarningRecord is a stored resolution warning.
type WarningRecord struct {
	ID         int64
	TilesetID  int64
	Cell       terrain.Cell
	Signature  string
	Matched    string // empty when no tile could be chosen
	Distance   int
	Tile       wang.TileID
	RecordedAt time.Time
}

// RecordWarnings appends warnings reported while resolving against a stored
// tileset. All or none are written.
func (s *Store) RecordWarnings(tilesetID int64, warnings []*autotile.ResolutionWarning) error {
	if len(warnings) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := s.qb.Build(`INSERT INTO resolution_warnings
		(tileset_id, cell_x, cell_y, signature, matched, distance, tile_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for _, w := range warnings {
		matched := ""
		if w.Tile != wang.UnknownTile {
			matched = w.Matched.String()
		}
		if _, err := tx.Exec(query, tilesetID, w.Cell.X, w.Cell.Y, w.Signature.String(),
			matched, w.Distance, int(w.Tile)); err != nil {
			return fmt.Errorf("failed to record warning: %w", err)
		}
	}

	return tx.Commit()
}

// WarningCount returns how many warnings are stored for a tileset.
func (s *Store) WarningCount(tilesetID int64) (int, error) {
	var count int
	err := s.db.QueryRow(s.qb.Build("SELECT COUNT(*) FROM resolution_warnings WHERE tileset_id = ?"), tilesetID).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count warnings: %w", err)
	}
	return count, nil
}

// RecentWarnings returns up to limit warnings for a tileset, newest first.
func (s *Store) RecentWarnings(tilesetID int64, limit int) ([]WarningRecord, error) {
	rows, err := s.db.Query(s.qb.Build(`SELECT id, tileset_id, cell_x, cell_y, signature, matched, distance, tile_id, recorded_at
		FROM resolution_warnings WHERE tileset_id = ? ORDER BY id DESC LIMIT ?`), tilesetID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query warnings: %w", err)
	}
	defer rows.Close()

	var out []WarningRecord
	for rows.Next() {
		var r WarningRecord
		var tile int
		if err := rows.Scan(&r.ID, &r.TilesetID, &r.Cell.X, &r.Cell.Y, &r.Signature, &r.Matched,
			&r.Distance, &tile, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan warning: %w", err)
		}
		r.Tile = wang.TileID(tile)
		out = append(out, r)
	}
	return out, rows.Err()
}
