package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lawnchairsociety/wangtile/internal/logger"
	"github.com/lawnchairsociety/wangtile/internal/terrain"
	"github.com/lawnchairsociety/wangtile/internal/tileset"
	"github.com/lawnchairsociety/wangtile/internal/wang"
)

// TilesetInfo summarises a stored tileset revision.
type TilesetInfo struct {
	ID          int64
	Name        string
	Fingerprint string
	Classes     int
	Patterns    int
	CreatedAt   time.Time
}

// SaveTileset stores the accepted content of cat under name. Saving a
// catalog whose fingerprint is already stored returns the existing id and
// created=false.
func (s *Store) SaveTileset(name string, cat *wang.Catalog) (id int64, created bool, err error) {
	fingerprint := cat.FingerprintHex()

	id, err = s.tilesetIDByFingerprint(fingerprint)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, false, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	classes := cat.Classes()
	id, err = s.insert(tx,
		"INSERT INTO tilesets (name, fingerprint, default_class) VALUES (?, ?, ?)",
		name, fingerprint, int(classes.Default()))
	if err != nil {
		if s.dialect.IsDuplicateKeyError(err) {
			// Lost a race with another writer saving the same content.
			tx.Rollback()
			id, err = s.tilesetIDByFingerprint(fingerprint)
			return id, false, err
		}
		return 0, false, fmt.Errorf("failed to insert tileset: %w", err)
	}

	classQuery := s.qb.Build("INSERT INTO tileset_classes (tileset_id, code, name) VALUES (?, ?, ?)")
	for _, c := range classes.Classes() {
		if _, err := tx.Exec(classQuery, id, int(c), classes.Name(c)); err != nil {
			return 0, false, fmt.Errorf("failed to insert class %q: %w", classes.Name(c), err)
		}
	}

	patternQuery := s.qb.Build(`INSERT INTO tile_patterns
		(tileset_id, position, tile_id, weight, top_left, top_right, bottom_right, bottom_left)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	position := 0
	var insertErr error
	cat.Groups(func(g wang.Group) {
		for _, e := range g.Entries {
			if insertErr != nil {
				return
			}
			sig := e.Signature
			_, insertErr = tx.Exec(patternQuery, id, position, int(e.TileID), e.Weight,
				int(sig[terrain.TopLeft]), int(sig[terrain.TopRight]),
				int(sig[terrain.BottomRight]), int(sig[terrain.BottomLeft]))
			position++
		}
	})
	if insertErr != nil {
		return 0, false, fmt.Errorf("failed to insert tile pattern: %w", insertErr)
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("failed to commit tileset: %w", err)
	}

	logger.Info("Tileset saved",
		"id", id,
		"name", name,
		"fingerprint", fingerprint,
		"patterns", position)

	return id, true, nil
}

func (s *Store) tilesetIDByFingerprint(fingerprint string) (int64, error) {
	var id int64
	err := s.db.QueryRow(s.qb.Build("SELECT id FROM tilesets WHERE fingerprint = ?"), fingerprint).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("%w: tileset with fingerprint %s", ErrNotFound, fingerprint)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up tileset: %w", err)
	}
	return id, nil
}

// FindTileset returns the id of the tileset stored with the given fingerprint.
func (s *Store) FindTileset(fingerprint string) (int64, error) {
	return s.tilesetIDByFingerprint(fingerprint)
}

// LoadTileset reads a stored tileset back. Its records are the patterns the
// catalog accepted, in an order that rebuilds the same fingerprint.
func (s *Store) LoadTileset(id int64) (*tileset.Tileset, error) {
	var name string
	var defaultCode int
	err := s.db.QueryRow(s.qb.Build("SELECT name, default_class FROM tilesets WHERE id = ?"), id).
		Scan(&name, &defaultCode)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: tileset %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tileset: %w", err)
	}

	names, err := s.loadClassNames(id)
	if err != nil {
		return nil, err
	}
	if defaultCode < 1 || defaultCode > len(names) {
		return nil, fmt.Errorf("store: tileset %d has default class %d outside its %d classes", id, defaultCode, len(names))
	}
	classes, err := terrain.NewClassSet(names, names[defaultCode-1])
	if err != nil {
		return nil, fmt.Errorf("tileset %d: %w", id, err)
	}

	rows, err := s.db.Query(s.qb.Build(`SELECT tile_id, weight, top_left, top_right, bottom_right, bottom_left
		FROM tile_patterns WHERE tileset_id = ? ORDER BY position`), id)
	if err != nil {
		return nil, fmt.Errorf("failed to load tile patterns: %w", err)
	}
	defer rows.Close()

	var records []wang.Record
	for rows.Next() {
		var tileID int
		var weight float64
		var sig terrain.Signature
		if err := rows.Scan(&tileID, &weight,
			&sig[terrain.TopLeft], &sig[terrain.TopRight],
			&sig[terrain.BottomRight], &sig[terrain.BottomLeft]); err != nil {
			return nil, fmt.Errorf("failed to scan tile pattern: %w", err)
		}
		records = append(records, wang.Record{
			TileID: wang.TileID(tileID),
			Weight: weight,
			WangID: wang.WangIDFromSignature(sig),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tile patterns: %w", err)
	}

	return &tileset.Tileset{Name: name, Classes: classes, Records: records}, nil
}

func (s *Store) loadClassNames(id int64) ([]string, error) {
	rows, err := s.db.Query(s.qb.Build("SELECT name FROM tileset_classes WHERE tileset_id = ? ORDER BY code"), id)
	if err != nil {
		return nil, fmt.Errorf("failed to load classes: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan class: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ListTilesets returns every stored tileset, oldest first.
func (s *Store) ListTilesets() ([]TilesetInfo, error) {
	rows, err := s.db.Query(`SELECT t.id, t.name, t.fingerprint, t.created_at,
		(SELECT COUNT(*) FROM tileset_classes c WHERE c.tileset_id = t.id),
		(SELECT COUNT(*) FROM tile_patterns p WHERE p.tileset_id = t.id)
		FROM tilesets t ORDER BY t.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tilesets: %w", err)
	}
	defer rows.Close()

	var out []TilesetInfo
	for rows.Next() {
		var info TilesetInfo
		if err := rows.Scan(&info.ID, &info.Name, &info.Fingerprint, &info.CreatedAt, &info.Classes, &info.Patterns); err != nil {
			return nil, fmt.Errorf("failed to scan tileset: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteTileset removes a tileset with its classes, patterns and warnings.
func (s *Store) DeleteTileset(id int64) error {
	res, err := s.db.Exec(s.qb.Build("DELETE FROM tilesets WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete tileset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete tileset: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: tileset %d", ErrNotFound, id)
	}
	return nil
}
