package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lawnchairsociety/wangtile/internal/autotile"
	"github.com/lawnchairsociety/wangtile/internal/terrain"
	"github.com/lawnchairsociety/wangtile/internal/wang"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testCatalog(t *testing.T, extraWeight float64) *wang.Catalog {
	t.Helper()
	classes, err := terrain.NewClassSet([]string{"Ground", "Wall"}, "Wall")
	if err != nil {
		t.Fatalf("NewClassSet failed: %v", err)
	}
	records := []wang.Record{
		{TileID: 9, Weight: 1, WangID: [8]int{0, 1, 0, 1, 0, 1, 0, 1}},
		{TileID: 3, Weight: extraWeight, WangID: [8]int{0, 1, 0, 1, 0, 1, 0, 1}},
		{TileID: 6, Weight: 2, WangID: [8]int{0, 2, 0, 2, 0, 1, 0, 1}},
		{TileID: 15, Weight: 1, WangID: [8]int{0, 2, 0, 2, 0, 2, 0, 2}},
	}
	cat, _, err := wang.Build(records, classes)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return cat
}

func TestOpen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "tiles.db")
	s, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	for _, table := range []string{"tilesets", "tileset_classes", "tile_patterns", "resolution_warnings"} {
		var count int
		if err := s.DB().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			t.Errorf("Failed to query %s table: %v", table, err)
		}
	}
}

func TestOpenTwiceKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tiles.db")
	s, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	if _, _, err := s.SaveTileset("dungeon", testCatalog(t, 1)); err != nil {
		t.Fatalf("SaveTileset failed: %v", err)
	}
	s.Close()

	s, err = OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer s.Close()

	list, err := s.ListTilesets()
	if err != nil {
		t.Fatalf("ListTilesets failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("tilesets after reopen = %d, want 1", len(list))
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(Config{Driver: "sqlite"}); err == nil {
		t.Error("expected an error for an empty sqlite path")
	}
}

func TestSaveTilesetIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	cat := testCatalog(t, 1)

	id, created, err := s.SaveTileset("dungeon", cat)
	if err != nil {
		t.Fatalf("SaveTileset failed: %v", err)
	}
	if !created {
		t.Error("first save reported created=false")
	}

	again, created, err := s.SaveTileset("dungeon copy", cat)
	if err != nil {
		t.Fatalf("second SaveTileset failed: %v", err)
	}
	if created || again != id {
		t.Errorf("second save = (%d, %v), want (%d, false)", again, created, id)
	}

	other, created, err := s.SaveTileset("dungeon", testCatalog(t, 4))
	if err != nil {
		t.Fatalf("SaveTileset of a new revision failed: %v", err)
	}
	if !created || other == id {
		t.Errorf("new revision = (%d, %v), want a new id", other, created)
	}

	found, err := s.FindTileset(cat.FingerprintHex())
	if err != nil || found != id {
		t.Errorf("FindTileset = (%d, %v), want %d", found, err, id)
	}
}

func TestLoadTilesetRebuildsSameCatalog(t *testing.T) {
	s := openTestStore(t)
	cat := testCatalog(t, 0.5)

	id, _, err := s.SaveTileset("dungeon", cat)
	if err != nil {
		t.Fatalf("SaveTileset failed: %v", err)
	}

	ts, err := s.LoadTileset(id)
	if err != nil {
		t.Fatalf("LoadTileset failed: %v", err)
	}
	if ts.Name != "dungeon" {
		t.Errorf("Name = %q, want %q", ts.Name, "dungeon")
	}
	if ts.Classes.Name(ts.Classes.Default()) != "Wall" {
		t.Errorf("default class = %q, want Wall", ts.Classes.Name(ts.Classes.Default()))
	}
	if len(ts.Records) != cat.Len() {
		t.Errorf("records = %d, want %d", len(ts.Records), cat.Len())
	}

	rebuilt, rejected, err := ts.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(rejected) != 0 {
		t.Errorf("rejected = %v", rejected)
	}
	if rebuilt.FingerprintHex() != cat.FingerprintHex() {
		t.Error("stored tileset rebuilds a different catalog")
	}
}

func TestLoadTilesetNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.LoadTileset(42); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if _, err := s.FindTileset("beef"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestListTilesets(t *testing.T) {
	s := openTestStore(t)

	list, err := s.ListTilesets()
	if err != nil {
		t.Fatalf("ListTilesets failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("empty store lists %d tilesets", len(list))
	}

	a, _, _ := s.SaveTileset("alpha", testCatalog(t, 1))
	b, _, _ := s.SaveTileset("beta", testCatalog(t, 2))

	list, err = s.ListTilesets()
	if err != nil {
		t.Fatalf("ListTilesets failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("tilesets = %d, want 2", len(list))
	}
	if list[0].ID != a || list[1].ID != b {
		t.Errorf("order = [%d %d], want [%d %d]", list[0].ID, list[1].ID, a, b)
	}
	if list[0].Classes != 2 || list[0].Patterns != 4 {
		t.Errorf("alpha = %d classes, %d patterns; want 2, 4", list[0].Classes, list[0].Patterns)
	}
	if list[0].CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestWarnings(t *testing.T) {
	s := openTestStore(t)
	id, _, err := s.SaveTileset("dungeon", testCatalog(t, 1))
	if err != nil {
		t.Fatalf("SaveTileset failed: %v", err)
	}

	if err := s.RecordWarnings(id, nil); err != nil {
		t.Errorf("RecordWarnings(nil) failed: %v", err)
	}

	warnings := []*autotile.ResolutionWarning{
		{Cell: terrain.Cell{X: 1, Y: 2}, Signature: terrain.Signature{1, 2, 1, 2}, Matched: terrain.Signature{1, 1, 1, 1}, Distance: 2, Tile: 9},
		{Cell: terrain.Cell{X: 3, Y: 0}, Signature: terrain.Signature{2, 1, 1, 2}, Distance: 4, Tile: wang.UnknownTile},
	}
	if err := s.RecordWarnings(id, warnings); err != nil {
		t.Fatalf("RecordWarnings failed: %v", err)
	}

	count, err := s.WarningCount(id)
	if err != nil {
		t.Fatalf("WarningCount failed: %v", err)
	}
	if count != 2 {
		t.Errorf("WarningCount = %d, want 2", count)
	}

	recent, err := s.RecentWarnings(id, 1)
	if err != nil {
		t.Fatalf("RecentWarnings failed: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("RecentWarnings = %d rows, want 1", len(recent))
	}
	w := recent[0]
	if w.Cell != (terrain.Cell{X: 3, Y: 0}) || w.Tile != wang.UnknownTile || w.Matched != "" || w.Distance != 4 {
		t.Errorf("newest warning = %+v", w)
	}
	if w.Signature != "(2,1,1,2)" {
		t.Errorf("Signature = %q, want %q", w.Signature, "(2,1,1,2)")
	}
}

func TestDeleteTilesetCascades(t *testing.T) {
	s := openTestStore(t)
	id, _, _ := s.SaveTileset("dungeon", testCatalog(t, 1))
	s.RecordWarnings(id, []*autotile.ResolutionWarning{{Distance: 1, Tile: 9}})

	if err := s.DeleteTileset(id); err != nil {
		t.Fatalf("DeleteTileset failed: %v", err)
	}
	if err := s.DeleteTileset(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}

	for _, table := range []string{"tileset_classes", "tile_patterns", "resolution_warnings"} {
		var count int
		s.DB().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count)
		if count != 0 {
			t.Errorf("%s has %d rows after delete, want 0", table, count)
		}
	}
}
