package tileset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lawnchairsociety/wangtile/internal/terrain"
	"github.com/lawnchairsociety/wangtile/internal/wang"
)

const dungeonYAML = `name: dungeon
default_class: ground
classes:
  - name: ground
  - name: wall
tiles:
  - id: 0
    wangid: [0, 1, 0, 1, 0, 1, 0, 1]
  - id: 6
    probability: 0.5
    wangid: [0, 2, 0, 2, 0, 1, 0, 1]
  - id: 7
    probability: 0
    wangid: [0, 2, 0, 2, 0, 2, 0, 2]
`

const dungeonTSX = `<?xml version="1.0" encoding="UTF-8"?>
<tileset version="1.10" tiledversion="1.10.2" name="caves" tilewidth="64" tileheight="64" tilecount="16" columns="4">
 <image source="caves.png" width="256" height="256"/>
 <tile id="3" probability="0.25"/>
 <wangsets>
  <wangset name="Edges" type="edge" tile="-1">
   <wangcolor name="Path" color="#ff0000" tile="-1" probability="1"/>
  </wangset>
  <wangset name="Terrain" type="corner" tile="-1">
   <wangcolor name="Ground" color="#ff0000" tile="-1" probability="1"/>
   <wangcolor name="Wall" color="#00ff00" tile="-1" probability="1"/>
   <wangtile tileid="0" wangid="0,1,0,1,0,1,0,1"/>
   <wangtile tileid="3" wangid="0,1,0,1,0,1,0,1"/>
   <wangtile tileid="6" wangid="0,2,0,2,0,1,0,1"/>
  </wangset>
 </wangsets>
</tileset>
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	ts, err := Load(writeFile(t, "dungeon.yaml", dungeonYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if ts.Name != "dungeon" {
		t.Errorf("Name = %q, want %q", ts.Name, "dungeon")
	}
	if ts.Classes.Len() != 2 {
		t.Errorf("classes = %d, want 2", ts.Classes.Len())
	}
	if len(ts.Records) != 3 {
		t.Fatalf("records = %d, want 3", len(ts.Records))
	}
	if ts.Records[0].Weight != 1 {
		t.Errorf("omitted probability = %v, want 1", ts.Records[0].Weight)
	}
	if ts.Records[1].Weight != 0.5 {
		t.Errorf("probability = %v, want 0.5", ts.Records[1].Weight)
	}

	cat, rejected, err := ts.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(rejected) != 1 || rejected[0].TileID != 7 || !errors.Is(rejected[0], wang.ErrNonPositiveWeight) {
		t.Errorf("rejected = %v, want tile 7 for its zero weight", rejected)
	}

	ground, _ := ts.Classes.ByName("ground")
	wall, _ := ts.Classes.ByName("wall")
	entries := cat.Lookup(terrain.Signature{ground, wall, wall, ground})
	if len(entries) != 1 || entries[0].TileID != 6 {
		t.Errorf("Lookup = %v, want tile 6", entries)
	}
}

func TestLoadYAMLNameFromFile(t *testing.T) {
	content := `classes: [{name: a}, {name: b}]
tiles:
  - {id: 1, wangid: [0, 1, 0, 1, 0, 1, 0, 1]}
`
	ts, err := LoadYAML(writeFile(t, "swamp.yml", content))
	if err != nil {
		t.Fatalf("LoadYAML failed: %v", err)
	}
	if ts.Name != "swamp" {
		t.Errorf("Name = %q, want %q", ts.Name, "swamp")
	}
}

func TestParseYAMLErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"short wangid", "classes: [{name: a}, {name: b}]\ntiles: [{id: 1, wangid: [0, 1, 0]}]\n"},
		{"one class", "classes: [{name: a}]\ntiles: []\n"},
		{"unknown default", "default_class: c\nclasses: [{name: a}, {name: b}]\n"},
		{"not yaml", "tiles: [\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseYAML([]byte(tc.content)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadTSX(t *testing.T) {
	ts, err := Load(writeFile(t, "caves.tsx", dungeonTSX))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if ts.Name != "caves" {
		t.Errorf("Name = %q, want %q", ts.Name, "caves")
	}
	if names := ts.Classes.Names(); len(names) != 2 || names[0] != "Ground" || names[1] != "Wall" {
		t.Errorf("classes = %v, want [Ground Wall] from the corner set", names)
	}
	if len(ts.Records) != 3 {
		t.Fatalf("records = %d, want 3", len(ts.Records))
	}
	if ts.Records[1].TileID != 3 || ts.Records[1].Weight != 0.25 {
		t.Errorf("record 1 = %+v, want tile 3 with weight 0.25", ts.Records[1])
	}
	if ts.Records[2].WangID != [8]int{0, 2, 0, 2, 0, 1, 0, 1} {
		t.Errorf("record 2 wangid = %v", ts.Records[2].WangID)
	}
}

func TestParseTSXErrors(t *testing.T) {
	noCorner := `<tileset name="x"><wangsets><wangset name="e" type="edge"><wangcolor name="a"/><wangcolor name="b"/></wangset></wangsets></tileset>`
	if _, err := ParseTSX([]byte(noCorner)); !errors.Is(err, ErrNoCornerWangSet) {
		t.Errorf("error = %v, want ErrNoCornerWangSet", err)
	}

	badID := `<tileset name="x"><wangsets><wangset name="c" type="corner"><wangcolor name="a"/><wangcolor name="b"/><wangtile tileid="0" wangid="0,1,0,1"/></wangset></wangsets></tileset>`
	if _, err := ParseTSX([]byte(badID)); err == nil {
		t.Error("expected an error for a short wangid")
	}
}

func TestLoadUnsupported(t *testing.T) {
	if _, err := Load("tiles.json"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	ts, err := ParseYAML([]byte(dungeonYAML))
	if err != nil {
		t.Fatalf("ParseYAML failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := ts.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}

	again, err := LoadYAML(path)
	if err != nil {
		t.Fatalf("LoadYAML failed: %v", err)
	}

	catA, _, _ := ts.Build()
	catB, _, _ := again.Build()
	if catA.Fingerprint() != catB.Fingerprint() {
		t.Error("tileset changed after a write/load cycle")
	}
}
