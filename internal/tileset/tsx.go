package tileset

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lawnchairsociety/wangtile/internal/terrain"
	"github.com/lawnchairsociety/wangtile/internal/wang"
)

var ErrNoCornerWangSet = errors.New("tileset: no corner wang set in tileset")

// Tiled .tsx structures; only what corner autotiling needs.
type tsxTileset struct {
	XMLName  xml.Name     `xml:"tileset"`
	Name     string       `xml:"name,attr"`
	Tiles    []tsxTile    `xml:"tile"`
	WangSets []tsxWangSet `xml:"wangsets>wangset"`
}

type tsxTile struct {
	ID          int     `xml:"id,attr"`
	Probability *string `xml:"probability,attr"`
}

type tsxWangSet struct {
	Name      string         `xml:"name,attr"`
	Type      string         `xml:"type,attr"`
	Colors    []tsxWangColor `xml:"wangcolor"`
	WangTiles []tsxWangTile  `xml:"wangtile"`
}

type tsxWangColor struct {
	Name string `xml:"name,attr"`
}

type tsxWangTile struct {
	TileID int    `xml:"tileid,attr"`
	WangID string `xml:"wangid,attr"`
}

// LoadTSX reads the first corner wang set of a Tiled tileset file.
func LoadTSX(path string) (*Tileset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tileset file: %w", err)
	}

	ts, err := ParseTSX(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if ts.Name == "" {
		ts.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return ts, nil
}

// ParseTSX parses Tiled tileset XML. Wang colors become classes 1..N in
// document order, the first being the default. Tile probabilities come from
// the <tile> elements and default to 1.
func ParseTSX(data []byte) (*Tileset, error) {
	var doc tsxTileset
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse tileset XML: %w", err)
	}

	var set *tsxWangSet
	for i := range doc.WangSets {
		if doc.WangSets[i].Type == "corner" {
			set = &doc.WangSets[i]
			break
		}
	}
	if set == nil {
		return nil, ErrNoCornerWangSet
	}

	names := make([]string, len(set.Colors))
	for i, c := range set.Colors {
		names[i] = c.Name
	}
	classes, err := terrain.NewClassSet(names, "")
	if err != nil {
		return nil, fmt.Errorf("wang set %q: %w", set.Name, err)
	}

	probability := make(map[int]float64, len(doc.Tiles))
	for _, tile := range doc.Tiles {
		if tile.Probability == nil {
			continue
		}
		p, err := strconv.ParseFloat(*tile.Probability, 64)
		if err != nil {
			return nil, fmt.Errorf("tile %d: bad probability %q", tile.ID, *tile.Probability)
		}
		probability[tile.ID] = p
	}

	records := make([]wang.Record, 0, len(set.WangTiles))
	for _, wt := range set.WangTiles {
		id, err := parseWangID(wt.WangID)
		if err != nil {
			return nil, fmt.Errorf("tile %d: %w", wt.TileID, err)
		}
		weight, ok := probability[wt.TileID]
		if !ok {
			weight = 1
		}
		records = append(records, wang.Record{TileID: wang.TileID(wt.TileID), Weight: weight, WangID: id})
	}

	name := doc.Name
	if name == "" {
		name = set.Name
	}
	return &Tileset{Name: name, Classes: classes, Records: records}, nil
}

// parseWangID reads Tiled's comma-separated 8-slot wang id.
func parseWangID(s string) ([8]int, error) {
	var id [8]int
	parts := strings.Split(s, ",")
	if len(parts) != 8 {
		return id, fmt.Errorf("wangid %q has %d slots, want 8", s, len(parts))
	}
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return id, fmt.Errorf("wangid %q: %w", s, err)
		}
		id[i] = v
	}
	return id, nil
}
