// Package tileset reads declarative tileset files into catalog records.
package tileset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/wangtile/internal/terrain"
	"github.com/lawnchairsociety/wangtile/internal/wang"
)

var ErrUnsupportedFormat = errors.New("tileset: unsupported file format")

// Tileset is a parsed tileset: its terrain classes and raw tile patterns.
type Tileset struct {
	Name    string
	Classes *terrain.ClassSet
	Records []wang.Record
}

// Build turns the tileset into a catalog.
func (ts *Tileset) Build() (*wang.Catalog, []*wang.BuildError, error) {
	return wang.Build(ts.Records, ts.Classes)
}

// ClassDefinition is a terrain class in the YAML file.
type ClassDefinition struct {
	Name string `yaml:"name"`
}

// TileDefinition is one tile pattern in the YAML file.
type TileDefinition struct {
	ID          int      `yaml:"id"`
	Probability *float64 `yaml:"probability,omitempty"` // defaults to 1
	WangID      []int    `yaml:"wangid"`
}

// Definition is the structure of a tileset YAML file.
type Definition struct {
	Name         string            `yaml:"name"`
	DefaultClass string            `yaml:"default_class"`
	Classes      []ClassDefinition `yaml:"classes"`
	Tiles        []TileDefinition  `yaml:"tiles"`
}

// Load reads a tileset file, choosing the parser from the extension:
// .yaml/.yml for the native format, .tsx for a Tiled tileset.
func Load(path string) (*Tileset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	case ".tsx":
		return LoadTSX(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadYAML reads a tileset from a YAML file.
func LoadYAML(path string) (*Tileset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tileset file: %w", err)
	}

	ts, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if ts.Name == "" {
		ts.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return ts, nil
}

// ParseYAML parses tileset YAML. Tile patterns are not validated here beyond
// their shape; weights and classes are the catalog builder's job.
func ParseYAML(data []byte) (*Tileset, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse tileset YAML: %w", err)
	}
	return def.Tileset()
}

// Tileset converts a parsed definition into a Tileset.
func (def *Definition) Tileset() (*Tileset, error) {
	names := make([]string, len(def.Classes))
	for i, c := range def.Classes {
		names[i] = c.Name
	}
	classes, err := terrain.NewClassSet(names, def.DefaultClass)
	if err != nil {
		return nil, err
	}

	records := make([]wang.Record, 0, len(def.Tiles))
	for i, tile := range def.Tiles {
		if len(tile.WangID) != 8 {
			return nil, fmt.Errorf("tile %d (entry %d): wangid has %d slots, want 8", tile.ID, i, len(tile.WangID))
		}
		rec := wang.Record{TileID: wang.TileID(tile.ID), Weight: 1}
		if tile.Probability != nil {
			rec.Weight = *tile.Probability
		}
		copy(rec.WangID[:], tile.WangID)
		records = append(records, rec)
	}

	return &Tileset{Name: def.Name, Classes: classes, Records: records}, nil
}

// Definition converts a tileset back to its YAML shape.
func (ts *Tileset) Definition() *Definition {
	def := &Definition{
		Name:         ts.Name,
		DefaultClass: ts.Classes.Name(ts.Classes.Default()),
	}
	for _, name := range ts.Classes.Names() {
		def.Classes = append(def.Classes, ClassDefinition{Name: name})
	}
	for _, rec := range ts.Records {
		p := rec.Weight
		def.Tiles = append(def.Tiles, TileDefinition{
			ID:          int(rec.TileID),
			Probability: &p,
			WangID:      append([]int(nil), rec.WangID[:]...),
		})
	}
	return def
}

// WriteYAML saves the tileset in the native YAML format.
func (ts *Tileset) WriteYAML(path string) error {
	data, err := yaml.Marshal(ts.Definition())
	if err != nil {
		return fmt.Errorf("failed to encode tileset: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write tileset file: %w", err)
	}
	return nil
}
