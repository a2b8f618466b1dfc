// Package worldgen paints terrain classes onto a grid's corner lattice.
package worldgen

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aquilax/go-perlin"
	"github.com/zyedidia/generic/mapset"

	"github.com/lawnchairsociety/wangtile/internal/logger"
	"github.com/lawnchairsociety/wangtile/internal/terrain"
)

var ErrNoBands = errors.New("worldgen: no bands configured")

// Band assigns Class to every corner whose noise value is below Below.
// The last band in threshold order also takes everything above it.
type Band struct {
	Below float64 `yaml:"below"`
	Class string  `yaml:"class"`
}

// Config contains parameters for noise-driven terrain.
type Config struct {
	Seed        int64   `yaml:"seed"`
	Scale       float64 `yaml:"scale"`       // lattice units per noise unit
	Alpha       float64 `yaml:"alpha"`       // persistence
	Beta        float64 `yaml:"beta"`        // frequency multiplier per octave
	Octaves     int32   `yaml:"octaves"`
	Bands       []Band  `yaml:"bands"`
	BorderClass string  `yaml:"border_class"` // optional rim around the lattice

	// Maze, when set, replaces the noise fill with a carved maze.
	Maze *MazeConfig `yaml:"maze"`
}

// DefaultConfig returns the noise parameters used by the tools. Bands are
// tileset specific and left empty.
func DefaultConfig(seed int64) Config {
	return Config{
		Seed:    seed,
		Scale:   8,
		Alpha:   2,
		Beta:    2,
		Octaves: 3,
	}
}

// Generator fills grids from a seeded noise field.
type Generator struct {
	config Config
	noise  *perlin.Perlin
	bands  []Band
}

// NewGenerator creates a generator. Bands are ordered by threshold.
func NewGenerator(config Config) (*Generator, error) {
	if len(config.Bands) == 0 {
		return nil, ErrNoBands
	}
	if config.Scale <= 0 {
		return nil, fmt.Errorf("worldgen: scale must be positive, got %v", config.Scale)
	}
	if config.Octaves < 1 {
		config.Octaves = 1
	}

	bands := append([]Band(nil), config.Bands...)
	sort.SliceStable(bands, func(i, j int) bool { return bands[i].Below < bands[j].Below })

	return &Generator{
		config: config,
		noise:  perlin.NewPerlin(config.Alpha, config.Beta, config.Octaves, config.Seed),
		bands:  bands,
	}, nil
}

// Sample returns the raw noise value at corner (cx, cy).
func (g *Generator) Sample(cx, cy int) float64 {
	return g.noise.Noise2D(float64(cx)/g.config.Scale, float64(cy)/g.config.Scale)
}

func (g *Generator) bandFor(v float64) string {
	for _, b := range g.bands {
		if v < b.Below {
			return b.Class
		}
	}
	return g.bands[len(g.bands)-1].Class
}

// Fill classifies every corner of grid and returns the dirty cells,
// which is every cell whose signature changed.
func (g *Generator) Fill(grid *terrain.Grid) (mapset.Set[terrain.Cell], error) {
	classes := grid.Classes()

	resolved := make(map[string]terrain.Class, len(g.bands))
	for _, b := range g.bands {
		c, ok := classes.ByName(b.Class)
		if !ok {
			return mapset.Set[terrain.Cell]{}, fmt.Errorf("band %q: %w", b.Class, terrain.ErrUnknownClass)
		}
		resolved[b.Class] = c
	}
	border := terrain.None
	if g.config.BorderClass != "" {
		c, ok := classes.ByName(g.config.BorderClass)
		if !ok {
			return mapset.Set[terrain.Cell]{}, fmt.Errorf("border %q: %w", g.config.BorderClass, terrain.ErrUnknownClass)
		}
		border = c
	}

	dirty := mapset.New[terrain.Cell]()
	w, h := grid.Width(), grid.Height()
	for cy := 0; cy <= h; cy++ {
		for cx := 0; cx <= w; cx++ {
			c := resolved[g.bandFor(g.Sample(cx, cy))]
			if border != terrain.None && (cx == 0 || cy == 0 || cx == w || cy == h) {
				c = border
			}

			old, err := grid.Corner(cx, cy)
			if err != nil {
				return mapset.Set[terrain.Cell]{}, err
			}
			if old == c {
				continue
			}
			cells, err := grid.SetCorner(cx, cy, c)
			if err != nil {
				return mapset.Set[terrain.Cell]{}, err
			}
			cells.Each(func(cell terrain.Cell) { dirty.Put(cell) })
		}
	}

	logger.Debug("Terrain generated",
		"seed", g.config.Seed,
		"width", w,
		"height", h,
		"dirty", dirty.Size())

	return dirty, nil
}

// Rect is an inclusive corner range painted with one class.
type Rect struct {
	X0    int    `yaml:"x0"`
	Y0    int    `yaml:"y0"`
	X1    int    `yaml:"x1"`
	Y1    int    `yaml:"y1"`
	Class string `yaml:"class"`
}

// Paint applies rectangle brushes in order and returns the union dirty set.
// A failing brush stops the run; brushes before it stay applied.
func Paint(grid *terrain.Grid, rects []Rect) (mapset.Set[terrain.Cell], error) {
	dirty := mapset.New[terrain.Cell]()
	for i, r := range rects {
		c, ok := grid.Classes().ByName(r.Class)
		if !ok {
			return dirty, fmt.Errorf("brush %d: class %q: %w", i, r.Class, terrain.ErrUnknownClass)
		}
		cells, err := grid.FillCorners(r.X0, r.Y0, r.X1, r.Y1, c)
		if err != nil {
			return dirty, fmt.Errorf("brush %d: %w", i, err)
		}
		cells.Each(func(cell terrain.Cell) { dirty.Put(cell) })
	}
	return dirty, nil
}

// Generate carves a maze or fills grid from cfg's bands, then paints brushes.
func Generate(grid *terrain.Grid, cfg Config, brushes []Rect) (mapset.Set[terrain.Cell], error) {
	dirty := mapset.New[terrain.Cell]()
	switch {
	case cfg.Maze != nil:
		var err error
		if dirty, err = Carve(grid, *cfg.Maze); err != nil {
			return mapset.Set[terrain.Cell]{}, err
		}
	case len(cfg.Bands) > 0:
		gen, err := NewGenerator(cfg)
		if err != nil {
			return mapset.Set[terrain.Cell]{}, err
		}
		if dirty, err = gen.Fill(grid); err != nil {
			return mapset.Set[terrain.Cell]{}, err
		}
	}

	painted, err := Paint(grid, brushes)
	if err != nil {
		return mapset.Set[terrain.Cell]{}, err
	}
	painted.Each(func(c terrain.Cell) { dirty.Put(c) })
	return dirty, nil
}
