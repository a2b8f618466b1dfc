package autotile

import (
	"math/rand"

	"github.com/zyedidia/generic/mapset"

	"github.com/lawnchairsociety/wangtile/internal/logger"
	"github.com/lawnchairsociety/wangtile/internal/terrain"
	"github.com/lawnchairsociety/wangtile/internal/wang"
)

// Session keeps a resolved tile map in step with a grid as it is edited.
// Each edit re-resolves only the cells it made dirty.
//
// Session is not safe for concurrent use.
type Session struct {
	grid    *terrain.Grid
	catalog *wang.Catalog
	rng     *rand.Rand
	tiles   TileMap
}

// NewSession resolves the whole grid with a random stream seeded from seed.
func NewSession(g *terrain.Grid, cat *wang.Catalog, seed int64) (*Session, *Result, error) {
	s := &Session{
		grid:    g,
		catalog: cat,
		rng:     rand.New(rand.NewSource(seed)),
	}

	result, err := ResolveAll(g, cat, s.rng)
	if err != nil {
		return nil, nil, err
	}
	s.tiles = result.Tiles.Clone()
	logWarnings("Grid resolved", len(result.Tiles), result.Warnings)

	return s, result, nil
}

// Grid returns the session's grid.
func (s *Session) Grid() *terrain.Grid { return s.grid }

// Catalog returns the session's catalog.
func (s *Session) Catalog() *wang.Catalog { return s.catalog }

// Tile returns the resolved tile for cell (x, y).
func (s *Session) Tile(x, y int) (wang.TileID, bool) {
	id, ok := s.tiles[terrain.Cell{X: x, Y: y}]
	return id, ok
}

// Tiles returns a copy of the full resolved map.
func (s *Session) Tiles() TileMap {
	return s.tiles.Clone()
}

// SetCorner edits one corner and returns the re-resolved cells.
func (s *Session) SetCorner(cx, cy int, c terrain.Class) (*Result, error) {
	dirty, err := s.grid.SetCorner(cx, cy, c)
	if err != nil {
		return nil, err
	}
	return s.apply(dirty)
}

// FillCorners paints a corner rectangle and returns the re-resolved cells.
func (s *Session) FillCorners(x0, y0, x1, y1 int, c terrain.Class) (*Result, error) {
	dirty, err := s.grid.FillCorners(x0, y0, x1, y1, c)
	if err != nil {
		return nil, err
	}
	return s.apply(dirty)
}

func (s *Session) apply(dirty mapset.Set[terrain.Cell]) (*Result, error) {
	patch, err := ResolveRegion(s.grid, s.catalog, dirty, s.rng)
	if err != nil {
		return nil, err
	}
	s.tiles.Merge(patch.Tiles)
	logWarnings("Region resolved", len(patch.Tiles), patch.Warnings)
	return patch, nil
}

func logWarnings(msg string, cells int, warnings []*ResolutionWarning) {
	unknown := 0
	for _, w := range warnings {
		if w.Tile == wang.UnknownTile {
			unknown++
		}
		logger.Debug("Cell resolved by fallback", "warning", w.Error())
	}
	if len(warnings) > 0 {
		logger.Warning(msg+" with fallbacks", "cells", cells, "fallbacks", len(warnings), "unknown", unknown)
		return
	}
	logger.Debug(msg, "cells", cells)
}
