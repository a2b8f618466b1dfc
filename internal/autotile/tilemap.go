package autotile

import (
	"github.com/zyedidia/generic/mapset"

	"github.com/lawnchairsociety/wangtile/internal/terrain"
	"github.com/lawnchairsociety/wangtile/internal/wang"
)

// TileMap maps resolved cells to tile ids.
type TileMap map[terrain.Cell]wang.TileID

// Merge overwrites m with every entry of patch; cells not in patch keep
// their current tile.
func (m TileMap) Merge(patch TileMap) {
	for c, id := range patch {
		m[c] = id
	}
}

// Clone returns an independent copy of m.
func (m TileMap) Clone() TileMap {
	out := make(TileMap, len(m))
	for c, id := range m {
		out[c] = id
	}
	return out
}

// Equal reports whether m and o hold the same cells and tiles.
func (m TileMap) Equal(o TileMap) bool {
	if len(m) != len(o) {
		return false
	}
	for c, id := range m {
		if other, ok := o[c]; !ok || other != id {
			return false
		}
	}
	return true
}

// Cells returns the cells of m in row-major order.
func (m TileMap) Cells() []terrain.Cell {
	set := mapset.New[terrain.Cell]()
	for c := range m {
		set.Put(c)
	}
	return terrain.SortedCells(set)
}

// Rows lays the map out as rows[y][x] for a width x height grid. Cells that
// were never resolved read as wang.UnknownTile.
func (m TileMap) Rows(width, height int) [][]wang.TileID {
	rows := make([][]wang.TileID, height)
	for y := 0; y < height; y++ {
		rows[y] = make([]wang.TileID, width)
		for x := 0; x < width; x++ {
			id, ok := m[terrain.Cell{X: x, Y: y}]
			if !ok {
				id = wang.UnknownTile
			}
			rows[y][x] = id
		}
	}
	return rows
}
