// Package autotile picks a concrete tile for every cell of a terrain grid.
//
// Resolution is synchronous and performs no I/O. The catalog is only read,
// so one catalog can serve any number of concurrent resolutions; the grid is
// the caller's to serialize. All randomness comes from the Rand passed in,
// which makes a resolution reproducible from its seed.
package autotile

import (
	"fmt"

	"github.com/zyedidia/generic/mapset"

	"github.com/lawnchairsociety/wangtile/internal/terrain"
	"github.com/lawnchairsociety/wangtile/internal/wang"
)

// Rand is the random source used for weighted variant selection.
// *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// maxDistance is the number of corner slots in a signature. A candidate that
// differs in every slot shares nothing with the cell and is never used.
const maxDistance = 4

// ResolutionWarning reports that a cell was not resolved by an exact match.
type ResolutionWarning struct {
	Cell      terrain.Cell
	Signature terrain.Signature
	Matched   terrain.Signature // signature of the group used; zero when Tile is UnknownTile
	Distance  int
	Tile      wang.TileID
}

func (w *ResolutionWarning) Error() string {
	if w.Tile == wang.UnknownTile {
		return fmt.Sprintf("autotile: cell (%d,%d) signature %v has no usable catalog entry",
			w.Cell.X, w.Cell.Y, w.Signature)
	}
	return fmt.Sprintf("autotile: cell (%d,%d) signature %v resolved by fallback %v (distance %d)",
		w.Cell.X, w.Cell.Y, w.Signature, w.Matched, w.Distance)
}

// Resolution is the outcome for one cell.
type Resolution struct {
	Cell      terrain.Cell
	Signature terrain.Signature
	Tile      wang.TileID
	Distance  int
	Warning   *ResolutionWarning // nil for exact matches
}

// Result is the outcome of a batch resolution.
type Result struct {
	Tiles    TileMap
	Warnings []*ResolutionWarning
}

// ResolveCell picks the tile for cell (x, y).
//
// An exact signature match is chosen by weighted draw among its variants.
// Otherwise the signature group with the fewest differing corners is used,
// preferring the higher aggregate weight and then the lowest tile id, and a
// warning is attached. If no group shares even one corner the cell gets
// wang.UnknownTile. Only bounds problems are returned as errors.
func ResolveCell(g *terrain.Grid, cat *wang.Catalog, x, y int, rng Rand) (Resolution, error) {
	sig, err := g.SignatureOf(x, y)
	if err != nil {
		return Resolution{}, err
	}

	res := Resolution{Cell: terrain.Cell{X: x, Y: y}, Signature: sig}

	if group, ok := cat.Group(sig); ok {
		res.Tile = pickWeighted(group, rng)
		return res, nil
	}

	group, distance, ok := nearestGroup(cat, sig)
	res.Distance = distance
	if !ok {
		res.Tile = wang.UnknownTile
		res.Distance = maxDistance
		res.Warning = &ResolutionWarning{
			Cell:      res.Cell,
			Signature: sig,
			Distance:  maxDistance,
			Tile:      wang.UnknownTile,
		}
		return res, nil
	}

	res.Tile = pickWeighted(group, rng)
	res.Warning = &ResolutionWarning{
		Cell:      res.Cell,
		Signature: sig,
		Matched:   group.Signature,
		Distance:  distance,
		Tile:      res.Tile,
	}
	return res, nil
}

// ResolveRegion re-resolves only the cells in dirty, visiting them in
// row-major order. The returned map holds exactly those cells; merge it into
// an existing TileMap to keep every other cell as it was.
func ResolveRegion(g *terrain.Grid, cat *wang.Catalog, dirty mapset.Set[terrain.Cell], rng Rand) (*Result, error) {
	return resolveCells(g, cat, terrain.SortedCells(dirty), rng)
}

// ResolveAll resolves every cell of the grid in row-major order.
func ResolveAll(g *terrain.Grid, cat *wang.Catalog, rng Rand) (*Result, error) {
	return resolveCells(g, cat, g.Cells(), rng)
}

func resolveCells(g *terrain.Grid, cat *wang.Catalog, cells []terrain.Cell, rng Rand) (*Result, error) {
	result := &Result{Tiles: make(TileMap, len(cells))}
	for _, c := range cells {
		res, err := ResolveCell(g, cat, c.X, c.Y, rng)
		if err != nil {
			return nil, err
		}
		result.Tiles[c] = res.Tile
		if res.Warning != nil {
			result.Warnings = append(result.Warnings, res.Warning)
		}
	}
	return result, nil
}

// nearestGroup finds the catalog group closest to sig by corner distance.
// Ties go to the larger aggregate weight, then to the lowest tile id. The
// boolean is false when the catalog has no group within maxDistance-1.
func nearestGroup(cat *wang.Catalog, sig terrain.Signature) (wang.Group, int, bool) {
	var (
		best     wang.Group
		bestDist = maxDistance
		found    bool
	)

	cat.Groups(func(candidate wang.Group) {
		d := candidate.Signature.Distance(sig)
		if d >= maxDistance {
			return
		}
		if !found || better(candidate, d, best, bestDist) {
			best, bestDist, found = candidate, d, true
		}
	})

	return best, bestDist, found
}

func better(a wang.Group, aDist int, b wang.Group, bDist int) bool {
	if aDist != bDist {
		return aDist < bDist
	}
	if a.TotalWeight != b.TotalWeight {
		return a.TotalWeight > b.TotalWeight
	}
	return a.MinTileID() < b.MinTileID()
}

// pickWeighted draws one entry with probability proportional to its weight.
// A single-entry group does not consume from rng.
func pickWeighted(group wang.Group, rng Rand) wang.TileID {
	if len(group.Entries) == 1 {
		return group.Entries[0].TileID
	}

	r := rng.Float64() * group.TotalWeight
	cumulative := 0.0
	for _, e := range group.Entries {
		cumulative += e.Weight
		if r < cumulative {
			return e.TileID
		}
	}
	// Rounding can leave r at the very top of the range.
	return group.Entries[len(group.Entries)-1].TileID
}
