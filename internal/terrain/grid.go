package terrain

import (
	"errors"
	"fmt"
	"sort"

	"github.com/zyedidia/generic/mapset"
)

var (
	ErrOutOfBounds = errors.New("terrain: coordinate out of bounds")
	ErrInvalidSize = errors.New("terrain: invalid grid size")
)

// OutOfBoundsError reports a corner or cell coordinate outside the grid.
type OutOfBoundsError struct {
	Kind string // "corner" or "cell"
	X, Y int
	MaxX int // inclusive
	MaxY int // inclusive
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("terrain: %s (%d,%d) out of bounds [0,%d]x[0,%d]", e.Kind, e.X, e.Y, e.MaxX, e.MaxY)
}

// Is lets errors.Is match ErrOutOfBounds.
func (e *OutOfBoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}

// Cell is a cell coordinate, 0 <= X < width, 0 <= Y < height.
type Cell struct {
	X, Y int
}

// Grid stores one Class per lattice corner for a width x height cell grid.
// Corners live in a flat (width+1)*(height+1) slice in row-major order; a
// corner is shared by the up-to-four cells around it purely through index
// arithmetic.
//
// Grid is not safe for concurrent use; callers serialize edits and reads.
type Grid struct {
	width, height int
	classes       *ClassSet
	corners       []Class
}

// NewGrid creates a grid with every corner set to the default class.
func NewGrid(width, height int, classes *ClassSet) (*Grid, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if classes == nil {
		return nil, errors.New("terrain: grid needs a class set")
	}

	g := &Grid{
		width:   width,
		height:  height,
		classes: classes,
		corners: make([]Class, (width+1)*(height+1)),
	}
	def := classes.Default()
	for i := range g.corners {
		g.corners[i] = def
	}
	return g, nil
}

// Width returns the number of cell columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of cell rows.
func (g *Grid) Height() int { return g.height }

// Classes returns the class set the grid validates against.
func (g *Grid) Classes() *ClassSet { return g.classes }

func (g *Grid) cornerIndex(cx, cy int) int {
	return cy*(g.width+1) + cx
}

func (g *Grid) cornerInBounds(cx, cy int) bool {
	return cx >= 0 && cx <= g.width && cy >= 0 && cy <= g.height
}

// CellInBounds reports whether (x, y) names a cell of the grid.
func (g *Grid) CellInBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

func (g *Grid) cornerError(cx, cy int) error {
	return &OutOfBoundsError{Kind: "corner", X: cx, Y: cy, MaxX: g.width, MaxY: g.height}
}

// Corner returns the class at corner (cx, cy).
func (g *Grid) Corner(cx, cy int) (Class, error) {
	if !g.cornerInBounds(cx, cy) {
		return None, g.cornerError(cx, cy)
	}
	return g.corners[g.cornerIndex(cx, cy)], nil
}

// SetCorner overwrites the class at (cx, cy) and returns the cells whose
// signature may have changed: the up-to-four cells sharing that corner.
func (g *Grid) SetCorner(cx, cy int, c Class) (mapset.Set[Cell], error) {
	if !g.cornerInBounds(cx, cy) {
		return mapset.New[Cell](), g.cornerError(cx, cy)
	}
	if !g.classes.Valid(c) {
		return mapset.New[Cell](), fmt.Errorf("%w: %d", ErrUnknownClass, int(c))
	}

	g.corners[g.cornerIndex(cx, cy)] = c

	dirty := mapset.New[Cell]()
	g.addIncident(dirty, cx, cy)
	return dirty, nil
}

// FillCorners paints every corner in the inclusive rectangle (x0,y0)-(x1,y1).
// The rectangle is validated before anything is written.
func (g *Grid) FillCorners(x0, y0, x1, y1 int, c Class) (mapset.Set[Cell], error) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if !g.cornerInBounds(x0, y0) {
		return mapset.New[Cell](), g.cornerError(x0, y0)
	}
	if !g.cornerInBounds(x1, y1) {
		return mapset.New[Cell](), g.cornerError(x1, y1)
	}
	if !g.classes.Valid(c) {
		return mapset.New[Cell](), fmt.Errorf("%w: %d", ErrUnknownClass, int(c))
	}

	dirty := mapset.New[Cell]()
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			g.corners[g.cornerIndex(cx, cy)] = c
			g.addIncident(dirty, cx, cy)
		}
	}
	return dirty, nil
}

// addIncident adds the cells touching corner (cx, cy), clipped to the grid.
func (g *Grid) addIncident(set mapset.Set[Cell], cx, cy int) {
	for _, d := range [4][2]int{{-1, -1}, {0, -1}, {-1, 0}, {0, 0}} {
		x, y := cx+d[0], cy+d[1]
		if g.CellInBounds(x, y) {
			set.Put(Cell{X: x, Y: y})
		}
	}
}

// SignatureOf returns the (TL, TR, BR, BL) corner classes of cell (x, y).
func (g *Grid) SignatureOf(x, y int) (Signature, error) {
	if !g.CellInBounds(x, y) {
		return Signature{}, &OutOfBoundsError{Kind: "cell", X: x, Y: y, MaxX: g.width - 1, MaxY: g.height - 1}
	}
	return Signature{
		TopLeft:     g.corners[g.cornerIndex(x, y)],
		TopRight:    g.corners[g.cornerIndex(x+1, y)],
		BottomRight: g.corners[g.cornerIndex(x+1, y+1)],
		BottomLeft:  g.corners[g.cornerIndex(x, y+1)],
	}, nil
}

// Cells returns every cell of the grid in row-major order.
func (g *Grid) Cells() []Cell {
	cells := make([]Cell, 0, g.width*g.height)
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			cells = append(cells, Cell{X: x, Y: y})
		}
	}
	return cells
}

// SortedCells returns the members of set in row-major order (Y then X) so
// that anything consuming a random stream per cell does so deterministically.
func SortedCells(set mapset.Set[Cell]) []Cell {
	cells := make([]Cell, 0, set.Size())
	set.Each(func(c Cell) {
		cells = append(cells, c)
	})
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Y != cells[j].Y {
			return cells[i].Y < cells[j].Y
		}
		return cells[i].X < cells[j].X
	})
	return cells
}
