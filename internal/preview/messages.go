package preview

import (
	"github.com/lawnchairsociety/wangtile/internal/autotile"
	"github.com/lawnchairsociety/wangtile/internal/wang"
)

// Message types on the wire.
const (
	TypeSnapshot  = "snapshot"
	TypePatch     = "patch"
	TypeError     = "error"
	TypeSetCorner = "set_corner"
	TypeFill      = "fill"
	TypeResync    = "resync"
)

// Request is a viewer message. Which fields matter depends on Type:
// set_corner uses X, Y and Class; fill uses X0..Y1 and Class; resync none.
type Request struct {
	Type  string `json:"type"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	X0    int    `json:"x0"`
	Y0    int    `json:"y0"`
	X1    int    `json:"x1"`
	Y1    int    `json:"y1"`
	Class string `json:"class"`
}

// Snapshot is the full resolved map, rows top to bottom.
type Snapshot struct {
	Type        string          `json:"type"`
	Width       int             `json:"width"`
	Height      int             `json:"height"`
	Classes     []string        `json:"classes"`
	Fingerprint string          `json:"fingerprint"`
	Tiles       [][]wang.TileID `json:"tiles"`
}

// TileUpdate is one re-resolved cell.
type TileUpdate struct {
	X    int         `json:"x"`
	Y    int         `json:"y"`
	Tile wang.TileID `json:"tile"`
}

// Patch carries the cells changed by one edit, in row-major order.
type Patch struct {
	Type     string       `json:"type"`
	Tiles    []TileUpdate `json:"tiles"`
	Warnings int          `json:"warnings"`
}

// ErrorMessage reports a rejected request to its sender.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func newSnapshot(s *autotile.Session) Snapshot {
	g := s.Grid()
	return Snapshot{
		Type:        TypeSnapshot,
		Width:       g.Width(),
		Height:      g.Height(),
		Classes:     g.Classes().Names(),
		Fingerprint: s.Catalog().FingerprintHex(),
		Tiles:       s.Tiles().Rows(g.Width(), g.Height()),
	}
}

func newPatch(r *autotile.Result) Patch {
	p := Patch{Type: TypePatch, Tiles: make([]TileUpdate, 0, len(r.Tiles)), Warnings: len(r.Warnings)}
	for _, c := range r.Tiles.Cells() {
		p.Tiles = append(p.Tiles, TileUpdate{X: c.X, Y: c.Y, Tile: r.Tiles[c]})
	}
	return p
}
