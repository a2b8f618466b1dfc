// Package wang builds the immutable corner-signature catalog of a tileset.
package wang

import (
	"errors"
	"fmt"

	"github.com/lawnchairsociety/wangtile/internal/terrain"
)

// TileID identifies a tile image within a tileset.
type TileID int

// UnknownTile is returned for cells no catalog entry can reasonably cover.
const UnknownTile TileID = -1

// Wang ID slot layout, clockwise from the top edge. Even slots are edge
// midpoints (unused by corner catalogs), odd slots are corners.
const (
	SlotTop = iota
	SlotTopRight
	SlotRight
	SlotBottomRight
	SlotBottom
	SlotBottomLeft
	SlotLeft
	SlotTopLeft
)

// Record is a raw tile-pattern record as delivered by a tileset loader.
type Record struct {
	TileID TileID
	Weight float64
	WangID [8]int
}

// Signature rotates the record's top-right-first corner slots into the
// (TL, TR, BR, BL) order used by the grid.
func (r Record) Signature() terrain.Signature {
	return terrain.Signature{
		terrain.TopLeft:     terrain.Class(r.WangID[SlotTopLeft]),
		terrain.TopRight:    terrain.Class(r.WangID[SlotTopRight]),
		terrain.BottomRight: terrain.Class(r.WangID[SlotBottomRight]),
		terrain.BottomLeft:  terrain.Class(r.WangID[SlotBottomLeft]),
	}
}

// WangIDFromSignature is the inverse of Record.Signature for corner-only IDs.
func WangIDFromSignature(sig terrain.Signature) [8]int {
	var id [8]int
	id[SlotTopLeft] = int(sig[terrain.TopLeft])
	id[SlotTopRight] = int(sig[terrain.TopRight])
	id[SlotBottomRight] = int(sig[terrain.BottomRight])
	id[SlotBottomLeft] = int(sig[terrain.BottomLeft])
	return id
}

// Entry is a validated catalog entry.
type Entry struct {
	TileID    TileID
	Weight    float64
	Signature terrain.Signature
}

// Group is the set of entries sharing one signature, in record order.
type Group struct {
	Signature   terrain.Signature
	Entries     []Entry
	TotalWeight float64
}

// MinTileID returns the lowest tile id in the group.
func (g Group) MinTileID() TileID {
	min := g.Entries[0].TileID
	for _, e := range g.Entries[1:] {
		if e.TileID < min {
			min = e.TileID
		}
	}
	return min
}

var (
	ErrEmptyCatalog      = errors.New("wang: catalog has no usable entries")
	ErrNonPositiveWeight = errors.New("wang: weight must be a positive finite number")
	ErrUnknownClass      = errors.New("wang: corner code is not a known terrain class")
	ErrDuplicateTileID   = errors.New("wang: tile id already used")
	ErrEdgeSlots         = errors.New("wang: edge slots are set on a corner-only record")
	ErrReservedTileID    = errors.New("wang: tile ids must not be negative")
)

// BuildError describes a record the builder skipped.
type BuildError struct {
	Index  int
	TileID TileID
	Err    error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("wang: record %d (tile %d): %v", e.Index, e.TileID, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
