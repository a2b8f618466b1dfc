package wang

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/lawnchairsociety/wangtile/internal/logger"
	"github.com/lawnchairsociety/wangtile/internal/terrain"
)

// Catalog maps corner signatures to weighted candidate tiles.
// It never changes after Build returns and may be read from any number of
// goroutines without locking.
type Catalog struct {
	classes     *terrain.ClassSet
	groups      map[terrain.Signature]*Group
	order       []terrain.Signature // sorted, for deterministic iteration
	byTile      map[TileID]Entry
	fingerprint [32]byte
}

// Build validates records and groups them by signature. Records that fail
// validation are skipped and reported in the returned slice; the build only
// fails when nothing usable remains.
func Build(records []Record, classes *terrain.ClassSet) (*Catalog, []*BuildError, error) {
	if classes == nil {
		return nil, nil, errors.New("wang: build needs a class set")
	}

	cat := &Catalog{
		classes: classes,
		groups:  make(map[terrain.Signature]*Group),
		byTile:  make(map[TileID]Entry),
	}

	var rejected []*BuildError
	for i, rec := range records {
		entry, err := cat.validate(rec)
		if err != nil {
			be := &BuildError{Index: i, TileID: rec.TileID, Err: err}
			rejected = append(rejected, be)
			logger.Warning("Tile pattern rejected", "index", i, "tile_id", rec.TileID, "reason", err)
			continue
		}
		cat.add(entry)
	}

	if len(cat.byTile) == 0 {
		return nil, rejected, fmt.Errorf("%w: %d of %d records rejected", ErrEmptyCatalog, len(rejected), len(records))
	}

	for sig := range cat.groups {
		cat.order = append(cat.order, sig)
	}
	sort.Slice(cat.order, func(i, j int) bool {
		return signatureLess(cat.order[i], cat.order[j])
	})
	cat.fingerprint = cat.computeFingerprint()

	logger.Debug("Wang catalog built",
		"entries", len(cat.byTile),
		"signatures", len(cat.groups),
		"rejected", len(rejected))

	return cat, rejected, nil
}

func (c *Catalog) validate(rec Record) (Entry, error) {
	// Negative ids would be indistinguishable from UnknownTile.
	if rec.TileID < 0 {
		return Entry{}, fmt.Errorf("%w: %d", ErrReservedTileID, rec.TileID)
	}
	if rec.Weight <= 0 || math.IsNaN(rec.Weight) || math.IsInf(rec.Weight, 0) {
		return Entry{}, fmt.Errorf("%w: %v", ErrNonPositiveWeight, rec.Weight)
	}
	for _, slot := range []int{SlotTop, SlotRight, SlotBottom, SlotLeft} {
		if rec.WangID[slot] != 0 {
			return Entry{}, fmt.Errorf("%w: slot %d = %d", ErrEdgeSlots, slot, rec.WangID[slot])
		}
	}
	for _, slot := range []int{SlotTopRight, SlotBottomRight, SlotBottomLeft, SlotTopLeft} {
		if !c.classes.Valid(terrain.Class(rec.WangID[slot])) {
			return Entry{}, fmt.Errorf("%w: slot %d = %d", ErrUnknownClass, slot, rec.WangID[slot])
		}
	}
	if _, exists := c.byTile[rec.TileID]; exists {
		return Entry{}, ErrDuplicateTileID
	}

	return Entry{TileID: rec.TileID, Weight: rec.Weight, Signature: rec.Signature()}, nil
}

func (c *Catalog) add(e Entry) {
	g, ok := c.groups[e.Signature]
	if !ok {
		g = &Group{Signature: e.Signature}
		c.groups[e.Signature] = g
	}
	g.Entries = append(g.Entries, e)
	g.TotalWeight += e.Weight
	c.byTile[e.TileID] = e
}

// Lookup returns the entries whose signature equals sig exactly, in record
// order. The result is empty when no exact match exists.
func (c *Catalog) Lookup(sig terrain.Signature) []Entry {
	g, ok := c.groups[sig]
	if !ok {
		return nil
	}
	return slices.Clone(g.Entries)
}

// Group returns the signature group for sig. The returned Entries slice is
// shared with the catalog and must not be modified.
func (c *Catalog) Group(sig terrain.Signature) (Group, bool) {
	g, ok := c.groups[sig]
	if !ok {
		return Group{}, false
	}
	return *g, true
}

// Groups calls fn for every signature group in signature order.
func (c *Catalog) Groups(fn func(Group)) {
	for _, sig := range c.order {
		fn(*c.groups[sig])
	}
}

// Entry returns the entry for a tile id.
func (c *Catalog) Entry(id TileID) (Entry, bool) {
	e, ok := c.byTile[id]
	return e, ok
}

// Len returns the number of entries in the catalog.
func (c *Catalog) Len() int {
	return len(c.byTile)
}

// SignatureCount returns the number of distinct signatures.
func (c *Catalog) SignatureCount() int {
	return len(c.groups)
}

// Classes returns the class set the catalog was built against.
func (c *Catalog) Classes() *terrain.ClassSet {
	return c.classes
}

// Fingerprint identifies the accepted catalog content. Two catalogs with the
// same classes and entries share a fingerprint regardless of record order
// within different signatures.
func (c *Catalog) Fingerprint() [32]byte {
	return c.fingerprint
}

// FingerprintHex returns the fingerprint as a hex string.
func (c *Catalog) FingerprintHex() string {
	return hex.EncodeToString(c.fingerprint[:])
}

func (c *Catalog) computeFingerprint() [32]byte {
	h, _ := blake2b.New256(nil) // only fails for oversized keys

	var buf [8]byte
	writeInt := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}

	for _, name := range c.classes.Names() {
		writeInt(int64(len(name)))
		h.Write([]byte(name))
	}
	writeInt(int64(c.classes.Default()))

	for _, sig := range c.order {
		g := c.groups[sig]
		for _, class := range sig {
			writeInt(int64(class))
		}
		writeInt(int64(len(g.Entries)))
		for _, e := range g.Entries {
			writeInt(int64(e.TileID))
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(e.Weight))
			h.Write(buf[:])
		}
	}

	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

func signatureLess(a, b terrain.Signature) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
