package terrain

import (
	"errors"
	"testing"

	"github.com/zyedidia/generic/mapset"
)

func testClasses(t *testing.T) *ClassSet {
	t.Helper()
	classes, err := NewClassSet([]string{"Ground", "Wall"}, "ground")
	if err != nil {
		t.Fatalf("NewClassSet() failed: %v", err)
	}
	return classes
}

func TestNewGridDefaults(t *testing.T) {
	classes := testClasses(t)
	g, err := NewGrid(3, 2, classes)
	if err != nil {
		t.Fatalf("NewGrid() failed: %v", err)
	}

	if g.Width() != 3 || g.Height() != 2 {
		t.Errorf("size = %dx%d, want 3x2", g.Width(), g.Height())
	}

	for cy := 0; cy <= 2; cy++ {
		for cx := 0; cx <= 3; cx++ {
			c, err := g.Corner(cx, cy)
			if err != nil {
				t.Fatalf("Corner(%d,%d) failed: %v", cx, cy, err)
			}
			if c != classes.Default() {
				t.Errorf("Corner(%d,%d) = %d, want default %d", cx, cy, c, classes.Default())
			}
		}
	}
}

func TestNewGridInvalidSize(t *testing.T) {
	classes := testClasses(t)
	for _, size := range [][2]int{{0, 5}, {5, 0}, {-1, 3}} {
		if _, err := NewGrid(size[0], size[1], classes); !errors.Is(err, ErrInvalidSize) {
			t.Errorf("NewGrid(%d,%d) error = %v, want ErrInvalidSize", size[0], size[1], err)
		}
	}
}

func TestCornerOutOfBounds(t *testing.T) {
	g, _ := NewGrid(4, 4, testClasses(t))

	tests := []struct {
		cx, cy int
		ok     bool
	}{
		{0, 0, true},
		{4, 4, true},
		{5, 0, false},
		{0, 5, false},
		{-1, 2, false},
	}

	for _, tc := range tests {
		_, err := g.Corner(tc.cx, tc.cy)
		if tc.ok && err != nil {
			t.Errorf("Corner(%d,%d) unexpected error: %v", tc.cx, tc.cy, err)
		}
		if !tc.ok && !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Corner(%d,%d) error = %v, want ErrOutOfBounds", tc.cx, tc.cy, err)
		}
	}
}

func TestSetCornerDirtySet(t *testing.T) {
	classes := testClasses(t)
	wall, _ := classes.ByName("wall")

	tests := []struct {
		name   string
		cx, cy int
		want   []Cell
	}{
		{"interior", 2, 2, []Cell{{1, 1}, {2, 1}, {1, 2}, {2, 2}}},
		{"top-left corner", 0, 0, []Cell{{0, 0}}},
		{"bottom-right corner", 4, 3, []Cell{{3, 2}}},
		{"top edge", 2, 0, []Cell{{1, 0}, {2, 0}}},
		{"left edge", 0, 1, []Cell{{0, 0}, {0, 1}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g, _ := NewGrid(4, 3, classes)
			dirty, err := g.SetCorner(tc.cx, tc.cy, wall)
			if err != nil {
				t.Fatalf("SetCorner failed: %v", err)
			}

			got := SortedCells(dirty)
			if len(got) != len(tc.want) {
				t.Fatalf("dirty = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("dirty[%d] = %v, want %v", i, got[i], tc.want[i])
				}
			}

			c, _ := g.Corner(tc.cx, tc.cy)
			if c != wall {
				t.Errorf("Corner after set = %d, want %d", c, wall)
			}
		})
	}
}

func TestSetCornerErrors(t *testing.T) {
	g, _ := NewGrid(2, 2, testClasses(t))

	if _, err := g.SetCorner(3, 0, 1); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("out of range error = %v, want ErrOutOfBounds", err)
	}
	if _, err := g.SetCorner(1, 1, 7); !errors.Is(err, ErrUnknownClass) {
		t.Errorf("bad class error = %v, want ErrUnknownClass", err)
	}
	if _, err := g.SetCorner(1, 1, None); !errors.Is(err, ErrUnknownClass) {
		t.Errorf("None class error = %v, want ErrUnknownClass", err)
	}
}

func TestSignatureOf(t *testing.T) {
	classes := testClasses(t)
	ground, _ := classes.ByName("ground")
	wall, _ := classes.ByName("wall")

	g, _ := NewGrid(2, 2, classes)
	g.SetCorner(1, 0, wall)
	g.SetCorner(1, 1, wall)

	sig, err := g.SignatureOf(0, 0)
	if err != nil {
		t.Fatalf("SignatureOf failed: %v", err)
	}
	want := Signature{ground, wall, wall, ground}
	if sig != want {
		t.Errorf("SignatureOf(0,0) = %v, want %v", sig, want)
	}

	sig, _ = g.SignatureOf(1, 0)
	want = Signature{wall, ground, ground, wall}
	if sig != want {
		t.Errorf("SignatureOf(1,0) = %v, want %v", sig, want)
	}

	if _, err := g.SignatureOf(2, 0); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("SignatureOf(2,0) error = %v, want ErrOutOfBounds", err)
	}
}

func TestEditOnlyTouchesIncidentCells(t *testing.T) {
	classes := testClasses(t)
	wall, _ := classes.ByName("wall")
	g, _ := NewGrid(5, 5, classes)

	before := make(map[Cell]Signature)
	for _, c := range g.Cells() {
		before[c], _ = g.SignatureOf(c.X, c.Y)
	}

	dirty, _ := g.SetCorner(3, 2, wall)
	for _, c := range g.Cells() {
		after, _ := g.SignatureOf(c.X, c.Y)
		if after != before[c] && !dirty.Has(c) {
			t.Errorf("cell %v changed but is not in the dirty set", c)
		}
		if after == before[c] && dirty.Has(c) {
			t.Errorf("cell %v is dirty but its signature did not change", c)
		}
	}
}

func TestFillCorners(t *testing.T) {
	classes := testClasses(t)
	wall, _ := classes.ByName("wall")
	g, _ := NewGrid(4, 4, classes)

	dirty, err := g.FillCorners(3, 3, 1, 1, wall)
	if err != nil {
		t.Fatalf("FillCorners failed: %v", err)
	}
	if dirty.Size() != 16 {
		t.Errorf("dirty size = %d, want 16", dirty.Size())
	}

	sig, _ := g.SignatureOf(1, 1)
	if !sig.Uniform() || sig[TopLeft] != wall {
		t.Errorf("SignatureOf(1,1) = %v, want all wall", sig)
	}

	_, err = g.FillCorners(0, 0, 5, 5, wall)
	if !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("oversized fill error = %v, want ErrOutOfBounds", err)
	}
	c, _ := g.Corner(0, 0)
	if c == wall {
		t.Error("rejected fill wrote to the grid")
	}
}

func TestSortedCells(t *testing.T) {
	set := mapset.New[Cell]()
	set.Put(Cell{2, 1})
	set.Put(Cell{0, 1})
	set.Put(Cell{5, 0})

	got := SortedCells(set)
	want := []Cell{{5, 0}, {0, 1}, {2, 1}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SortedCells()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
