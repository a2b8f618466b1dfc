package terrain

import (
	"errors"
	"testing"
)

func TestNewClassSet(t *testing.T) {
	classes, err := NewClassSet([]string{"Ground", "Wall", "Water"}, "")
	if err != nil {
		t.Fatalf("NewClassSet() failed: %v", err)
	}

	if classes.Len() != 3 {
		t.Errorf("Len() = %d, want 3", classes.Len())
	}
	if classes.Default() != 1 {
		t.Errorf("Default() = %d, want 1", classes.Default())
	}

	c, ok := classes.ByName("WATER")
	if !ok || c != 3 {
		t.Errorf("ByName(WATER) = %d, %v; want 3, true", c, ok)
	}
	if classes.Name(2) != "Wall" {
		t.Errorf("Name(2) = %q, want %q", classes.Name(2), "Wall")
	}
	if classes.Name(None) != "none" {
		t.Errorf("Name(None) = %q, want %q", classes.Name(None), "none")
	}
	if classes.Valid(None) || classes.Valid(4) {
		t.Error("Valid() accepted a code outside the set")
	}
}

func TestNewClassSetErrors(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		def   string
		want  error
	}{
		{"single class", []string{"ground"}, "", ErrTooFewClasses},
		{"duplicate", []string{"ground", "Ground"}, "", ErrDuplicateClass},
		{"unknown default", []string{"ground", "wall"}, "lava", ErrUnknownClass},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewClassSet(tc.names, tc.def); !errors.Is(err, tc.want) {
				t.Errorf("error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSignatureDistance(t *testing.T) {
	tests := []struct {
		a, b Signature
		want int
	}{
		{Signature{1, 1, 1, 1}, Signature{1, 1, 1, 1}, 0},
		{Signature{1, 2, 2, 1}, Signature{1, 1, 1, 1}, 2},
		{Signature{1, 2, 2, 1}, Signature{2, 1, 1, 2}, 4},
		{Signature{1, 2, 3, 1}, Signature{1, 2, 2, 1}, 1},
	}

	for _, tc := range tests {
		if got := tc.a.Distance(tc.b); got != tc.want {
			t.Errorf("%v.Distance(%v) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestCornerString(t *testing.T) {
	tests := []struct {
		c    Corner
		want string
	}{
		{TopLeft, "top_left"},
		{TopRight, "top_right"},
		{BottomRight, "bottom_right"},
		{BottomLeft, "bottom_left"},
		{Corner(9), "unknown"},
	}

	for _, tc := range tests {
		if got := tc.c.String(); got != tc.want {
			t.Errorf("Corner(%d).String() = %q, want %q", tc.c, got, tc.want)
		}
	}
}
