package terrain

import "fmt"

// Corner indexes a position in a Signature.
type Corner int

const (
	TopLeft Corner = iota
	TopRight
	BottomRight
	BottomLeft
)

// String returns the string representation of a Corner
func (c Corner) String() string {
	switch c {
	case TopLeft:
		return "top_left"
	case TopRight:
		return "top_right"
	case BottomRight:
		return "bottom_right"
	case BottomLeft:
		return "bottom_left"
	default:
		return "unknown"
	}
}

// AllCorners returns the four corners in signature order
func AllCorners() []Corner {
	return []Corner{TopLeft, TopRight, BottomRight, BottomLeft}
}

// Signature is the (TL, TR, BR, BL) tuple of classes bounding a cell.
// It is not rotation-normalized: tile art is not assumed symmetric.
type Signature [4]Class

// Distance counts the corner slots in which s and o differ.
func (s Signature) Distance(o Signature) int {
	d := 0
	for i := range s {
		if s[i] != o[i] {
			d++
		}
	}
	return d
}

// Uniform reports whether all four corners carry the same class.
func (s Signature) Uniform() bool {
	return s[0] == s[1] && s[1] == s[2] && s[2] == s[3]
}

func (s Signature) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", s[TopLeft], s[TopRight], s[BottomRight], s[BottomLeft])
}

// Format renders the signature with class names from set.
func (s Signature) Format(set *ClassSet) string {
	return fmt.Sprintf("(%s,%s,%s,%s)",
		set.Name(s[TopLeft]), set.Name(s[TopRight]), set.Name(s[BottomRight]), set.Name(s[BottomLeft]))
}
