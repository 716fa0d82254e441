package geometry

// Box is an axis-aligned rectangle in page coordinates, y growing downward.
// X1/Y1 are the far edges, so a valid box has X1 >= X0 and Y1 >= Y0.
type Box struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Width returns the horizontal extent of the box.
func (b Box) Width() float64 { return b.X1 - b.X0 }

// Height returns the vertical extent of the box.
func (b Box) Height() float64 { return b.Y1 - b.Y0 }

// Area returns width times height. Degenerate boxes report zero.
func (b Box) Area() float64 {
	if b.X1 <= b.X0 || b.Y1 <= b.Y0 {
		return 0
	}
	return (b.X1 - b.X0) * (b.Y1 - b.Y0)
}

// Valid reports whether the box has positive area.
func (b Box) Valid() bool { return b.X1 > b.X0 && b.Y1 > b.Y0 }

// Overlaps reports whether a and b intersect with positive area on both
// axes. Boxes that merely share an edge or a corner do not overlap.
func Overlaps(a, b Box) bool {
	if a.X0 >= b.X1 || b.X0 >= a.X1 {
		return false
	}
	if a.Y0 >= b.Y1 || b.Y0 >= a.Y1 {
		return false
	}
	return true
}

// Intersect returns the common region of a and b, or the zero Box when they
// do not overlap.
func Intersect(a, b Box) Box {
	if !Overlaps(a, b) {
		return Box{}
	}
	return Box{
		X0: max(a.X0, b.X0),
		Y0: max(a.Y0, b.Y0),
		X1: min(a.X1, b.X1),
		Y1: min(a.Y1, b.Y1),
	}
}

// OverlapRatio returns the fraction of a's area that b covers, in [0,1].
// The measure is relative to the first argument: a small box fully inside a
// large one scores 1.0, while the large box measured against the small one
// scores near zero. Returns 0 when the boxes do not overlap or either area
// is zero.
func OverlapRatio(a, b Box) float64 {
	areaA := a.Area()
	if areaA == 0 || b.Area() == 0 {
		return 0
	}
	inter := Intersect(a, b).Area()
	if inter == 0 {
		return 0
	}
	r := inter / areaA
	if r > 1 {
		r = 1
	}
	return r
}

// Contained reports whether at least tolerance of inner's area lies within
// outer. The test is soft on purpose: a box spilling slightly past outer's
// edges from rendering imprecision still counts as contained.
func Contained(inner, outer Box, tolerance float64) bool {
	if !inner.Valid() {
		return false
	}
	return OverlapRatio(inner, outer) >= tolerance
}
