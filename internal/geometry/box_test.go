package geometry

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBoxArea(t *testing.T) {
	tests := []struct {
		name string
		box  Box
		want float64
	}{
		{"unit square", Box{0, 0, 1, 1}, 1},
		{"hundred square", Box{0, 0, 100, 100}, 10000},
		{"offset box", Box{10, 10, 50, 50}, 1600},
		{"zero width", Box{5, 0, 5, 10}, 0},
		{"zero height", Box{0, 5, 10, 5}, 0},
		{"inverted", Box{10, 10, 0, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.box.Area(); got != tt.want {
				t.Errorf("Area() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Box
		want bool
	}{
		{"identical", Box{0, 0, 10, 10}, Box{0, 0, 10, 10}, true},
		{"partial", Box{0, 0, 10, 10}, Box{5, 5, 15, 15}, true},
		{"contained", Box{0, 0, 100, 100}, Box{10, 10, 50, 50}, true},
		{"disjoint", Box{0, 0, 10, 10}, Box{20, 20, 30, 30}, false},
		{"shared edge", Box{0, 0, 10, 10}, Box{10, 0, 20, 10}, false},
		{"shared corner", Box{0, 0, 10, 10}, Box{10, 10, 20, 20}, false},
		{"x overlap only", Box{0, 0, 10, 10}, Box{5, 20, 15, 30}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.a, tt.b); got != tt.want {
				t.Errorf("Overlaps(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := Overlaps(tt.b, tt.a); got != tt.want {
				t.Errorf("Overlaps(%v, %v) = %v, want %v", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestIntersect(t *testing.T) {
	a := Box{0, 0, 10, 10}
	b := Box{5, 5, 15, 15}
	got := Intersect(a, b)
	want := Box{5, 5, 10, 10}
	if got != want {
		t.Errorf("Intersect(%v, %v) = %v, want %v", a, b, got, want)
	}

	if got := Intersect(a, Box{20, 20, 30, 30}); got != (Box{}) {
		t.Errorf("Intersect of disjoint boxes = %v, want zero box", got)
	}
}

func TestOverlapRatioBounds(t *testing.T) {
	boxes := []Box{
		{0, 0, 10, 10},
		{5, 5, 15, 15},
		{0, 0, 100, 100},
		{10, 10, 50, 50},
		{200, 200, 300, 300},
		{0, 0, 0, 0},
	}
	for _, a := range boxes {
		for _, b := range boxes {
			r := OverlapRatio(a, b)
			if r < 0 || r > 1 {
				t.Errorf("OverlapRatio(%v, %v) = %v, outside [0,1]", a, b, r)
			}
		}
	}
}

func TestOverlapRatioAsymmetry(t *testing.T) {
	small := Box{10, 10, 20, 20}
	large := Box{0, 0, 100, 100}

	// Small box fully inside: full coverage of the small box, but only a
	// sliver of the large one.
	if got := OverlapRatio(small, large); !almostEqual(got, 1.0) {
		t.Errorf("OverlapRatio(small, large) = %v, want 1.0", got)
	}
	if got := OverlapRatio(large, small); !almostEqual(got, 0.01) {
		t.Errorf("OverlapRatio(large, small) = %v, want 0.01", got)
	}

	// Equal areas overlap each other by the same fraction.
	a := Box{0, 0, 10, 10}
	b := Box{5, 0, 15, 10}
	if ab, ba := OverlapRatio(a, b), OverlapRatio(b, a); !almostEqual(ab, ba) {
		t.Errorf("equal-area boxes: OverlapRatio(a, b) = %v, OverlapRatio(b, a) = %v", ab, ba)
	}
}

func TestOverlapRatioZeroCases(t *testing.T) {
	tests := []struct {
		name string
		a, b Box
	}{
		{"disjoint", Box{0, 0, 10, 10}, Box{20, 20, 30, 30}},
		{"zero area first", Box{5, 5, 5, 5}, Box{0, 0, 10, 10}},
		{"zero area second", Box{0, 0, 10, 10}, Box{5, 5, 5, 5}},
		{"shared edge", Box{0, 0, 10, 10}, Box{10, 0, 20, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OverlapRatio(tt.a, tt.b); got != 0 {
				t.Errorf("OverlapRatio(%v, %v) = %v, want 0", tt.a, tt.b, got)
			}
		})
	}
}

func TestContained(t *testing.T) {
	tests := []struct {
		name      string
		inner     Box
		outer     Box
		tolerance float64
		want      bool
	}{
		{"fully inside", Box{10, 10, 50, 50}, Box{0, 0, 100, 100}, 0.9, true},
		{"exact match", Box{0, 0, 10, 10}, Box{0, 0, 10, 10}, 1.0, true},
		{"slight spillover", Box{0, 0, 10, 10}, Box{0.5, 0, 10, 10}, 0.9, true},
		{"half outside", Box{0, 0, 10, 10}, Box{5, 0, 15, 10}, 0.9, false},
		{"disjoint", Box{0, 0, 10, 10}, Box{20, 20, 30, 30}, 0.9, false},
		{"degenerate inner", Box{5, 5, 5, 5}, Box{0, 0, 10, 10}, 0.9, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Contained(tt.inner, tt.outer, tt.tolerance); got != tt.want {
				t.Errorf("Contained(%v, %v, %v) = %v, want %v", tt.inner, tt.outer, tt.tolerance, got, tt.want)
			}
		})
	}
}

func TestContainedImpliesFullOverlapRatio(t *testing.T) {
	inner := Box{10, 10, 50, 50}
	outer := Box{0, 0, 100, 100}
	if !Contained(inner, outer, 1.0) {
		t.Fatalf("Contained(%v, %v, 1.0) = false, want true", inner, outer)
	}
	if got := OverlapRatio(inner, outer); !almostEqual(got, 1.0) {
		t.Errorf("OverlapRatio(%v, %v) = %v, want 1.0", inner, outer, got)
	}
}
