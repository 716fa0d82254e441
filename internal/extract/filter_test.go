package extract

import (
	"image"
	"image/color"
	"testing"

	"github.com/local/pdfimages/internal/geometry"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

var (
	gray     = color.RGBA{128, 128, 128, 255}
	darkGray = color.RGBA{70, 70, 70, 255}
	white    = color.RGBA{255, 255, 255, 255}
	black    = color.RGBA{0, 0, 0, 255}
)

func boxCandidate(x0, y0, x1, y1 float64) Candidate {
	return Candidate{Box: geometry.Box{X0: x0, Y0: y0, X1: x1, Y1: y1}}
}

func TestFilterCandidatesMinSize(t *testing.T) {
	opts := DefaultOptions()
	state := NewState()

	// Area 10000 clears the default minimum of 100 comfortably.
	got := FilterCandidates([]Candidate{boxCandidate(0, 0, 100, 100)}, opts, state)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}

	opts.MinSize = 20000
	state = NewState()
	got = FilterCandidates([]Candidate{boxCandidate(0, 0, 100, 100)}, opts, state)
	if len(got) != 0 {
		t.Fatalf("got %d candidates, want 0", len(got))
	}
	if state.Rejections()[string(ReasonMinSize)] != 1 {
		t.Errorf("rejections = %v, want one min_size", state.Rejections())
	}
}

func TestFilterCandidatesMinSizeUsesBitmapArea(t *testing.T) {
	// A tiny decoded bitmap is rejected even when its placement box is huge.
	c := boxCandidate(0, 0, 500, 500)
	c.Image = solidImage(5, 5, gray)
	c.Width, c.Height = 5, 5

	state := NewState()
	got := FilterCandidates([]Candidate{c}, DefaultOptions(), state)
	if len(got) != 0 {
		t.Fatalf("got %d candidates, want 0", len(got))
	}
	if state.Rejections()[string(ReasonMinSize)] != 1 {
		t.Errorf("rejections = %v, want one min_size", state.Rejections())
	}
}

func TestFilterCandidatesBlank(t *testing.T) {
	tests := []struct {
		name string
		fill color.RGBA
		kept bool
	}{
		{"white", white, false},
		{"black", black, false},
		{"gray", gray, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := boxCandidate(0, 0, 50, 50)
			c.Image = solidImage(50, 50, tt.fill)
			c.Width, c.Height = 50, 50

			state := NewState()
			got := FilterCandidates([]Candidate{c}, DefaultOptions(), state)
			if kept := len(got) == 1; kept != tt.kept {
				t.Errorf("kept = %v, want %v", kept, tt.kept)
			}
			if !tt.kept && state.Rejections()[string(ReasonBlank)] != 1 {
				t.Errorf("rejections = %v, want one blank", state.Rejections())
			}
		})
	}
}

func TestFilterCandidatesContainment(t *testing.T) {
	big := boxCandidate(0, 0, 200, 200)
	small := boxCandidate(10, 10, 60, 60)

	state := NewState()
	got := FilterCandidates([]Candidate{small, big}, DefaultOptions(), state)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	// Largest-first greedy pass keeps the big one.
	if got[0].Box != big.Box {
		t.Errorf("kept %+v, want the larger box", got[0].Box)
	}
	if state.Rejections()[string(ReasonContained)] != 1 {
		t.Errorf("rejections = %v, want one contained", state.Rejections())
	}
}

func TestFilterCandidatesPartialOverlapKept(t *testing.T) {
	a := boxCandidate(0, 0, 100, 100)
	b := boxCandidate(90, 0, 190, 100) // 10% overlap relative to either box

	got := FilterCandidates([]Candidate{a, b}, DefaultOptions(), NewState())
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
}

func TestFilterCandidatesOverlapDenominator(t *testing.T) {
	// The small box sits fully on the big one. Relative to the smaller area
	// the overlap is total; relative to the larger it is only a quarter.
	big := boxCandidate(0, 0, 100, 100)
	small := boxCandidate(0, 0, 50, 50)

	opts := DefaultOptions()
	opts.FilterContained = false

	state := NewState()
	got := FilterCandidates([]Candidate{big, small}, opts, state)
	if len(got) != 1 {
		t.Fatalf("smaller denominator: got %d candidates, want 1", len(got))
	}
	if state.Rejections()[string(ReasonOverlap)] != 1 {
		t.Errorf("rejections = %v, want one overlap", state.Rejections())
	}

	opts.RatioDenominator = DenominatorLarger
	got = FilterCandidates([]Candidate{big, small}, opts, NewState())
	if len(got) != 2 {
		t.Fatalf("larger denominator: got %d candidates, want 2", len(got))
	}
}

func TestFilterCandidatesPixelSimilarity(t *testing.T) {
	// Disjoint boxes, identical pixels: only the similarity check can
	// reject the second one.
	a := boxCandidate(0, 0, 100, 100)
	a.Image = solidImage(40, 40, darkGray)
	a.Width, a.Height = 40, 40
	b := boxCandidate(300, 300, 400, 400)
	b.Image = solidImage(40, 40, darkGray)
	b.Width, b.Height = 40, 40

	state := NewState()
	got := FilterCandidates([]Candidate{a, b}, DefaultOptions(), state)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if state.Rejections()[string(ReasonSimilar)] != 1 {
		t.Errorf("rejections = %v, want one similar", state.Rejections())
	}

	opts := DefaultOptions()
	opts.FilterDuplicates = false
	got = FilterCandidates([]Candidate{a, b}, opts, NewState())
	if len(got) != 2 {
		t.Fatalf("duplicates off: got %d candidates, want 2", len(got))
	}
}

func TestFilterCandidatesLargestFirst(t *testing.T) {
	cands := []Candidate{
		boxCandidate(0, 0, 10, 10),
		boxCandidate(500, 500, 700, 700),
		boxCandidate(100, 100, 150, 150),
	}
	got := FilterCandidates(cands, DefaultOptions(), NewState())
	if len(got) != 3 {
		t.Fatalf("got %d candidates, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Box.Area() > got[i-1].Box.Area() {
			t.Errorf("candidate %d larger than %d: areas %v then %v",
				i, i-1, got[i-1].Box.Area(), got[i].Box.Area())
		}
	}
}

func TestFilterCandidatesIdempotent(t *testing.T) {
	cands := []Candidate{
		boxCandidate(0, 0, 200, 200),
		boxCandidate(10, 10, 60, 60),
		boxCandidate(300, 0, 400, 100),
	}
	first := FilterCandidates(cands, DefaultOptions(), NewState())
	second := FilterCandidates(first, DefaultOptions(), NewState())
	if len(first) != len(second) {
		t.Fatalf("second pass changed the set: %d then %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Box != second[i].Box {
			t.Errorf("candidate %d moved: %+v then %+v", i, first[i].Box, second[i].Box)
		}
	}
}

func TestStateDigests(t *testing.T) {
	state := NewState()
	d := Digest([]byte("payload"))
	if state.SeenDigest(d) {
		t.Error("fresh state claims to have seen a digest")
	}
	state.AddDigest(d)
	if !state.SeenDigest(d) {
		t.Error("digest not found after AddDigest")
	}
	if state.SeenDigest(Digest([]byte("other"))) {
		t.Error("unrelated digest reported as seen")
	}
}
