package classify

import (
	"errors"
	"testing"
)

func TestClassifyPriorityOrder(t *testing.T) {
	tests := []struct {
		name  string
		pages []PageSignals
		want  Verdict
	}{
		{
			name:  "vector count dominates text",
			pages: []PageSignals{{TextChars: 5000, Curves: 1500}},
			want:  Vector,
		},
		{
			name:  "vector count dominates images",
			pages: []PageSignals{{ImageCount: 10, TextChars: 20, Lines: 600, Rects: 600}},
			want:  Vector,
		},
		{
			name:  "images with little text",
			pages: []PageSignals{{ImageCount: 2, TextChars: 50}},
			want:  Scanned,
		},
		{
			name:  "images with text",
			pages: []PageSignals{{ImageCount: 2, TextChars: 2000}},
			want:  Digital,
		},
		{
			name:  "images with exactly 100 chars",
			pages: []PageSignals{{ImageCount: 1, TextChars: 100}},
			want:  Digital,
		},
		{
			name:  "images with 99 chars",
			pages: []PageSignals{{ImageCount: 1, TextChars: 99}},
			want:  Scanned,
		},
		{
			name:  "text only",
			pages: []PageSignals{{TextChars: 3000}},
			want:  Text,
		},
		{
			name:  "empty document",
			pages: []PageSignals{{}},
			want:  Text,
		},
		{
			name:  "no signals at all",
			pages: nil,
			want:  Text,
		},
		{
			name: "sums across pages",
			pages: []PageSignals{
				{PageIndex: 0, Curves: 400},
				{PageIndex: 1, Lines: 400},
				{PageIndex: 2, Rects: 400},
			},
			want: Vector,
		},
		{
			name:  "exactly 1000 vectors is not vector",
			pages: []PageSignals{{Curves: 1000, ImageCount: 1}},
			want:  Scanned,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.pages); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseVerdict(t *testing.T) {
	valid := map[string]Verdict{
		"vector":    Vector,
		"scanned":   Scanned,
		"digital":   Digital,
		"text":      Text,
		"VECTOR":    Vector,
		" digital ": Digital,
	}
	for in, want := range valid {
		if got, err := ParseVerdict(in); err != nil || got != want {
			t.Errorf("ParseVerdict(%q) = %v, %v; want %v, nil", in, got, err, want)
		}
	}
	for _, in := range []string{"", "cad", "images", "pdf"} {
		if _, err := ParseVerdict(in); err == nil {
			t.Errorf("ParseVerdict(%q) succeeded, want error", in)
		}
	}
}

func TestOverride(t *testing.T) {
	if got := Override(Text, "vector"); got != Vector {
		t.Errorf("Override(Text, vector) = %v, want Vector", got)
	}
	if got := Override(Digital, ""); got != Digital {
		t.Errorf("Override(Digital, empty) = %v, want Digital", got)
	}
	// Invalid modes degrade to the computed verdict instead of failing.
	if got := Override(Scanned, "bogus"); got != Scanned {
		t.Errorf("Override(Scanned, bogus) = %v, want Scanned", got)
	}
}

type fakeProber struct {
	pages    int
	signals  map[int]PageSignals
	failPage int
	probed   []int
}

func (f *fakeProber) PageCount() int { return f.pages }

func (f *fakeProber) PageSignals(page int) (PageSignals, error) {
	f.probed = append(f.probed, page)
	if f.failPage != 0 && page == f.failPage {
		return PageSignals{}, errors.New("probe failed")
	}
	return f.signals[page], nil
}

func (f *fakeProber) PageSize(page int) (float64, float64, error) {
	return 612, 792, nil
}

func (f *fakeProber) Metadata() map[string]string {
	return map[string]string{"creator": "testsuite"}
}

func TestAnalyzeSamplesLeadingPages(t *testing.T) {
	p := &fakeProber{
		pages: 10,
		signals: map[int]PageSignals{
			0: {PageIndex: 0, TextChars: 50, ImageCount: 1},
			1: {PageIndex: 1, TextChars: 30},
			2: {PageIndex: 2, TextChars: 10},
		},
	}
	a := Analyze(p, "sample.pdf")

	if len(p.probed) != SamplePages {
		t.Fatalf("probed %d pages, want %d", len(p.probed), SamplePages)
	}
	if a.PageCount != 10 {
		t.Errorf("PageCount = %d, want 10", a.PageCount)
	}
	if a.TotalTextChars != 90 || a.TotalImages != 1 {
		t.Errorf("totals = %d chars, %d images; want 90, 1", a.TotalTextChars, a.TotalImages)
	}
	if a.PDFType != Scanned {
		t.Errorf("PDFType = %v, want Scanned", a.PDFType)
	}
	if s := a.Summary(); s.Creator != "testsuite" || s.PDFType != Scanned {
		t.Errorf("Summary() = %+v, missing creator or verdict", s)
	}
}

func TestAnalyzeShortDocument(t *testing.T) {
	p := &fakeProber{
		pages:   2,
		signals: map[int]PageSignals{0: {TextChars: 700}, 1: {TextChars: 800}},
	}
	a := Analyze(p, "short.pdf")
	if len(a.Pages) != 2 {
		t.Fatalf("analyzed %d pages, want 2", len(a.Pages))
	}
	if a.PDFType != Text {
		t.Errorf("PDFType = %v, want Text", a.PDFType)
	}
}

func TestAnalyzeSkipsFailedPage(t *testing.T) {
	p := &fakeProber{
		pages:    3,
		failPage: 1,
		signals: map[int]PageSignals{
			0: {TextChars: 40, ImageCount: 1},
			2: {TextChars: 30},
		},
	}
	a := Analyze(p, "broken.pdf")
	if len(a.Pages) != 2 {
		t.Fatalf("analyzed %d pages, want 2 (failed page skipped)", len(a.Pages))
	}
	if a.TotalTextChars != 70 {
		t.Errorf("TotalTextChars = %d, want 70", a.TotalTextChars)
	}
}
