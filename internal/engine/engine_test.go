package engine

import (
	"bytes"
	"math"
	"testing"
)

func TestParseStextImages(t *testing.T) {
	// The engine line-wraps base64 payloads; the parser must tolerate that.
	html := `<div id="page0" style="position:relative;width:612pt;height:792pt">
<p style="top:10pt;left:20pt"><span>Heading</span></p>
<img style="position:absolute;top:72.5pt;left:36pt;width:120pt;height:80.25pt" src="data:image/png;base64,aGVsbG8gaW1h
Z2UgZGF0YQ=="/>
<img style="position:absolute;top:300pt;left:50pt;width:200pt;height:100pt" src="data:image/jpeg;base64,c2Vjb25kIGltYWdl"/>
</div>`

	images, err := parseStextImages(html)
	if err != nil {
		t.Fatalf("parseStextImages: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("got %d images, want 2", len(images))
	}

	first := images[0]
	if !bytes.Equal(first.Data, []byte("hello image data")) {
		t.Errorf("first payload = %q, want %q", first.Data, "hello image data")
	}
	if first.Format != "png" {
		t.Errorf("first format = %q, want png", first.Format)
	}
	if first.Box.X0 != 36 || first.Box.Y0 != 72.5 {
		t.Errorf("first origin = (%v,%v), want (36,72.5)", first.Box.X0, first.Box.Y0)
	}
	if math.Abs(first.Box.Width()-120) > 1e-9 || math.Abs(first.Box.Height()-80.25) > 1e-9 {
		t.Errorf("first size = %vx%v, want 120x80.25", first.Box.Width(), first.Box.Height())
	}

	second := images[1]
	if second.Format != "jpg" {
		t.Errorf("second format = %q, want jpg", second.Format)
	}
	if !bytes.Equal(second.Data, []byte("second image")) {
		t.Errorf("second payload = %q, want %q", second.Data, "second image")
	}
}

func TestParseStextImagesSkipsCorruptPayload(t *testing.T) {
	html := `<img style="position:absolute;top:0pt;left:0pt;width:10pt;height:10pt" src="data:image/png;base64,%%%invalid%%%"/>
<img style="position:absolute;top:0pt;left:0pt;width:10pt;height:10pt" src="data:image/png;base64,b2s="/>`

	images, err := parseStextImages(html)
	if err != nil {
		t.Fatalf("parseStextImages: %v", err)
	}
	if len(images) != 1 {
		t.Fatalf("got %d images, want 1 (corrupt one skipped)", len(images))
	}
	if string(images[0].Data) != "ok" {
		t.Errorf("payload = %q, want ok", images[0].Data)
	}
}

func TestParseStextImagesNone(t *testing.T) {
	images, err := parseStextImages(`<div id="page0"><p>text only</p></div>`)
	if err != nil {
		t.Fatalf("parseStextImages: %v", err)
	}
	if images != nil {
		t.Errorf("got %d images, want none", len(images))
	}
}

func TestCountStextImages(t *testing.T) {
	html := `<img style="position:absolute;top:0pt;left:0pt;width:1pt;height:1pt" src="data:image/png;base64,AA=="/>
<img style="position:absolute;top:9pt;left:9pt;width:1pt;height:1pt" src="data:image/jpeg;base64,AA=="/>`
	if n := countStextImages(html); n != 2 {
		t.Errorf("countStextImages = %d, want 2", n)
	}
	if n := countStextImages("<p>no images</p>"); n != 0 {
		t.Errorf("countStextImages = %d, want 0", n)
	}
}

func TestParseStextBox(t *testing.T) {
	tests := []struct {
		name    string
		style   string
		want    [4]float64 // x0, y0, x1, y1
		wantErr bool
	}{
		{
			name:  "plain",
			style: "position:absolute;top:72pt;left:36pt;width:100pt;height:50pt",
			want:  [4]float64{36, 72, 136, 122},
		},
		{
			name:  "fractional",
			style: "position:absolute;top:1.5pt;left:2.25pt;width:10.5pt;height:4.75pt",
			want:  [4]float64{2.25, 1.5, 12.75, 6.25},
		},
		{
			name:    "missing height",
			style:   "position:absolute;top:72pt;left:36pt;width:100pt",
			wantErr: true,
		},
		{
			name:    "garbage length",
			style:   "position:absolute;top:XXpt;left:36pt;width:100pt;height:50pt",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box, err := parseStextBox(tt.style)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseStextBox: %v", err)
			}
			got := [4]float64{box.X0, box.Y0, box.X1, box.Y1}
			if got != tt.want {
				t.Errorf("box = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCountPrimitives(t *testing.T) {
	tests := []struct {
		name       string
		svg        string
		wantCurves int
		wantLines  int
		wantRects  int
	}{
		{
			name: "path segments",
			svg:  `<path fill="#000000" d="M 0 0 L 10 0 L 10 10 C 1 2 3 4 5 6 Z"/>`,
			// two line segments, one cubic
			wantCurves: 1,
			wantLines:  2,
		},
		{
			name:      "shorthand segments",
			svg:       `<path stroke="#ff0000" d="M0 0 H10 V10 l-5 -5"/>`,
			wantLines: 3,
		},
		{
			name:       "arc and quadratic",
			svg:        `<path d="M0 0 A 5 5 0 0 1 10 10 Q 1 1 2 2 T 4 4"/>`,
			wantCurves: 3,
		},
		{
			name:      "elements",
			svg:       `<rect x="0" y="0" width="5" height="5"/><line x1="0" y1="0" x2="1" y2="1"/><polyline points="0,0 1,1"/><circle cx="1" cy="1" r="1"/><ellipse cx="2" cy="2" rx="1" ry="2"/>`,
			wantRects: 1,
			// line + polyline
			wantLines:  2,
			wantCurves: 2,
		},
		{
			name: "glyph defs ignored",
			svg: `<defs>
<symbol id="font_0_1"><path d="M 0 0 C 1 1 2 2 3 3 L 4 4"/></symbol>
</defs>
<use xlink:href="#font_0_1" x="10" y="10"/>
<path d="M0 0 L5 5"/>`,
			wantLines: 1,
		},
		{
			name:      "gradient is not a line",
			svg:       `<linearGradient id="g0"><stop offset="0"/></linearGradient><rect fill="url(#g0)" x="0" y="0" width="1" height="1"/>`,
			wantRects: 1,
		},
		{
			name: "empty",
			svg:  `<svg xmlns="http://www.w3.org/2000/svg"></svg>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			curves, lines, rects := CountPrimitives(tt.svg)
			if curves != tt.wantCurves || lines != tt.wantLines || rects != tt.wantRects {
				t.Errorf("CountPrimitives = (curves %d, lines %d, rects %d), want (%d, %d, %d)",
					curves, lines, rects, tt.wantCurves, tt.wantLines, tt.wantRects)
			}
		})
	}
}
