package engine

import "regexp"

// MuPDF's SVG export renders text glyphs as reusable symbols inside <defs>
// and references them with <use>. Stripping the defs block (and ignoring
// <use>) leaves only genuine drawing primitives in the body.
var (
	svgDefsRe    = regexp.MustCompile(`(?s)<defs[^>]*>.*?</defs>`)
	svgPathRe    = regexp.MustCompile(`<path[^>]*?\sd="([^"]*)"`)
	svgRectRe    = regexp.MustCompile(`<rect[\s/>]`)
	svgLineRe    = regexp.MustCompile(`<line[\s/>]`)
	svgPolyRe    = regexp.MustCompile(`<poly(?:line|gon)[\s/>]`)
	svgEllipseRe = regexp.MustCompile(`<(?:circle|ellipse)[\s/>]`)
)

// CountPrimitives tallies the vector drawing primitives in an SVG page
// export. Path data contributes one line per L/H/V segment and one curve
// per C/S/Q/T/A segment; the engine emits every segment command explicitly,
// so the counts track the page's drawing complexity closely enough for
// classification thresholds.
func CountPrimitives(svg string) (curves, lines, rects int) {
	body := svgDefsRe.ReplaceAllString(svg, "")
	rects = len(svgRectRe.FindAllStringIndex(body, -1))
	lines = len(svgLineRe.FindAllStringIndex(body, -1)) + len(svgPolyRe.FindAllStringIndex(body, -1))
	curves = len(svgEllipseRe.FindAllStringIndex(body, -1))
	for _, m := range svgPathRe.FindAllStringSubmatch(body, -1) {
		c, l := countPathSegments(m[1])
		curves += c
		lines += l
	}
	return curves, lines, rects
}

func countPathSegments(d string) (curves, lines int) {
	for _, r := range d {
		switch r {
		case 'C', 'c', 'S', 's', 'Q', 'q', 'T', 't', 'A', 'a':
			curves++
		case 'L', 'l', 'H', 'h', 'V', 'v':
			lines++
		}
	}
	return curves, lines
}
