package classify

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Verdict is the document-type classification that drives extraction
// strategy selection.
type Verdict string

const (
	// Vector marks drawing-heavy documents (CAD plans, diagrams).
	Vector Verdict = "vector"
	// Scanned marks documents that are page-sized raster images with
	// little or no selectable text.
	Scanned Verdict = "scanned"
	// Digital marks born-digital documents mixing text and embedded images.
	Digital Verdict = "digital"
	// Text marks documents that are mostly selectable text.
	Text Verdict = "text"
)

// SamplePages caps how many leading pages feed the verdict. Sampling keeps
// classification cheap on large documents; the first pages carry enough
// signal in practice.
const SamplePages = 3

// Decision thresholds, applied to signal sums over the sampled pages.
const (
	vectorThreshold = 1000
	textThreshold   = 100
)

// PageSignals carries the structural counters of a single page.
type PageSignals struct {
	PageIndex  int `json:"page_index"`
	TextChars  int `json:"text_chars"`
	ImageCount int `json:"image_count"`
	Curves     int `json:"curves_count"`
	Lines      int `json:"lines_count"`
	Rects      int `json:"rects_count"`
}

// VectorCount returns the combined number of vector primitives on the page.
func (s PageSignals) VectorCount() int { return s.Curves + s.Lines + s.Rects }

// Classify reduces sampled page signals to a single verdict. The rules apply
// in priority order, first match wins:
//
//  1. more than 1000 vector primitives -> Vector
//  2. images present and fewer than 100 text chars -> Scanned
//  3. images present and at least 100 text chars -> Digital
//  4. otherwise -> Text
//
// The high vector cutoff dominates on purpose: CAD-style drawings pack
// thousands of primitives per page even when raster content is absent.
func Classify(pages []PageSignals) Verdict {
	var text, images, vectors int
	for _, p := range pages {
		text += p.TextChars
		images += p.ImageCount
		vectors += p.VectorCount()
	}
	switch {
	case vectors > vectorThreshold:
		return Vector
	case images > 0 && text < textThreshold:
		return Scanned
	case images > 0:
		return Digital
	default:
		return Text
	}
}

// ParseVerdict converts a caller-supplied mode string into a Verdict.
func ParseVerdict(s string) (Verdict, error) {
	switch Verdict(strings.ToLower(strings.TrimSpace(s))) {
	case Vector:
		return Vector, nil
	case Scanned:
		return Scanned, nil
	case Digital:
		return Digital, nil
	case Text:
		return Text, nil
	}
	return "", fmt.Errorf("invalid extraction mode %q", s)
}

// Override applies a forced mode on top of the computed verdict. An empty
// mode keeps the computed verdict; an invalid mode logs a warning and keeps
// it too, so a bad parameter never aborts a run.
func Override(computed Verdict, forceMode string) Verdict {
	if forceMode == "" {
		return computed
	}
	v, err := ParseVerdict(forceMode)
	if err != nil {
		log.Warn().Str("force_mode", forceMode).Str("detected", string(computed)).
			Msg("invalid force mode, keeping detected type")
		return computed
	}
	return v
}

// PageInfo extends PageSignals with page geometry for analysis reports.
type PageInfo struct {
	PageNumber  int     `json:"page_number"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	TextChars   int     `json:"text_chars"`
	ImageCount  int     `json:"image_count"`
	VectorCount int     `json:"vector_count"`
	CurvesCount int     `json:"curves_count"`
	LinesCount  int     `json:"lines_count"`
	RectsCount  int     `json:"rects_count"`
}

// Analysis is the structural report produced for a document.
type Analysis struct {
	FileName           string            `json:"file_name"`
	PageCount          int               `json:"page_count"`
	Metadata           map[string]string `json:"metadata,omitempty"`
	Pages              []PageInfo        `json:"pages_info"`
	TotalTextChars     int               `json:"total_text_chars"`
	TotalImages        int               `json:"total_images"`
	TotalVectorObjects int               `json:"total_vector_objects"`
	TotalCurves        int               `json:"total_curves"`
	TotalLines         int               `json:"total_lines"`
	TotalRects         int               `json:"total_rects"`
	PDFType            Verdict           `json:"pdf_type"`
}

// Summary is the condensed form of an Analysis used in extraction results.
type Summary struct {
	FileName           string  `json:"file_name"`
	PageCount          int     `json:"page_count"`
	PDFType            Verdict `json:"pdf_type"`
	TotalTextChars     int     `json:"total_text_chars"`
	TotalImages        int     `json:"total_images"`
	TotalVectorObjects int     `json:"total_vector_objects"`
	Creator            string  `json:"creator,omitempty"`
}

// Summary condenses the analysis for result payloads.
func (a *Analysis) Summary() Summary {
	return Summary{
		FileName:           a.FileName,
		PageCount:          a.PageCount,
		PDFType:            a.PDFType,
		TotalTextChars:     a.TotalTextChars,
		TotalImages:        a.TotalImages,
		TotalVectorObjects: a.TotalVectorObjects,
		Creator:            a.Metadata["creator"],
	}
}

// Prober supplies the per-page structural signals the analysis needs. The
// document engine satisfies it.
type Prober interface {
	PageCount() int
	PageSignals(page int) (PageSignals, error)
	PageSize(page int) (width, height float64, err error)
	Metadata() map[string]string
}

// Analyze probes the leading pages of a document and produces the
// structural report together with the computed verdict. A page that fails
// to probe is logged and skipped; it contributes nothing to the sums.
func Analyze(p Prober, fileName string) *Analysis {
	a := &Analysis{
		FileName:  fileName,
		PageCount: p.PageCount(),
		Metadata:  p.Metadata(),
		Pages:     []PageInfo{},
	}

	sampled := a.PageCount
	if sampled > SamplePages {
		sampled = SamplePages
	}

	signals := make([]PageSignals, 0, sampled)
	for i := 0; i < sampled; i++ {
		sig, err := p.PageSignals(i)
		if err != nil {
			log.Warn().Err(err).Int("page", i+1).Str("file", fileName).
				Msg("failed to probe page signals")
			continue
		}
		w, h, err := p.PageSize(i)
		if err != nil {
			log.Warn().Err(err).Int("page", i+1).Str("file", fileName).
				Msg("failed to read page size")
		}
		signals = append(signals, sig)
		a.Pages = append(a.Pages, PageInfo{
			PageNumber:  i + 1,
			Width:       w,
			Height:      h,
			TextChars:   sig.TextChars,
			ImageCount:  sig.ImageCount,
			VectorCount: sig.VectorCount(),
			CurvesCount: sig.Curves,
			LinesCount:  sig.Lines,
			RectsCount:  sig.Rects,
		})
		a.TotalTextChars += sig.TextChars
		a.TotalImages += sig.ImageCount
		a.TotalVectorObjects += sig.VectorCount()
		a.TotalCurves += sig.Curves
		a.TotalLines += sig.Lines
		a.TotalRects += sig.Rects
	}

	a.PDFType = Classify(signals)
	return a
}
