package extract

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfimages/internal/classify"
	"github.com/local/pdfimages/internal/engine"
	"github.com/local/pdfimages/internal/geometry"
	"github.com/local/pdfimages/internal/imaging"
)

// cadPrimitiveThreshold marks drawings too dense for a single render pass.
// A first page above this many primitives gets the combined dual render.
const cadPrimitiveThreshold = 10000

// Text-only page cutoffs: a page with no images, almost no drawings and a
// solid block of text contributes nothing worth extracting.
const (
	skipMaxDrawings = 20
	skipMinChars    = 500
)

// Engine is the document access the extractor needs. *engine.Document
// satisfies it; tests substitute fakes.
type Engine interface {
	Name() string
	PageCount() int
	Metadata() map[string]string
	PageSignals(page int) (classify.PageSignals, error)
	PageSize(page int) (width, height float64, err error)
	PageImages(page int) ([]engine.PageImage, error)
	RenderPage(page int, dpi float64) (*image.RGBA, error)
}

// Result is the outcome of one extraction run.
type Result struct {
	Success    bool             `json:"success"`
	Count      int              `json:"extracted_count"`
	Mode       classify.Verdict `json:"mode"`
	Images     []Record         `json:"images"`
	PDFInfo    classify.Summary `json:"pdf_info"`
	OutputDir  string           `json:"output_dir,omitempty"`
	Rejections map[string]int   `json:"filtered_candidates,omitempty"`
	Message    string           `json:"message,omitempty"`
}

// Extractor runs one document end to end: classify, pick a strategy, filter
// candidates and write the survivors into OutputDir. One Extractor serves
// one document; it is not reusable.
type Extractor struct {
	Engine    Engine
	OutputDir string
	Options   Options

	// OnPage, when set, is called after each processed page with the
	// 1-based page number and the page total. Drives progress reporting.
	OnPage func(done, total int)

	verdict  classify.Verdict
	analysis *classify.Analysis
	state    *State
	written  map[int]int
}

// New builds an extractor with normalized options.
func New(eng Engine, outputDir string, opts Options) *Extractor {
	return &Extractor{Engine: eng, OutputDir: outputDir, Options: opts.Normalize()}
}

// Extract performs the run. Page-level failures are logged and skipped; the
// returned error is reserved for fatal conditions (bad input, cancelled
// context, unusable output directory).
func (e *Extractor) Extract(ctx context.Context) (*Result, error) {
	if e.Engine.PageCount() == 0 {
		return nil, &InputError{File: e.Engine.Name(), Reason: "document has no pages"}
	}
	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	e.state = NewState()
	e.written = make(map[int]int)
	e.analysis = classify.Analyze(e.Engine, filepath.Base(e.Engine.Name()))
	e.verdict = classify.Override(e.analysis.PDFType, e.Options.ForceMode)

	log.Info().Str("file", e.analysis.FileName).Str("pdf_type", string(e.verdict)).
		Int("pages", e.analysis.PageCount).Int("dpi", e.Options.DPI).
		Msg("starting image extraction")

	// With text filtering on, a document whose sampled pages carry no image
	// objects is not worth touching at all for the text-driven verdicts.
	if e.Options.FilterText && (e.verdict == classify.Text || e.verdict == classify.Digital) &&
		e.analysis.TotalImages == 0 {
		log.Info().Str("file", e.analysis.FileName).Msg("text-only document, skipping extraction")
		return e.result(nil, "text-only document, nothing to extract"), nil
	}

	var records []Record
	var err error
	if e.verdict == classify.Digital {
		records, err = e.extractObjects(ctx)
	} else {
		records, err = e.renderPages(ctx)
	}
	if err != nil {
		return nil, err
	}

	// One-shot fallback: a run that found nothing tries the other strategy
	// once. Skipped when text filtering asked for exactly this outcome.
	if len(records) == 0 && !e.Options.FilterText {
		if e.verdict == classify.Digital {
			log.Info().Str("file", e.analysis.FileName).
				Msg("no image objects survived, falling back to page rendering")
			records, err = e.renderAll(ctx, MethodBackupPageRender)
		} else {
			log.Info().Str("file", e.analysis.FileName).
				Msg("page rendering produced nothing, falling back to object extraction")
			records, err = e.extractObjects(ctx)
		}
		if err != nil {
			return nil, err
		}
	}

	return e.result(records, ""), nil
}

func (e *Extractor) result(records []Record, message string) *Result {
	if records == nil {
		records = []Record{}
	}
	log.Info().Str("file", e.analysis.FileName).Int("extracted", len(records)).
		Int("filtered", e.state.RejectedTotal()).Msg("extraction finished")
	return &Result{
		Success:    true,
		Count:      len(records),
		Mode:       e.verdict,
		Images:     records,
		PDFInfo:    e.analysis.Summary(),
		OutputDir:  e.OutputDir,
		Rejections: e.state.Rejections(),
		Message:    message,
	}
}

// renderPages is the whole-page strategy used for vector, scanned and text
// verdicts. Dense vector drawings upgrade to the combined dual render.
func (e *Extractor) renderPages(ctx context.Context) ([]Record, error) {
	method := MethodPageRender
	if e.verdict == classify.Vector && len(e.analysis.Pages) > 0 &&
		e.analysis.Pages[0].VectorCount > cadPrimitiveThreshold {
		method = MethodCADRender
		log.Info().Int("primitives", e.analysis.Pages[0].VectorCount).
			Msg("dense drawing detected, using combined dual render")
	}
	return e.renderAll(ctx, method)
}

func (e *Extractor) renderAll(ctx context.Context, method Method) ([]Record, error) {
	total := e.Engine.PageCount()
	records := make([]Record, 0, total)
	for page := 0; page < total; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.skipTextOnlyPage(page) {
			e.pageDone(page, total)
			continue
		}
		rec, err := e.renderOne(page, method)
		if err != nil {
			log.Warn().Err(err).Int("page", page+1).Msg("failed to render page")
			e.pageDone(page, total)
			continue
		}
		if rec != nil {
			records = append(records, *rec)
		}
		e.pageDone(page, total)
	}
	return records, nil
}

func (e *Extractor) renderOne(page int, method Method) (*Record, error) {
	var img *image.RGBA
	var err error
	if method == MethodCADRender {
		img, err = e.renderCAD(page)
	} else {
		img, err = e.Engine.RenderPage(page, float64(e.Options.DPI))
	}
	if err != nil {
		return nil, &PageError{Page: page + 1, Op: "render", Err: err}
	}
	data, err := imaging.EncodePNG(img)
	if err != nil {
		return nil, &PageError{Page: page + 1, Op: "encode", Err: err}
	}
	b := img.Bounds()
	return e.writeRecord(page, data, "png", b.Dx(), b.Dy(), e.pageBox(page), method, e.Options.DPI)
}

// renderCAD renders the page at 1x and 2x, downscales the 2x pass back and
// keeps the darker channel of the two. Hairline strokes that a single pass
// washes out survive the supersampled pass; a final darkening sweep pushes
// thin grey lines back to solid.
func (e *Extractor) renderCAD(page int) (*image.RGBA, error) {
	dpi := float64(e.Options.DPI)
	base, err := e.Engine.RenderPage(page, dpi)
	if err != nil {
		return nil, err
	}
	double, err := e.Engine.RenderPage(page, dpi*2)
	if err != nil {
		log.Warn().Err(err).Int("page", page+1).
			Msg("supersampled render failed, keeping single pass")
		return base, nil
	}
	b := base.Bounds()
	combined := imaging.MinCombine(base, imaging.DownscaleTo(double, b.Dx(), b.Dy()))
	imaging.DarkenLines(combined)
	return combined, nil
}

// extractObjects is the per-object strategy for digital documents: lift the
// embedded image objects off each page and keep what the filter accepts.
func (e *Extractor) extractObjects(ctx context.Context) ([]Record, error) {
	total := e.Engine.PageCount()
	records := make([]Record, 0)
	for page := 0; page < total; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		images, err := e.Engine.PageImages(page)
		if err != nil {
			log.Warn().Err(err).Int("page", page+1).Msg("failed to read page images")
			e.pageDone(page, total)
			continue
		}
		cands := e.decodeCandidates(page, images)
		for _, c := range FilterCandidates(cands, e.Options, e.state) {
			rec, err := e.writeRecord(c.Page, c.Data, c.Format, c.Width, c.Height,
				c.Box, MethodObjectExtraction, 0)
			if err != nil {
				log.Warn().Err(err).Int("page", page+1).Msg("failed to write image")
				continue
			}
			if rec != nil {
				records = append(records, *rec)
			}
		}
		e.pageDone(page, total)
	}
	return records, nil
}

func (e *Extractor) decodeCandidates(page int, images []engine.PageImage) []Candidate {
	cands := make([]Candidate, 0, len(images))
	for i, pi := range images {
		img, _, err := imaging.Decode(pi.Data)
		if err != nil {
			log.Debug().Err(err).Int("page", page+1).Int("index", i+1).
				Msg("skipping undecodable image object")
			continue
		}
		b := img.Bounds()
		cands = append(cands, Candidate{
			Page:   page,
			Box:    pi.Box,
			Data:   pi.Data,
			Image:  img,
			Format: pi.Format,
			Width:  b.Dx(),
			Height: b.Dy(),
		})
	}
	return cands
}

// skipTextOnlyPage applies the per-page text filter. Vector documents are
// exempt: their pages legitimately carry no image objects.
func (e *Extractor) skipTextOnlyPage(page int) bool {
	if !e.Options.FilterText || e.verdict == classify.Vector {
		return false
	}
	sig, err := e.Engine.PageSignals(page)
	if err != nil {
		return false
	}
	if sig.ImageCount == 0 && sig.VectorCount() < skipMaxDrawings && sig.TextChars > skipMinChars {
		log.Debug().Int("page", page+1).Int("text_chars", sig.TextChars).
			Msg("skipping text-only page")
		return true
	}
	return false
}

// writeRecord materializes one accepted candidate: digest, duplicate check
// against the document-wide set, deterministic filename, write.
func (e *Extractor) writeRecord(page int, data []byte, format string, width, height int,
	box geometry.Box, method Method, dpi int) (*Record, error) {

	digest := Digest(data)
	if e.Options.FilterDuplicates && e.state.SeenDigest(digest) {
		e.state.reject(ReasonDuplicate)
		log.Debug().Int("page", page+1).Str("hash", digest[:8]).
			Msg("skipping exact duplicate")
		return nil, nil
	}
	index := e.written[page] + 1
	name := recordFileName(page+1, index, digest, format)
	path := filepath.Join(e.OutputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, &CandidateError{Page: page + 1, Index: index, Op: "write", Err: err}
	}
	e.written[page] = index
	e.state.AddDigest(digest)
	return &Record{
		Page:      page + 1,
		Index:     index,
		FileName:  name,
		FilePath:  path,
		Format:    format,
		Width:     width,
		Height:    height,
		SizeBytes: len(data),
		Hash:      digest,
		Box:       box,
		DPI:       dpi,
		Method:    method,
	}, nil
}

func (e *Extractor) pageDone(page, total int) {
	if e.OnPage != nil {
		e.OnPage(page+1, total)
	}
}

func (e *Extractor) pageBox(page int) geometry.Box {
	w, h, err := e.Engine.PageSize(page)
	if err != nil {
		return geometry.Box{}
	}
	return geometry.Box{X1: w, Y1: h}
}
