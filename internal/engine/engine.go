package engine

import (
	"fmt"
	"image"
	"unicode/utf8"

	"github.com/gen2brain/go-fitz"

	"github.com/local/pdfimages/internal/classify"
)

// Document wraps a MuPDF document handle. It is the single seam to the PDF
// engine: page text, structural signals, whole-page rasters and embedded
// image objects all come through here. A Document is not safe for use from
// multiple goroutines; the pipeline processes one document per goroutine.
type Document struct {
	doc  *fitz.Document
	name string
}

// Open opens a PDF from the filesystem.
func Open(path string) (*Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return &Document{doc: doc, name: path}, nil
}

// OpenBytes opens a PDF held in memory. The name is only used for reporting.
func OpenBytes(data []byte, name string) (*Document, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF from memory: %w", err)
	}
	return &Document{doc: doc, name: name}, nil
}

// Close releases the underlying engine handle.
func (d *Document) Close() error {
	if d.doc == nil {
		return nil
	}
	err := d.doc.Close()
	d.doc = nil
	return err
}

// Name returns the name the document was opened under.
func (d *Document) Name() string { return d.name }

// SetName overrides the reported name. Useful when the document was staged
// through a temp file and the original filename should show in results.
func (d *Document) SetName(name string) {
	if name != "" {
		d.name = name
	}
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return d.doc.NumPage() }

// Metadata returns the document information dictionary (creator, producer,
// title and friends) with the engine's lowercase keys.
func (d *Document) Metadata() map[string]string { return d.doc.Metadata() }

// PageText returns the selectable text of a page (0-based).
func (d *Document) PageText(page int) (string, error) {
	text, err := d.doc.Text(page)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from page %d: %w", page+1, err)
	}
	return text, nil
}

// PageSize returns the page box in points (the PDF's native 72-DPI space).
func (d *Document) PageSize(page int) (width, height float64, err error) {
	bounds, err := d.doc.Bound(page)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read page %d bounds: %w", page+1, err)
	}
	return float64(bounds.Dx()), float64(bounds.Dy()), nil
}

// RenderPage rasterizes a page at the given DPI. The engine scales by
// dpi/72 against the page's native coordinate space.
func (d *Document) RenderPage(page int, dpi float64) (*image.RGBA, error) {
	img, err := d.doc.ImageDPI(page, dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", page+1, err)
	}
	return img, nil
}

// PageImages returns the embedded image objects of a page with their
// placement boxes, decoded from the engine's structured-text export.
func (d *Document) PageImages(page int) ([]PageImage, error) {
	html, err := d.doc.HTML(page, false)
	if err != nil {
		return nil, fmt.Errorf("failed to export page %d layout: %w", page+1, err)
	}
	return parseStextImages(html)
}

// PageSignals probes the structural counters of one page: text characters,
// embedded image objects and vector drawing primitives.
func (d *Document) PageSignals(page int) (classify.PageSignals, error) {
	text, err := d.PageText(page)
	if err != nil {
		return classify.PageSignals{}, err
	}
	html, err := d.doc.HTML(page, false)
	if err != nil {
		return classify.PageSignals{}, fmt.Errorf("failed to export page %d layout: %w", page+1, err)
	}
	svg, err := d.doc.SVG(page)
	if err != nil {
		return classify.PageSignals{}, fmt.Errorf("failed to export page %d vector data: %w", page+1, err)
	}
	curves, lines, rects := CountPrimitives(svg)
	return classify.PageSignals{
		PageIndex:  page,
		TextChars:  utf8.RuneCountInString(text),
		ImageCount: countStextImages(html),
		Curves:     curves,
		Lines:      lines,
		Rects:      rects,
	}, nil
}

// Probe opens a minimal in-memory document to verify the engine binding is
// functional. Used by health checks.
func Probe() error {
	doc, err := OpenBytes([]byte(probePDF), "probe.pdf")
	if err != nil {
		return err
	}
	defer doc.Close()
	if doc.PageCount() != 1 {
		return fmt.Errorf("probe document reported %d pages, want 1", doc.PageCount())
	}
	return nil
}

// probePDF is a one-page empty PDF small enough to inline.
const probePDF = "%PDF-1.4\n" +
	"1 0 obj\n<</Type/Catalog/Pages 2 0 R>>\nendobj\n" +
	"2 0 obj\n<</Type/Pages/Kids[3 0 R]/Count 1>>\nendobj\n" +
	"3 0 obj\n<</Type/Page/Parent 2 0 R/MediaBox[0 0 612 792]>>\nendobj\n" +
	"xref\n0 4\n" +
	"0000000000 65535 f \n" +
	"0000000009 00000 n \n" +
	"0000000054 00000 n \n" +
	"0000000105 00000 n \n" +
	"trailer\n<</Size 4/Root 1 0 R>>\nstartxref\n170\n%%EOF\n"
