package extract

import "github.com/local/pdfimages/internal/imaging"

// Denominator selection for pairwise overlap ratios. With "smaller" a small
// box sitting on a large one scores high and gets rejected; "larger" only
// rejects when the boxes are close in size.
const (
	DenominatorSmaller = "smaller"
	DenominatorLarger  = "larger"
)

// Options control one extraction run. The zero value is not usable; start
// from DefaultOptions and override.
type Options struct {
	// MinSize is the minimum candidate area. Decoded bitmaps measure in
	// pixels, bare boxes in page points.
	MinSize float64 `json:"min_size"`

	// FilterDuplicates enables pixel-similarity and exact-digest rejection.
	FilterDuplicates bool `json:"filter_duplicates"`

	// FilterContained rejects candidates mostly inside an accepted one.
	FilterContained bool `json:"filter_contained"`

	// ContainTolerance is the overlap fraction that counts as containment.
	ContainTolerance float64 `json:"contain_tolerance"`

	// OverlapThreshold rejects candidates whose overlap ratio with an
	// accepted candidate exceeds it.
	OverlapThreshold float64 `json:"overlap_threshold"`

	// DuplicateThreshold is the pixel similarity at which two candidates
	// count as the same image.
	DuplicateThreshold float64 `json:"duplicate_threshold"`

	// ForceMode overrides the computed document verdict when set to one of
	// vector, scanned, digital, text.
	ForceMode string `json:"force_mode,omitempty"`

	// DPI used for whole-page rendering.
	DPI int `json:"dpi"`

	// JPEGQuality used when re-encoding JPEG output.
	JPEGQuality int `json:"jpeg_quality"`

	// FilterText skips text-only pages and text-only documents.
	FilterText bool `json:"filter_text"`

	// RatioDenominator picks the overlap denominator: smaller or larger.
	RatioDenominator string `json:"ratio_denominator"`
}

// DefaultOptions returns the tuned defaults for production runs.
func DefaultOptions() Options {
	return Options{
		MinSize:            100,
		FilterDuplicates:   true,
		FilterContained:    true,
		ContainTolerance:   0.9,
		OverlapThreshold:   0.8,
		DuplicateThreshold: 0.9,
		DPI:                300,
		JPEGQuality:        imaging.DefaultJPEGQuality,
		RatioDenominator:   DenominatorSmaller,
	}
}

// Normalize fills unusable numeric values with defaults so a sparsely
// populated Options (form input, queue payload) still runs safely.
func (o Options) Normalize() Options {
	def := DefaultOptions()
	if o.MinSize <= 0 {
		o.MinSize = def.MinSize
	}
	if o.ContainTolerance <= 0 || o.ContainTolerance > 1 {
		o.ContainTolerance = def.ContainTolerance
	}
	if o.OverlapThreshold <= 0 || o.OverlapThreshold > 1 {
		o.OverlapThreshold = def.OverlapThreshold
	}
	if o.DuplicateThreshold <= 0 || o.DuplicateThreshold > 1 {
		o.DuplicateThreshold = def.DuplicateThreshold
	}
	if o.DPI <= 0 {
		o.DPI = def.DPI
	}
	if o.JPEGQuality <= 0 || o.JPEGQuality > 100 {
		o.JPEGQuality = def.JPEGQuality
	}
	if o.RatioDenominator != DenominatorLarger {
		o.RatioDenominator = DenominatorSmaller
	}
	return o
}
