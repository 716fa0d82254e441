package extract

import (
	"image"

	"github.com/local/pdfimages/internal/geometry"
)

// Candidate is one potential output image before filtering: its placement
// box on the page, the encoded bytes and (when decodable) the bitmap.
type Candidate struct {
	Page   int // 0-based page index
	Box    geometry.Box
	Data   []byte
	Image  image.Image // nil when the payload could not be decoded
	Format string
	Width  int
	Height int
}

// area is what MinSize compares against: decoded pixel dimensions when the
// bitmap is available, placement box area otherwise.
func (c Candidate) area() float64 {
	if c.Width > 0 && c.Height > 0 {
		return float64(c.Width) * float64(c.Height)
	}
	return c.Box.Area()
}

// RejectReason labels why the filter dropped a candidate.
type RejectReason string

const (
	ReasonMinSize   RejectReason = "min_size"
	ReasonBlank     RejectReason = "blank"
	ReasonContained RejectReason = "contained"
	ReasonOverlap   RejectReason = "overlap"
	ReasonSimilar   RejectReason = "similar"
	ReasonDuplicate RejectReason = "duplicate"
)

// State is the per-run filter state: the document-wide digest set that
// rejects exact duplicates across pages, plus rejection tallies for the
// run report. Callers create one per document and discard it afterwards.
type State struct {
	digests  map[string]struct{}
	rejected map[RejectReason]int
}

// NewState returns an empty per-document filter state.
func NewState() *State {
	return &State{
		digests:  make(map[string]struct{}),
		rejected: make(map[RejectReason]int),
	}
}

// SeenDigest reports whether an identical payload was already accepted
// anywhere in the document.
func (s *State) SeenDigest(digest string) bool {
	_, ok := s.digests[digest]
	return ok
}

// AddDigest marks a payload digest as accepted.
func (s *State) AddDigest(digest string) { s.digests[digest] = struct{}{} }

func (s *State) reject(r RejectReason) { s.rejected[r]++ }

// Rejections returns a copy of the per-reason rejection counts.
func (s *State) Rejections() map[string]int {
	out := make(map[string]int, len(s.rejected))
	for r, n := range s.rejected {
		out[string(r)] = n
	}
	return out
}

// RejectedTotal is the number of candidates dropped across all reasons.
func (s *State) RejectedTotal() int {
	var n int
	for _, c := range s.rejected {
		n += c
	}
	return n
}
