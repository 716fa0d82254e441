package extract

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfimages/internal/geometry"
	"github.com/local/pdfimages/internal/imaging"
)

// blankFraction is how much of a bitmap must be near-white or near-black
// before it counts as an extraction artifact.
const blankFraction = 0.95

// FilterCandidates reduces a page's candidates to the ones worth keeping.
// The pass is greedy largest-first: once a candidate is accepted, later
// (smaller) candidates that are contained in it, overlap it too much or
// look pixel-identical to it are dropped. Rejections are tallied in state.
//
// Tiny and blank candidates go first, independent of any accepted set:
// engines emit 1x1 tracking pixels and solid white/black blocks as real
// image objects and nobody wants those back.
func FilterCandidates(cands []Candidate, opts Options, state *State) []Candidate {
	if state == nil {
		state = NewState()
	}

	filtered := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.area() < opts.MinSize {
			state.reject(ReasonMinSize)
			log.Debug().Int("page", c.Page+1).Float64("area", c.area()).
				Float64("min_size", opts.MinSize).Msg("candidate below minimum size")
			continue
		}
		if c.Image != nil && (imaging.MostlyWhite(c.Image, blankFraction) || imaging.MostlyBlack(c.Image, blankFraction)) {
			state.reject(ReasonBlank)
			log.Debug().Int("page", c.Page+1).Msg("candidate is mostly blank")
			continue
		}
		filtered = append(filtered, c)
	}

	// Largest placement box first; stable so equal areas keep page order.
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Box.Area() > filtered[j].Box.Area()
	})

	accepted := make([]Candidate, 0, len(filtered))
	for _, c := range filtered {
		if reason, ok := rejectAgainst(c, accepted, opts); ok {
			state.reject(reason)
			log.Debug().Int("page", c.Page+1).Str("reason", string(reason)).
				Msg("candidate rejected against accepted set")
			continue
		}
		accepted = append(accepted, c)
	}
	return accepted
}

func rejectAgainst(c Candidate, accepted []Candidate, opts Options) (RejectReason, bool) {
	for _, a := range accepted {
		if opts.FilterContained && geometry.Contained(c.Box, a.Box, opts.ContainTolerance) {
			return ReasonContained, true
		}
		if overlapRatio(c.Box, a.Box, opts.RatioDenominator) > opts.OverlapThreshold {
			return ReasonOverlap, true
		}
		if opts.FilterDuplicates && c.Image != nil && a.Image != nil &&
			imaging.PixelSimilarity(c.Image, a.Image) >= opts.DuplicateThreshold {
			return ReasonSimilar, true
		}
	}
	return "", false
}

// overlapRatio computes the pairwise overlap with the configured
// denominator: the smaller box's area by default, the larger on request.
func overlapRatio(a, b geometry.Box, denominator string) float64 {
	if denominator == DenominatorLarger {
		if a.Area() >= b.Area() {
			return geometry.OverlapRatio(a, b)
		}
		return geometry.OverlapRatio(b, a)
	}
	if a.Area() <= b.Area() {
		return geometry.OverlapRatio(a, b)
	}
	return geometry.OverlapRatio(b, a)
}
