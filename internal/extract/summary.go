package extract

import (
	"fmt"
	"sort"
	"strings"
)

// Size buckets for the run summary.
const (
	smallImageBytes = 10 * 1024
	largeImageBytes = 100 * 1024
)

// FormatSummary renders a run result for terminal output: totals, method
// and format breakdowns, size buckets and filter tallies.
func FormatSummary(res *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Extracted %d image(s)\n", res.Count)
	fmt.Fprintf(&b, "  document type: %s", res.PDFInfo.PDFType)
	if res.Mode != res.PDFInfo.PDFType {
		fmt.Fprintf(&b, " (forced to %s)", res.Mode)
	}
	fmt.Fprintf(&b, ", %d page(s)\n", res.PDFInfo.PageCount)
	if res.Message != "" {
		fmt.Fprintf(&b, "  %s\n", res.Message)
	}
	if res.Count == 0 {
		writeRejections(&b, res.Rejections)
		return b.String()
	}

	methods := make(map[string]int)
	formats := make(map[string]int)
	var small, medium, large, totalBytes int
	for _, rec := range res.Images {
		methods[string(rec.Method)]++
		formats[rec.Format]++
		totalBytes += rec.SizeBytes
		switch {
		case rec.SizeBytes < smallImageBytes:
			small++
		case rec.SizeBytes <= largeImageBytes:
			medium++
		default:
			large++
		}
	}

	b.WriteString("  methods: " + joinCounts(methods) + "\n")
	b.WriteString("  formats: " + joinCounts(formats) + "\n")
	fmt.Fprintf(&b, "  sizes: %d small (<10KB), %d medium, %d large (>100KB), %s total\n",
		small, medium, large, humanBytes(totalBytes))
	writeRejections(&b, res.Rejections)
	return b.String()
}

func writeRejections(b *strings.Builder, rejections map[string]int) {
	if len(rejections) == 0 {
		return
	}
	b.WriteString("  filtered: " + joinCounts(rejections) + "\n")
}

func joinCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return strings.Join(parts, ", ")
}

func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}
