package main

import (
    "github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
    Use:   "pdfimages",
    Short: "Extract embedded and rendered images from PDF documents",
    Long: `pdfimages inspects PDF structure to decide how each document should be
mined for images: embedded XObject extraction for digital PDFs, full-page
rendering for scanned or vector-drawn ones. Candidates are filtered by
size, duplication and containment before being written out.

Run "pdfimages extract" or "pdfimages analyze" for one-shot CLI use, or
"pdfimages serve" to start the HTTP API, queue workers and dashboard.`,
    SilenceUsage: true,
}

func init() {
    rootCmd.AddCommand(serveCmd)
    rootCmd.AddCommand(extractCmd)
    rootCmd.AddCommand(analyzeCmd)
}
