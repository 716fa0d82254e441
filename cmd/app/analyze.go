package main

import (
    "encoding/json"
    "fmt"
    "os"
    "path/filepath"

    "github.com/spf13/cobra"

    "github.com/local/pdfimages/internal/classify"
    "github.com/local/pdfimages/internal/engine"
)

var analyzeSummary bool

var analyzeCmd = &cobra.Command{
    Use:   "analyze <file.pdf>",
    Short: "Report page statistics and the computed document type",
    Args:  cobra.ExactArgs(1),
    RunE:  runAnalyze,
}

func init() {
    analyzeCmd.Flags().BoolVar(&analyzeSummary, "summary", false, "print the condensed summary instead of per-page detail")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
    initCLILogging()

    doc, err := engine.Open(args[0])
    if err != nil {
        return fmt.Errorf("failed to open %s: %w", args[0], err)
    }
    defer doc.Close()

    analysis := classify.Analyze(doc, filepath.Base(args[0]))

    enc := json.NewEncoder(os.Stdout)
    enc.SetIndent("", "  ")
    if analyzeSummary {
        return enc.Encode(analysis.Summary())
    }
    return enc.Encode(analysis)
}
