package main

import (
    "encoding/json"
    "fmt"
    "os"
    "path/filepath"
    "strings"

    "github.com/rs/zerolog/log"
    "github.com/spf13/cobra"

    "github.com/local/pdfimages/internal/engine"
    "github.com/local/pdfimages/internal/extract"
    logpkg "github.com/local/pdfimages/internal/logger"
)

var (
    extractOut         string
    extractDPI         int
    extractMinSize     float64
    extractJPEGQuality int
    extractForceMode   string
    extractFilterText  bool
    extractFilterDup   bool
    extractFilterCont  bool
    extractZip         string
    extractJSON        bool
)

var extractCmd = &cobra.Command{
    Use:   "extract <file.pdf>",
    Short: "Extract images from a PDF into a directory",
    Args:  cobra.ExactArgs(1),
    RunE:  runExtract,
}

func init() {
    def := extract.DefaultOptions()
    f := extractCmd.Flags()
    f.StringVarP(&extractOut, "output", "o", "", "output directory (default <file>_images)")
    f.IntVar(&extractDPI, "dpi", def.DPI, "render resolution for page-mode extraction")
    f.Float64Var(&extractMinSize, "min-size", def.MinSize, "minimum candidate area, px for bitmaps and pt for boxes")
    f.IntVar(&extractJPEGQuality, "jpeg-quality", def.JPEGQuality, "quality for re-encoded JPEG output")
    f.StringVar(&extractForceMode, "force-mode", "", "override the document verdict: vector, scanned, digital or text")
    f.BoolVar(&extractFilterText, "filter-text", def.FilterText, "skip text-only pages and documents")
    f.BoolVar(&extractFilterDup, "filter-duplicates", def.FilterDuplicates, "drop near-identical images")
    f.BoolVar(&extractFilterCont, "filter-contained", def.FilterContained, "drop images mostly inside an accepted one")
    f.StringVar(&extractZip, "zip", "", "also write a zip archive of the extracted images to this path")
    f.BoolVar(&extractJSON, "json", false, "print the full result as JSON instead of a summary")
}

func runExtract(cmd *cobra.Command, args []string) error {
    initCLILogging()

    path := args[0]
    out := extractOut
    if out == "" {
        out = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + "_images"
    }

    opts := extract.DefaultOptions()
    opts.MinSize = extractMinSize
    opts.DPI = extractDPI
    opts.JPEGQuality = extractJPEGQuality
    opts.ForceMode = extractForceMode
    opts.FilterText = extractFilterText
    opts.FilterDuplicates = extractFilterDup
    opts.FilterContained = extractFilterCont

    doc, err := engine.Open(path)
    if err != nil {
        return fmt.Errorf("failed to open %s: %w", path, err)
    }
    defer doc.Close()

    res, err := extract.New(doc, out, opts).Extract(cmd.Context())
    if err != nil {
        return err
    }

    if _, err := extract.WriteInfo(res, out); err != nil {
        log.Warn().Err(err).Msg("failed to write extraction info")
    }
    if extractZip != "" && len(res.Images) > 0 {
        if err := extract.ArchiveImages(res.Images, extractZip); err != nil {
            return fmt.Errorf("failed to write zip: %w", err)
        }
    }

    if extractJSON {
        enc := json.NewEncoder(os.Stdout)
        enc.SetIndent("", "  ")
        return enc.Encode(res)
    }
    fmt.Print(extract.FormatSummary(res))
    return nil
}

// initCLILogging routes zerolog to the console for one-shot commands.
func initCLILogging() {
    lvl := os.Getenv("LOG_LEVEL")
    if lvl == "" {
        lvl = "info"
    }
    _ = logpkg.Init(logpkg.Options{Level: lvl, Pretty: true})
}
