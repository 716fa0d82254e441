package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/local/pdfimages/internal/geometry"
)

// Method names the strategy that produced a record. The values appear in
// result payloads and output metadata.
type Method string

const (
	MethodPageRender       Method = "page_render"
	MethodCADRender        Method = "cad_render"
	MethodObjectExtraction Method = "object_extraction"
	MethodBackupPageRender Method = "backup_page_render"
)

// Record describes one extracted image written to the output directory.
type Record struct {
	Page        int          `json:"page"`  // 1-based
	Index       int          `json:"index"` // 1-based within the page
	FileName    string       `json:"file_name"`
	FilePath    string       `json:"file_path,omitempty"`
	Format      string       `json:"format"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	SizeBytes   int          `json:"size_bytes"`
	Hash        string       `json:"hash"`
	Box         geometry.Box `json:"box"`
	DPI         int          `json:"dpi,omitempty"`
	Method      Method       `json:"method"`
	DownloadURL string       `json:"download_url,omitempty"`
}

// Digest returns the lowercase hex SHA-256 of an encoded payload. It feeds
// both the duplicate set and the output filename.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// recordFileName builds the deterministic output name. Identical content at
// the same position always maps to the same name, so re-running a document
// overwrites instead of accumulating.
func recordFileName(page, index int, digest, format string) string {
	return fmt.Sprintf("page%d_img%d_%s.%s", page, index, digest[:8], format)
}
