package filetype

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// FileTypeInfo contains detected file type information
type FileTypeInfo struct {
	MIMEType    string
	Extension   string
	IsPDF       bool
	IsImage     bool
	Supported   bool
	Description string
}

// Detector handles file type detection using magic bytes
type Detector struct{}

// New creates a new file type detector
func New() *Detector {
	return &Detector{}
}

// Detect detects the actual file type using magic bytes, not filename.
// Only PDF documents are accepted as extraction input; everything else is
// reported so the caller can produce a precise rejection.
func (d *Detector) Detect(filePath string) (*FileTypeInfo, error) {
	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}

	log.Debug().Str("mime", mtype.String()).Str("ext", mtype.Extension()).
		Str("file", filePath).Msg("detected file type")

	return d.classify(mtype), nil
}

// DetectBytes classifies an in-memory payload the same way Detect does.
func (d *Detector) DetectBytes(data []byte) *FileTypeInfo {
	return d.classify(mimetype.Detect(data))
}

// classify determines file characteristics from the detected MIME type
func (d *Detector) classify(mtype *mimetype.MIME) *FileTypeInfo {
	info := &FileTypeInfo{
		MIMEType:  mtype.String(),
		Extension: mtype.Extension(),
	}

	switch {
	case mtype.Is("application/pdf"):
		info.IsPDF = true
		info.Supported = true
		info.Description = "PDF document"

	// Raster input shows up when callers confuse this service with an
	// image converter; name it explicitly in the rejection.
	case strings.HasPrefix(info.MIMEType, "image/"):
		info.IsImage = true
		info.Description = "Image file"

	default:
		info.Description = fmt.Sprintf("Unsupported file type: %s", info.MIMEType)
	}

	return info
}
