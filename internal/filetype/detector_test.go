package filetype

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetectBytes(t *testing.T) {
	d := New()

	tests := []struct {
		name    string
		data    []byte
		isPDF   bool
		isImage bool
	}{
		{
			name:  "pdf magic",
			data:  []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n"),
			isPDF: true,
		},
		{
			name:    "png magic",
			data:    []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0},
			isImage: true,
		},
		{
			name: "plain text",
			data: []byte("just some words"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := d.DetectBytes(tt.data)
			if info.IsPDF != tt.isPDF {
				t.Errorf("IsPDF = %v, want %v (%s)", info.IsPDF, tt.isPDF, info.MIMEType)
			}
			if info.IsImage != tt.isImage {
				t.Errorf("IsImage = %v, want %v (%s)", info.IsImage, tt.isImage, info.MIMEType)
			}
			if info.Supported != tt.isPDF {
				t.Errorf("Supported = %v, want %v", info.Supported, tt.isPDF)
			}
		})
	}
}

func TestDetectFile(t *testing.T) {
	d := New()
	path := filepath.Join(t.TempDir(), "renamed.txt")
	if err := os.WriteFile(path, []byte("%PDF-1.4\n%fake body\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	// Magic bytes win over the misleading extension.
	info, err := d.Detect(path)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if !info.IsPDF || !info.Supported {
		t.Errorf("info = %+v, want supported PDF", info)
	}
}

func TestDetectMissingFile(t *testing.T) {
	if _, err := New().Detect(filepath.Join(t.TempDir(), "nope.pdf")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
