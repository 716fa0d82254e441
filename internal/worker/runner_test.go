package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/local/pdfimages/internal/extract"
)

func TestRunnerRejectsNonPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("just some text"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := &Runner{DataDir: dir}
	_, err := r.Run(context.Background(), Job{ID: "j1", FileID: "f1", FileRef: path, FileName: "notes.txt"}, nil)

	var inputErr *extract.InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("err = %v, want InputError", err)
	}
	if !strings.Contains(inputErr.Reason, "unsupported file type") {
		t.Fatalf("reason = %q", inputErr.Reason)
	}
	if inputErr.File != "notes.txt" {
		t.Fatalf("File = %q, want original name", inputErr.File)
	}
}

func TestRunnerRejectsMissingFile(t *testing.T) {
	r := &Runner{DataDir: t.TempDir()}
	_, err := r.Run(context.Background(), Job{ID: "j1", FileID: "f1", FileRef: "/nope/missing.pdf"}, nil)
	var inputErr *extract.InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("err = %v, want InputError", err)
	}
}

func TestRunnerRejectsS3WithoutStorage(t *testing.T) {
	r := &Runner{DataDir: t.TempDir()}
	_, err := r.Run(context.Background(), Job{ID: "j1", FileID: "f1", FileRef: "s3://bucket/a.pdf"}, nil)
	if err == nil || !strings.Contains(err.Error(), "failed to stage input") {
		t.Fatalf("err = %v, want staging failure", err)
	}
}

func TestRunnerRejectsBrokenPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.pdf")
	// PDF magic so the type detector passes, but no valid structure.
	if err := os.WriteFile(path, []byte("%PDF-1.4\ngarbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := &Runner{DataDir: dir}
	_, err := r.Run(context.Background(), Job{ID: "j1", FileID: "f1", FileRef: path, FileName: "broken.pdf"}, nil)

	var inputErr *extract.InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("err = %v, want InputError", err)
	}
	if !strings.Contains(inputErr.Reason, "not a readable PDF") {
		t.Fatalf("reason = %q", inputErr.Reason)
	}
}
