package worker

import (
	"strings"
	"testing"

	"github.com/local/pdfimages/internal/extract"
)

func TestParseJobRoundtrip(t *testing.T) {
	in := Job{
		ID:       "j-1",
		FileID:   "f-1",
		FileRef:  "s3://bucket/docs/a.pdf",
		FileName: "a.pdf",
		Options:  extract.DefaultOptions(),
		Attempt:  1,
		Source:   "api",
	}
	data, err := in.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := ParseJob(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if out.ID != in.ID || out.FileRef != in.FileRef || out.Attempt != 1 {
		t.Fatalf("roundtrip mismatch: %+v", out)
	}
	if out.Options.DPI != in.Options.DPI {
		t.Fatalf("options lost: %+v", out.Options)
	}
}

func TestParseJobValidation(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		wantErr string
	}{
		{"bad json", "{nope", "failed to decode"},
		{"missing job id", `{"file_ref":"/a.pdf"}`, "missing job_id"},
		{"missing file ref", `{"job_id":"j1"}`, "missing file_ref"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParseJob([]byte(c.payload))
			if err == nil || !strings.Contains(err.Error(), c.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, c.wantErr)
			}
		})
	}
}

func TestParseJobDefaultsFileID(t *testing.T) {
	job, err := ParseJob([]byte(`{"job_id":"j1","file_ref":"/a.pdf"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if job.FileID != "j1" {
		t.Fatalf("FileID = %q, want job ID fallback", job.FileID)
	}
}
