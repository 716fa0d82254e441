package extract

import (
	"strings"
	"testing"
)

func TestDigestStable(t *testing.T) {
	a := Digest([]byte("same bytes"))
	b := Digest([]byte("same bytes"))
	if a != b {
		t.Errorf("digests differ for identical input: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(a))
	}
	if a == Digest([]byte("other bytes")) {
		t.Error("different inputs produced the same digest")
	}
}

func TestRecordFileName(t *testing.T) {
	digest := Digest([]byte("image payload"))
	name := recordFileName(3, 2, digest, "png")
	if !strings.HasPrefix(name, "page3_img2_") {
		t.Errorf("name = %s, want page3_img2_ prefix", name)
	}
	if !strings.HasSuffix(name, ".png") {
		t.Errorf("name = %s, want .png suffix", name)
	}
	if want := "page3_img2_" + digest[:8] + ".png"; name != want {
		t.Errorf("name = %s, want %s", name, want)
	}
}
