package config

import (
	"testing"
	"time"
)

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("DATA_DIR", "/tmp/px")
	t.Setenv("UPLOAD_DIR", "")
	t.Setenv("MAX_UPLOAD_MB", "10")
	t.Setenv("EXTRACT_DPI", "150")
	t.Setenv("EXTRACT_FILTER_TEXT", "yes")
	t.Setenv("EXTRACT_RATIO_DENOMINATOR", "larger")
	t.Setenv("JOB_TIMEOUT", "5m")
	t.Setenv("RUN_WORKER", "0")
	t.Setenv("AXIOM_DATASET", "prod")
	t.Setenv("REDIS_STREAM", "jobs:test")

	cfg := FromEnv()

	if cfg.Server.Port != "9100" {
		t.Errorf("Port = %s, want 9100", cfg.Server.Port)
	}
	if cfg.Server.MaxUploadMB != 10 {
		t.Errorf("MaxUploadMB = %d, want 10", cfg.Server.MaxUploadMB)
	}
	if cfg.Server.UploadDir != "/tmp/px/uploads" {
		t.Errorf("UploadDir = %s, want derived /tmp/px/uploads", cfg.Server.UploadDir)
	}
	if cfg.Extract.DPI != 150 {
		t.Errorf("DPI = %d, want 150", cfg.Extract.DPI)
	}
	if !cfg.Extract.FilterText {
		t.Error("FilterText should parse yes as true")
	}
	if cfg.Extract.RatioDenominator != "larger" {
		t.Errorf("RatioDenominator = %s, want larger", cfg.Extract.RatioDenominator)
	}
	if cfg.Worker.JobTimeout != 5*time.Minute {
		t.Errorf("JobTimeout = %v, want 5m", cfg.Worker.JobTimeout)
	}
	if cfg.Worker.Run {
		t.Error("Run should parse 0 as false")
	}
	if cfg.Axiom.Dataset != "prod_pdfimages" {
		t.Errorf("Dataset = %s, want prod_pdfimages", cfg.Axiom.Dataset)
	}
	if cfg.Queue.Stream != "jobs:test" {
		t.Errorf("Stream = %s, want jobs:test", cfg.Queue.Stream)
	}
}

func TestParseHelpers(t *testing.T) {
	if parseInt("not-a-number", 42) != 42 {
		t.Error("parseInt should fall back to default on garbage")
	}
	if parseFloat("0.25", 1) != 0.25 {
		t.Error("parseFloat should parse 0.25")
	}
	if parseDuration("nope", time.Second) != time.Second {
		t.Error("parseDuration should fall back to default on garbage")
	}
	for _, v := range []string{"1", "true", "YES", "On"} {
		if !parseBool(v) {
			t.Errorf("parseBool(%q) = false, want true", v)
		}
	}
	for _, v := range []string{"", "0", "false", "off"} {
		if parseBool(v) {
			t.Errorf("parseBool(%q) = true, want false", v)
		}
	}
}
