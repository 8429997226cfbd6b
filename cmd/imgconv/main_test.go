package main

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/x-cod3r/Image-Converter-Resizer/config"
	"github.com/x-cod3r/Image-Converter-Resizer/core"
)

// ── Flag parsing ──────────────────────────────────────────────────────────────

func TestParseOverrideFlag(t *testing.T) {
	tests := []struct {
		in      string
		want    config.OverrideConfig
		wantErr bool
	}{
		{"a.png=ico", config.OverrideConfig{File: "a.png", Format: "ico"}, false},
		{"dir/b.jpg=webp:70", config.OverrideConfig{File: "dir/b.jpg", Format: "webp", Quality: "70"}, false},
		{"x=y.png=png", config.OverrideConfig{File: "x=y.png", Format: "png"}, false},
		{"a.png", config.OverrideConfig{}, true},
		{"=png", config.OverrideConfig{}, true},
		{"a.png=", config.OverrideConfig{}, true},
	}
	for _, tt := range tests {
		got, err := parseOverrideFlag(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: got %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseArgs_FlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imgconv.yaml")
	body := `
log_level: debug
batch:
  format: png
  quality: "60"
  output_dir: from-file
  overrides:
    - file: a.png
      format: ico
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	var stderr bytes.Buffer
	cfg, opts, err := parseArgs([]string{
		"-config", path,
		"-format", "gif",
		"-override", "b.png=bmp",
		"in.png",
	}, &stderr)
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if cfg.Batch.Format != "gif" {
		t.Errorf("format: got %q, want gif", cfg.Batch.Format)
	}
	if cfg.Batch.Quality != "60" || cfg.Batch.OutputDir != "from-file" || cfg.LogLevel != "debug" {
		t.Errorf("file values lost: %+v", cfg.Batch)
	}
	if len(cfg.Batch.Overrides) != 2 || cfg.Batch.Overrides[1].Format != "bmp" {
		t.Errorf("overrides: got %+v", cfg.Batch.Overrides)
	}
	if len(opts.inputs) != 1 || opts.inputs[0] != "in.png" {
		t.Errorf("inputs: got %v", opts.inputs)
	}
}

func TestParseArgs_Errors(t *testing.T) {
	var stderr bytes.Buffer
	if _, _, err := parseArgs([]string{"-format", "png"}, &stderr); err == nil {
		t.Error("expected error without inputs")
	}
	if _, _, err := parseArgs([]string{"-bogus", "x.png"}, &stderr); err == nil {
		t.Error("expected error for unknown flag")
	}
	if _, _, err := parseArgs([]string{"-config", "/does/not/exist.yaml", "x.png"}, &stderr); err == nil {
		t.Error("expected error for missing config")
	}
}

func TestBatchFromConfig(t *testing.T) {
	b := config.Default().Batch
	b.Mode = "per_file"
	b.Overrides = []config.OverrideConfig{{File: "a.png", Format: "ico"}}

	s, ov, err := batchFromConfig(b)
	if err != nil {
		t.Fatalf("batchFromConfig: %v", err)
	}
	if s.Mode != core.ModePerFile {
		t.Errorf("mode: got %s", s.Mode)
	}
	got, ok := ov.Lookup("a.png")
	if !ok || got.Format != core.FormatICO || got.Quality != core.DefaultQuality {
		t.Errorf("override: got %+v, %v", got, ok)
	}

	b.Overrides = []config.OverrideConfig{{File: "a.png", Format: "ico", Quality: "500"}}
	if _, _, err := batchFromConfig(b); err == nil {
		t.Error("expected error for quality 500")
	}
}

// ── Output ────────────────────────────────────────────────────────────────────

func TestPrintSummary_TruncatesFailures(t *testing.T) {
	s := core.Summary{Succeeded: 1, Failed: 13}
	for i := 0; i < 13; i++ {
		s.Failures = append(s.Failures, core.Failure{Name: fmt.Sprintf("f%d.png", i), Reason: "bad"})
	}
	var buf bytes.Buffer
	printSummary(&buf, s)
	out := buf.String()
	if !strings.Contains(out, "Converted: 1  Failed: 13") {
		t.Errorf("missing counts:\n%s", out)
	}
	if !strings.Contains(out, "f9.png: bad") || strings.Contains(out, "f10.png") {
		t.Errorf("wrong failure list:\n%s", out)
	}
	if !strings.Contains(out, "...and 3 more") {
		t.Errorf("missing remainder line:\n%s", out)
	}
}

// ── End to end ────────────────────────────────────────────────────────────────

func TestRun(t *testing.T) {
	src, out := t.TempDir(), t.TempDir()
	var img bytes.Buffer
	if err := png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 12, 8))); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "a.png"), img.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "broken.png"), []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	code := run([]string{"-format", "bmp", "-out", out, "-log-level", "error", src}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("exit code: got %d, want 1\nstdout:\n%s\nstderr:\n%s", code, stdout.String(), stderr.String())
	}
	if _, err := os.Stat(filepath.Join(out, "a.bmp")); err != nil {
		t.Errorf("a.bmp not written: %v", err)
	}
	if !strings.Contains(stdout.String(), "Converted: 1  Failed: 1") {
		t.Errorf("summary missing:\n%s", stdout.String())
	}
	if !strings.Contains(stdout.String(), "[100%] 2/2") {
		t.Errorf("progress missing:\n%s", stdout.String())
	}
}

func TestRun_InvalidSettings(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-resize", "fixed", "-width", "0", "-height", "10", "x.png"}, &stdout, &stderr)
	if code != 2 {
		t.Errorf("exit code: got %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "invalid settings") {
		t.Errorf("stderr: %s", stderr.String())
	}
}

func TestRun_NoEncoderWithoutVips(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-format", "webp", "x.png"}, &stdout, &stderr)
	if code != 2 || !strings.Contains(stderr.String(), "-codec vips") {
		t.Errorf("got code %d, stderr %q", code, stderr.String())
	}
}
