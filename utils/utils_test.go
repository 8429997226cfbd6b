package utils_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/x-cod3r/Image-Converter-Resizer/utils"
)

// ── Format sniffing ───────────────────────────────────────────────────────────

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0}, "jpeg"},
		{"png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}, "png"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "webp"},
		{"gif", []byte("GIF89a\x01\x00"), "gif"},
		{"tiff le", []byte{'I', 'I', 0x2A, 0x00, 8, 0, 0, 0}, "tiff"},
		{"tiff be", []byte{'M', 'M', 0x00, 0x2A, 0, 0, 0, 8}, "tiff"},
		{"bmp", []byte("BM\x00\x00\x00\x00"), "bmp"},
		{"ico", []byte{0, 0, 1, 0, 1, 0}, "ico"},
		{"heic", []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00"), "heic"},
		{"mif1", []byte("\x00\x00\x00\x1cftypmif1\x00\x00\x00\x00"), "heic"},
		{"mp4 is not heic", []byte("\x00\x00\x00\x18ftypisom\x00\x00\x00\x00"), "unknown"},
		{"short", []byte{0xFF}, "unknown"},
		{"text", []byte("hello, world"), "unknown"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := utils.DetectFormat(tc.data); got != tc.want {
				t.Errorf("DetectFormat: got %s, want %s", got, tc.want)
			}
		})
	}
}

// ── Dimension maths ───────────────────────────────────────────────────────────

func TestFitWithin(t *testing.T) {
	tests := []struct {
		srcW, srcH, maxW, maxH int
		wantW, wantH           int
	}{
		{800, 600, 400, 400, 400, 300},
		{600, 800, 400, 400, 300, 400},
		{1000, 500, 100, 100, 100, 50},
		{100, 100, 400, 400, 100, 100}, // already fits: no upscale
		{400, 300, 400, 300, 400, 300},
		{1000, 1, 10, 10, 10, 1}, // never collapses to zero
		{800, 600, 200, 50, 67, 50},
	}
	for _, tc := range tests {
		gotW, gotH := utils.FitWithin(tc.srcW, tc.srcH, tc.maxW, tc.maxH)
		if gotW != tc.wantW || gotH != tc.wantH {
			t.Errorf("FitWithin(%d,%d,%d,%d) = %d,%d; want %d,%d",
				tc.srcW, tc.srcH, tc.maxW, tc.maxH, gotW, gotH, tc.wantW, tc.wantH)
		}
		if gotW > tc.maxW || gotH > tc.maxH {
			t.Errorf("FitWithin(%d,%d,%d,%d) exceeds bounds", tc.srcW, tc.srcH, tc.maxW, tc.maxH)
		}
	}
}

func TestPercentDimensions(t *testing.T) {
	tests := []struct {
		w, h    int
		percent float64
		wantW   int
		wantH   int
		wantOK  bool
	}{
		{800, 600, 50, 400, 300, true},
		{800, 600, 200, 1600, 1200, true},
		{3, 3, 50, 2, 2, true}, // 1.5 rounds half away from zero
		{101, 51, 10, 10, 5, true},
		{10, 10, 1, 10, 10, false}, // 0.1 rounds to zero: unchanged
		{1000, 1, 10, 1000, 1, false},
	}
	for _, tc := range tests {
		w, h, ok := utils.PercentDimensions(tc.w, tc.h, tc.percent)
		if w != tc.wantW || h != tc.wantH || ok != tc.wantOK {
			t.Errorf("PercentDimensions(%d,%d,%v) = %d,%d,%v; want %d,%d,%v",
				tc.w, tc.h, tc.percent, w, h, ok, tc.wantW, tc.wantH, tc.wantOK)
		}
	}
}

// ── Resampling ────────────────────────────────────────────────────────────────

func TestResample(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			src.SetRGBA(x, y, color.RGBA{R: 200, G: 50, B: 50, A: 255})
		}
	}
	out := utils.Resample(src, 10, 5)
	if b := out.Bounds(); b.Dx() != 10 || b.Dy() != 5 {
		t.Fatalf("bounds: got %v, want 10x5", b)
	}
	if _, ok := out.(*image.RGBA); !ok {
		t.Errorf("type: got %T, want *image.RGBA", out)
	}
	r, g, b, a := out.At(5, 2).RGBA()
	if r>>8 != 200 || g>>8 != 50 || b>>8 != 50 || a>>8 != 255 {
		t.Errorf("solid colour drifted: %d,%d,%d,%d", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestResample_GrayStaysGray(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 8, 8))
	out := utils.Resample(src, 16, 16)
	if _, ok := out.(*image.Gray); !ok {
		t.Errorf("type: got %T, want *image.Gray", out)
	}
}

// ── Streaming ─────────────────────────────────────────────────────────────────

func TestReadSource(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 100_000)
	tests := []struct {
		name    string
		limit   int64
		wantErr error
	}{
		{"unlimited", 0, nil},
		{"exact limit", int64(len(data)), nil},
		{"over limit", int64(len(data)) - 1, utils.ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := utils.ReadSource(context.Background(), bytes.NewReader(data), tt.limit, 4096)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
			if err == nil && len(got) != len(data) {
				t.Errorf("length: got %d, want %d", len(got), len(data))
			}
		})
	}
}

func TestReadSource_ResultOutlivesPool(t *testing.T) {
	a, _ := utils.ReadSource(context.Background(), strings.NewReader("first"), 0, 2)
	_, _ = utils.ReadSource(context.Background(), strings.NewReader("second!"), 0, 2)
	if string(a) != "first" {
		t.Errorf("got %q, want first", a)
	}
}

func TestReadSource_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := utils.ReadSource(ctx, strings.NewReader("abc"), 0, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestLimitedReader(t *testing.T) {
	t.Run("exact size", func(t *testing.T) {
		r := &utils.LimitedReader{R: strings.NewReader("12345"), Max: 5}
		got, err := io.ReadAll(r)
		if err != nil || string(got) != "12345" {
			t.Errorf("got %q, %v", got, err)
		}
	})
	t.Run("too large", func(t *testing.T) {
		r := &utils.LimitedReader{R: strings.NewReader("123456"), Max: 5}
		if _, err := io.ReadAll(r); !errors.Is(err, utils.ErrTooLarge) {
			t.Errorf("got %v, want ErrTooLarge", err)
		}
	})
	t.Run("unlimited", func(t *testing.T) {
		r := &utils.LimitedReader{R: strings.NewReader("123456")}
		got, err := io.ReadAll(r)
		if err != nil || len(got) != 6 {
			t.Errorf("got %q, %v", got, err)
		}
	})
}

// ── Input expansion ───────────────────────────────────────────────────────────

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.jpg", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "nested", "c.png"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	isImage := func(name string) bool {
		ext := strings.ToLower(filepath.Ext(name))
		return ext == ".png" || ext == ".jpg"
	}
	missing := filepath.Join(dir, "missing.png")
	got, err := utils.ExpandInputs([]string{dir, missing}, isImage)
	if err != nil {
		t.Fatalf("ExpandInputs: %v", err)
	}
	want := []string{filepath.Join(dir, "a.jpg"), filepath.Join(dir, "b.png"), missing}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d]: got %s, want %s", i, got[i], want[i])
		}
	}
}
