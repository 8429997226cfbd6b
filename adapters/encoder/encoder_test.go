package encoder_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/x-cod3r/Image-Converter-Resizer/adapters/encoder"
	"github.com/x-cod3r/Image-Converter-Resizer/core"
)

func newImage(w, h int) *core.ImageData {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	return &core.ImageData{Image: img, Meta: core.Metadata{Width: w, Height: h, Mode: core.ModeRGB}}
}

// ── Round trips through the matching decoder ──────────────────────────────────

func TestEncoders_ProduceDecodableOutput(t *testing.T) {
	tests := []struct {
		name   string
		enc    core.Encoder
		decode func([]byte) (image.Image, error)
	}{
		{"jpeg", encoder.NewJPEG(0), func(b []byte) (image.Image, error) { return jpeg.Decode(bytes.NewReader(b)) }},
		{"png", encoder.NewPNG(), func(b []byte) (image.Image, error) { return png.Decode(bytes.NewReader(b)) }},
		{"bmp", encoder.NewBMP(), func(b []byte) (image.Image, error) { return bmp.Decode(bytes.NewReader(b)) }},
		{"tiff", encoder.NewTIFF(), func(b []byte) (image.Image, error) { return tiff.Decode(bytes.NewReader(b)) }},
		{"gif", encoder.NewGIF(), func(b []byte) (image.Image, error) { return gif.Decode(bytes.NewReader(b)) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := tc.enc.Encode(context.Background(), newImage(40, 30), core.EncodeOptions{Quality: 80, Optimize: true})
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			img, err := tc.decode(data)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
				t.Errorf("bounds: got %v, want 40x30", b)
			}
		})
	}
}

func TestJPEG_QualityAffectsSize(t *testing.T) {
	enc := encoder.NewJPEG(0)
	img := newImage(64, 64)
	low, err := enc.Encode(context.Background(), img, core.EncodeOptions{Quality: 10})
	if err != nil {
		t.Fatal(err)
	}
	high, err := enc.Encode(context.Background(), img, core.EncodeOptions{Quality: 100})
	if err != nil {
		t.Fatal(err)
	}
	if len(low) >= len(high) {
		t.Errorf("quality 10 (%dB) not smaller than quality 100 (%dB)", len(low), len(high))
	}
}

func TestBMP_RejectsCMYK(t *testing.T) {
	b := encoder.NewBMP()
	if b.AcceptsMode(core.ModeCMYK) {
		t.Error("bmp should refuse cmyk")
	}
	if !b.AcceptsMode(core.ModeRGBA) || !b.AcceptsMode(core.ModePaletted) {
		t.Error("bmp should accept rgba and paletted")
	}
}

func TestEncode_EmptyInput(t *testing.T) {
	if _, err := encoder.NewPNG().Encode(context.Background(), &core.ImageData{}, core.EncodeOptions{}); err == nil {
		t.Error("expected error for missing pixel buffer")
	}
}

// ── ICO ───────────────────────────────────────────────────────────────────────

func TestIconEntrySizes(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		want []int
	}{
		{"large", 512, 512, []int{16, 32, 48, 64, 128, 256}},
		{"medium", 100, 100, []int{16, 32, 48, 64}},
		{"limited by height", 300, 40, []int{16, 32}},
		{"tiny", 10, 8, []int{10}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := encoder.IconEntrySizes(tc.w, tc.h, encoder.DefaultIconSizes)
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("got %v, want %v", got, tc.want)
					break
				}
			}
		})
	}
}

func TestICO_Layout(t *testing.T) {
	data, err := encoder.NewICO(nil).Encode(context.Background(), newImage(64, 64), core.EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	le := binary.LittleEndian
	if le.Uint16(data[0:]) != 0 || le.Uint16(data[2:]) != 1 {
		t.Fatalf("bad ICONDIR header % x", data[:6])
	}
	count := int(le.Uint16(data[4:]))
	if count != 4 {
		t.Fatalf("entries: got %d, want 4 (16, 32, 48, 64)", count)
	}

	wantDims := []int{16, 32, 48, 64}
	for i := 0; i < count; i++ {
		e := data[6+16*i : 6+16*(i+1)]
		if int(e[0]) != wantDims[i] || int(e[1]) != wantDims[i] {
			t.Errorf("entry %d: got %dx%d, want %d", i, e[0], e[1], wantDims[i])
		}
		size := le.Uint32(e[8:])
		off := le.Uint32(e[12:])
		img, err := png.Decode(bytes.NewReader(data[off : off+size]))
		if err != nil {
			t.Fatalf("entry %d: not a PNG: %v", i, err)
		}
		if img.Bounds().Dx() != wantDims[i] {
			t.Errorf("entry %d: png width %d, want %d", i, img.Bounds().Dx(), wantDims[i])
		}
	}
}

func TestICO_256IsEncodedAsZero(t *testing.T) {
	data, err := encoder.NewICO([]int{256}).Encode(context.Background(), newImage(300, 300), core.EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if data[6] != 0 || data[7] != 0 {
		t.Errorf("256px entry: got %dx%d, want 0x0", data[6], data[7])
	}
}
