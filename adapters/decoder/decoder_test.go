package decoder_test

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/x-cod3r/Image-Converter-Resizer/adapters/decoder"
	"github.com/x-cod3r/Image-Converter-Resizer/core"
	apperrors "github.com/x-cod3r/Image-Converter-Resizer/errors"
)

// grayAlphaPNG hand-builds an 8-bit grayscale+alpha PNG; image/png never
// writes colour type 4 itself.
func grayAlphaPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var out bytes.Buffer
	out.Write([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'})

	chunk := func(typ string, data []byte) {
		var l [4]byte
		binary.BigEndian.PutUint32(l[:], uint32(len(data)))
		out.Write(l[:])
		body := append([]byte(typ), data...)
		out.Write(body)
		binary.BigEndian.PutUint32(l[:], crc32.ChecksumIEEE(body))
		out.Write(l[:])
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], uint32(w))
	binary.BigEndian.PutUint32(ihdr[4:], uint32(h))
	ihdr[8] = 8 // bit depth
	ihdr[9] = 4 // grayscale + alpha
	chunk("IHDR", ihdr)

	var raw bytes.Buffer
	zw := zlib.NewWriter(&raw)
	for y := 0; y < h; y++ {
		row := []byte{0} // filter: none
		for x := 0; x < w; x++ {
			row = append(row, 128, 64)
		}
		if _, err := zw.Write(row); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	chunk("IDAT", raw.Bytes())
	chunk("IEND", nil)
	return out.Bytes()
}

func TestPNG_GrayAlpha(t *testing.T) {
	img, err := decoder.NewPNG().Decode(context.Background(), bytes.NewReader(grayAlphaPNG(t, 4, 3)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Meta.Mode != core.ModeGrayAlpha {
		t.Errorf("mode: got %s, want graya", img.Meta.Mode)
	}
	if img.Meta.Width != 4 || img.Meta.Height != 3 {
		t.Errorf("size: got %dx%d, want 4x3", img.Meta.Width, img.Meta.Height)
	}
}

func TestDecoders_Modes(t *testing.T) {
	encode := func(f func(*bytes.Buffer) error) []byte {
		var buf bytes.Buffer
		if err := f(&buf); err != nil {
			t.Fatal(err)
		}
		return buf.Bytes()
	}
	rgba := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	rgba.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 10})
	gray := image.NewGray(image.Rect(0, 0, 8, 8))
	pal := image.NewPaletted(image.Rect(0, 0, 8, 8), color.Palette{color.Black, color.White})

	tests := []struct {
		name string
		dec  core.Decoder
		data []byte
		want core.ColorMode
	}{
		{"jpeg colour", decoder.NewJPEG(), encode(func(b *bytes.Buffer) error { return jpeg.Encode(b, rgba, nil) }), core.ModeRGB},
		{"jpeg gray", decoder.NewJPEG(), encode(func(b *bytes.Buffer) error { return jpeg.Encode(b, gray, nil) }), core.ModeGray},
		{"png rgba", decoder.NewPNG(), encode(func(b *bytes.Buffer) error { return png.Encode(b, rgba) }), core.ModeRGBA},
		{"png paletted", decoder.NewPNG(), encode(func(b *bytes.Buffer) error { return png.Encode(b, pal) }), core.ModePaletted},
		{"gif", decoder.NewGIF(), encode(func(b *bytes.Buffer) error { return gif.Encode(b, pal, nil) }), core.ModePaletted},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img, err := tc.dec.Decode(context.Background(), bytes.NewReader(tc.data))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if img.Meta.Mode != tc.want {
				t.Errorf("mode: got %s, want %s", img.Meta.Mode, tc.want)
			}
		})
	}
}

func TestDecode_CorruptIsDecodeError(t *testing.T) {
	_, err := decoder.NewJPEG().Decode(context.Background(), bytes.NewReader([]byte{0xFF, 0xD8, 0xFF, 0x00, 0x01}))
	if !apperrors.IsCategory(err, apperrors.CategoryDecode) {
		t.Errorf("got %v, want a decode error", err)
	}
}
