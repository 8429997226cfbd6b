package encoder

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/png"
	"sort"

	"github.com/x-cod3r/Image-Converter-Resizer/core"
	apperrors "github.com/x-cod3r/Image-Converter-Resizer/errors"
	"github.com/x-cod3r/Image-Converter-Resizer/utils"
)

// DefaultIconSizes are the square entry sizes requested for ICO output.
var DefaultIconSizes = []int{16, 32, 48, 64, 128, 256}

const maxIconSize = 256

// ICO writes a multi-resolution icon with PNG-compressed entries.  Sizes
// larger than the image are skipped; an image smaller than every requested
// size gets a single entry at its own size.
type ICO struct {
	Sizes []int
}

// NewICO returns an ICO encoder.  nil sizes means DefaultIconSizes.
func NewICO(sizes []int) *ICO {
	if len(sizes) == 0 {
		sizes = DefaultIconSizes
	}
	return &ICO{Sizes: sizes}
}

func (e *ICO) CanEncode(format core.Format) bool { return format == core.FormatICO }

func (e *ICO) Encode(ctx context.Context, img *core.ImageData, opts core.EncodeOptions) ([]byte, error) {
	src, err := source(ctx, "ico.encode", img)
	if err != nil {
		return nil, err
	}
	sizes := opts.IconSizes
	if len(sizes) == 0 {
		sizes = e.Sizes
	}

	b := src.Bounds()
	entries := make([][]byte, 0, len(sizes))
	dims := make([]image.Point, 0, len(sizes))
	for _, s := range IconEntrySizes(b.Dx(), b.Dy(), sizes) {
		w, h := utils.FitWithin(b.Dx(), b.Dy(), s, s)
		var frame image.Image = src
		if w != b.Dx() || h != b.Dy() {
			frame = utils.Resample(src, w, h)
		}
		entry, err := encodePNG(frame, png.BestCompression)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CategoryEncode, "ico.encode.entry", err)
		}
		entries = append(entries, entry)
		dims = append(dims, image.Pt(w, h))
	}
	return writeICO(entries, dims), nil
}

// IconEntrySizes filters requested to the sizes that fit inside w×h, sorted
// and de-duplicated.  When none fit, the result is the image's own longest
// side, capped at 256.
func IconEntrySizes(w, h int, requested []int) []int {
	seen := make(map[int]bool, len(requested))
	var out []int
	for _, s := range requested {
		if s <= 0 || s > maxIconSize || s > w || s > h || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	if len(out) == 0 {
		return []int{min(max(w, h), maxIconSize)}
	}
	sort.Ints(out)
	return out
}

// writeICO lays out ICONDIR, one ICONDIRENTRY per image, then the PNG blobs.
func writeICO(entries [][]byte, dims []image.Point) []byte {
	const (
		headerSize = 6
		entrySize  = 16
	)
	var buf bytes.Buffer
	le := binary.LittleEndian

	hdr := make([]byte, headerSize)
	le.PutUint16(hdr[2:], 1) // type: icon
	le.PutUint16(hdr[4:], uint16(len(entries)))
	buf.Write(hdr)

	offset := headerSize + entrySize*len(entries)
	for i, data := range entries {
		e := make([]byte, entrySize)
		e[0] = iconDim(dims[i].X)
		e[1] = iconDim(dims[i].Y)
		le.PutUint16(e[4:], 1)  // colour planes
		le.PutUint16(e[6:], 32) // bits per pixel
		le.PutUint32(e[8:], uint32(len(data)))
		le.PutUint32(e[12:], uint32(offset))
		buf.Write(e)
		offset += len(data)
	}
	for _, data := range entries {
		buf.Write(data)
	}
	return buf.Bytes()
}

// iconDim encodes a dimension byte; 0 means 256.
func iconDim(n int) byte {
	if n >= maxIconSize {
		return 0
	}
	return byte(n)
}
