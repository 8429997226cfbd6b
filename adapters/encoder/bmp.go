package encoder

import (
	"bytes"
	"context"

	"golang.org/x/image/bmp"

	"github.com/x-cod3r/Image-Converter-Resizer/core"
	apperrors "github.com/x-cod3r/Image-Converter-Resizer/errors"
)

// BMP encodes Windows bitmaps using golang.org/x/image/bmp.  CMYK buffers
// are refused rather than silently converted.
type BMP struct{}

func NewBMP() *BMP { return &BMP{} }

func (b *BMP) CanEncode(format core.Format) bool { return format == core.FormatBMP }

func (b *BMP) AcceptsMode(m core.ColorMode) bool { return m != core.ModeCMYK }

func (b *BMP) Encode(ctx context.Context, img *core.ImageData, _ core.EncodeOptions) ([]byte, error) {
	src, err := source(ctx, "bmp.encode", img)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, src); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "bmp.encode", err)
	}
	return buf.Bytes(), nil
}
