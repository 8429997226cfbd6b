package decoder

import (
	"bytes"
	"context"
	"image/png"
	"io"

	"github.com/x-cod3r/Image-Converter-Resizer/core"
	apperrors "github.com/x-cod3r/Image-Converter-Resizer/errors"
	"github.com/x-cod3r/Image-Converter-Resizer/utils"
)

// IHDR colour type byte: 8-byte signature, 4-byte length, "IHDR", width,
// height, bit depth.
const (
	ihdrColorTypeOffset = 25
	colorTypeGrayAlpha  = 4
)

// PNG decodes PNG images using the standard library.  Grayscale+alpha files
// are decoded into NRGBA and tagged ModeGrayAlpha from the header.
type PNG struct{}

func NewPNG() *PNG { return &PNG{} }

func (p *PNG) CanDecode(format core.Format) bool { return format == core.FormatPNG }

func (p *PNG) Decode(ctx context.Context, r io.Reader) (*core.ImageData, error) {
	raw, err := utils.ReadSource(ctx, r, 0, 0)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "png.read", err)
	}

	out, err := decodeWith(ctx, bytes.NewReader(raw), core.FormatPNG, png.Decode)
	if err != nil {
		return nil, err
	}
	if len(raw) > ihdrColorTypeOffset && raw[ihdrColorTypeOffset] == colorTypeGrayAlpha {
		out.Meta.Mode = core.ModeGrayAlpha
	}
	return out, nil
}
