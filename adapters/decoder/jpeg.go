// Package decoder provides format-specific image decoders.
package decoder

import (
	"context"
	"image"
	"image/jpeg"
	"io"

	"github.com/x-cod3r/Image-Converter-Resizer/core"
	apperrors "github.com/x-cod3r/Image-Converter-Resizer/errors"
)

// JPEG decodes JPEG images using the standard library.
type JPEG struct{}

// NewJPEG returns an initialised JPEG decoder.
func NewJPEG() *JPEG { return &JPEG{} }

func (j *JPEG) CanDecode(format core.Format) bool { return format == core.FormatJPEG }

func (j *JPEG) Decode(ctx context.Context, r io.Reader) (*core.ImageData, error) {
	return decodeWith(ctx, r, core.FormatJPEG, jpeg.Decode)
}

// decodeWith runs fn and wraps its result.  The colour mode is taken from the
// concrete buffer type.
func decodeWith(ctx context.Context, r io.Reader, format core.Format, fn func(io.Reader) (image.Image, error)) (*core.ImageData, error) {
	op := string(format) + ".decode"
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, op, err)
	}
	img, err := fn(r)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, op, err)
	}
	return newImageData(img, format, core.ModeOf(img)), nil
}

func newImageData(img image.Image, format core.Format, mode core.ColorMode) *core.ImageData {
	b := img.Bounds()
	return &core.ImageData{
		Image:  img,
		Format: format,
		Meta: core.Metadata{
			Width:  b.Dx(),
			Height: b.Dy(),
			Format: format,
			Mode:   mode,
		},
	}
}

// Register installs every pure-Go decoder into reg.
func Register(reg core.Registry) {
	reg.RegisterDecoder(core.FormatJPEG, NewJPEG())
	reg.RegisterDecoder(core.FormatPNG, NewPNG())
	reg.RegisterDecoder(core.FormatWebP, NewWebP())
	reg.RegisterDecoder(core.FormatBMP, NewBMP())
	reg.RegisterDecoder(core.FormatTIFF, NewTIFF())
	reg.RegisterDecoder(core.FormatGIF, NewGIF())
}

var (
	_ core.Decoder = (*JPEG)(nil)
	_ core.Decoder = (*PNG)(nil)
	_ core.Decoder = (*WebP)(nil)
	_ core.Decoder = (*BMP)(nil)
	_ core.Decoder = (*TIFF)(nil)
	_ core.Decoder = (*GIF)(nil)
)
