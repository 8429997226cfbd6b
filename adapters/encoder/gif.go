package encoder

import (
	"bytes"
	"context"
	"image/gif"

	"github.com/x-cod3r/Image-Converter-Resizer/core"
	apperrors "github.com/x-cod3r/Image-Converter-Resizer/errors"
)

// GIF writes a single-frame GIF.  Non-paletted buffers are quantised to 256
// colours by the standard encoder.
type GIF struct{}

func NewGIF() *GIF { return &GIF{} }

func (g *GIF) CanEncode(format core.Format) bool { return format == core.FormatGIF }

func (g *GIF) Encode(ctx context.Context, img *core.ImageData, _ core.EncodeOptions) ([]byte, error) {
	src, err := source(ctx, "gif.encode", img)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := gif.Encode(&buf, src, &gif.Options{NumColors: 256}); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "gif.encode", err)
	}
	return buf.Bytes(), nil
}
