package decoder

import (
	"context"
	"image/gif"
	"io"

	"github.com/x-cod3r/Image-Converter-Resizer/core"
)

// GIF decodes the first frame of a GIF.
type GIF struct{}

func NewGIF() *GIF { return &GIF{} }

func (g *GIF) CanDecode(format core.Format) bool { return format == core.FormatGIF }

func (g *GIF) Decode(ctx context.Context, r io.Reader) (*core.ImageData, error) {
	return decodeWith(ctx, r, core.FormatGIF, gif.Decode)
}
