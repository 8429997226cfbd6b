package decoder

import (
	"context"
	"io"

	"golang.org/x/image/bmp"

	"github.com/x-cod3r/Image-Converter-Resizer/core"
)

// BMP decodes Windows bitmaps using golang.org/x/image/bmp.
type BMP struct{}

func NewBMP() *BMP { return &BMP{} }

func (b *BMP) CanDecode(format core.Format) bool { return format == core.FormatBMP }

func (b *BMP) Decode(ctx context.Context, r io.Reader) (*core.ImageData, error) {
	return decodeWith(ctx, r, core.FormatBMP, bmp.Decode)
}
