package encoder

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"sync"

	"github.com/x-cod3r/Image-Converter-Resizer/core"
	apperrors "github.com/x-cod3r/Image-Converter-Resizer/errors"
)

// PNG writes lossless PNG.  Quality does not apply; Optimize selects the best
// zlib compression, as do ICO entries.  Paletted and gray buffers keep their
// compact colour types.
type PNG struct{}

func NewPNG() *PNG { return &PNG{} }

func (p *PNG) CanEncode(format core.Format) bool { return format == core.FormatPNG }

func (p *PNG) Encode(ctx context.Context, img *core.ImageData, opts core.EncodeOptions) ([]byte, error) {
	src, err := source(ctx, "png.encode", img)
	if err != nil {
		return nil, err
	}
	level := png.DefaultCompression
	if opts.Optimize {
		level = png.BestCompression
	}
	data, err := encodePNG(src, level)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "png.encode", err)
	}
	return data, nil
}

// zlib state is large; a batch of PNG or ICO outputs reuses it.
var pngBuffers = &encoderBufferPool{}

type encoderBufferPool struct{ p sync.Pool }

func (b *encoderBufferPool) Get() *png.EncoderBuffer {
	eb, _ := b.p.Get().(*png.EncoderBuffer)
	return eb
}

func (b *encoderBufferPool) Put(eb *png.EncoderBuffer) { b.p.Put(eb) }

func encodePNG(src image.Image, level png.CompressionLevel) ([]byte, error) {
	enc := png.Encoder{CompressionLevel: level, BufferPool: pngBuffers}
	var buf bytes.Buffer
	if err := enc.Encode(&buf, src); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
