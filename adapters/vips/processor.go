// Package vips is the libvips codec backend.  It supplies what the pure-Go
// codecs cannot: WEBP encoding and HEIC decoding/encoding.
package vips

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"runtime"
	"sync"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/x-cod3r/Image-Converter-Resizer/core"
	apperrors "github.com/x-cod3r/Image-Converter-Resizer/errors"
	"github.com/x-cod3r/Image-Converter-Resizer/utils"
)

// BackendConfig configures the libvips backend.
type BackendConfig struct {
	DefaultQuality int
	MaxCacheSize   int
	MaxWorkers     int
	ReportLeaks    bool
}

// Backend owns the libvips runtime.  Pixels cross into Go as image.Image by
// way of an in-memory PNG, so the rest of the pipeline never sees vips types.
type Backend struct {
	cfg BackendConfig
}

var startOnce sync.Once

// NewBackend initialises libvips and returns a ready Backend.
// Call Shutdown() when the process exits.
func NewBackend(cfg BackendConfig) *Backend {
	if cfg.DefaultQuality <= 0 {
		cfg.DefaultQuality = core.DefaultQuality
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = runtime.NumCPU()
	}
	startOnce.Do(func() {
		govips.LoggingSettings(nil, govips.LogLevelWarning)
		govips.Startup(&govips.Config{
			ConcurrencyLevel: cfg.MaxWorkers,
			MaxCacheSize:     cfg.MaxCacheSize,
			ReportLeaks:      cfg.ReportLeaks,
		})
	})
	return &Backend{cfg: cfg}
}

// Shutdown releases all libvips resources. Call once at process exit.
func (b *Backend) Shutdown() {
	govips.Shutdown()
}

// HEICSupported reports whether this libvips build can read and write HEIF.
func (b *Backend) HEICSupported() bool {
	return govips.IsTypeSupported(govips.ImageTypeHEIF)
}

// Codec returns the Decoder/Encoder for one format.
func (b *Backend) Codec(f core.Format) *Codec { return &Codec{backend: b, format: f} }

// ─── Codec ────────────────────────────────────────────────────────────────────

// Codec is a single-format libvips Decoder and Encoder.
type Codec struct {
	backend *Backend
	format  core.Format
}

func (c *Codec) CanDecode(f core.Format) bool { return f == c.format }
func (c *Codec) CanEncode(f core.Format) bool { return f == c.format }

func (c *Codec) Decode(ctx context.Context, r io.Reader) (*core.ImageData, error) {
	op := "vips.decode." + string(c.format)
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, op, err)
	}

	raw, err := utils.ReadSource(ctx, r, 0, 0)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, op, err)
	}

	ref, err := govips.NewImageFromBuffer(raw)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, op, err)
	}
	defer ref.Close()

	gray := ref.Interpretation() == govips.InterpretationBW
	hasAlpha := ref.HasAlpha()

	pngBytes, _, err := ref.ExportPng(govips.NewPngExportParams())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, op, err)
	}
	img, err := png.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, op, err)
	}

	mode := core.ModeOf(img)
	if gray && hasAlpha {
		mode = core.ModeGrayAlpha
	}
	b := img.Bounds()
	return &core.ImageData{
		Image:  img,
		Format: c.format,
		Meta: core.Metadata{
			Width:  b.Dx(),
			Height: b.Dy(),
			Format: c.format,
			Mode:   mode,
		},
	}, nil
}

func (c *Codec) Encode(ctx context.Context, img *core.ImageData, opts core.EncodeOptions) ([]byte, error) {
	op := "vips.encode." + string(c.format)
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, op, err)
	}
	if img == nil || img.Image == nil {
		return nil, apperrors.New(apperrors.CategoryEncode, op, apperrors.ErrEmptyInput)
	}

	ref, err := toVips(img.Image)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, op, err)
	}
	defer ref.Close()

	quality := opts.Quality
	if quality <= 0 {
		quality = c.backend.cfg.DefaultQuality
	}

	var out []byte
	switch c.format {
	case core.FormatWebP:
		ep := govips.NewWebpExportParams()
		ep.Quality = quality
		ep.StripMetadata = true
		if opts.Optimize {
			ep.ReductionEffort = 6
		}
		out, _, err = ref.ExportWebp(ep)
	case core.FormatHEIC:
		ep := govips.NewHeifExportParams()
		ep.Quality = quality
		out, _, err = ref.ExportHeif(ep)
	default:
		return nil, apperrors.New(apperrors.CategoryUnsupportedFormat, op,
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, c.format))
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, op, err)
	}
	return out, nil
}

// toVips hands a Go image to libvips as a lossless PNG.
func toVips(img image.Image) (*govips.ImageRef, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.NoCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return govips.NewImageFromBuffer(buf.Bytes())
}

// ─── RegisterVipsBackend ──────────────────────────────────────────────────────

// RegisterVipsBackend adds WEBP encoding (and animated/lossless WEBP
// decoding) and, when the libvips build has libheif, HEIC in both directions.
// Formats the pure-Go codecs already cover are left alone.  It returns the
// formats it registered.
func RegisterVipsBackend(reg core.Registry, b *Backend) []core.Format {
	formats := []core.Format{core.FormatWebP}
	if b.HEICSupported() {
		formats = append(formats, core.FormatHEIC)
	}
	for _, f := range formats {
		codec := b.Codec(f)
		reg.RegisterDecoder(f, codec)
		reg.RegisterEncoder(f, codec)
	}
	return formats
}

// compile-time interface checks
var (
	_ core.Decoder = (*Codec)(nil)
	_ core.Encoder = (*Codec)(nil)
)
