package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/x-cod3r/Image-Converter-Resizer/core"
	apperrors "github.com/x-cod3r/Image-Converter-Resizer/errors"
)

// ── Decode ────────────────────────────────────────────────────────────────────

// DecodeStep decodes raw bytes in img.Data into an image.Image.
type DecodeStep struct {
	Registry core.Registry
}

func (s *DecodeStep) Name() string { return "decode" }

func (s *DecodeStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	if img.Image != nil {
		return img, nil // already decoded
	}
	if len(img.Data) == 0 {
		return nil, apperrors.New(apperrors.CategoryDecode, s.Name(), apperrors.ErrEmptyInput)
	}
	dec, ok := s.Registry.DecoderFor(img.Format)
	if !ok {
		return nil, apperrors.New(apperrors.CategoryUnsupportedFormat, s.Name(),
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, img.Format))
	}

	decoded, err := dec.Decode(ctx, bytes.NewReader(img.Data))
	if err != nil {
		if apperrors.CategoryOf(err) == apperrors.CategoryPipeline {
			return nil, apperrors.Wrap(apperrors.CategoryDecode, s.Name(), err)
		}
		return nil, err
	}

	decoded.Data = img.Data
	decoded.Name = img.Name
	decoded.OriginalSize = img.OriginalSize
	if decoded.Meta.Mode == "" {
		decoded.Meta.Mode = core.ModeOf(decoded.Image)
	}
	return decoded, nil
}

// ── Resize ────────────────────────────────────────────────────────────────────

// ResizeStep applies the batch resize policy.
type ResizeStep struct {
	Spec core.ResizeSpec
}

func (s *ResizeStep) Name() string { return "resize" }

func (s *ResizeStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	return Resize(img, s.Spec)
}

// ── Normalize ─────────────────────────────────────────────────────────────────

// NormalizeStep converts the colour mode for the target encoder.
type NormalizeStep struct {
	Target core.Format
}

func (s *NormalizeStep) Name() string { return "normalize" }

func (s *NormalizeStep) Execute(_ context.Context, img *core.ImageData) (*core.ImageData, error) {
	if img.Image == nil {
		return nil, apperrors.New(apperrors.CategoryPipeline, s.Name(), apperrors.ErrEmptyInput)
	}
	return Normalize(img, s.Target), nil
}

// ── Resolve output ────────────────────────────────────────────────────────────

// ResolveOutputStep picks the output key for the job.
type ResolveOutputStep struct {
	Resolver  *core.OutputResolver
	Source    string
	Format    core.Format
	OutputDir string
}

func (s *ResolveOutputStep) Name() string { return "resolve_output" }

func (s *ResolveOutputStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	key, err := s.Resolver.Resolve(ctx, s.Source, s.Format, s.OutputDir)
	if err != nil {
		return nil, wrapIO(s.Name(), err)
	}
	out := *img
	out.Output = key
	return &out, nil
}

// ── Encode ────────────────────────────────────────────────────────────────────

// EncodeStep serialises the image.Image into Format using the registry.
type EncodeStep struct {
	Registry core.Registry
	Format   core.Format
	Options  core.EncodeOptions
}

func (s *EncodeStep) Name() string { return "encode" }

func (s *EncodeStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	enc, ok := s.Registry.EncoderFor(s.Format)
	if !ok {
		return nil, apperrors.New(apperrors.CategoryUnsupportedFormat, s.Name(),
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, s.Format))
	}
	if ma, ok := enc.(core.ModeAware); ok && !ma.AcceptsMode(img.Meta.Mode) {
		return nil, apperrors.New(apperrors.CategoryEncodeMode, s.Name(),
			fmt.Errorf("%w: %s cannot write %s", apperrors.ErrModeUnsupported, s.Format, img.Meta.Mode))
	}

	data, err := enc.Encode(ctx, img, s.Options)
	if err != nil {
		if apperrors.CategoryOf(err) == apperrors.CategoryPipeline {
			return nil, apperrors.Wrap(apperrors.CategoryEncode, s.Name(), err)
		}
		return nil, err
	}

	out := *img
	out.Data = data
	out.Format = s.Format
	out.Meta.Format = s.Format
	out.Meta.SizeBytes = int64(len(data))
	return &out, nil
}

// ── Write ─────────────────────────────────────────────────────────────────────

// maxCollisionRetries bounds re-resolution when another writer takes the
// chosen name between resolve and write.
const maxCollisionRetries = 3

// WriteStep stores the encoded bytes at img.Output without overwriting
// anything.  On a lost race for the name it resolves a fresh one.
type WriteStep struct {
	Store     core.StorageAdapter
	Resolver  *core.OutputResolver
	Source    string
	OutputDir string
}

func (s *WriteStep) Name() string { return "write" }

func (s *WriteStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	if len(img.Data) == 0 {
		return nil, apperrors.New(apperrors.CategoryEncode, s.Name(), apperrors.ErrEmptyInput)
	}
	key := img.Output
	meta := map[string]string{
		"source-name": img.Name,
		"format":      string(img.Format),
	}

	for attempt := 0; ; attempt++ {
		err := s.Store.Put(ctx, key, bytes.NewReader(img.Data), meta)
		if err == nil {
			break
		}
		if !errors.Is(err, apperrors.ErrOutputExists) || attempt == maxCollisionRetries || s.Resolver == nil {
			return nil, wrapIO(s.Name(), err)
		}
		next, rerr := s.Resolver.Resolve(ctx, s.Source, img.Format, s.OutputDir)
		if rerr != nil {
			return nil, wrapIO(s.Name(), rerr)
		}
		key = next
	}

	out := *img
	out.Output = key
	out.Location = s.Store.Locate(key)
	return &out, nil
}

// wrapIO tags storage failures as IO unless they already carry a category.
func wrapIO(op string, err error) error {
	var pe *apperrors.ProcessingError
	if errors.As(err, &pe) {
		return err
	}
	return apperrors.Wrap(apperrors.CategoryIO, op, err)
}
