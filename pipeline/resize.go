package pipeline

import (
	"github.com/x-cod3r/Image-Converter-Resizer/core"
	apperrors "github.com/x-cod3r/Image-Converter-Resizer/errors"
	"github.com/x-cod3r/Image-Converter-Resizer/utils"
)

// Resize applies spec to img.  ResizeKeep, a percentage that would round an
// axis to zero, and a target equal to the current size all return img
// unchanged (same pointer).
func Resize(img *core.ImageData, spec core.ResizeSpec) (*core.ImageData, error) {
	if img.Image == nil {
		return nil, apperrors.New(apperrors.CategoryPipeline, "resize", apperrors.ErrEmptyInput)
	}
	b := img.Image.Bounds()
	w, h := b.Dx(), b.Dy()

	var dstW, dstH int
	switch spec.Kind {
	case core.ResizeKeep:
		return img, nil
	case core.ResizeFixed:
		if spec.PreserveAspect {
			dstW, dstH = utils.FitWithin(w, h, spec.Width, spec.Height)
		} else {
			dstW, dstH = spec.Width, spec.Height
		}
	case core.ResizePercent:
		var ok bool
		if dstW, dstH, ok = utils.PercentDimensions(w, h, spec.Percent); !ok {
			return img, nil
		}
	default:
		return nil, apperrors.InvalidSettings("resize", "unknown resize kind %d", spec.Kind)
	}

	if dstW == w && dstH == h {
		return img, nil
	}
	if dstW <= 0 || dstH <= 0 {
		return nil, apperrors.New(apperrors.CategoryPipeline, "resize", apperrors.ErrInvalidDimensions)
	}

	dst := utils.Resample(img.Image, dstW, dstH)
	mode := core.ModeOf(dst)
	if img.Meta.Mode == core.ModeGrayAlpha {
		mode = core.ModeGrayAlpha
	}
	return withImage(img, dst, mode), nil
}
