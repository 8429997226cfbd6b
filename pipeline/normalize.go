package pipeline

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"

	"github.com/x-cod3r/Image-Converter-Resizer/core"
)

// Normalize converts img into a colour mode the target encoder can write.
// A buffer that is already compatible is returned as-is (same pointer), so
// normalizing twice is a no-op.
//
//	jpeg   rgb only; alpha and palettes are flattened onto white
//	png    rgb, rgba, gray, graya, paletted; anything else becomes rgba
//	heic   rgb or rgba; anything else becomes rgb
//	ico    rgba only
//	other  passed through; the encoder rejects what it cannot write
func Normalize(img *core.ImageData, target core.Format) *core.ImageData {
	mode := img.Meta.Mode
	if mode == "" {
		mode = core.ModeOf(img.Image)
	}

	switch target {
	case core.FormatJPEG:
		switch mode {
		case core.ModeRGB:
			return img
		case core.ModeRGBA, core.ModeGrayAlpha, core.ModePaletted:
			return withImage(img, CompositeOnWhite(img.Image), core.ModeRGB)
		default:
			return withImage(img, toOpaqueRGB(img.Image), core.ModeRGB)
		}
	case core.FormatPNG:
		switch mode {
		case core.ModeRGB, core.ModeRGBA, core.ModeGray, core.ModeGrayAlpha, core.ModePaletted:
			return img
		}
		return withImage(img, toNRGBA(img.Image), core.ModeRGBA)
	case core.FormatHEIC:
		if mode == core.ModeRGB || mode == core.ModeRGBA {
			return img
		}
		return withImage(img, toOpaqueRGB(img.Image), core.ModeRGB)
	case core.FormatICO:
		if mode == core.ModeRGBA {
			return img
		}
		return withImage(img, toNRGBA(img.Image), core.ModeRGBA)
	}
	return img
}

// CompositeOnWhite flattens src onto an opaque white background:
// out = c·α + 255·(1-α) per channel.
func CompositeOnWhite(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			// RGBA() is alpha-premultiplied, so adding the uncovered
			// fraction of white is enough.
			r, g, bl, a := src.At(x, y).RGBA()
			dst.SetRGBA(x-b.Min.X, y-b.Min.Y, color.RGBA{
				R: uint8((r + 0xffff - a) >> 8),
				G: uint8((g + 0xffff - a) >> 8),
				B: uint8((bl + 0xffff - a) >> 8),
				A: 0xff,
			})
		}
	}
	return dst
}

// toOpaqueRGB drops alpha but keeps the straight colour of every pixel.
func toOpaqueRGB(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x-b.Min.X, y-b.Min.Y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return dst
}

func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), src, b.Min, xdraw.Src)
	return dst
}

func withImage(img *core.ImageData, im image.Image, mode core.ColorMode) *core.ImageData {
	out := *img
	out.Image = im
	out.Meta.Mode = mode
	out.Meta.Width = im.Bounds().Dx()
	out.Meta.Height = im.Bounds().Dy()
	return &out
}
