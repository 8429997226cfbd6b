package core

import "image"

// ModeOf classifies a decoded image.  RGBA-family buffers that are fully
// opaque are reported as ModeRGB; Go has no separate RGB type.  Grayscale with
// alpha cannot be told apart from RGBA here, so decoders that know better set
// Meta.Mode themselves.
func ModeOf(img image.Image) ColorMode {
	switch m := img.(type) {
	case nil:
		return ModeRGB
	case *image.Paletted:
		return ModePaletted
	case *image.Gray, *image.Gray16:
		return ModeGray
	case *image.CMYK:
		return ModeCMYK
	case *image.YCbCr:
		return ModeRGB
	case interface{ Opaque() bool }:
		if m.Opaque() {
			return ModeRGB
		}
		return ModeRGBA
	}
	return ModeRGBA
}
