package utils

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Resample scales src to exactly w×h with Catmull-Rom filtering.  Gray
// sources stay gray; everything else is resampled into RGBA.
func Resample(src image.Image, w, h int) image.Image {
	rect := image.Rect(0, 0, w, h)
	var dst xdraw.Image
	switch src.(type) {
	case *image.Gray, *image.Gray16:
		dst = image.NewGray(rect)
	default:
		dst = image.NewRGBA(rect)
	}
	xdraw.CatmullRom.Scale(dst, rect, src, src.Bounds(), xdraw.Src, nil)
	return dst
}
