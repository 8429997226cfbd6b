package utils

import (
	"bytes"
	"math"
	"net/http"
)

const (
	formatJPEG    = "jpeg"
	formatPNG     = "png"
	formatWebP    = "webp"
	formatBMP     = "bmp"
	formatTIFF    = "tiff"
	formatGIF     = "gif"
	formatICO     = "ico"
	formatHEIC    = "heic"
	formatUnknown = "unknown"
)

// HEIF brands found at offset 8 of the ftyp box.
var heifBrands = map[string]bool{
	"heic": true, "heix": true, "hevc": true, "hevx": true,
	"heim": true, "heis": true, "mif1": true, "msf1": true,
}

// DetectFormat sniffs the leading bytes of data and returns the image format.
func DetectFormat(data []byte) string {
	if len(data) < 4 {
		return formatUnknown
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return formatJPEG
	}
	// PNG: 89 50 4E 47
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return formatPNG
	}
	// WebP: RIFF....WEBP
	if len(data) >= 12 &&
		data[0] == 'R' && data[1] == 'I' && data[2] == 'F' && data[3] == 'F' &&
		data[8] == 'W' && data[9] == 'E' && data[10] == 'B' && data[11] == 'P' {
		return formatWebP
	}
	if bytes.HasPrefix(data, []byte("GIF8")) {
		return formatGIF
	}
	// TIFF: II*\0 or MM\0*
	if bytes.HasPrefix(data, []byte{'I', 'I', 0x2A, 0x00}) || bytes.HasPrefix(data, []byte{'M', 'M', 0x00, 0x2A}) {
		return formatTIFF
	}
	// HEIC: ....ftyp<brand>
	if len(data) >= 12 && string(data[4:8]) == "ftyp" && heifBrands[string(data[8:12])] {
		return formatHEIC
	}
	// ICO: reserved 0, type 1
	if data[0] == 0 && data[1] == 0 && data[2] == 1 && data[3] == 0 {
		return formatICO
	}
	if data[0] == 'B' && data[1] == 'M' {
		return formatBMP
	}
	// Fallback to net/http sniffing.
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return formatJPEG
	case "image/png":
		return formatPNG
	case "image/webp":
		return formatWebP
	case "image/gif":
		return formatGIF
	case "image/bmp":
		return formatBMP
	}
	return formatUnknown
}

// FitWithin scales (srcW, srcH) down to fit inside maxW×maxH while keeping the
// aspect ratio.  The binding axis lands exactly on its bound; images that
// already fit are returned unchanged.
func FitWithin(srcW, srcH, maxW, maxH int) (int, int) {
	if srcW <= 0 || srcH <= 0 || maxW <= 0 || maxH <= 0 {
		return srcW, srcH
	}
	if srcW <= maxW && srcH <= maxH {
		return srcW, srcH
	}
	// Compare srcW/srcH with maxW/maxH without floating point.
	if int64(srcW)*int64(maxH) >= int64(srcH)*int64(maxW) {
		h := int(math.Round(float64(srcH) * float64(maxW) / float64(srcW)))
		return maxW, max(h, 1)
	}
	w := int(math.Round(float64(srcW) * float64(maxH) / float64(srcH)))
	return max(w, 1), maxH
}

// PercentDimensions scales both axes by percent/100, rounding to the nearest
// pixel.  ok is false when either axis would round to zero.
func PercentDimensions(w, h int, percent float64) (nw, nh int, ok bool) {
	nw = int(math.Round(float64(w) * percent / 100))
	nh = int(math.Round(float64(h) * percent / 100))
	if nw <= 0 || nh <= 0 {
		return w, h, false
	}
	return nw, nh, true
}
