package core

import (
	"image"
	"path/filepath"
	"strings"
	"time"
)

// Format identifies an image codec.
type Format string

const (
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatWebP    Format = "webp"
	FormatBMP     Format = "bmp"
	FormatTIFF    Format = "tiff"
	FormatGIF     Format = "gif"
	FormatICO     Format = "ico"
	FormatHEIC    Format = "heic"
	FormatUnknown Format = "unknown"
)

// TargetFormats lists every format a batch can convert to.
var TargetFormats = []Format{
	FormatJPEG, FormatPNG, FormatWebP, FormatBMP, FormatTIFF, FormatGIF, FormatICO, FormatHEIC,
}

// ParseFormat maps a user-facing name ("JPEG", "jpg", "tif", "heif", ...) to a
// Format.  Unknown names yield FormatUnknown and false.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "jpeg", "jpg":
		return FormatJPEG, true
	case "png":
		return FormatPNG, true
	case "webp":
		return FormatWebP, true
	case "bmp":
		return FormatBMP, true
	case "tiff", "tif":
		return FormatTIFF, true
	case "gif":
		return FormatGIF, true
	case "ico":
		return FormatICO, true
	case "heic", "heif":
		return FormatHEIC, true
	}
	return FormatUnknown, false
}

// FormatFromPath guesses the format of a file from its extension.
func FormatFromPath(path string) Format {
	f, _ := ParseFormat(filepath.Ext(path))
	return f
}

// QualityBearing reports whether the encoder for f takes a lossy quality.
func (f Format) QualityBearing() bool {
	switch f {
	case FormatJPEG, FormatWebP, FormatHEIC:
		return true
	}
	return false
}

// Extension returns the output file extension (no dot).
func (f Format) Extension() string { return strings.ToLower(string(f)) }

// ColorMode is the pixel encoding of a decoded buffer.
type ColorMode string

const (
	ModeRGB       ColorMode = "rgb"
	ModeRGBA      ColorMode = "rgba"
	ModeGray      ColorMode = "gray"
	ModeGrayAlpha ColorMode = "graya"
	ModePaletted  ColorMode = "paletted"
	ModeCMYK      ColorMode = "cmyk" // also used for any other non-standard model
)

// HasAlpha reports whether m carries an alpha channel.
func (m ColorMode) HasAlpha() bool { return m == ModeRGBA || m == ModeGrayAlpha }

// Metadata holds extracted image information without loading pixel data.
type Metadata struct {
	Width     int
	Height    int
	Format    Format
	Mode      ColorMode
	SizeBytes int64
}

// ImageData is the in-memory representation passed through a pipeline.
// Data holds encoded bytes; Image holds the decoded pixel buffer.
type ImageData struct {
	// Encoded bytes: raw input before decode, encoder output after encode.
	Data   []byte
	Format Format

	// Decoded pixel buffer.  Meta.Mode is authoritative for its colour mode
	// because Go has no dedicated grayscale+alpha image type.
	Image image.Image

	Meta Metadata

	// Name is the source file name, for logging.
	Name string
	// Output is where the encoded bytes go; set by the output resolve step.
	Output StorageKey
	// Location is the written output as reported to callers; set on write.
	Location string

	OriginalSize int64
}

// ── Batch model ───────────────────────────────────────────────────────────────

// ConversionMode selects how target formats are chosen.
type ConversionMode string

const (
	ModeSingle  ConversionMode = "single"   // every file gets the batch default
	ModePerFile ConversionMode = "per_file" // each file may carry an override
)

// Per-file fallback target when a file has no override.
const (
	DefaultFormat  = FormatJPEG
	DefaultQuality = 85
)

// ResizeKind tags the ResizeSpec variant.
type ResizeKind int

const (
	ResizeKeep ResizeKind = iota
	ResizeFixed
	ResizePercent
)

func (k ResizeKind) String() string {
	switch k {
	case ResizeFixed:
		return "fixed"
	case ResizePercent:
		return "percent"
	}
	return "keep"
}

// ResizeSpec describes how every image in a batch is resized.
type ResizeSpec struct {
	Kind           ResizeKind
	Width, Height  int     // ResizeFixed only
	PreserveAspect bool    // ResizeFixed only
	Percent        float64 // ResizePercent only
}

// KeepOriginal leaves dimensions untouched.
func KeepOriginal() ResizeSpec { return ResizeSpec{Kind: ResizeKeep} }

// FixedDimensions resizes to w×h, or fits within w×h when preserveAspect is set.
func FixedDimensions(w, h int, preserveAspect bool) ResizeSpec {
	return ResizeSpec{Kind: ResizeFixed, Width: w, Height: h, PreserveAspect: preserveAspect}
}

// PercentageScale scales both axes by percent/100.
func PercentageScale(percent float64) ResizeSpec {
	return ResizeSpec{Kind: ResizePercent, Percent: percent}
}

// BatchSettings are the global defaults for one run.
type BatchSettings struct {
	Mode      ConversionMode
	Format    Format
	Quality   int
	Resize    ResizeSpec
	OutputDir string // empty: write beside each source
}

// Override is a per-file target used in ModePerFile.
type Override struct {
	Format  Format
	Quality int
}

// Overrides maps OverrideKey(path) to a per-file target.
type Overrides map[string]Override

// OverrideKey normalises a path into the stable identity used by Overrides.
func OverrideKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Lookup returns the override for path, if any.
func (o Overrides) Lookup(path string) (Override, bool) {
	if o == nil {
		return Override{}, false
	}
	ov, ok := o[OverrideKey(path)]
	return ov, ok
}

// ConversionJob is the immutable plan for one input file.
type ConversionJob struct {
	Index     int
	Source    string // absolute path
	Name      string // base name, for reporting
	Format    Format
	Quality   int
	Resize    ResizeSpec
	OutputDir string
}

// ── Results and events ────────────────────────────────────────────────────────

// FileResult is the outcome of one file.  Err is nil on success.
type FileResult struct {
	Index      int
	Source     string
	Name       string
	OutputPath string
	Err        error
	Duration   time.Duration
}

// Succeeded reports whether the file was written.
func (r FileResult) Succeeded() bool { return r.Err == nil }

// Failure names one failed file in a Summary.
type Failure struct {
	Name     string
	Source   string
	Reason   string
	Category string
}

// RunState is the orchestrator's state machine.
type RunState string

const (
	StateIdle      RunState = "idle"
	StateRunning   RunState = "running"
	StateCompleted RunState = "completed"
	StateAborted   RunState = "aborted"
)

// Event is delivered on Handle.Events: Progress, then one Summary or FatalError.
type Event interface{ isEvent() }

// Progress is emitted before each file is processed.
type Progress struct {
	Index   int // zero-based
	Total   int
	File    string
	Percent float64 // (Index+1)/Total*100
}

// Summary is the terminal event of a completed run.
type Summary struct {
	Succeeded int
	Failed    int
	Failures  []Failure
}

// FatalError is the terminal event of an aborted run.
type FatalError struct {
	Reason string
	Err    error
}

func (Progress) isEvent()   {}
func (Summary) isEvent()    {}
func (FatalError) isEvent() {}

// StorageKey uniquely identifies a stored output.
type StorageKey struct {
	Dir  string
	Name string
}
