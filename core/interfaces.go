package core

import (
	"context"
	"io"
	"time"
)

// Decoder turns a source file's bytes into a pixel buffer.  Decoders set
// Meta.Mode when the file header says more than the Go image type does
// (grayscale+alpha PNG, for instance).
type Decoder interface {
	Decode(ctx context.Context, r io.Reader) (*ImageData, error)
	CanDecode(format Format) bool
}

// Encoder writes a normalized pixel buffer in one target format.
type Encoder interface {
	Encode(ctx context.Context, img *ImageData, opts EncodeOptions) ([]byte, error)
	CanEncode(format Format) bool
}

// ModeAware is implemented by encoders that only accept some colour modes.
// Encoders that do not implement it accept every mode.
type ModeAware interface {
	AcceptsMode(m ColorMode) bool
}

// EncodeOptions carries format-specific encoding parameters.
type EncodeOptions struct {
	Quality   int   // 1-100; 0 = use encoder default
	Optimize  bool  // spend more CPU on smaller output where the codec allows it
	IconSizes []int // ICO only: square entry sizes to request
}

// StorageAdapter is where converted files go.  Put must never replace an
// existing object; it reports errors.ErrOutputExists instead.
type StorageAdapter interface {
	Put(ctx context.Context, key StorageKey, r io.Reader, meta map[string]string) error
	Get(ctx context.Context, key StorageKey) (io.ReadCloser, error)
	Delete(ctx context.Context, key StorageKey) error
	Exists(ctx context.Context, key StorageKey) (bool, error)
	// Locate renders key as the location reported to callers.
	Locate(key StorageKey) string
}

// DirPreparer is implemented by storage backends with real directories.
type DirPreparer interface {
	EnsureDir(ctx context.Context, dir string) error
}

// MetricsCollector receives per-step observations from hooks.MetricsHook.
type MetricsCollector interface {
	RecordProcessingTime(stepName string, d interface{ Seconds() float64 })
	RecordThroughput(bytes int64)
	RecordMemory(bytes int64)
	RecordError(stepName string, category string)
}

// Logger takes a message and alternating key/value fields.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Registry holds the codecs available to a converter.  A format is readable
// when it has a Decoder and targetable when it has an Encoder.
type Registry interface {
	DecoderFor(format Format) (Decoder, bool)
	EncoderFor(format Format) (Encoder, bool)
	RegisterDecoder(format Format, d Decoder)
	RegisterEncoder(format Format, e Encoder)
}

// Step is the fundamental pipeline building block.  Each Step transforms an
// *ImageData value and must be safe for concurrent use across goroutines.
type Step interface {
	Name() string
	Execute(ctx context.Context, img *ImageData) (*ImageData, error)
}

// Hook is an optional observer invoked around pipeline steps.
type Hook interface {
	BeforeStep(ctx context.Context, stepName string, img *ImageData)
	AfterStep(ctx context.Context, stepName string, img *ImageData, d time.Duration, err error)
}

// PipelineRunner is a minimal interface over pipeline.Pipeline so that core
// does not import the pipeline package (avoiding a circular dependency).
type PipelineRunner interface {
	Run(ctx context.Context, img *ImageData) (*ImageData, map[string]time.Duration, error)
}

// Planner builds the per-file pipeline for a job.
type Planner func(job ConversionJob) PipelineRunner

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
