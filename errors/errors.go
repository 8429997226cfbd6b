package errors

import (
	"errors"
	"fmt"
)

// Category classifies error types for targeted handling and monitoring.
type Category string

const (
	CategoryDecode            Category = "decode"
	CategoryUnsupportedFormat Category = "unsupported_format"
	CategoryEncode            Category = "encode"
	CategoryEncodeMode        Category = "encode_mode"
	CategoryIO                Category = "io"
	CategoryInvalidSettings   Category = "invalid_settings"
	CategoryConcurrentRun     Category = "concurrent_run"
	CategoryPipeline          Category = "pipeline"
	CategoryConfig            Category = "config"
	CategoryTransient         Category = "transient"
)

// ProcessingError is the structured error type used throughout the module.
type ProcessingError struct {
	Category  Category
	Op        string // operation name
	Err       error
	Retryable bool
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Category, e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// New creates a non-retryable ProcessingError.
func New(category Category, op string, err error) *ProcessingError {
	return &ProcessingError{Category: category, Op: op, Err: err}
}

// Transient creates a retryable ProcessingError.
func Transient(op string, err error) *ProcessingError {
	return &ProcessingError{Category: CategoryTransient, Op: op, Err: err, Retryable: true}
}

// Wrap wraps an existing error with context.
func Wrap(category Category, op string, err error) error {
	if err == nil {
		return nil
	}
	return New(category, op, err)
}

// InvalidSettings reports a rejected batch setting.
func InvalidSettings(op, format string, args ...any) *ProcessingError {
	return New(CategoryInvalidSettings, op, fmt.Errorf("%w: %s", ErrInvalidSettings, fmt.Sprintf(format, args...)))
}

// IsRetryable reports whether err represents a transient failure.
func IsRetryable(err error) bool {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// IsCategory reports whether err belongs to the given category.
func IsCategory(err error, cat Category) bool {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Category == cat
	}
	return false
}

// CategoryOf returns the category of the outermost ProcessingError in err's
// chain, or CategoryPipeline for foreign errors.
func CategoryOf(err error) Category {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return CategoryPipeline
}

// Reason renders err as the short diagnostic used in batch summaries: the
// innermost cause without the category and op decoration.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var pe *ProcessingError
	for errors.As(err, &pe) {
		err = pe.Err
		if err == nil {
			return string(pe.Category)
		}
	}
	return err.Error()
}

// Sentinel errors for common failure modes.
var (
	ErrUnsupportedFormat  = errors.New("format not supported")
	ErrModeUnsupported    = errors.New("color mode not supported by encoder")
	ErrInvalidDimensions  = errors.New("invalid dimensions")
	ErrEmptyInput         = errors.New("empty input")
	ErrInvalidSettings    = errors.New("invalid settings")
	ErrConcurrentRun      = errors.New("a batch is already running")
	ErrRunInProgress      = errors.New("batch in progress: files already written will remain")
	ErrOutputExists       = errors.New("output already exists")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
