// Package hooks provides the Hook and Logger implementations used by the
// converter: slog-backed logging and in-memory metrics.
package hooks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/x-cod3r/Image-Converter-Resizer/core"
	apperrors "github.com/x-cod3r/Image-Converter-Resizer/errors"
)

// ── Structured logger adapter ─────────────────────────────────────────────────

// SlogLogger adapts *slog.Logger to core.Logger.  Fields are alternating
// key/value pairs, as slog expects.
type SlogLogger struct {
	log *slog.Logger
}

// NewSlogLogger wraps l; nil means slog.Default().
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{log: l}
}

// With returns a logger that adds fields to every record.
func (s *SlogLogger) With(fields ...interface{}) *SlogLogger {
	return &SlogLogger{log: s.log.With(fields...)}
}

func (s *SlogLogger) Debug(msg string, fields ...interface{}) { s.emit(slog.LevelDebug, msg, fields) }
func (s *SlogLogger) Info(msg string, fields ...interface{})  { s.emit(slog.LevelInfo, msg, fields) }
func (s *SlogLogger) Warn(msg string, fields ...interface{})  { s.emit(slog.LevelWarn, msg, fields) }
func (s *SlogLogger) Error(msg string, fields ...interface{}) { s.emit(slog.LevelError, msg, fields) }

func (s *SlogLogger) emit(level slog.Level, msg string, fields []interface{}) {
	s.log.Log(context.Background(), level, msg, fields...)
}

// ── Logging hook ──────────────────────────────────────────────────────────────

// LoggingHook logs every pipeline step of every file at debug level.
type LoggingHook struct {
	logger core.Logger
}

func NewLoggingHook(l core.Logger) *LoggingHook { return &LoggingHook{logger: l} }

func (h *LoggingHook) BeforeStep(_ context.Context, stepName string, img *core.ImageData) {
	h.logger.Debug("pipeline.step.start",
		"step", stepName,
		"file", img.Name,
		"mode", img.Meta.Mode,
		"width", img.Meta.Width,
		"height", img.Meta.Height,
	)
}

func (h *LoggingHook) AfterStep(_ context.Context, stepName string, img *core.ImageData, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("pipeline.step.error",
			"step", stepName,
			"duration_ms", d.Milliseconds(),
			"category", apperrors.CategoryOf(err),
			"error", err.Error(),
		)
		return
	}
	fields := []interface{}{"step", stepName, "duration_ms", d.Milliseconds()}
	if img != nil {
		fields = append(fields, "file", img.Name, "mode", img.Meta.Mode,
			"width", img.Meta.Width, "height", img.Meta.Height)
		if stepName == "write" {
			fields = append(fields, "output", img.Location, "bytes", img.Meta.SizeBytes)
		}
	}
	h.logger.Debug("pipeline.step.done", fields...)
}

// ── In-memory metrics collector ───────────────────────────────────────────────

// OutputRecorder is implemented by collectors that count written files per
// target format.  MetricsHook uses it when available.
type OutputRecorder interface {
	RecordOutput(format core.Format, bytes int64)
}

type stepStats struct {
	calls, errors int64
	total         time.Duration
}

// InMemoryMetrics accumulates observations for one process.  Safe for
// concurrent use.
type InMemoryMetrics struct {
	mu         sync.Mutex
	steps      map[string]*stepStats
	categories map[string]int64
	outputs    map[core.Format]int64

	bytesWritten int64
	pixelBytes   int64
}

func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		steps:      make(map[string]*stepStats),
		categories: make(map[string]int64),
		outputs:    make(map[core.Format]int64),
	}
}

func (m *InMemoryMetrics) step(name string) *stepStats {
	st, ok := m.steps[name]
	if !ok {
		st = &stepStats{}
		m.steps[name] = st
	}
	return st
}

func (m *InMemoryMetrics) RecordProcessingTime(stepName string, d interface{ Seconds() float64 }) {
	m.mu.Lock()
	st := m.step(stepName)
	st.calls++
	st.total += time.Duration(d.Seconds() * float64(time.Second))
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordThroughput(bytes int64) {
	m.mu.Lock()
	m.bytesWritten += bytes
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordMemory(bytes int64) {
	m.mu.Lock()
	m.pixelBytes += bytes
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordError(stepName string, category string) {
	m.mu.Lock()
	m.step(stepName).errors++
	m.categories[category]++
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordOutput(format core.Format, _ int64) {
	m.mu.Lock()
	m.outputs[format]++
	m.mu.Unlock()
}

// Snapshot returns a copy of the current counters.
func (m *InMemoryMetrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetricsSnapshot{
		StepDurationsMs:  make(map[string]int64, len(m.steps)),
		StepCalls:        make(map[string]int64, len(m.steps)),
		StepErrors:       make(map[string]int64, len(m.steps)),
		CategoryErrors:   make(map[string]int64, len(m.categories)),
		OutputsByFormat:  make(map[string]int64, len(m.outputs)),
		TotalThroughputB: m.bytesWritten,
		TotalMemoryB:     m.pixelBytes,
	}
	for name, st := range m.steps {
		snap.StepDurationsMs[name] = st.total.Milliseconds()
		snap.StepCalls[name] = st.calls
		snap.StepErrors[name] = st.errors
	}
	for c, n := range m.categories {
		snap.CategoryErrors[c] = n
	}
	for f, n := range m.outputs {
		snap.OutputsByFormat[string(f)] = n
	}
	return snap
}

// MetricsSnapshot is a point-in-time copy of InMemoryMetrics.
type MetricsSnapshot struct {
	StepDurationsMs  map[string]int64
	StepCalls        map[string]int64
	StepErrors       map[string]int64
	CategoryErrors   map[string]int64 // keyed by errors.Category
	OutputsByFormat  map[string]int64 // files written per target format
	TotalThroughputB int64            // bytes written
	TotalMemoryB     int64            // decoded pixel bytes
}

// ── Metrics hook ──────────────────────────────────────────────────────────────

// MetricsHook feeds pipeline step results into a MetricsCollector.
type MetricsHook struct {
	collector core.MetricsCollector
}

func NewMetricsHook(c core.MetricsCollector) *MetricsHook { return &MetricsHook{collector: c} }

func (h *MetricsHook) BeforeStep(context.Context, string, *core.ImageData) {}

func (h *MetricsHook) AfterStep(_ context.Context, stepName string, img *core.ImageData, d time.Duration, err error) {
	h.collector.RecordProcessingTime(stepName, d)
	if err != nil {
		h.collector.RecordError(stepName, string(apperrors.CategoryOf(err)))
		return
	}
	if img == nil {
		return
	}
	switch stepName {
	case "decode":
		h.collector.RecordMemory(int64(img.Meta.Width) * int64(img.Meta.Height) * 4)
	case "write":
		h.collector.RecordThroughput(img.Meta.SizeBytes)
		if or, ok := h.collector.(OutputRecorder); ok {
			or.RecordOutput(img.Format, img.Meta.SizeBytes)
		}
	}
}
