package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/x-cod3r/Image-Converter-Resizer/config"
	apperrors "github.com/x-cod3r/Image-Converter-Resizer/errors"
	"github.com/x-cod3r/Image-Converter-Resizer/utils"
)

// Orchestrator runs one batch at a time on a dedicated worker goroutine.
// Files are processed strictly in order; a failing file is recorded and the
// batch moves on.  It is safe for concurrent use.
type Orchestrator struct {
	cfg      config.Config
	registry Registry
	planner  Planner
	logger   Logger

	mu    sync.Mutex
	state RunState

	// Atomic counters for lightweight internal metrics.
	processedCount int64
	errorCount     int64
}

// NewOrchestrator creates an idle Orchestrator.  planner builds the per-file
// pipeline (decode → resize → normalize → resolve → encode → write).
func NewOrchestrator(cfg config.Config, reg Registry, planner Planner) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		registry: reg,
		planner:  planner,
		logger:   nopLogger{},
		state:    StateIdle,
	}
}

// SetLogger attaches a structured logger.  Call before Start.
func (o *Orchestrator) SetLogger(l Logger) {
	if l == nil {
		l = nopLogger{}
	}
	o.logger = l
}

// Registry returns the codec registry used for the HEIC availability check.
func (o *Orchestrator) Registry() Registry { return o.registry }

// State reports the state of the most recent run.
func (o *Orchestrator) State() RunState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Start validates the request and launches the worker.  It fails without
// touching any file when files is empty, the settings or overrides are
// invalid, or another batch is running.
func (o *Orchestrator) Start(ctx context.Context, settings BatchSettings, files []string, overrides Overrides) (*Handle, error) {
	if len(files) == 0 {
		return nil, apperrors.New(apperrors.CategoryInvalidSettings, "start", apperrors.ErrEmptyInput)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := overrides.Validate(); err != nil {
		return nil, err
	}

	// Snapshot caller-owned inputs; the worker must not see later mutations.
	fileList := append([]string(nil), files...)
	ovCopy := make(Overrides, len(overrides))
	for k, v := range overrides {
		ovCopy[k] = v
	}

	o.mu.Lock()
	if o.state == StateRunning {
		o.mu.Unlock()
		return nil, apperrors.New(apperrors.CategoryConcurrentRun, "start", apperrors.ErrConcurrentRun)
	}
	runCtx, cancel := context.WithCancel(ctx)
	h := newHandle(len(fileList), cancel)
	o.state = StateRunning
	o.mu.Unlock()

	go o.run(runCtx, h, settings, fileList, ovCopy)
	return h, nil
}

// Close warns when a batch is still running: there is no way to stop the file
// in flight, and files already written stay on disk.  Use Handle.Cancel to
// stop after the current file.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateRunning {
		return apperrors.New(apperrors.CategoryConcurrentRun, "close", apperrors.ErrRunInProgress)
	}
	return nil
}

// ProcessedCount returns the total number of files converted successfully.
func (o *Orchestrator) ProcessedCount() int64 { return atomic.LoadInt64(&o.processedCount) }

// ErrorCount returns the total number of files that failed.
func (o *Orchestrator) ErrorCount() int64 { return atomic.LoadInt64(&o.errorCount) }

// ── worker ────────────────────────────────────────────────────────────────────

func (o *Orchestrator) run(ctx context.Context, h *Handle, s BatchSettings, files []string, ov Overrides) {
	defer h.cancel()
	start := time.Now()
	err := o.runFiles(ctx, h, s, files, ov)

	state := StateCompleted
	if err != nil {
		state = StateAborted
	}
	o.mu.Lock()
	o.state = state
	o.mu.Unlock()

	h.state = state
	h.err = err
	if err != nil {
		o.logger.Error("batch.aborted",
			"id", h.ID,
			"attempted", len(h.result.Files),
			"error", err.Error(),
		)
		h.emit(FatalError{Reason: apperrors.Reason(err), Err: err})
	} else {
		sum := h.result.Summary()
		o.logger.Info("batch.done",
			"id", h.ID,
			"succeeded", sum.Succeeded,
			"failed", sum.Failed,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		h.emit(sum)
	}
	close(h.events)
	close(h.done)
}

// runFiles is the per-batch loop.  Errors it returns abort the run; per-file
// errors never reach it.
func (o *Orchestrator) runFiles(ctx context.Context, h *Handle, s BatchSettings, files []string, ov Overrides) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.New(apperrors.CategoryPipeline, "batch", fmt.Errorf("worker panic: %v", r))
		}
	}()

	s.OutputDir = strings.TrimSpace(s.OutputDir)
	if s.OutputDir != "" {
		abs, aerr := filepath.Abs(s.OutputDir)
		if aerr != nil {
			return apperrors.Wrap(apperrors.CategoryIO, "batch.output_dir", aerr)
		}
		s.OutputDir = abs
	}
	jobs := BuildJobs(s, files, ov)

	o.logger.Info("batch.start",
		"id", h.ID,
		"files", len(jobs),
		"mode", s.Mode,
		"resize", s.Resize.Kind.String(),
		"output_dir", s.OutputDir,
	)

	for _, job := range jobs {
		if cerr := ctx.Err(); cerr != nil {
			return apperrors.Wrap(apperrors.CategoryPipeline, "batch.cancel", cerr)
		}
		h.emit(Progress{
			Index:   job.Index,
			Total:   len(jobs),
			File:    job.Name,
			Percent: float64(job.Index+1) / float64(len(jobs)) * 100,
		})
		h.result.Files = append(h.result.Files, o.processFile(ctx, job))
	}
	return nil
}

// processFile converts one file.  Every error and panic is turned into a
// failed FileResult.  Cancelling ctx does not interrupt the file; the batch
// loop stops before the next one.
func (o *Orchestrator) processFile(ctx context.Context, job ConversionJob) (res FileResult) {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	res = FileResult{Index: job.Index, Source: job.Source, Name: job.Name}

	defer func() {
		if r := recover(); r != nil {
			res.Err = apperrors.New(apperrors.CategoryPipeline, "convert", fmt.Errorf("panic: %v", r))
		}
		res.Duration = time.Since(start)
		if res.Err != nil {
			atomic.AddInt64(&o.errorCount, 1)
			o.logger.Warn("batch.file.failed",
				"file", job.Name,
				"category", apperrors.CategoryOf(res.Err),
				"error", res.Err.Error(),
			)
			return
		}
		atomic.AddInt64(&o.processedCount, 1)
		o.logger.Debug("batch.file.done",
			"file", job.Name,
			"format", job.Format,
			"output", res.OutputPath,
			"duration_ms", res.Duration.Milliseconds(),
		)
	}()

	// HEIC input needs a runtime codec; fail before reading the file.
	if FormatFromPath(job.Source) == FormatHEIC {
		if _, ok := o.registry.DecoderFor(FormatHEIC); !ok {
			res.Err = apperrors.New(apperrors.CategoryUnsupportedFormat, "heic.decode", apperrors.ErrUnsupportedFormat)
			return res
		}
	}

	img, err := o.readSource(ctx, job)
	if err != nil {
		res.Err = err
		return res
	}

	out, _, err := o.planner(job).Run(ctx, img)
	if err != nil {
		res.Err = err
		return res
	}
	res.OutputPath = out.Location
	return res
}

func (o *Orchestrator) readSource(ctx context.Context, job ConversionJob) (*ImageData, error) {
	f, err := os.Open(job.Source)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryIO, "read.open", err)
	}
	defer f.Close()

	raw, err := utils.ReadSource(ctx, f, o.cfg.MaxImageBytes, o.cfg.ChunkSize)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryIO, "read", err)
	}
	if len(raw) == 0 {
		return nil, apperrors.New(apperrors.CategoryDecode, "read", apperrors.ErrEmptyInput)
	}

	format := Format(utils.DetectFormat(raw))
	if format == FormatUnknown {
		format = FormatFromPath(job.Source)
	}
	return &ImageData{
		Data:         raw,
		Format:       format,
		Name:         job.Name,
		Meta:         Metadata{Format: format, SizeBytes: int64(len(raw))},
		OriginalSize: int64(len(raw)),
	}, nil
}

// ── Handle ────────────────────────────────────────────────────────────────────

// BatchResult is the per-file record of one run, in input order.
type BatchResult struct {
	ID    string
	Files []FileResult
}

// Summary counts the results and lists every failure.
func (r BatchResult) Summary() Summary {
	var s Summary
	for _, f := range r.Files {
		if f.Succeeded() {
			s.Succeeded++
			continue
		}
		s.Failed++
		s.Failures = append(s.Failures, Failure{
			Name:     f.Name,
			Source:   f.Source,
			Reason:   apperrors.Reason(f.Err),
			Category: string(apperrors.CategoryOf(f.Err)),
		})
	}
	return s
}

// Handle is the caller's view of a running batch.  The result is owned by
// the worker until Done is closed.
type Handle struct {
	ID    string
	Total int

	events chan Event
	done   chan struct{}
	cancel context.CancelFunc

	result BatchResult
	state  RunState
	err    error
}

func newHandle(total int, cancel context.CancelFunc) *Handle {
	id := uuid.NewString()
	return &Handle{
		ID:    id,
		Total: total,
		// One Progress per file plus the terminal event: sends never block.
		events: make(chan Event, total+1),
		done:   make(chan struct{}),
		cancel: cancel,
		result: BatchResult{ID: id, Files: make([]FileResult, 0, total)},
		state:  StateRunning,
	}
}

// Events yields Progress events followed by one Summary or FatalError, then
// is closed.
func (h *Handle) Events() <-chan Event { return h.events }

// Done is closed when the run has finished.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Cancel asks the worker to stop before the next file.  The file in flight
// is finished and files already written remain.
func (h *Handle) Cancel() { h.cancel() }

// Wait blocks until the run ends and returns its result.  The error is
// non-nil only when the run was aborted.
func (h *Handle) Wait() (BatchResult, error) {
	<-h.done
	return h.result, h.err
}

// State returns StateRunning until the run ends.
func (h *Handle) State() RunState {
	select {
	case <-h.done:
		return h.state
	default:
		return StateRunning
	}
}

func (h *Handle) emit(e Event) {
	select {
	case h.events <- e:
	default:
	}
}
