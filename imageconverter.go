// Package imageconverter converts and resizes batches of image files.
//
// A Converter owns a codec registry, a storage backend and a single-batch
// orchestrator.  Each file runs through its own pipeline:
//
//	decode → resize → normalize → resolve output → encode → write
//
// Files are processed in order on one worker goroutine; a failure in one file
// is recorded and never stops the batch.
package imageconverter

import (
	"context"
	"os"
	"sync"

	"github.com/x-cod3r/Image-Converter-Resizer/adapters/decoder"
	"github.com/x-cod3r/Image-Converter-Resizer/adapters/encoder"
	"github.com/x-cod3r/Image-Converter-Resizer/adapters/storage"
	"github.com/x-cod3r/Image-Converter-Resizer/config"
	"github.com/x-cod3r/Image-Converter-Resizer/core"
	apperrors "github.com/x-cod3r/Image-Converter-Resizer/errors"
	"github.com/x-cod3r/Image-Converter-Resizer/hooks"
	"github.com/x-cod3r/Image-Converter-Resizer/pipeline"
	"github.com/x-cod3r/Image-Converter-Resizer/utils"
)

// Re-export Format constants for convenience.
const (
	JPEG = core.FormatJPEG
	PNG  = core.FormatPNG
	WebP = core.FormatWebP
	BMP  = core.FormatBMP
	TIFF = core.FormatTIFF
	GIF  = core.FormatGIF
	ICO  = core.FormatICO
	HEIC = core.FormatHEIC
)

// DefaultConfig returns a sensible production configuration.
func DefaultConfig() config.Config { return config.Default() }

// Converter is the primary entry point.
type Converter struct {
	cfg      config.Config
	reg      *core.DefaultRegistry
	store    core.StorageAdapter
	resolver *core.OutputResolver
	orch     *core.Orchestrator

	mu    sync.RWMutex
	hooks []core.Hook
}

// New creates a Converter with the pure-Go codecs registered and the storage
// backend selected by cfg.  WEBP and HEIC output need the libvips backend:
// see adapters/vips.RegisterVipsBackend.
func New(cfg config.Config) (*Converter, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryConfig, "new", err)
	}
	store, err := NewStorage(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithStorage(cfg, store)
}

// NewWithStorage is New with a caller-supplied storage backend.
func NewWithStorage(cfg config.Config, store core.StorageAdapter) (*Converter, error) {
	if store == nil {
		return nil, apperrors.New(apperrors.CategoryConfig, "new", apperrors.ErrStorageUnavailable)
	}
	reg := core.NewRegistry()
	decoder.Register(reg)
	encoder.Register(reg, core.DefaultQuality)

	c := &Converter{
		cfg:      cfg,
		reg:      reg,
		store:    store,
		resolver: core.NewOutputResolver(store),
	}
	c.orch = core.NewOrchestrator(cfg, reg, c.plan)
	return c, nil
}

// NewStorage builds the storage backend named by cfg.Storage.
func NewStorage(cfg config.Config) (core.StorageAdapter, error) {
	switch cfg.Storage {
	case config.StorageS3:
		s, err := storage.NewS3(storage.NewAWSClient(cfg.S3), cfg.S3.Bucket, cfg.S3.Prefix)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CategoryConfig, "storage.s3", err)
		}
		return s, nil
	default:
		l, err := storage.NewLocal(cfg.Local.RootDir, os.FileMode(cfg.Local.Permissions))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CategoryConfig, "storage.local", err)
		}
		return l, nil
	}
}

// plan builds the per-file pipeline for job.
func (c *Converter) plan(job core.ConversionJob) core.PipelineRunner {
	p := pipeline.New().Use(
		&pipeline.DecodeStep{Registry: c.reg},
		&pipeline.ResizeStep{Spec: job.Resize},
		&pipeline.NormalizeStep{Target: job.Format},
		&pipeline.ResolveOutputStep{Resolver: c.resolver, Source: job.Source, Format: job.Format, OutputDir: job.OutputDir},
		&pipeline.EncodeStep{Registry: c.reg, Format: job.Format, Options: encodeOptions(job)},
		&pipeline.WriteStep{Store: c.store, Resolver: c.resolver, Source: job.Source, OutputDir: job.OutputDir},
	).WithRetry(c.cfg.MaxRetries, c.cfg.RetryDelay)

	c.mu.RLock()
	p.AddHook(c.hooks...)
	c.mu.RUnlock()
	return p
}

// encodeOptions passes quality only to formats that use it and requests the
// standard icon sizes for ICO.
func encodeOptions(job core.ConversionJob) core.EncodeOptions {
	opts := core.EncodeOptions{Optimize: true}
	if job.Format.QualityBearing() {
		opts.Quality = job.Quality
	}
	if job.Format == core.FormatICO {
		opts.IconSizes = encoder.DefaultIconSizes
	}
	return opts
}

// SetLogger attaches a structured logger to the orchestrator and logs every
// pipeline step at debug level.
func (c *Converter) SetLogger(l core.Logger) {
	c.orch.SetLogger(l)
	if l != nil {
		c.AddHook(hooks.NewLoggingHook(l))
	}
}

// SetMetrics feeds pipeline step observations into m.
func (c *Converter) SetMetrics(m core.MetricsCollector) { c.AddHook(hooks.NewMetricsHook(m)) }

// AddHook registers an observer for pipeline step events.  It applies to
// files started after the call.
func (c *Converter) AddHook(h core.Hook) {
	c.mu.Lock()
	c.hooks = append(c.hooks, h)
	c.mu.Unlock()
}

// Registry exposes the codec registry, e.g. for the libvips backend.
func (c *Converter) Registry() core.Registry { return c.reg }

// RegisterDecoder registers a custom decoder for the given format.
func (c *Converter) RegisterDecoder(f core.Format, d core.Decoder) { c.reg.RegisterDecoder(f, d) }

// RegisterEncoder registers a custom encoder for the given format.
func (c *Converter) RegisterEncoder(f core.Format, e core.Encoder) { c.reg.RegisterEncoder(f, e) }

// EncodableFormats lists the target formats this Converter can write.
func (c *Converter) EncodableFormats() []core.Format { return c.reg.EncodableFormats() }

// StartBatch validates the request and starts converting files in the
// background.  Invalid settings, an empty file list and a batch already in
// progress are reported here, before any file is touched.
func (c *Converter) StartBatch(ctx context.Context, settings core.BatchSettings, files []string, overrides core.Overrides) (*core.Handle, error) {
	return c.orch.Start(ctx, settings, files, overrides)
}

// Run is StartBatch followed by Wait.  The error is non-nil only when the
// batch could not start or was aborted; per-file failures are in the Summary.
func (c *Converter) Run(ctx context.Context, settings core.BatchSettings, files []string, overrides core.Overrides) (core.Summary, error) {
	h, err := c.StartBatch(ctx, settings, files, overrides)
	if err != nil {
		return core.Summary{}, err
	}
	res, err := h.Wait()
	return res.Summary(), err
}

// State reports the orchestrator state.
func (c *Converter) State() core.RunState { return c.orch.State() }

// Close returns ErrRunInProgress while a batch is running.  The batch is not
// stopped; cancel its Handle to stop after the current file.
func (c *Converter) Close() error { return c.orch.Close() }

// Stats returns lifetime file counters.
func (c *Converter) Stats() (processed, failed int64) {
	return c.orch.ProcessedCount(), c.orch.ErrorCount()
}

// ── Input discovery ───────────────────────────────────────────────────────────

// ExpandInputs replaces directories in paths with the image files directly
// inside them.  HEIC files are always included so a missing codec is reported
// per file.
func ExpandInputs(paths []string) ([]string, error) {
	return utils.ExpandInputs(paths, IsImageName)
}

// IsImageName reports whether name has a readable image extension.
func IsImageName(name string) bool {
	switch core.FormatFromPath(name) {
	case core.FormatJPEG, core.FormatPNG, core.FormatWebP, core.FormatBMP,
		core.FormatTIFF, core.FormatGIF, core.FormatHEIC:
		return true
	}
	return false
}
