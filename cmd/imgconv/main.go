// Command imgconv converts and resizes image files in batch.
//
// It reads an optional YAML config, applies command-line flags on top, and
// converts every input file in order, printing progress and a summary.  Exit
// status is 0 when every file converted, 1 when some failed and 2 when the
// batch could not run.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	imageconverter "github.com/x-cod3r/Image-Converter-Resizer"
	"github.com/x-cod3r/Image-Converter-Resizer/adapters/vips"
	"github.com/x-cod3r/Image-Converter-Resizer/config"
	"github.com/x-cod3r/Image-Converter-Resizer/core"
	"github.com/x-cod3r/Image-Converter-Resizer/hooks"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

// maxListedFailures caps the failure list in the summary.
const maxListedFailures = 10

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	// ── 1. Config ─────────────────────────────────────────────────────────────
	cfg, opts, err := parseArgs(args, stderr)
	if opts.showHelp {
		return 0
	}
	if opts.showVersion {
		fmt.Fprintln(stdout, "imgconv "+version)
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "imgconv: %v\n", err)
		return 2
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(stderr, "imgconv: %v\n", err)
		return 2
	}

	logger := hooks.NewSlogLogger(newSlog(cfg, stderr))

	settings, overrides, err := batchFromConfig(cfg.Batch)
	if err != nil {
		fmt.Fprintf(stderr, "imgconv: %v\n", err)
		return 2
	}

	// ── 2. Converter + codec backend ──────────────────────────────────────────
	conv, err := imageconverter.New(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "imgconv: %v\n", err)
		return 2
	}
	conv.SetLogger(logger)

	if cfg.Codec == config.CodecVips {
		backend := vips.NewBackend(vips.BackendConfig{
			MaxCacheSize: cfg.Vips.MaxCacheSize,
			MaxWorkers:   cfg.Vips.MaxWorkers,
		})
		defer backend.Shutdown()
		added := vips.RegisterVipsBackend(conv.Registry(), backend)
		logger.Debug("codec.vips", "formats", added)
	}
	if !canEncode(conv, settings) {
		fmt.Fprintf(stderr, "imgconv: no encoder for %s (available: %v); try -codec vips\n",
			settings.Format, conv.EncodableFormats())
		return 2
	}

	var metrics *hooks.InMemoryMetrics
	if opts.showMetrics {
		metrics = hooks.NewInMemoryMetrics()
		conv.SetMetrics(metrics)
	}

	// ── 3. Inputs ─────────────────────────────────────────────────────────────
	files, err := imageconverter.ExpandInputs(opts.inputs)
	if err != nil {
		fmt.Fprintf(stderr, "imgconv: %v\n", err)
		return 2
	}
	if len(files) == 0 {
		fmt.Fprintln(stderr, "imgconv: no image files found")
		return 2
	}

	// ── 4. Run ────────────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h, err := conv.StartBatch(ctx, settings, files, overrides)
	if err != nil {
		fmt.Fprintf(stderr, "imgconv: %v\n", err)
		return 2
	}

	code := 0
	for ev := range h.Events() {
		switch e := ev.(type) {
		case core.Progress:
			fmt.Fprintf(stdout, "[%3.0f%%] %d/%d %s\n", e.Percent, e.Index+1, e.Total, e.File)
		case core.Summary:
			printSummary(stdout, e)
			if e.Failed > 0 {
				code = 1
			}
		case core.FatalError:
			fmt.Fprintf(stderr, "imgconv: batch aborted: %s\n", e.Reason)
			code = 2
		}
	}
	<-h.Done()

	if metrics != nil {
		printMetrics(stdout, metrics.Snapshot())
	}
	return code
}

// ── helpers ───────────────────────────────────────────────────────────────────

func newSlog(cfg config.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// batchFromConfig turns the textual batch section into validated settings.
func batchFromConfig(b config.BatchConfig) (core.BatchSettings, core.Overrides, error) {
	settings, err := core.ParseBatchSettings(core.RawSettings{
		Mode:       b.Mode,
		Format:     b.Format,
		Quality:    b.Quality,
		ResizeMode: b.Resize.Mode,
		Width:      b.Resize.Width,
		Height:     b.Resize.Height,
		Percent:    b.Resize.Percent,
		KeepAspect: b.Resize.KeepAspect,
		OutputDir:  b.OutputDir,
	})
	if err != nil {
		return settings, nil, err
	}
	overrides := make(core.Overrides, len(b.Overrides))
	for _, o := range b.Overrides {
		ov, err := core.ParseOverride(o.Format, o.Quality)
		if err != nil {
			return settings, nil, fmt.Errorf("%s: %w", o.File, err)
		}
		overrides[core.OverrideKey(o.File)] = ov
	}
	return settings, overrides, nil
}

// canEncode checks the single-mode target up front.  Per-file targets are
// reported per file.
func canEncode(conv *imageconverter.Converter, s core.BatchSettings) bool {
	if s.Mode != core.ModeSingle {
		return true
	}
	_, ok := conv.Registry().EncoderFor(s.Format)
	return ok
}

func printSummary(w io.Writer, s core.Summary) {
	fmt.Fprintf(w, "\nConverted: %d  Failed: %d\n", s.Succeeded, s.Failed)
	for i, f := range s.Failures {
		if i == maxListedFailures {
			fmt.Fprintf(w, "  ...and %d more\n", len(s.Failures)-maxListedFailures)
			break
		}
		fmt.Fprintf(w, "  %s: %s\n", f.Name, f.Reason)
	}
}

func printMetrics(w io.Writer, snap hooks.MetricsSnapshot) {
	steps := make([]string, 0, len(snap.StepCalls))
	for step := range snap.StepCalls {
		steps = append(steps, step)
	}
	sort.Strings(steps)

	fmt.Fprintln(w, "\nStep timings:")
	for _, step := range steps {
		calls := snap.StepCalls[step]
		avg := float64(snap.StepDurationsMs[step]) / float64(calls)
		fmt.Fprintf(w, "  %-16s calls=%-4d avg=%.1fms errors=%d\n", step, calls, avg, snap.StepErrors[step])
	}
	if len(snap.CategoryErrors) > 0 {
		cats := make([]string, 0, len(snap.CategoryErrors))
		for c, n := range snap.CategoryErrors {
			cats = append(cats, fmt.Sprintf("%s=%d", c, n))
		}
		sort.Strings(cats)
		fmt.Fprintf(w, "  errors by category: %s\n", strings.Join(cats, " "))
	}
	fmt.Fprintf(w, "  bytes written: %d\n", snap.TotalThroughputB)
}
