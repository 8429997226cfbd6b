package main

// Flags layer on top of the config file: a flag the user actually passed
// replaces the file's value, anything else keeps it.

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/x-cod3r/Image-Converter-Resizer/config"
)

// options is everything the command line can carry besides Config itself.
type options struct {
	configPath  string
	inputs      []string
	showMetrics bool
	showHelp    bool
	showVersion bool
}

// batchFlags captures batch flags as text so the config file can supply them.
type batchFlags struct {
	mode, format, quality          string
	resize, width, height, percent string
	keepAspect                     bool
	outputDir                      string
	codec, logLevel, logFormat     string
	overrides                      overrideList
}

// overrideList is a repeatable --override path=FORMAT[:QUALITY] flag.
type overrideList []config.OverrideConfig

func (o *overrideList) String() string {
	parts := make([]string, 0, len(*o))
	for _, ov := range *o {
		parts = append(parts, ov.File+"="+ov.Format)
	}
	return strings.Join(parts, ",")
}

func (o *overrideList) Set(s string) error {
	ov, err := parseOverrideFlag(s)
	if err != nil {
		return err
	}
	*o = append(*o, ov)
	return nil
}

// parseOverrideFlag splits path=FORMAT[:QUALITY].  The path may itself contain
// '=' so the last one is the separator.
func parseOverrideFlag(s string) (config.OverrideConfig, error) {
	i := strings.LastIndex(s, "=")
	if i <= 0 || i == len(s)-1 {
		return config.OverrideConfig{}, fmt.Errorf("override %q: want path=FORMAT[:QUALITY]", s)
	}
	ov := config.OverrideConfig{File: s[:i]}
	target := s[i+1:]
	if j := strings.Index(target, ":"); j >= 0 {
		ov.Format, ov.Quality = target[:j], target[j+1:]
	} else {
		ov.Format = target
	}
	return ov, nil
}

// parseArgs parses args (without the program name).  The returned Config is
// the config file, if any, with explicitly set flags applied on top.
func parseArgs(args []string, stderr io.Writer) (config.Config, options, error) {
	var (
		opts options
		bf   batchFlags
	)
	fs := flag.NewFlagSet("imgconv", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(fs, stderr) }

	fs.StringVar(&opts.configPath, "config", "", "YAML config file")
	fs.StringVar(&bf.mode, "mode", "", "Conversion mode: single | per_file")
	fs.StringVar(&bf.format, "format", "", "Target format for single mode (jpeg png webp bmp tiff gif ico heic)")
	fs.StringVar(&bf.quality, "quality", "", "Quality 1-100 for jpeg, webp and heic")
	fs.StringVar(&bf.resize, "resize", "", "Resize mode: keep | fixed | percent")
	fs.StringVar(&bf.width, "width", "", "Width in pixels (fixed)")
	fs.StringVar(&bf.height, "height", "", "Height in pixels (fixed)")
	fs.StringVar(&bf.percent, "percent", "", "Scale percentage (percent)")
	fs.BoolVar(&bf.keepAspect, "keep-aspect", false, "Fit within width x height instead of stretching (fixed)")
	fs.StringVar(&bf.outputDir, "out", "", "Output directory; default is beside each source")
	fs.StringVar(&bf.outputDir, "o", "", "Same as --out")
	fs.Var(&bf.overrides, "override", "Per-file target path=FORMAT[:QUALITY] (repeatable)")
	fs.StringVar(&bf.codec, "codec", "", "Codec backend: stdlib | vips")
	fs.StringVar(&bf.logLevel, "log-level", "", "Log level: debug | info | warn | error")
	fs.StringVar(&bf.logFormat, "log-format", "", "Log format: text | json")
	fs.BoolVar(&opts.showMetrics, "metrics", false, "Print per-step timings after the batch")
	fs.BoolVar(&opts.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&opts.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&opts.showHelp, "h", false, "Same as --help")

	if err := fs.Parse(args); err != nil {
		return config.Config{}, opts, err
	}
	opts.inputs = fs.Args()
	if opts.showHelp {
		fs.Usage()
	}
	if opts.showHelp || opts.showVersion {
		return config.Default(), opts, nil
	}

	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return cfg, opts, err
		}
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	applyFlags(&cfg, &bf, set)

	if len(opts.inputs) == 0 {
		return cfg, opts, fmt.Errorf("no input files or directories given")
	}
	return cfg, opts, nil
}

func applyFlags(cfg *config.Config, bf *batchFlags, set map[string]bool) {
	b := &cfg.Batch
	str := func(name string, dst *string, v string) {
		if set[name] {
			*dst = v
		}
	}
	str("mode", &b.Mode, bf.mode)
	str("format", &b.Format, bf.format)
	str("quality", &b.Quality, bf.quality)
	str("resize", &b.Resize.Mode, bf.resize)
	str("width", &b.Resize.Width, bf.width)
	str("height", &b.Resize.Height, bf.height)
	str("percent", &b.Resize.Percent, bf.percent)
	if set["out"] || set["o"] {
		b.OutputDir = bf.outputDir
	}
	if set["keep-aspect"] {
		b.Resize.KeepAspect = bf.keepAspect
	}
	str("log-level", &cfg.LogLevel, bf.logLevel)
	str("log-format", &cfg.LogFormat, bf.logFormat)
	if set["codec"] {
		cfg.Codec = config.CodecBackend(bf.codec)
	}
	b.Overrides = append(b.Overrides, bf.overrides...)
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, "imgconv %s\n\n", version)
	fmt.Fprintln(w, "Usage: imgconv [flags] <file|dir>...")
	fmt.Fprintln(w, "\nDirectories are expanded to the images directly inside them.")
	fmt.Fprintln(w, "\nFlags:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w, "\nExamples:")
	fmt.Fprintln(w, "  imgconv -format png -out converted photos/")
	fmt.Fprintln(w, "  imgconv -format webp -quality 70 -resize percent -percent 50 a.jpg b.heic")
	fmt.Fprintln(w, "  imgconv -mode per_file -override logo.png=ico -override hero.png=jpeg:90 logo.png hero.png")
}
