package core

import (
	"math"
	"strconv"
	"strings"

	apperrors "github.com/x-cod3r/Image-Converter-Resizer/errors"
)

// Validate rejects settings that cannot produce a valid job.  It runs before
// any file is touched.
func (s BatchSettings) Validate() error {
	switch s.Mode {
	case ModeSingle:
		if !isTarget(s.Format) {
			return apperrors.InvalidSettings("settings.format", "unknown target format %q", s.Format)
		}
		if err := validQuality("settings.quality", s.Quality); err != nil {
			return err
		}
	case ModePerFile:
	default:
		return apperrors.InvalidSettings("settings.mode", "unknown conversion mode %q", s.Mode)
	}
	return s.Resize.Validate()
}

// Validate checks the numbers carried by the resize variant.
func (r ResizeSpec) Validate() error {
	switch r.Kind {
	case ResizeKeep:
		return nil
	case ResizeFixed:
		if r.Width <= 0 || r.Height <= 0 {
			return apperrors.InvalidSettings("settings.resize",
				"width and height must be positive, got %dx%d", r.Width, r.Height)
		}
		return nil
	case ResizePercent:
		if math.IsNaN(r.Percent) || math.IsInf(r.Percent, 0) || r.Percent <= 0 {
			return apperrors.InvalidSettings("settings.resize",
				"percentage must be a positive number, got %v", r.Percent)
		}
		return nil
	}
	return apperrors.InvalidSettings("settings.resize", "unknown resize kind %d", r.Kind)
}

// Validate checks every override; entries are validated even in single mode
// where they are ignored.
func (o Overrides) Validate() error {
	for path, ov := range o {
		if !isTarget(ov.Format) {
			return apperrors.InvalidSettings("overrides", "%s: unknown target format %q", path, ov.Format)
		}
		if err := validQuality("overrides", ov.Quality); err != nil {
			return err
		}
	}
	return nil
}

func validQuality(op string, q int) error {
	if q < 1 || q > 100 {
		return apperrors.InvalidSettings(op, "quality must be between 1 and 100, got %d", q)
	}
	return nil
}

func isTarget(f Format) bool {
	for _, t := range TargetFormats {
		if t == f {
			return true
		}
	}
	return false
}

// ── Text boundary ─────────────────────────────────────────────────────────────

// RawSettings is batch configuration as typed by a user (flags, config file).
type RawSettings struct {
	Mode       string
	Format     string
	Quality    string
	ResizeMode string // "keep", "fixed" or "percent"
	Width      string
	Height     string
	Percent    string
	KeepAspect bool
	OutputDir  string
}

// ParseBatchSettings converts raw text into validated BatchSettings.
// Non-numeric or non-positive numbers are reported as invalid settings.
func ParseBatchSettings(raw RawSettings) (BatchSettings, error) {
	var s BatchSettings

	switch strings.ToLower(strings.TrimSpace(raw.Mode)) {
	case "", "single", "all", "all_to_one":
		s.Mode = ModeSingle
	case "per_file", "per-file", "individual":
		s.Mode = ModePerFile
	default:
		return s, apperrors.InvalidSettings("settings.mode", "unknown conversion mode %q", raw.Mode)
	}

	s.Format = DefaultFormat
	if strings.TrimSpace(raw.Format) != "" {
		f, ok := ParseFormat(raw.Format)
		if !ok {
			return s, apperrors.InvalidSettings("settings.format", "unknown format %q", raw.Format)
		}
		s.Format = f
	}

	s.Quality = DefaultQuality
	if strings.TrimSpace(raw.Quality) != "" {
		q, err := parseInt("settings.quality", "quality", raw.Quality)
		if err != nil {
			return s, err
		}
		s.Quality = q
	}

	switch strings.ToLower(strings.TrimSpace(raw.ResizeMode)) {
	case "", "keep", "keep_original", "none":
		s.Resize = KeepOriginal()
	case "fixed", "custom", "custom_size":
		w, err := parseInt("settings.resize", "width", raw.Width)
		if err != nil {
			return s, err
		}
		h, err := parseInt("settings.resize", "height", raw.Height)
		if err != nil {
			return s, err
		}
		s.Resize = FixedDimensions(w, h, raw.KeepAspect)
	case "percent", "percentage":
		p, err := strconv.ParseFloat(strings.TrimSpace(raw.Percent), 64)
		if err != nil {
			return s, apperrors.InvalidSettings("settings.resize", "percentage %q is not a number", raw.Percent)
		}
		s.Resize = PercentageScale(p)
	default:
		return s, apperrors.InvalidSettings("settings.resize", "unknown resize mode %q", raw.ResizeMode)
	}

	s.OutputDir = strings.TrimSpace(raw.OutputDir)
	return s, s.Validate()
}

// ParseOverride converts a textual per-file target.  An empty quality means
// DefaultQuality.
func ParseOverride(format, quality string) (Override, error) {
	f, ok := ParseFormat(format)
	if !ok {
		return Override{}, apperrors.InvalidSettings("overrides", "unknown format %q", format)
	}
	ov := Override{Format: f, Quality: DefaultQuality}
	if strings.TrimSpace(quality) != "" {
		q, err := parseInt("overrides", "quality", quality)
		if err != nil {
			return Override{}, err
		}
		ov.Quality = q
	}
	return ov, validQuality("overrides", ov.Quality)
}

func parseInt(op, field, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, apperrors.InvalidSettings(op, "%s %q is not a whole number", field, s)
	}
	return n, nil
}
