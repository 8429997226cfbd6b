package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// StorageBackend selects the storage adapter.
type StorageBackend string

const (
	StorageLocal StorageBackend = "local"
	StorageS3    StorageBackend = "s3"
)

// CodecBackend selects which codec set is registered.
type CodecBackend string

const (
	CodecStdlib CodecBackend = "stdlib" // pure Go codecs; no WEBP/HEIC encoding
	CodecVips   CodecBackend = "vips"   // stdlib codecs plus libvips for WEBP and HEIC
)

// Config is the top-level configuration struct.  All fields have safe defaults
// so callers can start with Default() and override only what they need.
type Config struct {
	// Retry of transient (storage) failures inside a file's pipeline.
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`

	// Streaming / memory limits.
	MaxImageBytes int64 `yaml:"max_image_bytes"` // 0 = no limit
	ChunkSize     int   `yaml:"chunk_size"`      // read chunk size in bytes; default 32 KiB

	// Codecs.
	Codec CodecBackend `yaml:"codec"`
	Vips  VipsConfig   `yaml:"vips"`

	// Storage.
	Storage StorageBackend `yaml:"storage"`
	Local   LocalConfig    `yaml:"local"`
	S3      S3Config       `yaml:"s3"`

	// Logging.
	LogLevel  string `yaml:"log_level"`  // "debug", "info", "warn", "error"
	LogFormat string `yaml:"log_format"` // "text" or "json"

	// Batch holds the raw, unparsed batch settings read from a config file.
	Batch BatchConfig `yaml:"batch"`
}

// VipsConfig configures the libvips backend.
type VipsConfig struct {
	MaxCacheSize int `yaml:"max_cache_size"`
	MaxWorkers   int `yaml:"max_workers"`
}

// LocalConfig configures the local filesystem storage adapter.
type LocalConfig struct {
	RootDir     string `yaml:"root_dir"`    // empty: output paths are used as-is
	Permissions uint32 `yaml:"permissions"` // default 0644
}

// S3Config configures the AWS S3 storage adapter.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"` // optional custom endpoint (MinIO, etc.)
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

// BatchConfig mirrors the batch settings as text.  Values stay strings so a
// malformed number is reported as an invalid setting rather than a YAML error.
type BatchConfig struct {
	Mode      string           `yaml:"mode"`   // "single" or "per_file"
	Format    string           `yaml:"format"` // target format for single mode
	Quality   string           `yaml:"quality"`
	Resize    ResizeConfig     `yaml:"resize"`
	OutputDir string           `yaml:"output_dir"`
	Overrides []OverrideConfig `yaml:"overrides"`
}

// ResizeConfig is the resize section as text.
type ResizeConfig struct {
	Mode       string `yaml:"mode"` // "keep", "fixed" or "percent"
	Width      string `yaml:"width"`
	Height     string `yaml:"height"`
	Percent    string `yaml:"percent"`
	KeepAspect bool   `yaml:"keep_aspect"`
}

// OverrideConfig is one per-file target entry.
type OverrideConfig struct {
	File    string `yaml:"file"`
	Format  string `yaml:"format"`
	Quality string `yaml:"quality"`
}

// Default returns a Config populated with sensible production defaults.
func Default() Config {
	return Config{
		MaxRetries: 3,
		RetryDelay: 200 * time.Millisecond,
		ChunkSize:  32 * 1024,
		Codec:      CodecStdlib,
		Storage:    StorageLocal,
		LogLevel:   "info",
		LogFormat:  "text",
		Batch: BatchConfig{
			Mode:    "single",
			Format:  "jpeg",
			Quality: "85",
			Resize: ResizeConfig{
				Mode:       "keep",
				KeepAspect: true,
			},
		},
	}
}

// Load reads a YAML file on top of Default().
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate returns an error if the configuration is inconsistent.  Batch
// settings are validated separately when a batch is started.
func Validate(c Config) error {
	if c.ChunkSize <= 0 {
		return errors.New("config: ChunkSize must be positive")
	}
	if c.MaxRetries < 0 {
		return errors.New("config: MaxRetries must not be negative")
	}
	if c.MaxImageBytes < 0 {
		return errors.New("config: MaxImageBytes must not be negative")
	}
	switch c.Codec {
	case CodecStdlib, CodecVips:
	default:
		return fmt.Errorf("config: unknown codec backend %q", c.Codec)
	}
	switch c.Storage {
	case StorageLocal:
	case StorageS3:
		if c.S3.Bucket == "" {
			return errors.New("config: S3.Bucket is required for s3 storage")
		}
		if c.S3.Region == "" {
			return errors.New("config: S3.Region is required for s3 storage")
		}
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.LogFormat)
	}
	return nil
}
