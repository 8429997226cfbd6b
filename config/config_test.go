package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("Validate(Default()) = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }, true},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, true},
		{"negative byte limit", func(c *Config) { c.MaxImageBytes = -5 }, true},
		{"unknown codec", func(c *Config) { c.Codec = "magick" }, true},
		{"vips codec", func(c *Config) { c.Codec = CodecVips }, false},
		{"unknown storage", func(c *Config) { c.Storage = "gcs" }, true},
		{"s3 without bucket", func(c *Config) { c.Storage = StorageS3; c.S3.Region = "eu-west-1" }, true},
		{"s3 without region", func(c *Config) { c.Storage = StorageS3; c.S3.Bucket = "b" }, true},
		{"s3 complete", func(c *Config) {
			c.Storage = StorageS3
			c.S3.Bucket = "b"
			c.S3.Region = "eu-west-1"
		}, false},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imgconv.yaml")
	body := `
max_retries: 1
retry_delay: 50ms
codec: vips
log_level: debug
batch:
  mode: per_file
  quality: "70"
  resize:
    mode: percent
    percent: "50"
  output_dir: /tmp/out
  overrides:
    - file: a.png
      format: ico
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxRetries != 1 || cfg.RetryDelay != 50*time.Millisecond {
		t.Errorf("retry: got %d/%v", cfg.MaxRetries, cfg.RetryDelay)
	}
	if cfg.Codec != CodecVips {
		t.Errorf("codec: got %q", cfg.Codec)
	}
	// Untouched fields keep their defaults.
	if cfg.ChunkSize != 32*1024 || cfg.Storage != StorageLocal {
		t.Errorf("defaults lost: chunk=%d storage=%q", cfg.ChunkSize, cfg.Storage)
	}
	if cfg.Batch.Mode != "per_file" || cfg.Batch.Quality != "70" {
		t.Errorf("batch: got %+v", cfg.Batch)
	}
	if cfg.Batch.Format != "jpeg" {
		t.Errorf("batch format default lost: %q", cfg.Batch.Format)
	}
	if cfg.Batch.Resize.Mode != "percent" || cfg.Batch.Resize.Percent != "50" {
		t.Errorf("resize: got %+v", cfg.Batch.Resize)
	}
	if len(cfg.Batch.Overrides) != 1 || cfg.Batch.Overrides[0].Format != "ico" {
		t.Errorf("overrides: got %+v", cfg.Batch.Overrides)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
