// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all configuration for the application.
//
// Object-storage settings default to clearly-fake placeholder values so
// that unconfigured environments (local development, CI) start up and
// fail at publish time with a storage error rather than crashing the
// process at boot.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// Scratch storage settings
	ScratchDir string `env:"SCRATCH_DIR, default=/tmp/ingest-api" json:"scratch_dir"`

	// Upload size ceiling enforced at the HTTP boundary, in bytes (default 500MB).
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES, default=524288000" json:"max_upload_bytes"`

	// Transcoding settings
	FFmpegPath       string        `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	TranscodeWorkers int           `env:"TRANSCODE_WORKERS, default=0" json:"transcode_workers"` // 0 = NumCPU
	TranscodeTimeout time.Duration `env:"TRANSCODE_TIMEOUT, default=10m" json:"transcode_timeout"`

	// Batch ingestion settings
	BatchConcurrency int `env:"BATCH_CONCURRENCY, default=2" json:"batch_concurrency"`

	// Object storage settings (S3-compatible, e.g. Cloudflare R2)
	S3Endpoint        string        `env:"S3_ENDPOINT, default=https://mock-account-id.r2.cloudflarestorage.com" json:"s3_endpoint"`
	S3Region          string        `env:"S3_REGION, default=auto" json:"s3_region"`
	S3Bucket          string        `env:"S3_BUCKET, default=mock-bucket" json:"s3_bucket"`
	S3AccessKeyID     string        `env:"S3_ACCESS_KEY_ID, default=mock-key" json:"-"`         // Masked in JSON
	S3SecretAccessKey string        `env:"S3_SECRET_ACCESS_KEY, default=mock-secret" json:"-"`  // Masked in JSON
	PublicBaseURL     string        `env:"PUBLIC_BASE_URL, default=https://pub-mock.r2.dev" json:"public_base_url"`
	UploadTimeout     time.Duration `env:"UPLOAD_TIMEOUT, default=60s" json:"upload_timeout"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Workers returns the transcode worker pool size, resolving the zero
// value to the number of host CPU cores.
func (c *Config) Workers() int {
	if c.TranscodeWorkers > 0 {
		return c.TranscodeWorkers
	}
	return runtime.NumCPU()
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, ScratchDir: %s, MaxUploadBytes: %d, TranscodeWorkers: %d, TranscodeTimeout: %s, BatchConcurrency: %d, S3Endpoint: %s, S3Bucket: %s, PublicBaseURL: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.ScratchDir,
		c.MaxUploadBytes,
		c.TranscodeWorkers,
		c.TranscodeTimeout,
		c.BatchConcurrency,
		c.S3Endpoint,
		c.S3Bucket,
		c.PublicBaseURL,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
