// Package bootstrap provides dependency initialization for the ingest API.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/mediaforge/ingest-api/internal/config"
	"github.com/mediaforge/ingest-api/internal/ingest"
	"github.com/mediaforge/ingest-api/internal/media"
	"github.com/mediaforge/ingest-api/internal/scratch"
	"github.com/mediaforge/ingest-api/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	IngestService *ingest.Service
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	scratchMgr, err := scratch.NewManager(cfg.ScratchDir, logger)
	if err != nil {
		return nil, fmt.Errorf("create scratch manager: %w", err)
	}

	publisher, err := storage.NewS3Publisher(storage.S3Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		PublicBaseURL:   cfg.PublicBaseURL,
		UploadTimeout:   cfg.UploadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 publisher: %w", err)
	}
	logger.Info("object storage configured",
		slog.String("bucket", cfg.S3Bucket),
		slog.String("endpoint", cfg.S3Endpoint),
		slog.String("public_base_url", cfg.PublicBaseURL),
	)

	svc, err := ingest.NewService(
		scratchMgr,
		media.NewImageProcessor(),
		media.NewFFmpegTranscoder(cfg.FFmpegPath),
		publisher,
		cfg.Workers(),
		logger,
		ingest.WithTranscodeTimeout(cfg.TranscodeTimeout),
		ingest.WithBatchConcurrency(cfg.BatchConcurrency),
	)
	if err != nil {
		return nil, fmt.Errorf("create ingest service: %w", err)
	}

	return &Dependencies{
		IngestService: svc,
	}, nil
}
