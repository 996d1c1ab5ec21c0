package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/mediaforge/ingest-api/internal/media"
	"github.com/mediaforge/ingest-api/internal/scratch"
	"github.com/mediaforge/ingest-api/internal/storage"
)

// Default bounds applied when no option overrides them.
const (
	// DefaultTranscodeTimeout is the wall-clock ceiling for one ffmpeg run.
	DefaultTranscodeTimeout = 10 * time.Minute
	// DefaultBatchConcurrency is how many gallery files are ingested at once.
	DefaultBatchConcurrency = 2
)

// Service runs the ingestion pipeline. Requests are independent units of
// work and may run fully in parallel; the only shared resource is the
// scratch directory namespace, which unique filenames keep conflict-free.
// Transcodes go through a bounded worker pool so one slow video cannot
// stall unrelated uploads or oversubscribe ffmpeg.
type Service struct {
	scratch    *scratch.Manager
	images     *media.ImageProcessor
	transcoder media.Transcoder
	publisher  storage.Publisher
	pool       *ants.Pool
	logger     *slog.Logger

	transcodeTimeout time.Duration
	batchConcurrency int
}

// Option configures a Service.
type Option func(*Service)

// WithTranscodeTimeout overrides the wall-clock ceiling for one transcode.
func WithTranscodeTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.transcodeTimeout = d
		}
	}
}

// WithBatchConcurrency overrides how many batch items run at once.
func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchConcurrency = n
		}
	}
}

// NewService creates a Service with a transcode worker pool of the given
// size. Size it to the host's CPU cores; ffmpeg saturates a core per run.
func NewService(
	scratchMgr *scratch.Manager,
	images *media.ImageProcessor,
	transcoder media.Transcoder,
	publisher storage.Publisher,
	workers int,
	logger *slog.Logger,
	opts ...Option,
) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := ants.NewPool(workers, ants.WithOptions(ants.Options{
		ExpiryDuration: time.Minute, // worker lifespan when unused
		PanicHandler: func(v interface{}) {
			logger.Error("panic in transcode worker", slog.Any("error", v))
		},
	}))
	if err != nil {
		return nil, fmt.Errorf("create transcode pool: %w", err)
	}

	s := &Service{
		scratch:          scratchMgr,
		images:           images,
		transcoder:       transcoder,
		publisher:        publisher,
		pool:             pool,
		logger:           logger,
		transcodeTimeout: DefaultTranscodeTimeout,
		batchConcurrency: DefaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the transcode worker pool.
func (s *Service) Close() {
	s.pool.Release()
}

// operation tracks one request through the pipeline state machine and
// carries the correlation id used in logs.
type operation struct {
	id     string
	status Status
	logger *slog.Logger
}

func (s *Service) newOperation(fileName string) *operation {
	op := &operation{
		id:     uuid.NewString(),
		status: StatusReceived,
	}
	op.logger = s.logger.With(
		slog.String("operation_id", op.id),
		slog.String("file_name", fileName),
	)
	return op
}

// advance moves the operation to the next state, enforcing the
// transition table.
func (op *operation) advance(to Status) error {
	if !canTransition(op.status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, op.status, to)
	}
	op.status = to
	op.logger.Debug("state transition", slog.String("status", string(to)))
	return nil
}

// fail marks the operation terminal and logs the full internal error;
// the caller only ever sees the mapped category.
func (op *operation) fail(err error) {
	op.status = StatusFailed
	op.logger.Error("ingestion failed",
		slog.String("code", Code(err)),
		slog.String("error", err.Error()),
	)
}

// Ingest runs one upload through classify, transform, and publish, and
// returns the published asset. All five error kinds come back as typed
// errors; scratch files acquired along the way are gone by the time it
// returns, whatever the outcome.
func (s *Service) Ingest(ctx context.Context, up Upload) (*storage.Asset, error) {
	op := s.newOperation(up.FileName)

	if len(up.Data) == 0 {
		op.fail(ErrEmptyUpload)
		return nil, ErrEmptyUpload
	}

	kind := media.Classify(up.ContentType)
	if kind == media.KindUnsupported {
		err := fmt.Errorf("%w: %q", ErrUnsupportedMediaType, up.ContentType)
		op.fail(err)
		return nil, err
	}
	_ = op.advance(StatusClassified)
	op.logger.Info("upload classified",
		slog.String("kind", string(kind)),
		slog.Int("size_bytes", len(up.Data)),
	)

	_ = op.advance(StatusTransforming)
	var (
		result *media.Result
		folder string
		err    error
	)
	switch kind {
	case media.KindImage:
		folder = imageFolder
		result, err = s.images.Process(up.Data)
	case media.KindVideo:
		folder = videoFolder
		result, err = s.transcodeVideo(ctx, op, up)
	}
	if err != nil {
		op.fail(err)
		return nil, err
	}

	_ = op.advance(StatusPublishing)
	asset, err := s.publisher.Publish(ctx,
		result.Data,
		canonicalFileName(up.FileName, result.Extension),
		result.ContentType,
		folder,
	)
	if err != nil {
		// The transformed buffer is discarded; a publish failure fails
		// the whole request, never a silent success.
		op.fail(err)
		return nil, err
	}

	_ = op.advance(StatusPublished)
	op.logger.Info("asset published",
		slog.String("key", asset.Key),
		slog.String("url", asset.URL),
		slog.Int("size_bytes", len(result.Data)),
	)
	return asset, nil
}

// transcodeVideo round-trips the upload through scratch storage and the
// transcoder subprocess. Exactly two scratch files exist for the
// duration of this call and both are released on every path out of it.
func (s *Service) transcodeVideo(ctx context.Context, op *operation, up Upload) (*media.Result, error) {
	in, err := s.scratch.Acquire(up.FileName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScratchIO, err)
	}
	defer in.Release()

	out, err := s.scratch.Acquire("processed-" + up.FileName + "." + media.VideoExtension)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScratchIO, err)
	}
	defer out.Release()

	if err := in.Write(up.Data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScratchIO, err)
	}

	if err := s.runTranscode(ctx, in.Path(), out.Path()); err != nil {
		if ffErr, ok := asFFmpegError(err); ok {
			// Subprocess detail stays in the logs.
			op.logger.Error("transcoder failed", slog.String("stderr", ffErr.Stderr))
		}
		return nil, err
	}

	data, err := out.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScratchIO, err)
	}

	return &media.Result{
		Data:        data,
		ContentType: media.VideoContentType,
		Extension:   media.VideoExtension,
	}, nil
}

// runTranscode executes one transcode on the bounded worker pool, capped
// by the wall-clock timeout. The call suspends until the subprocess
// exits; on timeout the subprocess is killed and the deferred scratch
// releases still run.
func (s *Service) runTranscode(ctx context.Context, inputPath, outputPath string) error {
	tctx, cancel := context.WithTimeout(ctx, s.transcodeTimeout)
	defer cancel()

	done := make(chan error, 1)
	if err := s.pool.Submit(func() {
		done <- s.transcoder.Transcode(tctx, inputPath, outputPath)
	}); err != nil {
		return fmt.Errorf("%w: submit to pool: %w", media.ErrTranscodeFailed, err)
	}

	return <-done
}

// asFFmpegError unwraps a *media.FFmpegError if err carries one.
func asFFmpegError(err error) (*media.FFmpegError, bool) {
	var ffErr *media.FFmpegError
	if errors.As(err, &ffErr) {
		return ffErr, true
	}
	return nil, false
}

// BatchItem is the outcome of one file in a gallery batch.
type BatchItem struct {
	// FileName is the original upload name.
	FileName string
	// URL is the published URL on success.
	URL string
	// Err is the ingestion error on failure.
	Err error
}

// IngestBatch runs a gallery of uploads with bounded concurrency and
// returns one outcome per input, in input order. A failed item never
// aborts the rest of the batch.
func (s *Service) IngestBatch(ctx context.Context, uploads []Upload) []BatchItem {
	results := make([]BatchItem, len(uploads))
	sem := make(chan struct{}, s.batchConcurrency)

	var wg sync.WaitGroup
	for i, up := range uploads {
		wg.Add(1)
		go func(i int, up Upload) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			item := BatchItem{FileName: up.FileName}
			asset, err := s.Ingest(ctx, up)
			if err != nil {
				item.Err = err
			} else {
				item.URL = asset.URL
			}
			results[i] = item
		}(i, up)
	}
	wg.Wait()

	return results
}

// canonicalFileName swaps the upload's extension for the canonical one.
func canonicalFileName(fileName, extension string) string {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	if base == "" {
		base = "upload"
	}
	return base + "." + extension
}
