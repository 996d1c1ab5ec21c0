// Package ingest orchestrates the media ingestion pipeline: classify an
// upload, transform it into its canonical web format, publish it to
// object storage, and guarantee scratch cleanup on every exit path.
package ingest

import (
	"errors"

	"github.com/mediaforge/ingest-api/internal/media"
	"github.com/mediaforge/ingest-api/internal/storage"
)

// Static errors for ingestion.
var (
	// ErrUnsupportedMediaType is returned for declared types outside the
	// image/ and video/ families, before any I/O happens.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	// ErrEmptyUpload is returned when the upload carries no bytes.
	ErrEmptyUpload = errors.New("empty upload")
	// ErrScratchIO is returned when a scratch file cannot be written or
	// read back. Unlike cleanup failures, this is fatal for the request.
	ErrScratchIO = errors.New("scratch file I/O failed")
)

// Upload is one inbound request: raw bytes plus the metadata the
// boundary layer collected. It is consumed exactly once.
type Upload struct {
	// Data is the raw uploaded file. Must be non-empty.
	Data []byte
	// ContentType is the declared MIME type; routing is decided on its
	// prefix alone.
	ContentType string
	// FileName is the original upload name, used (sanitized) in the
	// storage key.
	FileName string
}

// Storage folders per media kind, mirrored in the published URL.
const (
	imageFolder = "images"
	videoFolder = "videos"
)

// Failure codes exposed to the boundary layer. Internal detail (ffmpeg
// stderr, SDK errors, stack traces) never crosses this boundary.
const (
	CodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	CodeImageFailed          = "IMAGE_PROCESSING_FAILED"
	CodeVideoFailed          = "VIDEO_PROCESSING_FAILED"
	CodeScratchFailed        = "SCRATCH_IO_FAILED"
	CodeStorageUnavailable   = "STORAGE_UNAVAILABLE"
	CodeIngestFailed         = "INGEST_FAILED"
)

// Code maps an ingestion error to its stable machine-readable code.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedMediaType), errors.Is(err, ErrEmptyUpload):
		return CodeUnsupportedMediaType
	case errors.Is(err, media.ErrCorruptImage), errors.Is(err, media.ErrImageEncode):
		return CodeImageFailed
	case errors.Is(err, media.ErrTranscodeFailed):
		return CodeVideoFailed
	case errors.Is(err, ErrScratchIO):
		return CodeScratchFailed
	case errors.Is(err, storage.ErrStorageUnavailable):
		return CodeStorageUnavailable
	default:
		return CodeIngestFailed
	}
}

// Message maps an ingestion error to its single user-facing message
// category.
func Message(err error) string {
	switch Code(err) {
	case CodeUnsupportedMediaType:
		return "unsupported file type, please upload an image or video"
	case CodeImageFailed:
		return "image processing failed"
	case CodeVideoFailed:
		return "video processing failed"
	case CodeScratchFailed:
		return "temporary storage failed"
	case CodeStorageUnavailable:
		return "upload failed, storage is unavailable"
	default:
		return "upload failed"
	}
}
