package media

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
)

// Static errors for image operations.
var (
	// ErrCorruptImage is returned when the upload cannot be decoded as an image.
	ErrCorruptImage = errors.New("corrupt or unsupported image data")
	// ErrImageEncode is returned when re-encoding the processed image fails.
	ErrImageEncode = errors.New("image encode failed")
)

const (
	// MaxImageWidth is the width ceiling for processed images, in pixels.
	// Wider images are scaled down to this width; narrower images are
	// never enlarged.
	MaxImageWidth = 1920

	// ImageQuality is the JPEG quality used for all processed images.
	ImageQuality = 80

	// ImageContentType is the canonical content type for processed images.
	ImageContentType = "image/jpeg"

	// ImageExtension is the canonical file extension for processed images.
	ImageExtension = "jpg"
)

// Result is the output of a transform engine: a finished buffer and the
// canonical type it was normalized to. The content type is always one of
// the two canonical derived types, never the uploaded one.
type Result struct {
	Data        []byte
	ContentType string
	Extension   string
}

// ImageProcessor normalizes raster images to the canonical web format.
// It is a pure in-memory transform: no filesystem, no subprocesses.
type ImageProcessor struct {
	maxWidth int
	quality  int
}

// NewImageProcessor creates an ImageProcessor with the canonical
// resize/quality profile.
func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{
		maxWidth: MaxImageWidth,
		quality:  ImageQuality,
	}
}

// Process decodes data, scales it down to the width ceiling if needed
// (aspect ratio preserved, never enlarged), and re-encodes it as JPEG at
// the fixed quality setting.
func (p *ImageProcessor) Process(data []byte) (*Result, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptImage, err)
	}

	if src.Bounds().Dx() > p.maxWidth {
		// Height 0 keeps the aspect ratio.
		src = imaging.Resize(src, p.maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, src, imaging.JPEG, imaging.JPEGQuality(p.quality)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageEncode, err)
	}

	return &Result{
		Data:        buf.Bytes(),
		ContentType: ImageContentType,
		Extension:   ImageExtension,
	}, nil
}
