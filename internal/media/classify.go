// Package media provides the transform engines of the ingestion
// pipeline: media-kind classification, in-memory image processing, and
// subprocess-based video transcoding.
package media

import "strings"

// Kind is the media family an upload is routed to.
type Kind string

const (
	// KindImage routes the upload through the in-memory image engine.
	KindImage Kind = "image"
	// KindVideo routes the upload through the ffmpeg transcode engine.
	KindVideo Kind = "video"
	// KindUnsupported rejects the upload before any I/O happens.
	KindUnsupported Kind = "unsupported"
)

// Classify maps a declared media type to its processing path.
//
// Classification is prefix-based on the declared type only; file content
// is never sniffed. Anything outside the image/ and video/ families is
// unsupported.
func Classify(declaredType string) Kind {
	switch {
	case strings.HasPrefix(declaredType, "image/"):
		return KindImage
	case strings.HasPrefix(declaredType, "video/"):
		return KindVideo
	default:
		return KindUnsupported
	}
}
