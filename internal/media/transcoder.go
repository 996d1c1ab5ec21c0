package media

import (
	"context"
	"errors"
	"fmt"
)

// Static errors for video operations.
var (
	// ErrTranscodeFailed is returned when the transcoder subprocess exits
	// non-zero, is killed by a timeout, or produces no output file.
	ErrTranscodeFailed = errors.New("video transcode failed")
)

const (
	// VideoContentType is the canonical content type for processed videos.
	VideoContentType = "video/mp4"

	// VideoExtension is the canonical file extension for processed videos.
	VideoExtension = "mp4"
)

// Transcoder converts a video file on disk into the canonical web
// container at a second path. Implementations shell out to an external
// tool, so tests can swap in a stub without invoking a real binary.
type Transcoder interface {
	// Transcode reads inputPath and writes the converted video to
	// outputPath. The context bounds the subprocess wall-clock time;
	// on cancellation the subprocess is forcibly terminated.
	Transcode(ctx context.Context, inputPath, outputPath string) error
}

// TranscodeProfile is the fixed ffmpeg parameter set applied to every
// video. It is not configurable per request.
type TranscodeProfile struct {
	// VideoCodec is the output video codec.
	VideoCodec string
	// CRF is the constant-quality factor (lower = higher quality).
	CRF string
	// Preset is the encoding speed preset, bounding wall-clock cost.
	Preset string
	// AudioCodec is the output audio codec.
	AudioCodec string
	// AudioBitrate is the fixed audio bitrate.
	AudioBitrate string
	// MaxWidth caps the output width in pixels. Height is derived to
	// preserve aspect ratio and stay even, as libx264 requires.
	MaxWidth int
	// PixelFormat is chosen for cross-browser decode compatibility.
	PixelFormat string
}

// DefaultProfile returns the canonical web-delivery profile: H.264/AAC in
// an MP4 container with metadata moved to the front of the file so
// playback can begin before the download completes.
func DefaultProfile() TranscodeProfile {
	return TranscodeProfile{
		VideoCodec:   "libx264",
		CRF:          "23",
		Preset:       "fast",
		AudioCodec:   "aac",
		AudioBitrate: "128k",
		MaxWidth:     1280,
		PixelFormat:  "yuv420p",
	}
}

// args builds the ffmpeg argument list for one transcode invocation.
func (p TranscodeProfile) args(inputPath, outputPath string) []string {
	// min(MaxWidth,iw) caps the width without ever enlarging; -2 lets
	// ffmpeg pick an even height that preserves the aspect ratio. The
	// comma inside min() is escaped so the filter parser does not treat
	// it as an argument separator.
	scale := fmt.Sprintf(`scale=min(%d\,iw):-2`, p.MaxWidth)

	return []string{
		"-y",            // Overwrite output file without asking
		"-i", inputPath, // Input file
		"-c:v", p.VideoCodec, // Video codec
		"-crf", p.CRF, // Quality (lower = better)
		"-preset", p.Preset, // Encoding speed preset
		"-c:a", p.AudioCodec, // Audio codec
		"-b:a", p.AudioBitrate, // Audio bitrate
		"-movflags", "+faststart", // Metadata at the front for progressive playback
		"-vf", scale, // Width cap, even height
		"-pix_fmt", p.PixelFormat, // Browser decode compatibility
		outputPath, // Output file
	}
}
