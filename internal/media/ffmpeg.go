package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Compile-time check that FFmpegTranscoder implements Transcoder.
var _ Transcoder = (*FFmpegTranscoder)(nil)

// FFmpegTranscoder implements Transcoder using the ffmpeg CLI.
type FFmpegTranscoder struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	profile    TranscodeProfile
}

// NewFFmpegTranscoder creates a new FFmpegTranscoder with the default
// transcode profile. If ffmpegPath is empty, it defaults to "ffmpeg"
// (found via PATH).
func NewFFmpegTranscoder(ffmpegPath string) *FFmpegTranscoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegTranscoder{
		ffmpegPath: ffmpegPath,
		profile:    DefaultProfile(),
	}
}

// Transcode runs a single non-interactive ffmpeg invocation with the
// fixed profile. The context bounds the subprocess; on cancellation or
// timeout ffmpeg is killed and an error is returned.
func (t *FFmpegTranscoder) Transcode(ctx context.Context, inputPath, outputPath string) error {
	args := t.profile.args(inputPath, outputPath)

	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrTranscodeFailed, ctx.Err())
		}
		return &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	// ffmpeg can exit zero without writing anything (e.g. when the input
	// has no streams); treat a missing output file as a failure.
	if _, err := os.Stat(outputPath); err != nil {
		return fmt.Errorf("%w: no output produced: %w", ErrTranscodeFailed, err)
	}

	return nil
}

// FFmpegError represents an error from running ffmpeg, including the
// stderr output. It is logged internally and never surfaced verbatim to
// callers.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}

// Is reports FFmpegError as a transcode failure so callers can match it
// with errors.Is without inspecting subprocess detail.
func (e *FFmpegError) Is(target error) bool {
	return target == ErrTranscodeFailed
}
