package media

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile()

	assert.Equal(t, "libx264", p.VideoCodec)
	assert.Equal(t, "23", p.CRF)
	assert.Equal(t, "fast", p.Preset)
	assert.Equal(t, "aac", p.AudioCodec)
	assert.Equal(t, "128k", p.AudioBitrate)
	assert.Equal(t, 1280, p.MaxWidth)
	assert.Equal(t, "yuv420p", p.PixelFormat)
}

func TestTranscodeProfile_Args(t *testing.T) {
	args := DefaultProfile().args("/scratch/in.mov", "/scratch/out.mp4")

	// Input and output positions
	require.Equal(t, "/scratch/out.mp4", args[len(args)-1])
	assert.Contains(t, args, "/scratch/in.mov")

	// Fixed flag set
	assert.Contains(t, args, "+faststart")
	assert.Contains(t, args, `scale=min(1280\,iw):-2`)
	assert.Contains(t, args, "yuv420p")
	assert.Contains(t, args, "libx264")
	assert.Contains(t, args, "aac")
	assert.Contains(t, args, "-y")
}

func TestNewFFmpegTranscoder_DefaultsPath(t *testing.T) {
	tr := NewFFmpegTranscoder("")
	assert.Equal(t, "ffmpeg", tr.ffmpegPath)

	tr = NewFFmpegTranscoder("/opt/ffmpeg/bin/ffmpeg")
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", tr.ffmpegPath)
}

func TestFFmpegTranscoder_MissingBinary(t *testing.T) {
	tr := NewFFmpegTranscoder("/nonexistent/ffmpeg-binary")

	err := tr.Transcode(context.Background(), "in.mov", "out.mp4")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTranscodeFailed)
}

func TestFFmpegError_MatchesTranscodeFailed(t *testing.T) {
	underlying := errors.New("exit status 1")
	err := error(&FFmpegError{
		Args:   []string{"-i", "in.mov"},
		Stderr: "in.mov: Invalid data found when processing input",
		Err:    underlying,
	})

	assert.ErrorIs(t, err, ErrTranscodeFailed)
	assert.ErrorIs(t, err, underlying)
	assert.Contains(t, err.Error(), "Invalid data found")
}
