package video

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/fileflow/internal/domain"
)

func TestParseProbeOutput(t *testing.T) {
	payload := []byte(`{
  "streams": [
    {"codec_type": "audio", "codec_name": "aac"},
    {
      "codec_type": "video",
      "codec_name": "h264",
      "width": 1920,
      "height": 1080,
      "pix_fmt": "yuv420p",
      "avg_frame_rate": "30000/1001"
    }
  ],
  "format": {"duration": "5.500000", "format_name": "mov,mp4,m4a"}
}`)

	result, err := parseProbeOutput(payload)

	require.NoError(t, err)
	require.Len(t, result.VideoStreams, 1)
	stream := result.VideoStreams[0]
	assert.InDelta(t, 29.97, stream.FrameRate, 0.01)
	assert.Equal(t, 5500*time.Millisecond, result.Duration)

	md := result.Metadata()
	assert.Equal(t, 1920, md["width"])
	assert.Equal(t, "h264", md["codec"])
}

func TestParseProbeOutput_NoVideo(t *testing.T) {
	_, err := parseProbeOutput([]byte(`{"streams": [], "format": {}}`))

	assert.True(t, errors.Is(err, ErrNoVideoStreams))
}

func TestOptionsArgs(t *testing.T) {
	opts := Options{VideoCodec: "libx264", AudioCodec: "aac", CRF: 23, Preset: "fast", Width: 1280}

	assert.Equal(t,
		[]string{"-c:v", "libx264", "-c:a", "aac", "-preset", "fast", "-crf", "23", "-vf", "scale=1280:-2"},
		opts.Args())
	assert.Equal(t, "mp4", Options{}.OutputFormat())
	assert.Equal(t, "webm", Options{Format: "webm"}.OutputFormat())
	assert.Equal(t, "jpg", ThumbnailOptions{}.OutputFormat())
}

func TestAvailable_UsesLookPath(t *testing.T) {
	old := lookPath
	defer func() { lookPath = old }()

	lookPath = func(string) (string, error) { return "", errors.New("not found") }
	f := NewFFmpeg(Config{})
	assert.False(t, f.Available())

	err := f.Transcode(context.Background(), "in.mov", "out.mp4", Options{})
	assert.ErrorIs(t, err, domain.ErrTranscoderUnavailable)

	lookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }
	assert.True(t, f.Available())
}

func TestProbeRejectsEmptyPath(t *testing.T) {
	_, err := NewFFmpeg(Config{}).Probe(context.Background(), " ")

	assert.Error(t, err)
}
