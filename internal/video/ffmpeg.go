package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/your-org/fileflow/internal/domain"
)

// ErrNoVideoStreams is returned by Probe when the input has no video stream.
var ErrNoVideoStreams = errors.New("no video streams found")

var lookPath = exec.LookPath

// FFmpeg drives the ffmpeg and ffprobe binaries.
type FFmpeg struct {
	cfg Config
}

// NewFFmpeg returns an FFmpeg. Binary paths default to the names on $PATH.
func NewFFmpeg(cfg Config) *FFmpeg {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	return &FFmpeg{cfg: cfg}
}

// Available reports whether the ffmpeg binary can be found.
func (f *FFmpeg) Available() bool {
	_, err := lookPath(f.cfg.FFmpegPath)
	return err == nil
}

// Transcode converts input into output using opts.
func (f *FFmpeg) Transcode(ctx context.Context, input, output string, opts Options) error {
	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", input}
	args = append(args, opts.Args()...)
	args = append(args, output)
	return f.run(ctx, f.cfg.FFmpegPath, args)
}

// Thumbnail captures a single frame of input at opts.Timestamp.
func (f *FFmpeg) Thumbnail(ctx context.Context, input, output string, opts ThumbnailOptions) error {
	ts := opts.Timestamp
	if ts < 0 {
		ts = 0
	}
	args := []string{"-y", "-hide_banner", "-loglevel", "error",
		"-ss", strconv.FormatFloat(ts, 'f', 3, 64), "-i", input, "-frames:v", "1"}
	if filter := scaleFilter(opts.Width, opts.Height); filter != "" {
		args = append(args, "-vf", filter)
	}
	args = append(args, output)
	return f.run(ctx, f.cfg.FFmpegPath, args)
}

// Probe reads stream information with ffprobe.
func (f *FFmpeg) Probe(ctx context.Context, input string) (*ProbeResult, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("probe: empty input path")
	}
	if _, err := lookPath(f.cfg.FFprobePath); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrTranscoderUnavailable, f.cfg.FFprobePath)
	}
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.cfg.FFprobePath,
		"-v", "error", "-print_format", "json", "-show_streams", "-show_format", input)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", input, err)
	}
	return parseProbeOutput(out)
}

func (f *FFmpeg) run(ctx context.Context, bin string, args []string) error {
	if _, err := lookPath(bin); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrTranscoderUnavailable, bin)
	}
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", bin, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Stream is one video stream reported by ffprobe.
type Stream struct {
	Codec       string
	Width       int
	Height      int
	PixelFormat string
	FrameRate   float64
}

// ProbeResult summarises an ffprobe run.
type ProbeResult struct {
	Duration     time.Duration
	FormatName   string
	VideoStreams []Stream
}

// Metadata flattens the result for artifact records.
func (r *ProbeResult) Metadata() map[string]any {
	md := map[string]any{
		"duration_seconds": r.Duration.Seconds(),
		"format":           r.FormatName,
	}
	if len(r.VideoStreams) > 0 {
		s := r.VideoStreams[0]
		md["codec"] = s.Codec
		md["width"] = s.Width
		md["height"] = s.Height
		md["frame_rate"] = s.FrameRate
	}
	return md
}

type probeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		PixFmt       string `json:"pix_fmt"`
		AvgFrameRate string `json:"avg_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration   string `json:"duration"`
		FormatName string `json:"format_name"`
	} `json:"format"`
}

func parseProbeOutput(payload []byte) (*ProbeResult, error) {
	var raw probeOutput
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode ffprobe output: %w", err)
	}
	res := &ProbeResult{FormatName: raw.Format.FormatName}
	if raw.Format.Duration != "" {
		if secs, err := strconv.ParseFloat(raw.Format.Duration, 64); err == nil {
			res.Duration = time.Duration(secs * float64(time.Second))
		}
	}
	for _, s := range raw.Streams {
		if s.CodecType != "video" {
			continue
		}
		res.VideoStreams = append(res.VideoStreams, Stream{
			Codec:       s.CodecName,
			Width:       s.Width,
			Height:      s.Height,
			PixelFormat: s.PixFmt,
			FrameRate:   parseRate(s.AvgFrameRate),
		})
	}
	if len(res.VideoStreams) == 0 {
		return nil, ErrNoVideoStreams
	}
	return res, nil
}

func parseRate(rate string) float64 {
	num, den, ok := strings.Cut(rate, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !ok {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

// scaleFilter keeps the aspect ratio when only one side is given.
func scaleFilter(w, h int) string {
	switch {
	case w > 0 && h > 0:
		return "scale=" + itoa(w) + ":" + itoa(h)
	case w > 0:
		return "scale=" + itoa(w) + ":-2"
	case h > 0:
		return "scale=-2:" + itoa(h)
	}
	return ""
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
