package video

import "time"

// Config locates the external binaries.
type Config struct {
	FFmpegPath  string
	FFprobePath string
	Timeout     time.Duration
}

// Options is the per-upload "video" option block.
type Options struct {
	Format       string `json:"format,omitempty" yaml:"format"`
	VideoCodec   string `json:"video_codec,omitempty" yaml:"video_codec"`
	AudioCodec   string `json:"audio_codec,omitempty" yaml:"audio_codec"`
	VideoBitrate string `json:"video_bitrate,omitempty" yaml:"video_bitrate"`
	AudioBitrate string `json:"audio_bitrate,omitempty" yaml:"audio_bitrate"`
	Width        int    `json:"width,omitempty" yaml:"width"`
	Height       int    `json:"height,omitempty" yaml:"height"`
	FrameRate    string `json:"frame_rate,omitempty" yaml:"frame_rate"`
	Preset       string `json:"preset,omitempty" yaml:"preset"`
	CRF          int    `json:"crf,omitempty" yaml:"crf"`
}

// OutputFormat returns the container extension, mp4 unless set.
func (o Options) OutputFormat() string {
	if o.Format == "" {
		return "mp4"
	}
	return o.Format
}

// Args returns the ffmpeg output arguments for o.
func (o Options) Args() []string {
	args := make([]string, 0, 16)
	if o.VideoCodec != "" {
		args = append(args, "-c:v", o.VideoCodec)
	}
	if o.AudioCodec != "" {
		args = append(args, "-c:a", o.AudioCodec)
	}
	if o.VideoBitrate != "" {
		args = append(args, "-b:v", o.VideoBitrate)
	}
	if o.AudioBitrate != "" {
		args = append(args, "-b:a", o.AudioBitrate)
	}
	if o.Preset != "" {
		args = append(args, "-preset", o.Preset)
	}
	if o.CRF > 0 {
		args = append(args, "-crf", itoa(o.CRF))
	}
	if o.FrameRate != "" {
		args = append(args, "-r", o.FrameRate)
	}
	if filter := scaleFilter(o.Width, o.Height); filter != "" {
		args = append(args, "-vf", filter)
	}
	return args
}

// ThumbnailOptions is the per-upload "video_thumbnail" option block.
// Timestamp is in seconds from the start of the video.
type ThumbnailOptions struct {
	Timestamp float64 `json:"timestamp,omitempty" yaml:"timestamp"`
	Width     int     `json:"width,omitempty" yaml:"width"`
	Height    int     `json:"height,omitempty" yaml:"height"`
	Format    string  `json:"format,omitempty" yaml:"format"`
}

// OutputFormat returns the image extension, jpg unless set.
func (o ThumbnailOptions) OutputFormat() string {
	if o.Format == "" {
		return "jpg"
	}
	return o.Format
}
