package imageproc

// Config holds process-wide image defaults. Per-call Options override them field by field.
type Config struct {
	Quality             int   `yaml:"quality"`
	WebMaxWidth         int   `yaml:"web_max_width"`
	WebMaxHeight        int   `yaml:"web_max_height"`
	WebQuality          int   `yaml:"web_quality"`
	CompressQuality     int   `yaml:"compress_quality"`
	CompressMinQuality  int   `yaml:"compress_min_quality"`
	CompressMaxQuality  int   `yaml:"compress_max_quality"`
	CompressTargetBytes int64 `yaml:"compress_target_bytes"`
	ThumbnailWidth      int   `yaml:"thumbnail_width"`
	ThumbnailHeight     int   `yaml:"thumbnail_height"`
	ThumbnailQuality    int   `yaml:"thumbnail_quality"`
}

// DefaultConfig returns the built-in image defaults.
func DefaultConfig() Config {
	return Config{
		Quality:            90,
		WebMaxWidth:        1920,
		WebMaxHeight:       1080,
		WebQuality:         82,
		CompressQuality:    75,
		CompressMinQuality: 30,
		CompressMaxQuality: 90,
		ThumbnailWidth:     300,
		ThumbnailHeight:    300,
		ThumbnailQuality:   80,
	}
}

// Options is the per-upload "image" option block.
type Options struct {
	Width      int    `json:"width,omitempty" yaml:"width"`
	Height     int    `json:"height,omitempty" yaml:"height"`
	MaxWidth   int    `json:"max_width,omitempty" yaml:"max_width"`
	MaxHeight  int    `json:"max_height,omitempty" yaml:"max_height"`
	Quality    int    `json:"quality,omitempty" yaml:"quality"`
	Format     string `json:"format,omitempty" yaml:"format"`
	TargetSize int64  `json:"target_size,omitempty" yaml:"target_size"`
	MinQuality int    `json:"min_quality,omitempty" yaml:"min_quality"`
	MaxQuality int    `json:"max_quality,omitempty" yaml:"max_quality"`
}

// ThumbnailOptions is the per-upload "thumbnail" option block.
// Mode is "crop" (fill the box, default) or "fit".
type ThumbnailOptions struct {
	Width     int    `json:"width,omitempty" yaml:"width"`
	Height    int    `json:"height,omitempty" yaml:"height"`
	Quality   int    `json:"quality,omitempty" yaml:"quality"`
	Mode      string `json:"mode,omitempty" yaml:"mode"`
	Directory string `json:"directory,omitempty" yaml:"directory"`
	Suffix    string `json:"suffix,omitempty" yaml:"suffix"`
}

// WatermarkOptions describes a text or image watermark.
type WatermarkOptions struct {
	Text     string  `json:"text,omitempty" yaml:"text"`
	Image    string  `json:"image,omitempty" yaml:"image"`
	Position string  `json:"position,omitempty" yaml:"position"`
	Opacity  float64 `json:"opacity,omitempty" yaml:"opacity"`
	Margin   int     `json:"margin,omitempty" yaml:"margin"`
}

// Enabled reports whether the watermark would draw anything.
func (w *WatermarkOptions) Enabled() bool {
	return w != nil && (w.Text != "" || w.Image != "")
}

// Result is the output of a transform.
type Result struct {
	Content   []byte
	Extension string
	MimeType  string
	Metadata  map[string]any
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
