package ingestion

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/your-org/fileflow/internal/domain"
	"github.com/your-org/fileflow/internal/imageproc"
	"github.com/your-org/fileflow/internal/naming"
	"github.com/your-org/fileflow/internal/video"
)

// Options are the per-call upload options. Nil fields fall back to Defaults.
type Options struct {
	Scan              *bool                       `json:"scan,omitempty"`
	Naming            string                      `json:"naming,omitempty"`
	Namer             naming.Strategy             `json:"-"`
	PreserveStructure *bool                       `json:"preserve_structure,omitempty"`
	Compress          *bool                       `json:"compress,omitempty"`
	Optimize          *bool                       `json:"optimize,omitempty"`
	OptimizeForWeb    *bool                       `json:"optimize_for_web,omitempty"`
	Image             *imageproc.Options          `json:"image,omitempty"`
	Thumbnail         *imageproc.ThumbnailOptions `json:"thumbnail,omitempty"`
	Watermark         *imageproc.WatermarkOptions `json:"watermark,omitempty"`
	Video             *video.Options              `json:"video,omitempty"`
	VideoThumbnail    *video.ThumbnailOptions     `json:"video_thumbnail,omitempty"`
	URL               URLOptions                  `json:"url"`
	Metadata          map[string]string           `json:"metadata,omitempty"`
}

// URLOptions controls the URL returned for each artifact. Expiration is in seconds.
// Bucket only affects URL generation, never the bucket written to.
type URLOptions struct {
	Signed     *bool  `json:"signed,omitempty"`
	Expiration int    `json:"expiration,omitempty"`
	Bucket     string `json:"bucket,omitempty"`
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}

// Defaults are the process-wide upload settings.
type Defaults struct {
	Naming            string
	Scan              bool
	PreserveStructure bool
	// AllowedTypes maps a category to its extensions. nil selects the
	// built-in table; an empty non-nil map disables the check.
	AllowedTypes     map[string][]string
	Image            imageproc.Config
	Thumbnail        imageproc.ThumbnailOptions
	Video            video.Options
	VideoThumbnail   video.ThumbnailOptions
	URLSigned        bool
	URLExpiration    time.Duration
	URLMaxExpiration time.Duration
	ThumbnailDir     string
	ThumbnailSuffix  string
	MaxPathAttempts  int
	// WatermarkDir is the only directory watermark images are read from.
	// Empty disables image watermarks.
	WatermarkDir string
}

// BuiltinAllowedTypes is the allow-list used when none is configured.
func BuiltinAllowedTypes() map[string][]string {
	return map[string][]string{
		"images":    {"jpg", "jpeg", "png", "gif", "webp", "bmp", "tif", "tiff", "svg"},
		"documents": {"pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "odt", "ods", "rtf", "txt", "csv", "md"},
		"videos":    {"mp4", "mov", "avi", "mkv", "webm", "m4v"},
		"audio":     {"mp3", "wav", "ogg", "m4a", "flac", "aac"},
		"archives":  {"zip", "tar", "gz", "7z"},
	}
}

// BuiltinDefaults are the hard-coded fallbacks.
func BuiltinDefaults() Defaults {
	return Defaults{
		Naming:            naming.TagHash,
		Scan:              true,
		PreserveStructure: true,
		AllowedTypes:      BuiltinAllowedTypes(),
		Image:             imageproc.DefaultConfig(),
		VideoThumbnail:    video.ThumbnailOptions{Timestamp: 1},
		URLExpiration:     time.Hour,
		URLMaxExpiration:  7 * 24 * time.Hour,
		ThumbnailDir:      "thumbnails",
		ThumbnailSuffix:   "-thumb",
		MaxPathAttempts:   1000,
	}
}

// withFallbacks fills zero-valued fields of d from BuiltinDefaults.
// Booleans are taken from d as given.
func withFallbacks(d Defaults) Defaults {
	b := BuiltinDefaults()
	if d.Naming == "" {
		d.Naming = b.Naming
	}
	if d.AllowedTypes == nil {
		d.AllowedTypes = b.AllowedTypes
	}
	if d.VideoThumbnail.Timestamp <= 0 {
		d.VideoThumbnail.Timestamp = b.VideoThumbnail.Timestamp
	}
	if d.URLExpiration <= 0 {
		d.URLExpiration = b.URLExpiration
	}
	if d.URLMaxExpiration <= 0 {
		d.URLMaxExpiration = b.URLMaxExpiration
	}
	if d.ThumbnailDir == "" {
		d.ThumbnailDir = b.ThumbnailDir
	}
	if d.ThumbnailSuffix == "" {
		d.ThumbnailSuffix = b.ThumbnailSuffix
	}
	if d.MaxPathAttempts <= 0 {
		d.MaxPathAttempts = b.MaxPathAttempts
	}
	return d
}

type defaultsFile struct {
	AllowedTypes   map[string][]string         `yaml:"allowed_types"`
	Image          *imageproc.Config           `yaml:"image"`
	Thumbnail      *imageproc.ThumbnailOptions `yaml:"thumbnail"`
	Video          *video.Options              `yaml:"video"`
	VideoThumbnail *video.ThumbnailOptions     `yaml:"video_thumbnail"`
}

// LoadDefaultsFile overlays the YAML file at path onto base.
// Blocks missing from the file keep the values from base.
func LoadDefaultsFile(path string, base Defaults) (Defaults, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return base, fmt.Errorf("read defaults file: %w", err)
	}
	var f defaultsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return base, fmt.Errorf("parse defaults file %s: %w", path, err)
	}
	if f.AllowedTypes != nil {
		base.AllowedTypes = f.AllowedTypes
	}
	if f.Image != nil {
		base.Image = *f.Image
	}
	if f.Thumbnail != nil {
		base.Thumbnail = *f.Thumbnail
	}
	if f.Video != nil {
		base.Video = *f.Video
	}
	if f.VideoThumbnail != nil {
		base.VideoThumbnail = *f.VideoThumbnail
	}
	return base, nil
}

// settings is the fully merged, per-upload view of Options.
type settings struct {
	scan              bool
	namer             naming.Strategy
	preserveStructure bool
	compress          bool
	optimize          bool
	optimizeForWeb    bool
	image             *imageproc.Options
	thumbnail         *imageproc.ThumbnailOptions
	watermark         *imageproc.WatermarkOptions
	video             *video.Options
	videoThumbnail    *video.ThumbnailOptions
	url               urlSettings
	metadata          map[string]string
}

type urlSettings struct {
	signed     bool
	expiration time.Duration
	bucket     string
}

// mergeOptions resolves the options for one upload. Precedence, lowest first:
//  1. hard-coded fallbacks (applied to d by withFallbacks at construction)
//  2. process-wide defaults d
//  3. caller options o
//
// Branch-specific overrides (no watermark on thumbnails, jpg frames for video
// thumbnails) are applied later by the processors.
func mergeOptions(d Defaults, o Options) settings {
	s := settings{
		scan:              pick(o.Scan, d.Scan),
		preserveStructure: pick(o.PreserveStructure, d.PreserveStructure),
		compress:          pick(o.Compress, false),
		optimize:          pick(o.Optimize, false),
		optimizeForWeb:    pick(o.OptimizeForWeb, false),
		image:             o.Image,
		watermark:         o.Watermark,
		metadata:          o.Metadata,
	}

	switch {
	case o.Namer != nil:
		s.namer = o.Namer
	case o.Naming != "":
		s.namer = naming.Resolve(o.Naming)
	default:
		s.namer = naming.Resolve(d.Naming)
	}

	if o.Thumbnail != nil {
		t := *o.Thumbnail
		t.Width = firstPositive(t.Width, d.Thumbnail.Width)
		t.Height = firstPositive(t.Height, d.Thumbnail.Height)
		t.Quality = firstPositive(t.Quality, d.Thumbnail.Quality)
		t.Mode = firstNonEmpty(t.Mode, d.Thumbnail.Mode)
		t.Suffix = firstNonEmpty(t.Suffix, d.Thumbnail.Suffix, d.ThumbnailSuffix)
		s.thumbnail = &t
	}

	if o.Video != nil {
		v := *o.Video
		v.Format = firstNonEmpty(v.Format, d.Video.Format)
		v.VideoCodec = firstNonEmpty(v.VideoCodec, d.Video.VideoCodec)
		v.AudioCodec = firstNonEmpty(v.AudioCodec, d.Video.AudioCodec)
		v.VideoBitrate = firstNonEmpty(v.VideoBitrate, d.Video.VideoBitrate)
		v.AudioBitrate = firstNonEmpty(v.AudioBitrate, d.Video.AudioBitrate)
		v.Preset = firstNonEmpty(v.Preset, d.Video.Preset)
		v.FrameRate = firstNonEmpty(v.FrameRate, d.Video.FrameRate)
		v.Width = firstPositive(v.Width, d.Video.Width)
		v.Height = firstPositive(v.Height, d.Video.Height)
		v.CRF = firstPositive(v.CRF, d.Video.CRF)
		s.video = &v
	}

	if o.VideoThumbnail != nil {
		vt := *o.VideoThumbnail
		if vt.Timestamp <= 0 {
			vt.Timestamp = d.VideoThumbnail.Timestamp
		}
		vt.Width = firstPositive(vt.Width, d.VideoThumbnail.Width)
		vt.Height = firstPositive(vt.Height, d.VideoThumbnail.Height)
		vt.Format = firstNonEmpty(vt.Format, d.VideoThumbnail.Format)
		s.videoThumbnail = &vt
	}

	s.url = urlSettings{
		signed:     pick(o.URL.Signed, d.URLSigned),
		expiration: d.URLExpiration,
		bucket:     o.URL.Bucket,
	}
	if o.URL.Expiration > 0 {
		s.url.expiration = time.Duration(o.URL.Expiration) * time.Second
	}
	s.url.expiration = clampExpiration(s.url.expiration, d.URLMaxExpiration)
	return s
}

// resolveWatermark confines a watermark image to dir. The image must be a
// local relative name; callers never pick arbitrary server files.
func resolveWatermark(wm *imageproc.WatermarkOptions, dir string) (*imageproc.WatermarkOptions, error) {
	if wm == nil || wm.Image == "" {
		return wm, nil
	}
	if dir == "" {
		return nil, fmt.Errorf("%w: watermark images are not enabled", domain.ErrInvalidOptions)
	}
	name := filepath.FromSlash(wm.Image)
	if !filepath.IsLocal(name) {
		return nil, fmt.Errorf("%w: watermark image must be a name inside the watermark directory", domain.ErrInvalidOptions)
	}
	out := *wm
	out.Image = filepath.Join(dir, name)
	return &out, nil
}

func clampExpiration(v, max time.Duration) time.Duration {
	if max > 0 && v > max {
		return max
	}
	return v
}

func pick(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
