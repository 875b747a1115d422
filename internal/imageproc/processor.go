package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

var formatMimeTypes = map[imaging.Format]string{
	imaging.JPEG: "image/jpeg",
	imaging.PNG:  "image/png",
	imaging.GIF:  "image/gif",
	imaging.TIFF: "image/tiff",
	imaging.BMP:  "image/bmp",
}

var formatExtensions = map[imaging.Format]string{
	imaging.JPEG: "jpg",
	imaging.PNG:  "png",
	imaging.GIF:  "gif",
	imaging.TIFF: "tiff",
	imaging.BMP:  "bmp",
}

// Processor applies image transforms backed by imaging.
type Processor struct {
	cfg Config
}

// New returns a Processor. Zero fields in cfg take the built-in defaults.
func New(cfg Config) *Processor {
	def := DefaultConfig()
	cfg.Quality = firstPositive(cfg.Quality, def.Quality)
	cfg.WebMaxWidth = firstPositive(cfg.WebMaxWidth, def.WebMaxWidth)
	cfg.WebMaxHeight = firstPositive(cfg.WebMaxHeight, def.WebMaxHeight)
	cfg.WebQuality = firstPositive(cfg.WebQuality, def.WebQuality)
	cfg.CompressQuality = firstPositive(cfg.CompressQuality, def.CompressQuality)
	cfg.CompressMinQuality = firstPositive(cfg.CompressMinQuality, def.CompressMinQuality)
	cfg.CompressMaxQuality = firstPositive(cfg.CompressMaxQuality, def.CompressMaxQuality)
	cfg.ThumbnailWidth = firstPositive(cfg.ThumbnailWidth, def.ThumbnailWidth)
	cfg.ThumbnailHeight = firstPositive(cfg.ThumbnailHeight, def.ThumbnailHeight)
	cfg.ThumbnailQuality = firstPositive(cfg.ThumbnailQuality, def.ThumbnailQuality)
	return &Processor{cfg: cfg}
}

// Config returns the effective defaults.
func (p *Processor) Config() Config {
	return p.cfg
}

// OptimizeForWeb shrinks the image to the web bounds, re-encodes it and
// optionally watermarks it.
func (p *Processor) OptimizeForWeb(content []byte, ext string, opts Options, wm *WatermarkOptions) (*Result, error) {
	img, err := decode(content)
	if err != nil {
		return nil, err
	}
	maxW := firstPositive(opts.MaxWidth, opts.Width, p.cfg.WebMaxWidth)
	maxH := firstPositive(opts.MaxHeight, opts.Height, p.cfg.WebMaxHeight)
	out := image.Image(imaging.Fit(img, maxW, maxH, imaging.Lanczos))

	watermarked := false
	if wm.Enabled() {
		if out, err = applyWatermark(out, wm); err != nil {
			return nil, err
		}
		watermarked = true
	}

	quality := clamp(firstPositive(opts.Quality, p.cfg.WebQuality), 1, 100)
	res, err := encode(out, targetExt(ext, opts.Format), quality)
	if err != nil {
		return nil, err
	}
	res.Metadata = describe("optimize_for_web", img, out, len(content), len(res.Content))
	res.Metadata["quality"] = quality
	res.Metadata["watermarked"] = watermarked
	return res, nil
}

// Compress re-encodes the image, searching JPEG quality so that the output
// fits the target size when one is given.
func (p *Processor) Compress(content []byte, ext string, opts Options) (*Result, error) {
	img, err := decode(content)
	if err != nil {
		return nil, err
	}
	outExt := targetExt(ext, opts.Format)
	format, outExt := outputFormat(outExt)

	minQ := clamp(firstPositive(opts.MinQuality, p.cfg.CompressMinQuality), 1, 100)
	maxQ := clamp(firstPositive(opts.MaxQuality, p.cfg.CompressMaxQuality), minQ, 100)
	target := opts.TargetSize
	if target <= 0 {
		target = p.cfg.CompressTargetBytes
	}

	var res *Result
	quality := 0
	switch {
	case format == imaging.JPEG && target > 0:
		res, quality, err = searchQuality(img, outExt, minQ, maxQ, target)
	case format == imaging.JPEG:
		quality = clamp(firstPositive(opts.Quality, p.cfg.CompressQuality), minQ, maxQ)
		res, err = encode(img, outExt, quality)
	default:
		res, err = encode(img, outExt, 0)
	}
	if err != nil {
		return nil, err
	}

	keptOriginal := false
	if len(res.Content) >= len(content) && strings.EqualFold(outExt, strings.TrimPrefix(ext, ".")) {
		res.Content = content
		keptOriginal = true
	}
	res.Metadata = describe("compress", img, img, len(content), len(res.Content))
	res.Metadata["quality"] = quality
	res.Metadata["target_size"] = target
	res.Metadata["kept_original"] = keptOriginal
	return res, nil
}

// Process fixes orientation, strips metadata by re-encoding, and applies the
// optional resize, format conversion and watermark.
func (p *Processor) Process(content []byte, ext string, opts Options, wm *WatermarkOptions) (*Result, error) {
	img, err := decode(content)
	if err != nil {
		return nil, err
	}
	out := image.Image(img)
	switch {
	case opts.Width > 0 || opts.Height > 0:
		out = imaging.Resize(img, opts.Width, opts.Height, imaging.Lanczos)
	case opts.MaxWidth > 0 || opts.MaxHeight > 0:
		out = imaging.Fit(img, firstPositive(opts.MaxWidth, img.Bounds().Dx()), firstPositive(opts.MaxHeight, img.Bounds().Dy()), imaging.Lanczos)
	}

	watermarked := false
	if wm.Enabled() {
		if out, err = applyWatermark(out, wm); err != nil {
			return nil, err
		}
		watermarked = true
	}

	quality := clamp(firstPositive(opts.Quality, p.cfg.Quality), 1, 100)
	res, err := encode(out, targetExt(ext, opts.Format), quality)
	if err != nil {
		return nil, err
	}
	res.Metadata = describe("process", img, out, len(content), len(res.Content))
	res.Metadata["quality"] = quality
	res.Metadata["watermarked"] = watermarked
	return res, nil
}

// Thumbnail derives a small preview from content.
func (p *Processor) Thumbnail(content []byte, ext string, opts ThumbnailOptions) (*Result, error) {
	img, err := decode(content)
	if err != nil {
		return nil, err
	}
	w := firstPositive(opts.Width, p.cfg.ThumbnailWidth)
	h := firstPositive(opts.Height, p.cfg.ThumbnailHeight)

	var out image.Image
	if strings.EqualFold(opts.Mode, "fit") {
		out = imaging.Fit(img, w, h, imaging.Lanczos)
	} else {
		out = imaging.Thumbnail(img, w, h, imaging.Lanczos)
	}

	quality := clamp(firstPositive(opts.Quality, p.cfg.ThumbnailQuality), 1, 100)
	res, err := encode(out, ext, quality)
	if err != nil {
		return nil, err
	}
	res.Metadata = describe("thumbnail", img, out, len(content), len(res.Content))
	return res, nil
}

// Decodable reports whether images with extension ext can be transformed.
// Vector and container formats such as svg or heic cannot.
func Decodable(ext string) bool {
	if strings.EqualFold(strings.TrimPrefix(ext, "."), "webp") {
		return true
	}
	_, err := imaging.FormatFromExtension(ext)
	return err == nil
}

// Dimensions returns width and height without decoding the full image.
func Dimensions(content []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

func decode(content []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(content), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func targetExt(ext, format string) string {
	if format != "" {
		return strings.ToLower(strings.TrimPrefix(format, "."))
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// outputFormat maps ext to an encodable format. Extensions imaging cannot
// write (webp, heic, ...) fall back to PNG and the extension changes with it.
func outputFormat(ext string) (imaging.Format, string) {
	f, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return imaging.PNG, formatExtensions[imaging.PNG]
	}
	return f, ext
}

func encode(img image.Image, ext string, quality int) (*Result, error) {
	format, outExt := outputFormat(ext)

	var opts []imaging.EncodeOption
	switch format {
	case imaging.JPEG:
		if quality > 0 {
			opts = append(opts, imaging.JPEGQuality(quality))
		}
	case imaging.PNG:
		opts = append(opts, imaging.PNGCompressionLevel(png.BestCompression))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, opts...); err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return &Result{
		Content:   buf.Bytes(),
		Extension: outExt,
		MimeType:  formatMimeTypes[format],
	}, nil
}

// searchQuality binary-searches the highest JPEG quality in [minQ, maxQ]
// whose output fits target. If nothing fits, minQ is used.
func searchQuality(img image.Image, ext string, minQ, maxQ int, target int64) (*Result, int, error) {
	var best *Result
	bestQ := 0
	lo, hi := minQ, maxQ
	for lo <= hi {
		mid := (lo + hi) / 2
		res, err := encode(img, ext, mid)
		if err != nil {
			return nil, 0, err
		}
		if int64(len(res.Content)) <= target {
			best, bestQ = res, mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	if best != nil {
		return best, bestQ, nil
	}
	res, err := encode(img, ext, minQ)
	return res, minQ, err
}

func describe(op string, src, out image.Image, originalSize, processedSize int) map[string]any {
	b := out.Bounds()
	return map[string]any{
		"operation":       op,
		"width":           b.Dx(),
		"height":          b.Dy(),
		"original_width":  src.Bounds().Dx(),
		"original_height": src.Bounds().Dy(),
		"original_size":   originalSize,
		"processed_size":  processedSize,
	}
}
