package ingestion

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path"
	"path/filepath"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/your-org/fileflow/internal/domain"
	"github.com/your-org/fileflow/internal/imageproc"
	"github.com/your-org/fileflow/internal/source"
)

// imageBranch is the transform an image upload goes through, chosen once per upload.
type imageBranch int

const (
	imageOriginal imageBranch = iota
	imageWeb
	imageCompress
	imageGeneral
)

func (b imageBranch) String() string {
	switch b {
	case imageWeb:
		return "optimize_for_web"
	case imageCompress:
		return "compress"
	case imageGeneral:
		return "process"
	default:
		return "original"
	}
}

// planImage picks the image branch. Priority: web, compress, general, original.
func planImage(set settings) imageBranch {
	switch {
	case set.optimizeForWeb:
		return imageWeb
	case set.compress:
		return imageCompress
	case set.optimize || set.image != nil || set.watermark != nil:
		return imageGeneral
	default:
		return imageOriginal
	}
}

func (s *Service) transformImage(branch imageBranch, file *domain.ResolvedFile, set settings) (*imageproc.Result, error) {
	var opts imageproc.Options
	if set.image != nil {
		opts = *set.image
	}
	switch branch {
	case imageWeb:
		return s.images.OptimizeForWeb(file.Content, file.Extension, opts, set.watermark)
	case imageCompress:
		return s.images.Compress(file.Content, file.Extension, opts)
	default:
		return s.images.Process(file.Content, file.Extension, opts, set.watermark)
	}
}

func (s *Service) processImage(ctx context.Context, span trace.Span, r *run) error {
	content, ext, mimeType := r.file.Content, r.file.Extension, r.file.MimeType
	if !imageproc.Decodable(ext) {
		if planImage(r.set) != imageOriginal || r.set.thumbnail != nil {
			r.result.warn(fmt.Sprintf("image processing skipped: %s images cannot be decoded", ext))
		}
		return s.passthrough(ctx, span, r)
	}
	var meta map[string]any

	if branch := planImage(r.set); branch != imageOriginal {
		out, err := s.transformImage(branch, r.file, r.set)
		if err != nil {
			return fmt.Errorf("image %s: %w", branch, err)
		}
		content, mimeType, meta = out.Content, out.MimeType, out.Metadata
		if err := s.rewriteExtension(ctx, r, ext, out.Extension); err != nil {
			return err
		}
		ext = out.Extension
		if err := s.rescan(ctx, span, r, content, mimeType); err != nil {
			return err
		}
	}

	r.enter(span, StageUploading)
	main, err := s.uploadFile(ctx, r.key, content, mimeType, r.set, r.file.Name)
	if err != nil {
		return err
	}
	main.ProcessingMetadata = meta
	r.result.Main = main

	if r.set.thumbnail == nil {
		return nil
	}

	// Cut from the stored main content, so any watermark is already present.
	r.enter(span, StageProcessing)
	thumb, err := s.images.Thumbnail(content, ext, *r.set.thumbnail)
	if err != nil {
		return fmt.Errorf("image thumbnail: %w", err)
	}
	key, err := s.thumbnailKey(ctx, r.key, thumb.Extension, r.set.thumbnail.Directory, r.set.thumbnail.Suffix)
	if err != nil {
		return err
	}

	r.enter(span, StageUploading)
	art, err := s.uploadFile(ctx, key, thumb.Content, thumb.MimeType, r.set, r.file.Name)
	if err != nil {
		return err
	}
	art.ProcessingMetadata = thumb.Metadata
	r.result.Thumbnail = art
	return nil
}

func (s *Service) processVideo(ctx context.Context, span trace.Span, r *run) error {
	if r.set.video == nil && r.set.videoThumbnail == nil {
		return s.passthrough(ctx, span, r)
	}
	if !s.transcoder.Available() {
		s.logger.Warn("video processing skipped",
			zap.String("key", r.key),
			zap.Error(domain.ErrTranscoderUnavailable),
		)
		r.result.warn("video processing skipped: " + domain.ErrTranscoderUnavailable.Error())
		return s.passthrough(ctx, span, r)
	}

	tmpDir, err := os.MkdirTemp(s.tempDir, "fileflow-video-*")
	if err != nil {
		return fmt.Errorf("create video workspace: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			s.logger.Warn("remove video workspace", zap.String("dir", tmpDir), zap.Error(err))
		}
	}()

	input := filepath.Join(tmpDir, "input."+extOr(r.file.Extension, "bin"))
	if err := os.WriteFile(input, r.file.Content, 0o600); err != nil {
		return fmt.Errorf("write video input: %w", err)
	}

	content, mimeType, frameSource := r.file.Content, r.file.MimeType, input
	meta := map[string]any{}

	if r.set.video != nil {
		format := r.set.video.OutputFormat()
		output := filepath.Join(tmpDir, "output."+format)
		if err := s.transcoder.Transcode(ctx, input, output, *r.set.video); err != nil {
			return fmt.Errorf("transcode: %w", err)
		}
		content, err = os.ReadFile(output)
		if err != nil {
			return fmt.Errorf("read transcoded video: %w", err)
		}
		mimeType = source.DetectMimeType(content, "")
		frameSource = output
		meta["operation"] = "transcode"
		meta["format"] = format
		meta["original_size"] = len(r.file.Content)
		meta["processed_size"] = len(content)
		if err := s.rewriteExtension(ctx, r, r.file.Extension, format); err != nil {
			return err
		}
		if err := s.rescan(ctx, span, r, content, mimeType); err != nil {
			return err
		}
	}

	if probe, err := s.transcoder.Probe(ctx, frameSource); err != nil {
		s.logger.Debug("video probe skipped", zap.String("key", r.key), zap.Error(err))
	} else {
		maps.Copy(meta, probe.Metadata())
	}

	r.enter(span, StageUploading)
	main, err := s.uploadFile(ctx, r.key, content, mimeType, r.set, r.file.Name)
	if err != nil {
		return err
	}
	main.ProcessingMetadata = meta
	r.result.Main = main

	if r.set.videoThumbnail == nil {
		return nil
	}

	r.enter(span, StageProcessing)
	vt := *r.set.videoThumbnail
	frame := filepath.Join(tmpDir, "thumbnail."+vt.OutputFormat())
	if err := s.transcoder.Thumbnail(ctx, frameSource, frame, vt); err != nil {
		return fmt.Errorf("video thumbnail: %w", err)
	}
	frameBytes, err := os.ReadFile(frame)
	if err != nil {
		return fmt.Errorf("read video thumbnail: %w", err)
	}
	key, err := s.thumbnailKey(ctx, r.key, vt.OutputFormat(), "", "")
	if err != nil {
		return err
	}

	r.enter(span, StageUploading)
	art, err := s.uploadFile(ctx, key, frameBytes, source.DetectMimeType(frameBytes, ""), r.set, r.file.Name)
	if err != nil {
		return err
	}
	art.ProcessingMetadata = map[string]any{"operation": "frame_capture", "timestamp": vt.Timestamp}
	r.result.Thumbnail = art
	return nil
}

func (s *Service) passthrough(ctx context.Context, span trace.Span, r *run) error {
	r.enter(span, StageUploading)
	main, err := s.uploadFile(ctx, r.key, r.file.Content, r.file.MimeType, r.set, r.file.Name)
	if err != nil {
		return err
	}
	r.result.Main = main
	return nil
}

// rewriteExtension moves r.key to the encoded format's extension and
// re-resolves uniqueness for the new key.
func (s *Service) rewriteExtension(ctx context.Context, r *run, from, to string) error {
	if to == "" || to == from || path.Ext(r.key) == "."+to {
		return nil
	}
	key, err := s.ensureUnique(ctx, withExtension(r.key, to))
	if err != nil {
		return err
	}
	r.key = key
	return nil
}

// rescan checks transformed bytes before they are stored.
func (s *Service) rescan(ctx context.Context, span trace.Span, r *run, content []byte, mimeType string) error {
	if !r.set.scan {
		return nil
	}
	r.enter(span, StageSecondaryScanning)
	return s.scanner.Scan(ctx, content, path.Base(r.key), mimeType)
}

func extOr(ext, fallback string) string {
	if ext == "" {
		return fallback
	}
	return ext
}
