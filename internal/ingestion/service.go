package ingestion

import (
	"context"
	"maps"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/your-org/fileflow/internal/domain"
	"github.com/your-org/fileflow/internal/imageproc"
	"github.com/your-org/fileflow/internal/naming"
	"github.com/your-org/fileflow/internal/scan"
	"github.com/your-org/fileflow/internal/source"
	"github.com/your-org/fileflow/internal/video"
	"github.com/your-org/fileflow/pkg/metrics"
	"github.com/your-org/fileflow/pkg/retry"
	"github.com/your-org/fileflow/pkg/storage/objectstore"
)

// Stage names a step of the upload pipeline.
type Stage string

const (
	StageIntrospecting     Stage = "introspecting"
	StageValidating        Stage = "validating"
	StageScanning          Stage = "scanning"
	StageNaming            Stage = "naming"
	StagePathResolving     Stage = "path_resolving"
	StageProcessing        Stage = "processing"
	StageSecondaryScanning Stage = "secondary_scanning"
	StageUploading         Stage = "uploading"
	StageResultAssembled   Stage = "result_assembled"
)

// ImageProcessor transforms image bytes.
type ImageProcessor interface {
	OptimizeForWeb(content []byte, ext string, opts imageproc.Options, wm *imageproc.WatermarkOptions) (*imageproc.Result, error)
	Compress(content []byte, ext string, opts imageproc.Options) (*imageproc.Result, error)
	Process(content []byte, ext string, opts imageproc.Options, wm *imageproc.WatermarkOptions) (*imageproc.Result, error)
	Thumbnail(content []byte, ext string, opts imageproc.ThumbnailOptions) (*imageproc.Result, error)
}

// VideoTranscoder runs an external transcoder over local files.
type VideoTranscoder interface {
	Available() bool
	Transcode(ctx context.Context, input, output string, opts video.Options) error
	Thumbnail(ctx context.Context, input, output string, opts video.ThumbnailOptions) error
	Probe(ctx context.Context, input string) (*video.ProbeResult, error)
}

// SecurityScanner rejects malicious content.
type SecurityScanner interface {
	Scan(ctx context.Context, content []byte, filename, mimeType string) error
}

// Publisher delivers upload events.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte, headers map[string]string) error
	Close(ctx context.Context) error
}

// Service runs the upload pipeline against an object store.
type Service struct {
	store      objectstore.Client
	images     ImageProcessor
	transcoder VideoTranscoder
	scanner    SecurityScanner
	publisher  Publisher
	metrics    *metrics.Recorder
	logger     *zap.Logger
	tracer     trace.Tracer
	defaults   Defaults
	allowed    map[string]struct{}
	knownExts  map[string]struct{}
	retry      retry.Policy
	tempDir    string
	now        func() time.Time
}

// Params are the collaborators of a Service. Only Store is required.
type Params struct {
	Store      objectstore.Client
	Images     ImageProcessor
	Transcoder VideoTranscoder
	Scanner    SecurityScanner
	Publisher  Publisher
	Metrics    *metrics.Recorder
	Logger     *zap.Logger
	Defaults   Defaults
	Retry      retry.Policy
	TempDir    string
	Now        func() time.Time
}

// NewService constructs an ingestion Service.
func NewService(p Params) *Service {
	d := withFallbacks(p.Defaults)
	s := &Service{
		store:      p.Store,
		images:     p.Images,
		transcoder: p.Transcoder,
		scanner:    p.Scanner,
		publisher:  p.Publisher,
		metrics:    p.Metrics,
		logger:     p.Logger,
		tracer:     otel.Tracer("github.com/your-org/fileflow/internal/ingestion"),
		defaults:   d,
		allowed:    allowedExtensions(d.AllowedTypes),
		knownExts:  allowedExtensions(BuiltinAllowedTypes()),
		retry:      p.Retry,
		tempDir:    p.TempDir,
		now:        p.Now,
	}
	maps.Copy(s.knownExts, s.allowed)
	if s.images == nil {
		s.images = imageproc.New(d.Image)
	}
	if s.transcoder == nil {
		s.transcoder = video.NewFFmpeg(video.Config{})
	}
	if s.scanner == nil {
		s.scanner = scan.NewGate()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.retry.MaxAttempts == 0 {
		s.retry = retry.DefaultPolicy()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// run is the state of one pipeline invocation.
type run struct {
	destination string
	stage       Stage
	file        *domain.ResolvedFile
	family      domain.Family
	set         settings
	key         string
	result      *Result
}

func (r *run) enter(span trace.Span, stage Stage) {
	r.stage = stage
	span.AddEvent(string(stage))
}

// Upload stores src under destination, processing it according to opts.
// An empty destination selects <category>/<yyyy>/<mm>/<dd>. A destination
// ending in a known file extension (docs/report.pdf) names a file and only its
// directory is used; docs/v1.2 is a directory. Every failure is returned as a
// *domain.UploadError matching domain.ErrUploadFailed.
func (s *Service) Upload(ctx context.Context, src source.Source, destination string, opts Options) (*Result, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "ingestion.Upload", trace.WithAttributes(attribute.String("destination", destination)))
	defer span.End()

	r := &run{destination: destination, family: domain.FamilyOther, result: &Result{}}
	err := s.upload(ctx, span, r, src, opts)
	s.metrics.ObserveUpload(string(r.family), time.Since(start), r.result.written(), err)
	if err != nil {
		s.logger.Error("upload failed",
			zap.String("destination", destination),
			zap.String("stage", string(r.stage)),
			zap.Error(err),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &domain.UploadError{Destination: destination, Stage: string(r.stage), Err: err}
	}

	span.SetAttributes(attribute.String("key", r.result.Main.Path))
	s.logger.Info("upload stored",
		zap.String("path", r.result.Main.Path),
		zap.String("family", string(r.family)),
		zap.Int64("bytes", r.result.written()),
		zap.Int("warnings", len(r.result.Warnings)),
	)
	return r.result, nil
}

func (s *Service) upload(ctx context.Context, span trace.Span, r *run, src source.Source, opts Options) error {
	r.enter(span, StageIntrospecting)
	file, err := source.Resolve(ctx, src)
	if err != nil {
		return err
	}
	r.file = file
	r.family = domain.FamilyOf(file.MimeType)
	r.set = mergeOptions(s.defaults, opts)

	r.enter(span, StageValidating)
	if err := validate(file.Extension, file.MimeType, s.allowed); err != nil {
		return err
	}
	if r.set.watermark, err = resolveWatermark(r.set.watermark, s.defaults.WatermarkDir); err != nil {
		return err
	}

	if r.set.scan {
		r.enter(span, StageScanning)
		if err := s.scanner.Scan(ctx, file.Content, file.Name, file.MimeType); err != nil {
			return err
		}
	}

	r.enter(span, StageNaming)
	filename := r.set.namer.Generate(file.Name, file.Content, file.Extension)
	if filename == "" {
		filename = naming.UUID{}.Generate(file.Name, file.Content, file.Extension)
	}

	r.enter(span, StagePathResolving)
	dir := destinationDir(r.destination, r.family, s.now(), s.knownExts)
	key, err := s.ensureUnique(ctx, buildFinalPath(dir, filename, r.set.preserveStructure))
	if err != nil {
		return err
	}
	r.key = key

	r.enter(span, StageProcessing)
	switch r.family {
	case domain.FamilyImage:
		err = s.processImage(ctx, span, r)
	case domain.FamilyVideo:
		err = s.processVideo(ctx, span, r)
	default:
		err = s.passthrough(ctx, span, r)
	}
	if err != nil {
		return err
	}

	r.enter(span, StageResultAssembled)
	s.publish(ctx, newUploadedEvent(file, r.family, r.result, r.set.metadata, s.now()), r.result)
	return nil
}

// Close releases the publisher and the object store.
func (s *Service) Close(ctx context.Context) error {
	if s.publisher != nil {
		if err := s.publisher.Close(ctx); err != nil {
			return err
		}
	}
	return s.store.Close()
}
