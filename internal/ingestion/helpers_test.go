package ingestion

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/your-org/fileflow/internal/imageproc"
	"github.com/your-org/fileflow/internal/video"
	"github.com/your-org/fileflow/pkg/retry"
	"github.com/your-org/fileflow/pkg/storage/objectstore"
)

var fixedNow = time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

func fastRetry() retry.Policy {
	return retry.Policy{MaxAttempts: 1, InitialDelay: time.Millisecond, Multiplier: 2}
}

// newTestService returns a Service over a fresh memory store. The allow-list
// is disabled and existence probes do not retry unless mutate says otherwise.
func newTestService(t *testing.T, mutate ...func(*Params)) (*Service, *objectstore.Memory) {
	t.Helper()
	store := objectstore.NewMemory("media", "http://storage.test")
	p := Params{
		Store: store,
		Defaults: Defaults{
			Naming:            "original",
			Scan:              true,
			PreserveStructure: true,
			AllowedTypes:      map[string][]string{},
		},
		Retry:   fastRetry(),
		TempDir: t.TempDir(),
		Now:     func() time.Time { return fixedNow },
	}
	for _, m := range mutate {
		m(&p)
	}
	return NewService(p), store
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// stubImages records which transform ran and returns canned output.
type stubImages struct {
	calls        []string
	outExt       string
	payload      []byte
	thumbnailErr error
}

func (s *stubImages) result(op string, content []byte, ext string) *imageproc.Result {
	s.calls = append(s.calls, op)
	out := ext
	if s.outExt != "" && op != "thumbnail" {
		out = s.outExt
	}
	body := append([]byte(op+":"), content...)
	if s.payload != nil {
		body = s.payload
	}
	return &imageproc.Result{
		Content:   body,
		Extension: out,
		MimeType:  "image/" + out,
		Metadata:  map[string]any{"operation": op},
	}
}

func (s *stubImages) OptimizeForWeb(content []byte, ext string, _ imageproc.Options, _ *imageproc.WatermarkOptions) (*imageproc.Result, error) {
	return s.result("optimize_for_web", content, ext), nil
}

func (s *stubImages) Compress(content []byte, ext string, _ imageproc.Options) (*imageproc.Result, error) {
	return s.result("compress", content, ext), nil
}

func (s *stubImages) Process(content []byte, ext string, _ imageproc.Options, _ *imageproc.WatermarkOptions) (*imageproc.Result, error) {
	return s.result("process", content, ext), nil
}

func (s *stubImages) Thumbnail(content []byte, ext string, _ imageproc.ThumbnailOptions) (*imageproc.Result, error) {
	if s.thumbnailErr != nil {
		return nil, s.thumbnailErr
	}
	return s.result("thumbnail", content, ext), nil
}

// fakeTranscoder writes canned files instead of running ffmpeg.
type fakeTranscoder struct {
	available    bool
	transcodeErr error
	output       []byte
	inputs       []string
}

func (f *fakeTranscoder) Available() bool { return f.available }

func (f *fakeTranscoder) Transcode(_ context.Context, input, output string, _ video.Options) error {
	f.inputs = append(f.inputs, input)
	if f.transcodeErr != nil {
		return f.transcodeErr
	}
	return os.WriteFile(output, f.output, 0o600)
}

func (f *fakeTranscoder) Thumbnail(_ context.Context, input, output string, _ video.ThumbnailOptions) error {
	f.inputs = append(f.inputs, input)
	return os.WriteFile(output, []byte("\xff\xd8\xff\xe0frame"), 0o600)
}

func (f *fakeTranscoder) Probe(context.Context, string) (*video.ProbeResult, error) {
	return nil, errors.New("probe not supported")
}

type capturePublisher struct {
	mu       sync.Mutex
	err      error
	messages [][]byte
	headers  []map[string]string
}

func (p *capturePublisher) Publish(_ context.Context, _, value []byte, headers map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, value)
	p.headers = append(p.headers, headers)
	return nil
}

func (p *capturePublisher) Close(context.Context) error { return nil }

// mockStore is a testify mock of objectstore.Client for failure injection.
type mockStore struct {
	mock.Mock
}

var _ objectstore.Client = (*mockStore)(nil)

func (m *mockStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string, metadata map[string]string) error {
	args := m.Called(ctx, key, reader, size, contentType, metadata)
	return args.Error(0)
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockStore) Stat(ctx context.Context, key string) (*objectstore.ObjectInfo, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*objectstore.ObjectInfo), args.Error(1)
}

func (m *mockStore) Exists(ctx context.Context, bucket, key string) (bool, error) {
	args := m.Called(ctx, bucket, key)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockStore) PresignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, bucket, key, ttl)
	return args.String(0), args.Error(1)
}

func (m *mockStore) PublicURL(bucket, key string) string {
	args := m.Called(bucket, key)
	return args.String(0)
}

func (m *mockStore) Bucket() string {
	return m.Called().String(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}
