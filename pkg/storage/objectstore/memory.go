package objectstore

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryObject struct {
	data        []byte
	contentType string
	metadata    map[string]string
	modified    time.Time
	hiddenFor   int
}

// Memory is an in-process Client for development and tests.
// It can simulate eventual consistency through SetVisibilityLag.
type Memory struct {
	mu       sync.RWMutex
	bucket   string
	endpoint string
	secret   []byte
	objects  map[string]*memoryObject
	lag      int
	writes   int
}

var _ Client = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory(bucket, endpoint string) *Memory {
	if bucket == "" {
		bucket = "fileflow"
	}
	if endpoint == "" {
		endpoint = "http://memory.local"
	}
	return &Memory{
		bucket:   bucket,
		endpoint: endpoint,
		secret:   []byte(uuid.NewString()),
		objects:  map[string]*memoryObject{},
	}
}

// SetVisibilityLag makes each subsequently written object report as absent
// for the next n Exists calls.
func (m *Memory) SetVisibilityLag(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lag = n
}

// Writes returns how many Put calls succeeded.
func (m *Memory) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// Keys returns the stored keys of the default bucket.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}

func (m *Memory) Bucket() string {
	return m.bucket
}

func (m *Memory) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string, metadata map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read payload for %s: %w", key, err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("size mismatch for %s: declared %d, read %d", key, size, len(data))
	}
	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = &memoryObject{
		data:        data,
		contentType: contentType,
		metadata:    meta,
		modified:    time.Now().UTC(),
		hiddenFor:   m.lag,
	}
	m.writes++
	return nil
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return append([]byte(nil), obj.data...), nil
}

func (m *Memory) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	meta := make(map[string]string, len(obj.metadata))
	for k, v := range obj.metadata {
		meta[k] = v
	}
	return &ObjectInfo{
		Key:          key,
		Size:         int64(len(obj.data)),
		ContentType:  obj.contentType,
		LastModified: obj.modified,
		Metadata:     meta,
	}, nil
}

// Exists only knows the default bucket; other buckets are always empty.
func (m *Memory) Exists(ctx context.Context, bucket, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if bucket != "" && bucket != m.bucket {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	if !ok {
		return false, nil
	}
	if obj.hiddenFor > 0 {
		obj.hiddenFor--
		return false, nil
	}
	return true, nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *Memory) PresignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("presign %s: non-positive expiry %s", key, ttl)
	}
	if bucket == "" {
		bucket = m.bucket
	}
	expires := strconv.FormatInt(time.Now().Add(ttl).Unix(), 10)
	nonce := uuid.NewString()

	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(bucket + "/" + key + "|" + expires + "|" + nonce))

	q := url.Values{}
	q.Set("expires", expires)
	q.Set("nonce", nonce)
	q.Set("signature", hex.EncodeToString(mac.Sum(nil)))
	return joinURL(m.endpoint, bucket, key) + "?" + q.Encode(), nil
}

func (m *Memory) PublicURL(bucket, key string) string {
	if bucket == "" {
		bucket = m.bucket
	}
	return joinURL(m.endpoint, bucket, key)
}

func (m *Memory) Close() error {
	return nil
}
