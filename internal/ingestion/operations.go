package ingestion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/fileflow/internal/domain"
	"github.com/your-org/fileflow/internal/imageproc"
	"github.com/your-org/fileflow/pkg/storage/objectstore"
)

// Metadata describes a stored object. Extra carries type-specific fields
// such as image dimensions or video duration.
type Metadata struct {
	Path         string         `json:"path"`
	FileName     string         `json:"file_name"`
	Size         int64          `json:"size"`
	MimeType     string         `json:"mime_type"`
	LastModified time.Time      `json:"last_modified"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// Delete removes p and reports whether the store accepted it.
func (s *Service) Delete(ctx context.Context, p string) bool {
	key := normalizeKey(p)
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn("delete failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// FileExists probes p with the existence retry policy. An empty bucket is the default one.
func (s *Service) FileExists(ctx context.Context, p, bucket string) (bool, error) {
	return s.exists(ctx, normalizeKey(p), bucket)
}

// GetMetadata returns the stored object's attributes or domain.ErrNotFound.
func (s *Service) GetMetadata(ctx context.Context, p string) (*Metadata, error) {
	key := normalizeKey(p)
	info, err := s.store.Stat(ctx, key)
	if errors.Is(err, objectstore.ErrObjectNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, externalPath(key))
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", key, err)
	}

	md := &Metadata{
		Path:         externalPath(key),
		FileName:     path.Base(key),
		Size:         info.Size,
		MimeType:     info.ContentType,
		LastModified: info.LastModified,
		Extra:        map[string]any{},
	}
	for k, v := range info.Metadata {
		md.Extra[k] = v
	}

	switch domain.FamilyOf(info.ContentType) {
	case domain.FamilyImage:
		s.describeImage(ctx, key, md)
	case domain.FamilyVideo:
		s.describeVideo(ctx, key, md)
	}
	return md, nil
}

func (s *Service) describeImage(ctx context.Context, key string, md *Metadata) {
	content, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Debug("image metadata skipped", zap.String("key", key), zap.Error(err))
		return
	}
	w, h, err := imageproc.Dimensions(content)
	if err != nil {
		s.logger.Debug("image metadata skipped", zap.String("key", key), zap.Error(err))
		return
	}
	md.Extra["width"] = w
	md.Extra["height"] = h
}

func (s *Service) describeVideo(ctx context.Context, key string, md *Metadata) {
	if !s.transcoder.Available() {
		return
	}
	content, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Debug("video metadata skipped", zap.String("key", key), zap.Error(err))
		return
	}
	tmpDir, err := os.MkdirTemp(s.tempDir, "fileflow-probe-*")
	if err != nil {
		s.logger.Debug("video metadata skipped", zap.String("key", key), zap.Error(err))
		return
	}
	defer os.RemoveAll(tmpDir) //nolint:errcheck

	input := filepath.Join(tmpDir, path.Base(key))
	if err := os.WriteFile(input, content, 0o600); err != nil {
		s.logger.Debug("video metadata skipped", zap.String("key", key), zap.Error(err))
		return
	}
	probe, err := s.transcoder.Probe(ctx, input)
	if err != nil {
		s.logger.Debug("video metadata skipped", zap.String("key", key), zap.Error(err))
		return
	}
	for k, v := range probe.Metadata() {
		md.Extra[k] = v
	}
}

// GetURL returns a URL for p. A zero expiration selects the default, and
// expirations beyond the maximum are clamped. A nil signed selects the default.
func (s *Service) GetURL(ctx context.Context, p string, expiration time.Duration, signed *bool) (string, error) {
	u := urlSettings{signed: pick(signed, s.defaults.URLSigned), expiration: expiration}
	if u.expiration <= 0 {
		u.expiration = s.defaults.URLExpiration
	}
	u.expiration = clampExpiration(u.expiration, s.defaults.URLMaxExpiration)
	return s.url(ctx, normalizeKey(p), u)
}

// GetPublicURL returns the stable public URL of p without checking it exists.
func (s *Service) GetPublicURL(p string) string {
	return s.store.PublicURL("", normalizeKey(p))
}

// GetURLPublic returns the public URL of p in bucket. With checkExists it
// fails with domain.ErrNotFound when the object is absent.
func (s *Service) GetURLPublic(ctx context.Context, p string, checkExists bool, bucket string) (string, error) {
	key := normalizeKey(p)
	if checkExists {
		found, err := s.exists(ctx, key, bucket)
		if err != nil {
			return "", fmt.Errorf("probe %s: %w", key, err)
		}
		if !found {
			return "", fmt.Errorf("%w: %s", domain.ErrNotFound, externalPath(key))
		}
	}
	return s.store.PublicURL(bucket, key), nil
}
