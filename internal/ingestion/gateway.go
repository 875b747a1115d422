package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// uploadFile writes content under key and describes the stored artifact.
func (s *Service) uploadFile(ctx context.Context, key string, content []byte, mimeType string, set settings, originalName string) (*Artifact, error) {
	ctx, span := s.tracer.Start(ctx, "ingestion.uploadFile", trace.WithAttributes(
		attribute.String("key", key),
		attribute.Int("size", len(content)),
	))
	defer span.End()

	size := int64(len(content))
	if err := s.store.Put(ctx, key, bytes.NewReader(content), size, mimeType, set.metadata); err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}

	if visible, err := s.exists(ctx, key, ""); err != nil || !visible {
		s.logger.Warn("object not visible after write", zap.String("key", key), zap.Error(err))
	}

	url, err := s.url(ctx, key, set.url)
	if err != nil {
		return nil, err
	}
	return &Artifact{
		Path:         externalPath(key),
		URL:          url,
		Size:         size,
		MimeType:     mimeType,
		OriginalName: originalName,
		FileName:     path.Base(key),
	}, nil
}

// url returns a signed URL when u.signed, otherwise the stable public URL.
func (s *Service) url(ctx context.Context, key string, u urlSettings) (string, error) {
	if !u.signed {
		return s.store.PublicURL(u.bucket, key), nil
	}
	signed, err := s.store.PresignedURL(ctx, u.bucket, key, u.expiration)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return signed, nil
}
