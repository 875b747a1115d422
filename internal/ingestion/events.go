package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/your-org/fileflow/internal/domain"
)

// EventUploaded is the event_type header of UploadedEvent messages.
const EventUploaded = "ingestion.uploaded"

// UploadedEvent is emitted after every artifact of an upload is stored.
type UploadedEvent struct {
	ID          string            `json:"id"`
	ObjectKey   string            `json:"object_key"`
	Checksum    string            `json:"checksum"`
	SizeBytes   int64             `json:"size_bytes"`
	ContentType string            `json:"content_type"`
	Family      string            `json:"family"`
	Artifacts   map[string]string `json:"artifacts"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

func newUploadedEvent(file *domain.ResolvedFile, family domain.Family, res *Result, metadata map[string]string, now time.Time) UploadedEvent {
	sum := sha256.Sum256(file.Content)
	artifacts := map[string]string{}
	for role, a := range res.Artifacts() {
		artifacts[role] = a.Path
	}
	return UploadedEvent{
		ID:          uuid.NewString(),
		ObjectKey:   res.Main.Path,
		Checksum:    hex.EncodeToString(sum[:]),
		SizeBytes:   res.Main.Size,
		ContentType: res.Main.MimeType,
		Family:      string(family),
		Artifacts:   artifacts,
		Metadata:    metadata,
		CreatedAt:   now.UTC(),
	}
}

// publish emits ev. Failures become a warning on res, never an upload error.
func (s *Service) publish(ctx context.Context, ev UploadedEvent, res *Result) {
	if s.publisher == nil {
		return
	}
	err := func() error {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal upload event: %w", err)
		}
		headers := map[string]string{
			"upload_id":  ev.ID,
			"event_type": EventUploaded,
		}
		return s.publisher.Publish(ctx, []byte(ev.ID), payload, headers)
	}()
	if err != nil {
		s.logger.Warn("publish upload event failed", zap.String("key", ev.ObjectKey), zap.Error(err))
		res.warn("upload event not published: " + err.Error())
	}
}
