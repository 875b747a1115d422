package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/your-org/fileflow/internal/domain"
)

func TestFamilyOf(t *testing.T) {
	cases := map[string]domain.Family{
		"image/png":                     domain.FamilyImage,
		"IMAGE/JPEG":                    domain.FamilyImage,
		"video/mp4":                     domain.FamilyVideo,
		"text/plain":                    domain.FamilyDocument,
		"application/pdf":               domain.FamilyDocument,
		"application/vnd.ms-excel":      domain.FamilyDocument,
		"application/zip":               domain.FamilyOther,
		"application/octet-stream":      domain.FamilyOther,
		"":                              domain.FamilyOther,
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document": domain.FamilyDocument,
	}
	for mt, want := range cases {
		assert.Equal(t, want, domain.FamilyOf(mt), mt)
	}
}

func TestUploadError_MatchesUmbrellaAndCause(t *testing.T) {
	cause := fmt.Errorf("scan: %w", domain.ErrSecurityThreat)
	err := error(&domain.UploadError{Destination: "uploads/a.txt", Stage: "scanning", Err: cause})

	assert.True(t, errors.Is(err, domain.ErrUploadFailed))
	assert.True(t, errors.Is(err, domain.ErrSecurityThreat))
	assert.False(t, errors.Is(err, domain.ErrNotFound))
	assert.Contains(t, err.Error(), "uploads/a.txt")
}
