package naming

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Strategy turns an original filename and content into the stored filename.
type Strategy interface {
	Generate(originalName string, content []byte, ext string) string
}

// Tags accepted by Resolve.
const (
	TagHash     = "hash"
	TagSlug     = "slug"
	TagOriginal = "original"
	TagUUID     = "uuid"
)

// Resolve returns the built-in strategy for tag. Unknown tags fall back to Original.
func Resolve(tag string) Strategy {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case TagHash:
		return Hash{}
	case TagSlug:
		return Slug{}
	case TagUUID:
		return UUID{}
	default:
		return Original{}
	}
}

// Hash names a file after the SHA-256 of its content.
type Hash struct{}

func (Hash) Generate(_ string, content []byte, ext string) string {
	sum := sha256.Sum256(content)
	return withExt(hex.EncodeToString(sum[:]), ext)
}

// Slug names a file after a slug of its stem plus the current Unix time.
type Slug struct {
	Now func() time.Time
}

func (s Slug) Generate(originalName string, _ []byte, ext string) string {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	stem := strings.TrimSuffix(path.Base(originalName), path.Ext(originalName))
	return withExt(Slugify(stem)+"-"+strconv.FormatInt(now().Unix(), 10), ext)
}

// Original keeps the original filename.
type Original struct{}

func (Original) Generate(originalName string, _ []byte, _ string) string {
	return originalName
}

// UUID names a file with a random UUID.
type UUID struct{}

func (UUID) Generate(_ string, _ []byte, ext string) string {
	return withExt(uuid.NewString(), ext)
}

// Slugify lower-cases s and collapses every run of characters outside [a-z0-9] into one hyphen.
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}

func withExt(name, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return name
	}
	return name + "." + ext
}
