package ingestion

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/your-org/fileflow/internal/domain"
)

// normalizeKey cleans p into an internal key: no leading slash, no dot segments.
func normalizeKey(p string) string {
	return strings.TrimPrefix(path.Clean("/"+strings.TrimSpace(p)), "/")
}

// externalPath reports key with exactly one leading slash.
func externalPath(key string) string {
	return "/" + normalizeKey(key)
}

// destinationDir picks the directory an upload lands in. An empty destination
// becomes <category>/<yyyy>/<mm>/<dd>. A destination whose last segment ends in
// a known file extension names a file and yields its directory; anything else,
// such as releases/v1.2, is used as the directory itself.
func destinationDir(destination string, family domain.Family, now time.Time, known map[string]struct{}) string {
	dest := normalizeKey(destination)
	if dest == "" {
		return family.Category() + "/" + now.UTC().Format("2006/01/02")
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(path.Base(dest)), "."))
	if _, ok := known[ext]; ok && ext != "" {
		dir := path.Dir(dest)
		if dir == "." {
			return ""
		}
		return dir
	}
	return dest
}

func buildFinalPath(dir, filename string, preserveStructure bool) string {
	if !preserveStructure || dir == "" {
		return normalizeKey(filename)
	}
	return normalizeKey(dir + "/" + filename)
}

// splitKey returns the directory, stem and dotted extension of key.
func splitKey(key string) (dir, stem, ext string) {
	dir = path.Dir(key)
	if dir == "." {
		dir = ""
	}
	base := path.Base(key)
	ext = path.Ext(base)
	stem = strings.TrimSuffix(base, ext)
	return dir, stem, ext
}

func joinKey(dir, name string) string {
	if dir == "" {
		return normalizeKey(name)
	}
	return normalizeKey(dir + "/" + name)
}

// withExtension swaps the extension of key for ext.
func withExtension(key, ext string) string {
	dir, stem, _ := splitKey(key)
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return joinKey(dir, stem)
	}
	return joinKey(dir, stem+"."+ext)
}

// ensureUnique returns key if it is free, otherwise the first free stem_N variant.
func (s *Service) ensureUnique(ctx context.Context, key string) (string, error) {
	taken, err := s.exists(ctx, key, "")
	if err != nil {
		return "", fmt.Errorf("probe %s: %w", key, err)
	}
	if !taken {
		return key, nil
	}

	dir, stem, ext := splitKey(key)
	for i := 1; i <= s.defaults.MaxPathAttempts; i++ {
		candidate := joinKey(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		taken, err := s.exists(ctx, candidate, "")
		if err != nil {
			return "", fmt.Errorf("probe %s: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s after %d attempts", domain.ErrPathExhausted, key, s.defaults.MaxPathAttempts)
}

// thumbnailKey derives a thumbnail key from the resolved main key.
// Keys under the default directory inherit the main key's uniqueness;
// a custom directory is probed like a main artifact.
func (s *Service) thumbnailKey(ctx context.Context, mainKey, ext, directory, suffix string) (string, error) {
	dir, stem, _ := splitKey(mainKey)
	if suffix == "" {
		suffix = s.defaults.ThumbnailSuffix
	}
	name := stem + suffix
	if ext = strings.TrimPrefix(ext, "."); ext != "" {
		name += "." + ext
	}

	if directory != "" {
		return s.ensureUnique(ctx, joinKey(normalizeKey(directory), name))
	}
	return joinKey(joinKey(dir, s.defaults.ThumbnailDir), name), nil
}
