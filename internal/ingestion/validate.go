package ingestion

import (
	"fmt"
	"strings"

	"github.com/your-org/fileflow/internal/domain"
)

// allowedExtensions flattens the per-category table into one set.
func allowedExtensions(byCategory map[string][]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, exts := range byCategory {
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
			if ext != "" {
				set[ext] = struct{}{}
			}
		}
	}
	return set
}

// validate rejects ext unless it is in allowed. An empty set allows everything.
func validate(ext, mimeType string, allowed map[string]struct{}) error {
	if len(allowed) == 0 {
		return nil
	}
	if _, ok := allowed[strings.ToLower(ext)]; !ok {
		return fmt.Errorf("%w: extension %q (%s)", domain.ErrUnsupportedFileType, ext, mimeType)
	}
	return nil
}
