package source

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const octetStream = "application/octet-stream"

// DetectMimeType prefers the declared type and falls back to sniffing content.
// The filename is never consulted.
func DetectMimeType(content []byte, declared string) string {
	if mt := normalizeMediaType(declared); mt != "" && mt != octetStream {
		return mt
	}
	if len(content) == 0 {
		return "text/plain"
	}
	return normalizeMediaType(mimetype.Detect(content).String())
}

// DetectExtension returns a lower-case extension without the leading dot.
// Order: declared extension, MIME lookup table, filename extension.
func DetectExtension(declared, mimeType, filename string) string {
	if ext := cleanExt(declared); ext != "" {
		return ext
	}
	if m := mimetype.Lookup(mimeType); m != nil {
		if ext := cleanExt(m.Extension()); ext != "" {
			return ext
		}
	}
	return cleanExt(filepath.Ext(filename))
}

func normalizeMediaType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return mediaType
}

func cleanExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
