package domain

import "strings"

// ResolvedFile is the in-memory view of an upload source.
type ResolvedFile struct {
	Content   []byte
	Name      string
	MimeType  string
	Extension string
	Size      int64
}

// Family is the coarse MIME category used to pick a processing branch.
type Family string

const (
	FamilyImage    Family = "image"
	FamilyVideo    Family = "video"
	FamilyDocument Family = "document"
	FamilyOther    Family = "other"
)

var documentTypes = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/rtf":    {},
	"application/vnd.oasis.opendocument.text":        {},
	"application/vnd.oasis.opendocument.spreadsheet": {},
}

// FamilyOf maps a MIME type to its Family.
func FamilyOf(mimeType string) Family {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.HasPrefix(mt, "image/"):
		return FamilyImage
	case strings.HasPrefix(mt, "video/"):
		return FamilyVideo
	case strings.HasPrefix(mt, "text/"):
		return FamilyDocument
	case strings.HasPrefix(mt, "application/vnd.openxmlformats-officedocument."),
		strings.HasPrefix(mt, "application/vnd.ms-"):
		return FamilyDocument
	}
	if _, ok := documentTypes[mt]; ok {
		return FamilyDocument
	}
	return FamilyOther
}

// Category returns the directory name used for auto-generated destinations.
func (f Family) Category() string {
	switch f {
	case FamilyImage:
		return "images"
	case FamilyVideo:
		return "videos"
	case FamilyDocument:
		return "documents"
	default:
		return "files"
	}
}
