package ingestion

// Artifact is one stored object produced by an upload.
type Artifact struct {
	Path               string         `json:"path"`
	URL                string         `json:"url"`
	Size               int64          `json:"size"`
	MimeType           string         `json:"mime_type"`
	OriginalName       string         `json:"original_name"`
	FileName           string         `json:"file_name"`
	ProcessingMetadata map[string]any `json:"processing_metadata,omitempty"`
}

// Result aggregates the artifacts of one upload by role.
type Result struct {
	Main      *Artifact `json:"main"`
	Thumbnail *Artifact `json:"thumbnail,omitempty"`
	Warnings  []string  `json:"warnings,omitempty"`
}

// Artifacts returns the stored artifacts keyed by role ("main", "thumbnail").
func (r *Result) Artifacts() map[string]*Artifact {
	out := map[string]*Artifact{}
	if r == nil {
		return out
	}
	if r.Main != nil {
		out["main"] = r.Main
	}
	if r.Thumbnail != nil {
		out["thumbnail"] = r.Thumbnail
	}
	return out
}

func (r *Result) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// written sums the bytes stored across all artifacts.
func (r *Result) written() int64 {
	var n int64
	for _, a := range r.Artifacts() {
		n += a.Size
	}
	return n
}
