package source

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/your-org/fileflow/internal/domain"
)

// Source is anything the pipeline can read an upload from.
type Source interface {
	Resolve(ctx context.Context) (*domain.ResolvedFile, error)
}

// Reader is a byte stream with an optional declared content type and extension.
type Reader struct {
	R           io.Reader
	Name        string
	ContentType string
	Extension   string
}

// FromReader wraps r as a Source named name.
func FromReader(r io.Reader, name string) *Reader {
	return &Reader{R: r, Name: name}
}

func (s *Reader) Resolve(ctx context.Context) (*domain.ResolvedFile, error) {
	if s == nil || s.R == nil {
		return nil, fmt.Errorf("%w: nil reader", domain.ErrInvalidSource)
	}
	content, err := io.ReadAll(s.R)
	if err != nil {
		return nil, fmt.Errorf("%w: read stream: %w", domain.ErrInvalidSource, err)
	}
	name := s.Name
	if name == "" {
		name = "upload"
	}
	return resolve(content, name, s.ContentType, s.Extension), nil
}

// Path is a file on the local filesystem.
type Path string

func (p Path) Resolve(ctx context.Context) (*domain.ResolvedFile, error) {
	name := strings.TrimSpace(string(p))
	if name == "" {
		return nil, fmt.Errorf("%w: empty path", domain.ErrInvalidSource)
	}
	info, err := os.Stat(name)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", domain.ErrInvalidSource, name, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidSource, name)
	}
	content, err := os.ReadFile(filepath.Clean(name))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrInvalidSource, name, err)
	}
	return resolve(content, filepath.Base(name), "", ""), nil
}

// Multipart is a file received through a multipart form.
type Multipart struct {
	Header *multipart.FileHeader
}

// FromMultipart wraps an uploaded form file as a Source.
func FromMultipart(h *multipart.FileHeader) *Multipart {
	return &Multipart{Header: h}
}

func (s *Multipart) Resolve(ctx context.Context) (*domain.ResolvedFile, error) {
	if s == nil || s.Header == nil {
		return nil, fmt.Errorf("%w: nil multipart header", domain.ErrInvalidSource)
	}
	f, err := s.Header.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open form file: %w", domain.ErrInvalidSource, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read form file: %w", domain.ErrInvalidSource, err)
	}
	name := filepath.Base(s.Header.Filename)
	return resolve(content, name, s.Header.Header.Get("Content-Type"), filepath.Ext(name)), nil
}

// Resolve resolves src, rejecting nil sources.
func Resolve(ctx context.Context, src Source) (*domain.ResolvedFile, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: no source given", domain.ErrInvalidSource)
	}
	return src.Resolve(ctx)
}

func resolve(content []byte, name, declaredType, declaredExt string) *domain.ResolvedFile {
	mimeType := DetectMimeType(content, declaredType)
	return &domain.ResolvedFile{
		Content:   content,
		Name:      name,
		MimeType:  mimeType,
		Extension: DetectExtension(declaredExt, mimeType, name),
		Size:      int64(len(content)),
	}
}
