package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidSource is returned when the input cannot be read or has an unsupported shape
var ErrInvalidSource = errors.New("invalid source")

// ErrUnsupportedFileType is returned when the extension is not allow-listed
var ErrUnsupportedFileType = errors.New("unsupported file type")

// ErrInvalidOptions is returned when caller options cannot be honoured
var ErrInvalidOptions = errors.New("invalid options")

// ErrSecurityThreat is returned when a scanner rejects the content
var ErrSecurityThreat = errors.New("security threat detected")

// ErrPathExhausted is returned when no unique storage key could be found
var ErrPathExhausted = errors.New("unique path attempts exhausted")

// ErrTranscoderUnavailable is returned when the video transcoder binary cannot be found
var ErrTranscoderUnavailable = errors.New("transcoder unavailable")

// ErrNotFound is returned when a referenced object is absent
var ErrNotFound = errors.New("object not found")

// ErrUploadFailed is the umbrella error returned by the upload pipeline
var ErrUploadFailed = errors.New("upload failed")

// UploadError wraps a pipeline failure with the destination and stage it happened in.
// errors.Is matches both ErrUploadFailed and the original cause.
type UploadError struct {
	Destination string
	Stage       string
	Err         error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed at %s (destination %q): %v", e.Stage, e.Destination, e.Err)
}

func (e *UploadError) Unwrap() []error {
	return []error{ErrUploadFailed, e.Err}
}
