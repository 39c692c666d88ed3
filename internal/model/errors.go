package model

import (
	"errors"
	"fmt"

	"hlstranscoder/internal/quality"
)

var (
	ErrMissingVideoID = errors.New("missing videoId")
	ErrInvalidVideoID = errors.New("videoId must be a single path segment")
	ErrMissingPath    = errors.New("missing path")
	ErrMissingBucket  = errors.New("missing bucket")
)

// IntakeError means the queue payload could not be turned into a job.
type IntakeError struct {
	Payload string
	Err     error
}

func (e *IntakeError) Error() string { return "intake: " + e.Err.Error() }
func (e *IntakeError) Unwrap() error { return e.Err }

// DownloadError means the source could not be fetched.
type DownloadError struct {
	Bucket string
	Key    string
	Err    error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s/%s: %v", e.Bucket, e.Key, e.Err)
}
func (e *DownloadError) Unwrap() error { return e.Err }

// ProbeError means source metadata was unreadable.
type ProbeError struct {
	Path string
	Err  error
}

func (e *ProbeError) Error() string { return fmt.Sprintf("probe %s: %v", e.Path, e.Err) }
func (e *ProbeError) Unwrap() error { return e.Err }

// EncodeError is a failure confined to one rendition.
type EncodeError struct {
	Quality quality.Level
	Err     error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Quality.Label, e.Err)
}
func (e *EncodeError) Unwrap() error { return e.Err }

// AssemblyError means the master playlist could not be written.
type AssemblyError struct {
	Path string
	Err  error
}

func (e *AssemblyError) Error() string { return fmt.Sprintf("master playlist %s: %v", e.Path, e.Err) }
func (e *AssemblyError) Unwrap() error { return e.Err }

// UploadError means the artifact tree did not reach the destination store.
type UploadError struct {
	Bucket string
	Prefix string
	Err    error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s/%s: %v", e.Bucket, e.Prefix, e.Err)
}
func (e *UploadError) Unwrap() error { return e.Err }

// CleanupError is logged and never fails a job.
type CleanupError struct {
	Path string
	Err  error
}

func (e *CleanupError) Error() string { return fmt.Sprintf("cleanup %s: %v", e.Path, e.Err) }
func (e *CleanupError) Unwrap() error { return e.Err }

// ErrNoRenditions is the cause reported when every rendition failed.
var ErrNoRenditions = errors.New("all renditions failed")
