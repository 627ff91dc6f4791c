// Package service holds the error kinds shared by the detector services.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFrame is returned when the camera read succeeds but yields no image.
	ErrNoFrame = errors.New("camera returned no frame")

	// ErrCameraClosed is returned when reading from a released camera.
	ErrCameraClosed = errors.New("camera is closed")

	// ErrWriterNotOpened is returned when the video backend refuses to open a file.
	ErrWriterNotOpened = errors.New("video writer could not be opened")
)

// CaptureError reports a camera that failed to open or to deliver a frame.
// It is fatal for the capture loop.
type CaptureError struct {
	Op  string
	Err error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture %s: %v", e.Op, e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// StorageError reports a failed directory creation or file write.
// It aborts the current motion event only.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// EncodingError reports a video writer that failed to open, write or finalize.
// It aborts the current motion event only.
type EncodingError struct {
	Op   string
	Path string
	Err  error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err must stop the capture loop.
func IsFatal(err error) bool {
	var captureErr *CaptureError
	return errors.As(err, &captureErr)
}
