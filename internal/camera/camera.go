// Package camera acquires a frame source and captures JPEG stills from it.
//
// A Stream holds the underlying device, process or watcher until Close is
// called. Callers open a stream only for as long as the capture view is
// shown and always release it with a deferred Close.
package camera

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Source opens a live frame source.
type Source interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is an acquired frame source.
type Stream interface {
	// Capture returns a single frame encoded as JPEG.
	Capture(ctx context.Context) ([]byte, error)
	Close() error
}

// Reason classifies why a camera could not be used.
type Reason string

const (
	ReasonPermission  Reason = "permission"
	ReasonUnsupported Reason = "unsupported"
	ReasonCapture     Reason = "capture"
)

// CameraError reports a failure to acquire or read the camera. Message is
// shown to the user as is.
type CameraError struct {
	Reason  Reason
	Message string
	Cause   error
}

func (e *CameraError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("camera %s: %s: %v", e.Reason, e.Message, e.Cause)
	}
	return fmt.Sprintf("camera %s: %s", e.Reason, e.Message)
}

func (e *CameraError) Unwrap() error { return e.Cause }

// Messages shown for acquisition failures.
const (
	msgPermission  = "Camera access was denied. Please grant the required permission."
	msgUnsupported = "No supported camera is available on this system."
	msgCapture     = "Could not capture a photo from the camera."
)

// ErrClosed is returned by Capture after the stream has been closed.
var ErrClosed = errors.New("camera: stream closed")

// acquireError classifies an error from opening path.
func acquireError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return &CameraError{Reason: ReasonPermission, Message: msgPermission, Cause: err}
	case errors.Is(err, fs.ErrNotExist):
		return &CameraError{Reason: ReasonUnsupported, Message: msgUnsupported, Cause: err}
	default:
		return &CameraError{Reason: ReasonUnsupported, Message: msgUnsupported, Cause: fmt.Errorf("%s: %w", path, err)}
	}
}

// checkReadable verifies path exists and can be opened for reading.
func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return acquireError(path, err)
	}
	return f.Close()
}

// Message returns the user-facing text for a capture failure.
func Message(err error) string {
	var ce *CameraError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return msgCapture
}
