package camera

import (
	"context"
	"os"
	"sync/atomic"
)

// FileSource serves a still image from disk as its only frame.
type FileSource struct {
	Path    string
	MaxEdge int
}

// Open implements Source.
func (s FileSource) Open(ctx context.Context) (Stream, error) {
	if err := checkReadable(s.Path); err != nil {
		return nil, err
	}
	return &fileStream{src: s}, nil
}

type fileStream struct {
	src    FileSource
	closed atomic.Bool
}

func (f *fileStream) Capture(ctx context.Context) ([]byte, error) {
	if f.closed.Load() {
		return nil, ErrClosed
	}
	raw, err := os.ReadFile(f.src.Path)
	if err != nil {
		return nil, acquireError(f.src.Path, err)
	}
	jpg, err := EncodeJPEG(raw, f.src.MaxEdge)
	if err != nil {
		return nil, &CameraError{Reason: ReasonCapture, Message: msgCapture, Cause: err}
	}
	return jpg, nil
}

func (f *fileStream) Close() error {
	f.closed.Store(true)
	return nil
}
