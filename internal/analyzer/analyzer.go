// Package analyzer talks to the AI backend that scores a captured image.
//
// Every implementation yields the model's raw text as a stream of
// fragments; turning that text into update events is the job of package
// stream.
package analyzer

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/sprite-ai/beautyscan/internal/stream"
)

// Analyzer submits one image and returns the response text stream. Setup
// failures are returned directly; failures after the stream has started
// arrive as an error fragment. The channel is closed at end of stream.
type Analyzer interface {
	Analyze(ctx context.Context, img Image) (<-chan stream.Fragment, error)
}

// Func adapts a function to the Analyzer interface.
type Func func(ctx context.Context, img Image) (<-chan stream.Fragment, error)

// Analyze implements Analyzer.
func (f Func) Analyze(ctx context.Context, img Image) (<-chan stream.Fragment, error) {
	return f(ctx, img)
}

// Image is a captured JPEG still.
type Image struct {
	Data []byte
}

// MIMEType is the only image type submitted for analysis.
const MIMEType = "image/jpeg"

// Base64 returns the standard base64 encoding of the image.
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURL returns the image as a data: URL.
func (i Image) DataURL() string {
	return "data:" + MIMEType + ";base64," + i.Base64()
}

// DecodeBase64 parses a base64 image payload. A data: URL prefix is
// accepted and stripped.
func DecodeBase64(s string) (Image, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if _, payload, ok := strings.Cut(s, ","); ok {
			s = payload
		}
	}
	if s == "" {
		return Image{}, &Error{Kind: KindValidation, Message: "image data is missing from the request"}
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(s)
	}
	if err != nil {
		return Image{}, &Error{Kind: KindValidation, Message: "image data is not valid base64", Cause: err}
	}
	if len(data) == 0 {
		return Image{}, &Error{Kind: KindValidation, Message: "image data is missing from the request"}
	}
	return Image{Data: data}, nil
}

// Replay streams chunks as fragments, in order, then closes the channel.
func Replay(ctx context.Context, chunks ...string) <-chan stream.Fragment {
	out := make(chan stream.Fragment)
	go func() {
		defer close(out)
		for _, c := range chunks {
			select {
			case out <- stream.Fragment{Text: c}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
