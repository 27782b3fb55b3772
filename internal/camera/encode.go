package camera

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// DefaultMaxEdge bounds the longest side of submitted images, in pixels.
const DefaultMaxEdge = 1024

// JPEGQuality is the quality used when re-encoding frames.
const JPEGQuality = 90

// EncodeJPEG decodes raw (jpeg, png, gif, bmp or webp), scales it down so
// its longest edge is at most maxEdge, and encodes it as JPEG. A maxEdge of
// zero or less disables scaling.
func EncodeJPEG(raw []byte, maxEdge int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img := src
	b := src.Bounds()
	if w, h := b.Dx(), b.Dy(); maxEdge > 0 && (w > maxEdge || h > maxEdge) {
		nw, nh := maxEdge, maxEdge
		if w >= h {
			nh = max(1, h*maxEdge/w)
		} else {
			nw = max(1, w*maxEdge/h)
		}
		dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
