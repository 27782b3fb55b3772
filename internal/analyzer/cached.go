package analyzer

import (
	"context"
	"crypto/sha256"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sprite-ai/beautyscan/internal/stream"
)

// Cached replays the transcript of a completed analysis when the same image
// is submitted again. Only streams that end cleanly with some text are
// stored.
type Cached struct {
	next  Analyzer
	cache *lru.Cache[[sha256.Size]byte, []string]
}

// NewCached wraps next with a transcript cache holding up to size images.
func NewCached(next Analyzer, size int) (*Cached, error) {
	cache, err := lru.New[[sha256.Size]byte, []string](size)
	if err != nil {
		return nil, fmt.Errorf("creating transcript cache: %w", err)
	}
	return &Cached{next: next, cache: cache}, nil
}

// Len returns the number of cached transcripts.
func (c *Cached) Len() int { return c.cache.Len() }

// Analyze implements Analyzer.
func (c *Cached) Analyze(ctx context.Context, img Image) (<-chan stream.Fragment, error) {
	key := sha256.Sum256(img.Data)
	if chunks, ok := c.cache.Get(key); ok {
		return Replay(ctx, chunks...), nil
	}

	in, err := c.next.Analyze(ctx, img)
	if err != nil {
		return nil, err
	}

	out := make(chan stream.Fragment)
	go func() {
		defer close(out)
		var chunks []string
		for f := range in {
			if f.Err == nil {
				chunks = append(chunks, f.Text)
			}
			select {
			case out <- f:
			case <-ctx.Done():
				return
			}
			if f.Err != nil {
				return
			}
		}
		// Empty transcripts are not stored.
		if ctx.Err() == nil && len(chunks) > 0 {
			c.cache.Add(key, chunks)
		}
	}()
	return out, nil
}
