package analyzer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprite-ai/beautyscan/internal/stream"
)

func drain(t *testing.T, ch <-chan stream.Fragment) (texts []string, err error) {
	t.Helper()
	for f := range ch {
		if f.Err != nil {
			err = f.Err
			continue
		}
		texts = append(texts, f.Text)
	}
	return texts, err
}

func TestCachedReplaysCompletedTranscript(t *testing.T) {
	var calls atomic.Int32
	next := Func(func(ctx context.Context, img Image) (<-chan stream.Fragment, error) {
		calls.Add(1)
		return Replay(ctx, "SCORE: 7", "0\n"), nil
	})

	c, err := NewCached(next, 4)
	require.NoError(t, err)

	img := Image{Data: []byte("same image")}
	for i := 0; i < 3; i++ {
		ch, err := c.Analyze(context.Background(), img)
		require.NoError(t, err)
		texts, ferr := drain(t, ch)
		require.NoError(t, ferr)
		assert.Equal(t, []string{"SCORE: 7", "0\n"}, texts)
	}
	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, 1, c.Len())

	ch, err := c.Analyze(context.Background(), Image{Data: []byte("other image")})
	require.NoError(t, err)
	drain(t, ch)
	assert.EqualValues(t, 2, calls.Load())
}

func TestCachedSkipsFailedStreams(t *testing.T) {
	var calls atomic.Int32
	next := Func(func(ctx context.Context, img Image) (<-chan stream.Fragment, error) {
		calls.Add(1)
		out := make(chan stream.Fragment, 2)
		out <- stream.Fragment{Text: "SCORE: 1\n"}
		out <- stream.Fragment{Err: errors.New("reset")}
		close(out)
		return out, nil
	})

	c, err := NewCached(next, 4)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		ch, err := c.Analyze(context.Background(), Image{Data: []byte("img")})
		require.NoError(t, err)
		_, ferr := drain(t, ch)
		assert.Error(t, ferr)
	}
	assert.EqualValues(t, 2, calls.Load())
	assert.Zero(t, c.Len())
}

func TestCachedSkipsEmptyTranscripts(t *testing.T) {
	var calls atomic.Int32
	next := Func(func(ctx context.Context, img Image) (<-chan stream.Fragment, error) {
		calls.Add(1)
		return Replay(ctx), nil
	})

	c, err := NewCached(next, 4)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		ch, err := c.Analyze(context.Background(), Image{Data: []byte("blocked")})
		require.NoError(t, err)
		texts, ferr := drain(t, ch)
		require.NoError(t, ferr)
		assert.Empty(t, texts)
	}
	assert.EqualValues(t, 2, calls.Load())
	assert.Zero(t, c.Len())
}

func TestCachedPassesSetupError(t *testing.T) {
	want := &Error{Kind: KindConfig, Message: "no key"}
	c, err := NewCached(Func(func(context.Context, Image) (<-chan stream.Fragment, error) {
		return nil, want
	}), 1)
	require.NoError(t, err)

	_, err = c.Analyze(context.Background(), Image{Data: []byte("img")})
	assert.ErrorIs(t, err, want)
}

func TestNewCachedRejectsBadSize(t *testing.T) {
	_, err := NewCached(nil, 0)
	assert.Error(t, err)
}
