package stream

import (
	"context"
	"errors"
	"io"

	"github.com/sprite-ai/beautyscan/internal/model"
)

// Fragment is one chunk of response text, or the transport failure that
// ended the response early.
type Fragment struct {
	Text string
	Err  error
}

// Run consumes fragments until the input channel is closed or an error
// fragment arrives, sending events to out in arrival order. Exactly one
// terminal event (Done or Error) is sent unless ctx is cancelled first.
// out is closed when Run returns.
func (in *Interpreter) Run(ctx context.Context, fragments <-chan Fragment, out chan<- model.Event) {
	defer close(out)

	send := func(events ...model.Event) bool {
		for _, e := range events {
			select {
			case out <- e:
			case <-ctx.Done():
				return false
			}
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-fragments:
			if !ok {
				send(in.Close()...)
				return
			}
			if f.Err != nil {
				if e, ok := in.Fail(f.Err); ok {
					send(e)
				}
				return
			}
			if !send(in.Feed(f.Text)...) {
				return
			}
		}
	}
}

// Interpret runs a fresh Interpreter over fragments in a new goroutine and
// returns its event channel.
func Interpret(ctx context.Context, fragments <-chan Fragment, message func(error) string) <-chan model.Event {
	out := make(chan model.Event, 8)
	in := &Interpreter{Message: message}
	go in.Run(ctx, fragments, out)
	return out
}

// ReadFragments turns a reader into a fragment channel, one fragment per
// successful Read. A read error other than io.EOF becomes an error
// fragment. The reader is not closed.
func ReadFragments(ctx context.Context, r io.Reader) <-chan Fragment {
	out := make(chan Fragment)
	go func() {
		defer close(out)
		buf := make([]byte, 4096)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				select {
				case out <- Fragment{Text: string(buf[:n])}:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				select {
				case out <- Fragment{Err: err}:
				case <-ctx.Done():
				}
				return
			}
		}
	}()
	return out
}

// Collect drains events until the channel is closed.
func Collect(events <-chan model.Event) []model.Event {
	var all []model.Event
	for e := range events {
		all = append(all, e)
	}
	return all
}
