// Package stream turns an incrementally delivered analysis response into
// typed update events.
//
// The response grammar is line oriented:
//
//	SCORE: 87
//	POSITIVE: balanced facial symmetry
//	TIP: try softer front lighting
//
// Lines may be split across any number of fragments. Unrecognized lines and
// unparseable scores are ignored.
package stream

import (
	"strconv"
	"strings"

	"github.com/sprite-ai/beautyscan/internal/model"
)

// Line prefixes understood by the interpreter. Matching is case-sensitive.
const (
	PrefixScore    = "SCORE:"
	PrefixPositive = "POSITIVE:"
	PrefixTip      = "TIP:"
)

// Score bounds. Parsed scores are clamped into this range.
const (
	MinScore = 0
	MaxScore = 100
)

// Interpreter is the incremental line parser for one attempt. The zero value
// is ready to use. An Interpreter must not be reused across attempts.
type Interpreter struct {
	// Message converts a transport error into the text of the Error event.
	// Defaults to err.Error().
	Message func(error) string

	buf      strings.Builder
	finished bool
}

// Feed appends a fragment and returns the events for every line completed
// by it, in order. Feeding after Close or Fail returns nil.
func (in *Interpreter) Feed(fragment string) []model.Event {
	if in.finished || fragment == "" {
		return nil
	}
	in.buf.WriteString(fragment)
	if !strings.Contains(fragment, "\n") {
		return nil
	}

	pending := in.buf.String()
	var events []model.Event
	for {
		line, rest, found := strings.Cut(pending, "\n")
		if !found {
			break
		}
		pending = rest
		if e, ok := Classify(line); ok {
			events = append(events, e)
		}
	}

	in.buf.Reset()
	in.buf.WriteString(pending)
	return events
}

// Close signals end of stream. The unterminated remainder, if any, is
// classified, and Done is always the last event returned.
func (in *Interpreter) Close() []model.Event {
	if in.finished {
		return nil
	}
	in.finished = true

	var events []model.Event
	if e, ok := Classify(in.buf.String()); ok {
		events = append(events, e)
	}
	in.buf.Reset()
	return append(events, model.Done())
}

// Fail records a transport failure and returns the single Error event for
// it. Nothing is emitted afterwards, Done included.
func (in *Interpreter) Fail(err error) (model.Event, bool) {
	if in.finished {
		return model.Event{}, false
	}
	in.finished = true
	in.buf.Reset()

	msg := ""
	if in.Message != nil {
		msg = in.Message(err)
	} else if err != nil {
		msg = err.Error()
	}
	return model.Error(msg), true
}

// Finished reports whether a terminal event has been produced.
func (in *Interpreter) Finished() bool {
	return in.finished
}

// Classify maps one line of the grammar to an event. The line is trimmed
// first; blank and unrecognized lines yield ok == false.
func Classify(line string) (model.Event, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return model.Event{}, false
	}

	switch {
	case strings.HasPrefix(line, PrefixScore):
		v, ok := parseScore(line[len(PrefixScore):])
		if !ok {
			return model.Event{}, false
		}
		return model.Score(v), true
	case strings.HasPrefix(line, PrefixPositive):
		return model.Positive(strings.TrimSpace(line[len(PrefixPositive):])), true
	case strings.HasPrefix(line, PrefixTip):
		return model.Tip(strings.TrimSpace(line[len(PrefixTip):])), true
	}
	return model.Event{}, false
}

// parseScore reads the leading base-10 integer of s, so "87/100" and "87."
// both yield 87. The result is clamped to [MinScore, MaxScore].
func parseScore(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}

	v, err := strconv.Atoi(s[:end])
	if err != nil {
		// Only overflow gets here; the sign decides which bound applies.
		if s[0] == '-' {
			return MinScore, true
		}
		return MaxScore, true
	}
	return min(max(v, MinScore), MaxScore), true
}
