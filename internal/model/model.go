// Package model defines the core data types shared across beautyscan.
package model

// Kind tags the variant of an update Event.
type Kind int

const (
	KindScore Kind = iota
	KindPositive
	KindTip
	KindDone
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindScore:
		return "score"
	case KindPositive:
		return "positive"
	case KindTip:
		return "tip"
	case KindDone:
		return "done"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one discrete update produced while interpreting an analysis
// stream. Only the field matching Kind is meaningful.
type Event struct {
	Kind  Kind
	Score int    // KindScore
	Text  string // KindPositive, KindTip, KindError
}

// Score returns a score update.
func Score(v int) Event { return Event{Kind: KindScore, Score: v} }

// Positive returns a positive-point update.
func Positive(text string) Event { return Event{Kind: KindPositive, Text: text} }

// Tip returns an improvement-tip update.
func Tip(text string) Event { return Event{Kind: KindTip, Text: text} }

// Done returns the completion event.
func Done() Event { return Event{Kind: KindDone} }

// Error returns a failure event carrying a human-readable message.
func Error(msg string) Event { return Event{Kind: KindError, Text: msg} }

// Terminal reports whether e ends an attempt.
func (e Event) Terminal() bool {
	return e.Kind == KindDone || e.Kind == KindError
}

// Data reports whether e carries analysis data (score, positive or tip).
func (e Event) Data() bool {
	return e.Kind == KindScore || e.Kind == KindPositive || e.Kind == KindTip
}

// ViewState is the screen the application is currently showing.
type ViewState int

const (
	ViewIntroduction ViewState = iota
	ViewIdle
	ViewCapturing
	ViewAnalyzing
	ViewResult
	ViewError
)

func (v ViewState) String() string {
	switch v {
	case ViewIntroduction:
		return "introduction"
	case ViewIdle:
		return "idle"
	case ViewCapturing:
		return "capturing"
	case ViewAnalyzing:
		return "analyzing"
	case ViewResult:
		return "result"
	case ViewError:
		return "error"
	default:
		return "unknown"
	}
}

// AnalysisState accumulates the partial results of one attempt.
// Positives and Tips are append-only for the lifetime of the attempt.
type AnalysisState struct {
	Score     *int
	Positives []string
	Tips      []string
}

// Apply folds e into the state. Done and Error leave the data untouched;
// the error message is owned by the caller.
func (s *AnalysisState) Apply(e Event) {
	switch e.Kind {
	case KindScore:
		v := e.Score
		s.Score = &v
	case KindPositive:
		s.Positives = append(s.Positives, e.Text)
	case KindTip:
		s.Tips = append(s.Tips, e.Text)
	}
}

// Empty reports whether no data has been accumulated yet.
func (s AnalysisState) Empty() bool {
	return s.Score == nil && len(s.Positives) == 0 && len(s.Tips) == 0
}

// Result is the structured form of a finished analysis.
type Result struct {
	Score           *int     `json:"score" yaml:"score"`
	PositivePoints  []string `json:"positive_points" yaml:"positive_points"`
	ImprovementTips []string `json:"improvement_tips" yaml:"improvement_tips"`
}

// Result snapshots the state into its structured form. The slices are
// copied so the snapshot does not alias the accumulators.
func (s AnalysisState) Result() Result {
	r := Result{
		PositivePoints:  append([]string{}, s.Positives...),
		ImprovementTips: append([]string{}, s.Tips...),
	}
	if s.Score != nil {
		v := *s.Score
		r.Score = &v
	}
	return r
}
