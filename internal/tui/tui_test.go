package tui

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/sprite-ai/beautyscan/internal/analyzer"
	"github.com/sprite-ai/beautyscan/internal/camera"
	"github.com/sprite-ai/beautyscan/internal/model"
	"github.com/sprite-ai/beautyscan/internal/stream"
)

var testJPEG = []byte{0xff, 0xd8, 0xff, 0xd9}

type fakeSource struct {
	openErr    error
	captureErr error
	opened     atomic.Int32
	closed     atomic.Int32
}

func (s *fakeSource) Open(ctx context.Context) (camera.Stream, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	s.opened.Add(1)
	return &fakeStream{src: s}, nil
}

type fakeStream struct{ src *fakeSource }

func (f *fakeStream) Capture(ctx context.Context) ([]byte, error) {
	if f.src.captureErr != nil {
		return nil, f.src.captureErr
	}
	return testJPEG, nil
}

func (f *fakeStream) Close() error {
	f.src.closed.Add(1)
	return nil
}

func replayAnalyzer(chunks ...string) analyzer.Analyzer {
	return analyzer.Func(func(ctx context.Context, img analyzer.Image) (<-chan stream.Fragment, error) {
		return analyzer.Replay(ctx, chunks...), nil
	})
}

func setupModel(t *testing.T, opts Options) Model {
	t.Helper()
	if opts.Source == nil {
		opts.Source = &fakeSource{}
	}
	m := New(opts)
	newM, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return newM.(Model)
}

func press(m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	newM, cmd := m.Update(k)
	return newM.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enterKey = tea.KeyMsg{Type: tea.KeyEnter}
	spaceKey = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	escKey   = tea.KeyMsg{Type: tea.KeyEsc}
)

// captureInto walks m into Analyzing for a captured frame.
func captureInto(t *testing.T, m Model) Model {
	t.Helper()
	if m.ctrl.View() == model.ViewIdle {
		m, _ = press(m, enterKey)
	}
	if m.ctrl.View() != model.ViewCapturing {
		t.Fatalf("expected capturing, got %s", m.ctrl.View())
	}
	m, _ = press(m, spaceKey)
	if !m.capturing {
		t.Fatal("expected capture in flight")
	}
	newM, _ := m.Update(captureFrame(m.source)())
	return newM.(Model)
}

// drain feeds every event of the analysis back into the model until no
// further command is returned.
func drain(t *testing.T, m Model, attempt uint64, events <-chan model.Event) Model {
	t.Helper()
	newM, cmd := m.Update(analysisStartedMsg{attempt: attempt, events: events})
	m = newM.(Model)
	for cmd != nil {
		newM, cmd = m.Update(cmd())
		m = newM.(Model)
	}
	return m
}

func TestIntroductionFlow(t *testing.T) {
	m := setupModel(t, Options{})
	if m.ctrl.View() != model.ViewIntroduction {
		t.Fatalf("expected introduction, got %s", m.ctrl.View())
	}
	if !strings.Contains(m.View(), "Press enter to start") {
		t.Error("expected intro prompt")
	}

	m, _ = press(m, enterKey)
	if m.ctrl.View() != model.ViewIdle {
		t.Errorf("expected idle after enter, got %s", m.ctrl.View())
	}

	m, _ = press(m, enterKey)
	if m.ctrl.View() != model.ViewCapturing {
		t.Errorf("expected capturing after enter, got %s", m.ctrl.View())
	}

	m, _ = press(m, escKey)
	if m.ctrl.View() != model.ViewIdle {
		t.Errorf("expected idle after esc, got %s", m.ctrl.View())
	}
}

func TestSkipIntro(t *testing.T) {
	m := setupModel(t, Options{SkipIntro: true})
	if m.ctrl.View() != model.ViewIdle {
		t.Errorf("expected idle, got %s", m.ctrl.View())
	}
}

func TestCaptureIgnoredOutsideCapturing(t *testing.T) {
	m := setupModel(t, Options{SkipIntro: true})

	m, cmd := press(m, spaceKey)
	if cmd != nil || m.capturing {
		t.Error("space should not capture from idle")
	}
}

func TestCaptureReleasesStream(t *testing.T) {
	src := &fakeSource{}
	m := setupModel(t, Options{Source: src, SkipIntro: true})

	m = captureInto(t, m)

	if m.ctrl.View() != model.ViewAnalyzing {
		t.Fatalf("expected analyzing, got %s", m.ctrl.View())
	}
	if m.ctrl.Attempt() != 1 {
		t.Errorf("expected attempt 1, got %d", m.ctrl.Attempt())
	}
	if string(m.ctrl.Image()) != string(testJPEG) {
		t.Error("expected captured image to be kept")
	}
	if src.opened.Load() != 1 || src.closed.Load() != 1 {
		t.Errorf("expected one open and one close, got %d/%d", src.opened.Load(), src.closed.Load())
	}
	if m.cancel == nil {
		t.Error("expected analysis context to be active")
	}
}

func TestCaptureErrorStillReleasesStream(t *testing.T) {
	src := &fakeSource{captureErr: errors.New("device busy")}
	m := setupModel(t, Options{Source: src, SkipIntro: true})

	m = captureInto(t, m)

	if m.ctrl.View() != model.ViewError {
		t.Fatalf("expected error view, got %s", m.ctrl.View())
	}
	if src.closed.Load() != 1 {
		t.Errorf("expected stream to be closed, got %d", src.closed.Load())
	}
	if !strings.Contains(m.View(), "Could not capture") {
		t.Error("expected generic capture message")
	}
}

func TestCameraPermissionDenied(t *testing.T) {
	src := &fakeSource{openErr: &camera.CameraError{Reason: camera.ReasonPermission, Message: "Camera access was denied."}}
	m := setupModel(t, Options{Source: src, SkipIntro: true})

	m = captureInto(t, m)

	if m.ctrl.Err() != "Camera access was denied." {
		t.Errorf("expected verbatim camera message, got %q", m.ctrl.Err())
	}

	m, _ = press(m, runes("r"))
	if m.ctrl.View() != model.ViewIdle {
		t.Errorf("expected idle after reset, got %s", m.ctrl.View())
	}
}

func TestAnalysisStreamsIntoResult(t *testing.T) {
	a := replayAnalyzer("POSITIVE: great smile\nSCO", "RE: 87\nTIP: try natural light\n")
	m := setupModel(t, Options{Analyzer: a, SkipIntro: true})
	m = captureInto(t, m)

	msg := startAnalysis(context.Background(), a, m.ctrl.Attempt(), m.ctrl.Image())()
	started, ok := msg.(analysisStartedMsg)
	if !ok {
		t.Fatalf("expected analysisStartedMsg, got %T", msg)
	}
	m = drain(t, m, started.attempt, started.events)

	if m.ctrl.View() != model.ViewResult {
		t.Fatalf("expected result, got %s", m.ctrl.View())
	}
	if !m.ctrl.Complete() {
		t.Error("expected attempt to be complete")
	}
	if m.cancel != nil {
		t.Error("expected analysis context to be released after done")
	}

	a2 := m.ctrl.Analysis()
	if a2.Score == nil || *a2.Score != 87 {
		t.Errorf("expected score 87, got %v", a2.Score)
	}
	if len(a2.Positives) != 1 || len(a2.Tips) != 1 {
		t.Errorf("unexpected accumulators %+v", a2)
	}

	view := m.View()
	for _, want := range []string{"87/100", "great smile", "try natural light", "Press r"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestAnalysisErrorMidStream(t *testing.T) {
	m := setupModel(t, Options{SkipIntro: true})
	m = captureInto(t, m)

	ch := make(chan model.Event, 3)
	ch <- model.Positive("nice")
	ch <- model.Error("connection lost")
	ch <- model.Tip("never applied")
	close(ch)
	m = drain(t, m, m.ctrl.Attempt(), ch)

	if m.ctrl.View() != model.ViewError {
		t.Fatalf("expected error view, got %s", m.ctrl.View())
	}
	if len(m.ctrl.Analysis().Tips) != 0 {
		t.Error("no event may be applied after the error")
	}
	if !strings.Contains(m.View(), "connection lost") {
		t.Error("expected error message in view")
	}
}

func TestAnalyzerSetupFailure(t *testing.T) {
	a := analyzer.Func(func(context.Context, analyzer.Image) (<-chan stream.Fragment, error) {
		return nil, &analyzer.Error{Kind: analyzer.KindAuth, Message: "the API key is not valid"}
	})
	m := setupModel(t, Options{Analyzer: a, SkipIntro: true})
	m = captureInto(t, m)

	started := startAnalysis(context.Background(), a, m.ctrl.Attempt(), m.ctrl.Image())().(analysisStartedMsg)
	m = drain(t, m, started.attempt, started.events)

	if m.ctrl.Err() != "the API key is not valid" {
		t.Errorf("unexpected error %q", m.ctrl.Err())
	}
}

func TestStaleAttemptIgnored(t *testing.T) {
	m := setupModel(t, Options{SkipIntro: true})
	m = captureInto(t, m)

	first := m.ctrl.Attempt()
	m = drain(t, m, first, single(model.Error("boom")))
	m, _ = press(m, runes("r"))
	m = captureInto(t, m)

	if m.ctrl.Attempt() == first {
		t.Fatal("expected a new attempt")
	}

	newM, cmd := m.Update(eventMsg{attempt: first, event: model.Score(10), ok: true, events: single(model.Done())})
	m = newM.(Model)
	if cmd != nil {
		t.Error("expected no follow-up read for a stale attempt")
	}
	if m.ctrl.Analysis().Score != nil {
		t.Error("stale event must not be applied")
	}

	newM, cmd = m.Update(analysisStartedMsg{attempt: first, events: single(model.Done())})
	if cmd != nil {
		t.Error("expected stale analysis to be ignored")
	}
	if newM.(Model).ctrl.View() != model.ViewAnalyzing {
		t.Error("stale analysis must not change the view")
	}
}

func TestStatusTickRotatesWhileAnalyzing(t *testing.T) {
	m := setupModel(t, Options{SkipIntro: true})
	m = captureInto(t, m)
	attempt := m.ctrl.Attempt()

	newM, cmd := m.Update(statusTickMsg{attempt: attempt})
	m = newM.(Model)
	if m.statusTick != 1 {
		t.Errorf("expected statusTick 1, got %d", m.statusTick)
	}
	if cmd == nil {
		t.Error("expected the tick to be re-armed")
	}

	newM, cmd = m.Update(statusTickMsg{attempt: attempt + 1})
	if cmd != nil || newM.(Model).statusTick != 1 {
		t.Error("expected tick for another attempt to be dropped")
	}

	m = drain(t, m, attempt, single(model.Error("x")))
	newM, cmd = m.Update(statusTickMsg{attempt: attempt})
	if cmd != nil {
		t.Error("expected the tick to stop after the attempt ended")
	}
}

func TestStatusTickStopsOnceResultsShow(t *testing.T) {
	m := setupModel(t, Options{SkipIntro: true})
	m = captureInto(t, m)
	attempt := m.ctrl.Attempt()

	newM, _ := m.Update(eventMsg{attempt: attempt, event: model.Positive("nice"), ok: true, events: make(chan model.Event)})
	m = newM.(Model)
	if m.ctrl.View() != model.ViewResult || m.ctrl.Complete() {
		t.Fatalf("expected an incomplete result, got %s", m.ctrl.View())
	}

	newM, cmd := m.Update(statusTickMsg{attempt: attempt})
	if cmd != nil {
		t.Error("expected the status tick not to re-arm outside analyzing")
	}
	if newM.(Model).statusTick != 0 {
		t.Errorf("expected statusTick 0, got %d", newM.(Model).statusTick)
	}
}

func TestQuitCancelsAnalysis(t *testing.T) {
	m := setupModel(t, Options{SkipIntro: true})
	m = captureInto(t, m)

	m, cmd := press(m, runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if m.cancel != nil {
		t.Error("expected analysis to be cancelled on quit")
	}
}

func TestHelpToggle(t *testing.T) {
	m := setupModel(t, Options{})

	m, _ = press(m, runes("?"))
	if !m.showHelp {
		t.Error("expected help to be shown")
	}
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("expected help view to contain shortcuts")
	}

	m, _ = press(m, runes("?"))
	if m.showHelp {
		t.Error("expected help to be hidden")
	}
}

func TestScoreColor(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{100, string(colorGreen)},
		{76, string(colorGreen)},
		{75, string(colorYellow)},
		{51, string(colorYellow)},
		{50, string(colorRed)},
		{0, string(colorRed)},
	}
	for _, c := range cases {
		if got := string(scoreColor(c.score)); got != c.want {
			t.Errorf("scoreColor(%d) = %s, want %s", c.score, got, c.want)
		}
	}
}

func TestTruncateWideText(t *testing.T) {
	s := "日本語のテキストです"
	got := truncate(s, 9)
	if w := runewidth.StringWidth(got); w > 9 {
		t.Errorf("expected width <= 9, got %d (%q)", w, got)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("expected ellipsis, got %q", got)
	}
	if truncate("short", 20) != "short" {
		t.Error("short text should be unchanged")
	}
}
