// Package tui implements the Bubble Tea terminal user interface.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sprite-ai/beautyscan/internal/analyzer"
	"github.com/sprite-ai/beautyscan/internal/camera"
	"github.com/sprite-ai/beautyscan/internal/model"
	"github.com/sprite-ai/beautyscan/internal/session"
	"github.com/sprite-ai/beautyscan/internal/stream"
)

const (
	// statusInterval is how often the analyzing status line rotates.
	statusInterval = 2 * time.Second

	// captureTimeout bounds opening the camera and grabbing one frame.
	captureTimeout = 30 * time.Second
)

// Options configures a TUI session.
type Options struct {
	Source    camera.Source
	Analyzer  analyzer.Analyzer
	SkipIntro bool
}

// Model is the top-level Bubble Tea model for beautyscan.
type Model struct {
	ctrl     *session.Controller
	source   camera.Source
	analyzer analyzer.Analyzer

	// UI state
	width    int
	height   int
	showHelp bool

	capturing  bool // a capture command is in flight
	statusTick int
	spinner    spinner.Model

	// cancel stops the analysis of the active attempt.
	cancel context.CancelFunc
}

// capturedMsg carries the outcome of a capture command.
type capturedMsg struct {
	image []byte
	err   error
}

// analysisStartedMsg delivers the event channel of a started analysis.
type analysisStartedMsg struct {
	attempt uint64
	events  <-chan model.Event
}

// eventMsg is one event read from the analysis of attempt. ok is false
// once the channel is closed.
type eventMsg struct {
	attempt uint64
	event   model.Event
	ok      bool
	events  <-chan model.Event
}

// statusTickMsg rotates the status line for attempt.
type statusTickMsg struct {
	attempt uint64
}

// New creates a new TUI model.
func New(opts Options) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = titleStyle.Padding(0)
	return Model{
		ctrl:     session.New(opts.SkipIntro),
		source:   opts.Source,
		analyzer: opts.Analyzer,
		spinner:  sp,
	}
}

// Controller exposes the state machine, for callers inspecting the final state.
func (m Model) Controller() *session.Controller { return m.ctrl }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case capturedMsg:
		return m.handleCaptured(msg)

	case analysisStartedMsg:
		if msg.attempt != m.ctrl.Attempt() {
			return m, nil
		}
		return m, waitForEvent(msg.attempt, msg.events)

	case eventMsg:
		return m.handleEvent(msg)

	case statusTickMsg:
		if msg.attempt != m.ctrl.Attempt() || m.ctrl.View() != model.ViewAnalyzing {
			return m, nil
		}
		m.statusTick++
		return m, statusTick(msg.attempt)

	case spinner.TickMsg:
		if !m.capturing && !m.streaming() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.stopAnalysis()
		return m, tea.Quit

	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, keys.Reset):
		if err := m.ctrl.Reset(); err == nil {
			m.stopAnalysis()
			m.statusTick = 0
		}
		return m, nil

	case key.Matches(msg, keys.Cancel):
		if !m.capturing {
			m.ctrl.Cancel()
		}
		return m, nil

	case key.Matches(msg, keys.Capture):
		return m.capture()

	case key.Matches(msg, keys.Enter):
		switch m.ctrl.View() {
		case model.ViewIntroduction:
			m.ctrl.Start()
		case model.ViewIdle:
			m.ctrl.BeginCapture()
		case model.ViewCapturing:
			return m.capture()
		case model.ViewResult, model.ViewError:
			if err := m.ctrl.Reset(); err == nil {
				m.stopAnalysis()
				m.statusTick = 0
			}
		}
		return m, nil
	}
	return m, nil
}

func (m Model) capture() (tea.Model, tea.Cmd) {
	if m.ctrl.View() != model.ViewCapturing || m.capturing {
		return m, nil
	}
	m.capturing = true
	return m, tea.Batch(captureFrame(m.source), m.spinner.Tick)
}

func (m Model) handleCaptured(msg capturedMsg) (tea.Model, tea.Cmd) {
	m.capturing = false
	if msg.err != nil {
		m.ctrl.CameraFailed(camera.Message(msg.err))
		return m, nil
	}

	attempt, err := m.ctrl.Captured(msg.image)
	if err != nil {
		// Capture was cancelled while the frame was in flight.
		return m, nil
	}

	m.stopAnalysis()
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.statusTick = 0

	return m, tea.Batch(
		startAnalysis(ctx, m.analyzer, attempt, msg.image),
		statusTick(attempt),
		m.spinner.Tick,
	)
}

func (m Model) handleEvent(msg eventMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		return m, nil
	}
	if !m.ctrl.Apply(msg.attempt, msg.event) {
		return m, nil
	}
	if msg.event.Terminal() {
		m.stopAnalysis()
		return m, nil
	}
	return m, waitForEvent(msg.attempt, msg.events)
}

// streaming reports whether the active attempt is still receiving events.
func (m Model) streaming() bool {
	if m.ctrl.Attempt() == 0 {
		return false
	}
	switch m.ctrl.View() {
	case model.ViewAnalyzing:
		return true
	case model.ViewResult:
		return !m.ctrl.Complete()
	}
	return false
}

func (m *Model) stopAnalysis() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// captureFrame opens the source, grabs one frame and releases the source.
func captureFrame(src camera.Source) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), captureTimeout)
		defer cancel()

		st, err := src.Open(ctx)
		if err != nil {
			return capturedMsg{err: err}
		}
		defer st.Close()

		img, err := st.Capture(ctx)
		return capturedMsg{image: img, err: err}
	}
}

// startAnalysis submits image and returns the interpreted event channel.
func startAnalysis(ctx context.Context, a analyzer.Analyzer, attempt uint64, image []byte) tea.Cmd {
	return func() tea.Msg {
		if a == nil {
			return analysisStartedMsg{attempt: attempt, events: single(model.Error("the API key is not configured"))}
		}
		fragments, err := a.Analyze(ctx, analyzer.Image{Data: image})
		if err != nil {
			return analysisStartedMsg{attempt: attempt, events: single(model.Error(analyzer.UserMessage(err)))}
		}
		return analysisStartedMsg{attempt: attempt, events: stream.Interpret(ctx, fragments, analyzer.UserMessage)}
	}
}

func single(e model.Event) <-chan model.Event {
	ch := make(chan model.Event, 1)
	ch <- e
	close(ch)
	return ch
}

func waitForEvent(attempt uint64, events <-chan model.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		return eventMsg{attempt: attempt, event: e, ok: ok, events: events}
	}
}

func statusTick(attempt uint64) tea.Cmd {
	return tea.Tick(statusInterval, func(time.Time) tea.Msg {
		return statusTickMsg{attempt: attempt}
	})
}

// Run starts the TUI application and returns the final model.
func Run(opts Options) (Model, error) {
	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return Model{}, err
	}
	m, _ := final.(Model)
	return m, nil
}
