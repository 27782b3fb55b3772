// Package session implements the view state machine that owns the current
// screen and the accumulated results of the active analysis attempt.
package session

import (
	"errors"
	"fmt"

	"github.com/sprite-ai/beautyscan/internal/model"
)

// ErrInvalidTransition is returned when an action is not allowed in the
// current view state.
var ErrInvalidTransition = errors.New("invalid transition")

// Controller is the view state machine. It is not safe for concurrent use;
// all calls are expected to come from a single event loop.
type Controller struct {
	view     model.ViewState
	analysis model.AnalysisState
	image    []byte
	errMsg   string

	attempt  uint64 // id of the active attempt, 0 when none
	nextID   uint64
	terminal bool // active attempt has seen Done or Error
	done     bool // active attempt completed with Done
}

// New returns a controller in the Introduction state, or in Idle when
// skipIntro is set.
func New(skipIntro bool) *Controller {
	c := &Controller{view: model.ViewIntroduction}
	if skipIntro {
		c.view = model.ViewIdle
	}
	return c
}

// View returns the active view state.
func (c *Controller) View() model.ViewState { return c.view }

// Analysis returns the accumulators of the active attempt.
func (c *Controller) Analysis() model.AnalysisState { return c.analysis }

// Image returns the captured JPEG of the active attempt, if any.
func (c *Controller) Image() []byte { return c.image }

// Err returns the message shown in the Error state.
func (c *Controller) Err() string { return c.errMsg }

// Attempt returns the id of the active attempt, or 0.
func (c *Controller) Attempt() uint64 { return c.attempt }

// Complete reports whether the active attempt finished with Done.
func (c *Controller) Complete() bool { return c.done }

func (c *Controller) transition(action string, from ...model.ViewState) error {
	for _, s := range from {
		if c.view == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %s in %s", ErrInvalidTransition, action, c.view)
}

// Start leaves the introduction.
func (c *Controller) Start() error {
	if err := c.transition("start", model.ViewIntroduction); err != nil {
		return err
	}
	c.view = model.ViewIdle
	return nil
}

// BeginCapture opens the capture view.
func (c *Controller) BeginCapture() error {
	if err := c.transition("begin capture", model.ViewIdle); err != nil {
		return err
	}
	c.view = model.ViewCapturing
	return nil
}

// Captured starts a new attempt for image and returns its id. Results of
// any earlier attempt are discarded and its late events will be ignored.
func (c *Controller) Captured(image []byte) (uint64, error) {
	if err := c.transition("capture", model.ViewCapturing); err != nil {
		return 0, err
	}
	c.nextID++
	c.attempt = c.nextID
	c.analysis = model.AnalysisState{}
	c.image = image
	c.errMsg = ""
	c.terminal = false
	c.done = false
	c.view = model.ViewAnalyzing
	return c.attempt, nil
}

// CameraFailed reports that the camera could not be acquired.
func (c *Controller) CameraFailed(msg string) error {
	if err := c.transition("camera failure", model.ViewCapturing); err != nil {
		return err
	}
	c.errMsg = msg
	c.view = model.ViewError
	return nil
}

// Apply folds an event from attempt into the accumulators. It returns false
// when the event was dropped: it belongs to a superseded attempt, or the
// attempt already ended.
func (c *Controller) Apply(attempt uint64, e model.Event) bool {
	if attempt == 0 || attempt != c.attempt || c.terminal {
		return false
	}
	if c.view != model.ViewAnalyzing && c.view != model.ViewResult {
		return false
	}

	c.analysis.Apply(e)
	switch {
	case e.Kind == model.KindError:
		c.terminal = true
		c.errMsg = e.Text
		c.view = model.ViewError
	case e.Kind == model.KindDone:
		c.terminal = true
		c.done = true
		c.view = model.ViewResult
	case e.Data():
		c.view = model.ViewResult
	}
	return true
}

// Reset returns to Idle from Result or Error, discarding the attempt. Any
// events still in flight for it will be dropped by Apply.
func (c *Controller) Reset() error {
	if err := c.transition("reset", model.ViewResult, model.ViewError); err != nil {
		return err
	}
	c.view = model.ViewIdle
	c.analysis = model.AnalysisState{}
	c.image = nil
	c.errMsg = ""
	c.attempt = 0
	c.terminal = false
	c.done = false
	return nil
}

// Cancel leaves the capture view without capturing.
func (c *Controller) Cancel() error {
	if err := c.transition("cancel", model.ViewCapturing); err != nil {
		return err
	}
	c.view = model.ViewIdle
	return nil
}
