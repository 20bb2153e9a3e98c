package gesture

import (
	"log/slog"

	"garment-studio/internal/garment"

	"gonum.org/v1/gonum/spatial/r2"
)

// Target is where the controller reads the current configuration and sends
// its intents. *store.Store satisfies it.
type Target interface {
	Snapshot() garment.Config
	Dispatch(intents ...garment.Intent) bool
}

// Controller drives Transition against a Target. It is meant to be used from
// the single goroutine that receives input events.
type Controller struct {
	target Target
	state  State
	log    *slog.Logger
}

// NewController creates an idle controller editing side.
func NewController(target Target, side garment.Side, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{target: target, state: NewState(side), log: logger}
}

// State returns the current selection and phase.
func (c *Controller) State() State {
	return c.state
}

// Side returns the side being edited.
func (c *Controller) Side() garment.Side {
	return c.state.Side
}

// Selected returns the active element.
func (c *Controller) Selected() garment.ElementKind {
	return c.state.Selected
}

// Dragging reports whether a gesture is in progress.
func (c *Controller) Dragging() bool {
	_, ok := c.state.Active()
	return ok
}

// Begin starts a gesture on element. It replaces any gesture already in
// progress. Requests for absent elements or with an empty container are
// dropped; the return value reports whether the gesture started.
func (c *Controller) Begin(element garment.ElementKind, kind Interaction, pointer r2.Vec, bounds r2.Box) bool {
	side := c.target.Snapshot().Side(c.state.Side)
	if !side.Has(element) {
		return false
	}
	current, _ := side.TransformOf(element)
	c.handle(Begin{Element: element, Kind: kind, Pointer: pointer, Bounds: bounds, Current: current})
	if _, ok := c.state.Active(); !ok {
		c.log.Debug("gesture: begin dropped", "element", element, "kind", kind)
		return false
	}
	return true
}

// Update feeds a pointer move. No-op without an active gesture.
func (c *Controller) Update(pointer r2.Vec, bounds r2.Box) {
	c.handle(Update{Pointer: pointer, Bounds: bounds})
}

// End finishes the active gesture, if any.
func (c *Controller) End() {
	c.handle(End{})
}

// Delete clears element on the current side. Not undoable.
func (c *Controller) Delete(element garment.ElementKind) {
	c.handle(Delete{Element: element})
}

// Select activates element without starting a gesture.
func (c *Controller) Select(element garment.ElementKind) {
	c.handle(Select{Element: element})
}

// DeselectAll clears the active element.
func (c *Controller) DeselectAll() {
	c.handle(DeselectAll{})
}

// SetSide switches the edited side.
func (c *Controller) SetSide(side garment.Side) {
	c.handle(SwitchSide{Side: side})
}

func (c *Controller) handle(ev Event) {
	next, intents := Transition(c.state, ev)
	c.state = next
	if len(intents) > 0 {
		c.target.Dispatch(intents...)
	}
}
