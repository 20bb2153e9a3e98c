// Package gesture turns pointer input on an editing container into
// transform intents for one active element at a time.
//
// The state machine is a pure function, Transition, so it can be driven
// and tested without any UI. Controller binds it to a store.
package gesture

import (
	"math"

	"garment-studio/internal/garment"
	"garment-studio/internal/mathutil"

	"gonum.org/v1/gonum/spatial/r2"
)

// Interaction is the kind of manipulation a gesture performs.
type Interaction int

const (
	None Interaction = iota
	Move
	Scale
	Rotate
)

func (k Interaction) String() string {
	switch k {
	case Move:
		return "move"
	case Scale:
		return "scale"
	case Rotate:
		return "rotate"
	}
	return "none"
}

// minPivotDistance floors the initial pointer distance of a scale gesture.
const minPivotDistance = 1.0

// Phase is either Idle or Dragging.
type Phase interface {
	isPhase()
}

// Idle means no gesture is in progress.
type Idle struct{}

// Dragging is an active pointer-down-to-pointer-up gesture.
type Dragging struct {
	Element  garment.ElementKind
	Kind     Interaction
	Snapshot Snapshot
}

func (Idle) isPhase()     {}
func (Dragging) isPhase() {}

// Snapshot is captured when a gesture begins and stays fixed for its
// whole duration.
type Snapshot struct {
	Start           r2.Vec
	Initial         garment.Transform
	Center          r2.Vec  // element center in pixels at gesture start
	InitialDistance float64 // scale: pointer distance from Center, >= 1
	InitialAngle    float64 // rotate: radians, atan2 from Center
}

// State is the editor selection plus the current gesture phase.
type State struct {
	Side     garment.Side
	Selected garment.ElementKind
	Phase    Phase
}

// NewState returns an idle state editing side with nothing selected.
func NewState(side garment.Side) State {
	return State{Side: side, Phase: Idle{}}
}

// Active reports the gesture in progress, if any.
func (s State) Active() (Dragging, bool) {
	d, ok := s.Phase.(Dragging)
	return d, ok
}

// Event is an input to Transition.
type Event interface {
	isEvent()
}

// Begin starts a gesture. Current is the element's transform at this moment
// and Bounds the container's bounding box in the same pixel space as Pointer.
type Begin struct {
	Element garment.ElementKind
	Kind    Interaction
	Pointer r2.Vec
	Bounds  r2.Box
	Current garment.Transform
}

// Update moves the pointer of the active gesture. Bounds is the container
// box at the time of the event.
type Update struct {
	Pointer r2.Vec
	Bounds  r2.Box
}

// End releases the pointer.
type End struct{}

// Delete clears an element and drops the selection.
type Delete struct {
	Element garment.ElementKind
}

// Select makes an element active without starting a gesture.
type Select struct {
	Element garment.ElementKind
}

// DeselectAll clears the selection, e.g. after a click on empty canvas.
type DeselectAll struct{}

// SwitchSide changes the edited side and clears selection and gesture.
type SwitchSide struct {
	Side garment.Side
}

func (Begin) isEvent()       {}
func (Update) isEvent()      {}
func (End) isEvent()         {}
func (Delete) isEvent()      {}
func (Select) isEvent()      {}
func (DeselectAll) isEvent() {}
func (SwitchSide) isEvent()  {}

// Transition applies ev to s and returns the next state together with the
// intents to dispatch. It never mutates its inputs.
func Transition(s State, ev Event) (State, []garment.Intent) {
	if s.Phase == nil {
		s.Phase = Idle{}
	}

	switch ev := ev.(type) {
	case Begin:
		w, h := boxSize(ev.Bounds)
		if w <= 0 || h <= 0 || ev.Element == garment.NoElement || ev.Kind == None {
			return s, nil
		}
		center := r2.Vec{
			X: ev.Bounds.Min.X + ev.Current.X/100*w,
			Y: ev.Bounds.Min.Y + ev.Current.Y/100*h,
		}
		rel := r2.Sub(ev.Pointer, center)
		snap := Snapshot{
			Start:   ev.Pointer,
			Initial: ev.Current,
			Center:  center,
		}
		switch ev.Kind {
		case Scale:
			snap.InitialDistance = math.Max(r2.Norm(rel), minPivotDistance)
		case Rotate:
			snap.InitialAngle = math.Atan2(rel.Y, rel.X)
		}
		s.Selected = ev.Element
		s.Phase = Dragging{Element: ev.Element, Kind: ev.Kind, Snapshot: snap}
		return s, nil

	case Update:
		d, ok := s.Active()
		if !ok {
			return s, nil
		}
		patch, ok := drag(d, ev)
		if !ok {
			return s, nil
		}
		return s, []garment.Intent{garment.SetTransform{Side: s.Side, Element: d.Element, Patch: patch}}

	case End:
		s.Phase = Idle{}
		return s, nil

	case Delete:
		if ev.Element == garment.NoElement {
			return s, nil
		}
		s.Selected = garment.NoElement
		s.Phase = Idle{}
		return s, []garment.Intent{garment.DeleteElement{Side: s.Side, Element: ev.Element}}

	case Select:
		s.Selected = ev.Element
		return s, nil

	case DeselectAll:
		s.Selected = garment.NoElement
		s.Phase = Idle{}
		return s, nil

	case SwitchSide:
		return NewState(ev.Side), nil
	}
	return s, nil
}

// drag computes the transform patch for one pointer update.
func drag(d Dragging, ev Update) (garment.Patch, bool) {
	snap := d.Snapshot
	switch d.Kind {
	case Move:
		// Percentages are relative to the container as it is now.
		w, h := boxSize(ev.Bounds)
		if w <= 0 || h <= 0 {
			return garment.Patch{}, false
		}
		delta := r2.Sub(ev.Pointer, snap.Start)
		x := garment.ClampPercent(snap.Initial.X + 100*delta.X/w)
		y := garment.ClampPercent(snap.Initial.Y + 100*delta.Y/h)
		return garment.Position(x, y), true

	case Scale:
		// The pivot stays where it was when the gesture began.
		dist := r2.Norm(r2.Sub(ev.Pointer, snap.Center))
		return garment.ScaleTo(garment.ClampScale(snap.Initial.Scale * dist / snap.InitialDistance)), true

	case Rotate:
		rel := r2.Sub(ev.Pointer, snap.Center)
		angle := math.Atan2(rel.Y, rel.X)
		deg := snap.Initial.Rotation + mathutil.Rad2Deg(angle-snap.InitialAngle)
		return garment.RotateTo(garment.WrapRotation(deg)), true
	}
	return garment.Patch{}, false
}

func boxSize(b r2.Box) (float64, float64) {
	return b.Max.X - b.Min.X, b.Max.Y - b.Min.Y
}
