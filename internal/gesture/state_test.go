package gesture

import (
	"math/rand"
	"testing"

	"garment-studio/internal/garment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func box(w, h float64) r2.Box {
	return r2.Box{Max: r2.Vec{X: w, Y: h}}
}

func begin(t *testing.T, kind Interaction, tr garment.Transform, p r2.Vec, b r2.Box) State {
	t.Helper()
	s, intents := Transition(NewState(garment.Front), Begin{
		Element: garment.ImageElementKind,
		Kind:    kind,
		Pointer: p,
		Bounds:  b,
		Current: tr,
	})
	require.Empty(t, intents)
	_, ok := s.Active()
	require.True(t, ok)
	return s
}

func patchOf(t *testing.T, intents []garment.Intent) garment.Patch {
	t.Helper()
	require.Len(t, intents, 1)
	st, ok := intents[0].(garment.SetTransform)
	require.True(t, ok)
	assert.Equal(t, garment.ImageElementKind, st.Element)
	return st.Patch
}

func TestMoveConvertsPixelsToPercent(t *testing.T) {
	tr := garment.Transform{X: 40, Y: 60, Scale: 1}
	s := begin(t, Move, tr, r2.Vec{X: 100, Y: 100}, box(400, 800))

	_, intents := Transition(s, Update{Pointer: r2.Vec{X: 140, Y: 60}, Bounds: box(400, 800)})
	p := patchOf(t, intents)
	require.NotNil(t, p.X)
	assert.InDelta(t, 50, *p.X, 1e-9)
	assert.InDelta(t, 55, *p.Y, 1e-9)
	assert.Nil(t, p.Scale)
	assert.Nil(t, p.Rotation)
}

func TestMoveUsesCurrentContainerSize(t *testing.T) {
	tr := garment.Transform{X: 10, Y: 10, Scale: 1}
	s := begin(t, Move, tr, r2.Vec{}, box(400, 400))

	// container shrank between begin and update
	_, intents := Transition(s, Update{Pointer: r2.Vec{X: 20, Y: 20}, Bounds: box(200, 200)})
	p := patchOf(t, intents)
	assert.InDelta(t, 20, *p.X, 1e-9)
	assert.InDelta(t, 20, *p.Y, 1e-9)
}

func TestMoveClampsFarPointers(t *testing.T) {
	s := begin(t, Move, garment.Transform{X: 50, Y: 50, Scale: 1}, r2.Vec{X: 50, Y: 50}, box(100, 100))

	_, intents := Transition(s, Update{Pointer: r2.Vec{X: 1e6, Y: -1e6}, Bounds: box(100, 100)})
	p := patchOf(t, intents)
	assert.Equal(t, 100.0, *p.X)
	assert.Equal(t, 0.0, *p.Y)
}

func TestRandomGesturesStayInBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	cfg := garment.Reduce(garment.Default(), garment.SetImage{Side: garment.Front, Source: "x"})
	for _, kind := range []Interaction{Move, Scale, Rotate} {
		s := begin(t, kind, cfg.Front.Image.Transform, r2.Vec{X: 150, Y: 150}, box(300, 300))
		for i := 0; i < 500; i++ {
			p := r2.Vec{X: rng.Float64()*1e4 - 5e3, Y: rng.Float64()*1e4 - 5e3}
			_, intents := Transition(s, Update{Pointer: p, Bounds: box(300, 300)})
			for _, in := range intents {
				cfg = garment.Reduce(cfg, in)
			}
			tr := cfg.Front.Image.Transform
			assert.True(t, tr.X >= 0 && tr.X <= 100, "x=%v", tr.X)
			assert.True(t, tr.Y >= 0 && tr.Y <= 100, "y=%v", tr.Y)
			assert.True(t, tr.Scale >= 0.1 && tr.Scale <= 5, "scale=%v", tr.Scale)
			assert.True(t, tr.Rotation > -360 && tr.Rotation < 360, "rotation=%v", tr.Rotation)
		}
	}
}

func TestScaleIsContainerSizeInvariant(t *testing.T) {
	tr := garment.Transform{X: 50, Y: 50, Scale: 1.2}
	scaleFor := func(size float64) float64 {
		s := begin(t, Scale, tr, r2.Vec{X: size * 0.6, Y: size * 0.5}, box(size, size))
		_, intents := Transition(s, Update{Pointer: r2.Vec{X: size * 0.75, Y: size * 0.5}, Bounds: box(size, size)})
		return *patchOf(t, intents).Scale
	}

	small := scaleFor(300)
	large := scaleFor(600)
	assert.InDelta(t, 1.2*2.5, small, 1e-9)
	assert.InDelta(t, small, large, 1e-9)
}

func TestScaleZeroInitialDistance(t *testing.T) {
	tr := garment.Transform{X: 50, Y: 50, Scale: 1}
	s := begin(t, Scale, tr, r2.Vec{X: 50, Y: 50}, box(100, 100))

	d, _ := s.Active()
	assert.Equal(t, 1.0, d.Snapshot.InitialDistance)

	_, intents := Transition(s, Update{Pointer: r2.Vec{X: 52, Y: 50}, Bounds: box(100, 100)})
	assert.InDelta(t, 2, *patchOf(t, intents).Scale, 1e-9)

	_, intents = Transition(s, Update{Pointer: r2.Vec{X: 90, Y: 50}, Bounds: box(100, 100)})
	assert.Equal(t, garment.MaxScale, *patchOf(t, intents).Scale)
}

func TestScalePivotFixedAtBegin(t *testing.T) {
	tr := garment.Transform{X: 50, Y: 50, Scale: 1}
	s := begin(t, Scale, tr, r2.Vec{X: 150, Y: 100}, box(200, 200))

	// container doubles but the pivot stays at (100, 100)
	_, intents := Transition(s, Update{Pointer: r2.Vec{X: 200, Y: 100}, Bounds: box(400, 400)})
	assert.InDelta(t, 2, *patchOf(t, intents).Scale, 1e-9)
}

func TestRotateQuarterTurn(t *testing.T) {
	tr := garment.Transform{X: 50, Y: 50, Scale: 1, Rotation: 30}
	s := begin(t, Rotate, tr, r2.Vec{X: 150, Y: 100}, box(200, 200))

	_, intents := Transition(s, Update{Pointer: r2.Vec{X: 100, Y: 180}, Bounds: box(200, 200)})
	assert.InDelta(t, 120, *patchOf(t, intents).Rotation, 1e-9)
}

func TestRotateWrapsKeepingSign(t *testing.T) {
	tr := garment.Transform{X: 50, Y: 50, Scale: 1, Rotation: 300}
	s := begin(t, Rotate, tr, r2.Vec{X: 150, Y: 100}, box(200, 200))

	_, intents := Transition(s, Update{Pointer: r2.Vec{X: 100, Y: 180}, Bounds: box(200, 200)})
	assert.InDelta(t, 30, *patchOf(t, intents).Rotation, 1e-9)

	tr.Rotation = -300
	s = begin(t, Rotate, tr, r2.Vec{X: 150, Y: 100}, box(200, 200))
	_, intents = Transition(s, Update{Pointer: r2.Vec{X: 100, Y: 20}, Bounds: box(200, 200)})
	assert.InDelta(t, -30, *patchOf(t, intents).Rotation, 1e-9)
}

func TestBeginDroppedWithoutContainer(t *testing.T) {
	s, intents := Transition(NewState(garment.Front), Begin{
		Element: garment.TextElementKind,
		Kind:    Move,
		Bounds:  r2.Box{},
		Current: garment.DefaultTransform(),
	})
	assert.Empty(t, intents)
	_, ok := s.Active()
	assert.False(t, ok)
	assert.Equal(t, garment.NoElement, s.Selected)
}

func TestUpdateWithoutGestureIsNoop(t *testing.T) {
	s := NewState(garment.Back)
	next, intents := Transition(s, Update{Pointer: r2.Vec{X: 5, Y: 5}, Bounds: box(10, 10)})
	assert.Empty(t, intents)
	assert.Equal(t, s, next)
}

func TestEndKeepsSelection(t *testing.T) {
	s := begin(t, Move, garment.DefaultTransform(), r2.Vec{}, box(10, 10))
	s, intents := Transition(s, End{})
	assert.Empty(t, intents)
	assert.Equal(t, garment.ImageElementKind, s.Selected)
	assert.Equal(t, Idle{}, s.Phase)
}

func TestBeginReplacesActiveGesture(t *testing.T) {
	s := begin(t, Move, garment.DefaultTransform(), r2.Vec{}, box(10, 10))
	s, _ = Transition(s, Begin{
		Element: garment.TextElementKind,
		Kind:    Rotate,
		Pointer: r2.Vec{X: 9, Y: 5},
		Bounds:  box(10, 10),
		Current: garment.DefaultTransform(),
	})
	d, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, garment.TextElementKind, d.Element)
	assert.Equal(t, Rotate, d.Kind)
}

func TestDeleteAndDeselect(t *testing.T) {
	s := begin(t, Move, garment.DefaultTransform(), r2.Vec{}, box(10, 10))

	next, intents := Transition(s, Delete{Element: garment.ImageElementKind})
	require.Len(t, intents, 1)
	assert.Equal(t, garment.DeleteElement{Side: garment.Front, Element: garment.ImageElementKind}, intents[0])
	assert.Equal(t, garment.NoElement, next.Selected)

	s, _ = Transition(NewState(garment.Front), Select{Element: garment.TextElementKind})
	s, intents = Transition(s, DeselectAll{})
	assert.Empty(t, intents)
	assert.Equal(t, garment.NoElement, s.Selected)
}

func TestSwitchSideResets(t *testing.T) {
	s := begin(t, Move, garment.DefaultTransform(), r2.Vec{}, box(10, 10))
	s, _ = Transition(s, SwitchSide{Side: garment.Back})
	assert.Equal(t, NewState(garment.Back), s)
}
