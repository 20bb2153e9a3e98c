package garment

import "math"

// Transform bounds. Position is a percentage of the container.
const (
	MinPercent = 0.0
	MaxPercent = 100.0
	MinScale   = 0.1
	MaxScale   = 5.0
)

// Transform places one overlay element inside its container.
// X and Y are percentages of the container width/height, Rotation is in degrees.
// Value type: updates always produce a new Transform.
type Transform struct {
	X        float64
	Y        float64
	Scale    float64
	Rotation float64
}

// Patch is a partial Transform update. Nil fields keep the previous value.
type Patch struct {
	X        *float64
	Y        *float64
	Scale    *float64
	Rotation *float64
}

// Position returns a patch that only changes X and Y.
func Position(x, y float64) Patch {
	return Patch{X: &x, Y: &y}
}

// ScaleTo returns a patch that only changes Scale.
func ScaleTo(s float64) Patch {
	return Patch{Scale: &s}
}

// RotateTo returns a patch that only changes Rotation.
func RotateTo(deg float64) Patch {
	return Patch{Rotation: &deg}
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.X == nil && p.Y == nil && p.Scale == nil && p.Rotation == nil
}

// Apply merges p over t and returns the clamped result. t is not modified.
func (t Transform) Apply(p Patch) Transform {
	out := t
	if p.X != nil {
		out.X = *p.X
	}
	if p.Y != nil {
		out.Y = *p.Y
	}
	if p.Scale != nil {
		out.Scale = *p.Scale
	}
	if p.Rotation != nil {
		out.Rotation = *p.Rotation
	}
	return out.Clamped()
}

// Clamped returns t with every field forced into its valid range.
func (t Transform) Clamped() Transform {
	return Transform{
		X:        ClampPercent(t.X),
		Y:        ClampPercent(t.Y),
		Scale:    ClampScale(t.Scale),
		Rotation: WrapRotation(t.Rotation),
	}
}

// ClampPercent forces v into [0, 100]. NaN maps to 0.
func ClampPercent(v float64) float64 {
	return clamp(v, MinPercent, MaxPercent)
}

// ClampScale forces v into [0.1, 5]. NaN maps to the minimum.
func ClampScale(v float64) float64 {
	return clamp(v, MinScale, MaxScale)
}

// WrapRotation reduces deg modulo 360. The sign of deg is kept, so the result
// lies in (-360, 360).
func WrapRotation(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	return math.Mod(deg, 360)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
