// Package layout converts element transforms into pixel placements inside a
// region. The interactive preview and the texture compositor both place
// layers through this package, so the live view and the exported texture
// share one set of size conventions.
package layout

import (
	"image"
	"math"

	"garment-studio/internal/garment"
	"garment-studio/internal/mathutil"

	"gonum.org/v1/gonum/spatial/r2"
)

// ImageBaseFraction is the image width at scale 1, as a fraction of the
// region width. Height follows the image's aspect ratio. The preview and
// the compositor both size images through ImagePlacement, so this is the
// only definition of the base image size; changing it moves both together.
const ImageBaseFraction = 0.5

// TextUnitDivisor converts a font size unit into pixels: one unit is
// regionWidth/TextUnitDivisor pixels at scale 1.
const TextUnitDivisor = 100.0

// Placement is a placed layer: its center, drawn size and rotation in
// absolute pixel coordinates of the destination image.
type Placement struct {
	Center   r2.Vec
	W, H     float64
	Rotation float64 // degrees, clockwise on screen
}

// CenterPx converts the percentage position of t into pixels inside r.
func CenterPx(r image.Rectangle, t garment.Transform) r2.Vec {
	return r2.Vec{
		X: float64(r.Min.X) + t.X/100*float64(r.Dx()),
		Y: float64(r.Min.Y) + t.Y/100*float64(r.Dy()),
	}
}

// ImagePlacement places an image of natural size natW×natH in region r.
// It returns false when the image has no area.
func ImagePlacement(r image.Rectangle, t garment.Transform, natW, natH int) (Placement, bool) {
	if natW <= 0 || natH <= 0 || r.Empty() {
		return Placement{}, false
	}
	w := ImageBaseFraction * float64(r.Dx()) * t.Scale
	h := w * float64(natH) / float64(natW)
	return Placement{
		Center:   CenterPx(r, t),
		W:        w,
		H:        h,
		Rotation: t.Rotation,
	}, true
}

// FontSize returns the pixel font size for a text element in a region of
// the given width.
func FontSize(unit float64, regionWidth int, scale float64) float64 {
	return unit * (float64(regionWidth) / TextUnitDivisor) * scale
}

// TextPlacement places a text box of the measured size w×h (in pixels, at
// the size returned by FontSize) in region r.
func TextPlacement(r image.Rectangle, t garment.Transform, w, h float64) Placement {
	return Placement{
		Center:   CenterPx(r, t),
		W:        w,
		H:        h,
		Rotation: t.Rotation,
	}
}

// Matrix maps a source rectangle of size sw×sh (origin at its top-left) onto
// the placement: centered, stretched to W×H and rotated about the center.
func (p Placement) Matrix(sw, sh float64) mathutil.Mat3 {
	return mathutil.Chain(
		mathutil.Translate(-sw/2, -sh/2),
		mathutil.Scale(p.W/sw, p.H/sh),
		mathutil.Rot(mathutil.Deg2Rad(p.Rotation)),
		mathutil.Translate(p.Center.X, p.Center.Y),
	)
}

// Corners returns the rotated box corners: top-left, top-right,
// bottom-right, bottom-left.
func (p Placement) Corners() [4]r2.Vec {
	m := mathutil.Chain(
		mathutil.Rot(mathutil.Deg2Rad(p.Rotation)),
		mathutil.Translate(p.Center.X, p.Center.Y),
	)
	hw, hh := p.W/2, p.H/2
	local := [4]r2.Vec{{X: -hw, Y: -hh}, {X: hw, Y: -hh}, {X: hw, Y: hh}, {X: -hw, Y: hh}}
	var out [4]r2.Vec
	for i, v := range local {
		x, y := m.Apply(v.X, v.Y)
		out[i] = r2.Vec{X: x, Y: y}
	}
	return out
}

// Contains reports whether pt lies inside the rotated box.
func (p Placement) Contains(pt r2.Vec) bool {
	if p.W <= 0 || p.H <= 0 {
		return false
	}
	m := mathutil.Chain(
		mathutil.Rot(mathutil.Deg2Rad(p.Rotation)),
		mathutil.Translate(p.Center.X, p.Center.Y),
	).Inverse()
	x, y := m.Apply(pt.X, pt.Y)
	return x >= -p.W/2 && x <= p.W/2 && y >= -p.H/2 && y <= p.H/2
}

// Bounds returns the axis-aligned pixel bounds of the rotated box.
func (p Placement) Bounds() image.Rectangle {
	c := p.Corners()
	minX, minY := c[0].X, c[0].Y
	maxX, maxY := minX, minY
	for _, v := range c[1:] {
		minX = min(minX, v.X)
		minY = min(minY, v.Y)
		maxX = max(maxX, v.X)
		maxY = max(maxY, v.Y)
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}
