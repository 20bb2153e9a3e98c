// Package preview renders the live, editable view of one garment side with
// selection handles, and maps pointer positions back to handles.
//
// Layers are drawn with raster.DrawSide over the whole container, the same
// call the compositor makes per texture region, so what the editor shows is
// what the export contains.
package preview

import (
	"image"
	"image/color"
	"log/slog"

	"garment-studio/internal/garment"
	"garment-studio/internal/gesture"
	"garment-studio/internal/layout"
	"garment-studio/internal/raster"
	"garment-studio/internal/texture"

	"gonum.org/v1/gonum/spatial/r2"
)

// HandleRadius is the pointer tolerance and drawn radius of a handle.
const HandleRadius = 7.0

// Handle is a selection affordance at a corner of the selected element.
type Handle int

const (
	NoHandle Handle = iota
	BodyHandle
	DeleteHandle // top-left
	RotateHandle // top-right
	ScaleHandle  // bottom-right
	MoveHandle   // bottom-left
)

var handleColors = map[Handle]color.NRGBA{
	DeleteHandle: {R: 0xdc, G: 0x26, B: 0x26, A: 0xff},
	RotateHandle: {R: 0x25, G: 0x63, B: 0xeb, A: 0xff},
	ScaleHandle:  {R: 0x16, G: 0xa3, B: 0x4a, A: 0xff},
	MoveHandle:   {R: 0x44, G: 0x44, B: 0x44, A: 0xff},
}

var outlineColor = color.NRGBA{R: 0x25, G: 0x63, B: 0xeb, A: 0xff}

// cornerHandles lists handles in layout.Placement.Corners order.
var cornerHandles = [4]Handle{DeleteHandle, RotateHandle, ScaleHandle, MoveHandle}

// Interaction returns the gesture a handle starts. DeleteHandle and
// NoHandle start none.
func (h Handle) Interaction() gesture.Interaction {
	switch h {
	case BodyHandle, MoveHandle:
		return gesture.Move
	case RotateHandle:
		return gesture.Rotate
	case ScaleHandle:
		return gesture.Scale
	}
	return gesture.None
}

// Hit is the result of a hit test.
type Hit struct {
	Element garment.ElementKind
	Handle  Handle
}

// Frame describes one rendered preview: container size, selection and where
// each layer was placed. Coordinates are relative to the container's
// top-left corner.
type Frame struct {
	Bounds   image.Rectangle
	Selected garment.ElementKind
	Order    []garment.ElementKind
	Report   raster.Report
}

// HitTest finds what lies under p. Handles of the selected element win,
// then layers from top to bottom.
func (f Frame) HitTest(p r2.Vec) Hit {
	if pl, ok := f.Report.Placement(f.Selected); ok {
		for i, c := range pl.Corners() {
			if r2.Norm(r2.Sub(p, c)) <= HandleRadius {
				return Hit{Element: f.Selected, Handle: cornerHandles[i]}
			}
		}
	}
	for i := len(f.Order) - 1; i >= 0; i-- {
		kind := f.Order[i]
		if pl, ok := f.Report.Placement(kind); ok && pl.Contains(p) {
			return Hit{Element: kind, Handle: BodyHandle}
		}
	}
	return Hit{}
}

// Renderer draws preview frames.
type Renderer struct {
	images texture.Resolver
	log    *slog.Logger
}

// NewRenderer creates a renderer resolving images through images.
func NewRenderer(images texture.Resolver, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{images: images, log: logger}
}

// Order returns the z-order for a selection: image below text, with the
// selected element always on top.
func Order(selected garment.ElementKind) []garment.ElementKind {
	if selected == garment.ImageElementKind {
		return []garment.ElementKind{garment.TextElementKind, garment.ImageElementKind}
	}
	return raster.DefaultOrder
}

// Render draws side on the base color into a container of the given size.
// An empty size yields an empty frame.
func (r *Renderer) Render(base color.NRGBA, side garment.SideConfig, size image.Point, selected garment.ElementKind) (*image.RGBA, Frame) {
	bounds := image.Rectangle{Max: size}
	dst := image.NewRGBA(bounds)
	frame := Frame{Bounds: bounds, Selected: selected, Order: Order(selected)}
	if bounds.Empty() {
		return dst, frame
	}

	raster.Fill(dst, bounds, base)
	frame.Report = raster.DrawSide(dst, bounds, side, r.images, frame.Order)
	for _, s := range frame.Report.Skipped {
		r.log.Debug("preview: layer skipped", "layer", s.String())
	}

	if pl, ok := frame.Report.Placement(selected); ok {
		drawSelection(dst, pl)
	}
	return dst, frame
}

func drawSelection(dst *image.RGBA, pl layout.Placement) {
	c := pl.Corners()
	for i := range c {
		drawLine(dst, c[i], c[(i+1)%4], outlineColor)
	}
	for i, h := range cornerHandles {
		drawDisc(dst, c[i], HandleRadius, handleColors[h])
	}
}

// drawLine draws a 1px dashed line from a to b.
func drawLine(dst *image.RGBA, a, b r2.Vec, c color.NRGBA) {
	d := r2.Sub(b, a)
	n := int(max(abs(d.X), abs(d.Y)))
	if n == 0 {
		return
	}
	bounds := dst.Bounds()
	for i := 0; i <= n; i++ {
		if (i/4)%2 == 1 {
			continue
		}
		p := r2.Add(a, r2.Scale(float64(i)/float64(n), d))
		pt := image.Pt(int(p.X), int(p.Y))
		if pt.In(bounds) {
			dst.SetRGBA(pt.X, pt.Y, color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A})
		}
	}
}

// drawDisc draws a filled disc with a white rim.
func drawDisc(dst *image.RGBA, center r2.Vec, radius float64, c color.NRGBA) {
	bounds := dst.Bounds()
	r := int(radius) + 1
	cx, cy := int(center.X), int(center.Y)
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			if !image.Pt(x, y).In(bounds) {
				continue
			}
			d := r2.Norm(r2.Sub(r2.Vec{X: float64(x) + 0.5, Y: float64(y) + 0.5}, center))
			switch {
			case d <= radius-1.5:
				dst.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
			case d <= radius:
				dst.SetRGBA(x, y, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
			}
		}
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
