// Package raster draws placed layers into RGBA images. Every drawing call
// is clipped to the bounds of its destination, so callers clip to a region
// by passing a sub-image.
package raster

import (
	"image"
	"image/color"

	"garment-studio/internal/layout"
	"garment-studio/internal/mathutil"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"gonum.org/v1/gonum/spatial/r2"
)

// textPad is the transparent margin around rasterized text, in pixels.
const textPad = 2

// Fill paints r (clipped to dst) with c, replacing existing pixels.
func Fill(dst *image.RGBA, r image.Rectangle, c color.NRGBA) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	pc := color.RGBAModel.Convert(c).(color.RGBA)
	row := make([]uint8, r.Dx()*4)
	for i := 0; i < len(row); i += 4 {
		row[i], row[i+1], row[i+2], row[i+3] = pc.R, pc.G, pc.B, pc.A
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := dst.PixOffset(r.Min.X, y)
		copy(dst.Pix[off:off+len(row)], row)
	}
}

// DrawImage composites src over dst at placement p.
func DrawImage(dst draw.Image, src image.Image, p layout.Placement) {
	b := src.Bounds()
	if b.Empty() || p.W <= 0 || p.H <= 0 {
		return
	}
	m := mathutil.Chain(
		mathutil.Translate(-float64(b.Min.X), -float64(b.Min.Y)),
		p.Matrix(float64(b.Dx()), float64(b.Dy())),
	)
	draw.BiLinear.Transform(dst, m.Aff3(), src, b, draw.Over, nil)
}

// Text is a line of text rasterized at its final pixel size, before
// placement. Anchor is the center of the text's em box inside Img.
type Text struct {
	Img    *image.RGBA
	Anchor r2.Vec
	W, H   float64 // advance width and em box height
}

// RenderText rasterizes s with face in color c. The em box (ascent plus
// descent) is vertically centered on Anchor, the advance width horizontally.
func RenderText(s string, face font.Face, c color.NRGBA) Text {
	m := face.Metrics()
	adv := font.MeasureString(face, s)
	em := m.Ascent + m.Descent

	w := adv.Ceil() + 2*textPad
	h := em.Ceil() + 2*textPad
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(textPad),
			Y: fixed.I(textPad) + m.Ascent,
		},
	}
	d.DrawString(s)

	return Text{
		Img: img,
		Anchor: r2.Vec{
			X: textPad + fixedToFloat(adv)/2,
			Y: textPad + fixedToFloat(em)/2,
		},
		W: fixedToFloat(adv),
		H: fixedToFloat(em),
	}
}

// DrawText composites t over dst with its anchor on p.Center, rotated by
// p.Rotation. p.W and p.H are ignored; text is already at final size.
func DrawText(dst draw.Image, t Text, p layout.Placement) {
	if t.Img == nil || t.Img.Bounds().Empty() {
		return
	}
	m := mathutil.Chain(
		mathutil.Translate(-t.Anchor.X, -t.Anchor.Y),
		mathutil.Rot(mathutil.Deg2Rad(p.Rotation)),
		mathutil.Translate(p.Center.X, p.Center.Y),
	)
	draw.BiLinear.Transform(dst, m.Aff3(), t.Img, t.Img.Bounds(), draw.Over, nil)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
