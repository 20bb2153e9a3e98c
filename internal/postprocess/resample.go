// Package postprocess resamples and converts finished canvases.
package postprocess

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample scales img to w×h with CatmullRom. img is premultiplied, so
// transparent edges do not darken. An image already at or below the target
// size is returned unchanged.
func Downsample(img *image.RGBA, w, h int) *image.RGBA {
	b := img.Bounds()
	if w <= 0 || h <= 0 || (b.Dx() <= w && b.Dy() <= h) {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	ScaleRect(dst, dst.Bounds(), img, b)
	return dst
}

// ScaleRect resamples the sr part of src into the dr part of dst with
// CatmullRom. The kernel only reads pixels inside sr, so content next to sr
// never bleeds into dr.
func ScaleRect(dst *image.RGBA, dr image.Rectangle, src *image.RGBA, sr image.Rectangle) {
	draw.CatmullRom.Scale(dst, dr, src, sr, draw.Src, nil)
}

// Fit downsamples img so that its longer side is at most maxSide, keeping
// the aspect ratio.
func Fit(img *image.RGBA, maxSide int) *image.RGBA {
	b := img.Bounds()
	long := max(b.Dx(), b.Dy())
	if maxSide <= 0 || long <= maxSide {
		return img
	}
	w := max(1, b.Dx()*maxSide/long)
	h := max(1, b.Dy()*maxSide/long)
	return Downsample(img, w, h)
}

// Unpremultiply converts img to straight alpha.
func Unpremultiply(img *image.RGBA) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		si := img.PixOffset(b.Min.X, b.Min.Y+y)
		di := out.PixOffset(0, y)
		for x := 0; x < b.Dx(); x++ {
			s, d := si+4*x, di+4*x
			a := img.Pix[s+3]
			out.Pix[d+3] = a
			switch a {
			case 0:
			case 0xff:
				copy(out.Pix[d:d+3], img.Pix[s:s+3])
			default:
				inv := 255.0 / float64(a)
				out.Pix[d] = clamp8(float64(img.Pix[s]) * inv)
				out.Pix[d+1] = clamp8(float64(img.Pix[s+1]) * inv)
				out.Pix[d+2] = clamp8(float64(img.Pix[s+2]) * inv)
			}
		}
	}
	return out
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
