package postprocess

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func filled(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestDownsampleKeepsFlatColor(t *testing.T) {
	src := filled(64, 32, color.RGBA{R: 10, G: 120, B: 250, A: 255})
	out := Downsample(src, 16, 8)
	assert.Equal(t, image.Rect(0, 0, 16, 8), out.Bounds())
	c := out.RGBAAt(8, 4)
	assert.InDelta(t, 10, int(c.R), 1)
	assert.InDelta(t, 120, int(c.G), 1)
	assert.InDelta(t, 250, int(c.B), 1)
	assert.InDelta(t, 255, int(c.A), 1)
}

func TestDownsampleNoUpscale(t *testing.T) {
	src := filled(8, 8, color.RGBA{A: 255})
	assert.Same(t, src, Downsample(src, 16, 16))
	assert.Same(t, src, Fit(src, 8))
}

func TestFitKeepsAspect(t *testing.T) {
	src := filled(200, 100, color.RGBA{A: 255})
	assert.Equal(t, image.Rect(0, 0, 50, 25), Fit(src, 50).Bounds())
}

func TestUnpremultiply(t *testing.T) {
	src := image.NewRGBA(image.Rect(2, 2, 5, 3))
	src.SetRGBA(2, 2, color.RGBA{R: 64, A: 128})
	src.SetRGBA(3, 2, color.RGBA{G: 255, A: 255})

	out := Unpremultiply(src)
	assert.Equal(t, image.Rect(0, 0, 3, 1), out.Bounds())
	assert.Equal(t, color.NRGBA{R: 128, A: 128}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{G: 255, A: 255}, out.NRGBAAt(1, 0))
	assert.Equal(t, color.NRGBA{}, out.NRGBAAt(2, 0))
}
