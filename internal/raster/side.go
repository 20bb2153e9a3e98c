package raster

import (
	"fmt"
	"image"

	"garment-studio/internal/fonts"
	"garment-studio/internal/garment"
	"garment-studio/internal/layout"
	"garment-studio/internal/texture"
)

// DefaultOrder draws the image below the text.
var DefaultOrder = []garment.ElementKind{garment.ImageElementKind, garment.TextElementKind}

// Drawn records where a layer ended up.
type Drawn struct {
	Element   garment.ElementKind
	Placement layout.Placement
}

// Skipped records a present layer that could not be drawn.
type Skipped struct {
	Element garment.ElementKind
	Ref     string
	Err     error
}

func (s Skipped) String() string {
	if s.Ref != "" {
		return fmt.Sprintf("%s %q: %v", s.Element, s.Ref, s.Err)
	}
	return fmt.Sprintf("%s: %v", s.Element, s.Err)
}

// Report lists the outcome of DrawSide.
type Report struct {
	Drawn   []Drawn
	Skipped []Skipped
}

// Placement returns the placement of a drawn element.
func (r Report) Placement(kind garment.ElementKind) (layout.Placement, bool) {
	for _, d := range r.Drawn {
		if d.Element == kind {
			return d.Placement, true
		}
	}
	return layout.Placement{}, false
}

// DrawSide draws the present layers of side into region of dst, bottom to
// top in the given order. Nothing is drawn outside region. Layers that fail
// to resolve are skipped and reported; the others still draw.
func DrawSide(dst *image.RGBA, region image.Rectangle, side garment.SideConfig, images texture.Resolver, order []garment.ElementKind) Report {
	var rep Report
	region = region.Intersect(dst.Bounds())
	if region.Empty() {
		return rep
	}
	clip := dst.SubImage(region).(*image.RGBA)

	for _, kind := range order {
		switch kind {
		case garment.ImageElementKind:
			if !side.Image.Present() {
				continue
			}
			if images == nil {
				rep.Skipped = append(rep.Skipped, Skipped{Element: kind, Ref: side.Image.Source, Err: texture.ErrNotFound})
				continue
			}
			img, err := images.Resolve(side.Image.Source)
			if err != nil {
				rep.Skipped = append(rep.Skipped, Skipped{Element: kind, Ref: side.Image.Source, Err: err})
				continue
			}
			b := img.Bounds()
			p, ok := layout.ImagePlacement(region, side.Image.Transform, b.Dx(), b.Dy())
			if !ok {
				continue
			}
			DrawImage(clip, img, p)
			rep.Drawn = append(rep.Drawn, Drawn{Element: kind, Placement: p})

		case garment.TextElementKind:
			if !side.Text.Present() {
				continue
			}
			t := side.Text
			size := layout.FontSize(t.FontSizeUnit, region.Dx(), t.Transform.Scale)
			if size <= 0 {
				continue
			}
			face, err := fonts.Face(t.FontFamily, size)
			if err != nil {
				rep.Skipped = append(rep.Skipped, Skipped{Element: kind, Err: err})
				continue
			}
			txt := RenderText(t.Content, face, t.Color)
			face.Close()

			p := layout.TextPlacement(region, t.Transform, txt.W, txt.H)
			DrawText(clip, txt, p)
			rep.Drawn = append(rep.Drawn, Drawn{Element: kind, Placement: p})
		}
	}
	return rep
}
