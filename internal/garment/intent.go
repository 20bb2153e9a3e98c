package garment

import "image/color"

// Intent is a typed request to change a Config. Intents are applied by a single
// owner (see internal/store) through Reduce.
type Intent interface {
	isIntent()
}

// SetTransform merges Patch into the transform of one element.
type SetTransform struct {
	Side    Side
	Element ElementKind
	Patch   Patch
}

// SetBaseColor replaces the garment base color.
type SetBaseColor struct {
	Color color.NRGBA
}

// DeleteElement clears an element's content (text) or source (image).
// Its transform is kept so a new upload reappears at the same spot.
type DeleteElement struct {
	Side    Side
	Element ElementKind
}

// SetText replaces the text content of a side.
type SetText struct {
	Side    Side
	Content string
}

// SetTextStyle changes text styling. Zero-valued fields are left unchanged.
type SetTextStyle struct {
	Side         Side
	Color        *color.NRGBA
	FontFamily   string
	FontSizeUnit float64
}

// SetImage sets the image source of a side.
type SetImage struct {
	Side   Side
	Source string
}

func (SetTransform) isIntent()  {}
func (SetBaseColor) isIntent()  {}
func (DeleteElement) isIntent() {}
func (SetText) isIntent()       {}
func (SetTextStyle) isIntent()  {}
func (SetImage) isIntent()      {}

// Reduce applies in to c and returns the new Config. c is passed by value and
// only the branch touched by the intent is replaced, so earlier snapshots stay
// valid. Unknown intents and no-op patches return c unchanged.
func Reduce(c Config, in Intent) Config {
	switch in := in.(type) {
	case SetTransform:
		if in.Patch.Empty() {
			return c
		}
		sc := c.Side(in.Side)
		switch in.Element {
		case ImageElementKind:
			sc.Image.Transform = sc.Image.Transform.Apply(in.Patch)
		case TextElementKind:
			sc.Text.Transform = sc.Text.Transform.Apply(in.Patch)
		default:
			return c
		}
		return c.WithSide(in.Side, sc)

	case SetBaseColor:
		c.BaseColor = in.Color
		return c

	case DeleteElement:
		sc := c.Side(in.Side)
		switch in.Element {
		case ImageElementKind:
			sc.Image.Source = ""
		case TextElementKind:
			sc.Text.Content = ""
		default:
			return c
		}
		return c.WithSide(in.Side, sc)

	case SetText:
		sc := c.Side(in.Side)
		sc.Text.Content = in.Content
		return c.WithSide(in.Side, sc)

	case SetTextStyle:
		sc := c.Side(in.Side)
		if in.Color != nil {
			sc.Text.Color = *in.Color
		}
		if in.FontFamily != "" {
			sc.Text.FontFamily = in.FontFamily
		}
		if in.FontSizeUnit > 0 {
			sc.Text.FontSizeUnit = in.FontSizeUnit
		}
		return c.WithSide(in.Side, sc)

	case SetImage:
		sc := c.Side(in.Side)
		sc.Image.Source = in.Source
		return c.WithSide(in.Side, sc)
	}
	return c
}
